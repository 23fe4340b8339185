package tetris

// Shape identifies one of the seven tetrominoes. It is also the value
// stored in a Board cell and the colour a renderer paints it with.
type Shape uint8

const (
	Empty Shape = iota
	I
	J
	L
	O
	S
	Z
	T

	// OutOfBounds is returned by Board.At for coordinates outside the grid.
	OutOfBounds Shape = 255
)

var catalog = [...]Shape{I, J, L, O, S, Z, T}

// ShapeCount returns the number of playable shapes.
func ShapeCount() int { return len(catalog) }

// ShapeAt returns the catalog entry at index i.
// i is taken modulo the catalog size so any random integer is a valid index.
func ShapeAt(i int) Shape {
	n := len(catalog)
	return catalog[((i%n)+n)%n]
}

func (s Shape) String() string {
	switch s {
	case I:
		return "I"
	case J:
		return "J"
	case L:
		return "L"
	case O:
		return "O"
	case S:
		return "S"
	case Z:
		return "Z"
	case T:
		return "T"
	case OutOfBounds:
		return "#"
	default:
		return ""
	}
}

// ParseShape is the inverse of Shape.String. Unknown names map to Empty.
func ParseShape(name string) Shape {
	for _, s := range catalog {
		if s.String() == name {
			return s
		}
	}
	return Empty
}

// Grid returns a copy of the shape's occupancy matrix in its rest orientation.
// Rows go top to bottom, columns left to right.
func (s Shape) Grid() [][]bool {
	switch s {
	/*
		.	0 1 2 3
		0	O O O O
	*/
	case I:
		return [][]bool{
			{true, true, true, true},
		}
	/*
		.	0 1 2
		0	O X X
		1	O O O
	*/
	case J:
		return [][]bool{
			{true, false, false},
			{true, true, true},
		}
	/*
		.	0 1 2
		0	X X O
		1	O O O
	*/
	case L:
		return [][]bool{
			{false, false, true},
			{true, true, true},
		}
	/*
		.	0 1
		0	O O
		1	O O
	*/
	case O:
		return [][]bool{
			{true, true},
			{true, true},
		}
	/*
		.	0 1 2
		0	X O O
		1	O O X
	*/
	case S:
		return [][]bool{
			{false, true, true},
			{true, true, false},
		}
	/*
		.	0 1 2
		0	O O X
		1	X O O
	*/
	case Z:
		return [][]bool{
			{true, true, false},
			{false, true, true},
		}
	/*
		.	0 1 2
		0	X O X
		1	O O O
	*/
	case T:
		return [][]bool{
			{false, true, false},
			{true, true, true},
		}
	default:
		return nil
	}
}

// Tetromino is the falling piece. Row and Col are the position of the
// top-left corner of Grid on the board; rows grow downward.
type Tetromino struct {
	Grid  [][]bool
	Row   int
	Col   int
	Shape Shape
}

// NewTetromino places s at the top of a board with cols columns, horizontally centred.
func NewTetromino(s Shape, cols int) Tetromino {
	grid := s.Grid()
	width := 0
	if len(grid) > 0 {
		width = len(grid[0])
	}
	return Tetromino{
		Grid:  grid,
		Row:   0,
		Col:   (cols - width) / 2,
		Shape: s,
	}
}

// cells calls fn with the absolute board position of every occupied cell.
func (t Tetromino) cells(fn func(row, col int) bool) {
	for ir, r := range t.Grid {
		for ic, c := range r {
			if c && !fn(t.Row+ir, t.Col+ic) {
				return
			}
		}
	}
}

func (t *Tetromino) copy() *Tetromino {
	if t == nil {
		return nil
	}
	grid := make([][]bool, len(t.Grid))
	for i := range t.Grid {
		grid[i] = make([]bool, len(t.Grid[i]))
		copy(grid[i], t.Grid[i])
	}
	return &Tetromino{
		Grid:  grid,
		Row:   t.Row,
		Col:   t.Col,
		Shape: t.Shape,
	}
}
