package tetris

const (
	DefaultRows = 20
	DefaultCols = 10
)

// Board is the stack of locked cells. Row 0 is the top of the playfield.
//
// Board is a value: Lock and ClearLines return a new Board and never modify
// the receiver, so a Board held by a snapshot or a speculative check stays valid.
type Board struct {
	cells [][]Shape
}

// NewBoard returns an empty board with the given dimensions.
func NewBoard(rows, cols int) Board {
	cells := make([][]Shape, rows)
	for i := range cells {
		cells[i] = make([]Shape, cols)
	}
	return Board{cells: cells}
}

func (b Board) Rows() int { return len(b.cells) }

func (b Board) Cols() int {
	if len(b.cells) == 0 {
		return 0
	}
	return len(b.cells[0])
}

// At returns the cell at row, col or OutOfBounds.
func (b Board) At(row, col int) Shape {
	if row < 0 || row >= b.Rows() || col < 0 || col >= b.Cols() {
		return OutOfBounds
	}
	return b.cells[row][col]
}

// Lock writes the tetromino into the board. The placement must have been
// validated with IsValidPlacement; cells above the top row are discarded.
func (b Board) Lock(t Tetromino) Board {
	locked := b.clone()
	t.cells(func(row, col int) bool {
		if row >= 0 && row < locked.Rows() && col >= 0 && col < locked.Cols() {
			locked.cells[row][col] = t.Shape
		}
		return true
	})
	return locked
}

// Set returns a copy of the board with a single cell changed.
// Out of range coordinates return the board unchanged.
func (b Board) Set(row, col int, s Shape) Board {
	if b.At(row, col) == OutOfBounds {
		return b
	}
	c := b.clone()
	c.cells[row][col] = s
	return c
}

// Rows2D returns a deep copy of the cells.
func (b Board) Rows2D() [][]Shape {
	return b.clone().cells
}

func (b Board) isFull(row int) bool {
	for _, c := range b.cells[row] {
		if c == Empty {
			return false
		}
	}
	return true
}

func (b Board) clone() Board {
	cells := make([][]Shape, len(b.cells))
	for i := range b.cells {
		cells[i] = make([]Shape, len(b.cells[i]))
		copy(cells[i], b.cells[i])
	}
	return Board{cells: cells}
}
