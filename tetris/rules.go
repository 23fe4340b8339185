package tetris

// IsValidPlacement reports whether every occupied cell of t sits inside the
// board's walls and floor and over an empty cell.
//
// Rows above the board (row < 0) are allowed so pieces can spawn partially
// hidden and rotate near the top.
//
//	.	0 1 2 3 4 5 6 7 8 9		.	0 1 2
//	-1	X X X O X X X X X X		0	O X X
//	0	X X X O O O X X X X		1	O O O
//	1	X X X X X X X X X X
func IsValidPlacement(t Tetromino, b Board) bool {
	valid := true
	t.cells(func(row, col int) bool {
		if col < 0 || col >= b.Cols() || row >= b.Rows() || (row >= 0 && b.At(row, col) != Empty) {
			valid = false
		}
		return valid
	})
	return valid
}

// Translate returns a copy of t moved by dRow rows and dCol columns.
func Translate(t Tetromino, dRow, dCol int) Tetromino {
	t.Row += dRow
	t.Col += dCol
	return t
}

// RotateClockwise returns a copy of t with its grid turned 90° clockwise:
// the grid is transposed and then every row is reversed. The origin stays put.
// Grids don't need to be square, a 2x3 becomes a 3x2.
func RotateClockwise(t Tetromino) Tetromino {
	if len(t.Grid) == 0 {
		return t
	}
	rows, cols := len(t.Grid), len(t.Grid[0])
	rotated := make([][]bool, cols)
	for c := range cols {
		rotated[c] = make([]bool, rows)
		for r := range rows {
			rotated[c][rows-1-r] = t.Grid[r][c]
		}
	}
	t.Grid = rotated
	return t
}

// DropDistance returns how many rows t can fall before it rests on the stack.
func DropDistance(t Tetromino, b Board) int {
	d := 0
	for IsValidPlacement(Translate(t, d+1, 0), b) {
		d++
	}
	return d
}
