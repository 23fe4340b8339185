package tetris

// lineScores is the base score for clearing 0 to 4 lines with a single lock.
var lineScores = [...]int{0, 40, 100, 300, 1200}

// ClearLines removes every full row from b and returns the compacted board
// together with the number of rows removed. Empty rows are inserted at the top
// so the board keeps its dimensions.
func ClearLines(b Board) (Board, int) {
	cleared := b.clone()
	lines := 0
	if cleared.Cols() == 0 {
		return cleared, 0
	}
	// scan from the floor up. after removing a row the rows above shift down
	// into the same index, so the index only moves on when the row isn't full.
	for row := cleared.Rows() - 1; row >= 0; {
		if !cleared.isFull(row) {
			row--
			continue
		}
		copy(cleared.cells[1:row+1], cleared.cells[:row])
		cleared.cells[0] = make([]Shape, cleared.Cols())
		lines++
	}
	return cleared, lines
}

// ScoreDelta returns the points for clearing lines rows at once at the given level.
// More than four lines score as four.
func ScoreDelta(lines, level int) int {
	switch {
	case lines < 0:
		lines = 0
	case lines >= len(lineScores):
		lines = len(lineScores) - 1
	}
	return lineScores[lines] * level
}
