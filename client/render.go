package client

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"text/template"

	"studygames/tetris/tetris"
)

const (
	// ASCII colors.
	Cyan    = "36"
	Blue    = "34"
	Orange  = "38;5;214"
	Yellow  = "33"
	Green   = "32"
	Red     = "31"
	Magenta = "35"

	resetPos    = "\033[H" // Reset cursor position to 0,0
	clearScreen = "\033[2J\033[H"
	emptyCell   = "  "
	ghostCell   = "[]"
	sideWidth   = 22
)

//go:embed "layout.tmpl"
var layout string

var colorMap = map[tetris.Shape]string{
	tetris.I: Cyan,
	tetris.J: Blue,
	tetris.L: Orange,
	tetris.O: Yellow,
	tetris.S: Green,
	tetris.Z: Red,
	tetris.T: Magenta,
}

func block(s tetris.Shape) string {
	return fmt.Sprintf("\x1b[7m\x1b[%sm[]\x1b[0m", colorMap[s])
}

type templateData struct {
	Snapshot *tetris.Snapshot
	NoGhost  bool
	Online   bool
}

// message is the text of the lobby box, one entry per line.
type message []string

func defaultLobby() message {
	return message{"Welcome to Terminal Tetris", "", "(p)lay   (q)uit"}
}

func errorMessage(err string) message {
	return message{"something went wrong :(", err, "(p)lay   (q)uit"}
}

type render struct {
	writer   io.Writer
	logger   *slog.Logger
	template *template.Template
	noGhost  bool
	online   bool
	mu       sync.Mutex
}

func newRender(w io.Writer, l *slog.Logger, noGhost, online bool) *render {
	return &render{
		writer:   w,
		logger:   l,
		template: loadTemplate(),
		noGhost:  noGhost,
		online:   online,
	}
}

func (r *render) game(s *tetris.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.writer, resetPos)
	td := &templateData{Snapshot: s, NoGhost: r.noGhost, Online: r.online}
	if err := r.template.Execute(r.writer, td); err != nil {
		r.logger.Error("unable to execute template", slog.String("error", err.Error()))
	}
}

// lobby draws m in a box over whatever is on screen.
func (r *render) lobby(m message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	const width = 38
	fmt.Fprintf(r.writer, "\033[8;5H+%s+", strings.Repeat("-", width))
	for i, line := range m {
		if len(line) > width-2 {
			line = line[:width-2]
		}
		pad := width - len(line)
		fmt.Fprintf(r.writer, "\033[%d;5H|%s%s%s|", 9+i, strings.Repeat(" ", pad/2), line, strings.Repeat(" ", pad-pad/2))
	}
	fmt.Fprintf(r.writer, "\033[%d;5H+%s+", 9+len(m), strings.Repeat("-", width))
}

func (r *render) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.writer, clearScreen)
}

func loadTemplate() *template.Template {
	funcMap := template.FuncMap{
		"localStack": localStack,
		"sidePanel":  sidePanel,
		"border":     border,
	}

	// keyboard keeps the console raw so new lines don't automatically transform
	// into carriage return. to fix that we add a carriage return to every new line.
	l := strings.ReplaceAll(layout, "\n", "\r\n")
	l = strings.ReplaceAll(l, "Terminal Tetris", "\033[1mTerminal Tetris\033[0m")
	return template.Must(template.New("layout").Funcs(funcMap).Parse(l))
}

// localStack renders the board with the ghost and the current tetromino on top.
func localStack(td *templateData) [][]string {
	if td == nil || td.Snapshot == nil {
		return blankStack(tetris.DefaultRows, tetris.DefaultCols)
	}
	s := td.Snapshot
	if len(s.Board) == 0 {
		return nil
	}
	rendered := blankStack(len(s.Board), len(s.Board[0]))
	for y, row := range s.Board {
		for x, c := range row {
			if c != tetris.Empty {
				rendered[y][x] = block(c)
			}
		}
	}

	if s.Tetromino == nil {
		return rendered
	}
	paint := func(row int, cell string) {
		for iy, line := range s.Tetromino.Grid {
			for ix, v := range line {
				y, x := row+iy, s.Tetromino.Col+ix
				if v && y >= 0 && y < len(rendered) && x >= 0 && x < len(rendered[y]) {
					rendered[y][x] = cell
				}
			}
		}
	}
	if !td.NoGhost {
		paint(s.GhostRow, ghostCell)
	}
	paint(s.Tetromino.Row, block(s.Tetromino.Shape))
	return rendered
}

func blankStack(rows, cols int) [][]string {
	rendered := make([][]string, rows)
	for y := range rendered {
		rendered[y] = make([]string, cols)
		for x := range rendered[y] {
			rendered[y][x] = emptyCell
		}
	}
	return rendered
}

// nextPiece renders the next tetromino in a 2x4 box, bottom aligned.
func nextPiece(td *templateData) []string {
	rows := [][]string{
		{emptyCell, emptyCell, emptyCell, emptyCell},
		{emptyCell, emptyCell, emptyCell, emptyCell},
	}
	if td != nil && td.Snapshot != nil && td.Snapshot.Next != nil {
		n := td.Snapshot.Next
		offset := len(rows) - len(n.Grid)
		for iy, line := range n.Grid {
			for ix, v := range line {
				if v && iy+offset >= 0 && ix < 4 {
					rows[iy+offset][ix] = block(n.Shape)
				}
			}
		}
	}
	return []string{strings.Join(rows[0], ""), strings.Join(rows[1], "")}
}

// sidePanel returns the text to the right of each board row.
func sidePanel(td *templateData) []string {
	rows := tetris.DefaultRows
	if td != nil && td.Snapshot != nil {
		rows = len(td.Snapshot.Board)
	}
	lines := make([]string, rows)
	set := func(i int, format string, a ...any) {
		if i < rows {
			lines[i] = fmt.Sprintf(format, a...)
		}
	}
	next := nextPiece(td)
	set(0, "Next:")
	set(1, "%s", next[0])
	set(2, "%s", next[1])
	if td != nil && td.Snapshot != nil {
		s := td.Snapshot
		set(4, "Score: %d", s.Score)
		set(5, "Lines: %d", s.LinesClear)
		set(6, "Level: %d", s.Level)
		switch {
		case s.GameOver:
			set(8, "GAME OVER")
			set(9, "(r)estart (q)uit")
		case s.Paused:
			set(8, "PAUSED")
		}
	}
	if td != nil && td.Online {
		set(11, "online")
	}
	set(13, "move:   a d ← →")
	set(14, "rotate: w ↑")
	set(15, "drop:   s ↓ space")
	set(16, "(p)ause (r)estart")
	set(17, "(q)uit")

	// clear what a longer previous line left behind.
	for i, l := range lines {
		if !strings.Contains(l, "\x1b") && len(l) < sideWidth {
			lines[i] = l + strings.Repeat(" ", sideWidth-len(l))
		}
	}
	return lines
}

func border(td *templateData) string {
	cols := tetris.DefaultCols
	if td != nil && td.Snapshot != nil && len(td.Snapshot.Board) > 0 {
		cols = len(td.Snapshot.Board[0])
	}
	return "+" + strings.Repeat("-", 2*cols) + "+"
}
