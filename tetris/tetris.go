// Package tetris contains the logic of the game: the shape catalog, the
// board, the placement rules, line clearing and scoring, and the controller
// that drives a session with a gravity timer.
package tetris

import (
	"math/rand/v2"
)

// State is the phase of the spawn > fall > lock > clear cycle a session is in.
type State uint8

const (
	Spawning State = iota
	Falling
	Locking
	Clearing
	GameOver
)

func (s State) String() string {
	switch s {
	case Spawning:
		return "spawning"
	case Falling:
		return "falling"
	case Locking:
		return "locking"
	case Clearing:
		return "clearing"
	case GameOver:
		return "gameover"
	default:
		return "unknown"
	}
}

// ParseState is the inverse of State.String.
func ParseState(name string) (State, bool) {
	for s := Spawning; s <= GameOver; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// Config is fixed for the lifetime of a Game.
type Config struct {
	Rows  int
	Cols  int
	Level int    // initial level, restored on restart.
	Seed  uint64 // 0 picks a random seed.
}

func DefaultConfig() Config {
	return Config{Rows: DefaultRows, Cols: DefaultCols, Level: 1}
}

// normalize replaces unusable values with the defaults.
func (c Config) normalize() Config {
	if c.Rows <= 0 {
		c.Rows = DefaultRows
	}
	if c.Cols <= 0 {
		c.Cols = DefaultCols
	}
	if c.Level < 1 {
		c.Level = 1
	}
	return c
}

// Randomizer picks the next shape. IntN returns a value in [0, n).
type Randomizer interface {
	IntN(n int) int
}

func newRandomizer(seed uint64) Randomizer {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Tetris is the state of a single session. It is not safe for concurrent
// use; Game serialises every access to it.
type Tetris struct {
	board   Board
	current *Tetromino
	next    *Tetromino
	score   int
	lines   int
	level   int
	state   State
	paused  bool

	cfg Config
	rnd Randomizer
}

func newTetris(cfg Config, rnd Randomizer) *Tetris {
	t := &Tetris{cfg: cfg.normalize(), rnd: rnd}
	t.reset()
	return t
}

// reset starts the session over: empty board, no score and the initial level.
func (t *Tetris) reset() {
	t.board = NewBoard(t.cfg.Rows, t.cfg.Cols)
	t.score = 0
	t.lines = 0
	t.level = t.cfg.Level
	t.paused = false
	t.next = t.draft()
	t.spawn()
}

func (t *Tetris) draft() *Tetromino {
	tm := NewTetromino(ShapeAt(t.rnd.IntN(ShapeCount())), t.board.Cols())
	return &tm
}

// spawn promotes the next tetromino and drafts a new one. If the promoted
// tetromino doesn't fit the game is over and there is no current tetromino,
// so nothing ever overlaps the stack.
func (t *Tetris) spawn() {
	t.state = Spawning
	t.current = t.next
	t.next = t.draft()
	if !IsValidPlacement(*t.current, t.board) {
		t.current = nil
		t.state = GameOver
		return
	}
	t.state = Falling
}

// playing reports whether player commands and gravity apply.
func (t *Tetris) playing() bool {
	return t.state == Falling && !t.paused && t.current != nil
}

// try commits candidate as the current tetromino if it fits.
func (t *Tetris) try(candidate Tetromino) bool {
	if !IsValidPlacement(candidate, t.board) {
		return false
	}
	*t.current = candidate
	return true
}

func (t *Tetris) left() bool {
	return t.playing() && t.try(Translate(*t.current, 0, -1))
}

func (t *Tetris) right() bool {
	return t.playing() && t.try(Translate(*t.current, 0, 1))
}

func (t *Tetris) rotate() bool {
	return t.playing() && t.try(RotateClockwise(*t.current))
}

// down moves the tetromino one row down. It never locks: a blocked soft
// drop is a no-op and the next gravity tick does the locking.
func (t *Tetris) down() bool {
	return t.playing() && t.try(Translate(*t.current, 1, 0))
}

// gravity is one tick of the timer: the tetromino falls one row or, if it
// can't, it's locked into the board.
func (t *Tetris) gravity() bool {
	if !t.playing() {
		return false
	}
	if t.down() {
		return true
	}
	t.settle()
	return true
}

// drop moves the tetromino as far down as it goes and locks it.
func (t *Tetris) drop() bool {
	if !t.playing() {
		return false
	}
	t.current.Row += DropDistance(*t.current, t.board)
	t.settle()
	return true
}

// settle runs lock > clear > spawn.
func (t *Tetris) settle() {
	t.state = Locking
	t.board = t.board.Lock(*t.current)

	t.state = Clearing
	board, n := ClearLines(t.board)
	t.board = board
	t.lines += n
	t.score += ScoreDelta(n, t.level)

	t.spawn()
}

func (t *Tetris) togglePause() bool {
	if t.state == GameOver {
		return false
	}
	t.paused = !t.paused
	return true
}

func (t *Tetris) setLevel(level int) bool {
	if level < 1 {
		level = 1
	}
	if level == t.level {
		return false
	}
	t.level = level
	return true
}

// action applies a player command and reports whether it changed anything.
func (t *Tetris) action(a Action) bool {
	switch a {
	case MoveLeft:
		return t.left()
	case MoveRight:
		return t.right()
	case Rotate:
		return t.rotate()
	case SoftDrop:
		return t.down()
	case HardDrop:
		return t.drop()
	case TogglePause:
		return t.togglePause()
	case Restart:
		t.reset()
		return true
	default:
		return false
	}
}

// Snapshot returns a copy of the session that's safe to keep and read concurrently.
func (t *Tetris) Snapshot() *Snapshot {
	s := &Snapshot{
		Board:      t.board.Rows2D(),
		Tetromino:  t.current.copy(),
		Next:       t.next.copy(),
		Score:      t.score,
		LinesClear: t.lines,
		Level:      t.level,
		State:      t.state,
		GameOver:   t.state == GameOver,
		Paused:     t.paused,
	}
	if t.current != nil {
		s.GhostRow = t.current.Row + DropDistance(*t.current, t.board)
	}
	return s
}

// Snapshot is the read-only view of a session handed to renderers.
type Snapshot struct {
	// Board is Rows x Cols, row 0 at the top. Empty cells are Empty.
	Board      [][]Shape
	Tetromino  *Tetromino
	Next       *Tetromino
	GhostRow   int // row the current tetromino would land on.
	Score      int
	LinesClear int
	Level      int
	State      State
	GameOver   bool
	Paused     bool
}
