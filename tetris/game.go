package tetris

import (
	"log/slog"
	"sync"
	"time"
)

type Action string

const (
	MoveLeft    Action = "left"     // Moves the Tetromino one step to the left.
	MoveRight   Action = "right"    // Moves the Tetromino one step to the right.
	Rotate      Action = "rotate"   // Rotates the Tetromino clockwise.
	SoftDrop    Action = "softdrop" // Moves the Tetromino one step down.
	HardDrop    Action = "harddrop" // Drops the Tetromino down the stack and locks it.
	TogglePause Action = "pause"    // Pauses or resumes the game.
	Restart     Action = "restart"  // Starts a new game.
)

// Actions lists every command a host can send.
var Actions = []Action{MoveLeft, MoveRight, Rotate, SoftDrop, HardDrop, TogglePause, Restart}

// ParseAction returns the Action named s.
func ParseAction(s string) (Action, bool) {
	for _, a := range Actions {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

// GravityInterval is the time between gravity ticks at the given level.
func GravityInterval(level int) time.Duration {
	if level < 1 {
		level = 1
	}
	return time.Second / time.Duration(level)
}

type Ticker interface {
	C() <-chan time.Time
	Reset(time.Duration)
	Stop()
}

type wrappedTicker struct {
	ticker *time.Ticker
}

func newWrappedTicker(d time.Duration) *wrappedTicker {
	return &wrappedTicker{ticker: time.NewTicker(d)}
}

func (t *wrappedTicker) C() <-chan time.Time   { return t.ticker.C }
func (t *wrappedTicker) Stop()                 { t.ticker.Stop() }
func (t *wrappedTicker) Reset(d time.Duration) { t.ticker.Reset(d) }

type Option func(*Game)

func WithLogger(l *slog.Logger) Option { return func(g *Game) { g.logger = l } }

// WithTicker replaces the gravity timer. Reset and Stop are only called from
// the game's own goroutine, and from Start and Stop.
func WithTicker(t Ticker) Option { return func(g *Game) { g.ticker = t } }

func WithRandomizer(r Randomizer) Option { return func(g *Game) { g.rnd = r } }

// event is a player command or, when action is empty, a level change.
type event struct {
	action Action
	level  int
}

// Game drives a Tetris session. A single goroutine applies gravity ticks,
// commands and level changes one at a time in the order they arrive.
type Game struct {
	updateCh chan *Snapshot
	eventCh  chan event
	doneCh   chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once

	tetris *Tetris
	ticker Ticker
	rnd    Randomizer
	logger *slog.Logger
	mu     sync.RWMutex
}

func NewGame(cfg Config, opts ...Option) *Game {
	g := &Game{
		updateCh: make(chan *Snapshot, 1),
		eventCh:  make(chan event),
		doneCh:   make(chan struct{}),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(g)
	}
	if g.rnd == nil {
		g.rnd = newRandomizer(cfg.Seed)
	}
	if g.ticker == nil {
		// the ticker doesn't run until Start resets it.
		g.ticker = newWrappedTicker(time.Hour)
		g.ticker.Stop()
	}
	g.tetris = newTetris(cfg, g.rnd)
	return g
}

// Start arms the gravity timer and begins processing events.
func (g *Game) Start() {
	g.startOnce.Do(func() {
		g.ticker.Reset(GravityInterval(g.tetris.level))
		g.logger.Debug("game started", slog.Int("level", g.tetris.level))
		g.publish()
		go g.listen()
	})
}

// Stop releases the gravity timer and ends the game loop. Commands sent
// after Stop are dropped.
func (g *Game) Stop() {
	g.stopOnce.Do(func() {
		g.ticker.Stop()
		close(g.doneCh)
		g.logger.Debug("game stopped")
	})
}

// Action queues a command. It blocks until the game loop picks it up or the game is stopped.
func (g *Game) Action(a Action) {
	g.send(event{action: a})
}

// SetLevel changes the level, which sets the gravity speed and the score multiplier.
func (g *Game) SetLevel(level int) {
	g.send(event{level: level})
}

// Updates delivers a snapshot after every processed event. Only the latest
// snapshot is kept when the reader falls behind.
func (g *Game) Updates() <-chan *Snapshot {
	return g.updateCh
}

// Done is closed when the game is stopped.
func (g *Game) Done() <-chan struct{} {
	return g.doneCh
}

// Read returns a copy of the current state that's safe to read concurrently.
func (g *Game) Read() *Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.tetris.Snapshot()
}

func (g *Game) send(e event) {
	select {
	case g.eventCh <- e:
	case <-g.doneCh:
	}
}

func (g *Game) listen() {
	for {
		select {
		case <-g.ticker.C():
			g.mu.Lock()
			// a tick can already be buffered when the timer is stopped
			// by a pause or a game over. gravity ignores it then.
			g.step(g.tetris.gravity)
			g.mu.Unlock()
		case e := <-g.eventCh:
			g.mu.Lock()
			g.handle(e)
			g.mu.Unlock()
		case <-g.doneCh:
			g.ticker.Stop()
			return
		}
		g.publish()
	}
}

func (g *Game) handle(e event) {
	t := g.tetris
	switch e.action {
	case "":
		if t.setLevel(e.level) {
			g.logger.Debug("level changed", slog.Int("level", t.level))
			g.reschedule()
		}
	case TogglePause:
		if !t.togglePause() {
			return
		}
		if t.paused {
			g.ticker.Stop()
		} else {
			g.ticker.Reset(GravityInterval(t.level))
		}
		g.logger.Debug("pause toggled", slog.Bool("paused", t.paused))
	case Restart:
		t.reset()
		g.ticker.Reset(GravityInterval(t.level))
		g.logger.Debug("game restarted")
	default:
		g.step(func() bool { return t.action(e.action) })
	}
}

// step runs fn and stops the timer if it ended the game.
func (g *Game) step(fn func() bool) {
	wasOver := g.tetris.state == GameOver
	fn()
	if !wasOver && g.tetris.state == GameOver {
		g.ticker.Stop()
		g.logger.Info("game over",
			slog.Int("score", g.tetris.score),
			slog.Int("lines", g.tetris.lines),
			slog.Int("level", g.tetris.level),
		)
	}
}

// reschedule restarts the timer at the current level's interval, unless it's not running.
func (g *Game) reschedule() {
	if g.tetris.paused || g.tetris.state == GameOver {
		return
	}
	g.ticker.Reset(GravityInterval(g.tetris.level))
}

func (g *Game) publish() {
	s := g.Read()
	select {
	case g.updateCh <- s:
		return
	default:
	}
	// drop the stale snapshot nobody read yet.
	select {
	case <-g.updateCh:
	default:
	}
	select {
	case g.updateCh <- s:
	default:
	}
}
