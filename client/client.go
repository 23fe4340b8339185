// Package client is the terminal front end: it decodes the keyboard, draws
// snapshots with ANSI colors and drives a local or a remote game.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/eiannone/keyboard"

	"studygames/tetris/tetris"
)

type clientState int

const (
	lobby clientState = iota
	playing
	gameOver
)

type state struct {
	current clientState
	mu      sync.Mutex
}

func (s *state) get() clientState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *state) set(c clientState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = c
}

// game is satisfied by *tetris.Game and *RemoteGame.
type game interface {
	Start()
	Updates() <-chan *tetris.Snapshot
	Action(tetris.Action)
	Stop()
}

type renderer interface {
	lobby(message)
	game(*tetris.Snapshot)
	reset()
}

type Client struct {
	newGame func() (game, error)
	render  renderer
	logger  *slog.Logger
	kbCh    <-chan keyboard.KeyEvent
	state   *state

	// owned by the keyboard loop.
	game   game
	stopCh chan struct{}
	exited chan struct{}
}

type Options struct {
	Writer  io.Writer
	NoGhost bool
	// Address of a tetris server. Empty plays locally.
	Address string
	Config  tetris.Config
}

func New(l *slog.Logger, o *Options) (*Client, error) {
	w := o.Writer
	if w == nil {
		w = os.Stdout
	}
	kb, err := keyboard.GetKeys(20)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyboard: %w", err)
	}
	c := &Client{
		render: newRender(w, l, o.NoGhost, o.Address != ""),
		logger: l,
		kbCh:   kb,
		state:  &state{current: lobby},
	}
	cfg := o.Config
	c.newGame = func() (game, error) {
		return tetris.NewGame(cfg, tetris.WithLogger(l)), nil
	}
	if o.Address != "" {
		c.newGame = func() (game, error) {
			return DialRemoteGame(context.Background(), o.Address, cfg.Level, l)
		}
	}
	return c, nil
}

// Start shows the lobby and blocks until the player quits.
func (c *Client) Start() {
	c.render.reset()
	c.render.game(nil)
	c.render.lobby(defaultLobby())
	c.listenKB()
	c.stopGame()
}

// Close releases the keyboard.
func (c *Client) Close() error {
	return keyboard.Close()
}

func (c *Client) listenKB() {
	for {
		event, ok := <-c.kbCh
		if !ok {
			c.logger.Error("Keyboard events channel closed unexpectedly")
			return
		}
		if event.Err != nil {
			c.logger.Error("keysEvents error", slog.String("error", event.Err.Error()))
			return
		}
		if event.Key == keyboard.KeyCtrlC {
			return
		}
		switch c.state.get() {
		case lobby:
			switch event.Rune {
			case 'p':
				c.startGame()
			case 'q':
				return
			}
		case playing:
			if event.Rune == 'q' {
				c.toLobby()
				continue
			}
			if a, ok := keyToAction(event); ok {
				c.game.Action(a)
			}
		case gameOver:
			switch event.Rune {
			case 'r':
				c.game.Action(tetris.Restart)
			case 'q':
				c.toLobby()
			}
		}
	}
}

// keyToAction maps a key press to a game command.
func keyToAction(e keyboard.KeyEvent) (tetris.Action, bool) {
	switch {
	case e.Key == keyboard.KeyArrowLeft || e.Rune == 'a':
		return tetris.MoveLeft, true
	case e.Key == keyboard.KeyArrowRight || e.Rune == 'd':
		return tetris.MoveRight, true
	case e.Key == keyboard.KeyArrowUp || e.Rune == 'w':
		return tetris.Rotate, true
	case e.Key == keyboard.KeyArrowDown || e.Rune == 's':
		return tetris.SoftDrop, true
	case e.Key == keyboard.KeySpace || e.Rune == ' ':
		return tetris.HardDrop, true
	case e.Rune == 'p':
		return tetris.TogglePause, true
	case e.Rune == 'r':
		return tetris.Restart, true
	default:
		return "", false
	}
}

func (c *Client) startGame() {
	c.stopGame()
	g, err := c.newGame()
	if err != nil {
		c.logger.Error("unable to start game", slog.String("error", err.Error()))
		c.render.lobby(errorMessage(err.Error()))
		return
	}
	c.game = g
	c.stopCh = make(chan struct{})
	c.exited = make(chan struct{})
	c.state.set(playing)
	c.render.reset()
	go c.listenGame(g, c.stopCh, c.exited)
	g.Start()
}

func (c *Client) toLobby() {
	c.stopGame()
	c.state.set(lobby)
	c.render.lobby(defaultLobby())
}

// stopGame ends the current game, if any, and waits for its listener.
func (c *Client) stopGame() {
	if c.game == nil {
		return
	}
	close(c.stopCh)
	<-c.exited
	c.game.Stop()
	c.game = nil
}

func (c *Client) listenGame(g game, stop <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)
	for {
		select {
		case u, ok := <-g.Updates():
			if !ok {
				c.logger.Error("game update channel closed unexpectedly")
				c.state.set(lobby)
				c.render.lobby(errorMessage("connection lost"))
				return
			}
			if u.GameOver {
				c.state.set(gameOver)
			} else {
				c.state.set(playing)
			}
			c.render.game(u)
		case <-stop:
			return
		}
	}
}
