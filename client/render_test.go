package client

import (
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"studygames/tetris/tetris"
)

func TestRender(t *testing.T) {
	paused := tetris.NewTestTetris(tetris.T).Snapshot()
	paused.Paused = true
	over := tetris.NewTestTetris(tetris.T).Snapshot()
	over.GameOver = true
	over.Score = 300

	tests := []struct {
		name string
		do   func(*render)
		want []string
	}{
		{
			name: "no snapshot renders the game frame",
			do:   func(r *render) { r.game(nil) },
			want: []string{"Terminal Tetris", "+--------------------+", "Next:"},
		},
		{
			name: "snapshot renders the score panel",
			do:   func(r *render) { r.game(tetris.NewTestTetris(tetris.T).Snapshot()) },
			want: []string{"Score: 0", "Lines: 0", "Level: 1", "\x1b[7m\x1b[35m[]\x1b[0m"},
		},
		{
			name: "paused snapshot renders the banner",
			do:   func(r *render) { r.game(paused) },
			want: []string{"PAUSED"},
		},
		{
			name: "game over snapshot renders the banner",
			do:   func(r *render) { r.game(over) },
			want: []string{"GAME OVER", "(r)estart (q)uit", "Score: 300"},
		},
		{
			name: "default lobby message",
			do:   func(r *render) { r.lobby(defaultLobby()) },
			want: []string{"Welcome to Terminal Tetris", "(p)lay   (q)uit"},
		},
		{
			name: "error lobby message",
			do:   func(r *render) { r.lobby(errorMessage("connection refused")) },
			want: []string{"something went wrong :(", "connection refused"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := &strings.Builder{}
			r := newRender(w, slog.New(slog.DiscardHandler), false, false)
			tt.do(r)
			for _, s := range tt.want {
				assert.Contains(t, w.String(), s)
			}
		})
	}

	t.Run("game frame has a line per board row", func(t *testing.T) {
		w := &strings.Builder{}
		newRender(w, slog.New(slog.DiscardHandler), false, false).game(tetris.NewTestTetris(tetris.I).Snapshot())
		// title, two borders, 20 rows and the trailing new line.
		assert.Equal(t, 23, strings.Count(w.String(), "\r\n"))
	})
}

func emptyStack() [][]string {
	return blankStack(tetris.DefaultRows, tetris.DefaultCols)
}

func TestLocalStack(t *testing.T) {
	s := tetris.NewTestTetris(tetris.J).Snapshot()
	s.Board[19][0] = tetris.Z
	td := &templateData{Snapshot: s}

	want := emptyStack()
	blueCell := "\x1b[7m\x1b[34m[]\x1b[0m"
	want[19][0] = "\x1b[7m\x1b[31m[]\x1b[0m"
	want[0][3] = blueCell
	want[1][3] = blueCell
	want[1][4] = blueCell
	want[1][5] = blueCell
	want[18][3] = "[]"
	want[19][3] = "[]"
	want[19][4] = "[]"
	want[19][5] = "[]"
	got := localStack(td)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("want %v, got %v", want, got)
	}

	t.Run("localStack without ghost", func(t *testing.T) {
		td := &templateData{Snapshot: tetris.NewTestTetris(tetris.J).Snapshot(), NoGhost: true}
		want := emptyStack()
		want[0][3] = blueCell
		want[1][3] = blueCell
		want[1][4] = blueCell
		want[1][5] = blueCell
		got := localStack(td)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("want %v, got %v", want, got)
		}
	})

	t.Run("localStack with nil snapshot returns empty spaces", func(t *testing.T) {
		got := localStack(nil)
		if !reflect.DeepEqual(got, emptyStack()) {
			t.Errorf("want %v, got %v", emptyStack(), got)
		}
	})
}

func TestNextPiece(t *testing.T) {
	tests := []struct {
		shape tetris.Shape
		want  []string
	}{
		{tetris.J, []string{"\x1b[7m\x1b[34m[]\x1b[0m      ", "\x1b[7m\x1b[34m[]\x1b[0m\x1b[7m\x1b[34m[]\x1b[0m\x1b[7m\x1b[34m[]\x1b[0m  "}},
		{tetris.O, []string{"\x1b[7m\x1b[33m[]\x1b[0m\x1b[7m\x1b[33m[]\x1b[0m    ", "\x1b[7m\x1b[33m[]\x1b[0m\x1b[7m\x1b[33m[]\x1b[0m    "}},
		{tetris.I, []string{"        ", "\x1b[7m\x1b[36m[]\x1b[0m\x1b[7m\x1b[36m[]\x1b[0m\x1b[7m\x1b[36m[]\x1b[0m\x1b[7m\x1b[36m[]\x1b[0m"}},
	}
	for _, tt := range tests {
		t.Run(tt.shape.String(), func(t *testing.T) {
			td := &templateData{Snapshot: tetris.NewTestTetris(tt.shape).Snapshot()}
			got := nextPiece(td)
			if !reflect.DeepEqual(tt.want, got) {
				t.Errorf("want %v, got %v", tt.want, got)
			}
		})
	}
	t.Run("nextPiece with nil snapshot returns empty spaces", func(t *testing.T) {
		want := []string{"        ", "        "}
		got := nextPiece(nil)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("want %v, got %v", want, got)
		}
	})
}

func TestSidePanel(t *testing.T) {
	s := tetris.NewTestTetris(tetris.O).Snapshot()
	s.Score, s.LinesClear, s.Level = 1200, 4, 3
	got := sidePanel(&templateData{Snapshot: s, Online: true})
	if len(got) != tetris.DefaultRows {
		t.Fatalf("want %d lines, got %d", tetris.DefaultRows, len(got))
	}
	for i, want := range map[int]string{4: "Score: 1200", 5: "Lines: 4", 6: "Level: 3", 11: "online"} {
		if !strings.HasPrefix(got[i], want) {
			t.Errorf("want line %d to start with %q, got %q", i, want, got[i])
		}
	}
	if strings.TrimSpace(got[8]) != "" {
		t.Errorf("want no banner while playing, got %q", got[8])
	}
}
