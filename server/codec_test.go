package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"studygames/tetris/tetris"
)

func TestSnapshotProto(t *testing.T) {
	want := tetris.NewTestTetris(tetris.J).Snapshot()
	want.Board[19][0] = tetris.Z
	want.Board[19][1] = tetris.I
	want.Score = 1200
	want.LinesClear = 4
	want.Level = 2
	want.Paused = true

	pb := SnapshotToProto(want)
	assert.Equal(t, "ZI........", pb.GetFields()["board"].GetListValue().GetValues()[19].GetStringValue())
	grid := pb.GetFields()["tetromino"].GetStructValue().GetFields()["grid"].GetListValue().GetValues()
	require.Len(t, grid, 2)
	assert.Equal(t, "X..", grid[0].GetStringValue())
	assert.Equal(t, "XXX", grid[1].GetStringValue())

	got, err := SnapshotFromProto(pb)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSnapshotProtoGameOver(t *testing.T) {
	want := &tetris.Snapshot{
		Board:    [][]tetris.Shape{{tetris.Empty, tetris.T}, {tetris.O, tetris.O}},
		Next:     &tetris.Tetromino{Shape: tetris.I, Grid: tetris.I.Grid(), Col: 0},
		Level:    1,
		State:    tetris.GameOver,
		GameOver: true,
	}
	got, err := SnapshotFromProto(SnapshotToProto(want))
	require.NoError(t, err)
	assert.Nil(t, got.Tetromino)
	assert.Equal(t, want, got)
}

func TestSnapshotFromProtoErrors(t *testing.T) {
	valid := func() *structpb.Struct {
		return SnapshotToProto(tetris.NewTestTetris(tetris.T).Snapshot())
	}
	tests := []struct {
		name   string
		mangle func(*structpb.Struct)
	}{
		{
			name:   "missing board",
			mangle: func(s *structpb.Struct) { delete(s.Fields, "board") },
		},
		{
			name: "unknown cell",
			mangle: func(s *structpb.Struct) {
				s.Fields["board"].GetListValue().Values[0] = structpb.NewStringValue("....?.....")
			},
		},
		{
			name:   "score is not a number",
			mangle: func(s *structpb.Struct) { s.Fields["score"] = structpb.NewStringValue("10") },
		},
		{
			name:   "unknown state",
			mangle: func(s *structpb.Struct) { s.Fields["state"] = structpb.NewStringValue("flying") },
		},
		{
			name:   "tetromino is not a struct",
			mangle: func(s *structpb.Struct) { s.Fields["tetromino"] = structpb.NewBoolValue(true) },
		},
		{
			name: "tetromino without shape",
			mangle: func(s *structpb.Struct) {
				delete(s.Fields["next"].GetStructValue().Fields, "shape")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pb := valid()
			tt.mangle(pb)
			_, err := SnapshotFromProto(pb)
			assert.ErrorIs(t, err, ErrMalformedSnapshot)
		})
	}
}
