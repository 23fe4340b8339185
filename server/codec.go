package server

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"studygames/tetris/tetris"
)

// ErrMalformedSnapshot is returned by SnapshotFromProto when a field is
// missing or has the wrong type.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

const (
	emptyCell = '.'
	fullCell  = 'X'
)

// SnapshotToProto encodes a snapshot as a Struct. Board rows are strings
// with one character per cell: '.' when empty, the shape letter otherwise.
// Tetromino grids use 'X' for occupied cells.
func SnapshotToProto(s *tetris.Snapshot) *structpb.Struct {
	rows := make([]*structpb.Value, len(s.Board))
	for i, row := range s.Board {
		var b strings.Builder
		for _, c := range row {
			if c == tetris.Empty {
				b.WriteByte(emptyCell)
				continue
			}
			b.WriteString(c.String())
		}
		rows[i] = structpb.NewStringValue(b.String())
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"board":     structpb.NewListValue(&structpb.ListValue{Values: rows}),
		"tetromino": tetrominoToProto(s.Tetromino),
		"next":      tetrominoToProto(s.Next),
		"ghostRow":  structpb.NewNumberValue(float64(s.GhostRow)),
		"score":     structpb.NewNumberValue(float64(s.Score)),
		"lines":     structpb.NewNumberValue(float64(s.LinesClear)),
		"level":     structpb.NewNumberValue(float64(s.Level)),
		"state":     structpb.NewStringValue(s.State.String()),
		"gameOver":  structpb.NewBoolValue(s.GameOver),
		"paused":    structpb.NewBoolValue(s.Paused),
	}}
}

func tetrominoToProto(t *tetris.Tetromino) *structpb.Value {
	if t == nil {
		return structpb.NewNullValue()
	}
	grid := make([]*structpb.Value, len(t.Grid))
	for i, row := range t.Grid {
		b := make([]byte, len(row))
		for j, v := range row {
			b[j] = emptyCell
			if v {
				b[j] = fullCell
			}
		}
		grid[i] = structpb.NewStringValue(string(b))
	}
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"shape": structpb.NewStringValue(t.Shape.String()),
		"row":   structpb.NewNumberValue(float64(t.Row)),
		"col":   structpb.NewNumberValue(float64(t.Col)),
		"grid":  structpb.NewListValue(&structpb.ListValue{Values: grid}),
	}})
}

// SnapshotFromProto decodes what SnapshotToProto encoded.
func SnapshotFromProto(pb *structpb.Struct) (*tetris.Snapshot, error) {
	f := pb.GetFields()
	s := &tetris.Snapshot{}

	board, ok := f["board"].GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, fmt.Errorf("%w: board", ErrMalformedSnapshot)
	}
	for i, v := range board.ListValue.GetValues() {
		row, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("%w: board row %d", ErrMalformedSnapshot, i)
		}
		cells := make([]tetris.Shape, 0, len(row.StringValue))
		for _, c := range row.StringValue {
			if c == emptyCell {
				cells = append(cells, tetris.Empty)
				continue
			}
			shape := tetris.ParseShape(string(c))
			if shape == tetris.Empty {
				return nil, fmt.Errorf("%w: board row %d has cell %q", ErrMalformedSnapshot, i, c)
			}
			cells = append(cells, shape)
		}
		s.Board = append(s.Board, cells)
	}

	var err error
	if s.Tetromino, err = tetrominoFromProto(f["tetromino"]); err != nil {
		return nil, fmt.Errorf("tetromino: %w", err)
	}
	if s.Next, err = tetrominoFromProto(f["next"]); err != nil {
		return nil, fmt.Errorf("next: %w", err)
	}

	for name, dst := range map[string]*int{
		"ghostRow": &s.GhostRow,
		"score":    &s.Score,
		"lines":    &s.LinesClear,
		"level":    &s.Level,
	} {
		n, ok := f[name].GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMalformedSnapshot, name)
		}
		*dst = int(n.NumberValue)
	}

	state, ok := tetris.ParseState(f["state"].GetStringValue())
	if !ok {
		return nil, fmt.Errorf("%w: state %q", ErrMalformedSnapshot, f["state"].GetStringValue())
	}
	s.State = state
	s.GameOver = f["gameOver"].GetBoolValue()
	s.Paused = f["paused"].GetBoolValue()
	return s, nil
}

func tetrominoFromProto(v *structpb.Value) (*tetris.Tetromino, error) {
	if v == nil {
		return nil, nil
	}
	if _, ok := v.GetKind().(*structpb.Value_NullValue); ok {
		return nil, nil
	}
	st, ok := v.GetKind().(*structpb.Value_StructValue)
	if !ok {
		return nil, ErrMalformedSnapshot
	}
	f := st.StructValue.GetFields()
	shape := tetris.ParseShape(f["shape"].GetStringValue())
	if shape == tetris.Empty {
		return nil, fmt.Errorf("%w: shape %q", ErrMalformedSnapshot, f["shape"].GetStringValue())
	}
	t := &tetris.Tetromino{
		Shape: shape,
		Row:   int(f["row"].GetNumberValue()),
		Col:   int(f["col"].GetNumberValue()),
	}
	for _, r := range f["grid"].GetListValue().GetValues() {
		line := r.GetStringValue()
		row := make([]bool, len(line))
		for i := range line {
			row[i] = line[i] == fullCell
		}
		t.Grid = append(t.Grid, row)
	}
	if len(t.Grid) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrMalformedSnapshot)
	}
	return t, nil
}
