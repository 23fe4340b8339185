package server

import (
	"context"
	"io"
	"log"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"studygames/tetris/tetris"
)

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	client, srv, _, closer := testServer(t)
	defer closer()

	id, err := client.NewSession(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, 1, srv.Sessions())

	stream, err := client.Watch(ctx, id)
	require.NoError(t, err)
	first := recvUntil(t, stream, func(*tetris.Snapshot) bool { return true })
	require.NotNil(t, first.Tetromino)
	assert.Equal(t, tetris.O, first.Tetromino.Shape)
	assert.Equal(t, 4, first.Tetromino.Col)
	assert.Equal(t, 1, first.Level)

	require.NoError(t, client.Command(ctx, id, tetris.MoveLeft))
	recvUntil(t, stream, func(s *tetris.Snapshot) bool { return s.Tetromino.Col == 3 })

	require.NoError(t, client.SetLevel(ctx, id, 3))
	recvUntil(t, stream, func(s *tetris.Snapshot) bool { return s.Level == 3 })

	require.NoError(t, client.Command(ctx, id, tetris.HardDrop))
	dropped := recvUntil(t, stream, func(s *tetris.Snapshot) bool { return s.Board[19][3] == tetris.O })
	assert.Equal(t, tetris.O, dropped.Board[18][4])

	require.NoError(t, client.EndSession(ctx, id))
	assert.Equal(t, 0, srv.Sessions())
	for {
		if _, err = stream.Recv(); err != nil {
			break
		}
	}
	assert.ErrorIs(t, err, io.EOF)
}

func TestSessionErrors(t *testing.T) {
	ctx := context.Background()
	client, _, _, closer := testServer(t)
	defer closer()

	id, err := client.NewSession(ctx)
	require.NoError(t, err)

	tests := []struct {
		name string
		call func() error
		want codes.Code
	}{
		{
			name: "command without session header",
			call: func() error { return client.Command(ctx, "", tetris.MoveLeft) },
			want: codes.InvalidArgument,
		},
		{
			name: "command on unknown session",
			call: func() error { return client.Command(ctx, "nope", tetris.MoveLeft) },
			want: codes.NotFound,
		},
		{
			name: "unknown action",
			call: func() error { return client.Command(ctx, id, tetris.Action("jump")) },
			want: codes.InvalidArgument,
		},
		{
			name: "set level on unknown session",
			call: func() error { return client.SetLevel(ctx, "nope", 2) },
			want: codes.NotFound,
		},
		{
			name: "end unknown session",
			call: func() error { return client.EndSession(ctx, "nope") },
			want: codes.NotFound,
		},
		{
			name: "watch unknown session",
			call: func() error {
				stream, err := client.Watch(ctx, "nope")
				if err != nil {
					return err
				}
				_, err = stream.Recv()
				return err
			},
			want: codes.NotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Equal(t, tt.want, status.Code(err))
		})
	}
}

func TestSingleWatcher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client, _, _, closer := testServer(t)
	defer closer()

	id, err := client.NewSession(ctx)
	require.NoError(t, err)

	first, err := client.Watch(ctx, id)
	require.NoError(t, err)
	_, err = first.Recv()
	require.NoError(t, err)

	second, err := client.Watch(ctx, id)
	require.NoError(t, err)
	_, err = second.Recv()
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestCloseStopsSessions(t *testing.T) {
	ctx := context.Background()
	client, srv, _, closer := testServer(t)
	defer closer()

	for range 3 {
		_, err := client.NewSession(ctx)
		require.NoError(t, err)
	}
	require.Equal(t, 3, srv.Sessions())
	srv.Close()
	assert.Equal(t, 0, srv.Sessions())
}

func TestHealth(t *testing.T) {
	_, _, conn, closer := testServer(t)
	defer closer()

	for _, service := range []string{"", ServiceName} {
		res, err := grpc_health_v1.NewHealthClient(conn).Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: service})
		require.NoError(t, err)
		assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, res.GetStatus())
	}
}

// recvUntil reads snapshots until match accepts one.
func recvUntil(t *testing.T, stream grpc.ServerStreamingClient[structpb.Struct], match func(*tetris.Snapshot) bool) *tetris.Snapshot {
	t.Helper()
	for range 10 {
		pb, err := stream.Recv()
		require.NoError(t, err)
		s, err := SnapshotFromProto(pb)
		require.NoError(t, err)
		if match(s) {
			return s
		}
	}
	t.Fatal("no matching snapshot received")
	return nil
}

// testServer serves sessions whose gravity never ticks and that only draft O tetrominoes.
func testServer(t *testing.T) (*ServiceClient, *Server, *grpc.ClientConn, func()) {
	t.Helper()
	buffer := 1024 * 1024
	lis := bufconn.Listen(buffer)

	srv := New(&Options{
		NewGame: func() *tetris.Game {
			return tetris.NewGame(tetris.DefaultConfig(),
				tetris.WithTicker(tetris.NewMockTicker()),
				tetris.WithRandomizer(tetris.NewSequenceRandomizer(tetris.O)),
			)
		},
	})
	s, _ := NewGRPCServer(srv)
	go func() {
		if err := s.Serve(lis); err != nil {
			log.Printf("unable to serve: %v", err)
		}
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet", grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
		return lis.Dial()
	}), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	closer := func() {
		if err := conn.Close(); err != nil {
			log.Printf("error closing connection: %v", err)
		}
		srv.Close()
		s.Stop()
		if err := lis.Close(); err != nil {
			log.Printf("error closing listener: %v", err)
		}
	}
	return NewServiceClient(conn), srv, conn, closer
}
