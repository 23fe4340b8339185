package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"studygames/tetris/server"
	"studygames/tetris/tetris"
)

const callTimeout = 2 * time.Second

// RemoteGame plays a session hosted by a tetris server. Updates is closed
// when the session stream ends.
type RemoteGame struct {
	client   *server.ServiceClient
	conn     *grpc.ClientConn // nil when the connection isn't ours to close.
	id       string
	updateCh chan *tetris.Snapshot
	logger   *slog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// DialRemoteGame connects to addr and opens a session at the given level.
func DialRemoteGame(ctx context.Context, addr string, level int, l *slog.Logger) (*RemoteGame, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create gRPC client: %w", err)
	}
	r, err := NewRemoteGame(ctx, conn, level, l)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	r.conn = conn
	return r, nil
}

// NewRemoteGame opens a session over cc.
func NewRemoteGame(ctx context.Context, cc grpc.ClientConnInterface, level int, l *slog.Logger) (*RemoteGame, error) {
	client := server.NewServiceClient(cc)
	cctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	id, err := client.NewSession(cctx)
	if err != nil {
		return nil, fmt.Errorf("unable to create session: %w", err)
	}
	if level > 1 {
		if err := client.SetLevel(cctx, id, level); err != nil {
			return nil, fmt.Errorf("unable to set level: %w", err)
		}
	}
	r := &RemoteGame{
		client:   client,
		id:       id,
		updateCh: make(chan *tetris.Snapshot),
		logger:   l.With(slog.String("session", id)),
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())
	return r, nil
}

func (r *RemoteGame) Start() {
	r.startOnce.Do(func() {
		r.wg.Add(1)
		go r.watch()
	})
}

func (r *RemoteGame) Updates() <-chan *tetris.Snapshot {
	return r.updateCh
}

func (r *RemoteGame) Action(a tetris.Action) {
	ctx, cancel := context.WithTimeout(r.ctx, callTimeout)
	defer cancel()
	if err := r.client.Command(ctx, r.id, a); err != nil {
		r.logger.Error("unable to send command", slog.String("action", string(a)), slog.String("error", err.Error()))
	}
}

func (r *RemoteGame) SetLevel(level int) {
	ctx, cancel := context.WithTimeout(r.ctx, callTimeout)
	defer cancel()
	if err := r.client.SetLevel(ctx, r.id, level); err != nil {
		r.logger.Error("unable to set level", slog.String("error", err.Error()))
	}
}

// Stop ends the session on the server and releases the connection.
func (r *RemoteGame) Stop() {
	r.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		if err := r.client.EndSession(ctx, r.id); err != nil {
			r.logger.Debug("unable to end session", slog.String("error", err.Error()))
		}
		r.cancel()
		r.wg.Wait()
		// Start was never called, nobody else closes it.
		r.startOnce.Do(func() { close(r.updateCh) })
		if r.conn != nil {
			if err := r.conn.Close(); err != nil {
				r.logger.Error("unable to close gRPC client", slog.String("error", err.Error()))
			}
		}
	})
}

func (r *RemoteGame) watch() {
	defer r.wg.Done()
	defer close(r.updateCh)

	stream, err := r.client.Watch(r.ctx, r.id)
	if err != nil {
		r.logger.Error("unable to watch session", slog.String("error", err.Error()))
		return
	}
	for {
		rcv, err := stream.Recv()
		if err != nil {
			r.logRecvErr(err)
			return
		}
		s, err := server.SnapshotFromProto(rcv)
		if err != nil {
			r.logger.Error("unable to decode snapshot", slog.String("error", err.Error()))
			return
		}
		select {
		case r.updateCh <- s:
		case <-r.ctx.Done():
			return
		}
	}
}

func (r *RemoteGame) logRecvErr(err error) {
	if errors.Is(err, io.EOF) {
		r.logger.Debug("stream.Recv() closed with EOF", slog.String("msg", err.Error()))
		return
	}
	st, ok := status.FromError(err)
	switch {
	case ok && st.Code() == codes.Canceled:
		r.logger.Debug("stream.Recv() closed with Cancel", slog.String("msg", st.Message()))
	case ok && st.Code() == codes.DeadlineExceeded:
		r.logger.Debug("stream.Recv() closed with DeadlineExceeded", slog.String("msg", st.Message()))
	default:
		r.logger.Error("stream.Recv() unable to receive message", slog.String("error", err.Error()))
	}
}
