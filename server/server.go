package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"studygames/tetris/tetris"
)

var (
	ErrMissingSession  = errors.New("missing " + SessionHeader + " header")
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownAction   = errors.New("unknown action")
	ErrAlreadyWatched  = errors.New("session already has a watcher")
)

type session struct {
	game    *tetris.Game
	watched bool
}

type Server struct {
	sessions map[string]*session
	newGame  func() *tetris.Game
	logger   *slog.Logger
	mu       sync.Mutex
}

type Options struct {
	Logger *slog.Logger
	Config tetris.Config
	// NewGame replaces how sessions build their game. Config is ignored when set.
	NewGame func() *tetris.Game
}

func New(o *Options) *Server {
	l := o.Logger
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		sessions: make(map[string]*session),
		newGame:  o.NewGame,
		logger:   l,
	}
	if s.newGame == nil {
		cfg := o.Config
		s.newGame = func() *tetris.Game { return tetris.NewGame(cfg, tetris.WithLogger(l)) }
	}
	return s
}

// NewGRPCServer returns a gRPC server with the session service and the health
// service registered. Health is SERVING until the returned health server is shut down.
func NewGRPCServer(s *Server) (*grpc.Server, *health.Server) {
	gs := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	hs := health.NewServer()
	RegisterTetrisServiceServer(gs, s)
	grpc_health_v1.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return gs, hs
}

func (s *Server) NewSession(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	id := uuid.New().String()
	g := s.newGame()

	s.mu.Lock()
	s.sessions[id] = &session{game: g}
	s.mu.Unlock()

	g.Start()
	s.logger.Info("session started", slog.String("session", id))
	return wrapperspb.String(id), nil
}

func (s *Server) Command(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	_, ss, err := s.lookup(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	a, ok := tetris.ParseAction(req.GetValue())
	if !ok {
		return nil, toStatus(fmt.Errorf("%w: %q", ErrUnknownAction, req.GetValue()))
	}
	ss.game.Action(a)
	return &emptypb.Empty{}, nil
}

func (s *Server) SetLevel(ctx context.Context, req *wrapperspb.Int32Value) (*emptypb.Empty, error) {
	_, ss, err := s.lookup(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	ss.game.SetLevel(int(req.GetValue()))
	return &emptypb.Empty{}, nil
}

// Watch sends the current snapshot and then every update until the session
// ends or the client goes away. A session has at most one watcher since
// updates are consumed from a single channel.
func (s *Server) Watch(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()
	id, ss, err := s.lookup(ctx)
	if err != nil {
		return toStatus(err)
	}

	s.mu.Lock()
	if ss.watched {
		s.mu.Unlock()
		return toStatus(ErrAlreadyWatched)
	}
	ss.watched = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		ss.watched = false
		s.mu.Unlock()
	}()

	if err := stream.Send(SnapshotToProto(ss.game.Read())); err != nil {
		return fmt.Errorf("failed to send snapshot: %w", err)
	}
	for {
		select {
		case u := <-ss.game.Updates():
			if err := stream.Send(SnapshotToProto(u)); err != nil {
				return fmt.Errorf("failed to send snapshot: %w", err)
			}
		case <-ss.game.Done():
			s.logger.Debug("watched session ended", slog.String("session", id))
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Server) EndSession(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	id, ss, err := s.lookup(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	ss.game.Stop()
	s.logger.Info("session ended", slog.String("session", id))
	return &emptypb.Empty{}, nil
}

// Close stops every session.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ss := range s.sessions {
		ss.game.Stop()
		delete(s.sessions, id)
	}
}

// Sessions returns the number of live sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) lookup(ctx context.Context) (string, *session, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	ids := md.Get(SessionHeader)
	if len(ids) == 0 || ids[0] == "" {
		return "", nil, ErrMissingSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, ok := s.sessions[ids[0]]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrSessionNotFound, ids[0])
	}
	return ids[0], ss, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, ErrMissingSession), errors.Is(err, ErrUnknownAction):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrSessionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrAlreadyWatched):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
