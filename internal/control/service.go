package control

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/matheus3301/chatline/internal/apperr"
	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/presence"
)

// Counts reports storage totals for GetStatus.
type Counts interface {
	CountUsers() (int, error)
	CountMessages() (int, error)
}

// Service implements ControlServer on top of the live registry.
type Service struct {
	instance string
	started  time.Time
	registry *presence.Registry
	counts   Counts
	bus      *bus.Bus
	logger   *zap.Logger
}

func NewService(instance string, registry *presence.Registry, counts Counts, b *bus.Bus, logger *zap.Logger) *Service {
	return &Service{
		instance: instance,
		started:  time.Now(),
		registry: registry,
		counts:   counts,
		bus:      b,
		logger:   logger,
	}
}

func (s *Service) GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	users, err := s.counts.CountUsers()
	if err != nil {
		return nil, status.Error(apperr.GRPCCode(err), apperr.Public(err))
	}
	msgs, err := s.counts.CountMessages()
	if err != nil {
		return nil, status.Error(apperr.GRPCCode(err), apperr.Public(err))
	}
	return structpb.NewStruct(map[string]any{
		"instance":      s.instance,
		"uptime_ms":     time.Since(s.started).Milliseconds(),
		"online_count":  s.registry.Count(),
		"user_count":    users,
		"message_count": msgs,
	})
}

func (s *Service) ListOnline(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	return structpb.NewList(toAny(s.registry.Snapshot()))
}

// Disconnect force-closes a user's connection.
func (s *Service) Disconnect(_ context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	id := in.GetValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "user id is required")
	}
	if _, ok := s.registry.Lookup(id); !ok {
		return nil, status.Errorf(codes.NotFound, "user %s is not online", id)
	}
	if h := s.registry.Unregister(id); h != nil {
		_ = h.Close()
	}
	s.logger.Info("connection closed by operator", zap.String("user_id", id))
	return &emptypb.Empty{}, nil
}

// WatchPresence streams the current online set, then one event per change.
func (s *Service) WatchPresence(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	events, cancel := s.bus.Subscribe(bus.PresenceChanged, 64)
	defer cancel()

	if err := s.send(stream, presence.Change{Reason: "snapshot", Online: s.registry.Snapshot()}, time.Now()); err != nil {
		return err
	}
	for {
		select {
		case <-stream.Context().Done():
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			change, ok := evt.Payload.(presence.Change)
			if !ok {
				continue
			}
			if err := s.send(stream, change, evt.Timestamp); err != nil {
				return err
			}
		}
	}
}

func (s *Service) send(stream grpc.ServerStreamingServer[structpb.Struct], c presence.Change, at time.Time) error {
	msg, err := structpb.NewStruct(map[string]any{
		"event_id":            uuid.NewString(),
		"user_id":             c.UserID,
		"reason":              c.Reason,
		"online":              toAny(c.Online),
		"occurred_at_unix_ms": at.UnixMilli(),
	})
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	return stream.Send(msg)
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
