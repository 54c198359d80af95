// Package messaging implements the durable send path and history reads.
package messaging

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/apperr"
	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/media"
	"github.com/matheus3301/chatline/internal/model"
	"github.com/matheus3301/chatline/internal/store"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Store is the persistence the service needs.
type Store interface {
	FindUserByID(id string) (*store.User, error)
	CreateMessage(m *model.Message) error
	ListMessages(a, b string) ([]model.Message, error)
	ListUsers(page, pageSize int, exclude string) (*model.UserPage, error)
}

// Relayer pushes a stored message to its recipient if online.
type Relayer interface {
	Relay(m *model.Message) bool
}

type Service struct {
	store    Store
	uploader media.Uploader
	relay    Relayer
	bus      *bus.Bus
	logger   *zap.Logger
}

func NewService(s Store, uploader media.Uploader, relay Relayer, b *bus.Bus, logger *zap.Logger) *Service {
	return &Service{store: s, uploader: uploader, relay: relay, bus: b, logger: logger}
}

// Send stores a message from sender to receiver and only then relays it.
// A relay failure never fails the send.
func (s *Service) Send(ctx context.Context, senderID, receiverID, text, image string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" && image == "" {
		return nil, apperr.Validation("Message text or image is required.")
	}
	if _, err := s.store.FindUserByID(receiverID); err != nil {
		return nil, err
	}

	m := &model.Message{SenderID: senderID, ReceiverID: receiverID, Text: text}
	if image != "" {
		url, err := s.uploader.Upload(ctx, image)
		if err != nil {
			return nil, err
		}
		m.Image = url
	}

	if err := s.store.CreateMessage(m); err != nil {
		s.logger.Error("store message", zap.String("sender_id", senderID), zap.Error(err))
		return nil, err
	}
	s.bus.Emit(bus.MessageCreated, *m)

	delivered := s.relay.Relay(m)
	s.logger.Debug("message sent",
		zap.String("message_id", m.ID),
		zap.String("receiver_id", receiverID),
		zap.Bool("delivered", delivered))
	return m, nil
}

// Conversation returns the messages between self and other in creation order.
func (s *Service) Conversation(ctx context.Context, self, other string) ([]model.Message, error) {
	return s.store.ListMessages(self, other)
}

// Contacts returns one page of identities other than self.
func (s *Service) Contacts(ctx context.Context, self string, page, limit int) (*model.UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return s.store.ListUsers(page, limit, self)
}
