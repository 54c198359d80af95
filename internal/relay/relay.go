// Package relay delivers durably stored messages to an online recipient.
package relay

import (
	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/model"
	"github.com/matheus3301/chatline/internal/presence"
)

// Directory resolves an identity to its live handle.
type Directory interface {
	Lookup(identity string) (presence.Handle, bool)
}

// Relayed is the bus payload for bus.MessageRelayed.
type Relayed struct {
	MessageID   string
	RecipientID string
	Delivered   bool
}

// Relay performs at most one push per message and never retries.
type Relay struct {
	dir    Directory
	bus    *bus.Bus
	logger *zap.Logger
}

func New(dir Directory, b *bus.Bus, logger *zap.Logger) *Relay {
	return &Relay{dir: dir, bus: b, logger: logger}
}

// Relay must only be called once m has been stored. It reports whether the
// frame was handed to the recipient's transport; an offline recipient or a
// failed push is not an error.
func (r *Relay) Relay(m *model.Message) bool {
	delivered := r.push(m)
	r.bus.Emit(bus.MessageRelayed, Relayed{MessageID: m.ID, RecipientID: m.ReceiverID, Delivered: delivered})
	return delivered
}

func (r *Relay) push(m *model.Message) bool {
	h, ok := r.dir.Lookup(m.ReceiverID)
	if !ok {
		return false
	}
	frame, err := model.Encode(model.EventMessageReceived, m)
	if err != nil {
		r.logger.Error("encode message frame", zap.String("message_id", m.ID), zap.Error(err))
		return false
	}
	if err := h.Push(frame); err != nil {
		r.logger.Warn("relay push failed",
			zap.String("message_id", m.ID),
			zap.String("user_id", m.ReceiverID),
			zap.Error(err))
		return false
	}
	return true
}
