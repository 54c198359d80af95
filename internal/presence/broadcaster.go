package presence

import (
	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/model"
)

// Broadcaster pushes the full online set to every handle. A failing handle
// is logged and skipped.
type Broadcaster struct {
	logger *zap.Logger
}

func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	return &Broadcaster{logger: logger}
}

func (b *Broadcaster) Announce(online []string, to []Handle) {
	frame, err := model.Encode(model.EventOnlineUsers, online)
	if err != nil {
		b.logger.Error("encode presence frame", zap.Error(err))
		return
	}
	for _, h := range to {
		if err := h.Push(frame); err != nil {
			b.logger.Warn("presence push failed",
				zap.String("user_id", h.UserID()),
				zap.String("handle", h.ID()),
				zap.Error(err))
		}
	}
}
