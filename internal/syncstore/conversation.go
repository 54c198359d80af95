package syncstore

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/apperr"
	"github.com/matheus3301/chatline/internal/model"
)

// SelectCounterpart replaces the conversation view with the history shared
// with id and scopes live delivery to it. An empty id clears the selection.
// A response that arrives after another selection is discarded.
func (s *Store) SelectCounterpart(ctx context.Context, id string) error {
	s.mu.Lock()
	s.unsubscribeLocked()
	s.selGen++
	gen := s.selGen
	s.selected = id
	s.conversation = nil
	if id == "" {
		s.loading.MessagesLoading = false
		s.mu.Unlock()
		s.signal()
		return nil
	}
	if s.conn != nil {
		s.subscribeLocked(id)
	}
	s.loading.MessagesLoading = true
	s.mu.Unlock()
	s.signal()

	msgs, err := s.backend.ListMessages(ctx, id)

	s.mu.Lock()
	if gen != s.selGen {
		s.mu.Unlock()
		return nil
	}
	s.loading.MessagesLoading = false
	if err != nil {
		s.mu.Unlock()
		s.signal()
		return err
	}
	// Keep live arrivals that raced the fetch.
	live := s.conversation
	s.conversation = msgs
	for _, m := range live {
		s.appendLocked(m)
	}
	s.mu.Unlock()
	s.signal()
	return nil
}

func (s *Store) subscribeLocked(counterpart string) {
	s.unsubscribeLocked()
	s.liveOff = s.conn.On(model.EventMessageReceived, func(data json.RawMessage) {
		s.onLive(counterpart, data)
	})
}

func (s *Store) unsubscribeLocked() {
	if s.liveOff != nil {
		s.liveOff()
		s.liveOff = nil
	}
}

// onLive appends an inbound message when it belongs to the selected
// conversation. Others are dropped from the view; storage still has them.
func (s *Store) onLive(counterpart string, data json.RawMessage) {
	var m model.Message
	if err := json.Unmarshal(data, &m); err != nil {
		s.logger.Warn("bad message payload", zap.Error(err))
		return
	}
	s.mu.Lock()
	if s.self == nil || s.selected != counterpart || m.Counterpart(s.self.ID) != counterpart {
		s.mu.Unlock()
		return
	}
	s.appendLocked(m)
	s.mu.Unlock()
	s.signal()
}

func (s *Store) appendLocked(m model.Message) {
	for _, have := range s.conversation {
		if have.ID == m.ID {
			return
		}
	}
	s.conversation = append(s.conversation, m)
}

// SendMessage stores a message for the selected counterpart and appends the
// stored copy to the view. On failure the view is unchanged.
func (s *Store) SendMessage(ctx context.Context, text, image string) (*model.Message, error) {
	s.mu.RLock()
	to := s.selected
	s.mu.RUnlock()
	if to == "" {
		return nil, apperr.Validation("No conversation selected.")
	}

	m, err := s.backend.SendMessage(ctx, to, text, image)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.selected == to {
		s.appendLocked(*m)
	}
	s.mu.Unlock()
	s.signal()
	return m, nil
}
