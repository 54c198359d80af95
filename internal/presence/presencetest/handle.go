// Package presencetest provides an in-memory presence.Handle for tests.
package presencetest

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/matheus3301/chatline/internal/model"
)

var ErrClosed = errors.New("handle closed")

// Handle records every pushed frame.
type Handle struct {
	id   string
	user string

	mu      sync.Mutex
	frames  [][]byte
	closed  bool
	closes  int
	pushErr error
}

func NewHandle(userID string) *Handle {
	return &Handle{id: uuid.NewString(), user: userID}
}

func (h *Handle) ID() string     { return h.id }
func (h *Handle) UserID() string { return h.user }

func (h *Handle) Push(frame []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if h.pushErr != nil {
		return h.pushErr
	}
	h.frames = append(h.frames, frame)
	return nil
}

func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.closes++
	return nil
}

// FailPushes makes every later Push return err.
func (h *Handle) FailPushes(err error) {
	h.mu.Lock()
	h.pushErr = err
	h.mu.Unlock()
}

func (h *Handle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Events returns the decoded envelopes pushed so far, optionally filtered by event name.
func (h *Handle) Events(event string) []model.Envelope {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []model.Envelope
	for _, f := range h.frames {
		env, err := model.Decode(f)
		if err != nil {
			continue
		}
		if event == "" || env.Event == event {
			out = append(out, env)
		}
	}
	return out
}

// LastOnline returns the most recent announced online set.
func (h *Handle) LastOnline() ([]string, bool) {
	evts := h.Events(model.EventOnlineUsers)
	if len(evts) == 0 {
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal(evts[len(evts)-1].Data, &ids); err != nil {
		return nil, false
	}
	return ids, true
}

// Messages returns the relayed messages pushed to this handle.
func (h *Handle) Messages() []model.Message {
	var out []model.Message
	for _, env := range h.Events(model.EventMessageReceived) {
		var m model.Message
		if err := json.Unmarshal(env.Data, &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}
