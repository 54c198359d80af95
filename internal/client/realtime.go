package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/apperr"
	"github.com/matheus3301/chatline/internal/model"
)

// Realtime is a live connection dispatching server events to handlers.
type Realtime struct {
	ws     *websocket.Conn
	logger *zap.Logger

	mu       sync.Mutex
	handlers map[string]map[int]func(json.RawMessage)
	next     int

	connected atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// Dial opens the realtime channel for userID using the session cookie.
func (c *Client) Dial(ctx context.Context, userID string) (*Realtime, error) {
	u := *c.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"userId": {userID}}.Encode()

	dialer := *websocket.DefaultDialer
	dialer.Jar = c.http.Jar
	ws, resp, err := dialer.DialContext(ctx, u.String(), http.Header{})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, apperr.Auth("Unauthorized - Invalid Token")
		}
		return nil, apperr.Transport(err)
	}

	rt := &Realtime{
		ws:       ws,
		logger:   c.logger.With(zap.String("user_id", userID)),
		handlers: make(map[string]map[int]func(json.RawMessage)),
		done:     make(chan struct{}),
	}
	rt.connected.Store(true)
	go rt.readLoop()
	return rt, nil
}

// On registers fn for event. The returned func removes it.
func (r *Realtime) On(event string, fn func(json.RawMessage)) (off func()) {
	r.mu.Lock()
	id := r.next
	r.next++
	if r.handlers[event] == nil {
		r.handlers[event] = make(map[int]func(json.RawMessage))
	}
	r.handlers[event][id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.handlers[event], id)
			r.mu.Unlock()
		})
	}
}

func (r *Realtime) Connected() bool { return r.connected.Load() }

// Done is closed once the connection has ended for any reason.
func (r *Realtime) Done() <-chan struct{} { return r.done }

// Close sends a close frame and tears down the transport.
func (r *Realtime) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.connected.Store(false)
		_ = r.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = r.ws.Close()
	})
	return err
}

func (r *Realtime) readLoop() {
	defer func() {
		r.connected.Store(false)
		close(r.done)
	}()
	for {
		_, data, err := r.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && r.connected.Load() {
				r.logger.Warn("realtime read failed", zap.Error(err))
			}
			_ = r.Close()
			return
		}
		env, err := model.Decode(data)
		if err != nil {
			r.logger.Warn("bad realtime frame", zap.Error(err))
			continue
		}
		r.dispatch(env)
	}
}

func (r *Realtime) dispatch(env model.Envelope) {
	r.mu.Lock()
	fns := make([]func(json.RawMessage), 0, len(r.handlers[env.Event]))
	for _, fn := range r.handlers[env.Event] {
		fns = append(fns, fn)
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn(env.Data)
	}
}
