package syncstore

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matheus3301/chatline/internal/apperr"
	"github.com/matheus3301/chatline/internal/model"
)

type fakeConn struct {
	mu       sync.Mutex
	handlers map[string]map[int]func(json.RawMessage)
	next     int

	done   chan struct{}
	once   sync.Once
	closes atomic.Int32
}

func newFakeConn() *fakeConn {
	return &fakeConn{handlers: make(map[string]map[int]func(json.RawMessage)), done: make(chan struct{})}
}

func (c *fakeConn) On(event string, fn func(json.RawMessage)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	if c.handlers[event] == nil {
		c.handlers[event] = make(map[int]func(json.RawMessage))
	}
	c.handlers[event][id] = fn
	return func() {
		c.mu.Lock()
		delete(c.handlers[event], id)
		c.mu.Unlock()
	}
}

func (c *fakeConn) Done() <-chan struct{} { return c.done }

func (c *fakeConn) Close() error {
	c.closes.Add(1)
	c.drop()
	return nil
}

// drop simulates the transport going away on its own.
func (c *fakeConn) drop() { c.once.Do(func() { close(c.done) }) }

func (c *fakeConn) emit(event string, v any) {
	raw, _ := json.Marshal(v)
	c.mu.Lock()
	var fns []func(json.RawMessage)
	for _, fn := range c.handlers[event] {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(raw)
	}
}

func (c *fakeConn) handlerCount(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers[event])
}

type fakeDialer struct {
	mu    sync.Mutex
	err   error
	conns []*fakeConn
}

func (d *fakeDialer) dial(_ context.Context, _ string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) setErr(err error) {
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func (d *fakeDialer) last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[len(d.conns)-1]
}

var me = model.Identity{ID: "me", FullName: "Me", Email: "me@x.com"}

type fakeBackend struct {
	mu        sync.Mutex
	session   bool
	logouts   int
	history   map[string][]model.Message
	listHook  func(with string) ([]model.Message, error)
	sendErr   error
	sent      int
	users     int
	pageCalls map[int]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{history: make(map[string][]model.Message), pageCalls: make(map[int]int)}
}

func (b *fakeBackend) Signup(_ context.Context, fullName, email, _ string) (*model.Identity, error) {
	if email == me.Email {
		return nil, apperr.Auth("User already exists with this email.")
	}
	b.mu.Lock()
	b.session = true
	b.mu.Unlock()
	return &model.Identity{ID: "new", FullName: fullName, Email: email}, nil
}

func (b *fakeBackend) Login(_ context.Context, email, password string) (*model.Identity, error) {
	if email != me.Email || password != "secret1" {
		return nil, apperr.Auth("Invalid credentials")
	}
	b.mu.Lock()
	b.session = true
	b.mu.Unlock()
	id := me
	return &id, nil
}

func (b *fakeBackend) CheckAuth(context.Context) (*model.Identity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.session {
		return nil, apperr.Auth("Unauthorized - No Token Provided")
	}
	id := me
	return &id, nil
}

func (b *fakeBackend) Logout(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.session = false
	b.logouts++
	return nil
}

func (b *fakeBackend) UpdateProfile(_ context.Context, pic string) (*model.Identity, error) {
	id := me
	id.ProfilePic = "http://media/" + pic
	return &id, nil
}

func (b *fakeBackend) ListUsers(_ context.Context, page, limit int) (*model.UserPage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pageCalls[page]++
	out := &model.UserPage{
		Data: []model.Identity{},
		Pagination: model.Pagination{
			Page: page, PageSize: limit, Total: b.users,
			TotalPages: model.TotalPages(b.users, limit),
		},
	}
	for i := (page - 1) * limit; i < page*limit && i < b.users; i++ {
		out.Data = append(out.Data, model.Identity{ID: "u" + strconv.Itoa(i)})
	}
	return out, nil
}

func (b *fakeBackend) ListMessages(_ context.Context, with string) ([]model.Message, error) {
	b.mu.Lock()
	hook := b.listHook
	msgs := append([]model.Message(nil), b.history[with]...)
	b.mu.Unlock()
	if hook != nil {
		return hook(with)
	}
	return msgs, nil
}

func (b *fakeBackend) SendMessage(_ context.Context, to, text, image string) (*model.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return nil, b.sendErr
	}
	b.sent++
	return &model.Message{
		ID: "sent" + strconv.Itoa(b.sent), SenderID: me.ID, ReceiverID: to,
		Text: text, Image: image, CreatedAt: time.Now(),
	}, nil
}
