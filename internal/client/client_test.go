package client

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/api/apitest"
	"github.com/matheus3301/chatline/internal/apperr"
	"github.com/matheus3301/chatline/internal/model"
)

func newClient(t *testing.T, srv *apitest.Server) *Client {
	t.Helper()
	c, err := New(srv.URL, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New("ftp://example.com", zap.NewNop()); err == nil {
		t.Error("New(ftp://) should fail")
	}
}

func TestAccountRoundTrip(t *testing.T) {
	srv := apitest.Start(t)
	c := newClient(t, srv)
	ctx := context.Background()

	id, err := c.Signup(ctx, "Alice", "alice@x.com", "secret1")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	got, err := c.CheckAuth(ctx)
	if err != nil || got.ID != id.ID {
		t.Fatalf("CheckAuth() = %+v, %v", got, err)
	}

	if err := c.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.CheckAuth(ctx); !errors.Is(err, apperr.ErrAuth) {
		t.Errorf("CheckAuth after logout err = %v, want auth", err)
	}

	_, err = c.Login(ctx, "alice@x.com", "wrong!")
	if !errors.Is(err, apperr.ErrValidation) || apperr.Public(err) != "Invalid credentials" {
		t.Errorf("bad Login err = %v", err)
	}
	if _, err := c.Login(ctx, "alice@x.com", "secret1"); err != nil {
		t.Errorf("Login() error = %v", err)
	}
}

func TestRealtimeDeliversEvents(t *testing.T) {
	srv := apitest.Start(t)
	ctx := context.Background()
	alice := newClient(t, srv)
	bob := newClient(t, srv)
	a, _ := alice.Signup(ctx, "Alice", "alice@x.com", "secret1")
	b, _ := bob.Signup(ctx, "Bob", "bob@x.com", "secret1")

	rt, err := bob.Dial(ctx, b.ID)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer func() { _ = rt.Close() }()

	online := make(chan []string, 4)
	offPresence := rt.On(model.EventOnlineUsers, func(data json.RawMessage) {
		var ids []string
		_ = json.Unmarshal(data, &ids)
		online <- ids
	})
	defer offPresence()
	msgs := make(chan model.Message, 4)
	rt.On(model.EventMessageReceived, func(data json.RawMessage) {
		var m model.Message
		_ = json.Unmarshal(data, &m)
		msgs <- m
	})

	// The first announcement may race the handler registration, so connect a
	// second identity and wait for a set containing both.
	art, err := alice.Dial(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = art.Close() }()

	want := []string{a.ID, b.ID}
	slices.Sort(want)
	timeout := time.After(2 * time.Second)
	for seen := false; !seen; {
		select {
		case ids := <-online:
			seen = slices.Equal(ids, want)
		case <-timeout:
			t.Fatal("never saw both users online")
		}
	}

	sent, err := alice.SendMessage(ctx, b.ID, "hi", "")
	if err != nil {
		t.Fatal(err)
	}
	select {
	case m := <-msgs:
		if m.ID != sent.ID {
			t.Errorf("received %+v, want %+v", m, sent)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}

	history, err := bob.ListMessages(ctx, a.ID)
	if err != nil || len(history) != 1 {
		t.Errorf("ListMessages() = %v, %v", history, err)
	}
}

func TestDialWithoutSession(t *testing.T) {
	srv := apitest.Start(t)
	c := newClient(t, srv)
	_, err := c.Dial(context.Background(), "someone")
	if !errors.Is(err, apperr.ErrAuth) {
		t.Errorf("Dial() err = %v, want auth failure", err)
	}
}

func TestRealtimeCloseEndsConnection(t *testing.T) {
	srv := apitest.Start(t)
	ctx := context.Background()
	c := newClient(t, srv)
	id, _ := c.Signup(ctx, "Alice", "alice@x.com", "secret1")

	rt, err := c.Dial(ctx, id.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !rt.Connected() {
		t.Error("Connected() = false after Dial")
	}
	if err := rt.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	select {
	case <-rt.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done not closed")
	}
	if rt.Connected() {
		t.Error("Connected() = true after Close")
	}

	deadline := time.After(2 * time.Second)
	for srv.Registry.Count() != 0 {
		select {
		case <-deadline:
			t.Fatalf("server still has %d connections", srv.Registry.Count())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestContactsAndErrors(t *testing.T) {
	srv := apitest.Start(t)
	ctx := context.Background()
	c := newClient(t, srv)
	if _, err := c.ListUsers(ctx, 1, 10); !errors.Is(err, apperr.ErrAuth) {
		t.Errorf("ListUsers without session err = %v", err)
	}
	_, _ = c.Signup(ctx, "Alice", "alice@x.com", "secret1")
	other := newClient(t, srv)
	_, _ = other.Signup(ctx, "Bob", "bob@x.com", "secret1")

	page, err := c.ListUsers(ctx, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Data) != 1 || page.Pagination.TotalPages != 1 {
		t.Errorf("page = %+v", page)
	}

	_, err = c.SendMessage(ctx, "ghost", "hi", "")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("SendMessage to ghost err = %v, want not found", err)
	}
}
