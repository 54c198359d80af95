package syncstore

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/apperr"
	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/model"
	"github.com/matheus3301/chatline/internal/status"
)

func newStore(t *testing.T) (*Store, *fakeBackend, *fakeDialer) {
	t.Helper()
	backend := newFakeBackend()
	dialer := &fakeDialer{}
	s := New(backend, dialer.dial, 10, nil, zap.NewNop())
	t.Cleanup(func() { _ = s.Close() })
	return s, backend, dialer
}

func login(t *testing.T, s *Store) {
	t.Helper()
	if _, err := s.Login(context.Background(), me.Email, "secret1"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func msg(id, from, to string) model.Message {
	return model.Message{ID: id, SenderID: from, ReceiverID: to, Text: id}
}

func TestLoginConnectsOnce(t *testing.T) {
	s, _, dialer := newStore(t)
	login(t, s)

	if s.Self() == nil || s.Self().ID != me.ID {
		t.Fatalf("Self() = %+v", s.Self())
	}
	if s.Status() != status.Connected {
		t.Errorf("Status() = %s, want CONNECTED", s.Status())
	}
	login(t, s)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if dialer.count() != 1 {
		t.Errorf("dialed %d times, want 1", dialer.count())
	}
}

func TestLoginFailureLeavesStateAlone(t *testing.T) {
	s, _, dialer := newStore(t)
	_, err := s.Login(context.Background(), me.Email, "wrong")
	if !errors.Is(err, apperr.ErrAuth) || apperr.Public(err) != "Invalid credentials" {
		t.Fatalf("err = %v", err)
	}
	if s.Self() != nil {
		t.Error("identity set after failed login")
	}
	if dialer.count() != 0 || s.Status() != status.Disconnected {
		t.Errorf("dials = %d, status = %s", dialer.count(), s.Status())
	}
	if s.Loading().LoggingIn {
		t.Error("LoggingIn still set")
	}
}

func TestSignup(t *testing.T) {
	s, _, dialer := newStore(t)
	if _, err := s.Signup(context.Background(), "Me", me.Email, "secret1"); !errors.Is(err, apperr.ErrAuth) {
		t.Errorf("duplicate Signup err = %v", err)
	}
	id, err := s.Signup(context.Background(), "New", "new@x.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if s.Self().ID != id.ID || dialer.count() != 1 {
		t.Errorf("Self() = %+v, dials = %d", s.Self(), dialer.count())
	}
}

func TestCheckAuthRestoresSession(t *testing.T) {
	s, backend, dialer := newStore(t)
	if _, err := s.CheckAuth(context.Background()); !errors.Is(err, apperr.ErrAuth) {
		t.Fatalf("CheckAuth without session err = %v", err)
	}
	backend.session = true
	if _, err := s.CheckAuth(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Status() != status.Connected || dialer.count() != 1 {
		t.Errorf("status = %s, dials = %d", s.Status(), dialer.count())
	}
}

func TestLogoutClosesConnectionDirectly(t *testing.T) {
	s, backend, dialer := newStore(t)
	login(t, s)
	conn := dialer.last()
	conn.emit(model.EventOnlineUsers, []string{me.ID})

	if err := s.Logout(context.Background()); err != nil {
		t.Fatal(err)
	}
	if conn.closes.Load() != 1 {
		t.Errorf("connection closed %d times, want 1", conn.closes.Load())
	}
	if backend.logouts != 1 {
		t.Errorf("backend logouts = %d", backend.logouts)
	}
	if s.Self() != nil || s.Status() != status.Disconnected || len(s.Online()) != 0 {
		t.Errorf("after logout: self=%v status=%s online=%v", s.Self(), s.Status(), s.Online())
	}
	if n := conn.handlerCount(model.EventOnlineUsers); n != 0 {
		t.Errorf("%d presence handlers still attached", n)
	}
}

func TestPresenceReplacedWholesale(t *testing.T) {
	s, _, dialer := newStore(t)
	login(t, s)
	conn := dialer.last()

	conn.emit(model.EventOnlineUsers, []string{"a", "b"})
	if !s.IsOnline("a") || !s.IsOnline("b") {
		t.Fatalf("Online() = %v", s.Online())
	}
	conn.emit(model.EventOnlineUsers, []string{"b"})
	if got := s.Online(); !slices.Equal(got, []string{"b"}) {
		t.Errorf("Online() = %v, want [b]", got)
	}
}

func TestLiveMessagesScopedToCounterpart(t *testing.T) {
	s, backend, dialer := newStore(t)
	backend.history["bob"] = []model.Message{msg("h1", "bob", me.ID)}
	login(t, s)
	conn := dialer.last()
	ctx := context.Background()

	if err := s.SelectCounterpart(ctx, "bob"); err != nil {
		t.Fatal(err)
	}
	conn.emit(model.EventMessageReceived, msg("m1", "bob", me.ID))
	conn.emit(model.EventMessageReceived, msg("m2", "carol", me.ID))
	conn.emit(model.EventMessageReceived, msg("m1", "bob", me.ID))

	got := s.Conversation()
	if len(got) != 2 || got[0].ID != "h1" || got[1].ID != "m1" {
		t.Fatalf("conversation = %+v, want [h1 m1]", got)
	}

	if err := s.SelectCounterpart(ctx, "carol"); err != nil {
		t.Fatal(err)
	}
	if n := conn.handlerCount(model.EventMessageReceived); n != 1 {
		t.Errorf("%d live handlers after switching, want 1", n)
	}
	conn.emit(model.EventMessageReceived, msg("m3", "bob", me.ID))
	if got := s.Conversation(); len(got) != 0 {
		t.Errorf("carol conversation = %+v, want empty", got)
	}

	_ = s.SelectCounterpart(ctx, "")
	if n := conn.handlerCount(model.EventMessageReceived); n != 0 {
		t.Errorf("%d live handlers after clearing selection", n)
	}
}

func TestStaleConversationDiscarded(t *testing.T) {
	s, backend, _ := newStore(t)
	login(t, s)

	started := make(chan struct{})
	release := make(chan struct{})
	backend.listHook = func(with string) ([]model.Message, error) {
		if with == "alice" {
			close(started)
			<-release
			return []model.Message{msg("a1", "alice", me.ID)}, nil
		}
		return []model.Message{msg("b1", "bob", me.ID)}, nil
	}

	done := make(chan error, 1)
	go func() { done <- s.SelectCounterpart(context.Background(), "alice") }()
	<-started
	if err := s.SelectCounterpart(context.Background(), "bob"); err != nil {
		t.Fatal(err)
	}
	close(release)
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("alice fetch never returned")
	}

	got := s.Conversation()
	if len(got) != 1 || got[0].ID != "b1" {
		t.Errorf("conversation = %+v, want bob's", got)
	}
	if s.Selected() != "bob" || s.Loading().MessagesLoading {
		t.Errorf("selected = %q, loading = %+v", s.Selected(), s.Loading())
	}
}

func TestSendMessage(t *testing.T) {
	s, backend, _ := newStore(t)
	login(t, s)
	ctx := context.Background()

	if _, err := s.SendMessage(ctx, "hi", ""); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("send without selection err = %v", err)
	}

	_ = s.SelectCounterpart(ctx, "bob")
	m, err := s.SendMessage(ctx, "hi", "")
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Conversation(); len(got) != 1 || got[0].ID != m.ID {
		t.Fatalf("conversation = %+v", got)
	}

	backend.sendErr = apperr.Storage(errors.New("disk full"))
	if _, err := s.SendMessage(ctx, "again", ""); !errors.Is(err, apperr.ErrStorage) {
		t.Errorf("err = %v, want storage failure", err)
	}
	if got := s.Conversation(); len(got) != 1 {
		t.Errorf("view changed after failed send: %+v", got)
	}
}

func TestContactsPaging(t *testing.T) {
	s, backend, dialer := newStore(t)
	ctx := context.Background()
	if _, err := s.LoadMore(ctx); !errors.Is(err, apperr.ErrAuth) {
		t.Errorf("LoadMore logged out err = %v", err)
	}

	backend.users = 15
	login(t, s)
	for range 2 {
		if ok, err := s.LoadMore(ctx); !ok || err != nil {
			t.Fatalf("LoadMore() = %v, %v", ok, err)
		}
	}
	if got := len(s.Contacts(false)); got != 15 {
		t.Errorf("contacts = %d, want 15", got)
	}
	if page, total := s.Cursor(); page != 2 || total != 2 {
		t.Errorf("Cursor() = %d/%d, want 2/2", page, total)
	}
	if ok, _ := s.LoadMore(ctx); ok {
		t.Error("LoadMore requested past the last page")
	}
	if backend.pageCalls[3] != 0 {
		t.Errorf("page 3 requested")
	}

	dialer.last().emit(model.EventOnlineUsers, []string{"u3", "u12", me.ID})
	online := s.Contacts(true)
	if len(online) != 2 || online[0].ID != "u3" || online[1].ID != "u12" {
		t.Errorf("Contacts(true) = %+v", online)
	}

	s.ResetContacts()
	if len(s.Contacts(false)) != 0 || !s.HasMoreContacts() {
		t.Error("ResetContacts left state behind")
	}
}

func TestTransportLossDisconnects(t *testing.T) {
	s, _, dialer := newStore(t)
	login(t, s)
	dialer.last().emit(model.EventOnlineUsers, []string{me.ID})
	dialer.last().drop()

	waitFor(t, "disconnect", func() bool { return s.Status() == status.Disconnected })
	if len(s.Online()) != 0 {
		t.Errorf("Online() = %v after disconnect", s.Online())
	}
	if s.Self() == nil {
		t.Error("identity cleared by transport loss")
	}
	if err := s.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if dialer.count() != 2 || s.Status() != status.Connected {
		t.Errorf("dials = %d, status = %s", dialer.count(), s.Status())
	}
}

func TestDialFailureSetsError(t *testing.T) {
	s, _, dialer := newStore(t)
	dialer.setErr(apperr.Transport(errors.New("refused")))
	login(t, s)
	if s.Status() != status.Error {
		t.Fatalf("Status() = %s, want ERROR", s.Status())
	}
	dialer.setErr(nil)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Status() != status.Connected {
		t.Errorf("Status() = %s after retry", s.Status())
	}
}

func TestUpdateProfile(t *testing.T) {
	s, _, _ := newStore(t)
	login(t, s)
	id, err := s.UpdateProfile(context.Background(), "pic.png")
	if err != nil {
		t.Fatal(err)
	}
	if s.Self().ProfilePic != id.ProfilePic || id.ProfilePic == "" {
		t.Errorf("Self() = %+v, want profile pic %q", s.Self(), id.ProfilePic)
	}
}

func TestStatusChangesOnBus(t *testing.T) {
	b := bus.New()
	dialer := &fakeDialer{}
	s := New(newFakeBackend(), dialer.dial, 10, b, zap.NewNop())
	defer func() { _ = s.Close() }()
	ch, cancel := b.Subscribe("conn.", 8)
	defer cancel()

	login(t, s)

	var got []status.State
	for len(got) < 2 {
		select {
		case evt := <-ch:
			got = append(got, evt.Payload.(status.Change).To)
		case <-time.After(time.Second):
			t.Fatalf("status events = %v", got)
		}
	}
	if got[0] != status.Connecting || got[1] != status.Connected {
		t.Errorf("status events = %v, want [CONNECTING CONNECTED]", got)
	}
}

func TestChangesSignal(t *testing.T) {
	s, _, _ := newStore(t)
	login(t, s)
	select {
	case <-s.Changes():
	case <-time.After(time.Second):
		t.Fatal("no change signal after login")
	}
}
