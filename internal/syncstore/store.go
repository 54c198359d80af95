// Package syncstore holds the client session state: identity, realtime
// connection, presence, contacts and the selected conversation.
package syncstore

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/apperr"
	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/client"
	"github.com/matheus3301/chatline/internal/model"
	"github.com/matheus3301/chatline/internal/pager"
	"github.com/matheus3301/chatline/internal/status"
)

// Backend is the durable side of the session.
type Backend interface {
	Signup(ctx context.Context, fullName, email, password string) (*model.Identity, error)
	Login(ctx context.Context, email, password string) (*model.Identity, error)
	CheckAuth(ctx context.Context) (*model.Identity, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, profilePic string) (*model.Identity, error)
	ListUsers(ctx context.Context, page, limit int) (*model.UserPage, error)
	ListMessages(ctx context.Context, with string) ([]model.Message, error)
	SendMessage(ctx context.Context, to, text, image string) (*model.Message, error)
}

// Conn is an open realtime connection.
type Conn interface {
	On(event string, fn func(json.RawMessage)) (off func())
	Done() <-chan struct{}
	Close() error
}

// DialFunc opens a realtime connection for userID.
type DialFunc func(ctx context.Context, userID string) (Conn, error)

// DialClient adapts the SDK dialer.
func DialClient(c *client.Client) DialFunc {
	return func(ctx context.Context, userID string) (Conn, error) {
		rt, err := c.Dial(ctx, userID)
		if err != nil {
			return nil, err
		}
		return rt, nil
	}
}

// Loading reports which requests are outstanding.
type Loading struct {
	SigningUp       bool
	LoggingIn       bool
	UpdatingProfile bool
	CheckingAuth    bool
	UsersLoading    bool
	MessagesLoading bool
}

// Store is the single state container for one client session.
type Store struct {
	backend  Backend
	dial     DialFunc
	contacts *pager.Engine
	machine  *status.Machine
	bus      *bus.Bus
	logger   *zap.Logger

	mu           sync.RWMutex
	self         *model.Identity
	conn         Conn
	connFor      string
	dialGen      uint64
	dialing      bool
	presenceOff  func()
	online       map[string]bool
	selected     string
	selGen       uint64
	conversation []model.Message
	liveOff      func()
	loading      Loading

	changes chan struct{}
}

// New builds an empty, logged-out store. A nil bus disables event emission.
func New(backend Backend, dial DialFunc, pageSize int, b *bus.Bus, logger *zap.Logger) *Store {
	return &Store{
		backend:  backend,
		dial:     dial,
		contacts: pager.New(pageSize),
		machine:  status.NewMachine(b),
		bus:      b,
		logger:   logger,
		online:   make(map[string]bool),
		changes:  make(chan struct{}, 1),
	}
}

// Changes signals that some state changed. Signals coalesce.
func (s *Store) Changes() <-chan struct{} { return s.changes }

func (s *Store) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
	s.bus.Emit(bus.StoreChanged, nil)
}

func (s *Store) setLoading(fn func(*Loading)) {
	s.mu.Lock()
	fn(&s.loading)
	s.mu.Unlock()
	s.signal()
}

// Signup creates an account, then behaves like Login.
func (s *Store) Signup(ctx context.Context, fullName, email, password string) (*model.Identity, error) {
	s.setLoading(func(l *Loading) { l.SigningUp = true })
	id, err := s.backend.Signup(ctx, fullName, email, password)
	s.setLoading(func(l *Loading) { l.SigningUp = false })
	if err != nil {
		return nil, err
	}
	s.authenticated(ctx, id)
	return id, nil
}

// Login authenticates and opens the realtime connection. A failure leaves
// the identity untouched.
func (s *Store) Login(ctx context.Context, email, password string) (*model.Identity, error) {
	s.setLoading(func(l *Loading) { l.LoggingIn = true })
	id, err := s.backend.Login(ctx, email, password)
	s.setLoading(func(l *Loading) { l.LoggingIn = false })
	if err != nil {
		return nil, err
	}
	s.authenticated(ctx, id)
	return id, nil
}

// CheckAuth restores a session from the cookie, if any.
func (s *Store) CheckAuth(ctx context.Context) (*model.Identity, error) {
	s.setLoading(func(l *Loading) { l.CheckingAuth = true })
	id, err := s.backend.CheckAuth(ctx)
	s.setLoading(func(l *Loading) { l.CheckingAuth = false })
	if err != nil {
		return nil, err
	}
	s.authenticated(ctx, id)
	return id, nil
}

func (s *Store) authenticated(ctx context.Context, id *model.Identity) {
	s.mu.Lock()
	if s.connFor != "" && s.connFor != id.ID {
		s.teardownLocked()
		s.resetSessionLocked()
	}
	self := *id
	s.self = &self
	s.mu.Unlock()
	s.signal()

	if err := s.Connect(ctx); err != nil {
		s.logger.Warn("realtime connect failed", zap.String("user_id", id.ID), zap.Error(err))
	}
}

// Connect opens the realtime connection for the current identity. It is a
// no-op when one is already open or being opened for that identity.
func (s *Store) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.self == nil {
		s.mu.Unlock()
		return apperr.Auth("Unauthorized - No Token Provided")
	}
	userID := s.self.ID
	if s.connFor == userID && (s.conn != nil || s.dialing) {
		s.mu.Unlock()
		return nil
	}
	s.dialGen++
	gen := s.dialGen
	s.dialing = true
	s.connFor = userID
	s.transition(status.Connecting)
	s.mu.Unlock()
	s.signal()

	conn, err := s.dial(ctx, userID)

	s.mu.Lock()
	if gen != s.dialGen {
		s.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return nil
	}
	s.dialing = false
	if err != nil {
		s.connFor = ""
		s.transition(status.Error)
		s.mu.Unlock()
		s.signal()
		return err
	}
	s.conn = conn
	s.presenceOff = conn.On(model.EventOnlineUsers, s.onPresence)
	if s.selected != "" {
		s.subscribeLocked(s.selected)
	}
	s.transition(status.Connected)
	s.mu.Unlock()
	s.signal()

	go s.watch(conn)
	return nil
}

// watch handles the transport-close notification for conn.
func (s *Store) watch(conn Conn) {
	<-conn.Done()
	s.mu.Lock()
	if s.conn != conn {
		s.mu.Unlock()
		return
	}
	s.logger.Info("realtime connection closed", zap.String("user_id", s.connFor))
	s.teardownLocked()
	s.mu.Unlock()
	s.signal()
}

// teardownLocked detaches handlers and closes the connection directly.
func (s *Store) teardownLocked() {
	s.unsubscribeLocked()
	if s.presenceOff != nil {
		s.presenceOff()
		s.presenceOff = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.dialGen++
	s.dialing = false
	s.connFor = ""
	s.online = make(map[string]bool)
	s.transition(status.Disconnected)
}

func (s *Store) resetSessionLocked() {
	s.self = nil
	s.selected = ""
	s.selGen++
	s.conversation = nil
	s.loading = Loading{}
	s.contacts.Reset()
}

// transition moves the status machine, skipping moves that are no-ops.
func (s *Store) transition(to status.State) {
	if s.machine.Current() == to {
		return
	}
	if err := s.machine.Transition(to); err != nil {
		s.logger.Warn("connection status", zap.Error(err))
	}
}

// Logout ends the session on the server, then clears local state and closes
// the connection without waiting for the transport to report it.
func (s *Store) Logout(ctx context.Context) error {
	err := s.backend.Logout(ctx)
	if err != nil {
		s.logger.Warn("logout request failed", zap.Error(err))
	}
	s.mu.Lock()
	s.teardownLocked()
	s.resetSessionLocked()
	s.mu.Unlock()
	s.signal()
	return err
}

// Close detaches every handler and closes the connection. The identity is kept.
func (s *Store) Close() error {
	s.mu.Lock()
	s.teardownLocked()
	s.mu.Unlock()
	s.signal()
	return nil
}

// UpdateProfile uploads a new profile picture and adopts the returned identity.
func (s *Store) UpdateProfile(ctx context.Context, profilePic string) (*model.Identity, error) {
	s.setLoading(func(l *Loading) { l.UpdatingProfile = true })
	id, err := s.backend.UpdateProfile(ctx, profilePic)
	s.setLoading(func(l *Loading) { l.UpdatingProfile = false })
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.self != nil && s.self.ID == id.ID {
		self := *id
		s.self = &self
	}
	s.mu.Unlock()
	s.signal()
	return id, nil
}

func (s *Store) onPresence(data json.RawMessage) {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		s.logger.Warn("bad presence payload", zap.Error(err))
		return
	}
	online := make(map[string]bool, len(ids))
	for _, id := range ids {
		online[id] = true
	}
	s.mu.Lock()
	s.online = online
	s.mu.Unlock()
	s.signal()
}
