// Package presence tracks which identities hold a live realtime connection
// and announces the online set to every connected handle.
package presence

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/bus"
)

// Handle is one live realtime transport owned by a single identity.
type Handle interface {
	ID() string
	UserID() string
	// Push enqueues a frame without blocking.
	Push(frame []byte) error
	Close() error
}

// Announcer receives every post-mutation online set together with the
// handles it must reach. It runs under the registry lock and must not block.
type Announcer interface {
	Announce(online []string, to []Handle)
}

// Change is the bus payload for bus.PresenceChanged.
type Change struct {
	UserID string
	Reason string
	Online []string
}

const (
	ReasonRegistered   = "registered"
	ReasonUnregistered = "unregistered"
	ReasonReleased     = "released"
)

// Registry maps identities to their current handle. At most one handle is
// kept per identity; a newer registration closes the older transport.
type Registry struct {
	mu        sync.Mutex
	entries   map[string]Handle
	announcer Announcer
	bus       *bus.Bus
	logger    *zap.Logger
}

func NewRegistry(announcer Announcer, b *bus.Bus, logger *zap.Logger) *Registry {
	return &Registry{
		entries:   make(map[string]Handle),
		announcer: announcer,
		bus:       b,
		logger:    logger,
	}
}

// Register installs h for identity, replacing and closing any previous handle.
func (r *Registry) Register(identity string, h Handle) {
	r.mu.Lock()
	prev := r.entries[identity]
	r.entries[identity] = h
	r.changedLocked(identity, ReasonRegistered)
	r.mu.Unlock()

	if prev != nil && prev != h {
		r.logger.Info("closing superseded connection",
			zap.String("user_id", identity), zap.String("handle", prev.ID()))
		if err := prev.Close(); err != nil {
			r.logger.Warn("close superseded connection", zap.String("user_id", identity), zap.Error(err))
		}
	}
}

// Unregister removes identity's entry, if any, and re-announces. The
// removed handle is returned so the caller may close it.
func (r *Registry) Unregister(identity string) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.entries[identity]
	delete(r.entries, identity)
	r.changedLocked(identity, ReasonUnregistered)
	return h
}

// Release removes h only if it is still the current handle for its
// identity. A stale handle closing never evicts its replacement.
func (r *Registry) Release(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity := h.UserID()
	if cur, ok := r.entries[identity]; !ok || cur != h {
		return false
	}
	delete(r.entries, identity)
	r.changedLocked(identity, ReasonReleased)
	return true
}

// Lookup returns the current handle for identity.
func (r *Registry) Lookup(identity string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.entries[identity]
	return h, ok
}

// Snapshot returns the online identities in sorted order.
func (r *Registry) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.onlineLocked()
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Handles returns the current handles.
func (r *Registry) Handles() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handlesLocked()
}

func (r *Registry) onlineLocked() []string {
	online := make([]string, 0, len(r.entries))
	for id := range r.entries {
		online = append(online, id)
	}
	slices.Sort(online)
	return online
}

func (r *Registry) handlesLocked() []Handle {
	hs := make([]Handle, 0, len(r.entries))
	for _, h := range r.entries {
		hs = append(hs, h)
	}
	return hs
}

// changedLocked announces the current set while the lock is still held, so
// observers see announcements in mutation order.
func (r *Registry) changedLocked(identity, reason string) {
	online := r.onlineLocked()
	if r.announcer != nil {
		r.announcer.Announce(online, r.handlesLocked())
	}
	r.bus.Emit(bus.PresenceChanged, Change{UserID: identity, Reason: reason, Online: online})
}
