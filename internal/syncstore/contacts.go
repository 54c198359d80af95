package syncstore

import (
	"context"
	"slices"

	"github.com/matheus3301/chatline/internal/apperr"
	"github.com/matheus3301/chatline/internal/model"
	"github.com/matheus3301/chatline/internal/status"
)

// LoadMore is the near-end-of-list trigger. It reports whether a page was requested.
func (s *Store) LoadMore(ctx context.Context) (bool, error) {
	s.mu.RLock()
	authed := s.self != nil
	s.mu.RUnlock()
	if !authed {
		return false, apperr.Auth("Unauthorized - No Token Provided")
	}
	requested, err := s.contacts.LoadMore(ctx, func(ctx context.Context, page, limit int) (*model.UserPage, error) {
		s.signal()
		return s.backend.ListUsers(ctx, page, limit)
	})
	if requested {
		s.signal()
	}
	return requested, err
}

// ResetContacts drops the accumulated contact list.
func (s *Store) ResetContacts() {
	s.contacts.Reset()
	s.signal()
}

// Contacts returns the accumulated list, optionally only those online.
func (s *Store) Contacts(onlineOnly bool) []model.Identity {
	items := s.contacts.Items()
	if !onlineOnly {
		return items
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.DeleteFunc(items, func(id model.Identity) bool { return !s.online[id.ID] })
}

// Cursor returns the contact pagination cursor.
func (s *Store) Cursor() (page, totalPages int) { return s.contacts.Cursor() }

func (s *Store) HasMoreContacts() bool { return s.contacts.HasMore() }

func (s *Store) IsOnline(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online[id]
}

// Online returns the last announced online set, sorted.
func (s *Store) Online() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.online))
	for id := range s.online {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Self returns the authenticated identity, or nil.
func (s *Store) Self() *model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.self == nil {
		return nil
	}
	self := *s.self
	return &self
}

func (s *Store) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Conversation returns a copy of the conversation view.
func (s *Store) Conversation() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.conversation)
}

func (s *Store) Status() status.State { return s.machine.Current() }

func (s *Store) Loading() Loading {
	s.mu.RLock()
	l := s.loading
	s.mu.RUnlock()
	l.UsersLoading = s.contacts.Loading()
	return l
}
