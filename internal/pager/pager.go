// Package pager accumulates paginated contact listings for infinite scroll.
package pager

import (
	"context"
	"sync"

	"github.com/matheus3301/chatline/internal/model"
)

// Fetch loads one page of the listing.
type Fetch func(ctx context.Context, page, limit int) (*model.UserPage, error)

// Engine merges pages into a deduplicated list in first-seen order and
// guards against overlapping or out-of-range page requests.
type Engine struct {
	pageSize int

	mu         sync.Mutex
	items      []model.Identity
	index      map[string]int
	page       int
	totalPages int
	loaded     bool
	inFlight   bool
	gen        uint64
}

func New(pageSize int) *Engine {
	if pageSize < 1 {
		pageSize = 10
	}
	return &Engine{pageSize: pageSize, index: make(map[string]int)}
}

// Merge folds p into the accumulated list. Identities already present keep
// their position and have their attributes refreshed.
func (e *Engine) Merge(p *model.UserPage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.merge(p)
}

func (e *Engine) merge(p *model.UserPage) {
	if p == nil {
		return
	}
	for _, id := range p.Data {
		if i, ok := e.index[id.ID]; ok {
			e.items[i] = id
			continue
		}
		e.index[id.ID] = len(e.items)
		e.items = append(e.items, id)
	}
	e.page = max(e.page, p.Pagination.Page)
	e.totalPages = p.Pagination.TotalPages
	e.loaded = true
}

// LoadMore requests the next page unless one is already in flight or the
// last known page has been reached. It reports whether a request was made.
func (e *Engine) LoadMore(ctx context.Context, fetch Fetch) (bool, error) {
	e.mu.Lock()
	if e.inFlight || (e.loaded && e.page >= e.totalPages) {
		e.mu.Unlock()
		return false, nil
	}
	e.inFlight = true
	gen := e.gen
	next := e.page + 1
	e.mu.Unlock()

	p, err := fetch(ctx, next, e.pageSize)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		// Reset while the request was outstanding.
		return true, nil
	}
	e.inFlight = false
	if err != nil {
		return true, err
	}
	e.merge(p)
	return true, nil
}

// Reset drops everything accumulated. A response to a request issued before
// the reset is discarded.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = nil
	e.index = make(map[string]int)
	e.page, e.totalPages = 0, 0
	e.loaded, e.inFlight = false, false
	e.gen++
}

// Items returns a copy of the accumulated list.
func (e *Engine) Items() []model.Identity {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.Identity, len(e.items))
	copy(out, e.items)
	return out
}

// Cursor returns the highest merged page and the last known page count.
func (e *Engine) Cursor() (page, totalPages int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.page, e.totalPages
}

func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inFlight
}

// HasMore reports whether LoadMore could request another page.
func (e *Engine) HasMore() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.loaded || e.page < e.totalPages
}
