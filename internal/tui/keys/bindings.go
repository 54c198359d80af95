// Package keys maps key events to actions per page.
package keys

import (
	"slices"

	"github.com/gdamore/tcell/v2"

	"github.com/matheus3301/chatline/internal/tui/ui"
)

// Action is one key binding.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Label       string
	Description string
	Handler     func()
}

// Matches reports whether ev triggers a.
func (a *Action) Matches(ev *tcell.EventKey) bool { return a.matches(ev.Key(), ev.Rune()) }

func (a *Action) matches(key tcell.Key, ch rune) bool {
	if a.Key != tcell.KeyRune {
		return key == a.Key
	}
	return key == tcell.KeyRune && ch == a.Rune
}

// Registry holds bindings in registration order, global ones last.
type Registry struct {
	global []*Action
	pages  map[string][]*Action
}

func NewRegistry() *Registry {
	return &Registry{pages: make(map[string][]*Action)}
}

func (r *Registry) Global(a *Action) { r.global = append(r.global, a) }

func (r *Registry) Page(page string, a *Action) { r.pages[page] = append(r.pages[page], a) }

// Hints lists the bindings active on page.
func (r *Registry) Hints(page string) []ui.MenuHint {
	var out []ui.MenuHint
	for _, a := range slices.Concat(r.pages[page], r.global) {
		if a.Description == "" {
			continue
		}
		label := a.Label
		if label == "" {
			label = string(a.Rune)
		}
		out = append(out, ui.MenuHint{Key: label, Description: a.Description})
	}
	return out
}

// Handle runs the first binding matching ev, page bindings first.
func (r *Registry) Handle(page string, ev *tcell.EventKey) bool {
	return r.handle(page, ev.Key(), ev.Rune())
}

func (r *Registry) handle(page string, key tcell.Key, ch rune) bool {
	for _, a := range slices.Concat(r.pages[page], r.global) {
		if a.matches(key, ch) {
			a.Handler()
			return true
		}
	}
	return false
}
