package ui

import "github.com/rivo/tview"

// Pages keeps a navigation stack over tview.Pages and reports the visible
// component whenever the stack moves.
type Pages struct {
	*tview.Pages
	byName   map[string]Component
	stack    []string
	onChange func(top Component)
}

func NewPages() *Pages {
	return &Pages{Pages: tview.NewPages(), byName: make(map[string]Component)}
}

// Add registers a component under its name, hidden.
func (p *Pages) Add(c Component, prim tview.Primitive) {
	p.byName[c.Name()] = c
	p.AddPage(c.Name(), prim, true, false)
}

func (p *Pages) SetOnChange(fn func(top Component)) { p.onChange = fn }

// Push shows name on top of the current page.
func (p *Pages) Push(name string) {
	if top := p.Current(); top != "" {
		if top == name {
			return
		}
		p.HidePage(top)
	}
	p.stack = append(p.stack, name)
	p.ShowPage(name)
	p.SendToFront(name)
	p.notify()
}

// Pop returns to the previous page. The root page is never popped.
func (p *Pages) Pop() {
	if len(p.stack) < 2 {
		return
	}
	p.HidePage(p.stack[len(p.stack)-1])
	p.stack = p.stack[:len(p.stack)-1]
	p.ShowPage(p.Current())
	p.SendToFront(p.Current())
	p.notify()
}

// Reset makes name the only page on the stack.
func (p *Pages) Reset(name string) {
	for _, n := range p.stack {
		p.HidePage(n)
	}
	p.stack = []string{name}
	p.ShowPage(name)
	p.SendToFront(name)
	p.notify()
}

func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

func (p *Pages) notify() {
	if p.onChange != nil {
		p.onChange(p.byName[p.Current()])
	}
}
