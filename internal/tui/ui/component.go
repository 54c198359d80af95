package ui

// MenuHint describes a keyboard shortcut shown in the menu bar.
type MenuHint struct {
	Key         string
	Description string
}

// Component is a page that can be pushed onto Pages.
type Component interface {
	Name() string
	Hints() []MenuHint
}
