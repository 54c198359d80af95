package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// Menu is a single-line bar of key hints.
type Menu struct {
	*tview.TextView
	theme *Theme
}

func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &Menu{TextView: tv, theme: theme}
}

// Update renders hints left to right.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()
	_, _ = fmt.Fprint(m, FormatHints(hints, Tag(m.theme.KeyColor)))
}

// FormatHints renders hints as "<key> desc" pairs in color.
func FormatHints(hints []MenuHint, color string) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, fmt.Sprintf("[%s::b]<%s>[-:-:-] %s", color, tview.Escape(h.Key), h.Description))
	}
	return " " + strings.Join(parts, "  ")
}
