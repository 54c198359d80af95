// Package views holds the tview primitives of the terminal client.
package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatline/internal/model"
	"github.com/matheus3301/chatline/internal/tui/ui"
)

// clean drops code points tcell renders badly (emoji modifiers, joiners,
// variation selectors) and escapes tview color tags.
func clean(s string) string {
	return tview.Escape(strings.Map(func(r rune) rune {
		switch {
		case r >= 0x1F3FB && r <= 0x1F3FF,
			r == 0x200D,
			r >= 0xFE00 && r <= 0xFE0F,
			r >= 0xE0100 && r <= 0xE01EF:
			return -1
		}
		return r
	}, s))
}

// formatTime shows the clock for today and the date otherwise.
func formatTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(now.Location())
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02 15:04")
}

// renderMessage formats one conversation entry.
func renderMessage(m model.Message, selfID, peerName string, theme *ui.Theme, now time.Time) string {
	who, color := clean(peerName), theme.PeerColor
	if m.SenderID == selfID {
		who, color = "You", theme.SelfColor
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s::b]%s[-:-:-] [::d]%s[-:-:-]\n", ui.Tag(color), who, formatTime(m.CreatedAt, now))
	if m.Text != "" {
		b.WriteString(clean(m.Text))
		b.WriteString("\n")
	}
	if m.Image != "" {
		fmt.Fprintf(&b, "[::u]image: %s[-:-:-]\n", clean(m.Image))
	}
	b.WriteString("\n")
	return b.String()
}
