package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatline/internal/status"
	"github.com/matheus3301/chatline/internal/tui/ui"
)

// StatusBar shows the instance, the session and the connection state.
type StatusBar struct {
	*tview.TextView
	theme *ui.Theme
}

func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)
	return &StatusBar{TextView: tv, theme: theme}
}

// Update renders one status line. An empty user means logged out.
func (sb *StatusBar) Update(instance, user string, state status.State, online int, busy string) {
	sb.Clear()
	color := sb.theme.FlashErr
	switch state {
	case status.Connected:
		color = sb.theme.StatusOK
	case status.Connecting:
		color = sb.theme.StatusPending
	}
	if user == "" {
		user = "logged out"
	}
	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s | [%s]%s[-] | %d online", clean(instance), clean(user), ui.Tag(color), state, online)
	if busy != "" {
		line += fmt.Sprintf(" | [%s]%s[-]", ui.Tag(sb.theme.StatusPending), busy)
	}
	_, _ = fmt.Fprint(sb, line)
}
