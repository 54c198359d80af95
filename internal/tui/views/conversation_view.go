package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatline/internal/model"
	"github.com/matheus3301/chatline/internal/tui/ui"
)

// ConversationView shows the selected conversation above a composer.
type ConversationView struct {
	*tview.Flex
	theme    *ui.Theme
	messages *tview.TextView
	composer *tview.InputField
	onSend   func(text string)
	now      func() time.Time
}

func NewConversationView(theme *ui.Theme) *ConversationView {
	messages := tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitleColor(theme.TitleColor)

	composer := tview.NewInputField().SetLabel(" > ").SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.KeyColor)
	composer.SetTitle(" Message  (/image <path>, /avatar <path>) ")
	composer.SetTitleColor(theme.TitleColor)

	v := &ConversationView{
		Flex: tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(messages, 0, 1, false).
			AddItem(composer, 3, 0, true),
		theme:    theme,
		messages: messages,
		composer: composer,
		now:      time.Now,
	}
	composer.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || v.onSend == nil {
			return
		}
		text := strings.TrimSpace(composer.GetText())
		if text == "" {
			return
		}
		composer.SetText("")
		v.onSend(text)
	})
	return v
}

func (v *ConversationView) Name() string { return "chat" }

func (v *ConversationView) Hints() []ui.MenuHint {
	return []ui.MenuHint{{Key: "Enter", Description: "Send"}, {Key: "Esc", Description: "Back"}}
}

func (v *ConversationView) SetOnSend(fn func(text string)) { v.onSend = fn }

func (v *ConversationView) Composer() *tview.InputField { return v.composer }

// Update renders the conversation with peer.
func (v *ConversationView) Update(peer Contact, selfID string, msgs []model.Message, loading bool) {
	name := peer.FullName
	if name == "" {
		name = peer.ID
	}
	state := "offline"
	if peer.Online {
		state = "online"
	}
	v.messages.SetTitle(fmt.Sprintf(" %s (%s) ", clean(name), state))

	v.messages.Clear()
	if loading && len(msgs) == 0 {
		_, _ = fmt.Fprint(v.messages, "[::d]Loading messages…[-:-:-]")
		return
	}
	if len(msgs) == 0 {
		_, _ = fmt.Fprint(v.messages, "[::d]No messages yet. Say hi.[-:-:-]")
		return
	}
	now := v.now()
	for _, m := range msgs {
		_, _ = fmt.Fprint(v.messages, renderMessage(m, selfID, name, v.theme, now))
	}
	v.messages.ScrollToEnd()
}

// Text returns the rendered conversation without color tags.
func (v *ConversationView) Text() string { return v.messages.GetText(true) }
