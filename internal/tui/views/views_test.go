package views

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/chatline/internal/model"
	"github.com/matheus3301/chatline/internal/tui/ui"
)

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"👍🏻", "👍"},
		{"👨‍👩", "👨👩"},
		{"❤️", "❤"},
		{"[red]x", "[red[]x"},
	}
	for _, tt := range tests {
		if got := clean(tt.in); got != tt.want {
			t.Errorf("clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Time{}, ""},
		{time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC), "09:05"},
		{time.Date(2026, 3, 9, 9, 5, 0, 0, time.UTC), "03/09 09:05"},
	}
	for _, tt := range tests {
		if got := formatTime(tt.in, now); got != tt.want {
			t.Errorf("formatTime(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderMessage(t *testing.T) {
	theme := ui.DefaultTheme()
	now := time.Now()
	mine := renderMessage(model.Message{SenderID: "me", Text: "hi", CreatedAt: now}, "me", "Bob", theme, now)
	if !strings.Contains(mine, "You") || !strings.Contains(mine, "hi") {
		t.Errorf("own message = %q", mine)
	}
	theirs := renderMessage(model.Message{SenderID: "bob", Image: "http://x/media/a.png"}, "me", "Bob", theme, now)
	if !strings.Contains(theirs, "Bob") || !strings.Contains(theirs, "image: http://x/media/a.png") {
		t.Errorf("peer message = %q", theirs)
	}
}

func contacts(n int) []Contact {
	out := make([]Contact, n)
	for i := range out {
		id := "u" + strconv.Itoa(i)
		out[i] = Contact{Identity: model.Identity{ID: id, FullName: "User " + id}, Online: i%2 == 0}
	}
	return out
}

func TestContactsNearEndTrigger(t *testing.T) {
	v := NewContactsView(ui.DefaultTheme())
	fired := 0
	v.SetOnNearEnd(func() { fired++ })
	v.Update(contacts(10), false, true)

	v.Select(5, 0)
	if fired != 0 {
		t.Fatalf("fired on row 5")
	}
	v.Select(10, 0)
	if fired != 1 {
		t.Errorf("fired %d times on the last row, want 1", fired)
	}
	if v.Selected() != "u9" {
		t.Errorf("Selected() = %q", v.Selected())
	}

	// Re-rendering more rows keeps the cursor on the same identity.
	v.Update(contacts(15), false, false)
	if v.Selected() != "u9" {
		t.Errorf("Selected() after update = %q, want u9", v.Selected())
	}
	if fired != 1 {
		t.Errorf("re-render fired the trigger")
	}
}

func TestContactsOpen(t *testing.T) {
	v := NewContactsView(ui.DefaultTheme())
	v.Update(contacts(3), false, false)
	if got := v.GetRowCount(); got != 4 {
		t.Errorf("rows = %d, want header plus 3", got)
	}
	if v.idAt(0) != "" || v.idAt(4) != "" || v.idAt(2) != "u1" {
		t.Error("idAt maps rows incorrectly")
	}
}

func TestLoginSubmit(t *testing.T) {
	v := NewLoginView(ui.DefaultTheme())
	var got Credentials
	v.SetOnSubmit(func(c Credentials) { got = c })

	v.email.SetText("a@x.com")
	v.password.SetText("secret1")
	v.fullName.SetText("ignored")
	v.submit()
	if got.Signup || got.Email != "a@x.com" || got.FullName != "" {
		t.Errorf("login submit = %+v", got)
	}

	v.Toggle()
	v.submit()
	if !got.Signup || got.FullName != "ignored" {
		t.Errorf("signup submit = %+v", got)
	}
}

func TestConversationUpdate(t *testing.T) {
	v := NewConversationView(ui.DefaultTheme())
	peer := Contact{Identity: model.Identity{ID: "bob", FullName: "Bob"}, Online: true}

	v.Update(peer, "me", nil, true)
	if !strings.Contains(v.Text(), "Loading") {
		t.Errorf("loading text = %q", v.Text())
	}
	v.Update(peer, "me", []model.Message{{ID: "1", SenderID: "bob", Text: "hey"}, {ID: "2", SenderID: "me", Text: "yo"}}, false)
	text := v.Text()
	if !strings.Contains(text, "hey") || !strings.Contains(text, "You") {
		t.Errorf("conversation text = %q", text)
	}
}
