package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatline/internal/model"
	"github.com/matheus3301/chatline/internal/tui/ui"
)

// Contact is one row of the contacts table.
type Contact struct {
	model.Identity
	Online bool
}

// ContactsView lists contacts with online markers. Moving the cursor onto
// the last rendered row fires the near-end callback.
type ContactsView struct {
	*tview.Table
	theme     *ui.Theme
	ids       []string
	onOpen    func(id string)
	onNearEnd func()
}

func NewContactsView(theme *ui.Theme) *ContactsView {
	table := tview.NewTable().SetSelectable(true, false).SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetTitleColor(theme.TitleColor)
	table.SetSelectedStyle(tcell.StyleDefault.Foreground(theme.CursorFg).Background(theme.CursorBg))

	v := &ContactsView{Table: table, theme: theme}
	table.SetSelectedFunc(func(row, _ int) {
		if id := v.idAt(row); id != "" && v.onOpen != nil {
			v.onOpen(id)
		}
	})
	table.SetSelectionChangedFunc(func(row, _ int) {
		if row > 0 && row == len(v.ids) && v.onNearEnd != nil {
			v.onNearEnd()
		}
	})
	v.Update(nil, false, false)
	return v
}

func (v *ContactsView) Name() string { return "contacts" }

func (v *ContactsView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "o", Description: "Online only"},
		{Key: "r", Description: "Reload"},
		{Key: "c", Description: "Reconnect"},
		{Key: "L", Description: "Logout"},
	}
}

func (v *ContactsView) SetOnOpen(fn func(id string)) { v.onOpen = fn }

func (v *ContactsView) SetOnNearEnd(fn func()) { v.onNearEnd = fn }

func (v *ContactsView) idAt(row int) string {
	if row < 1 || row > len(v.ids) {
		return ""
	}
	return v.ids[row-1]
}

// Selected returns the id under the cursor.
func (v *ContactsView) Selected() string {
	row, _ := v.GetSelection()
	return v.idAt(row)
}

// Update renders contacts, keeping the cursor on the same identity when possible.
func (v *ContactsView) Update(contacts []Contact, onlineOnly, hasMore bool) {
	keep := v.Selected()
	v.Clear()
	for col, h := range []string{"", " NAME", " EMAIL"} {
		v.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(v.theme.HeaderFg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(min(col, 1)))
	}

	v.ids = v.ids[:0]
	cursor := 0
	for i, c := range contacts {
		row := i + 1
		marker, color := "○", v.theme.OfflineColor
		if c.Online {
			marker, color = "●", v.theme.OnlineColor
		}
		name := c.FullName
		if name == "" {
			name = c.ID
		}
		v.SetCell(row, 0, tview.NewTableCell(" "+marker).SetTextColor(color))
		v.SetCell(row, 1, tview.NewTableCell(" "+clean(name)).SetExpansion(1).SetTextColor(v.theme.FgColor))
		v.SetCell(row, 2, tview.NewTableCell(" "+clean(c.Email)).SetExpansion(1).SetTextColor(v.theme.FgColor))
		v.ids = append(v.ids, c.ID)
		if c.ID == keep {
			cursor = row
		}
	}
	if row, _ := v.GetSelection(); cursor > 0 && cursor != row {
		v.Select(cursor, 0)
	}

	title := fmt.Sprintf(" Contacts (%d) ", len(contacts))
	if onlineOnly {
		title = fmt.Sprintf(" Contacts online (%d) ", len(contacts))
	}
	if hasMore {
		title += "… "
	}
	v.SetTitle(title)
}
