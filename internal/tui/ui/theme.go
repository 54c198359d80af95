package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// Theme holds the colors used across views.
type Theme struct {
	BgColor       tcell.Color
	FgColor       tcell.Color
	BorderColor   tcell.Color
	TitleColor    tcell.Color
	HeaderFg      tcell.Color
	CursorFg      tcell.Color
	CursorBg      tcell.Color
	KeyColor      tcell.Color
	OnlineColor   tcell.Color
	OfflineColor  tcell.Color
	SelfColor     tcell.Color
	PeerColor     tcell.Color
	FlashInfo     tcell.Color
	FlashWarn     tcell.Color
	FlashErr      tcell.Color
	StatusOK      tcell.Color
	StatusPending tcell.Color
}

// DefaultTheme is a dark theme.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:       tcell.ColorBlack,
		FgColor:       tcell.ColorCadetBlue,
		BorderColor:   tcell.ColorDodgerBlue,
		TitleColor:    tcell.ColorFuchsia,
		HeaderFg:      tcell.ColorWhite,
		CursorFg:      tcell.ColorBlack,
		CursorBg:      tcell.ColorAqua,
		KeyColor:      tcell.ColorDodgerBlue,
		OnlineColor:   tcell.ColorLime,
		OfflineColor:  tcell.ColorGray,
		SelfColor:     tcell.ColorAqua,
		PeerColor:     tcell.ColorOrange,
		FlashInfo:     tcell.ColorNavajoWhite,
		FlashWarn:     tcell.ColorOrange,
		FlashErr:      tcell.ColorOrangeRed,
		StatusOK:      tcell.ColorLime,
		StatusPending: tcell.ColorYellow,
	}
}

// Tag renders c as a tview color tag value.
func Tag(c tcell.Color) string {
	return fmt.Sprintf("#%06x", c.Hex())
}
