// Package tui is the terminal client. All state lives in a syncstore.Store;
// the app renders it whenever the store signals a change.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/apperr"
	"github.com/matheus3301/chatline/internal/model"
	"github.com/matheus3301/chatline/internal/syncstore"
	"github.com/matheus3301/chatline/internal/tui/keys"
	"github.com/matheus3301/chatline/internal/tui/ui"
	"github.com/matheus3301/chatline/internal/tui/views"
)

const requestTimeout = 15 * time.Second

// App is the terminal client shell.
type App struct {
	app      *tview.Application
	store    *syncstore.Store
	instance string
	logger   *zap.Logger

	theme     *ui.Theme
	pages     *ui.Pages
	keys      *keys.Registry
	flash     *ui.FlashModel
	flashBar  *ui.FlashBar
	menu      *ui.Menu
	statusBar *views.StatusBar
	login     *views.LoginView
	contacts  *views.ContactsView
	convo     *views.ConversationView

	onlineOnly bool

	ctx    context.Context
	cancel context.CancelFunc
}

func New(store *syncstore.Store, instance string, logger *zap.Logger) *App {
	theme := ui.DefaultTheme()
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		app:       tview.NewApplication(),
		store:     store,
		instance:  instance,
		logger:    logger,
		theme:     theme,
		pages:     ui.NewPages(),
		keys:      keys.NewRegistry(),
		flash:     ui.NewFlashModel(),
		flashBar:  ui.NewFlashBar(theme),
		menu:      ui.NewMenu(theme),
		statusBar: views.NewStatusBar(theme),
		login:     views.NewLoginView(theme),
		contacts:  views.NewContactsView(theme),
		convo:     views.NewConversationView(theme),
		ctx:       ctx,
		cancel:    cancel,
	}
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) setupBindings() {
	a.keys.Global(&keys.Action{Key: tcell.KeyCtrlC, Label: "Ctrl-C", Description: "Quit", Handler: a.Stop})

	a.keys.Page("contacts", &keys.Action{Key: tcell.KeyRune, Rune: 'o', Handler: func() {
		a.onlineOnly = !a.onlineOnly
		a.render()
	}})
	a.keys.Page("contacts", &keys.Action{Key: tcell.KeyRune, Rune: 'r', Handler: func() {
		a.store.ResetContacts()
		a.run("Reload", func(ctx context.Context) error {
			_, err := a.store.LoadMore(ctx)
			return err
		})
	}})
	a.keys.Page("contacts", &keys.Action{Key: tcell.KeyRune, Rune: 'c', Handler: func() {
		a.run("Reconnect", a.store.Connect)
	}})
	a.keys.Page("contacts", &keys.Action{Key: tcell.KeyRune, Rune: 'L', Handler: a.logout})
	a.keys.Page("contacts", &keys.Action{Key: tcell.KeyRune, Rune: 'q', Handler: a.Stop})

	a.keys.Page("chat", &keys.Action{Key: tcell.KeyEscape, Handler: func() {
		a.run("Close conversation", func(ctx context.Context) error {
			return a.store.SelectCounterpart(ctx, "")
		})
		a.pages.Pop()
		a.app.SetFocus(a.contacts)
	}})
}

func (a *App) setupCallbacks() {
	a.login.SetOnSubmit(func(c views.Credentials) {
		a.login.ShowBusy("Working…")
		go func() {
			ctx, cancel := context.WithTimeout(a.ctx, requestTimeout)
			defer cancel()
			var err error
			if c.Signup {
				_, err = a.store.Signup(ctx, c.FullName, c.Email, c.Password)
			} else {
				_, err = a.store.Login(ctx, c.Email, c.Password)
			}
			a.app.QueueUpdateDraw(func() {
				if err != nil {
					a.login.ShowError(apperr.Public(err))
					return
				}
				a.login.Reset()
				a.enterContacts()
			})
		}()
	})

	a.contacts.SetOnOpen(func(id string) {
		a.pages.Push("chat")
		a.app.SetFocus(a.convo.Composer())
		a.run("Load conversation", func(ctx context.Context) error {
			return a.store.SelectCounterpart(ctx, id)
		})
	})
	a.contacts.SetOnNearEnd(func() {
		a.run("Load contacts", func(ctx context.Context) error {
			_, err := a.store.LoadMore(ctx)
			return err
		})
	})

	a.convo.SetOnSend(a.send)
}

func (a *App) setupLayout() {
	a.pages.Add(a.login, a.login)
	a.pages.Add(a.contacts, a.contacts)
	a.pages.Add(a.convo, a.convo)
	a.pages.SetOnChange(func(top ui.Component) {
		if top != nil {
			a.menu.Update(append(top.Hints(), a.keys.Hints(top.Name())...))
		}
	})

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.menu, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)
	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		page := a.pages.Current()
		if _, typing := a.app.GetFocus().(*tview.InputField); typing && ev.Key() != tcell.KeyEscape && ev.Key() != tcell.KeyCtrlC {
			return ev
		}
		if page == "login" && ev.Key() != tcell.KeyCtrlC {
			return ev
		}
		if a.keys.Handle(page, ev) {
			return nil
		}
		return ev
	})
}

// run executes fn off the UI goroutine and flashes its failure.
func (a *App) run(what string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, requestTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			a.logger.Warn(strings.ToLower(what)+" failed", zap.Error(err))
			a.flash.Err(what + ": " + apperr.Public(err))
			a.app.QueueUpdateDraw(a.render)
		}
	}()
}

func (a *App) send(text string) {
	cmd, isCmd := ParseCommand(text)
	if !isCmd {
		a.run("Send", func(ctx context.Context) error {
			_, err := a.store.SendMessage(ctx, text, "")
			return err
		})
		return
	}
	switch cmd.Name {
	case "image":
		a.run("Send image", func(ctx context.Context) error {
			blob, err := dataURL(cmd.Args)
			if err != nil {
				return apperr.Validation(err.Error())
			}
			_, err = a.store.SendMessage(ctx, "", blob)
			return err
		})
	case "avatar":
		a.run("Update profile", func(ctx context.Context) error {
			blob, err := dataURL(cmd.Args)
			if err != nil {
				return apperr.Validation(err.Error())
			}
			if _, err := a.store.UpdateProfile(ctx, blob); err != nil {
				return err
			}
			a.flash.Info("Profile updated successfully.")
			return nil
		})
	default:
		a.flash.Warn("Unknown command /" + cmd.Name)
		a.render()
	}
}

func (a *App) logout() {
	a.run("Logout", func(ctx context.Context) error {
		err := a.store.Logout(ctx)
		a.app.QueueUpdateDraw(func() {
			a.pages.Reset("login")
			a.app.SetFocus(a.login)
		})
		return err
	})
}

func (a *App) enterContacts() {
	a.pages.Reset("contacts")
	a.app.SetFocus(a.contacts)
	a.run("Load contacts", func(ctx context.Context) error {
		_, err := a.store.LoadMore(ctx)
		return err
	})
}

// render copies store state into the views. It runs on the UI goroutine.
func (a *App) render() {
	self := a.store.Self()
	userLabel, selfID := "", ""
	if self != nil {
		userLabel, selfID = self.FullName, self.ID
	}
	online := a.store.Online()
	loading := a.store.Loading()
	a.statusBar.Update(a.instance, userLabel, a.store.Status(), len(online), busyLabel(loading))
	a.flashBar.Update(a.flash.Current())

	all := a.store.Contacts(a.onlineOnly)
	rows := make([]views.Contact, len(all))
	for i, id := range all {
		rows[i] = views.Contact{Identity: id, Online: a.store.IsOnline(id.ID)}
	}
	a.contacts.Update(rows, a.onlineOnly, a.store.HasMoreContacts())

	if sel := a.store.Selected(); sel != "" {
		peer := views.Contact{Identity: a.lookup(sel, rows), Online: a.store.IsOnline(sel)}
		a.convo.Update(peer, selfID, a.store.Conversation(), loading.MessagesLoading)
	}
}

func (a *App) lookup(id string, rows []views.Contact) (out model.Identity) {
	for _, r := range rows {
		if r.ID == id {
			return r.Identity
		}
	}
	for _, c := range a.store.Contacts(false) {
		if c.ID == id {
			return c
		}
	}
	out.ID = id
	return out
}

func busyLabel(l syncstore.Loading) string {
	switch {
	case l.CheckingAuth:
		return "checking session"
	case l.LoggingIn:
		return "logging in"
	case l.SigningUp:
		return "signing up"
	case l.UpdatingProfile:
		return "updating profile"
	case l.UsersLoading:
		return "loading contacts"
	case l.MessagesLoading:
		return "loading messages"
	}
	return ""
}

// Run restores any saved session, then blocks in the UI loop.
func (a *App) Run() error {
	a.pages.Reset("login")
	go a.boot()
	go a.watch()
	return a.app.Run()
}

func (a *App) boot() {
	ctx, cancel := context.WithTimeout(a.ctx, requestTimeout)
	defer cancel()
	_, err := a.store.CheckAuth(ctx)
	a.app.QueueUpdateDraw(func() {
		if err != nil {
			a.app.SetFocus(a.login)
			return
		}
		a.enterContacts()
	})
}

// watch redraws on store changes and expires flash messages.
func (a *App) watch() {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for {
		select {
		case <-a.store.Changes():
		case <-tick.C:
		case <-a.ctx.Done():
			return
		}
		a.app.QueueUpdateDraw(a.render)
	}
}

// Stop ends the UI loop.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
