package views

import (
	"github.com/rivo/tview"

	"github.com/matheus3301/chatline/internal/tui/ui"
)

// Credentials is what the login form submits.
type Credentials struct {
	Signup   bool
	FullName string
	Email    string
	Password string
}

// LoginView is the login and signup form.
type LoginView struct {
	*tview.Flex
	theme    *ui.Theme
	form     *tview.Form
	notice   *tview.TextView
	fullName *tview.InputField
	email    *tview.InputField
	password *tview.InputField
	signup   bool
	onSubmit func(Credentials)
}

func NewLoginView(theme *ui.Theme) *LoginView {
	v := &LoginView{
		theme:    theme,
		form:     tview.NewForm(),
		notice:   tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter),
		fullName: tview.NewInputField().SetLabel("Full name").SetFieldWidth(32),
		email:    tview.NewInputField().SetLabel("Email").SetFieldWidth(32),
		password: tview.NewInputField().SetLabel("Password").SetFieldWidth(32).SetMaskCharacter('*'),
	}
	v.form.SetBorder(true)
	v.form.SetBorderColor(theme.BorderColor)
	v.form.SetTitleColor(theme.TitleColor)
	v.form.SetBackgroundColor(theme.BgColor)
	v.notice.SetBackgroundColor(theme.BgColor)

	v.Flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(v.form, 52, 0, true).
			AddItem(nil, 0, 1, false), 11, 0, true).
		AddItem(v.notice, 2, 0, false).
		AddItem(nil, 0, 1, false)
	v.build()
	return v
}

func (v *LoginView) Name() string { return "login" }

func (v *LoginView) Hints() []ui.MenuHint {
	return []ui.MenuHint{{Key: "Tab", Description: "Next field"}, {Key: "Enter", Description: "Submit"}}
}

func (v *LoginView) SetOnSubmit(fn func(Credentials)) { v.onSubmit = fn }

// Signup reports whether the form is in signup mode.
func (v *LoginView) Signup() bool { return v.signup }

// Toggle switches between login and signup.
func (v *LoginView) Toggle() {
	v.signup = !v.signup
	v.build()
}

func (v *LoginView) build() {
	v.form.Clear(true)
	if v.signup {
		v.form.SetTitle(" Create account ")
		v.form.AddFormItem(v.fullName)
	} else {
		v.form.SetTitle(" Log in ")
	}
	v.form.AddFormItem(v.email).AddFormItem(v.password)

	primary, other := "Log in", "Need an account?"
	if v.signup {
		primary, other = "Sign up", "Have an account?"
	}
	v.form.AddButton(primary, v.submit)
	v.form.AddButton(other, v.Toggle)
}

func (v *LoginView) submit() {
	if v.onSubmit == nil {
		return
	}
	c := Credentials{Signup: v.signup, Email: v.email.GetText(), Password: v.password.GetText()}
	if v.signup {
		c.FullName = v.fullName.GetText()
	}
	v.onSubmit(c)
}

// ShowError shows msg under the form.
func (v *LoginView) ShowError(msg string) {
	v.notice.SetText("[" + ui.Tag(v.theme.FlashErr) + "]" + clean(msg) + "[-]")
}

// ShowBusy shows a progress note under the form.
func (v *LoginView) ShowBusy(msg string) {
	v.notice.SetText("[" + ui.Tag(v.theme.StatusPending) + "]" + clean(msg) + "[-]")
}

// Reset clears the password and any notice.
func (v *LoginView) Reset() {
	v.password.SetText("")
	v.notice.Clear()
}
