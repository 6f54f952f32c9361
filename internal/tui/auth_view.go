package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/fieldcrm/internal/api"
	"github.com/kingrea/fieldcrm/internal/forms"
	"github.com/kingrea/fieldcrm/internal/session"
)

type loginView struct {
	app  *App
	form formModel
}

type loginResultMsg struct {
	route
	state session.State
	err   error
}

func newLoginView(app *App) *loginView {
	return &loginView{
		app: app,
		form: newForm(
			fieldSpec{key: forms.FieldUserName, label: "Username"},
			fieldSpec{key: forms.FieldPassword, label: "Password", secret: true},
		),
	}
}

func (v *loginView) Init() tea.Cmd { return nil }

func (v *loginView) Title() string { return "Sign in" }

func (v *loginView) Help() string {
	return "tab next field · enter sign in · ctrl+r register with invite"
}

func (v *loginView) CapturingInput() bool { return true }

func (v *loginView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loginResultMsg:
		v.form.busy = false
		if msg.err != nil {
			v.form.SetErrors(forms.FieldErrors{"": {api.Message(msg.err)}})
			return v.app.showToast(toastError, "Login failed", api.Message(msg.err))
		}
		return tea.Batch(v.app.enterMain(), v.app.showToast(toastSuccess, "Welcome, "+msg.state.User.UserName, ""))
	case tea.KeyMsg:
		if msg.String() == "ctrl+r" {
			return v.app.push(newRegisterView(v.app))
		}
	}
	submit, cmd := v.form.Update(msg)
	if submit {
		return v.submit()
	}
	return cmd
}

func (v *loginView) submit() tea.Cmd {
	creds, errs := forms.LoginForm{
		UserName: v.form.Value(forms.FieldUserName),
		Password: v.form.Value(forms.FieldPassword),
	}.Build()
	v.form.SetErrors(errs)
	if len(errs) > 0 {
		return nil
	}
	v.form.busy = true
	app := v.app
	return func() tea.Msg {
		ctx, cancel := app.requestContext()
		defer cancel()
		st, err := app.session.Login(ctx, creds.UserName, creds.Password)
		return loginResultMsg{route: route{to: v}, state: st, err: err}
	}
}

func (v *loginView) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Sign in"),
		mutedStyle.Render(v.app.client.BaseURL()),
		"",
		v.form.View(),
	)
}

type registerView struct {
	app  *App
	form formModel
}

func newRegisterView(app *App) *registerView {
	return &registerView{
		app: app,
		form: newForm(
			fieldSpec{key: forms.FieldToken, label: "Invite token"},
			fieldSpec{key: forms.FieldUserName, label: "Username"},
			fieldSpec{key: forms.FieldEmail, label: "Email"},
			fieldSpec{key: forms.FieldPassword, label: "Password", secret: true},
		),
	}
}

func (v *registerView) Init() tea.Cmd { return nil }

func (v *registerView) Title() string { return "Register" }

func (v *registerView) Help() string { return "tab next field · enter register · esc back" }

func (v *registerView) CapturingInput() bool { return true }

func (v *registerView) Update(msg tea.Msg) tea.Cmd {
	if done, ok := msg.(doneMsg); ok {
		v.form.busy = false
		if done.err != nil {
			v.form.SetErrors(forms.MergeErrors(nil, api.FieldErrors(done.err)))
			return nil
		}
		return v.app.pop()
	}
	submit, cmd := v.form.Update(msg)
	if !submit {
		return cmd
	}
	reg, errs := forms.RegisterForm{
		Token:    v.form.Value(forms.FieldToken),
		UserName: v.form.Value(forms.FieldUserName),
		Email:    v.form.Value(forms.FieldEmail),
		Password: v.form.Value(forms.FieldPassword),
	}.Build()
	v.form.SetErrors(errs)
	if len(errs) > 0 {
		return nil
	}
	v.form.busy = true
	client := v.app.client
	return v.app.mutate(v, "Registered", "Registration failed", func(ctx context.Context) error {
		return client.Register(ctx, reg)
	})
}

func (v *registerView) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Register with an invitation"),
		"",
		v.form.View(),
	)
}
