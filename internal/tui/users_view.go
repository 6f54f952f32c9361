package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/fieldcrm/internal/api"
	"github.com/kingrea/fieldcrm/internal/forms"
	"github.com/kingrea/fieldcrm/internal/models"
)

type usersLoadedMsg struct {
	route
	users []models.User
	err   error
}

type userLoadedMsg struct {
	route
	user models.User
	err  error
}

// usersView is the admin account list.
type usersView struct {
	app     *App
	users   []models.User
	cur     listCursor
	loading bool
}

func newUsersView(app *App) *usersView {
	return &usersView{app: app}
}

func (v *usersView) Init() tea.Cmd { return v.load() }

func (v *usersView) Resume() tea.Cmd { return v.load() }

func (v *usersView) Title() string { return "Users" }

func (v *usersView) Help() string { return "enter open · i invite · r reload · esc back" }

func (v *usersView) load() tea.Cmd {
	v.loading = true
	client := v.app.client
	return func() tea.Msg {
		ctx, cancel := v.app.requestContext()
		defer cancel()
		users, err := client.Users(ctx)
		return usersLoadedMsg{route: route{to: v}, users: users, err: err}
	}
}

func (v *usersView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case usersLoadedMsg:
		v.loading = false
		if msg.err != nil {
			v.app.logError("Loading users: %v", msg.err)
			return v.app.showToast(toastError, "Failed to load users", api.Message(msg.err))
		}
		v.users = msg.users
		v.cur.clamp(len(v.users))
	case tea.KeyMsg:
		key := msg.String()
		if v.cur.navKey(key, len(v.users)) {
			return nil
		}
		switch key {
		case "enter":
			if v.cur.pos < len(v.users) {
				return v.app.push(newUserDetailView(v.app, v.users[v.cur.pos]))
			}
		case "i":
			return v.app.push(newInviteView(v.app))
		case "r":
			return v.load()
		}
	}
	return nil
}

func (v *usersView) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Users (%d)", len(v.users))))
	if v.loading {
		b.WriteString(mutedStyle.Render("  loading…"))
	}
	b.WriteString("\n\n")
	if len(v.users) == 0 && !v.loading {
		b.WriteString(mutedStyle.Render("No users."))
	}
	for i, u := range v.users {
		line := fmt.Sprintf("%-20s %-30s %s", truncate(u.UserName, 20), truncate(u.Email, 30), strings.Join(u.Roles, ", "))
		b.WriteString(rowPrefix(i == v.cur.pos, false, false) + line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// userDetailView shows one account with edit and delete.
type userDetailView struct {
	app  *App
	user models.User
}

func newUserDetailView(app *App, user models.User) *userDetailView {
	return &userDetailView{app: app, user: user}
}

func (v *userDetailView) Init() tea.Cmd { return v.load() }

func (v *userDetailView) Resume() tea.Cmd { return v.load() }

func (v *userDetailView) Title() string { return v.user.UserName }

func (v *userDetailView) Help() string { return "e edit · d delete · esc back" }

func (v *userDetailView) load() tea.Cmd {
	client := v.app.client
	id := v.user.ID
	return func() tea.Msg {
		ctx, cancel := v.app.requestContext()
		defer cancel()
		u, err := client.User(ctx, id)
		return userLoadedMsg{route: route{to: v}, user: u, err: err}
	}
}

func (v *userDetailView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case userLoadedMsg:
		if msg.err != nil {
			return v.app.showToast(toastError, "Failed to load user", api.Message(msg.err))
		}
		v.user = msg.user
	case doneMsg:
		if msg.err == nil {
			return v.app.pop()
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "e":
			return v.app.push(newUserFormView(v.app, v.user))
		case "d":
			client := v.app.client
			id := v.user.ID
			v.app.confirm("Confirm Deletion", fmt.Sprintf("Delete user %s?", v.user.UserName), "Delete", true,
				v.app.mutate(v, "User deleted", "Delete failed", func(ctx context.Context) error {
					return client.DeleteUser(ctx, id)
				}))
		}
	}
	return nil
}

func (v *userDetailView) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(v.user.UserName),
		"",
		field("Email", v.user.Email),
		field("Roles", strings.Join(v.user.Roles, ", ")),
		field("ID", v.user.ID),
	)
}

// userFormView edits an account's name, email and roles.
type userFormView struct {
	app  *App
	id   string
	form formModel
}

func newUserFormView(app *App, user models.User) *userFormView {
	f := forms.UserFormFrom(user)
	return &userFormView{
		app: app,
		id:  user.ID,
		form: newForm(
			fieldSpec{key: forms.FieldUserName, label: "Username", value: f.UserName},
			fieldSpec{key: forms.FieldEmail, label: "Email", value: f.Email},
			fieldSpec{key: fieldRoles, label: "Roles", placeholder: "Admin, Worker", value: f.Roles},
		),
	}
}

const fieldRoles = "Roles"

func (v *userFormView) Init() tea.Cmd { return nil }

func (v *userFormView) Title() string { return "Edit user" }

func (v *userFormView) Help() string { return "tab next field · ctrl+s save · esc cancel" }

func (v *userFormView) CapturingInput() bool { return true }

func (v *userFormView) Update(msg tea.Msg) tea.Cmd {
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
	update, errs := forms.UserForm{
		UserName: v.form.Value(forms.FieldUserName),
		Email:    v.form.Value(forms.FieldEmail),
		Roles:    v.form.Value(fieldRoles),
	}.Build()
	v.form.SetErrors(errs)
	if len(errs) > 0 {
		return nil
	}
	v.form.busy = true
	client := v.app.client
	id := v.id
	return v.app.mutate(v, "User updated", "Update failed", func(ctx context.Context) error {
		return client.UpdateUser(ctx, id, update)
	})
}

func (v *userFormView) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Edit user"), "", v.form.View())
}

// inviteView sends a registration invitation by email.
type inviteView struct {
	app  *App
	form formModel
}

func newInviteView(app *App) *inviteView {
	return &inviteView{
		app: app,
		form: newForm(
			fieldSpec{key: forms.FieldEmail, label: "Email"},
			fieldSpec{key: forms.FieldValidDays, label: "Valid days", value: "1", limit: 3},
		),
	}
}

func (v *inviteView) Init() tea.Cmd { return nil }

func (v *inviteView) Title() string { return "Invite" }

func (v *inviteView) Help() string { return "tab next field · enter send · esc cancel" }

func (v *inviteView) CapturingInput() bool { return true }

func (v *inviteView) Update(msg tea.Msg) tea.Cmd {
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
	inv, errs := forms.InviteForm{
		Email:     v.form.Value(forms.FieldEmail),
		ValidDays: v.form.Value(forms.FieldValidDays),
	}.Build()
	v.form.SetErrors(errs)
	if len(errs) > 0 {
		return nil
	}
	v.form.busy = true
	client := v.app.client
	return v.app.mutate(v, "Invitation sent", "Invite failed", func(ctx context.Context) error {
		return client.Invite(ctx, inv)
	})
}

func (v *inviteView) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Invite a new user"), "", v.form.View())
}
