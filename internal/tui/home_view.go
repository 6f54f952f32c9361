package tui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	homeCustomers = "customers"
	homeOrders    = "orders"
	homeUsers     = "users"
	homeLogout    = "logout"
)

// homeView is the signed-in main menu.
type homeView struct {
	app  *App
	list list.Model
}

func newHomeView(app *App) *homeView {
	items := []list.Item{
		choice{label: "Customers", desc: "Browse, add and generate customers", value: homeCustomers},
		choice{label: "Orders", desc: "Take, complete and manage orders", value: homeOrders},
	}
	if app.isAdmin() {
		items = append(items, choice{label: "Users", desc: "Accounts and invitations", value: homeUsers})
	}
	items = append(items, choice{label: "Log out", desc: "Forget the stored session", value: homeLogout})

	l := list.New(items, list.NewDefaultDelegate(), 48, 20)
	l.Title = "Menu"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)
	return &homeView{app: app, list: l}
}

func (v *homeView) Init() tea.Cmd { return nil }

func (v *homeView) Title() string { return "Home" }

func (v *homeView) Help() string { return "↑/↓ move · enter open · q quit" }

func (v *homeView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.list.SetSize(min(60, msg.Width-2), max(8, msg.Height-8))
		return nil
	case tea.KeyMsg:
		if msg.String() == "enter" {
			if c, ok := v.list.SelectedItem().(choice); ok {
				return v.open(c.value)
			}
			return nil
		}
	}
	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return cmd
}

func (v *homeView) open(value string) tea.Cmd {
	switch value {
	case homeCustomers:
		return v.app.push(newCustomersView(v.app))
	case homeOrders:
		return v.app.push(newOrdersView(v.app))
	case homeUsers:
		if v.app.isAdmin() {
			return v.app.push(newUsersView(v.app))
		}
	case homeLogout:
		if err := v.app.session.Logout(); err != nil {
			v.app.logError("Logout: %v", err)
		}
		v.app.logInfo("Signed out")
		return tea.Batch(v.app.enterAuth(), v.app.showToast(toastInfo, "Signed out", ""))
	}
	return nil
}

func (v *homeView) View() string {
	return v.list.View()
}
