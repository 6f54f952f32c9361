package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/fieldcrm/internal/api"
	"github.com/kingrea/fieldcrm/internal/forms"
	"github.com/kingrea/fieldcrm/internal/listing"
	"github.com/kingrea/fieldcrm/internal/models"
)

type customersLoadedMsg struct {
	route
	items []models.Customer
	err   error
}

// customersView lists customers. Search and sort run on the service; the
// status tabs filter what came back.
type customersView struct {
	app *App

	all   []models.Customer
	rows  []models.Customer
	query listing.Query
	tabs  listing.Tabs
	sel   listing.Selection
	cur   listCursor

	search     textinput.Model
	searching  bool
	prevSearch string

	generate *formModel
	loading  bool
	loadErr  string
	height   int
}

func newCustomersView(app *App) *customersView {
	return &customersView{
		app:    app,
		query:  app.listQuery(),
		search: newSearchInput(),
	}
}

func (v *customersView) Init() tea.Cmd { return v.load() }

func (v *customersView) Resume() tea.Cmd { return v.load() }

func (v *customersView) Title() string { return "Customers" }

func (v *customersView) Help() string {
	switch {
	case v.searching:
		return "type to search · enter apply · esc cancel"
	case v.generate != nil:
		return "enter generate · esc cancel"
	case v.sel.Active():
		return "enter/space toggle · a all · d delete selected · esc clear"
	case v.app.isAdmin():
		return "enter open · space select · / search · s sort · o order · 1-9 tabs · n add · g generate · r reload"
	default:
		return "enter open · / search · s sort · o order · 1-9 tabs · r reload"
	}
}

func (v *customersView) CapturingInput() bool {
	return v.searching || v.generate != nil
}

func (v *customersView) HandleEsc() bool {
	switch {
	case v.searching:
		v.searching = false
		v.search.Blur()
		v.search.SetValue(v.prevSearch)
		return true
	case v.generate != nil:
		v.generate = nil
		return true
	case v.sel.Active():
		v.sel.Clear()
		return true
	}
	return false
}

func (v *customersView) load() tea.Cmd {
	v.loading = true
	client := v.app.client
	query := v.query.Values()
	return func() tea.Msg {
		ctx, cancel := v.app.requestContext()
		defer cancel()
		items, err := client.Customers(ctx, query)
		return customersLoadedMsg{route: route{to: v}, items: items, err: err}
	}
}

func (v *customersView) refilter() {
	v.rows = listing.ByTab(v.tabs, v.all, customerStatus)
	v.cur.clamp(len(v.rows))
}

func customerStatus(c models.Customer) string { return c.OverallStatus }

func (v *customersView) current() (models.Customer, bool) {
	if v.cur.pos < 0 || v.cur.pos >= len(v.rows) {
		return models.Customer{}, false
	}
	return v.rows[v.cur.pos], true
}

func (v *customersView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.height = msg.Height
		return nil

	case customersLoadedMsg:
		v.loading = false
		if msg.err != nil {
			v.loadErr = api.Message(msg.err)
			v.app.logError("Loading customers: %v", msg.err)
			return v.app.showToast(toastError, "Failed to load customers", v.loadErr)
		}
		v.loadErr = ""
		v.all = msg.items
		v.tabs = v.tabs.WithNames(listing.DistinctStatuses(v.all, customerStatus))
		ids := make([]int, len(v.all))
		for i, c := range v.all {
			ids[i] = c.ID
		}
		v.sel.Retain(ids)
		v.refilter()
		return nil

	case doneMsg:
		if v.generate != nil {
			v.generate.busy = false
			if msg.err != nil {
				v.generate.SetErrors(forms.MergeErrors(nil, api.FieldErrors(msg.err)))
				return nil
			}
			v.generate = nil
			return v.load()
		}
		if msg.err == nil {
			v.sel.Clear()
		}
		return v.load()

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return nil
}

func (v *customersView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.searching {
		if msg.String() == "enter" {
			v.searching = false
			v.search.Blur()
			v.query.Search = strings.TrimSpace(v.search.Value())
			return v.load()
		}
		var cmd tea.Cmd
		v.search, cmd = v.search.Update(msg)
		return cmd
	}
	if v.generate != nil {
		return v.updateGenerate(msg)
	}

	key := msg.String()
	if v.cur.navKey(key, len(v.rows)) {
		return nil
	}
	if i, ok := tabIndex(key); ok {
		v.tabs.ToggleIndex(i)
		v.refilter()
		return nil
	}
	admin := v.app.isAdmin()
	switch key {
	case "enter":
		c, ok := v.current()
		if !ok || v.sel.Press(c.ID) {
			return nil
		}
		return v.app.push(newCustomerDetailView(v.app, c.ID))
	case " ":
		if c, ok := v.current(); ok {
			v.sel.Begin(c.ID, admin)
		}
	case "/":
		v.searching = true
		v.prevSearch = v.search.Value()
		return v.search.Focus()
	case "s":
		v.app.openSortMenu(&v.query, v.load)
	case "o":
		v.query.ToggleDirection()
		v.app.saveSort(v.query)
		return v.load()
	case "r":
		return v.load()
	case "a":
		if admin && v.sel.Active() {
			ids := make([]int, len(v.rows))
			for i, c := range v.rows {
				ids[i] = c.ID
			}
			v.sel.SelectAll(ids)
		}
	case "d":
		if admin && v.sel.Active() {
			v.confirmBulkDelete()
		}
	case "n":
		if admin {
			return v.app.push(newCustomerFormView(v.app, nil))
		}
	case "g":
		if admin {
			f := newForm(fieldSpec{key: forms.FieldCount, label: "How many", value: "10", limit: 4})
			v.generate = &f
		}
	}
	return nil
}

func (v *customersView) confirmBulkDelete() {
	ids := v.sel.IDs()
	client := v.app.client
	prompt := fmt.Sprintf("Are you sure you want to delete %d selected customers?", len(ids))
	v.app.confirm("Confirm Deletion", prompt, "Delete", true,
		v.app.mutate(v, "Deleted", "Delete failed", func(ctx context.Context) error {
			return client.DeleteCustomers(ctx, ids)
		}))
}

func (v *customersView) updateGenerate(msg tea.KeyMsg) tea.Cmd {
	submit, cmd := v.generate.Update(msg)
	if !submit {
		return cmd
	}
	count, errs := forms.ParseCount(v.generate.Value(forms.FieldCount))
	v.generate.SetErrors(errs)
	if len(errs) > 0 {
		return nil
	}
	v.generate.busy = true
	client := v.app.client
	success := fmt.Sprintf("Generated %d customers", count)
	return v.app.mutate(v, success, "Generation failed", func(ctx context.Context) error {
		return client.GenerateCustomers(ctx, count)
	})
}

func (v *customersView) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Customers"))
	if v.loading {
		b.WriteString(mutedStyle.Render("  loading…"))
	}
	b.WriteString("\n")
	if bar := tabBar(v.tabs.Names(), v.tabs.Label, v.tabs.Active()); bar != "" {
		b.WriteString(bar + "\n")
	}
	if v.searching {
		b.WriteString(v.search.View() + "\n")
	}
	if v.generate != nil {
		b.WriteString(boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Generate customers"),
			v.generate.View(),
		)) + "\n")
	}
	b.WriteString(listStatusLine(v.query, len(v.rows), len(v.all), &v.sel) + "\n\n")

	if v.loadErr != "" && len(v.all) == 0 {
		b.WriteString(errorStyle.Render(v.loadErr))
		return b.String()
	}
	if len(v.rows) == 0 {
		b.WriteString(mutedStyle.Render("No customers."))
		return b.String()
	}
	start, end := visibleWindow(v.cur.pos, len(v.rows), v.height-12)
	for i := start; i < end; i++ {
		c := v.rows[i]
		line := fmt.Sprintf("%-6s %-28s %-26s %s",
			strconv.Itoa(c.CustomerNumber),
			truncate(c.FullName(), 28),
			truncate(c.Email, 26),
			c.CreatedOn.FormatDate(),
		)
		if c.OverallStatus != "" {
			line += "  " + statusStyle(c.OverallStatus).Render(c.OverallStatus)
		}
		b.WriteString(rowPrefix(i == v.cur.pos, v.sel.Active(), v.sel.Contains(c.ID)) + line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
