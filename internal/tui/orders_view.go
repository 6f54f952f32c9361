package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/fieldcrm/internal/api"
	"github.com/kingrea/fieldcrm/internal/listing"
	"github.com/kingrea/fieldcrm/internal/models"
)

const tagBulkDelete = "bulk-delete"

type ordersLoadedMsg struct {
	route
	items []models.Order
	err   error
}

// ordersView lists orders. For workers the My Orders tab swaps the source
// to their own orders, which are searched and sorted locally. Anyone else
// on that tab sees the server list.
type ordersView struct {
	app *App

	all   []models.Order
	rows  []models.Order
	query listing.Query
	tabs  listing.Tabs
	sel   listing.Selection
	cur   listCursor

	search     textinput.Model
	searching  bool
	prevSearch string

	loading bool
	loadErr string
	height  int
}

func newOrdersView(app *App) *ordersView {
	return &ordersView{
		app:    app,
		query:  app.listQuery(),
		tabs:   listing.OrderTabs(app.isAdmin()),
		search: newSearchInput(),
	}
}

func (v *ordersView) Init() tea.Cmd { return v.load() }

func (v *ordersView) Resume() tea.Cmd { return v.load() }

func (v *ordersView) Title() string { return "Orders" }

func (v *ordersView) Help() string {
	switch {
	case v.searching:
		return "type to search · enter apply · esc cancel"
	case v.sel.Active():
		return "enter/space toggle · a all · d delete selected · esc clear"
	case v.app.isAdmin():
		return "enter open · x actions · space select · / search · s sort · o order · 1-9 tabs · r reload"
	default:
		return "enter open · x actions · / search · s sort · o order · 1-9 tabs · r reload"
	}
}

func (v *ordersView) CapturingInput() bool { return v.searching }

func (v *ordersView) HandleEsc() bool {
	switch {
	case v.searching:
		v.searching = false
		v.search.Blur()
		v.search.SetValue(v.prevSearch)
		return true
	case v.sel.Active():
		v.sel.Clear()
		return true
	}
	return false
}

func (v *ordersView) mine() bool {
	return v.tabs.Active() == listing.TabMyOrders && v.app.session.State().IsWorker()
}

func (v *ordersView) load() tea.Cmd {
	v.loading = true
	client := v.app.client
	query := v.query
	mine := v.mine()
	return func() tea.Msg {
		ctx, cancel := v.app.requestContext()
		defer cancel()
		if mine {
			items, err := client.MyOrders(ctx)
			if err != nil {
				return ordersLoadedMsg{route: route{to: v}, err: err}
			}
			items = listing.Apply(items, query, listing.OrderMatches, listing.OrderKeys)
			return ordersLoadedMsg{route: route{to: v}, items: items}
		}
		items, err := client.Orders(ctx, query.Values())
		return ordersLoadedMsg{route: route{to: v}, items: items, err: err}
	}
}

func orderStatus(o models.Order) string { return o.Status }

func (v *ordersView) refilter() {
	v.rows = listing.ByTab(v.tabs, v.all, orderStatus)
	v.cur.clamp(len(v.rows))
}

func (v *ordersView) current() (models.Order, bool) {
	if v.cur.pos < 0 || v.cur.pos >= len(v.rows) {
		return models.Order{}, false
	}
	return v.rows[v.cur.pos], true
}

func (v *ordersView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.height = msg.Height
		return nil

	case ordersLoadedMsg:
		v.loading = false
		if msg.err != nil {
			v.loadErr = api.Message(msg.err)
			v.app.logError("Loading orders: %v", msg.err)
			return v.app.showToast(toastError, "Failed to load orders", v.loadErr)
		}
		v.loadErr = ""
		v.all = msg.items
		ids := make([]int, len(v.all))
		for i, o := range v.all {
			ids[i] = o.ID
		}
		v.sel.Retain(ids)
		v.refilter()
		return nil

	case doneMsg:
		if msg.tag == tagBulkDelete && msg.err == nil {
			v.sel.Clear()
		}
		return v.load()

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return nil
}

func (v *ordersView) handleKey(msg tea.KeyMsg) tea.Cmd {
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

	key := msg.String()
	if v.cur.navKey(key, len(v.rows)) {
		return nil
	}
	if i, ok := tabIndex(key); ok {
		wasMine := v.mine()
		v.tabs.ToggleIndex(i)
		if v.mine() != wasMine {
			return v.load()
		}
		v.refilter()
		return nil
	}
	admin := v.app.isAdmin()
	switch key {
	case "enter":
		o, ok := v.current()
		if !ok || v.sel.Press(o.ID) {
			return nil
		}
		return v.app.push(newOrderDetailView(v.app, o))
	case " ":
		if o, ok := v.current(); ok {
			v.sel.Begin(o.ID, admin)
		}
	case "x":
		if o, ok := v.current(); ok && !v.sel.Active() {
			return v.app.openOrderActions(v, o)
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
			for i, o := range v.rows {
				ids[i] = o.ID
			}
			v.sel.SelectAll(ids)
		}
	case "d":
		if admin && v.sel.Active() {
			v.confirmBulkDelete()
		}
	}
	return nil
}

func (v *ordersView) confirmBulkDelete() {
	ids := v.sel.IDs()
	client := v.app.client
	prompt := fmt.Sprintf("Are you sure you want to delete %d selected orders?", len(ids))
	v.app.confirm("Confirm Deletion", prompt, "Delete", true, func() tea.Msg {
		ctx, cancel := v.app.requestContext()
		defer cancel()
		err := client.DeleteOrders(ctx, ids)
		return doneMsg{
			route:   route{to: v},
			tag:     tagBulkDelete,
			success: "Selected orders deleted",
			failure: "Could not delete selected orders",
			err:     err,
		}
	})
}

func (v *ordersView) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Orders"))
	if v.loading {
		b.WriteString(mutedStyle.Render("  loading…"))
	}
	b.WriteString("\n")
	b.WriteString(tabBar(v.tabs.Names(), v.tabs.Label, v.tabs.Active()) + "\n")
	if v.searching {
		b.WriteString(v.search.View() + "\n")
	}
	b.WriteString(listStatusLine(v.query, len(v.rows), len(v.all), &v.sel) + "\n\n")

	if v.loadErr != "" && len(v.all) == 0 {
		b.WriteString(errorStyle.Render(v.loadErr))
		return b.String()
	}
	if len(v.rows) == 0 {
		b.WriteString(mutedStyle.Render("No orders."))
		return b.String()
	}
	start, end := visibleWindow(v.cur.pos, len(v.rows), v.height-12)
	for i := start; i < end; i++ {
		o := v.rows[i]
		b.WriteString(rowPrefix(i == v.cur.pos, v.sel.Active(), v.sel.Contains(o.ID)) + orderLine(o) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
