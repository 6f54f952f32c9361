package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/fieldcrm/internal/api"
	"github.com/kingrea/fieldcrm/internal/forms"
	"github.com/kingrea/fieldcrm/internal/models"
)

type customerLoadedMsg struct {
	route
	customer models.Customer
	orders   []models.Order
	err      error
}

// customerDetailView shows one customer and the orders placed for them.
type customerDetailView struct {
	app      *App
	id       int
	customer *models.Customer
	orders   []models.Order
	cur      listCursor
	loading  bool
}

func newCustomerDetailView(app *App, id int) *customerDetailView {
	return &customerDetailView{app: app, id: id}
}

func (v *customerDetailView) Init() tea.Cmd { return v.load() }

func (v *customerDetailView) Resume() tea.Cmd { return v.load() }

func (v *customerDetailView) Title() string {
	if v.customer != nil {
		return v.customer.FullName()
	}
	return "Customer"
}

func (v *customerDetailView) Help() string {
	if v.app.isAdmin() {
		return "↑/↓ orders · enter open order · n add order · e edit · d delete · esc back"
	}
	return "↑/↓ orders · enter open order · esc back"
}

func (v *customerDetailView) load() tea.Cmd {
	v.loading = true
	client := v.app.client
	id := v.id
	return func() tea.Msg {
		ctx, cancel := v.app.requestContext()
		defer cancel()
		c, err := client.Customer(ctx, id)
		if err != nil {
			return customerLoadedMsg{route: route{to: v}, err: err}
		}
		orders, err := client.OrdersByCustomer(ctx, c.CustomerNumber)
		return customerLoadedMsg{route: route{to: v}, customer: c, orders: orders, err: err}
	}
}

func (v *customerDetailView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case customerLoadedMsg:
		v.loading = false
		if msg.err != nil {
			v.app.logError("Loading customer %d: %v", v.id, msg.err)
			return v.app.showToast(toastError, "Failed to load customer data", api.Message(msg.err))
		}
		c := msg.customer
		v.customer = &c
		v.orders = msg.orders
		v.cur.clamp(len(v.orders))
		return nil

	case doneMsg:
		// Delete is the only write issued from here.
		if msg.err == nil {
			return v.app.pop()
		}
		return nil

	case tea.KeyMsg:
		key := msg.String()
		if v.cur.navKey(key, len(v.orders)) {
			return nil
		}
		admin := v.app.isAdmin()
		switch key {
		case "enter":
			if v.cur.pos < len(v.orders) {
				return v.app.push(newOrderDetailView(v.app, v.orders[v.cur.pos]))
			}
		case "r":
			return v.load()
		case "n":
			if admin && v.customer != nil {
				return v.app.push(newOrderCreateView(v.app, v.customer.CustomerNumber))
			}
		case "e":
			if admin && v.customer != nil {
				c := *v.customer
				return v.app.push(newCustomerFormView(v.app, &c))
			}
		case "d":
			if admin && v.customer != nil {
				v.confirmDelete()
			}
		}
	}
	return nil
}

func (v *customerDetailView) confirmDelete() {
	client := v.app.client
	id := v.id
	prompt := fmt.Sprintf("Delete customer %s (№%d)?", v.customer.FullName(), v.customer.CustomerNumber)
	v.app.confirm("Confirm Deletion", prompt, "Delete", true,
		v.app.mutate(v, "Customer deleted", "Delete failed", func(ctx context.Context) error {
			return client.DeleteCustomer(ctx, id)
		}))
}

func (v *customerDetailView) View() string {
	if v.customer == nil {
		if v.loading {
			return mutedStyle.Render("Loading customer…")
		}
		return errorStyle.Render("Customer could not be loaded. Press r to retry.")
	}
	c := v.customer
	rows := []string{
		titleStyle.Render(c.FullName()),
		"",
		field("Customer №", strconv.Itoa(c.CustomerNumber)),
		field("Email", c.Email),
		field("Phone", c.PhoneNumber),
		field("Address", c.Address.String()),
		field("Created", c.CreatedOn.FormatDate()),
	}
	if c.OverallStatus != "" {
		rows = append(rows, labelStyle.Render("Status")+" "+statusStyle(c.OverallStatus).Render(c.OverallStatus))
	}
	rows = append(rows, "", titleStyle.Render(fmt.Sprintf("Orders (%d)", len(v.orders))))
	if len(v.orders) == 0 {
		rows = append(rows, mutedStyle.Render("No orders yet."))
	}
	for i, o := range v.orders {
		rows = append(rows, rowPrefix(i == v.cur.pos, false, false)+orderLine(o))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func field(label, value string) string {
	if strings.TrimSpace(value) == "" {
		value = mutedStyle.Render("—")
	} else {
		value = textStyle.Render(value)
	}
	return labelStyle.Render(label) + " " + value
}

// customerFormView adds a customer, or edits one when editing is set.
type customerFormView struct {
	app     *App
	editing *models.Customer
	form    formModel
}

func newCustomerFormView(app *App, editing *models.Customer) *customerFormView {
	var f forms.CustomerForm
	if editing != nil {
		f = forms.CustomerFormFrom(*editing)
	}
	return &customerFormView{
		app:     app,
		editing: editing,
		form: newForm(
			fieldSpec{key: forms.FieldCustomerNumber, label: "Customer №", placeholder: "5 digits", value: f.CustomerNumber, limit: 5},
			fieldSpec{key: forms.FieldFirstName, label: "First name", value: f.FirstName},
			fieldSpec{key: forms.FieldSecondName, label: "Second name", value: f.SecondName},
			fieldSpec{key: forms.FieldEmail, label: "Email", value: f.Email},
			fieldSpec{key: forms.FieldPhoneNumber, label: "Phone", value: f.PhoneNumber},
			fieldSpec{key: forms.FieldZipCode, label: "Zip code", value: f.ZipCode},
			fieldSpec{key: forms.FieldCountry, label: "Country", value: f.Country},
			fieldSpec{key: forms.FieldCity, label: "City", value: f.City},
			fieldSpec{key: forms.FieldStreet, label: "Street", value: f.Street},
			fieldSpec{key: forms.FieldHouseNumber, label: "House №", value: f.HouseNumber},
			fieldSpec{key: forms.FieldApartment, label: "Apartment", value: f.Apartment},
		),
	}
}

func (v *customerFormView) Init() tea.Cmd { return nil }

func (v *customerFormView) Title() string {
	if v.editing != nil {
		return "Edit customer"
	}
	return "Add customer"
}

func (v *customerFormView) Help() string { return "tab next field · ctrl+s save · esc cancel" }

func (v *customerFormView) CapturingInput() bool { return true }

func (v *customerFormView) values() forms.CustomerForm {
	return forms.CustomerForm{
		CustomerNumber: v.form.Value(forms.FieldCustomerNumber),
		FirstName:      v.form.Value(forms.FieldFirstName),
		SecondName:     v.form.Value(forms.FieldSecondName),
		Email:          v.form.Value(forms.FieldEmail),
		PhoneNumber:    v.form.Value(forms.FieldPhoneNumber),
		ZipCode:        v.form.Value(forms.FieldZipCode),
		Country:        v.form.Value(forms.FieldCountry),
		City:           v.form.Value(forms.FieldCity),
		Street:         v.form.Value(forms.FieldStreet),
		HouseNumber:    v.form.Value(forms.FieldHouseNumber),
		Apartment:      v.form.Value(forms.FieldApartment),
	}
}

func (v *customerFormView) Update(msg tea.Msg) tea.Cmd {
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
	in, errs := v.values().Build()
	v.form.SetErrors(errs)
	if len(errs) > 0 {
		return nil
	}
	v.form.busy = true
	client := v.app.client
	if v.editing != nil {
		id := v.editing.ID
		return v.app.mutate(v, "Customer updated", "Update failed", func(ctx context.Context) error {
			return client.UpdateCustomer(ctx, id, in)
		})
	}
	return v.app.mutate(v, "Customer added", "Create failed", func(ctx context.Context) error {
		_, err := client.CreateCustomer(ctx, in)
		return err
	})
}

func (v *customerFormView) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(v.Title()),
		"",
		v.form.View(),
	)
}
