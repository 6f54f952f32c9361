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
	"github.com/kingrea/fieldcrm/internal/workflow"
)

type orderLoadedMsg struct {
	route
	order models.Order
	err   error
}

// orderDetailView shows one order. It starts from the row it was opened
// with and refreshes from the service.
type orderDetailView struct {
	app     *App
	order   models.Order
	loading bool
}

func newOrderDetailView(app *App, order models.Order) *orderDetailView {
	return &orderDetailView{app: app, order: order}
}

func (v *orderDetailView) Init() tea.Cmd { return v.refresh() }

func (v *orderDetailView) Resume() tea.Cmd { return v.refresh() }

func (v *orderDetailView) Title() string { return fmt.Sprintf("Order №%d", v.order.ID) }

func (v *orderDetailView) Help() string { return "x/enter actions · r refresh · esc back" }

func (v *orderDetailView) refresh() tea.Cmd {
	v.loading = true
	client := v.app.client
	id := v.order.ID
	return func() tea.Msg {
		ctx, cancel := v.app.requestContext()
		defer cancel()
		o, err := client.Order(ctx, id)
		return orderLoadedMsg{route: route{to: v}, order: o, err: err}
	}
}

func (v *orderDetailView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case orderLoadedMsg:
		v.loading = false
		if msg.err != nil {
			v.app.logError("Refreshing order %d: %v", v.order.ID, msg.err)
			return v.app.showToast(toastError, "Failed to refresh order", api.Message(msg.err))
		}
		v.order = msg.order
		return nil
	case doneMsg:
		if msg.err == nil && msg.tag == string(workflow.ActionDelete) {
			return v.app.pop()
		}
		return v.refresh()
	case tea.KeyMsg:
		switch msg.String() {
		case "x", "enter":
			return v.app.openOrderActions(v, v.order)
		case "r":
			return v.refresh()
		}
	}
	return nil
}

func (v *orderDetailView) View() string {
	o := v.order
	status, _ := workflow.ParseStatus(o.Status)
	taken := "No"
	if o.IsTaken {
		taken = "Yes"
	}
	rows := []string{
		titleStyle.Render(o.Title),
		"",
		labelStyle.Render("Status") + " " + statusStyle(o.Status).Render(status.FriendlyName()),
		field("Taken", taken),
		field("Customer", o.CustomerFullName),
		field("Customer №", strconv.Itoa(o.CustomerNumber)),
		field("Created", o.CreatedOn.FormatDate()),
		"",
		textStyle.Render(o.Description),
	}
	actions := workflow.ActionsFor(o, v.app.session.State().Roles())
	if len(actions) > 0 {
		labels := make([]string, len(actions))
		for i, a := range actions {
			labels[i] = actionLabel(a)
		}
		rows = append(rows, "", mutedStyle.Render("Actions: "+strings.Join(labels, " · ")))
	}
	if v.loading {
		rows = append(rows, mutedStyle.Render("Refreshing…"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// orderFormView creates an order for a customer, or edits an existing one.
type orderFormView struct {
	app            *App
	customerNumber int
	editing        *models.Order
	form           formModel
}

func newOrderCreateView(app *App, customerNumber int) *orderFormView {
	return &orderFormView{
		app:            app,
		customerNumber: customerNumber,
		form: newForm(
			fieldSpec{key: forms.FieldTitle, label: "Title", limit: 25},
			fieldSpec{key: forms.FieldDescription, label: "Description", limit: 300},
		),
	}
}

func newOrderEditView(app *App, order models.Order) *orderFormView {
	return &orderFormView{
		app:            app,
		customerNumber: order.CustomerNumber,
		editing:        &order,
		form: newForm(
			fieldSpec{key: forms.FieldTitle, label: "Title", value: order.Title, limit: 25},
			fieldSpec{key: forms.FieldDescription, label: "Description", value: order.Description, limit: 300},
		),
	}
}

func (v *orderFormView) Init() tea.Cmd { return nil }

func (v *orderFormView) Title() string {
	if v.editing != nil {
		return "Edit order"
	}
	return "New order"
}

func (v *orderFormView) Help() string { return "tab next field · ctrl+s save · esc cancel" }

func (v *orderFormView) CapturingInput() bool { return true }

func (v *orderFormView) Update(msg tea.Msg) tea.Cmd {
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
	f := forms.OrderForm{
		Title:       v.form.Value(forms.FieldTitle),
		Description: v.form.Value(forms.FieldDescription),
	}
	client := v.app.client
	if v.editing != nil {
		update, errs := f.BuildUpdate()
		v.form.SetErrors(errs)
		if len(errs) > 0 {
			return nil
		}
		v.form.busy = true
		id := v.editing.ID
		return v.app.mutate(v, "Order updated", "Update failed", func(ctx context.Context) error {
			return client.UpdateOrder(ctx, id, update)
		})
	}
	in, errs := f.BuildCreate()
	v.form.SetErrors(errs)
	if len(errs) > 0 {
		return nil
	}
	v.form.busy = true
	number := v.customerNumber
	return v.app.mutate(v, "Order created", "Create failed", func(ctx context.Context) error {
		_, err := client.CreateOrder(ctx, number, in)
		return err
	})
}

func (v *orderFormView) View() string {
	head := titleStyle.Render(v.Title())
	if v.editing == nil {
		head += mutedStyle.Render(fmt.Sprintf("  for customer №%d", v.customerNumber))
	}
	return lipgloss.JoinVertical(lipgloss.Left, head, "", v.form.View())
}
