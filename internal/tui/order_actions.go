package tui

import (
	"context"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/fieldcrm/internal/api"
	"github.com/kingrea/fieldcrm/internal/models"
	"github.com/kingrea/fieldcrm/internal/workflow"
)

var transitions = map[workflow.Action]api.OrderAction{
	workflow.ActionTake:     api.OrderTake,
	workflow.ActionRelease:  api.OrderRelease,
	workflow.ActionComplete: api.OrderComplete,
	workflow.ActionCancel:   api.OrderCancel,
}

func actionLabel(a workflow.Action) string {
	switch a {
	case workflow.ActionUpdateStatus:
		return "Change status"
	case workflow.ActionCancel:
		return "Cancel order"
	}
	return string(a)
}

// openOrderActions shows the actions the signed-in user may run on order.
// Results are delivered to v as doneMsg tagged with the action name.
func (a *App) openOrderActions(v view, order models.Order) tea.Cmd {
	actions := workflow.ActionsFor(order, a.session.State().Roles())
	if len(actions) == 0 {
		return a.showToast(toastInfo, "No actions available", "")
	}
	choices := make([]choice, len(actions))
	for i, act := range actions {
		choices[i] = choice{label: actionLabel(act), value: string(act)}
	}
	a.openMenu(fmt.Sprintf("Order №%d", order.ID), choices, func(c choice) tea.Cmd {
		return a.runOrderAction(v, order, workflow.Action(c.value))
	})
	return nil
}

// runOrderAction runs action on order, asking first when the action needs it.
func (a *App) runOrderAction(v view, order models.Order, action workflow.Action) tea.Cmd {
	if !workflow.Has(workflow.ActionsFor(order, a.session.State().Roles()), action) {
		return nil
	}
	client := a.client
	id := order.ID
	switch action {
	case workflow.ActionEdit:
		return a.push(newOrderEditView(a, order))
	case workflow.ActionUpdateStatus:
		a.openStatusMenu(v, order)
		return nil
	case workflow.ActionDelete:
		a.confirm("Confirm Deletion", action.Confirm(id), action.ConfirmLabel(), true,
			a.orderWrite(v, action, action.Success(id), func(ctx context.Context) error {
				return client.DeleteOrder(ctx, id)
			}))
		return nil
	}
	transition, ok := transitions[action]
	if !ok {
		return nil
	}
	write := a.orderWrite(v, action, action.Success(id), func(ctx context.Context) error {
		return client.Transition(ctx, transition, id)
	})
	if !action.NeedsConfirmation() {
		return write
	}
	a.confirm("Confirm", action.Confirm(id), action.ConfirmLabel(), action.Destructive(), write)
	return nil
}

// openStatusMenu lets an admin force a status. Picking the current one does nothing.
func (a *App) openStatusMenu(v view, order models.Order) {
	statuses := workflow.StatusChoices(order.Status)
	choices := make([]choice, len(statuses))
	for i, s := range statuses {
		choices[i] = choice{label: s.Status.FriendlyName(), value: string(s.Status), current: s.Current}
	}
	client := a.client
	id := order.ID
	a.openMenu("Set status", choices, func(c choice) tea.Cmd {
		if c.current {
			return nil
		}
		return a.orderWrite(v, workflow.ActionUpdateStatus, "Status updated to "+c.label, func(ctx context.Context) error {
			_, err := client.UpdateOrderStatus(ctx, id, c.value)
			return err
		})
	})
}

func (a *App) orderWrite(v view, action workflow.Action, success string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := a.requestContext()
		defer cancel()
		err := fn(ctx)
		return doneMsg{route: route{to: v}, tag: string(action), success: success, failure: action.Failure(), err: err}
	}
}

func orderLine(o models.Order) string {
	status, _ := workflow.ParseStatus(o.Status)
	taken := " "
	if o.IsTaken {
		taken = "●"
	}
	return fmt.Sprintf("%-6s %-24s %-22s %s %s  %s",
		"№"+strconv.Itoa(o.ID),
		truncate(o.Title, 24),
		truncate(o.CustomerFullName, 22),
		taken,
		statusStyle(o.Status).Render(fmt.Sprintf("%-11s", status.FriendlyName())),
		mutedStyle.Render(o.CreatedOn.FormatDate()),
	)
}
