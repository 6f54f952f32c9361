package workflow

import (
	"fmt"

	"github.com/kingrea/fieldcrm/internal/models"
)

// Action is something a user can do to a single order.
type Action string

const (
	ActionTake         Action = "Take"
	ActionRelease      Action = "Release"
	ActionComplete     Action = "Complete"
	ActionCancel       Action = "Cancel"
	ActionDelete       Action = "Delete"
	ActionEdit         Action = "Edit"
	ActionUpdateStatus Action = "Status"
)

// Roles is the subset of session state the action rules depend on.
type Roles struct {
	Admin  bool
	Worker bool
}

// ActionsFor lists the actions available on order. Workers see Cancel,
// Complete and Release on a taken order and Take otherwise; admins see
// Delete, Edit and Status. Someone holding both roles sees both sets.
func ActionsFor(order models.Order, roles Roles) []Action {
	var actions []Action
	if roles.Worker {
		if order.IsTaken {
			actions = append(actions, ActionCancel, ActionComplete, ActionRelease)
		} else {
			actions = append(actions, ActionTake)
		}
	}
	if roles.Admin {
		actions = append(actions, ActionDelete, ActionEdit, ActionUpdateStatus)
	}
	return actions
}

// Has reports whether action is in actions.
func Has(actions []Action, action Action) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

// NeedsConfirmation reports whether the action asks before calling the service.
func (a Action) NeedsConfirmation() bool {
	switch a {
	case ActionTake, ActionRelease, ActionComplete, ActionCancel, ActionDelete:
		return true
	}
	return false
}

// Destructive marks actions shown in the warning colour.
func (a Action) Destructive() bool {
	return a == ActionCancel || a == ActionDelete
}

// ConfirmLabel is the text of the confirming button.
func (a Action) ConfirmLabel() string {
	if a == ActionCancel {
		return "Cancel Order"
	}
	return string(a)
}

// Confirm is the confirmation prompt for the action on orderID.
func (a Action) Confirm(orderID int) string {
	return fmt.Sprintf("%s Order №%d?", a, orderID)
}

// Success is the toast text shown after the action succeeded.
func (a Action) Success(orderID int) string {
	verb := map[Action]string{
		ActionTake:     "taken",
		ActionRelease:  "released",
		ActionComplete: "completed",
		ActionCancel:   "cancelled",
		ActionDelete:   "deleted",
	}[a]
	if verb == "" {
		verb = "updated"
	}
	return fmt.Sprintf("Order №%d %s", orderID, verb)
}

// Failure is the toast title shown when the action failed.
func (a Action) Failure() string {
	return fmt.Sprintf("%s failed", a)
}
