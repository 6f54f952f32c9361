// internal/workflow/status.go
//
// Order lifecycle. An order moves Pending -> InProgress -> Completed, or is
// Canceled. Workers drive the transitions through take/release/complete/
// cancel; admins may force any status.

package workflow

import "strings"

// Status is the lifecycle state of an order as the service spells it.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
	StatusCanceled   Status = "Canceled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusCompleted,
	StatusCanceled,
}

// ParseStatus matches raw against the known statuses, ignoring case and spaces.
func ParseStatus(raw string) (Status, bool) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	for _, s := range Statuses {
		if strings.ToLower(string(s)) == key {
			return s, true
		}
	}
	return "", false
}

// FriendlyName returns a human-readable name.
func (s Status) FriendlyName() string {
	switch s {
	case StatusInProgress:
		return "In Progress"
	case "":
		return "Unknown"
	default:
		return string(s)
	}
}

// IsFinal reports whether no further worker transition applies.
func (s Status) IsFinal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// StatusChoices returns the statuses an admin can pick from, marking the
// current one. Picking the current status is a no-op for callers.
func StatusChoices(current string) []StatusChoice {
	cur, _ := ParseStatus(current)
	choices := make([]StatusChoice, 0, len(Statuses))
	for _, s := range Statuses {
		choices = append(choices, StatusChoice{Status: s, Current: s == cur})
	}
	return choices
}

// StatusChoice is one entry of the admin status menu.
type StatusChoice struct {
	Status  Status
	Current bool
}
