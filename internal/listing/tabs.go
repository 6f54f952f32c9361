package listing

import "github.com/kingrea/fieldcrm/internal/workflow"

// TabMyOrders is the non-admin tab that switches a worker's order list to
// their own orders. It is not a status and filters nothing by itself.
const TabMyOrders = "MyOrders"

// Tabs is a row of toggleable status filters. At most one is active.
type Tabs struct {
	names  []string
	labels map[string]string
	active string
}

// NewTabs builds a tab row. labels may be nil.
func NewTabs(names []string, labels map[string]string) Tabs {
	return Tabs{names: append([]string(nil), names...), labels: labels}
}

// OrderTabs is the order list tab row: admins filter by status only,
// everyone else also gets My Orders first.
func OrderTabs(isAdmin bool) Tabs {
	var names []string
	if !isAdmin {
		names = append(names, TabMyOrders)
	}
	for _, s := range workflow.Statuses {
		names = append(names, string(s))
	}
	labels := map[string]string{TabMyOrders: "My Orders"}
	for _, s := range workflow.Statuses {
		labels[string(s)] = s.FriendlyName()
	}
	return NewTabs(names, labels)
}

// Names returns the tabs in display order.
func (t Tabs) Names() []string {
	return t.names
}

// Label returns the display label of name.
func (t Tabs) Label(name string) string {
	if l, ok := t.labels[name]; ok && l != "" {
		return l
	}
	return name
}

// Active returns the active tab or "".
func (t Tabs) Active() string {
	return t.active
}

// Toggle activates name, or clears the filter when name is already active.
// Unknown names are ignored.
func (t *Tabs) Toggle(name string) {
	if t.active == name {
		t.active = ""
		return
	}
	for _, n := range t.names {
		if n == name {
			t.active = name
			return
		}
	}
}

// ToggleIndex toggles the tab at position i (0-based).
func (t *Tabs) ToggleIndex(i int) {
	if i < 0 || i >= len(t.names) {
		return
	}
	t.Toggle(t.names[i])
}

// Clear deactivates every tab.
func (t *Tabs) Clear() {
	t.active = ""
}

// ByTab keeps items whose status equals the active tab. With no active tab,
// or with My Orders active, every item is kept.
func ByTab[T any](t Tabs, items []T, statusOf func(T) string) []T {
	if t.active == "" || t.active == TabMyOrders {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if statusOf(item) == t.active {
			out = append(out, item)
		}
	}
	return out
}

// DistinctStatuses returns the distinct non-empty statuses of items in
// first-seen order. The customer list builds its tabs from this.
func DistinctStatuses[T any](items []T, statusOf func(T) string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, item := range items {
		s := statusOf(item)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// WithNames rebuilds the tab row keeping the active tab when it still exists.
func (t Tabs) WithNames(names []string) Tabs {
	next := NewTabs(names, t.labels)
	for _, n := range names {
		if n == t.active {
			next.active = n
		}
	}
	return next
}
