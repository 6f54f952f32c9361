package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/fieldcrm/internal/models"
)

func order(id int, name string, number int, day int, status string) models.Order {
	return models.Order{
		ID:               id,
		CustomerFullName: name,
		CustomerNumber:   number,
		Status:           status,
		CreatedOn:        models.Timestamp{Time: time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)},
	}
}

func ids(orders []models.Order) []int {
	out := make([]int, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}

var sample = []models.Order{
	order(1, "Grace Hopper", 20001, 3, "Pending"),
	order(2, "ada lovelace", 10002, 1, "Completed"),
	order(3, "Alan Turing", 30003, 2, "Pending"),
}

func TestQueryDefaultsAndLabel(t *testing.T) {
	q := NewQuery("bogus", false)
	assert.Equal(t, SortByDate, q.SortBy)
	assert.Equal(t, "Date ↑", q.Label())

	q.SetSortBy(SortByNumber)
	q.ToggleDirection()
	assert.Equal(t, "Number ↓", q.Label())
}

func TestQueryValues(t *testing.T) {
	q := Query{Search: "  ada ", SortBy: SortByName, Descending: true}
	v := q.Values()
	assert.Equal(t, "ada", v.Get("search"))
	assert.Equal(t, "name", v.Get("sortBy"))
	assert.Equal(t, "true", v.Get("isDescending"))

	empty := Query{}.Values()
	assert.False(t, empty.Has("search"))
	assert.Equal(t, "date", empty.Get("sortBy"))
	assert.Equal(t, "false", empty.Get("isDescending"))
}

func TestFilterOrdersByNameAndNumber(t *testing.T) {
	assert.Equal(t, []int{2}, ids(Filter(sample, " ADA ", OrderMatches)))
	assert.Equal(t, []int{1}, ids(Filter(sample, "2000", OrderMatches)))
	assert.Equal(t, []int{1, 2, 3}, ids(Filter(sample, "   ", OrderMatches)))
	assert.Empty(t, Filter(sample, "nobody", OrderMatches))
}

func TestSortOrders(t *testing.T) {
	cases := []struct {
		field SortField
		desc  bool
		want  []int
	}{
		{SortByDate, false, []int{2, 3, 1}},
		{SortByDate, true, []int{1, 3, 2}},
		{SortByName, false, []int{2, 3, 1}},
		{SortByNumber, false, []int{2, 1, 3}},
		{SortByNumber, true, []int{3, 1, 2}},
	}
	for _, tc := range cases {
		got := Sort(sample, Query{SortBy: tc.field, Descending: tc.desc}, OrderKeys)
		assert.Equal(t, tc.want, ids(got), "sort by %s desc=%v", tc.field, tc.desc)
	}
	assert.Equal(t, []int{1, 2, 3}, ids(sample), "Sort must not reorder its input")
}

func TestSortIsStable(t *testing.T) {
	same := []models.Order{order(1, "x", 1, 1, ""), order(2, "x", 1, 1, ""), order(3, "x", 1, 1, "")}
	assert.Equal(t, []int{1, 2, 3}, ids(Sort(same, Query{SortBy: SortByName}, OrderKeys)))
	assert.Equal(t, []int{1, 2, 3}, ids(Sort(same, Query{SortBy: SortByName, Descending: true}, OrderKeys)))
}

func TestApplyCustomers(t *testing.T) {
	customers := []models.Customer{
		{ID: 1, FirstName: "Zoe", SecondName: "Adams", CustomerNumber: 55555, Email: "zoe@example.com"},
		{ID: 2, FirstName: "Al", SecondName: "Zed", CustomerNumber: 11111},
	}
	got := Apply(customers, Query{Search: "example", SortBy: SortByName}, CustomerMatches, CustomerKeys)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)

	got = Apply(customers, Query{SortBy: SortByName}, CustomerMatches, CustomerKeys)
	assert.Equal(t, 2, got[0].ID)
}

func TestTabsToggleAndFilter(t *testing.T) {
	tabs := OrderTabs(true)
	assert.Equal(t, []string{"Pending", "InProgress", "Completed", "Canceled"}, tabs.Names())
	assert.Equal(t, "In Progress", tabs.Label("InProgress"))

	tabs.Toggle("Pending")
	assert.Equal(t, []int{1, 3}, ids(ByTab(tabs, sample, func(o models.Order) string { return o.Status })))

	tabs.Toggle("Pending")
	assert.Equal(t, "", tabs.Active())
	assert.Len(t, ByTab(tabs, sample, func(o models.Order) string { return o.Status }), 3)

	tabs.Toggle("Nope")
	assert.Equal(t, "", tabs.Active())
}

func TestWorkerTabsStartWithMyOrders(t *testing.T) {
	tabs := OrderTabs(false)
	require.Equal(t, TabMyOrders, tabs.Names()[0])
	assert.Equal(t, "My Orders", tabs.Label(TabMyOrders))
	tabs.ToggleIndex(0)
	assert.Len(t, ByTab(tabs, sample, func(o models.Order) string { return o.Status }), 3)
}

func TestDistinctStatusesKeepsActiveTab(t *testing.T) {
	statuses := DistinctStatuses(sample, func(o models.Order) string { return o.Status })
	assert.Equal(t, []string{"Pending", "Completed"}, statuses)

	tabs := NewTabs(statuses, nil)
	tabs.Toggle("Completed")
	tabs = tabs.WithNames([]string{"Completed", "Active"})
	assert.Equal(t, "Completed", tabs.Active())
	tabs = tabs.WithNames([]string{"Active"})
	assert.Equal(t, "", tabs.Active())
}

func TestSelectionLongPressAndPress(t *testing.T) {
	var s Selection
	s.Begin(5, false)
	assert.False(t, s.Active(), "non-admin long press must be ignored")

	assert.False(t, s.Press(5), "press outside selection opens the row")

	s.Begin(5, true)
	assert.Equal(t, []int{5}, s.IDs())
	s.Begin(6, true)
	assert.Equal(t, []int{5, 6}, s.IDs())
	s.Begin(5, true)
	assert.Equal(t, []int{6}, s.IDs())

	assert.True(t, s.Press(7))
	assert.True(t, s.Contains(7))
	assert.True(t, s.Press(7))
	assert.False(t, s.Contains(7))

	s.SelectAll([]int{1, 2, 2, 3})
	assert.Equal(t, []int{1, 2, 3}, s.IDs())
	s.Retain([]int{3, 1})
	assert.Equal(t, []int{1, 3}, s.IDs())

	s.Clear()
	assert.False(t, s.Active())
	assert.Equal(t, 0, s.Len())
}
