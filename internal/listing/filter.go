package listing

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/fieldcrm/internal/models"
)

// Keys extracts the sortable fields of an entity.
type Keys[T any] struct {
	Date   func(T) time.Time
	Name   func(T) string
	Number func(T) int
}

// OrderKeys sorts orders by createdOn, customer name, customer number.
var OrderKeys = Keys[models.Order]{
	Date:   func(o models.Order) time.Time { return o.CreatedOn.Time },
	Name:   func(o models.Order) string { return o.CustomerFullName },
	Number: func(o models.Order) int { return o.CustomerNumber },
}

// CustomerKeys sorts customers by createdOn, full name, customer number.
var CustomerKeys = Keys[models.Customer]{
	Date:   func(c models.Customer) time.Time { return c.CreatedOn.Time },
	Name:   func(c models.Customer) string { return c.FullName() },
	Number: func(c models.Customer) int { return c.CustomerNumber },
}

// Filter keeps the items matching the trimmed, lower-cased term. An empty
// term keeps everything. The result is a new slice in the original order.
func Filter[T any](items []T, term string, match func(T, string) bool) []T {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]T, 0, len(items))
	for _, item := range items {
		if term == "" || match(item, term) {
			out = append(out, item)
		}
	}
	return out
}

// Sort returns a stably sorted copy of items ordered by q.
func Sort[T any](items []T, q Query, keys Keys[T]) []T {
	out := slices.Clone(items)
	compare := comparator(q.field(), keys)
	if compare == nil {
		return out
	}
	slices.SortStableFunc(out, func(a, b T) int {
		c := compare(a, b)
		if q.Descending {
			return -c
		}
		return c
	})
	return out
}

// Apply filters with match and sorts with keys in one step.
func Apply[T any](items []T, q Query, match func(T, string) bool, keys Keys[T]) []T {
	return Sort(Filter(items, q.Term(), match), q, keys)
}

func comparator[T any](field SortField, keys Keys[T]) func(a, b T) int {
	switch field {
	case SortByName:
		if keys.Name == nil {
			return nil
		}
		return func(a, b T) int {
			return strings.Compare(strings.ToLower(keys.Name(a)), strings.ToLower(keys.Name(b)))
		}
	case SortByNumber:
		if keys.Number == nil {
			return nil
		}
		return func(a, b T) int { return cmp.Compare(keys.Number(a), keys.Number(b)) }
	default:
		if keys.Date == nil {
			return nil
		}
		return func(a, b T) int { return keys.Date(a).Compare(keys.Date(b)) }
	}
}

// OrderMatches reports whether the customer name or number contains term.
// term must already be lower-cased.
func OrderMatches(o models.Order, term string) bool {
	return strings.Contains(strings.ToLower(o.CustomerFullName), term) ||
		strings.Contains(strconv.Itoa(o.CustomerNumber), term)
}

// CustomerMatches reports whether the name, email or number contains term.
// term must already be lower-cased.
func CustomerMatches(c models.Customer, term string) bool {
	return strings.Contains(strings.ToLower(c.FullName()), term) ||
		strings.Contains(strings.ToLower(c.Email), term) ||
		strings.Contains(strconv.Itoa(c.CustomerNumber), term)
}
