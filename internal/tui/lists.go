package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/fieldcrm/internal/listing"
)

// listQuery starts a list screen with the persisted sort preference.
func (a *App) listQuery() listing.Query {
	if a.config == nil {
		return listing.NewQuery("", false)
	}
	d := a.config.ListDefaults()
	return listing.NewQuery(d.SortBy, d.Descending)
}

func (a *App) saveSort(q listing.Query) {
	if a.config == nil {
		return
	}
	if err := a.config.SetListDefaults(string(q.SortBy), q.Descending); err != nil {
		a.logWarn("Saving sort preference: %v", err)
	}
}

// openSortMenu lets the user pick the sort field of q; reload runs after a change.
func (a *App) openSortMenu(q *listing.Query, reload func() tea.Cmd) {
	choices := make([]choice, len(listing.SortFields))
	for i, f := range listing.SortFields {
		choices[i] = choice{label: f.Label(), value: string(f), current: f == q.SortBy}
	}
	a.openMenu("Sort by", choices, func(c choice) tea.Cmd {
		if listing.SortField(c.value) == q.SortBy {
			return nil
		}
		q.SetSortBy(listing.SortField(c.value))
		a.saveSort(*q)
		return reload()
	})
}

func newSearchInput() textinput.Model {
	in := textinput.New()
	in.Prompt = "/ "
	in.Placeholder = "name, number or email"
	in.CharLimit = 64
	in.Cursor.SetMode(cursor.CursorStatic)
	return in
}

// listCursor keeps a row cursor inside [0, n).
type listCursor struct {
	pos int
}

func (c *listCursor) move(delta, n int) {
	c.clamp(n)
	if n == 0 {
		return
	}
	c.pos = min(max(c.pos+delta, 0), n-1)
}

func (c *listCursor) clamp(n int) {
	if c.pos >= n {
		c.pos = n - 1
	}
	if c.pos < 0 {
		c.pos = 0
	}
}

// navKey moves the cursor for up/down style keys and reports whether the key was one.
func (c *listCursor) navKey(key string, n int) bool {
	switch key {
	case "up", "k":
		c.move(-1, n)
	case "down", "j":
		c.move(1, n)
	case "home":
		c.move(-n, n)
	case "end":
		c.move(n, n)
	default:
		return false
	}
	return true
}

// tabIndex maps the number keys 1-9 to a tab position.
func tabIndex(key string) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	return int(key[0] - '1'), true
}

// rowPrefix renders the cursor and selection marks of one row.
func rowPrefix(isCursor, selecting, selected bool) string {
	cursor := "  "
	if isCursor {
		cursor = cursorStyle.Render("▸ ")
	}
	if !selecting {
		return cursor
	}
	if selected {
		return cursor + selectedStyle.Render("[x] ")
	}
	return cursor + mutedStyle.Render("[ ] ")
}

// listStatusLine summarises search, sort and selection above a list.
func listStatusLine(q listing.Query, shown, total int, sel *listing.Selection) string {
	parts := []string{fmt.Sprintf("%d of %d", shown, total), "sort " + q.Label()}
	if s := strings.TrimSpace(q.Search); s != "" {
		parts = append(parts, fmt.Sprintf("search %q", s))
	}
	line := mutedStyle.Render(strings.Join(parts, " · "))
	if sel != nil && sel.Active() {
		line += "  " + selectedStyle.Render(fmt.Sprintf("%d selected", sel.Len()))
	}
	return line
}

// visibleWindow returns the slice bounds that keep cursor on screen.
func visibleWindow(cursor, n, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := cursor - height/2
	start = min(max(start, 0), n-height)
	return start, start + height
}
