package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type toastKind int

const (
	toastSuccess toastKind = iota
	toastError
	toastInfo
)

type toast struct {
	id    int
	kind  toastKind
	title string
	text  string
}

type toastExpiredMsg struct {
	id int
}

// showToast replaces the current toast and schedules its expiry.
func (a *App) showToast(kind toastKind, title, text string) tea.Cmd {
	a.toastSeq++
	id := a.toastSeq
	a.toast = &toast{id: id, kind: kind, title: title, text: text}
	if a.toastTTL <= 0 {
		return nil
	}
	return tea.Tick(a.toastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (a *App) renderToast() string {
	if a.toast == nil {
		return ""
	}
	var mark string
	switch a.toast.kind {
	case toastSuccess:
		mark = okStyle.Render("✓ " + a.toast.title)
	case toastError:
		mark = errorStyle.Bold(true).Render("✗ " + a.toast.title)
	default:
		mark = titleStyle.Render("• " + a.toast.title)
	}
	if a.toast.text != "" {
		mark += mutedStyle.Render("  " + a.toast.text)
	}
	return lipgloss.NewStyle().MarginTop(1).Render(mark)
}

// confirmDialog asks before a destructive or state-changing call.
type confirmDialog struct {
	title       string
	prompt      string
	label       string
	destructive bool
	onYes       tea.Cmd
}

func (a *App) confirm(title, prompt, label string, destructive bool, onYes tea.Cmd) {
	a.dialog = &confirmDialog{title: title, prompt: prompt, label: label, destructive: destructive, onYes: onYes}
}

func (a *App) updateDialog(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y", "enter":
		cmd := a.dialog.onYes
		a.dialog = nil
		return cmd
	case "n", "N", "esc":
		a.dialog = nil
	}
	return nil
}

func (d *confirmDialog) View() string {
	style := dialogStyle
	label := titleStyle.Render("[y] " + d.label)
	if d.destructive {
		style = dangerDialogStyle
		label = errorStyle.Bold(true).Render("[y] " + d.label)
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(d.title),
		"",
		textStyle.Render(d.prompt),
		"",
		label+"   "+mutedStyle.Render("[n] Cancel"),
	)
	return style.Render(body)
}

// choice is one entry of a menu dialog.
type choice struct {
	label   string
	desc    string
	value   string
	current bool
}

func (c choice) Title() string {
	if c.current {
		return c.label + " ✓"
	}
	return c.label
}
func (c choice) Description() string { return c.desc }
func (c choice) FilterValue() string { return c.label }

// menuDialog is a modal pick list, used for sort fields, statuses and
// order actions.
type menuDialog struct {
	list   list.Model
	onPick func(choice) tea.Cmd
}

func (a *App) openMenu(title string, choices []choice, onPick func(choice) tea.Cmd) {
	items := make([]list.Item, len(choices))
	selected := 0
	for i, c := range choices {
		items[i] = c
		if c.current {
			selected = i
		}
	}
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)
	l := list.New(items, delegate, 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Select(selected)
	a.menu = &menuDialog{list: l, onPick: onPick}
	a.menu.setSize(a.width, a.height)
}

func (m *menuDialog) setSize(width, height int) {
	if width <= 0 {
		width = 80
	}
	rows := len(m.list.Items()) + 4
	if height > 0 {
		rows = min(rows, max(6, height-8))
	}
	m.list.SetSize(min(48, width-4), rows)
}

func (a *App) updateMenu(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "q":
			a.menu = nil
			return nil
		case "enter":
			picked, ok := a.menu.list.SelectedItem().(choice)
			onPick := a.menu.onPick
			a.menu = nil
			if !ok || onPick == nil {
				return nil
			}
			return onPick(picked)
		}
	}
	var cmd tea.Cmd
	a.menu.list, cmd = a.menu.list.Update(msg)
	return cmd
}

func (m *menuDialog) View() string {
	return dialogStyle.Render(m.list.View())
}

// tabBar renders status tabs with their number keys.
func tabBar(names []string, label func(string) string, active string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, len(names))
	for i, name := range names {
		text := fmt.Sprintf("%d %s", i+1, label(name))
		if name == active {
			parts[i] = activeTabStyle.Render(text)
		} else {
			parts[i] = tabStyle.Render(text)
		}
	}
	return strings.Join(parts, " ")
}
