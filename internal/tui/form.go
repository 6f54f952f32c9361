package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/fieldcrm/internal/forms"
)

type fieldSpec struct {
	key         string
	label       string
	placeholder string
	value       string
	secret      bool
	limit       int
}

type formField struct {
	key   string
	label string
	input textinput.Model
}

// formModel is a column of labelled text inputs with per-field error lines.
// Field keys match forms.FieldErrors keys.
type formModel struct {
	fields  []formField
	focus   int
	errs    forms.FieldErrors
	general string
	busy    bool
}

func newForm(specs ...fieldSpec) formModel {
	f := formModel{errs: forms.FieldErrors{}}
	for _, spec := range specs {
		in := textinput.New()
		in.Placeholder = spec.placeholder
		in.Prompt = ""
		in.Cursor.SetMode(cursor.CursorStatic)
		in.CharLimit = spec.limit
		if in.CharLimit == 0 {
			in.CharLimit = 320
		}
		if spec.secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		in.SetValue(spec.value)
		f.fields = append(f.fields, formField{key: spec.key, label: spec.label, input: in})
	}
	if len(f.fields) > 0 {
		f.fields[0].input.Focus()
	}
	return f
}

// Update handles one key. submit is true when the user asked to send the form.
func (f *formModel) Update(msg tea.Msg) (submit bool, cmd tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || f.busy {
		return false, nil
	}
	switch key.String() {
	case "tab", "down":
		f.setFocus(f.focus + 1)
		return false, nil
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return false, nil
	case "ctrl+s":
		return true, nil
	case "enter":
		if f.focus == len(f.fields)-1 {
			return true, nil
		}
		f.setFocus(f.focus + 1)
		return false, nil
	}
	if len(f.fields) == 0 {
		return false, nil
	}
	current := &f.fields[f.focus]
	before := current.input.Value()
	current.input, cmd = current.input.Update(msg)
	if current.input.Value() != before {
		f.errs.Clear(current.key)
	}
	return false, cmd
}

func (f *formModel) setFocus(i int) {
	if len(f.fields) == 0 {
		return
	}
	i = (i + len(f.fields)) % len(f.fields)
	f.fields[f.focus].input.Blur()
	f.focus = i
	f.fields[f.focus].input.Focus()
}

func (f formModel) Value(key string) string {
	for _, field := range f.fields {
		if field.key == key {
			return field.input.Value()
		}
	}
	return ""
}

func (f *formModel) SetValue(key, value string) {
	for i := range f.fields {
		if f.fields[i].key == key {
			f.fields[i].input.SetValue(value)
			return
		}
	}
}

// SetErrors shows errs. Messages for keys no field owns go to the general line.
func (f *formModel) SetErrors(errs forms.FieldErrors) {
	if errs == nil {
		errs = forms.FieldErrors{}
	}
	f.errs = errs
	var orphans []string
	for _, k := range errs.Keys() {
		if !f.owns(k) {
			orphans = append(orphans, errs.First(k))
		}
	}
	f.general = strings.Join(orphans, " ")
}

func (f formModel) owns(key string) bool {
	for _, field := range f.fields {
		if strings.EqualFold(field.key, key) {
			return true
		}
	}
	return false
}

func (f formModel) fieldError(key string) string {
	if msg := f.errs.First(key); msg != "" {
		return msg
	}
	for k := range f.errs {
		if strings.EqualFold(k, key) {
			return f.errs.First(k)
		}
	}
	return ""
}

func (f formModel) View() string {
	var rows []string
	for i, field := range f.fields {
		label := labelStyle.Render(field.label)
		if i == f.focus {
			label = labelStyle.Foreground(colorAccent).Bold(true).Render(field.label)
		}
		rows = append(rows, label+" "+field.input.View())
		if msg := f.fieldError(field.key); msg != "" {
			rows = append(rows, lipgloss.NewStyle().PaddingLeft(17).Render(errorStyle.Render(msg)))
		}
	}
	if f.general != "" {
		rows = append(rows, "", errorStyle.Render(f.general))
	}
	if f.busy {
		rows = append(rows, "", mutedStyle.Render("Saving…"))
	}
	return strings.Join(rows, "\n")
}
