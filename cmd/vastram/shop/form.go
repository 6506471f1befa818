package shop

import (
	"strings"

	"vastram/cmd/vastram/ui"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const inputWidth = 48

// choice is one option of a selector field.
type choice struct {
	value string
	label string
}

// field is a text input, or a selector when choices is set.
type field struct {
	label    string
	required bool
	input    textinput.Model
	choices  []choice
	selected int
}

func textField(label, placeholder string, required bool) *field {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = inputWidth
	ti.Cursor.SetMode(cursor.CursorStatic)
	return &field{label: label, required: required, input: ti}
}

func passwordField(label string) *field {
	f := textField(label, "", true)
	f.input.EchoMode = textinput.EchoPassword
	f.input.EchoCharacter = '•'
	return f
}

func choiceField(label string, choices []choice, value string) *field {
	f := &field{label: label, required: true, choices: choices}
	f.set(value)
	return f
}

func (f *field) value() string {
	if f.choices != nil {
		if len(f.choices) == 0 {
			return ""
		}
		return f.choices[f.selected].value
	}
	return strings.TrimSpace(f.input.Value())
}

func (f *field) set(v string) {
	if f.choices == nil {
		f.input.SetValue(v)
		return
	}
	for i, c := range f.choices {
		if c.value == v {
			f.selected = i
			return
		}
	}
}

func (f *field) cycle(delta int) {
	if n := len(f.choices); n > 0 {
		f.selected = ((f.selected+delta)%n + n) % n
	}
}

// form is a vertical list of fields with one focused at a time. focus is
// -1 while the form is not capturing keys.
type form struct {
	fields []*field
	focus  int
	submit string
}

func newForm(submit string, fields ...*field) *form {
	return &form{fields: fields, focus: -1, submit: submit}
}

func (f *form) focused() bool { return f.focus >= 0 }

func (f *form) focusOn(i int) tea.Cmd {
	if i < 0 || i >= len(f.fields) {
		return nil
	}
	f.blur()
	f.focus = i
	if fd := f.fields[i]; fd.choices == nil {
		return fd.input.Focus()
	}
	return nil
}

func (f *form) blur() {
	if f.focused() {
		f.fields[f.focus].input.Blur()
	}
	f.focus = -1
}

func (f *form) values() []string {
	out := make([]string, len(f.fields))
	for i, fd := range f.fields {
		out[i] = fd.value()
	}
	return out
}

func (f *form) reset() {
	for _, fd := range f.fields {
		if fd.choices == nil {
			fd.input.Reset()
		} else {
			fd.selected = 0
		}
	}
}

// missing returns the labels of empty required fields.
func (f *form) missing() []string {
	var out []string
	for _, fd := range f.fields {
		if fd.required && fd.value() == "" {
			out = append(out, strings.ToLower(fd.label))
		}
	}
	return out
}

// update handles a key while the form is focused and reports whether the
// user asked to submit.
func (f *form) update(msg tea.KeyMsg) (bool, tea.Cmd) {
	if !f.focused() {
		return false, nil
	}
	cur := f.fields[f.focus]
	last := f.focus == len(f.fields)-1

	switch msg.String() {
	case "ctrl+s":
		return true, nil
	case "tab", "down":
		return false, f.focusOn((f.focus + 1) % len(f.fields))
	case "shift+tab", "up":
		return false, f.focusOn((f.focus - 1 + len(f.fields)) % len(f.fields))
	case "enter":
		if last {
			return true, nil
		}
		return false, f.focusOn(f.focus + 1)
	}

	if cur.choices != nil {
		switch msg.String() {
		case "left", "h":
			cur.cycle(-1)
		case "right", "l", " ":
			cur.cycle(1)
		}
		return false, nil
	}

	var cmd tea.Cmd
	cur.input, cmd = cur.input.Update(msg)
	return false, cmd
}

func (f *form) view(s ui.Styles) string {
	var sb strings.Builder
	for i, fd := range f.fields {
		label := fd.label
		if fd.required {
			label += " *"
		}
		focused := i == f.focus
		if focused {
			sb.WriteString(s.FocusedLabel.Render("▸ " + label))
		} else {
			sb.WriteString(s.Label.Render("  " + label))
		}
		sb.WriteString("\n  ")

		if fd.choices != nil {
			sb.WriteString(choiceView(s, fd, focused))
		} else {
			sb.WriteString(fd.input.View())
		}
		sb.WriteString("\n")
	}

	btn := s.Button
	if f.focused() {
		btn = s.ButtonActive
	}
	sb.WriteString("\n  " + btn.Render(f.submit))
	return sb.String()
}

func choiceView(s ui.Styles, fd *field, focused bool) string {
	if len(fd.choices) == 0 {
		return s.Muted.Render("(none)")
	}
	label := fd.choices[fd.selected].label
	if !focused {
		return s.Body.Render(label)
	}
	return s.Muted.Render("◂ ") + s.Bold.Render(label) + s.Muted.Render(" ▸")
}
