package grn

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// TransportModes are the choices of the mode of transport picker
var TransportModes = []string{"Road", "Sea", "Air", "Rail"}

// Challan form field order
const (
	fieldClient = iota
	fieldMode
	fieldContainer
	fieldSeal
	fieldTransporter
	fieldVehicle
)

// formField is a text input, or a picker when options is non-nil
type formField struct {
	label   string
	input   textinput.Model
	options []string
	choice  int
}

func (f formField) picker() bool { return f.options != nil }

func (f formField) value() string {
	if f.picker() {
		if f.choice < 0 || f.choice >= len(f.options) {
			return ""
		}
		return f.options[f.choice]
	}
	return f.input.Value()
}

// cycle moves a picker selection by delta, wrapping around
func (f *formField) cycle(delta int) {
	n := len(f.options)
	if n == 0 {
		f.choice = -1
		return
	}
	if f.choice < 0 {
		f.choice = 0
		return
	}
	f.choice = ((f.choice+delta)%n + n) % n
}

func newTextField(label, value string) formField {
	ti := newInput(label, 64)
	ti.SetValue(value)
	return formField{label: label, input: ti}
}

func newPickerField(label string, options []string, current string) formField {
	f := formField{label: label, options: append([]string{}, options...), choice: -1}
	for i, o := range f.options {
		if o == current {
			f.choice = i
			break
		}
	}
	return f
}

func transporterNames(list []Transporter) []string {
	names := make([]string, 0, len(list))
	for _, t := range list {
		names = append(names, strings.TrimSpace(t.LedgerName))
	}
	return names
}

// newChallanFields builds the form inputs, prefilled from form
func newChallanFields(form ChallanForm, transporters []Transporter) []formField {
	return []formField{
		fieldClient:      newTextField("Client Name", form.ClientName),
		fieldMode:        newPickerField("Mode of Transport", TransportModes, form.ModeOfTransport),
		fieldContainer:   newTextField("Container Number", form.ContainerNumber),
		fieldSeal:        newTextField("Seal Number", form.SealNumber),
		fieldTransporter: newPickerField("Transporter", transporterNames(transporters), form.TransporterName),
		fieldVehicle:     newTextField("Vehicle Number", form.VehicleNumber),
	}
}

// setTransporterOptions swaps the transporter choices, keeping the selected
// name when it is still offered.
func (m *Model) setTransporterOptions(list []Transporter) {
	if len(m.fields) <= fieldTransporter {
		return
	}
	current := m.fields[fieldTransporter].value()
	m.fields[fieldTransporter] = newPickerField("Transporter", transporterNames(list), current)
}

// challanForm reads the form back from the inputs
func (m Model) challanForm() ChallanForm {
	if len(m.fields) <= fieldVehicle {
		return ChallanForm{}
	}
	return ChallanForm{
		ClientName:      m.fields[fieldClient].value(),
		ModeOfTransport: m.fields[fieldMode].value(),
		ContainerNumber: m.fields[fieldContainer].value(),
		SealNumber:      m.fields[fieldSeal].value(),
		TransporterName: m.fields[fieldTransporter].value(),
		VehicleNumber:   m.fields[fieldVehicle].value(),
	}
}

// updateFormInputs handles form input updates
func (m *Model) updateFormInputs(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab", "down":
			m.focusIndex++
			if m.focusIndex >= len(m.fields) {
				m.focusIndex = 0
			}
			return m.updateFocus()

		case "shift+tab", "up":
			m.focusIndex--
			if m.focusIndex < 0 {
				m.focusIndex = len(m.fields) - 1
			}
			return m.updateFocus()

		case "left", "right":
			if m.focusIndex < len(m.fields) && m.fields[m.focusIndex].picker() {
				delta := 1
				if keyMsg.String() == "left" {
					delta = -1
				}
				m.fields[m.focusIndex].cycle(delta)
				return nil
			}

		case "ctrl+r":
			m.loading = true
			return m.reloadTransporters()

		case "enter":
			return m.submitChallanForm()

		case "esc":
			if m.app.Workflow.Back() {
				m.sync()
			}
			return nil
		}
	}

	// Update the focused input
	if m.focusIndex < len(m.fields) && !m.fields[m.focusIndex].picker() {
		var cmd tea.Cmd
		m.fields[m.focusIndex].input, cmd = m.fields[m.focusIndex].input.Update(msg)
		return cmd
	}

	return nil
}

// updateFocus updates which input has focus
func (m *Model) updateFocus() tea.Cmd {
	for i := range m.fields {
		if i == m.focusIndex && !m.fields[i].picker() {
			m.fields[i].input.Focus()
		} else {
			m.fields[i].input.Blur()
		}
	}
	return nil
}

func (m *Model) submitChallanForm() tea.Cmd {
	form := m.challanForm()
	m.loading = true
	return m.run("save", func(ctx context.Context) error {
		return m.app.Workflow.Save(ctx, form)
	})
}

func (m Model) renderChallanForm() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" Challan ") + "\n\n")
	if m.snap.Session != nil {
		b.WriteString(fmt.Sprintf("  Barcode: %s\n\n", m.snap.Session.ChallanBarcode))
	}

	for i, f := range m.fields {
		cursor := "  "
		label := f.label
		if i == m.focusIndex {
			cursor = selectedStyle.Render("> ")
			label = selectedStyle.Render(label)
		}
		b.WriteString(fmt.Sprintf("%s%s:\n", cursor, label))

		if f.picker() {
			b.WriteString("    " + renderPicker(f, i == m.focusIndex) + "\n\n")
			continue
		}
		b.WriteString("    " + f.input.View() + "\n\n")
	}

	return boxStyle.Render(b.String())
}

func renderPicker(f formField, focused bool) string {
	if len(f.options) == 0 {
		return helpStyle.Render("(no options, ctrl+r to reload)")
	}
	v := f.value()
	if v == "" {
		v = helpStyle.Render("Select...")
	} else if focused {
		v = selectedStyle.Render(v)
	}
	if focused {
		return fmt.Sprintf("‹ %s ›", v)
	}
	return v
}
