package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core/draft"
	"github.com/trezcool/kaushal/core/geo"
	"github.com/trezcool/kaushal/core/media"
	"github.com/trezcool/kaushal/core/wizard"
)

// mockable
var readFileFunc = os.ReadFile

var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	styleSubtitle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	styleError    = lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true)
	styleFocused  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	styleStatus   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	styleDone     = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	stylePending  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type keyMap struct {
	Next   key.Binding
	Back   key.Binding
	Submit key.Binding
	Down   key.Binding
	Up     key.Binding
	Toggle key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Back, k.Submit, k.Down, k.Toggle, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Back, k.Submit}, {k.Down, k.Up, k.Toggle, k.Quit}}
}

var defaultKeys = keyMap{
	Next:   key.NewBinding(key.WithKeys("enter", "ctrl+n"), key.WithHelp("enter", "next")),
	Back:   key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "back")),
	Submit: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit")),
	Down:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	Up:     key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
	Toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	Quit:   key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "save & quit")),
}

type submittedMsg struct {
	receipt wizard.Receipt
	err     error
}

// model renders one wizard session; every committed edit goes through Session.Change.
type model struct {
	ctx         context.Context
	session     *wizard.Session
	coordinator *wizard.Coordinator
	capturer    *media.Capturer

	inputs     []fieldInput
	focus      int
	status     string
	err        error
	receipt    *wizard.Receipt
	submitting bool
	quitting   bool
	blocked    bool // field errors are shown once Next was refused

	keys  keyMap
	help  help.Model
	width int
}

func newModel(ctx context.Context, s *wizard.Session, coordinator *wizard.Coordinator, capturer *media.Capturer) model {
	m := model{
		ctx:         ctx,
		session:     s,
		coordinator: coordinator,
		capturer:    capturer,
		keys:        defaultKeys,
		help:        help.New(),
	}
	m.loadStep()
	return m
}

// loadStep rebuilds the inputs from the current step's state.
func (m *model) loadStep() {
	def := m.session.Current()
	state, _ := m.session.State(def.ID)
	m.inputs = make([]fieldInput, 0, len(def.Fields))
	for _, f := range def.Fields {
		m.inputs = append(m.inputs, newFieldInput(f, state))
	}
	m.focus = 0
	m.blocked = false
	m.focusInput()
}

func (m *model) focusInput() {
	for i := range m.inputs {
		if i == m.focus {
			m.inputs[i].input.Focus()
		} else {
			m.inputs[i].input.Blur()
		}
	}
}

// commit saves the inputs of the current step. An unchanged photo input keeps the saved photo.
func (m *model) commit() error {
	def := m.session.Current()
	if len(m.inputs) == 0 {
		return nil
	}

	partial := draft.State{}
	var photo, location *fieldInput
	for i := range m.inputs {
		fi := &m.inputs[i]
		switch fi.field.Kind {
		case wizard.KindPhoto:
			if !fi.changed || strings.TrimSpace(fi.input.Value()) == "" {
				continue
			}
			photo = fi
		case wizard.KindLocation:
			location = fi
		}
		v, err := parseValue(fi.field, fi.input.Value(), fi.checked, readFileFunc)
		if err != nil {
			return errors.Wrap(err, fi.field.Label)
		}
		partial = partial.Set(fi.field.Name, v)
	}

	if photo != nil && location != nil && m.capturer != nil {
		pos, ok := partial[location.field.Name].(map[string]interface{})
		dataURL, _ := partial[photo.field.Name].(string)
		if ok {
			c, err := m.capturer.Capture(m.ctx, dataURL, geo.Position{
				Latitude:  pos["lat"].(float64),
				Longitude: pos["lng"].(float64),
			})
			if err != nil {
				return errors.Wrap(err, photo.field.Label)
			}
			partial = partial.Merge(c.State())
		}
	}

	if err := m.session.Change(m.ctx, def.ID, partial); err != nil {
		return err
	}
	for i := range m.inputs {
		m.inputs[i].changed = false
	}
	return nil
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		for i := range m.inputs {
			m.inputs[i].input.Width = msg.Width - 6
		}
		return m, nil

	case submittedMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = msg.err
			m.status = ""
			return m, nil
		}
		m.receipt = &msg.receipt
		m.err = nil
		m.status = fmt.Sprintf("submitted %s", msg.receipt.ID)
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.err = m.commit()
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Next):
			return m.next(), nil

		case key.Matches(msg, m.keys.Back):
			if m.err = m.commit(); m.err != nil {
				return m, nil
			}
			m.status = ""
			if m.session.Back(m.ctx) {
				m.loadStep()
			}
			return m, nil

		case key.Matches(msg, m.keys.Submit):
			return m.submit()

		case key.Matches(msg, m.keys.Down):
			if len(m.inputs) > 0 {
				m.focus = (m.focus + 1) % len(m.inputs)
				m.focusInput()
			}
			return m, nil

		case key.Matches(msg, m.keys.Up):
			if len(m.inputs) > 0 {
				m.focus = (m.focus - 1 + len(m.inputs)) % len(m.inputs)
				m.focusInput()
			}
			return m, nil

		case key.Matches(msg, m.keys.Toggle) && m.focused() != nil && m.focused().field.Kind == wizard.KindBool:
			fi := m.focused()
			fi.checked = !fi.checked
			fi.changed = true
			return m, nil
		}

		if fi := m.focused(); fi != nil && fi.field.Kind != wizard.KindBool {
			var cmd tea.Cmd
			before := fi.input.Value()
			fi.input, cmd = fi.input.Update(msg)
			if fi.input.Value() != before {
				fi.changed = true
			}
			return m, cmd
		}
	}
	return m, nil
}

func (m model) focused() *fieldInput {
	if m.focus < 0 || m.focus >= len(m.inputs) {
		return nil
	}
	return &m.inputs[m.focus]
}

func (m model) next() model {
	if m.err = m.commit(); m.err != nil {
		return m
	}
	m.status = ""
	switch m.session.Next(m.ctx) {
	case wizard.Advanced:
		m.loadStep()
	case wizard.Blocked:
		m.blocked = true
		m.status = "fix the errors above to continue"
	case wizard.AtEnd:
		m.status = "all set, press ctrl+s to submit"
	}
	return m
}

func (m model) submit() (tea.Model, tea.Cmd) {
	if m.session.Index() != m.session.Len()-1 {
		m.status = "submit is available on the last step"
		return m, nil
	}
	if m.err = m.commit(); m.err != nil {
		return m, nil
	}
	m.submitting = true
	m.status = "submitting..."
	ctx, s, coord := m.ctx, m.session, m.coordinator
	return m, func() tea.Msg {
		receipt, err := coord.Submit(ctx, s)
		return submittedMsg{receipt: receipt, err: err}
	}
}

func (m model) View() string {
	if m.quitting {
		if m.receipt != nil {
			return styleStatus.Render(m.status) + "\n"
		}
		return ""
	}

	var b strings.Builder
	def := m.session.Current()
	b.WriteString(m.progress(def) + "\n\n")

	fieldErrs := make(map[string]string)
	if m.blocked {
		for _, fe := range m.session.Errors() {
			fieldErrs[fe.Field] = fe.Error
		}
	}

	if len(m.inputs) == 0 {
		b.WriteString(m.summary())
	}
	for i, fi := range m.inputs {
		label := fi.field.Label
		if fi.field.Required {
			label += " *"
		}
		if i == m.focus {
			label = styleFocused.Render(label)
		}
		b.WriteString(label + "\n")
		if fi.field.Kind == wizard.KindBool {
			box := "[ ]"
			if fi.checked {
				box = "[x]"
			}
			b.WriteString("  " + box + "\n")
		} else {
			b.WriteString(fi.input.View() + "\n")
		}
		if msg, ok := fieldErrs[fi.field.Name]; ok {
			b.WriteString(styleError.Render("  "+msg) + "\n")
		}
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(styleError.Render("error: "+m.err.Error()) + "\n")
	}
	if m.status != "" {
		b.WriteString(styleStatus.Render(m.status) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

// progress renders eg. "Step 2/4 · Contact  ●●○○".
func (m model) progress(def wizard.StepDefinition) string {
	idx, n := m.session.Index(), m.session.Len()
	var dots strings.Builder
	for i := 0; i < n; i++ {
		if i <= idx {
			dots.WriteString(styleDone.Render("●"))
		} else {
			dots.WriteString(stylePending.Render("○"))
		}
	}
	title := fmt.Sprintf("Step %d/%d · %s", idx+1, n, def.Title)
	return styleTitle.Render(title) + "  " + dots.String()
}

// summary lists the saved values of every step, for steps without fields such as a review.
func (m model) summary() string {
	var b strings.Builder
	for i, def := range m.session.Steps() {
		if len(def.Fields) == 0 {
			continue
		}
		state, _ := m.session.State(def.ID)
		b.WriteString(styleSubtitle.Render(fmt.Sprintf("%d. %s", i+1, def.Title)) + "\n")
		for _, f := range def.Fields {
			v, _ := state.Get(f.Name)
			val := displayValue(f, v)
			if f.Kind == wizard.KindPhoto && v != nil && v != "" {
				val = "(photo)"
			}
			b.WriteString(fmt.Sprintf("  %s: %s\n", f.Label, val))
		}
	}
	return b.String() + "\n"
}
