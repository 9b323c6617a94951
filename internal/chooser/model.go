package chooser

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pkt.systems/companion/schema"
)

var (
	docStyle   = lipgloss.NewStyle().Margin(1, 2)
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)
)

// candidateItem wraps a Launchable for the list display.
type candidateItem struct {
	candidate schema.Launchable
}

func (i candidateItem) Title() string       { return i.candidate.Label }
func (i candidateItem) Description() string { return i.candidate.Description }
func (i candidateItem) FilterValue() string {
	return i.candidate.Label + " " + i.candidate.Component.NamespaceID
}

// Model is the chooser screen. It records at most one decision and quits.
type Model struct {
	list     list.Model
	chosen   *schema.ComponentID
	quitting bool
}

// NewModel builds a chooser over candidates.
func NewModel(title string, candidates []schema.Launchable) *Model {
	items := make([]list.Item, len(candidates))
	for i, candidate := range candidates {
		items[i] = candidateItem{candidate: candidate}
	}
	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)
	delegate.SetSpacing(0)
	l := list.New(items, delegate, 0, 0)
	l.Title = title
	l.Styles.Title = titleStyle
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	return &Model{list: l}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		// Esc clears an applied filter before it cancels.
		if msg.String() == "esc" && m.list.FilterState() == list.FilterApplied {
			break
		}
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m.cancel()
		case "enter":
			return m.choose()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	return docStyle.Render(m.list.View())
}

// Result reports the decision; ok is false when the user cancelled or quit
// without choosing.
func (m *Model) Result() (schema.ComponentID, bool) {
	if m.chosen == nil {
		return schema.ComponentID{}, false
	}
	return *m.chosen, true
}

func (m *Model) choose() (tea.Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(candidateItem)
	if !ok {
		return m, nil
	}
	id := item.candidate.Component
	m.chosen = &id
	m.quitting = true
	return m, tea.Quit
}

func (m *Model) cancel() (tea.Model, tea.Cmd) {
	m.chosen = nil
	m.quitting = true
	return m, tea.Quit
}
