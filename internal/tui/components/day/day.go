package day

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/datebook/internal/models"
)

var (
	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(15)

	textStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	indexStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(4)
)

// Model renders the entries of a single day in a scrollable viewport.
type Model struct {
	viewport viewport.Model
	Entries  []models.Entry
	width    int
	height   int
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

func (m *Model) SetEntries(entries []models.Entry) {
	m.Entries = entries
	m.viewport.GotoTop()
	m.Render()
}

// Content returns the rendered lines without viewport clipping.
func (m Model) Content() string {
	if len(m.Entries) == 0 {
		return "Nothing scheduled."
	}

	var b strings.Builder
	for i, e := range m.Entries {
		span := "all day"
		if e.Start != "" || e.End != "" {
			span = fmt.Sprintf("%s - %s", e.EffectiveStart(), e.EffectiveEnd())
		}
		fmt.Fprintf(&b, "%s%s %s\n",
			indexStyle.Render(fmt.Sprintf("%d", i)),
			timeStyle.Render(span),
			textStyle.Render(e.Text),
		)
	}
	return b.String()
}

func (m *Model) Render() {
	m.viewport.SetContent(m.Content())
}
