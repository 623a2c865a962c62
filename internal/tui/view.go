package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render(fmt.Sprintf("%s #%s", m.calendar.Name, m.calendar.Code)),
		dateStyle.Render(m.date.Format("Monday, 2 January 2006")),
	)

	content := m.dayModel.View()
	if m.err != nil {
		content = dangerStyle.Render(m.err.Error())
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		docStyle.Render(content),
		m.help.View(m.keys),
	)
}
