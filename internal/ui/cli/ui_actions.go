package cli

import (
	tea "github.com/charmbracelet/bubbletea"
)

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		if m.mode == panelIssues {
			m.mode = panelModules
		} else {
			m.mode = panelIssues
		}
		return m, nil
	}

	if m.mode != panelModules {
		var cmd tea.Cmd
		m.issueList, cmd = m.issueList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "enter":
		return openDetails(m), nil
	case "esc", "backspace":
		if m.hasDetails {
			m.hasDetails = false
			m.selectedDep = 0
			return m, nil
		}
	case "j", "down":
		if m.hasDetails {
			if m.selectedDep < len(m.details.Dependencies)-1 {
				m.selectedDep++
			}
			return m, nil
		}
	case "k", "up":
		if m.hasDetails {
			if m.selectedDep > 0 {
				m.selectedDep--
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.moduleList, cmd = m.moduleList.Update(msg)
	return m, cmd
}

func openDetails(m model) model {
	item, ok := m.moduleList.SelectedItem().(moduleItem)
	if !ok {
		return m
	}
	m.details = item.snap
	m.hasDetails = true
	m.selectedDep = 0
	return m
}
