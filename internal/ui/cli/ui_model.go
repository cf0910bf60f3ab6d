package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gradledeps/internal/core/ports"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	cycleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	unresolvedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)
)

type panel int

const (
	panelModules panel = iota
	panelIssues
)

type moduleItem struct {
	snap ports.ModuleSnapshot
}

func (i moduleItem) Title() string {
	if i.snap.Application {
		return i.snap.Path + " (application)"
	}
	return i.snap.Path
}

func (i moduleItem) Description() string {
	return fmt.Sprintf("%d dependencies", len(i.snap.Dependencies))
}

func (i moduleItem) FilterValue() string { return i.snap.Path }

type issueItem struct {
	title, desc string
}

func (i issueItem) Title() string       { return i.title }
func (i issueItem) Description() string { return i.desc }
func (i issueItem) FilterValue() string { return i.title + i.desc }

type updateMsg struct {
	update ports.WatchUpdate
}

type model struct {
	mode       panel
	moduleList list.Model
	issueList  list.Model

	modules     []ports.ModuleSnapshot
	cycles      [][]string
	unresolved  int
	application string
	lastErr     error
	lastUpdate  time.Time

	hasDetails  bool
	details     ports.ModuleSnapshot
	selectedDep int
}

func initialModel() model {
	modules := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	modules.Title = "Modules"
	modules.SetShowStatusBar(false)
	modules.SetFilteringEnabled(true)

	issues := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	issues.Title = "Warnings"
	issues.SetShowStatusBar(false)
	issues.SetFilteringEnabled(true)

	return model{
		mode:       panelModules,
		moduleList: modules,
		issueList:  issues,
		lastUpdate: time.Now(),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.activeList().FilterState() == list.Filtering {
			break
		}
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.moduleList.SetSize(msg.Width-h, msg.Height-v-6)
		m.issueList.SetSize(msg.Width-h, msg.Height-v-6)
		return m, nil
	case updateMsg:
		return m.apply(msg.update), nil
	}

	var cmd tea.Cmd
	if m.mode == panelModules {
		m.moduleList, cmd = m.moduleList.Update(msg)
	} else {
		m.issueList, cmd = m.issueList.Update(msg)
	}
	return m, cmd
}

// apply folds a rescan into the model. A failed rescan keeps the previous
// module list and only records the error.
func (m model) apply(u ports.WatchUpdate) model {
	m.lastUpdate = u.At
	m.lastErr = u.Err
	if u.Err == nil {
		m.modules = u.Modules
		m.cycles = u.Cycles
		m.unresolved = u.UnresolvedCount
		m.application = u.ApplicationModule

		items := make([]list.Item, 0, len(u.Modules))
		for _, snap := range u.Modules {
			items = append(items, moduleItem{snap: snap})
		}
		m.moduleList.SetItems(items)

		if m.hasDetails {
			m.hasDetails = false
			for _, snap := range u.Modules {
				if snap.Path == m.details.Path {
					m.details, m.hasDetails = snap, true
					break
				}
			}
			if m.selectedDep >= len(m.details.Dependencies) {
				m.selectedDep = 0
			}
		}
	}

	issues := make([]list.Item, 0, len(m.cycles)+len(u.Warnings)+1)
	if u.Err != nil {
		issues = append(issues, issueItem{title: "Rescan Failed", desc: u.Err.Error()})
	}
	for _, c := range m.cycles {
		issues = append(issues, issueItem{title: "Module Cycle", desc: strings.Join(c, " -> ")})
	}
	for _, w := range u.Warnings {
		issues = append(issues, issueItem{title: "Warning", desc: w})
	}
	m.issueList.SetItems(issues)
	return m
}

func (m model) activeList() list.Model {
	if m.mode == panelIssues {
		return m.issueList
	}
	return m.moduleList
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %s | %d modules | application: %s",
		m.lastUpdate.Format("15:04:05"), len(m.modules), orNone(m.application)))

	var summary string
	switch {
	case m.lastErr != nil:
		summary = cycleStyle.Render("Rescan failed")
	case len(m.cycles) == 0 && m.unresolved == 0:
		summary = successStyle.Render("No issues")
	default:
		summary = fmt.Sprintf("%s | %s",
			cycleStyle.Render(fmt.Sprintf("%d Cycles", len(m.cycles))),
			unresolvedStyle.Render(fmt.Sprintf("%d Unresolved", m.unresolved)))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Gradle Dependency Monitor"), status, summary)
	footer := statusStyle.Render("tab: switch panel | enter: dependencies | j/k: move | esc: back | q: quit")

	var body string
	switch {
	case m.mode == panelModules && m.hasDetails:
		body = renderDetails(m.details, m.selectedDep)
	case m.mode == panelModules:
		body = m.moduleList.View()
	default:
		body = m.issueList.View()
	}
	return docStyle.Render(header + "\n" + body + "\n" + footer)
}

func renderDetails(snap ports.ModuleSnapshot, selected int) string {
	var b strings.Builder
	b.WriteString(titleStyle("Module " + snap.Path))
	b.WriteString("\n\n")
	if len(snap.Dependencies) == 0 {
		b.WriteString(statusStyle.Render("  no dependencies"))
		b.WriteString("\n")
		return b.String()
	}
	for i, d := range snap.Dependencies {
		line := fmt.Sprintf("%s:%s:%s", d.Group, d.Artifact, d.Version)
		if i == selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
