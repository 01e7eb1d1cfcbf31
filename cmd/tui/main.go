package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(1, 2).
			MarginRight(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Reload   key.Binding
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev view"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Reload, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.Reload},
		{k.Up, k.Down},
		{k.Quit},
	}
}

// model browses one output directory. View 0 is the run summary; view i > 0
// shows results.views[i-1].
type model struct {
	dir         string
	results     *results
	currentView int
	table       table.Model
	help        help.Model
	keys        keyMap
	width       int
	height      int
	message     string
	messageErr  bool
}

type loadedMsg struct{ results *results }

func loadCmd(dir string) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{results: loadResults(dir)}
	}
}

func initialModel(dir string) model {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)

	return model{
		dir:     dir,
		results: &results{dir: dir},
		table:   t,
		help:    help.New(),
		keys:    keys,
	}
}

func (m model) Init() tea.Cmd {
	return loadCmd(m.dir)
}

func (m model) viewCount() int {
	return len(m.results.views) + 1
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if h := msg.Height - 14; h > 5 {
			m.table.SetHeight(h)
		}

	case loadedMsg:
		m.results = msg.results
		if m.currentView >= m.viewCount() {
			m.currentView = 0
		}
		m.showCurrent()
		if m.results.summaryErr != nil {
			m.message = fmt.Sprintf("No run summary: %v", m.results.summaryErr)
			m.messageErr = true
		} else {
			m.message = fmt.Sprintf("Loaded run %s", m.results.summary.RunID)
			m.messageErr = false
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Tab):
			m.currentView = (m.currentView + 1) % m.viewCount()
			m.showCurrent()
			return m, nil

		case key.Matches(msg, m.keys.ShiftTab):
			if m.currentView == 0 {
				m.currentView = m.viewCount() - 1
			} else {
				m.currentView--
			}
			m.showCurrent()
			return m, nil

		case key.Matches(msg, m.keys.Reload):
			return m, loadCmd(m.dir)
		}
	}

	if m.currentView > 0 {
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

// showCurrent loads the selected view into the table. Rows are cleared first
// so they never outnumber the new columns.
func (m *model) showCurrent() {
	m.table.SetRows(nil)
	if m.currentView == 0 {
		return
	}
	v := m.results.views[m.currentView-1]
	m.table.SetColumns(v.columns)
	m.table.SetRows(v.rows)
	m.table.GotoTop()
}

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("Telecom forensics - " + m.dir))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.currentView == 0 {
		s.WriteString(m.renderSummary())
	} else {
		s.WriteString(m.renderTable(m.results.views[m.currentView-1]))
	}

	if m.message != "" {
		s.WriteString("\n\n")
		if m.messageErr {
			s.WriteString(errorStyle.Render("✗ " + m.message))
		} else {
			s.WriteString(successStyle.Render("✓ " + m.message))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))

	return s.String()
}

func (m model) renderTabs() string {
	tabs := []string{"Summary"}
	for _, v := range m.results.views {
		tabs = append(tabs, v.title)
	}

	var renderedTabs []string
	for i, tab := range tabs {
		if i == m.currentView {
			renderedTabs = append(renderedTabs, activeTabStyle.Render(tab))
		} else {
			renderedTabs = append(renderedTabs, inactiveTabStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, renderedTabs...)
}

func (m model) renderSummary() string {
	sum := m.results.summary
	if sum == nil {
		return contentStyle.Render(helpStyle.Render("No summary.json in this directory\n\nRun telco-forensics analyze first."))
	}

	records := fmt.Sprintf(`Records
━━━━━━━━━━━━━━━
Calls:     %d
IP flows:  %d
Pings:     %d

Run
━━━━━━━━━━━━━━━
ID:        %s
Started:   %s
Duration:  %.2fs`,
		sum.Records.Calls,
		sum.Records.Flows,
		sum.Records.Pings,
		sum.RunID,
		sum.StartedAt.Format("2006-01-02 15:04:05"),
		sum.DurationSeconds,
	)

	var findings strings.Builder
	findings.WriteString("Findings\n━━━━━━━━━━━━━━━")
	if c := sum.Correlation; c != nil {
		fmt.Fprintf(&findings, "\nCall×Tower:   %d", c.TowerMatches)
		fmt.Fprintf(&findings, "\nCall×IP:      %d (%s)", c.IPMatches, c.IPMatchBasis)
	}
	if g := sum.Graph; g != nil {
		fmt.Fprintf(&findings, "\nNumbers:      %d", g.Stats.Nodes)
		fmt.Fprintf(&findings, "\nComponents:   %d", g.Components)
	}
	for i, n := range sum.TopNodes {
		if i == 5 {
			break
		}
		bar := strings.Repeat("█", int(n.PageRank*50))
		fmt.Fprintf(&findings, "\n  %d. %-15s %.6f %s", i+1, n.Node, n.PageRank, bar)
	}

	boxes := lipgloss.JoinHorizontal(lipgloss.Top,
		statsBoxStyle.Render(records),
		statsBoxStyle.Render(findings.String()),
	)
	if len(sum.Warnings) > 0 {
		boxes += "\n\n" + errorStyle.Render("Warnings") + "\n" + strings.Join(sum.Warnings, "\n")
	}
	return contentStyle.Render(boxes)
}

func (m model) renderTable(v dataView) string {
	var s strings.Builder

	s.WriteString(headerStyle.Render(fmt.Sprintf("%s (%s)", v.title, v.file)))
	s.WriteString("\n\n")

	switch {
	case v.err != nil:
		s.WriteString(errorStyle.Render(v.err.Error()))
	case v.missing:
		s.WriteString(helpStyle.Render("Not produced by this run"))
	case v.stale:
		s.WriteString(helpStyle.Render("Not produced by this run (file left from an earlier run)"))
	case len(v.rows) == 0:
		s.WriteString(helpStyle.Render("No rows"))
	default:
		s.WriteString(m.table.View())
		s.WriteString("\n\n")
		s.WriteString(helpStyle.Render(fmt.Sprintf("%d rows • navigate with ↑/↓", len(v.rows))))
	}
	return contentStyle.Render(s.String())
}

func main() {
	dir := "output"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		log.Fatalf("Not an output directory: %s", dir)
	}

	p := tea.NewProgram(initialModel(dir), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}
