package nodeadmin

import (
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/deemkeen/mammut/db"
	"github.com/deemkeen/mammut/domain"
	"github.com/deemkeen/mammut/federation"
	"github.com/deemkeen/mammut/ui/common"
)

var (
	nodeStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			MarginBottom(0)

	selectedStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			MarginBottom(0).
			Foreground(lipgloss.Color(common.COLOR_GREEN)).
			Bold(true)

	inactiveStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			MarginBottom(0).
			Foreground(lipgloss.Color(common.COLOR_RED))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_DARK_GREY)).
			Italic(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_BLUE))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(common.COLOR_RED))
)

type Model struct {
	Db       *db.DB
	Syncer   *federation.Syncer
	Nodes    []domain.RemoteNode
	Selected int
	Width    int
	Height   int
	Status   string
	Error    string
	Syncing  bool
	Spinner  spinner.Model
}

func InitialModel(database *db.DB, syncer *federation.Syncer, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusStyle
	return Model{
		Db:       database,
		Syncer:   syncer,
		Nodes:    []domain.RemoteNode{},
		Selected: 0,
		Width:    width,
		Height:   height,
		Spinner:  sp,
	}
}

func (m Model) Init() tea.Cmd {
	return loadNodes(m.Db)
}

type nodesLoadedMsg struct {
	nodes []domain.RemoteNode
}

type nodeToggledMsg struct {
	url    string
	active bool
	err    error
}

type syncDoneMsg struct {
	outcomes []domain.SyncOutcome
	err      error
}

func loadNodes(database *db.DB) tea.Cmd {
	return func() tea.Msg {
		err, nodes := database.ReadAllNodes()
		if err != nil {
			log.Printf("Node panel: Failed to load nodes: %v", err)
			return nodesLoadedMsg{nodes: []domain.RemoteNode{}}
		}
		return nodesLoadedMsg{nodes: *nodes}
	}
}

func toggleNode(database *db.DB, node domain.RemoteNode) tea.Cmd {
	return func() tea.Msg {
		err := database.SetNodeActive(node.URL, !node.Active)
		return nodeToggledMsg{url: node.URL, active: !node.Active, err: err}
	}
}

func runSync(syncer *federation.Syncer) tea.Cmd {
	return func() tea.Msg {
		outcomes, err := syncer.PullPublicPosts()
		return syncDoneMsg{outcomes: outcomes, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case nodesLoadedMsg:
		m.Nodes = msg.nodes
		if m.Selected >= len(m.Nodes) {
			m.Selected = max(0, len(m.Nodes)-1)
		}
		return m, nil

	case nodeToggledMsg:
		if msg.err != nil {
			m.Error = msg.err.Error()
			return m, nil
		}
		if msg.active {
			m.Status = fmt.Sprintf("Node %s activated", msg.url)
		} else {
			m.Status = fmt.Sprintf("Node %s deactivated", msg.url)
		}
		m.Error = ""
		return m, loadNodes(m.Db)

	case syncDoneMsg:
		m.Syncing = false
		if msg.err != nil {
			m.Error = msg.err.Error()
			return m, nil
		}
		m.Status = syncReport(msg.outcomes)
		m.Error = ""
		return m, nil

	case spinner.TickMsg:
		if !m.Syncing {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.Status = ""
		m.Error = ""

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up":
			if m.Selected > 0 {
				m.Selected--
			}
		case "down":
			if len(m.Nodes) > 0 && m.Selected < len(m.Nodes)-1 {
				m.Selected++
			}
		case "t":
			if len(m.Nodes) > 0 && m.Selected < len(m.Nodes) {
				return m, toggleNode(m.Db, m.Nodes[m.Selected])
			}
		case "s":
			if m.Syncing {
				m.Error = "Sync already running"
				return m, nil
			}
			m.Syncing = true
			return m, tea.Batch(runSync(m.Syncer), m.Spinner.Tick)
		case "r":
			return m, loadNodes(m.Db)
		}
	}

	return m, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func syncReport(outcomes []domain.SyncOutcome) string {
	if len(outcomes) == 0 {
		return "No active nodes to sync"
	}
	parts := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Error != "" {
			parts = append(parts, fmt.Sprintf("%s: failed (%s)", o.NodeURL, o.Error))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %d new posts", o.NodeURL, o.Posts))
		}
	}
	return strings.Join(parts, "\n")
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(common.CaptionStyle.Render(fmt.Sprintf("node panel (%d nodes)", len(m.Nodes))))
	s.WriteString("\n\n")

	if len(m.Nodes) == 0 {
		s.WriteString(emptyStyle.Render("No nodes registered."))
	} else {
		for i, node := range m.Nodes {
			prefix := "  "
			style := nodeStyle
			suffix := ""

			if i == m.Selected {
				prefix = "> "
				style = selectedStyle
			}

			if !node.Active {
				style = inactiveStyle
				suffix = " [INACTIVE]"
			}

			s.WriteString(style.Render(fmt.Sprintf("%s%s (%s)%s", prefix, node.URL, node.Username, suffix)))
			s.WriteString("\n")
		}

		s.WriteString("\n")
		s.WriteString(common.HelpStyle.Render("t: toggle  s: sync  r: refresh  ↑/↓: navigate"))
		s.WriteString("\n")
	}

	if m.Syncing {
		s.WriteString("\n")
		s.WriteString(m.Spinner.View() + statusStyle.Render(" syncing nodes..."))
	}

	if m.Status != "" {
		s.WriteString("\n")
		s.WriteString(statusStyle.Render(m.Status))
	}

	if m.Error != "" {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render("Error: " + m.Error))
	}

	return s.String()
}
