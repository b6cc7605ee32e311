package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Nicnick-Xia/MindStorm/pkg/mindmap"
)

// exploreCommand creates the explore command for the interactive TUI.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		configPath string
		offline    bool
	)

	cmd := &cobra.Command{
		Use:   "explore [concept]",
		Short: "Explore a concept interactively in the terminal",
		Long: `Explore a concept interactively in the terminal.

Type a seed concept (or pass it as an argument), then navigate the growing
tree with j/k and press enter on a leaf to expand it into related ideas.
Press r to start over and q to quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			seed := ""
			if len(args) > 0 {
				seed = args[0]
			}
			return c.runExplore(cmd.Context(), cfg, seed, offline)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to TOML config file")
	cmd.Flags().BoolVar(&offline, "offline", false, "use the built-in generator, no network calls")

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, cfg *Config, seed string, offline bool) error {
	gen, err := c.newGenerator(ctx, cfg, offline)
	if err != nil {
		return fmt.Errorf("initialize generator: %w", err)
	}

	store := mindmap.NewStore()
	ctrl := mindmap.NewController(store, gen, c.Logger)

	model := newExploreModel(ctrl, store, seed)
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// =============================================================================
// ExploreModel - Interactive tree navigation
// =============================================================================

// Explore styles
var (
	exploreSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	exploreNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	exploreDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	exploreLoadingStyle  = lipgloss.NewStyle().Foreground(colorYellow)
	exploreErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

var exploreSpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// treeRow is one visible line of the flattened tree.
type treeRow struct {
	node mindmap.Node
}

type exploreState int

const (
	stateSeeding exploreState = iota
	stateBrowsing
)

// ExploreModel is the bubbletea model for interactive map exploration.
type ExploreModel struct {
	ctrl  *mindmap.Controller
	store *mindmap.Store

	state  exploreState
	input  string
	rows   []treeRow
	cursor int
	offset int
	height int
	frame  int
	errMsg string
}

type expandDoneMsg struct {
	err error
}

type seedDoneMsg struct {
	err error
}

type tickMsg time.Time

func newExploreModel(ctrl *mindmap.Controller, store *mindmap.Store, seed string) ExploreModel {
	m := ExploreModel{
		ctrl:   ctrl,
		store:  store,
		state:  stateSeeding,
		input:  seed,
		height: 20,
	}
	return m
}

func (m ExploreModel) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m ExploreModel) seedCmd(text string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.ctrl.Seed(context.Background(), text)
		return seedDoneMsg{err: err}
	}
}

func (m ExploreModel) expandCmd(nodeID string) tea.Cmd {
	return func() tea.Msg {
		return expandDoneMsg{err: m.ctrl.Expand(context.Background(), nodeID)}
	}
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateSeeding {
			return m.updateSeeding(msg)
		}
		return m.updateBrowsing(msg)

	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}

	case seedDoneMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		}
		m.refresh()

	case expandDoneMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		}
		m.refresh()

	case tickMsg:
		m.frame++
		m.refresh()
		return m, tick()
	}
	return m, nil
}

func (m ExploreModel) updateSeeding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "enter":
		text := strings.TrimSpace(m.input)
		if text == "" {
			return m, nil
		}
		m.state = stateBrowsing
		m.errMsg = ""
		return m, m.seedCmd(text)
	case "backspace":
		if len(m.input) > 0 {
			runes := []rune(m.input)
			m.input = string(runes[:len(runes)-1])
		}
	default:
		switch msg.Type {
		case tea.KeyRunes:
			m.input += string(msg.Runes)
		case tea.KeySpace:
			m.input += " "
		}
	}
	return m, nil
}

func (m ExploreModel) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			if m.cursor >= m.offset+m.height {
				m.offset = m.cursor - m.height + 1
			}
		}
	case "r":
		m.ctrl.Reset()
		m.state = stateSeeding
		m.input = ""
		m.rows = nil
		m.cursor = 0
		m.offset = 0
		m.errMsg = ""
	case "enter":
		if m.cursor >= len(m.rows) {
			return m, nil
		}
		row := m.rows[m.cursor]
		if !row.node.Expandable() {
			return m, nil
		}
		m.errMsg = ""
		return m, m.expandCmd(row.node.ID)
	}
	return m, nil
}

// refresh rebuilds the flattened tree rows from the store.
func (m *ExploreModel) refresh() {
	m.rows = m.rows[:0]
	rootID := m.store.RootID()
	if rootID == "" {
		return
	}
	nodes := m.store.Snapshot()
	m.flatten(nodes, rootID)
	if m.cursor >= len(m.rows) && len(m.rows) > 0 {
		m.cursor = len(m.rows) - 1
	}
}

func (m *ExploreModel) flatten(nodes map[string]mindmap.Node, id string) {
	n, ok := nodes[id]
	if !ok {
		return
	}
	m.rows = append(m.rows, treeRow{node: n})
	for _, childID := range n.ChildrenIDs {
		m.flatten(nodes, childID)
	}
}

func (m ExploreModel) View() string {
	if m.state == stateSeeding {
		return m.viewSeeding()
	}
	return m.viewBrowsing()
}

func (m ExploreModel) viewSeeding() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("MindStorm"))
	b.WriteString("\n")
	b.WriteString(exploreDimStyle.Render("Type a concept to explore, then press enter."))
	b.WriteString("\n\n")
	b.WriteString("  " + StyleHighlight.Render("seed:") + " " + m.input + exploreSelectedStyle.Render("▌"))
	b.WriteString("\n\n")
	b.WriteString(exploreDimStyle.Render("enter: start  esc: quit"))
	if m.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(exploreErrorStyle.Render("✗ " + m.errMsg))
	}
	return b.String()
}

func (m ExploreModel) viewBrowsing() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("MindStorm"))
	b.WriteString("  ")
	b.WriteString(exploreDimStyle.Render("j/k navigate  ⏎ expand  r restart  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		indent := strings.Repeat("  ", row.node.Depth)
		label := row.node.Text

		var status string
		switch {
		case row.node.IsLoading:
			frame := exploreSpinnerFrames[m.frame%len(exploreSpinnerFrames)]
			status = " " + exploreLoadingStyle.Render(frame)
		case row.node.Expandable():
			status = exploreDimStyle.Render(" +")
		}

		line := cursor + indent + label
		if i == m.cursor {
			b.WriteString(exploreSelectedStyle.Render(line))
		} else if row.node.IsLoading {
			b.WriteString(exploreDimStyle.Render(line))
		} else {
			b.WriteString(exploreNormalStyle.Render(line))
		}
		b.WriteString(status)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(exploreDimStyle.Render(fmt.Sprintf("  %d nodes", len(m.rows))))
	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(exploreErrorStyle.Render("✗ " + m.errMsg))
	}
	return b.String()
}
