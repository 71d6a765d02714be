// Command threadmon is a passive TUI showing the role, RLOC16, neighbor
// table and Network Data of a running threadnode process, polled over its
// diagnostic socket. Grounded on NDPeekr's bubbletea model ("periodic tick
// refetches stats, render a table") — rewritten as an actual bubbletea
// Model/Update/View instead of NDPeekr's raw-ANSI render loop, with the
// neighbor table itself built on bubbles/table rather than hand-joined
// strings, since that's the component the rest of the pack reaches for
// whenever a bubbletea program needs a scrollable table.
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/openthread-go/threadcore/internal/diag"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	tableHeader = lipgloss.NewStyle().Bold(true).Underline(true)

	neighborColumns = []table.Column{
		{Title: "Ext Addr", Width: 18},
		{Title: "RLOC16", Width: 8},
		{Title: "LQ", Width: 4},
		{Title: "Kind", Width: 6},
	}
)

type tickMsg time.Time

type snapshotMsg struct {
	snap diag.Snapshot
	err  error
}

type model struct {
	socketPath string
	refresh    time.Duration

	snap      diag.Snapshot
	lastErr   error
	neighbors table.Model
}

func newModel(socketPath string, refresh time.Duration) model {
	t := table.New(
		table.WithColumns(neighborColumns),
		table.WithHeight(8),
	)
	return model{socketPath: socketPath, refresh: refresh, neighbors: t}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(fetchCmd(m.socketPath), tickCmd(m.refresh))
}

// neighborRows converts a snapshot's neighbor list into bubbles/table rows.
func neighborRows(neighbors []diag.NeighborInfo) []table.Row {
	rows := make([]table.Row, 0, len(neighbors))
	for _, n := range neighbors {
		kind := "peer"
		if n.IsChild {
			kind = "child"
		}
		rows = append(rows, table.Row{
			n.ExtAddr,
			fmt.Sprintf("0x%04x", n.RLOC16),
			fmt.Sprintf("%d", n.LinkQuality),
			kind,
		})
	}
	return rows
}

func fetchCmd(socketPath string) tea.Cmd {
	return func() tea.Msg {
		snap, err := diag.Fetch(socketPath)
		return snapshotMsg{snap: snap, err: err}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		return m, tea.Batch(fetchCmd(m.socketPath), tickCmd(m.refresh))
	case snapshotMsg:
		m.lastErr = msg.err
		if msg.err == nil {
			m.snap = msg.snap
			m.neighbors.SetRows(neighborRows(m.snap.Neighbors))
		}
	}
	var cmd tea.Cmd
	m.neighbors, cmd = m.neighbors.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.lastErr != nil {
		return headerStyle.Render("threadmon") + "\n" +
			errorStyle.Render("connection to "+m.socketPath+" failed: "+m.lastErr.Error()) +
			"\n\nPress q to quit.\n"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("threadmon") + "\n")
	b.WriteString(labelStyle.Render("network") + "  " + m.snap.NetworkName + "\n")
	b.WriteString(labelStyle.Render("role") + "     " + m.snap.Role + "\n")
	fmt.Fprintf(&b, "%s   0x%04x\n", labelStyle.Render("rloc16"), m.snap.RLOC16)
	fmt.Fprintf(&b, "%s  %d\n\n", labelStyle.Render("channel"), m.snap.Channel)

	b.WriteString(tableHeader.Render("Neighbors") + "\n")
	if len(m.snap.Neighbors) == 0 {
		b.WriteString("  (none)\n")
	} else {
		b.WriteString(m.neighbors.View() + "\n")
	}

	b.WriteString("\n" + tableHeader.Render("Network Data") + "  ")
	fmt.Fprintf(&b, "(v%d/s%d)\n", m.snap.NetworkDataVersion, m.snap.NetworkDataStableVersion)
	if len(m.snap.NetworkData) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, p := range m.snap.NetworkData {
		fmt.Fprintf(&b, "  %s/%d\n", p.Prefix, p.Length)
	}

	b.WriteString("\nPress q to quit.\n")
	return b.String()
}
