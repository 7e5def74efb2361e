package tui

import (
	"fmt"
	"strings"
	"time"

	"tcnet-monitor/internal/deck"
	"tcnet-monitor/internal/monitor"
	"tcnet-monitor/internal/nodes"
	"tcnet-monitor/internal/stats"
	"tcnet-monitor/internal/tcnet"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	cyanColor = lipgloss.Color("#00FFFF")
	grayColor = lipgloss.Color("#666666")

	whiteColor  = lipgloss.Color("#FFFFFF")
	greenColor  = lipgloss.Color("#66FF66")
	yellowColor = lipgloss.Color("#FFFF00")
	redColor    = lipgloss.Color("#FF6666")
)

const cardWidth = 30

// Styles
var (
	activeCardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(cyanColor).
			Width(cardWidth)

	selectedCardStyle = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder()).
				BorderForeground(yellowColor).
				Width(cardWidth)

	inactiveCardStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				BorderForeground(grayColor).
				Width(cardWidth)

	statsStyle = lipgloss.NewStyle().
			Foreground(whiteColor)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(whiteColor).
			Background(lipgloss.Color("#1a1a2e")).
			Padding(0, 2)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cyanColor).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cyanColor).
			Padding(0, 1)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(grayColor).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(grayColor).
				Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cyanColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(grayColor)
)

// KeyMap defines keybindings
type KeyMap struct {
	Left  key.Binding
	Right key.Binding
	Tab   key.Binding
	Clear key.Binding
	Quit  key.Binding
}

var keys = KeyMap{
	Left:  key.NewBinding(key.WithKeys("left", "h")),
	Right: key.NewBinding(key.WithKeys("right", "l")),
	Tab:   key.NewBinding(key.WithKeys("tab")),
	Clear: key.NewBinding(key.WithKeys("c")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

type page int

const (
	layersPage page = iota
	nodesPage
)

const maxRecentEvents = 6

// Source is what the dashboard reads from
type Source interface {
	Board() *deck.Board
	Nodes() *nodes.Manager
	Stats() *stats.Tracker
	NodeTimeout() time.Duration
}

// Model is the main TUI model
type Model struct {
	source        Source
	page          page
	selectedLayer tcnet.LayerIndex
	recent        []string
	width         int
	height        int
	cardsPerRow   int
}

// NewModel creates a new TUI model
func NewModel(src Source) Model {
	return Model{
		source:        src,
		selectedLayer: tcnet.Layer1,
		cardsPerRow:   4, // adjusted on the first WindowSizeMsg
	}
}

// TickMsg is a message for periodic updates
type TickMsg time.Time

// EventMsg delivers a layer change event to the dashboard
type EventMsg monitor.LayerEvent

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Tab):
			if m.page == layersPage {
				m.page = nodesPage
			} else {
				m.page = layersPage
			}
		case key.Matches(msg, keys.Right):
			m.selectedLayer = m.selectedLayer%tcnet.LayerCount + 1
		case key.Matches(msg, keys.Left):
			m.selectedLayer = (m.selectedLayer+tcnet.LayerCount-2)%tcnet.LayerCount + 1
		case key.Matches(msg, keys.Clear):
			m.recent = nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.cardsPerRow = max(1, min(tcnet.LayerCount, (m.width-2)/(cardWidth+2)))

	case EventMsg:
		m.recent = append(m.recent, formatEvent(monitor.LayerEvent(msg)))
		if len(m.recent) > maxRecentEvents {
			m.recent = m.recent[len(m.recent)-maxRecentEvents:]
		}

	case TickMsg:
		return m, tickCmd()
	}

	return m, nil
}

func formatEvent(e monitor.LayerEvent) string {
	names := make([]string, len(e.Layers))
	for i, l := range e.Layers {
		names[i] = l.String()
	}
	return fmt.Sprintf("%s %s changed on %s: [%s]",
		e.At.Format("15:04:05"), e.Kind, e.Source.Name, strings.Join(names, " "))
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var s string

	// Title
	s += titleStyle.Render("TCNet Monitor") + "\n\n"

	tabs := []struct {
		p    page
		text string
	}{
		{layersPage, "Layers"},
		{nodesPage, fmt.Sprintf("Nodes (%d)", m.source.Nodes().Count())},
	}
	for _, t := range tabs {
		if t.p == m.page {
			s += tabActiveStyle.Render(t.text) + " "
		} else {
			s += tabInactiveStyle.Render(t.text) + " "
		}
	}
	s += "\n\n"

	if m.source.Nodes().Count() == 0 {
		s += helpStyle.Render("Waiting for TCNet nodes...") + "\n\n"
		s += helpStyle.Render(fmt.Sprintf("Listening on UDP ports %d/%d for broadcasts.", tcnet.BroadcastPort, tcnet.TimePort)) + "\n"
	} else if m.page == layersPage {
		s += m.renderLayerGrid() + "\n\n"
		s += m.renderDetail() + "\n"
	} else {
		s += m.renderNodes() + "\n"
	}

	if len(m.recent) > 0 {
		s += "\n" + headerStyle.Render("Recent changes") + "\n"
		s += helpStyle.Render(strings.Join(m.recent, "\n")) + "\n"
	}

	// Help
	s += "\n" + helpStyle.Render("Tab: layers/nodes | ←→: select layer | c: clear changes | q: quit")

	return s
}

func statusColor(st tcnet.LayerStatus) lipgloss.Color {
	switch st {
	case tcnet.StatusPlaying, tcnet.StatusLooping, tcnet.StatusCuePlay:
		return greenColor
	case tcnet.StatusPaused, tcnet.StatusCueDown, tcnet.StatusHold:
		return yellowColor
	case tcnet.StatusIdle, tcnet.StatusStopped:
		return grayColor
	default:
		return whiteColor
	}
}

func (m Model) renderLayerGrid() string {
	layers := m.source.Board().Layers()
	timeout := m.source.NodeTimeout()

	var rows []string
	for i := 0; i < len(layers); i += m.cardsPerRow {
		var cards []string
		for j := i; j < i+m.cardsPerRow && j < len(layers); j++ {
			cards = append(cards, m.renderCard(layers[j], timeout))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderCard(l deck.Layer, timeout time.Duration) string {
	var cardStyle lipgloss.Style
	switch {
	case l.Index == m.selectedLayer:
		cardStyle = selectedCardStyle
	case m.source.Board().IsStale(l.Index, timeout) || l.Status == tcnet.StatusIdle:
		cardStyle = inactiveCardStyle
	default:
		cardStyle = activeCardStyle
	}

	name := l.Name
	if name == "" {
		name = "-"
	}
	status := lipgloss.NewStyle().Foreground(statusColor(l.Status)).Render(l.Status.String())

	title := "no track"
	if l.Track != nil && l.Track.Title != "" {
		title = l.Track.Title
	} else if l.TrackID >= 0 {
		title = fmt.Sprintf("track %d", l.TrackID)
	}

	bpm := "---.--"
	if l.Metrics != nil {
		bpm = fmt.Sprintf("%6.2f", l.Metrics.BPM)
	}

	content := fmt.Sprintf("%s %s  %s\n%s\n%s / %s  %s BPM",
		headerStyle.Render("Layer "+l.Index.String()), name, status,
		truncate(title, cardWidth),
		formatMillis(l.CurrentTime), formatMillis(l.TotalTime), bpm,
	)
	return cardStyle.Render(content)
}

func (m Model) renderDetail() string {
	l, ok := m.source.Board().Layer(m.selectedLayer)
	if !ok {
		return ""
	}

	lines := []string{headerStyle.Render(fmt.Sprintf("Layer %s", l.Index))}
	if l.Track != nil {
		lines = append(lines, fmt.Sprintf("Artist: %s | Title: %s | Key: %s", l.Track.Artist, l.Track.Title, l.Track.Key))
	}
	if l.Metrics != nil {
		lines = append(lines, fmt.Sprintf("Beat: %d (%d) | Pitch: %d | Sync: %s",
			l.Metrics.BeatNumber, l.Metrics.BeatMarker, l.Metrics.PitchBend, l.Metrics.SyncMaster))
	}
	tc := l.Timecode
	lines = append(lines, fmt.Sprintf("Timecode: %02d:%02d:%02d:%02d (%s)", tc.Hours, tc.Minutes, tc.Seconds, tc.Frames, tc.State))
	if l.BeatGrid != nil {
		lines = append(lines, fmt.Sprintf("Beat grid: %d beats (packet %d/%d)", len(l.BeatGrid.Beats), l.BeatGrid.PacketNo, l.BeatGrid.TotalPacket))
	}
	if mixer, ok := m.source.Board().Mixer(); ok {
		lines = append(lines, fmt.Sprintf("Mixer: %s | Master: %d | X-fader: %d", mixer.Name, mixer.MasterFaderLevel, mixer.CrossFader))
	}

	return statsStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderNodes() string {
	all := m.source.Nodes().GetAll()
	timeout := m.source.NodeTimeout()

	rows := []string{headerStyle.Render(fmt.Sprintf("%-8s %-6s %-15s %-8s %-16s %-8s %8s %7s",
		"Name", "ID", "Address", "Type", "App", "Version", "Rate", "Loss"))}
	for _, n := range all {
		info := n.GetInfo()
		summary, _ := m.source.Stats().GetSummary(info.Key.String())

		// Format loss with color
		lossStr := fmt.Sprintf("%6.1f%%", summary.Loss)
		if summary.Loss > 1 {
			lossStr = lipgloss.NewStyle().Foreground(redColor).Render(lossStr)
		} else if summary.Loss > 0 {
			lossStr = lipgloss.NewStyle().Foreground(yellowColor).Render(lossStr)
		}

		row := fmt.Sprintf("%-8s %-6d %-15s %-8s %-16s %-8s %8.1f %s",
			info.Key.Name, info.Key.NodeID, info.Key.IP, info.NodeType,
			truncate(info.App, 16), info.Version, summary.Rate, lossStr)
		if n.IsStale(timeout) {
			row = helpStyle.Render(row)
		}
		rows = append(rows, row)
	}

	return statsStyle.Render(strings.Join(rows, "\n"))
}

// formatMillis renders a millisecond position as m:ss.t
func formatMillis(ms uint32) string {
	d := time.Duration(ms) * time.Millisecond
	minutes := int(d / time.Minute)
	seconds := int(d % time.Minute / time.Second)
	tenths := int(d % time.Second / (100 * time.Millisecond))
	return fmt.Sprintf("%d:%02d.%d", minutes, seconds, tenths)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
