package tui

import (
	"strings"
	"testing"
	"time"

	"tcnet-monitor/internal/deck"
	"tcnet-monitor/internal/monitor"
	"tcnet-monitor/internal/nodes"
	"tcnet-monitor/internal/stats"
	"tcnet-monitor/internal/tcnet"

	tea "github.com/charmbracelet/bubbletea"
)

type stubSource struct {
	board *deck.Board
	nodes *nodes.Manager
	stats *stats.Tracker
}

func newStubSource() *stubSource {
	return &stubSource{board: deck.NewBoard(), nodes: nodes.NewManager(), stats: stats.NewTracker()}
}

func (s *stubSource) Board() *deck.Board         { return s.board }
func (s *stubSource) Nodes() *nodes.Manager      { return s.nodes }
func (s *stubSource) Stats() *stats.Tracker      { return s.stats }
func (s *stubSource) NodeTimeout() time.Duration { return 5 * time.Second }

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return next.(Model)
}

func TestFormatMillis(t *testing.T) {
	tests := []struct {
		ms   uint32
		want string
	}{
		{0, "0:00.0"},
		{1500, "0:01.5"},
		{61234, "1:01.2"},
		{240000, "4:00.0"},
	}

	for _, tt := range tests {
		if got := formatMillis(tt.ms); got != tt.want {
			t.Errorf("formatMillis(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("a very long title", 6); got != "a ver…" {
		t.Errorf("truncate() = %q, want %q", got, "a ver…")
	}
}

func TestModel_LayerSelectionWraps(t *testing.T) {
	m := sized(NewModel(newStubSource()))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = next.(Model)
	if m.selectedLayer != tcnet.LayerC {
		t.Errorf("selectedLayer = %v after left from 1, want C", m.selectedLayer)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = next.(Model)
	if m.selectedLayer != tcnet.Layer1 {
		t.Errorf("selectedLayer = %v after right from C, want 1", m.selectedLayer)
	}
}

func TestModel_CardsPerRow(t *testing.T) {
	m := sized(NewModel(newStubSource()))
	if m.cardsPerRow != 4 {
		t.Errorf("cardsPerRow = %d at width 140, want 4", m.cardsPerRow)
	}

	next, _ := m.Update(tea.WindowSizeMsg{Width: 20, Height: 40})
	if next.(Model).cardsPerRow != 1 {
		t.Errorf("cardsPerRow = %d at width 20, want 1", next.(Model).cardsPerRow)
	}
}

func TestModel_RecentEvents(t *testing.T) {
	m := sized(NewModel(newStubSource()))

	for i := 0; i < maxRecentEvents+2; i++ {
		next, _ := m.Update(EventMsg(monitor.LayerEvent{
			Kind:   monitor.TrackChanged,
			Layers: []tcnet.LayerIndex{tcnet.Layer1, tcnet.LayerM},
			Source: nodes.Key{Name: "BRIDGE"},
			At:     time.Date(2024, 1, 1, 12, 0, i, 0, time.UTC),
		}))
		m = next.(Model)
	}

	if len(m.recent) != maxRecentEvents {
		t.Fatalf("len(recent) = %d, want %d", len(m.recent), maxRecentEvents)
	}
	if !strings.HasSuffix(m.recent[len(m.recent)-1], "track changed on BRIDGE: [1 M]") {
		t.Errorf("recent = %q", m.recent[len(m.recent)-1])
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	if len(next.(Model).recent) != 0 {
		t.Error("c did not clear recent changes")
	}
}

func TestModel_View(t *testing.T) {
	src := newStubSource()
	m := sized(NewModel(src))

	if !strings.Contains(m.View(), "Waiting for TCNet nodes") {
		t.Error("empty View() should show the waiting message")
	}

	src.nodes.GetOrCreate(nodes.Key{Name: "BRIDGE", NodeID: 3, IP: "10.0.0.2"})
	status := &tcnet.StatusPacket{}
	status.LayerName[0] = "Deck 1"
	status.LayerStatus[0] = tcnet.StatusPlaying
	src.board.ApplyStatus(status)

	view := m.View()
	for _, want := range []string{"Layer 1", "Deck 1", "Playing", "Layer C"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if view := next.(Model).View(); !strings.Contains(view, "BRIDGE") || !strings.Contains(view, "10.0.0.2") {
		t.Error("nodes View() missing the node row")
	}
}
