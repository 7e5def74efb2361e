// Package monitor runs the TCNet receive path: every datagram is decoded,
// applied to the layer tracker, deck board, node registry and statistics,
// and layer changes are published as events and answered with data requests.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tcnet-monitor/internal/deck"
	"tcnet-monitor/internal/layer"
	"tcnet-monitor/internal/metrics"
	"tcnet-monitor/internal/nodes"
	"tcnet-monitor/internal/stats"
	"tcnet-monitor/internal/tcnet"
)

// Config is the identity and timing of the monitor node
type Config struct {
	NodeName      string
	NodeID        uint16
	Vendor        string
	App           string
	Version       [3]uint8
	ListenerPort  uint16
	OptInInterval time.Duration
	NodeTimeout   time.Duration
	// RequestTypes are requested for each changed layer. Empty disables requests.
	RequestTypes []tcnet.DataType
	EventBuffer  int
}

// Monitor owns the state fed by the receive path
type Monitor struct {
	cfg     Config
	sender  Sender
	metrics *metrics.Metrics
	logger  *slog.Logger

	tracker *layer.Tracker
	board   *deck.Board
	nodes   *nodes.Manager
	stats   *stats.Tracker
	events  chan LayerEvent

	started  time.Time
	seqMu    sync.Mutex
	sequence uint8
}

// New creates a monitor. Encoded packets leave through sender.
func New(cfg Config, sender Sender, m *metrics.Metrics, logger *slog.Logger) *Monitor {
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}
	if cfg.OptInInterval <= 0 {
		cfg.OptInInterval = time.Second
	}
	if cfg.NodeTimeout <= 0 {
		cfg.NodeTimeout = 5 * cfg.OptInInterval
	}
	return &Monitor{
		cfg:     cfg,
		sender:  sender,
		metrics: m,
		logger:  logger,
		tracker: layer.NewTracker(),
		board:   deck.NewBoard(),
		nodes:   nodes.NewManager(),
		stats:   stats.NewTracker(),
		events:  make(chan LayerEvent, cfg.EventBuffer),
		started: time.Now(),
	}
}

func (m *Monitor) Tracker() *layer.Tracker { return m.tracker }
func (m *Monitor) Board() *deck.Board      { return m.board }
func (m *Monitor) Nodes() *nodes.Manager   { return m.nodes }
func (m *Monitor) Stats() *stats.Tracker   { return m.stats }
func (m *Monitor) NodeTimeout() time.Duration {
	return m.cfg.NodeTimeout
}

// Events returns the layer change events. The channel is closed when Run returns.
func (m *Monitor) Events() <-chan LayerEvent {
	return m.events
}

// Run processes datagrams until ctx is cancelled or the channel closes.
// It opts in immediately, re-announces every OptInInterval and opts out
// on the way out.
func (m *Monitor) Run(ctx context.Context, datagrams <-chan *tcnet.Datagram) error {
	defer close(m.events)

	m.Announce()
	ticker := time.NewTicker(m.cfg.OptInInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Withdraw()
			return nil
		case d, ok := <-datagrams:
			if !ok {
				m.Withdraw()
				return nil
			}
			m.HandleDatagram(d)
		case <-ticker.C:
			m.Announce()
			m.prune()
		}
	}
}

func (m *Monitor) prune() {
	for _, key := range m.nodes.PruneStale(m.cfg.NodeTimeout) {
		m.stats.Forget(key.String())
		m.logger.Info("node timed out", slog.String("node", key.String()))
	}
	m.metrics.ActiveNodes.Set(float64(m.nodes.Count()))
}

// isSelf reports whether a packet is our own broadcast looping back
func (m *Monitor) isSelf(h *tcnet.ManagementHeader) bool {
	return h.NodeName == m.cfg.NodeName && h.NodeID == m.cfg.NodeID
}

// HandleDatagram decodes one datagram and applies it. Undecodable input is
// counted and dropped; it never stops the loop.
func (m *Monitor) HandleDatagram(d *tcnet.Datagram) {
	p, err := tcnet.Parse(d.Data)
	if err != nil {
		m.metrics.RecordParseError(tcnet.ErrorKind(err))
		m.logger.Debug("dropping packet",
			slog.String("source", d.Source.String()),
			slog.Int("size", len(d.Data)),
			slog.String("error", err.Error()),
		)
		return
	}

	h := p.PacketHeader()
	if m.isSelf(h) {
		return
	}

	key := nodes.KeyOf(h, d.Source)
	if lost := m.stats.RecordPacket(key.String(), h.MessageType, h.Sequence); lost > 0 {
		m.metrics.SequenceLoss.Add(float64(lost))
	}

	if u, ok := p.(*tcnet.UnknownPacket); ok {
		m.metrics.RecordUnsupported(u)
		m.touch(key, d)
		m.logger.Debug("unsupported packet",
			slog.String("node", key.String()),
			slog.String("error", u.Unsupported().Error()),
		)
		return
	}
	m.metrics.RecordPacket(h.MessageType)

	switch pkt := p.(type) {
	case *tcnet.OptInPacket:
		n, created := m.nodes.GetOrCreate(key)
		n.Touch(h, d.Source)
		n.ApplyOptIn(pkt)
		if created {
			m.logger.Info("node joined",
				slog.String("node", key.String()),
				slog.String("type", h.NodeType.String()),
				slog.String("vendor", pkt.VendorName),
				slog.String("app", pkt.AppName),
			)
			m.metrics.ActiveNodes.Set(float64(m.nodes.Count()))
		}

	case *tcnet.OptOutPacket:
		if m.nodes.Remove(key) {
			m.stats.Forget(key.String())
			m.logger.Info("node left", slog.String("node", key.String()))
			m.metrics.ActiveNodes.Set(float64(m.nodes.Count()))
		}

	case *tcnet.StatusPacket:
		n, _ := m.nodes.GetOrCreate(key)
		n.Touch(h, d.Source)
		n.SetListenerPort(pkt.ListenerPort)
		m.applyStatus(n, pkt)

	case *tcnet.TimePacket:
		m.touch(key, d)
		m.board.ApplyTime(pkt)

	case *tcnet.MetricsPacket:
		m.touch(key, d)
		m.applyData(pkt.DataPacket, m.board.ApplyMetrics(pkt))

	case *tcnet.MetadataPacket:
		m.touch(key, d)
		m.applyData(pkt.DataPacket, m.board.ApplyMetadata(pkt))

	case *tcnet.BeatGridPacket:
		m.touch(key, d)
		m.applyData(pkt.DataPacket, m.board.ApplyBeatGrid(pkt))

	case *tcnet.MixerPacket:
		m.touch(key, d)
		m.board.ApplyMixer(pkt)

	case *tcnet.RequestPacket, *tcnet.ApplicationDataPacket:
		// another client talking to a master
		m.touch(key, d)
	}
}

func (m *Monitor) touch(key nodes.Key, d *tcnet.Datagram) {
	if n := m.nodes.Get(key); n != nil {
		n.Seen(d.Source)
	}
}

func (m *Monitor) applyData(p tcnet.DataPacket, ok bool) {
	if !ok {
		m.logger.Debug("data packet for invalid layer",
			slog.String("data_type", p.DataType.String()),
			slog.Int("layer", int(p.Layer)),
		)
	}
}

// applyStatus diffs the broadcast against the tracker, then publishes the
// changes and asks the sender for fresh data on the changed layers
func (m *Monitor) applyStatus(n *nodes.Node, p *tcnet.StatusPacket) {
	m.board.ApplyStatus(p)

	u := m.tracker.Apply(p)
	if u.Empty() {
		return
	}

	for _, l := range u.TrackChanged {
		m.board.ClearTrack(l)
	}

	now := time.Now()
	if len(u.TrackChanged) > 0 {
		m.publish(LayerEvent{Kind: TrackChanged, Layers: u.TrackChanged, Source: n.Key, At: now})
	}
	if len(u.StatusChanged) > 0 {
		m.publish(LayerEvent{Kind: StatusChanged, Layers: u.StatusChanged, Source: n.Key, At: now})
	}
	changed := u.Changed()
	m.publish(LayerEvent{Kind: LayerChanged, Layers: changed, Source: n.Key, At: now})

	m.logger.Debug("layers changed",
		slog.String("node", n.Key.String()),
		slog.Int("track_changes", len(u.TrackChanged)),
		slog.Int("status_changes", len(u.StatusChanged)),
	)

	m.requestData(n, changed)
}
