package monitor

import (
	"log/slog"
	"time"

	"tcnet-monitor/internal/nodes"
	"tcnet-monitor/internal/tcnet"
)

// EventKind tells which per-layer value changed
type EventKind int

const (
	TrackChanged EventKind = iota
	StatusChanged
	// LayerChanged carries the union of both sets
	LayerChanged
)

func (k EventKind) String() string {
	switch k {
	case TrackChanged:
		return "track"
	case StatusChanged:
		return "status"
	case LayerChanged:
		return "layer"
	default:
		return "unknown"
	}
}

// LayerEvent reports the layers that changed in one Status broadcast.
// Layers is ascending and never empty.
type LayerEvent struct {
	Kind   EventKind
	Layers []tcnet.LayerIndex
	Source nodes.Key
	At     time.Time
}

// publish hands the event to the consumer without ever blocking the receive path
func (m *Monitor) publish(e LayerEvent) {
	m.metrics.RecordLayerChange(e.Kind.String())

	select {
	case m.events <- e:
	default:
		m.logger.Debug("event queue full, dropping event", slog.String("kind", e.Kind.String()))
	}
}
