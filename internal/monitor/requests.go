package monitor

import (
	"log/slog"

	"tcnet-monitor/internal/nodes"
	"tcnet-monitor/internal/tcnet"
)

// requestData asks the node that reported a change for the configured data
// types of every changed layer. Replies are applied whenever they arrive;
// nothing waits for them.
func (m *Monitor) requestData(n *nodes.Node, layers []tcnet.LayerIndex) {
	if len(m.cfg.RequestTypes) == 0 || len(layers) == 0 {
		return
	}

	addr, ok := n.RequestAddr()
	if !ok {
		m.logger.Debug("no listener port for node, skipping requests", slog.String("node", n.Key.String()))
		return
	}

	for _, l := range layers {
		for _, dt := range m.cfg.RequestTypes {
			p := &tcnet.RequestPacket{
				Header:   m.header(),
				DataType: dt,
				Layer:    l,
			}
			data, err := tcnet.Marshal(p)
			if err == nil {
				err = m.sender.SendTo(data, addr)
			}
			if err != nil {
				m.metrics.RequestErrors.Inc()
				m.logger.Warn("request failed",
					slog.String("node", n.Key.String()),
					slog.String("data_type", dt.String()),
					slog.String("layer", l.String()),
					slog.String("error", err.Error()),
				)
				continue
			}
			m.metrics.RecordRequest(dt)
		}
	}
}
