package monitor

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"tcnet-monitor/internal/tcnet"
)

// Sender puts encoded packets on the wire. *tcnet.Receiver implements it.
type Sender interface {
	SendTo(data []byte, addr *net.UDPAddr) error
	Broadcast(data []byte) error
}

// header builds the management header for the next outgoing packet
func (m *Monitor) header() tcnet.ManagementHeader {
	m.seqMu.Lock()
	seq := m.sequence
	m.sequence++
	m.seqMu.Unlock()

	return tcnet.ManagementHeader{
		NodeID:       m.cfg.NodeID,
		MinorVersion: tcnet.DefaultMinorVersion,
		NodeName:     m.cfg.NodeName,
		Sequence:     seq,
		NodeType:     tcnet.NodeSlave,
		Timestamp:    uint32(time.Since(m.started).Milliseconds()),
	}
}

func (m *Monitor) uptime() uint16 {
	secs := time.Since(m.started) / time.Second
	if secs > 0xffff {
		return 0xffff
	}
	return uint16(secs)
}

// OptIn builds the packet announcing this monitor
func (m *Monitor) OptIn() *tcnet.OptInPacket {
	return &tcnet.OptInPacket{
		Header:       m.header(),
		NodeCount:    uint16(m.nodes.Count()),
		ListenerPort: m.cfg.ListenerPort,
		Uptime:       m.uptime(),
		VendorName:   m.cfg.Vendor,
		AppName:      m.cfg.App,
		MajorVersion: m.cfg.Version[0],
		MinorVersion: m.cfg.Version[1],
		BugVersion:   m.cfg.Version[2],
	}
}

// OptOut builds the packet withdrawing this monitor
func (m *Monitor) OptOut() *tcnet.OptOutPacket {
	return &tcnet.OptOutPacket{
		Header:       m.header(),
		NodeCount:    uint16(m.nodes.Count()),
		ListenerPort: m.cfg.ListenerPort,
	}
}

// broadcast encodes p and sends it to the whole network
func (m *Monitor) broadcast(p tcnet.Encodable) error {
	data, err := tcnet.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode %s: %w", p.PacketHeader().MessageType, err)
	}
	if err := m.sender.Broadcast(data); err != nil {
		return err
	}
	m.metrics.Announcements.WithLabelValues(p.PacketHeader().MessageType.String()).Inc()
	return nil
}

// Announce broadcasts one OptIn
func (m *Monitor) Announce() {
	if err := m.broadcast(m.OptIn()); err != nil {
		m.logger.Warn("opt-in failed", slog.String("error", err.Error()))
	}
}

// Withdraw broadcasts one OptOut
func (m *Monitor) Withdraw() {
	if err := m.broadcast(m.OptOut()); err != nil {
		m.logger.Warn("opt-out failed", slog.String("error", err.Error()))
		return
	}
	m.logger.Info("opted out", slog.String("node", m.cfg.NodeName))
}
