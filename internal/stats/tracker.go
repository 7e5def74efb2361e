// Package stats tracks packet rate and sequence loss per TCNet node.
package stats

import (
	"sort"
	"sync"
	"time"

	"tcnet-monitor/internal/tcnet"
)

const (
	// lossWindowDuration is the time window for recent loss calculation
	lossWindowDuration = time.Minute
	// restartThreshold is the sequence gap above which we assume the node restarted
	restartThreshold = 200
)

type lossEvent struct {
	at   time.Time
	lost uint64
}

// Stream is the sequence counter of one message type sent by a node.
// Nodes number each message type independently.
type Stream struct {
	MessageType  tcnet.MessageType
	LastSequence uint8
	LastSeen     time.Time
	PacketCount  uint64
	LostPackets  uint64
}

// NodeStats aggregates the streams of one node
type NodeStats struct {
	Node        string
	PacketCount uint64
	LostPackets uint64
	LastPacket  time.Time
	streams     map[tcnet.MessageType]*Stream
	arrivals    []time.Time
	losses      []lossEvent
	mu          sync.RWMutex
}

// Tracker tracks packet statistics for all nodes
type Tracker struct {
	nodes      map[string]*NodeStats
	rateWindow time.Duration
	mu         sync.RWMutex
}

// NewTracker creates a new stats tracker
func NewTracker() *Tracker {
	return &Tracker{
		nodes:      make(map[string]*NodeStats),
		rateWindow: time.Second,
	}
}

// gap returns how many sequence numbers were skipped between last and seq,
// or 0 when the jump looks like a restart
func gap(last, seq uint8) uint64 {
	expected := last + 1
	lost := int(seq - expected) // uint8 arithmetic wraps at 256
	if lost >= restartThreshold {
		return 0
	}
	return uint64(lost)
}

// RecordPacket records one packet from node with the header sequence number.
// It returns the number of packets detected as lost just before this one.
func (t *Tracker) RecordPacket(node string, messageType tcnet.MessageType, sequence uint8) uint64 {
	t.mu.Lock()
	ns, exists := t.nodes[node]
	if !exists {
		ns = &NodeStats{
			Node:    node,
			streams: make(map[tcnet.MessageType]*Stream),
		}
		t.nodes[node] = ns
	}
	t.mu.Unlock()

	ns.mu.Lock()
	defer ns.mu.Unlock()

	now := time.Now()
	ns.PacketCount++
	ns.LastPacket = now
	ns.arrivals = append(pruneTimes(ns.arrivals, now.Add(-t.rateWindow)), now)

	s, seen := ns.streams[messageType]
	if !seen {
		s = &Stream{MessageType: messageType}
		ns.streams[messageType] = s
	}

	var lost uint64
	if seen && s.PacketCount > 0 {
		lost = gap(s.LastSequence, sequence)
		s.LostPackets += lost
		ns.LostPackets += lost
	}

	cutoff := now.Add(-lossWindowDuration)
	kept := ns.losses[:0]
	for _, e := range ns.losses {
		if e.at.After(cutoff) {
			kept = append(kept, e)
		}
	}
	ns.losses = append(kept, lossEvent{at: now, lost: lost})

	s.LastSequence = sequence
	s.LastSeen = now
	s.PacketCount++
	return lost
}

func pruneTimes(times []time.Time, cutoff time.Time) []time.Time {
	kept := times[:0]
	for _, ts := range times {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}

func (t *Tracker) get(node string) *NodeStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nodes[node]
}

// Summary is a point-in-time view of one node's statistics
type Summary struct {
	Node        string
	PacketCount uint64
	LostPackets uint64
	LastPacket  time.Time
	Rate        float64 // packets per second
	Loss        float64 // percent, since start
	RecentLoss  float64 // percent, last minute
}

// GetSummary returns the statistics of node. ok is false for an unknown node.
func (t *Tracker) GetSummary(node string) (Summary, bool) {
	ns := t.get(node)
	if ns == nil {
		return Summary{}, false
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	now := time.Now()
	return Summary{
		Node:        ns.Node,
		PacketCount: ns.PacketCount,
		LostPackets: ns.LostPackets,
		LastPacket:  ns.LastPacket,
		Rate:        ns.rate(now, t.rateWindow),
		Loss:        percent(ns.LostPackets, ns.PacketCount),
		RecentLoss:  ns.recentLoss(now),
	}, true
}

func (ns *NodeStats) rate(now time.Time, window time.Duration) float64 {
	cutoff := now.Add(-window)
	count := 0
	for _, ts := range ns.arrivals {
		if ts.After(cutoff) {
			count++
		}
	}
	return float64(count) / window.Seconds()
}

func (ns *NodeStats) recentLoss(now time.Time) float64 {
	cutoff := now.Add(-lossWindowDuration)
	var received, lost uint64
	for _, e := range ns.losses {
		if e.at.After(cutoff) {
			received++
			lost += e.lost
		}
	}
	return percent(lost, received)
}

func percent(lost, received uint64) float64 {
	expected := received + lost
	if expected == 0 {
		return 0
	}
	return float64(lost) / float64(expected) * 100
}

// GetPacketRate returns packets per second for a node
func (t *Tracker) GetPacketRate(node string) float64 {
	s, _ := t.GetSummary(node)
	return s.Rate
}

// GetLossPercentage returns cumulative packet loss percentage for a node
func (t *Tracker) GetLossPercentage(node string) float64 {
	s, _ := t.GetSummary(node)
	return s.Loss
}

// GetRecentLossPercentage returns packet loss percentage for the last minute
func (t *Tracker) GetRecentLossPercentage(node string) float64 {
	s, _ := t.GetSummary(node)
	return s.RecentLoss
}

// GetStreams returns the per-message-type streams of a node, ordered by type
func (t *Tracker) GetStreams(node string) []Stream {
	ns := t.get(node)
	if ns == nil {
		return nil
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	streams := make([]Stream, 0, len(ns.streams))
	for _, s := range ns.streams {
		streams = append(streams, *s)
	}
	sort.Slice(streams, func(i, j int) bool {
		return streams[i].MessageType < streams[j].MessageType
	})
	return streams
}

// Forget drops everything known about a node
func (t *Tracker) Forget(node string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.nodes, node)
}

// ResetAll clears all tracked data
func (t *Tracker) ResetAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nodes = make(map[string]*NodeStats)
}

// Nodes returns all tracked node keys, sorted
func (t *Tracker) Nodes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := make([]string, 0, len(t.nodes))
	for k := range t.nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
