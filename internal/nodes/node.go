package nodes

import (
	"fmt"
	"net"
	"sync"
	"time"

	"tcnet-monitor/internal/tcnet"
)

// Key identifies a node on the network. Two devices may share a name, so
// the node ID and source address are part of it.
type Key struct {
	Name   string
	NodeID uint16
	IP     string
}

func (k Key) String() string {
	return fmt.Sprintf("%s#%d@%s", k.Name, k.NodeID, k.IP)
}

// KeyOf builds the key of the node that sent a packet
func KeyOf(h *tcnet.ManagementHeader, addr *net.UDPAddr) Key {
	k := Key{Name: h.NodeName, NodeID: h.NodeID}
	if addr != nil {
		k.IP = addr.IP.String()
	}
	return k
}

// Node is a TCNet device seen on the network
type Node struct {
	Key          Key
	NodeType     tcnet.NodeType
	Addr         *net.UDPAddr
	ListenerPort uint16
	Vendor       string
	App          string
	Version      string
	Uptime       uint16
	PacketCount  uint64
	FirstSeen    time.Time
	LastSeen     time.Time
	mu           sync.RWMutex
}

// NewNode creates a node with the given key
func NewNode(key Key) *Node {
	now := time.Now()
	return &Node{
		Key:       key,
		FirstSeen: now,
		LastSeen:  now,
	}
}

// Touch records a management packet from the node
func (n *Node) Touch(h *tcnet.ManagementHeader, addr *net.UDPAddr) {
	n.mu.Lock()
	n.NodeType = h.NodeType
	n.mu.Unlock()

	n.Seen(addr)
}

// Seen records any packet from the node
func (n *Node) Seen(addr *net.UDPAddr) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if addr != nil {
		n.Addr = addr
	}
	n.PacketCount++
	n.LastSeen = time.Now()
}

// ApplyOptIn stores the identity announced by an OptIn packet
func (n *Node) ApplyOptIn(p *tcnet.OptInPacket) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.ListenerPort = p.ListenerPort
	n.Vendor = p.VendorName
	n.App = p.AppName
	n.Version = fmt.Sprintf("%d.%d.%d", p.MajorVersion, p.MinorVersion, p.BugVersion)
	n.Uptime = p.Uptime
}

// SetListenerPort stores the port the node accepts unicast requests on
func (n *Node) SetListenerPort(port uint16) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ListenerPort = port
}

// RequestAddr returns where Request packets for this node should go.
// ok is false until both an address and a listener port are known.
func (n *Node) RequestAddr() (addr *net.UDPAddr, ok bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.Addr == nil || n.ListenerPort == 0 {
		return nil, false
	}
	return &net.UDPAddr{IP: n.Addr.IP, Port: int(n.ListenerPort)}, true
}

// Info is a snapshot of a node for display
type Info struct {
	Key          Key
	NodeType     tcnet.NodeType
	ListenerPort uint16
	Vendor       string
	App          string
	Version      string
	Uptime       uint16
	PacketCount  uint64
	LastSeen     time.Time
}

// GetInfo returns a copy of the node's fields
func (n *Node) GetInfo() Info {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return Info{
		Key:          n.Key,
		NodeType:     n.NodeType,
		ListenerPort: n.ListenerPort,
		Vendor:       n.Vendor,
		App:          n.App,
		Version:      n.Version,
		Uptime:       n.Uptime,
		PacketCount:  n.PacketCount,
		LastSeen:     n.LastSeen,
	}
}

// IsStale returns true if the node hasn't sent anything for the given duration
func (n *Node) IsStale(timeout time.Duration) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return time.Since(n.LastSeen) > timeout
}
