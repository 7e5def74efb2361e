// Package nodes keeps the registry of TCNet nodes discovered on the network.
package nodes

import (
	"sort"
	"sync"
	"time"
)

// Manager manages all discovered nodes
type Manager struct {
	nodes map[Key]*Node
	mu    sync.RWMutex
}

// NewManager creates a new node manager
func NewManager() *Manager {
	return &Manager{
		nodes: make(map[Key]*Node),
	}
}

// GetOrCreate returns the node with the given key, creating it if it doesn't exist.
// created reports whether the node is new.
func (m *Manager) GetOrCreate(key Key) (n *Node, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n, exists := m.nodes[key]; exists {
		return n, false
	}

	n = NewNode(key)
	m.nodes[key] = n
	return n, true
}

// Get returns the node with the given key, or nil if it doesn't exist
func (m *Manager) Get(key Key) *Node {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nodes[key]
}

// GetAll returns all nodes sorted by name, then node ID, then address
func (m *Manager) GetAll() []*Node {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		result = append(result, n)
	}
	sortNodes(result)
	return result
}

// GetActive returns all nodes that have sent something within the timeout
func (m *Manager) GetActive(timeout time.Duration) []*Node {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		if !n.IsStale(timeout) {
			result = append(result, n)
		}
	}
	sortNodes(result)
	return result
}

func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		a, b := nodes[i].Key, nodes[j].Key
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.NodeID != b.NodeID {
			return a.NodeID < b.NodeID
		}
		return a.IP < b.IP
	})
}

// Count returns the number of known nodes
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.nodes)
}

// Remove removes a node. It reports whether the node was known.
func (m *Manager) Remove(key Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.nodes[key]; !exists {
		return false
	}
	delete(m.nodes, key)
	return true
}

// PruneStale removes all nodes that haven't sent anything within the
// timeout and returns their keys
func (m *Manager) PruneStale(timeout time.Duration) []Key {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pruned []Key
	for key, n := range m.nodes {
		if n.IsStale(timeout) {
			delete(m.nodes, key)
			pruned = append(pruned, key)
		}
	}
	return pruned
}
