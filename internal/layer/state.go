// Package layer tracks per-layer track IDs and transport status across
// successive Status broadcasts and reports which layers changed.
package layer

import (
	"errors"
	"fmt"
	"sync"

	"tcnet-monitor/internal/tcnet"
)

// UnknownTrackID is the track ID of a layer that has not been reported yet
const UnknownTrackID int64 = -1

// ErrInvalidLayerCount means a per-layer array did not have exactly 8 values
var ErrInvalidLayerCount = errors.New("invalid layer count")

// Array converts a slice into a fixed per-layer array. Any length other
// than tcnet.LayerCount is a contract violation.
func Array[T any](values []T) ([tcnet.LayerCount]T, error) {
	var out [tcnet.LayerCount]T
	if len(values) != tcnet.LayerCount {
		return out, fmt.Errorf("%w: got %d values, want %d", ErrInvalidLayerCount, len(values), tcnet.LayerCount)
	}
	copy(out[:], values)
	return out, nil
}

// State holds the last observed track ID and status of every layer.
// It is not safe for concurrent use; see Tracker.
type State struct {
	trackID [tcnet.LayerCount]int64
	status  [tcnet.LayerCount]tcnet.LayerStatus
}

// NewState returns a state with every track ID unknown and every layer idle
func NewState() *State {
	s := &State{}
	for i := range s.trackID {
		s.trackID[i] = UnknownTrackID
	}
	return s
}

// UpdateTrackIDs stores values and returns the layers whose track ID
// changed, in ascending order.
func (s *State) UpdateTrackIDs(values [tcnet.LayerCount]int64) []tcnet.LayerIndex {
	var changed []tcnet.LayerIndex
	for i, v := range values {
		if s.trackID[i] != v {
			s.trackID[i] = v
			changed = append(changed, tcnet.LayerIndex(i+1))
		}
	}
	return changed
}

// UpdateStatus stores values and returns the layers whose status
// changed, in ascending order.
func (s *State) UpdateStatus(values [tcnet.LayerCount]tcnet.LayerStatus) []tcnet.LayerIndex {
	var changed []tcnet.LayerIndex
	for i, v := range values {
		if s.status[i] != v {
			s.status[i] = v
			changed = append(changed, tcnet.LayerIndex(i+1))
		}
	}
	return changed
}

// UpdateTrackIDsSlice is UpdateTrackIDs for callers holding a slice
func (s *State) UpdateTrackIDsSlice(values []int64) ([]tcnet.LayerIndex, error) {
	arr, err := Array(values)
	if err != nil {
		return nil, err
	}
	return s.UpdateTrackIDs(arr), nil
}

// UpdateStatusSlice is UpdateStatus for callers holding a slice
func (s *State) UpdateStatusSlice(values []tcnet.LayerStatus) ([]tcnet.LayerIndex, error) {
	arr, err := Array(values)
	if err != nil {
		return nil, err
	}
	return s.UpdateStatus(arr), nil
}

// TrackID returns the stored track ID of l, or UnknownTrackID for an invalid layer
func (s *State) TrackID(l tcnet.LayerIndex) int64 {
	if !l.Valid() {
		return UnknownTrackID
	}
	return s.trackID[l.Slot()]
}

// Status returns the stored status of l
func (s *State) Status(l tcnet.LayerIndex) tcnet.LayerStatus {
	if !l.Valid() {
		return tcnet.StatusIdle
	}
	return s.status[l.Slot()]
}

// Update is the result of applying one Status broadcast
type Update struct {
	TrackChanged  []tcnet.LayerIndex
	StatusChanged []tcnet.LayerIndex
}

// Changed returns the ascending union of both change sets
func (u Update) Changed() []tcnet.LayerIndex {
	var seen [tcnet.LayerCount + 1]bool
	for _, set := range [][]tcnet.LayerIndex{u.TrackChanged, u.StatusChanged} {
		for _, l := range set {
			if l.Valid() {
				seen[l] = true
			}
		}
	}
	var out []tcnet.LayerIndex
	for _, l := range tcnet.AllLayers() {
		if seen[l] {
			out = append(out, l)
		}
	}
	return out
}

// Empty reports whether nothing changed
func (u Update) Empty() bool {
	return len(u.TrackChanged) == 0 && len(u.StatusChanged) == 0
}

// Tracker serializes updates to a State so both arrays always reflect
// the same broadcast.
type Tracker struct {
	state *State
	mu    sync.RWMutex
}

// NewTracker creates a new tracker with a fresh state
func NewTracker() *Tracker {
	return &Tracker{state: NewState()}
}

// Apply updates track IDs and status from one Status packet
func (t *Tracker) Apply(p *tcnet.StatusPacket) Update {
	var ids [tcnet.LayerCount]int64
	for i, id := range p.TrackID {
		ids[i] = int64(id)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return Update{
		TrackChanged:  t.state.UpdateTrackIDs(ids),
		StatusChanged: t.state.UpdateStatus(p.LayerStatus),
	}
}

// TrackID returns the last track ID seen on l
func (t *Tracker) TrackID(l tcnet.LayerIndex) int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.TrackID(l)
}

// Status returns the last status seen on l
func (t *Tracker) Status(l tcnet.LayerIndex) tcnet.LayerStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Status(l)
}

// Reset forgets everything, as if no broadcast had been seen
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = NewState()
}
