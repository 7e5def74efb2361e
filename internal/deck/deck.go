package deck

import (
	"sync"
	"time"

	"tcnet-monitor/internal/tcnet"
)

// TrackInfo is the metadata of the track loaded on a layer
type TrackInfo struct {
	TrackID uint32
	Artist  string
	Title   string
	Key     string
}

// LayerMetrics is the playback state of a layer
type LayerMetrics struct {
	State           tcnet.LayerStatus
	SyncMaster      tcnet.SyncRole
	BeatMarker      uint8
	TrackLength     uint32 // ms
	CurrentPosition uint32 // ms
	Speed           uint32
	BeatNumber      uint32
	BPM             float64
	PitchBend       uint16
	TrackID         uint32
}

// BeatGridData is the content of one beat grid packet
type BeatGridData struct {
	DataSize    uint32
	TotalPacket uint32
	PacketNo    uint32
	Beats       []tcnet.BeatGridEntry
}

// MixerData is a mixer snapshot
type MixerData struct {
	ID               uint8
	Type             uint8
	Name             string
	MasterAudioLevel uint8
	MasterFaderLevel uint8
	CrossFader       uint8
	Channels         [tcnet.MixerChannels]tcnet.MixerChannel
}

// TrackInfoFrom projects a Metadata packet
func TrackInfoFrom(p *tcnet.MetadataPacket) TrackInfo {
	return TrackInfo{
		TrackID: p.TrackID,
		Artist:  p.TrackArtist,
		Title:   p.TrackTitle,
		Key:     p.TrackKey,
	}
}

// MetricsFrom projects a Metrics packet
func MetricsFrom(p *tcnet.MetricsPacket) LayerMetrics {
	return LayerMetrics{
		State:           p.State,
		SyncMaster:      p.SyncMaster,
		BeatMarker:      p.BeatMarker,
		TrackLength:     p.TrackLength,
		CurrentPosition: p.CurrentPosition,
		Speed:           p.Speed,
		BeatNumber:      p.BeatNumber,
		BPM:             p.BPM,
		PitchBend:       p.PitchBend,
		TrackID:         p.TrackID,
	}
}

// BeatGridFrom projects a BeatGrid packet. Trailing empty entries are dropped.
func BeatGridFrom(p *tcnet.BeatGridPacket) BeatGridData {
	n := len(p.Entries)
	for n > 0 && p.Entries[n-1] == (tcnet.BeatGridEntry{}) {
		n--
	}
	beats := make([]tcnet.BeatGridEntry, n)
	copy(beats, p.Entries[:n])
	return BeatGridData{
		DataSize:    p.DataSize,
		TotalPacket: p.TotalPacket,
		PacketNo:    p.PacketNo,
		Beats:       beats,
	}
}

// MixerFrom projects a Mixer packet
func MixerFrom(p *tcnet.MixerPacket) MixerData {
	return MixerData{
		ID:               p.MixerID,
		Type:             p.MixerType,
		Name:             p.MixerName,
		MasterAudioLevel: p.MasterAudioLevel,
		MasterFaderLevel: p.MasterFaderLevel,
		CrossFader:       p.CrossFader,
		Channels:         p.Channels,
	}
}

// Layer is the display state of one layer. Optional projections stay nil
// until the matching data packet arrives.
type Layer struct {
	Index       tcnet.LayerIndex
	Name        string
	Source      uint8
	Status      tcnet.LayerStatus
	TrackID     int64
	CurrentTime uint32 // ms
	TotalTime   uint32 // ms
	BeatMarker  uint8
	Timecode    tcnet.Timecode
	Metrics     *LayerMetrics
	Track       *TrackInfo
	BeatGrid    *BeatGridData
	LastUpdate  time.Time
}

// Board holds the eight layers and the last mixer snapshot
type Board struct {
	layers [tcnet.LayerCount]Layer
	mixer  *MixerData
	mu     sync.RWMutex
}

// NewBoard creates a board with every layer empty
func NewBoard() *Board {
	b := &Board{}
	for i, l := range tcnet.AllLayers() {
		b.layers[i] = Layer{Index: l, TrackID: -1}
	}
	return b
}

// ApplyStatus updates names, sources, status and track IDs
func (b *Board) ApplyStatus(p *tcnet.StatusPacket) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	for i := range b.layers {
		l := &b.layers[i]
		l.Name = p.LayerName[i]
		l.Source = p.LayerSource[i]
		l.Status = p.LayerStatus[i]
		l.TrackID = int64(p.TrackID[i])
		l.LastUpdate = now
	}
}

// ApplyTime updates transport positions and timecodes
func (b *Board) ApplyTime(p *tcnet.TimePacket) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.layers {
		l := &b.layers[i]
		l.CurrentTime = p.CurrentTime[i]
		l.TotalTime = p.TotalTime[i]
		l.BeatMarker = p.BeatMarker[i]
		l.Timecode = p.Timecode[i]
	}
}

// ApplyMetrics stores metrics for the packet's layer. It reports false
// when the layer index is out of range.
func (b *Board) ApplyMetrics(p *tcnet.MetricsPacket) bool {
	m := MetricsFrom(p)
	return b.update(p.Layer, func(l *Layer) { l.Metrics = &m })
}

// ApplyMetadata stores track info for the packet's layer
func (b *Board) ApplyMetadata(p *tcnet.MetadataPacket) bool {
	info := TrackInfoFrom(p)
	return b.update(p.Layer, func(l *Layer) { l.Track = &info })
}

// ApplyBeatGrid stores the beat grid packet for the packet's layer
func (b *Board) ApplyBeatGrid(p *tcnet.BeatGridPacket) bool {
	grid := BeatGridFrom(p)
	return b.update(p.Layer, func(l *Layer) { l.BeatGrid = &grid })
}

// ApplyMixer stores the mixer snapshot
func (b *Board) ApplyMixer(p *tcnet.MixerPacket) {
	m := MixerFrom(p)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.mixer = &m
}

// ClearTrack drops the projections tied to the previous track on l
func (b *Board) ClearTrack(index tcnet.LayerIndex) bool {
	return b.update(index, func(l *Layer) {
		l.Track = nil
		l.Metrics = nil
		l.BeatGrid = nil
	})
}

func (b *Board) update(index tcnet.LayerIndex, fn func(*Layer)) bool {
	if !index.Valid() {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	l := &b.layers[index.Slot()]
	fn(l)
	l.LastUpdate = time.Now()
	return true
}

// Layer returns a copy of one layer
func (b *Board) Layer(index tcnet.LayerIndex) (Layer, bool) {
	if !index.Valid() {
		return Layer{}, false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.layers[index.Slot()], true
}

// Layers returns a copy of every layer
func (b *Board) Layers() [tcnet.LayerCount]Layer {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.layers
}

// Mixer returns the last mixer snapshot, if any
func (b *Board) Mixer() (MixerData, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.mixer == nil {
		return MixerData{}, false
	}
	return *b.mixer, true
}

// IsStale returns true if the layer hasn't been updated for the given duration
func (b *Board) IsStale(index tcnet.LayerIndex, timeout time.Duration) bool {
	l, ok := b.Layer(index)
	if !ok || l.LastUpdate.IsZero() {
		return true
	}
	return time.Since(l.LastUpdate) > timeout
}
