package layer

import (
	"encoding/binary"
	"errors"
	"reflect"
	"sync"
	"testing"

	"tcnet-monitor/internal/tcnet"
)

func TestNewState(t *testing.T) {
	s := NewState()

	for _, l := range tcnet.AllLayers() {
		if s.TrackID(l) != UnknownTrackID {
			t.Errorf("TrackID(%v) = %d, want -1", l, s.TrackID(l))
		}
		if s.Status(l) != tcnet.StatusIdle {
			t.Errorf("Status(%v) = %v, want Idle", l, s.Status(l))
		}
	}
}

func TestState_UpdateTrackIDs(t *testing.T) {
	s := NewState()

	changed := s.UpdateTrackIDs([tcnet.LayerCount]int64{5, 5, -1, -1, -1, -1, -1, -1})
	want := []tcnet.LayerIndex{tcnet.Layer1, tcnet.Layer2}
	if !reflect.DeepEqual(changed, want) {
		t.Errorf("UpdateTrackIDs() = %v, want %v", changed, want)
	}
	if s.TrackID(tcnet.Layer1) != 5 {
		t.Errorf("TrackID(Layer1) = %d, want 5", s.TrackID(tcnet.Layer1))
	}

	changed = s.UpdateTrackIDs([tcnet.LayerCount]int64{5, 5, -1, -1, -1, -1, -1, -1})
	if len(changed) != 0 {
		t.Errorf("second UpdateTrackIDs() = %v, want empty", changed)
	}
}

func TestState_UpdateStatus(t *testing.T) {
	s := NewState()
	values := [tcnet.LayerCount]tcnet.LayerStatus{3, 3, 0, 0, 0, 0, 0, 0}

	changed := s.UpdateStatus(values)
	want := []tcnet.LayerIndex{tcnet.Layer1, tcnet.Layer2}
	if !reflect.DeepEqual(changed, want) {
		t.Errorf("UpdateStatus() = %v, want %v", changed, want)
	}

	if changed := s.UpdateStatus(values); len(changed) != 0 {
		t.Errorf("second UpdateStatus() = %v, want empty", changed)
	}
}

func TestState_ChangesAreAscending(t *testing.T) {
	s := NewState()

	changed := s.UpdateTrackIDs([tcnet.LayerCount]int64{-1, 2, -1, 4, -1, 6, -1, 8})
	want := []tcnet.LayerIndex{tcnet.Layer2, tcnet.Layer4, tcnet.LayerB, tcnet.LayerC}
	if !reflect.DeepEqual(changed, want) {
		t.Errorf("UpdateTrackIDs() = %v, want %v", changed, want)
	}
}

func TestState_SliceLength(t *testing.T) {
	tests := []struct {
		name   string
		values []int64
	}{
		{"empty", nil},
		{"seven", make([]int64, 7)},
		{"nine", make([]int64, 9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			_, err := s.UpdateTrackIDsSlice(tt.values)
			if !errors.Is(err, ErrInvalidLayerCount) {
				t.Errorf("UpdateTrackIDsSlice() error = %v, want ErrInvalidLayerCount", err)
			}
			if s.TrackID(tcnet.Layer1) != UnknownTrackID {
				t.Error("state was modified by a rejected update")
			}
		})
	}

	s := NewState()
	if _, err := s.UpdateStatusSlice(make([]tcnet.LayerStatus, 3)); !errors.Is(err, ErrInvalidLayerCount) {
		t.Errorf("UpdateStatusSlice() error = %v, want ErrInvalidLayerCount", err)
	}

	changed, err := s.UpdateStatusSlice([]tcnet.LayerStatus{0, 0, 0, 0, 0, 0, 0, tcnet.StatusPlaying})
	if err != nil {
		t.Fatalf("UpdateStatusSlice() returned error: %v", err)
	}
	if !reflect.DeepEqual(changed, []tcnet.LayerIndex{tcnet.LayerC}) {
		t.Errorf("UpdateStatusSlice() = %v, want [C]", changed)
	}
}

func TestState_InvalidLayerLookup(t *testing.T) {
	s := NewState()

	if s.TrackID(tcnet.LayerIndex(0)) != UnknownTrackID {
		t.Error("TrackID(0) should be unknown")
	}
	if s.Status(tcnet.LayerIndex(9)) != tcnet.StatusIdle {
		t.Error("Status(9) should be idle")
	}
}

// buildStatusPacket decodes a wire Status packet with the given layer bytes
func buildStatusPacket(t *testing.T, status [tcnet.LayerCount]byte, trackIDs [tcnet.LayerCount]uint32) *tcnet.StatusPacket {
	t.Helper()

	buf := make([]byte, tcnet.StatusLength)
	buf[2] = tcnet.MajorVersion
	copy(buf[4:7], tcnet.Magic)
	buf[7] = byte(tcnet.MessageStatus)
	for i := 0; i < tcnet.LayerCount; i++ {
		buf[42+i] = status[i]
		binary.LittleEndian.PutUint32(buf[50+i*4:], trackIDs[i])
	}

	p, err := tcnet.Parse(buf)
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}
	return p.(*tcnet.StatusPacket)
}

func TestTracker_ApplyStatusPacket(t *testing.T) {
	tracker := NewTracker()
	p := buildStatusPacket(t, [tcnet.LayerCount]byte{3, 3, 0, 0, 0, 0, 0, 0}, [tcnet.LayerCount]uint32{})

	u := tracker.Apply(p)

	want := []tcnet.LayerIndex{tcnet.Layer1, tcnet.Layer2}
	if !reflect.DeepEqual(u.StatusChanged, want) {
		t.Errorf("StatusChanged = %v, want %v", u.StatusChanged, want)
	}
	// every track ID moves from unknown to 0
	if len(u.TrackChanged) != tcnet.LayerCount {
		t.Errorf("len(TrackChanged) = %d, want 8", len(u.TrackChanged))
	}
	if tracker.Status(tcnet.Layer1) != tcnet.StatusPlaying {
		t.Errorf("Status(Layer1) = %v, want Playing", tracker.Status(tcnet.Layer1))
	}

	if u := tracker.Apply(p); !u.Empty() {
		t.Errorf("second Apply() = %+v, want empty", u)
	}
}

func TestUpdate_Changed(t *testing.T) {
	u := Update{
		TrackChanged:  []tcnet.LayerIndex{tcnet.Layer3, tcnet.LayerM},
		StatusChanged: []tcnet.LayerIndex{tcnet.Layer1, tcnet.Layer3},
	}

	want := []tcnet.LayerIndex{tcnet.Layer1, tcnet.Layer3, tcnet.LayerM}
	if got := u.Changed(); !reflect.DeepEqual(got, want) {
		t.Errorf("Changed() = %v, want %v", got, want)
	}
	if u.Empty() {
		t.Error("Empty() = true, want false")
	}
	if !(Update{}).Empty() {
		t.Error("zero Update is not empty")
	}
	if got := (Update{}).Changed(); len(got) != 0 {
		t.Errorf("zero Update Changed() = %v, want empty", got)
	}
}

func TestTracker_Reset(t *testing.T) {
	tracker := NewTracker()
	tracker.Apply(buildStatusPacket(t, [tcnet.LayerCount]byte{3}, [tcnet.LayerCount]uint32{77}))

	tracker.Reset()

	if tracker.TrackID(tcnet.Layer1) != UnknownTrackID {
		t.Errorf("TrackID(Layer1) = %d after Reset, want -1", tracker.TrackID(tcnet.Layer1))
	}
}

func TestTracker_ConcurrentApply(t *testing.T) {
	tracker := NewTracker()
	a := buildStatusPacket(t, [tcnet.LayerCount]byte{3, 3, 3, 3, 3, 3, 3, 3}, [tcnet.LayerCount]uint32{1, 1, 1, 1, 1, 1, 1, 1})
	b := buildStatusPacket(t, [tcnet.LayerCount]byte{5, 5, 5, 5, 5, 5, 5, 5}, [tcnet.LayerCount]uint32{2, 2, 2, 2, 2, 2, 2, 2})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); tracker.Apply(a) }()
		go func() { defer wg.Done(); tracker.Apply(b) }()
	}
	wg.Wait()

	// both arrays must come from the same packet
	for _, l := range tcnet.AllLayers() {
		id, st := tracker.TrackID(l), tracker.Status(l)
		if (id == 1) != (st == tcnet.StatusPlaying) {
			t.Errorf("layer %v: track %d with status %v come from different packets", l, id, st)
		}
	}
}
