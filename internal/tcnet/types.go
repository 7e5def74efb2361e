package tcnet

import (
	"fmt"
	"strings"
)

// TCNet protocol constants
const (
	BroadcastPort       = 60000
	TimePort            = 60001
	DefaultListenerPort = 65023
	HeaderSize          = 24
	MajorVersion        = 3
	DefaultMinorVersion = 5
	LayerCount          = 8
	MaxPacketSize       = 4096
	NodeNameSize        = 8
)

// Magic is the 3-byte protocol identifier at offset 4 of every header
var Magic = []byte("TCN")

// MessageType is the management header message tag
type MessageType uint8

const (
	MessageOptIn           MessageType = 2
	MessageOptOut          MessageType = 3
	MessageStatus          MessageType = 5
	MessageTimeSync        MessageType = 10
	MessageError           MessageType = 13
	MessageRequest         MessageType = 20
	MessageApplicationData MessageType = 30
	MessageControl         MessageType = 101
	MessageText            MessageType = 128
	MessageKeyboard        MessageType = 132
	MessageData            MessageType = 200
	MessageFile            MessageType = 204
	MessageTime            MessageType = 254
)

var messageTypeNames = map[MessageType]string{
	MessageOptIn:           "OptIn",
	MessageOptOut:          "OptOut",
	MessageStatus:          "Status",
	MessageTimeSync:        "TimeSync",
	MessageError:           "Error",
	MessageRequest:         "Request",
	MessageApplicationData: "ApplicationData",
	MessageControl:         "Control",
	MessageText:            "Text",
	MessageKeyboard:        "Keyboard",
	MessageData:            "Data",
	MessageFile:            "File",
	MessageTime:            "Time",
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint8(t))
}

// DataType selects the payload of a Data message
type DataType uint8

const (
	DataMetrics       DataType = 2
	DataMetadata      DataType = 4
	DataBeatGrid      DataType = 8
	DataCue           DataType = 12
	DataSmallWaveform DataType = 16
	DataBigWaveform   DataType = 32
	DataMixer         DataType = 150
)

var dataTypeNames = map[DataType]string{
	DataMetrics:       "Metrics",
	DataMetadata:      "Metadata",
	DataBeatGrid:      "BeatGrid",
	DataCue:           "Cue",
	DataSmallWaveform: "SmallWaveform",
	DataBigWaveform:   "BigWaveform",
	DataMixer:         "Mixer",
}

func (t DataType) String() string {
	if name, ok := dataTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint8(t))
}

// ParseDataType maps a name such as "metrics" to its tag
func ParseDataType(name string) (DataType, error) {
	for t, n := range dataTypeNames {
		if strings.EqualFold(n, name) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown data type %q", name)
}

// NodeType is the node role bitmask in the management header
type NodeType uint8

const (
	NodeAuto     NodeType = 1
	NodeMaster   NodeType = 2
	NodeSlave    NodeType = 4
	NodeRepeater NodeType = 8
)

func (t NodeType) String() string {
	switch t {
	case NodeAuto:
		return "Auto"
	case NodeMaster:
		return "Master"
	case NodeSlave:
		return "Slave"
	case NodeRepeater:
		return "Repeater"
	}
	return fmt.Sprintf("NodeType(%d)", uint8(t))
}

// LayerStatus is the transport state of a layer
type LayerStatus uint8

const (
	StatusIdle        LayerStatus = 0
	StatusPlaying     LayerStatus = 3
	StatusLooping     LayerStatus = 4
	StatusPaused      LayerStatus = 5
	StatusStopped     LayerStatus = 6
	StatusCueDown     LayerStatus = 7
	StatusPlatterDown LayerStatus = 8
	StatusFastForward LayerStatus = 9
	StatusFastReverse LayerStatus = 10
	StatusHold        LayerStatus = 11
	StatusCuePlay     LayerStatus = 17
)

var layerStatusNames = map[LayerStatus]string{
	StatusIdle:        "Idle",
	StatusPlaying:     "Playing",
	StatusLooping:     "Looping",
	StatusPaused:      "Paused",
	StatusStopped:     "Stopped",
	StatusCueDown:     "CueDown",
	StatusPlatterDown: "PlatterDown",
	StatusFastForward: "FFwd",
	StatusFastReverse: "FFRev",
	StatusHold:        "Hold",
	StatusCuePlay:     "CuePlay",
}

func (s LayerStatus) String() string {
	if name, ok := layerStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// SyncRole reports whether a layer is the tempo reference
type SyncRole uint8

const (
	SyncSlave  SyncRole = 0
	SyncMaster SyncRole = 1
)

func (s SyncRole) String() string {
	if s == SyncMaster {
		return "Master"
	}
	return "Slave"
}

// TimecodeState is the running state of a layer timecode
type TimecodeState uint8

const (
	TimecodeStopped     TimecodeState = 0
	TimecodeRunning     TimecodeState = 1
	TimecodeForceResync TimecodeState = 2
)

func (s TimecodeState) String() string {
	switch s {
	case TimecodeStopped:
		return "Stopped"
	case TimecodeRunning:
		return "Running"
	case TimecodeForceResync:
		return "ForceResync"
	}
	return fmt.Sprintf("TimecodeState(%d)", uint8(s))
}

// BeatType marks a beat grid entry
type BeatType uint8

const (
	BeatUpbeat   BeatType = 10
	BeatDownbeat BeatType = 20
)

// LayerIndex is the 1-based layer number used on the wire
type LayerIndex uint8

const (
	Layer1 LayerIndex = iota + 1
	Layer2
	Layer3
	Layer4
	LayerA
	LayerB
	LayerM
	LayerC
)

var layerNames = [LayerCount]string{"1", "2", "3", "4", "A", "B", "M", "C"}

// Valid reports whether l is within 1..8
func (l LayerIndex) Valid() bool {
	return l >= Layer1 && l <= LayerC
}

// Slot returns the 0-based array position of l
func (l LayerIndex) Slot() int {
	return int(l) - 1
}

func (l LayerIndex) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Layer(%d)", uint8(l))
	}
	return layerNames[l.Slot()]
}

// AllLayers lists every layer in ascending order
func AllLayers() [LayerCount]LayerIndex {
	return [LayerCount]LayerIndex{Layer1, Layer2, Layer3, Layer4, LayerA, LayerB, LayerM, LayerC}
}
