package tcnet

import (
	"encoding/binary"
	"errors"
	"testing"
)

func testHeader() ManagementHeader {
	return ManagementHeader{
		NodeID:       7,
		MinorVersion: DefaultMinorVersion,
		NodeName:     "TCMON",
		Sequence:     9,
		NodeType:     NodeAuto,
		Timestamp:    5000,
	}
}

func TestOptIn_RoundTrip(t *testing.T) {
	in := &OptInPacket{
		Header:       testHeader(),
		NodeCount:    3,
		ListenerPort: DefaultListenerPort,
		Uptime:       600,
		VendorName:   "ExampleVendor",
		AppName:      "tcnet-monitor",
		MajorVersion: 1,
		MinorVersion: 2,
		BugVersion:   3,
	}

	buf, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() returned error: %v", err)
	}
	if len(buf) != OptInLength {
		t.Fatalf("len(buf) = %d, want %d", len(buf), OptInLength)
	}

	p, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}
	out, ok := p.(*OptInPacket)
	if !ok {
		t.Fatalf("Parse() returned %T, want *OptInPacket", p)
	}

	in.Header.MessageType = MessageOptIn
	if *out != *in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestOptIn_FullWidthStrings(t *testing.T) {
	in := &OptInPacket{
		Header:     testHeader(),
		VendorName: "0123456789ABCDEF",
		AppName:    "FEDCBA9876543210",
	}

	buf, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() returned error: %v", err)
	}
	p, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}
	out := p.(*OptInPacket)
	if out.VendorName != in.VendorName || out.AppName != in.AppName {
		t.Errorf("strings = %q/%q, want %q/%q", out.VendorName, out.AppName, in.VendorName, in.AppName)
	}
}

func TestOptIn_VendorTooLong(t *testing.T) {
	in := &OptInPacket{Header: testHeader(), VendorName: "0123456789ABCDEFG"}

	_, err := Marshal(in)
	if !errors.Is(err, ErrFieldTooLong) {
		t.Errorf("Marshal() error = %v, want ErrFieldTooLong", err)
	}
}

func TestOptOut_RoundTrip(t *testing.T) {
	in := &OptOutPacket{Header: testHeader(), NodeCount: 2, ListenerPort: 65100}

	buf, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() returned error: %v", err)
	}
	p, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}

	in.Header.MessageType = MessageOptOut
	if out := p.(*OptOutPacket); *out != *in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestRequest_RoundTrip(t *testing.T) {
	in := &RequestPacket{Header: testHeader(), DataType: DataMetadata, Layer: LayerB}

	buf, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() returned error: %v", err)
	}
	if len(buf) != RequestLength {
		t.Fatalf("len(buf) = %d, want %d", len(buf), RequestLength)
	}
	if buf[24] != byte(DataMetadata) || buf[25] != 6 {
		t.Errorf("payload bytes = %d,%d, want 4,6", buf[24], buf[25])
	}

	p, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}

	in.Header.MessageType = MessageRequest
	if out := p.(*RequestPacket); *out != *in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestApplicationData_RoundTrip(t *testing.T) {
	in := &ApplicationDataPacket{
		Header:          testHeader(),
		DataType:        DataMetrics,
		Layer:           Layer3,
		TotalDataSize:   4096,
		TotalPackets:    2,
		PacketNo:        1,
		PacketSignature: 0xcafebabe,
	}

	buf, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() returned error: %v", err)
	}
	if buf[7] != byte(MessageApplicationData) {
		t.Errorf("message type byte = %d, want %d", buf[7], MessageApplicationData)
	}

	p, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}

	in.Header.MessageType = MessageApplicationData
	if out := p.(*ApplicationDataPacket); *out != *in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestEncode_ShortBuffer(t *testing.T) {
	p := &RequestPacket{Header: testHeader()}

	err := p.Encode(make([]byte, RequestLength-1))
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Encode() error = %v, want ErrOutOfBounds", err)
	}
}

// buildStatus creates a Status packet with the given per-layer values
func buildStatus(status [LayerCount]byte, trackIDs [LayerCount]uint32, names [LayerCount]string) []byte {
	buf := buildHeader(MessageStatus, StatusLength)

	binary.LittleEndian.PutUint16(buf[24:], 1)
	binary.LittleEndian.PutUint16(buf[26:], 65200)
	for i := 0; i < LayerCount; i++ {
		buf[34+i] = byte(i + 1)
		buf[42+i] = status[i]
		binary.LittleEndian.PutUint32(buf[50+i*4:], trackIDs[i])
		copy(buf[172+i*16:172+(i+1)*16], names[i])
	}
	buf[83] = 30
	buf[84] = 1
	return buf
}

func TestStatus_Decode(t *testing.T) {
	status := [LayerCount]byte{3, 3, 0, 0, 0, 0, 0, 0}
	tracks := [LayerCount]uint32{101, 202, 0, 0, 0, 0, 0, 99}
	names := [LayerCount]string{"Deck 1", "Deck 2", "", "", "", "", "Master", "0123456789ABCDEF"}

	p, err := Parse(buildStatus(status, tracks, names))
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}
	s, ok := p.(*StatusPacket)
	if !ok {
		t.Fatalf("Parse() returned %T, want *StatusPacket", p)
	}

	if s.NodeCount != 1 || s.ListenerPort != 65200 {
		t.Errorf("NodeCount/ListenerPort = %d/%d, want 1/65200", s.NodeCount, s.ListenerPort)
	}
	if s.LayerStatus[0] != StatusPlaying || s.LayerStatus[1] != StatusPlaying || s.LayerStatus[2] != StatusIdle {
		t.Errorf("LayerStatus = %v", s.LayerStatus)
	}
	if s.TrackID != tracks {
		t.Errorf("TrackID = %v, want %v", s.TrackID, tracks)
	}
	if s.LayerName != names {
		t.Errorf("LayerName = %q, want %q", s.LayerName, names)
	}
	if s.LayerSource[7] != 8 {
		t.Errorf("LayerSource[7] = %d, want 8", s.LayerSource[7])
	}
	if s.SMPTEMode != 30 || s.AutoMasterMode != 1 {
		t.Errorf("SMPTEMode/AutoMasterMode = %d/%d, want 30/1", s.SMPTEMode, s.AutoMasterMode)
	}
}

func TestDecode_Truncated(t *testing.T) {
	tests := []struct {
		name        string
		messageType MessageType
		length      int
	}{
		{"OptIn", MessageOptIn, OptInLength},
		{"OptOut", MessageOptOut, OptOutLength},
		{"Status", MessageStatus, StatusLength},
		{"Request", MessageRequest, RequestLength},
		{"ApplicationData", MessageApplicationData, ApplicationDataLength},
		{"Time", MessageTime, TimeLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, size := range []int{HeaderSize, tt.length - 1} {
				_, err := Parse(buildHeader(tt.messageType, size))
				if !errors.Is(err, ErrTruncatedPacket) {
					t.Errorf("Parse(%d bytes) error = %v, want ErrTruncatedPacket", size, err)
				}
			}
		})
	}
}

func TestStatus_TenByteBuffer(t *testing.T) {
	codec, ok := ResolveMessageCodec(MessageStatus)
	if !ok {
		t.Fatal("ResolveMessageCodec(Status) not found")
	}

	_, err := codec(ManagementHeader{MessageType: MessageStatus}, make([]byte, 10))
	if !errors.Is(err, ErrTruncatedPacket) {
		t.Errorf("decode error = %v, want ErrTruncatedPacket", err)
	}
}

func TestTime_Decode(t *testing.T) {
	buf := buildHeader(MessageTime, TimeLength)
	for i := 0; i < LayerCount; i++ {
		binary.LittleEndian.PutUint32(buf[24+i*4:], uint32(1000*(i+1)))
		binary.LittleEndian.PutUint32(buf[56+i*4:], uint32(300000+i))
		buf[88+i] = byte(i % 4)
		buf[96+i] = byte(StatusPaused)
	}
	buf[105] = 25
	// Layer 2 timecode 01:02:03:04, running
	copy(buf[112:118], []byte{1, 1, 1, 2, 3, 4})

	p, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}
	tp := p.(*TimePacket)

	if tp.CurrentTime[2] != 3000 {
		t.Errorf("CurrentTime[2] = %d, want 3000", tp.CurrentTime[2])
	}
	if tp.TotalTime[7] != 300007 {
		t.Errorf("TotalTime[7] = %d, want 300007", tp.TotalTime[7])
	}
	if tp.BeatMarker[3] != 3 {
		t.Errorf("BeatMarker[3] = %d, want 3", tp.BeatMarker[3])
	}
	if tp.LayerState[0] != StatusPaused {
		t.Errorf("LayerState[0] = %v, want Paused", tp.LayerState[0])
	}
	if tp.GeneralSMPTEMode != 25 {
		t.Errorf("GeneralSMPTEMode = %d, want 25", tp.GeneralSMPTEMode)
	}
	want := Timecode{Mode: 1, State: TimecodeRunning, Hours: 1, Minutes: 2, Seconds: 3, Frames: 4}
	if tp.Timecode[1] != want {
		t.Errorf("Timecode[1] = %+v, want %+v", tp.Timecode[1], want)
	}
}

func TestMarshal_DecodeOnly(t *testing.T) {
	packets := []Packet{
		&StatusPacket{},
		&TimePacket{},
		&DataPacket{},
		&MetricsPacket{},
		&MetadataPacket{},
		&BeatGridPacket{},
		&MixerPacket{},
		&UnknownPacket{},
	}

	for _, p := range packets {
		_, err := Marshal(p)
		if !errors.Is(err, ErrEncodeNotSupported) {
			t.Errorf("Marshal(%T) error = %v, want ErrEncodeNotSupported", p, err)
		}
	}
}

func TestPacket_Length(t *testing.T) {
	tests := []struct {
		packet Packet
		want   int
	}{
		{&OptInPacket{}, 68},
		{&OptOutPacket{}, 28},
		{&StatusPacket{}, 300},
		{&RequestPacket{}, 26},
		{&ApplicationDataPacket{}, 42},
		{&TimePacket{}, 154},
		{&DataPacket{}, -1},
		{&MetricsPacket{}, 122},
		{&MetadataPacket{}, 548},
		{&BeatGridPacket{}, 2442},
		{&MixerPacket{}, 270},
	}

	for _, tt := range tests {
		if got := tt.packet.Length(); got != tt.want {
			t.Errorf("%T.Length() = %d, want %d", tt.packet, got, tt.want)
		}
	}
}
