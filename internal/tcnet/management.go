package tcnet

// Wire sizes of the management messages
const (
	OptInLength           = 68
	OptOutLength          = 28
	StatusLength          = 300
	RequestLength         = 26
	ApplicationDataLength = 42
	TimeLength            = 154
)

// OptInPacket announces a node joining the network
type OptInPacket struct {
	Header       ManagementHeader
	NodeCount    uint16
	ListenerPort uint16
	Uptime       uint16 // seconds
	VendorName   string
	AppName      string
	MajorVersion uint8
	MinorVersion uint8
	BugVersion   uint8
}

func (p *OptInPacket) PacketHeader() *ManagementHeader { return &p.Header }
func (p *OptInPacket) Length() int                     { return OptInLength }

func decodeOptIn(h ManagementHeader, data []byte) (Packet, error) {
	if err := requireLength(data, OptInLength, "OptIn"); err != nil {
		return nil, err
	}
	r := fieldReader{buf: data}
	p := &OptInPacket{
		Header:       h,
		NodeCount:    r.u16(24),
		ListenerPort: r.u16(26),
		Uptime:       r.u16(28),
		VendorName:   r.ascii(32, 48),
		AppName:      r.ascii(48, 64),
		MajorVersion: r.u8(64),
		MinorVersion: r.u8(65),
		BugVersion:   r.u8(66),
	}
	return p, r.err
}

func (p *OptInPacket) Encode(buf []byte) error {
	w, err := encodeHeader(buf, OptInLength, p.Header, MessageOptIn)
	if err != nil {
		return err
	}
	w.u16(24, p.NodeCount)
	w.u16(26, p.ListenerPort)
	w.u16(28, p.Uptime)
	w.ascii(32, 16, p.VendorName)
	w.ascii(48, 16, p.AppName)
	w.u8(64, p.MajorVersion)
	w.u8(65, p.MinorVersion)
	w.u8(66, p.BugVersion)
	return w.err
}

// OptOutPacket announces a node leaving the network
type OptOutPacket struct {
	Header       ManagementHeader
	NodeCount    uint16
	ListenerPort uint16
}

func (p *OptOutPacket) PacketHeader() *ManagementHeader { return &p.Header }
func (p *OptOutPacket) Length() int                     { return OptOutLength }

func decodeOptOut(h ManagementHeader, data []byte) (Packet, error) {
	if err := requireLength(data, OptOutLength, "OptOut"); err != nil {
		return nil, err
	}
	r := fieldReader{buf: data}
	p := &OptOutPacket{
		Header:       h,
		NodeCount:    r.u16(24),
		ListenerPort: r.u16(26),
	}
	return p, r.err
}

func (p *OptOutPacket) Encode(buf []byte) error {
	w, err := encodeHeader(buf, OptOutLength, p.Header, MessageOptOut)
	if err != nil {
		return err
	}
	w.u16(24, p.NodeCount)
	w.u16(26, p.ListenerPort)
	return w.err
}

// StatusPacket is the periodic per-layer broadcast of a master node
type StatusPacket struct {
	Header         ManagementHeader
	NodeCount      uint16
	ListenerPort   uint16
	LayerSource    [LayerCount]uint8
	LayerStatus    [LayerCount]LayerStatus
	TrackID        [LayerCount]uint32
	SMPTEMode      uint8
	AutoMasterMode uint8
	LayerName      [LayerCount]string
}

func (p *StatusPacket) PacketHeader() *ManagementHeader { return &p.Header }
func (p *StatusPacket) Length() int                     { return StatusLength }

func decodeStatus(h ManagementHeader, data []byte) (Packet, error) {
	if err := requireLength(data, StatusLength, "Status"); err != nil {
		return nil, err
	}
	r := fieldReader{buf: data}
	p := &StatusPacket{
		Header:         h,
		NodeCount:      r.u16(24),
		ListenerPort:   r.u16(26),
		SMPTEMode:      r.u8(83),
		AutoMasterMode: r.u8(84),
	}
	for i := 0; i < LayerCount; i++ {
		p.LayerSource[i] = r.u8(34 + i)
		p.LayerStatus[i] = LayerStatus(r.u8(42 + i))
		p.TrackID[i] = r.u32(50 + i*4)
		p.LayerName[i] = r.ascii(172+i*16, 172+(i+1)*16)
	}
	return p, r.err
}

// RequestPacket asks a node for one data type on one layer
type RequestPacket struct {
	Header   ManagementHeader
	DataType DataType
	Layer    LayerIndex
}

func (p *RequestPacket) PacketHeader() *ManagementHeader { return &p.Header }
func (p *RequestPacket) Length() int                     { return RequestLength }

func decodeRequest(h ManagementHeader, data []byte) (Packet, error) {
	if err := requireLength(data, RequestLength, "Request"); err != nil {
		return nil, err
	}
	r := fieldReader{buf: data}
	p := &RequestPacket{
		Header:   h,
		DataType: DataType(r.u8(24)),
		Layer:    LayerIndex(r.u8(25)),
	}
	return p, r.err
}

func (p *RequestPacket) Encode(buf []byte) error {
	w, err := encodeHeader(buf, RequestLength, p.Header, MessageRequest)
	if err != nil {
		return err
	}
	w.u8(24, uint8(p.DataType))
	w.u8(25, uint8(p.Layer))
	return w.err
}

// ApplicationDataPacket carries application-specific data for a layer
type ApplicationDataPacket struct {
	Header          ManagementHeader
	DataType        DataType
	Layer           LayerIndex
	TotalDataSize   uint32
	TotalPackets    uint32
	PacketNo        uint32
	PacketSignature uint32
}

func (p *ApplicationDataPacket) PacketHeader() *ManagementHeader { return &p.Header }
func (p *ApplicationDataPacket) Length() int                     { return ApplicationDataLength }

func decodeApplicationData(h ManagementHeader, data []byte) (Packet, error) {
	if err := requireLength(data, ApplicationDataLength, "ApplicationData"); err != nil {
		return nil, err
	}
	r := fieldReader{buf: data}
	p := &ApplicationDataPacket{
		Header:          h,
		DataType:        DataType(r.u8(24)),
		Layer:           LayerIndex(r.u8(25)),
		TotalDataSize:   r.u32(26),
		TotalPackets:    r.u32(30),
		PacketNo:        r.u32(34),
		PacketSignature: r.u32(38),
	}
	return p, r.err
}

func (p *ApplicationDataPacket) Encode(buf []byte) error {
	w, err := encodeHeader(buf, ApplicationDataLength, p.Header, MessageApplicationData)
	if err != nil {
		return err
	}
	w.u8(24, uint8(p.DataType))
	w.u8(25, uint8(p.Layer))
	w.u32(26, p.TotalDataSize)
	w.u32(30, p.TotalPackets)
	w.u32(34, p.PacketNo)
	w.u32(38, p.PacketSignature)
	return w.err
}

// Timecode is the SMPTE timecode of one layer
type Timecode struct {
	Mode    uint8
	State   TimecodeState
	Hours   uint8
	Minutes uint8
	Seconds uint8
	Frames  uint8
}

// TimePacket is the high-rate transport position broadcast
type TimePacket struct {
	Header           ManagementHeader
	CurrentTime      [LayerCount]uint32 // ms
	TotalTime        [LayerCount]uint32 // ms
	BeatMarker       [LayerCount]uint8
	LayerState       [LayerCount]LayerStatus
	GeneralSMPTEMode uint8
	Timecode         [LayerCount]Timecode
}

func (p *TimePacket) PacketHeader() *ManagementHeader { return &p.Header }
func (p *TimePacket) Length() int                     { return TimeLength }

func decodeTime(h ManagementHeader, data []byte) (Packet, error) {
	if err := requireLength(data, TimeLength, "Time"); err != nil {
		return nil, err
	}
	r := fieldReader{buf: data}
	p := &TimePacket{
		Header:           h,
		GeneralSMPTEMode: r.u8(105),
	}
	for i := 0; i < LayerCount; i++ {
		p.CurrentTime[i] = r.u32(24 + i*4)
		p.TotalTime[i] = r.u32(56 + i*4)
		p.BeatMarker[i] = r.u8(88 + i)
		p.LayerState[i] = LayerStatus(r.u8(96 + i))

		base := 106 + i*6
		p.Timecode[i] = Timecode{
			Mode:    r.u8(base),
			State:   TimecodeState(r.u8(base + 1)),
			Hours:   r.u8(base + 2),
			Minutes: r.u8(base + 3),
			Seconds: r.u8(base + 4),
			Frames:  r.u8(base + 5),
		}
	}
	return p, r.err
}
