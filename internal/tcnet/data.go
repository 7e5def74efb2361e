package tcnet

// Wire sizes of the Data sub-packets
const (
	MetricsLength  = 122
	MetadataLength = 548
	BeatGridLength = 2442
	MixerLength    = 270

	BeatGridEntries     = 300
	MixerChannels       = 6
	metadataKeyStart    = 541
	metadataKeyEnd      = 566
	metadataTrackIDAt   = 543
	beatGridEntryOffset = 42
	mixerChannelOffset  = 125
	mixerChannelStride  = 24
)

// DataPacket is the envelope shared by every Data message. Its length is
// undefined until the nested data type is known.
type DataPacket struct {
	Header   ManagementHeader
	DataType DataType
	Layer    LayerIndex
}

func (p *DataPacket) PacketHeader() *ManagementHeader { return &p.Header }
func (p *DataPacket) Length() int                     { return -1 }

func decodeDataEnvelope(h ManagementHeader, data []byte) (DataPacket, error) {
	r := fieldReader{buf: data}
	p := DataPacket{
		Header:   h,
		DataType: DataType(r.u8(24)),
		Layer:    LayerIndex(r.u8(25)),
	}
	if r.err != nil {
		return DataPacket{}, NewParseError(ErrTruncatedPacket, len(data), "data envelope needs 26 bytes")
	}
	return p, nil
}

// MetricsPacket reports the playback state of one layer
type MetricsPacket struct {
	DataPacket
	State           LayerStatus
	SyncMaster      SyncRole
	BeatMarker      uint8
	TrackLength     uint32 // ms
	CurrentPosition uint32 // ms
	Speed           uint32
	BeatNumber      uint32
	BPM             float64
	PitchBend       uint16
	TrackID         uint32
}

func (p *MetricsPacket) Length() int { return MetricsLength }

func decodeMetrics(env DataPacket, data []byte) (Packet, error) {
	if err := requireLength(data, MetricsLength, "Metrics"); err != nil {
		return nil, err
	}
	r := fieldReader{buf: data}
	p := &MetricsPacket{
		DataPacket:      env,
		State:           LayerStatus(r.u8(27)),
		SyncMaster:      SyncRole(r.u8(29)),
		BeatMarker:      r.u8(31),
		TrackLength:     r.u32(32),
		CurrentPosition: r.u32(36),
		Speed:           r.u32(40),
		BeatNumber:      r.u32(57),
		BPM:             float64(r.u32(112)) / 100, // sent in hundredths
		PitchBend:       r.u16(116),
		TrackID:         r.u32(118),
	}
	return p, r.err
}

// MetadataPacket carries the artist and title of the track on a layer.
// The track ID is read from inside the key region; both views of those
// bytes are kept as received.
type MetadataPacket struct {
	DataPacket
	TrackArtist string
	TrackTitle  string
	TrackKey    string
	TrackID     uint32
}

func (p *MetadataPacket) Length() int { return MetadataLength }

func decodeMetadata(env DataPacket, data []byte) (Packet, error) {
	if err := requireLength(data, MetadataLength, "Metadata"); err != nil {
		return nil, err
	}
	r := fieldReader{buf: data}
	p := &MetadataPacket{
		DataPacket:  env,
		TrackArtist: r.ascii(29, 285),
		TrackTitle:  r.ascii(285, metadataKeyStart),
		TrackKey:    r.ascii(metadataKeyStart, min(metadataKeyEnd, len(data))),
		TrackID:     r.u32(metadataTrackIDAt),
	}
	return p, r.err
}

// BeatGridEntry is one beat of a beat grid packet
type BeatGridEntry struct {
	BeatNumber        uint16
	BeatType          BeatType
	BeatTypeTimestamp uint32 // ms
}

// BeatGridPacket is one packet of a multi-packet beat grid transfer.
// Reassembly across TotalPacket packets is left to the caller.
type BeatGridPacket struct {
	DataPacket
	DataSize        uint32
	TotalPacket     uint32
	PacketNo        uint32
	DataClusterSize uint32
	Entries         [BeatGridEntries]BeatGridEntry
}

func (p *BeatGridPacket) Length() int { return BeatGridLength }

func decodeBeatGrid(env DataPacket, data []byte) (Packet, error) {
	if err := requireLength(data, BeatGridLength, "BeatGrid"); err != nil {
		return nil, err
	}
	r := fieldReader{buf: data}
	p := &BeatGridPacket{
		DataPacket:      env,
		DataSize:        r.u32(26),
		TotalPacket:     r.u32(30),
		PacketNo:        r.u32(34),
		DataClusterSize: r.u32(38),
	}
	for i := range p.Entries {
		base := beatGridEntryOffset + i*8
		p.Entries[i] = BeatGridEntry{
			BeatNumber:        r.u16(base),
			BeatType:          BeatType(r.u8(base + 2)),
			BeatTypeTimestamp: r.u32(base + 4),
		}
	}
	return p, r.err
}

// MixerChannel is one channel strip of a mixer
type MixerChannel struct {
	SourceSelect     uint8
	AudioLevel       uint8
	FaderLevel       uint8
	TrimLevel        uint8
	CompLevel        uint8
	EqHi             uint8
	EqHiMid          uint8
	EqLowMid         uint8
	EqLow            uint8
	FilterColor      uint8
	Send             uint8
	CueA             uint8
	CueB             uint8
	CrossfaderAssign uint8
}

// MixerPacket is a snapshot of every mixer control
type MixerPacket struct {
	DataPacket
	MixerID   uint8
	MixerType uint8
	MixerName string

	MicEqHi          uint8
	MicEqLow         uint8
	MasterAudioLevel uint8
	MasterFaderLevel uint8
	LinkCueA         uint8
	LinkCueB         uint8
	MasterFilter     uint8
	MasterCueA       uint8
	MasterCueB       uint8

	MasterIsolatorOnOff uint8
	MasterIsolatorHi    uint8
	MasterIsolatorMid   uint8
	MasterIsolatorLow   uint8

	FilterHPF       uint8
	FilterLPF       uint8
	FilterResonance uint8

	SendFXEffect       uint8
	SendFXExt1         uint8
	SendFXExt2         uint8
	SendFXMasterMix    uint8
	SendFXSizeFeedback uint8
	SendFXTime         uint8
	SendFXHPF          uint8
	SendFXLevel        uint8
	SendReturn3Source  uint8
	SendReturn3Type    uint8
	SendReturn3OnOff   uint8
	SendReturn3Level   uint8

	ChannelFaderCurve uint8
	CrossFaderCurve   uint8
	CrossFader        uint8

	BeatFXOnOff         uint8
	BeatFXLevelDepth    uint8
	BeatFXChannelSelect uint8
	BeatFXSelect        uint8
	BeatFXFreqHi        uint8
	BeatFXFreqMid       uint8
	BeatFXFreqLow       uint8

	HeadphonesPreEq  uint8
	HeadphonesALevel uint8
	HeadphonesAMix   uint8
	HeadphonesBLevel uint8
	HeadphonesBMix   uint8

	BoothLevel uint8
	BoothEqHi  uint8
	BoothEqLow uint8

	Channels [MixerChannels]MixerChannel
}

func (p *MixerPacket) Length() int { return MixerLength }

func decodeMixer(env DataPacket, data []byte) (Packet, error) {
	if err := requireLength(data, MixerLength, "Mixer"); err != nil {
		return nil, err
	}
	r := fieldReader{buf: data}
	p := &MixerPacket{
		DataPacket: env,
		MixerID:    r.u8(25),
		MixerType:  r.u8(26),
		MixerName:  r.ascii(29, 45),

		MicEqHi:          r.u8(59),
		MicEqLow:         r.u8(60),
		MasterAudioLevel: r.u8(61),
		MasterFaderLevel: r.u8(62),
		LinkCueA:         r.u8(67),
		LinkCueB:         r.u8(68),
		MasterFilter:     r.u8(69),
		MasterCueA:       r.u8(71),
		MasterCueB:       r.u8(72),

		MasterIsolatorOnOff: r.u8(74),
		MasterIsolatorHi:    r.u8(75),
		MasterIsolatorMid:   r.u8(76),
		MasterIsolatorLow:   r.u8(77),

		FilterHPF:       r.u8(79),
		FilterLPF:       r.u8(80),
		FilterResonance: r.u8(81),

		SendFXEffect:       r.u8(84),
		SendFXExt1:         r.u8(85),
		SendFXExt2:         r.u8(86),
		SendFXMasterMix:    r.u8(87),
		SendFXSizeFeedback: r.u8(88),
		SendFXTime:         r.u8(89),
		SendFXHPF:          r.u8(90),
		SendFXLevel:        r.u8(91),
		SendReturn3Source:  r.u8(92),
		SendReturn3Type:    r.u8(93),
		SendReturn3OnOff:   r.u8(94),
		SendReturn3Level:   r.u8(95),

		ChannelFaderCurve: r.u8(97),
		CrossFaderCurve:   r.u8(98),
		CrossFader:        r.u8(99),

		BeatFXOnOff:         r.u8(100),
		BeatFXLevelDepth:    r.u8(101),
		BeatFXChannelSelect: r.u8(102),
		BeatFXSelect:        r.u8(103),
		BeatFXFreqHi:        r.u8(104),
		BeatFXFreqMid:       r.u8(105),
		BeatFXFreqLow:       r.u8(106),

		HeadphonesPreEq:  r.u8(107),
		HeadphonesALevel: r.u8(108),
		HeadphonesAMix:   r.u8(109),
		HeadphonesBLevel: r.u8(110),
		HeadphonesBMix:   r.u8(111),

		BoothLevel: r.u8(112),
		BoothEqHi:  r.u8(113),
		BoothEqLow: r.u8(114),
	}
	for n := range p.Channels {
		base := mixerChannelOffset + n*mixerChannelStride
		p.Channels[n] = MixerChannel{
			SourceSelect:     r.u8(base),
			AudioLevel:       r.u8(base + 1),
			FaderLevel:       r.u8(base + 2),
			TrimLevel:        r.u8(base + 3),
			CompLevel:        r.u8(base + 4),
			EqHi:             r.u8(base + 5),
			EqHiMid:          r.u8(base + 6),
			EqLowMid:         r.u8(base + 7),
			EqLow:            r.u8(base + 8),
			FilterColor:      r.u8(base + 9),
			Send:             r.u8(base + 10),
			CueA:             r.u8(base + 11),
			CueB:             r.u8(base + 12),
			CrossfaderAssign: r.u8(base + 13),
		}
	}
	return p, r.err
}
