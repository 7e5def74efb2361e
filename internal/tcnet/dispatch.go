package tcnet

// Codec decodes a message body once the header has been validated
type Codec func(h ManagementHeader, data []byte) (Packet, error)

// DataCodec decodes a Data sub-packet once the envelope has been read
type DataCodec func(env DataPacket, data []byte) (Packet, error)

// messageCodecs lists every known message type. A nil entry is a tag
// that is recognised but not decoded.
var messageCodecs = map[MessageType]Codec{
	MessageOptIn:           decodeOptIn,
	MessageOptOut:          decodeOptOut,
	MessageStatus:          decodeStatus,
	MessageTimeSync:        nil,
	MessageError:           nil,
	MessageRequest:         decodeRequest,
	MessageApplicationData: decodeApplicationData,
	MessageControl:         nil,
	MessageText:            nil,
	MessageKeyboard:        nil,
	MessageData:            decodeData,
	MessageFile:            nil,
	MessageTime:            decodeTime,
}

var dataCodecs = map[DataType]DataCodec{
	DataMetrics:       decodeMetrics,
	DataMetadata:      decodeMetadata,
	DataBeatGrid:      decodeBeatGrid,
	DataCue:           nil,
	DataSmallWaveform: nil,
	DataBigWaveform:   nil,
	DataMixer:         decodeMixer,
}

// ResolveMessageCodec returns the decoder for t, or false when t is
// unknown or not implemented.
func ResolveMessageCodec(t MessageType) (Codec, bool) {
	c := messageCodecs[t]
	return c, c != nil
}

// ResolveDataCodec returns the decoder for t, or false when t is
// unknown or not implemented.
func ResolveDataCodec(t DataType) (DataCodec, bool) {
	c := dataCodecs[t]
	return c, c != nil
}

// UnknownPacket preserves a message whose tag has no decoder. Receivers
// skip it.
type UnknownPacket struct {
	Header ManagementHeader
	// DataType is set when the message was a Data envelope with an
	// unsupported sub-type.
	DataType DataType
	Payload  []byte
}

func (p *UnknownPacket) PacketHeader() *ManagementHeader { return &p.Header }
func (p *UnknownPacket) Length() int                     { return len(p.Payload) }

// Unsupported reports the tag that could not be decoded
func (p *UnknownPacket) Unsupported() error {
	if p.Header.MessageType == MessageData {
		return NewParseError(ErrUnsupportedTag, 24, "data type "+p.DataType.String())
	}
	return NewParseError(ErrUnsupportedTag, 7, "message type "+p.Header.MessageType.String())
}

// Parse decodes a complete UDP payload. Messages with unsupported tags
// come back as *UnknownPacket with a nil error.
func Parse(data []byte) (Packet, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}

	codec, ok := ResolveMessageCodec(h.MessageType)
	if !ok {
		return &UnknownPacket{Header: h, Payload: append([]byte(nil), data...)}, nil
	}
	return codec(h, data)
}

func decodeData(h ManagementHeader, data []byte) (Packet, error) {
	env, err := decodeDataEnvelope(h, data)
	if err != nil {
		return nil, err
	}

	codec, ok := ResolveDataCodec(env.DataType)
	if !ok {
		return &UnknownPacket{
			Header:   h,
			DataType: env.DataType,
			Payload:  append([]byte(nil), data...),
		}, nil
	}
	return codec(env, data)
}
