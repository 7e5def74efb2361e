package tcnet

import "errors"

// Error kinds returned by the codecs. Use errors.Is to classify a failure.
var (
	ErrOutOfBounds        = errors.New("out of bounds")
	ErrTruncatedPacket    = errors.New("truncated packet")
	ErrBadMagic           = errors.New("bad magic")
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
	ErrFieldTooLong       = errors.New("field too long")
	ErrEncodeNotSupported = errors.New("encode not supported")
	ErrUnsupportedTag     = errors.New("unsupported tag")
)

// ParseError represents a failure to read or write a packet field
type ParseError struct {
	Message string
	Offset  int
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Err.Error() + ": " + e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError of the given kind
func NewParseError(kind error, offset int, message string) *ParseError {
	return &ParseError{Message: message, Offset: offset, Err: kind}
}

var errorKinds = []error{
	ErrOutOfBounds,
	ErrTruncatedPacket,
	ErrBadMagic,
	ErrUnsupportedVersion,
	ErrFieldTooLong,
	ErrEncodeNotSupported,
	ErrUnsupportedTag,
}

// ErrorKind returns the name of the error kind wrapped by err, or "other"
func ErrorKind(err error) string {
	for _, kind := range errorKinds {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "other"
}
