package ordering

import (
	"errors"
)

var (
	// the socket could not join one of its two broadcast channels.
	// fatal to connection setup.
	ErrChannelBind = errors.New("channel bind failed")
	// a log or side-channel send failed. surfaced synchronously to the
	// caller, no retry, no buffering.
	ErrTransportSend = errors.New("transport send failed")
	// serialized envelope exceeds the connection's configured ceiling.
	// only returned when enforcement is enabled.
	ErrMessageSize = errors.New("message exceeds max message size")
)
