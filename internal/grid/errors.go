package grid

import "errors"

var (
	ErrMalformedRoomName     = errors.New("malformed room name")
	ErrRoomOutOfRange        = errors.New("room coordinate out of range")
	ErrInvalidLocal          = errors.New("local offset out of range")
	ErrCorruptPackedPosition = errors.New("corrupt packed position")
)

// ErrPositionShape is returned when a serialized position is neither a
// readable record nor a packed integer.
var ErrPositionShape = errors.New("unrecognized position shape")
