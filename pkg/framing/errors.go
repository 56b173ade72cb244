package framing

import (
	"errors"
	"fmt"
)

// ErrShortFrame is returned when a received frame is too short to carry its
// header and payload.
var ErrShortFrame = errors.New("short frame")

// ErrFrameOrder is returned when the chunk indexes of the response frames are
// not 0..17 in order.
var ErrFrameOrder = errors.New("response frames out of order")

// TransportError reports a failed exchange with the peer. Chunk is -1 for the
// read selector frame.
type TransportError struct {
	Op       string // "send" or "receive"
	ReportID byte
	Slot     int
	Chunk    int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s report 0x%02X failed (slot %d, chunk %d): %v",
		e.Op, e.ReportID, e.Slot, e.Chunk, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IntegrityError indicates that a reassembled profile block does not match
// the checksum the device sent with it.
type IntegrityError struct {
	Slot     int
	Expected uint32
	Actual   uint32
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("checksum mismatch for slot %d: device sent 0x%08X, computed 0x%08X",
		e.Slot, e.Expected, e.Actual)
}
