package segmenter

import (
	"errors"
	"fmt"
)

// ErrProtocol matches every *ProtocolError through errors.Is.
var ErrProtocol = errors.New("segmenter protocol error")

// ProtocolError reports a failed segmentation round trip: the service was
// unreachable, timed out, or answered with a malformed header or payload.
type ProtocolError struct {
	Op  string // dial, write, read header, read payload, parse
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("segmenter: %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }
