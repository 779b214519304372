package types

import (
	"fmt"
	"strings"
)

// FormatError is returned when a source container is structurally invalid:
// bad RIFF/WAVE magic, a truncated or overrunning chunk, or a CTOC entry
// that references a CHAP frame which does not exist.
type FormatError struct {
	Reason string
	Offset int64 // byte offset of the problem, 0 when not applicable
}

func (e *FormatError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("invalid format at offset %d: %s", e.Offset, e.Reason)
	}
	return fmt.Sprintf("invalid format: %s", e.Reason)
}

// ReadError is returned when an ID3 header is present but structurally
// malformed. A file with no ID3 header at all is not an error.
type ReadError struct {
	Reason string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("malformed ID3 tag: %s", e.Reason)
}

// EncoderProcessError is returned when an external encoder worker fails:
// the process exited non-zero, or its input could not be read or fed.
// Err holds the underlying cause and Stderr whatever the process printed
// on its error stream. Worker is -1 when the failure happened before any
// worker was spawned.
type EncoderProcessError struct {
	Worker int
	Stderr string
	Err    error
}

func (e *EncoderProcessError) Error() string {
	msg := fmt.Sprintf("encoder worker %d failed: %v", e.Worker, e.Err)
	if e.Worker < 0 {
		msg = fmt.Sprintf("encoder failed: %v", e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *EncoderProcessError) Unwrap() error {
	return e.Err
}
