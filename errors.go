package chapters

import (
	"errors"

	"github.com/podsmith/chapters/internal/types"
)

// FormatError reports a structurally invalid source: bad RIFF/WAVE magic,
// a truncated or overrunning chunk, or a chapter table of contents that
// references a CHAP frame which does not exist.
type FormatError = types.FormatError

// ReadError reports an ID3 header that is present but malformed. A file
// with no ID3 header at all is read as empty metadata, not an error.
type ReadError = types.ReadError

// EncoderProcessError reports a failed external encoder worker, carrying
// whatever the process printed on stderr.
type EncoderProcessError = types.EncoderProcessError

// ErrEncodeInProgress is returned when an operation would start a second
// encode while an earlier encoded buffer has not yet been written out.
var ErrEncodeInProgress = errors.New("chapters: encode already in progress")

// ErrNoPendingAudio is returned by a fresh-write save when no import has
// produced an encoded buffer to write.
var ErrNoPendingAudio = errors.New("chapters: no encoded audio pending")
