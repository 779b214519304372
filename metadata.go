package chapters

import "github.com/podsmith/chapters/internal/types"

// Chapter is one contiguous chapter interval, in milliseconds from the
// start of the episode. For a list derived from one source, entries are
// sorted ascending by Start, each End equals the next Start, and the last
// End equals the total audio duration.
type Chapter = types.Chapter

// MetaData is the episode metadata written to and read from chapter tags.
// A nil field is absent, which is distinct from empty: absent fields are
// not written at all.
type MetaData = types.MetaData

// FileType identifies what kind of audio file an operation works on.
type FileType = types.FileType

const (
	FileTypeWAV = types.FileTypeWAV
	FileTypeMP3 = types.FileTypeMP3
)
