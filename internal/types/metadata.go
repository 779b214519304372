// Package types provides the core value types for podcast chapter metadata.
//
// This package defines Chapter, MetaData, and the typed errors shared by the
// extractor, the ID3 codec, and the encoding orchestrator.
package types

// Chapter is one chapter interval of an episode, in milliseconds.
//
// For a chapter list derived from one source the entries are sorted ascending
// by Start, each End equals the next chapter's Start, and the last End equals
// the total audio duration. Chapters are immutable values once handed to the
// codec for writing.
type Chapter struct {
	Start uint32 // milliseconds from the beginning of the audio
	End   uint32 // milliseconds, exclusive upper bound
	Name  string
}

// MetaData holds episode-level metadata plus the chapter list.
//
// A nil pointer field means "absent": the codec does not write the frame and
// does not clear an existing one. Absent is distinct from an empty string.
type MetaData struct {
	PodcastTitle  *string
	EpisodeTitle  *string
	EpisodeNumber *uint
	Chapters      []Chapter // nil when the source carries no chapters
}

// Equal reports structural equality, treating absent and empty as different.
func (m MetaData) Equal(other MetaData) bool {
	if !equalPtr(m.PodcastTitle, other.PodcastTitle) {
		return false
	}
	if !equalPtr(m.EpisodeTitle, other.EpisodeTitle) {
		return false
	}
	if !equalPtr(m.EpisodeNumber, other.EpisodeNumber) {
		return false
	}
	if len(m.Chapters) != len(other.Chapters) {
		return false
	}
	for i := range m.Chapters {
		if m.Chapters[i] != other.Chapters[i] {
			return false
		}
	}
	return true
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// FileType identifies the kind of file a façade operation works on.
type FileType string

// Supported source file types.
const (
	FileTypeWAV FileType = "wav"
	FileTypeMP3 FileType = "mp3"
)
