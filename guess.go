package chapters

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// episodePattern matches file names like "03 - Intro", capturing the
// episode number and title.
var episodePattern = regexp.MustCompile(`^\s*(\d{1,3})\s*-\s*(.*)$`)

// GuessMetaData guesses the episode number and title from a file name
// like "03 - Intro.wav". The extension is ignored. A name that does not
// match the pattern leaves both fields absent; guessing never fails.
func GuessMetaData(path string) MetaData {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	m := episodePattern.FindStringSubmatch(base)
	if m == nil {
		return MetaData{}
	}

	n, _ := strconv.ParseUint(m[1], 10, 32) // 1-3 digits always parse
	number := uint(n)
	title := m[2]
	return MetaData{EpisodeNumber: &number, EpisodeTitle: &title}
}
