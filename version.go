package chapters

import "fmt"

// Version is a major.minor application version, used by frontends to
// compare a running build against a published release.
type Version struct {
	Major int
	Minor int
}

// Current is the version of this library.
var Current = Version{Major: 0, Minor: 1}

// OlderThan reports whether v precedes other.
func (v Version) OlderThan(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
