package versioning

import (
	"math"
	"regexp"
	"sort"
	"strconv"
)

// DevelopmentVersion is the synthetic version name used for the current
// branch head when it is ahead of everything that has been tagged.
const DevelopmentVersion = "development"

// TagPattern matches version tags of the form produced by our release
// process, including optional release-candidate suffixes and the extra
// segment `git describe` appends for commits past a tag:
//
//	v1.2.3
//	v1.2.3-rc.1
//	v1.2.3-rc.1-4-gdeadbee
var TagPattern = regexp.MustCompile(
	`^v(?P<major>\d+)\.(?P<minor>\d+)\.(?P<patch>\d+)` +
		`(?:-rc\.(?P<rc>\d+))?` +
		`(?:-(?P<depth>\d+)-g(?P<hash>\w+))?$`)

// Version is a parsed version tag.
type Version struct {
	Name  string
	Major int
	Minor int
	Patch int
	RC    int // -1 when absent; an absent RC outranks all RCs
	Depth int // commits past the tag per git describe, 0 when absent
	Hash  string
}

// Parse parses a tag name. The second return value is false for names that
// do not match TagPattern (branch names, "development", junk tags).
func Parse(name string) (Version, bool) {
	m := TagPattern.FindStringSubmatch(name)
	if m == nil {
		return Version{}, false
	}
	v := Version{Name: name, RC: -1}
	for i, group := range TagPattern.SubexpNames() {
		if m[i] == "" {
			continue
		}
		switch group {
		case "major":
			v.Major, _ = strconv.Atoi(m[i])
		case "minor":
			v.Minor, _ = strconv.Atoi(m[i])
		case "patch":
			v.Patch, _ = strconv.Atoi(m[i])
		case "rc":
			v.RC, _ = strconv.Atoi(m[i])
		case "depth":
			v.Depth, _ = strconv.Atoi(m[i])
		case "hash":
			v.Hash = m[i]
		}
	}
	return v, true
}

// IsReleaseCandidate reports whether name parses as a version tag with an
// rc component. Non-version names are not release candidates.
func IsReleaseCandidate(name string) bool {
	v, ok := Parse(name)
	return ok && v.RC >= 0
}

// sortKey is the ordering key for a version name.
//
// Release candidates and `git describe` tags are weird. A correctly ordered
// list, highest to lowest:
//
//	v1.2.4
//	v1.2.4-rc.2-1-gXXXXX
//	v1.2.4-rc.2
//	v1.2.4-rc.1
//	v1.2.3
//
// An absent RC outranks all RCs, so it counts as MaxInt. An absent depth
// sorts below any post-tag commit, so it counts as 0. Non-version names get
// a rank below all versions (or above, when stringsHigh is set) and fall
// back to lexical comparison among themselves.
type sortKey struct {
	rank     [5]int
	fallback string
}

func keyFor(name string, stringsHigh bool) sortKey {
	if v, ok := Parse(name); ok {
		rc := v.RC
		if rc < 0 {
			rc = math.MaxInt
		}
		return sortKey{rank: [5]int{v.Major, v.Minor, v.Patch, rc, v.Depth}}
	}
	rank := -1
	if stringsHigh {
		rank = math.MaxInt
	}
	return sortKey{rank: [5]int{rank}, fallback: name}
}

func (k sortKey) compare(o sortKey) int {
	for i := range k.rank {
		if k.rank[i] != o.rank[i] {
			if k.rank[i] < o.rank[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case k.fallback < o.fallback:
		return -1
	case k.fallback > o.fallback:
		return 1
	}
	return 0
}

// Compare orders two version names with non-version names ranking below all
// version tags. It returns -1, 0 or 1.
func Compare(a, b string) int {
	return keyFor(a, false).compare(keyFor(b, false))
}

// CompareStringsHigh orders two version names with non-version names (like
// "development") ranking above all version tags. Used for display ordering
// where the development build leads.
func CompareStringsHigh(a, b string) int {
	return keyFor(a, true).compare(keyFor(b, true))
}

// SortAscending sorts version names in place, oldest first.
func SortAscending(names []string) {
	sort.SliceStable(names, func(i, j int) bool { return Compare(names[i], names[j]) < 0 })
}

// SortDescending sorts version names in place, newest first. Non-version
// names lead, so "development" tops a version selector listing.
func SortDescending(names []string) {
	sort.SliceStable(names, func(i, j int) bool { return CompareStringsHigh(names[i], names[j]) > 0 })
}

// FilterTags returns the subset of names matching TagPattern, preserving
// input order. Malformed tags are simply dropped; the caller decides
// whether to warn about them.
func FilterTags(names []string) []string {
	valid := make([]string, 0, len(names))
	for _, name := range names {
		if TagPattern.MatchString(name) {
			valid = append(valid, name)
		}
	}
	return valid
}
