package domain

import (
	"sort"
	"strconv"
	"strings"
)

// VersionRecord is the structured form of a container tag. Conforming tags
// look like `<version>--<build_string>_<build_number>`. Anything else is kept
// as an opaque version with empty build fields, because malformed tags occur
// in real data and must remain listable.
type VersionRecord struct {
	Version     string
	BuildString string
	BuildNumber int
	Opaque      bool

	// RawBuildNumber keeps the build number as written in the tag, so a
	// leading-zero number like "_01" reconstructs exactly.
	RawBuildNumber string
}

const buildSeparator = "--"

// ParseTag parses a container tag. It never fails; a non-conforming tag
// yields an opaque record whose Version is the raw tag.
func ParseTag(tag string) VersionRecord {
	version, build, found := strings.Cut(tag, buildSeparator)
	if !found || version == "" || build == "" {
		return VersionRecord{Version: tag, Opaque: true}
	}
	idx := strings.LastIndex(build, "_")
	if idx <= 0 || idx == len(build)-1 {
		return VersionRecord{Version: tag, Opaque: true}
	}
	number, err := strconv.Atoi(build[idx+1:])
	if err != nil || number < 0 {
		return VersionRecord{Version: tag, Opaque: true}
	}
	return VersionRecord{
		Version:        version,
		BuildString:    build[:idx],
		BuildNumber:    number,
		RawBuildNumber: build[idx+1:],
	}
}

// String reconstructs the tag. For conforming tags this round-trips to the
// original input; opaque records return the raw tag unchanged.
func (r VersionRecord) String() string {
	if r.Opaque {
		return r.Version
	}
	number := r.RawBuildNumber
	if number == "" {
		number = strconv.Itoa(r.BuildNumber)
	}
	return r.Version + buildSeparator + r.BuildString + "_" + number
}

// CompareEntries orders two container entries by the composite version key:
// opaque tags below every parsed version, then version components under
// natural comparison, then the raw tag string. The raw-tag tie-break applies
// even when build numbers differ, because build strings are not always
// numerically comparable; when equal numeric versions carry lexicographically
// unordered build strings the resulting "latest" is a deliberate heuristic,
// not a defect. Returns <0 when a is older than b.
func CompareEntries(a, b ContainerEntry) int {
	if a.Version.Opaque != b.Version.Opaque {
		if a.Version.Opaque {
			return -1
		}
		return 1
	}
	if c := compareVersions(a.Version.Version, b.Version.Version); c != 0 {
		return c
	}
	return strings.Compare(a.Tag, b.Tag)
}

// SortEntriesNewestFirst sorts entries in place, newest first.
func SortEntriesNewestFirst(entries []ContainerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return CompareEntries(entries[i], entries[j]) > 0
	})
}

// compareVersions compares dotted version strings with numeric-aware
// component comparison, so "1.21" sorts above "1.3".
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := compareComponent(as[i], bs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	default:
		return 0
	}
}

// compareComponent compares a single version component by alternating digit
// and non-digit runs; digit runs compare numerically, the rest byte-wise.
func compareComponent(a, b string) int {
	for a != "" || b != "" {
		aRun, aNum, aRest := nextRun(a)
		bRun, bNum, bRest := nextRun(b)
		switch {
		case aRun == "" && bRun != "":
			return -1
		case aRun != "" && bRun == "":
			return 1
		case aNum && bNum:
			av, _ := strconv.ParseUint(aRun, 10, 64)
			bv, _ := strconv.ParseUint(bRun, 10, 64)
			if av != bv {
				if av < bv {
					return -1
				}
				return 1
			}
		case aNum != bNum:
			// Numeric runs sort below alphabetic runs, matching byte order
			// of digits vs letters.
			if c := strings.Compare(aRun, bRun); c != 0 {
				return c
			}
		default:
			if c := strings.Compare(aRun, bRun); c != 0 {
				return c
			}
		}
		a, b = aRest, bRest
	}
	return 0
}

func nextRun(s string) (run string, numeric bool, rest string) {
	if s == "" {
		return "", false, ""
	}
	numeric = isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == numeric {
		i++
	}
	return s[:i], numeric, s[i:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
