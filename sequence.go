package friendlyid

import (
	"slices"
	"strconv"
	"strings"
)

// ParseFriendlyID splits value into the slug text and its sequence number.
// Values without a numeric suffix after the last separator have sequence 1.
//
//	ParseFriendlyID("hello-world--3", "--") // "hello-world", 3
//	ParseFriendlyID("hello-world", "--")    // "hello-world", 1
func ParseFriendlyID(value, sep string) (string, int) {
	if sep == "" {
		return value, 1
	}

	idx := strings.LastIndex(value, sep)
	if idx <= 0 {
		return value, 1
	}

	seq, ok := parseSequence(value[idx+len(sep):])
	if !ok {
		return value, 1
	}
	return value[:idx], seq
}

// FormatFriendlyID renders a slug and sequence as a friendly id.
// Sequence 1 (or less) renders the bare slug.
func FormatFriendlyID(name string, seq int, sep string) string {
	if seq <= 1 {
		return name
	}
	return name + sep + strconv.Itoa(seq)
}

// SortConflicts orders conflicting friendly ids so the one carrying the
// largest sequence comes first: longer values first, then reverse
// lexicographic order. "a--10" therefore precedes "a--9".
func SortConflicts(values []string) {
	slices.SortFunc(values, compareConflicts)
}

func compareConflicts(a, b string) int {
	if len(a) != len(b) {
		if len(a) > len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(b, a)
}

// NextSequence returns the sequence a candidate should receive given the
// top-ranked conflicting friendly id (see SortConflicts). An empty top
// means no conflict.
func NextSequence(candidate, top, sep string) int {
	switch {
	case top == "":
		return 1
	case top == candidate:
		return 2
	case strings.HasPrefix(top, candidate+sep):
		idx := strings.LastIndex(top, sep)
		n, ok := parseSequence(top[idx+len(sep):])
		if !ok || n < 1 {
			n = 1
		}
		return n + 1
	default:
		return 2
	}
}

// NextFriendlyID returns the friendly id a candidate should receive given
// the top-ranked conflict.
func NextFriendlyID(candidate, top, sep string) string {
	return FormatFriendlyID(candidate, NextSequence(candidate, top, sep), sep)
}

func parseSequence(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
