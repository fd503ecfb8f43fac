package event

import "strings"

// matcher is a namespaced event name split into its colon separated parts once, at bind time.
type matcher struct {
	name  string
	parts []string
}

func newMatcher(name string) matcher {
	return matcher{name: name, parts: strings.Split(name, ":")}
}

// Match reports whether the triggered name addresses this subscription.
// Names match when equal, or when the parts of one are a trailing run of the parts of the
// other: "media:playing" and "playing" address each other, "media:playing" and
// "other:playing" do not.
func (m matcher) Match(triggered matcher) bool {
	if m.name == triggered.name {
		return true
	}

	short, long := m.parts, triggered.parts
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == len(long) {
		return false
	}

	offset := len(long) - len(short)
	for i, part := range short {
		if long[offset+i] != part {
			return false
		}
	}
	return true
}

// Base returns the last part of a namespaced name.
func Base(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}
