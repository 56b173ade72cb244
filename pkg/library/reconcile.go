package library

import (
	"fmt"

	"github.com/seagrayinc/access-profiles/pkg/profile"
)

// FindMatchingProfile returns the index of the first profile behaving like p,
// or -1.
func FindMatchingProfile(profiles []profile.Profile, p profile.Profile) int {
	for i, q := range profiles {
		if profile.Matches(q, p) {
			return i
		}
	}
	return -1
}

// UniqueName returns name if no profile uses it yet, otherwise the first free
// "name (n)". The base is shortened when needed so the result still fits on
// the device.
func UniqueName(profiles []profile.Profile, name string) string {
	taken := func(n string) bool {
		for _, p := range profiles {
			if profile.SameName(p.Name, n) {
				return true
			}
		}
		return false
	}

	name = profile.TrimName(name)
	if name == "" {
		name = profile.DefaultName
	}
	name = truncateName(name, profile.MaxNameLength)
	if !taken(name) {
		return name
	}
	for n := 1; ; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate := truncateName(name, profile.MaxNameLength-len(suffix)) + suffix
		if !taken(candidate) {
			return candidate
		}
	}
}

func truncateName(name string, units int) string {
	n := 0
	for i, r := range name {
		l := profile.RuneUnits(r)
		if n+l > units {
			return name[:i]
		}
		n += l
	}
	return name
}

// Binding describes how a device slot was reconciled with the library.
type Binding struct {
	Slot  int
	Index int
	Added bool
}

// adopt returns the index of a profile matching p, appending p under a
// unique name when none matches.
func (s State) adopt(p profile.Profile) (State, int, bool) {
	if i := FindMatchingProfile(s.profiles, p); i >= 0 {
		return s, i, false
	}
	p.Name = UniqueName(s.profiles, p.Name)
	s = s.clone()
	s.profiles = append(s.profiles, p)
	return s, len(s.profiles) - 1, true
}

// BindDeviceProfile reconciles a profile read from slot with the library: an
// existing equivalent entry is reused, otherwise p is added. slot is bound to
// the resulting entry either way.
func (s State) BindDeviceProfile(slot int, p profile.Profile) (State, Binding) {
	s, i, added := s.adopt(p)
	if checkSlot(slot) == nil {
		s.slots[slot-1] = i + 1
	}
	return s, Binding{Slot: slot, Index: i, Added: added}
}

// MergeResult counts how imported profiles were reconciled.
type MergeResult struct {
	Added   int
	Matched int
}

// Merge imports the profiles of doc. Profiles already present are reused.
// Slot assignments from doc only fill slots that are currently empty.
func (s State) Merge(doc Document) (State, MergeResult) {
	var res MergeResult
	imported := doc.slots()
	for i, p := range doc.Library {
		var idx int
		var added bool
		s, idx, added = s.adopt(p)
		if added {
			res.Added++
		} else {
			res.Matched++
		}
		for n := range imported {
			if imported[n] == i+1 && s.slots[n] == 0 {
				s.slots[n] = idx + 1
			}
		}
	}
	return s, res
}
