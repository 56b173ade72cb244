// Package library holds the user's ordered profile collection and the
// registry binding the three device slots to library entries.
//
// State is a value: every operation returns a new State and leaves its
// receiver untouched, so callers own their state explicitly.
package library

import (
	"errors"
	"fmt"

	"github.com/seagrayinc/access-profiles/pkg/profile"
)

const NumSlots = 3

const (
	ReasonEmpty     = "name is empty"
	ReasonDuplicate = "a profile with this name already exists"
	ReasonTooLong   = "name is too long"
)

// ErrInvalidDocument is returned when an import document carries neither a
// library nor legacy profiles.
var ErrInvalidDocument = errors.New("invalid library document")

// ValidationError reports a profile or slot configuration that cannot be
// stored or sent to the device.
type ValidationError struct {
	Name   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("invalid profile name %q: %s", e.Name, e.Reason)
}

// State is a library plus its slot registry.
type State struct {
	profiles []profile.Profile
	slots    [NumSlots]int // library index + 1, 0 when empty
}

// New returns a state holding profiles with no slot assigned.
func New(profiles ...profile.Profile) State {
	return State{profiles: append([]profile.Profile(nil), profiles...)}
}

func (s State) clone() State {
	s.profiles = append([]profile.Profile(nil), s.profiles...)
	return s
}

func (s State) Len() int { return len(s.profiles) }

// Profile returns the profile at index i.
func (s State) Profile(i int) (profile.Profile, bool) {
	if i < 0 || i >= len(s.profiles) {
		return profile.Profile{}, false
	}
	return s.profiles[i], true
}

// Profiles returns a copy of the library in order.
func (s State) Profiles() []profile.Profile {
	return append([]profile.Profile(nil), s.profiles...)
}

// Slot returns the library index bound to slot (1..3).
func (s State) Slot(slot int) (int, bool) {
	if slot < 1 || slot > NumSlots || s.slots[slot-1] == 0 {
		return -1, false
	}
	return s.slots[slot-1] - 1, true
}

// SlotProfile returns the profile bound to slot.
func (s State) SlotProfile(slot int) (profile.Profile, bool) {
	i, ok := s.Slot(slot)
	if !ok {
		return profile.Profile{}, false
	}
	return s.Profile(i)
}

// SlotsOf returns the slots bound to library index i.
func (s State) SlotsOf(i int) []int {
	var out []int
	for n := 1; n <= NumSlots; n++ {
		if idx, ok := s.Slot(n); ok && idx == i {
			out = append(out, n)
		}
	}
	return out
}

func checkSlot(slot int) error {
	if slot < 1 || slot > NumSlots {
		return &ValidationError{Reason: fmt.Sprintf("slot %d out of range 1-%d", slot, NumSlots)}
	}
	return nil
}

func (s State) checkIndex(i int) error {
	if i < 0 || i >= len(s.profiles) {
		return fmt.Errorf("profile index %d out of range (library has %d)", i, len(s.profiles))
	}
	return nil
}

// validName trims name and checks it against every profile except skip.
func (s State) validName(name string, skip int) (string, error) {
	name = profile.TrimName(name)
	if name == "" {
		return "", &ValidationError{Name: name, Reason: ReasonEmpty}
	}
	if profile.NameLength(name) > profile.MaxNameLength {
		return "", &ValidationError{Name: name, Reason: ReasonTooLong}
	}
	for i, p := range s.profiles {
		if i != skip && profile.SameName(p.Name, name) {
			return "", &ValidationError{Name: name, Reason: ReasonDuplicate}
		}
	}
	return name, nil
}

// Add appends p to the library and returns its index.
func (s State) Add(p profile.Profile) (State, int, error) {
	name, err := s.validName(p.Name, -1)
	if err != nil {
		return s, -1, err
	}
	p.Name = name
	s = s.clone()
	s.profiles = append(s.profiles, p)
	return s, len(s.profiles) - 1, nil
}

// Replace swaps the profile at index i for p. Slot bindings are kept.
func (s State) Replace(i int, p profile.Profile) (State, error) {
	if err := s.checkIndex(i); err != nil {
		return s, err
	}
	name, err := s.validName(p.Name, i)
	if err != nil {
		return s, err
	}
	p.Name = name
	s = s.clone()
	s.profiles[i] = p
	return s, nil
}

// Rename replaces the name of the profile at index i.
func (s State) Rename(i int, name string) (State, error) {
	p, ok := s.Profile(i)
	if !ok {
		return s, s.checkIndex(i)
	}
	p.Name = name
	return s.Replace(i, p)
}

// Delete removes the profile at index i. Slots bound to it are cleared and
// slots bound to later entries follow them down.
func (s State) Delete(i int) (State, error) {
	if err := s.checkIndex(i); err != nil {
		return s, err
	}
	out := State{slots: s.slots}
	out.profiles = append(append([]profile.Profile(nil), s.profiles[:i]...), s.profiles[i+1:]...)
	for n := range out.slots {
		switch ref := out.slots[n] - 1; {
		case out.slots[n] == 0:
		case ref == i:
			out.slots[n] = 0
		case ref > i:
			out.slots[n]--
		}
	}
	return out, nil
}

// Assign binds slot to library index i.
func (s State) Assign(slot, i int) (State, error) {
	if err := checkSlot(slot); err != nil {
		return s, err
	}
	if err := s.checkIndex(i); err != nil {
		return s, err
	}
	s.slots[slot-1] = i + 1
	return s, nil
}

// Unassign clears slot.
func (s State) Unassign(slot int) (State, error) {
	if err := checkSlot(slot); err != nil {
		return s, err
	}
	s.slots[slot-1] = 0
	return s, nil
}
