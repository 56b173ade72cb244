// Package profile defines the remapping profile model of the Access controller
// and the structural matcher used to deduplicate profiles.
package profile

import "strings"

const (
	NumButtons = 10
	NumPorts   = 5 // port 0 is the analog stick, 1..4 are expansion ports

	// MaxNameLength is the number of UTF-16 code units the device stores.
	MaxNameLength = 40

	DefaultName = "Profile"
)

// ButtonBinding is the mapping of one of the ten controller buttons.
type ButtonBinding struct {
	Mapping1 Action
	Mapping2 Action
	Toggle   bool
}

// ExpansionBinding is the mapping of the stick (port 0) or an expansion port.
// Port 0 only uses Mapping1. On ports 1..4 Mapping2, Toggle and Analog only
// apply when Mapping1 is a button.
type ExpansionBinding struct {
	Mapping1 Action
	Mapping2 Action
	Toggle   bool
	Analog   bool
}

// Profile is one remapping configuration. Buttons[0] is button 1 and Ports[0]
// is the analog stick.
type Profile struct {
	Name              string
	Orientation       Orientation
	ShowSwitchMapping bool
	Buttons           [NumButtons]ButtonBinding
	Ports             [NumPorts]ExpansionBinding
}

// New returns an empty profile with the editor defaults: left stick on port 0
// and the stick mounted on the left.
func New(name string) Profile {
	p := Profile{
		Name:        name,
		Orientation: DefaultOrientation,
	}
	p.Ports[0].Mapping1 = ActionLeftStick
	return p
}

// Button returns the binding of button n (1..10).
func (p Profile) Button(n int) ButtonBinding { return p.Buttons[n-1] }

// Port returns the binding of port n (0..4).
func (p Profile) Port(n int) ExpansionBinding { return p.Ports[n] }

// Stick returns the action the analog stick is mapped to.
func (p Profile) Stick() Action { return p.Ports[0].Mapping1 }

// Normalize returns p with every field that has no meaning cleared, which is
// exactly what survives an encode/decode cycle.
func (p Profile) Normalize() Profile {
	stick := p.Ports[0].Mapping1
	if !stick.IsStick() {
		stick = ActionNone
	}
	p.Ports[0] = ExpansionBinding{Mapping1: stick}
	if stick == ActionNone || !p.Orientation.Valid() {
		p.Orientation = DefaultOrientation
	}

	for i := range p.Buttons {
		b := &p.Buttons[i]
		if !b.Mapping1.Valid() || b.Mapping1.IsStick() {
			b.Mapping1 = ActionNone
		}
		if !b.Mapping2.Valid() || b.Mapping2.IsStick() {
			b.Mapping2 = ActionNone
		}
	}

	for i := 1; i < NumPorts; i++ {
		e := p.Ports[i]
		switch {
		case e.Mapping1.IsButton():
			if !e.Mapping2.IsButton() {
				e.Mapping2 = ActionNone
			}
		case e.Mapping1.IsStick():
			e = ExpansionBinding{Mapping1: e.Mapping1}
		default:
			e = ExpansionBinding{}
		}
		p.Ports[i] = e
	}
	return p
}

// Matches reports whether a and b behave identically on the device. Name and
// display preferences are not compared.
func Matches(a, b Profile) bool {
	a, b = a.Normalize(), b.Normalize()
	if a.Orientation != b.Orientation {
		return false
	}
	if a.Buttons != b.Buttons {
		return false
	}
	return a.Ports == b.Ports
}

// TrimName strips surrounding whitespace from a profile name.
func TrimName(name string) string {
	return strings.TrimSpace(name)
}

// NameLength returns the length of name in UTF-16 code units, which is what
// the device stores.
func NameLength(name string) int {
	n := 0
	for _, r := range name {
		n += RuneUnits(r)
	}
	return n
}

// RuneUnits returns the number of UTF-16 code units that encode r.
func RuneUnits(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}

// SameName compares two profile names the way the library does, ignoring case.
func SameName(a, b string) bool {
	return strings.EqualFold(a, b)
}
