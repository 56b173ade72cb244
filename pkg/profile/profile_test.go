package profile

import (
	"encoding/json"
	"strings"
	"testing"
)

func sampleProfile() Profile {
	p := New("Racing")
	p.Buttons[2] = ButtonBinding{Mapping1: ActionUp, Toggle: true}
	p.Buttons[9] = ButtonBinding{Mapping1: ActionL3, Mapping2: ActionR3}
	p.Ports[2] = ExpansionBinding{Mapping1: ActionL1, Analog: true}
	p.Ports[4] = ExpansionBinding{Mapping1: ActionRightStick}
	return p
}

func TestMatches(t *testing.T) {
	a := sampleProfile()

	tests := []struct {
		name   string
		mutate func(*Profile)
		want   bool
	}{
		{"identical", func(*Profile) {}, true},
		{"different name", func(p *Profile) { p.Name = "Other" }, true},
		{"different display preference", func(p *Profile) { p.ShowSwitchMapping = true }, true},
		{"orientation", func(p *Profile) { p.Orientation = OrientationStickAbove }, false},
		{"stick", func(p *Profile) { p.Ports[0].Mapping1 = ActionRightStick }, false},
		{"button mapping2", func(p *Profile) { p.Buttons[0].Mapping2 = ActionCross }, false},
		{"button toggle", func(p *Profile) { p.Buttons[2].Toggle = false }, false},
		{"port analog", func(p *Profile) { p.Ports[2].Analog = false }, false},
		{"port toggle", func(p *Profile) { p.Ports[2].Toggle = true }, false},
		// Fields without meaning on a stick port are not compared.
		{"stick port leftovers", func(p *Profile) { p.Ports[4].Toggle = true; p.Ports[4].Mapping2 = ActionCircle }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := sampleProfile()
			tt.mutate(&b)
			if got := Matches(a, b); got != tt.want {
				t.Errorf("Matches(a, b) = %v, want %v", got, tt.want)
			}
			if Matches(b, a) != Matches(a, b) {
				t.Errorf("Matches is not symmetric")
			}
			if !Matches(b, b) {
				t.Errorf("Matches(b, b) = false")
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	p := New("x")
	p.Ports[0].Mapping1 = ActionNone
	p.Orientation = OrientationStickBelow
	p.Ports[1] = ExpansionBinding{Mapping1: ActionNone, Mapping2: ActionCross, Toggle: true, Analog: true}
	p.Buttons[0].Mapping1 = ActionLeftStick

	n := p.Normalize()
	if n.Orientation != DefaultOrientation {
		t.Errorf("orientation = %d, want default without a stick", n.Orientation)
	}
	if n.Ports[1] != (ExpansionBinding{}) {
		t.Errorf("port 1 = %+v, want zero binding", n.Ports[1])
	}
	if n.Buttons[0].Mapping1 != ActionNone {
		t.Errorf("button 1 mapping1 = %d, want none", n.Buttons[0].Mapping1)
	}
	if n.Normalize() != n {
		t.Errorf("Normalize is not idempotent")
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		a    Action
		sw   bool
		want string
	}{
		{ActionCircle, false, "circle"},
		{ActionCircle, true, "circle / A"},
		{ActionUp, true, "up"},
		{ActionRightStick, true, "right stick / R Stick"},
		{ActionNone, true, "nothing"},
		{Action(77), false, "nothing"},
	}
	for _, tt := range tests {
		if got := tt.a.Label(tt.sw); got != tt.want {
			t.Errorf("Action(%d).Label(%v) = %q, want %q", tt.a, tt.sw, got, tt.want)
		}
	}
}

func TestParseAction(t *testing.T) {
	for in, want := range map[string]Action{
		"0": ActionNone, "18": ActionTouchpad, "101": ActionLeftStick,
		"19": ActionNone, "": ActionNone, "abc": ActionNone, "-1": ActionNone, "999": ActionNone,
	} {
		if got := ParseAction(in); got != want {
			t.Errorf("ParseAction(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestNameLength(t *testing.T) {
	if n := NameLength("abc"); n != 3 {
		t.Errorf("NameLength(abc) = %d", n)
	}
	// U+1F3AE sits outside the BMP and needs a surrogate pair.
	if n := NameLength("\U0001F3AE!"); n != 3 {
		t.Errorf("NameLength(emoji) = %d, want 3", n)
	}
	for r, want := range map[rune]int{'a': 1, 'ë': 1, 0xFFFF: 1, 0x10000: 2, 0x10FFFF: 2} {
		if got := RuneUnits(r); got != want {
			t.Errorf("RuneUnits(%U) = %d, want %d", r, got, want)
		}
	}
}

func TestUnmarshalJSON(t *testing.T) {
	const doc = `{
		"name": "Imported",
		"orientation": "1",
		"showSwitchMapping": true,
		"buttons": {
			"b1": {"mapping1": "5", "mapping2": "0", "toggle": true},
			"b4": {"mapping1": "42", "mapping2": "x", "toggle": false}
		},
		"expansionPorts": {
			"e0": {"mapping1": "102"},
			"e3": {"mapping1": "9", "mapping2": "2", "toggle": true, "analog": true}
		}
	}`

	var p Profile
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if p.Name != "Imported" || p.Orientation != OrientationStickRight || !p.ShowSwitchMapping {
		t.Errorf("header fields = %q %d %v", p.Name, p.Orientation, p.ShowSwitchMapping)
	}
	if got := p.Button(1); got != (ButtonBinding{Mapping1: ActionUp, Toggle: true}) {
		t.Errorf("button 1 = %+v", got)
	}
	if got := p.Button(4); got != (ButtonBinding{}) {
		t.Errorf("button 4 = %+v, want unknown codes as none", got)
	}
	if p.Stick() != ActionRightStick {
		t.Errorf("stick = %d", p.Stick())
	}
	if got := p.Port(3); got != (ExpansionBinding{Mapping1: ActionL1, Mapping2: ActionCross, Toggle: true, Analog: true}) {
		t.Errorf("port 3 = %+v", got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	p := sampleProfile()
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(b), `"e0":{"mapping1":"101"}`) {
		t.Errorf("stick port should carry only mapping1: %s", b)
	}
	var got Profile
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != p {
		t.Errorf("round trip mismatch:\ngot:  %+v\nwant: %+v", got, p)
	}
}

func TestFormat(t *testing.T) {
	p := sampleProfile()
	p.ShowSwitchMapping = true
	out := Format(p)
	for _, want := range []string{
		"Racing",
		"stick on the left",
		"up (toggle)",
		"L3 / LS + R3 / RS",
		"L1 / L (analog)",
		"right stick / R Stick",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format output missing %q:\n%s", want, out)
		}
	}
}
