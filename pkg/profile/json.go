package profile

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// The exchanged JSON form keeps action codes and orientation as decimal
// strings and addresses buttons and ports by "bN"/"eN" keys.

type jsonBinding struct {
	Mapping1 string `json:"mapping1"`
	Mapping2 string `json:"mapping2,omitempty"`
	Toggle   *bool  `json:"toggle,omitempty"`
	Analog   *bool  `json:"analog,omitempty"`
}

type jsonProfile struct {
	Name              string                 `json:"name"`
	Orientation       string                 `json:"orientation"`
	ShowSwitchMapping bool                   `json:"showSwitchMapping"`
	Buttons           map[string]jsonBinding `json:"buttons"`
	ExpansionPorts    map[string]jsonBinding `json:"expansionPorts"`
}

func buttonKey(n int) string { return fmt.Sprintf("b%d", n) }
func portKey(n int) string   { return fmt.Sprintf("e%d", n) }

func boolPtr(b bool) *bool { return &b }

func (p Profile) MarshalJSON() ([]byte, error) {
	jp := jsonProfile{
		Name:              p.Name,
		Orientation:       strconv.Itoa(int(p.Orientation)),
		ShowSwitchMapping: p.ShowSwitchMapping,
		Buttons:           make(map[string]jsonBinding, NumButtons),
		ExpansionPorts:    make(map[string]jsonBinding, NumPorts),
	}
	for i, b := range p.Buttons {
		jp.Buttons[buttonKey(i+1)] = jsonBinding{
			Mapping1: b.Mapping1.String(),
			Mapping2: b.Mapping2.String(),
			Toggle:   boolPtr(b.Toggle),
		}
	}
	jp.ExpansionPorts[portKey(0)] = jsonBinding{Mapping1: p.Ports[0].Mapping1.String()}
	for i := 1; i < NumPorts; i++ {
		e := p.Ports[i]
		jp.ExpansionPorts[portKey(i)] = jsonBinding{
			Mapping1: e.Mapping1.String(),
			Mapping2: e.Mapping2.String(),
			Toggle:   boolPtr(e.Toggle),
			Analog:   boolPtr(e.Analog),
		}
	}
	return json.Marshal(jp)
}

// UnmarshalJSON accepts partial documents: missing entries default to none,
// unknown codes decode as none and a missing orientation is the default one.
func (p *Profile) UnmarshalJSON(b []byte) error {
	var jp jsonProfile
	if err := json.Unmarshal(b, &jp); err != nil {
		return err
	}

	out := Profile{
		Name:              jp.Name,
		Orientation:       DefaultOrientation,
		ShowSwitchMapping: jp.ShowSwitchMapping,
	}
	if n, err := strconv.Atoi(jp.Orientation); err == nil && n >= 0 && Orientation(n).Valid() {
		out.Orientation = Orientation(n)
	}

	for i := range out.Buttons {
		jb, ok := jp.Buttons[buttonKey(i+1)]
		if !ok {
			continue
		}
		out.Buttons[i] = ButtonBinding{
			Mapping1: ParseAction(jb.Mapping1),
			Mapping2: ParseAction(jb.Mapping2),
			Toggle:   jb.Toggle != nil && *jb.Toggle,
		}
	}

	for i := range out.Ports {
		jb, ok := jp.ExpansionPorts[portKey(i)]
		if !ok {
			continue
		}
		if i == 0 {
			out.Ports[0] = ExpansionBinding{Mapping1: ParseAction(jb.Mapping1)}
			continue
		}
		out.Ports[i] = ExpansionBinding{
			Mapping1: ParseAction(jb.Mapping1),
			Mapping2: ParseAction(jb.Mapping2),
			Toggle:   jb.Toggle != nil && *jb.Toggle,
			Analog:   jb.Analog != nil && *jb.Analog,
		}
	}

	*p = out
	return nil
}
