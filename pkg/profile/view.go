package profile

import (
	"fmt"
	"strings"
)

// Row is one labelled line of a profile summary.
type Row struct {
	Label string
	Value string
}

// Summary renders p as labelled rows using p's own label preference.
func Summary(p Profile) []Row {
	sw := p.ShowSwitchMapping
	rows := []Row{
		{"Profile Name", p.Name},
		{"Orientation", p.Orientation.String()},
		{"Stick", p.Stick().Label(sw)},
	}

	for n := 1; n <= NumButtons; n++ {
		b := p.Button(n)
		label := fmt.Sprintf("Button %d", n)
		if n == NumButtons {
			label = "Stick press in"
		}
		v := b.Mapping1.Label(sw)
		if b.Mapping2 != ActionNone {
			v += " + " + b.Mapping2.Label(sw)
		}
		if b.Toggle {
			v += " (toggle)"
		}
		rows = append(rows, Row{label, v})
	}

	for n := 1; n < NumPorts; n++ {
		e := p.Port(n)
		v := e.Mapping1.Label(sw)
		if e.Mapping1.IsButton() {
			if e.Mapping2 != ActionNone {
				v += " + " + e.Mapping2.Label(sw)
			}
			if e.Toggle {
				v += " (toggle)"
			}
			if e.Analog {
				v += " (analog)"
			}
		}
		rows = append(rows, Row{fmt.Sprintf("E%d", n), v})
	}
	return rows
}

// Format renders Summary as aligned text.
func Format(p Profile) string {
	rows := Summary(p)
	width := 0
	for _, r := range rows {
		if len(r.Label) > width {
			width = len(r.Label)
		}
	}
	var sb strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&sb, "%-*s  %s\n", width, r.Label, r.Value)
	}
	return sb.String()
}
