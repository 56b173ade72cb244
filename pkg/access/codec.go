package access

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
	"unicode/utf16"

	"github.com/seagrayinc/access-profiles/pkg/framing"
	"github.com/seagrayinc/access-profiles/pkg/profile"
)

// Layout of the profile block.
const (
	BlockSize = framing.BlockSize

	FormatMarker = 0x02

	offMarker    = 0
	offName      = 4
	offFiller    = 84
	fillerSize   = 16
	offButtons   = 100
	buttonSize   = 5
	offToggles   = 150
	offPorts     = 152
	portSize     = 45
	offTimestamp = 948
)

// Port record tags.
const (
	tagEmpty         = 0x00
	tagStick         = 0x01
	tagAnalogButton  = 0x02
	tagDigitalButton = 0x03
)

// FormatError reports a block that does not follow the profile layout, or a
// profile that cannot be laid out.
type FormatError struct {
	Offset int
	Msg    string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("profile format error at offset %d: %s", e.Offset, e.Msg)
}

// toggleBit is the single place mapping toggle-capable entities to bits of
// the flag word. kind is 'b' for buttons 1..10 and 'e' for ports 1..4.
func toggleBit(kind byte, n int) uint16 {
	if kind == 'b' {
		return 1 << (n - 1)
	}
	return 1 << (9 + n)
}

// portRecord is the decoded variant of a 45-byte port record.
type portRecord interface {
	tag() byte
}

type emptyRecord struct{}

type stickRecord struct {
	Stick       profile.Action
	Orientation profile.Orientation
}

type buttonRecord struct {
	Code1  profile.Action
	Code2  profile.Action
	Analog bool
}

func (emptyRecord) tag() byte { return tagEmpty }
func (stickRecord) tag() byte { return tagStick }
func (r buttonRecord) tag() byte {
	if r.Analog {
		return tagAnalogButton
	}
	return tagDigitalButton
}

func parsePortRecord(port int, rec []byte) (portRecord, error) {
	off := offPorts + port*portSize
	switch t := rec[0]; {
	case t == tagEmpty:
		return emptyRecord{}, nil
	case t == tagStick:
		r := stickRecord{Stick: stickAction(rec[1]), Orientation: profile.Orientation(rec[2])}
		if !r.Orientation.Valid() {
			r.Orientation = profile.DefaultOrientation
		}
		return r, nil
	case port > 0 && (t == tagAnalogButton || t == tagDigitalButton):
		return buttonRecord{
			Code1:  buttonAction(rec[2]),
			Code2:  buttonAction(rec[3]),
			Analog: t == tagAnalogButton,
		}, nil
	default:
		return nil, &FormatError{Offset: off, Msg: fmt.Sprintf("unknown tag 0x%02X for port %d", t, port)}
	}
}

func (r stickRecord) put(rec []byte) {
	rec[0] = tagStick
	rec[1] = byte(r.Stick - profile.StickBase)
	rec[2] = byte(r.Orientation)
	// Deadzone and response curve defaults the firmware expects.
	rec[5] = 3
	rec[8], rec[9] = 0x80, 0x80
	rec[10], rec[11] = 0xC4, 0xC4
	rec[12], rec[13] = 0xE1, 0xE1
}

func (r buttonRecord) put(rec []byte) {
	rec[0] = r.tag()
	rec[2] = byte(r.Code1)
	rec[3] = byte(r.Code2)
}

func stickAction(id byte) profile.Action {
	a := profile.Action(int(id) + profile.StickBase)
	if int(id)+profile.StickBase > 255 || !a.IsStick() {
		return profile.ActionNone
	}
	return a
}

func buttonAction(code byte) profile.Action {
	a := profile.Action(code)
	if !a.IsButton() {
		return profile.ActionNone
	}
	return a
}

// Decode parses a profile block read from the device.
func Decode(b []byte) (profile.Profile, error) {
	var p profile.Profile
	if len(b) != BlockSize {
		return p, &FormatError{Offset: 0, Msg: fmt.Sprintf("block is %d bytes, want %d", len(b), BlockSize)}
	}
	if b[offMarker] != FormatMarker {
		return p, &FormatError{Offset: offMarker, Msg: fmt.Sprintf("expected marker 0x%02X, got 0x%02X", FormatMarker, b[offMarker])}
	}

	p.Name = decodeName(b[offName:offFiller])
	if p.Name == "" {
		p.Name = profile.DefaultName
	}
	p.Orientation = profile.DefaultOrientation

	toggles := binary.LittleEndian.Uint16(b[offToggles:])

	for n := 1; n <= profile.NumButtons; n++ {
		rec := b[offButtons+(n-1)*buttonSize:]
		p.Buttons[n-1] = profile.ButtonBinding{
			Mapping1: buttonAction(rec[0]),
			Mapping2: buttonAction(rec[1]),
			Toggle:   toggles&toggleBit('b', n) != 0,
		}
	}

	for port := 0; port < profile.NumPorts; port++ {
		start := offPorts + port*portSize
		r, err := parsePortRecord(port, b[start:start+portSize])
		if err != nil {
			return profile.Profile{}, err
		}

		var e profile.ExpansionBinding
		switch r := r.(type) {
		case stickRecord:
			e.Mapping1 = r.Stick
			if port == 0 && r.Stick != profile.ActionNone {
				p.Orientation = r.Orientation
			}
		case buttonRecord:
			e = profile.ExpansionBinding{
				Mapping1: r.Code1,
				Mapping2: r.Code2,
				Toggle:   toggles&toggleBit('e', port) != 0,
				Analog:   r.Analog,
			}
			// An unknown primary code leaves nothing meaningful behind.
			if !e.Mapping1.IsButton() {
				e = profile.ExpansionBinding{}
			}
		}
		p.Ports[port] = e
	}

	return p, nil
}

func decodeName(b []byte) string {
	units := make([]uint16, 0, profile.MaxNameLength)
	for i := 0; i < profile.MaxNameLength; i++ {
		u := binary.LittleEndian.Uint16(b[2*i:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}

// encodeName returns name as at most MaxNameLength UTF-16 code units. A
// surrogate pair is never cut in half.
func encodeName(name string) []uint16 {
	units := utf16.Encode([]rune(name))
	if len(units) > profile.MaxNameLength {
		units = units[:profile.MaxNameLength]
		if utf16.IsSurrogate(rune(units[len(units)-1])) && units[len(units)-1] < 0xDC00 {
			units = units[:len(units)-1]
		}
	}
	return units
}

// Encoder lays profiles out as device blocks. The zero value uses the wall
// clock for the timestamp and crypto/rand for the filler bytes. Filler is
// called once per Encode with the 16 filler bytes to fill.
type Encoder struct {
	Now    func() time.Time
	Filler func(b []byte)
}

// randomFiller leaves b zeroed if the system random source fails.
func randomFiller(b []byte) {
	if _, err := rand.Read(b); err != nil {
		clear(b)
	}
}

// Encode lays p out as a device block using the default Encoder.
func Encode(p profile.Profile) ([]byte, error) {
	return Encoder{}.Encode(p)
}

// Encode lays p out as a 956-byte device block. It only fails when p holds an
// action code or orientation the device does not define.
func (enc Encoder) Encode(p profile.Profile) ([]byte, error) {
	if err := checkEncodable(p); err != nil {
		return nil, err
	}

	b := make([]byte, BlockSize)
	b[offMarker] = FormatMarker

	name := p.Name
	if name == "" {
		name = profile.DefaultName
	}
	for i, u := range encodeName(name) {
		binary.LittleEndian.PutUint16(b[offName+2*i:], u)
	}

	fill := enc.Filler
	if fill == nil {
		fill = randomFiller
	}
	fill(b[offFiller : offFiller+fillerSize])

	var toggles uint16
	for n := 1; n <= profile.NumButtons; n++ {
		btn := p.Button(n)
		rec := b[offButtons+(n-1)*buttonSize:]
		rec[0] = byte(btn.Mapping1)
		rec[1] = byte(btn.Mapping2)
		if btn.Toggle {
			toggles |= toggleBit('b', n)
		}
	}

	for port := 0; port < profile.NumPorts; port++ {
		e := p.Port(port)
		rec := b[offPorts+port*portSize : offPorts+(port+1)*portSize]
		switch {
		case e.Mapping1.IsStick():
			stickRecord{Stick: e.Mapping1, Orientation: p.Orientation}.put(rec)
		case port > 0 && e.Mapping1.IsButton():
			mapping2 := e.Mapping2
			if !mapping2.IsButton() {
				mapping2 = profile.ActionNone
			}
			buttonRecord{Code1: e.Mapping1, Code2: mapping2, Analog: e.Analog}.put(rec)
			if e.Toggle {
				toggles |= toggleBit('e', port)
			}
		}
	}
	binary.LittleEndian.PutUint16(b[offToggles:], toggles)

	now := time.Now
	if enc.Now != nil {
		now = enc.Now
	}
	binary.LittleEndian.PutUint64(b[offTimestamp:], uint64(now().UnixMilli()))

	return b, nil
}

func checkEncodable(p profile.Profile) error {
	if !p.Orientation.Valid() {
		return &FormatError{Offset: offPorts + 2, Msg: fmt.Sprintf("orientation %d out of range", p.Orientation)}
	}
	for n := 1; n <= profile.NumButtons; n++ {
		b := p.Button(n)
		for _, a := range []profile.Action{b.Mapping1, b.Mapping2} {
			if a != profile.ActionNone && !a.IsButton() {
				return &FormatError{
					Offset: offButtons + (n-1)*buttonSize,
					Msg:    fmt.Sprintf("button %d: action %d is not a button", n, a),
				}
			}
		}
	}
	if s := p.Stick(); s != profile.ActionNone && !s.IsStick() {
		return &FormatError{Offset: offPorts, Msg: fmt.Sprintf("stick: action %d is not a stick", s)}
	}
	for port := 1; port < profile.NumPorts; port++ {
		if a := p.Port(port).Mapping1; !a.Valid() {
			return &FormatError{
				Offset: offPorts + port*portSize,
				Msg:    fmt.Sprintf("port %d: unknown action %d", port, a),
			}
		}
	}
	return nil
}
