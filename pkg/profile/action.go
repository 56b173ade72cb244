package profile

import "strconv"

// Action identifies a physical input or stick source a control can be mapped to.
type Action uint8

const (
	ActionNone Action = 0

	ActionCircle   Action = 1
	ActionCross    Action = 2
	ActionTriangle Action = 3
	ActionSquare   Action = 4
	ActionUp       Action = 5
	ActionDown     Action = 6
	ActionLeft     Action = 7
	ActionRight    Action = 8
	ActionL1       Action = 9
	ActionR1       Action = 10
	ActionL2       Action = 11
	ActionR2       Action = 12
	ActionL3       Action = 13
	ActionR3       Action = 14
	ActionOptions  Action = 15
	ActionCreate   Action = 16
	ActionPS       Action = 17
	ActionTouchpad Action = 18

	ActionLeftStick  Action = 101
	ActionRightStick Action = 102
)

// StickBase is subtracted from a stick action to get the device stick id.
const StickBase = 100

type actionLabel struct {
	ps string
	sw string
}

var actionLabels = map[Action]actionLabel{
	ActionNone:       {ps: "nothing"},
	ActionCircle:     {ps: "circle", sw: "A"},
	ActionCross:      {ps: "cross", sw: "B"},
	ActionTriangle:   {ps: "triangle", sw: "X"},
	ActionSquare:     {ps: "square", sw: "Y"},
	ActionUp:         {ps: "up", sw: "up"},
	ActionDown:       {ps: "down", sw: "down"},
	ActionLeft:       {ps: "left", sw: "left"},
	ActionRight:      {ps: "right", sw: "right"},
	ActionL1:         {ps: "L1", sw: "L"},
	ActionR1:         {ps: "R1", sw: "R"},
	ActionL2:         {ps: "L2", sw: "ZL"},
	ActionR2:         {ps: "R2", sw: "ZR"},
	ActionL3:         {ps: "L3", sw: "LS"},
	ActionR3:         {ps: "R3", sw: "RS"},
	ActionOptions:    {ps: "options", sw: "+"},
	ActionCreate:     {ps: "create", sw: "-"},
	ActionPS:         {ps: "PS", sw: "Home"},
	ActionTouchpad:   {ps: "touchpad", sw: "Capture"},
	ActionLeftStick:  {ps: "left stick", sw: "L Stick"},
	ActionRightStick: {ps: "right stick", sw: "R Stick"},
}

// Valid reports whether a is one of the defined action codes.
func (a Action) Valid() bool {
	_, ok := actionLabels[a]
	return ok
}

// IsButton reports whether a denotes a button (1..18).
func (a Action) IsButton() bool {
	return a >= ActionCircle && a <= ActionTouchpad
}

// IsStick reports whether a denotes one of the analog sticks.
func (a Action) IsStick() bool {
	return a == ActionLeftStick || a == ActionRightStick
}

// Label returns the display name of a. With showSwitch set, the Switch name
// is appended when it differs from the PlayStation one.
func (a Action) Label(showSwitch bool) string {
	l, ok := actionLabels[a]
	if !ok {
		return actionLabels[ActionNone].ps
	}
	if showSwitch && l.sw != "" && l.sw != l.ps {
		return l.ps + " / " + l.sw
	}
	return l.ps
}

func (a Action) String() string {
	return strconv.Itoa(int(a))
}

// ParseAction parses a decimal action code. Unparseable or unknown codes
// yield ActionNone.
func ParseAction(s string) Action {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 255 {
		return ActionNone
	}
	a := Action(n)
	if !a.Valid() {
		return ActionNone
	}
	return a
}

// ButtonActions lists the actions assignable to a button, in menu order.
func ButtonActions() []Action {
	out := []Action{ActionNone}
	for a := ActionCircle; a <= ActionTouchpad; a++ {
		out = append(out, a)
	}
	return out
}

// Orientation describes how the stick module is physically mounted.
type Orientation uint8

const (
	OrientationStickBelow Orientation = 0
	OrientationStickRight Orientation = 1
	OrientationStickAbove Orientation = 2
	OrientationStickLeft  Orientation = 3

	DefaultOrientation = OrientationStickLeft
)

var orientationNames = [...]string{
	"stick below",
	"stick on the right",
	"stick above",
	"stick on the left",
}

func (o Orientation) Valid() bool { return int(o) < len(orientationNames) }

func (o Orientation) String() string {
	if !o.Valid() {
		return orientationNames[DefaultOrientation]
	}
	return orientationNames[o]
}
