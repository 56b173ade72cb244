package access

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/seagrayinc/access-profiles/pkg/framing"
	"github.com/seagrayinc/access-profiles/pkg/library"
	"github.com/seagrayinc/access-profiles/pkg/profile"
)

// simulatedController answers feature reports the way the device does,
// keeping one block per slot.
type simulatedController struct {
	slots   [NumSlots][]byte
	pending [][]byte
	writing []byte

	sends   int
	failAt  int // 1-based SendFeature call that fails, 0 for never
	corrupt bool
}

var errUnplugged = errors.New("device unplugged")

func (s *simulatedController) SendFeature(_ context.Context, reportID byte, data []byte) error {
	s.sends++
	if s.failAt > 0 && s.sends == s.failAt {
		return errUnplugged
	}
	if reportID != framing.WriteReportID || len(data) != framing.FrameSize {
		return fmt.Errorf("unexpected report 0x%02X with %d bytes", reportID, len(data))
	}

	switch sel := data[0]; {
	case sel >= 0x09 && sel <= 0x0B:
		idx := int(data[1])
		if idx == 0 {
			s.writing = make([]byte, 0, framing.BlockSize)
		}
		n := framing.ChunkSize
		if rem := framing.BlockSize - len(s.writing); rem < n {
			n = rem
		}
		s.writing = append(s.writing, data[2:2+n]...)
		if idx == framing.ChunkCount-1 {
			crc := binary.LittleEndian.Uint32(data[6:])
			if crc != framing.Checksum(s.writing, framing.BlockSize) {
				return errors.New("bad write checksum")
			}
			s.slots[sel-0x09] = s.writing
		}
	case sel >= 0x10 && sel <= 0x12:
		slot := int(sel-0x10) + 1
		frames, err := framing.ResponseFrames(slot, s.slots[slot-1])
		if err != nil {
			return err
		}
		if s.corrupt {
			frames[3][10] ^= 0xFF
		}
		s.pending = frames
	default:
		return fmt.Errorf("unknown selector 0x%02X", sel)
	}
	return nil
}

func (s *simulatedController) ReceiveFeature(_ context.Context, reportID byte) ([]byte, error) {
	if reportID != framing.ReadReportID || len(s.pending) == 0 {
		return nil, errors.New("nothing to receive")
	}
	f := s.pending[0]
	s.pending = s.pending[1:]
	return f, nil
}

type syncCounter map[string]int

func (c syncCounter) ProfileSynced(direction string) { c[direction]++ }

func newTestController(sim *simulatedController, opts ...framing.Option) (*Controller, syncCounter) {
	c := NewController(framing.NewTransport(sim, opts...))
	c.Encoder = testEncoder()
	counts := syncCounter{}
	c.Observer = counts
	return c, counts
}

func assignedState(t *testing.T, profiles ...profile.Profile) library.State {
	t.Helper()
	st := library.New()
	for i, p := range profiles {
		var err error
		var idx int
		st, idx, err = st.Add(p)
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if st, err = st.Assign(i+1, idx); err != nil {
			t.Fatalf("Assign: %v", err)
		}
	}
	return st
}

func slotProfiles() []profile.Profile {
	a := scenarioProfile()
	b := profile.New("Second")
	b.Buttons[0].Mapping1 = profile.ActionCross
	c := profile.New("Third")
	c.Orientation = profile.OrientationStickBelow
	c.Ports[0].Mapping1 = profile.ActionRightStick
	return []profile.Profile{a, b, c}
}

func TestSaveAllThenLoadAll(t *testing.T) {
	sim := &simulatedController{}
	c, counts := newTestController(sim)
	ctx := context.Background()

	saved := slotProfiles()
	if err := c.SaveAll(ctx, assignedState(t, saved...)); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if sim.sends != NumSlots*framing.ChunkCount {
		t.Errorf("sent %d frames", sim.sends)
	}

	// Loading into a fresh library adds every slot.
	st, bindings, err := c.LoadAll(ctx, library.New())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if st.Len() != NumSlots || len(bindings) != NumSlots {
		t.Fatalf("loaded %d profiles, %d bindings", st.Len(), len(bindings))
	}
	for n, b := range bindings {
		if !b.Added || b.Slot != n+1 {
			t.Errorf("binding %d = %+v", n, b)
		}
		got, _ := st.SlotProfile(n + 1)
		if got.Name != saved[n].Name || !profile.Matches(got, saved[n]) {
			t.Errorf("slot %d = %+v, want %+v", n+1, got, saved[n])
		}
	}

	// Loading again into the result reuses every entry.
	again, bindings, err := c.LoadAll(ctx, st)
	if err != nil {
		t.Fatalf("second LoadAll: %v", err)
	}
	if again.Len() != NumSlots {
		t.Errorf("second load grew the library to %d", again.Len())
	}
	for _, b := range bindings {
		if b.Added {
			t.Errorf("slot %d added a duplicate", b.Slot)
		}
	}

	if counts["save"] != 3 || counts["load"] != 6 {
		t.Errorf("synced = %v", counts)
	}
}

func TestSaveAllRequiresEverySlot(t *testing.T) {
	sim := &simulatedController{}
	c, _ := newTestController(sim)

	st := assignedState(t, slotProfiles()[:2]...)
	err := c.SaveAll(context.Background(), st)
	var ve *library.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *library.ValidationError", err)
	}
	if sim.sends != 0 {
		t.Errorf("%d frames sent before validation", sim.sends)
	}
}

func TestSaveAllStopsAtFailingSlot(t *testing.T) {
	// Fail on the sixth frame of slot 2.
	sim := &simulatedController{failAt: framing.ChunkCount + 6}
	c, counts := newTestController(sim)

	err := c.SaveAll(context.Background(), assignedState(t, slotProfiles()...))
	var se *SlotError
	if !errors.As(err, &se) || se.Slot != 2 {
		t.Fatalf("err = %v, want *SlotError for slot 2", err)
	}
	var te *framing.TransportError
	if !errors.As(err, &te) || te.Chunk != 5 {
		t.Errorf("err = %v, want transport error at chunk 5", err)
	}
	if !errors.Is(err, errUnplugged) {
		t.Errorf("cause lost: %v", err)
	}
	if sim.sends != framing.ChunkCount+6 {
		t.Errorf("sent %d frames after the failure", sim.sends-framing.ChunkCount-6)
	}
	if sim.slots[0] == nil || sim.slots[1] != nil {
		t.Errorf("slot 1 written = %v, slot 2 written = %v", sim.slots[0] != nil, sim.slots[1] != nil)
	}
	if counts["save"] != 1 {
		t.Errorf("synced = %v", counts)
	}
}

func TestLoadAllKeepsPartialState(t *testing.T) {
	sim := &simulatedController{}
	c, _ := newTestController(sim)
	ctx := context.Background()
	if err := c.SaveAll(ctx, assignedState(t, slotProfiles()...)); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	// The selector for slot 3 is the third send of the load sequence.
	sim.failAt = sim.sends + 3
	st, bindings, err := c.LoadAll(ctx, library.New())
	var se *SlotError
	if !errors.As(err, &se) || se.Slot != 3 {
		t.Fatalf("err = %v, want *SlotError for slot 3", err)
	}
	if len(bindings) != 2 || st.Len() != 2 {
		t.Errorf("partial load kept %d bindings, %d profiles", len(bindings), st.Len())
	}
	if _, ok := st.Slot(3); ok {
		t.Errorf("slot 3 bound after failure")
	}
}

func TestLoadSlotIntegrity(t *testing.T) {
	sim := &simulatedController{}
	c, counts := newTestController(sim)
	ctx := context.Background()
	if err := c.SaveSlot(ctx, 1, scenarioProfile()); err != nil {
		t.Fatalf("SaveSlot: %v", err)
	}

	sim.corrupt = true
	_, err := c.LoadSlot(ctx, 1)
	var ie *framing.IntegrityError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want *framing.IntegrityError", err)
	}
	if counts["load"] != 0 {
		t.Errorf("corrupt load counted as synced")
	}

	// Without verification the corrupted byte is accepted as data.
	c.Transport = framing.NewTransport(sim, framing.WithoutReadVerification())
	if _, err := c.LoadSlot(ctx, 1); err != nil {
		t.Errorf("unverified LoadSlot: %v", err)
	}
}

func TestLoadSlotRejectsForeignBlock(t *testing.T) {
	sim := &simulatedController{}
	sim.slots[1] = make([]byte, framing.BlockSize)
	c, _ := newTestController(sim)

	_, err := c.LoadSlot(context.Background(), 2)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Errorf("err = %v, want *FormatError", err)
	}
}

func TestSaveSlotRejectsBadProfile(t *testing.T) {
	sim := &simulatedController{}
	c, _ := newTestController(sim)

	p := profile.New("bad")
	p.Orientation = 9
	var fe *FormatError
	if err := c.SaveSlot(context.Background(), 1, p); !errors.As(err, &fe) {
		t.Errorf("err = %v, want *FormatError", err)
	}
	if sim.sends != 0 {
		t.Errorf("frames sent for an unencodable profile")
	}
}

type featureFunc func(reportID byte) ([]byte, error)

func (f featureFunc) ReadFeature(reportID byte) ([]byte, error) { return f(reportID) }

func TestCheckWired(t *testing.T) {
	var asked byte
	bluetooth := featureFunc(func(id byte) ([]byte, error) {
		asked = id
		return make([]byte, 63), nil
	})
	if err := CheckWired(bluetooth); !errors.Is(err, ErrBluetooth) {
		t.Errorf("err = %v, want ErrBluetooth", err)
	}
	if asked != BluetoothReportID {
		t.Errorf("asked for report 0x%02X", asked)
	}

	usb := featureFunc(func(byte) ([]byte, error) { return nil, errors.New("broken pipe") })
	if err := CheckWired(usb); err != nil {
		t.Errorf("USB controller: %v", err)
	}
}
