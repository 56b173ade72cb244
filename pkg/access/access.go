// Package access implements the profile block codec of the PlayStation
// Access controller and the save/load operations against its three
// device-resident profile slots.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/seagrayinc/access-profiles/pkg/framing"
	"github.com/seagrayinc/access-profiles/pkg/library"
	"github.com/seagrayinc/access-profiles/pkg/profile"
)

const (
	SonyVID   uint16 = 0x054C
	AccessPID uint16 = 0x0E5F

	// BluetoothReportID is only exposed when the controller is paired over
	// Bluetooth, where profile transfer is not available.
	BluetoothReportID byte = 0x63

	NumSlots = framing.NumSlots
)

// ErrBluetooth is returned by CheckWired for a controller paired over
// Bluetooth.
var ErrBluetooth = errors.New("controller is connected over Bluetooth: please connect your Access controller with a USB cable")

// FeatureReader reads a feature report by ID.
type FeatureReader interface {
	ReadFeature(reportID byte) ([]byte, error)
}

// CheckWired returns ErrBluetooth when dev answers the feature report that
// only exists on a Bluetooth connection.
func CheckWired(dev FeatureReader) error {
	if _, err := dev.ReadFeature(BluetoothReportID); err == nil {
		return ErrBluetooth
	}
	return nil
}

// SlotError identifies the slot at which a multi-slot operation stopped.
// Slots before it have already been applied.
type SlotError struct {
	Slot int
	Err  error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("slot %d: %v", e.Slot, e.Err)
}

func (e *SlotError) Unwrap() error { return e.Err }

// Observer receives controller-level events in addition to the frame-level
// ones of framing.Observer.
type Observer interface {
	ProfileSynced(direction string)
}

// Controller saves and loads profiles over a framing.Transport. It must not be
// used concurrently.
type Controller struct {
	Transport *framing.Transport
	Encoder   Encoder
	Observer  Observer
	Logger    *slog.Logger
}

func NewController(t *framing.Transport) *Controller {
	return &Controller{Transport: t}
}

func (c *Controller) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Controller) synced(direction string) {
	if c.Observer != nil {
		c.Observer.ProfileSynced(direction)
	}
}

// SaveSlot writes p to the given device slot.
func (c *Controller) SaveSlot(ctx context.Context, slot int, p profile.Profile) error {
	block, err := c.Encoder.Encode(p)
	if err != nil {
		return err
	}
	if err := c.Transport.WriteSlot(ctx, slot, block); err != nil {
		return err
	}
	c.synced("save")
	c.logger().Info("profile saved", slog.Int("slot", slot), slog.String("name", p.Name))
	return nil
}

// LoadSlot reads and decodes the profile stored in the given device slot.
func (c *Controller) LoadSlot(ctx context.Context, slot int) (profile.Profile, error) {
	block, err := c.Transport.ReadSlot(ctx, slot)
	if err != nil {
		return profile.Profile{}, err
	}
	p, err := Decode(block)
	if err != nil {
		return profile.Profile{}, err
	}
	c.synced("load")
	c.logger().Info("profile loaded", slog.Int("slot", slot), slog.String("name", p.Name))
	return p, nil
}

// SaveAll writes the profiles assigned in st to slots 1..3 in order. Every
// slot must be assigned; that is checked before anything is sent. A failure
// is returned as a *SlotError and leaves earlier slots written.
func (c *Controller) SaveAll(ctx context.Context, st library.State) error {
	profiles := make([]profile.Profile, NumSlots)
	for slot := 1; slot <= NumSlots; slot++ {
		p, ok := st.SlotProfile(slot)
		if !ok {
			return &library.ValidationError{Reason: fmt.Sprintf("slot %d is empty", slot)}
		}
		profiles[slot-1] = p
	}

	for slot := 1; slot <= NumSlots; slot++ {
		if err := c.SaveSlot(ctx, slot, profiles[slot-1]); err != nil {
			return &SlotError{Slot: slot, Err: err}
		}
	}
	return nil
}

// LoadAll reads slots 1..3 in order and reconciles each profile with st. On
// failure the returned state holds the slots loaded so far and the error is a
// *SlotError.
func (c *Controller) LoadAll(ctx context.Context, st library.State) (library.State, []library.Binding, error) {
	var bindings []library.Binding
	for slot := 1; slot <= NumSlots; slot++ {
		p, err := c.LoadSlot(ctx, slot)
		if err != nil {
			return st, bindings, &SlotError{Slot: slot, Err: err}
		}
		var b library.Binding
		st, b = st.BindDeviceProfile(slot, p)
		bindings = append(bindings, b)
		c.logger().Debug("slot bound",
			slog.Int("slot", slot), slog.Int("index", b.Index), slog.Bool("added", b.Added))
	}
	return st, bindings, nil
}
