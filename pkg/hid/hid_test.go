package hid

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/seagrayinc/access-profiles/pkg/framing"
)

func testBlock() []byte {
	b := make([]byte, framing.BlockSize)
	for i := range b {
		b[i] = byte(i * 7)
	}
	return b
}

func TestPeerPrependsReportID(t *testing.T) {
	m := NewMockDevice()
	m.Queue(Report{ID: 0x61, Data: []byte{0x10, 0x00, 0x00, 0xAB}})

	got, err := NewPeer(m).ReceiveFeature(context.Background(), 0x61)
	if err != nil {
		t.Fatalf("ReceiveFeature: %v", err)
	}
	if want := []byte{0x61, 0x10, 0x00, 0x00, 0xAB}; !bytes.Equal(got, want) {
		t.Errorf("frame = % X, want % X", got, want)
	}
}

func TestPeerHonorsContext(t *testing.T) {
	m := NewMockDevice()
	p := NewPeer(m)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.SendFeature(ctx, framing.WriteReportID, make([]byte, framing.FrameSize)); !errors.Is(err, context.Canceled) {
		t.Errorf("SendFeature err = %v", err)
	}
	if _, err := p.ReceiveFeature(ctx, framing.ReadReportID); !errors.Is(err, context.Canceled) {
		t.Errorf("ReceiveFeature err = %v", err)
	}
	if len(m.Writes()) != 0 {
		t.Errorf("write reached the device after cancellation")
	}
}

func TestMockDeviceThroughTransport(t *testing.T) {
	m := NewMockDevice()
	tr := framing.NewTransport(NewPeer(m))
	ctx := context.Background()
	block := testBlock()

	if err := tr.WriteSlot(ctx, 2, block); err != nil {
		t.Fatalf("WriteSlot: %v", err)
	}
	writes := m.Writes()
	if len(writes) != framing.ChunkCount {
		t.Fatalf("recorded %d writes", len(writes))
	}
	for i, w := range writes {
		if w.ID != framing.WriteReportID || w.Data[0] != 0x0A || int(w.Data[1]) != i {
			t.Errorf("write %d header = %02X %02X %02X", i, w.ID, w.Data[0], w.Data[1])
		}
	}
	if !bytes.Equal(m.Slot(2), block) {
		t.Fatalf("slot 2 not stored")
	}

	got, err := tr.ReadSlot(ctx, 2)
	if err != nil {
		t.Fatalf("ReadSlot: %v", err)
	}
	if !bytes.Equal(got, block) {
		t.Errorf("read back a different block")
	}
}

func TestMockDeviceWriteFailure(t *testing.T) {
	m := NewMockDevice()
	m.FailWrite = errors.New("stall")
	tr := framing.NewTransport(NewPeer(m))

	err := tr.WriteSlot(context.Background(), 1, testBlock())
	var te *framing.TransportError
	if !errors.As(err, &te) || te.Chunk != 0 {
		t.Fatalf("err = %v, want transport error at chunk 0", err)
	}
	if m.Slot(1) != nil {
		t.Errorf("slot stored after failure")
	}
}

func TestMockDeviceEmptySlotReadsAsZeroBlock(t *testing.T) {
	m := NewMockDevice()
	got, err := framing.NewTransport(NewPeer(m)).ReadSlot(context.Background(), 3)
	if err != nil {
		t.Fatalf("ReadSlot: %v", err)
	}
	if !bytes.Equal(got, make([]byte, framing.BlockSize)) {
		t.Errorf("empty slot returned data")
	}
}

func TestMockDeviceClosed(t *testing.T) {
	m := NewMockDevice()
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.WriteFeature(framing.WriteReportID, []byte{0x09, 0}); !errors.Is(err, ErrClosed) {
		t.Errorf("WriteFeature err = %v", err)
	}
	if _, err := m.ReadFeature(framing.ReadReportID); !errors.Is(err, ErrClosed) {
		t.Errorf("ReadFeature err = %v", err)
	}
}

func TestMockDeviceBluetoothReport(t *testing.T) {
	m := NewMockDevice()
	m.Queue(Report{ID: framing.ReadReportID, Data: []byte{0x10}})
	if _, err := m.ReadFeature(0x63); err == nil {
		t.Errorf("USB mock answered report 0x63")
	}
	if _, err := m.ReadFeature(framing.ReadReportID); err != nil {
		t.Errorf("queued report lost after a failed read: %v", err)
	}

	m.Bluetooth = true
	if _, err := m.ReadFeature(0x63); err != nil {
		t.Errorf("Bluetooth mock: %v", err)
	}
}

func TestFilter(t *testing.T) {
	infos := []Info{
		{Path: "a", VendorID: 0x054C, ProductID: 0x0E5F},
		{Path: "b", VendorID: 0x054C, ProductID: 0x0CE6},
		{Path: "c", VendorID: 0x054C, ProductID: 0x0E5F},
	}
	got := Filter(infos, 0x054C, 0x0E5F)
	if len(got) != 2 || got[0].Path != "a" || got[1].Path != "c" {
		t.Errorf("Filter = %+v", got)
	}
	if Filter(infos, 0x17A4, 0x001E) != nil {
		t.Errorf("Filter matched a foreign id")
	}
}

func TestProbeHint(t *testing.T) {
	missing := ProbeResult{VendorID: 0x054C, ProductID: 0x0E5F, Others: 4}
	if h := missing.Hint(); !strings.Contains(h, "Bluetooth") || !strings.Contains(h, "0x0E5F") {
		t.Errorf("missing hint = %q", h)
	}
	present := ProbeResult{Matches: []ProbeEntry{{Interface: 3}}}
	if h := present.Hint(); !strings.Contains(h, "permissions") {
		t.Errorf("present hint = %q", h)
	}
}

func TestNotFoundWrapsSentinel(t *testing.T) {
	err := notFound(0x054C, 0x0E5F)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}
