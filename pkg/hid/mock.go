package hid

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/seagrayinc/access-profiles/pkg/framing"
)

// ErrClosed is returned by a MockDevice after Close.
var ErrClosed = errors.New("hid device closed")

const bluetoothReportID = 0x63

// Report is one feature report, without its ID in Data.
type Report struct {
	ID   byte
	Data []byte
}

// MockDevice behaves like an Access controller on the feature report level.
// It records every write, keeps one block per slot and answers read
// selectors with the matching response frames.
type MockDevice struct {
	mu      sync.Mutex
	writes  []Report
	queue   []Report
	slots   [framing.NumSlots][]byte
	partial []byte
	closed  bool

	// FailWrite, when set, is returned by the next WriteFeature.
	FailWrite error
	// Bluetooth makes the device answer feature report 0x63 like a
	// controller paired over Bluetooth.
	Bluetooth bool
}

func NewMockDevice() *MockDevice {
	return &MockDevice{}
}

// SetSlot stores block in slot as if it had been written by the device.
func (m *MockDevice) SetSlot(slot int, block []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot-1] = append([]byte(nil), block...)
}

// Slot returns the block stored in slot, or nil.
func (m *MockDevice) Slot(slot int) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.slots[slot-1]...)
}

// Writes returns the feature reports written so far.
func (m *MockDevice) Writes() []Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Report(nil), m.writes...)
}

// Queue adds a report to be returned by ReadFeature ahead of generated ones.
func (m *MockDevice) Queue(r Report) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, r)
}

func (m *MockDevice) WriteFeature(reportID byte, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if err := m.FailWrite; err != nil {
		m.FailWrite = nil
		return err
	}
	m.writes = append(m.writes, Report{ID: reportID, Data: append([]byte(nil), data...)})
	if reportID != framing.WriteReportID || len(data) < 2 {
		return nil
	}

	switch sel := data[0]; {
	case sel >= 0x09 && sel < 0x09+framing.NumSlots:
		return m.writeChunk(int(sel-0x09)+1, data)
	case sel >= 0x10 && sel < 0x10+framing.NumSlots:
		return m.answerRead(int(sel-0x10) + 1)
	}
	return nil
}

func (m *MockDevice) writeChunk(slot int, data []byte) error {
	idx := int(data[1])
	if idx == 0 {
		m.partial = m.partial[:0]
	}
	if idx*framing.ChunkSize != len(m.partial) {
		return fmt.Errorf("mock: chunk %d out of order", idx)
	}
	n := framing.ChunkSize
	if rem := framing.BlockSize - len(m.partial); rem < n {
		n = rem
	}
	if len(data) < 2+n {
		return fmt.Errorf("mock: chunk %d has %d bytes", idx, len(data))
	}
	m.partial = append(m.partial, data[2:2+n]...)

	if idx == framing.ChunkCount-1 {
		crc := binary.LittleEndian.Uint32(data[2+n:])
		if crc != framing.Checksum(m.partial, framing.BlockSize) {
			return fmt.Errorf("mock: checksum mismatch for slot %d", slot)
		}
		m.slots[slot-1] = append([]byte(nil), m.partial...)
	}
	return nil
}

func (m *MockDevice) answerRead(slot int) error {
	block := m.slots[slot-1]
	if block == nil {
		block = make([]byte, framing.BlockSize)
	}
	frames, err := framing.ResponseFrames(slot, block)
	if err != nil {
		return err
	}
	for _, f := range frames {
		m.queue = append(m.queue, Report{ID: f[0], Data: f[1:]})
	}
	return nil
}

func (m *MockDevice) ReadFeature(reportID byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if reportID == bluetoothReportID {
		if !m.Bluetooth {
			return nil, fmt.Errorf("mock: no feature report 0x%02X", reportID)
		}
		return make([]byte, framing.FrameSize), nil
	}
	if len(m.queue) == 0 {
		return nil, fmt.Errorf("mock: no pending feature report 0x%02X", reportID)
	}
	r := m.queue[0]
	if r.ID != reportID {
		return nil, fmt.Errorf("mock: pending report is 0x%02X, not 0x%02X", r.ID, reportID)
	}
	m.queue = m.queue[1:]
	return r.Data, nil
}

func (m *MockDevice) FeatureReportLength() int { return framing.FrameSize + 1 }

func (m *MockDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
