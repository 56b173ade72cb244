// Package framing moves a 956-byte profile block across the fixed-size
// feature reports of the Access controller.
//
// A write is 18 frames of 63 bytes: a slot selector, the chunk index and up
// to 56 bytes of the block. The last frame also carries the CRC-32 of the
// whole block at offset 6. A read is a single selector frame followed by 18
// response frames, each with a 4-byte header before its payload.
package framing

import (
	"encoding/binary"
	"fmt"
)

const (
	FrameSize  = 63
	ChunkSize  = 56
	BlockSize  = 956
	ChunkCount = (BlockSize + ChunkSize - 1) / ChunkSize // 18

	// WriteReportID carries write frames and read selectors.
	WriteReportID byte = 0x60
	// ReadReportID carries response frames.
	ReadReportID byte = 0x61

	NumSlots = 3

	writeSelectorBase = 0x08
	readSelectorBase  = 0x10

	writeHeaderSize  = 2
	readHeaderSize   = 4
	chunkIndexOffset = 2

	// On the final chunk only BlockSize-17*ChunkSize = 4 payload bytes are
	// used, so the checksum directly follows them.
	lastChunkPayload = BlockSize - (ChunkCount-1)*ChunkSize
	writeCRCOffset   = writeHeaderSize + lastChunkPayload
	readCRCOffset    = readHeaderSize + lastChunkPayload
)

func checkSlot(slot int) error {
	if slot < 1 || slot > NumSlots {
		return fmt.Errorf("invalid profile slot %d: valid range is 1-%d", slot, NumSlots)
	}
	return nil
}

func checkBlock(block []byte) error {
	if len(block) != BlockSize {
		return fmt.Errorf("invalid block size %d: want %d", len(block), BlockSize)
	}
	return nil
}

// WriteFrames splits block into the ordered frames that write it to slot.
func WriteFrames(slot int, block []byte) ([][]byte, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	if err := checkBlock(block); err != nil {
		return nil, err
	}

	frames := make([][]byte, ChunkCount)
	for i := range frames {
		f := make([]byte, FrameSize)
		f[0] = writeSelectorBase + byte(slot)
		f[1] = byte(i)
		copy(f[writeHeaderSize:], chunk(block, i))
		frames[i] = f
	}
	binary.LittleEndian.PutUint32(frames[ChunkCount-1][writeCRCOffset:], Checksum(block, BlockSize))
	return frames, nil
}

// ReadRequest builds the selector frame asking the device for slot.
func ReadRequest(slot int) ([]byte, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	f := make([]byte, FrameSize)
	f[0] = readSelectorBase + byte(slot-1)
	return f, nil
}

// ResponseFrames lays block out the way the device answers a read of slot,
// including the checksum trailer. It is the inverse of Reassemble and is used
// by device simulators.
func ResponseFrames(slot int, block []byte) ([][]byte, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	if err := checkBlock(block); err != nil {
		return nil, err
	}

	frames := make([][]byte, ChunkCount)
	for i := range frames {
		f := make([]byte, FrameSize+1)
		f[0] = ReadReportID
		f[1] = readSelectorBase + byte(slot-1)
		f[chunkIndexOffset] = byte(i)
		copy(f[readHeaderSize:], chunk(block, i))
		frames[i] = f
	}
	binary.LittleEndian.PutUint32(frames[ChunkCount-1][readCRCOffset:], Checksum(block, BlockSize))
	return frames, nil
}

// Reassemble copies the payload of the response frames, in order, into a
// profile block. Frames whose header indexes them must arrive in order. With
// verify set, the checksum trailer of the last frame must match the block or
// an *IntegrityError is returned.
func Reassemble(slot int, frames [][]byte, verify bool) ([]byte, error) {
	if len(frames) != ChunkCount {
		return nil, fmt.Errorf("got %d response frames, want %d", len(frames), ChunkCount)
	}

	if err := checkOrder(frames); err != nil {
		return nil, err
	}

	block := make([]byte, BlockSize)
	for i, f := range frames {
		n := ChunkSize
		if rem := BlockSize - i*ChunkSize; rem < n {
			n = rem
		}
		if len(f) < readHeaderSize+n {
			return nil, fmt.Errorf("response frame %d has %d bytes: %w", i, len(f), ErrShortFrame)
		}
		copy(block[i*ChunkSize:], f[readHeaderSize:readHeaderSize+n])
	}

	if !verify {
		return block, nil
	}

	last := frames[ChunkCount-1]
	if len(last) < readCRCOffset+4 {
		return nil, fmt.Errorf("final response frame has no checksum trailer: %w", ErrShortFrame)
	}
	want := binary.LittleEndian.Uint32(last[readCRCOffset:])
	if got := Checksum(block, BlockSize); got != want {
		return nil, &IntegrityError{Slot: slot, Expected: want, Actual: got}
	}
	return block, nil
}

// checkOrder requires the chunk index at header offset 2 to count up from 0.
// Headers whose index bytes are not a permutation of 0..17 carry no index and
// are not checked.
func checkOrder(frames [][]byte) error {
	var seen [ChunkCount]bool
	for _, f := range frames {
		if len(f) < readHeaderSize {
			return nil
		}
		idx := int(f[chunkIndexOffset])
		if idx >= ChunkCount || seen[idx] {
			return nil
		}
		seen[idx] = true
	}
	for i, f := range frames {
		if idx := int(f[chunkIndexOffset]); idx != i {
			return fmt.Errorf("frame %d carries chunk %d: %w", i, idx, ErrFrameOrder)
		}
	}
	return nil
}

func chunk(block []byte, i int) []byte {
	start := i * ChunkSize
	end := start + ChunkSize
	if end > len(block) {
		end = len(block)
	}
	return block[start:end]
}
