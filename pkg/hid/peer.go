package hid

import (
	"context"
	"fmt"
)

// Peer adapts a Device to the feature report exchanges of framing.Transport.
type Peer struct {
	dev Device
}

func NewPeer(dev Device) *Peer {
	return &Peer{dev: dev}
}

// SendFeature writes data as feature report reportID.
func (p *Peer) SendFeature(ctx context.Context, reportID byte, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.dev.WriteFeature(reportID, data)
}

// ReceiveFeature reads feature report reportID. The returned frame starts
// with the report ID, which the backends strip.
func (p *Peer) ReceiveFeature(ctx context.Context, reportID byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := p.dev.ReadFeature(reportID)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("feature report 0x%02X: empty response", reportID)
	}
	frame := make([]byte, len(data)+1)
	frame[0] = reportID
	copy(frame[1:], data)
	return frame, nil
}
