package framing

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
)

// Peer performs single feature-report exchanges with the device. Frames
// returned by ReceiveFeature start with the report ID.
type Peer interface {
	SendFeature(ctx context.Context, reportID byte, data []byte) error
	ReceiveFeature(ctx context.Context, reportID byte) ([]byte, error)
}

// Observer is notified about every exchange the Transport performs.
type Observer interface {
	FrameSent(reportID byte)
	FrameReceived(reportID byte)
	ExchangeFailed(op string)
	IntegrityFailed()
}

type nopObserver struct{}

func (nopObserver) FrameSent(byte)        {}
func (nopObserver) FrameReceived(byte)    {}
func (nopObserver) ExchangeFailed(string) {}
func (nopObserver) IntegrityFailed()      {}

type config struct {
	verify   bool
	observer Observer
	logger   *slog.Logger
}

// Option configures a Transport.
type Option func(*config)

// WithoutReadVerification disables the checksum check on reads, for firmware
// that does not send a trailer.
func WithoutReadVerification() Option {
	return func(c *config) { c.verify = false }
}

// WithReadVerification sets whether reads check the checksum trailer.
func WithReadVerification(verify bool) Option {
	return func(c *config) { c.verify = verify }
}

// WithObserver sets the exchange observer, typically a metrics sink.
func WithObserver(o Observer) Option {
	return func(c *config) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Transport runs the multi-frame slot exchanges over a Peer. Exchanges are
// strictly sequential; a Transport must not be used concurrently.
type Transport struct {
	peer Peer
	cfg  config
}

func NewTransport(peer Peer, opts ...Option) *Transport {
	cfg := config{
		verify:   true,
		observer: nopObserver{},
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &Transport{peer: peer, cfg: cfg}
}

// WriteSlot sends block to slot as 18 frames in chunk order. The first
// failure aborts the sequence.
func (t *Transport) WriteSlot(ctx context.Context, slot int, block []byte) error {
	frames, err := WriteFrames(slot, block)
	if err != nil {
		return err
	}

	for i, f := range frames {
		if err := t.send(ctx, slot, i, f); err != nil {
			return err
		}
	}
	t.cfg.logger.Debug("slot written", slog.Int("slot", slot), slog.Int("frames", len(frames)))
	return nil
}

// ReadSlot requests slot from the device and reassembles the 18 response
// frames into a profile block.
func (t *Transport) ReadSlot(ctx context.Context, slot int) ([]byte, error) {
	req, err := ReadRequest(slot)
	if err != nil {
		return nil, err
	}
	if err := t.send(ctx, slot, -1, req); err != nil {
		return nil, err
	}

	frames := make([][]byte, ChunkCount)
	for i := range frames {
		if err := ctx.Err(); err != nil {
			return nil, t.fail("receive", ReadReportID, slot, i, err)
		}
		f, err := t.peer.ReceiveFeature(ctx, ReadReportID)
		if err != nil {
			return nil, t.fail("receive", ReadReportID, slot, i, err)
		}
		t.cfg.observer.FrameReceived(ReadReportID)
		t.cfg.logger.Debug("frame received",
			slog.Int("slot", slot), slog.Int("chunk", i), slog.String("bytes", HexString(f)))
		frames[i] = f
	}

	block, err := Reassemble(slot, frames, t.cfg.verify)
	if err != nil {
		var ie *IntegrityError
		if errors.As(err, &ie) {
			t.cfg.observer.IntegrityFailed()
			t.cfg.logger.Warn("checksum validation failed", slog.Int("slot", slot), slog.Any("error", err))
		}
		return nil, err
	}
	t.cfg.logger.Debug("slot read", slog.Int("slot", slot))
	return block, nil
}

func (t *Transport) send(ctx context.Context, slot, chunk int, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return t.fail("send", WriteReportID, slot, chunk, err)
	}
	t.cfg.logger.Debug("sending frame",
		slog.Int("slot", slot), slog.Int("chunk", chunk), slog.String("bytes", HexString(frame)))
	if err := t.peer.SendFeature(ctx, WriteReportID, frame); err != nil {
		return t.fail("send", WriteReportID, slot, chunk, err)
	}
	t.cfg.observer.FrameSent(WriteReportID)
	return nil
}

func (t *Transport) fail(op string, reportID byte, slot, chunk int, err error) error {
	t.cfg.observer.ExchangeFailed(op)
	return &TransportError{Op: op, ReportID: reportID, Slot: slot, Chunk: chunk, Err: err}
}

// HexString renders b as dash-separated hex pairs.
func HexString(b []byte) string {
	hexDigits := hex.EncodeToString(b)
	var builder strings.Builder
	for i, r := range hexDigits {
		if i > 0 && i%2 == 0 {
			builder.WriteString("-")
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
