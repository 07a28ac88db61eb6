//go:build cgo_enabled

package framewriter

import (
	"fmt"
	"sync"
)

// FrameWriter is the single entry point of the pipeline: it accepts raw
// timestamped pixel buffers and produces one muxed video file. It is not
// safe for concurrent use; every operation runs to completion on the
// caller's goroutine.
type FrameWriter struct {
	config  Config
	session *session

	closed   bool
	once     sync.Once
	closeErr error
}

// CreateFrameWriter builds the full pipeline: format negotiation, the
// hardware or software conversion path, the encoder and the container, and
// writes the container header. Any failure is fatal for the writer; there is
// no partial-success state and no retry.
func CreateFrameWriter(config Config, options ...Option) (*FrameWriter, error) {
	for _, option := range options {
		if err := option(&config); err != nil {
			return nil, err
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	InitializeRuntime(config.DebugLogging)

	session, err := openSession(&config)
	if err != nil {
		return nil, err
	}

	return &FrameWriter{config: config, session: session}, nil
}

// AddFrame submits one frame. pixels must hold at least Width*Height*4 bytes
// in the configured input layout; ptsMillis is the presentation timestamp in
// milliseconds and must not decrease across calls; yInvert reads the buffer
// bottom-up without copying it first.
//
// A failed upload to the hardware device drops the frame and returns nil;
// the loss is counted in DroppedFrames.
func (w *FrameWriter) AddFrame(pixels []byte, ptsMillis int64, yInvert bool) error {
	if w.closed {
		return ErrClosed
	}
	if len(pixels) < w.config.frameSize() {
		return fmt.Errorf("%w: frame buffer holds %d bytes, need %d", ErrConfiguration, len(pixels), w.config.frameSize())
	}

	view := newPixelView(pixels, w.config.Width, w.config.Height, yInvert)
	return w.session.submit(view, ptsMillis)
}

// WrittenFrames reports how many packets reached the container so far.
func (w *FrameWriter) WrittenFrames() uint64 {
	return w.session.written
}

// DroppedFrames reports how many frames were lost to failed device uploads.
func (w *FrameWriter) DroppedFrames() uint64 {
	return w.session.dropped
}

// Close flushes the encoder, finalizes the container and releases every
// resource. It runs exactly once; calling AddFrame afterwards returns
// ErrClosed.
func (w *FrameWriter) Close() error {
	w.once.Do(func() {
		w.closed = true
		w.closeErr = w.session.flush()
		if err := w.session.finalize(); err != nil && w.closeErr == nil {
			w.closeErr = err
		}
	})
	return w.closeErr
}
