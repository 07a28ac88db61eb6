//go:build cgo_enabled

package framewriter

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
)

// Frame timestamps arrive in integer milliseconds and are rescaled to the
// stream timebase just before muxing.
var millisecondTimeBase = astiav.NewRational(1, 1000)

// session owns the encoder instance, the output container and every frame
// buffer involved in one encoding run. Its operations are only legal in the
// order open -> submit* -> flush -> finalize; the orchestrator enforces
// that sequencing.
type session struct {
	config   *Config
	decision pixelFormatDecision

	formatContext  *astiav.FormatContext
	ioContext      *astiav.IOContext
	stream         *astiav.Stream
	codec          *astiav.Codec
	encoderContext *astiav.CodecContext

	hardware  *hardwareContext
	converter *converter

	// sourceFrame stages the caller's pixels when they cannot be handed to
	// the encoder directly: as upload source in the hardware path, as
	// conversion source otherwise. encoderFrame is the software frame the
	// encoder consumes; hardwareFrame is the device-resident one.
	sourceFrame   *astiav.Frame
	encoderFrame  *astiav.Frame
	hardwareFrame *astiav.Frame

	packet  *astiav.Packet
	staging []byte

	closer *astikit.Closer

	written uint64
	dropped uint64
}

func openSession(config *Config) (_ *session, err error) {
	s := &session{
		config:  config,
		closer:  astikit.NewCloser(),
		staging: make([]byte, config.frameSize()),
	}

	// Roll back everything allocated so far before reporting a fatal open
	// error.
	defer func() {
		if err != nil {
			_ = s.closer.Close()
		}
	}()

	if s.formatContext, err = astiav.AllocOutputFormatContext(nil, "", config.File); err != nil {
		return nil, fmt.Errorf("%w: guessing output format for %q: %w", ErrContainer, config.File, err)
	}
	s.closer.Add(s.formatContext.Free)

	if s.codec = astiav.FindEncoderByName(config.Codec); s.codec == nil {
		return nil, fmt.Errorf("%w: no encoder named %q", ErrConfiguration, config.Codec)
	}

	if s.stream = s.formatContext.NewStream(s.codec); s.stream == nil {
		return nil, fmt.Errorf("%w: creating video stream", ErrContainer)
	}

	if s.encoderContext = astiav.AllocCodecContext(s.codec); s.encoderContext == nil {
		return nil, fmt.Errorf("%w: allocating encoder context for %q", ErrConfiguration, config.Codec)
	}
	s.closer.Add(s.encoderContext.Free)

	s.encoderContext.SetWidth(config.Width)
	s.encoderContext.SetHeight(config.Height)
	s.encoderContext.SetTimeBase(astiav.NewRational(1, config.FrameRate))
	s.encoderContext.SetFramerate(astiav.NewRational(config.FrameRate, 1))

	inputFormat := inputPixelFormat(config.InputFormat)

	if config.HardwareDevice != "" {
		if s.hardware, err = newHardwareContext(s.codec, config.HardwareDevice, config.Width, config.Height); err != nil {
			return nil, err
		}
		s.closer.Add(s.hardware.close)

		s.decision = pixelFormatDecision{swFormat: inputFormat, hardware: true}
		s.encoderContext.SetPixelFormat(s.hardware.hardwareFormat)
		s.encoderContext.SetHardwareFramesContext(s.hardware.framesContext)
	} else {
		s.decision = pixelFormatDecision{swFormat: chooseSoftwareFormat(inputFormat, s.codec.PixelFormats())}
		logger.Infof("choosing pixel format %s", s.decision.swFormat.Name())
		s.encoderContext.SetPixelFormat(s.decision.swFormat)

		if s.decision.swFormat != inputFormat {
			if s.converter, err = newConverter(inputFormat, s.decision.swFormat, config.Width, config.Height); err != nil {
				return nil, err
			}
			s.closer.Add(s.converter.close)
		}
	}

	if s.formatContext.OutputFormat().Flags().Has(astiav.IOFormatFlagGlobalheader) {
		s.encoderContext.SetFlags(s.encoderContext.Flags().Add(astiav.CodecContextFlagGlobalHeader))
	}

	options := astiav.NewDictionary()
	defer options.Free()
	for key, value := range resolveCodecOptions(config.Codec, config.CodecOptions) {
		if err = options.Set(key, value, astiav.NewDictionaryFlags()); err != nil {
			return nil, fmt.Errorf("%w: setting codec option %s=%s: %w", ErrConfiguration, key, value, err)
		}
	}

	if err = s.encoderContext.Open(s.codec, options); err != nil {
		return nil, fmt.Errorf("%w: opening encoder %q: %w", ErrConfiguration, config.Codec, err)
	}

	s.stream.SetTimeBase(astiav.NewRational(1, config.FrameRate))
	if err = s.encoderContext.ToCodecParameters(s.stream.CodecParameters()); err != nil {
		return nil, fmt.Errorf("%w: copying codec parameters to stream: %w", ErrContainer, err)
	}

	if err = s.allocateFrames(inputFormat); err != nil {
		return nil, err
	}

	s.packet = astiav.AllocPacket()
	s.closer.Add(s.packet.Free)

	if !s.formatContext.OutputFormat().Flags().Has(astiav.IOFormatFlagNofile) {
		if s.ioContext, err = astiav.OpenIOContext(config.File, astiav.NewIOContextFlags(astiav.IOContextFlagWrite), nil, nil); err != nil {
			return nil, fmt.Errorf("%w: opening %q for writing: %w", ErrContainer, config.File, err)
		}
		s.formatContext.SetPb(s.ioContext)
		s.closer.Add(func() { _ = s.ioContext.Close() })
	}

	if err = s.formatContext.WriteHeader(nil); err != nil {
		return nil, fmt.Errorf("%w: writing container header: %w", ErrContainer, err)
	}

	return s, nil
}

func (s *session) allocateFrames(inputFormat astiav.PixelFormat) error {
	if s.decision.hardware || s.converter != nil {
		s.sourceFrame = astiav.AllocFrame()
		s.closer.Add(s.sourceFrame.Free)
		s.sourceFrame.SetWidth(s.config.Width)
		s.sourceFrame.SetHeight(s.config.Height)
		s.sourceFrame.SetPixelFormat(inputFormat)
		if err := s.sourceFrame.AllocBuffer(1); err != nil {
			return fmt.Errorf("allocating source frame buffer: %w", err)
		}
	}

	if s.decision.hardware {
		s.hardwareFrame = astiav.AllocFrame()
		s.closer.Add(s.hardwareFrame.Free)
		s.hardwareFrame.SetWidth(s.config.Width)
		s.hardwareFrame.SetHeight(s.config.Height)
		s.hardwareFrame.SetPixelFormat(s.hardware.hardwareFormat)
		if err := s.hardwareFrame.AllocHardwareBuffer(s.hardware.framesContext); err != nil {
			return fmt.Errorf("%w: allocating device frame: %w", ErrDevice, err)
		}
		return nil
	}

	s.encoderFrame = astiav.AllocFrame()
	s.closer.Add(s.encoderFrame.Free)
	s.encoderFrame.SetWidth(s.config.Width)
	s.encoderFrame.SetHeight(s.config.Height)
	s.encoderFrame.SetPixelFormat(s.decision.swFormat)
	if err := s.encoderFrame.AllocBuffer(1); err != nil {
		return fmt.Errorf("allocating encoder frame buffer: %w", err)
	}
	return nil
}

// stage realizes the borrowed view into frame's own buffer.
func (s *session) stage(frame *astiav.Frame, view pixelView) error {
	if err := frame.MakeWritable(); err != nil {
		return fmt.Errorf("making frame writable: %w", err)
	}
	view.packTo(s.staging)
	if err := frame.Data().SetBytes(s.staging, 1); err != nil {
		return fmt.Errorf("staging frame pixels: %w", err)
	}
	return nil
}

func (s *session) submit(view pixelView, ptsMillis int64) error {
	var frame *astiav.Frame

	switch {
	case s.decision.hardware:
		if err := s.stage(s.sourceFrame, view); err != nil {
			return err
		}
		if err := s.sourceFrame.TransferHardwareData(s.hardwareFrame); err != nil {
			// Accepted loss: the session stays usable, the frame simply does
			// not appear in the output.
			s.dropped++
			logger.Warnf("uploading frame to device failed, dropping frame: %v", err)
			return nil
		}
		frame = s.hardwareFrame

	case s.converter != nil:
		if err := s.stage(s.sourceFrame, view); err != nil {
			return err
		}
		if err := s.encoderFrame.MakeWritable(); err != nil {
			return fmt.Errorf("making encoder frame writable: %w", err)
		}
		if err := s.converter.convert(s.sourceFrame, s.encoderFrame); err != nil {
			return fmt.Errorf("converting frame: %w", err)
		}
		frame = s.encoderFrame

	default:
		// The encoder consumes the input layout directly.
		if err := s.stage(s.encoderFrame, view); err != nil {
			return err
		}
		frame = s.encoderFrame
	}

	frame.SetPts(ptsMillis)

	if err := s.encoderContext.SendFrame(frame); err != nil {
		return fmt.Errorf("sending frame to encoder: %w", err)
	}
	return s.drain()
}

// drain forwards every packet the encoder has ready. Getting none is the
// encoder buffering internally, which is expected and not an error.
func (s *session) drain() error {
	for {
		if err := s.encoderContext.ReceivePacket(s.packet); err != nil {
			if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
				return nil
			}
			return fmt.Errorf("receiving packet from encoder: %w", err)
		}
		if err := s.finishFrame(); err != nil {
			return err
		}
	}
}

func (s *session) finishFrame() error {
	s.packet.RescaleTs(millisecondTimeBase, s.stream.TimeBase())
	s.packet.SetStreamIndex(s.stream.Index())

	// The interleaving entry point takes ownership of the packet even with a
	// single stream; some container formats depend on it.
	if err := s.formatContext.WriteInterleavedFrame(s.packet); err != nil {
		s.packet.Unref()
		return fmt.Errorf("%w: writing packet: %w", ErrContainer, err)
	}

	s.written++
	logger.Debugf("wrote frame %d", s.written)
	return nil
}

// flush signals end of input to the encoder and drains everything it still
// buffers. The encoder contract guarantees the loop terminates.
func (s *session) flush() error {
	if err := s.encoderContext.SendFrame(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
		return fmt.Errorf("flushing encoder: %w", err)
	}
	return s.drain()
}

func (s *session) finalize() error {
	if err := s.formatContext.WriteTrailer(); err != nil {
		_ = s.closer.Close()
		return fmt.Errorf("%w: writing container trailer: %w", ErrContainer, err)
	}
	return s.closer.Close()
}
