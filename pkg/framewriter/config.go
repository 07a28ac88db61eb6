package framewriter

import "fmt"

// InputFormat enumerates the raw pixel layouts the writer accepts. Both are
// packed 4-byte-per-pixel RGB-family layouts with an unused fourth byte.
type InputFormat int

const (
	InputFormatBGR0 InputFormat = iota
	InputFormatRGB0
)

func (f InputFormat) String() string {
	if f == InputFormatBGR0 {
		return "bgr0"
	}
	return "rgb0"
}

const bytesPerPixel = 4

// Config describes one encoding session. It is fixed for the lifetime of the
// FrameWriter; changing dimensions or frame rate requires a new writer.
type Config struct {
	File        string
	Width       int
	Height      int
	FrameRate   int
	InputFormat InputFormat

	// Codec is the encoder name as known to FFmpeg, e.g. "libx264" or
	// "h264_vaapi".
	Codec string

	// HardwareDevice selects hardware encoding when non-empty. The value is
	// the device path handed to the device constructor, e.g.
	// "/dev/dri/renderD128".
	HardwareDevice string

	// CodecOptions are private encoder options. Values are not validated
	// here; the encoder reports invalid ones when it opens.
	CodecOptions map[string]string

	DebugLogging bool
}

func (c *Config) validate() error {
	if c.File == "" {
		return fmt.Errorf("%w: output file is empty", ErrConfiguration)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrConfiguration, c.Width, c.Height)
	}
	if c.FrameRate <= 0 {
		return fmt.Errorf("%w: invalid frame rate %d", ErrConfiguration, c.FrameRate)
	}
	if c.Codec == "" {
		return fmt.Errorf("%w: codec is empty", ErrConfiguration)
	}
	return nil
}

func (c *Config) frameSize() int {
	return c.Width * c.Height * bytesPerPixel
}
