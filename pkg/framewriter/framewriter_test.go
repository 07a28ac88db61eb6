//go:build cgo_enabled

package framewriter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/stretchr/testify/require"
)

func solidColorFrame(config *Config, b, g, r byte) []byte {
	pixels := make([]byte, config.frameSize())
	for i := 0; i < len(pixels); i += bytesPerPixel {
		pixels[i] = b
		pixels[i+1] = g
		pixels[i+2] = r
	}
	return pixels
}

func demuxOutput(t *testing.T, file string) (streams int, packets int, durationMicro int64) {
	formatContext := astiav.AllocFormatContext()
	require.NotNil(t, formatContext)
	defer formatContext.Free()

	require.NoError(t, formatContext.OpenInput(file, nil, nil))
	defer formatContext.CloseInput()

	require.NoError(t, formatContext.FindStreamInfo(nil))

	packet := astiav.AllocPacket()
	defer packet.Free()
	for formatContext.ReadFrame(packet) == nil {
		packets++
		packet.Unref()
	}

	return len(formatContext.Streams()), packets, formatContext.Duration()
}

func TestWriteSoftwareEncodedFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out.mp4")
	config := Config{
		File:      file,
		Width:     64,
		Height:    64,
		FrameRate: 60,
		Codec:     "mpeg4",
	}

	writer, err := CreateFrameWriter(config)
	require.NoError(t, err)

	for i, pts := range []int64{0, 16, 33} {
		pixels := solidColorFrame(&config, byte(80*i), 0, 255)
		require.NoError(t, writer.AddFrame(pixels, pts, false))
	}

	require.Zero(t, writer.DroppedFrames())
	require.NoError(t, writer.Close())
	require.EqualValues(t, 3, writer.WrittenFrames())

	info, err := os.Stat(file)
	require.NoError(t, err)
	require.Positive(t, info.Size())

	streams, packets, duration := demuxOutput(t, file)
	require.Equal(t, 1, streams)
	require.GreaterOrEqual(t, packets, 1)
	require.GreaterOrEqual(t, duration, int64(33*1000))
}

func TestWriteFlippedFrames(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out.mp4")
	config := Config{
		File:        file,
		Width:       64,
		Height:      64,
		FrameRate:   60,
		InputFormat: InputFormatRGB0,
		Codec:       "mpeg4",
	}

	writer, err := CreateFrameWriter(config)
	require.NoError(t, err)

	pixels := solidColorFrame(&config, 0, 255, 0)
	require.NoError(t, writer.AddFrame(pixels, 0, true))
	require.NoError(t, writer.AddFrame(pixels, 16, false))
	require.NoError(t, writer.Close())
}

func TestUnknownCodecIsFatal(t *testing.T) {
	config := Config{
		File:      filepath.Join(t.TempDir(), "out.mp4"),
		Width:     64,
		Height:    64,
		FrameRate: 60,
		Codec:     "definitely-not-a-codec",
	}

	_, err := CreateFrameWriter(config)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestUnavailableHardwareDeviceIsFatal(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out.mp4")
	config := Config{
		File:           file,
		Width:          64,
		Height:         64,
		FrameRate:      60,
		Codec:          "mpeg4",
		HardwareDevice: filepath.Join(t.TempDir(), "no-such-device"),
	}

	_, err := CreateFrameWriter(config)
	require.Error(t, err)

	// Initialization must fail before the container file is even opened.
	_, err = os.Stat(file)
	require.True(t, os.IsNotExist(err))
}

func TestZeroFramesThenClose(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out.mp4")
	config := Config{
		File:      file,
		Width:     64,
		Height:    64,
		FrameRate: 60,
		Codec:     "mpeg4",
	}

	writer, err := CreateFrameWriter(config)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	// Header and trailer were both written, so the file demuxes cleanly.
	streams, _, _ := demuxOutput(t, file)
	require.Equal(t, 1, streams)
}

func TestAddFrameAfterClose(t *testing.T) {
	config := Config{
		File:      filepath.Join(t.TempDir(), "out.mp4"),
		Width:     64,
		Height:    64,
		FrameRate: 60,
		Codec:     "mpeg4",
	}

	writer, err := CreateFrameWriter(config)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	err = writer.AddFrame(solidColorFrame(&config, 0, 0, 0), 0, false)
	require.ErrorIs(t, err, ErrClosed)

	// Close stays a no-op the second time.
	require.NoError(t, writer.Close())
}

func TestShortBufferIsRejected(t *testing.T) {
	config := Config{
		File:      filepath.Join(t.TempDir(), "out.mp4"),
		Width:     64,
		Height:    64,
		FrameRate: 60,
		Codec:     "mpeg4",
	}

	writer, err := CreateFrameWriter(config)
	require.NoError(t, err)
	defer writer.Close()

	err = writer.AddFrame(make([]byte, 16), 0, false)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestCodecOptionsReachTheEncoder(t *testing.T) {
	config := Config{
		File:      filepath.Join(t.TempDir(), "out.mp4"),
		Width:     64,
		Height:    64,
		FrameRate: 60,
		Codec:     "mpeg4",
	}

	// An option the encoder rejects must fail initialization, not be
	// silently ignored.
	_, err := CreateFrameWriter(config, WithCodecOption("b", "not-a-bitrate"))
	require.Error(t, err)
}
