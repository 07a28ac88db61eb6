//go:build cgo_enabled

package framewriter

import "github.com/asticode/go-astiav"

// pixelFormatDecision is computed exactly once, before any frame is
// processed, and never changes afterwards.
type pixelFormatDecision struct {
	swFormat astiav.PixelFormat
	hardware bool
}

func inputPixelFormat(format InputFormat) astiav.PixelFormat {
	if format == InputFormatBGR0 {
		return astiav.PixelFormatBgr0
	}
	return astiav.PixelFormatRgb0
}

func isFormatSupported(format astiav.PixelFormat, supported []astiav.PixelFormat) bool {
	for _, f := range supported {
		if f == format {
			return true
		}
	}
	return false
}

// chooseSoftwareFormat picks the pixel format frames will be in immediately
// before encoding. If the codec takes the input layout directly we use it
// unmodified and skip conversion entirely. Otherwise prefer yuv420p for its
// broad compatibility, and only then fall back to whatever the codec lists
// first.
func chooseSoftwareFormat(inputFormat astiav.PixelFormat, supported []astiav.PixelFormat) astiav.PixelFormat {
	if isFormatSupported(inputFormat, supported) {
		return inputFormat
	}
	if isFormatSupported(astiav.PixelFormatYuv420P, supported) {
		return astiav.PixelFormatYuv420P
	}
	if len(supported) == 0 {
		// The codec does not constrain its input; keep the layout we have.
		return inputFormat
	}
	return supported[0]
}
