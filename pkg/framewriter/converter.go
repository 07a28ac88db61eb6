//go:build cgo_enabled

package framewriter

import (
	"fmt"

	"github.com/asticode/go-astiav"
)

// converter owns the color-space conversion between the raw input layout and
// the format the encoder consumes. Dimensions never change, only the pixel
// layout, so fast bilinear is a throughput-over-fidelity trade that costs
// nothing here.
type converter struct {
	scaleContext *astiav.SoftwareScaleContext
}

func newConverter(inputFormat, outputFormat astiav.PixelFormat, width, height int) (*converter, error) {
	scaleContext, err := astiav.CreateSoftwareScaleContext(
		width, height, inputFormat,
		width, height, outputFormat,
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagFastBilinear),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: creating scale context (%s -> %s): %w", ErrConfiguration, inputFormat.Name(), outputFormat.Name(), err)
	}

	return &converter{scaleContext: scaleContext}, nil
}

func (c *converter) convert(src, dst *astiav.Frame) error {
	return c.scaleContext.ScaleFrame(src, dst)
}

func (c *converter) close() {
	if c.scaleContext != nil {
		c.scaleContext.Free()
	}
}
