//go:build cgo_enabled

package framewriter

import (
	"fmt"

	"github.com/asticode/go-astiav"
)

const hardwareDeviceTypeName = "vaapi"

// hardwarePoolFormat is the software-visible format inside the device frame
// pool.
const hardwarePoolFormat = astiav.PixelFormatNv12

const hardwarePoolSize = 20

// hardwareContext owns the device handle and the device-resident frame pool.
// It is built once at session open and consulted once per frame for the
// upload into the pool.
type hardwareContext struct {
	deviceContext  *astiav.HardwareDeviceContext
	framesContext  *astiav.HardwareFramesContext
	hardwareFormat astiav.PixelFormat
}

func newHardwareContext(codec *astiav.Codec, device string, width, height int) (*hardwareContext, error) {
	deviceType := astiav.FindHardwareDeviceTypeByName(hardwareDeviceTypeName)
	if deviceType == astiav.HardwareDeviceTypeNone {
		return nil, fmt.Errorf("%w: hardware device type %q is not available", ErrDevice, hardwareDeviceTypeName)
	}

	deviceContext, err := astiav.CreateHardwareDeviceContext(deviceType, device, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: creating device %q: %w", ErrDevice, device, err)
	}

	hardwareFormat := astiav.PixelFormatNone
	for _, config := range codec.HardwareConfigs() {
		if config.MethodFlags().Has(astiav.CodecHardwareConfigMethodFlagHwDeviceCtx) && config.HardwareDeviceType() == deviceType {
			hardwareFormat = config.PixelFormat()
			break
		}
	}
	if hardwareFormat == astiav.PixelFormatNone {
		deviceContext.Free()
		return nil, fmt.Errorf("%w: encoder %q has no %s surface format", ErrDevice, codec.Name(), hardwareDeviceTypeName)
	}

	framesContext := astiav.AllocHardwareFramesContext(deviceContext)
	if framesContext == nil {
		deviceContext.Free()
		return nil, fmt.Errorf("%w: allocating frame pool", ErrDevice)
	}

	framesContext.SetWidth(width)
	framesContext.SetHeight(height)
	framesContext.SetHardwarePixelFormat(hardwareFormat)
	framesContext.SetSoftwarePixelFormat(hardwarePoolFormat)
	framesContext.SetInitialPoolSize(hardwarePoolSize)

	if err := framesContext.Initialize(); err != nil {
		framesContext.Free()
		deviceContext.Free()
		return nil, fmt.Errorf("%w: initializing frame pool: %w", ErrDevice, err)
	}

	return &hardwareContext{
		deviceContext:  deviceContext,
		framesContext:  framesContext,
		hardwareFormat: hardwareFormat,
	}, nil
}

func (h *hardwareContext) close() {
	if h.framesContext != nil {
		h.framesContext.Free()
	}
	if h.deviceContext != nil {
		h.deviceContext.Free()
	}
}
