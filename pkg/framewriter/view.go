package framewriter

// pixelView is a borrowed, read-only view over a caller-owned pixel buffer.
// A vertical flip is expressed as a negative stride starting at the last row,
// so no pixel data moves until the view is packed for the encoder. The view
// is only valid for the duration of one submit call; it never owns memory.
type pixelView struct {
	data     []byte
	offset   int
	stride   int
	rowBytes int
	rows     int
}

func newPixelView(pixels []byte, width, height int, yInvert bool) pixelView {
	view := pixelView{
		data:     pixels,
		stride:   width * bytesPerPixel,
		rowBytes: width * bytesPerPixel,
		rows:     height,
	}
	if yInvert {
		view.offset = view.stride * (height - 1)
		view.stride = -view.stride
	}
	return view
}

func (v pixelView) row(i int) []byte {
	start := v.offset + i*v.stride
	return v.data[start : start+v.rowBytes]
}

// packTo realizes the view as tightly packed rows in dst, which must hold
// rows*rowBytes bytes.
func (v pixelView) packTo(dst []byte) {
	if v.offset == 0 && v.stride == v.rowBytes {
		copy(dst, v.data[:v.rows*v.rowBytes])
		return
	}
	for i := 0; i < v.rows; i++ {
		copy(dst[i*v.rowBytes:(i+1)*v.rowBytes], v.row(i))
	}
}
