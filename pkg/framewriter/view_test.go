package framewriter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testPixels(width, height int) []byte {
	pixels := make([]byte, width*height*bytesPerPixel)
	for row := 0; row < height; row++ {
		for i := 0; i < width*bytesPerPixel; i++ {
			pixels[row*width*bytesPerPixel+i] = byte(row)
		}
	}
	return pixels
}

func TestPixelViewPackIdentity(t *testing.T) {
	width, height := 4, 3
	pixels := testPixels(width, height)

	view := newPixelView(pixels, width, height, false)
	packed := make([]byte, len(pixels))
	view.packTo(packed)

	require.Equal(t, pixels, packed)
}

func TestPixelViewFlipReversesRows(t *testing.T) {
	width, height := 4, 3
	pixels := testPixels(width, height)

	plain := newPixelView(pixels, width, height, false)
	flipped := newPixelView(pixels, width, height, true)

	packedPlain := make([]byte, len(pixels))
	packedFlipped := make([]byte, len(pixels))
	plain.packTo(packedPlain)
	flipped.packTo(packedFlipped)

	rowBytes := width * bytesPerPixel
	for i := 0; i < height; i++ {
		j := height - 1 - i
		require.Equal(t,
			packedPlain[i*rowBytes:(i+1)*rowBytes],
			packedFlipped[j*rowBytes:(j+1)*rowBytes],
			"row %d", i)
	}
}

func TestPixelViewFlipDoesNotTouchSource(t *testing.T) {
	width, height := 2, 2
	pixels := testPixels(width, height)
	original := make([]byte, len(pixels))
	copy(original, pixels)

	view := newPixelView(pixels, width, height, true)
	view.packTo(make([]byte, len(pixels)))

	require.Equal(t, original, pixels)
}
