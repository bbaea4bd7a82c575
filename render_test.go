package texpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRaster builds a 1xN raster with one 8-bit sample per band.
func testRaster(tag ColorTag, bands ...Band) *Raster {
	r := &Raster{
		Width:           bands[0].Len(),
		Height:          1,
		Bands:           bands,
		SamplesPerPixel: len(bands),
		ColorTag:        tag,
	}
	for range bands {
		r.BitsPerSample = append(r.BitsPerSample, 8)
	}
	return r
}

func TestRenderDisplayGray(t *testing.T) {
	r := testRaster(TagBlackIsZero, BandUint8([]uint8{0, 128, 255}))

	bm, err := RenderDisplay(r, DefaultFormat(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, bm.Width)
	assert.Equal(t, 1, bm.Height)

	// 128 scaled by 256/255 stays 128 after truncation; 255 clamps to 255.
	assert.Equal(t, []byte{0, 0, 0, 255, 128, 128, 128, 255, 255, 255, 255, 255}, bm.Pix)
}

func TestRenderDisplayGrayInverted(t *testing.T) {
	r := testRaster(TagWhiteIsZero, BandUint8([]uint8{0, 255}))

	bm, err := RenderDisplay(r, DefaultFormat(), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 255, 255, 255, 0, 0, 0, 255}, bm.Pix)
}

func TestRenderDisplayRGB(t *testing.T) {
	r := testRaster(TagRGB,
		BandUint8([]uint8{10}),
		BandUint8([]uint8{20}),
		BandUint8([]uint8{30}),
	)

	bm, err := RenderDisplay(r, DefaultFormat(), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 20, 30, 255}, bm.Pix)
}

func TestRenderDisplayRGBA(t *testing.T) {
	r := testRaster(TagRGB,
		BandUint8([]uint8{10}),
		BandUint8([]uint8{20}),
		BandUint8([]uint8{30}),
		BandUint8([]uint8{40}),
	)

	bm, err := RenderDisplay(r, DefaultFormat(), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 20, 30, 40}, bm.Pix)
}

func TestRenderDisplayChannelMap(t *testing.T) {
	r := testRaster(TagRGB,
		BandUint8([]uint8{10}),
		BandUint8([]uint8{20}),
		BandUint8([]uint8{30}),
	)
	cfg := DefaultFormat()
	cfg.Image.ChannelMap = []int{2, 1, 0}

	bm, err := RenderDisplay(r, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{30, 20, 10, 255}, bm.Pix)
}

func TestRenderDisplayTwoBands(t *testing.T) {
	r := testRaster(TagRGB,
		BandUint8([]uint8{10}),
		BandUint8([]uint8{20}),
	)

	bm, err := RenderDisplay(r, DefaultFormat(), nil)
	require.NoError(t, err)
	// A missing blue plane is zero-filled, alpha stays opaque.
	assert.Equal(t, []byte{10, 20, 0, 255}, bm.Pix)
}

func TestRenderDisplayChannelOverflowWarnsOnce(t *testing.T) {
	r := testRaster(TagNone,
		BandUint8([]uint8{1}),
		BandUint8([]uint8{2}),
		BandUint8([]uint8{3}),
		BandUint8([]uint8{4}),
		BandUint8([]uint8{5}),
		BandUint8([]uint8{6}),
	)
	cfg := DefaultFormat()
	cfg.Interpretation = InterpretImage

	var codes []string
	warns := NewWarnSet(func(code, message string) {
		codes = append(codes, code)
	})

	bm, err := RenderDisplay(r, cfg, warns)
	require.NoError(t, err)
	// Truncated to the first 4 bands, never a failure.
	assert.Equal(t, []byte{1, 2, 3, 4}, bm.Pix)

	// Same condition on the same warn state stays deduplicated.
	_, err = RenderDisplay(r, cfg, warns)
	require.NoError(t, err)
	assert.Equal(t, []string{WarnDisplayChannelOverflow}, codes)
}

func TestRenderDisplayChannelOutOfRange(t *testing.T) {
	r := testRaster(TagRGB,
		BandUint8([]uint8{1}),
		BandUint8([]uint8{2}),
		BandUint8([]uint8{3}),
	)
	cfg := DefaultFormat()
	cfg.Channels = []int{0, 1, 7}

	_, err := RenderDisplay(r, cfg, nil)
	require.Error(t, err)
	assert.IsType(t, InputError(""), err)
}

func TestRenderDisplayYCbCr(t *testing.T) {
	r := testRaster(TagYCbCr,
		BandUint8([]uint8{128, 255}),
		BandUint8([]uint8{128, 128}),
		BandUint8([]uint8{128, 128}),
	)

	bm, err := RenderDisplay(r, DefaultFormat(), nil)
	require.NoError(t, err)
	// Centered chroma is neutral gray; full luma is white.
	assert.Equal(t, []byte{128, 128, 128, 255}, bm.Pix[:4])
	assert.Equal(t, []byte{255, 255, 255, 255}, bm.Pix[4:])
}

func TestRenderDisplayYCbCrClamps(t *testing.T) {
	r := testRaster(TagYCbCr,
		BandUint8([]uint8{255}),
		BandUint8([]uint8{0}),
		BandUint8([]uint8{255}),
	)

	bm, err := RenderDisplay(r, DefaultFormat(), nil)
	require.NoError(t, err)
	// Saturated red channel clamps to 255 instead of wrapping.
	assert.Equal(t, uint8(255), bm.Pix[0])
	assert.Equal(t, uint8(255), bm.Pix[3])
}

func TestRenderDisplayCMYK(t *testing.T) {
	r := testRaster(TagCMYK,
		BandUint8([]uint8{0, 0}),
		BandUint8([]uint8{0, 0}),
		BandUint8([]uint8{0, 0}),
		BandUint8([]uint8{0, 255}),
	)

	bm, err := RenderDisplay(r, DefaultFormat(), nil)
	require.NoError(t, err)
	// No ink maps to near-white through the 256 denominators.
	assert.Equal(t, []byte{253, 253, 253, 255}, bm.Pix[:4])
	// Full key ink is black.
	assert.Equal(t, []byte{0, 0, 0, 255}, bm.Pix[4:])
}

func TestRenderDisplayLab(t *testing.T) {
	r := testRaster(TagCIELab,
		BandUint8([]uint8{255, 0}),
		BandUint8([]uint8{0, 0}),
		BandUint8([]uint8{0, 0}),
	)

	bm, err := RenderDisplay(r, DefaultFormat(), nil)
	require.NoError(t, err)
	// L=100 with neutral a/b is white, within sRGB rounding.
	assert.InDelta(t, 255, bm.Pix[0], 1)
	assert.InDelta(t, 255, bm.Pix[1], 1)
	assert.InDelta(t, 255, bm.Pix[2], 1)
	assert.Equal(t, uint8(255), bm.Pix[3])
	// L=0 is black.
	assert.Equal(t, []byte{0, 0, 0, 255}, bm.Pix[4:])
}

func TestRenderDisplayLabNegativeChroma(t *testing.T) {
	// a=200 reinterprets as the signed value -56: a green cast, so the
	// green channel must dominate red.
	r := testRaster(TagCIELab,
		BandUint8([]uint8{128}),
		BandUint8([]uint8{200}),
		BandUint8([]uint8{128}),
	)

	bm, err := RenderDisplay(r, DefaultFormat(), nil)
	require.NoError(t, err)
	assert.Greater(t, bm.Pix[1], bm.Pix[0])
}

func TestRenderDisplayPalette(t *testing.T) {
	r := testRaster(TagPaletted, BandUint8([]uint8{0, 1}))
	// Two entries per segment, 16-bit values.
	r.Palette = []uint32{
		0xFFFF, 0x0000, // red segment
		0x0000, 0x8000, // green segment
		0x1234, 0xFFFF, // blue segment
	}

	bm, err := RenderDisplay(r, DefaultFormat(), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0x00, 0x12, 255}, bm.Pix[:4])
	assert.Equal(t, []byte{0x00, 0x80, 0xFF, 255}, bm.Pix[4:])
}

func TestRenderDisplayPaletteErrors(t *testing.T) {
	r := testRaster(TagPaletted, BandUint8([]uint8{0}))
	_, err := RenderDisplay(r, DefaultFormat(), nil)
	assert.IsType(t, FormatError(""), err)

	r.Palette = []uint32{0, 0, 0} // one entry per segment
	r.Bands[0].Uint8[0] = 7
	_, err = RenderDisplay(r, DefaultFormat(), nil)
	assert.IsType(t, FormatError(""), err)
}

func TestDisplayBitmapImage(t *testing.T) {
	bm := &DisplayBitmap{Width: 2, Height: 1, Pix: []byte{1, 2, 3, 4, 5, 6, 7, 8}}
	img := bm.Image()

	assert.Equal(t, 8, img.Stride)
	assert.Equal(t, 2, img.Bounds().Dx())
	r, g, b, a := img.At(1, 0).RGBA()
	assert.Equal(t, uint32(5)<<8|5, r)
	assert.Equal(t, uint32(6)<<8|6, g)
	assert.Equal(t, uint32(7)<<8|7, b)
	assert.Equal(t, uint32(8)<<8|8, a)
}
