package texpack

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xtiff "golang.org/x/image/tiff"
)

func encodeTIFF(t *testing.T, m image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, xtiff.Encode(&buf, m, nil))
	return buf.Bytes()
}

func TestOpenTIFFGrayRoundTrip(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 2))
	src.SetGray(0, 0, color.Gray{Y: 0})
	src.SetGray(1, 0, color.Gray{Y: 64})
	src.SetGray(0, 1, color.Gray{Y: 128})
	src.SetGray(1, 1, color.Gray{Y: 255})

	cr, err := OpenTIFF(encodeTIFF(t, src))
	require.NoError(t, err)
	assert.Equal(t, 1, cr.ImageCount())

	img, err := cr.Image(0)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, TagBlackIsZero, img.ColorTag)
	assert.Equal(t, []int{8}, img.BitsPerSample)
	require.Len(t, img.Bands, 1)
	assert.Equal(t, []uint8{0, 64, 128, 255}, img.Bands[0].Uint8)

	// The scanned tag dictionary rides along for the host.
	assert.Equal(t, []uint{2}, img.Tags[tImageWidth])
}

func TestOpenTIFFColorRoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{R: 40, G: 50, B: 60, A: 255})

	cr, err := OpenTIFF(encodeTIFF(t, src))
	require.NoError(t, err)

	ci, err := cr.Image(0)
	require.NoError(t, err)
	assert.Equal(t, TagRGB, ci.ColorTag)
	assert.Equal(t, 4, ci.SamplesPerPixel)
	require.Len(t, ci.Bands, 4)

	// Bands come back planar, one plane per channel.
	assert.Equal(t, []uint8{10, 40}, ci.Bands[0].Uint8)
	assert.Equal(t, []uint8{20, 50}, ci.Bands[1].Uint8)
	assert.Equal(t, []uint8{30, 60}, ci.Bands[2].Uint8)
	assert.Equal(t, []uint8{255, 255}, ci.Bands[3].Uint8)
}

func TestOpenTIFFPalettedRoundTrip(t *testing.T) {
	pal := color.Palette{
		color.RGBA{R: 0xAA, G: 0x11, B: 0x22, A: 0xFF},
		color.RGBA{R: 0x33, G: 0xBB, B: 0x44, A: 0xFF},
	}
	src := image.NewPaletted(image.Rect(0, 0, 2, 1), pal)
	src.SetColorIndex(0, 0, 0)
	src.SetColorIndex(1, 0, 1)

	raster, err := DecodeRaster(&RawContainer{Data: encodeTIFF(t, src)})
	require.NoError(t, err)
	assert.Equal(t, TagPaletted, raster.ColorTag)
	require.NotEmpty(t, raster.Palette)
	assert.Equal(t, []uint8{0, 1}, raster.Bands[0].Uint8)

	// The lookup table resolves through the display renderer.
	bm, err := RenderDisplay(raster, DefaultFormat(), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0x11, 0x22, 0xFF}, bm.Pix[:4])
	assert.Equal(t, []byte{0x33, 0xBB, 0x44, 0xFF}, bm.Pix[4:])
}

func TestOpenTIFFWhiteIsZeroNormalizedOnce(t *testing.T) {
	// Hand-assembled 2x1 uncompressed photometric-0 container: sample 0 is
	// white, sample 255 is black. The pixel decoder inverts white-is-zero
	// samples while reading, so the scanned tag must not survive to trigger
	// a second inversion in the gray renderer.
	b := newTIFFBuilder()
	strip := len(b.buf)
	b.buf = append(b.buf, 0x00, 0xFF)

	ifd := len(b.buf)
	b.patch(4, uint32(ifd))
	b.u16(7)
	b.entry(tImageWidth, dtShort, 1, 2)
	b.entry(tImageLength, dtShort, 1, 1)
	b.entry(tBitsPerSample, dtShort, 1, 8)
	b.entry(259, dtShort, 1, 1) // Compression: none
	b.entry(tPhotometricInterpretation, dtShort, 1, 0)
	b.entry(273, dtLong, 1, uint32(strip)) // StripOffsets
	b.entry(279, dtLong, 1, 2)             // StripByteCounts
	b.u32(0)

	raster, err := DecodeRaster(&RawContainer{Data: b.buf})
	require.NoError(t, err)
	assert.Equal(t, TagBlackIsZero, raster.ColorTag)
	assert.Equal(t, []uint8{255, 0}, raster.Bands[0].Uint8)

	bm, err := RenderDisplay(raster, DefaultFormat(), nil)
	require.NoError(t, err)
	// The white source pixel stays white, the black one stays black.
	assert.Equal(t, []byte{255, 255, 255, 255}, bm.Pix[:4])
	assert.Equal(t, []byte{0, 0, 0, 255}, bm.Pix[4:])
}

func TestTIFFContainerImageIndexErrors(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 1, 1))
	cr, err := OpenTIFF(encodeTIFF(t, src))
	require.NoError(t, err)

	_, err = cr.Image(3)
	require.Error(t, err)
	assert.IsType(t, InputError(""), err)

	_, err = cr.Image(-1)
	require.Error(t, err)
	assert.IsType(t, InputError(""), err)
}

func TestOpenTIFFRejectsGarbage(t *testing.T) {
	_, err := OpenTIFF([]byte("\x89PNG\r\n\x1a\n"))
	require.Error(t, err)
	assert.IsType(t, FormatError(""), err)
}

func TestImageToContainerImageYCbCr(t *testing.T) {
	src := image.NewYCbCr(image.Rect(0, 0, 2, 1), image.YCbCrSubsampleRatio444)
	src.Y[0], src.Y[1] = 100, 200
	src.Cb[0], src.Cb[1] = 110, 120
	src.Cr[0], src.Cr[1] = 130, 140

	ci, err := imageToContainerImage(src)
	require.NoError(t, err)
	assert.Equal(t, TagYCbCr, ci.ColorTag)
	assert.Equal(t, []uint8{100, 200}, ci.Bands[0].Uint8)
	assert.Equal(t, []uint8{110, 120}, ci.Bands[1].Uint8)
	assert.Equal(t, []uint8{130, 140}, ci.Bands[2].Uint8)
}

func TestImageToContainerImageGray16(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 1, 1))
	src.SetGray16(0, 0, color.Gray16{Y: 0xABCD})

	ci, err := imageToContainerImage(src)
	require.NoError(t, err)
	assert.Equal(t, []int{16}, ci.BitsPerSample)
	assert.Equal(t, []uint16{0xABCD}, ci.Bands[0].Uint16)
}

func TestImageToContainerImageSubimageOffset(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 4, 4))
	base.SetRGBA(2, 2, color.RGBA{R: 9, G: 8, B: 7, A: 255})
	sub := base.SubImage(image.Rect(2, 2, 3, 3)).(*image.RGBA)

	ci, err := imageToContainerImage(sub)
	require.NoError(t, err)
	assert.Equal(t, 1, ci.Width)
	assert.Equal(t, []uint8{9}, ci.Bands[0].Uint8)
	assert.Equal(t, []uint8{8}, ci.Bands[1].Uint8)
}

func TestImageToContainerImageUnsupported(t *testing.T) {
	_, err := imageToContainerImage(image.NewAlpha(image.Rect(0, 0, 1, 1)))
	require.Error(t, err)
	assert.IsType(t, UnsupportedError(""), err)
}
