package texpack

import (
	"bytes"
	"image"

	"github.com/mdouchement/hdr"
	hdrtiff "github.com/mdouchement/tiff"
	"github.com/pkg/errors"
	xtiff "golang.org/x/image/tiff"
)

// ContainerReader is the external container-byte parser boundary. The
// pipeline performs no byte-level parsing of pixel payloads itself; a reader
// returns planar per-band buffers together with the metadata the downstream
// stages need.
type ContainerReader interface {
	// ImageCount returns how many images the container holds.
	ImageCount() int
	// Image decodes the image at index into planar bands.
	Image(index int) (*ContainerImage, error)
}

// ContainerImage is one decoded image as returned by a ContainerReader.
type ContainerImage struct {
	Width, Height   int
	Bands           []Band
	SamplesPerPixel int
	BitsPerSample   []int
	SampleFormat    []SampleFormat
	ColorTag        ColorTag
	Palette         []uint32
	Tags            map[uint16][]uint
}

// tiffContainer adapts TIFF bytes to the ContainerReader boundary. Pixel
// decode is delegated to golang.org/x/image/tiff for integer images and to
// github.com/mdouchement/tiff for HDR float images; the IFD scanner supplies
// the metadata both libraries discard.
type tiffContainer struct {
	data []byte
	tags *containerTags
}

// OpenTIFF scans the container's image directories and returns a reader over
// its bytes. No pixel data is decoded until Image is called.
func OpenTIFF(data []byte) (ContainerReader, error) {
	tags, err := scanContainerTags(data)
	if err != nil {
		return nil, err
	}
	return &tiffContainer{data: data, tags: tags}, nil
}

func (c *tiffContainer) ImageCount() int { return c.tags.count() }

func (c *tiffContainer) Image(index int) (*ContainerImage, error) {
	if index < 0 || index >= c.tags.count() {
		return nil, InputError("image index out of range")
	}
	if index != 0 {
		// Both delegated decoders only read the first directory.
		return nil, UnsupportedError("decode of secondary container images")
	}

	m, err := xtiff.Decode(bytes.NewReader(c.data))
	if err != nil {
		var hdrErr error
		if m, hdrErr = hdrtiff.Decode(bytes.NewReader(c.data)); hdrErr != nil {
			return nil, errors.Wrapf(err, "container decode failed (hdr fallback: %v)", hdrErr)
		}
	}

	img, err := imageToContainerImage(m)
	if err != nil {
		return nil, err
	}
	c.applyTags(index, img)
	return img, nil
}

// applyTags overrides the decoded defaults with the scanned container
// metadata: true per-band bit depths, sample formats, the photometric tag
// and the raw 16-bit color map.
func (c *tiffContainer) applyTags(fi int, img *ContainerImage) {
	img.Tags = make(map[uint16][]uint)
	for id, t := range c.tags.images[fi] {
		img.Tags[id] = t.val
	}

	if t := c.tags.tag(fi, tBitsPerSample); len(t.val) > 0 {
		img.BitsPerSample = make([]int, len(t.val))
		for i, v := range t.val {
			img.BitsPerSample[i] = int(v)
		}
	}
	if t := c.tags.tag(fi, tSampleFormat); len(t.val) > 0 {
		img.SampleFormat = make([]SampleFormat, len(t.val))
		for i, v := range t.val {
			img.SampleFormat[i] = SampleFormat(v)
		}
	}
	if c.tags.has(fi, tPhotometricInterpretation) {
		tag := ColorTag(c.tags.tag(fi, tPhotometricInterpretation).firstVal())
		// The delegated decoders normalize white-is-zero samples during
		// pixel decode (0xff - v), so the bands handed back are always
		// black-is-zero regardless of the declared photometric value.
		if tag == TagWhiteIsZero {
			tag = TagBlackIsZero
		}
		img.ColorTag = tag
	}
	if t := c.tags.tag(fi, tColorMap); len(t.val) > 0 && len(t.val)%3 == 0 {
		img.Palette = make([]uint32, len(t.val))
		for i, v := range t.val {
			img.Palette[i] = uint32(v)
		}
	}
	if v := c.tags.tag(fi, tSamplesPerPixel).firstVal(); v > 0 {
		img.SamplesPerPixel = int(v)
	}
}

// imageToContainerImage de-interleaves a decoded image into planar bands.
// The pipeline only ever sees planar layout; this is the single place where
// interleaved pixel access happens.
func imageToContainerImage(m image.Image) (*ContainerImage, error) {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	n := w * h

	out := &ContainerImage{Width: w, Height: h, ColorTag: TagNone}

	switch img := m.(type) {
	case *image.Gray:
		plane := make([]uint8, n)
		for y := 0; y < h; y++ {
			copy(plane[y*w:(y+1)*w], img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		out.Bands = []Band{BandUint8(plane)}
		out.BitsPerSample = []int{8}
		out.ColorTag = TagBlackIsZero

	case *image.Gray16:
		plane := make([]uint16, n)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				plane[y*w+x] = img.Gray16At(b.Min.X+x, b.Min.Y+y).Y
			}
		}
		out.Bands = []Band{BandUint16(plane)}
		out.BitsPerSample = []int{16}
		out.ColorTag = TagBlackIsZero

	case *image.Paletted:
		plane := make([]uint8, n)
		for y := 0; y < h; y++ {
			copy(plane[y*w:(y+1)*w], img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		out.Bands = []Band{BandUint8(plane)}
		out.BitsPerSample = []int{8}
		out.ColorTag = TagPaletted
		out.Palette = paletteTable(img)

	case *image.RGBA:
		out.Bands = interleavedBytes(img.Pix, img.Stride, b, 4)
		out.BitsPerSample = []int{8, 8, 8, 8}
		out.ColorTag = TagRGB

	case *image.NRGBA:
		out.Bands = interleavedBytes(img.Pix, img.Stride, b, 4)
		out.BitsPerSample = []int{8, 8, 8, 8}
		out.ColorTag = TagRGB

	case *image.RGBA64:
		planes := make([][]uint16, 4)
		for s := range planes {
			planes[s] = make([]uint16, n)
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				px := img.RGBA64At(b.Min.X+x, b.Min.Y+y)
				i := y*w + x
				planes[0][i], planes[1][i], planes[2][i], planes[3][i] = px.R, px.G, px.B, px.A
			}
		}
		out.Bands = []Band{BandUint16(planes[0]), BandUint16(planes[1]), BandUint16(planes[2]), BandUint16(planes[3])}
		out.BitsPerSample = []int{16, 16, 16, 16}
		out.ColorTag = TagRGB

	case *image.CMYK:
		out.Bands = interleavedBytes(img.Pix, img.Stride, b, 4)
		out.BitsPerSample = []int{8, 8, 8, 8}
		out.ColorTag = TagCMYK

	case *image.YCbCr:
		planes := make([][]uint8, 3)
		for s := range planes {
			planes[s] = make([]uint8, n)
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				px := img.YCbCrAt(b.Min.X+x, b.Min.Y+y)
				i := y*w + x
				planes[0][i], planes[1][i], planes[2][i] = px.Y, px.Cb, px.Cr
			}
		}
		out.Bands = []Band{BandUint8(planes[0]), BandUint8(planes[1]), BandUint8(planes[2])}
		out.BitsPerSample = []int{8, 8, 8}
		out.ColorTag = TagYCbCr

	case hdr.Image:
		// HDR floats are scientific channels, not display bytes; they stay
		// untagged so auto classification routes them to data mode.
		planes := make([][]float32, 3)
		for s := range planes {
			planes[s] = make([]float32, n)
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bl, _ := img.HDRAt(b.Min.X+x, b.Min.Y+y).HDRRGBA()
				i := y*w + x
				planes[0][i], planes[1][i], planes[2][i] = float32(r), float32(g), float32(bl)
			}
		}
		out.Bands = []Band{BandFloat32(planes[0]), BandFloat32(planes[1]), BandFloat32(planes[2])}
		out.BitsPerSample = []int{32, 32, 32}
		out.SampleFormat = []SampleFormat{SampleFloat, SampleFloat, SampleFloat}

	default:
		return nil, UnsupportedError("source payload shape")
	}

	out.SamplesPerPixel = len(out.Bands)
	return out, nil
}

// interleavedBytes splits a stride-addressed interleaved byte buffer into
// spp planes.
func interleavedBytes(pix []byte, stride int, b image.Rectangle, spp int) []Band {
	w, h := b.Dx(), b.Dy()
	planes := make([][]uint8, spp)
	for s := range planes {
		planes[s] = make([]uint8, w*h)
	}
	for y := 0; y < h; y++ {
		row := pix[(b.Min.Y+y)*stride+b.Min.X*spp:]
		for x := 0; x < w; x++ {
			for s := 0; s < spp; s++ {
				planes[s][y*w+x] = row[x*spp+s]
			}
		}
	}
	bands := make([]Band, spp)
	for s := range bands {
		bands[s] = BandUint8(planes[s])
	}
	return bands
}

// paletteTable flattens a stdlib palette into the 3-segment 16-bit layout.
func paletteTable(img *image.Paletted) []uint32 {
	seg := len(img.Palette)
	table := make([]uint32, 3*seg)
	for i, c := range img.Palette {
		r, g, b, _ := c.RGBA()
		table[i] = r
		table[seg+i] = g
		table[2*seg+i] = b
	}
	return table
}
