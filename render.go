package texpack

import (
	"image"

	"github.com/pkg/errors"
)

// Warning codes surfaced through a WarnSet.
const (
	// WarnDisplayChannelOverflow: more than 4 logical channels were requested
	// for a 4-channel display buffer; the extra channels were dropped.
	WarnDisplayChannelOverflow = "display-channel-overflow"
	// WarnHalfRangeClamp: a channel value exceeded the finite binary16 range
	// during packing and was clamped to the finite bound.
	WarnHalfRangeClamp = "half-range-clamp"
)

// DisplayBitmap is the host-facing display surface: one packed 4-channel
// 8-bit buffer in RGBA order, row-major. It is the byte-buffer fallback of
// the ready-to-display bitmap path.
type DisplayBitmap struct {
	Width, Height int
	Pix           []byte
}

// Image wraps the bitmap as a stdlib RGBA image without copying.
func (b *DisplayBitmap) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// RenderDisplay converts a canonical raster into a 4-channel 8-bit display
// bitmap according to its color-space tag. Alpha defaults to fully opaque
// unless the source supplies an explicit alpha band. Requests for more than
// 4 channels are truncated to the first 4 with one deduplicated warning,
// never a failure.
func RenderDisplay(r *Raster, cfg FormatConfig, warns *WarnSet) (*DisplayBitmap, error) {
	n := r.PixelCount()
	pix := make([]byte, n*4)

	var err error
	switch r.ColorTag {
	case TagYCbCr:
		err = renderYCbCr(r, pix)
	case TagCMYK:
		err = renderCMYK(r, pix)
	case TagCIELab:
		err = renderLab(r, pix)
	case TagPaletted:
		err = renderPalette(r, pix)
	case TagBlackIsZero:
		err = renderGray(r, pix, false)
	case TagWhiteIsZero:
		err = renderGray(r, pix, true)
	default:
		// TagRGB and untagged rasters forced to the image path.
		err = renderRGB(r, cfg, pix, warns)
	}
	if err != nil {
		return nil, err
	}

	return &DisplayBitmap{Width: r.Width, Height: r.Height, Pix: pix}, nil
}

// renderRGB copies bands straight into the RGBA buffer, honoring an explicit
// channel map when configured. A fourth channel is used as alpha.
func renderRGB(r *Raster, cfg FormatConfig, pix []byte, warns *WarnSet) error {
	order := cfg.Image.ChannelMap
	if order == nil {
		order = cfg.Channels
	}
	if order == nil {
		order = make([]int, len(r.Bands))
		for i := range order {
			order[i] = i
		}
	}

	if len(order) > 4 {
		warns.Warn(WarnDisplayChannelOverflow,
			errors.Errorf("%d channels requested for a 4-channel display buffer; extra channels dropped", len(order)).Error())
		order = order[:4]
	}
	for _, c := range order {
		if c < 0 || c >= len(r.Bands) {
			return InputError("display channel out of range")
		}
	}
	if len(order) == 0 {
		return InputError("raster has no bands to display")
	}

	n := r.PixelCount()
	switch len(order) {
	case 1:
		// Single band replicated as gray.
		b := r.Bands[order[0]]
		for i := 0; i < n; i++ {
			v := clampByte(b.At(i))
			pix[i*4+0] = v
			pix[i*4+1] = v
			pix[i*4+2] = v
			pix[i*4+3] = 0xFF
		}
	case 2:
		rb, gb := r.Bands[order[0]], r.Bands[order[1]]
		for i := 0; i < n; i++ {
			pix[i*4+0] = clampByte(rb.At(i))
			pix[i*4+1] = clampByte(gb.At(i))
			pix[i*4+2] = 0
			pix[i*4+3] = 0xFF
		}
	case 3:
		rb, gb, bb := r.Bands[order[0]], r.Bands[order[1]], r.Bands[order[2]]
		for i := 0; i < n; i++ {
			pix[i*4+0] = clampByte(rb.At(i))
			pix[i*4+1] = clampByte(gb.At(i))
			pix[i*4+2] = clampByte(bb.At(i))
			pix[i*4+3] = 0xFF
		}
	case 4:
		rb, gb, bb, ab := r.Bands[order[0]], r.Bands[order[1]], r.Bands[order[2]], r.Bands[order[3]]
		for i := 0; i < n; i++ {
			pix[i*4+0] = clampByte(rb.At(i))
			pix[i*4+1] = clampByte(gb.At(i))
			pix[i*4+2] = clampByte(bb.At(i))
			pix[i*4+3] = clampByte(ab.At(i))
		}
	}
	return nil
}

// renderGray scales a single band by its declared maximum value. White-is-zero
// sources are additionally inverted.
func renderGray(r *Raster, pix []byte, invert bool) error {
	if len(r.Bands) < 1 {
		return InputError("gray raster has no band")
	}

	b := r.Bands[0]
	max := r.declaredMax(0)
	n := r.PixelCount()
	for i := 0; i < n; i++ {
		scaled := b.At(i) / max * 256
		if invert {
			scaled = 256 - scaled
		}
		v := clampByte(scaled)
		pix[i*4+0] = v
		pix[i*4+1] = v
		pix[i*4+2] = v
		pix[i*4+3] = 0xFF
	}
	return nil
}
