package texpack

import "math"

// D65-ish reference white.
const (
	labXn = 0.95047
	labYn = 1.0
	labZn = 1.08883
)

// renderLab converts CIE-Lab bands to RGBA through XYZ and linear sRGB.
// L is stored as 0..255 for 0..100; the a and b planes are byte buffers that
// must be reinterpreted as signed 8-bit values before use.
func renderLab(r *Raster, pix []byte) error {
	if len(r.Bands) < 3 {
		return InputError("CIE-Lab raster needs 3 bands")
	}

	lb, ab, bb := r.Bands[0], r.Bands[1], r.Bands[2]
	n := r.PixelCount()
	for i := 0; i < n; i++ {
		l := lb.At(i) * 100 / 255
		a := signedByte(ab.At(i))
		b := signedByte(bb.At(i))

		x, y, z := labToXYZ(l, a, b)
		red, green, blue := xyzToSRGB(x, y, z)

		pix[i*4+0] = uint8(red * 255)
		pix[i*4+1] = uint8(green * 255)
		pix[i*4+2] = uint8(blue * 255)
		pix[i*4+3] = 0xFF
	}
	return nil
}

// signedByte reinterprets a byte value 0..255 as the signed range -128..127.
func signedByte(v float64) float64 {
	if v > 127 {
		return v - 256
	}
	return v
}

// labToXYZ is the standard CIE inverse transform against the D65 white point.
func labToXYZ(l, a, b float64) (x, y, z float64) {
	fy := (l + 16) / 116
	fx := fy + a/500
	fz := fy - b/200

	return labXn * labFinv(fx), labYn * labFinv(fy), labZn * labFinv(fz)
}

func labFinv(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta {
		return t * t * t
	}
	return 3 * delta * delta * (t - 4.0/29.0)
}

// xyzToSRGB maps XYZ to gamma-encoded sRGB, each channel clamped to [0,1].
func xyzToSRGB(x, y, z float64) (r, g, b float64) {
	r = 3.2406*x - 1.5372*y - 0.4986*z
	g = -0.9689*x + 1.8758*y + 0.0415*z
	b = 0.0557*x - 0.2040*y + 1.0570*z

	return srgbGamma(r), srgbGamma(g), srgbGamma(b)
}

func srgbGamma(c float64) float64 {
	if c <= 0.0031308 {
		c = 12.92 * c
	} else {
		c = 1.055*math.Pow(c, 1/2.4) - 0.055
	}
	return math.Min(1, math.Max(0, c))
}
