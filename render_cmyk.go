package texpack

// renderCMYK converts four subtractive CMYK bands to RGBA. Alpha is fixed
// opaque: the K plane is ink coverage, not transparency.
func renderCMYK(r *Raster, pix []byte) error {
	if len(r.Bands) < 4 {
		return InputError("CMYK raster needs 4 bands")
	}

	cb, mb, yb, kb := r.Bands[0], r.Bands[1], r.Bands[2], r.Bands[3]
	n := r.PixelCount()
	for i := 0; i < n; i++ {
		k := 255 - kb.At(i)

		pix[i*4+0] = clampByte(255 * (255 - cb.At(i)) / 256 * k / 256)
		pix[i*4+1] = clampByte(255 * (255 - mb.At(i)) / 256 * k / 256)
		pix[i*4+2] = clampByte(255 * (255 - yb.At(i)) / 256 * k / 256)
		pix[i*4+3] = 0xFF
	}
	return nil
}
