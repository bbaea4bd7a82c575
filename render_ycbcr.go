package texpack

// renderYCbCr converts three YCbCr bands to RGBA using the ITU-R BT.601
// full-range inverse matrix. Output channels are clamped to [0,255], never
// wrapped.
func renderYCbCr(r *Raster, pix []byte) error {
	if len(r.Bands) < 3 {
		return InputError("YCbCr raster needs 3 bands")
	}

	yb, cbb, crb := r.Bands[0], r.Bands[1], r.Bands[2]
	n := r.PixelCount()
	for i := 0; i < n; i++ {
		y := yb.At(i)
		cb := cbb.At(i) - 128
		cr := crb.At(i) - 128

		pix[i*4+0] = clampByte(y + 1.402*cr)
		pix[i*4+1] = clampByte(y - 0.344136*cb - 0.714136*cr)
		pix[i*4+2] = clampByte(y + 1.772*cb)
		pix[i*4+3] = 0xFF
	}
	return nil
}
