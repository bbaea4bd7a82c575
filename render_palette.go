package texpack

// renderPalette resolves indexed samples through the color lookup table.
// The table is flattened as three equal-length segments (R,G,B) of 16-bit
// entries; each entry is normalized value/65536*256 before assignment.
func renderPalette(r *Raster, pix []byte) error {
	if len(r.Bands) < 1 {
		return InputError("paletted raster has no index band")
	}
	if len(r.Palette) == 0 || len(r.Palette)%3 != 0 {
		return FormatError("paletted raster without a valid color lookup table")
	}

	b := r.Bands[0]
	seg := len(r.Palette) / 3
	n := r.PixelCount()
	for i := 0; i < n; i++ {
		idx := int(b.At(i))
		if idx < 0 || idx >= seg {
			return FormatError("palette index out of table range")
		}

		pix[i*4+0] = uint8(r.Palette[idx] >> 8)
		pix[i*4+1] = uint8(r.Palette[seg+idx] >> 8)
		pix[i*4+2] = uint8(r.Palette[2*seg+idx] >> 8)
		pix[i*4+3] = 0xFF
	}
	return nil
}
