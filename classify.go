package texpack

// Classify decides whether a raster is consumed as a displayable image or as
// independent data channels. A forced interpretation is used verbatim. In
// auto mode, tags that unambiguously denote a displayable image classify as
// image, single-band gray tags classify as image, and everything else
// (untagged data, multi-band rasters without a recognized tag) classifies as
// data. Classify is total: an absent tag is an expected input, not an error.
func Classify(tag ColorTag, bandCount int, interp Interpretation) Mode {
	switch interp {
	case InterpretImage:
		return ModeImage
	case InterpretData:
		return ModeData
	}

	switch tag {
	case TagRGB, TagYCbCr, TagCMYK, TagCIELab, TagPaletted:
		return ModeImage
	case TagBlackIsZero, TagWhiteIsZero:
		if bandCount == 1 {
			return ModeImage
		}
		return ModeData
	default:
		return ModeData
	}
}
