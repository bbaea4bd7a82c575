package texpack

// ColorTag declares how a raster's sample values map to color. The numeric
// values follow the TIFF PhotometricInterpretation tag (p. 37 of the TIFF spec)
// so tags scanned from a container can be used directly.
type ColorTag int

const (
	// TagNone marks a raster with no color-space declaration.
	TagNone ColorTag = -1

	TagWhiteIsZero ColorTag = 0
	TagBlackIsZero ColorTag = 1
	TagRGB         ColorTag = 2
	TagPaletted    ColorTag = 3
	TagCMYK        ColorTag = 5
	TagYCbCr       ColorTag = 6
	TagCIELab      ColorTag = 8
)

// String implements Stringer.
func (t ColorTag) String() string {
	switch t {
	case TagNone:
		return "None"
	case TagWhiteIsZero:
		return "WhiteIsZero"
	case TagBlackIsZero:
		return "BlackIsZero"
	case TagRGB:
		return "RGB"
	case TagPaletted:
		return "Paletted"
	case TagCMYK:
		return "CMYK"
	case TagYCbCr:
		return "YCbCr"
	case TagCIELab:
		return "CIE-Lab"
	default:
		return "Unknown"
	}
}

// SampleFormat is the per-band TIFF SampleFormat value.
type SampleFormat int

const (
	SampleUint  SampleFormat = 1
	SampleInt   SampleFormat = 2
	SampleFloat SampleFormat = 3
)

// Interpretation selects how a decoded raster is consumed.
type Interpretation int

const (
	// InterpretAuto classifies from the color-space tag and band count.
	InterpretAuto Interpretation = iota
	// InterpretImage forces the displayable-image path.
	InterpretImage
	// InterpretData forces independent scientific data channels.
	InterpretData
)

// String implements Stringer.
func (i Interpretation) String() string {
	switch i {
	case InterpretImage:
		return "image"
	case InterpretData:
		return "data"
	default:
		return "auto"
	}
}

// Mode is the classified interpretation of a raster.
type Mode int

const (
	ModeImage Mode = iota
	ModeData
)

// String implements Stringer.
func (m Mode) String() string {
	if m == ModeImage {
		return "image"
	}
	return "data"
}

// StorageFormat is the element storage of one texture pack.
type StorageFormat int

const (
	// StorageByte4 stores four 8-bit channels per pixel.
	StorageByte4 StorageFormat = iota
	// StorageHalfFloat4 stores four binary16 channels per pixel.
	StorageHalfFloat4
)

// ElementSize returns the per-channel storage size in bytes.
func (f StorageFormat) ElementSize() int {
	if f == StorageHalfFloat4 {
		return 2
	}
	return 1
}

// String implements Stringer.
func (f StorageFormat) String() string {
	if f == StorageHalfFloat4 {
		return "HalfFloat4"
	}
	return "Byte4"
}

// PadChannel marks an unused slot in a pack's channel sources. The backing
// data of a padded slot is zero-filled.
const PadChannel = -1

// halfMaxFinite is the largest finite value representable in binary16.
const halfMaxFinite = 65504
