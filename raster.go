package texpack

import "math"

// ElementKind is the closed set of numeric element types a band buffer can
// hold. Buffers are never revived by type-name lookup: every consumption site
// switches exhaustively over this enum.
type ElementKind int

const (
	KindUint8 ElementKind = iota
	KindUint16
	KindFloat32
	KindFloat64
)

// elementCodec describes one element kind.
type elementCodec struct {
	name     string
	size     int
	integral bool
}

var elementCodecs = [...]elementCodec{
	KindUint8:   {"uint8", 1, true},
	KindUint16:  {"uint16", 2, true},
	KindFloat32: {"float32", 4, false},
	KindFloat64: {"float64", 8, false},
}

// Size returns the element size in bytes.
func (k ElementKind) Size() int { return elementCodecs[k].size }

// Integral reports whether the kind holds integer samples.
func (k ElementKind) Integral() bool { return elementCodecs[k].integral }

// String implements Stringer.
func (k ElementKind) String() string { return elementCodecs[k].name }

// A Band is one channel's full-resolution sample plane, indexed by row-major
// pixel offset. Exactly one of the typed slices is non-nil, selected by Kind.
type Band struct {
	Kind    ElementKind
	Uint8   []uint8
	Uint16  []uint16
	Float32 []float32
	Float64 []float64
}

// BandUint8 wraps s as an 8-bit band.
func BandUint8(s []uint8) Band { return Band{Kind: KindUint8, Uint8: s} }

// BandUint16 wraps s as a 16-bit band.
func BandUint16(s []uint16) Band { return Band{Kind: KindUint16, Uint16: s} }

// BandFloat32 wraps s as a 32-bit float band.
func BandFloat32(s []float32) Band { return Band{Kind: KindFloat32, Float32: s} }

// BandFloat64 wraps s as a 64-bit float band.
func BandFloat64(s []float64) Band { return Band{Kind: KindFloat64, Float64: s} }

// NewBand allocates a zero-filled band of n elements.
func NewBand(kind ElementKind, n int) Band {
	switch kind {
	case KindUint8:
		return BandUint8(make([]uint8, n))
	case KindUint16:
		return BandUint16(make([]uint16, n))
	case KindFloat32:
		return BandFloat32(make([]float32, n))
	case KindFloat64:
		return BandFloat64(make([]float64, n))
	}
	panic(InternalError("unknown element kind"))
}

// Len returns the number of samples in the band.
func (b Band) Len() int {
	switch b.Kind {
	case KindUint8:
		return len(b.Uint8)
	case KindUint16:
		return len(b.Uint16)
	case KindFloat32:
		return len(b.Float32)
	case KindFloat64:
		return len(b.Float64)
	}
	return 0
}

// At returns the sample at pixel offset i widened to float64.
func (b Band) At(i int) float64 {
	switch b.Kind {
	case KindUint8:
		return float64(b.Uint8[i])
	case KindUint16:
		return float64(b.Uint16[i])
	case KindFloat32:
		return float64(b.Float32[i])
	case KindFloat64:
		return b.Float64[i]
	}
	return math.NaN()
}

// Deinterleave splits an interleaved buffer of samplesPerPixel channels into
// per-channel planes. The converter and packer only consume planar bands, so
// interleaved sources go through here once at ingestion.
func Deinterleave(b Band, samplesPerPixel int) []Band {
	if samplesPerPixel <= 1 {
		return []Band{b}
	}

	n := b.Len() / samplesPerPixel
	out := make([]Band, samplesPerPixel)
	for s := 0; s < samplesPerPixel; s++ {
		out[s] = NewBand(b.Kind, n)
	}

	for i := 0; i < n; i++ {
		for s := 0; s < samplesPerPixel; s++ {
			switch b.Kind {
			case KindUint8:
				out[s].Uint8[i] = b.Uint8[i*samplesPerPixel+s]
			case KindUint16:
				out[s].Uint16[i] = b.Uint16[i*samplesPerPixel+s]
			case KindFloat32:
				out[s].Float32[i] = b.Float32[i*samplesPerPixel+s]
			case KindFloat64:
				out[s].Float64[i] = b.Float64[i*samplesPerPixel+s]
			}
		}
	}
	return out
}

// Raster is the canonical multi-band record every downstream stage consumes.
// Bands are always planar; the decoder de-interleaves at ingestion.
type Raster struct {
	Width, Height   int
	Bands           []Band
	SamplesPerPixel int

	// BitsPerSample holds one declared bit depth per band.
	BitsPerSample []int
	// SampleFormat holds one format tag per band, or nil when the container
	// declared none (unsigned integer is then assumed).
	SampleFormat []SampleFormat

	ColorTag ColorTag
	// Palette is a flattened color lookup table laid out as three equal
	// segments (R,G,B) of 16-bit entries. Nil when the raster has none.
	Palette []uint32

	// SourceTags is the opaque tag dictionary passed through from the
	// container for the host's benefit.
	SourceTags map[uint16][]uint
}

// PixelCount returns Width*Height.
func (r *Raster) PixelCount() int { return r.Width * r.Height }

// declaredMax returns the largest sample value band i can declare,
// 2^bits - 1.
func (r *Raster) declaredMax(i int) float64 {
	bits := 8
	if i < len(r.BitsPerSample) && r.BitsPerSample[i] > 0 {
		bits = r.BitsPerSample[i]
	}
	return math.Exp2(float64(bits)) - 1
}

// sampleFormat returns band i's declared format, defaulting to SampleUint.
func (r *Raster) sampleFormat(i int) SampleFormat {
	if i < len(r.SampleFormat) && r.SampleFormat[i] != 0 {
		return r.SampleFormat[i]
	}
	return SampleUint
}

// WorkPayload is the closed set of values a work request or reply can carry
// across the worker boundary. Band and pack buffers inside a payload are
// transferred, not copied: after handing a payload to the pool the sender
// must not touch its buffers.
type WorkPayload interface {
	workPayload()
}

func (*RawContainer) workPayload() {}

func (*Raster) workPayload() {}

func (*TextureSet) workPayload() {}

func (*DisplayBitmap) workPayload() {}
