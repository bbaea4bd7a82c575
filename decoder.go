package texpack

import (
	"fmt"

	"github.com/pkg/errors"
)

// Hints carries per-load decode options alongside the resolved configuration.
type Hints struct {
	// ImageIndex selects the image within a multi-image container. It is
	// required whenever the container holds more than one image.
	ImageIndex *int
	// Format is the resolved configuration consumed by every downstream
	// stage (hints.formatResolved on the wire).
	Format FormatConfig
}

// RawContainer is an opaque source byte payload plus its hints. It is
// created at ingestion and consumed exactly once by the raster decoder; its
// buffers are transferred across the worker boundary, never copied.
type RawContainer struct {
	Data  []byte
	Hints Hints
}

// DecodeRaster turns raw container bytes into one canonical raster,
// delegating byte parsing to the default TIFF reader.
func DecodeRaster(src *RawContainer) (*Raster, error) {
	cr, err := OpenTIFF(src.Data)
	if err != nil {
		return nil, errors.Wrap(err, "open container")
	}
	return DecodeRasterFrom(cr, src.Hints)
}

// DecodeRasterFrom decodes through an explicit ContainerReader and
// normalizes the result: bands come back planar, the band count satisfies
// max(declared samples per pixel, decoded band count) with zero-filled
// padding bands, and per-band metadata is broadcast to every band.
func DecodeRasterFrom(cr ContainerReader, hints Hints) (*Raster, error) {
	count := cr.ImageCount()

	index := 0
	if hints.ImageIndex != nil {
		index = *hints.ImageIndex
	} else if count > 1 {
		return nil, InputError(fmt.Sprintf("container holds %d images; an explicit image index is required", count))
	}
	if index < 0 || index >= count {
		return nil, InputError(fmt.Sprintf("image index %d out of range (container holds %d)", index, count))
	}

	img, err := cr.Image(index)
	if err != nil {
		return nil, errors.Wrapf(err, "decode image %d", index)
	}

	r := &Raster{
		Width:           img.Width,
		Height:          img.Height,
		Bands:           img.Bands,
		SamplesPerPixel: img.SamplesPerPixel,
		BitsPerSample:   img.BitsPerSample,
		SampleFormat:    img.SampleFormat,
		ColorTag:        img.ColorTag,
		Palette:         img.Palette,
		SourceTags:      img.Tags,
	}

	// A container may declare more samples per pixel than the reader could
	// decode; the missing planes become zero-filled bands so downstream
	// indexing stays total.
	want := r.SamplesPerPixel
	if len(r.Bands) > want {
		want = len(r.Bands)
	}
	if want == 0 {
		return nil, FormatError("image holds no bands")
	}
	for len(r.Bands) < want {
		kind := KindUint8
		if len(r.Bands) > 0 {
			kind = r.Bands[0].Kind
		}
		r.Bands = append(r.Bands, NewBand(kind, r.PixelCount()))
	}

	// Bands beyond the declaration (a synthesized alpha plane, padding) take
	// their depth from the element kind actually backing them, so a uint16
	// plane is never declared as 8-bit.
	r.BitsPerSample = broadcastInts(r.BitsPerSample, want)
	for i, bits := range r.BitsPerSample {
		if bits == 0 {
			r.BitsPerSample[i] = r.Bands[i].Kind.Size() * 8
		}
	}
	if r.SampleFormat != nil {
		r.SampleFormat = broadcastFormats(r.SampleFormat, want)
	}

	return r, nil
}

// broadcastInts stretches a length-1 declaration to n entries; entries beyond
// a longer declaration are left zero for the caller to fill.
func broadcastInts(v []int, n int) []int {
	out := make([]int, n)
	for i := range out {
		switch {
		case len(v) == 1:
			out[i] = v[0]
		case i < len(v):
			out[i] = v[i]
		}
	}
	return out
}

func broadcastFormats(v []SampleFormat, n int) []SampleFormat {
	out := make([]SampleFormat, n)
	for i := range out {
		switch {
		case len(v) == 1:
			out[i] = v[0]
		case i < len(v):
			out[i] = v[i]
		default:
			out[i] = SampleUint
		}
	}
	return out
}
