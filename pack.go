package texpack

import "github.com/pkg/errors"

// TexturePack is one GPU-upload-ready 4-channel texture unit. Data is packed
// pixel-interleaved (RGBA-style), sized width*height*4*elementSize. The
// original sample value is reconstructed as stored*Scale[k]+Offset[k].
type TexturePack struct {
	Storage StorageFormat
	// ChannelSources holds the source band index feeding each slot, or
	// PadChannel for an unused padding slot.
	ChannelSources [4]int
	Data           []byte
	Scale          [4]float32
	Offset         [4]float32
}

// TextureSet is the packed form of one raster: ceil(channelCount/4) packs.
// ChannelCount counts logical channels, excluding padding slots.
type TextureSet struct {
	Width, Height int
	Mode          Mode
	ChannelCount  int
	Packs         []TexturePack
}

// PackTextureSet converts a canonical raster into GPU texture packs. Image
// rasters are rendered to one RGBA pack through the color-space converter;
// data rasters pack their bands in groups of 4, choosing byte or half-float
// storage per pack.
func PackTextureSet(r *Raster, cfg FormatConfig, warns *WarnSet) (*TextureSet, error) {
	mode := Classify(r.ColorTag, len(r.Bands), cfg.Interpretation)
	if mode == ModeImage {
		return packImage(r, cfg, warns)
	}
	return packData(r, cfg, warns)
}

// packImage renders the raster as one RGBA8 buffer and wraps it as a single
// pack, re-encoded as identity-scaled half-floats when half-float is forced.
func packImage(r *Raster, cfg FormatConfig, warns *WarnSet) (*TextureSet, error) {
	bitmap, err := RenderDisplay(r, cfg, warns)
	if err != nil {
		return nil, errors.Wrap(err, "render display buffer")
	}

	pack := TexturePack{
		Storage:        StorageByte4,
		ChannelSources: [4]int{0, 1, 2, 3},
		Data:           bitmap.Pix,
		Scale:          [4]float32{1, 1, 1, 1},
	}

	if cfg.GPU.ForceHalfFloat {
		pack.Storage = StorageHalfFloat4
		data := make([]byte, len(bitmap.Pix)*2)
		for i, b := range bitmap.Pix {
			h := HalfFromFloat32(float32(b))
			data[2*i] = byte(h)
			data[2*i+1] = byte(h >> 8)
		}
		pack.Data = data
	}

	return &TextureSet{
		Width:        r.Width,
		Height:       r.Height,
		Mode:         ModeImage,
		ChannelCount: 4,
		Packs:        []TexturePack{pack},
	}, nil
}

// packData packs raw bands in consecutive runs of 4. Storage is decided per
// pack: bytes only when every channel in the pack is already 8-bit, byte
// storage is preferred and half-float is not forced. A mixed-precision
// raster may therefore yield some byte packs and some half-float packs.
func packData(r *Raster, cfg FormatConfig, warns *WarnSet) (*TextureSet, error) {
	channels := cfg.Channels
	if channels == nil {
		channels = make([]int, len(r.Bands))
		for i := range channels {
			channels[i] = i
		}
	}
	if len(channels) == 0 {
		return nil, InputError("no channels to pack")
	}
	for _, c := range channels {
		if c < 0 || c >= len(r.Bands) {
			return nil, InputError("pack channel out of band range")
		}
	}

	set := &TextureSet{
		Width:        r.Width,
		Height:       r.Height,
		Mode:         ModeData,
		ChannelCount: len(channels),
	}

	for start := 0; start < len(channels); start += 4 {
		run := channels[start:minInt(start+4, len(channels))]
		set.Packs = append(set.Packs, buildPack(r, cfg, run, warns))
	}
	return set, nil
}

func buildPack(r *Raster, cfg FormatConfig, run []int, warns *WarnSet) TexturePack {
	pack := TexturePack{
		Storage:        StorageByte4,
		ChannelSources: [4]int{PadChannel, PadChannel, PadChannel, PadChannel},
		Scale:          [4]float32{1, 1, 1, 1},
	}
	for k, c := range run {
		pack.ChannelSources[k] = c
	}

	if !byteStorageOK(r, cfg, run) {
		pack.Storage = StorageHalfFloat4
	}

	n := r.PixelCount()
	pack.Data = make([]byte, n*4*pack.Storage.ElementSize())

	for k, c := range run {
		band := r.Bands[c]
		if pack.Storage == StorageByte4 {
			src := band.Uint8
			for i := 0; i < n; i++ {
				pack.Data[i*4+k] = src[i]
			}
			continue
		}
		fillHalfChannel(&pack, k, r, c, band, n, warns)
	}
	return pack
}

// byteStorageOK reports whether every channel of the run is already 8-bit
// and the configuration allows byte storage.
func byteStorageOK(r *Raster, cfg FormatConfig, run []int) bool {
	if !cfg.GPU.PreferByte || cfg.GPU.ForceHalfFloat {
		return false
	}
	for _, c := range run {
		if r.Bands[c].Kind != KindUint8 {
			return false
		}
		if c < len(r.BitsPerSample) && r.BitsPerSample[c] != 8 {
			return false
		}
		if r.sampleFormat(c) == SampleFloat {
			return false
		}
	}
	return true
}

// fillHalfChannel encodes one band into slot k of a half-float pack.
// Integral bands are normalized by their declared maximum so stored samples
// lie in [0,1] and Scale[k] carries the reconstruction factor. Float samples
// beyond the finite binary16 range are clamped to the bound, with one
// deduplicated warning.
func fillHalfChannel(pack *TexturePack, k int, r *Raster, c int, band Band, n int, warns *WarnSet) {
	integral := band.Kind.Integral() && r.sampleFormat(c) != SampleFloat

	if integral {
		max := r.declaredMax(c)
		pack.Scale[k] = float32(max)
		for i := 0; i < n; i++ {
			h := HalfFromFloat32(float32(band.At(i) / max))
			pack.Data[(i*4+k)*2] = byte(h)
			pack.Data[(i*4+k)*2+1] = byte(h >> 8)
		}
		return
	}

	for i := 0; i < n; i++ {
		v := band.At(i)
		if v > halfMaxFinite || v < -halfMaxFinite {
			warns.Warn(WarnHalfRangeClamp,
				"channel value beyond the finite half-float range; clamped to the bound")
			if v > 0 {
				v = halfMaxFinite
			} else {
				v = -halfMaxFinite
			}
		}
		h := HalfFromFloat32(float32(v))
		pack.Data[(i*4+k)*2] = byte(h)
		pack.Data[(i*4+k)*2+1] = byte(h >> 8)
	}
}
