package texpack

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// FormatConfig is the fully resolved configuration every pipeline stage
// consumes. It is produced by ResolveFormat and never mutated afterwards.
type FormatConfig struct {
	Interpretation Interpretation
	// Channels is the explicit data-mode channel order, nil for natural
	// band order.
	Channels []int
	GPU      GPUConfig
	Image    ImageConfig
	// Layout is passed through untouched for the host's tile/pyramid layer.
	Layout map[string]any
}

// GPUConfig selects texture storage behavior.
type GPUConfig struct {
	PreferByte     bool
	ForceHalfFloat bool
}

// ImageConfig tunes the displayable-image path.
type ImageConfig struct {
	// ChannelMap maps output channels to source bands, as [r,g,b] or
	// [r,g,b,a]. Nil keeps the natural order.
	ChannelMap []int
}

// FormatLayer is one configuration layer. Nil fields are "not set" and leave
// the lower layers' values in place; set scalars and whole arrays replace,
// Layout maps merge key-by-key.
type FormatLayer struct {
	Interpretation *Interpretation
	Channels       []int
	GPU            *GPULayer
	Image          *ImageLayer
	Layout         map[string]any
}

// GPULayer is the GPU section of a layer.
type GPULayer struct {
	PreferByte     *bool
	ForceHalfFloat *bool
}

// ImageLayer is the image section of a layer.
type ImageLayer struct {
	ChannelMap []int
}

// DefaultFormat returns the library defaults: auto interpretation, byte
// storage preferred, half-float not forced.
func DefaultFormat() FormatConfig {
	return FormatConfig{
		Interpretation: InterpretAuto,
		GPU:            GPUConfig{PreferByte: true},
	}
}

// ResolveFormat merges configuration layers over the library defaults in
// increasing precedence (defaults ← per-load hints ← per-tile override).
// The merge is pure, idempotent and associative: a later layer wins per key,
// arrays and scalars replace wholesale, nested Layout maps merge key-by-key.
// Nil layers are skipped.
func ResolveFormat(layers ...*FormatLayer) FormatConfig {
	cfg := DefaultFormat()

	for _, l := range layers {
		if l == nil {
			continue
		}
		if l.Interpretation != nil {
			cfg.Interpretation = *l.Interpretation
		}
		if l.Channels != nil {
			cfg.Channels = append([]int(nil), l.Channels...)
		}
		if l.GPU != nil {
			if l.GPU.PreferByte != nil {
				cfg.GPU.PreferByte = *l.GPU.PreferByte
			}
			if l.GPU.ForceHalfFloat != nil {
				cfg.GPU.ForceHalfFloat = *l.GPU.ForceHalfFloat
			}
		}
		if l.Image != nil && l.Image.ChannelMap != nil {
			cfg.Image.ChannelMap = append([]int(nil), l.Image.ChannelMap...)
		}
		if l.Layout != nil {
			cfg.Layout = mergeLayout(cfg.Layout, l.Layout)
		}
	}
	return cfg
}

// mergeLayout deep-merges override into base key-by-key. Nested maps merge,
// everything else (scalars, arrays) replaces wholesale.
func mergeLayout(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		ov, isMap := v.(map[string]any)
		bv, wasMap := out[k].(map[string]any)
		if isMap && wasMap {
			out[k] = mergeLayout(bv, ov)
			continue
		}
		out[k] = v
	}
	return out
}

// LayerFromViper builds the process-wide defaults layer from a viper
// instance (configuration file, environment). Recognized keys:
//
//	interpretation        auto|image|data
//	channels              list of band indices
//	gpu.prefer_byte       bool
//	gpu.force_half_float  bool
//	image.channel_map     list of 3 or 4 band indices
//	layout                free-form map for the host tile layer
//
// Keys absent from the viper instance stay unset in the layer.
func LayerFromViper(v *viper.Viper) (*FormatLayer, error) {
	l := &FormatLayer{}

	if v.IsSet("interpretation") {
		i, err := parseInterpretation(v.GetString("interpretation"))
		if err != nil {
			return nil, err
		}
		l.Interpretation = &i
	}
	if v.IsSet("channels") {
		l.Channels = v.GetIntSlice("channels")
	}
	if v.IsSet("gpu.prefer_byte") {
		b := v.GetBool("gpu.prefer_byte")
		l.GPU = &GPULayer{PreferByte: &b}
	}
	if v.IsSet("gpu.force_half_float") {
		b := v.GetBool("gpu.force_half_float")
		if l.GPU == nil {
			l.GPU = &GPULayer{}
		}
		l.GPU.ForceHalfFloat = &b
	}
	if v.IsSet("image.channel_map") {
		l.Image = &ImageLayer{ChannelMap: v.GetIntSlice("image.channel_map")}
	}
	if v.IsSet("layout") {
		l.Layout = v.GetStringMap("layout")
	}

	return l, nil
}

func parseInterpretation(s string) (Interpretation, error) {
	switch s {
	case "", "auto":
		return InterpretAuto, nil
	case "image":
		return InterpretImage, nil
	case "data":
		return InterpretData, nil
	default:
		return InterpretAuto, errors.Errorf("texpack: unknown interpretation %q", s)
	}
}
