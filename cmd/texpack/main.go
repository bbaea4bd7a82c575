package main

import (
	"fmt"
	"image/png"
	"os"

	"github.com/mdouchement/texpack"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "texpack <container.tiff>",
	Short: "Decode a multi-band raster container into GPU texture packs",
	Long: `texpack decodes a TIFF container into a canonical multi-band raster and
repackages it as GPU-upload-ready texture data.

Displayable images (RGB, YCbCr, CMYK, CIE-Lab, paletted, grayscale) are
rendered to one RGBA pack; untagged scientific rasters are packed band by
band in groups of 4, stored as bytes or half-floats.

Examples:
  # Summarize the texture set of a raster
  texpack sensor.tiff

  # Write a display render as PNG
  texpack photo.tiff --png preview.png

  # Pack a 12-bit dataset as normalized half-floats
  texpack elevation.tiff --force-half-float --interpretation data`,
	Args: cobra.ExactArgs(1),
	RunE: run,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./texpack.yaml)")
	rootCmd.Flags().Int("image-index", -1, "image index within a multi-image container")
	rootCmd.Flags().String("interpretation", "", "force interpretation: auto, image or data")
	rootCmd.Flags().Bool("force-half-float", false, "store every pack as half-floats")
	rootCmd.Flags().String("png", "", "write a display render to this PNG file")
	rootCmd.Flags().Int("workers", 0, "worker count (0 = hardware parallelism)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("texpack")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("TEXPACK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func run(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	workers, _ := cmd.Flags().GetInt("workers")
	pool := texpack.NewPool(texpack.PoolOptions{
		Workers: workers,
		OnWarn: func(code, message string) {
			fmt.Fprintf(os.Stderr, "warning [%s]: %s\n", code, message)
		},
	})
	defer pool.Close()

	hints := texpack.Hints{Format: cfg}
	if idx, _ := cmd.Flags().GetInt("image-index"); idx >= 0 {
		hints.ImageIndex = &idx
	}

	if out, _ := cmd.Flags().GetString("png"); out != "" {
		return writePNG(pool, &texpack.RawContainer{Data: data, Hints: hints}, out)
	}

	set, err := pool.DecodeAndPack(&texpack.RawContainer{Data: data, Hints: hints})
	if err != nil {
		return err
	}
	printSummary(set)
	return nil
}

// resolveConfig layers the viper defaults under the command-line overrides.
func resolveConfig(cmd *cobra.Command) (texpack.FormatConfig, error) {
	defaults, err := texpack.LayerFromViper(viper.GetViper())
	if err != nil {
		return texpack.FormatConfig{}, err
	}

	override := &texpack.FormatLayer{}
	if cmd.Flags().Changed("interpretation") {
		s, _ := cmd.Flags().GetString("interpretation")
		var i texpack.Interpretation
		switch s {
		case "auto":
			i = texpack.InterpretAuto
		case "image":
			i = texpack.InterpretImage
		case "data":
			i = texpack.InterpretData
		default:
			return texpack.FormatConfig{}, fmt.Errorf("unknown interpretation %q", s)
		}
		override.Interpretation = &i
	}
	if cmd.Flags().Changed("force-half-float") {
		b, _ := cmd.Flags().GetBool("force-half-float")
		override.GPU = &texpack.GPULayer{ForceHalfFloat: &b}
	}

	return texpack.ResolveFormat(defaults, override), nil
}

func writePNG(pool *texpack.Pool, src *texpack.RawContainer, out string) error {
	bitmap, err := pool.RenderDisplay(src)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, bitmap.Image()); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%dx%d)\n", out, bitmap.Width, bitmap.Height)
	return nil
}

func printSummary(set *texpack.TextureSet) {
	fmt.Printf("%dx%d %s, %d channels, %d packs\n",
		set.Width, set.Height, set.Mode, set.ChannelCount, len(set.Packs))
	for i, p := range set.Packs {
		fmt.Printf("  pack %d: %s sources=%v scale=%v offset=%v (%d bytes)\n",
			i, p.Storage, p.ChannelSources, p.Scale, p.Offset, len(p.Data))
	}
}
