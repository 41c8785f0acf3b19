package cmd

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/spf13/cobra"
	xdraw "golang.org/x/image/draw"

	"github.com/sliceview/sliceview.go/pkg/projection"
	"github.com/sliceview/sliceview.go/pkg/viewstate"
)

// NewRenderCmd creates the render cobra command
func NewRenderCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [files|dir]",
		Short: "Render a slice to a PNG",
		Long:  "Applies the window mapping to one slice (or a projection preview) and writes the 8-bit result as a PNG.",
		RunE: func(cmd *cobra.Command, args []string) error {
			seriesIdx, _ := cmd.Flags().GetInt("series")
			sliceIdx, _ := cmd.Flags().GetInt("slice")
			out, _ := cmd.Flags().GetString("out")

			c, err := coordinate(args, seriesIdx, sliceIdx)
			if err != nil {
				return err
			}

			if modeName, _ := cmd.Flags().GetString("mode"); modeName != "" {
				mode, err := parseMode(modeName)
				if err != nil {
					return err
				}
				count, _ := cmd.Flags().GetInt("count")
				if err := c.SetProjection(projection.Spec{Mode: mode, Count: count}); err != nil {
					return err
				}
			}
			if preset, _ := cmd.Flags().GetString("preset"); preset != "" {
				if !applyPresetByLabel(c, preset) {
					return fmt.Errorf("no preset named %q", preset)
				}
			}
			if cmd.Flags().Changed("center") || cmd.Flags().Changed("width") {
				wl := c.Engine().Display()
				if cmd.Flags().Changed("center") {
					wl.Center, _ = cmd.Flags().GetFloat64("center")
				}
				if cmd.Flags().Changed("width") {
					wl.Width, _ = cmd.Flags().GetFloat64("width")
				}
				c.SetWindow(wl)
			}
			if invert, _ := cmd.Flags().GetBool("invert"); invert {
				c.ToggleInvert()
			}

			img, err := c.Frame()
			if err != nil {
				return err
			}
			var dst image.Image = img
			if scale, _ := cmd.Flags().GetFloat64("scale"); scale > 0 && scale != 1 {
				dst = resample(img, scale)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create output: %v", err)
			}
			defer f.Close()
			if err := png.Encode(f, dst); err != nil {
				return fmt.Errorf("failed to encode png: %v", err)
			}

			wl := c.Engine().Display()
			fmt.Printf("Wrote %s (C=%g W=%g)\n", out, wl.Center, wl.Width)
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.Int("series", 0, "Series index to render")
	pf.Int("slice", 0, "Slice index within the series")
	pf.Float64("center", 0, "Window center in display units")
	pf.Float64("width", 0, "Window width in display units")
	pf.String("preset", "", "Apply a named window preset")
	pf.Bool("invert", false, "Invert the grayscale ramp")
	pf.StringP("mode", "m", "", "Preview a projection instead (mip|aip|minip)")
	pf.IntP("count", "n", 4, "Slab size when --mode is set")
	pf.Float64("scale", 1, "Resample factor for the output image")
	pf.StringP("out", "o", "slice.png", "Output PNG path")
	return cmd
}

// resample scales the frame by the given factor with bilinear filtering.
func resample(img *image.Gray, scale float64) *image.Gray {
	b := img.Bounds()
	w := int(float64(b.Dx())*scale + 0.5)
	h := int(float64(b.Dy())*scale + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// applyPresetByLabel finds the preset with the given label and applies
// it. Labels compare case-insensitively.
func applyPresetByLabel(c *viewstate.Coordinator, label string) bool {
	eng := c.Engine()
	if eng == nil {
		return false
	}
	for i, p := range eng.Presets() {
		if strings.EqualFold(p.Label, label) {
			return c.ApplyPreset(i)
		}
	}
	return false
}
