package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sliceview/sliceview.go/pkg/geom"
	"github.com/sliceview/sliceview.go/pkg/projection"
	"github.com/sliceview/sliceview.go/pkg/roi"
)

// NewStatsCmd creates the stats cobra command
func NewStatsCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [files|dir]",
		Short: "Measure regions of interest",
		Long:  "Draws rectangles and ellipses on a slice (or a projection composite) and reports statistics over the covered samples.",
		RunE: func(cmd *cobra.Command, args []string) error {
			seriesIdx, _ := cmd.Flags().GetInt("series")
			sliceIdx, _ := cmd.Flags().GetInt("slice")
			rects, _ := cmd.Flags().GetStringArray("rect")
			ellipses, _ := cmd.Flags().GetStringArray("ellipse")

			if len(rects)+len(ellipses) == 0 {
				return fmt.Errorf("at least one --rect or --ellipse is required")
			}

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

			var shapes []roi.Shape
			for _, spec := range rects {
				sh, err := parseShape(roi.Rectangle, spec)
				if err != nil {
					return err
				}
				shapes = append(shapes, sh)
			}
			for _, spec := range ellipses {
				sh, err := parseShape(roi.Ellipse, spec)
				if err != nil {
					return err
				}
				shapes = append(shapes, sh)
			}
			for _, sh := range shapes {
				if _, err := c.AddShape(sh); err != nil {
					return err
				}
			}

			// Stats follow the readout convention: calibrated units
			// whenever the slice maps them, stored values under --raw.
			unit := ""
			if raw, _ := cmd.Flags().GetBool("raw"); raw {
				c.SetRescaledReadout(false)
			} else if sl := c.CurrentSlice(); sl != nil {
				if rs, ok := sl.Meta.Rescale(); ok {
					unit = rs.Unit
				}
			}

			stats, err := c.Measure()
			if err != nil {
				return err
			}
			switch format, _ := cmd.Flags().GetString("format"); format {
			case "json":
				j, err := json.MarshalIndent(measurements(shapes, stats, unit), "", "  ")
				if err != nil {
					return err
				}
				os.Stdout.Write(j)
				fmt.Println()
			default:
				for i := range stats {
					printStats(shapes[i], stats[i], unit)
				}
			}
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.Int("series", 0, "Series index to measure")
	pf.Int("slice", 0, "Slice index within the series")
	pf.StringArray("rect", nil, "Rectangle corners as x0,y0,x1,y1 (repeatable)")
	pf.StringArray("ellipse", nil, "Ellipse bounding corners as x0,y0,x1,y1 (repeatable)")
	pf.StringP("mode", "m", "", "Measure a projection composite instead (mip|aip|minip)")
	pf.IntP("count", "n", 4, "Slab size when --mode is set")
	pf.Bool("raw", false, "Report stored sample values instead of calibrated units")
	pf.StringP("format", "f", "text", "output format (text|json)")
	return cmd
}

type measurement struct {
	Kind   string    `json:"kind"`
	Bounds []float64 `json:"bounds"`
	Count  int       `json:"count"`
	Mean   float64   `json:"mean"`
	StdDev float64   `json:"stdDev"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
	Area   string    `json:"area"`
	Unit   string    `json:"unit,omitempty"`
}

func measurements(shapes []roi.Shape, stats []roi.Stats, unit string) []measurement {
	out := make([]measurement, 0, len(stats))
	for i, st := range stats {
		b := shapes[i].Bounds()
		out = append(out, measurement{
			Kind:   shapes[i].Kind.String(),
			Bounds: []float64{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y},
			Count:  st.Count,
			Mean:   st.Mean,
			StdDev: st.StdDev,
			Min:    st.Min,
			Max:    st.Max,
			Area:   st.Area.String(),
			Unit:   unit,
		})
	}
	return out
}

func printStats(sh roi.Shape, st roi.Stats, unit string) {
	suffix := ""
	if unit != "" {
		suffix = " " + unit
	}
	b := sh.Bounds()
	fmt.Printf("=== %s (%g,%g)-(%g,%g) ===\n", sh.Kind, b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
	fmt.Printf("Pixels: %d\n", st.Count)
	fmt.Printf("Mean: %.2f%s\n", st.Mean, suffix)
	fmt.Printf("StdDev: %.2f%s\n", st.StdDev, suffix)
	fmt.Printf("Min: %.2f%s\n", st.Min, suffix)
	fmt.Printf("Max: %.2f%s\n", st.Max, suffix)
	fmt.Printf("Area: %s\n\n", st.Area)
}

// parseShape reads "x0,y0,x1,y1" drag corners in image pixel space.
func parseShape(kind roi.Kind, spec string) (roi.Shape, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return roi.Shape{}, fmt.Errorf("shape %q: want x0,y0,x1,y1", spec)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return roi.Shape{}, fmt.Errorf("shape %q: %v", spec, err)
		}
		v[i] = f
	}
	return roi.Shape{Kind: kind, P0: geom.Pt(v[0], v[1]), P1: geom.Pt(v[2], v[3])}, nil
}
