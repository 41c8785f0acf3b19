package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sliceview/sliceview.go/pkg/series"
	"github.com/sliceview/sliceview.go/pkg/windowing"
)

// NewInfoCmd creates the info cobra command
func NewInfoCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info [files|dir]",
		Short: "Summarize DICOM slice sets",
		Long:  "Parses DICOM files, groups them into series and displays geometry, calibration and window information for each.",
		RunE: func(cmd *cobra.Command, args []string) error {
			stacks, err := loadSet(args)
			if err != nil {
				return err
			}
			switch format, _ := cmd.Flags().GetString("format"); format {
			case "json":
				j, err := json.MarshalIndent(summarize(stacks), "", "  ")
				if err != nil {
					return err
				}
				os.Stdout.Write(j)
				fmt.Println()
			default:
				printStacks(stacks)
			}
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("format", "f", "text", "output format (text|json)")
	return cmd
}

type windowSummary struct {
	Center float64 `json:"center"`
	Width  float64 `json:"width"`
	Label  string  `json:"label,omitempty"`
	Unit   string  `json:"unit,omitempty"`
}

type rescaleSummary struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	Unit      string  `json:"unit,omitempty"`
}

type seriesSummary struct {
	Study         string          `json:"study"`
	Series        string          `json:"series"`
	Modality      string          `json:"modality"`
	Description   string          `json:"description,omitempty"`
	Slices        int             `json:"slices"`
	Rows          int             `json:"rows"`
	Columns       int             `json:"columns"`
	BitsAllocated int             `json:"bitsAllocated"`
	Signed        bool            `json:"signed"`
	Photometric   string          `json:"photometric"`
	Rescale       *rescaleSummary `json:"rescale,omitempty"`
	PixelSpacing  []float64       `json:"pixelSpacing,omitempty"`
	Thickness     float64         `json:"sliceThickness,omitempty"`
	DefaultWindow windowSummary   `json:"defaultWindow"`
	Presets       []windowSummary `json:"presets,omitempty"`
}

func summarize(stacks []*series.Stack) []seriesSummary {
	out := make([]seriesSummary, 0, len(stacks))
	for _, st := range stacks {
		first := st.At(0)
		eng := windowing.NewEngine()
		eng.ComputeDefaults(first)
		wl := eng.Display()

		s := seriesSummary{
			Study:         st.Identity().Study,
			Series:        st.Identity().Series,
			Modality:      first.Meta.Modality,
			Description:   first.Meta.SeriesDescription,
			Slices:        st.Len(),
			Photometric:   first.Meta.PhotometricInterpretation,
			DefaultWindow: windowSummary{Center: wl.Center, Width: wl.Width, Unit: eng.Unit()},
		}
		if px := first.Pixels; px != nil {
			s.Rows, s.Columns = px.Rows, px.Cols
			s.BitsAllocated = px.Bits
			s.Signed = px.Signed
		}
		if rs, ok := first.Meta.Rescale(); ok {
			s.Rescale = &rescaleSummary{Slope: rs.Slope, Intercept: rs.Intercept, Unit: rs.Unit}
		}
		if row, col, ok := first.Meta.PixelSpacing(); ok {
			s.PixelSpacing = []float64{row, col}
		}
		if mm, ok := first.Meta.SliceThickness(); ok {
			s.Thickness = mm
		}
		for _, p := range eng.Presets() {
			s.Presets = append(s.Presets, windowSummary{Center: p.Center, Width: p.Width, Label: p.Label})
		}
		out = append(out, s)
	}
	return out
}

// printStacks displays the series summaries in plain text
func printStacks(stacks []*series.Stack) {
	fmt.Printf("Total series: %d\n\n", len(stacks))

	for i, st := range stacks {
		first := st.At(0)
		m := first.Meta

		fmt.Printf("=== Series %d ===\n", i)
		fmt.Printf("Study: %s\n", m.Study)
		fmt.Printf("Series: %s\n", m.Series)
		fmt.Printf("Modality: %s\n", m.Modality)
		if m.SeriesDescription != "" {
			fmt.Printf("Description: %s\n", m.SeriesDescription)
		}
		fmt.Printf("Slices: %d\n", st.Len())

		if px := first.Pixels; px != nil {
			fmt.Printf("Rows: %d\n", px.Rows)
			fmt.Printf("Columns: %d\n", px.Cols)
			fmt.Printf("BitsAllocated: %d\n", px.Bits)
			fmt.Printf("Signed: %v\n", px.Signed)
		}
		fmt.Printf("Photometric: %s\n", m.PhotometricInterpretation)

		if rs, ok := m.Rescale(); ok {
			fmt.Printf("Rescale: stored*%g + %g", rs.Slope, rs.Intercept)
			if rs.Unit != "" {
				fmt.Printf(" [%s]", rs.Unit)
			}
			fmt.Println()
		}
		if row, col, ok := m.PixelSpacing(); ok {
			fmt.Printf("PixelSpacing: %g\\%g mm\n", row, col)
		}
		if mm, ok := m.SliceThickness(); ok {
			fmt.Printf("SliceThickness: %g mm\n", mm)
		}

		eng := windowing.NewEngine()
		eng.ComputeDefaults(first)
		wl := eng.Display()
		if unit := eng.Unit(); unit != "" {
			fmt.Printf("DefaultWindow: C=%g W=%g [%s]\n", wl.Center, wl.Width, unit)
		} else {
			fmt.Printf("DefaultWindow: C=%g W=%g\n", wl.Center, wl.Width)
		}
		for _, p := range eng.Presets() {
			label := p.Label
			if label == "" {
				label = "(unnamed)"
			}
			fmt.Printf("Preset %s: C=%g W=%g\n", label, p.Center, p.Width)
		}

		// Show the first few slices
		maxSlicesToShow := 3
		if st.Len() < maxSlicesToShow {
			maxSlicesToShow = st.Len()
		}
		for j := 0; j < maxSlicesToShow; j++ {
			sl := st.At(j)
			fmt.Printf("\n--- Slice %d ---\n", j)
			fmt.Printf("Instance: %d\n", sl.Meta.Instance)
			if sl.Meta.SOPInstanceUID != "" {
				fmt.Printf("SOPInstanceUID: %s\n", sl.Meta.SOPInstanceUID)
			}
			if sl.Pixels != nil {
				min, max := sl.Pixels.MinMax()
				fmt.Printf("Pixel range: min=%g, max=%g\n", min, max)
			}
		}
		fmt.Println()
	}
}
