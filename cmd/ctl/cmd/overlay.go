package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sliceview/sliceview.go/pkg/overlay"
)

// NewOverlayCmd creates the overlay cobra command
func NewOverlayCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overlay",
		Short: "Viewport text overlay tools",
		Long:  "Writes a starter overlay layout and previews the corner text a viewport would draw.",
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd, 0)
		},
	}
	cmd.AddCommand(
		NewOverlayInitCmd(ctx),
		NewOverlayLinesCmd(ctx),
	)
	return cmd
}

// NewOverlayInitCmd creates the overlay init cobra command
func NewOverlayInitCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default overlay layout",
		Long:  "Writes the built-in corner layout to a YAML file for editing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			if err := overlay.SaveConfig(overlay.DefaultConfig(), out); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", out)
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("out", "o", "overlay.yaml", "Output YAML path")
	return cmd
}

// NewOverlayLinesCmd creates the overlay lines cobra command
func NewOverlayLinesCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lines [files|dir]",
		Short: "Preview overlay corner text",
		Long:  "Loads a slice set and prints the text each viewport corner would show.",
		RunE: func(cmd *cobra.Command, args []string) error {
			seriesIdx, _ := cmd.Flags().GetInt("series")
			sliceIdx, _ := cmd.Flags().GetInt("slice")
			cfgPath, _ := cmd.Flags().GetString("config")

			cfg := overlay.DefaultConfig()
			if cfgPath != "" {
				loaded, err := overlay.LoadConfig(cfgPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			c, err := coordinate(args, seriesIdx, sliceIdx)
			if err != nil {
				return err
			}

			vctx := c.OverlayContext()
			for _, corner := range overlay.Corners {
				fmt.Printf("=== %s ===\n", corner)
				fields := cfg.FieldsFor(vctx.Meta.Modality, corner)
				for _, line := range overlay.Lines(fields, vctx) {
					fmt.Println(line)
				}
				fmt.Println()
			}
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("config", "c", "", "Overlay layout YAML (defaults to the built-in layout)")
	pf.Int("series", 0, "Series index")
	pf.Int("slice", 0, "Slice index within the series")
	return cmd
}
