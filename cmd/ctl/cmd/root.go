package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sliceview/sliceview.go/pkg/dicomsrc"
	"github.com/sliceview/sliceview.go/pkg/logging"
	"github.com/sliceview/sliceview.go/pkg/series"
	"github.com/sliceview/sliceview.go/pkg/viewstate"
)

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sliceviewctl",
		Short: "a CLI to inspect, window and project DICOM slice sets",
		Long:  "the long story",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFile, _ := cmd.Flags().GetString("log-file")

			// Parse log level
			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
				level = slog.LevelInfo
			}
			if logFile != "" {
				slog.SetDefault(logging.FileLogger(logFile, false, level))
			} else {
				slog.SetDefault(logging.Logger(os.Stderr, false, level))
			}

			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
				slog.WarnContext(ctx, "Invalid log level, defaulting to INFO", "level", logLevel, "error", err)
			}

		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewInfoCmd(ctx),
		NewRenderCmd(ctx),
		NewProjectCmd(ctx),
		NewStatsCmd(ctx),
		NewOverlayCmd(ctx),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-file", "", "Write logs to this size-rotated file instead of stderr")
	return cmd
}

func printCommandTree(cmd *cobra.Command, indent int) {
	fmt.Println(strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(gitsha)
		},
	}
	return cmd
}

// loadSet parses the arguments into stacks: one directory or any
// number of files.
func loadSet(args []string) ([]*series.Stack, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one file or directory is required")
	}
	if len(args) == 1 {
		if fi, err := os.Stat(args[0]); err == nil && fi.IsDir() {
			return dicomsrc.LoadDir(args[0])
		}
	}
	return dicomsrc.Load(args...)
}

// coordinate loads the arguments into a fresh coordinator positioned
// on the requested series and slice.
func coordinate(args []string, seriesIdx, sliceIdx int) (*viewstate.Coordinator, error) {
	stacks, err := loadSet(args)
	if err != nil {
		return nil, err
	}
	c := viewstate.NewCoordinator(viewstate.Hooks{})
	gen := c.BeginLoad()
	if err := c.CompleteLoad(gen, stacks); err != nil {
		return nil, err
	}
	if seriesIdx != 0 {
		if err := c.SelectSeries(seriesIdx); err != nil {
			return nil, err
		}
	}
	if sliceIdx != 0 {
		if err := c.SetSlice(sliceIdx); err != nil {
			return nil, err
		}
	}
	return c, nil
}
