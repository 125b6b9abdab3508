package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aretw0/wayfinder"
	"github.com/aretw0/wayfinder/internal/presentation/tui"
	"github.com/aretw0/wayfinder/pkg/adapters/file"
	"github.com/aretw0/wayfinder/pkg/adapters/terminal"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [script]",
	Short: "Run a visualizer session in the terminal",
	Long: `Starts a session and reads commands (start, pause, wall X Y, goto NAME, show...)
from the given script file or from standard input.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		headless, _ := cmd.Flags().GetBool("headless")
		noGrid, _ := cmd.Flags().GetBool("no-grid")
		layoutPath, _ := cmd.Flags().GetString("layout")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		opts, err := sessionOptions(cfg)
		if err != nil {
			return err
		}

		width, height := cfg.Grid.Width, cfg.Grid.Height
		if layoutPath == "" {
			layoutPath = cfg.Layout
		}
		if layoutPath != "" {
			layout, err := file.ReadLayout(layoutPath)
			if err != nil {
				return err
			}
			width, height = layout.Width, layout.Height
			opts = append(opts, wayfinder.WithLayout(layout))
		}

		if !headless && !noGrid {
			renderOpts := []terminal.Option{terminal.WithFrameInterval(33 * time.Millisecond)}
			if cols, rows, ok := terminal.Viewport(os.Stdout); ok {
				renderOpts = append(renderOpts, terminal.WithViewport(cols, rows))
			} else {
				renderOpts = append(renderOpts, terminal.WithProfile(termenv.Ascii))
			}
			opts = append(opts, wayfinder.WithRenderer(terminal.NewRenderer(os.Stdout, width, height, renderOpts...)))
		}

		s, err := wayfinder.New(opts...)
		if err != nil {
			return err
		}
		defer s.Close()

		var input io.Reader = os.Stdin
		if len(args) > 0 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open script: %w", err)
			}
			defer f.Close()
			input = f
		}

		runner := wayfinder.NewRunner()
		runner.Input = input
		runner.Output = os.Stdout
		runner.Headless = headless
		runner.Timeout = timeout
		if !headless {
			tui.PrintBanner(os.Stdout, wayfinder.Version)
			runner.Renderer = tui.NewRenderer()
		}

		return runner.Run(cmd.Context(), s)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("headless", false, "Plain output without banner, colors or grid")
	runCmd.Flags().Bool("no-grid", false, "Do not draw the grid")
	runCmd.Flags().StringP("layout", "l", "", "Layout YAML file to start from")
	runCmd.Flags().Duration("timeout", time.Minute, "Upper bound for each wait command")
}
