package main

import (
	"fmt"

	"github.com/aretw0/wayfinder/internal/presentation/graph"
	"github.com/aretw0/wayfinder/internal/runtime"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the interaction state machine",
	Long:  `Outputs a Mermaid state diagram of the controller's transition table.`,
	Run: func(cmd *cobra.Command, args []string) {
		current, _ := cmd.Flags().GetString("current")

		var overlay *graph.Overlay
		if current != "" {
			overlay = &graph.Overlay{Current: domain.State(current)}
		}
		fmt.Print(graph.GenerateMermaid(runtime.DefaultRules, overlay))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("current", "", "Highlight a state")
}
