package main

import (
	"fmt"
	"os"

	"github.com/aretw0/wayfinder/pkg/adapters/file"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Manage stored layouts",
	Long:  `List, show, import and remove layouts in the configured store.`,
}

var layoutLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored layouts",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.close()

		names, err := b.store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list layouts: %w", err)
		}
		if len(names) == 0 {
			fmt.Println("No layouts found.")
			return nil
		}
		for _, n := range names {
			fmt.Println("- " + n)
		}
		return nil
	},
}

var layoutShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a layout as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.close()

		layout, err := b.store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load layout %q: %w", args[0], err)
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(layout)
	},
}

var layoutImportCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Validate and store layout files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.close()

		for _, path := range args {
			layout, err := file.ReadLayout(path)
			if err != nil {
				return err
			}
			if err := b.store.Save(cmd.Context(), layout); err != nil {
				return fmt.Errorf("failed to save layout %q: %w", layout.Name, err)
			}
			fmt.Printf("Imported layout '%s'\n", layout.Name)
		}
		return nil
	},
}

var layoutRmCmd = &cobra.Command{
	Use:   "rm <name>...",
	Short: "Remove one or more layouts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.close()

		var failed bool
		for _, name := range args {
			if err := b.store.Delete(cmd.Context(), name); err != nil {
				fmt.Printf("Error removing '%s': %v\n", name, err)
				failed = true
				continue
			}
			fmt.Printf("Removed layout '%s'\n", name)
		}
		if failed {
			return fmt.Errorf("some layouts could not be removed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(layoutCmd)
	layoutCmd.AddCommand(layoutLsCmd, layoutShowCmd, layoutImportCmd, layoutRmCmd)
}
