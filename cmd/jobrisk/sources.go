package main

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jobrisk/jobrisk/internal/source"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List known sources and their configuration",
	Long:  "Prints every registered source with its status, identity rule and configured categories.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	data := pterm.TableData{{"Source", "Status", "Identity", "Categories"}}
	enabled := 0
	for _, name := range source.Names() {
		src, err := newSource(cfg, name)
		if err != nil {
			return err
		}
		status := "not configured"
		var cats []string
		if sc, ok := cfg.Source(name); ok {
			status = "disabled"
			if sc.Enabled {
				status = "enabled"
				enabled++
			}
			for _, c := range sc.Categories {
				cats = append(cats, fmt.Sprintf("%s (%d)", c.Name, c.Pages))
			}
		}
		data = append(data, []string{name, status, string(src.Identity()), strings.Join(cats, ", ")})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}

	fmt.Printf("\nTotal: %d sources (%d enabled)\n", len(source.Names()), enabled)
	return nil
}
