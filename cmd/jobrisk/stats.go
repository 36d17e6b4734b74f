package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jobrisk/jobrisk/internal/model"
	"github.com/jobrisk/jobrisk/internal/normalize"
	"github.com/jobrisk/jobrisk/internal/recommend"
)

var (
	statsTop        int
	statsActiveOnly bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show risk statistics over stored listings",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().IntVarP(&statsTop, "top", "n", 10, "rows per breakdown table")
	statsCmd.Flags().BoolVar(&statsActiveOnly, "active", false, "only listings still active")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	listings, err := loadListings(cmd.Context(), cfg, model.ListFilter{ActiveOnly: statsActiveOnly})
	if err != nil {
		return err
	}

	s := recommend.Stats(listings)
	if s.Total == 0 {
		pterm.Info.Println("No listings stored yet.")
		return nil
	}

	pterm.DefaultSection.Printfln("%s listings, average risk %.2f", humanize.Comma(int64(s.Total)), s.AverageRisk)
	levels := pterm.TableData{{"Level", "Listings", "Share"}}
	for _, l := range []model.RiskLevel{model.RiskHigh, model.RiskMedium, model.RiskLow} {
		n := s.Levels[l]
		levels = append(levels, []string{
			levelText(l),
			humanize.Comma(int64(n)),
			fmt.Sprintf("%.1f%%", 100*float64(n)/float64(s.Total)),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(levels).Render(); err != nil {
		return err
	}

	if err := renderGroups("By job title", s.ByJobTitle); err != nil {
		return err
	}
	return renderGroups("By sector", s.BySector)
}

func renderGroups(title string, groups []recommend.GroupAverage) error {
	if len(groups) > statsTop {
		groups = groups[:statsTop]
	}
	pterm.DefaultSection.WithLevel(2).Println(title)
	data := pterm.TableData{{"Name", "Listings", "Average risk"}}
	for _, g := range groups {
		data = append(data, []string{
			normalize.Truncate(g.Name, 50),
			humanize.Comma(int64(g.Count)),
			fmt.Sprintf("%.2f", g.Average),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
