package main

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jobrisk/jobrisk/internal/model"
	"github.com/jobrisk/jobrisk/internal/normalize"
	"github.com/jobrisk/jobrisk/internal/recommend"
)

var recommendLimit int

var recommendCmd = &cobra.Command{
	Use:   "recommend <current job>",
	Short: "Suggest lower-risk listings in the same sectors",
	Long:  "Finds listings matching the current job, then lists active listings from the same sectors with a lower risk score than its average.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRecommend,
}

func init() {
	recommendCmd.Flags().IntVarP(&recommendLimit, "limit", "n", recommend.DefaultLimit, "maximum number of transitions")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	job := strings.Join(args, " ")

	listings, err := loadListings(cmd.Context(), cfg, model.ListFilter{ActiveOnly: true})
	if err != nil {
		return err
	}

	rec, found := recommend.RecommendTransition(job, listings, recommendLimit)
	if !found {
		pterm.Warning.Printfln("No stored listing matches %q.", job)
		return nil
	}

	pterm.DefaultSection.Printfln("%s: average risk %.2f over %d listings", job, rec.AverageRisk, len(rec.Current))
	pterm.Info.Printfln("Sectors: %s", strings.Join(rec.Sectors, ", "))

	if len(rec.Transitions) == 0 {
		pterm.Info.Println("No lower-risk listing in these sectors yet.")
		return nil
	}

	data := pterm.TableData{{"Title", "Company", "Sector", "Risk", "Level", "Reduction"}}
	for _, t := range rec.Transitions {
		l := t.Listing
		data = append(data, []string{
			normalize.Truncate(l.Title, 60),
			normalize.Truncate(l.Company, 30),
			normalize.Truncate(l.Sector, 30),
			fmt.Sprintf("%.1f", l.RiskScore),
			levelText(l.RiskLevel),
			fmt.Sprintf("-%.2f", t.Delta),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
