package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jobrisk/jobrisk/internal/config"
	"github.com/jobrisk/jobrisk/internal/model"
	"github.com/jobrisk/jobrisk/internal/normalize"
	"github.com/jobrisk/jobrisk/internal/recommend"
)

var (
	searchLevel      string
	searchSource     string
	searchActiveOnly bool
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search stored listings",
	Long:  "Matches the term and its synonyms against title, job title and sector, ignoring case.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchLevel, "level", "", "only listings at this risk level (Low, Medium, High)")
	searchCmd.Flags().StringVar(&searchSource, "source", "", "only listings from this source")
	searchCmd.Flags().BoolVar(&searchActiveOnly, "active", false, "only listings still active")
	rootCmd.AddCommand(searchCmd)
}

// loadListings reads the listings matching f from the configured store.
func loadListings(ctx context.Context, cfg *config.Config, f model.ListFilter) ([]model.Listing, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	listings, err := st.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return listings, nil
}

func parseLevel(s string) (model.RiskLevel, error) {
	switch l := model.RiskLevel(s); l {
	case "", model.RiskLow, model.RiskMedium, model.RiskHigh:
		return l, nil
	default:
		return "", fmt.Errorf("level must be Low, Medium or High, got %q", s)
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	level, err := parseLevel(searchLevel)
	if err != nil {
		return err
	}

	listings, err := loadListings(cmd.Context(), cfg, model.ListFilter{
		ActiveOnly: searchActiveOnly,
		Level:      level,
		Source:     searchSource,
	})
	if err != nil {
		return err
	}

	found := recommend.Search(args[0], listings)
	if len(found) == 0 {
		pterm.Info.Printfln("No listing matches %q (searched %s).", args[0], humanize.Comma(int64(len(listings))))
		return nil
	}

	data := pterm.TableData{{"Title", "Company", "Sector", "Risk", "Level", "Source", "Scraped"}}
	for _, l := range found {
		data = append(data, []string{
			normalize.Truncate(l.Title, 60),
			normalize.Truncate(l.Company, 30),
			normalize.Truncate(l.Sector, 30),
			fmt.Sprintf("%.1f", l.RiskScore),
			levelText(l.RiskLevel),
			l.Source,
			humanize.Time(l.ScrapedAt),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	pterm.Info.Printfln("%s of %s listings match %q.",
		humanize.Comma(int64(len(found))), humanize.Comma(int64(len(listings))), args[0])
	return nil
}

func levelText(l model.RiskLevel) string {
	switch l {
	case model.RiskHigh:
		return pterm.Red(string(l))
	case model.RiskMedium:
		return pterm.Yellow(string(l))
	default:
		return pterm.Green(string(l))
	}
}
