package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jobrisk/jobrisk/internal/browse"
	"github.com/jobrisk/jobrisk/internal/model"
	"github.com/jobrisk/jobrisk/internal/recommend"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stored listings interactively (TUI)",
	Long:  "Shows the risk level picker, then a split-pane view of listings and their lower-risk transitions.",
	RunE:  runBrowseCmd,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowseCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	listings, err := browse.RunLoader("active listings", func(ctx context.Context) ([]model.Listing, error) {
		return loadListings(ctx, cfg, model.ListFilter{ActiveOnly: true})
	})
	if err != nil {
		return fmt.Errorf("loading listings: %w", err)
	}
	if len(listings) == 0 {
		fmt.Println("No active listings stored yet.")
		return nil
	}
	return runBrowse(listings)
}

func runBrowse(listings []model.Listing) error {
	for {
		choice, err := browse.RunPicker("Browse listings by automation risk", browse.LevelLabels())
		if err != nil {
			return fmt.Errorf("picker: %w", err)
		}
		if choice == browse.Quit {
			return nil
		}

		shown := browse.FilterLevel(listings, browse.LevelChoices[choice].Level)
		wantQuit, err := browse.Run(shown, listings, recommend.DefaultLimit)
		if err != nil {
			return fmt.Errorf("browser: %w", err)
		}
		if wantQuit {
			return nil
		}
	}
}
