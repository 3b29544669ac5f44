package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(seasonsCmd)
}

var seasonsCmd = &cobra.Command{
	Use:   "seasons",
	Short: "Lists the known seasons.",
	Run: func(cmd *cobra.Command, args []string) {
		service := newLogbook(readConfig())

		t := newTable()
		t.AppendHeader(table.Row{"Season", "Runs", "Current"})
		for _, season := range service.Seasons() {
			current := ""
			if season == service.CurrentSeason() {
				current = "*"
			}
			t.AppendRow(table.Row{season, seasonRange(season), current})
		}
		t.Render()
	},
}

func seasonRange(season int) string {
	return fmt.Sprintf("Nov 1 %d - Oct 31 %d", season-1, season)
}
