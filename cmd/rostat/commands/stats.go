package commands

import (
	"fmt"
	"sort"

	"rostat-backend/lib/serviceutil"
	"rostat-backend/services/logbook"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statsSeason int

func init() {
	for _, cmd := range []*cobra.Command{boatsCmd, rowersCmd} {
		cmd.Flags().IntVar(&statsSeason, "season", 0, "season to report on, defaults to the current one")
		rootCmd.AddCommand(cmd)
	}
}

func seasonLedger(cmd *cobra.Command, service *logbook.Service) *logbook.TripLedger {
	season := statsSeason
	if season == 0 {
		season = service.CurrentSeason()
	}
	ledger, err := service.Trips(cmd.Context(), season)
	if err != nil {
		serviceutil.Fatal("failed to fetch trips", err)
	}
	return ledger
}

var boatsCmd = &cobra.Command{
	Use:   "boats",
	Short: "Shows the distance rowed per boat in a season.",
	Run: func(cmd *cobra.Command, args []string) {
		service := newLogbook(readConfig())
		ledger := seasonLedger(cmd, service)

		perBoat := ledger.DistancePerBoat()
		names := ledger.AllBoatNames()
		sort.SliceStable(names, func(i, j int) bool {
			return perBoat[names[i]] > perBoat[names[j]]
		})

		t := newTable()
		t.AppendHeader(table.Row{"Boat", "Distance (km)"})
		for _, name := range names {
			t.AppendRow(table.Row{name, fmt.Sprintf("%.1f", perBoat[name])})
		}
		t.AppendFooter(table.Row{"Total", fmt.Sprintf("%.1f", ledger.TotalDistance())})
		t.Render()
	},
}

var rowersCmd = &cobra.Command{
	Use:   "rowers",
	Short: "Shows the distance rowed per member in a season.",
	Run: func(cmd *cobra.Command, args []string) {
		service := newLogbook(readConfig())
		ledger := seasonLedger(cmd, service)

		dir, err := service.Members(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to fetch members", err)
		}

		type rowerStats struct {
			name     string
			trips    int
			distance float64
		}
		var rowers []rowerStats
		for _, id := range ledger.AllRowerIDs() {
			name := fmt.Sprintf("#%d", id)
			if member, ok := dir.GetMember(id); ok {
				name = member.Name
			}
			trips := ledger.TripsForRower(id)
			distance := 0.0
			for _, trip := range trips {
				distance += trip.Distance
			}
			rowers = append(rowers, rowerStats{name: name, trips: len(trips), distance: distance})
		}
		sort.Slice(rowers, func(i, j int) bool {
			return rowers[i].distance > rowers[j].distance
		})

		t := newTable()
		t.AppendHeader(table.Row{"Member", "Trips", "Distance (km)"})
		for _, r := range rowers {
			t.AppendRow(table.Row{r.name, r.trips, fmt.Sprintf("%.1f", r.distance)})
		}
		t.Render()
	},
}
