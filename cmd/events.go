package cmd

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/illinispots/pipeline/pkg/database"
	"github.com/illinispots/pipeline/pkg/scrape"
	"github.com/spf13/cobra"
)

// maxSkippedLogged caps how many skipped events are listed individually.
const maxSkippedLogged = 20

var payloadPath string

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Replace today's events from the daily events dashboard",
	Long: `Downloads the daily events CSV and replaces the daily_events table
with every event booked in a room the database knows about. With --payload the
dashboard's bootstrap JSON is parsed instead and written to
events_buildings.json without touching the database.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if payloadPath != "" {
			return parsePayload(payloadPath)
		}
		_, err := runEvents(cmd.Context())
		return err
	},
}

// runEvents fetches the dashboard and replaces daily_events, returning the
// rows inserted.
func runEvents(ctx context.Context) (database.EventRows, error) {
	fetcher, err := newFetcher(false)
	if err != nil {
		return nil, err
	}
	log.Println("Fetching daily events")
	events, err := scrape.FetchEvents(ctx, fetcher, cfg.Events.CsvURL, loc, cfg.Buildings.Aliases)
	if err != nil {
		return nil, err
	}
	log.Println("Found", len(events), "events")

	db, err := openDatabase()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	valid, err := db.ValidRooms(ctx)
	if err != nil {
		return nil, err
	}
	rows, skipped := database.FilterEvents(events, valid)
	if len(skipped) > 0 {
		log.Println("Warning: skipped", len(skipped), "events")
		for i, s := range skipped {
			if i == maxSkippedLogged {
				log.Println("  ...")
				break
			}
			log.Printf("  %s %s %q: %s", s.Event.BuildingName, s.Event.RoomNumber, s.Event.EventName, s.Reason)
		}
	}
	if len(rows) == 0 {
		// stale events from a previous day must not linger
		if _, err := db.ReplaceEvents(ctx, nil); err != nil {
			return nil, err
		}
		return nil, errors.New("no valid events to insert")
	}

	n, err := db.ReplaceEvents(ctx, rows)
	if err != nil {
		return nil, err
	}
	log.Println("Successfully inserted", n, "events")
	return rows, nil
}

func parsePayload(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	p, err := scrape.NewTableauParser(payload, cfg.Buildings.Aliases)
	if err != nil {
		return err
	}
	log.Println("Dashboard columns:", p.ColumnNames())

	result := p.ToBuildings(scrape.DefaultSkipColumns)
	if err := scrape.SaveEventBuildings(dataPath(tableauFile), result); err != nil {
		return err
	}
	log.Println("Wrote events for", len(result.Buildings), "buildings to", dataPath(tableauFile))
	return nil
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().StringVar(&payloadPath, "payload", "", "Parse a saved dashboard bootstrap JSON instead of fetching the CSV")
}
