package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/illinispots/pipeline/pkg/building"
	"github.com/illinispots/pipeline/pkg/config"
	"github.com/illinispots/pipeline/pkg/database"
	"github.com/spf13/cobra"
)

var (
	dryRun    bool
	archive   bool
	datasetID string
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Scrape a term and load it into the rooms database",
	Long: `Runs the course jobs end to end: scrape, regroup by building, filter,
add hours and coordinates, then load. With --archive the loaded schedule and
the current events are also appended to dated BigQuery tables. When
PUBSUB_TOPIC is set a refresh message is published once the load is done.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runSync(ctx)
	},
}

func runSync(ctx context.Context) error {
	catalog, err := runScrape(ctx, false)
	if err != nil {
		return err
	}

	doc := building.FromCatalog(catalog)
	if err := building.Save(dataPath(buildingsFile), doc); err != nil {
		return err
	}
	filtered := filterBuildings(doc)
	if err := enrichBuildings(filtered); err != nil {
		return err
	}
	if err := building.Save(dataPath(filteredFile), filtered); err != nil {
		return err
	}

	rows, err := loadBuildings(ctx, filtered)
	if err != nil {
		return err
	}
	if dryRun {
		return nil
	}

	if archive {
		if err := archiveLoad(ctx, rows.Schedules); err != nil {
			return err
		}
	}
	if topicID := config.Getenv("PUBSUB_TOPIC", ""); topicID != "" {
		if err := notifyRefresh(ctx, topicID, filtered); err != nil {
			return err
		}
	}
	log.Println("Done.")
	return nil
}

func archiveLoad(ctx context.Context, schedule []database.ScheduleRow) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	events, err := db.Events(ctx)
	db.Close()
	if err != nil {
		return err
	}

	bq, err := database.NewBigQuery(ctx, config.Getenv("BIGQUERY_PROJECT", ""), datasetID)
	if err != nil {
		return fmt.Errorf("failed to connect to bigquery: %w", err)
	}
	defer bq.Close()
	if err := bq.Archive(schedule, events, time.Now().In(loc)); err != nil {
		return fmt.Errorf("failed to archive load: %w", err)
	}
	return nil
}

// notifyRefresh tells subscribers that the rooms tables were replaced.
func notifyRefresh(ctx context.Context, topicID string, doc *building.Document) error {
	client, err := pubsub.NewClient(ctx, config.Getenv("BIGQUERY_PROJECT", ""))
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	msg, err := json.Marshal(struct {
		LastUpdated time.Time `json:"lastUpdated"`
		Buildings   int       `json:"buildings"`
		Sections    int       `json:"sections"`
	}{doc.LastUpdated, len(doc.Buildings), doc.SectionCount()})
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	// Publish an event
	topic := client.Topic(topicID)
	defer topic.Stop()
	res := topic.Publish(ctx, &pubsub.Message{Data: msg})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	log.Println("Published refresh to", topicID)
	return nil
}

func init() {
	rootCmd.AddCommand(syncCmd)
	addScrapeFlags(syncCmd)
	addEnrichFlags(syncCmd)

	// Cobra supports Persistent Flags which will work for this command
	// and all subcommands:
	syncCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Run without modifying the database (default: false)")

	syncCmd.Flags().BoolVar(&archive, "archive", false, "Append the loaded rows to BigQuery (default: false)")
	syncCmd.Flags().StringVar(&datasetID, "dataset", "illinispots", "BigQuery dataset for --archive")
}
