package cmd

import (
	"context"
	"log"

	"github.com/illinispots/pipeline/pkg/building"
	"github.com/illinispots/pipeline/pkg/config"
	"github.com/illinispots/pipeline/pkg/database"
	"github.com/spf13/cobra"
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Replace the class tables with filtered_buildings.json",
	Long: `Validates the enriched building document, flattens it into building,
room and class schedule rows and replaces the database contents in chunks,
checking the row counts after every step.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := building.Load(dataPath(filteredFile))
		if err != nil {
			return err
		}
		_, err = loadBuildings(cmd.Context(), doc)
		return err
	},
}

// loadBuildings validates and loads doc, returning the rows written. With
// --dry-run nothing touches the database.
func loadBuildings(ctx context.Context, doc *building.Document) (database.Rows, error) {
	log.Println("Validating building document")
	if err := building.Validate(doc); err != nil {
		return database.Rows{}, err
	}
	rows, err := database.Prepare(doc)
	if err != nil {
		return rows, err
	}
	if err := database.VerifyCounts(doc, rows); err != nil {
		return rows, err
	}
	log.Printf("Prepared %d buildings, %d rooms, %d schedule rows", len(rows.Buildings), len(rows.Rooms), len(rows.Schedules))

	if dryRun {
		log.Println("Dry run: data will not be inserted")
		return rows, nil
	}

	db, err := openDatabase()
	if err != nil {
		return rows, err
	}
	defer db.Close()
	if err := db.Load(ctx, rows); err != nil {
		return rows, err
	}
	log.Println("All data has been inserted and verified")
	return rows, nil
}

func openDatabase() (*database.Store, error) {
	return database.Open(config.Getenv("DATABASE_URL", ""), config.Getenv("SQLITE_PATH", ""))
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate without modifying the database (default: false)")
}
