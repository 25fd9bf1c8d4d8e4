package cmd

import (
	"log"
	"path/filepath"

	"github.com/illinispots/pipeline/pkg/report"
	"github.com/spf13/cobra"
)

var exportDir string

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump the class schedule and daily events to CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		schedule, err := db.Schedule(cmd.Context())
		if err != nil {
			return err
		}
		events, err := db.Events(cmd.Context())
		if err != nil {
			return err
		}

		dir := orDataPath(exportDir, "export")
		if err := report.WriteSchedule(filepath.Join(dir, "class_schedule.csv"), schedule); err != nil {
			return err
		}
		if err := report.WriteEvents(filepath.Join(dir, "daily_events.csv"), events, loc); err != nil {
			return err
		}
		log.Println("Wrote", len(schedule), "schedule rows and", len(events), "events to", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportDir, "out", "", "Output directory (default {data-dir}/export)")
}
