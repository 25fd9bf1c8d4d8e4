package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the course and events jobs on their cron schedules",
	Long: `Stays in the foreground and runs sync and events on the cron
expressions from the config, evaluated in the configured time zone, until
interrupted. A failed run is logged and retried at the next tick.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c := cron.New(cron.WithLocation(loc))
		if _, err := c.AddFunc(cfg.Cron.Courses, job(ctx, "sync", runSync)); err != nil {
			return err
		}
		if _, err := c.AddFunc(cfg.Cron.Events, job(ctx, "events", func(ctx context.Context) error {
			_, err := runEvents(ctx)
			return err
		})); err != nil {
			return err
		}

		c.Start()
		log.Printf("Scheduled sync at %q and events at %q (%s)", cfg.Cron.Courses, cfg.Cron.Events, loc)
		<-ctx.Done()

		log.Println("Shutting down, waiting for running jobs")
		<-c.Stop().Done()
		return nil
	},
}

func job(ctx context.Context, name string, run func(context.Context) error) func() {
	return func() {
		log.Println("Starting", name)
		if err := run(ctx); err != nil {
			log.Printf("Error: %s failed: %v", name, err)
			return
		}
		log.Println("Finished", name)
	}
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	addScrapeFlags(scheduleCmd)
	addEnrichFlags(scheduleCmd)
}
