package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/illinispots/pipeline/pkg/scrape"
	"github.com/spf13/cobra"
)

var (
	year      int
	term      string
	resume    bool
	skipEnded bool
	proxies   []string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape a term of the course schedule to subjects.json",
	Long: `Walks the schedule site subject by subject, collecting every course
section with its meeting times and rooms. Progress is checkpointed after each
subject; pass --resume to pick up an interrupted run. Interrupting the scrape
still writes the subjects finished so far.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		catalog, err := runScrape(ctx, true)
		if err != nil {
			return err
		}
		log.Println("Found", len(catalog.Subjects), "subjects and", catalog.CourseCount(), "courses")
		return nil
	},
}

// runScrape scrapes the term named by the flags and saves the catalog, even
// a partial one when the run is interrupted.
func runScrape(ctx context.Context, cached bool) (scrape.Catalog, error) {
	t, err := scrape.ParseTerm(term)
	if err != nil {
		return scrape.Catalog{}, err
	}
	fetcher, err := newFetcher(cached, proxies...)
	if err != nil {
		return scrape.Catalog{}, err
	}

	s := scrape.Scraper{
		Fetcher:    fetcher,
		BaseURL:    cfg.Schedule.BaseURL,
		Sections:   scrape.SectionOptions{SkipEnded: skipEnded, Today: time.Now().In(loc)},
		Checkpoint: dataPath(fmt.Sprintf("checkpoint_%d_%s.json", year, t)),
		Resume:     resume,
	}
	catalog, err := s.Run(ctx, year, t)
	if err != nil {
		// an interrupted run records its term even with no subjects finished
		if len(catalog.Subjects) > 0 || errors.Is(err, context.Canceled) {
			if saveErr := scrape.SaveCatalog(dataPath(subjectsFile), catalog); saveErr != nil {
				return catalog, errors.Join(err, saveErr)
			}
			log.Println("Saved partial results for", len(catalog.Subjects), "subjects to", dataPath(subjectsFile))
		}
		return catalog, fmt.Errorf("scrape stopped early: %w", err)
	}

	if err := scrape.SaveCatalog(dataPath(subjectsFile), catalog); err != nil {
		return catalog, err
	}
	log.Println("Wrote", dataPath(subjectsFile))
	return catalog, nil
}

func addScrapeFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "Year of the term to scrape")
	cmd.Flags().StringVar(&term, "term", "", "Term to scrape: spring, summer, fall or winter")
	cmd.Flags().BoolVar(&resume, "resume", false, "Resume from the checkpoint of an interrupted run")
	cmd.Flags().BoolVar(&skipEnded, "skip-ended", false, "Skip sections whose date range has already ended")
	cmd.Flags().StringSliceVar(&proxies, "proxy", nil, "Proxy URL to rotate through, may be repeated")
	_ = cmd.MarkFlagRequired("term")
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	addScrapeFlags(scrapeCmd)
}
