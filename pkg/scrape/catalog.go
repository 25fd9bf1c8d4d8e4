package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ScrapeSubjects collects the subject code and name listed in each table row.
type ScrapeSubjects struct {
	Subjects []Subject
}

func (s *ScrapeSubjects) UnmarshalDoc(doc *goquery.Document) error {
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Size() < 2 {
			return
		}
		code := strings.TrimSpace(cells.Eq(0).Text())
		name := strings.TrimSpace(cells.Eq(1).Text())
		if code != "" && name != "" {
			s.Subjects = append(s.Subjects, Subject{Code: code, Name: name})
		}
	})
	return nil
}

// ScrapeCourses collects the course number and title listed in each table row.
type ScrapeCourses struct {
	Courses []Course
}

func (s *ScrapeCourses) UnmarshalDoc(doc *goquery.Document) error {
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Size() < 2 {
			return
		}
		number := strings.TrimSpace(cells.Eq(0).Text())
		title := strings.TrimSpace(cells.Eq(1).Text())
		if number != "" && title != "" {
			s.Courses = append(s.Courses, Course{Number: number, Title: title})
		}
	})
	return nil
}

// Scraper walks the schedule site from the subject list down to each
// course's sections.
type Scraper struct {
	Fetcher  *Fetcher
	BaseURL  string
	Sections SectionOptions

	// Checkpoint, when set, is rewritten after each subject and consulted on
	// start when Resume is true.
	Checkpoint string
	Resume     bool
}

// Run scrapes a full term. When ctx is cancelled the subjects finished so far
// are returned along with the context error so the caller can still save
// them.
func (s *Scraper) Run(ctx context.Context, year int, term Term) (Catalog, error) {
	catalog := Catalog{Year: year, Term: string(term)}

	log.Printf("Fetching subjects for %s %d...", term, year)
	var list ScrapeSubjects
	if err := s.Fetcher.Scrape(ctx, s.BaseURL+"/DEFAULT/DEFAULT", &list); err != nil {
		return catalog, fmt.Errorf("failed to fetch subjects: %w", err)
	}

	cp := NewCheckpoint(year, term)
	if s.Resume && s.Checkpoint != "" {
		loaded, err := LoadCheckpoint(s.Checkpoint)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Println("No checkpoint found at", s.Checkpoint, "- starting fresh")
		case err != nil:
			return catalog, err
		case loaded.Year != year || loaded.Term != string(term):
			return catalog, fmt.Errorf("checkpoint is for %s %d, not %s %d", loaded.Term, loaded.Year, term, year)
		default:
			cp = loaded
			log.Println("Resuming run", cp.RunID, "with", len(cp.Completed), "subjects done")
		}
	}

	var runErr error
	for i, subject := range list.Subjects {
		if cp.Done(subject.Code) {
			continue
		}
		if err := ctx.Err(); err != nil {
			log.Println("Scraping interrupted, saving partial results...")
			runErr = err
			break
		}
		log.Printf("Processing subject %d/%d: %s", i+1, len(list.Subjects), subject.Code)

		courses, err := s.scrapeSubject(ctx, year, term, subject.Code)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("Scraping interrupted, saving partial results...")
				runErr = ctx.Err()
				break
			}
			runErr = err
			break
		}
		subject.Courses = courses
		cp.Complete(subject)

		if s.Checkpoint != "" {
			if err := cp.Save(s.Checkpoint); err != nil {
				return catalog, err
			}
		}
	}

	catalog.Subjects = cp.Subjects
	catalog.LastUpdated = time.Now()
	if runErr == nil && s.Checkpoint != "" {
		if err := os.Remove(s.Checkpoint); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Println("Warning: failed to remove checkpoint:", err)
		}
	}
	return catalog, runErr
}

func (s *Scraper) scrapeSubject(ctx context.Context, year int, term Term, code string) ([]Course, error) {
	var list ScrapeCourses
	url := fmt.Sprintf("%s/%d/%s/%s", s.BaseURL, year, term, code)
	if err := s.Fetcher.Scrape(ctx, url, &list); err != nil {
		return nil, err
	}

	var courses []Course
	for _, course := range list.Courses {
		fields := strings.Fields(course.Number)
		if len(fields) < 2 {
			log.Println("Warning: skipping course with no number:", course.Number)
			continue
		}
		body, err := s.Fetcher.Get(ctx, fmt.Sprintf("%s/%s", url, fields[1]))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// retired course numbers 404; the rest of the subject still counts
			log.Println("Warning: skipping course", course.Number+":", err)
			continue
		}
		sections, err := ParseSections(string(body), s.Sections)
		if err != nil {
			log.Println("Warning:", course.Number, err)
			continue
		}
		if len(sections) > 0 {
			course.Sections = sections
			courses = append(courses, course)
		}
	}
	return courses, nil
}

// SaveCatalog writes the catalog as indented JSON, creating parent
// directories as needed.
func SaveCatalog(path string, catalog Catalog) error {
	return writeJSON(path, catalog)
}

func LoadCatalog(path string) (Catalog, error) {
	var catalog Catalog
	data, err := os.ReadFile(path)
	if err != nil {
		return catalog, err
	}
	if err := json.Unmarshal(data, &catalog); err != nil {
		return catalog, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return catalog, nil
}

// writeJSON replaces path atomically so an interrupted write never leaves a
// truncated file behind.
func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
