package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const subjectsPage = `<html><body><table>
<tr><th>Code</th><th>Name</th></tr>
<tr><td>CS</td><td>Computer Science</td></tr>
<tr><td>MATH</td><td>Mathematics</td></tr>
<tr><td>ART</td><td> </td></tr>
</table></body></html>`

func meetingSection(slot, location, days string) string {
	return fmt.Sprintf(`{"time": "<div class=\"app-meeting\">%s</div>", "location": "<div class=\"app-meeting\">%s</div>", "day": "<div class=\"app-meeting\">%s</div>", "sectionDateRange": "Meets 01/13/25-05/07/25"}`,
		slot, location, days)
}

// catalogSite serves a two-subject schedule site. MATH has a single course
// whose only section is arranged, so it drops out of the results.
type catalogSite struct {
	mu    sync.Mutex
	hits  map[string]int
	fails map[string]int    // path -> remaining 500 responses
	pages map[string]string // path -> body served instead of the default
}

func newCatalogSite() *catalogSite {
	return &catalogSite{hits: make(map[string]int), fails: make(map[string]int), pages: make(map[string]string)}
}

func (s *catalogSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	if s.fails[r.URL.Path] > 0 {
		s.fails[r.URL.Path]--
		s.mu.Unlock()
		http.Error(w, "try again", http.StatusInternalServerError)
		return
	}
	page, ok := s.pages[r.URL.Path]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html")
	if ok {
		fmt.Fprint(w, page)
		return
	}
	switch r.URL.Path {
	case "/schedule/DEFAULT/DEFAULT":
		fmt.Fprint(w, subjectsPage)
	case "/schedule/2025/spring/CS":
		fmt.Fprint(w, `<table><tr><td>CS 173</td><td>Discrete Structures</td></tr><tr><td>CS 199</td><td>Special Topics</td></tr></table>`)
	case "/schedule/2025/spring/CS/173":
		fmt.Fprint(w, coursePage("["+meetingSection("09:30AM - 10:50AM", "1404 Siebel Center for Comp Sci", "TR")+"]"))
	case "/schedule/2025/spring/CS/199":
		fmt.Fprint(w, "<html><body>No sections</body></html>")
	case "/schedule/2025/spring/MATH":
		fmt.Fprint(w, `<table><tr><td>MATH 241</td><td>Calculus III</td></tr></table>`)
	case "/schedule/2025/spring/MATH/241":
		fmt.Fprint(w, coursePage("["+meetingSection("ARRANGED", "n.a.", "n.a.")+"]"))
	default:
		http.NotFound(w, r)
	}
}

func (s *catalogSite) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func newTestFetcher(t *testing.T, attempts int) *Fetcher {
	f, err := NewFetcher(FetchOptions{MaxAttempts: attempts, Backoff: time.Millisecond})
	require.NoError(t, err)
	return f
}

func TestScraperRun(t *testing.T) {
	site := newCatalogSite()
	server := httptest.NewServer(site)
	defer server.Close()

	checkpoint := filepath.Join(t.TempDir(), "checkpoint.json")
	s := &Scraper{Fetcher: newTestFetcher(t, 1), BaseURL: server.URL + "/schedule", Checkpoint: checkpoint}

	catalog, err := s.Run(context.Background(), 2025, Spring)
	require.NoError(t, err)

	assert.Equal(t, 2025, catalog.Year)
	assert.Equal(t, "spring", catalog.Term)
	require.Len(t, catalog.Subjects, 1, "MATH has no scheduled sections")
	cs := catalog.Subjects[0]
	assert.Equal(t, "CS", cs.Code)
	assert.Equal(t, "Computer Science", cs.Name)
	require.Len(t, cs.Courses, 1, "CS 199 has no sections")
	assert.Equal(t, "CS 173", cs.Courses[0].Number)
	assert.Equal(t, "Discrete Structures", cs.Courses[0].Title)
	assert.Equal(t, "1404", cs.Courses[0].Sections[0].Location.Room)
	assert.Equal(t, 1, catalog.CourseCount())
	assert.False(t, catalog.LastUpdated.IsZero())

	_, err = os.Stat(checkpoint)
	assert.ErrorIs(t, err, os.ErrNotExist, "a completed run removes its checkpoint")
}

func TestScraperRun_RetriesFailedRequests(t *testing.T) {
	site := newCatalogSite()
	site.fails["/schedule/2025/spring/CS/173"] = 2
	server := httptest.NewServer(site)
	defer server.Close()

	s := &Scraper{Fetcher: newTestFetcher(t, 3), BaseURL: server.URL + "/schedule"}
	catalog, err := s.Run(context.Background(), 2025, Spring)
	require.NoError(t, err)
	require.Len(t, catalog.Subjects, 1)
	assert.Equal(t, 3, site.hitCount("/schedule/2025/spring/CS/173"))
}

func TestScraperRun_SkipsMissingCoursePage(t *testing.T) {
	site := newCatalogSite()
	site.pages["/schedule/2025/spring/CS"] = `<table><tr><td>CS 100</td><td>Retired</td></tr><tr><td>CS 173</td><td>Discrete Structures</td></tr></table>`
	site.pages["/schedule/2025/spring/MATH/241"] = coursePage("[" + meetingSection("10:00AM - 10:50AM", "245 Altgeld Hall", "MWF") + "]")
	server := httptest.NewServer(site)
	defer server.Close()

	s := &Scraper{Fetcher: newTestFetcher(t, 2), BaseURL: server.URL + "/schedule"}
	catalog, err := s.Run(context.Background(), 2025, Spring)
	require.NoError(t, err)

	require.Len(t, catalog.Subjects, 2, "a 404 course does not stop the run")
	require.Len(t, catalog.Subjects[0].Courses, 1)
	assert.Equal(t, "CS 173", catalog.Subjects[0].Courses[0].Number)
	assert.Equal(t, "MATH 241", catalog.Subjects[1].Courses[0].Number)
	assert.Equal(t, 2, site.hitCount("/schedule/2025/spring/CS/100"), "missing page is retried before skipping")
}

func TestScraperRun_ResumesFromCheckpoint(t *testing.T) {
	site := newCatalogSite()
	// MATH keeps failing so the first run stops after CS
	site.fails["/schedule/2025/spring/MATH"] = 1
	server := httptest.NewServer(site)
	defer server.Close()

	checkpoint := filepath.Join(t.TempDir(), "checkpoint.json")
	s := &Scraper{Fetcher: newTestFetcher(t, 1), BaseURL: server.URL + "/schedule", Checkpoint: checkpoint, Resume: true}

	partial, err := s.Run(context.Background(), 2025, Spring)
	require.Error(t, err)
	require.Len(t, partial.Subjects, 1)

	cp, err := LoadCheckpoint(checkpoint)
	require.NoError(t, err)
	assert.Equal(t, []string{"CS"}, cp.Completed)
	assert.True(t, cp.Done("CS"))

	catalog, err := s.Run(context.Background(), 2025, Spring)
	require.NoError(t, err)
	require.Len(t, catalog.Subjects, 1)
	assert.Equal(t, "CS", catalog.Subjects[0].Code)
	assert.Equal(t, 1, site.hitCount("/schedule/2025/spring/CS"), "completed subjects are not fetched again")
	assert.Equal(t, 2, site.hitCount("/schedule/2025/spring/MATH"))
}

func TestScraperRun_CheckpointForOtherTerm(t *testing.T) {
	site := newCatalogSite()
	server := httptest.NewServer(site)
	defer server.Close()

	checkpoint := filepath.Join(t.TempDir(), "checkpoint.json")
	require.NoError(t, NewCheckpoint(2024, Fall).Save(checkpoint))

	s := &Scraper{Fetcher: newTestFetcher(t, 1), BaseURL: server.URL + "/schedule", Checkpoint: checkpoint, Resume: true}
	_, err := s.Run(context.Background(), 2025, Spring)
	assert.Error(t, err)
}

func TestScraperRun_Cancelled(t *testing.T) {
	site := newCatalogSite()
	server := httptest.NewServer(site)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Scraper{Fetcher: newTestFetcher(t, 1), BaseURL: server.URL + "/schedule"}
	catalog, err := s.Run(ctx, 2025, Spring)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, catalog.Subjects)
}

func TestSaveAndLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "subjects.json")
	catalog := Catalog{
		LastUpdated: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Year:        2025,
		Term:        "spring",
		Subjects: []Subject{{Code: "CS", Name: "Computer Science", Courses: []Course{{
			Number: "CS 173", Title: "Discrete Structures",
			Sections: []Section{{Time: TimeSlot{"09:30", "10:50"}, Location: Location{"Siebel", "1404"}, Days: []string{"T", "R"}}},
		}}}},
	}
	require.NoError(t, SaveCatalog(path, catalog))

	loaded, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, catalog, loaded)
}

func TestFetcher_GivesUp(t *testing.T) {
	site := newCatalogSite()
	site.fails["/flaky"] = 10
	server := httptest.NewServer(site)
	defer server.Close()

	f := newTestFetcher(t, 3)
	_, err := f.Get(context.Background(), server.URL+"/flaky")
	assert.Error(t, err)
	assert.Equal(t, 3, site.hitCount("/flaky"))
}

func TestNewFetcher_BadProxy(t *testing.T) {
	_, err := NewFetcher(FetchOptions{Proxies: []string{"://bad"}})
	assert.Error(t, err)
}

func TestFetcher_RotatesProxies(t *testing.T) {
	var mu sync.Mutex
	hits := make(map[string]int)
	proxyServer := func(name string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			hits[name]++
			mu.Unlock()
			fmt.Fprint(w, "ok")
		}))
	}
	a, b := proxyServer("a"), proxyServer("b")
	defer a.Close()
	defer b.Close()

	f, err := NewFetcher(FetchOptions{MaxAttempts: 1, Proxies: []string{a.URL, b.URL}})
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		body, err := f.Get(context.Background(), fmt.Sprintf("http://catalog.example/page/%d", i))
		require.NoError(t, err)
		assert.Equal(t, "ok", string(body))
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"a": 2, "b": 2}, hits)
}
