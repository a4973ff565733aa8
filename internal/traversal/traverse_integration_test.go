package traversal

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/RecoveryAshes/estatecrawl/internal/antidetect"
	"github.com/RecoveryAshes/estatecrawl/internal/browser"
	"github.com/RecoveryAshes/estatecrawl/internal/config"
	"github.com/RecoveryAshes/estatecrawl/internal/extractor"
	"github.com/RecoveryAshes/estatecrawl/internal/models"
	"github.com/RecoveryAshes/estatecrawl/internal/validator"
)

// fakeSession is a browser.Session double that always returns the same
// fixture page, letting Traverse be exercised without a real browser.
type fakeSession struct {
	html  string
	calls int
}

func (f *fakeSession) Start(ctx context.Context) error { return nil }

func (f *fakeSession) Navigate(ctx context.Context, url string, headers map[string]string) (*browser.NavigateResult, error) {
	f.calls++
	return &browser.NavigateResult{HTML: f.html, FinalURL: url, StatusCode: 200}, nil
}

func (f *fakeSession) SimulateHumanGesture(ctx context.Context) error { return nil }
func (f *fakeSession) Restart(ctx context.Context) error              { return nil }
func (f *fakeSession) Quit()                                          {}

func TestTraverse_SinglePage_FilterStatisticsInvariant(t *testing.T) {
	html, err := os.ReadFile("testdata/listing_page.html")
	if err != nil {
		t.Fatal(err)
	}
	session := &fakeSession{html: string(html)}

	ex := extractor.New("www.example.com")
	val := validator.New(config.FilterConfig{})
	ctrl := antidetect.NewController(antidetect.Config{})

	cfg := config.TraversalConfig{
		MaxPages:               1,
		MaxConsecutiveFailures: 3,
		MinCardsPerPage:        10,
	}
	engine := New(session, ex, val, ctrl, nil, cfg, "www.example.com")

	result, err := engine.Traverse(context.Background(), "pune", models.ModeFull, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.PagesScraped != 1 {
		t.Errorf("expected 1 page scraped, got %d", result.PagesScraped)
	}
	if len(result.Records) == 0 {
		t.Fatal("expected at least one extracted record")
	}
	if result.FilterStats.Total != result.FilterStats.Filtered+result.FilterStats.Excluded {
		t.Errorf("filter-statistics invariant violated: %+v", result.FilterStats)
	}
	for _, r := range result.Records {
		if r.DataQualityScore < 0 || r.DataQualityScore > 100 {
			t.Errorf("quality score out of bounds: %v", r.DataQualityScore)
		}
	}
}

func TestTraverse_StopsAtMaxPagesForFullMode(t *testing.T) {
	html, err := os.ReadFile("testdata/listing_page.html")
	if err != nil {
		t.Fatal(err)
	}
	session := &fakeSession{html: string(html)}

	ex := extractor.New("www.example.com")
	val := validator.New(config.FilterConfig{})
	ctrl := antidetect.NewController(antidetect.Config{})
	cfg := config.TraversalConfig{MaxPages: 2, MaxConsecutiveFailures: 3, MinCardsPerPage: 10}
	engine := New(session, ex, val, ctrl, nil, cfg, "www.example.com")

	result, err := engine.Traverse(context.Background(), "pune", models.ModeFull, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.PagesScraped != 2 {
		t.Errorf("expected traversal to run both configured pages, got %d", result.PagesScraped)
	}
	if session.calls != 2 {
		t.Errorf("expected 2 navigations, got %d", session.calls)
	}
}

// TestTraverse_IncrementalStopsAtPageOne covers scenario S2: in INCREMENTAL
// mode, when most of page 1's cards are older than the previous run's
// high-water mark, the session must stop after page 1 without ever needing a
// prior page's hysteresis to have cleared.
func TestTraverse_IncrementalStopsAtPageOne(t *testing.T) {
	html, err := os.ReadFile("testdata/listing_page.html")
	if err != nil {
		t.Fatal(err)
	}
	session := &fakeSession{html: string(html)}

	ex := extractor.New("www.example.com")
	val := validator.New(config.FilterConfig{})
	ctrl := antidetect.NewController(antidetect.Config{})

	cfg := config.TraversalConfig{
		MaxPages:                 5,
		MaxConsecutiveFailures:   3,
		MinCardsPerPage:          10,
		IncrementalStopThreshold: 0.65,
		IncrementalHysteresis:    0.35,
		TopKForDateSample:        10,
	}
	engine := New(session, ex, val, ctrl, nil, cfg, "www.example.com")

	// The fixture's top-10 sampled cards are "1..10 days ago"; a high-water
	// mark of 3 days ago leaves 7 of those 10 older than it (70%), clearing
	// the 65% threshold on page 1 alone.
	highWater := time.Now().AddDate(0, 0, -3)

	result, err := engine.Traverse(context.Background(), "pune", models.ModeIncremental, &highWater)
	if err != nil {
		t.Fatal(err)
	}

	if result.PagesScraped != 1 {
		t.Fatalf("expected incremental mode to stop at page 1, got %d pages scraped", result.PagesScraped)
	}
	if !result.IncrementalStopped {
		t.Error("expected IncrementalStopped to be true")
	}
	if !strings.Contains(result.StopReason, "old_postings") {
		t.Errorf("expected stop_reason to mention old_postings, got %q", result.StopReason)
	}
	if session.calls != 1 {
		t.Errorf("expected exactly 1 navigation, got %d", session.calls)
	}
}
