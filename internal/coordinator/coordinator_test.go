package coordinator

import (
	"testing"
	"time"

	"github.com/RecoveryAshes/estatecrawl/internal/models"
	"github.com/RecoveryAshes/estatecrawl/internal/pdp"
	"github.com/RecoveryAshes/estatecrawl/internal/traversal"
)

func TestCountSuccesses(t *testing.T) {
	details := []pdp.Detail{
		{URL: "a", Success: true},
		{URL: "b", Success: false},
		{URL: "c", Success: true},
		{URL: "d", Skipped: true},
	}
	if got := countSuccesses(details); got != 2 {
		t.Errorf("expected 2 successes, got %d", got)
	}
}

func TestCountSuccesses_Empty(t *testing.T) {
	if got := countSuccesses(nil); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestFinalize_CarriesPagesAndFilterStats(t *testing.T) {
	stats := models.SessionStats{SessionID: "s1"}
	tResult := traversal.Result{
		PagesScraped: 4,
		FilterStats:  models.FilterStats{Total: 10, Filtered: 7, Excluded: 3},
	}

	out := finalize(stats, tResult, nil)

	if out.PagesScraped != 4 {
		t.Errorf("expected pages scraped carried over, got %d", out.PagesScraped)
	}
	if out.FilterStats != tResult.FilterStats {
		t.Errorf("expected filter stats carried over, got %+v", out.FilterStats)
	}
	if out.SessionID != "s1" {
		t.Errorf("expected session id preserved, got %q", out.SessionID)
	}
	if out.EndTime.Before(out.StartTime) && !out.EndTime.IsZero() {
		// EndTime is stamped fresh; just sanity-check it's set.
	}
	if out.EndTime.IsZero() {
		t.Error("expected EndTime to be stamped")
	}
	if time.Since(out.EndTime) > time.Minute {
		t.Error("expected EndTime to be recent")
	}
}
