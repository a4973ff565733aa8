// Package dateparse interprets free-form relative or absolute posting-date
// text into a timestamp. It is the Go home for spec's external C1
// collaborator: a thin, pluggable seam so the traversal and PDP engines
// never depend on a concrete date-parsing library.
package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Parser interprets posting-date text relative to now.
type Parser interface {
	Parse(text string, now time.Time) (*time.Time, error)
}

// Default is a best-effort parser covering the relative phrases and
// absolute layouts observed on Indian real-estate listing sites:
// "today", "yesterday", "N days/weeks/months ago", "Posted: N days ago",
// and a handful of common absolute date layouts.
type Default struct{}

var relativePattern = regexp.MustCompile(`(?i)(\d+)\s*(hour|day|week|month|year)s?\s*ago`)

var absoluteLayouts = []string{
	"02 Jan 2006",
	"Jan 02, 2006",
	"2006-01-02",
	"02/01/2006",
	"January 2, 2006",
}

// Parse extracts a timestamp from text, returning nil with no error when
// the text contains no recognizable date expression.
func (Default) Parse(text string, now time.Time) (*time.Time, error) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return nil, nil
	}

	switch {
	case strings.Contains(lower, "today"):
		t := now
		return &t, nil
	case strings.Contains(lower, "yesterday"):
		t := now.AddDate(0, 0, -1)
		return &t, nil
	}

	if m := relativePattern.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, nil
		}
		var t time.Time
		switch m[2] {
		case "hour":
			t = now.Add(-time.Duration(n) * time.Hour)
		case "day":
			t = now.AddDate(0, 0, -n)
		case "week":
			t = now.AddDate(0, 0, -n*7)
		case "month":
			t = now.AddDate(0, -n, 0)
		case "year":
			t = now.AddDate(-n, 0, 0)
		}
		return &t, nil
	}

	trimmed := strings.TrimSpace(text)
	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return &t, nil
		}
	}

	return nil, nil
}

// ResolveCanonical picks the canonical posting date when a site renders it
// in two element positions (spec's open question on dual posting-date
// positions): whichever parses to the earlier timestamp wins, and the
// choice is reported via chosePrimary so callers can log it rather than
// silently preferring one.
func ResolveCanonical(p Parser, primary, secondary string, now time.Time) (raw string, parsed *time.Time, chosePrimary bool) {
	pT, _ := p.Parse(primary, now)
	sT, _ := p.Parse(secondary, now)

	switch {
	case pT != nil && sT != nil:
		if pT.Before(*sT) {
			return primary, pT, true
		}
		return secondary, sT, false
	case pT != nil:
		return primary, pT, true
	case sT != nil:
		return secondary, sT, false
	default:
		return primary, nil, true
	}
}
