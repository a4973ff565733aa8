// Package pdp implements the PDP work engine: batched, optionally
// concurrent dispatch of property-detail-page URLs with smart filtering,
// per-URL/segment cooldown discipline, and soft-failure retry.
package pdp

import (
	"regexp"
	"sync"
	"time"

	"github.com/RecoveryAshes/estatecrawl/internal/config"
)

// Fallback timings applied per-field when config.PDPConfig leaves the
// corresponding cooldown_* setting at zero, so an incomplete or zero-value
// config never collapses backoff to zero.
const (
	defaultURLCooldownBaseHard  = 120 * time.Second
	defaultURLCooldownBaseSoft  = 45 * time.Second
	defaultURLCooldownMax       = 900 * time.Second
	defaultSegmentCooldownBase  = 90 * time.Second
	defaultSegmentCooldownMax   = 900 * time.Second
	defaultSegmentWaitCapPerTry = 15 * time.Second
)

// CooldownTracker holds per-URL and per-segment backoff state, guarded by a
// mutex so concurrent workers can share one instance safely. Its base/max
// durations come from config.PDPConfig rather than being fixed, so an
// operator can tune backoff aggressiveness per deployment without a rebuild.
type CooldownTracker struct {
	mu sync.Mutex

	urlCooldownBaseHard time.Duration
	urlCooldownBaseSoft time.Duration
	urlCooldownMax      time.Duration

	segmentCooldownBase  time.Duration
	segmentCooldownMax   time.Duration
	segmentWaitCapPerTry time.Duration

	urlFailures      map[string]int
	urlCooldownUntil map[string]time.Time

	segmentFailures      map[string]int
	segmentCooldownUntil map[string]time.Time
}

// NewCooldownTracker builds a tracker whose backoff timings come from cfg's
// cooldown_* fields, falling back to the package defaults for any field left
// at zero (a config loaded without them, or a zero-value struct in tests).
func NewCooldownTracker(cfg config.PDPConfig) *CooldownTracker {
	return &CooldownTracker{
		urlCooldownBaseHard: secondsOrDefault(cfg.CooldownBaseHard, defaultURLCooldownBaseHard),
		urlCooldownBaseSoft: secondsOrDefault(cfg.CooldownBaseSoft, defaultURLCooldownBaseSoft),
		urlCooldownMax:      secondsOrDefault(cfg.CooldownMax, defaultURLCooldownMax),

		segmentCooldownBase:  secondsOrDefault(cfg.SegmentCooldownBase, defaultSegmentCooldownBase),
		segmentCooldownMax:   secondsOrDefault(cfg.SegmentCooldownMax, defaultSegmentCooldownMax),
		segmentWaitCapPerTry: secondsOrDefault(cfg.SegmentWaitCapSeconds, defaultSegmentWaitCapPerTry),

		urlFailures:          make(map[string]int),
		urlCooldownUntil:     make(map[string]time.Time),
		segmentFailures:      make(map[string]int),
		segmentCooldownUntil: make(map[string]time.Time),
	}
}

func secondsOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// URLCooldownUntil reports the cooldown deadline for urlHash, if any.
func (c *CooldownTracker) URLCooldownUntil(urlHash string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.urlCooldownUntil[urlHash]
	return t, ok
}

// SegmentCooldownUntil reports the cooldown deadline for segment, if any.
func (c *CooldownTracker) SegmentCooldownUntil(segment string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.segmentCooldownUntil[segment]
	return t, ok
}

// URLFailureCount reports how many times urlHash has failed so far.
func (c *CooldownTracker) URLFailureCount(urlHash string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.urlFailures[urlHash]
}

// RecordURLFailure bumps urlHash's failure count and sets a new cooldown
// deadline per the per-URL backoff policy (configured base hard/soft delay,
// doubling per failure, capped at the configured maximum). Returns the new
// failure count.
func (c *CooldownTracker) RecordURLFailure(urlHash string, hard bool, now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.urlFailures[urlHash]++
	n := c.urlFailures[urlHash]

	base := c.urlCooldownBaseSoft
	if hard {
		base = c.urlCooldownBaseHard
	}
	delay := base * time.Duration(1<<uint(n-1))
	if delay > c.urlCooldownMax {
		delay = c.urlCooldownMax
	}
	c.urlCooldownUntil[urlHash] = now.Add(delay)
	return n
}

// ResetURL clears urlHash's failure count and cooldown, called on a
// successful extraction.
func (c *CooldownTracker) ResetURL(urlHash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.urlFailures, urlHash)
	delete(c.urlCooldownUntil, urlHash)
}

// RecordSegmentFailure bumps segment's failure count and sets a new
// cooldown deadline per the per-segment backoff policy (configured base
// delay, doubling per failure, capped at the configured maximum).
func (c *CooldownTracker) RecordSegmentFailure(segment string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.segmentFailures[segment]++
	n := c.segmentFailures[segment]

	delay := c.segmentCooldownBase * time.Duration(1<<uint(n-1))
	if delay > c.segmentCooldownMax {
		delay = c.segmentCooldownMax
	}
	c.segmentCooldownUntil[segment] = now.Add(delay)
}

// ClearSegment resets segment's failure count and cooldown, called when a
// URL in that segment succeeds.
func (c *CooldownTracker) ClearSegment(segment string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.segmentFailures, segment)
	delete(c.segmentCooldownUntil, segment)
}

// BoundedSegmentWait returns how long to sleep against a segment cooldown
// in one attempt: the lesser of the remaining cooldown and the configured
// per-try wait cap, so a long segment cooldown elapses gradually across
// multiple dispatch attempts rather than blocking one worker for its full
// duration.
func (c *CooldownTracker) BoundedSegmentWait(until, now time.Time) time.Duration {
	remaining := until.Sub(now)
	if remaining <= 0 {
		return 0
	}
	if remaining > c.segmentWaitCapPerTry {
		return c.segmentWaitCapPerTry
	}
	return remaining
}

var segmentPattern = regexp.MustCompile(`-in-([a-z0-9]+(?:-[a-z0-9]+){0,2})-[a-z]*$|-in-([a-z0-9]+(?:-[a-z0-9]+){0,2})-pdpid`)

// SegmentKey derives a coarse locality segment from a PDP URL path, used to
// group cooldowns for listings in the same area. Falls back to the full URL
// when no locality-shaped substring is found.
func SegmentKey(rawURL string) string {
	if m := segmentPattern.FindStringSubmatch(rawURL); m != nil {
		for _, g := range m[1:] {
			if g != "" {
				return g
			}
		}
	}
	return rawURL
}
