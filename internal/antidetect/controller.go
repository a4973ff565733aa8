package antidetect

import (
	"context"
	"sync"
	"time"

	"github.com/RecoveryAshes/estatecrawl/internal/utils"
)

// RestartFunc restarts the underlying browser session; supplied by the
// caller so this package stays independent of the browser backend.
type RestartFunc func(ctx context.Context) error

// Controller tracks detection history and consecutive failures for one
// scraping session and decides how hard to back off.
type Controller struct {
	mu sync.Mutex

	detectionCount      int
	lastDetectionTime   time.Time
	consecutiveFailures int
	uaIndex             int

	recentDetectionWindow time.Duration
	longSessionPages      int
	longSessionMinutes    int
}

// Config carries the tunables sourced from config.AntiDetectConfig.
type Config struct {
	RecentDetectionWindow time.Duration
	LongSessionPages      int
	LongSessionMinutes    int
}

func NewController(cfg Config) *Controller {
	return &Controller{
		recentDetectionWindow: cfg.RecentDetectionWindow,
		longSessionPages:      cfg.LongSessionPages,
		longSessionMinutes:    cfg.LongSessionMinutes,
	}
}

// CurrentUserAgent returns the user agent the caller should currently use.
func (c *Controller) CurrentUserAgent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return userAgents[c.uaIndex%len(userAgents)]
}

// RotateUserAgent advances the rotation index and returns the new agent.
func (c *Controller) RotateUserAgent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uaIndex = (c.uaIndex + 1) % len(userAgents)
	return userAgents[c.uaIndex]
}

// RecordFailure increments the consecutive-failure counter.
func (c *Controller) RecordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveFailures++
}

// ResetFailures clears the consecutive-failure counter after a success.
func (c *Controller) ResetFailures() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveFailures = 0
}

// Stats is a snapshot of the controller's counters, used in SessionStats.
type Stats struct {
	TotalDetections     int
	LastDetectionTime   time.Time
	ConsecutiveFailures int
	UserAgentIndex      int
}

func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		TotalDetections:     c.detectionCount,
		LastDetectionTime:   c.lastDetectionTime,
		ConsecutiveFailures: c.consecutiveFailures,
		UserAgentIndex:      c.uaIndex,
	}
}

// CalculateDelay computes the inter-request pacing delay for pageNumber,
// widened by recent detections, consecutive failures, and page number (past
// pages 10 and 20).
func (c *Controller) CalculateDelay(pageNumber int, baseMin, baseMax time.Duration) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	delay := utils.JitteredDelay(baseMin, baseMax)

	if !c.lastDetectionTime.IsZero() && time.Since(c.lastDetectionTime) < c.recentDetectionWindow {
		delay = time.Duration(float64(delay) * 1.5)
	}

	if c.consecutiveFailures > 0 {
		delay = time.Duration(float64(delay) * (1 + float64(c.consecutiveFailures)*0.3))
	}

	if pageNumber > 10 {
		delay = time.Duration(float64(delay) * 1.2)
	}
	if pageNumber > 20 {
		delay = time.Duration(float64(delay) * 1.3)
	}

	return delay
}

// HandleDetection runs the graduated recovery ladder: detections 1-2 get a
// short delay plus UA rotation, 3-4 a long delay and full session reset,
// 5+ a very long break with a logged warning that the run may need to stop.
// restart is invoked at every tier after the wait.
func (c *Controller) HandleDetection(ctx context.Context, restart RestartFunc) error {
	c.mu.Lock()
	c.detectionCount++
	c.lastDetectionTime = time.Now()
	count := c.detectionCount
	c.mu.Unlock()

	utils.Logger.Warn().Int("detection_count", count).Msg("bot detection triggered, entering recovery")

	var delay time.Duration
	switch {
	case count <= 2:
		delay = time.Duration(min(45+count*15, 90)) * time.Second
		c.RotateUserAgent()
		utils.Logger.Info().Dur("delay", delay).Msg("recovery tier 1: delay + user agent rotation")
	case count <= 4:
		delay = time.Duration(120+count*30) * time.Second
		utils.Logger.Info().Dur("delay", delay).Msg("recovery tier 2: long delay + session reset")
	default:
		delay = 5 * time.Minute
		utils.Logger.Warn().Dur("delay", delay).Msg("recovery tier 3: extended break, persistent detection")
	}

	if err := utils.Sleep(ctx, delay); err != nil {
		return err
	}

	if restart == nil {
		return nil
	}
	return restart(ctx)
}
