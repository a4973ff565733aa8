package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RecoveryAshes/estatecrawl/internal/config"
	"github.com/RecoveryAshes/estatecrawl/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

// rodSession is shared by every PDP worker goroutine when PDPConfig.Concurrency
// > 1 (the documented default): mu serializes the whole
// navigate-set-headers-wait-read-HTML sequence so concurrent workers never
// interleave writes to page/lastURL/router.
type rodSession struct {
	mu sync.Mutex

	cfg        config.BrowserConfig
	browser    *rod.Browser
	launcher   *launcher.Launcher
	page       *rod.Page
	router     *rod.HijackRouter
	lastURL    string
	userAgent  string
}

func newRodSession(cfg config.BrowserConfig) *rodSession {
	return &rodSession{cfg: cfg}
}

func (s *rodSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(ctx)
}

func (s *rodSession) startLocked(ctx context.Context) error {
	l := launcher.New().Headless(s.cfg.Headless)
	if s.cfg.BinaryPath != "" {
		l = l.Bin(s.cfg.BinaryPath)
	}
	l = l.Set("disable-blink-features", "AutomationControlled")

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}

	s.launcher = l
	s.browser = rod.New().ControlURL(controlURL).Context(ctx)
	if err := s.browser.Connect(); err != nil {
		return fmt.Errorf("connect to browser: %w", err)
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	s.page = page

	if s.cfg.RandomizeViewport {
		w, h := randomViewport()
		_ = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:  w,
			Height: h,
		})
	}

	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		utils.Logger.Warn().Err(err).Msg("stealth injection failed, continuing without it")
	}

	if s.cfg.BlockResources {
		s.router = setupHijack(page)
	}

	return nil
}

// Navigate loads url with the given extra headers applied, waiting for DOM
// stability (or a best-effort network-idle wait when EagerPageLoad is off).
// It holds s.mu for the full navigate-and-read-HTML cycle, since PDP workers
// share one rodSession whenever PDPConfig.Concurrency > 1.
func (s *rodSession) Navigate(ctx context.Context, url string, headers map[string]string) (*NavigateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page == nil {
		return nil, fmt.Errorf("session not started")
	}

	merged, err := buildExtraHeaders(s.userAgent, s.lastURL, headers)
	if err != nil {
		return nil, err
	}
	if len(merged) > 0 {
		if _, err := proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(merged)}.Call(s.page); err != nil {
			utils.Logger.Warn().Err(err).Msg("failed to set extra headers")
		}
	}

	p := s.page.Context(ctx)

	if err := p.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", url, err)
	}

	if s.cfg.EagerPageLoad {
		_ = p.WaitDOMStable(300*time.Millisecond, 0.1)
	} else {
		waitIdle := p.WaitRequestIdle(500*time.Millisecond, nil, nil, nil)
		waitIdle()
	}

	html, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("extract html from %s: %w", url, err)
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = url
	}
	statusCode := evalStatusCode(p)

	s.lastURL = finalURL

	return &NavigateResult{HTML: html, FinalURL: finalURL, StatusCode: statusCode}, nil
}

// SimulateHumanGesture performs a small scroll-and-pause sequence, used
// sparingly (PDPConfig.SimulateHumanGesture) right before extraction.
func (s *rodSession) SimulateHumanGesture(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page == nil {
		return fmt.Errorf("session not started")
	}
	p := s.page.Context(ctx)

	steps := 2 + time.Now().Nanosecond()%3
	for i := 0; i < steps; i++ {
		_, _ = p.Eval(`() => window.scrollBy(0, Math.floor(window.innerHeight * 0.4))`)
		if err := utils.Sleep(ctx, humanGestureDelay()); err != nil {
			return err
		}
	}
	return nil
}

// Restart tears down and relaunches the browser under lock, so no worker
// goroutine can observe a half-quit page in between.
func (s *rodSession) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quitLocked()
	return s.startLocked(ctx)
}

func (s *rodSession) Quit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quitLocked()
}

func (s *rodSession) quitLocked() {
	if s.router != nil {
		_ = s.router.Stop()
		s.router = nil
	}
	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	if s.browser != nil {
		_ = s.browser.Close()
		s.browser = nil
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
		s.launcher = nil
	}
}

func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

func evalStatusCode(page *rod.Page) int {
	res, err := page.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch (e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
