package antidetect

import "strings"

// genericIndicators are substrings that show up in interstitial or
// challenge pages served in place of the requested content.
var genericIndicators = []string{
	"captcha",
	"robot",
	"bot detection",
	"access denied",
	"cloudflare",
	"please verify",
	"security check",
	"unusual traffic",
	"automated requests",
}

// DetectOptions names site-specific redirect signatures: many listing
// sites answer a flagged request with a 200 OK redirect to an "About us"
// style page rather than an explicit challenge page.
type DetectOptions struct {
	RedirectURLSubstrings []string
	RedirectPageTitle     string
}

// Detect inspects a fetched page's HTML and URL for bot-detection signals.
func Detect(pageSource, currentURL string, opts DetectOptions) bool {
	pageLower := strings.ToLower(pageSource)
	urlLower := strings.ToLower(currentURL)

	for _, indicator := range genericIndicators {
		if strings.Contains(pageLower, indicator) || strings.Contains(urlLower, indicator) {
			return true
		}
	}

	for _, substr := range opts.RedirectURLSubstrings {
		if substr != "" && strings.Contains(urlLower, strings.ToLower(substr)) {
			return true
		}
	}

	if opts.RedirectPageTitle != "" {
		titleLower := strings.ToLower(opts.RedirectPageTitle)
		if strings.Contains(pageLower, "<title>") && strings.Contains(pageLower, titleLower+"</title>") {
			return true
		}
	}

	return false
}
