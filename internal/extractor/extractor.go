package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/estatecrawl/internal/models"
)

// Extractor reads listing cards (from the search-results traversal) and
// property detail pages (from the PDP work engine) into PropertyRecords.
type Extractor struct {
	selectors CardSelectors
	baseHost  string // used to resolve relative hrefs, e.g. "www.example.com"
}

func New(baseHost string) *Extractor {
	return &Extractor{selectors: DefaultCardSelectors(), baseHost: baseHost}
}

// ExtractCard builds a PropertyRecord from one listing card's DOM selection.
// Returns ok=false when the card lacks even the minimal content a caller
// should bother keeping (see models.PropertyRecord.HasMinimalContent).
func (e *Extractor) ExtractCard(card *goquery.Selection, pageNumber, positionOnPage int) (*models.PropertyRecord, bool) {
	isPremium, premiumType, indicators := detectPremium(card)

	title := e.extractField(card, e.selectors.Title, titlePatterns)
	price := e.extractField(card, e.selectors.Price, pricePatterns)
	area := e.extractField(card, e.selectors.Area, areaPatterns)
	url := e.extractURL(card)

	rec := &models.PropertyRecord{
		URL:            url,
		Title:          title,
		PriceText:      price,
		AreaText:       area,
		PageNumber:     pageNumber,
		PositionOnPage: positionOnPage,
		ScrapedAt:      time.Now(),
		IsPremium:      isPremium,
	}
	if isPremium {
		rec.PremiumIndicators = append([]string{premiumType}, indicators...)
	}

	ok := rec.HasMinimalContent()
	if isPremium {
		ok = rec.PremiumHasMinimalContent()
	}
	if !ok {
		return rec, false
	}

	rec.PropertyType = extractPropertyTypeFromTitle(title)
	if m := bhkPattern.FindStringSubmatch(title); m != nil {
		rec.BHK = m[1] + " BHK"
	}

	rec.Society = e.extractStructuredField(card, "Society")
	rec.Locality = e.extractStructuredField(card, "Locality")
	rec.Status = normalizeStatus(e.extractStructuredField(card, "Status"))

	if bathrooms := e.extractStructuredField(card, "Bathroom"); bathrooms != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(strings.Fields(bathrooms)[0])); err == nil {
			rec.Bathrooms = &n
		}
	}
	if balconies := e.extractStructuredField(card, "Balcony"); balconies != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(strings.Fields(balconies)[0])); err == nil {
			rec.Balconies = &n
		}
	}

	rec.PostingDateRawPrimary = e.extractField(card, e.selectors.Date, nil)
	rec.PostingDateRaw = rec.PostingDateRawPrimary

	return rec, true
}

// ExtractPDP reads a fully-rendered property detail page and returns the
// subset of fields a PDP visit refines beyond the card-level extraction:
// status, extended specification fields, and a second posting-date position.
func (e *Extractor) ExtractPDP(doc *goquery.Document) *models.PropertyRecord {
	root := doc.Selection

	rec := &models.PropertyRecord{
		Title:     strings.TrimSpace(firstNonEmpty(doc.Find("h1").First().Text())),
		PriceText: e.extractField(root, e.selectors.Price, pricePatterns),
		AreaText:  e.extractField(root, e.selectors.Area, areaPatterns),
		Status:    normalizeStatus(e.extractStructuredField(root, "Status")),
	}

	rec.ExtendedFields = map[string]string{}
	for _, field := range []string{"Furnishing", "Facing", "Car Parking", "Ownership", "Transaction", "Overlooking", "Floor"} {
		if v := e.extractStructuredField(root, field); v != "" {
			rec.ExtendedFields[strings.ToLower(strings.ReplaceAll(field, " ", "_"))] = v
		}
	}

	if secondary := doc.Find("*[class*='post']").Last().Text(); strings.TrimSpace(secondary) != "" {
		rec.PostingDateRawSecondary = strings.TrimSpace(secondary)
	}

	return rec
}

func firstNonEmpty(s string) string {
	return strings.TrimSpace(s)
}

// extractField tries each CSS selector in order, falling back to regex
// scanning of the element's full text when no selector yields usable text.
func (e *Extractor) extractField(sel *goquery.Selection, selectors []string, patterns []*regexp.Regexp) string {
	for _, css := range selectors {
		found := sel.Find(css).First()
		if found.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(found.Text())
		if isUsable(text) {
			return text
		}
	}

	if len(patterns) == 0 {
		return ""
	}
	allText := sel.Text()
	for _, p := range patterns {
		if m := p.FindString(allText); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

func isUsable(text string) bool {
	if text == "" || len(text) <= 1 {
		return false
	}
	return !placeholderValues[strings.ToLower(text)]
}

// extractURL resolves the first plausible property-detail href in the card.
func (e *Extractor) extractURL(card *goquery.Selection) string {
	var result string
	for _, css := range e.selectors.URL {
		card.Find(css).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, exists := s.Attr("href")
			if !exists || !e.isValidPropertyURL(href) {
				return true
			}
			result = e.resolveURL(href)
			return false
		})
		if result != "" {
			return result
		}
	}
	return result
}

func (e *Extractor) isValidPropertyURL(href string) bool {
	if href == "" || href == "#" {
		return false
	}
	lower := strings.ToLower(href)
	for _, bad := range invalidURLFragments {
		if strings.Contains(lower, bad) {
			return false
		}
	}
	return true
}

func (e *Extractor) resolveURL(href string) string {
	if strings.HasPrefix(href, "/") && e.baseHost != "" {
		return "https://" + e.baseHost + href
	}
	return href
}

// extractStructuredField looks for "Field: Value" or "Field - Value" pairs
// anywhere in the card's text, the common rendering for tabular spec rows.
func (e *Extractor) extractStructuredField(sel *goquery.Selection, fieldName string) string {
	text := sel.Text()
	lowerField := strings.ToLower(fieldName)
	lowerText := strings.ToLower(text)

	idx := strings.Index(lowerText, lowerField)
	if idx == -1 {
		return ""
	}

	rest := text[idx+len(fieldName):]
	rest = strings.TrimLeft(rest, " \t")
	if len(rest) == 0 {
		return ""
	}
	if rest[0] == ':' || rest[0] == '-' {
		rest = rest[1:]
	} else {
		return ""
	}

	rest = strings.TrimSpace(rest)
	if cut := strings.IndexAny(rest, "\n,"); cut != -1 {
		rest = rest[:cut]
	}
	return strings.TrimSpace(rest)
}

func extractPropertyTypeFromTitle(title string) string {
	if m := bhkPattern.FindStringSubmatch(title); m != nil {
		return m[1] + " BHK"
	}
	lower := strings.ToLower(title)
	if strings.Contains(lower, "studio") {
		return "Studio"
	}
	for _, t := range []string{"Villa", "House", "Plot", "Apartment", "Flat"} {
		if strings.Contains(lower, strings.ToLower(t)) {
			return t
		}
	}
	return ""
}

func normalizeStatus(raw string) models.Status {
	if raw == "" {
		return models.StatusUnspecified
	}
	if canonical, ok := statusVocabulary[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return models.Status(canonical)
	}
	return models.StatusUnspecified
}

func detectPremium(card *goquery.Selection) (isPremium bool, premiumType string, indicators []string) {
	premiumType = "standard"

	class, _ := card.Attr("class")
	for _, cls := range strings.Fields(class) {
		for indicator, label := range premiumClassIndicators {
			if strings.Contains(cls, indicator) {
				isPremium = true
				premiumType = label
				indicators = append(indicators, indicator)
			}
		}
	}

	lowerText := strings.ToLower(card.Text())
	for _, indicator := range premiumTextIndicators {
		if strings.Contains(lowerText, indicator) {
			indicators = append(indicators, "text_"+indicator)
			if !isPremium {
				isPremium = true
				premiumType = indicator
			}
		}
	}

	return isPremium, premiumType, indicators
}
