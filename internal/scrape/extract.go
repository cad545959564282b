package scrape

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"canconf/internal/catalog"
)

const cardSelector = `[data-test="event-card"], article, .event, .event-card, .sc-card, .card`

var (
	nameSelectors     = []string{`[data-test="event-name"]`, "h3", "h2", "a[title]", ".event-name", ".card-title"}
	dateSelectors     = []string{`[data-test="event-date"]`, "time", ".event-date", ".date"}
	locationSelectors = []string{`[data-test="event-location"]`, `[class*="location"]`, "address", ".event-location", "p"}
)

// RawEvent is a listing card as scraped, before any normalization.
type RawEvent struct {
	Name     string `json:"name"`
	Date     string `json:"date"`
	Location string `json:"location"`
	Website  string `json:"website,omitempty"`
}

// ExtractCards pulls event cards out of a rendered listing page. Relative
// links are resolved against pageURL. When no card matches, the Next.js
// __NEXT_DATA__ payload is searched instead. Results are de-duplicated by
// normalized name, first occurrence wins.
func ExtractCards(html, pageURL string) ([]RawEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("scrape: parse html: %w", err)
	}
	base, _ := url.Parse(pageURL)

	var cards []RawEvent
	doc.Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
		ev := RawEvent{
			Name:     pickText(card, nameSelectors),
			Date:     pickText(card, dateSelectors),
			Location: pickText(card, locationSelectors),
			Website:  pickWebsite(card, base),
		}
		if ev.Name == "" || ev.Date == "" || ev.Location == "" {
			return
		}
		cards = append(cards, ev)
	})

	if len(cards) == 0 {
		cards = extractNextData(doc)
	}
	return dedupe(cards), nil
}

func pickText(card *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if el := card.Find(sel).First(); el.Length() > 0 {
			if text := strings.TrimSpace(el.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// pickWebsite prefers the first absolute link that leaves mlh.io, falling
// back to the card's first link.
func pickWebsite(card *goquery.Selection, base *url.URL) string {
	var first, external string
	card.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := absoluteHref(a.AttrOr("href", ""), base)
		if href == "" {
			return true
		}
		if first == "" {
			first = href
		}
		if strings.HasPrefix(href, "http") && !strings.Contains(href, "mlh.io") {
			external = href
			return false
		}
		return true
	})
	if external != "" {
		return external
	}
	return first
}

func absoluteHref(href string, base *url.URL) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	return u.String()
}

// extractNextData walks the __NEXT_DATA__ JSON for objects that look like
// events: a string name, some location and some date.
func extractNextData(doc *goquery.Document) []RawEvent {
	raw := strings.TrimSpace(doc.Find(`script#__NEXT_DATA__`).First().Text())
	if raw == "" {
		return nil
	}
	var root any
	if err := json.Unmarshal([]byte(raw), &root); err != nil {
		return nil
	}

	var found []RawEvent
	stack := []any{root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch v := cur.(type) {
		case []any:
			for i := len(v) - 1; i >= 0; i-- {
				stack = append(stack, v[i])
			}
		case map[string]any:
			name, _ := v["name"].(string)
			loc := firstString(v, "location", "city", "country")
			date := firstString(v, "date", "when", "start", "startDate")
			if name != "" && loc != "" && date != "" {
				found = append(found, RawEvent{
					Name:     strings.TrimSpace(name),
					Date:     date,
					Location: loc,
					Website:  firstString(v, "website", "url"),
				})
			}
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			// Reverse order on the stack so keys are visited sorted.
			slices.Sort(keys)
			for i := len(keys) - 1; i >= 0; i-- {
				stack = append(stack, v[keys[i]])
			}
		}
	}
	return found
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func dedupe(events []RawEvent) []RawEvent {
	seen := make(map[string]struct{}, len(events))
	out := make([]RawEvent, 0, len(events))
	for _, ev := range events {
		key := catalog.NormalizeName(ev.Name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ev)
	}
	return out
}
