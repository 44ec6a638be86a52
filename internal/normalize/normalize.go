// Package normalize reconciles the heterogeneous shapes fetched from feeds
// and scraped pages into clean, bounded text, and applies the relevance
// filter that decides whether an item enters the classification stage.
package normalize

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// FeedTextLimit caps description text taken from syndication feeds.
	FeedTextLimit = 500
	// ScrapeTextLimit caps description text taken from scraped pages.
	ScrapeTextLimit = 300
	// MinTitleLength is the hard floor, in runes, below which items are dropped.
	MinTitleLength = 10
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Ordered candidate formats for upstream timestamps. RSS dates dominate, so
// RFC1123 variants come first.
var dateFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2 Jan 2006",
	"Jan 2, 2006",
	"02/01/2006",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// cyberKeywords is the relevance vocabulary: an item must mention at least
// one of these (or a region keyword) to survive strict filtering.
var cyberKeywords = []string{
	"cyber", "security", "hack", "breach", "malware", "ransomware",
	"phishing", "vulnerability", "exploit", "attack", "threat", "cve",
	"advisory", "ddos", "trojan", "botnet", "data leak", "zero-day",
	"patch", "fraud", "scam",
}

// regionKeywords marks content as relevant to the monitored region even when
// generic security terms are absent.
var regionKeywords = []string{
	"india", "indian", "cert-in", "delhi", "mumbai", "bangalore",
	"chennai", "kolkata", "hyderabad", "pune", "ahmedabad", "jaipur",
	"government of india", "ministry of", "uidai", "aadhaar", "upi",
	"meity", "digital india",
}

// Clean strips markup, collapses whitespace runs and truncates to max
// characters, appending an ellipsis marker when text was cut. It never fails;
// empty input yields the documented placeholder.
func Clean(s string, max int) string {
	if strings.TrimSpace(s) == "" {
		return "No description available"
	}
	s = tagPattern.ReplaceAllString(s, " ")
	s = whitespacePattern.ReplaceAllString(strings.TrimSpace(s), " ")
	if max > 0 {
		if runes := []rune(s); len(runes) > max {
			s = string(runes[:max]) + "..."
		}
	}
	return s
}

// CleanTitle is Clean without the placeholder fallback; a missing title stays
// empty so the length filter can drop the item.
func CleanTitle(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(s), " ")
}

// ResolveLink resolves href against base. Absolute links pass through;
// unresolvable input returns the base URL rather than a broken link.
func ResolveLink(base, href string) string {
	if href == "" {
		return base
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return base
	}
	ref, err := url.Parse(href)
	if err != nil {
		return base
	}
	return b.ResolveReference(ref).String()
}

// ParseTime tries each candidate format in order and falls back to the
// current time. It is total: no input produces an error.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now().UTC()
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

// Filter decides whether a normalized item proceeds to classification.
// Titles under MinTitleLength are always dropped. When strict is set, items
// matching neither the security vocabulary nor the region vocabulary are
// dropped too; inclusive deployments keep them and lean on relevance scores.
func Filter(title, description string, strict bool) bool {
	// Count runes, not bytes, so non-ASCII titles are measured fairly.
	if utf8.RuneCountInString(title) < MinTitleLength {
		return false
	}
	if !strict {
		return true
	}
	return Relevant(title + " " + description)
}

// Relevant reports whether the text mentions the security or region
// vocabulary.
func Relevant(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range cyberKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, kw := range regionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
