package models

import "strings"

// Category is the canonical threat taxonomy. Earlier collectors grew two
// vocabularies independently (the feed pipeline's eight categories and the
// scraper's looser advisory/alert/news set); everything is folded into this
// one closed enumeration so analytics can group on it safely.
type Category string

const (
	CategoryMalware       Category = "malware"
	CategoryPhishing      Category = "phishing"
	CategoryRansomware    Category = "ransomware"
	CategoryDataBreach    Category = "data_breach"
	CategoryAPT           Category = "apt"
	CategoryDDoS          Category = "ddos"
	CategoryVulnerability Category = "vulnerability"
	CategoryInsiderThreat Category = "insider_threat"
)

// Severity is the ordered qualitative impact level.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var categories = map[Category]bool{
	CategoryMalware:       true,
	CategoryPhishing:      true,
	CategoryRansomware:    true,
	CategoryDataBreach:    true,
	CategoryAPT:           true,
	CategoryDDoS:          true,
	CategoryVulnerability: true,
	CategoryInsiderThreat: true,
}

// legacyCategories maps the scraper pipeline's vocabulary onto the canonical
// taxonomy.
var legacyCategories = map[string]Category{
	"advisory":     CategoryVulnerability,
	"alert":        CategoryVulnerability,
	"news":         CategoryVulnerability,
	"cyber_attack": CategoryMalware,
	"cyber attack": CategoryMalware,
	"fraud":        CategoryPhishing,
	"data breach":  CategoryDataBreach,
}

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// ParseCategory normalizes arbitrary classifier output to a canonical
// category. Unrecognized values map to vulnerability, never an error.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if categories[c] {
		return c
	}
	if mapped, ok := legacyCategories[string(c)]; ok {
		return mapped
	}
	return CategoryVulnerability
}

// ParseSeverity normalizes arbitrary classifier output to a canonical
// severity. Unrecognized values map to medium, never an error.
func ParseSeverity(s string) Severity {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := severityRank[sev]; ok {
		return sev
	}
	return SeverityMedium
}

// Rank returns the severity's position in the low < medium < high < critical
// order.
func (s Severity) Rank() int {
	return severityRank[s]
}

// Valid reports whether the severity is one of the enumerated values.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// Valid reports whether the category is one of the enumerated values.
func (c Category) Valid() bool {
	return categories[c]
}
