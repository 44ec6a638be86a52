package classify

import (
	"context"
	"strings"

	"github.com/Amxn-2/cyber-feed/internal/models"
)

// categoryRule is one entry in the ordered keyword table. First match wins.
type categoryRule struct {
	keywords  []string
	category  models.Category
	severity  models.Severity
	riskScore int
}

var categoryRules = []categoryRule{
	{[]string{"ransomware", "crypto", "encryption"}, models.CategoryRansomware, models.SeverityHigh, 80},
	{[]string{"phishing", "scam", "fake"}, models.CategoryPhishing, models.SeverityMedium, 60},
	{[]string{"malware", "virus", "trojan"}, models.CategoryMalware, models.SeverityHigh, 70},
	{[]string{"breach", "leak", "exposed"}, models.CategoryDataBreach, models.SeverityHigh, 85},
	{[]string{"ddos", "denial", "flood"}, models.CategoryDDoS, models.SeverityMedium, 55},
}

var indianCities = []string{
	"mumbai", "delhi", "bangalore", "hyderabad", "chennai", "kolkata",
	"pune", "ahmedabad", "jaipur", "lucknow", "kanpur", "nagpur",
	"visakhapatnam", "bhopal", "patna", "vadodara", "ludhiana",
	"agra", "nashik", "faridabad", "meerut", "rajkot", "kalyan",
}

var indianStates = []string{
	"maharashtra", "karnataka", "tamil nadu", "gujarat", "rajasthan",
	"uttar pradesh", "west bengal", "madhya pradesh", "bihar",
	"andhra pradesh", "telangana", "kerala", "punjab", "haryana",
	"odisha", "jharkhand", "chhattisgarh", "assam", "uttarakhand",
}

var indianEntities = []string{
	"cert-in", "nic", "cdac", "isro", "drdo", "bsnl", "mtnl", "ongc",
	"ntpc", "bhel", "hal", "railtel", "pgcil", "powergrid", "uidai",
	"aadhaar", "upi", "digital india", "meity", "dit", "stqc",
}

// cityCoordinates maps major Indian cities to fixed coordinates for the map
// surface.
var cityCoordinates = map[string]models.Coordinates{
	"mumbai":    {Lat: 19.0760, Lng: 72.8777},
	"delhi":     {Lat: 28.6139, Lng: 77.2090},
	"bangalore": {Lat: 12.9716, Lng: 77.5946},
	"hyderabad": {Lat: 17.3850, Lng: 78.4867},
	"chennai":   {Lat: 13.0827, Lng: 80.2707},
	"kolkata":   {Lat: 22.5726, Lng: 88.3639},
	"pune":      {Lat: 18.5204, Lng: 73.8567},
	"ahmedabad": {Lat: 23.0225, Lng: 72.5714},
	"jaipur":    {Lat: 26.9124, Lng: 75.7873},
	"lucknow":   {Lat: 26.8467, Lng: 80.9462},
}

// countryCentroid is the fallback point for region-specific incidents whose
// city is unknown or unmapped.
var countryCentroid = models.Coordinates{Lat: 20.5937, Lng: 78.9629}

// Local is the deterministic keyword classifier. It is the guaranteed
// fallback path: no network, no state, always succeeds.
type Local struct{}

// NewLocal returns the keyword classifier.
func NewLocal() *Local {
	return &Local{}
}

// Classify scores the concatenated text against the ordered keyword table.
func (l *Local) Classify(_ context.Context, title, description, raw string) Result {
	text := strings.ToLower(title + " " + description + " " + raw)

	category := models.CategoryVulnerability
	severity := models.SeverityMedium
	riskScore := 50

	for _, rule := range categoryRules {
		if containsAny(text, rule.keywords) {
			category = rule.category
			severity = rule.severity
			riskScore = rule.riskScore
			break
		}
	}

	indiaSpecific := containsAny(text, indianEntities) ||
		containsAny(text, indianCities) ||
		containsAny(text, indianStates) ||
		strings.Contains(text, ".in") ||
		strings.Contains(text, "india")

	relevance := 0.3
	if indiaSpecific {
		relevance = 0.8
	}

	analysis := models.Analysis{
		RiskScore:          riskScore,
		Indicators:         []string{"Keyword-based analysis"},
		Mitigation:         []string{"Monitor for updates", "Apply security patches"},
		CategoryConfidence: 0.6,
		SeverityConfidence: 0.6,
		IndiaRelevance:     relevance,
	}
	analysis.Clamp()

	tags := []string{"cybersecurity", "threat", string(category), string(severity)}
	if indiaSpecific {
		tags = append(tags, "india")
	}

	var location *models.Location
	if indiaSpecific {
		location = resolveLocation(firstCity(text), "", "India")
	}

	return Result{
		Category:  category,
		Severity:  severity,
		Analysis:  analysis,
		IndiaOnly: indiaSpecific,
		Location:  location,
		Tags:      tags,
	}
}

// resolveLocation maps a city to its fixed coordinates, falling back to the
// country centroid.
func resolveLocation(city, state, country string) *models.Location {
	if country == "" {
		country = "India"
	}
	loc := &models.Location{City: city, State: state, Country: country}
	if coords, ok := cityCoordinates[strings.ToLower(city)]; ok {
		loc.Coordinates = &coords
	} else {
		centroid := countryCentroid
		loc.Coordinates = &centroid
	}
	return loc
}

func firstCity(lowerText string) string {
	for _, city := range indianCities {
		if strings.Contains(lowerText, city) {
			return strings.ToUpper(city[:1]) + city[1:]
		}
	}
	return ""
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
