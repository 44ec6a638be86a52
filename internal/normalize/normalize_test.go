package normalize

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCleanStripsMarkupAndWhitespace(t *testing.T) {
	got := Clean("<p>Critical   flaw\n\nfound</p>", FeedTextLimit)
	assert.Equal(t, "Critical flaw found", got)
}

func TestCleanEmptyInputUsesPlaceholder(t *testing.T) {
	assert.Equal(t, "No description available", Clean("", FeedTextLimit))
	assert.Equal(t, "No description available", Clean("   \n\t ", FeedTextLimit))
}

func TestCleanTruncatesLongText(t *testing.T) {
	long := strings.Repeat("a", 600)
	got := Clean(long, FeedTextLimit)
	assert.Equal(t, FeedTextLimit+3, len(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestCleanTruncationIsRuneSafe(t *testing.T) {
	long := strings.Repeat("ॐ", 400)
	got := Clean(long, ScrapeTextLimit)
	assert.Equal(t, ScrapeTextLimit, len([]rune(got))-3)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestCleanTitleKeepsEmptyTitlesEmpty(t *testing.T) {
	assert.Equal(t, "", CleanTitle("  "))
	assert.Equal(t, "Breaking news", CleanTitle("<b>Breaking</b>  news"))
}

func TestResolveLink(t *testing.T) {
	base := "https://www.cert-in.org.in"

	assert.Equal(t, "https://other.example/a", ResolveLink(base, "https://other.example/a"))
	assert.Equal(t, "https://www.cert-in.org.in/advisory.jsp", ResolveLink(base, "/advisory.jsp"))
	assert.Equal(t, base, ResolveLink(base, ""))
}

func TestParseTimeFormats(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"Mon, 02 Jan 2006 15:04:05 +0000", time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)},
		{"2024-03-15T10:30:00Z", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15/03/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got := ParseTime(tc.in)
		assert.True(t, got.Equal(tc.want), "input %q parsed to %v", tc.in, got)
	}
}

func TestParseTimeGarbageFallsBackToNow(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)
	got := ParseTime("not a date at all")
	after := time.Now().UTC().Add(time.Second)
	assert.True(t, got.After(before) && got.Before(after))
}

func TestFilterDropsShortTitles(t *testing.T) {
	assert.False(t, Filter("Short", "ransomware attack", true))
	assert.False(t, Filter("Short", "ransomware attack", false))
}

func TestFilterCountsRunesNotBytes(t *testing.T) {
	// Ten Devanagari characters run well past ten bytes but are still a
	// ten-character title.
	assert.True(t, Filter("साइबर हमला बैंक", "ransomware attack reported", false))
	// Four characters stay below the floor regardless of byte width.
	assert.False(t, Filter("हमला", "ransomware attack reported", false))
}

func TestFilterStrictRequiresVocabulary(t *testing.T) {
	assert.True(t, Filter("Ransomware cripples hospital network", "attack ongoing", true))
	assert.True(t, Filter("CERT-In issues fresh advisory", "", true))
	assert.False(t, Filter("Local sports team wins championship", "great match yesterday", true))
}

func TestFilterInclusiveKeepsOffTopicItems(t *testing.T) {
	assert.True(t, Filter("Local sports team wins championship", "great match yesterday", false))
}

func TestRelevantMatchesRegionTerms(t *testing.T) {
	assert.True(t, Relevant("UPI outage reported across Mumbai"))
	assert.True(t, Relevant("Aadhaar data handling questioned"))
	assert.False(t, Relevant("quarterly earnings call transcript"))
}
