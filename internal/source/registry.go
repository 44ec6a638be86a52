package source

import "github.com/Amxn-2/cyber-feed/internal/config"

// Strategy tags how a source is fetched.
type Strategy int

const (
	// StrategyFeed parses the endpoint as an RSS/Atom feed.
	StrategyFeed Strategy = iota
	// StrategyScrape parses the endpoint as HTML using the source selectors.
	StrategyScrape
)

func (s Strategy) String() string {
	if s == StrategyScrape {
		return "scrape"
	}
	return "feed"
}

// Selectors locate article fragments inside a scraped page. Only meaningful
// for StrategyScrape sources.
type Selectors struct {
	Article     string
	Title       string
	Description string
	Link        string
	Date        string
}

// Descriptor describes one upstream source. Descriptors are built once at
// process start and never mutated afterwards.
type Descriptor struct {
	Name      string
	URL       string
	Strategy  Strategy
	Selectors Selectors
}

// FallbackArticleSelectors is the generic cascade tried when a scrape
// source's primary article selector matches nothing on the page.
var FallbackArticleSelectors = []string{
	"article",
	".post",
	".news-item",
	".news_item",
	"li.item",
}

var feedSources = []Descriptor{
	{Name: "CERT-In Advisories", URL: "https://www.cert-in.org.in/rss.xml", Strategy: StrategyFeed},
	{Name: "The Hacker News", URL: "https://feeds.feedburner.com/TheHackersNews", Strategy: StrategyFeed},
	{Name: "Bleeping Computer", URL: "https://www.bleepingcomputer.com/feed/", Strategy: StrategyFeed},
	{Name: "Security Week", URL: "https://www.securityweek.com/feed/", Strategy: StrategyFeed},
	{Name: "Threatpost", URL: "https://threatpost.com/feed/", Strategy: StrategyFeed},
	{Name: "Dark Reading", URL: "https://www.darkreading.com/rss/all.xml", Strategy: StrategyFeed},
	{Name: "InfoSecurity Magazine", URL: "https://www.infosecurity-magazine.com/rss/news/", Strategy: StrategyFeed},
	{Name: "CSO Online", URL: "https://www.csoonline.com/index.rss", Strategy: StrategyFeed},
	{Name: "Krebs on Security", URL: "https://krebsonsecurity.com/feed/", Strategy: StrategyFeed},
}

var certInScrape = Descriptor{
	Name:     "CERT-In",
	URL:      "https://www.cert-in.org.in/",
	Strategy: StrategyScrape,
	Selectors: Selectors{
		Article: "a[href*='advisory'], a[href*='alert']",
		Title:   "",
		Link:    "",
	},
}

var newsScrape = []Descriptor{
	{
		Name:     "Economic Times CISO",
		URL:      "https://ciso.economictimes.indiatimes.com/news/cybercrime-fraud",
		Strategy: StrategyScrape,
		Selectors: Selectors{
			Article:     ".news_listing .news_item",
			Title:       ".news_title a",
			Description: ".news_desc",
			Link:        ".news_title a",
			Date:        ".news_time",
		},
	},
	{
		Name:     "The Hacker News Portal",
		URL:      "https://thehackernews.com",
		Strategy: StrategyScrape,
		Selectors: Selectors{
			Article:     ".post",
			Title:       ".post-title a",
			Description: ".post-excerpt",
			Link:        ".post-title a",
			Date:        ".post-date",
		},
	},
}

// Registry returns the enabled source descriptors for this process, applying
// the per-source-group enable flags once at startup.
func Registry(cfg *config.Config) []Descriptor {
	var out []Descriptor
	if cfg.Collector.FeedsEnabled {
		out = append(out, feedSources...)
	}
	if cfg.Collector.CertInEnabled {
		out = append(out, certInScrape)
	}
	if cfg.Collector.NewsEnabled {
		out = append(out, newsScrape...)
	}
	return out
}
