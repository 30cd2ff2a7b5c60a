// Package rss supplements news coverage with industry-aware RSS feeds.
package rss

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"github.com/flashnarrative/flashnarrative/pkg/authority"
	"github.com/flashnarrative/flashnarrative/pkg/logger"
	"github.com/flashnarrative/flashnarrative/pkg/model"
	"github.com/flashnarrative/flashnarrative/pkg/source"
)

// feedsByIndustry lists curated feeds per industry. Unknown industries fall
// back to the default set.
var feedsByIndustry = map[string][]string{
	"default": {
		"http://feeds.bbci.co.uk/news/rss.xml",
		"http://rss.cnn.com/rss/edition.rss",
		"http://feeds.reuters.com/reuters/topNews",
		"http://feeds.feedburner.com/TechCrunch/",
	},
	"tech": {
		"http://feeds.feedburner.com/TechCrunch/",
		"https://www.theverge.com/rss/index.xml",
		"https://www.wired.com/feed/rss",
	},
	"finance": {
		"https://www.ft.com/?format=rss",
		"https://www.cnbc.com/id/100003114/device/rss/rss.html",
	},
	"healthcare": {
		"https://www.statnews.com/feed/",
		"https://www.medicalnewstoday.com/rss",
	},
	"retail": {
		"https://www.retaildive.com/rss/all/",
		"https://www.forbes.com/retail/feed2/",
	},
}

// Client parses the curated feeds for an industry.
type Client struct {
	parser *gofeed.Parser
}

func NewClient(timeout time.Duration) *Client {
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: timeout}
	return &Client{parser: p}
}

var _ source.Fetcher = (*Client)(nil)

func (c *Client) Name() string { return "rss" }

// Fetch implements source.Fetcher. A feed that fails to parse is skipped.
func (c *Client) Fetch(ctx context.Context, req *source.Request) ([]model.Mention, error) {
	feeds := FeedsFor(req.Industry)
	cutoff := req.Cutoff(time.Now())
	brands := req.Brands()

	var mentions []model.Mention
	for _, feedURL := range feeds {
		feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			logger.Log.Warnf("rss feed failed [%s]: %v", feedURL, err)
			continue
		}
		mentions = append(mentions, itemsToMentions(feed, feedURL, cutoff, brands)...)
	}
	return mentions, nil
}

// FeedsFor resolves the feed list for an industry.
func FeedsFor(industry string) []string {
	if feeds, ok := feedsByIndustry[strings.ToLower(industry)]; ok {
		return feeds
	}
	return feedsByIndustry["default"]
}

func itemsToMentions(feed *gofeed.Feed, feedURL string, cutoff time.Time, brands []string) []model.Mention {
	var out []model.Mention
	for _, item := range feed.Items {
		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}
		// Entries without a parseable date are skipped here; strict windowing
		// is what makes the RSS supplement trustworthy.
		if published == nil || published.Before(cutoff) {
			continue
		}

		text := strings.TrimSpace(item.Title + " " + stripHTML(item.Description))
		link := item.Link
		domain := source.DomainFromURL(link)
		if domain == "" {
			domain = source.DomainFromURL(feedURL)
		}

		out = append(out, model.Mention{
			Text:            text,
			Source:          domain,
			Date:            published.Format(time.RFC3339),
			Link:            link,
			MentionedBrands: source.MatchBrands(text, brands),
			Authority:       authority.Score(domain),
			Reach:           authority.Reach(domain),
		})
	}
	return out
}

// stripHTML flattens feed summaries to plain text.
func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	node, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return strings.Join(strings.Fields(sb.String()), " ")
}
