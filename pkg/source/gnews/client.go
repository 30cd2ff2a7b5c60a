// Package gnews scrapes Google News search results as a last-resort fetcher
// when the API-backed sources come up short.
package gnews

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/flashnarrative/flashnarrative/pkg/authority"
	"github.com/flashnarrative/flashnarrative/pkg/model"
	"github.com/flashnarrative/flashnarrative/pkg/source"
)

const defaultBaseURL = "https://www.google.com/search"

// Result markup shifts regularly; both selectors are tried.
var resultSelectors = []string{"div.dbsr", "g-card"}

// Client scrapes the news vertical of Google search.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

var _ source.Fetcher = (*Client)(nil)

func (c *Client) Name() string { return "gnews" }

// Fetch implements source.Fetcher. Only items that actually name a tracked
// brand are kept; result dates are best-effort "now" because the HTML rarely
// carries machine-readable timestamps.
func (c *Client) Fetch(ctx context.Context, req *source.Request) ([]model.Mention, error) {
	query := req.Brand
	if len(req.Competitors) > 0 {
		query = req.Brand + " OR " + strings.Join(req.Competitors, " OR ")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("tbm", "nws")
	params.Set("hl", "en")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google news error (status %d)", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html failed: %w", err)
	}
	return Extract(doc, req.Brands()), nil
}

// Extract pulls mentions out of a parsed results page.
func Extract(doc *goquery.Document, brands []string) []model.Mention {
	var sel *goquery.Selection
	for _, s := range resultSelectors {
		sel = doc.Find(s)
		if sel.Length() > 0 {
			break
		}
	}
	if sel == nil {
		return nil
	}

	now := time.Now().Format(time.RFC3339)
	var mentions []model.Mention
	sel.Each(func(_ int, el *goquery.Selection) {
		link, _ := el.Find("a").First().Attr("href")
		title := strings.TrimSpace(strings.Join(strings.Fields(el.Text()), " "))
		if title == "" {
			return
		}

		matched := source.MatchBrands(title, brands)
		if len(matched) == 0 {
			return
		}

		domain := source.DomainFromURL(link)
		if domain == "" {
			domain = "news.google"
		}
		mentions = append(mentions, model.Mention{
			Text:            title,
			Source:          domain,
			Date:            now,
			Link:            link,
			MentionedBrands: matched,
			Authority:       authority.Score(domain),
			Reach:           authority.Reach(domain),
		})
	})
	return mentions
}
