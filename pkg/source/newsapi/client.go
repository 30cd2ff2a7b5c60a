// Package newsapi implements the primary news fetcher against the NewsAPI
// /v2/everything endpoint.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flashnarrative/flashnarrative/pkg/authority"
	"github.com/flashnarrative/flashnarrative/pkg/logger"
	"github.com/flashnarrative/flashnarrative/pkg/model"
	"github.com/flashnarrative/flashnarrative/pkg/source"
)

const defaultBaseURL = "https://newsapi.org/v2/everything"

// Client queries NewsAPI with key rotation: keys are tried in order and a key
// that is rejected or rate limited is skipped for the request.
type Client struct {
	apiKeys []string
	baseURL string
	client  *http.Client
}

// NewClient creates a NewsAPI client. timeout bounds each HTTP request.
func NewClient(apiKeys []string, timeout time.Duration) *Client {
	return &Client{
		apiKeys: apiKeys,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

var _ source.Fetcher = (*Client)(nil)

func (c *Client) Name() string { return "newsapi" }

type apiResponse struct {
	Status   string       `json:"status"`
	Articles []apiArticle `json:"articles"`
	Message  string       `json:"message"`
}

type apiArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

// Fetch implements source.Fetcher.
func (c *Client) Fetch(ctx context.Context, req *source.Request) ([]model.Mention, error) {
	if len(c.apiKeys) == 0 {
		return nil, fmt.Errorf("newsapi: no api keys configured")
	}

	now := time.Now().UTC()
	from := req.Cutoff(now)

	terms := make([]string, 0, len(req.Brands()))
	for _, b := range req.Brands() {
		if b != "" {
			terms = append(terms, fmt.Sprintf("%q", b))
		}
	}

	params := url.Values{}
	params.Set("q", strings.Join(terms, " OR "))
	params.Set("from", from.Format("2006-01-02T15:04:05Z"))
	params.Set("to", now.Format("2006-01-02T15:04:05Z"))
	params.Set("language", "en")
	params.Set("pageSize", "100")
	params.Set("sortBy", "publishedAt")

	var lastErr error
	for _, key := range c.apiKeys {
		resp, err := c.doRequest(ctx, params, key)
		if err != nil {
			logger.Log.Warnf("newsapi key rotation: %v", err)
			lastErr = err
			continue
		}
		return c.toMentions(resp, req, from), nil
	}
	return nil, fmt.Errorf("newsapi: all keys failed: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, params url.Values, key string) (*apiResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Authorization", key)

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi error (status %d): %s", res.StatusCode, string(body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}
	if apiResp.Status != "ok" {
		return nil, fmt.Errorf("newsapi error: %s", apiResp.Message)
	}
	return &apiResp, nil
}

func (c *Client) toMentions(resp *apiResponse, req *source.Request, from time.Time) []model.Mention {
	brands := req.Brands()
	var mentions []model.Mention
	for _, art := range resp.Articles {
		published, ok := source.ParseDate(art.PublishedAt)
		if !ok {
			continue
		}
		// Strict hour check on top of the API-side window.
		if published.Before(from) {
			continue
		}

		domain := source.DomainFromURL(art.URL)
		if domain == "" {
			domain = source.DomainFromURL(art.Source.Name)
		}
		text := strings.TrimSpace(art.Title + " " + art.Description)

		mentions = append(mentions, model.Mention{
			Text:            text,
			Source:          domain,
			Date:            published.Format(time.RFC3339),
			Link:            art.URL,
			MentionedBrands: source.MatchBrands(text, brands),
			Authority:       authority.Score(domain),
			Reach:           authority.Reach(domain),
		})
	}
	return mentions
}
