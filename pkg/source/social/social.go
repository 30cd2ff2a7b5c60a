// Package social stands in for the social network integrations. Real
// FB/IG/Threads API access needs business verification, so each network is
// backed by a placeholder generator that produces plausible engagement data.
package social

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/flashnarrative/flashnarrative/pkg/model"
	"github.com/flashnarrative/flashnarrative/pkg/source"
)

var networks = []string{"fb", "ig", "threads"}

// Client generates placeholder mentions for the social networks.
type Client struct {
	rng *rand.Rand
}

func NewClient() *Client {
	return &Client{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewClientWithSeed pins the generator for reproducible output.
func NewClientWithSeed(seed int64) *Client {
	return &Client{rng: rand.New(rand.NewSource(seed))}
}

var _ source.Fetcher = (*Client)(nil)

func (c *Client) Name() string { return "social" }

// Fetch implements source.Fetcher.
func (c *Client) Fetch(_ context.Context, req *source.Request) ([]model.Mention, error) {
	var mentions []model.Mention
	for _, network := range networks {
		mentions = append(mentions, c.generate(req, network)...)
	}
	return mentions, nil
}

// generate emits 5-15 mentions for one network, spread across the window.
func (c *Client) generate(req *source.Request, network string) []model.Mention {
	brands := req.Brands()
	count := 5 + c.rng.Intn(11)

	out := make([]model.Mention, 0, count)
	for i := 0; i < count; i++ {
		mentioned := brands[c.rng.Intn(len(brands))]
		age := time.Duration(1+c.rng.Intn(req.Hours)) * time.Hour
		out = append(out, model.Mention{
			Text:            fmt.Sprintf("Placeholder mention of %s in %s.", mentioned, network),
			Source:          fmt.Sprintf("dummy.%s.com", network),
			Date:            time.Now().Add(-age).Format(time.RFC3339),
			MentionedBrands: []string{mentioned},
			Authority:       1 + c.rng.Intn(10),
			Reach:           1000 + c.rng.Intn(99001),
			Likes:           10 + c.rng.Intn(991),
			Comments:        1 + c.rng.Intn(100),
		})
	}
	return out
}
