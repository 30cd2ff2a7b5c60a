package factory

import (
	"fmt"
	"time"

	"github.com/flashnarrative/flashnarrative/pkg/config"
	"github.com/flashnarrative/flashnarrative/pkg/source"
	"github.com/flashnarrative/flashnarrative/pkg/source/gnews"
	"github.com/flashnarrative/flashnarrative/pkg/source/newsapi"
	"github.com/flashnarrative/flashnarrative/pkg/source/rss"
	"github.com/flashnarrative/flashnarrative/pkg/source/social"
)

// Set is the fetcher lineup for a deployment. Primary fetchers always run;
// Fallback runs only when the primary yield is thin.
type Set struct {
	Primary  []source.Fetcher
	Fallback source.Fetcher
}

// NewSet builds the fetcher set from config.
func NewSet(cfg *config.Config) (*Set, error) {
	timeout := time.Duration(cfg.Sources.FetchTimeout) * time.Second

	set := &Set{}
	if len(cfg.Sources.NewsAPIKeys) > 0 {
		set.Primary = append(set.Primary, newsapi.NewClient(cfg.Sources.NewsAPIKeys, timeout))
	}
	if cfg.Sources.EnableRSS {
		set.Primary = append(set.Primary, rss.NewClient(timeout))
	}
	if cfg.Sources.EnableSocial {
		set.Primary = append(set.Primary, social.NewClient())
	}
	if cfg.Sources.EnableGNews {
		set.Fallback = gnews.NewClient(timeout)
	}

	if len(set.Primary) == 0 && set.Fallback == nil {
		return nil, fmt.Errorf("no mention sources configured")
	}
	return set, nil
}
