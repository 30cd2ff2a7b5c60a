// Package source defines the mention fetcher interface shared by all
// upstream integrations.
package source

import (
	"context"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/flashnarrative/flashnarrative/pkg/model"
)

// Fetcher pulls brand mentions from one upstream source.
type Fetcher interface {
	// Name identifies the source in logs.
	Name() string
	Fetch(ctx context.Context, req *Request) ([]model.Mention, error)
}

// Request is the common fetch request.
type Request struct {
	Brand       string
	Competitors []string
	Industry    string
	Hours       int
}

// Brands returns the tracked brand list, primary first.
func (r *Request) Brands() []string {
	out := make([]string, 0, 1+len(r.Competitors))
	out = append(out, r.Brand)
	out = append(out, r.Competitors...)
	return out
}

// Cutoff is the oldest publication time still inside the window.
func (r *Request) Cutoff(now time.Time) time.Time {
	return now.Add(-time.Duration(r.Hours) * time.Hour)
}

// MatchBrands returns the tracked brands named in text, case-insensitively.
func MatchBrands(text string, brands []string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, b := range brands {
		if b != "" && strings.Contains(lower, strings.ToLower(b)) {
			out = append(out, b)
		}
	}
	return out
}

// DomainFromURL extracts a bare hostname: scheme and path stripped, leading
// "www." removed. Returns the input unchanged when it does not look like a URL.
func DomainFromURL(raw string) string {
	if raw == "" {
		return raw
	}
	s := raw
	if i := strings.Index(s, "//"); i >= 0 {
		s = s[i+2:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.ToLower(s)
	return strings.TrimPrefix(s, "www.")
}

// ParseDate parses a date string leniently. The zero time and false are
// returned when the value is empty or unparseable.
func ParseDate(raw string) (time.Time, bool) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
