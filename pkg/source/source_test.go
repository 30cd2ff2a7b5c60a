package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMatchBrands(t *testing.T) {
	brands := []string{"Acme", "Rival Corp"}
	assert.Equal(t, []string{"Acme"}, MatchBrands("ACME posts record numbers", brands))
	assert.Equal(t, []string{"Acme", "Rival Corp"}, MatchBrands("acme vs rival corp, a comparison", brands))
	assert.Nil(t, MatchBrands("unrelated news", brands))
	assert.Nil(t, MatchBrands("", nil))
}

func TestDomainFromURL(t *testing.T) {
	cases := map[string]string{
		"https://www.reuters.com/markets/article": "reuters.com",
		"http://bbc.com":                          "bbc.com",
		"https://news.example.org/a?b=c":          "news.example.org",
		"reuters.com":                             "reuters.com",
		"":                                        "",
	}
	for in, want := range cases {
		if got := DomainFromURL(in); got != want {
			t.Errorf("DomainFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseDate(t *testing.T) {
	ts, ok := ParseDate("2026-03-01T10:30:00Z")
	assert.True(t, ok)
	assert.Equal(t, 2026, ts.Year())

	// Non-ISO formats are accepted too.
	_, ok = ParseDate("Mon, 02 Jan 2006 15:04:05 MST")
	assert.True(t, ok)

	_, ok = ParseDate("")
	assert.False(t, ok)
	_, ok = ParseDate("not a date")
	assert.False(t, ok)
}

func TestRequestHelpers(t *testing.T) {
	req := &Request{Brand: "Acme", Competitors: []string{"Rival"}, Hours: 24}
	assert.Equal(t, []string{"Acme", "Rival"}, req.Brands())

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(-24*time.Hour), req.Cutoff(now))
}
