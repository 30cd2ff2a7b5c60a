// Package authority maps source domains to editorial authority scores and
// estimated audience reach.
package authority

const (
	defaultAuthority = 5
	defaultReach     = 10000
)

var authorityByDomain = map[string]int{
	"nytimes.com":        10,
	"washingtonpost.com": 9,
	"cnn.com":            8,
	"bbc.com":            9,
	"bbc.co.uk":          9,
	"reuters.com":        9,
	"techcrunch.com":     7,
	"theverge.com":       7,
	"wired.com":          7,
	"bloomberg.com":      8,
	"ft.com":             8,
	"cnbc.com":           7,
	"forbes.com":         7,
}

var reachByDomain = map[string]int{
	"nytimes.com":        1000000,
	"washingtonpost.com": 800000,
	"cnn.com":            700000,
	"bbc.com":            900000,
	"bbc.co.uk":          900000,
	"reuters.com":        600000,
	"techcrunch.com":     200000,
	"theverge.com":       180000,
	"bloomberg.com":      500000,
	"ft.com":             400000,
	"cnbc.com":           350000,
}

// Score returns the authority weight for a domain, defaulting to 5.
func Score(domain string) int {
	if a, ok := authorityByDomain[domain]; ok {
		return a
	}
	return defaultAuthority
}

// Reach returns the estimated audience for a domain, defaulting to 10000.
func Reach(domain string) int {
	if r, ok := reachByDomain[domain]; ok {
		return r
	}
	return defaultReach
}
