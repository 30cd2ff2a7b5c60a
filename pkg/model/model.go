package model

// Sentiment labels assigned to mentions. Anything else collapses to neutral.
const (
	SentimentPositive     = "positive"
	SentimentNegative     = "negative"
	SentimentNeutral      = "neutral"
	SentimentMixed        = "mixed"
	SentimentAnger        = "anger"
	SentimentAppreciation = "appreciation"
)

// ValidSentiments lists every label the classifier may emit.
var ValidSentiments = []string{
	SentimentPositive,
	SentimentNegative,
	SentimentNeutral,
	SentimentMixed,
	SentimentAnger,
	SentimentAppreciation,
}

// IsValidSentiment reports whether s is a known label.
func IsValidSentiment(s string) bool {
	for _, v := range ValidSentiments {
		if s == v {
			return true
		}
	}
	return false
}

// Brief describes one monitoring request: what to track and over which window.
type Brief struct {
	Brand            string   `json:"brand" yaml:"brand"`
	Competitors      []string `json:"competitors" yaml:"competitors"`
	Industry         string   `json:"industry" yaml:"industry"`
	CampaignMessages []string `json:"campaign_messages" yaml:"campaign_messages"`
	Hours            int      `json:"hours" yaml:"hours"`
}

// Normalize clamps the lookback window and trims empty list entries.
func (b *Brief) Normalize() {
	if b.Hours < 1 {
		b.Hours = 24
	}
	if b.Hours > 168 {
		b.Hours = 168
	}
	b.Competitors = trimList(b.Competitors)
	b.CampaignMessages = trimList(b.CampaignMessages)
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Mention is one brand mention pulled from any source.
type Mention struct {
	Text            string   `json:"text"`
	Source          string   `json:"source"`
	Date            string   `json:"date"` // ISO 8601, may be empty or unparseable
	Link            string   `json:"link"`
	MentionedBrands []string `json:"mentioned_brands"`
	Authority       int      `json:"authority"`
	Reach           int      `json:"reach"`
	Likes           int      `json:"likes"`
	Comments        int      `json:"comments"`
	Sentiment       string   `json:"sentiment"`
}

// SOVEntry is one row of the share-of-voice table.
type SOVEntry struct {
	Brand   string  `json:"brand"`
	Percent float64 `json:"percent"`
}

// KPISnapshot is the aggregate of one run.
type KPISnapshot struct {
	SentimentRatio map[string]float64 `json:"sentiment_ratio"`
	SOV            []SOVEntry         `json:"sov"`
	MIS            int                `json:"mis"`
	MPI            float64            `json:"mpi"`
	EngagementRate float64            `json:"engagement_rate"`
	Reach          int                `json:"reach"`
	AllBrands      []string           `json:"all_brands"`
	TotalMentions  int                `json:"total_mentions"`
}

// NegativeShare is the combined negative + anger percentage, used by alerting.
func (k *KPISnapshot) NegativeShare() float64 {
	return k.SentimentRatio[SentimentNegative] + k.SentimentRatio[SentimentAnger]
}

// Keyword is a scored keyword or two-word phrase.
type Keyword struct {
	Phrase string `json:"phrase"`
	Count  int    `json:"count"`
}

// Run states reported through the progress API.
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is one monitoring pass over a Brief.
type Run struct {
	ID        string      `json:"id"`
	Brief     Brief       `json:"brief"`
	Status    string      `json:"status"`
	Progress  int         `json:"progress"`
	Stage     string      `json:"stage"`
	Error     string      `json:"error,omitempty"`
	CreatedAt string      `json:"created_at"`
	KPIs      *KPISnapshot `json:"kpis,omitempty"`
	Keywords  []Keyword   `json:"keywords,omitempty"`
	Mentions  []Mention   `json:"mentions,omitempty"`
}
