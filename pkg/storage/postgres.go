// Package storage persists runs, mentions and KPI snapshots in PostgreSQL.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "github.com/lib/pq"

	"github.com/flashnarrative/flashnarrative/pkg/config"
	"github.com/flashnarrative/flashnarrative/pkg/model"
)

type Storage struct {
	db *sql.DB
}

func NewStorage(cfg config.DBConfig) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			brand TEXT NOT NULL,
			industry TEXT,
			hours INTEGER,
			competitors TEXT,
			campaign_messages TEXT,
			status TEXT,
			error TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS mentions (
			id SERIAL PRIMARY KEY,
			run_id TEXT REFERENCES runs(id),
			text TEXT,
			source TEXT,
			date TEXT,
			link TEXT,
			mentioned_brands TEXT,
			authority INTEGER,
			reach INTEGER,
			likes INTEGER,
			comments INTEGER,
			sentiment TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS kpi_snapshots (
			id SERIAL PRIMARY KEY,
			run_id TEXT REFERENCES runs(id),
			mis INTEGER,
			mpi DOUBLE PRECISION,
			engagement_rate DOUBLE PRECISION,
			reach INTEGER,
			total_mentions INTEGER,
			sentiment_ratio TEXT,
			sov TEXT,
			all_brands TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS keywords (
			id SERIAL PRIMARY KEY,
			run_id TEXT REFERENCES runs(id),
			phrase TEXT,
			count INTEGER
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}

	return nil
}

// CreateUser inserts a user with an already-hashed password.
func (s *Storage) CreateUser(username, passwordHash string) error {
	_, err := s.db.Exec(`INSERT INTO users (username, password_hash) VALUES ($1, $2)`,
		username, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserPasswordHash returns the stored hash for a username.
func (s *Storage) GetUserPasswordHash(username string) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT password_hash FROM users WHERE username = $1`, username).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("user not found: %s", username)
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

// CreateRun records a freshly started run.
func (s *Storage) CreateRun(run *model.Run) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, brand, industry, hours, competitors, campaign_messages, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.Brief.Brand, run.Brief.Industry, run.Brief.Hours,
		strings.Join(run.Brief.Competitors, ","),
		strings.Join(run.Brief.CampaignMessages, ","),
		run.Status)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// FinishRun stores the run outcome together with its mentions, snapshot and
// keywords in one transaction.
func (s *Storage) FinishRun(run *model.Run) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`UPDATE runs SET status = $1, error = $2 WHERE id = $3`,
		run.Status, run.Error, run.ID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	for _, m := range run.Mentions {
		_, err = tx.Exec(`
			INSERT INTO mentions (run_id, text, source, date, link, mentioned_brands,
				authority, reach, likes, comments, sentiment)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			run.ID, sanitizeText(m.Text), m.Source, m.Date, m.Link,
			strings.Join(m.MentionedBrands, ","),
			m.Authority, m.Reach, m.Likes, m.Comments, m.Sentiment)
		if err != nil {
			return fmt.Errorf("failed to insert mention: %w", err)
		}
	}

	if run.KPIs != nil {
		ratioJSON, err := json.Marshal(run.KPIs.SentimentRatio)
		if err != nil {
			return fmt.Errorf("failed to marshal sentiment ratio: %w", err)
		}
		sovJSON, err := json.Marshal(run.KPIs.SOV)
		if err != nil {
			return fmt.Errorf("failed to marshal sov: %w", err)
		}

		_, err = tx.Exec(`
			INSERT INTO kpi_snapshots (run_id, mis, mpi, engagement_rate, reach,
				total_mentions, sentiment_ratio, sov, all_brands)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			run.ID, run.KPIs.MIS, run.KPIs.MPI, run.KPIs.EngagementRate,
			run.KPIs.Reach, run.KPIs.TotalMentions,
			string(ratioJSON), string(sovJSON),
			strings.Join(run.KPIs.AllBrands, ","))
		if err != nil {
			return fmt.Errorf("failed to insert kpi snapshot: %w", err)
		}
	}

	for _, kw := range run.Keywords {
		_, err = tx.Exec(`INSERT INTO keywords (run_id, phrase, count) VALUES ($1, $2, $3)`,
			run.ID, kw.Phrase, kw.Count)
		if err != nil {
			return fmt.Errorf("failed to insert keyword: %w", err)
		}
	}

	return tx.Commit()
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	ID            string  `json:"id"`
	Brand         string  `json:"brand"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
	TotalMentions int     `json:"total_mentions"`
	NegativeShare float64 `json:"negative_share"`
}

// ListRuns returns a page of run summaries, newest first, and the total count.
func (s *Storage) ListRuns(page, pageSize int) ([]RunSummary, int, error) {
	offset := (page - 1) * pageSize

	rows, err := s.db.Query(`
		SELECT r.id, r.brand, r.status, r.created_at,
			COALESCE(k.total_mentions, 0), COALESCE(k.sentiment_ratio, '{}')
		FROM runs r
		LEFT JOIN kpi_snapshots k ON k.run_id = r.id
		ORDER BY r.created_at DESC
		LIMIT $1 OFFSET $2`, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var sm RunSummary
		var ratioJSON string
		if err := rows.Scan(&sm.ID, &sm.Brand, &sm.Status, &sm.CreatedAt,
			&sm.TotalMentions, &ratioJSON); err != nil {
			return nil, 0, err
		}
		var ratio map[string]float64
		if err := json.Unmarshal([]byte(ratioJSON), &ratio); err == nil {
			sm.NegativeShare = ratio[model.SentimentNegative] + ratio[model.SentimentAnger]
		}
		summaries = append(summaries, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

// GetRun loads a full run with mentions, snapshot and keywords.
func (s *Storage) GetRun(id string) (*model.Run, error) {
	run := &model.Run{ID: id}
	var competitors, campaignMessages string
	err := s.db.QueryRow(`
		SELECT brand, industry, hours, COALESCE(competitors, ''),
			COALESCE(campaign_messages, ''), status, COALESCE(error, ''), created_at
		FROM runs WHERE id = $1`, id).Scan(
		&run.Brief.Brand, &run.Brief.Industry, &run.Brief.Hours,
		&competitors, &campaignMessages, &run.Status, &run.Error, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	run.Brief.Competitors = splitList(competitors)
	run.Brief.CampaignMessages = splitList(campaignMessages)

	if err := s.loadSnapshot(run); err != nil {
		return nil, err
	}
	if err := s.loadMentions(run); err != nil {
		return nil, err
	}
	if err := s.loadKeywords(run); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *Storage) loadSnapshot(run *model.Run) error {
	var snap model.KPISnapshot
	var ratioJSON, sovJSON, allBrands string
	err := s.db.QueryRow(`
		SELECT mis, mpi, engagement_rate, reach, total_mentions,
			sentiment_ratio, sov, COALESCE(all_brands, '')
		FROM kpi_snapshots WHERE run_id = $1`, run.ID).Scan(
		&snap.MIS, &snap.MPI, &snap.EngagementRate, &snap.Reach,
		&snap.TotalMentions, &ratioJSON, &sovJSON, &allBrands)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(ratioJSON), &snap.SentimentRatio); err != nil {
		return fmt.Errorf("failed to unmarshal sentiment ratio: %w", err)
	}
	if err := json.Unmarshal([]byte(sovJSON), &snap.SOV); err != nil {
		return fmt.Errorf("failed to unmarshal sov: %w", err)
	}
	snap.AllBrands = splitList(allBrands)
	run.KPIs = &snap
	return nil
}

func (s *Storage) loadMentions(run *model.Run) error {
	rows, err := s.db.Query(`
		SELECT text, source, date, link, COALESCE(mentioned_brands, ''),
			authority, reach, likes, comments, COALESCE(sentiment, '')
		FROM mentions WHERE run_id = $1 ORDER BY id`, run.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m model.Mention
		var brands string
		if err := rows.Scan(&m.Text, &m.Source, &m.Date, &m.Link, &brands,
			&m.Authority, &m.Reach, &m.Likes, &m.Comments, &m.Sentiment); err != nil {
			return err
		}
		m.MentionedBrands = splitList(brands)
		run.Mentions = append(run.Mentions, m)
	}
	return rows.Err()
}

func (s *Storage) loadKeywords(run *model.Run) error {
	rows, err := s.db.Query(`
		SELECT phrase, count FROM keywords WHERE run_id = $1 ORDER BY count DESC, phrase`, run.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var kw model.Keyword
		if err := rows.Scan(&kw.Phrase, &kw.Count); err != nil {
			return err
		}
		run.Keywords = append(run.Keywords, kw)
	}
	return rows.Err()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// sanitizeText drops invalid UTF-8 and NUL bytes; postgres text columns
// reject both.
func sanitizeText(content string) string {
	if !utf8.ValidString(content) {
		v := make([]rune, 0, len(content))
		for _, r := range content {
			if r == utf8.RuneError {
				continue
			}
			v = append(v, r)
		}
		content = string(v)
	}
	return strings.ReplaceAll(content, "\x00", "")
}
