// Package server exposes the monitoring engine over HTTP with JWT-guarded
// endpoints for briefs, run status, the dashboard and report downloads.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/flashnarrative/flashnarrative/pkg/config"
	"github.com/flashnarrative/flashnarrative/pkg/engine"
	"github.com/flashnarrative/flashnarrative/pkg/model"
	"github.com/flashnarrative/flashnarrative/pkg/report"
	"github.com/flashnarrative/flashnarrative/pkg/storage"
)

// Service backs the HTTP handlers: user auth, run control and report export.
type Service struct {
	eng      *engine.Engine
	store    *storage.Storage
	reports  *report.Builder
	jwtKey   string
	emailCfg config.EmailConfig
}

// NewService wires the service. store may be nil when running without a
// database; auth endpoints then reject all requests.
func NewService(cfg *config.Config, eng *engine.Engine, store *storage.Storage, reports *report.Builder) *Service {
	return &Service{
		eng:      eng,
		store:    store,
		reports:  reports,
		jwtKey:   cfg.Auth.JWTKey,
		emailCfg: cfg.Alert.Email,
	}
}

// Register creates a user with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, username, password string) error {
	if username == "" || len(password) < 6 {
		return errors.BadRequest("INVALID_CREDENTIALS", "username required and password must be at least 6 characters")
	}
	if s.store == nil {
		return errors.InternalServer("NO_STORAGE", "user storage is not configured")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.CreateUser(username, string(hashed))
}

// Login verifies the password and issues a 24h HS256 token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if s.store == nil {
		return "", errors.InternalServer("NO_STORAGE", "user storage is not configured")
	}
	hash, err := s.store.GetUserPasswordHash(username)
	if err != nil {
		return "", errors.Unauthorized("AUTH_FAILED", "unknown user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", errors.Unauthorized("AUTH_FAILED", "invalid password")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(s.jwtKey))
}

// StartRun validates the brief and launches a run.
func (s *Service) StartRun(ctx context.Context, brief model.Brief) (string, error) {
	id, err := s.eng.StartRun(brief)
	if err != nil {
		return "", errors.BadRequest("INVALID_BRIEF", err.Error())
	}
	return id, nil
}

// RunStatus reports in-flight progress, falling back to storage for runs that
// predate this process.
func (s *Service) RunStatus(ctx context.Context, id string) (*model.Run, error) {
	if run := s.eng.RunStatus(id); run != nil {
		return run, nil
	}
	if s.store != nil {
		if run, err := s.store.GetRun(id); err == nil {
			return run, nil
		}
	}
	return nil, errors.NotFound("RUN_NOT_FOUND", fmt.Sprintf("no run with id %s", id))
}

// GetRun returns the full result of a run including mentions and KPIs.
func (s *Service) GetRun(ctx context.Context, id string) (*model.Run, error) {
	if run := s.eng.RunStatus(id); run != nil && run.Status == model.RunStatusCompleted {
		return run, nil
	}
	if s.store != nil {
		if run, err := s.store.GetRun(id); err == nil {
			return run, nil
		}
	}
	return nil, errors.NotFound("RUN_NOT_FOUND", fmt.Sprintf("no run with id %s", id))
}

// ListRuns pages through past runs, newest first.
func (s *Service) ListRuns(ctx context.Context, page, pageSize int) ([]storage.RunSummary, int, error) {
	if s.store == nil {
		return nil, 0, nil
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return s.store.ListRuns(page, pageSize)
}

// completedRun loads a run and checks it finished successfully.
func (s *Service) completedRun(ctx context.Context, id string) (*model.Run, error) {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.Status != model.RunStatusCompleted {
		return nil, errors.BadRequest("RUN_NOT_COMPLETED", fmt.Sprintf("run %s is %s", id, run.Status))
	}
	return run, nil
}

// ReportMarkdown renders the markdown report for a completed run.
func (s *Service) ReportMarkdown(ctx context.Context, id string) (string, error) {
	run, err := s.completedRun(ctx, id)
	if err != nil {
		return "", err
	}
	summary := s.reports.Summary(ctx, run)
	return s.reports.Markdown(run, summary), nil
}

// ReportPDF renders the PDF report for a completed run.
func (s *Service) ReportPDF(ctx context.Context, id string) ([]byte, error) {
	run, err := s.completedRun(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := s.reports.Summary(ctx, run)
	return s.reports.PDF(run, summary)
}

// ReportExcel renders the xlsx export for a completed run.
func (s *Service) ReportExcel(ctx context.Context, id string) ([]byte, error) {
	run, err := s.completedRun(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.reports.Excel(run)
}

// EmailReport mails the PDF and spreadsheet exports for a completed run. An
// empty recipient falls back to the configured alert address.
func (s *Service) EmailReport(ctx context.Context, id, to string) error {
	run, err := s.completedRun(ctx, id)
	if err != nil {
		return err
	}
	if to == "" {
		to = s.emailCfg.To
	}

	summary := s.reports.Summary(ctx, run)
	pdf, err := s.reports.PDF(run, summary)
	if err != nil {
		return err
	}
	xlsx, err := s.reports.Excel(run)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Flash Narrative report for %s", run.Brief.Brand)
	body := s.reports.Markdown(run, summary)
	err = report.SendEmail(s.emailCfg, to, subject, body, []report.Attachment{
		{Filename: fmt.Sprintf("flash-narrative-%s.pdf", id), Content: pdf, MIMEType: "application/pdf"},
		{Filename: fmt.Sprintf("flash-narrative-%s.xlsx", id), Content: xlsx,
			MIMEType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	})
	if err != nil {
		return errors.InternalServer("EMAIL_FAILED", err.Error())
	}
	return nil
}
