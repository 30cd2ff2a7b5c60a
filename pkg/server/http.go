package server

import (
	"context"
	"embed"
	"fmt"
	nethttp "net/http"
	"strconv"
	"time"

	kratosjwt "github.com/go-kratos/kratos/v2/middleware/auth/jwt"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/middleware/selector"
	"github.com/go-kratos/kratos/v2/transport/http"
	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/flashnarrative/flashnarrative/pkg/config"
	"github.com/flashnarrative/flashnarrative/pkg/model"
	"github.com/flashnarrative/flashnarrative/pkg/report"
	"github.com/flashnarrative/flashnarrative/pkg/storage"
)

//go:embed assets/*
var assets embed.FS

// Operations used for middleware routing. Login and register stay open, the
// rest require a valid token.
const (
	opRegister   = "/api/register"
	opLogin      = "/api/login"
	opStartRun   = "/api/runs/start"
	opListRuns   = "/api/runs/list"
	opGetRun     = "/api/runs/get"
	opRunStatus  = "/api/runs/status"
	opEmail      = "/api/runs/email"
	opReportMD   = "/api/runs/report/md"
	opReportPDF  = "/api/runs/report/pdf"
	opReportXLSX = "/api/runs/report/xlsx"
)

// NewHTTPServer builds the kratos HTTP server with recovery and JWT auth.
func NewHTTPServer(cfg *config.Config, svc *Service) *http.Server {
	authMiddleware := selector.Server(
		kratosjwt.Server(func(token *jwtv5.Token) (interface{}, error) {
			return []byte(cfg.Auth.JWTKey), nil
		}, kratosjwt.WithSigningMethod(jwtv5.SigningMethodHS256)),
	).Match(func(ctx context.Context, operation string) bool {
		return operation != opLogin && operation != opRegister
	}).Build()

	opts := []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			authMiddleware,
		),
	}
	if cfg.Server.Addr != "" {
		opts = append(opts, http.Address(cfg.Server.Addr))
	}
	if cfg.Server.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Server.Timeout); err == nil {
			opts = append(opts, http.Timeout(d))
		}
	}

	srv := http.NewServer(opts...)
	h := &handler{svc: svc}

	r := srv.Route("/api")
	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.POST("/runs", h.startRun)
	r.GET("/runs", h.listRuns)
	r.GET("/runs/{id}", h.getRun)
	r.GET("/runs/{id}/status", h.runStatus)
	r.GET("/runs/{id}/report.md", h.reportMarkdown)
	r.GET("/runs/{id}/report.pdf", h.reportPDF)
	r.GET("/runs/{id}/report.xlsx", h.reportExcel)
	r.POST("/runs/{id}/email", h.emailReport)

	srv.HandleFunc("/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/" {
			nethttp.NotFound(w, r)
			return
		}
		content, _ := assets.ReadFile("assets/index.html")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(content)
	})
	srv.HandleFunc("/dashboard", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		content, _ := assets.ReadFile("assets/dashboard.html")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(content)
	})

	return srv
}

type handler struct {
	svc *Service
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type statusReply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type loginReply struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type startRunReply struct {
	RunID string `json:"run_id"`
}

type runDetailReply struct {
	*model.Run
	Recommendations []string `json:"recommendations"`
}

type emailReportRequest struct {
	To string `json:"to"`
}

type listRunsReply struct {
	Runs  []storage.RunSummary `json:"runs"`
	Total int                  `json:"total"`
}

func (h *handler) register(ctx http.Context) error {
	var req credentialsRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	http.SetOperation(ctx, opRegister)
	reply, err := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		if err := h.svc.Register(c, req.Username, req.Password); err != nil {
			return nil, err
		}
		return &statusReply{Success: true, Message: "registered"}, nil
	})(ctx, &req)
	if err != nil {
		return err
	}
	return ctx.Result(nethttp.StatusOK, reply)
}

func (h *handler) login(ctx http.Context) error {
	var req credentialsRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	http.SetOperation(ctx, opLogin)
	reply, err := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		token, err := h.svc.Login(c, req.Username, req.Password)
		if err != nil {
			return nil, err
		}
		return &loginReply{Token: token, Username: req.Username}, nil
	})(ctx, &req)
	if err != nil {
		return err
	}
	return ctx.Result(nethttp.StatusOK, reply)
}

func (h *handler) startRun(ctx http.Context) error {
	var brief model.Brief
	if err := ctx.Bind(&brief); err != nil {
		return err
	}
	http.SetOperation(ctx, opStartRun)
	reply, err := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		id, err := h.svc.StartRun(c, brief)
		if err != nil {
			return nil, err
		}
		return &startRunReply{RunID: id}, nil
	})(ctx, &brief)
	if err != nil {
		return err
	}
	return ctx.Result(nethttp.StatusOK, reply)
}

func (h *handler) listRuns(ctx http.Context) error {
	page, _ := strconv.Atoi(ctx.Query().Get("page"))
	pageSize, _ := strconv.Atoi(ctx.Query().Get("page_size"))
	http.SetOperation(ctx, opListRuns)
	reply, err := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		runs, total, err := h.svc.ListRuns(c, page, pageSize)
		if err != nil {
			return nil, err
		}
		return &listRunsReply{Runs: runs, Total: total}, nil
	})(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(nethttp.StatusOK, reply)
}

func (h *handler) getRun(ctx http.Context) error {
	id := ctx.Vars().Get("id")
	http.SetOperation(ctx, opGetRun)
	reply, err := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		run, err := h.svc.GetRun(c, id)
		if err != nil {
			return nil, err
		}
		return &runDetailReply{
			Run:             run,
			Recommendations: report.Recommendations(run.KPIs, run.Keywords),
		}, nil
	})(ctx, id)
	if err != nil {
		return err
	}
	return ctx.Result(nethttp.StatusOK, reply)
}

func (h *handler) runStatus(ctx http.Context) error {
	id := ctx.Vars().Get("id")
	http.SetOperation(ctx, opRunStatus)
	reply, err := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		run, err := h.svc.RunStatus(c, id)
		if err != nil {
			return nil, err
		}
		// Strip the heavy fields; the status endpoint is polled.
		return &model.Run{
			ID:        run.ID,
			Brief:     run.Brief,
			Status:    run.Status,
			Progress:  run.Progress,
			Stage:     run.Stage,
			Error:     run.Error,
			CreatedAt: run.CreatedAt,
		}, nil
	})(ctx, id)
	if err != nil {
		return err
	}
	return ctx.Result(nethttp.StatusOK, reply)
}

func (h *handler) emailReport(ctx http.Context) error {
	id := ctx.Vars().Get("id")
	// The body is optional; an absent recipient falls back to config.
	var req emailReportRequest
	_ = ctx.Bind(&req)
	http.SetOperation(ctx, opEmail)
	reply, err := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		if err := h.svc.EmailReport(c, id, req.To); err != nil {
			return nil, err
		}
		return &statusReply{Success: true, Message: "report sent"}, nil
	})(ctx, &req)
	if err != nil {
		return err
	}
	return ctx.Result(nethttp.StatusOK, reply)
}

func (h *handler) reportMarkdown(ctx http.Context) error {
	id := ctx.Vars().Get("id")
	http.SetOperation(ctx, opReportMD)
	reply, err := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		md, err := h.svc.ReportMarkdown(c, id)
		if err != nil {
			return nil, err
		}
		return []byte(md), nil
	})(ctx, id)
	if err != nil {
		return err
	}
	return ctx.Blob(nethttp.StatusOK, "text/markdown; charset=utf-8", reply.([]byte))
}

func (h *handler) reportPDF(ctx http.Context) error {
	id := ctx.Vars().Get("id")
	http.SetOperation(ctx, opReportPDF)
	reply, err := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return h.svc.ReportPDF(c, id)
	})(ctx, id)
	if err != nil {
		return err
	}
	ctx.Response().Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"flash-narrative-%s.pdf\"", id))
	return ctx.Blob(nethttp.StatusOK, "application/pdf", reply.([]byte))
}

func (h *handler) reportExcel(ctx http.Context) error {
	id := ctx.Vars().Get("id")
	http.SetOperation(ctx, opReportXLSX)
	reply, err := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return h.svc.ReportExcel(c, id)
	})(ctx, id)
	if err != nil {
		return err
	}
	ctx.Response().Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"flash-narrative-%s.xlsx\"", id))
	return ctx.Blob(nethttp.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", reply.([]byte))
}
