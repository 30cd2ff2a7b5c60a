package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/go-kratos/kratos/v2"
	"github.com/robfig/cron/v3"

	"github.com/flashnarrative/flashnarrative/pkg/alert"
	"github.com/flashnarrative/flashnarrative/pkg/config"
	"github.com/flashnarrative/flashnarrative/pkg/engine"
	"github.com/flashnarrative/flashnarrative/pkg/llm"
	"github.com/flashnarrative/flashnarrative/pkg/logger"
	"github.com/flashnarrative/flashnarrative/pkg/report"
	"github.com/flashnarrative/flashnarrative/pkg/sentiment"
	"github.com/flashnarrative/flashnarrative/pkg/server"
	"github.com/flashnarrative/flashnarrative/pkg/source/factory"
	"github.com/flashnarrative/flashnarrative/pkg/storage"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	Name    = "flash-narrative"
	Version string

	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	logger.Log.Infof("starting %s %s", Name, Version)

	ctx := context.Background()

	var store *storage.Storage
	if cfg.DB.Host != "" {
		s, err := storage.NewStorage(cfg.DB)
		if err != nil {
			logger.Log.Errorf("database unavailable, runs will not be persisted: %v", err)
		} else {
			store = s
			defer store.Close()
			logger.Log.Info("connected to database")
		}
	} else {
		logger.Log.Info("no database configured, skipping persistence")
	}

	chain, err := llm.NewChain(ctx, cfg.LLM, cfg.Concurrency)
	if err != nil {
		logger.Log.Warnf("llm unavailable, keyword sentiment rules only: %v", err)
		chain = nil
	}
	// A nil *Chain must stay a nil interface for the fallback checks to work.
	var classifierGen sentiment.Generator
	var reportGen report.Generator
	if chain != nil {
		classifierGen = chain
		reportGen = chain
	}
	classifier := sentiment.NewClassifier(classifierGen, cfg.Concurrency.Workers)

	fetchers, err := factory.NewSet(cfg)
	if err != nil {
		logger.Log.Fatalf("no mention sources configured: %v", err)
	}

	alerter := alert.New(cfg.Alert)

	var engineStore engine.Store
	if store != nil {
		engineStore = store
	}
	eng := engine.New(cfg, engineStore, fetchers, classifier, alerter)

	reports := report.NewBuilder(reportGen)
	svc := server.NewService(cfg, eng, store, reports)
	httpSrv := server.NewHTTPServer(cfg, svc)

	if cfg.Monitor.Schedule != "" {
		c := cron.New()
		brief := cfg.Monitor.Brief
		_, err := c.AddFunc(cfg.Monitor.Schedule, func() {
			runID, err := eng.StartRun(brief)
			if err != nil {
				logger.Log.Errorf("scheduled run failed to start: %v", err)
				return
			}
			logger.Log.Infof("scheduled run started [%s] for brand [%s]", runID, brief.Brand)
		})
		if err != nil {
			logger.Log.Fatalf("invalid monitor schedule %q: %v", cfg.Monitor.Schedule, err)
		}
		c.Start()
		defer c.Stop()
		logger.Log.Infof("scheduled monitoring enabled: %s", cfg.Monitor.Schedule)
	}

	app := kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Server(httpSrv),
	)
	if err := app.Run(); err != nil {
		logger.Log.Fatalf("server exited: %v", err)
	}
}
