package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"domainintel/internal/application"
	appreports "domainintel/internal/application/reports"
	appscans "domainintel/internal/application/scans"
	"domainintel/internal/config"
	reportsdomain "domainintel/internal/domain/reports"
	scansdomain "domainintel/internal/domain/scans"
	aiopenai "domainintel/internal/infra/ai/openai"
	"domainintel/internal/infra/db/mysql"
	"domainintel/internal/infra/db/postgres"
	"domainintel/internal/infra/httpserver"
	"domainintel/internal/infra/prober"
	"domainintel/internal/infra/storage"
	"domainintel/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "config.yaml"
	}
	configPath := flag.String("config", defaultConfig, "path to config file")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, scanRepo, reportRepo, err := connectDatabase(ctx, cfg)
	if err != nil {
		log.Fatalf("connecting database: %v", err)
	}
	defer db.Close()

	var archive scansdomain.ArchiveStore
	if cfg.Minio.Endpoint != "" {
		store, err := storage.New(ctx,
			cfg.Minio.Endpoint, cfg.Minio.Region, cfg.Minio.Bucket,
			cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Warnf("object storage unavailable, archival disabled: %v", err)
		} else {
			archive = store
		}
	}

	clock := application.SystemClock{}

	scanSvc := &appscans.Service{
		Repo:     scanRepo,
		Prober:   prober.New(cfg.Scanner.BaseURL, time.Duration(cfg.Scanner.TimeoutSeconds)*time.Second),
		Archive:  archive,
		Clock:    clock,
		PoolSize: cfg.Scanner.PoolSize,
	}

	reportSvc := &appreports.Service{
		Scans:   scanRepo,
		Cache:   reportRepo,
		Gen:     aiopenai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.AI.Model),
		Clock:   clock,
		Model:   cfg.AI.Model,
		Timeout: time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	api := httpserver.NewRouter(&httpserver.Server{
		Scans:   scanSvc,
		Reports: reportSvc,
	}, cfg.CORS.AllowedOrigin, limiter)

	root := chi.NewRouter()
	root.Use(middleware.RequestLogger(log))
	root.Use(middleware.Metrics)
	root.Get("/health", middleware.LivenessHandler())
	root.Get("/ready", middleware.ReadinessHandler(&middleware.DatabaseHealthChecker{DB: db}))
	root.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())
	root.Mount("/", api)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}

func connectDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, scansdomain.Repository, reportsdomain.Repository, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, nil, err
		}
		return db, postgres.NewScanRepository(db), postgres.NewReportRepository(db), nil
	case "mysql":
		db, err := mysql.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, nil, err
		}
		return db, mysql.NewScanRepository(db), mysql.NewReportRepository(db), nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
