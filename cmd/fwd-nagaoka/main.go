package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fwdgo/fwd-nagaoka/internal/analyze"
	"github.com/fwdgo/fwd-nagaoka/internal/api"
	"github.com/fwdgo/fwd-nagaoka/internal/config"
	"github.com/fwdgo/fwd-nagaoka/internal/fetch"
	"github.com/fwdgo/fwd-nagaoka/internal/ingest"
	"github.com/fwdgo/fwd-nagaoka/internal/logging"
	"github.com/fwdgo/fwd-nagaoka/internal/notify"
	"github.com/fwdgo/fwd-nagaoka/internal/observability"
	"github.com/fwdgo/fwd-nagaoka/internal/pipeline"
	"github.com/fwdgo/fwd-nagaoka/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	cmd := "run"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "run":
		runOnce(cfg)
	case "backfill":
		fs := flag.NewFlagSet("backfill", flag.ExitOnError)
		dir := fs.String("dir", "", "directory of bulletin snapshot files (YYYYMMDD_HHMM.txt)")
		_ = fs.Parse(os.Args[2:])
		if *dir == "" {
			logging.Fatalf("backfill requires -dir")
		}
		runBackfill(cfg, *dir)
	case "initdb":
		initDB(cfg)
	case "serve":
		serve(cfg)
	default:
		logging.Fatalf("unknown command %q (expected run, backfill, initdb or serve)", cmd)
	}
}

func runOnce(cfg *config.Config) {
	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	p := newPipeline(cfg, db)
	if err := p.Run(context.Background()); err != nil {
		logging.Fatalf("Pipeline run failed: %v", err)
	}
}

func runBackfill(cfg *config.Config, dir string) {
	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	p := newPipeline(cfg, db)
	if err := p.Backfill(context.Background(), dir); err != nil {
		logging.Fatalf("Backfill failed: %v", err)
	}
}

func initDB(cfg *config.Config) {
	// Opening the database runs the schema migration.
	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	slog.Info("database initialized", "path", cfg.DB.Path)
}

func newPipeline(cfg *config.Config, db *repository.SQLiteDB) *pipeline.Pipeline {
	return pipeline.New(
		fetch.NewFetcher(cfg.Bulletin),
		ingest.NewIngestor(db),
		analyze.NewAnalyzer(db, cfg.Bulletin.HomeCity),
		notify.NewDispatcher(db, notify.NewRenderer(), notify.NewWebhook(cfg.Webhook)),
		clockwork.NewRealClock(),
		observability.NewMetrics(),
	)
}

func serve(cfg *config.Config) {
	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(5)) // 5 req/s global limit

	handler := api.NewHandler(db)
	handler.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
