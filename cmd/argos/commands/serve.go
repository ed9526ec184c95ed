package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/minho/argos/internal/api"
	"github.com/minho/argos/internal/engine"
	"github.com/minho/argos/internal/external"
	"github.com/minho/argos/internal/external/kis"
	"github.com/minho/argos/internal/external/naver"
	signalapi "github.com/minho/argos/internal/external/signal"
	"github.com/minho/argos/internal/risk"
	"github.com/minho/argos/internal/scanner"
	"github.com/minho/argos/internal/scheduler"
	"github.com/minho/argos/internal/scheduler/jobs"
	"github.com/minho/argos/internal/scoring"
	"github.com/minho/argos/internal/strategy"
	"github.com/minho/argos/pkg/config"
	"github.com/minho/argos/pkg/database"
	"github.com/minho/argos/pkg/httputil"
	"github.com/minho/argos/pkg/logger"
	"github.com/minho/argos/pkg/redis"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "의사결정 엔진 시작",
	Long: `스캔 사이클 스케줄러와 상태 API 서버를 함께 시작합니다.

이 명령어는:
- Fast 주기로 의사결정 사이클 실행
- 리스크 상태/승인 이력을 PostgreSQL에 영속화
- 상태 조회 API + 실시간 진행 상황 웹소켓 제공

Endpoints:
  GET  /health             - Health check
  GET  /api/scan/progress  - 스캔 진행 상황
  GET  /api/risk/status    - 리스크 상태
  GET  /api/approved       - 최근 승인 후보
  WS   /ws/progress        - 진행 상황 스트림

Example:
  go run ./cmd/argos serve
  go run ./cmd/argos serve --port 8091`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (기본: PORT 환경변수)")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Argos Decision Engine ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing decision engine")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Connect to database (없어도 엔진은 동작, 영속화만 생략)
	var db *database.DB
	if db, err = database.New(cfg); err != nil {
		log.WithError(err).Warn("Database unavailable, running without persistence")
		db = nil
	} else {
		defer db.Close()
		log.Info("Connected to database")
	}

	// 4. Redis rate limiter (비활성 시 no-op)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	limiter := redis.NewRateLimiter(redisClient, "argos")

	// 5. External clients
	kisHTTP := httputil.New(log, 30*time.Second).
		WithRateLimiter(limiter, redis.KISRateLimit)
	naverHTTP := httputil.New(log, 30*time.Second).
		WithRateLimiter(limiter, redis.NaverRateLimit)

	kisClient := kis.NewClient(cfg.KIS, kisHTTP, log)
	naverClient := naver.NewClient(cfg.Naver, naverHTTP, log)
	source := external.NewSource(kisClient, naverClient, log)

	signalClient := signalapi.NewClient(cfg.Signal, log)

	// 6. Scanner pipeline
	cache := scanner.NewEnrichmentCache(cfg.Scan.CacheTTL)
	retryPolicy := httputil.RetryPolicy{
		MaxRetries:  cfg.Signal.MaxRetries,
		BaseDelay:   cfg.Signal.BaseDelay,
		MaxDelay:    30 * time.Second,
		BackoffMult: cfg.Signal.BackoffMult,
		Enabled:     true,
	}
	pipeline := scanner.NewPipeline(source, signalClient, scoring.NewScorer(), cache, cfg.Scan, retryPolicy, log)

	// 7. Strategies and risk manager
	strategies, aiDirected := strategy.DefaultManager(log)

	var riskStore risk.StateStore
	var opts engine.Options
	var approvedRepo *engine.Repository
	if db != nil {
		riskStore = risk.NewRepository(db.Pool)
		approvedRepo = engine.NewRepository(db.Pool)
		opts.Store = approvedRepo
	}
	riskMgr := risk.NewManager(ctx, cfg.Risk.InitialCapital, riskStore, log)

	// 8. Decision engine
	eng := engine.New(pipeline, strategies, aiDirected, riskMgr, opts, log)

	// 9. Status API + progress hub
	hub := api.NewHub(log)
	go hub.Run(ctx)

	statusHandler := api.NewStatusHandler(eng, approvedRepo, log)
	router := api.NewRouter(statusHandler, hub, log)
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start API server")
		}
	}()

	// 10. Scheduler
	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewScanCycleJob(eng, hub, cfg.Scan.FastInterval, log)); err != nil {
		return fmt.Errorf("add scan cycle job: %w", err)
	}
	if err := sched.AddJob(jobs.NewMaintenanceJob(cache, log)); err != nil {
		return fmt.Errorf("add maintenance job: %w", err)
	}
	sched.Start()

	fmt.Printf("\n✅ Engine running, API on http://localhost:%s\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	// 11. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}

	// 마지막 리스크 상태 저장
	if err := riskMgr.Persist(shutdownCtx); err != nil {
		log.WithError(err).Warn("Failed to persist final risk state")
	}

	log.Info("Engine stopped")
	return nil
}
