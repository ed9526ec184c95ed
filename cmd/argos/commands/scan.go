package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/minho/argos/internal/engine"
	"github.com/minho/argos/internal/external"
	"github.com/minho/argos/internal/external/kis"
	"github.com/minho/argos/internal/external/naver"
	"github.com/minho/argos/internal/external/signal"
	"github.com/minho/argos/internal/risk"
	"github.com/minho/argos/internal/scanner"
	"github.com/minho/argos/internal/scoring"
	"github.com/minho/argos/internal/strategy"
	"github.com/minho/argos/pkg/config"
	"github.com/minho/argos/pkg/httputil"
	"github.com/minho/argos/pkg/logger"
	"github.com/minho/argos/pkg/redis"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "의사결정 사이클 1회 실행",
	Long: `Fast → Deep → AI 스캔과 리스크 게이트를 한 번 돌리고 결과를 출력합니다.

DB/API 서버 없이 동작하며 아무것도 저장하지 않습니다.
파이프라인과 리스크 설정을 빠르게 점검할 때 사용합니다.

Example:
  go run ./cmd/argos scan
  go run ./cmd/argos scan --json`,
	RunE: runScan,
}

var scanJSON bool

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "결과를 JSON으로 출력")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	limiter := redis.NewRateLimiter(redisClient, "argos")

	kisHTTP := httputil.New(log, 30*time.Second).
		WithRateLimiter(limiter, redis.KISRateLimit)
	naverHTTP := httputil.New(log, 30*time.Second).
		WithRateLimiter(limiter, redis.NaverRateLimit)

	source := external.NewSource(
		kis.NewClient(cfg.KIS, kisHTTP, log),
		naver.NewClient(cfg.Naver, naverHTTP, log),
		log,
	)

	cache := scanner.NewEnrichmentCache(cfg.Scan.CacheTTL)
	retryPolicy := httputil.RetryPolicy{
		MaxRetries:  cfg.Signal.MaxRetries,
		BaseDelay:   cfg.Signal.BaseDelay,
		MaxDelay:    30 * time.Second,
		BackoffMult: cfg.Signal.BackoffMult,
		Enabled:     true,
	}
	pipeline := scanner.NewPipeline(source, signal.NewClient(cfg.Signal, log), scoring.NewScorer(), cache, cfg.Scan, retryPolicy, log)

	strategies, aiDirected := strategy.DefaultManager(log)
	riskMgr := risk.NewManager(ctx, cfg.Risk.InitialCapital, nil, log)

	eng := engine.New(pipeline, strategies, aiDirected, riskMgr, engine.Options{}, log)

	approved := eng.RunCycle(ctx)
	progress := eng.Progress()

	if scanJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"approved": approved,
			"progress": progress,
		})
	}

	fmt.Println("=== Scan Cycle Result ===")
	fmt.Printf("Stage: %s | Candidates: %d | Approved: %d | Rejected: %d\n",
		progress.Stage, progress.TotalCandidates, progress.Approved, progress.Rejected)

	for _, reason := range progress.Reasons {
		fmt.Printf("  - %s\n", reason)
	}

	if len(approved) == 0 {
		fmt.Println("\n승인된 후보 없음")
		return nil
	}

	fmt.Println("\n승인 후보:")
	for _, a := range approved {
		fmt.Printf("  %-8s %-12s score=%5.1f conf=%-6s qty=%d @ %.0f\n",
			a.Code, a.Name, a.FinalScore, a.AIConfidence, a.Quantity, a.Price)
	}

	return nil
}
