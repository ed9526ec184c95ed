package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/minho/argos/internal/contracts"
	"github.com/minho/argos/pkg/config"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "실행 중인 엔진 상태 조회",
	Long: `실행 중인 serve 프로세스의 API를 호출해 스캔 진행 상황과
리스크 상태를 터미널에 출력합니다.

Example:
  go run ./cmd/argos status
  go run ./cmd/argos status --host http://localhost:8091`,
	RunE: runStatus,
}

var statusHost string

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusHost, "host", "", "API 서버 주소 (기본: http://localhost:{PORT})")
}

func runStatus(cmd *cobra.Command, args []string) error {
	host := statusHost
	if host == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		host = "http://localhost:" + cfg.Port
	}

	client := &http.Client{Timeout: 5 * time.Second}

	var progress contracts.ScanProgress
	if err := fetchJSON(client, host+"/api/scan/progress", &progress); err != nil {
		return fmt.Errorf("fetch scan progress: %w", err)
	}

	var status contracts.RiskStatus
	if err := fetchJSON(client, host+"/api/risk/status", &status); err != nil {
		return fmt.Errorf("fetch risk status: %w", err)
	}

	fmt.Println("=== Argos Status ===")
	fmt.Println()

	fmt.Println("[Scan]")
	fmt.Printf("  Stage:      %s\n", progress.Stage)
	fmt.Printf("  Candidates: %d\n", progress.TotalCandidates)
	fmt.Printf("  Approved:   %d  Rejected: %d\n", progress.Approved, progress.Rejected)
	if !progress.UpdatedAt.IsZero() {
		fmt.Printf("  Updated:    %s\n", progress.UpdatedAt.Format("15:04:05"))
	}
	for _, c := range progress.TopCandidates {
		fmt.Printf("    %-8s %-12s %6.1f\n", c.Code, c.Name, c.Score)
	}
	for _, reason := range progress.Reasons {
		fmt.Printf("    - %s\n", reason)
	}

	fmt.Println()
	fmt.Println("[Risk]")
	fmt.Printf("  Mode:         %s\n", status.Mode)
	fmt.Printf("  Capital:      %s원 (%.2f%%)\n", formatWon(status.Capital), status.ReturnRate*100)
	fmt.Printf("  PnL:          daily %s / weekly %s / total %s\n",
		formatWon(status.DailyPnL), formatWon(status.WeeklyPnL), formatWon(status.TotalPnL))
	fmt.Printf("  Losses:       %d consecutive, win rate %.1f%%\n", status.ConsecutiveLosses, status.WinRate*100)
	fmt.Printf("  VaR:          %.0f\n", status.PortfolioVaR)

	trading := "enabled"
	if !status.TradingEnabled {
		trading = "disabled"
	}
	if status.EmergencyStop {
		trading = "EMERGENCY STOP"
	}
	fmt.Printf("  Trading:      %s\n", trading)

	return nil
}

// fetchJSON decodes a JSON endpoint into out
func fetchJSON(client *http.Client, url string, out interface{}) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// formatWon renders an amount with thousand separators
func formatWon(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	s := fmt.Sprintf("%d", v)
	out := make([]byte, 0, len(s)+len(s)/3)
	for i, ch := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, ch)
	}
	return sign + string(out)
}
