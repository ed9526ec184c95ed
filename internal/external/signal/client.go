package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/minho/argos/internal/contracts"
	"github.com/minho/argos/pkg/config"
	"github.com/minho/argos/pkg/httputil"
	"github.com/minho/argos/pkg/logger"
)

// Client calls the external LLM signal service over HTTP
// ⭐ SSOT: 시그널 서비스 호출은 이 클라이언트에서만
// 재시도는 호출부(파이프라인) 책임이므로 여기서는 단일 시도만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

var _ contracts.SignalProvider = (*Client)(nil)

// NewClient creates a signal service client
// 파이프라인이 자체 백오프를 수행하므로 HTTP 레벨 재시도는 끔
func NewClient(cfg config.SignalConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httputil.New(log, cfg.Timeout).DisableRetry(),
		logger:     log.Component("signal"),
		baseURL:    cfg.BaseURL,
	}
}

// analyzeRequest is the request body for one analysis call
type analyzeRequest struct {
	Candidate *contracts.Candidate      `json:"candidate"`
	Breakdown *contracts.ScoreBreakdown `json:"breakdown"`
	Portfolio contracts.PortfolioContext `json:"portfolio"`
}

// analyzeResponse mirrors the service's wire format
type analyzeResponse struct {
	Signal     string   `json:"signal"`
	Confidence string   `json:"confidence"`
	Score      float64  `json:"score"`
	Reasons    []string `json:"reasons"`
}

// Analyze requests one opinion for a candidate
func (c *Client) Analyze(ctx context.Context, candidate *contracts.Candidate, breakdown *contracts.ScoreBreakdown, portfolio contracts.PortfolioContext) (*contracts.Opinion, error) {
	url := fmt.Sprintf("%s/v1/analyze", c.baseURL)

	resp, err := c.httpClient.PostJSON(ctx, url, analyzeRequest{
		Candidate: candidate,
		Breakdown: breakdown,
		Portfolio: portfolio,
	})
	if err != nil {
		return nil, fmt.Errorf("signal request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("signal service status %d: %s", resp.StatusCode, string(body))
	}

	var wire analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode signal response: %w", err)
	}

	confidence, err := contracts.ParseConfidence(wire.Confidence)
	if err != nil {
		return nil, fmt.Errorf("invalid signal response: %w", err)
	}

	sig := contracts.Signal(wire.Signal)
	switch sig {
	case contracts.SignalBuy, contracts.SignalHold, contracts.SignalSell:
	default:
		return nil, fmt.Errorf("invalid signal response: unknown signal %q", wire.Signal)
	}

	if wire.Score < 0 || wire.Score > 10 {
		return nil, fmt.Errorf("invalid signal response: score %v out of range", wire.Score)
	}

	return &contracts.Opinion{
		Signal:     sig,
		Confidence: confidence,
		Score:      wire.Score,
		Reasons:    wire.Reasons,
	}, nil
}
