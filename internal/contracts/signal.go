package contracts

import (
	"context"
	"fmt"
	"strings"
)

// Signal is the directional opinion of the signal provider
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalHold Signal = "hold"
	SignalSell Signal = "sell"
)

// Confidence is the ordinal confidence level of an opinion
// Low < Medium < High 순서 비교가 의미를 가짐
type Confidence int

const (
	ConfidenceLow Confidence = iota + 1
	ConfidenceMedium
	ConfidenceHigh
)

// String returns the lowercase confidence name
func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "low"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceHigh:
		return "high"
	default:
		return "unknown"
	}
}

// AtLeast reports whether the confidence meets a minimum level
func (c Confidence) AtLeast(min Confidence) bool {
	return c >= min
}

// ParseConfidence parses a confidence string (case-insensitive)
func ParseConfidence(s string) (Confidence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return ConfidenceLow, nil
	case "medium", "mid":
		return ConfidenceMedium, nil
	case "high":
		return ConfidenceHigh, nil
	default:
		return 0, fmt.Errorf("unknown confidence level: %q", s)
	}
}

// Opinion is the result of one signal provider call
type Opinion struct {
	Signal     Signal     `json:"signal"`     // buy | hold | sell
	Confidence Confidence `json:"confidence"` // low | medium | high
	Score      float64    `json:"score"`      // 0 ~ 10
	Reasons    []string   `json:"reasons"`
}

// PortfolioContext is the account snapshot handed to the provider
type PortfolioContext struct {
	Capital       int64   `json:"capital"`
	OpenPositions int     `json:"open_positions"`
	Mode          string  `json:"mode"`
	DailyPnL      int64   `json:"daily_pnl"`
	ReturnRate    float64 `json:"return_rate"`
}

// SignalProvider is the external LLM-based analyzer consumed as a black box
// 호출 타임아웃/재시도는 호출부 책임 (provider는 단일 시도만)
type SignalProvider interface {
	Analyze(ctx context.Context, c *Candidate, breakdown *ScoreBreakdown, portfolio PortfolioContext) (*Opinion, error)
}
