package contracts

import "time"

// ApprovedCandidate is the sole output of the decision core
// 주문 실행 협력자가 그대로 소비
type ApprovedCandidate struct {
	Code         string         `json:"code"`
	Name         string         `json:"name"`
	Price        float64        `json:"price"`
	Quantity     int64          `json:"quantity"`
	FinalScore   float64        `json:"final_score"`
	Breakdown    ScoreBreakdown `json:"breakdown"`
	AISignal     Signal         `json:"ai_signal"`
	AIConfidence Confidence     `json:"ai_confidence"`
	AIReasons    []string       `json:"ai_reasons,omitempty"`
	ApprovedAt   time.Time      `json:"approved_at"`
}

// ScanStage identifies the pipeline stage
type ScanStage string

const (
	StageIdle ScanStage = "idle"
	StageFast ScanStage = "fast"
	StageDeep ScanStage = "deep"
	StageAI   ScanStage = "ai"
)

// CandidateBrief is a compact candidate view for observability
type CandidateBrief struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// ScanProgress is a read-only snapshot of the current cycle
type ScanProgress struct {
	Stage           ScanStage        `json:"stage"`
	TotalCandidates int              `json:"total_candidates"`
	TopCandidates   []CandidateBrief `json:"top_candidates"`
	Approved        int              `json:"approved"`
	Rejected        int              `json:"rejected"`
	Reasons         []string         `json:"reasons,omitempty"` // 구조화된 거절/중단 사유
	UpdatedAt       time.Time        `json:"updated_at"`
}

// RiskStatus is a read-only snapshot of the risk manager
type RiskStatus struct {
	Mode              string  `json:"mode"`
	Capital           int64   `json:"capital"`
	ReturnRate        float64 `json:"return_rate"`
	DailyPnL          int64   `json:"daily_pnl"`
	WeeklyPnL         int64   `json:"weekly_pnl"`
	TotalPnL          int64   `json:"total_pnl"`
	ConsecutiveLosses int     `json:"consecutive_losses"`
	WinRate           float64 `json:"win_rate"`
	TradingEnabled    bool    `json:"trading_enabled"`
	EmergencyStop     bool    `json:"emergency_stop"`
	PortfolioVaR      float64 `json:"portfolio_var"` // 손절 노출 기반 근사치
}
