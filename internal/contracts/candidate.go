package contracts

import "time"

// Candidate represents one instrument under consideration within a scan cycle
// ⭐ SSOT: 스캔 단계 간 후보 데이터 전달은 이 구조체로만
// 소유권은 파이프라인 단독 (사이클 종료 시 폐기, 영속화 없음)
type Candidate struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Volume     int64   `json:"volume"`
	ChangeRate float64 `json:"change_rate"` // 등락률 (%)

	// 단계별 점수
	FastScore  float64 `json:"fast_score"`
	DeepScore  float64 `json:"deep_score"`
	AIScore    float64 `json:"ai_score"`
	FinalScore float64 `json:"final_score"`

	// Deep 스캔 보강 필드 (nil = 미수집 또는 조회 실패)
	InstitutionalNetBuy *int64   `json:"institutional_net_buy,omitempty"`
	ForeignNetBuy       *int64   `json:"foreign_net_buy,omitempty"`
	BidAskRatio         *float64 `json:"bid_ask_ratio,omitempty"`
	AvgVolume           *int64   `json:"avg_volume,omitempty"`
	Volatility          *float64 `json:"volatility,omitempty"` // 20일 수익률 표준편차
	TopBrokerBuyCount   *int     `json:"top_broker_buy_count,omitempty"`
	TopBrokerNetBuy     *int64   `json:"top_broker_net_buy,omitempty"`
	ExecutionIntensity  *float64 `json:"execution_intensity,omitempty"` // 체결강도
	ProgramNetBuy       *int64   `json:"program_net_buy,omitempty"`     // 프로그램 순매수

	// AI 스캔 결과
	Breakdown    *ScoreBreakdown `json:"breakdown,omitempty"` // AI 단계에서 계산된 440점 분해
	AISignal     Signal          `json:"ai_signal,omitempty"`
	AIConfidence Confidence      `json:"ai_confidence,omitempty"`
	AIReasons    []string        `json:"ai_reasons,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TradingValue returns the approximate trading value (거래대금)
func (c *Candidate) TradingValue() float64 {
	return c.Price * float64(c.Volume)
}

// InstNet returns the institutional net buy, zero when not enriched
func (c *Candidate) InstNet() int64 {
	if c.InstitutionalNetBuy == nil {
		return 0
	}
	return *c.InstitutionalNetBuy
}

// ForeignNet returns the foreign net buy, zero when not enriched
func (c *Candidate) ForeignNet() int64 {
	if c.ForeignNetBuy == nil {
		return 0
	}
	return *c.ForeignNetBuy
}

// BidAsk returns the bid/ask ratio, zero when not enriched
func (c *Candidate) BidAsk() float64 {
	if c.BidAskRatio == nil {
		return 0
	}
	return *c.BidAskRatio
}

// AvgVol returns the 20-day average volume, zero when not enriched
func (c *Candidate) AvgVol() int64 {
	if c.AvgVolume == nil {
		return 0
	}
	return *c.AvgVolume
}

// Vol20D returns the 20-day volatility, zero when not enriched
func (c *Candidate) Vol20D() float64 {
	if c.Volatility == nil {
		return 0
	}
	return *c.Volatility
}

// BrokerBuyCount returns how many top brokers were net buyers
func (c *Candidate) BrokerBuyCount() int {
	if c.TopBrokerBuyCount == nil {
		return 0
	}
	return *c.TopBrokerBuyCount
}

// BrokerNet returns the top-broker aggregate net buy
func (c *Candidate) BrokerNet() int64 {
	if c.TopBrokerNetBuy == nil {
		return 0
	}
	return *c.TopBrokerNetBuy
}

// ExecIntensity returns the execution intensity, zero when not enriched
func (c *Candidate) ExecIntensity() float64 {
	if c.ExecutionIntensity == nil {
		return 0
	}
	return *c.ExecutionIntensity
}

// ProgramNet returns the program trading net buy
func (c *Candidate) ProgramNet() int64 {
	if c.ProgramNetBuy == nil {
		return 0
	}
	return *c.ProgramNetBuy
}

// HasFlowData reports whether investor flow enrichment returned nonzero data
func (c *Candidate) HasFlowData() bool {
	return c.InstNet() != 0 || c.ForeignNet() != 0
}
