package risk

import "fmt"

// =============================================================================
// Risk Mode - 5단계 리스크 모드
// =============================================================================

// Mode is one of the five risk postures
// 항상 정확히 하나의 모드만 활성
type Mode string

const (
	ModeAggressive       Mode = "AGGRESSIVE"
	ModeNormal           Mode = "NORMAL"
	ModeConservative     Mode = "CONSERVATIVE"
	ModeVeryConservative Mode = "VERY_CONSERVATIVE"
	ModeDefensive        Mode = "DEFENSIVE"
)

// Valid reports whether the mode is a known value
func (m Mode) Valid() bool {
	switch m {
	case ModeAggressive, ModeNormal, ModeConservative, ModeVeryConservative, ModeDefensive:
		return true
	}
	return false
}

// ParseMode parses a mode string
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown risk mode: %q", s)
	}
	return m, nil
}

// ModeConfig fixes the risk parameters for one mode
type ModeConfig struct {
	MaxOpenPositions int     // 최대 동시 보유 종목 수
	RiskPerTrade     float64 // 1회 거래 리스크 비율 (자본 대비)
	MaxPositionSize  float64 // 종목당 최대 비중 (자본 대비)
	TakeProfitRatio  float64 // 익절 비율
	StopLossRatio    float64 // 손절 비율
	TrailingStopPct  float64 // 트레일링 스탑 비율
	MinAIScore       float64 // 진입 허용 최소 AI 점수
	MaxDailyLossPct  float64 // 일일 손실 한도 (자본 대비)
	MaxWeeklyLossPct float64 // 주간 손실 한도 (자본 대비)
	MaxSingleLossPct float64 // 단일 거래 손실 한도 (자본 대비)
}

// Config returns the parameter set for the mode
// 모드 추가 시 여기서 컴파일 타임에 잡히도록 switch 사용
func (m Mode) Config() ModeConfig {
	switch m {
	case ModeAggressive:
		return ModeConfig{
			MaxOpenPositions: 5,
			RiskPerTrade:     0.25,
			MaxPositionSize:  0.40,
			TakeProfitRatio:  0.08,
			StopLossRatio:    0.03,
			TrailingStopPct:  0.020,
			MinAIScore:       6.5,
			MaxDailyLossPct:  0.05,
			MaxWeeklyLossPct: 0.10,
			MaxSingleLossPct: 0.03,
		}
	case ModeNormal:
		return ModeConfig{
			MaxOpenPositions: 4,
			RiskPerTrade:     0.20,
			MaxPositionSize:  0.30,
			TakeProfitRatio:  0.06,
			StopLossRatio:    0.025,
			TrailingStopPct:  0.018,
			MinAIScore:       7.0,
			MaxDailyLossPct:  0.04,
			MaxWeeklyLossPct: 0.08,
			MaxSingleLossPct: 0.025,
		}
	case ModeConservative:
		return ModeConfig{
			MaxOpenPositions: 3,
			RiskPerTrade:     0.15,
			MaxPositionSize:  0.25,
			TakeProfitRatio:  0.05,
			StopLossRatio:    0.02,
			TrailingStopPct:  0.015,
			MinAIScore:       7.5,
			MaxDailyLossPct:  0.03,
			MaxWeeklyLossPct: 0.06,
			MaxSingleLossPct: 0.02,
		}
	case ModeVeryConservative:
		return ModeConfig{
			MaxOpenPositions: 2,
			RiskPerTrade:     0.10,
			MaxPositionSize:  0.20,
			TakeProfitRatio:  0.04,
			StopLossRatio:    0.015,
			TrailingStopPct:  0.012,
			MinAIScore:       8.0,
			MaxDailyLossPct:  0.02,
			MaxWeeklyLossPct: 0.04,
			MaxSingleLossPct: 0.015,
		}
	case ModeDefensive:
		return ModeConfig{
			MaxOpenPositions: 1,
			RiskPerTrade:     0.05,
			MaxPositionSize:  0.10,
			TakeProfitRatio:  0.03,
			StopLossRatio:    0.01,
			TrailingStopPct:  0.008,
			MinAIScore:       9.0,
			MaxDailyLossPct:  0.01,
			MaxWeeklyLossPct: 0.02,
			MaxSingleLossPct: 0.01,
		}
	default:
		// 알 수 없는 모드는 가장 보수적으로
		return ModeDefensive.Config()
	}
}

// NextMode is the pure transition function of the mode state machine
// (returnRate, consecutiveLosses)만으로 결정됨
// 손실 구간을 먼저 평가: 동시에 해당되는 경계는 보수적인 쪽 우선
func NextMode(returnRate float64, consecutiveLosses int) Mode {
	switch {
	case returnRate <= -0.15:
		return ModeDefensive
	case returnRate <= -0.10:
		return ModeVeryConservative
	case returnRate <= -0.05:
		return ModeConservative
	case returnRate >= 0.10:
		return ModeAggressive
	case returnRate >= 0.05:
		if consecutiveLosses == 0 {
			return ModeAggressive
		}
		return ModeNormal
	default:
		return ModeNormal
	}
}
