package risk

import (
	"math"
	"sort"
)

// =============================================================================
// VaR (Value at Risk)
// =============================================================================

// VaRResult holds one VaR estimate
type VaRResult struct {
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`  // 손실을 양수로 표현
	CVaR       float64 `json:"cvar"` // Expected Shortfall
}

// Position is a minimal open-position view for exposure math
type Position struct {
	Code       string  `json:"code"`
	Quantity   int64   `json:"quantity"`
	EntryPrice float64 `json:"entry_price"`
}

// PortfolioVaR approximates worst-case loss as the summed stop-loss exposure
// 각 포지션이 동시에 손절 체결된다고 가정한 상한 근사치
func (m *Manager) PortfolioVaR(positions []Position) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg := m.mode.Config()

	var exposure float64
	for _, p := range positions {
		exposure += float64(p.Quantity) * p.EntryPrice * cfg.StopLossRatio
	}
	return exposure
}

// HistoricalVaR computes VaR from past daily returns (Historical Simulation)
// returns: 일별 수익률 (양수=이익, 음수=손실)
// confidence: 신뢰수준 (예: 0.95)
func HistoricalVaR(returns []float64, confidence float64) VaRResult {
	if len(returns) == 0 {
		return VaRResult{Confidence: confidence}
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	// 95% VaR = 하위 5% 백분위수
	percentile := 1.0 - confidence
	idx := int(math.Floor(percentile * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	var varValue float64
	if sorted[idx] < 0 {
		varValue = -sorted[idx]
	}

	return VaRResult{
		Confidence: confidence,
		VaR:        varValue,
		CVaR:       expectedShortfall(sorted, idx),
	}
}

// expectedShortfall averages the tail at or below the VaR index
func expectedShortfall(sorted []float64, varIdx int) float64 {
	if len(sorted) == 0 || varIdx < 0 {
		return 0
	}

	var sum float64
	count := 0
	for i := 0; i <= varIdx && i < len(sorted); i++ {
		sum += sorted[i]
		count++
	}
	if count == 0 {
		return 0
	}

	avg := sum / float64(count)
	if avg < 0 {
		return -avg
	}
	return 0
}

// Mean 평균 계산
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev 표본 표준편차 계산
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}
