package strategy

import (
	"context"

	"github.com/minho/argos/internal/contracts"
)

// MomentumStrategy selects candidates by daily price change
// 급등 초입 구간(3~25%)을 노림. 상한가 부근은 진입 실익이 없어 제외.
type MomentumStrategy struct {
	minChangeRate float64
	maxChangeRate float64
	minVolume     int64
}

// NewMomentumStrategy creates the price-change strategy
func NewMomentumStrategy() *MomentumStrategy {
	return &MomentumStrategy{
		minChangeRate: 3.0,
		maxChangeRate: 25.0,
		minVolume:     100_000,
	}
}

// Name returns the strategy identifier
func (s *MomentumStrategy) Name() string {
	return "momentum"
}

// Candidates pulls the change-rate-ranked universe
func (s *MomentumStrategy) Candidates(ctx context.Context, market contracts.MarketDataSource, limit int) ([]contracts.RawQuote, error) {
	return market.ListRanked(ctx, contracts.QuoteFilters{
		MinChangeRate: s.minChangeRate,
		MaxChangeRate: s.maxChangeRate,
		MinVolume:     s.minVolume,
		Limit:         limit,
	})
}
