package strategy

import (
	"context"

	"github.com/minho/argos/internal/contracts"
)

// VolumeStrategy selects candidates by ranked trading volume
// ⭐ SSOT: 거래량 기반 후보 선정은 여기서만
type VolumeStrategy struct {
	minPrice  float64
	maxPrice  float64
	minVolume int64
}

// NewVolumeStrategy creates the volume-ranked strategy
// 기본 필터: 동전주/초고가주 제외, 최소 거래량 50만주
func NewVolumeStrategy() *VolumeStrategy {
	return &VolumeStrategy{
		minPrice:  1_000,
		maxPrice:  500_000,
		minVolume: 500_000,
	}
}

// Name returns the strategy identifier
func (s *VolumeStrategy) Name() string {
	return "volume"
}

// Candidates pulls the volume-ranked universe
func (s *VolumeStrategy) Candidates(ctx context.Context, market contracts.MarketDataSource, limit int) ([]contracts.RawQuote, error) {
	return market.ListRanked(ctx, contracts.QuoteFilters{
		MinPrice:  s.minPrice,
		MaxPrice:  s.maxPrice,
		MinVolume: s.minVolume,
		Limit:     limit,
	})
}
