package strategy

import (
	"context"
	"sync"

	"github.com/minho/argos/internal/contracts"
)

// AIDirectedStrategy revisits instruments the AI scan recently approved
// 직전 사이클들에서 AI가 승인한 종목을 우선 재방문하고,
// 관찰 목록이 비어 있으면 모멘텀 필터로 폴백
type AIDirectedStrategy struct {
	mu        sync.Mutex
	watchlist map[string]struct{}

	fallback *MomentumStrategy
}

// NewAIDirectedStrategy creates the AI-directed strategy
func NewAIDirectedStrategy() *AIDirectedStrategy {
	return &AIDirectedStrategy{
		watchlist: make(map[string]struct{}),
		fallback:  NewMomentumStrategy(),
	}
}

// Name returns the strategy identifier
func (s *AIDirectedStrategy) Name() string {
	return "ai-directed"
}

// Observe records codes the AI scan approved (엔진이 사이클 종료 시 호출)
func (s *AIDirectedStrategy) Observe(codes []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, code := range codes {
		s.watchlist[code] = struct{}{}
	}

	// 관찰 목록 무한 성장 방지
	if len(s.watchlist) > 100 {
		s.watchlist = make(map[string]struct{})
		for _, code := range codes {
			s.watchlist[code] = struct{}{}
		}
	}
}

// Candidates prefers watchlisted instruments from a broad ranked pull
func (s *AIDirectedStrategy) Candidates(ctx context.Context, market contracts.MarketDataSource, limit int) ([]contracts.RawQuote, error) {
	s.mu.Lock()
	empty := len(s.watchlist) == 0
	s.mu.Unlock()

	if empty {
		return s.fallback.Candidates(ctx, market, limit)
	}

	// 넓게 당겨서 관찰 목록 종목을 앞세움
	quotes, err := market.ListRanked(ctx, contracts.QuoteFilters{
		MinVolume: 100_000,
		Limit:     limit * 4,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	watched := make([]contracts.RawQuote, 0, limit)
	rest := make([]contracts.RawQuote, 0, len(quotes))
	for _, q := range quotes {
		if _, ok := s.watchlist[q.Code]; ok {
			watched = append(watched, q)
		} else {
			rest = append(rest, q)
		}
	}

	result := append(watched, rest...)
	if len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}
