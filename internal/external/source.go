package external

import (
	"context"

	"github.com/minho/argos/internal/contracts"
	"github.com/minho/argos/pkg/logger"
)

// FlowFallback is the secondary investor-flow source
type FlowFallback interface {
	GetInvestorFlow(ctx context.Context, code string) (*contracts.InvestorFlow, error)
}

// Source combines the primary market data source with a flow fallback
// ⭐ SSOT: 소스 간 폴백 결정은 여기서만
// KIS 수급 조회가 실패하면 Naver 스크래핑으로 한 번 더 시도
type Source struct {
	contracts.MarketDataSource

	fallback FlowFallback
	logger   *logger.Logger
}

// NewSource wires the primary source with an optional flow fallback
func NewSource(primary contracts.MarketDataSource, fallback FlowFallback, log *logger.Logger) *Source {
	return &Source{
		MarketDataSource: primary,
		fallback:         fallback,
		logger:           log.Component("market"),
	}
}

// GetInvestorFlow tries the primary source first, then the fallback
func (s *Source) GetInvestorFlow(ctx context.Context, code string) (*contracts.InvestorFlow, error) {
	flow, err := s.MarketDataSource.GetInvestorFlow(ctx, code)
	if err == nil {
		return flow, nil
	}

	if s.fallback == nil {
		return nil, err
	}

	s.logger.WithError(err).WithField("code", code).Debug("Primary flow source failed, trying fallback")

	flow, fbErr := s.fallback.GetInvestorFlow(ctx, code)
	if fbErr != nil {
		// 원인 파악에는 1차 소스 에러가 더 유용함
		return nil, err
	}
	return flow, nil
}
