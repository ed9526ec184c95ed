package external

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minho/argos/internal/contracts"
	"github.com/minho/argos/pkg/logger"
)

type stubPrimary struct {
	flow    *contracts.InvestorFlow
	flowErr error
}

func (s *stubPrimary) ListRanked(context.Context, contracts.QuoteFilters) ([]contracts.RawQuote, error) {
	return nil, nil
}
func (s *stubPrimary) GetInvestorFlow(context.Context, string) (*contracts.InvestorFlow, error) {
	return s.flow, s.flowErr
}
func (s *stubPrimary) GetOrderBook(context.Context, string) (*contracts.OrderBook, error) {
	return nil, nil
}
func (s *stubPrimary) GetDailyBars(context.Context, string, int) ([]contracts.OHLCV, error) {
	return nil, nil
}
func (s *stubPrimary) GetBrokerNetBuy(context.Context, string, string, int) (int64, error) {
	return 0, nil
}
func (s *stubPrimary) GetExecutionIntensity(context.Context, string) (float64, error) {
	return 0, nil
}
func (s *stubPrimary) GetProgramNetBuy(context.Context, string) (int64, error) {
	return 0, nil
}

type stubFallback struct {
	flow  *contracts.InvestorFlow
	err   error
	calls int
}

func (s *stubFallback) GetInvestorFlow(context.Context, string) (*contracts.InvestorFlow, error) {
	s.calls++
	return s.flow, s.err
}

func TestSource_PrimarySucceeds(t *testing.T) {
	primary := &stubPrimary{flow: &contracts.InvestorFlow{InstitutionalNet: 100}}
	fallback := &stubFallback{}

	s := NewSource(primary, fallback, logger.NewNop())

	flow, err := s.GetInvestorFlow(context.Background(), "005930")
	require.NoError(t, err)
	assert.Equal(t, int64(100), flow.InstitutionalNet)
	assert.Zero(t, fallback.calls)
}

func TestSource_FallsBackOnPrimaryError(t *testing.T) {
	primary := &stubPrimary{flowErr: errors.New("kis down")}
	fallback := &stubFallback{flow: &contracts.InvestorFlow{ForeignNet: 200}}

	s := NewSource(primary, fallback, logger.NewNop())

	flow, err := s.GetInvestorFlow(context.Background(), "005930")
	require.NoError(t, err)
	assert.Equal(t, int64(200), flow.ForeignNet)
	assert.Equal(t, 1, fallback.calls)
}

func TestSource_ReturnsPrimaryErrorWhenBothFail(t *testing.T) {
	primaryErr := errors.New("kis down")
	primary := &stubPrimary{flowErr: primaryErr}
	fallback := &stubFallback{err: errors.New("naver down")}

	s := NewSource(primary, fallback, logger.NewNop())

	_, err := s.GetInvestorFlow(context.Background(), "005930")
	assert.ErrorIs(t, err, primaryErr)
}

func TestSource_NoFallbackConfigured(t *testing.T) {
	primary := &stubPrimary{flowErr: errors.New("kis down")}

	s := NewSource(primary, nil, logger.NewNop())

	_, err := s.GetInvestorFlow(context.Background(), "005930")
	assert.Error(t, err)
}
