package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minho/argos/internal/contracts"
	"github.com/minho/argos/internal/scoring"
	"github.com/minho/argos/pkg/config"
	"github.com/minho/argos/pkg/httputil"
	"github.com/minho/argos/pkg/logger"
)

// =============================================================================
// Fakes
// =============================================================================

type stubMarket struct {
	quotes  []contracts.RawQuote
	listErr error

	flows   map[string]*contracts.InvestorFlow
	flowErr error

	books map[string]*contracts.OrderBook
	bars  []contracts.OHLCV

	brokerNet  int64
	brokerErr  error
	exec       float64
	execErr    error
	execCalls  int
	program    int64
	programErr error
}

func (m *stubMarket) ListRanked(_ context.Context, filters contracts.QuoteFilters) ([]contracts.RawQuote, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := m.quotes
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (m *stubMarket) GetInvestorFlow(_ context.Context, code string) (*contracts.InvestorFlow, error) {
	if m.flowErr != nil {
		return nil, m.flowErr
	}
	if flow, ok := m.flows[code]; ok {
		return flow, nil
	}
	return &contracts.InvestorFlow{}, nil
}

func (m *stubMarket) GetOrderBook(_ context.Context, code string) (*contracts.OrderBook, error) {
	if book, ok := m.books[code]; ok {
		return book, nil
	}
	return nil, errors.New("no order book")
}

func (m *stubMarket) GetDailyBars(_ context.Context, _ string, _ int) ([]contracts.OHLCV, error) {
	if m.bars == nil {
		return nil, errors.New("no bars")
	}
	return m.bars, nil
}

func (m *stubMarket) GetBrokerNetBuy(_ context.Context, _, _ string, _ int) (int64, error) {
	if m.brokerErr != nil {
		return 0, m.brokerErr
	}
	return m.brokerNet, nil
}

func (m *stubMarket) GetExecutionIntensity(_ context.Context, _ string) (float64, error) {
	m.execCalls++
	if m.execErr != nil {
		return 0, m.execErr
	}
	return m.exec, nil
}

func (m *stubMarket) GetProgramNetBuy(_ context.Context, _ string) (int64, error) {
	if m.programErr != nil {
		return 0, m.programErr
	}
	return m.program, nil
}

// stubStrategy returns a fixed universe
type stubStrategy struct {
	quotes []contracts.RawQuote
	err    error
	panics bool
}

func (s *stubStrategy) Name() string { return "stub" }

func (s *stubStrategy) Candidates(_ context.Context, _ contracts.MarketDataSource, limit int) ([]contracts.RawQuote, error) {
	if s.panics {
		panic("boom")
	}
	if s.err != nil {
		return nil, s.err
	}
	out := s.quotes
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// scriptedProvider fails a set number of times, then returns its opinion
type scriptedProvider struct {
	opinions  map[string]contracts.Opinion
	failFirst int
	calls     int
}

func (p *scriptedProvider) Analyze(_ context.Context, c *contracts.Candidate, _ *contracts.ScoreBreakdown, _ contracts.PortfolioContext) (*contracts.Opinion, error) {
	p.calls++
	if p.calls <= p.failFirst {
		return nil, errors.New("provider unavailable")
	}
	op, ok := p.opinions[c.Code]
	if !ok {
		op = contracts.Opinion{Signal: contracts.SignalHold, Confidence: contracts.ConfidenceLow}
	}
	return &op, nil
}

// =============================================================================
// Setup
// =============================================================================

func testScanConfig() config.ScanConfig {
	return config.ScanConfig{
		FastInterval:    10 * time.Second,
		DeepInterval:    60 * time.Second,
		AIInterval:      300 * time.Second,
		FastMax:         50,
		DeepMax:         20,
		AIMax:           5,
		CacheTTL:        300 * time.Second,
		MinAIScore:      7.0,
		MinAIConfidence: "medium",
	}
}

func testRetryPolicy() httputil.RetryPolicy {
	return httputil.RetryPolicy{
		MaxRetries:  3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		BackoffMult: 2.0,
		Enabled:     true,
	}
}

func newTestPipeline(market contracts.MarketDataSource, provider contracts.SignalProvider, cfg config.ScanConfig) *Pipeline {
	return NewPipeline(
		market, provider, scoring.NewScorer(),
		NewEnrichmentCache(cfg.CacheTTL),
		cfg, testRetryPolicy(), logger.NewNop(),
	)
}

func quote(code string, price float64, volume int64, rate float64) contracts.RawQuote {
	return contracts.RawQuote{Code: code, Name: "name-" + code, Price: price, Volume: volume, ChangeRate: rate}
}

// =============================================================================
// Fast Scan
// =============================================================================

func TestPipeline_FastScan_ScoresAndSorts(t *testing.T) {
	market := &stubMarket{}
	p := newTestPipeline(market, &scriptedProvider{}, testScanConfig())

	strat := &stubStrategy{quotes: []contracts.RawQuote{
		quote("A", 1_000, 600_000, 1.0),       // 거래대금 6억 → 0, 등락 5, 거래량 5 = 10
		quote("B", 50_000, 6_000_000, 11.0),   // 거래대금 3,000억 → 30, 등락 30, 거래량 15 = 75
		quote("C", 10_000, 2_000_000, 4.0),    // 거래대금 200억 → 20, 등락 10, 거래량 10 = 40
	}}

	result := p.FastScan(context.Background(), strat)
	require.Len(t, result, 3)

	assert.Equal(t, "B", result[0].Code)
	assert.InDelta(t, 75, result[0].FastScore, 1e-9)
	assert.Equal(t, "C", result[1].Code)
	assert.InDelta(t, 40, result[1].FastScore, 1e-9)
	assert.Equal(t, "A", result[2].Code)
	assert.InDelta(t, 10, result[2].FastScore, 1e-9)
}

func TestPipeline_FastScan_CapsUniverse(t *testing.T) {
	cfg := testScanConfig()
	cfg.FastMax = 2

	quotes := make([]contracts.RawQuote, 10)
	for i := range quotes {
		quotes[i] = quote(string(rune('A'+i)), 10_000, 1_000_000, 5.0)
	}

	p := newTestPipeline(&stubMarket{}, &scriptedProvider{}, cfg)
	result := p.FastScan(context.Background(), &stubStrategy{quotes: quotes})
	assert.Len(t, result, 2)
}

func TestPipeline_FastScan_IntervalGating(t *testing.T) {
	p := newTestPipeline(&stubMarket{}, &scriptedProvider{}, testScanConfig())

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	strat := &stubStrategy{quotes: []contracts.RawQuote{quote("A", 10_000, 1_000_000, 5.0)}}
	first := p.FastScan(context.Background(), strat)
	require.Len(t, first, 1)

	// 주기 미도래: 전략이 바뀌어도 직전 결과 재사용
	now = now.Add(5 * time.Second)
	second := p.FastScan(context.Background(), &stubStrategy{err: errors.New("must not be called")})
	assert.Equal(t, first, second)

	// 주기 도래: 재실행
	now = now.Add(5 * time.Second)
	third := p.FastScan(context.Background(), &stubStrategy{quotes: []contracts.RawQuote{
		quote("B", 10_000, 1_000_000, 5.0),
	}})
	require.Len(t, third, 1)
	assert.Equal(t, "B", third[0].Code)
}

func TestPipeline_FastScan_MarketFailureReturnsEmpty(t *testing.T) {
	p := newTestPipeline(&stubMarket{}, &scriptedProvider{}, testScanConfig())

	result := p.FastScan(context.Background(), &stubStrategy{err: errors.New("api down")})
	assert.Empty(t, result)

	progress := p.Progress()
	assert.Contains(t, progress.Reasons, "fast scan: market data unavailable")
}

func TestPipeline_FastScan_RecoversFromPanic(t *testing.T) {
	p := newTestPipeline(&stubMarket{}, &scriptedProvider{}, testScanConfig())

	assert.NotPanics(t, func() {
		result := p.FastScan(context.Background(), &stubStrategy{panics: true})
		assert.Empty(t, result)
	})
}

// =============================================================================
// Deep Scan
// =============================================================================

func deepInput(p *Pipeline, strat *stubStrategy) []*contracts.Candidate {
	return p.FastScan(context.Background(), strat)
}

func TestPipeline_DeepScan_EnrichesAndFilters(t *testing.T) {
	market := &stubMarket{
		flows: map[string]*contracts.InvestorFlow{
			"BUY":  {InstitutionalNet: 2_000_000_000, ForeignNet: 1_000_000_000},
			"SELL": {InstitutionalNet: -2_000_000_000, ForeignNet: 1_000_000_000},
		},
		books:     map[string]*contracts.OrderBook{"BUY": {BidTotal: 200_000, AskTotal: 100_000}},
		brokerNet: 100_000,
		exec:      150,
		program:   500_000_000,
	}
	p := newTestPipeline(market, &scriptedProvider{}, testScanConfig())

	strat := &stubStrategy{quotes: []contracts.RawQuote{
		quote("BUY", 50_000, 6_000_000, 11.0),
		quote("SELL", 50_000, 6_000_000, 11.0),
	}}

	result := p.DeepScan(context.Background(), deepInput(p, strat))
	require.Len(t, result, 1)

	c := result[0]
	assert.Equal(t, "BUY", c.Code)
	assert.Equal(t, int64(2_000_000_000), c.InstNet())
	assert.Equal(t, int64(1_000_000_000), c.ForeignNet())
	assert.InDelta(t, 2.0, c.BidAsk(), 1e-9)
	assert.InDelta(t, 150, c.ExecIntensity(), 1e-9)
	assert.Equal(t, int64(500_000_000), c.ProgramNet())
	assert.Equal(t, 5, c.BrokerBuyCount())

	// fast 75 + 기관 20 + 외국인 20 + 호가 10
	assert.InDelta(t, 125, c.DeepScore, 1e-9)
}

func TestPipeline_DeepScan_SkipsFlowFilterWhenNoData(t *testing.T) {
	// 수급 API 전면 장애: 필터를 생략해 전 종목 탈락을 방지
	market := &stubMarket{flowErr: errors.New("flow api down")}
	p := newTestPipeline(market, &scriptedProvider{}, testScanConfig())

	strat := &stubStrategy{quotes: []contracts.RawQuote{
		quote("A", 50_000, 6_000_000, 11.0),
		quote("B", 50_000, 6_000_000, 8.0),
	}}

	result := p.DeepScan(context.Background(), deepInput(p, strat))
	assert.Len(t, result, 2)
}

func TestPipeline_DeepScan_FieldFailureDoesNotDropCandidate(t *testing.T) {
	market := &stubMarket{
		flows:      map[string]*contracts.InvestorFlow{"A": {InstitutionalNet: 1_000_000_000}},
		brokerErr:  errors.New("broker api down"),
		execErr:    errors.New("exec api down"),
		programErr: errors.New("program api down"),
	}
	p := newTestPipeline(market, &scriptedProvider{}, testScanConfig())

	strat := &stubStrategy{quotes: []contracts.RawQuote{quote("A", 50_000, 6_000_000, 11.0)}}
	result := p.DeepScan(context.Background(), deepInput(p, strat))
	require.Len(t, result, 1)

	c := result[0]
	assert.Nil(t, c.ExecutionIntensity)
	assert.Nil(t, c.TopBrokerNetBuy)
	assert.Nil(t, c.ProgramNetBuy)
	assert.Equal(t, int64(1_000_000_000), c.InstNet())
}

func TestPipeline_DeepScan_UsesEnrichmentCache(t *testing.T) {
	cfg := testScanConfig()
	cfg.DeepInterval = 0 // 매 호출 실행

	market := &stubMarket{
		flows: map[string]*contracts.InvestorFlow{"A": {InstitutionalNet: 1_000_000_000}},
		exec:  120,
	}
	p := newTestPipeline(market, &scriptedProvider{}, cfg)

	input := []*contracts.Candidate{{Code: "A", Price: 50_000, Volume: 6_000_000, ChangeRate: 11.0, FastScore: 75}}

	p.DeepScan(context.Background(), input)
	p.DeepScan(context.Background(), input)

	// 두 번째 사이클은 체결강도를 캐시에서 조회
	assert.Equal(t, 1, market.execCalls)
}

func TestPipeline_DeepScan_EmptyInput(t *testing.T) {
	p := newTestPipeline(&stubMarket{}, &scriptedProvider{}, testScanConfig())
	assert.Empty(t, p.DeepScan(context.Background(), nil))
}

// =============================================================================
// AI Scan
// =============================================================================

func TestPipeline_AIScan_FiltersAndBlendsScore(t *testing.T) {
	provider := &scriptedProvider{opinions: map[string]contracts.Opinion{
		"KEEP": {Signal: contracts.SignalBuy, Confidence: contracts.ConfidenceHigh, Score: 9.0, Reasons: []string{"flow"}},
		"HOLD": {Signal: contracts.SignalHold, Confidence: contracts.ConfidenceHigh, Score: 9.0},
		"LOWS": {Signal: contracts.SignalBuy, Confidence: contracts.ConfidenceHigh, Score: 6.9},
		"LOWC": {Signal: contracts.SignalBuy, Confidence: contracts.ConfidenceLow, Score: 9.0},
	}}
	p := newTestPipeline(&stubMarket{}, provider, testScanConfig())

	input := []*contracts.Candidate{
		{Code: "KEEP", DeepScore: 125},
		{Code: "HOLD", DeepScore: 120},
		{Code: "LOWS", DeepScore: 110},
		{Code: "LOWC", DeepScore: 100},
	}

	result := p.AIScan(context.Background(), input, contracts.PortfolioContext{})
	require.Len(t, result, 1)

	c := result[0]
	assert.Equal(t, "KEEP", c.Code)
	// 125*0.7 + 9.0*10*0.3 = 114.5
	assert.InDelta(t, 114.5, c.FinalScore, 1e-9)
	assert.Equal(t, contracts.SignalBuy, c.AISignal)
	assert.NotNil(t, c.Breakdown)

	progress := p.Progress()
	assert.Equal(t, contracts.StageAI, progress.Stage)
	assert.Equal(t, 1, progress.Approved)
	assert.Equal(t, 3, progress.Rejected)
}

func TestPipeline_AIScan_CapsReviewCount(t *testing.T) {
	cfg := testScanConfig()
	cfg.AIMax = 2

	provider := &scriptedProvider{opinions: map[string]contracts.Opinion{}}
	p := newTestPipeline(&stubMarket{}, provider, cfg)

	input := []*contracts.Candidate{{Code: "A"}, {Code: "B"}, {Code: "C"}}
	p.AIScan(context.Background(), input, contracts.PortfolioContext{})

	assert.Equal(t, 2, provider.calls)
}

func TestPipeline_AIScan_RetriesProvider(t *testing.T) {
	provider := &scriptedProvider{
		failFirst: 2,
		opinions: map[string]contracts.Opinion{
			"A": {Signal: contracts.SignalBuy, Confidence: contracts.ConfidenceHigh, Score: 8.0},
		},
	}
	p := newTestPipeline(&stubMarket{}, provider, testScanConfig())

	input := []*contracts.Candidate{{Code: "A", DeepScore: 100}}
	result := p.AIScan(context.Background(), input, contracts.PortfolioContext{})

	require.Len(t, result, 1)
	assert.Equal(t, 3, provider.calls)
}

func TestPipeline_AIScan_ProviderExhaustionSkipsCandidate(t *testing.T) {
	provider := &scriptedProvider{failFirst: 100}
	p := newTestPipeline(&stubMarket{}, provider, testScanConfig())

	input := []*contracts.Candidate{{Code: "A", DeepScore: 100}}
	result := p.AIScan(context.Background(), input, contracts.PortfolioContext{})

	assert.Empty(t, result)
	assert.Equal(t, 3, provider.calls) // MaxRetries만큼만 시도
}

func TestPipeline_Progress_ReturnsCopy(t *testing.T) {
	p := newTestPipeline(&stubMarket{}, &scriptedProvider{}, testScanConfig())

	strat := &stubStrategy{quotes: []contracts.RawQuote{quote("A", 50_000, 6_000_000, 11.0)}}
	p.FastScan(context.Background(), strat)

	snap := p.Progress()
	require.Len(t, snap.TopCandidates, 1)

	snap.TopCandidates[0].Code = "mutated"
	assert.Equal(t, "A", p.Progress().TopCandidates[0].Code)
}
