package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/minho/argos/internal/contracts"
	"github.com/minho/argos/internal/scoring"
	"github.com/minho/argos/pkg/config"
	"github.com/minho/argos/pkg/httputil"
	"github.com/minho/argos/pkg/logger"
)

// Pipeline orchestrates the Fast → Deep → AI scan stages
// ⭐ SSOT: 후보 스캔 파이프라인은 여기서만
// 각 단계는 주기 게이트로 스킵되며, 스킵 시 직전 결과를 재사용
// 단계 실패는 절대 호출자로 전파하지 않음 (빈 결과 + 로그)
type Pipeline struct {
	market      contracts.MarketDataSource
	provider    contracts.SignalProvider
	scorer      *scoring.Scorer
	cache       *EnrichmentCache
	logger      *logger.Logger
	cfg         config.ScanConfig
	retryPolicy httputil.RetryPolicy

	minConfidence contracts.Confidence

	mu          sync.RWMutex
	lastFastRun time.Time
	lastDeepRun time.Time
	lastAIRun   time.Time
	fastResult  []*contracts.Candidate
	deepResult  []*contracts.Candidate
	aiResult    []*contracts.Candidate
	progress    contracts.ScanProgress

	// 수급 필터 하한 (기관+외국인 합산 순매수)
	minFlowNet int64

	now func() time.Time
}

// NewPipeline creates a scanner pipeline
func NewPipeline(
	market contracts.MarketDataSource,
	provider contracts.SignalProvider,
	scorer *scoring.Scorer,
	cache *EnrichmentCache,
	cfg config.ScanConfig,
	retryPolicy httputil.RetryPolicy,
	log *logger.Logger,
) *Pipeline {
	minConf, err := contracts.ParseConfidence(cfg.MinAIConfidence)
	if err != nil {
		// config.Load가 이미 검증하지만, 직접 생성된 설정 방어
		minConf = contracts.ConfidenceMedium
	}

	return &Pipeline{
		market:        market,
		provider:      provider,
		scorer:        scorer,
		cache:         cache,
		logger:        log.Component("scanner"),
		cfg:           cfg,
		retryPolicy:   retryPolicy,
		minConfidence: minConf,
		progress:      contracts.ScanProgress{Stage: contracts.StageIdle},
		now:           time.Now,
	}
}

// =============================================================================
// Interval Gating
// =============================================================================

// ShouldRunFastScan reports whether the fast stage cadence has elapsed
func (p *Pipeline) ShouldRunFastScan() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.now().Sub(p.lastFastRun) >= p.cfg.FastInterval
}

// ShouldRunDeepScan reports whether the deep stage cadence has elapsed
func (p *Pipeline) ShouldRunDeepScan() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.now().Sub(p.lastDeepRun) >= p.cfg.DeepInterval
}

// ShouldRunAIScan reports whether the AI stage cadence has elapsed
func (p *Pipeline) ShouldRunAIScan() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.now().Sub(p.lastAIRun) >= p.cfg.AIInterval
}

// =============================================================================
// Fast Scan
// =============================================================================

// FastScan returns the fast-scanned universe, respecting the stage cadence
// 주기 미도래 시 직전 결과 재사용 (차단이 아니라 스킵)
func (p *Pipeline) FastScan(ctx context.Context, strat contracts.ScanStrategy) []*contracts.Candidate {
	if !p.ShouldRunFastScan() {
		p.mu.RLock()
		defer p.mu.RUnlock()
		return p.fastResult
	}

	result := p.runFastScan(ctx, strat)

	p.mu.Lock()
	p.lastFastRun = p.now()
	p.fastResult = result
	p.mu.Unlock()

	return result
}

// runFastScan pulls the strategy's universe and assigns heuristic fast scores
// 외부 호출은 전략의 후보 조회뿐, 나머지는 순수 계산
func (p *Pipeline) runFastScan(ctx context.Context, strat contracts.ScanStrategy) (result []*contracts.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithField("panic", r).Error("Fast scan panicked, returning empty result")
			result = nil
		}
	}()

	p.setStage(contracts.StageFast)

	quotes, err := strat.Candidates(ctx, p.market, p.cfg.FastMax)
	if err != nil {
		p.logger.WithError(err).WithField("strategy", strat.Name()).Error("Fast scan failed to list candidates")
		p.noteReason("fast scan: market data unavailable")
		return nil
	}

	if len(quotes) > p.cfg.FastMax {
		quotes = quotes[:p.cfg.FastMax]
	}

	candidates := make([]*contracts.Candidate, 0, len(quotes))
	for _, q := range quotes {
		c := &contracts.Candidate{
			Code:       q.Code,
			Name:       q.Name,
			Price:      q.Price,
			Volume:     q.Volume,
			ChangeRate: q.ChangeRate,
			CreatedAt:  p.now(),
		}
		c.FastScore = fastScore(c)
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FastScore > candidates[j].FastScore
	})

	p.logger.WithFields(map[string]interface{}{
		"count": len(candidates),
	}).Debug("Fast scan completed")

	p.updateProgress(contracts.StageFast, candidates)

	return candidates
}

// fastScore is a tiered heuristic over trading value / change rate / volume
// 외부 호출 없음
func fastScore(c *contracts.Candidate) float64 {
	var score float64

	// 거래대금 (원)
	switch tv := c.TradingValue(); {
	case tv >= 50_000_000_000:
		score += 30
	case tv >= 10_000_000_000:
		score += 20
	case tv >= 5_000_000_000:
		score += 10
	case tv >= 1_000_000_000:
		score += 5
	}

	// 등락률
	switch {
	case c.ChangeRate >= 10:
		score += 30
	case c.ChangeRate >= 7:
		score += 20
	case c.ChangeRate >= 5:
		score += 15
	case c.ChangeRate >= 3:
		score += 10
	case c.ChangeRate > 0:
		score += 5
	}

	// 거래량
	switch {
	case c.Volume >= 10_000_000:
		score += 20
	case c.Volume >= 5_000_000:
		score += 15
	case c.Volume >= 1_000_000:
		score += 10
	case c.Volume >= 500_000:
		score += 5
	}

	return score
}

// =============================================================================
// Deep Scan
// =============================================================================

// DeepScan enriches the top candidates, respecting the stage cadence
func (p *Pipeline) DeepScan(ctx context.Context, candidates []*contracts.Candidate) []*contracts.Candidate {
	if !p.ShouldRunDeepScan() {
		p.mu.RLock()
		defer p.mu.RUnlock()
		return p.deepResult
	}

	result := p.runDeepScan(ctx, candidates)

	p.mu.Lock()
	p.lastDeepRun = p.now()
	p.deepResult = result
	p.mu.Unlock()

	return result
}

// runDeepScan enriches the top deepMax candidates by fast score
// 후보별 보강은 독립적이라 제한된 워커 풀로 병렬 수행
// 개별 필드 조회 실패는 해당 필드만 중립값으로 두고 계속 진행
func (p *Pipeline) runDeepScan(ctx context.Context, candidates []*contracts.Candidate) (result []*contracts.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithField("panic", r).Error("Deep scan panicked, returning empty result")
			result = nil
		}
	}()

	p.setStage(contracts.StageDeep)

	if len(candidates) == 0 {
		return nil
	}

	// Fast 점수 상위 deepMax개만 보강
	sorted := make([]*contracts.Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FastScore > sorted[j].FastScore
	})
	if len(sorted) > p.cfg.DeepMax {
		sorted = sorted[:p.cfg.DeepMax]
	}

	p.enrichAll(ctx, sorted)

	for _, c := range sorted {
		c.DeepScore = c.FastScore + deepBonus(c)
	}

	// 수급 필터: 배치 전체가 수급 0이면 상류 API 장애로 보고 필터를 생략
	// (전 종목 탈락 방지)
	anyFlow := false
	for _, c := range sorted {
		if c.HasFlowData() {
			anyFlow = true
			break
		}
	}

	filtered := sorted
	if anyFlow {
		filtered = make([]*contracts.Candidate, 0, len(sorted))
		for _, c := range sorted {
			if c.InstNet()+c.ForeignNet() > p.minFlowNet {
				filtered = append(filtered, c)
			}
		}
	} else {
		p.logger.Warn("No candidate returned investor flow data, skipping flow filter")
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].DeepScore > filtered[j].DeepScore
	})
	if len(filtered) > p.cfg.DeepMax {
		filtered = filtered[:p.cfg.DeepMax]
	}

	p.logger.WithFields(map[string]interface{}{
		"in":  len(candidates),
		"out": len(filtered),
	}).Debug("Deep scan completed")

	p.updateProgress(contracts.StageDeep, filtered)

	return filtered
}

// deepBonus는 수급/호가 보강 필드에 대한 가산점
func deepBonus(c *contracts.Candidate) float64 {
	var bonus float64

	switch inst := c.InstNet(); {
	case inst >= 1_000_000_000:
		bonus += 20
	case inst >= 100_000_000:
		bonus += 10
	case inst > 0:
		bonus += 5
	}

	switch foreign := c.ForeignNet(); {
	case foreign >= 1_000_000_000:
		bonus += 20
	case foreign >= 100_000_000:
		bonus += 10
	case foreign > 0:
		bonus += 5
	}

	switch ratio := c.BidAsk(); {
	case ratio >= 1.5:
		bonus += 10
	case ratio >= 1.2:
		bonus += 5
	case ratio >= 1.0:
		bonus += 2
	}

	return bonus
}

// =============================================================================
// AI Scan
// =============================================================================

// AIScan reviews the top candidates with the signal provider
func (p *Pipeline) AIScan(ctx context.Context, candidates []*contracts.Candidate, portfolio contracts.PortfolioContext) []*contracts.Candidate {
	if !p.ShouldRunAIScan() {
		p.mu.RLock()
		defer p.mu.RUnlock()
		return p.aiResult
	}

	result := p.runAIScan(ctx, candidates, portfolio)

	p.mu.Lock()
	p.lastAIRun = p.now()
	p.aiResult = result
	p.mu.Unlock()

	return result
}

// finalScore 혼합 가중치
const (
	finalDeepWeight = 0.7
	finalAIWeight   = 0.3
	aiScoreScale    = 10.0 // 0~10 점수를 deep 점수 스케일로 환산
)

// runAIScan calls the provider once per candidate and keeps approved buys
func (p *Pipeline) runAIScan(ctx context.Context, candidates []*contracts.Candidate, portfolio contracts.PortfolioContext) (result []*contracts.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithField("panic", r).Error("AI scan panicked, returning empty result")
			result = nil
		}
	}()

	p.setStage(contracts.StageAI)

	if len(candidates) == 0 {
		return nil
	}

	top := candidates
	if len(top) > p.cfg.AIMax {
		top = top[:p.cfg.AIMax]
	}

	approved := make([]*contracts.Candidate, 0, len(top))
	rejected := 0

	for _, c := range top {
		breakdown := p.scorer.Score(c)
		c.Breakdown = &breakdown

		opinion, err := p.analyzeWithRetry(ctx, c, &breakdown, portfolio)
		if err != nil {
			p.logger.WithError(err).WithField("code", c.Code).Warn("Signal provider failed, skipping candidate")
			rejected++
			continue
		}

		c.AIScore = opinion.Score
		c.AISignal = opinion.Signal
		c.AIConfidence = opinion.Confidence
		c.AIReasons = opinion.Reasons
		c.FinalScore = c.DeepScore*finalDeepWeight + c.AIScore*aiScoreScale*finalAIWeight

		if opinion.Signal != contracts.SignalBuy {
			rejected++
			continue
		}
		if opinion.Score < p.cfg.MinAIScore {
			rejected++
			continue
		}
		if !opinion.Confidence.AtLeast(p.minConfidence) {
			rejected++
			continue
		}

		approved = append(approved, c)
	}

	sort.SliceStable(approved, func(i, j int) bool {
		return approved[i].FinalScore > approved[j].FinalScore
	})

	p.logger.WithFields(map[string]interface{}{
		"reviewed": len(top),
		"approved": len(approved),
		"rejected": rejected,
	}).Info("AI scan completed")

	p.updateProgressCounts(contracts.StageAI, approved, len(approved), rejected)

	return approved
}

// analyzeWithRetry calls the provider with per-call timeout and injected backoff policy
func (p *Pipeline) analyzeWithRetry(ctx context.Context, c *contracts.Candidate, breakdown *contracts.ScoreBreakdown, portfolio contracts.PortfolioContext) (*contracts.Opinion, error) {
	var lastErr error
	delay := p.retryPolicy.BaseDelay

	attempts := p.retryPolicy.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		opinion, err := p.provider.Analyze(ctx, c, breakdown, portfolio)
		if err == nil {
			return opinion, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		p.logger.WithFields(map[string]interface{}{
			"code":    c.Code,
			"attempt": attempt,
			"delay":   delay,
		}).Warn("Retrying signal provider call")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * p.retryPolicy.BackoffMult)
		if p.retryPolicy.MaxDelay > 0 && delay > p.retryPolicy.MaxDelay {
			delay = p.retryPolicy.MaxDelay
		}
	}

	return nil, lastErr
}

// =============================================================================
// Progress
// =============================================================================

// Progress returns a copy of the current scan progress snapshot
func (p *Pipeline) Progress() contracts.ScanProgress {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snapshot := p.progress
	snapshot.TopCandidates = append([]contracts.CandidateBrief(nil), p.progress.TopCandidates...)
	snapshot.Reasons = append([]string(nil), p.progress.Reasons...)
	return snapshot
}

func (p *Pipeline) setStage(stage contracts.ScanStage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.progress.Stage = stage
	p.progress.UpdatedAt = p.now()
}

func (p *Pipeline) noteReason(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.progress.Reasons = append(p.progress.Reasons, reason)
	p.progress.UpdatedAt = p.now()
}

func (p *Pipeline) updateProgress(stage contracts.ScanStage, candidates []*contracts.Candidate) {
	p.updateProgressCounts(stage, candidates, 0, 0)
}

func (p *Pipeline) updateProgressCounts(stage contracts.ScanStage, candidates []*contracts.Candidate, approved, rejected int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	briefs := make([]contracts.CandidateBrief, 0, 5)
	for i, c := range candidates {
		if i >= 5 {
			break
		}
		score := c.FastScore
		switch stage {
		case contracts.StageDeep:
			score = c.DeepScore
		case contracts.StageAI:
			score = c.FinalScore
		}
		briefs = append(briefs, contracts.CandidateBrief{Code: c.Code, Name: c.Name, Score: score})
	}

	p.progress.Stage = stage
	p.progress.TotalCandidates = len(candidates)
	p.progress.TopCandidates = briefs
	p.progress.Approved = approved
	p.progress.Rejected = rejected
	p.progress.UpdatedAt = p.now()
}

// ResetCycle clears per-cycle progress reasons (사이클 시작 시 호출)
func (p *Pipeline) ResetCycle() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.progress.Reasons = nil
}
