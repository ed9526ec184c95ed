package engine

import (
	"context"
	"time"

	"github.com/minho/argos/internal/contracts"
	"github.com/minho/argos/internal/risk"
	"github.com/minho/argos/internal/scanner"
	"github.com/minho/argos/internal/strategy"
	"github.com/minho/argos/pkg/logger"
)

// =============================================================================
// Decision Engine - 사이클 오케스트레이션
// =============================================================================

// PositionSource reports the currently open positions
// 주문 실행은 외부 협력자 몫이므로 엔진은 조회만 한다
type PositionSource interface {
	OpenPositions(ctx context.Context) ([]risk.Position, error)
}

// ApprovedStore persists approved candidates for audit
type ApprovedStore interface {
	SaveApproved(ctx context.Context, approved []contracts.ApprovedCandidate) error
}

// Engine runs one decision cycle: scan → gate → size → approve
// ⭐ SSOT: 승인 후보 산출은 여기서만
type Engine struct {
	logger     *logger.Logger
	pipeline   *scanner.Pipeline
	strategies *strategy.Manager
	aiDirected *strategy.AIDirectedStrategy
	risk       *risk.Manager
	positions  PositionSource
	store      ApprovedStore

	now func() time.Time
}

// Options carries the optional collaborators
type Options struct {
	Positions PositionSource // nil이면 포지션 없음으로 간주
	Store     ApprovedStore  // nil이면 영속화 생략
}

// New wires the decision engine
func New(
	pipeline *scanner.Pipeline,
	strategies *strategy.Manager,
	aiDirected *strategy.AIDirectedStrategy,
	riskMgr *risk.Manager,
	opts Options,
	log *logger.Logger,
) *Engine {
	return &Engine{
		logger:     log.Component("engine"),
		pipeline:   pipeline,
		strategies: strategies,
		aiDirected: aiDirected,
		risk:       riskMgr,
		positions:  opts.Positions,
		store:      opts.Store,
		now:        time.Now,
	}
}

// RunCycle executes one full decision cycle and returns the approved entries
// 어떤 단계가 실패해도 에러를 반환하지 않음: 빈 승인 목록 + 로그
func (e *Engine) RunCycle(ctx context.Context) []contracts.ApprovedCandidate {
	e.pipeline.ResetCycle()

	strat := e.strategies.Next()
	if strat == nil {
		e.logger.Error("No scan strategy registered")
		return nil
	}

	fast := e.pipeline.FastScan(ctx, strat)
	deep := e.pipeline.DeepScan(ctx, fast)

	positions := e.openPositions(ctx)
	portfolio := e.risk.PortfolioContext(len(positions))

	candidates := e.pipeline.AIScan(ctx, deep, portfolio)

	approved := e.gateAndSize(ctx, candidates, positions)

	if len(approved) > 0 {
		codes := make([]string, 0, len(approved))
		for _, a := range approved {
			codes = append(codes, a.Code)
		}
		e.aiDirected.Observe(codes)

		if e.store != nil {
			if err := e.store.SaveApproved(ctx, approved); err != nil {
				e.logger.WithError(err).Warn("Failed to persist approved candidates")
			}
		}
	}

	if err := e.risk.Persist(ctx); err != nil {
		e.logger.WithError(err).Warn("Failed to persist risk state")
	}

	return approved
}

// gateAndSize applies the risk gate and position sizing to AI-approved candidates
// 게이트 탈락과 사이즈 0은 에러가 아님
func (e *Engine) gateAndSize(ctx context.Context, candidates []*contracts.Candidate, positions []risk.Position) []contracts.ApprovedCandidate {
	if len(candidates) == 0 {
		return nil
	}

	cfg := e.risk.CurrentMode().Config()
	cash := e.availableCash(positions)
	winRate := e.risk.WinRate()
	rewardRisk := cfg.TakeProfitRatio / cfg.StopLossRatio

	approved := make([]contracts.ApprovedCandidate, 0, len(candidates))
	open := len(positions)

	for _, c := range candidates {
		if !e.risk.ShouldOpenPosition(open + len(approved)) {
			e.logger.WithFields(map[string]interface{}{
				"code":   c.Code,
				"reason": e.risk.BlockReason(open + len(approved)),
			}).Info("Risk gate blocked remaining candidates")
			break
		}

		// 모드별 최소 AI 점수: 보수적 모드일수록 진입 문턱이 높음
		if c.AIScore < cfg.MinAIScore {
			e.logger.WithFields(map[string]interface{}{
				"code":     c.Code,
				"ai_score": c.AIScore,
				"required": cfg.MinAIScore,
			}).Debug("AI score below mode threshold")
			continue
		}

		qty := e.risk.CalculatePositionSize(c.Price, cash, winRate, rewardRisk)
		if qty == 0 {
			e.logger.WithField("code", c.Code).Debug("No safe position size, skipping")
			continue
		}

		breakdown := contracts.ScoreBreakdown{}
		if c.Breakdown != nil {
			breakdown = *c.Breakdown
		}

		approved = append(approved, contracts.ApprovedCandidate{
			Code:         c.Code,
			Name:         c.Name,
			Price:        c.Price,
			Quantity:     qty,
			FinalScore:   c.FinalScore,
			Breakdown:    breakdown,
			AISignal:     c.AISignal,
			AIConfidence: c.AIConfidence,
			AIReasons:    c.AIReasons,
			ApprovedAt:   e.now(),
		})

		cash -= int64(float64(qty) * c.Price)
	}

	e.logger.WithFields(map[string]interface{}{
		"candidates": len(candidates),
		"approved":   len(approved),
	}).Info("Decision cycle completed")

	return approved
}

// openPositions fetches open positions, treating failures as empty
func (e *Engine) openPositions(ctx context.Context) []risk.Position {
	if e.positions == nil {
		return nil
	}

	positions, err := e.positions.OpenPositions(ctx)
	if err != nil {
		e.logger.WithError(err).Warn("Failed to fetch open positions, assuming none")
		return nil
	}
	return positions
}

// availableCash approximates free cash as capital minus open exposure
func (e *Engine) availableCash(positions []risk.Position) int64 {
	cash := e.risk.Capital()
	for _, p := range positions {
		cash -= int64(float64(p.Quantity) * p.EntryPrice)
	}
	if cash < 0 {
		return 0
	}
	return cash
}

// =============================================================================
// Observability
// =============================================================================

// Progress returns the current scan progress snapshot
func (e *Engine) Progress() contracts.ScanProgress {
	return e.pipeline.Progress()
}

// RiskStatus returns the risk snapshot with portfolio VaR filled in
func (e *Engine) RiskStatus(ctx context.Context) contracts.RiskStatus {
	status := e.risk.Status()
	status.PortfolioVaR = e.risk.PortfolioVaR(e.openPositions(ctx))
	return status
}

// RecordTrade forwards a closed trade's P&L to the risk manager
func (e *Engine) RecordTrade(pnl int64) {
	e.risk.RecordTrade(pnl)
}

// UpdateCapital forwards a capital mark to the risk manager
func (e *Engine) UpdateCapital(capital int64) {
	e.risk.UpdateCapital(capital)
}
