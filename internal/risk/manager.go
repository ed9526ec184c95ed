package risk

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/minho/argos/internal/contracts"
	"github.com/minho/argos/pkg/logger"
)

// =============================================================================
// Manager - 모드 상태머신 + 정량 사이징/게이팅
// =============================================================================

// 연속 손실 임계값
const (
	consecutiveLossWarn  = 3 // 경고 로그
	consecutiveLossBlock = 5 // 모드와 무관하게 거래 차단
)

// 총자산 기준 비상 정지 발동 낙폭
const emergencyDrawdown = -0.20

// Kelly 비중 상한 (클립 후 절반 적용)
const kellyCap = 0.25

// Manager owns the risk-manager state machine
// ⭐ SSOT: 포지션 허용/사이징 판단은 여기서만
// 메인 루프 단독 소유 상태지만 상태 조회 엔드포인트 대비 락으로 보호
type Manager struct {
	mu     sync.RWMutex
	logger *logger.Logger
	store  StateStore

	initialCapital int64
	capital        int64
	mode           Mode

	dailyPnL  int64
	weeklyPnL int64
	totalPnL  int64

	consecutiveLosses int
	totalTrades       int
	winningTrades     int

	tradingEnabled bool
	emergencyStop  bool

	lastDailyReset  time.Time
	lastWeeklyReset time.Time

	now func() time.Time
}

// NewManager creates a risk manager, restoring persisted state when available
// 스냅샷 로드 실패는 치명적이지 않음: 초기 상태로 시작하고 로그만 남김
func NewManager(ctx context.Context, initialCapital int64, store StateStore, log *logger.Logger) *Manager {
	m := &Manager{
		logger:          log.Component("risk"),
		store:           store,
		initialCapital:  initialCapital,
		capital:         initialCapital,
		mode:            ModeNormal,
		tradingEnabled:  true,
		lastDailyReset:  time.Now(),
		lastWeeklyReset: time.Now(),
		now:             time.Now,
	}

	if store != nil {
		snap, err := store.Load(ctx)
		if err != nil {
			m.logger.WithError(err).Warn("Failed to load risk state, starting fresh")
		} else if snap != nil {
			m.restore(snap)
			m.logger.WithFields(map[string]interface{}{
				"mode":    m.mode,
				"capital": m.capital,
			}).Info("Risk state restored")
		}
	}

	return m
}

// =============================================================================
// Capital / Mode Transitions
// =============================================================================

// UpdateCapital recomputes the return rate and evaluates the mode transition
// 동일 자본 재적용은 모드를 바꾸지 않음 (멱등)
func (m *Manager) UpdateCapital(newCapital int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetIfNeededLocked()

	m.capital = newCapital
	rate := m.returnRateLocked()

	// 총자산 낙폭 비상 정지
	if rate <= emergencyDrawdown && !m.emergencyStop {
		m.emergencyStop = true
		m.logger.WithFields(map[string]interface{}{
			"return_rate": rate,
			"capital":     newCapital,
		}).Error("Emergency stop triggered by total drawdown")
	}

	next := NextMode(rate, m.consecutiveLosses)
	if next != m.mode {
		prev := m.mode
		m.mode = next
		m.logger.WithFields(map[string]interface{}{
			"from":        prev,
			"to":          next,
			"return_rate": rate,
			"capital":     newCapital,
		}).Info("Risk mode changed")
	}
}

// returnRateLocked computes (현재 − 초기) / 초기
func (m *Manager) returnRateLocked() float64 {
	if m.initialCapital == 0 {
		return 0
	}
	return float64(m.capital-m.initialCapital) / float64(m.initialCapital)
}

// CurrentMode returns the active mode
func (m *Manager) CurrentMode() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// =============================================================================
// Trade Recording / Loss Limits
// =============================================================================

// RecordTrade books one closed trade's P&L
// 손실 한도 돌파는 에러가 아니라 게이팅 상태 변경
func (m *Manager) RecordTrade(pnl int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetIfNeededLocked()

	m.dailyPnL += pnl
	m.weeklyPnL += pnl
	m.totalPnL += pnl
	m.totalTrades++

	if pnl < 0 {
		m.consecutiveLosses++
		if m.consecutiveLosses >= consecutiveLossWarn {
			m.logger.WithField("consecutive_losses", m.consecutiveLosses).Warn("Consecutive loss streak")
		}
	} else if pnl > 0 {
		m.consecutiveLosses = 0
		m.winningTrades++
	}

	cfg := m.mode.Config()

	// 일일 손실 한도: 당일 거래 정지
	if m.dailyLossBreachedLocked(cfg) && m.tradingEnabled {
		m.tradingEnabled = false
		m.logger.WithFields(map[string]interface{}{
			"daily_pnl": m.dailyPnL,
			"limit_pct": cfg.MaxDailyLossPct,
		}).Error("Daily loss limit exceeded, trading disabled for the day")
	}
}

func (m *Manager) dailyLossBreachedLocked(cfg ModeConfig) bool {
	return m.dailyPnL < 0 && float64(-m.dailyPnL) >= cfg.MaxDailyLossPct*float64(m.capital)
}

func (m *Manager) weeklyLossBreachedLocked(cfg ModeConfig) bool {
	return m.weeklyPnL < 0 && float64(-m.weeklyPnL) >= cfg.MaxWeeklyLossPct*float64(m.capital)
}

// resetIfNeededLocked applies lazy calendar-day / ISO-week rollovers
// 타이머 없음: 매 갱신 시점에 확인
func (m *Manager) resetIfNeededLocked() {
	now := m.now()

	ny, nm, nd := now.Date()
	ly, lm, ld := m.lastDailyReset.Date()
	if ny != ly || nm != lm || nd != ld {
		m.dailyPnL = 0
		m.lastDailyReset = now
		// 일일 정지는 날짜가 바뀌면 해제 (비상 정지는 유지)
		if !m.emergencyStop {
			m.tradingEnabled = true
		}
		m.logger.Debug("Daily P&L reset")
	}

	nyw, nw := now.ISOWeek()
	lyw, lw := m.lastWeeklyReset.ISOWeek()
	if nyw != lyw || nw != lw {
		m.weeklyPnL = 0
		m.lastWeeklyReset = now
		m.logger.Debug("Weekly P&L reset")
	}
}

// =============================================================================
// Gating
// =============================================================================

// CanTrade reports whether any trading is allowed at all
func (m *Manager) CanTrade() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetIfNeededLocked()
	return m.canTradeLocked()
}

func (m *Manager) canTradeLocked() bool {
	if m.emergencyStop {
		return false
	}
	if !m.tradingEnabled {
		return false
	}
	if m.consecutiveLosses >= consecutiveLossBlock {
		return false
	}
	return true
}

// ShouldOpenPosition decides whether a new position may be opened
// 정책 위반은 에러가 아닌 false
func (m *Manager) ShouldOpenPosition(openCount int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetIfNeededLocked()

	if !m.canTradeLocked() {
		return false
	}

	cfg := m.mode.Config()
	if openCount >= cfg.MaxOpenPositions {
		return false
	}
	if m.dailyLossBreachedLocked(cfg) {
		return false
	}
	if m.weeklyLossBreachedLocked(cfg) {
		return false
	}

	return true
}

// BlockReason returns a structured reason when opening is not allowed
// GetScanProgress 사유 노출용
func (m *Manager) BlockReason(openCount int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg := m.mode.Config()
	switch {
	case m.emergencyStop:
		return "emergency stop active"
	case !m.tradingEnabled:
		return "trading disabled"
	case m.consecutiveLosses >= consecutiveLossBlock:
		return "consecutive loss limit reached"
	case openCount >= cfg.MaxOpenPositions:
		return "max open positions reached"
	case m.dailyLossBreachedLocked(cfg):
		return "daily loss limit exceeded"
	case m.weeklyLossBreachedLocked(cfg):
		return "weekly loss limit exceeded"
	default:
		return ""
	}
}

// =============================================================================
// Position Sizing
// =============================================================================

// CalculatePositionSize returns the share quantity for one entry
// winRate/rewardRisk가 주어지고 승률이 0.5를 넘으면 보수적 Kelly로 상한 적용
// 안전한 사이즈가 없으면 0 (에러 아님)
func (m *Manager) CalculatePositionSize(price float64, availableCash int64, winRate, rewardRisk float64) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if price <= 0 || availableCash <= 0 {
		return 0
	}

	cfg := m.mode.Config()
	capital := float64(m.capital)

	size := math.Min(capital*cfg.MaxPositionSize, capital*cfg.RiskPerTrade)

	if winRate > 0.5 && rewardRisk > 0 {
		kelly := kellyFraction(winRate, rewardRisk)
		if kellySize := capital * kelly; kellySize < size {
			size = kellySize
		}
	}

	if cash := float64(availableCash); size > cash {
		size = cash
	}

	qty := int64(math.Floor(size / price))
	if qty < 0 {
		return 0
	}
	return qty
}

// kellyFraction computes the half-Kelly fraction, clipped to [0, kellyCap]
// f* = (p·b − q)/b
func kellyFraction(winRate, rewardRisk float64) float64 {
	p := winRate
	q := 1 - p
	b := rewardRisk

	f := (p*b - q) / b
	if f < 0 {
		f = 0
	}
	if f > kellyCap {
		f = kellyCap
	}

	// 보수적 Kelly: 절반만 사용
	return f / 2
}

// ExitThresholds is the per-entry exit configuration
type ExitThresholds struct {
	StopLoss        float64 `json:"stop_loss"`
	TakeProfit      float64 `json:"take_profit"`
	TrailingStopPct float64 `json:"trailing_stop_pct"`
}

// GetExitThresholds derives exit prices from the active mode's ratios
func (m *Manager) GetExitThresholds(entryPrice float64) ExitThresholds {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg := m.mode.Config()
	return ExitThresholds{
		StopLoss:        entryPrice * (1 - cfg.StopLossRatio),
		TakeProfit:      entryPrice * (1 + cfg.TakeProfitRatio),
		TrailingStopPct: cfg.TrailingStopPct,
	}
}

// =============================================================================
// Emergency Stop / Manual Controls
// =============================================================================

// TriggerEmergencyStop halts all trading until explicitly cleared
func (m *Manager) TriggerEmergencyStop(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.emergencyStop = true
	m.logger.WithField("reason", reason).Error("Emergency stop triggered")
}

// ClearEmergencyStop re-arms trading after an emergency stop
func (m *Manager) ClearEmergencyStop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.emergencyStop = false
	m.tradingEnabled = true
	m.logger.Warn("Emergency stop cleared")
}

// =============================================================================
// Observability
// =============================================================================

// WinRate returns the measured win rate over recorded trades
func (m *Manager) WinRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.totalTrades == 0 {
		return 0
	}
	return float64(m.winningTrades) / float64(m.totalTrades)
}

// Capital returns the current capital
func (m *Manager) Capital() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.capital
}

// Status returns a read-only snapshot for dashboards
func (m *Manager) Status() contracts.RiskStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var winRate float64
	if m.totalTrades > 0 {
		winRate = float64(m.winningTrades) / float64(m.totalTrades)
	}

	return contracts.RiskStatus{
		Mode:              string(m.mode),
		Capital:           m.capital,
		ReturnRate:        m.returnRateLocked(),
		DailyPnL:          m.dailyPnL,
		WeeklyPnL:         m.weeklyPnL,
		TotalPnL:          m.totalPnL,
		ConsecutiveLosses: m.consecutiveLosses,
		WinRate:           winRate,
		TradingEnabled:    m.tradingEnabled,
		EmergencyStop:     m.emergencyStop,
	}
}

// PortfolioContext builds the account snapshot handed to the signal provider
func (m *Manager) PortfolioContext(openPositions int) contracts.PortfolioContext {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return contracts.PortfolioContext{
		Capital:       m.capital,
		OpenPositions: openPositions,
		Mode:          string(m.mode),
		DailyPnL:      m.dailyPnL,
		ReturnRate:    m.returnRateLocked(),
	}
}
