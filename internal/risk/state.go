package risk

import (
	"context"
	"time"
)

// Snapshot is the persisted form of the risk manager state
// 재시작 간 복원용. 필드 추가 시 JSON 하위 호환 유지할 것.
type Snapshot struct {
	InitialCapital    int64     `json:"initial_capital"`
	Capital           int64     `json:"capital"`
	Mode              Mode      `json:"mode"`
	DailyPnL          int64     `json:"daily_pnl"`
	WeeklyPnL         int64     `json:"weekly_pnl"`
	TotalPnL          int64     `json:"total_pnl"`
	ConsecutiveLosses int       `json:"consecutive_losses"`
	TotalTrades       int       `json:"total_trades"`
	WinningTrades     int       `json:"winning_trades"`
	TradingEnabled    bool      `json:"trading_enabled"`
	EmergencyStop     bool      `json:"emergency_stop"`
	LastDailyReset    time.Time `json:"last_daily_reset"`
	LastWeeklyReset   time.Time `json:"last_weekly_reset"`
	SavedAt           time.Time `json:"saved_at"`
}

// StateStore persists risk manager snapshots
// Load는 저장된 상태가 없으면 (nil, nil)
type StateStore interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
}

// Snapshot captures the current state for persistence
func (m *Manager) Snapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &Snapshot{
		InitialCapital:    m.initialCapital,
		Capital:           m.capital,
		Mode:              m.mode,
		DailyPnL:          m.dailyPnL,
		WeeklyPnL:         m.weeklyPnL,
		TotalPnL:          m.totalPnL,
		ConsecutiveLosses: m.consecutiveLosses,
		TotalTrades:       m.totalTrades,
		WinningTrades:     m.winningTrades,
		TradingEnabled:    m.tradingEnabled,
		EmergencyStop:     m.emergencyStop,
		LastDailyReset:    m.lastDailyReset,
		LastWeeklyReset:   m.lastWeeklyReset,
		SavedAt:           m.now(),
	}
}

// Persist saves the current state through the configured store
func (m *Manager) Persist(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	return m.store.Save(ctx, m.Snapshot())
}

// restore applies a loaded snapshot (초기화 중에만 호출, 락 불필요)
func (m *Manager) restore(snap *Snapshot) {
	if snap.InitialCapital > 0 {
		m.initialCapital = snap.InitialCapital
	}
	if snap.Capital > 0 {
		m.capital = snap.Capital
	}
	if snap.Mode.Valid() {
		m.mode = snap.Mode
	}
	m.dailyPnL = snap.DailyPnL
	m.weeklyPnL = snap.WeeklyPnL
	m.totalPnL = snap.TotalPnL
	m.consecutiveLosses = snap.ConsecutiveLosses
	m.totalTrades = snap.TotalTrades
	m.winningTrades = snap.WinningTrades
	m.tradingEnabled = snap.TradingEnabled
	m.emergencyStop = snap.EmergencyStop
	if !snap.LastDailyReset.IsZero() {
		m.lastDailyReset = snap.LastDailyReset
	}
	if !snap.LastWeeklyReset.IsZero() {
		m.lastWeeklyReset = snap.LastWeeklyReset
	}
}
