package risk

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minho/argos/pkg/logger"
)

const testCapital = 10_000_000

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(context.Background(), testCapital, nil, logger.NewNop())
}

// fixManagerClock pins the manager to a controllable clock
func fixManagerClock(m *Manager, at time.Time) *time.Time {
	now := at
	m.now = func() time.Time { return now }
	m.lastDailyReset = at
	m.lastWeeklyReset = at
	return &now
}

func TestManager_ModeTransitionOnCapitalUpdate(t *testing.T) {
	m := newTestManager(t)
	assert.Equal(t, ModeNormal, m.CurrentMode())

	// 10M → 8.4M: -16% 낙폭
	m.UpdateCapital(8_400_000)
	assert.Equal(t, ModeDefensive, m.CurrentMode())

	// 동일 자본 재적용은 멱등
	m.UpdateCapital(8_400_000)
	assert.Equal(t, ModeDefensive, m.CurrentMode())

	m.UpdateCapital(11_200_000)
	assert.Equal(t, ModeAggressive, m.CurrentMode())
}

func TestManager_EmergencyStopOnDrawdown(t *testing.T) {
	m := newTestManager(t)

	m.UpdateCapital(7_900_000) // -21%
	assert.False(t, m.CanTrade())
	assert.True(t, m.Status().EmergencyStop)

	// 자본 회복만으로는 해제되지 않음
	m.UpdateCapital(testCapital)
	assert.False(t, m.CanTrade())

	m.ClearEmergencyStop()
	assert.True(t, m.CanTrade())
}

func TestManager_ConsecutiveLossBlock(t *testing.T) {
	m := newTestManager(t)

	for i := 0; i < consecutiveLossBlock-1; i++ {
		m.RecordTrade(-1_000)
	}
	assert.True(t, m.CanTrade())

	m.RecordTrade(-1_000)
	assert.False(t, m.CanTrade())
	assert.Equal(t, consecutiveLossBlock, m.Status().ConsecutiveLosses)

	// 이익 1회로 스트릭 리셋
	m.RecordTrade(2_000)
	assert.True(t, m.CanTrade())
	assert.Equal(t, 0, m.Status().ConsecutiveLosses)
}

func TestManager_BreakEvenTradeKeepsStreak(t *testing.T) {
	m := newTestManager(t)

	m.RecordTrade(-1_000)
	m.RecordTrade(0)
	assert.Equal(t, 1, m.Status().ConsecutiveLosses)
}

func TestManager_DailyLossLimitDisablesTrading(t *testing.T) {
	m := newTestManager(t)
	now := fixManagerClock(m, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))

	// NORMAL 모드 일일 한도 4% = 400,000
	m.RecordTrade(-400_000)
	assert.False(t, m.CanTrade())
	assert.False(t, m.ShouldOpenPosition(0))

	// 날짜가 바뀌면 일일 P&L 리셋과 함께 거래 재개
	*now = now.Add(24 * time.Hour)
	assert.True(t, m.CanTrade())
	assert.Equal(t, int64(0), m.Status().DailyPnL)
}

func TestManager_WeeklyLossLimitBlocksNewPositions(t *testing.T) {
	m := newTestManager(t)
	now := fixManagerClock(m, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)) // 월요일

	// 주간 한도(8% = 800,000)는 넘고 일일 한도(400,000)는 피해서 사흘에 나눠 기록
	m.RecordTrade(-300_000)
	*now = now.Add(24 * time.Hour)
	m.RecordTrade(-300_000)
	*now = now.Add(24 * time.Hour)
	m.RecordTrade(-300_000)

	assert.True(t, m.CanTrade())
	assert.False(t, m.ShouldOpenPosition(0))

	// ISO 주가 바뀌면 주간 P&L 리셋
	*now = time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	assert.True(t, m.ShouldOpenPosition(0))
	assert.Equal(t, int64(0), m.Status().WeeklyPnL)
}

func TestManager_ShouldOpenPosition_MaxPositions(t *testing.T) {
	m := newTestManager(t)

	limit := m.CurrentMode().Config().MaxOpenPositions
	assert.True(t, m.ShouldOpenPosition(limit-1))
	assert.False(t, m.ShouldOpenPosition(limit))
	assert.Equal(t, "max open positions reached", m.BlockReason(limit))
}

func TestManager_CalculatePositionSize_Kelly(t *testing.T) {
	m := newTestManager(t)

	// NORMAL: base = min(10M*0.30, 10M*0.20) = 2,000,000
	// Kelly(p=0.6, b=2.0): f = (0.6*2-0.4)/2 = 0.4 → 클립 0.25 → 절반 0.125
	// kelly size = 1,250,000 < base → 1,250,000 / 50,000 = 25주
	qty := m.CalculatePositionSize(50_000, testCapital, 0.6, 2.0)
	assert.Equal(t, int64(25), qty)
}

func TestManager_CalculatePositionSize_NoStats(t *testing.T) {
	m := newTestManager(t)

	// 승률 통계 없음: 모드 한도만 적용 → 2,000,000 / 50,000 = 40주
	qty := m.CalculatePositionSize(50_000, testCapital, 0, 0)
	assert.Equal(t, int64(40), qty)

	// 승률 0.5 이하도 Kelly 미적용
	qty = m.CalculatePositionSize(50_000, testCapital, 0.5, 2.0)
	assert.Equal(t, int64(40), qty)
}

func TestManager_CalculatePositionSize_CashClip(t *testing.T) {
	m := newTestManager(t)

	qty := m.CalculatePositionSize(50_000, 120_000, 0, 0)
	assert.Equal(t, int64(2), qty)

	assert.Zero(t, m.CalculatePositionSize(50_000, 0, 0, 0))
	assert.Zero(t, m.CalculatePositionSize(0, testCapital, 0, 0))
	// 현금이 1주 값에 못 미치면 0 (에러 아님)
	assert.Zero(t, m.CalculatePositionSize(50_000, 40_000, 0, 0))
}

func TestKellyFraction(t *testing.T) {
	tests := []struct {
		name       string
		winRate    float64
		rewardRisk float64
		want       float64
	}{
		{"clipped at cap then halved", 0.6, 2.0, 0.125},
		{"below cap", 0.55, 1.0, 0.05}, // f = 0.55-0.45 = 0.1 → 절반
		{"negative edge floors at zero", 0.4, 1.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, kellyFraction(tt.winRate, tt.rewardRisk), 1e-9)
		})
	}
}

func TestManager_GetExitThresholds(t *testing.T) {
	m := newTestManager(t)

	// NORMAL: 손절 2.5%, 익절 6%
	th := m.GetExitThresholds(100_000)
	assert.InDelta(t, 97_500, th.StopLoss, 0.001)
	assert.InDelta(t, 106_000, th.TakeProfit, 0.001)
	assert.InDelta(t, 0.018, th.TrailingStopPct, 1e-9)
}

func TestManager_WinRate(t *testing.T) {
	m := newTestManager(t)
	assert.Zero(t, m.WinRate())

	m.RecordTrade(1_000)
	m.RecordTrade(1_000)
	m.RecordTrade(-500)
	m.RecordTrade(1_000)

	assert.InDelta(t, 0.75, m.WinRate(), 1e-9)
}

func TestManager_Status(t *testing.T) {
	m := newTestManager(t)
	m.RecordTrade(-100_000)
	m.UpdateCapital(9_900_000)

	st := m.Status()
	assert.Equal(t, string(ModeNormal), st.Mode)
	assert.Equal(t, int64(9_900_000), st.Capital)
	assert.InDelta(t, -0.01, st.ReturnRate, 1e-9)
	assert.Equal(t, int64(-100_000), st.DailyPnL)
	assert.Equal(t, 1, st.ConsecutiveLosses)
	assert.True(t, st.TradingEnabled)
}

// memoryStore is an in-memory StateStore for tests
type memoryStore struct {
	mu   sync.Mutex
	snap *Snapshot
}

func (s *memoryStore) Save(_ context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	return nil
}

func (s *memoryStore) Load(_ context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, nil
}

func TestManager_PersistAndRestore(t *testing.T) {
	store := &memoryStore{}
	ctx := context.Background()

	m := NewManager(ctx, testCapital, store, logger.NewNop())
	m.UpdateCapital(9_200_000) // -8% → CONSERVATIVE
	m.RecordTrade(-50_000)
	m.RecordTrade(-30_000)
	require.NoError(t, m.Persist(ctx))

	restored := NewManager(ctx, testCapital, store, logger.NewNop())
	st := restored.Status()
	assert.Equal(t, string(ModeConservative), st.Mode)
	assert.Equal(t, int64(9_200_000), st.Capital)
	assert.Equal(t, int64(-80_000), st.DailyPnL)
	assert.Equal(t, 2, st.ConsecutiveLosses)
}

func TestManager_RestoreIgnoresInvalidSnapshotFields(t *testing.T) {
	store := &memoryStore{snap: &Snapshot{Mode: Mode("BROKEN"), TradingEnabled: true}}

	m := NewManager(context.Background(), testCapital, store, logger.NewNop())
	assert.Equal(t, ModeNormal, m.CurrentMode())
	assert.Equal(t, int64(testCapital), m.Capital())
}
