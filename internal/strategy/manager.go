package strategy

import (
	"sync"

	"github.com/minho/argos/internal/contracts"
	"github.com/minho/argos/pkg/logger"
)

// Manager round-robins the registered scan strategies
// ⭐ SSOT: 사이클별 전략 선택은 여기서만
type Manager struct {
	mu         sync.Mutex
	strategies []contracts.ScanStrategy
	next       int
	logger     *logger.Logger
}

// NewManager creates a strategy manager with the given rotation
func NewManager(log *logger.Logger, strategies ...contracts.ScanStrategy) *Manager {
	return &Manager{
		strategies: strategies,
		logger:     log.Component("strategy"),
	}
}

// DefaultManager wires the standard three-strategy rotation
func DefaultManager(log *logger.Logger) (*Manager, *AIDirectedStrategy) {
	aiDirected := NewAIDirectedStrategy()
	m := NewManager(log,
		NewVolumeStrategy(),
		NewMomentumStrategy(),
		aiDirected,
	)
	return m, aiDirected
}

// Next returns the strategy for the upcoming cycle
func (m *Manager) Next() contracts.ScanStrategy {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.strategies) == 0 {
		return nil
	}

	strat := m.strategies[m.next]
	m.next = (m.next + 1) % len(m.strategies)

	m.logger.WithField("strategy", strat.Name()).Debug("Selected scan strategy")

	return strat
}

// Count returns the number of registered strategies
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.strategies)
}
