package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/minho/argos/internal/engine"
	"github.com/minho/argos/pkg/logger"
)

// Broadcaster pushes progress snapshots to live subscribers
type Broadcaster interface {
	Broadcast(v interface{})
}

// ScanCycleJob drives one decision cycle per tick
// Fast 주기로 틱하고, Deep/AI 단계는 파이프라인의 주기 게이트가 알아서 스킵
type ScanCycleJob struct {
	engine   *engine.Engine
	hub      Broadcaster // nil이면 브로드캐스트 생략
	logger   *logger.Logger
	interval time.Duration
}

// NewScanCycleJob creates the scan cycle job
func NewScanCycleJob(eng *engine.Engine, hub Broadcaster, interval time.Duration, log *logger.Logger) *ScanCycleJob {
	return &ScanCycleJob{
		engine:   eng,
		hub:      hub,
		logger:   log.Component("scan-cycle"),
		interval: interval,
	}
}

// Name returns the job name
func (j *ScanCycleJob) Name() string {
	return "scan-cycle"
}

// Schedule ticks at the fast-scan cadence
func (j *ScanCycleJob) Schedule() string {
	secs := int(j.interval.Seconds())
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("@every %ds", secs)
}

// Run executes one decision cycle
// 엔진이 실패를 삼키므로 이 작업은 실패하지 않음
func (j *ScanCycleJob) Run(ctx context.Context) error {
	approved := j.engine.RunCycle(ctx)

	if len(approved) > 0 {
		codes := make([]string, 0, len(approved))
		for _, a := range approved {
			codes = append(codes, a.Code)
		}
		j.logger.WithField("codes", codes).Info("Cycle approved candidates")
	}

	if j.hub != nil {
		j.hub.Broadcast(j.engine.Progress())
	}

	return nil
}
