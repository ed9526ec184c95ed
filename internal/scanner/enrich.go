package scanner

import (
	"context"
	"math"
	"sync"

	"github.com/minho/argos/internal/contracts"
)

// 보강 병렬도. 후보별 보강은 쓰기 분리되어 있어 워커 수만 제한하면 됨.
const enrichWorkers = 4

// 창구 수급을 합산할 상위 회원사 코드 (고정 목록)
var topBrokerCodes = []string{"00017", "00030", "00043", "00064", "00071"}

// 회원사 순매수 조회 기간 (일)
const brokerLookbackDays = 5

// 일봉 조회 개수 (평균 거래량/변동성 계산용)
const dailyBarCount = 20

// enrichAll runs per-candidate enrichment through a bounded worker pool
// 각 후보는 자신을 담당하는 워커만 변경 (single-writer)
func (p *Pipeline) enrichAll(ctx context.Context, candidates []*contracts.Candidate) {
	sem := make(chan struct{}, enrichWorkers)
	var wg sync.WaitGroup

	for _, c := range candidates {
		wg.Add(1)
		sem <- struct{}{}
		go func(c *contracts.Candidate) {
			defer wg.Done()
			defer func() { <-sem }()
			p.enrich(ctx, c)
		}(c)
	}

	wg.Wait()
}

// enrich populates all deep-scan fields for one candidate
// 개별 조회 실패는 해당 필드를 nil로 남기고 계속 (후보 탈락 없음)
func (p *Pipeline) enrich(ctx context.Context, c *contracts.Candidate) {
	p.enrichInvestorFlow(ctx, c)
	p.enrichOrderBook(ctx, c)
	p.enrichDailyStats(ctx, c)
	p.enrichBrokerNetBuy(ctx, c)
	p.enrichExecutionIntensity(ctx, c)
	p.enrichProgramNetBuy(ctx, c)
}

func (p *Pipeline) enrichInvestorFlow(ctx context.Context, c *contracts.Candidate) {
	flow, err := p.market.GetInvestorFlow(ctx, c.Code)
	if err != nil {
		p.logger.WithError(err).WithField("code", c.Code).Debug("Investor flow fetch failed, defaulting to zero")
		return
	}

	c.InstitutionalNetBuy = &flow.InstitutionalNet
	c.ForeignNetBuy = &flow.ForeignNet
}

func (p *Pipeline) enrichOrderBook(ctx context.Context, c *contracts.Candidate) {
	book, err := p.market.GetOrderBook(ctx, c.Code)
	if err != nil {
		p.logger.WithError(err).WithField("code", c.Code).Debug("Order book fetch failed, defaulting to zero")
		return
	}

	if book.AskTotal > 0 {
		ratio := float64(book.BidTotal) / float64(book.AskTotal)
		c.BidAskRatio = &ratio
	}
}

// enrichDailyStats computes 20-day average volume and return volatility
func (p *Pipeline) enrichDailyStats(ctx context.Context, c *contracts.Candidate) {
	bars, err := p.market.GetDailyBars(ctx, c.Code, dailyBarCount)
	if err != nil || len(bars) == 0 {
		if err != nil {
			p.logger.WithError(err).WithField("code", c.Code).Debug("Daily bars fetch failed, defaulting to zero")
		}
		return
	}

	var volSum int64
	for _, b := range bars {
		volSum += b.Volume
	}
	avg := volSum / int64(len(bars))
	c.AvgVolume = &avg

	// 종가 수익률 표준편차
	if len(bars) >= 2 {
		returns := make([]float64, 0, len(bars)-1)
		for i := 1; i < len(bars); i++ {
			if bars[i-1].Close > 0 {
				returns = append(returns, bars[i].Close/bars[i-1].Close-1)
			}
		}
		if vol := stdev(returns); vol > 0 {
			c.Volatility = &vol
		}
	}
}

// enrichBrokerNetBuy sums net buying across the fixed top broker list
// 일부 회원사 조회 실패는 그 회원사만 0으로 취급
func (p *Pipeline) enrichBrokerNetBuy(ctx context.Context, c *contracts.Candidate) {
	var total int64
	buyCount := 0
	fetched := false

	for _, broker := range topBrokerCodes {
		net, err := p.market.GetBrokerNetBuy(ctx, broker, c.Code, brokerLookbackDays)
		if err != nil {
			p.logger.WithError(err).WithFields(map[string]interface{}{
				"code":   c.Code,
				"broker": broker,
			}).Debug("Broker net buy fetch failed, treating as zero")
			continue
		}
		fetched = true
		total += net
		if net > 0 {
			buyCount++
		}
	}

	if fetched {
		c.TopBrokerNetBuy = &total
		c.TopBrokerBuyCount = &buyCount
	}
}

// enrichExecutionIntensity goes through the enrichment cache (TTL 내 재호출 방지)
func (p *Pipeline) enrichExecutionIntensity(ctx context.Context, c *contracts.Candidate) {
	key := execIntensityKey(c.Code)
	if v, ok := p.cache.Get(key); ok {
		intensity := v.(float64)
		c.ExecutionIntensity = &intensity
		return
	}

	intensity, err := p.market.GetExecutionIntensity(ctx, c.Code)
	if err != nil {
		p.logger.WithError(err).WithField("code", c.Code).Debug("Execution intensity fetch failed, defaulting to zero")
		return
	}

	p.cache.Put(key, intensity)
	c.ExecutionIntensity = &intensity
}

// enrichProgramNetBuy goes through the enrichment cache
func (p *Pipeline) enrichProgramNetBuy(ctx context.Context, c *contracts.Candidate) {
	key := programNetBuyKey(c.Code)
	if v, ok := p.cache.Get(key); ok {
		net := v.(int64)
		c.ProgramNetBuy = &net
		return
	}

	net, err := p.market.GetProgramNetBuy(ctx, c.Code)
	if err != nil {
		p.logger.WithError(err).WithField("code", c.Code).Debug("Program net buy fetch failed, defaulting to zero")
		return
	}

	p.cache.Put(key, net)
	c.ProgramNetBuy = &net
}

// stdev returns the sample standard deviation
func stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}

	return math.Sqrt(sumSq / float64(len(values)-1))
}
