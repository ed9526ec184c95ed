package scoring

import (
	"math"

	"github.com/minho/argos/internal/contracts"
)

// Scorer computes the 440-point composite score for a candidate
// ⭐ SSOT: 종합 점수 계산은 여기서만
// 모든 기준 함수는 순수 함수: 입력이 비어 있어도 에러 없이 낮은 점수 반환
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the full breakdown for one candidate
// 불변식: 0 <= Total <= 440, Total == 부분 점수 합
func (s *Scorer) Score(c *contracts.Candidate) contracts.ScoreBreakdown {
	b := contracts.ScoreBreakdown{
		VolumeSurge:        s.volumeSurgeScore(c),
		PriceMomentum:      s.priceMomentumScore(c),
		Institutional:      s.institutionalScore(c),
		BidStrength:        s.bidStrengthScore(c),
		ExecutionIntensity: s.executionIntensityScore(c),
		BrokerActivity:     s.brokerActivityScore(c),
		ProgramTrading:     s.programTradingScore(c),
		Technical:          s.technicalScore(c),
		ThemeNews:          s.themeNewsScore(c),
		VolatilityPattern:  s.volatilityPatternScore(c),
	}

	b.Total = b.Sum()
	b.Percentage = b.Total / contracts.MaxTotalScore * 100

	return b
}

// volumeSurgeScore scores volume relative to the 20-day average (max 60)
// 평균 거래량이 없으면 절대 거래량에 비례 (750만주 = 만점)
func (s *Scorer) volumeSurgeScore(c *contracts.Candidate) float64 {
	avg := c.AvgVol()
	if avg > 0 {
		ratio := float64(c.Volume) / float64(avg)
		switch {
		case ratio >= 5:
			return contracts.MaxVolumeSurgeScore
		case ratio >= 3:
			return contracts.MaxVolumeSurgeScore * 0.75
		case ratio >= 2:
			return contracts.MaxVolumeSurgeScore * 0.50
		case ratio >= 1:
			return contracts.MaxVolumeSurgeScore * 0.25
		default:
			return 0
		}
	}

	// 평균 없음: 절대 거래량 비례
	ratio := math.Min(1.0, float64(c.Volume)/7_500_000)
	return contracts.MaxVolumeSurgeScore * ratio
}

// priceMomentumScore scores the daily change rate (max 60)
func (s *Scorer) priceMomentumScore(c *contracts.Candidate) float64 {
	switch {
	case c.ChangeRate >= 10:
		return contracts.MaxPriceMomentumScore
	case c.ChangeRate >= 7:
		return contracts.MaxPriceMomentumScore * 0.75
	case c.ChangeRate >= 5:
		return contracts.MaxPriceMomentumScore * 0.50
	case c.ChangeRate >= 3:
		return contracts.MaxPriceMomentumScore * 0.25
	case c.ChangeRate > 0:
		return contracts.MaxPriceMomentumScore * 0.10
	default:
		return 0
	}
}

// institutionalScore scores combined institutional + foreign net buying (max 60)
// 기관과 외국인이 동반 순매수면 가산
func (s *Scorer) institutionalScore(c *contracts.Candidate) float64 {
	inst := c.InstNet()
	foreign := c.ForeignNet()
	combined := inst + foreign

	var score float64
	switch {
	case combined >= 1_000_000_000: // 10억 이상
		score = 50
	case combined >= 500_000_000:
		score = 40
	case combined >= 100_000_000:
		score = 25
	case combined > 0:
		score = 10
	default:
		return 0
	}

	if inst > 0 && foreign > 0 {
		score += 10
	}

	return math.Min(score, contracts.MaxInstitutionalScore)
}

// bidStrengthScore scores bid/ask depth ratio (max 40)
func (s *Scorer) bidStrengthScore(c *contracts.Candidate) float64 {
	ratio := c.BidAsk()
	switch {
	case ratio >= 2.0:
		return contracts.MaxBidStrengthScore
	case ratio >= 1.5:
		return contracts.MaxBidStrengthScore * 0.75
	case ratio >= 1.2:
		return contracts.MaxBidStrengthScore * 0.50
	case ratio >= 1.0:
		return contracts.MaxBidStrengthScore * 0.25
	default:
		return 0
	}
}

// executionIntensityScore scores 체결강도 (max 40)
// 100 초과 = 매수 우위
func (s *Scorer) executionIntensityScore(c *contracts.Candidate) float64 {
	intensity := c.ExecIntensity()
	switch {
	case intensity >= 150:
		return contracts.MaxExecIntensityScore
	case intensity >= 130:
		return contracts.MaxExecIntensityScore * 0.75
	case intensity >= 110:
		return contracts.MaxExecIntensityScore * 0.50
	case intensity >= 100:
		return contracts.MaxExecIntensityScore * 0.25
	default:
		return 0
	}
}

// brokerActivityScore scores top member-firm activity (max 40)
func (s *Scorer) brokerActivityScore(c *contracts.Candidate) float64 {
	var score float64

	switch count := c.BrokerBuyCount(); {
	case count >= 4:
		score += 25
	case count == 3:
		score += 20
	case count == 2:
		score += 10
	case count == 1:
		score += 5
	}

	switch net := c.BrokerNet(); {
	case net >= 100_000:
		score += 15
	case net > 0:
		score += 10
	}

	return math.Min(score, contracts.MaxBrokerActivityScore)
}

// programTradingScore scores 프로그램 순매수 (max 40)
func (s *Scorer) programTradingScore(c *contracts.Candidate) float64 {
	net := c.ProgramNet()
	switch {
	case net >= 1_000_000_000:
		return contracts.MaxProgramTradingScore
	case net >= 500_000_000:
		return contracts.MaxProgramTradingScore * 0.75
	case net >= 100_000_000:
		return contracts.MaxProgramTradingScore * 0.50
	case net > 0:
		return contracts.MaxProgramTradingScore * 0.25
	default:
		return 0
	}
}

// technicalScore is a composite technical posture (max 40)
// 상승 추세 + 매수 우위 + 호가 우위의 동반 여부
func (s *Scorer) technicalScore(c *contracts.Candidate) float64 {
	var score float64

	if c.ChangeRate >= 3 {
		score += 15
	} else if c.ChangeRate > 0 {
		score += 5
	}

	if c.ExecIntensity() >= 100 {
		score += 10
	}

	if c.BidAsk() >= 1.0 {
		score += 10
	}

	if avg := c.AvgVol(); avg > 0 && c.Volume >= avg {
		score += 5
	}

	return math.Min(score, contracts.MaxTechnicalScore)
}

// themeNewsScore detects the theme-stock pattern (max 40)
// 급등 + 거래 폭증 동반 시 테마 가능성
func (s *Scorer) themeNewsScore(c *contracts.Candidate) float64 {
	ratio := 0.0
	if avg := c.AvgVol(); avg > 0 {
		ratio = float64(c.Volume) / float64(avg)
	} else if c.Volume >= 5_000_000 {
		// 평균 없음: 절대 거래량으로 근사
		ratio = 2.0
	}

	switch {
	case ratio >= 3 && c.ChangeRate >= 5:
		return contracts.MaxThemeNewsScore
	case ratio >= 2 && c.ChangeRate >= 3:
		return contracts.MaxThemeNewsScore * 0.625
	case ratio >= 1.5 && c.ChangeRate > 0:
		return contracts.MaxThemeNewsScore * 0.25
	default:
		return 0
	}
}

// volatilityPatternScore scores the volatility sweet spot (max 20)
// 2~5% 일변동성이 단타에 이상적, 너무 낮거나 높으면 감점
func (s *Scorer) volatilityPatternScore(c *contracts.Candidate) float64 {
	vol := c.Vol20D()
	switch {
	case vol >= 0.02 && vol <= 0.05:
		return contracts.MaxVolatilityPatternScore
	case (vol >= 0.01 && vol < 0.02) || (vol > 0.05 && vol <= 0.07):
		return contracts.MaxVolatilityPatternScore * 0.50
	default:
		return 0
	}
}
