package contracts

// Sub-score caps. 합계 440점 만점.
const (
	MaxVolumeSurgeScore       = 60.0
	MaxPriceMomentumScore     = 60.0
	MaxInstitutionalScore     = 60.0
	MaxBidStrengthScore       = 40.0
	MaxExecIntensityScore     = 40.0
	MaxBrokerActivityScore    = 40.0
	MaxProgramTradingScore    = 40.0
	MaxTechnicalScore         = 40.0
	MaxThemeNewsScore         = 40.0
	MaxVolatilityPatternScore = 20.0

	MaxTotalScore = 440.0
)

// ScoreBreakdown is the immutable result of scoring one Candidate
// 불변식: 0 <= Total <= 440, Total == 10개 부분 점수의 합
type ScoreBreakdown struct {
	VolumeSurge        float64 `json:"volume_surge"`        // max 60
	PriceMomentum      float64 `json:"price_momentum"`      // max 60
	Institutional      float64 `json:"institutional"`       // max 60
	BidStrength        float64 `json:"bid_strength"`        // max 40
	ExecutionIntensity float64 `json:"execution_intensity"` // max 40
	BrokerActivity     float64 `json:"broker_activity"`     // max 40
	ProgramTrading     float64 `json:"program_trading"`     // max 40
	Technical          float64 `json:"technical"`           // max 40
	ThemeNews          float64 `json:"theme_news"`          // max 40
	VolatilityPattern  float64 `json:"volatility_pattern"`  // max 20

	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"` // Total / 440 * 100
}

// Sum returns the sum of the ten sub-scores
func (b *ScoreBreakdown) Sum() float64 {
	return b.VolumeSurge +
		b.PriceMomentum +
		b.Institutional +
		b.BidStrength +
		b.ExecutionIntensity +
		b.BrokerActivity +
		b.ProgramTrading +
		b.Technical +
		b.ThemeNews +
		b.VolatilityPattern
}
