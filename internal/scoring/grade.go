package scoring

import "github.com/minho/argos/internal/contracts"

// Grade maps a total score to a letter grade
// 만점 대비 백분율 기준: 90/80/70/60/50%
func Grade(total float64) string {
	pct := total / contracts.MaxTotalScore * 100
	switch {
	case pct >= 90:
		return "S"
	case pct >= 80:
		return "A"
	case pct >= 70:
		return "B"
	case pct >= 60:
		return "C"
	case pct >= 50:
		return "D"
	default:
		return "F"
	}
}
