package contracts

import "context"

// ScanStrategy is a pluggable candidate-generation policy
// 전략은 원시 후보(코드/가격/거래량/등락률)만 내보냄
// 점수/보강/승인은 파이프라인 책임
type ScanStrategy interface {
	Name() string
	Candidates(ctx context.Context, market MarketDataSource, limit int) ([]RawQuote, error)
}
