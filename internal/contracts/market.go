package contracts

import (
	"context"
	"time"
)

// RawQuote is one row of the ranked quote universe
type RawQuote struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Volume     int64   `json:"volume"`
	ChangeRate float64 `json:"change_rate"` // %
}

// QuoteFilters bounds the ranked universe query
type QuoteFilters struct {
	MinPrice      float64
	MaxPrice      float64
	MinVolume     int64
	MinChangeRate float64
	MaxChangeRate float64
	Limit         int
}

// InvestorFlow is daily institutional/foreign net buying for one stock
type InvestorFlow struct {
	InstitutionalNet int64 `json:"institutional_net"`
	ForeignNet       int64 `json:"foreign_net"`
}

// OrderBook is the aggregate bid/ask depth for one stock
type OrderBook struct {
	BidTotal int64 `json:"bid_total"`
	AskTotal int64 `json:"ask_total"`
}

// OHLCV is one daily bar
type OHLCV struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// MarketDataSource is the market data collaborator consumed by the pipeline
// 각 메서드는 독립적으로 실패할 수 있고, 실패 시 해당 필드는 중립값으로 강등됨
type MarketDataSource interface {
	ListRanked(ctx context.Context, filters QuoteFilters) ([]RawQuote, error)
	GetInvestorFlow(ctx context.Context, code string) (*InvestorFlow, error)
	GetOrderBook(ctx context.Context, code string) (*OrderBook, error)
	GetDailyBars(ctx context.Context, code string, n int) ([]OHLCV, error)
	GetBrokerNetBuy(ctx context.Context, brokerCode, code string, days int) (int64, error)
	GetExecutionIntensity(ctx context.Context, code string) (float64, error)
	GetProgramNetBuy(ctx context.Context, code string) (int64, error)
}
