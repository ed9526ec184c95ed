package kis

import (
	"context"
	"fmt"

	"github.com/minho/argos/internal/contracts"
)

// KIS 클라이언트는 파이프라인의 시세 소스로 그대로 꽂힌다
var _ contracts.MarketDataSource = (*Client)(nil)

// =============================================================================
// Ranked Universe
// =============================================================================

// ListRanked pulls the volume-ranked universe and applies the given filters
// KIS 순위 API는 서버측 필터가 빈약해 가격/등락률 필터는 클라이언트에서 적용
func (c *Client) ListRanked(ctx context.Context, filters contracts.QuoteFilters) ([]contracts.RawQuote, error) {
	path := "/uapi/domestic-stock/v1/quotations/volume-rank" +
		"?FID_COND_MRKT_DIV_CODE=J&FID_COND_SCR_DIV_CODE=20171" +
		"&FID_INPUT_ISCD=0000&FID_DIV_CLS_CODE=0&FID_BLNG_CLS_CODE=0" +
		"&FID_TRGT_CLS_CODE=111111111&FID_TRGT_EXLS_CLS_CODE=000000" +
		"&FID_INPUT_PRICE_1=&FID_INPUT_PRICE_2=&FID_VOL_CNT=&FID_INPUT_DATE_1="
	trID := "FHPST01710000" // 거래량 순위

	var result struct {
		responseHeader
		Output []struct {
			Code       string `json:"mksc_shrn_iscd"`
			Name       string `json:"hts_kor_isnm"`
			Price      string `json:"stck_prpr"`
			ChangeRate string `json:"prdy_ctrt"`
			Volume     string `json:"acml_vol"`
		} `json:"output"`
	}

	if err := c.get(ctx, path, trID, &result); err != nil {
		return nil, err
	}
	if err := result.check(); err != nil {
		return nil, err
	}

	quotes := make([]contracts.RawQuote, 0, len(result.Output))
	for _, row := range result.Output {
		q := contracts.RawQuote{
			Code:       row.Code,
			Name:       row.Name,
			Price:      parseF(row.Price),
			Volume:     parseI(row.Volume),
			ChangeRate: parseF(row.ChangeRate),
		}

		if filters.MinPrice > 0 && q.Price < filters.MinPrice {
			continue
		}
		if filters.MaxPrice > 0 && q.Price > filters.MaxPrice {
			continue
		}
		if filters.MinVolume > 0 && q.Volume < filters.MinVolume {
			continue
		}
		if filters.MinChangeRate != 0 && q.ChangeRate < filters.MinChangeRate {
			continue
		}
		if filters.MaxChangeRate != 0 && q.ChangeRate > filters.MaxChangeRate {
			continue
		}

		quotes = append(quotes, q)
		if filters.Limit > 0 && len(quotes) >= filters.Limit {
			break
		}
	}

	return quotes, nil
}

// =============================================================================
// Enrichment Sources
// =============================================================================

// GetInvestorFlow returns today's institutional/foreign net buying value
func (c *Client) GetInvestorFlow(ctx context.Context, code string) (*contracts.InvestorFlow, error) {
	path := fmt.Sprintf(
		"/uapi/domestic-stock/v1/quotations/inquire-investor?FID_COND_MRKT_DIV_CODE=J&FID_INPUT_ISCD=%s", code)
	trID := "FHKST01010900" // 주식현재가 투자자

	var result struct {
		responseHeader
		Output []struct {
			InstitutionalNet string `json:"orgn_ntby_tr_pbmn"`
			ForeignNet       string `json:"frgn_ntby_tr_pbmn"`
		} `json:"output"`
	}

	if err := c.get(ctx, path, trID, &result); err != nil {
		return nil, err
	}
	if err := result.check(); err != nil {
		return nil, err
	}
	if len(result.Output) == 0 {
		return nil, fmt.Errorf("no investor data for %s", code)
	}

	// 첫 행이 최근 거래일
	row := result.Output[0]
	return &contracts.InvestorFlow{
		InstitutionalNet: parseI(row.InstitutionalNet),
		ForeignNet:       parseI(row.ForeignNet),
	}, nil
}

// GetOrderBook returns the aggregate bid/ask depth
func (c *Client) GetOrderBook(ctx context.Context, code string) (*contracts.OrderBook, error) {
	path := fmt.Sprintf(
		"/uapi/domestic-stock/v1/quotations/inquire-asking-price-exp-ccn?FID_COND_MRKT_DIV_CODE=J&FID_INPUT_ISCD=%s", code)
	trID := "FHKST01010200" // 주식현재가 호가/예상체결

	var result struct {
		responseHeader
		Output1 struct {
			BidTotal string `json:"total_bidp_rsqn"`
			AskTotal string `json:"total_askp_rsqn"`
		} `json:"output1"`
	}

	if err := c.get(ctx, path, trID, &result); err != nil {
		return nil, err
	}
	if err := result.check(); err != nil {
		return nil, err
	}

	return &contracts.OrderBook{
		BidTotal: parseI(result.Output1.BidTotal),
		AskTotal: parseI(result.Output1.AskTotal),
	}, nil
}

// GetDailyBars returns up to n recent daily bars, oldest first
func (c *Client) GetDailyBars(ctx context.Context, code string, n int) ([]contracts.OHLCV, error) {
	path := fmt.Sprintf(
		"/uapi/domestic-stock/v1/quotations/inquire-daily-price?FID_COND_MRKT_DIV_CODE=J&FID_INPUT_ISCD=%s&FID_PERIOD_DIV_CODE=D&FID_ORG_ADJ_PRC=0", code)
	trID := "FHKST01010400" // 주식현재가 일자별

	var result struct {
		responseHeader
		Output []struct {
			Date   string `json:"stck_bsop_date"`
			Open   string `json:"stck_oprc"`
			High   string `json:"stck_hgpr"`
			Low    string `json:"stck_lwpr"`
			Close  string `json:"stck_clpr"`
			Volume string `json:"acml_vol"`
		} `json:"output"`
	}

	if err := c.get(ctx, path, trID, &result); err != nil {
		return nil, err
	}
	if err := result.check(); err != nil {
		return nil, err
	}

	rows := result.Output
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}

	// API는 최신순, 호출자는 과거순을 기대
	bars := make([]contracts.OHLCV, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		bars = append(bars, contracts.OHLCV{
			Date:   parseDate(row.Date),
			Open:   parseF(row.Open),
			High:   parseF(row.High),
			Low:    parseF(row.Low),
			Close:  parseF(row.Close),
			Volume: parseI(row.Volume),
		})
	}

	return bars, nil
}

// GetBrokerNetBuy returns one broker's net buying value over recent days
// KIS 회원사 API는 기간 파라미터가 없어 당일 스냅샷으로 근사
func (c *Client) GetBrokerNetBuy(ctx context.Context, brokerCode, code string, days int) (int64, error) {
	path := fmt.Sprintf(
		"/uapi/domestic-stock/v1/quotations/inquire-member?FID_COND_MRKT_DIV_CODE=J&FID_INPUT_ISCD=%s", code)
	trID := "FHKST01010600" // 주식현재가 회원사

	var result struct {
		responseHeader
		Output []struct {
			BrokerCode string `json:"mbcr_no"`
			NetBuy     string `json:"ntby_qty"`
		} `json:"output"`
	}

	if err := c.get(ctx, path, trID, &result); err != nil {
		return 0, err
	}
	if err := result.check(); err != nil {
		return 0, err
	}

	for _, row := range result.Output {
		if row.BrokerCode == brokerCode {
			return parseI(row.NetBuy), nil
		}
	}

	// 상위 목록에 없는 회원사는 순매수 0
	return 0, nil
}

// GetExecutionIntensity returns the current execution intensity (체결강도)
func (c *Client) GetExecutionIntensity(ctx context.Context, code string) (float64, error) {
	path := fmt.Sprintf(
		"/uapi/domestic-stock/v1/quotations/inquire-ccnl?FID_COND_MRKT_DIV_CODE=J&FID_INPUT_ISCD=%s", code)
	trID := "FHKST01010300" // 주식현재가 체결

	var result struct {
		responseHeader
		Output []struct {
			Intensity string `json:"tday_rltv"`
		} `json:"output"`
	}

	if err := c.get(ctx, path, trID, &result); err != nil {
		return 0, err
	}
	if err := result.check(); err != nil {
		return 0, err
	}
	if len(result.Output) == 0 {
		return 0, fmt.Errorf("no execution data for %s", code)
	}

	return parseF(result.Output[0].Intensity), nil
}

// GetProgramNetBuy returns today's program trading net buy value
func (c *Client) GetProgramNetBuy(ctx context.Context, code string) (int64, error) {
	path := fmt.Sprintf(
		"/uapi/domestic-stock/v1/quotations/program-trade-by-stock?FID_COND_MRKT_DIV_CODE=J&FID_INPUT_ISCD=%s", code)
	trID := "FHPPG04650100" // 종목별 프로그램매매

	var result struct {
		responseHeader
		Output []struct {
			NetBuyValue string `json:"whol_ntby_tr_pbmn"`
		} `json:"output"`
	}

	if err := c.get(ctx, path, trID, &result); err != nil {
		return 0, err
	}
	if err := result.check(); err != nil {
		return 0, err
	}
	if len(result.Output) == 0 {
		return 0, fmt.Errorf("no program trading data for %s", code)
	}

	return parseI(result.Output[0].NetBuyValue), nil
}
