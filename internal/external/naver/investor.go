package naver

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/minho/argos/internal/contracts"
)

// dailyFlow is one parsed row of the investor trading table
type dailyFlow struct {
	Date             time.Time
	InstitutionalNet int64
	ForeignNet       int64
}

// GetInvestorFlow returns the most recent day's institutional/foreign net buying
// 외국인/기관 매매 페이지 첫 페이지만 조회 (최신 행이 맨 위)
func (c *Client) GetInvestorFlow(ctx context.Context, code string) (*contracts.InvestorFlow, error) {
	html, err := c.fetchHTML(ctx, fmt.Sprintf("/item/frgn.naver?code=%s&page=1", code))
	if err != nil {
		return nil, err
	}

	flows, err := parseInvestorHTML(html)
	if err != nil {
		return nil, err
	}
	if len(flows) == 0 {
		return nil, fmt.Errorf("no investor flow rows for %s", code)
	}

	latest := flows[0]
	c.logger.WithFields(map[string]interface{}{
		"code": code,
		"date": latest.Date.Format("2006-01-02"),
	}).Debug("Fetched investor flow from Naver")

	return &contracts.InvestorFlow{
		InstitutionalNet: latest.InstitutionalNet,
		ForeignNet:       latest.ForeignNet,
	}, nil
}

var investorDateRe = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}$`)

// parseInvestorHTML parses the investor trading table, newest row first
// Naver Finance HTML 구조: 두번째 type2 테이블이 데이터 테이블
// 컬럼: 날짜 | 종가 | 대비 | 등락률 | 거래량 | 기관 | 외국인
func parseInvestorHTML(html string) ([]dailyFlow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	tables := doc.Find("table.type2")
	if tables.Length() < 2 {
		return nil, fmt.Errorf("investor table not found")
	}

	var flows []dailyFlow

	tables.Eq(1).Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		if !investorDateRe.MatchString(dateText) {
			return
		}

		date, err := time.Parse("2006.01.02", dateText)
		if err != nil {
			return
		}

		flows = append(flows, dailyFlow{
			Date:             date,
			InstitutionalNet: parseSignedNum(cells.Eq(5).Text()),
			ForeignNet:       parseSignedNum(cells.Eq(6).Text()),
		})
	})

	return flows, nil
}

// parseSignedNum parses "+50,000" / "-1,234" style cell values
func parseSignedNum(s string) int64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "+", "")
	if s == "" || s == "-" {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
