package naver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInvestorHTML(t *testing.T) {
	sampleHTML := `
		<html>
		<body>
		<table class="type2">
			<tr><th>Header</th></tr>
		</table>
		<table class="type2">
			<tr>
				<td>2026.08.28</td>
				<td>72,500</td>
				<td>+500</td>
				<td>+0.69%</td>
				<td>1,000,000</td>
				<td>+50,000</td>
				<td>-30,000</td>
			</tr>
			<tr>
				<td>2026.08.27</td>
				<td>73,000</td>
				<td>+500</td>
				<td>+0.69%</td>
				<td>1,200,000</td>
				<td>+60,000</td>
				<td>+40,000</td>
			</tr>
			<tr>
				<td>invalid date</td>
				<td>73,000</td>
			</tr>
		</table>
		</body>
		</html>
	`

	flows, err := parseInvestorHTML(sampleHTML)
	require.NoError(t, err)
	require.Len(t, flows, 2)

	// 첫 행이 최신 거래일
	assert.Equal(t, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), flows[0].Date)
	assert.Equal(t, int64(50_000), flows[0].InstitutionalNet)
	assert.Equal(t, int64(-30_000), flows[0].ForeignNet)

	assert.Equal(t, int64(60_000), flows[1].InstitutionalNet)
	assert.Equal(t, int64(40_000), flows[1].ForeignNet)
}

func TestParseInvestorHTML_NoTables(t *testing.T) {
	_, err := parseInvestorHTML("<html><body></body></html>")
	assert.Error(t, err)
}

func TestParseSignedNum(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"+50,000", 50_000},
		{"-1,234", -1_234},
		{"0", 0},
		{"", 0},
		{"-", 0},
		{" +7 ", 7},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseSignedNum(tt.in), "input %q", tt.in)
	}
}
