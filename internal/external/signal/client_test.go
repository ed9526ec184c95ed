package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minho/argos/internal/contracts"
	"github.com/minho/argos/pkg/config"
	"github.com/minho/argos/pkg/logger"
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.SignalConfig{
		BaseURL: serverURL,
		Timeout: 5 * time.Second,
	}, logger.NewNop())
}

func TestClient_Analyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/analyze", r.URL.Path)

		var req analyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "005930", req.Candidate.Code)
		assert.Equal(t, "NORMAL", req.Portfolio.Mode)

		json.NewEncoder(w).Encode(analyzeResponse{
			Signal:     "buy",
			Confidence: "high",
			Score:      8.5,
			Reasons:    []string{"institutional accumulation"},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	opinion, err := c.Analyze(context.Background(),
		&contracts.Candidate{Code: "005930", Price: 72_000},
		&contracts.ScoreBreakdown{Total: 300},
		contracts.PortfolioContext{Mode: "NORMAL"},
	)
	require.NoError(t, err)

	assert.Equal(t, contracts.SignalBuy, opinion.Signal)
	assert.Equal(t, contracts.ConfidenceHigh, opinion.Confidence)
	assert.InDelta(t, 8.5, opinion.Score, 1e-9)
	assert.Equal(t, []string{"institutional accumulation"}, opinion.Reasons)
}

func TestClient_Analyze_RejectsMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		resp analyzeResponse
	}{
		{"unknown signal", analyzeResponse{Signal: "yolo", Confidence: "high", Score: 8}},
		{"unknown confidence", analyzeResponse{Signal: "buy", Confidence: "certain", Score: 8}},
		{"score out of range", analyzeResponse{Signal: "buy", Confidence: "high", Score: 11}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				json.NewEncoder(w).Encode(tt.resp)
			}))
			defer server.Close()

			c := newTestClient(server.URL)
			_, err := c.Analyze(context.Background(), &contracts.Candidate{Code: "A"}, nil, contracts.PortfolioContext{})
			assert.Error(t, err)
		})
	}
}

func TestClient_Analyze_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.Analyze(context.Background(), &contracts.Candidate{Code: "A"}, nil, contracts.PortfolioContext{})
	assert.Error(t, err)
}
