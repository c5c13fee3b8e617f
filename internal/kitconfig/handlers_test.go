package kitconfig

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/hsd87/JerseyAI-sub001/internal/pricing"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	return NewHandler(HandlerConfig{
		Service:   newService(t, nil),
		Formatter: pricing.NewFormatter("$"),
		Logger:    zerolog.Nop(),
	})
}

func TestConfigureEndpoint(t *testing.T) {
	handler := newTestHandler(t)
	body := `{"selections":[{"sku":"SOC-JER-01","quantity":10}],"isSubscriber":false}`
	req := httptest.NewRequest(http.MethodPost, "/api/kit-config/configure", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Configure(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ConfigureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	require.Equal(t, int32(1000), resp.Result.Breakdown.TierDiscountBps)
	require.Equal(t, "$450.00", resp.Formatted.BaseTotal)
}

func TestConfigureEndpointFailures(t *testing.T) {
	handler := newTestHandler(t)
	cases := []string{
		`{"selections":[{"sku":"NOPE","quantity":1}]}`,
		`{"selections":[{"sku":"BBL-JER-01","quantity":1}]}`,
		`{"selections":[]}`,
		`{"selections":[{"sku":"SOC-JER-01","quantity":0}]}`,
		`broken`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/kit-config/configure", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Configure(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, body)

		var resp ConfigureResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.False(t, resp.Success, body)
		require.NotEmpty(t, resp.Error)
	}
}

func TestSportsEndpoint(t *testing.T) {
	handler := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/kit-config/sports", nil)
	rec := httptest.NewRecorder()
	handler.Sports(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []Sport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	require.Equal(t, "soccer", resp.Data[0].ID)
}
