package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/holdscan/internal/classification"
	"github.com/Veraticus/holdscan/internal/config"
	"github.com/Veraticus/holdscan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, maxBody int64) *httptest.Server {
	t.Helper()
	cfg := config.ServerConfig{MaxBodyBytes: maxBody}
	srv := NewServer(classification.Default(), cfg, WithClock(func() time.Time { return fixedNow }), WithWorkers(2))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, 0)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestScan(t *testing.T) {
	ts := newTestServer(t, 0)
	body := `{
		"classify": true,
		"pages": [
			{"name": "fund.png", "lines": ["筛选", "沪深300ETF（510300）", "持有份额", "参考净值", "资产情况", "1,000.00", "1.2345", "1234.50"]},
			{"name": "blank.png", "lines": ["hello"]}
		]
	}`

	resp, decoded := post(t, ts, "/v1/scan", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "2024-03-01 09:30:00", decoded["timestamp"])
	assert.Equal(t, []any{"fund.png"}, decoded["sources"])
	assert.Equal(t, map[string]any{"total_count": 1.0, "fund_e_count": 1.0}, decoded["summary"])

	data := decoded["data"].([]any)
	require.Len(t, data, 1)
	rec := data[0].(map[string]any)
	assert.Equal(t, "沪深300ETF", rec["name"])
	assert.Equal(t, "510300", rec["code"])
	assert.Equal(t, "fund_e", rec["source_type"])

	classified := decoded["classified"].([]any)
	require.Len(t, classified, 1)
	assert.Equal(t, []any{"A股", "大盘", "300"}, classified[0].(map[string]any)["taxonomy"])
}

func TestScan_Errors(t *testing.T) {
	ts := newTestServer(t, 256)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "no pages", body: `{"pages": []}`, status: http.StatusBadRequest},
		{name: "unknown channel", body: `{"channel": "nasdaq", "pages": [{"lines": ["x"]}]}`, status: http.StatusBadRequest},
		{name: "malformed json", body: `{"pages": [`, status: http.StatusBadRequest},
		{name: "unknown field", body: `{"images": []}`, status: http.StatusBadRequest},
		{name: "empty body", body: ``, status: http.StatusBadRequest},
		{name: "too large", body: `{"pages": [{"lines": ["` + strings.Repeat("x", 512) + `"]}]}`, status: http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, decoded := post(t, ts, "/v1/scan", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, decoded["error"])
		})
	}
}

func TestClassify(t *testing.T) {
	ts := newTestServer(t, 0)

	resp, decoded := post(t, ts, "/v1/classify", `{"holdings": [{"name": " 恒生医疗ETF "}, {"name": "贵州茅台", "code": "600519"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	results := decoded["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Equal(t, "恒生医疗ETF", first["name"])
	assert.Equal(t, "海外新兴/海外医疗/恒生医疗", first["path"])
	assert.Nil(t, first["trace"])
	assert.Equal(t, "其他/其他/其他", results[1].(map[string]any)["path"])
}

func TestClassify_Verbose(t *testing.T) {
	ts := newTestServer(t, 0)

	resp, decoded := post(t, ts, "/v1/classify", `{"verbose": true, "holdings": [{"name": "恒生医疗ETF"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decoded["results"].([]any)[0].(map[string]any)
	trace := result["trace"].([]any)
	require.NotEmpty(t, trace)
	assert.Contains(t, trace[0], "恒生医疗ETF")
	assert.Contains(t, trace[len(trace)-1], "海外新兴/海外医疗/恒生医疗")
}

func TestClassify_RequiresHoldings(t *testing.T) {
	ts := newTestServer(t, 0)

	resp, decoded := post(t, ts, "/v1/classify", `{"holdings": []}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "at least one holding is required", decoded["error"])
}

func TestRules(t *testing.T) {
	ts := newTestServer(t, 0)

	resp, err := http.Get(ts.URL + "/v1/rules")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var file classification.RuleFile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&file))
	assert.Len(t, file.Rules, len(classification.DefaultRuleSpecs()))
	assert.True(t, file.Rules[len(file.Rules)-1].Default)
}

func TestNotFoundAndMethod(t *testing.T) {
	ts := newTestServer(t, 0)

	resp, err := http.Get(ts.URL + "/v1/nothing")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/v1/scan")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ServerConfig
	}{
		{"http", config.ServerConfig{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}},
		{"https", config.ServerConfig{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second, TLS: true, CertDir: t.TempDir()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertStopsOnCancel(t, NewServer(classification.Default(), tt.cfg))
		})
	}
}

func assertStopsOnCancel(t *testing.T, srv *Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestScanResponse_MarshalsResultInline(t *testing.T) {
	rec := model.Record{Name: "x", SourceType: model.ChannelHuabao}
	data, err := json.Marshal(scanResponse{Result: newResultWith(rec)})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"data":[{"name":"x","source_type":"huabao"}]`)
	assert.NotContains(t, string(data), "classified")
}
