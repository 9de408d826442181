package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/holdscan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }

func fundPage(name string) model.Page {
	return model.Page{Name: name, Tokens: model.TextTokens([]string{
		"基金e账户", "筛选", "基金A（000001）", "持有份额", "参考净值", "资产情况", "1,000.00", "1.2345", "1234.50",
	})}
}

func huabaoPage(name string) model.Page {
	return model.Page{Name: name, Tokens: model.TextTokens([]string{
		"华宝证券", "证券/市值", "成本/现价",
		"贵州茅台", "1500.00", "100", "20000.00", "600519.SH", "12.34%", "1700.00", "100", "13.33%", "170000.00",
	})}
}

func noisePage(name string) model.Page {
	return model.Page{Name: name, Tokens: model.TextTokens([]string{"你好", "世界"})}
}

func TestProcessPage_Detects(t *testing.T) {
	res, err := ProcessPage(fundPage("a.txt"), model.ChannelAuto)
	require.NoError(t, err)

	assert.Equal(t, model.ChannelFundE, res.Channel)
	require.Len(t, res.Records, 1)
	assert.Equal(t, model.ChannelFundE, res.Records[0].SourceType)
	assert.Equal(t, "基金A", res.Records[0].Name)
}

func TestProcessPage_Override(t *testing.T) {
	res, err := ProcessPage(fundPage("a.txt"), model.ChannelHuabao)
	require.NoError(t, err)
	assert.Equal(t, model.ChannelHuabao, res.Channel)
	assert.Empty(t, res.Records)

	_, err = ProcessPage(fundPage("a.txt"), model.ChannelOFX)
	assert.Error(t, err)
}

func TestProcessPage_Undetermined(t *testing.T) {
	res, err := ProcessPage(noisePage("x.txt"), model.ChannelAuto)
	require.NoError(t, err)
	assert.Equal(t, model.ChannelUndetermined, res.Channel)
	assert.Empty(t, res.Records)
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(orig) })
	return &buf
}

func TestProcessPage_HaitongWithoutGeometry(t *testing.T) {
	tests := []struct {
		name     string
		tokens   []model.Token
		wantWarn bool
	}{
		{
			name:     "text dump",
			tokens:   model.TextTokens([]string{"海通证券", "当前持仓", "招商银行"}),
			wantWarn: true,
		},
		{
			name: "boxed tokens",
			tokens: []model.Token{{
				Text: "海通证券",
				Box:  model.Polygon{{X: 0, Y: 0}, {X: 80, Y: 0}, {X: 80, Y: 20}, {X: 0, Y: 20}},
			}},
			wantWarn: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)

			res, err := ProcessPage(model.Page{Name: "ht.txt", Tokens: tt.tokens}, model.ChannelHaitong)
			require.NoError(t, err)
			assert.Equal(t, model.ChannelHaitong, res.Channel)
			assert.Empty(t, res.Records)

			if tt.wantWarn {
				assert.Contains(t, logs.String(), "Haitong layout needs token boxes")
				assert.Contains(t, logs.String(), "page=ht.txt")
			} else {
				assert.NotContains(t, logs.String(), "Haitong layout needs token boxes")
			}
		})
	}
}

func TestProcess_Batch(t *testing.T) {
	pages := []model.Page{fundPage("1.txt"), noisePage("2.txt"), huabaoPage("3.txt"), fundPage("4.txt")}

	var mu sync.Mutex
	var calls []int
	opts := Options{
		Channel: model.ChannelAuto,
		Workers: 3,
		Now:     fixedNow,
		Progress: func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 4, total)
			calls = append(calls, done)
		},
	}

	result, err := Process(context.Background(), pages, opts)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01 09:30:00", result.Timestamp)
	assert.Equal(t, []string{"1.txt", "3.txt", "4.txt"}, result.Sources)
	require.Len(t, result.Data, 3)
	assert.Equal(t, model.ChannelFundE, result.Data[0].SourceType)
	assert.Equal(t, model.ChannelHuabao, result.Data[1].SourceType)
	assert.Equal(t, 3, result.Summary.TotalCount)
	assert.Equal(t, map[model.Channel]int{model.ChannelFundE: 2, model.ChannelHuabao: 1}, result.Summary.BySource)
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, calls)
}

func TestProcess_Deterministic(t *testing.T) {
	pages := []model.Page{huabaoPage("1"), fundPage("2"), huabaoPage("3")}
	opts := Options{Channel: model.ChannelAuto, Workers: 8, Now: fixedNow}

	first, err := Process(context.Background(), pages, opts)
	require.NoError(t, err)
	second, err := Process(context.Background(), pages, opts)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestProcess_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Process(ctx, []model.Page{fundPage("1")}, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcess_Empty(t *testing.T) {
	result, err := Process(context.Background(), nil, Options{Now: fixedNow})
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":"2024-03-01 09:30:00","data":[],"sources":[],"summary":{"total_count":0}}`, string(data))
}

func TestSummary_JSON(t *testing.T) {
	s := Summarize([]model.Record{
		{Name: "a", SourceType: model.ChannelHaitong},
		{Name: "b", SourceType: model.ChannelHaitong},
		{Name: "c", SourceType: model.ChannelFundE},
	})

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_count":3,"haitong_count":2,"fund_e_count":1}`, string(data))

	var decoded Summary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s, decoded)
	assert.Equal(t, []model.Channel{model.ChannelFundE, model.ChannelHaitong}, decoded.Channels())
}

func TestResult_FileRoundTrip(t *testing.T) {
	result, err := Process(context.Background(), []model.Page{huabaoPage("shot.json")}, Options{Now: fixedNow})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, result.WriteFile(path))

	loaded, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, result, loaded)
}

func TestReadFile_WithoutSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	result := NewResult(fixedNow())
	result.Data = []model.Record{{Name: "a", SourceType: model.ChannelHuabao}}
	data, err := json.Marshal(struct {
		Data []model.Record `json:"data"`
	}{result.Data})
	require.NoError(t, err)
	require.NoError(t, writeRaw(path, data))

	loaded, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Summary.TotalCount)
	assert.Equal(t, 1, loaded.Summary.BySource[model.ChannelHuabao])
}

func writeRaw(path string, data []byte) error {
	return os.WriteFile(path, data, 0o600)
}
