package portfolio

import (
	"testing"

	"github.com/Veraticus/holdscan/internal/classification"
	"github.com/Veraticus/holdscan/internal/common"
	"github.com/Veraticus/holdscan/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(name string, value float64, source model.Channel) model.Record {
	return model.Record{Name: name, MarketValue: model.Float(value), SourceType: source}
}

func sampleRecords() []model.Record {
	return []model.Record{
		rec("沪深300ETF", 3000, model.ChannelHuabao),
		rec("南方中证500ETF", 2000, model.ChannelHuabao),
		rec("恒生医疗ETF", 1000, model.ChannelHaitong),
		rec("零碎股", 100, model.ChannelHaitong),
		{Name: "无市值", SourceType: model.ChannelFundE},
	}
}

func TestBuild(t *testing.T) {
	opts := DefaultOptions()
	opts.Cash = decimal.NewFromInt(4000)

	a, err := Build(sampleRecords(), classification.Default(), opts)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(10000).Equal(a.Total), a.Total.String())
	require.Len(t, a.Holdings, 4)
	assert.Equal(t, "现金", a.Holdings[0].Name)
	assert.Equal(t, model.ChannelCash, a.Holdings[0].Source)
	assert.Equal(t, model.TaxonomyPath{"货币", "货币", "货币"}, a.Holdings[0].Taxonomy)
	assert.Equal(t, "沪深300ETF", a.Holdings[1].Name)

	require.Len(t, a.Skipped, 2)
	assert.Equal(t, "零碎股", a.Skipped[0].Name)
	assert.Equal(t, "无市值", a.Skipped[1].Name)

	require.Len(t, a.Level1, 3)
	assert.Equal(t, "A股", a.Level1[0].Path)
	assert.True(t, decimal.NewFromInt(5000).Equal(a.Level1[0].Value))
	assert.Equal(t, 2, a.Level1[0].Count)
	assert.Equal(t, "货币", a.Level1[1].Path)
	assert.Equal(t, "海外新兴", a.Level1[2].Path)

	assert.InDelta(t, 50.0, a.Percentages["A股"], 1e-9)
	assert.InDelta(t, 30.0, a.Percentages["A股/大盘"], 1e-9)
	assert.InDelta(t, 30.0, a.Percentages["A股/大盘/300"], 1e-9)
	assert.InDelta(t, 10.0, a.Percentages["海外新兴/海外医疗/恒生医疗"], 1e-9)
	assert.Len(t, a.Percentages, 3+4+4)
}

func TestBuild_PercentagesSumToHundred(t *testing.T) {
	records := []model.Record{
		rec("沪深300ETF", 333.33, model.ChannelHuabao),
		rec("证券ETF", 333.33, model.ChannelHuabao),
		rec("华宝添益", 333.34, model.ChannelHuabao),
	}

	a, err := Build(records, classification.Default(), DefaultOptions())
	require.NoError(t, err)

	var sum float64
	for _, c := range a.Level1 {
		sum += c.Percent.InexactFloat64()
	}
	assert.InDelta(t, 100.0, sum, 0.001)
}

func TestBuild_NoHoldings(t *testing.T) {
	_, err := Build([]model.Record{rec("零碎股", 50, model.ChannelHuabao)}, classification.Default(), DefaultOptions())
	assert.ErrorIs(t, err, common.ErrNoHoldings)

	_, err = Build(nil, classification.Default(), DefaultOptions())
	assert.ErrorIs(t, err, common.ErrNoHoldings)
}

func TestBuild_CashOnly(t *testing.T) {
	opts := Options{CashName: "", Cash: decimal.NewFromInt(500)}

	a, err := Build(nil, classification.Default(), opts)
	require.NoError(t, err)
	require.Len(t, a.Holdings, 1)
	assert.Equal(t, DefaultCashName, a.Holdings[0].Name)
	assert.InDelta(t, 100.0, a.Percentages["货币"], 1e-9)
}

func TestAllocation_Members(t *testing.T) {
	a, err := Build(sampleRecords(), classification.Default(), DefaultOptions())
	require.NoError(t, err)

	members := a.Members("A股")
	require.Len(t, members, 2)
	assert.Equal(t, "沪深300ETF", members[0].Name)

	assert.Len(t, a.Members("A股/大盘/300"), 1)
	assert.Empty(t, a.Members("A"))
}
