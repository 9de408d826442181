package parser

import (
	"testing"

	"github.com/Veraticus/holdscan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// haitongFrame returns tokens that fix the image bounds to 0..1000 x 0..2000 and mark the
// holdings table between y=340 and y=1500. Column bands split at x=250, 500 and 750.
func haitongFrame() []model.Token {
	return []model.Token{
		box("海通证券", 0, 0, 100, 40),
		box("当前持仓", 0, 300, 200, 340),
		box("以上是全部", 300, 1500, 600, 1540),
		box("底部导航", 900, 1960, 1000, 2000),
	}
}

func TestParseHaitong_MergesContinuationRow(t *testing.T) {
	tokens := append(haitongFrame(),
		box("贵州茅台", 20, 400, 180, 440),
		box("100", 300, 400, 400, 440),
		box("1700.50", 550, 400, 650, 440),
		box("+1234.00", 800, 400, 950, 440),
		box("170050.00", 20, 480, 180, 520),
		box("1650.00", 550, 480, 650, 520),
		box("-4.67%", 800, 480, 950, 520),
	)

	records := ParseHaitong(tokens)

	require.Len(t, records, 1)
	assert.Equal(t, model.Record{
		Name:         "贵州茅台",
		Quantity:     f(100),
		CurrentPrice: f(1700.5),
		MarketValue:  f(170050),
		ProfitAmount: f(1234),
		ProfitRatio:  f(-0.0467),
	}, records[0])
}

func TestParseHaitong_SameRowNameAndProfit(t *testing.T) {
	tokens := append(haitongFrame(),
		box("中国平安", 20, 600, 180, 640),
		box("1,200", 300, 605, 400, 645),
		box("-88.80", 800, 610, 950, 650),
	)

	records := ParseHaitong(tokens)

	require.Len(t, records, 1)
	assert.Equal(t, "中国平安", records[0].Name)
	assert.Equal(t, f(1200), records[0].Quantity)
	assert.Equal(t, f(-88.8), records[0].ProfitAmount)
}

func TestParseHaitong_TwoPricesInOneRow(t *testing.T) {
	tokens := append(haitongFrame(),
		box("招商银行", 20, 600, 180, 640),
		box("500", 300, 600, 400, 640),
		box("35.10", 520, 600, 600, 640),
		box("33.20", 620, 600, 700, 640),
	)

	records := ParseHaitong(tokens)

	require.Len(t, records, 1)
	assert.Equal(t, f(35.1), records[0].CurrentPrice)
	assert.Equal(t, f(33.2), records[0].CostPrice)
}

func TestParseHaitong_RequiresNameAndQuantityOrValue(t *testing.T) {
	tokens := append(haitongFrame(),
		box("只有名字", 20, 600, 180, 640),
		box("12.50", 550, 600, 650, 640),
	)

	assert.Empty(t, ParseHaitong(tokens))
}

func TestParseHaitong_DiscardsRowWithBadNumber(t *testing.T) {
	tokens := append(haitongFrame(),
		box("坏数据", 20, 600, 180, 640),
		box("1.2.3", 20, 680, 180, 720),
		box("招商银行", 20, 900, 180, 940),
		box("300", 300, 900, 400, 940),
	)

	records := ParseHaitong(tokens)

	require.Len(t, records, 1)
	assert.Equal(t, "招商银行", records[0].Name)
}

func TestParseHaitong_OnlyOneRowOfLookahead(t *testing.T) {
	tokens := append(haitongFrame(),
		box("贵州茅台", 20, 600, 180, 640),
		box("100", 300, 700, 400, 740),
		box("200", 300, 800, 400, 840),
	)

	records := ParseHaitong(tokens)

	require.Len(t, records, 1)
	assert.Equal(t, f(100), records[0].Quantity)
}

func TestParseHaitong_SkipsOutsideTable(t *testing.T) {
	tokens := append(haitongFrame(),
		box("总资产", 20, 360, 180, 380),
		box("页脚股票", 20, 1600, 180, 1640),
		box("100", 300, 1600, 400, 1640),
	)

	assert.Empty(t, ParseHaitong(tokens))
}

func TestParseHaitong_DefaultAreaWithoutHeader(t *testing.T) {
	tokens := []model.Token{
		box("顶部", 0, 0, 100, 40),
		box("底部", 900, 960, 1000, 1000),
		// 30%..90% of a 1000 high image is 300..900.
		box("中国中免", 20, 500, 180, 540),
		box("1000", 300, 500, 400, 540),
		box("上方忽略", 20, 100, 180, 140),
		box("50", 300, 100, 400, 140),
	}

	records := ParseHaitong(tokens)

	require.Len(t, records, 1)
	assert.Equal(t, "中国中免", records[0].Name)
}

func TestParseHaitong_Empty(t *testing.T) {
	assert.Nil(t, ParseHaitong(nil))
}

func TestRowThreshold(t *testing.T) {
	assert.Equal(t, float64(defaultRowThreshold), rowThreshold(nil))
	assert.InDelta(t, 60.0, rowThreshold([]model.Token{box("a", 0, 0, 1, 40), box("b", 0, 0, 1, 40)}), 1e-9)
}
