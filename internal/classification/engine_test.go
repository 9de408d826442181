package classification

import (
	"strings"
	"testing"

	"github.com/Veraticus/holdscan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEngine_Classify(t *testing.T) {
	tests := []struct {
		name    string
		holding string
		want    model.TaxonomyPath
	}{
		{name: "hang seng healthcare beats generic hang seng", holding: "恒生医疗ETF", want: model.TaxonomyPath{"海外新兴", "海外医疗", "恒生医疗"}},
		{name: "generic hang seng", holding: "华夏恒生ETF联接A", want: model.TaxonomyPath{"海外新兴", "香港", "恒生"}},
		{name: "hang seng tech", holding: "恒生科技指数ETF", want: model.TaxonomyPath{"海外新兴", "海外科技", "恒生科技"}},
		{name: "domestic healthcare", holding: "中证医疗指数A", want: model.TaxonomyPath{"A股", "行业", "医药"}},
		{name: "special case first", holding: "兴全合润混合", want: model.TaxonomyPath{"A股", "主动基金", "混合"}},
		{name: "exact match", holding: "国投电力", want: model.TaxonomyPath{"A股", "行业", "能源"}},
		{name: "dividend with and-keyword", holding: "港股通央企红利ETF", want: model.TaxonomyPath{"海外新兴", "策略", "红利"}},
		{name: "domestic dividend", holding: "中证红利ETF", want: model.TaxonomyPath{"A股", "策略", "红利"}},
		{name: "hk brokerage", holding: "港股证券ETF", want: model.TaxonomyPath{"海外新兴", "行业", "非银"}},
		{name: "domestic brokerage", holding: "证券ETF", want: model.TaxonomyPath{"A股", "行业", "证券"}},
		{name: "csi 500", holding: "南方中证500ETF", want: model.TaxonomyPath{"A股", "中小盘", "500"}},
		{name: "csi 300", holding: "沪深300ETF", want: model.TaxonomyPath{"A股", "大盘", "300"}},
		{name: "policy bank bond", holding: "国开债指数基金", want: model.TaxonomyPath{"债券", "国内债券", "纯债"}},
		{name: "other bond", holding: "30年国债ETF", want: model.TaxonomyPath{"债券", "美债", "超长期债券"}},
		{name: "money market regex", holding: "华宝添益", want: model.TaxonomyPath{"货币", "货币", "货币"}},
		{name: "cash", holding: "现金", want: model.TaxonomyPath{"货币", "货币", "货币"}},
		{name: "global healthcare excluded from domestic", holding: "全球医疗指数", want: model.TaxonomyPath{"海外成熟", "全球", "全球医疗"}},
		{name: "default", holding: "贵州茅台", want: model.TaxonomyPath{"其他", "其他", "其他"}},
		{name: "empty name", holding: "", want: model.TaxonomyPath{"其他", "其他", "其他"}},
	}

	engine := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.Classify(tt.holding, ""))
		})
	}
}

func TestEngine_Deterministic(t *testing.T) {
	engine := Default()
	first := engine.Classify("易方达恒生医疗ETF联接", "013308")
	for range 100 {
		assert.Equal(t, first, engine.Classify("易方达恒生医疗ETF联接", "013308"))
	}
}

func TestEngine_MalformedTableFallsBack(t *testing.T) {
	rule, err := RuleSpec{Keywords: []string{"医药"}, Category: []string{"A", "B", "C"}}.Compile()
	require.NoError(t, err)

	engine, err := NewEngine([]Rule{rule})
	require.NoError(t, err)

	assert.Equal(t, model.TaxonomyPath{"A", "B", "C"}, engine.Classify("医药ETF", ""))
	assert.Equal(t, model.FallbackPath, engine.Classify("白酒ETF", ""))
}

func TestNewEngine_RejectsNilMatcher(t *testing.T) {
	_, err := NewEngine([]Rule{{Category: model.FallbackPath}})
	assert.Error(t, err)
}

func TestEngine_Trace(t *testing.T) {
	path, trace := Default().Trace("恒生医疗ETF", "")

	assert.Equal(t, model.TaxonomyPath{"海外新兴", "海外医疗", "恒生医疗"}, path)
	require.NotEmpty(t, trace)
	assert.Contains(t, trace[0], "code -")
	assert.Contains(t, trace[len(trace)-1], "海外新兴/海外医疗/恒生医疗")

	var sawExclusion bool
	for _, line := range trace {
		if strings.Contains(line, "excluded by") && strings.Contains(line, "恒生") {
			sawExclusion = true
		}
	}
	assert.True(t, sawExclusion, "domestic healthcare rule should report the exclusion")
}

func TestEngine_TraceMatchesClassify(t *testing.T) {
	engine := Default()
	for _, name := range []string{"沪深300ETF", "贵州茅台", "华宝添益", "港股通央企红利ETF"} {
		path, _ := engine.Trace(name, "")
		assert.Equal(t, engine.Classify(name, ""), path, name)
	}
}

func TestClassifyRecords(t *testing.T) {
	records := []model.Record{
		{Name: "沪深300ETF", Code: "510300"},
		{Name: "华宝添益"},
	}

	classified := ClassifyRecords(Default(), records)

	require.Len(t, classified, 2)
	assert.Equal(t, "510300", classified[0].Code)
	assert.Equal(t, model.TaxonomyPath{"A股", "大盘", "300"}, classified[0].Taxonomy)
	assert.Equal(t, "货币", classified[1].Taxonomy.Level1())
}
