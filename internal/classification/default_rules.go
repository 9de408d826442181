package classification

import "sync"

// overseas markers keep domestic sector rules from claiming overseas funds.
var overseas = []string{"恒生", "海外", "全球"}

// defaultRuleSpecs is the built-in table. Order matters: the first matching rule wins, so
// specific themes sit above the broad index buckets and the default rule closes the table.
var defaultRuleSpecs = []RuleSpec{
	// Special cases matched early
	{Keywords: []string{"兴全合润", "交银施罗德定期支付双息平衡"}, MatchAny: true, Category: []string{"A股", "主动基金", "混合"}},

	// A-share sectors
	{
		Keywords: []string{"医疗", "中证医疗", "医药", "医药卫生", "大摩健康产业混合", "中证生物科技", "融通健康"},
		MatchAny: true,
		Exclude:  overseas,
		Category: []string{"A股", "行业", "医药"},
	},
	{Keywords: []string{"环保"}, Category: []string{"A股", "行业", "环保"}},
	{Keywords: []string{"养老"}, Category: []string{"A股", "行业", "养老"}},
	{
		Keywords: []string{"消费", "食品饮料", "文体娱乐"},
		MatchAny: true,
		Exclude:  overseas,
		Category: []string{"A股", "行业", "消费"},
	},
	{Keywords: []string{"信息", "信息技术"}, MatchAny: true, Category: []string{"A股", "行业", "信息"}},
	{Keywords: []string{"农业"}, Category: []string{"A股", "行业", "农业"}},

	// Energy
	{ExactMatch: []string{"国投电力", "盐湖股份", "淮北矿业"}, Category: []string{"A股", "行业", "能源"}},
	{
		Keywords: []string{"能源", "电力"},
		MatchAny: true,
		Exclude:  overseas,
		Category: []string{"A股", "行业", "能源"},
	},

	// Dividend strategies
	{Keywords: []string{"红利"}, AndKeywords: []string{"恒生", "港股", "央企"}, Category: []string{"海外新兴", "策略", "红利"}},
	{Keywords: []string{"红利"}, Exclude: []string{"恒生", "港股", "央企"}, Category: []string{"A股", "策略", "红利"}},
	{Keywords: []string{"500行业中性低波动指"}, Category: []string{"A股", "策略", "500低波动"}},

	// Hong Kong
	{Keywords: []string{"恒生科技"}, Category: []string{"海外新兴", "海外科技", "恒生科技"}},
	{Keywords: []string{"恒生医疗", "博时恒生医疗"}, MatchAny: true, Category: []string{"海外新兴", "海外医疗", "恒生医疗"}},
	{Keywords: []string{"恒生消费"}, Category: []string{"海外新兴", "香港", "恒生消费"}},
	{
		Keywords: []string{"恒生"},
		Exclude:  []string{"科技", "医疗", "消费", "红利"},
		Category: []string{"海外新兴", "香港", "恒生"},
	},

	// Developed markets
	{Keywords: []string{"全球医疗"}, MatchAny: true, Category: []string{"海外成熟", "全球", "全球医疗"}},

	// Overseas internet
	{Keywords: []string{"互联网", "中概"}, MatchAny: true, Category: []string{"海外新兴", "海外科技", "海外互联"}},

	// Brokerages
	{
		Keywords:    []string{"证券", "非银"},
		MatchAny:    true,
		AndKeywords: []string{"港股"},
		Category:    []string{"海外新兴", "行业", "非银"},
	},
	{Keywords: []string{"证券", "非银"}, MatchAny: true, Category: []string{"A股", "行业", "证券"}},

	// Broad indices
	{Keywords: []string{"500", "中证500"}, MatchAny: true, Category: []string{"A股", "中小盘", "500"}},
	{Keywords: []string{"300", "沪深300"}, MatchAny: true, Category: []string{"A股", "大盘", "300"}},
	{Keywords: []string{"创业板"}, Category: []string{"A股", "中小盘", "创业板"}},

	// Bonds and cash
	{Keywords: []string{"债"}, AndKeywords: []string{"国开债"}, Category: []string{"债券", "国内债券", "纯债"}},
	{Keywords: []string{"债"}, Category: []string{"债券", "美债", "超长期债券"}},
	{Regex: `货币|添益|宝货币|现金|天添宝|添利宝`, Category: []string{"货币", "货币", "货币"}},

	{Default: true, Category: []string{"其他", "其他", "其他"}},
}

var defaultRules = sync.OnceValue(func() []Rule {
	rules, err := CompileRules(defaultRuleSpecs)
	if err != nil {
		panic("classification: built-in rule table is invalid: " + err.Error())
	}
	return rules
})

// DefaultRules returns the built-in rule table. The returned slice is shared and must not be
// modified.
func DefaultRules() []Rule {
	return defaultRules()
}

// DefaultRuleSpecs returns a copy of the built-in table in serialized form.
func DefaultRuleSpecs() []RuleSpec {
	specs := make([]RuleSpec, len(defaultRuleSpecs))
	copy(specs, defaultRuleSpecs)
	return specs
}
