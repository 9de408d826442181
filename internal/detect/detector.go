// Package detect decides which screenshot layout produced an OCR token stream.
package detect

import (
	"regexp"
	"strings"

	"github.com/Veraticus/holdscan/internal/model"
)

var fundCodePattern = regexp.MustCompile(`[（(]\d{6}[）)]`)

// feature is one predicate over the full set of lines.
type feature func(lines []string) bool

func anyContains(substrs ...string) feature {
	return func(lines []string) bool {
		for _, line := range lines {
			for _, s := range substrs {
				if strings.Contains(line, s) {
					return true
				}
			}
		}
		return false
	}
}

func anyMatches(re *regexp.Regexp) feature {
	return func(lines []string) bool {
		for _, line := range lines {
			if re.MatchString(line) {
				return true
			}
		}
		return false
	}
}

// adjacentPair reports whether some line containing first is directly followed by a line
// containing second.
func adjacentPair(first, second string) feature {
	return func(lines []string) bool {
		for i := 0; i+1 < len(lines); i++ {
			if strings.Contains(lines[i], first) && strings.Contains(lines[i+1], second) {
				return true
			}
		}
		return false
	}
}

// channelFeatures holds the scoring predicates per channel. Order of the outer slice is the
// tie-break priority.
var channelFeatures = []struct {
	channel  model.Channel
	features []feature
}{
	{
		channel: model.ChannelHuabao,
		features: []feature{
			anyContains(".SH", ".SZ"),
			anyContains("成本/现价"),
			anyContains("证券/市值"),
			anyContains("持仓/可用"),
			anyContains("华宝"),
		},
	},
	{
		channel: model.ChannelHaitong,
		features: []feature{
			anyContains("当前持仓"),
			anyContains("以上是全部"),
			anyContains("股票/市值", "持仓/可用"),
			anyContains("盈亏/盈亏比"),
			anyContains("海通"),
		},
	},
	{
		channel: model.ChannelFundE,
		features: []feature{
			adjacentPair("持有份额", "参考净值"),
			anyContains("筛选"),
			anyMatches(fundCodePattern),
			anyContains("基金e账户"),
		},
	},
}

// Score is the number of satisfied feature predicates for one channel.
type Score struct {
	Channel model.Channel
	Matched int
}

// Scores evaluates every channel's feature set, in priority order.
func Scores(lines []string) []Score {
	scores := make([]Score, 0, len(channelFeatures))
	for _, cf := range channelFeatures {
		s := Score{Channel: cf.channel}
		for _, f := range cf.features {
			if f(lines) {
				s.Matched++
			}
		}
		scores = append(scores, s)
	}
	return scores
}

// Detect returns the channel whose features best match the lines, or
// model.ChannelUndetermined. Ties go to the earlier channel in huabao, haitong, fund_e order.
func Detect(lines []string) model.Channel {
	best := Score{Channel: model.ChannelUndetermined}
	for _, s := range Scores(lines) {
		if s.Matched > best.Matched {
			best = s
		}
	}
	if best.Matched > 0 {
		return best.Channel
	}
	return fallback(lines)
}

// fallback applies coarse keyword checks when no channel feature matched at all.
func fallback(lines []string) model.Channel {
	if anyContains("持仓")(lines) && anyContains("盈亏")(lines) {
		if anyContains("以上是全部")(lines) {
			return model.ChannelHaitong
		}
		return model.ChannelHuabao
	}
	if anyContains("资产情况")(lines) {
		return model.ChannelFundE
	}
	return model.ChannelUndetermined
}
