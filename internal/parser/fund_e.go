package parser

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/Veraticus/holdscan/internal/model"
)

const (
	fundHoldingLabel = "持有份额"
	fundNAVLabel     = "参考净值"
	fundAssetLabel   = "资产情况"
	fundFilterLabel  = "筛选"

	// fundBlockSize is the three labels plus their three values.
	fundBlockSize = 6
	// fundAssetLookback bounds the search for the previous holding's asset label.
	fundAssetLookback = 4
	// fundPreviousValues is how many value lines a previous holding is assumed to occupy when
	// its asset label cannot be found.
	fundPreviousValues = 3
)

var (
	fundNumericLine = regexp.MustCompile(`^[\d,.]+$`)
	fundCodeInLine  = regexp.MustCompile(`[（(](\d{6})[）)]`)

	fundHeaderPrefix   = regexp.MustCompile(`.*筛选[\s\p{Zs}]*`)
	fundDataDatePrefix = regexp.MustCompile(`.*数据日期[：:][^，。]*`)
	fundWhitespace     = regexp.MustCompile(`[\s\p{Zs}]+`)

	fundSplitTerms = []struct {
		pattern *regexp.Regexp
		term    string
	}{
		{regexp.MustCompile(`联[\s\p{Zs}]+接`), "联接"},
		{regexp.MustCompile(`投[\s\p{Zs}]+资`), "投资"},
	}

	fullWidthParens = strings.NewReplacer("(", "（", ")", "）")
)

// ParseFundE extracts fund holdings from a fund e-account screenshot. Each holding is anchored
// on the label triple 持有份额/参考净值/资产情况 followed by three numeric lines; the fund name
// and code are stitched together from the lines above the anchor.
func ParseFundE(tokens []model.Token) []model.Record {
	lines := model.Lines(tokens)

	var records []model.Record
	i := fundScanStart(lines)
	for i < len(lines) {
		if !isFundLabelTriple(lines, i) {
			i++
			continue
		}

		rec, err := decodeFundValues(lines, i)
		if err != nil {
			slog.Debug("Fund label triple without values", "line", i, "error", err)
			i++
			continue
		}

		rec.Name, rec.Code = reconstructFundName(lines, i-1)
		records = append(records, rec)
		i += fundBlockSize
	}
	return records
}

// fundScanStart returns the index right after the first line containing the filter label.
func fundScanStart(lines []string) int {
	for i, line := range lines {
		if strings.Contains(line, fundFilterLabel) {
			return i + 1
		}
	}
	return 0
}

func isFundLabelTriple(lines []string, i int) bool {
	return i+2 < len(lines) &&
		strings.TrimSpace(lines[i]) == fundHoldingLabel &&
		strings.TrimSpace(lines[i+1]) == fundNAVLabel &&
		strings.TrimSpace(lines[i+2]) == fundAssetLabel
}

func isFundLabel(line string) bool {
	return line == fundHoldingLabel || line == fundNAVLabel || line == fundAssetLabel
}

func isNumericLine(line string) bool {
	return fundNumericLine.MatchString(strings.TrimSpace(line))
}

// decodeFundValues validates and parses the three value lines following the labels at i.
func decodeFundValues(lines []string, i int) (model.Record, error) {
	if i+5 >= len(lines) {
		return model.Record{}, errTruncatedBlock
	}
	for k := 3; k < fundBlockSize; k++ {
		if !isNumericLine(lines[i+k]) {
			return model.Record{}, errNotNumeric(lines[i+k])
		}
	}

	quantity, err := parseGroupedFloat(lines[i+3])
	if err != nil {
		return model.Record{}, err
	}
	nav, err := parseGroupedFloat(lines[i+4])
	if err != nil {
		return model.Record{}, err
	}
	asset, err := parseGroupedFloat(lines[i+5])
	if err != nil {
		return model.Record{}, err
	}

	return model.Record{
		Quantity:     model.Float(quantity),
		CurrentPrice: model.Float(nav),
		MarketValue:  model.Float(asset),
	}, nil
}

// reconstructFundName scans upward from j for the fund's name fragments and code.
func reconstructFundName(lines []string, j int) (name, code string) {
	for j >= 0 && strings.TrimSpace(lines[j]) == "" {
		j--
	}

	// The line above is the previous holding's asset value: step over that holding.
	if j >= 0 && isNumericLine(lines[j]) {
		found := false
		for k := j - 1; k > max(0, j-fundAssetLookback-1); k-- {
			if strings.TrimSpace(lines[k]) == fundAssetLabel {
				j = k - 1
				found = true
				break
			}
		}
		if !found {
			j -= fundPreviousValues
		}
	}

	var parts []string
	for ; j >= 0; j-- {
		line := strings.TrimSpace(lines[j])
		if isNumericLine(line) || isFundLabel(line) {
			break
		}

		if loc := fundCodeInLine.FindStringSubmatchIndex(line); loc != nil && code == "" {
			code = line[loc[2]:loc[3]]
			if prefix := strings.TrimSpace(line[:loc[0]]); prefix != "" {
				parts = append([]string{prefix}, parts...)
			}
		} else if line != "" {
			parts = append([]string{line}, parts...)
		}
	}

	return normalizeFundName(strings.Join(parts, " ")), code
}

// normalizeFundName strips page header residue and repairs OCR spacing.
func normalizeFundName(name string) string {
	name = strings.TrimSpace(name)
	name = fundHeaderPrefix.ReplaceAllString(name, "")
	name = fundDataDatePrefix.ReplaceAllString(name, "")
	for _, st := range fundSplitTerms {
		name = st.pattern.ReplaceAllString(name, st.term)
	}
	name = fundWhitespace.ReplaceAllString(name, "")
	return fullWidthParens.Replace(name)
}
