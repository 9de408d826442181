package parser

import (
	"log/slog"
	"strings"

	"github.com/Veraticus/holdscan/internal/model"
)

// huabaoBlockSize is the number of lines each holding occupies in a Huabao screenshot.
const huabaoBlockSize = 10

// huabaoCodeOffset is the position of the security code inside a block.
const huabaoCodeOffset = 4

var huabaoStopwords = stringSet(
	"买入", "卖出", "撤单", "持仓", "查询",
	"证券/市值", "成本/现价", "持仓/可用", "累计盈亏", "仓位",
)

// ParseHuabao decodes a Huabao holdings screenshot. After dropping navigation labels, every
// holding is a fixed block of ten lines aligned on the first line carrying a ".SH"/".SZ" code.
func ParseHuabao(tokens []model.Token) []model.Record {
	lines := filterHuabaoLines(model.Lines(tokens))

	start := 0
	for i, line := range lines {
		if strings.Contains(line, ".SH") || strings.Contains(line, ".SZ") {
			start = max(i-huabaoCodeOffset, 0)
			break
		}
	}

	var records []model.Record
	for off := start; off+huabaoBlockSize <= len(lines); off += huabaoBlockSize {
		block := lines[off : off+huabaoBlockSize]
		rec, err := decodeHuabaoBlock(block)
		if err != nil {
			slog.Debug("Skipping huabao block", "name", block[0], "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

func filterHuabaoLines(lines []string) []string {
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if _, stop := huabaoStopwords[trimmed]; stop {
			continue
		}
		filtered = append(filtered, trimmed)
	}
	return filtered
}

// decodeHuabaoBlock maps the fixed positions of one block. Position 7 is unused.
func decodeHuabaoBlock(block []string) (model.Record, error) {
	costPrice, err := parseFloat(block[1])
	if err != nil {
		return model.Record{}, err
	}
	quantity, err := parseInt(block[2])
	if err != nil {
		return model.Record{}, err
	}
	profitAmount, err := parseFloat(block[3])
	if err != nil {
		return model.Record{}, err
	}
	positionRatio, err := parsePercent(block[5], 4)
	if err != nil {
		return model.Record{}, err
	}
	currentPrice, err := parseFloat(block[6])
	if err != nil {
		return model.Record{}, err
	}
	profitRatio, err := parsePercent(block[8], 4)
	if err != nil {
		return model.Record{}, err
	}
	marketValue, err := parseFloat(block[9])
	if err != nil {
		return model.Record{}, err
	}

	return model.Record{
		Name:          block[0],
		Code:          block[huabaoCodeOffset],
		CostPrice:     model.Float(costPrice),
		Quantity:      model.Float(quantity),
		ProfitAmount:  model.Float(profitAmount),
		PositionRatio: model.Float(positionRatio),
		CurrentPrice:  model.Float(currentPrice),
		ProfitRatio:   model.Float(profitRatio),
		MarketValue:   model.Float(marketValue),
	}, nil
}
