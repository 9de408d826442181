package sheets

import (
	"github.com/Veraticus/holdscan/internal/model"
	"github.com/Veraticus/holdscan/internal/portfolio"
	"github.com/shopspring/decimal"
)

// Tab titles of the exported spreadsheet.
const (
	HoldingsTab = "Holdings"
	SummaryTab  = "Summary"
)

var (
	holdingsHeader = []any{"名称", "代码", "来源", "一级分类", "二级分类", "三级分类", "市值", "占比(%)"}
	summaryHeader  = []any{"一级分类", "市值", "占比(%)", "持仓数"}
)

// HoldingRow represents a single row in the Holdings tab.
type HoldingRow struct {
	Name     string
	Code     string
	Source   model.Channel
	Taxonomy model.TaxonomyPath
	Value    decimal.Decimal
	Percent  decimal.Decimal
}

// CategoryRow represents a single row in the Summary tab.
type CategoryRow struct {
	Name    string
	Value   decimal.Decimal
	Percent decimal.Decimal
	Count   int
}

// HoldingRows flattens the allocation holdings in report order.
func HoldingRows(a *portfolio.Allocation) []HoldingRow {
	rows := make([]HoldingRow, 0, len(a.Holdings))
	for _, h := range a.Holdings {
		rows = append(rows, HoldingRow{
			Name:     h.Name,
			Code:     h.Code,
			Source:   h.Source,
			Taxonomy: h.Taxonomy,
			Value:    h.Value,
			Percent:  h.Percent,
		})
	}
	return rows
}

// CategoryRows returns the level-1 summary followed by a total row.
func CategoryRows(a *portfolio.Allocation) []CategoryRow {
	rows := make([]CategoryRow, 0, len(a.Level1)+1)
	for _, c := range a.Level1 {
		rows = append(rows, CategoryRow{
			Name:    c.Name(),
			Value:   c.Value,
			Percent: c.Percent,
			Count:   c.Count,
		})
	}
	rows = append(rows, CategoryRow{
		Name:    "合计",
		Value:   a.Total,
		Percent: decimal.NewFromInt(100),
		Count:   len(a.Holdings),
	})
	return rows
}

func (r HoldingRow) values() []any {
	return []any{
		r.Name,
		r.Code,
		string(r.Source),
		r.Taxonomy.Level1(),
		r.Taxonomy.Level2(),
		r.Taxonomy.Level3(),
		r.Value.Round(2).InexactFloat64(),
		r.Percent.Round(2).InexactFloat64(),
	}
}

func (r CategoryRow) values() []any {
	return []any{
		r.Name,
		r.Value.Round(2).InexactFloat64(),
		r.Percent.Round(2).InexactFloat64(),
		r.Count,
	}
}

// holdingValues builds the Holdings tab grid, header included.
func holdingValues(rows []HoldingRow) [][]any {
	values := make([][]any, 0, len(rows)+1)
	values = append(values, holdingsHeader)
	for _, r := range rows {
		values = append(values, r.values())
	}
	return values
}

// summaryValues builds the Summary tab grid, header included.
func summaryValues(rows []CategoryRow) [][]any {
	values := make([][]any, 0, len(rows)+1)
	values = append(values, summaryHeader)
	for _, r := range rows {
		values = append(values, r.values())
	}
	return values
}
