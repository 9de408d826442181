// Package portfolio aggregates classified holdings into an asset allocation across the
// three taxonomy levels.
package portfolio

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Veraticus/holdscan/internal/classification"
	"github.com/Veraticus/holdscan/internal/common"
	"github.com/Veraticus/holdscan/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultMinValue is the market value at or below which a holding is left out.
const DefaultMinValue = 100

// DefaultCashName labels the manually added cash holding.
const DefaultCashName = "现金"

var hundred = decimal.NewFromInt(100)

// Options configures Build.
type Options struct {
	CashName string
	MinValue decimal.Decimal
	Cash     decimal.Decimal
}

// DefaultOptions returns the standard report settings.
func DefaultOptions() Options {
	return Options{
		CashName: DefaultCashName,
		MinValue: decimal.NewFromInt(DefaultMinValue),
	}
}

// Holding is one classified position in the allocation.
type Holding struct {
	Name     string             `json:"name"`
	Code     string             `json:"code,omitempty"`
	Source   model.Channel      `json:"source,omitempty"`
	Taxonomy model.TaxonomyPath `json:"taxonomy"`
	Value    decimal.Decimal    `json:"value"`
	Percent  decimal.Decimal    `json:"percent"`
}

// Category is the rolled-up value of one taxonomy node.
type Category struct {
	Path    string          `json:"path"`
	Levels  []string        `json:"levels"`
	Value   decimal.Decimal `json:"value"`
	Percent decimal.Decimal `json:"percent"`
	Count   int             `json:"count"`
}

// Name returns the last level of the category path.
func (c Category) Name() string {
	return c.Levels[len(c.Levels)-1]
}

// Allocation is the full report. Slices are sorted by value, largest first.
type Allocation struct {
	Percentages map[string]float64 `json:"percentages"`
	Holdings    []Holding          `json:"holdings"`
	Level1      []Category         `json:"level1"`
	Level2      []Category         `json:"level2"`
	Level3      []Category         `json:"level3"`
	Skipped     []model.Record     `json:"skipped,omitempty"`
	Total       decimal.Decimal    `json:"total"`
}

// Build filters records by market value, adds the cash holding, classifies everything and
// computes the share of the total held by every taxonomy node.
func Build(records []model.Record, c classification.Classifier, opts Options) (*Allocation, error) {
	a := &Allocation{Percentages: map[string]float64{}}

	for _, rec := range records {
		if rec.MarketValue == nil || decimal.NewFromFloat(*rec.MarketValue).LessThanOrEqual(opts.MinValue) {
			slog.Info("Skipping small or valueless holding",
				"name", rec.Name,
				"code", rec.Code,
				"min_value", opts.MinValue.String())
			a.Skipped = append(a.Skipped, rec)
			continue
		}
		a.Holdings = append(a.Holdings, Holding{
			Name:     rec.Name,
			Code:     rec.Code,
			Source:   rec.SourceType,
			Taxonomy: c.Classify(rec.Name, rec.Code),
			Value:    decimal.NewFromFloat(*rec.MarketValue),
		})
	}

	if opts.Cash.IsPositive() {
		name := opts.CashName
		if name == "" {
			name = DefaultCashName
		}
		a.Holdings = append(a.Holdings, Holding{
			Name:     name,
			Source:   model.ChannelCash,
			Taxonomy: c.Classify(name, ""),
			Value:    opts.Cash,
		})
	}

	if len(a.Holdings) == 0 {
		return nil, fmt.Errorf("failed to build allocation: %w", common.ErrNoHoldings)
	}

	for _, h := range a.Holdings {
		a.Total = a.Total.Add(h.Value)
	}
	for i := range a.Holdings {
		a.Holdings[i].Percent = share(a.Holdings[i].Value, a.Total)
	}
	sort.SliceStable(a.Holdings, func(i, j int) bool {
		return a.Holdings[i].Value.GreaterThan(a.Holdings[j].Value)
	})

	a.Level1 = a.rollUp(1)
	a.Level2 = a.rollUp(2)
	a.Level3 = a.rollUp(3)
	for _, level := range [][]Category{a.Level1, a.Level2, a.Level3} {
		for _, cat := range level {
			a.Percentages[cat.Path] = cat.Percent.InexactFloat64()
		}
	}
	return a, nil
}

// rollUp sums holdings by the first depth levels of their taxonomy.
func (a *Allocation) rollUp(depth int) []Category {
	index := map[string]int{}
	var cats []Category
	for _, h := range a.Holdings {
		levels := h.Taxonomy[:depth]
		path := strings.Join(levels, "/")
		i, ok := index[path]
		if !ok {
			i = len(cats)
			index[path] = i
			cats = append(cats, Category{Path: path, Levels: append([]string(nil), levels...)})
		}
		cats[i].Value = cats[i].Value.Add(h.Value)
		cats[i].Count++
	}

	for i := range cats {
		cats[i].Percent = share(cats[i].Value, a.Total)
	}
	sort.SliceStable(cats, func(i, j int) bool {
		if !cats[i].Value.Equal(cats[j].Value) {
			return cats[i].Value.GreaterThan(cats[j].Value)
		}
		return cats[i].Path < cats[j].Path
	})
	return cats
}

// share returns part as a percentage of total, rounded to four places.
func share(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(total).Round(4)
}

// Members returns the holdings that roll up into the category at path.
func (a *Allocation) Members(path string) []Holding {
	var members []Holding
	for _, h := range a.Holdings {
		if h.Taxonomy.String() == path || strings.HasPrefix(h.Taxonomy.String(), path+"/") {
			members = append(members, h)
		}
	}
	return members
}
