package parser

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/Veraticus/holdscan/internal/model"
)

const (
	// defaultRowThreshold is used when no token survives filtering.
	defaultRowThreshold = 50
	// rowThresholdFactor scales the mean token height into the row gap.
	rowThresholdFactor = 1.5
)

var haitongSkipKeywords = []string{
	"总资产", "股票/市值", "持仓/可用", "下滑查看", "当前持仓", "查看盈亏",
	"以上是全部", "当日预估", "浮动盈亏", "股票", "理财",
}

var (
	marketValueStrip  = strings.NewReplacer(".", "", "-", "")
	profitAmountStrip = strings.NewReplacer(".", "", "-", "", "+", "")
)

// bounds is the union of every token polygon on the image.
type bounds struct {
	minX, maxX, minY, maxY float64
}

func (b bounds) width() float64  { return b.maxX - b.minX }
func (b bounds) height() float64 { return b.maxY - b.minY }

func imageBounds(tokens []model.Token) bounds {
	b := bounds{
		minX: math.Inf(1), maxX: math.Inf(-1),
		minY: math.Inf(1), maxY: math.Inf(-1),
	}
	for _, t := range tokens {
		b.minX = min(b.minX, t.Box.MinX())
		b.maxX = max(b.maxX, t.Box.MaxX())
		b.minY = min(b.minY, t.Box.MinY())
		b.maxY = max(b.maxY, t.Box.MaxY())
	}
	return b
}

// haitongRow collects the raw texts assigned to one visual row. An empty string means the
// field was not seen.
type haitongRow struct {
	name         string
	marketValue  string
	shares       string
	price        string
	costPrice    string
	profitAmount string
	profitRate   string
}

func (r haitongRow) empty() bool {
	return r == haitongRow{}
}

// fillFrom copies every field r lacks from next.
func (r *haitongRow) fillFrom(next haitongRow) {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&r.name, next.name)
	fill(&r.marketValue, next.marketValue)
	fill(&r.shares, next.shares)
	fill(&r.price, next.price)
	fill(&r.costPrice, next.costPrice)
	fill(&r.profitAmount, next.profitAmount)
	fill(&r.profitRate, next.profitRate)
}

// columns are the x positions splitting the image into four bands.
type columns [3]float64

func columnBands(b bounds) columns {
	w := b.width()
	return columns{b.minX + w*0.25, b.minX + w*0.5, b.minX + w*0.75}
}

// assign classifies a token by its horizontal band and content.
func (r *haitongRow) assign(t model.Token, cols columns) {
	cx := t.Box.CenterX()
	text := t.Text

	switch {
	case cx < cols[0]:
		if hasCJK(text) {
			r.name = text
		} else if strings.Contains(text, ".") && isDigits(marketValueStrip.Replace(text)) {
			r.marketValue = text
		}
	case cx < cols[1]:
		if isDigits(strings.ReplaceAll(text, ",", "")) {
			r.shares = text
		}
	case cx < cols[2]:
		if strings.Contains(text, ".") {
			if r.price == "" {
				r.price = text
			} else {
				r.costPrice = text
			}
		}
	default:
		if strings.Contains(text, ".") && !strings.Contains(text, "%") {
			if isDigits(profitAmountStrip.Replace(text)) {
				r.profitAmount = text
			}
		} else if strings.Contains(text, "%") {
			r.profitRate = text
		}
	}
}

func (r haitongRow) record() (model.Record, error) {
	rec := model.Record{Name: r.name}

	if r.shares != "" {
		q, err := parseInt(strings.ReplaceAll(r.shares, ",", ""))
		if err != nil {
			return model.Record{}, err
		}
		rec.Quantity = model.Float(q)
	}

	optional := []struct {
		dst  **float64
		text string
	}{
		{&rec.CurrentPrice, r.price},
		{&rec.CostPrice, r.costPrice},
		{&rec.MarketValue, r.marketValue},
		{&rec.ProfitAmount, r.profitAmount},
	}
	for _, f := range optional {
		if f.text == "" {
			continue
		}
		v, err := parseFloat(f.text)
		if err != nil {
			return model.Record{}, err
		}
		*f.dst = model.Float(v)
	}

	if strings.Contains(r.profitRate, "%") {
		v, err := parsePercent(r.profitRate, -1)
		if err != nil {
			return model.Record{}, err
		}
		rec.ProfitRatio = model.Float(v)
	}

	return rec, nil
}

// ParseHaitong rebuilds holdings from a Haitong screenshot using token geometry: tokens are
// clipped to the holdings table, grouped into rows by vertical center, assigned to fields by
// horizontal band, and a name row absorbs the nameless row right below it.
func ParseHaitong(tokens []model.Token) []model.Record {
	if len(tokens) == 0 {
		return nil
	}

	b := imageBounds(tokens)
	top, bottom := holdingArea(tokens, b)

	var area []model.Token
	for _, t := range tokens {
		if containsAny(t.Text, haitongSkipKeywords) {
			continue
		}
		if cy := t.Box.CenterY(); cy >= top && cy <= bottom {
			area = append(area, t)
		}
	}
	sort.SliceStable(area, func(i, j int) bool {
		return area[i].Box.CenterY() < area[j].Box.CenterY()
	})

	rows := segmentRows(area, rowThreshold(area), columnBands(b))

	var records []model.Record
	for _, row := range mergeContinuationRows(rows) {
		if row.name == "" || (row.shares == "" && row.marketValue == "") {
			continue
		}
		rec, err := row.record()
		if err != nil {
			slog.Debug("Skipping haitong row", "name", row.name, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

// holdingArea returns the vertical span of the holdings table. The top follows the
// "当前持仓"/"股票/市值" headers and the bottom the "以上是全部" footer; without a header
// the 30%–90% band of the image is used.
func holdingArea(tokens []model.Token, b bounds) (top, bottom float64) {
	top, bottom = 0, b.maxY
	detected := false

	for _, t := range tokens {
		if strings.Contains(t.Text, "当前持仓") || strings.Contains(t.Text, "股票/市值") {
			top = max(top, t.Box.MaxY())
			detected = true
		} else if detected && strings.Contains(t.Text, "以上是全部") {
			bottom = t.Box.MinY()
			break
		}
	}

	if !detected {
		top = b.minY + b.height()*0.3
		bottom = b.minY + b.height()*0.9
	}
	return top, bottom
}

func rowThreshold(tokens []model.Token) float64 {
	if len(tokens) == 0 {
		return defaultRowThreshold
	}
	var sum float64
	for _, t := range tokens {
		sum += t.Box.Height()
	}
	return sum / float64(len(tokens)) * rowThresholdFactor
}

// segmentRows walks tokens sorted by vertical center and starts a new row whenever a token
// sits further than threshold from the center of the row's first token.
func segmentRows(tokens []model.Token, threshold float64, cols columns) []haitongRow {
	var rows []haitongRow
	var current haitongRow
	rowCenter := 0.0

	for _, t := range tokens {
		cy := t.Box.CenterY()
		if math.Abs(cy-rowCenter) > threshold {
			if !current.empty() {
				rows = append(rows, current)
				current = haitongRow{}
			}
			rowCenter = cy
		}
		current.assign(t, cols)
	}
	if !current.empty() {
		rows = append(rows, current)
	}
	return rows
}

// mergeContinuationRows folds a nameless row into the named row directly above it. Only one
// row of lookahead is considered.
func mergeContinuationRows(rows []haitongRow) []haitongRow {
	merged := make([]haitongRow, 0, len(rows))
	for i := 0; i < len(rows); i++ {
		current := rows[i]
		if i+1 < len(rows) && current.name != "" && rows[i+1].name == "" {
			current.fillFrom(rows[i+1])
			i++
		}
		merged = append(merged, current)
	}
	return merged
}
