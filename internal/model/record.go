package model

// Record is the canonical holding shape produced by every parser.
// Optional fields are nil when the source did not show them; a zero is a real value.
type Record struct {
	Name          string   `json:"name"`
	Code          string   `json:"code,omitempty"`
	Quantity      *float64 `json:"quantity,omitempty"`
	MarketValue   *float64 `json:"market_value,omitempty"`
	CostPrice     *float64 `json:"cost_price,omitempty"`
	CurrentPrice  *float64 `json:"current_price,omitempty"`
	PositionRatio *float64 `json:"position_ratio,omitempty"`
	ProfitRatio   *float64 `json:"profit_ratio,omitempty"`
	ProfitAmount  *float64 `json:"profit_amount,omitempty"`
	SourceType    Channel  `json:"source_type,omitempty"`
}

// Float returns a pointer to v, for filling optional record fields.
func Float(v float64) *float64 {
	return &v
}

// WithSource returns a copy of the records tagged with the given channel.
func WithSource(records []Record, source Channel) []Record {
	tagged := make([]Record, len(records))
	for i, r := range records {
		r.SourceType = source
		tagged[i] = r
	}
	return tagged
}
