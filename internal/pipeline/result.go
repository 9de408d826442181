package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/holdscan/internal/model"
)

// TimestampLayout is the format of Result.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	totalCountKey = "total_count"
	countSuffix   = "_count"
)

// Result is the aggregated output of a batch.
type Result struct {
	Timestamp string         `json:"timestamp"`
	Data      []model.Record `json:"data"`
	Sources   []string       `json:"sources"`
	Summary   Summary        `json:"summary"`
}

// Summary counts records overall and per source channel. It serializes flat, as
// {"total_count": n, "<channel>_count": n, ...}.
type Summary struct {
	BySource   map[model.Channel]int
	TotalCount int
}

// NewResult returns an empty result stamped at ts.
func NewResult(ts time.Time) *Result {
	return &Result{
		Timestamp: ts.Format(TimestampLayout),
		Data:      []model.Record{},
		Sources:   []string{},
		Summary:   Summary{BySource: map[model.Channel]int{}},
	}
}

// Add appends the records of one source and refreshes the summary.
func (r *Result) Add(source string, records []model.Record) {
	r.Data = append(r.Data, records...)
	r.Sources = append(r.Sources, source)
	r.Summary = Summarize(r.Data)
}

// Summarize counts records by source tag.
func Summarize(records []model.Record) Summary {
	s := Summary{BySource: map[model.Channel]int{}, TotalCount: len(records)}
	for _, rec := range records {
		s.BySource[rec.SourceType]++
	}
	return s
}

// Channels returns the source channels present, sorted.
func (s Summary) Channels() []model.Channel {
	channels := make([]model.Channel, 0, len(s.BySource))
	for ch := range s.BySource {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })
	return channels
}

// MarshalJSON flattens the per-source counts next to the total.
func (s Summary) MarshalJSON() ([]byte, error) {
	flat := make(map[string]int, len(s.BySource)+1)
	flat[totalCountKey] = s.TotalCount
	for ch, n := range s.BySource {
		flat[string(ch)+countSuffix] = n
	}
	return json.Marshal(flat)
}

// UnmarshalJSON reads the flat form written by MarshalJSON.
func (s *Summary) UnmarshalJSON(data []byte) error {
	var flat map[string]int
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	*s = Summary{BySource: map[model.Channel]int{}}
	for key, n := range flat {
		switch {
		case key == totalCountKey:
			s.TotalCount = n
		case strings.HasSuffix(key, countSuffix):
			s.BySource[model.Channel(strings.TrimSuffix(key, countSuffix))] = n
		}
	}
	return nil
}

// WriteFile saves the result as indented JSON.
func (r *Result) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a result saved by WriteFile.
func ReadFile(path string) (*Result, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user supplied input path
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode result %s: %w", path, err)
	}
	if r.Summary.BySource == nil {
		r.Summary = Summarize(r.Data)
	}
	return &r, nil
}
