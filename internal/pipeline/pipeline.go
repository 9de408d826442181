// Package pipeline turns OCR pages into tagged holding records: it detects each page's
// channel, runs the matching parser and aggregates the batch.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Veraticus/holdscan/internal/detect"
	"github.com/Veraticus/holdscan/internal/model"
	"github.com/Veraticus/holdscan/internal/parser"
	"golang.org/x/sync/errgroup"
)

// Options configures batch processing.
type Options struct {
	// Progress is called after every page with the number of finished pages.
	Progress func(done, total int)
	// Now stamps the result. Defaults to time.Now.
	Now func() time.Time
	// Channel forces a layout for every page; ChannelAuto detects per page.
	Channel model.Channel
	// Workers bounds how many pages are parsed at once.
	Workers int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Channel: model.ChannelAuto,
		Workers: 4,
	}
}

// PageResult is the outcome for one page.
type PageResult struct {
	Page    string
	Channel model.Channel
	Records []model.Record
}

// ProcessPage detects (or applies) the channel and parses one page. An undetermined page
// yields ChannelUndetermined and no records; an unknown override is an error.
func ProcessPage(page model.Page, override model.Channel) (PageResult, error) {
	result := PageResult{Page: page.Name}

	channel := override
	if channel == model.ChannelAuto || channel == model.ChannelUndetermined {
		channel = detect.Detect(model.Lines(page.Tokens))
		if channel == model.ChannelUndetermined {
			slog.Warn("Could not determine screenshot channel, skipping", "page", page.Name)
			return result, nil
		}
		slog.Debug("Detected channel", "page", page.Name, "channel", channel)
	}

	p, err := parser.For(channel)
	if err != nil {
		return result, err
	}

	if channel == model.ChannelHaitong && !hasGeometry(page.Tokens) {
		slog.Warn("Haitong layout needs token boxes; text-only input yields no holdings", "page", page.Name)
	}

	result.Channel = channel
	result.Records = model.WithSource(p.Parse(page.Tokens), channel)
	return result, nil
}

// hasGeometry reports whether any token carries a bounding box.
func hasGeometry(tokens []model.Token) bool {
	for _, t := range tokens {
		if t.Box != (model.Polygon{}) {
			return true
		}
	}
	return false
}

// Process parses pages in parallel and merges them in input order.
func Process(ctx context.Context, pages []model.Page, opts Options) (*Result, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]PageResult, len(pages))
	var done atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, page := range pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := ProcessPage(page, opts.Channel)
			if err != nil {
				return fmt.Errorf("failed to process %s: %w", page.Name, err)
			}
			results[i] = res
			if opts.Progress != nil {
				opts.Progress(int(done.Add(1)), len(pages))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := NewResult(now())
	for _, res := range results {
		if len(res.Records) == 0 {
			if res.Channel != model.ChannelUndetermined {
				slog.Info("No holdings parsed, skipping", "page", res.Page, "channel", res.Channel)
			}
			continue
		}
		result.Add(res.Page, res.Records)
		slog.Info("Parsed holdings", "page", res.Page, "channel", res.Channel, "records", len(res.Records))
	}
	return result, nil
}
