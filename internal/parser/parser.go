// Package parser reconstructs canonical holding records from the OCR token stream of one
// screenshot. Each supported channel has its own layout and its own algorithm.
package parser

import (
	"fmt"

	"github.com/Veraticus/holdscan/internal/common"
	"github.com/Veraticus/holdscan/internal/model"
)

// Parser turns one image's tokens into holding records. Implementations are pure: the same
// tokens always give the same records, and a malformed candidate never aborts the image.
type Parser interface {
	Parse(tokens []model.Token) []model.Record
}

// Func adapts a plain function to the Parser interface.
type Func func(tokens []model.Token) []model.Record

// Parse calls f.
func (f Func) Parse(tokens []model.Token) []model.Record {
	return f(tokens)
}

var registry = map[model.Channel]Parser{
	model.ChannelHuabao:  Func(ParseHuabao),
	model.ChannelHaitong: Func(ParseHaitong),
	model.ChannelFundE:   Func(ParseFundE),
}

// For returns the parser registered for a channel.
func For(channel model.Channel) (Parser, error) {
	if channel == model.ChannelUndetermined {
		return nil, common.ErrUndetermined
	}
	p, ok := registry[channel]
	if !ok {
		return nil, fmt.Errorf("%w: no parser for channel %q", common.ErrUnsupportedInput, channel)
	}
	return p, nil
}
