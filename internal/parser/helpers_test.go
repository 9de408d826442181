package parser

import "github.com/Veraticus/holdscan/internal/model"

func f(v float64) *float64 { return &v }

// box builds an axis-aligned token polygon.
func box(text string, x0, y0, x1, y1 float64) model.Token {
	return model.Token{
		Text: text,
		Box: model.Polygon{
			{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
		},
		Confidence: 0.99,
	}
}
