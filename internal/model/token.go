// Package model defines the core data structures for the holdscan application.
package model

import (
	"encoding/json"
	"fmt"
)

// Point is one vertex of an OCR bounding polygon.
type Point struct {
	X float64
	Y float64
}

// Polygon is the four-point quadrilateral an OCR engine reports for a token.
// It is not necessarily axis-aligned.
type Polygon [4]Point

// MinX returns the smallest x coordinate of the polygon.
func (p Polygon) MinX() float64 {
	m := p[0].X
	for _, pt := range p[1:] {
		m = min(m, pt.X)
	}
	return m
}

// MaxX returns the largest x coordinate of the polygon.
func (p Polygon) MaxX() float64 {
	m := p[0].X
	for _, pt := range p[1:] {
		m = max(m, pt.X)
	}
	return m
}

// MinY returns the smallest y coordinate of the polygon.
func (p Polygon) MinY() float64 {
	m := p[0].Y
	for _, pt := range p[1:] {
		m = min(m, pt.Y)
	}
	return m
}

// MaxY returns the largest y coordinate of the polygon.
func (p Polygon) MaxY() float64 {
	m := p[0].Y
	for _, pt := range p[1:] {
		m = max(m, pt.Y)
	}
	return m
}

// CenterX returns the mean x coordinate of the vertices.
func (p Polygon) CenterX() float64 {
	var sum float64
	for _, pt := range p {
		sum += pt.X
	}
	return sum / float64(len(p))
}

// CenterY returns the mean y coordinate of the vertices.
func (p Polygon) CenterY() float64 {
	var sum float64
	for _, pt := range p {
		sum += pt.Y
	}
	return sum / float64(len(p))
}

// Height returns the vertical extent of the polygon.
func (p Polygon) Height() float64 {
	return p.MaxY() - p.MinY()
}

// Token is one OCR-recognized text fragment. Text-only sources leave Box zeroed.
type Token struct {
	Text       string
	Box        Polygon
	Confidence float64
}

// TextToken builds a token without geometry.
func TextToken(text string) Token {
	return Token{Text: text}
}

// Lines returns the token texts in stream order.
func Lines(tokens []Token) []string {
	lines := make([]string, len(tokens))
	for i, t := range tokens {
		lines[i] = t.Text
	}
	return lines
}

// TextTokens wraps plain lines as geometry-less tokens.
func TextTokens(lines []string) []Token {
	tokens := make([]Token, len(lines))
	for i, l := range lines {
		tokens[i] = TextToken(l)
	}
	return tokens
}

type tokenObject struct {
	Box        [][2]float64 `json:"box"`
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
}

// MarshalJSON encodes the token in the RapidOCR triple form [box, text, confidence].
func (t Token) MarshalJSON() ([]byte, error) {
	box := make([][2]float64, len(t.Box))
	for i, pt := range t.Box {
		box[i] = [2]float64{pt.X, pt.Y}
	}
	return json.Marshal([]any{box, t.Text, t.Confidence})
}

// UnmarshalJSON accepts the RapidOCR triple form, an object with box/text/confidence keys,
// or a bare string for text-only tokens.
func (t *Token) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*t = TextToken(text)
		return nil
	}

	var triple []json.RawMessage
	if err := json.Unmarshal(data, &triple); err == nil {
		if len(triple) < 2 {
			return fmt.Errorf("token triple has %d elements, want 3", len(triple))
		}
		var obj tokenObject
		if err := json.Unmarshal(triple[0], &obj.Box); err != nil {
			return fmt.Errorf("failed to decode token box: %w", err)
		}
		if err := json.Unmarshal(triple[1], &obj.Text); err != nil {
			return fmt.Errorf("failed to decode token text: %w", err)
		}
		if len(triple) > 2 {
			if err := json.Unmarshal(triple[2], &obj.Confidence); err != nil {
				return fmt.Errorf("failed to decode token confidence: %w", err)
			}
		}
		return t.fromObject(obj)
	}

	var obj tokenObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("unrecognized token encoding: %w", err)
	}
	return t.fromObject(obj)
}

func (t *Token) fromObject(obj tokenObject) error {
	if len(obj.Box) != 0 && len(obj.Box) != 4 {
		return fmt.Errorf("token %q has %d polygon points, want 4", obj.Text, len(obj.Box))
	}
	*t = Token{Text: obj.Text, Confidence: obj.Confidence}
	for i, pt := range obj.Box {
		t.Box[i] = Point{X: pt[0], Y: pt[1]}
	}
	return nil
}

// Page is the token stream recognized from one image.
type Page struct {
	Name   string
	Tokens []Token
}
