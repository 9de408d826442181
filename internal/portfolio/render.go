package portfolio

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.md
var templates embed.FS

var partials = map[string]string{
	"allocation_levels":   "templates/allocation_levels.md",
	"allocation_holdings": "templates/allocation_holdings.md",
	"allocation_skipped":  "templates/allocation_skipped.md",
}

var funcs = template.FuncMap{
	"money": FormatMoney,
	"pct":   FormatPercent,
}

// FormatMoney renders an amount with thousands separators and two decimals.
func FormatMoney(d decimal.Decimal) string {
	return humanize.FormatFloat("#,###.##", d.InexactFloat64())
}

// FormatPercent renders a percentage with two decimals.
func FormatPercent(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

// Markdown renders the allocation report.
func Markdown(a *Allocation) (string, error) {
	mainContent, err := fs.ReadFile(templates, "templates/allocation.md")
	if err != nil {
		return "", fmt.Errorf("failed to read report template: %w", err)
	}

	tmpl, err := template.New("allocation").Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse report template: %w", err)
	}
	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return "", fmt.Errorf("failed to read partial %q: %w", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return "", fmt.Errorf("failed to parse partial %q: %w", file, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, "allocation", a); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return b.String(), nil
}

// RenderTerminal styles markdown for a terminal of the given width.
func RenderTerminal(markdown string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
