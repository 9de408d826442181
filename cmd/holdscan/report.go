package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/holdscan/internal/cli"
	"github.com/Veraticus/holdscan/internal/common"
	"github.com/Veraticus/holdscan/internal/config"
	"github.com/Veraticus/holdscan/internal/portfolio"
	"github.com/Veraticus/holdscan/internal/sheets"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newExporter builds the Sheets exporter; tests swap it for a mock.
var newExporter = func(ctx context.Context) (sheets.Exporter, error) {
	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		return nil, common.NewUserError("Google Sheets is not configured (see sheets.* settings)", err)
	}
	return sheets.NewWriter(ctx, *cfg, slog.Default())
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the asset allocation of scanned holdings",
		Long: `Classify every holding worth more than --min-value, add optional cash and
report the allocation across the three taxonomy levels.

Examples:
  # Allocation of the latest snapshot, rendered for the terminal
  holdscan report

  # From a saved scan result, with 20,000 in cash, as JSON
  holdscan report --input holdings.json --cash 20000 --json

  # Export to Google Sheets
  holdscan report --snapshot 3f2a --sheets`,
		Args: cobra.NoArgs,
		RunE: runReport,
	}

	addSourceFlags(cmd)
	addRulesFlag(cmd)
	addAllocationFlags(cmd)
	cmd.Flags().Bool("json", false, "print the allocation as JSON")
	cmd.Flags().Bool("markdown", false, "print raw markdown instead of rendering it")
	cmd.Flags().Bool("sheets", false, "export the allocation to Google Sheets")
	cmd.Flags().Int("width", 100, "terminal width for the rendered report")

	return cmd
}

// addAllocationFlags registers the report.* overrides. They are read per command rather
// than bound to viper, since report and view share the keys.
func addAllocationFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("min-value", 0, "skip holdings worth at most this much (default: report.min_value)")
	cmd.Flags().Float64("cash", 0, "cash amount to include as a holding (default: report.cash)")
	cmd.Flags().String("cash-name", "", "name of the cash holding (default: report.cash_name)")
}

func floatSetting(cmd *cobra.Command, flag, key string) float64 {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetFloat64(flag)
		return v
	}
	return viper.GetFloat64(key)
}

// buildAllocation loads the selected holdings and aggregates them with the report settings.
func buildAllocation(cmd *cobra.Command) (*portfolio.Allocation, error) {
	records, source, err := loadRecords(cmd)
	if err != nil {
		return nil, err
	}
	engine, err := loadEngine(cmd)
	if err != nil {
		return nil, err
	}

	opts := portfolio.DefaultOptions()
	opts.MinValue = decimal.NewFromFloat(floatSetting(cmd, "min-value", "report.min_value"))
	opts.Cash = decimal.NewFromFloat(floatSetting(cmd, "cash", "report.cash"))
	name, _ := cmd.Flags().GetString("cash-name")
	if name == "" {
		name = viper.GetString("report.cash_name")
	}
	if name != "" {
		opts.CashName = name
	}

	slog.Debug("Building allocation", "source", source, "records", len(records))
	a, err := portfolio.Build(records, engine, opts)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("No holdings above %s in %s", opts.MinValue, source), err)
	}
	return a, nil
}

func runReport(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	rawMarkdown, _ := cmd.Flags().GetBool("markdown")
	toSheets, _ := cmd.Flags().GetBool("sheets")
	width, _ := cmd.Flags().GetInt("width")

	a, err := buildAllocation(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if toSheets {
		exporter, err := newExporter(cmd.Context())
		if err != nil {
			return err
		}
		id, err := exporter.Export(cmd.Context(), a)
		if err != nil {
			return fmt.Errorf("failed to export to Google Sheets: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess("Exported to spreadsheet "+id))
	}

	if asJSON {
		return writeJSON(out, a)
	}

	md, err := portfolio.Markdown(a)
	if err != nil {
		return err
	}
	if rawMarkdown {
		_, err = fmt.Fprint(out, md)
		return err
	}
	rendered, err := portfolio.RenderTerminal(md, width)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}
