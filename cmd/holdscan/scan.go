package main

import (
	"fmt"

	"github.com/Veraticus/holdscan/internal/cli"
	"github.com/Veraticus/holdscan/internal/common"
	"github.com/Veraticus/holdscan/internal/config"
	"github.com/Veraticus/holdscan/internal/model"
	"github.com/Veraticus/holdscan/internal/ocr"
	"github.com/Veraticus/holdscan/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <dump|directory>",
		Short: "Extract holdings from OCR dumps of screenshots",
		Long: `Parse OCR output of one screenshot, or of every .json/.txt dump in a directory,
into holding records. Each page's layout is detected automatically unless --channel
forces one.

Examples:
  # Scan a directory of RapidOCR dumps and keep the result
  holdscan scan ~/screenshots/ocr --output holdings.json

  # Force the Haitong layout and store the result as a snapshot
  holdscan scan page1.json --channel haitong --save --note "March"`,
		Args: cobra.ExactArgs(1),
		RunE: runScan,
	}

	cmd.Flags().StringP("channel", "c", "", "layout: auto, huabao, haitong or fund_e (default: auto)")
	cmd.Flags().IntP("workers", "w", 0, "pages parsed in parallel (default: scan.workers)")
	cmd.Flags().StringP("output", "o", "", "write the result JSON to this file ('-' for stdout)")
	cmd.Flags().Bool("save", false, "store the result as a snapshot")
	cmd.Flags().String("note", "", "note attached to the saved snapshot")
	cmd.Flags().Bool("no-progress", false, "hide the progress bar")

	_ = viper.BindPFlag("scan.channel", cmd.Flags().Lookup("channel"))
	_ = viper.BindPFlag("scan.workers", cmd.Flags().Lookup("workers"))

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	save, _ := cmd.Flags().GetBool("save")
	note, _ := cmd.Flags().GetString("note")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	channel, err := model.ParseChannel(viper.GetString("scan.channel"))
	if err != nil {
		return common.NewUserError(err.Error(), common.ErrInvalidConfig)
	}

	pages, err := ocr.Load(config.ExpandPath(args[0]))
	if err != nil {
		return common.NewUserError(fmt.Sprintf("Could not read OCR input %s", args[0]), err)
	}

	opts := pipeline.DefaultOptions()
	opts.Channel = channel
	if w := viper.GetInt("scan.workers"); w > 0 {
		opts.Workers = w
	}

	var progress *cli.Progress
	if !noProgress && len(pages) > 1 {
		progress = cli.NewProgress(cmd.ErrOrStderr(), len(pages), "Scanning pages...")
		opts.Progress = progress.Update
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, stop := interrupts.HandleInterrupts(cmd.Context(), "Scan", "Nothing was written; re-run the scan to start over.")
	defer stop()

	result, err := pipeline.Process(ctx, pages, opts)
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch output {
	case "":
	case "-":
		if err := writeJSON(out, result); err != nil {
			return err
		}
	default:
		if err := result.WriteFile(config.ExpandPath(output)); err != nil {
			return err
		}
	}

	if output != "-" {
		printScanSummary(cmd, result)
		if output != "" {
			fmt.Fprintln(out, cli.FormatSuccess("Wrote "+output))
		}
	}

	if save {
		if len(result.Data) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("No holdings found, nothing saved"))
			return nil
		}
		id, err := saveSnapshot(cmd.Context(), result.Data, result.Sources, note)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess("Saved snapshot "+id))
	}
	return nil
}

func printScanSummary(cmd *cobra.Command, result *pipeline.Result) {
	out := cmd.OutOrStdout()

	rows := make([][]string, 0, len(result.Data))
	for _, rec := range result.Data {
		rows = append(rows, []string{
			rec.Name,
			rec.Code,
			rec.SourceType.Label(),
			formatOptional(rec.Quantity),
			formatOptional(rec.MarketValue),
		})
	}

	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Scanned %d page(s) with holdings", len(result.Sources))))
	if len(rows) > 0 {
		fmt.Fprintln(out, cli.RenderTable([]string{"名称", "代码", "来源", "数量", "市值"}, rows))
	}

	counts := fmt.Sprintf("total %d", result.Summary.TotalCount)
	for _, ch := range result.Summary.Channels() {
		counts += fmt.Sprintf(", %s %d", ch, result.Summary.BySource[ch])
	}
	fmt.Fprintln(out, cli.StyleSubtle(counts))
}
