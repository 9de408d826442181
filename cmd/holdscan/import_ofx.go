package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/holdscan/internal/cli"
	"github.com/Veraticus/holdscan/internal/common"
	"github.com/Veraticus/holdscan/internal/config"
	"github.com/Veraticus/holdscan/internal/model"
	"github.com/Veraticus/holdscan/internal/ofx"
	"github.com/Veraticus/holdscan/internal/pipeline"
	"github.com/spf13/cobra"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx <file|glob>...",
		Short: "Import investment positions from OFX/QFX statements",
		Long: `Read the position lists of OFX or QFX investment statements and convert them
into holding records, the same shape a screenshot scan produces.

Examples:
  holdscan import-ofx ~/Downloads/*.qfx --save
  holdscan import-ofx broker.ofx --output positions.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().StringP("output", "o", "", "write the result JSON to this file ('-' for stdout)")
	cmd.Flags().Bool("save", false, "store the result as a snapshot")
	cmd.Flags().String("note", "", "note attached to the saved snapshot")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	save, _ := cmd.Flags().GetBool("save")
	note, _ := cmd.Flags().GetString("note")

	files, err := expandGlobs(args)
	if err != nil {
		return err
	}

	parser := ofx.NewParser()
	result := pipeline.NewResult(time.Now())
	for _, path := range files {
		records, err := parseOFXFile(cmd, parser, path)
		if err != nil {
			return common.NewUserError(fmt.Sprintf("Could not import %s", path), err)
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("No positions in "+filepath.Base(path)))
			continue
		}
		result.Add(filepath.Base(path), records)
	}

	switch output {
	case "":
	case "-":
		if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	default:
		if err := result.WriteFile(config.ExpandPath(output)); err != nil {
			return err
		}
	}
	if output != "-" {
		printScanSummary(cmd, result)
	}

	if save {
		if len(result.Data) == 0 {
			return common.NewUserError("No positions found, nothing saved", common.ErrNoHoldings)
		}
		id, err := saveSnapshot(cmd.Context(), result.Data, result.Sources, note)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess("Saved snapshot "+id))
	}
	return nil
}

func parseOFXFile(cmd *cobra.Command, parser *ofx.Parser, path string) ([]model.Record, error) {
	f, err := os.Open(path) //nolint:gosec // user-supplied statement path
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return parser.ParseFile(cmd.Context(), f)
}

// expandGlobs resolves each argument as a glob, keeping plain paths that match nothing so
// the open error names them.
func expandGlobs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		pattern := config.ExpandPath(arg)
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, common.NewUserError(fmt.Sprintf("Invalid pattern %s", arg), err)
		}
		if len(matches) == 0 {
			matches = []string{pattern}
		}
		files = append(files, matches...)
	}
	return files, nil
}
