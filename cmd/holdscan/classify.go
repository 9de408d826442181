package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/holdscan/internal/cli"
	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <name>...",
		Short: "Classify holding names into the asset taxonomy",
		Long: `Run holding names through the classification rules and print their
three-level category. --verbose shows how each rule was evaluated.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runClassify,
	}

	addRulesFlag(cmd)
	cmd.Flags().BoolP("verbose", "v", false, "show the rule evaluation trace")
	cmd.Flags().String("code", "", "security code of the holding")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	code, _ := cmd.Flags().GetString("code")

	engine, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, arg := range args {
		name := strings.TrimSpace(arg)
		if !verbose {
			fmt.Fprintf(out, "%s\t%s\n", name, engine.Classify(name, code))
			continue
		}

		path, trace := engine.Trace(name, code)
		for _, line := range trace {
			slog.Debug(line)
			fmt.Fprintln(out, cli.StyleSubtle(line))
		}
		fmt.Fprintf(out, "%s\t%s\n", name, path)
	}
	return nil
}
