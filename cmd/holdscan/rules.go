package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/holdscan/internal/classification"
	"github.com/Veraticus/holdscan/internal/cli"
	"github.com/Veraticus/holdscan/internal/common"
	"github.com/Veraticus/holdscan/internal/config"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the classification rules in evaluation order",
		Long: `Print the effective rule table. Use --yaml to dump it as a rule file that
can be edited and passed back with --rules or classification.rules_file.`,
		Args: cobra.NoArgs,
		RunE: runRules,
	}
	addRulesFlag(cmd)
	cmd.Flags().Bool("yaml", false, "print the rules as a YAML rule file")

	cmd.AddCommand(&cobra.Command{
		Use:   "check <file>",
		Short: "Validate a rule file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := classification.LoadRules(config.ExpandPath(args[0]))
			if err != nil {
				return common.NewUserError(fmt.Sprintf("%s is not a valid rule file", args[0]), err)
			}
			if _, err := classification.NewEngine(rules); err != nil {
				return common.NewUserError(fmt.Sprintf("%s is not a valid rule file", args[0]), err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%d rules OK", len(rules))))
			return nil
		},
	})

	return cmd
}

func runRules(cmd *cobra.Command, _ []string) error {
	asYAML, _ := cmd.Flags().GetBool("yaml")

	engine, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if asYAML {
		data, err := classification.MarshalRules(engine.Rules())
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	rows := make([][]string, 0, len(engine.Rules()))
	for i, rule := range engine.Rules() {
		rows = append(rows, []string{fmt.Sprint(i + 1), describeRule(rule.Spec()), rule.Category.String()})
	}
	fmt.Fprintln(out, cli.RenderTable([]string{"#", "条件", "分类"}, rows))
	return nil
}

// describeRule renders the matching condition of a rule on one line.
func describeRule(s classification.RuleSpec) string {
	switch {
	case s.Default:
		return "default"
	case s.Regex != "":
		return "regex " + s.Regex
	case len(s.ExactMatch) > 0:
		return "exact " + strings.Join(s.ExactMatch, ",")
	}

	op := " & "
	if s.MatchAny {
		op = " | "
	}
	desc := strings.Join(s.Keywords, op)
	if len(s.AndKeywords) > 0 {
		desc += " + any of " + strings.Join(s.AndKeywords, ",")
	}
	if len(s.Exclude) > 0 {
		desc += " - " + strings.Join(s.Exclude, ",")
	}
	return desc
}
