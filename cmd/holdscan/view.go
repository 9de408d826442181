package main

import (
	"github.com/Veraticus/holdscan/internal/common"
	"github.com/Veraticus/holdscan/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func viewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse the allocation report interactively",
		Long: `Open a terminal viewer over the allocation of a snapshot or saved scan. Tab
switches between holdings and the three category levels; enter on a category shows
the holdings in it.`,
		Args: cobra.NoArgs,
		RunE: runView,
	}

	addSourceFlags(cmd)
	addRulesFlag(cmd)
	addAllocationFlags(cmd)
	cmd.Flags().String("theme", "", "color theme: default or mocha (default: view.theme)")
	_ = viper.BindPFlag("view.theme", cmd.Flags().Lookup("theme"))

	return cmd
}

func runView(cmd *cobra.Command, _ []string) error {
	alloc, err := buildAllocation(cmd)
	if err != nil {
		return err
	}
	if len(alloc.Holdings) == 0 {
		return common.NewUserError("Nothing to show: no holdings with a market value", common.ErrNoHoldings)
	}

	return tui.Run(cmd.Context(), alloc, tui.Config{
		Theme: tui.ThemeByName(viper.GetString("view.theme")),
	})
}
