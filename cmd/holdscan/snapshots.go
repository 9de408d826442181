package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/holdscan/internal/cli"
	"github.com/Veraticus/holdscan/internal/common"
	"github.com/spf13/cobra"
)

const snapshotTimeLayout = "2006-01-02 15:04"

func snapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshots",
		Aliases: []string{"snap"},
		Short:   "List, show and delete saved scans",
		Args:    cobra.NoArgs,
		RunE:    runListSnapshots,
	}
	cmd.Flags().Bool("json", false, "print the list as JSON")

	show := &cobra.Command{
		Use:   "show <ref>",
		Short: "Print a snapshot's holdings",
		Args:  cobra.ExactArgs(1),
		RunE:  runShowSnapshot,
	}
	show.Flags().Bool("json", false, "print the snapshot as JSON")

	del := &cobra.Command{
		Use:   "delete <ref>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeleteSnapshot,
	}
	del.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	cmd.AddCommand(show, del)
	return cmd
}

func runListSnapshots(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	infos, err := store.ListSnapshots(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, infos)
	}
	if len(infos) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No snapshots yet; run 'holdscan scan --save'"))
		return nil
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{
			info.ID,
			info.CreatedAt.Local().Format(snapshotTimeLayout),
			fmt.Sprint(info.RecordCount),
			fmt.Sprintf("%.2f", info.TotalValue),
			info.Note,
		})
	}
	fmt.Fprintln(out, cli.RenderTable([]string{"ID", "时间", "持仓", "市值", "备注"}, rows))
	return nil
}

func runShowSnapshot(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	snap, err := store.ResolveSnapshot(cmd.Context(), args[0])
	if err != nil {
		return common.NewUserError(fmt.Sprintf("No snapshot matches %q", args[0]), err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, snap)
	}

	title := fmt.Sprintf("Snapshot %s (%s)", snap.ID, snap.CreatedAt.Local().Format(snapshotTimeLayout))
	fmt.Fprintln(out, cli.FormatTitle(title))
	if snap.Note != "" {
		fmt.Fprintln(out, cli.StyleSubtle(snap.Note))
	}
	rows := make([][]string, 0, len(snap.Records))
	for _, rec := range snap.Records {
		rows = append(rows, []string{
			rec.Name,
			rec.Code,
			rec.SourceType.Label(),
			formatOptional(rec.Quantity),
			formatOptional(rec.MarketValue),
		})
	}
	fmt.Fprintln(out, cli.RenderTable([]string{"名称", "代码", "来源", "数量", "市值"}, rows))
	fmt.Fprintln(out, cli.StyleSubtle("sources: "+strings.Join(snap.Sources, ", ")))
	return nil
}

func runDeleteSnapshot(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	snap, err := store.ResolveSnapshot(cmd.Context(), args[0])
	if err != nil {
		return common.NewUserError(fmt.Sprintf("No snapshot matches %q", args[0]), err)
	}

	if !yes {
		reader := cli.NewNonBlockingReader(cmd.InOrStdin())
		question := fmt.Sprintf("Delete snapshot %s with %d holdings?", snap.ID, len(snap.Records))
		ok, err := reader.Confirm(cmd.Context(), cmd.ErrOrStderr(), question)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatInfo("Nothing deleted"))
			return nil
		}
	}

	if err := store.DeleteSnapshot(cmd.Context(), snap.ID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess("Deleted snapshot "+snap.ID))
	return nil
}

