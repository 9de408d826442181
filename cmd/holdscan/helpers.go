package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/holdscan/internal/classification"
	"github.com/Veraticus/holdscan/internal/common"
	"github.com/Veraticus/holdscan/internal/config"
	"github.com/Veraticus/holdscan/internal/model"
	"github.com/Veraticus/holdscan/internal/pipeline"
	"github.com/Veraticus/holdscan/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initStorage opens the snapshot database and migrates it.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.Open(ctx, config.DatabasePath())
	if err != nil {
		return nil, common.NewUserError("Could not open the snapshot database", err)
	}
	return store, nil
}

// loadEngine builds the rule engine from --rules, the classification.rules_file setting or
// the built-in table, in that order.
func loadEngine(cmd *cobra.Command) (*classification.Engine, error) {
	path, _ := cmd.Flags().GetString("rules")
	if path == "" {
		path = viper.GetString("classification.rules_file")
	}
	if path == "" {
		return classification.Default(), nil
	}

	rules, err := classification.LoadRules(config.ExpandPath(path))
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("Invalid rule file %s", path), err)
	}
	engine, err := classification.NewEngine(rules)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("Invalid rule file %s", path), err)
	}
	slog.Debug("Loaded custom rules", "file", path, "rules", len(rules))
	return engine, nil
}

func addRulesFlag(cmd *cobra.Command) {
	cmd.Flags().String("rules", "", "YAML rule file replacing the built-in classification table")
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "", "saved scan result JSON to read instead of a snapshot")
	cmd.Flags().StringP("snapshot", "s", "", "snapshot ID, ID prefix or 'latest' (default: latest)")
}

// loadRecords returns the holdings named by --input or --snapshot, defaulting to the latest
// snapshot.
func loadRecords(cmd *cobra.Command) ([]model.Record, string, error) {
	input, _ := cmd.Flags().GetString("input")
	ref, _ := cmd.Flags().GetString("snapshot")

	if input != "" {
		if ref != "" {
			return nil, "", common.NewUserError("Use either --input or --snapshot, not both", common.ErrInvalidConfig)
		}
		result, err := pipeline.ReadFile(config.ExpandPath(input))
		if err != nil {
			return nil, "", err
		}
		return result.Data, input, nil
	}

	if ref == "" {
		ref = storage.LatestRef
	}
	store, err := initStorage(cmd.Context())
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = store.Close() }()

	snap, err := store.ResolveSnapshot(cmd.Context(), ref)
	if err != nil {
		return nil, "", common.NewUserError(fmt.Sprintf("No snapshot matches %q; run 'holdscan scan --save' first", ref), err)
	}
	return snap.Records, "snapshot " + snap.ID, nil
}

// saveSnapshot stores records as a new snapshot and returns its ID.
func saveSnapshot(ctx context.Context, records []model.Record, sources []string, note string) (string, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = store.Close() }()

	snap := &model.Snapshot{Note: note, Sources: sources, Records: records}
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}
	slog.Info("Saved snapshot", "id", snap.ID, "records", len(records), "db", store.Path())
	return snap.ID, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
