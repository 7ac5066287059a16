package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nvandessel/desirepath/internal/backup"
	"github.com/nvandessel/desirepath/internal/pathutil"
	"github.com/nvandessel/desirepath/internal/store"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Save every recorded run to a backup file",
		Long: `Back up all runs and their per-tick statistics to a compressed file.

Default location: ~/.desirepath/backups/desirepath-backup-YYYYMMDD-HHMMSS.json.gz
Older backups in the same directory are pruned to the newest --keep, plus
any younger than --max-age.

Examples:
  desirepath backup
  desirepath backup --output ./before-tuning.json.gz
  desirepath backup list
  desirepath backup restore ~/.desirepath/backups/desirepath-backup-20260301-120000.json.gz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			outputPath, _ := cmd.Flags().GetString("output")
			keep, _ := cmd.Flags().GetInt("keep")
			maxAge, _ := cmd.Flags().GetString("max-age")

			policy, err := retentionPolicy(keep, maxAge)
			if err != nil {
				return err
			}

			if outputPath == "" {
				dir, err := backup.DefaultBackupDir()
				if err != nil {
					return fmt.Errorf("failed to get backup directory: %w", err)
				}
				outputPath = backup.GenerateBackupPath(dir)
			} else if err := checkBackupPath(outputPath); err != nil {
				return fmt.Errorf("backup path rejected: %w", err)
			}

			return withStore(cmd, func(ctx context.Context, s store.StatsStore) error {
				result, err := backup.Backup(ctx, s, outputPath)
				if err != nil {
					return fmt.Errorf("backup failed: %w", err)
				}

				pruned, err := backup.ApplyRetention(filepath.Dir(outputPath), policy)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to apply retention: %v\n", err)
				}

				if jsonOut {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
						"path":   outputPath,
						"runs":   len(result.Runs),
						"ticks":  result.TickCount(),
						"pruned": len(pruned),
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backup created: %d runs, %s ticks\n", len(result.Runs), humanize.Comma(int64(result.TickCount())))
				fmt.Fprintf(cmd.OutOrStdout(), "  Path: %s\n", outputPath)
				if len(pruned) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "  Pruned %d old backup(s)\n", len(pruned))
				}
				return nil
			})
		},
	}

	cmd.PersistentFlags().String("db", "", "Run database path")
	cmd.Flags().StringP("output", "o", "", "Output file (default: timestamped file in ~/.desirepath/backups/)")
	cmd.Flags().Int("keep", 10, "Number of most recent backups to keep")
	cmd.Flags().String("max-age", "", "Also keep backups younger than this (e.g. 72h, 30d, 2w)")

	cmd.AddCommand(newBackupListCmd(), newBackupRestoreCmd())
	return cmd
}

// retentionPolicy keeps the newest keep backups, plus those younger than
// maxAge when it is set.
func retentionPolicy(keep int, maxAge string) (backup.RetentionPolicy, error) {
	if keep < 1 {
		return nil, fmt.Errorf("--keep must be at least 1")
	}
	count := &backup.CountPolicy{MaxCount: keep}
	if maxAge == "" {
		return count, nil
	}
	d, err := backup.ParseDuration(maxAge)
	if err != nil {
		return nil, err
	}
	return unionPolicy{count, &backup.AgePolicy{MaxAge: d}}, nil
}

// unionPolicy keeps a backup if any policy keeps it.
type unionPolicy []backup.RetentionPolicy

func (u unionPolicy) Apply(backups []backup.BackupInfo) []backup.BackupInfo {
	kept := make(map[string]bool)
	for _, p := range u {
		for _, b := range p.Apply(backups) {
			kept[b.Path] = true
		}
	}
	var out []backup.BackupInfo
	for _, b := range backups {
		if kept[b.Path] {
			out = append(out, b)
		}
	}
	return out
}

func checkBackupPath(path string) error {
	dirs, err := pathutil.AllowedOutputDirs()
	if err != nil {
		return err
	}
	return pathutil.ValidatePath(path, dirs)
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups in ~/.desirepath/backups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			dir, err := backup.DefaultBackupDir()
			if err != nil {
				return err
			}
			list, err := backup.ListBackups(dir)
			if err != nil {
				return err
			}

			if jsonOut {
				if list == nil {
					list = []backup.BackupInfo{}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No backups found.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tSIZE\tCREATED")
			for _, b := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", filepath.Base(b.Path), humanize.Bytes(uint64(b.Size)), humanize.Time(b.CreatedAt))
			}
			return tw.Flush()
		},
	}
}

func newBackupRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore runs from a backup file",
		Long: `Restore runs from a backup file. Plain JSON and compressed backups are
both accepted.

Modes:
  merge   - skip runs that already exist (default)
  replace - overwrite runs with the same id`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			mode, _ := cmd.Flags().GetString("mode")

			restoreMode := backup.RestoreMode(mode)
			if !restoreMode.Valid() {
				return fmt.Errorf("invalid mode %q (valid: merge, replace)", mode)
			}
			if err := checkBackupPath(args[0]); err != nil {
				return fmt.Errorf("restore path rejected: %w", err)
			}
			if _, err := os.Stat(args[0]); err != nil {
				return fmt.Errorf("backup not found: %s", pathutil.RedactPath(args[0]))
			}

			return withStore(cmd, func(ctx context.Context, s store.StatsStore) error {
				result, err := backup.Restore(ctx, s, args[0], restoreMode)
				if err != nil {
					return fmt.Errorf("restore failed: %w", err)
				}
				if jsonOut {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %d runs (%s ticks), skipped %d\n",
					result.RunsRestored, humanize.Comma(int64(result.TicksRestored)), result.RunsSkipped)
				return nil
			})
		},
	}
	cmd.Flags().String("mode", string(backup.RestoreMerge), "Restore mode: merge or replace")
	return cmd
}
