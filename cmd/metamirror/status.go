package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/backmassage/metamirror/internal/journal"
	"github.com/backmassage/metamirror/internal/pipeline"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent runs and the contents of the columnar store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if err := printRuns(cmd, a.cfg.Journal(), statusLimit); err != nil {
			return errorf("journal: %w", err)
		}

		rows, err := pipeline.Inventory(a.ctx, &a.cfg)
		if err != nil {
			return errorf("inventory: %w", err)
		}
		if len(rows) == 0 {
			cmd.Println("No batch files in", a.cfg.Layout().ColumnarDir)
			return nil
		}
		pipeline.PrintInventory(cmd.OutOrStdout(), rows)
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "Number of recent runs to show")
	rootCmd.AddCommand(statusCmd)
}

// printRuns lists the latest runs. A disabled or never-created journal is
// reported, not opened.
func printRuns(cmd *cobra.Command, path string, limit int) error {
	if path == "" {
		cmd.Println("Run journal disabled")
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		cmd.Println("No runs recorded yet")
		return nil
	}

	j, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.LatestRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	cmd.Println("Recent runs:")
	for _, r := range runs {
		took := "-"
		if !r.FinishedAt.IsZero() {
			took = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		line := fmt.Sprintf("  %s  %.8s  %-10s  %-7s  %-8s",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.ID, r.Command, r.Status, took)
		if r.Error != "" {
			line += "  [" + r.ErrorCode + "] " + r.Error
		}
		cmd.Println(line)
	}
	cmd.Println()
	return nil
}
