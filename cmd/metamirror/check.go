package main

import (
	"github.com/spf13/cobra"

	"github.com/backmassage/metamirror/internal/check"
	"github.com/backmassage/metamirror/internal/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the torrent client, DuckDB and the workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if a.cfg.Verbose {
			if out, err := config.Encode(&a.cfg); err == nil {
				cmd.Println("# effective configuration")
				cmd.Print(out)
				cmd.Println()
			}
		}
		if failed := check.RunCheck(a.ctx, &a.cfg, a.log); failed > 0 {
			return errorf("%d check(s) failed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
