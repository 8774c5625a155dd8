package main

import (
	"github.com/spf13/cobra"

	"github.com/backmassage/metamirror/internal/config"
	"github.com/backmassage/metamirror/internal/pipeline"
)

var rootCmd = &cobra.Command{
	Use:   "metamirror",
	Short: "Mirror a torrent-distributed metadata dump into Parquet and DuckDB",
	Long: `metamirror downloads the Elasticsearch metadata export of a bulk dump
via torrent, expands the gzip artifacts into line-delimited JSON, converts
every document into Parquet batch files, and registers one DuckDB view per
document type.

Run without a subcommand to execute every stage in order. Failures are
logged and the exit status stays 0 unless --strict is set.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return a.runStages(cmd, "run", pipeline.AllStages(a.cfg.SkipFetch))
	},
}

// overrides holds the persistent flags shared by every subcommand.
var overrides *config.Overrides

func init() {
	overrides = config.BindFlags(rootCmd.PersistentFlags())
}
