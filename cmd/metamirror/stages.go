package main

import (
	"github.com/spf13/cobra"

	"github.com/backmassage/metamirror/internal/pipeline"
)

var stageShort = map[pipeline.Stage]string{
	pipeline.StagePrepare:    "Create the workspace directories",
	pipeline.StageFetch:      "Download the dump via torrent into the artifact store",
	pipeline.StageDecompress: "Expand every .gz artifact into a plain document",
	pipeline.StageConvert:    "Convert plain documents into Parquet batch files",
	pipeline.StageRegister:   "Register one DuckDB view per document type",
}

// stageCommand builds the subcommand that runs a single stage. Every stage
// but prepare runs after prepare so its directories exist.
func stageCommand(st pipeline.Stage) *cobra.Command {
	return &cobra.Command{
		Use:   string(st),
		Short: stageShort[st],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			stages := []pipeline.Stage{st}
			if st != pipeline.StagePrepare {
				stages = []pipeline.Stage{pipeline.StagePrepare, st}
			}
			return a.runStages(cmd, string(st), stages)
		},
	}
}

func init() {
	for _, st := range pipeline.AllStages(false) {
		rootCmd.AddCommand(stageCommand(st))
	}
}
