package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"f1-highlights/agents/highlights"

	"github.com/spf13/cobra"
)

var forceEvents bool

// runCmd runs pipeline stages once and prints their results
var runCmd = &cobra.Command{
	Use:   "run <catalog|details|events|all>",
	Short: "Run pipeline stages once",
	Long: `Run one pipeline stage, or all of them in order, and print the result.

Example:
  highlights run catalog
  highlights run events --force
  highlights run all`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{highlights.StageCatalog, highlights.StageDetails, highlights.StageEvents, "all"},
	RunE:      runStages,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&forceEvents, "force", false, "recompute events for videos that already have them")
}

// stagesFor expands a stage argument into the ordered stages to run.
func stagesFor(arg string) ([]string, error) {
	switch arg {
	case "all":
		return []string{highlights.StageCatalog, highlights.StageDetails, highlights.StageEvents}, nil
	case highlights.StageCatalog, highlights.StageDetails, highlights.StageEvents:
		return []string{arg}, nil
	default:
		return nil, fmt.Errorf("unknown stage %q (want catalog, details, events or all)", arg)
	}
}

func runStages(cmd *cobra.Command, args []string) error {
	stages, err := stagesFor(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.pipeline.Initialize(ctx); err != nil {
		return err
	}

	results, runErr := a.pipeline.RunStages(ctx, stages, forceEvents)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	for _, result := range results {
		if err := enc.Encode(result); err != nil {
			return err
		}
	}

	return runErr
}
