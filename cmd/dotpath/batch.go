package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/klyr/dotpath/internal/batch"
	"github.com/klyr/dotpath/internal/config"
	"github.com/klyr/dotpath/internal/rules"
)

func newBatchCmd() *cobra.Command {
	var casesPath string
	var outPath string
	var dbPath string
	var configPath string
	var policyName string
	var workers int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a file of path operations and check their expectations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if casesPath == "" {
				return errors.New("cases file is required")
			}
			cases, err := batch.Load(casesPath)
			if err != nil {
				return err
			}

			runner := &batch.Runner{Workers: workers}
			if configPath != "" {
				cfg, err := loadConfig(cmd, configPath)
				if err != nil {
					return err
				}
				if err := configureRunner(runner, cfg, policyName); err != nil {
					return err
				}
				if outPath == "" {
					outPath = cfg.ResolvePath(cfg.Logging.EvalLog)
				}
				if dbPath == "" {
					dbPath = cfg.ResolvePath(cfg.Store.Path)
				}
				if !cmd.Flags().Changed("workers") {
					runner.Workers = cfg.Workers()
				}
			}

			sink, closeSinks, err := openSinks(outPath, dbPath)
			defer func() { _ = closeSinks() }()
			if err != nil {
				return err
			}
			runner.Sink = sink

			outcomes, err := runner.Run(cmd.Context(), cases)
			if err != nil {
				return err
			}
			if err := printOutcomes(cmd.OutOrStdout(), outcomes); err != nil {
				return err
			}
			if failed := batch.Failed(outcomes); failed > 0 {
				return fmt.Errorf("%d of %d cases failed", failed, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&casesPath, "file", "f", "", "Path to cases YAML")
	cmd.Flags().StringVar(&outPath, "out", "", "Append records to this JSONL file")
	cmd.Flags().StringVar(&dbPath, "db", "", "Write records to this sqlite database")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config with rules and policies to apply")
	cmd.Flags().StringVar(&policyName, "policy", "default", "Policy to apply when a config is given")
	cmd.Flags().IntVar(&workers, "workers", config.DefaultBatchWorkers, "Cases evaluated in parallel")

	return cmd
}

func configureRunner(runner *batch.Runner, cfg *config.Config, policyName string) error {
	pol, ok := cfg.Policies[policyName]
	if !ok {
		return fmt.Errorf("unknown policy %q", policyName)
	}
	engine, err := rules.BuildEngine(cfg)
	if err != nil {
		return err
	}
	runner.Engine = engine
	runner.Policy = pol
	return nil
}

func printOutcomes(w io.Writer, outcomes []batch.Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, o := range outcomes {
		status := "-"
		if o.Case.HasExpectation() {
			status = "PASS"
			if !o.Passed {
				status = "FAIL"
			}
		}

		result := o.Result.Output
		switch {
		case o.Err != nil:
			result = "error: " + o.Err.Error()
		case o.Result.Absent:
			result = "(absent)"
		}
		if o.Decision.Block {
			result += " [blocked]"
		}

		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", status, o.Case.ID, o.Case.Op, result); err != nil {
			return err
		}
	}
	return tw.Flush()
}
