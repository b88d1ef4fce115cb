package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klyr/dotpath/internal/config"
	"github.com/klyr/dotpath/internal/logging"
	"github.com/klyr/dotpath/internal/normalize"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			for _, msg := range verr.Problems {
				fmt.Fprintln(os.Stderr, msg)
			}
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	var logFormat string

	root := &cobra.Command{
		Use:           "dotpath",
		Short:         "Evaluate paths with dot-shorthand ascents",
		Long:          "Evaluate paths with dot-shorthand ascents.\n\nA segment of n dots ascends n-1 levels. Operations: " + opNames() + ".",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.ConfigureDiagnostics(logLevel, logFormat)
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostic log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "Diagnostic log format: text|json|logfmt")

	root.AddCommand(newOpCmds()...)
	root.AddCommand(newBatchCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a dotpath configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return errors.New("config path is required")
			}
			cfg, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "config ok"); err != nil {
				return err
			}
			logging.Diagnostics().Debug("config validated", "component", "cli", "routes", len(cfg.Routes), "rules", len(cfg.Rules))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "version=%s commit=%s buildDate=%s\n", version, commit, buildDate)
		},
	}
}

// loadConfig loads and validates a config file, then applies its logging
// section unless the log flags were given.
func loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, format := cfg.Logging.Level, cfg.Logging.Format
	if cmd.Flags().Changed("log-level") {
		level = ""
	}
	if cmd.Flags().Changed("log-format") {
		format = ""
	}
	if err := logging.ConfigureDiagnostics(level, format); err != nil {
		return nil, err
	}
	return cfg, nil
}

func opNames() string {
	ops := normalize.Ops()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}
