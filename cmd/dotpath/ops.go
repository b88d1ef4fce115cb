package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/klyr/dotpath/internal/normalize"
)

var errNoAbsolutePath = errors.New("no absolute path")

func newOpCmds() []*cobra.Command {
	return []*cobra.Command{
		{
			Use:   "resolve BASE PATH",
			Short: "Join PATH onto BASE without evaluating dot-segments",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return writeLine(cmd.OutOrStdout(), normalize.ResolvePath(args[0], args[1]))
			},
		},
		{
			Use:   "evaluate PATH",
			Short: "Collapse the dot-segments of PATH",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return writeLine(cmd.OutOrStdout(), normalize.EvaluatePath(args[0]))
			},
		},
		{
			Use:   "absolute BASE PATH",
			Short: "Evaluate PATH against BASE; fails when the result is not absolute",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				out, ok := normalize.AbsolutePath(args[0], args[1])
				if !ok {
					return errNoAbsolutePath
				}
				return writeLine(cmd.OutOrStdout(), out)
			},
		},
		{
			Use:   "parent PATH",
			Short: "Print the evaluated parent of PATH",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return writeLine(cmd.OutOrStdout(), normalize.ParentPath(args[0]))
			},
		},
		{
			Use:   "compatible PATH",
			Short: "Evaluate PATH and spell leading ascents as ../ segments",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return writeLine(cmd.OutOrStdout(), normalize.CompatiblePath(args[0]))
			},
		},
		newStackCmd(),
		{
			Use:   "dot-pattern SEGMENT",
			Short: "Report whether SEGMENT consists only of dots",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return writeLine(cmd.OutOrStdout(), fmt.Sprint(normalize.IsDotPattern(args[0])))
			},
		},
	}
}

func newStackCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "stack PATH",
		Short: "Print the segments of PATH, one per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, segment := range normalize.PathStack(args[0], !raw) {
				if err := writeLine(cmd.OutOrStdout(), segment); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Keep dot-segments as they are")

	return cmd
}

func writeLine(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}
