package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"smarttable/internal/calc"
	"smarttable/internal/sheet"
	"smarttable/internal/storage"
)

func newEvalCommand(cfg *Config) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "eval FORMULA",
		Short: "Evaluate one formula, optionally against a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := cfg.newSheet()
			if file != "" {
				var err error
				if s, err = cfg.load(file); err != nil {
					return err
				}
			}
			res := s.EvalFormula(args[0])
			w, color := cfg.output(cmd)
			fmt.Fprintln(w, paint(res.Value.Display(), color))
			switch {
			case res.Pending:
				fmt.Fprintf(cmd.ErrOrStderr(), "pending AI request: %s\n", res.Prompt)
			case res.Failed():
				return errors.New(res.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV or XLSX file to resolve references against")
	return cmd
}

func newShowCommand(cfg *Config) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Print the evaluated grid as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cfg.load(args[0])
			if err != nil {
				return err
			}
			w, color := cfg.output(cmd)
			text := s.Display
			if raw {
				text = s.Raw
			}
			return renderTable(w, s, text, color)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "show formulas instead of their values")
	return cmd
}

func newExportCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "export IN OUT.csv",
		Short: "Write the evaluated values of a file to CSV",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cfg.load(args[0])
			if err != nil {
				return err
			}
			if err := storage.ExportCSV(s, args[1]); err != nil {
				return fmt.Errorf("cannot export %s: %w", args[1], err)
			}
			cfg.log().Debug("exported values", "file", args[1])
			return nil
		},
	}
}

func newRefsCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "refs FORMULA",
		Short: "List the cells a formula reads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, ref := range sheet.References(args[0]) {
				fmt.Fprintln(cmd.OutOrStdout(), ref)
			}
			return nil
		},
	}
}

func newPendingCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "pending FILE",
		Short: "List AI(...) cells waiting for an answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cfg.load(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cells, err := s.Pending(ctx)
			if err != nil {
				return err
			}
			for _, p := range cells {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.Ref, p.Prompt)
			}
			return nil
		},
	}
}

func newFuncsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "funcs",
		Short: "List the supported functions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range calc.Functions() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
