// Package app wires the smarttable command line: one-shot commands over
// CSV/XLSX files and an interactive formula prompt.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"smarttable/internal/calc"
	"smarttable/internal/sheet"
	"smarttable/internal/storage"
)

// Config is the resolved command line and environment configuration.
type Config struct {
	Verbose   bool
	IndexRefs bool
	Color     string // auto | always | never
	Sheet     string // worksheet for .xlsx input

	logger *slog.Logger
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func NewRootCommand() *cobra.Command {
	cfg := &Config{Color: "auto"}
	root := &cobra.Command{
		Use:   "smarttable",
		Short: "Evaluate spreadsheet formulas over CSV and XLSX files",
		Long: `Evaluate spreadsheet formulas over CSV and XLSX files.

Examples:
  smarttable eval '=SUM(1,2,3)'
  smarttable eval --file budget.csv '=AVERAGE(B2:B13)'
  smarttable show budget.csv
  smarttable repl budget.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.resolve(cmd)
		},
	}
	flags := root.PersistentFlags()
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log debug output to stderr")
	flags.BoolVar(&cfg.IndexRefs, "index-ref", false, "INDEX returns the selected address instead of its value (env SMARTTABLE_INDEX_REF)")
	flags.StringVar(&cfg.Color, "color", cfg.Color, "colour error values: auto, always or never (env SMARTTABLE_COLOR)")
	flags.StringVar(&cfg.Sheet, "sheet", "", "worksheet to read from .xlsx files (default: first)")

	root.AddCommand(
		newEvalCommand(cfg),
		newShowCommand(cfg),
		newExportCommand(cfg),
		newRefsCommand(cfg),
		newPendingCommand(cfg),
		newFuncsCommand(),
		newReplCommand(cfg),
	)
	return root
}

// resolve applies environment overrides to flags left at their default
// and builds the logger.
func (c *Config) resolve(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if v := os.Getenv("SMARTTABLE_INDEX_REF"); v != "" && !flags.Changed("index-ref") {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SMARTTABLE_INDEX_REF: %w", err)
		}
		c.IndexRefs = b
	}
	if v := os.Getenv("SMARTTABLE_COLOR"); v != "" && !flags.Changed("color") {
		c.Color = v
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid --color %q: want auto, always or never", c.Color)
	}

	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func (c *Config) engine() *calc.Engine {
	if c.IndexRefs {
		return calc.New(calc.WithIndexReferences())
	}
	return calc.New()
}

func (c *Config) sheetOptions() []sheet.Option {
	return []sheet.Option{sheet.WithEngine(c.engine()), sheet.WithLogger(c.log())}
}

func (c *Config) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

func (c *Config) newSheet() *sheet.Sheet {
	return sheet.New(c.sheetOptions()...)
}

// load reads a CSV or XLSX file into a sheet.
func (c *Config) load(filename string) (*sheet.Sheet, error) {
	var (
		s   *sheet.Sheet
		err error
	)
	lower := strings.ToLower(filename)
	if c.Sheet != "" && (strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm")) {
		s, err = storage.LoadXLSX(filename, c.Sheet, c.sheetOptions()...)
	} else {
		s, err = storage.Load(filename, c.sheetOptions()...)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot load %s: %w", filename, err)
	}
	c.log().Debug("loaded sheet", "file", filename, "cells", s.Len())
	return s, nil
}

// output returns where to print and whether sentinels get coloured.
// Colour is only used on a terminal unless forced.
func (c *Config) output(cmd *cobra.Command) (io.Writer, bool) {
	w := cmd.OutOrStdout()
	switch c.Color {
	case "never":
		return w, false
	case "always":
		if w == os.Stdout {
			return colorable.NewColorableStdout(), true
		}
		return w, true
	}
	if w != os.Stdout {
		return w, false
	}
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return colorable.NewColorableStdout(), true
	}
	return w, false
}
