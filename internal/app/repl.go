package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"

	"smarttable/internal/calc"
	"smarttable/internal/grid"
	"smarttable/internal/sheet"
	"smarttable/internal/storage"
)

const replHelp = `  =FORMULA        evaluate a formula against the sheet
  A1 = TEXT       set a cell (TEXT may itself be a formula)
  A1              show a cell's value and raw text
  :show           print the sheet
  :pending        list AI cells waiting for an answer
  :resolve A1 TXT answer a pending AI cell
  :w FILE         save as CSV (raw text)
  :o FILE         open a CSV or XLSX file
  :funcs          list functions
  exit            quit`

func newReplCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "repl [FILE]",
		Short: "Interactive formula prompt",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := cfg.newSheet()
			if len(args) == 1 {
				var err error
				if s, err = cfg.load(args[0]); err != nil {
					return err
				}
			}
			w, color := cfg.output(cmd)
			sess := &session{cfg: cfg, sheet: s, out: w, color: color}

			fmt.Fprintln(w, "SmartTable formula prompt. Type :help for commands, exit to quit.")
			p := prompt.New(
				func(in string) { sess.execute(in) },
				completer,
				prompt.OptionTitle("SmartTable"),
				prompt.OptionPrefix("smarttable> "),
				prompt.OptionCompletionWordSeparator(wordSeparators),
				prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
					return breakline && sess.quit
				}),
			)
			p.Run()
			return nil
		},
	}
}

// session is the state behind the prompt. It is kept apart from
// go-prompt so commands can be driven directly.
type session struct {
	cfg   *Config
	sheet *sheet.Sheet
	out   io.Writer
	color bool
	quit  bool
}

func (s *session) execute(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if strings.HasPrefix(line, "=") {
		s.printResult(s.sheet.EvalFormula(line))
		return
	}
	if strings.HasPrefix(line, ":") {
		s.command(line[1:])
		return
	}
	switch strings.ToLower(line) {
	case "exit", "quit", "q":
		fmt.Fprintln(s.out, "Bye!")
		s.quit = true
		return
	}
	if name, text, ok := strings.Cut(line, "="); ok {
		if ref, ok := grid.ParseRef(name); ok {
			s.sheet.Set(ref, strings.TrimSpace(text))
			s.printResult(s.sheet.Eval(ref))
			return
		}
	}
	if ref, ok := grid.ParseRef(line); ok {
		raw := s.sheet.Raw(ref)
		res := s.sheet.Eval(ref)
		if strings.HasPrefix(raw, "=") {
			fmt.Fprintf(s.out, "%s  (%s)\n", paint(res.Value.Display(), s.color), raw)
			return
		}
		s.printResult(res)
		return
	}
	fmt.Fprintf(s.out, "unknown input %q; type :help\n", line)
}

func (s *session) command(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}
	switch parts[0] {
	case "help", "h":
		fmt.Fprintln(s.out, replHelp)
	case "show":
		if err := renderTable(s.out, s.sheet, s.sheet.Display, s.color); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	case "funcs":
		fmt.Fprintln(s.out, strings.Join(calc.Functions(), " "))
	case "pending":
		cells, err := s.sheet.Pending(context.Background())
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return
		}
		if len(cells) == 0 {
			fmt.Fprintln(s.out, "no pending cells")
		}
		for _, p := range cells {
			fmt.Fprintf(s.out, "%s\t%s\n", p.Ref, p.Prompt)
		}
	case "resolve":
		if len(parts) < 3 {
			fmt.Fprintln(s.out, "usage: :resolve CELL ANSWER")
			return
		}
		ref, ok := grid.ParseRef(parts[1])
		if !ok {
			fmt.Fprintf(s.out, "invalid cell %q\n", parts[1])
			return
		}
		if err := s.sheet.Resolve(ref, strings.Join(parts[2:], " ")); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return
		}
		s.printResult(s.sheet.Eval(ref))
	case "w":
		if len(parts) < 2 {
			fmt.Fprintln(s.out, "usage: :w FILE")
			return
		}
		filename := parts[1]
		if filepath.Ext(filename) != ".csv" {
			filename += ".csv"
		}
		if err := storage.SaveCSV(s.sheet, filename); err != nil {
			fmt.Fprintf(s.out, "error saving CSV: %v\n", err)
			return
		}
		fmt.Fprintf(s.out, "saved %s\n", filename)
	case "o":
		if len(parts) < 2 {
			fmt.Fprintln(s.out, "usage: :o FILE")
			return
		}
		loaded, err := s.cfg.load(parts[1])
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return
		}
		s.sheet = loaded
		fmt.Fprintf(s.out, "opened %s (%d cells)\n", parts[1], loaded.Len())
	default:
		fmt.Fprintf(s.out, "unknown command :%s\n", parts[0])
	}
}

func (s *session) printResult(res calc.Result) {
	fmt.Fprintln(s.out, paint(res.Value.Display(), s.color))
	switch {
	case res.Pending:
		fmt.Fprintf(s.out, "  pending AI request: %s\n", res.Prompt)
	case res.Failed():
		fmt.Fprintf(s.out, "  %s\n", res.Error)
	}
}

const wordSeparators = " =(,:+-*/"

func completer(d prompt.Document) []prompt.Suggest {
	word := d.GetWordBeforeCursorUntilSeparator(wordSeparators)
	if word == "" {
		return nil
	}
	return prompt.FilterHasPrefix(suggestions(), word, true)
}

func suggestions() []prompt.Suggest {
	names := calc.Functions()
	out := make([]prompt.Suggest, 0, len(names))
	for _, name := range names {
		out = append(out, prompt.Suggest{Text: name + "(", Description: "function"})
	}
	return out
}
