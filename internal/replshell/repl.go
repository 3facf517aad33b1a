// Package replshell implements the interactive read-eval-print loop around
// the inference/lowering pipeline.
package replshell

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/webml-go/mlcore/internal/config"
	"github.com/webml-go/mlcore/internal/pipeline"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

// Config holds the toggles the REPL's colon-commands flip, layered on top of
// the shared pipeline config.
type Config struct {
	ShowTyped    bool
	ShowHIR      bool
	ShowUnnested bool
	ShowClosed   bool
}

// REPL is one interactive session.
type REPL struct {
	cfg     config.Config
	replCfg Config
	history []string
}

// New creates a REPL with colorized output enabled by default.
func New() *REPL {
	return &REPL{cfg: config.Default()}
}

func (r *REPL) prompt() string {
	return "λ> "
}

var commands = []string{":help", ":quit", ":type", ":hir", ":unnested", ":closed", ":history", ":reset"}

// Start runs the loop until EOF or :quit, writing to out. Lines are read
// from the terminal through liner; in is not read. Each accepted line is
// run through the full pipeline and its requested stages are printed.
func (r *REPL) Start(in io.Reader, out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()

	historyFile := filepath.Join(os.TempDir(), ".mlcore_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	line.SetMultiLineMode(true)
	line.SetCompleter(func(text string) (c []string) {
		if !strings.HasPrefix(text, ":") {
			return nil
		}
		for _, cmd := range commands {
			if strings.HasPrefix(cmd, text) {
				c = append(c, cmd)
			}
		}
		return c
	})

	fmt.Fprintf(out, "%s\n", bold("mlcorec"))
	fmt.Fprintln(out, dim("Type :help for help, :quit to exit"))
	fmt.Fprintln(out)

	for {
		input, err := line.Prompt(r.prompt())
		if err == io.EOF {
			fmt.Fprintln(out, green("Goodbye!"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		r.history = append(r.history, input)

		if strings.HasPrefix(input, ":") {
			if r.handleCommand(input, out) {
				break
			}
			continue
		}

		r.evalAndPrint(input, out)
	}

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

// handleCommand processes a colon-command, returning true when the session
// should end.
func (r *REPL) handleCommand(input string, out io.Writer) bool {
	switch {
	case input == ":quit" || input == ":q" || input == ":exit":
		fmt.Fprintln(out, green("Goodbye!"))
		return true
	case input == ":help":
		fmt.Fprintln(out, "Commands: "+strings.Join(commands, ", "))
	case input == ":type":
		r.replCfg.ShowTyped = !r.replCfg.ShowTyped
		fmt.Fprintf(out, "show typed: %v\n", r.replCfg.ShowTyped)
	case input == ":hir":
		r.replCfg.ShowHIR = !r.replCfg.ShowHIR
		fmt.Fprintf(out, "show hir: %v\n", r.replCfg.ShowHIR)
	case input == ":unnested":
		r.replCfg.ShowUnnested = !r.replCfg.ShowUnnested
		fmt.Fprintf(out, "show unnested: %v\n", r.replCfg.ShowUnnested)
	case input == ":closed":
		r.replCfg.ShowClosed = !r.replCfg.ShowClosed
		fmt.Fprintf(out, "show closed: %v\n", r.replCfg.ShowClosed)
	case input == ":history":
		for i, h := range r.history {
			fmt.Fprintf(out, "%4d  %s\n", i+1, h)
		}
	case input == ":reset":
		r.history = nil
		fmt.Fprintln(out, yellow("history cleared"))
	default:
		fmt.Fprintf(out, "%s: unknown command %q\n", red("Error"), input)
	}
	return false
}

func (r *REPL) evalAndPrint(input string, out io.Writer) {
	res, err := pipeline.Run(r.cfg, []byte(input))
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
		return
	}

	if len(res.Typed.Decls) > 0 {
		last := res.Typed.Decls[len(res.Typed.Decls)-1]
		fmt.Fprintf(out, "%s %s\n", cyan("=>"), last.Expr.Ty)
	}
	if r.replCfg.ShowTyped {
		for _, d := range res.Typed.Decls {
			fmt.Fprintln(out, dim(d.String()))
		}
	}
	if r.replCfg.ShowHIR {
		for _, d := range res.AfterHIR.Decls {
			fmt.Fprintln(out, dim(d.String()))
		}
	}
	if r.replCfg.ShowUnnested {
		for _, d := range res.Unnested.Decls {
			fmt.Fprintln(out, dim(d.String()))
		}
	}
	if r.replCfg.ShowClosed {
		for _, d := range res.Closed.Decls {
			fmt.Fprintln(out, dim(d.String()))
		}
	}
}
