// Command mlcorec is the CLI front end over the inference and lowering
// pipeline: "infer" and "lower" run a source file through selected stages,
// "repl" starts the interactive shell.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/webml-go/mlcore/internal/config"
	"github.com/webml-go/mlcore/internal/core"
	"github.com/webml-go/mlcore/internal/pipeline"
	"github.com/webml-go/mlcore/internal/replshell"
	"github.com/webml-go/mlcore/internal/sexpr"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"

	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		versionFlag = flag.Bool("version", false, "print version information")
		helpFlag    = flag.Bool("help", false, "show help")
		dumpFlag    = flag.String("dump", "", "comma-separated stages to print: typed,hir,flatlet,flatexpr,unnested,closed")
		noColor     = flag.Bool("no-color", false, "disable colorized output")
	)
	flag.Parse()

	if *versionFlag {
		printVersion()
		return
	}
	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	cfg := config.Default()
	cfg.Color = !*noColor && isatty.IsTerminal(os.Stdout.Fd())
	cfg.Dump = parseDumpStages(*dumpFlag)
	color.NoColor = !cfg.Color

	switch command := flag.Arg(0); command {
	case "infer", "lower":
		if flag.NArg() < 2 {
			fmt.Fprintf(os.Stderr, "%s: missing file argument\n", red("Error"))
			fmt.Printf("Usage: mlcorec %s <file.mlc>\n", command)
			os.Exit(1)
		}
		runFile(cfg, flag.Arg(1))

	case "repl":
		replshell.New().Start(os.Stdin, os.Stdout)

	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), command)
		printHelp()
		os.Exit(1)
	}
}

func runFile(cfg config.Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	res, err := pipeline.Run(cfg, sexpr.Normalize(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}

	if len(cfg.Dump) == 0 {
		fmt.Println(green("ok"))
		for _, d := range res.Typed.Decls {
			fmt.Println(cyan(declSummary(d)))
		}
		return
	}
	for _, line := range res.Dump(cfg) {
		fmt.Println(line)
	}
}

func declSummary(d core.TypedDeclaration) string {
	switch d.Kind {
	case core.DeclFun:
		ty := d.FunExpr.Ty
		for i := len(d.FunParams) - 1; i >= 0; i-- {
			ty = core.TFun(d.FunParams[i].Ty, ty)
		}
		return fmt.Sprintf("%s %s", d.FunName, ty)
	case core.DeclDatatype:
		return fmt.Sprintf("datatype %s", d.TypeName)
	default:
		return fmt.Sprintf("%s %s", d.Pattern, d.Expr.Ty)
	}
}

func parseDumpStages(flagVal string) []config.DumpStage {
	if flagVal == "" {
		return nil
	}
	var out []config.DumpStage
	start := 0
	for i := 0; i <= len(flagVal); i++ {
		if i == len(flagVal) || flagVal[i] == ',' {
			if i > start {
				out = append(out, config.DumpStage(flagVal[start:i]))
			}
			start = i + 1
		}
	}
	return out
}

func printVersion() {
	fmt.Printf("%s %s (%s, built %s)\n", bold("mlcorec"), Version, Commit, BuildTime)
}

func printHelp() {
	fmt.Println(bold("mlcorec") + " - Hindley-Milner inference and closure-conversion lowering")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  mlcorec infer <file.mlc>    run inference and print each binding's type")
	fmt.Println("  mlcorec lower <file.mlc>    run inference and the full HIR lowering pipeline")
	fmt.Println("  mlcorec repl                start the interactive shell")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
