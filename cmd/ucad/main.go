// Command ucad is the µcad CLI (spec.md §6.3): parse, resolve, eval,
// export, create, watch and install subcommands driving the language
// core over files on disk.
//
// Grounded on scala/main.go's flag-registration-then-dispatch shape:
// that file has no subcommands of its own (the gazelle plugin is a
// single verb), so the per-subcommand flag.FlagSet here generalizes it
// the way many stdlib-only Go CLIs do, rather than reaching for a
// subcommand framework no example in the retrieval pack imports
// directly (see DESIGN.md).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/microcad/ucad/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: ucad <parse|resolve|eval|export|create|watch|install> [flags] <file>")
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	run, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "ucad: unknown command %q\n", cmd)
		os.Exit(1)
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	cfg := config.RegisterFlags(fs)
	if err := run(fs, cfg, args); err != nil {
		fmt.Fprintf(os.Stderr, "ucad %s: %s\n", cmd, err)
		os.Exit(1)
	}
}

// commandFunc is one subcommand's entry point: it registers its own
// flags on fs (in addition to the global ones config.RegisterFlags
// already bound), parses args, and runs.
type commandFunc func(fs *flag.FlagSet, cfg *config.Config, args []string) error

var commands = map[string]commandFunc{
	"parse":   runParse,
	"resolve": runResolve,
	"eval":    runEval,
	"export":  runExport,
	"create":  runCreate,
	"watch":   runWatch,
	"install": runInstall,
}

// finishFlags parses args into fs, appends the default search paths
// unless -omit-default-libs was given (cli.rs's Cli::new), and layers
// any -C config file under the explicit flags.
func finishFlags(fs *flag.FlagSet, cfg *config.Config, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.ApplyFile(fs); err != nil {
		return err
	}
	if !cfg.OmitDefaultLibs {
		cfg.SearchPaths = append(cfg.SearchPaths, config.DefaultSearchPaths()...)
	}
	return nil
}
