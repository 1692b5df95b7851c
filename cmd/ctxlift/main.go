// Command ctxlift collects C file-scope variables into a context record and
// threads a pointer to that record through every function and call site.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/mpyw/ctxlift/internal"
	"github.com/mpyw/ctxlift/pkg/config"
	"github.com/mpyw/ctxlift/pkg/cparser"
	"github.com/mpyw/ctxlift/pkg/processor"
)

// Color helper function for stderr, where all status lines go; stdout
// carries the transformed source.
func ce(color string) string { return internal.StderrColor(color) }

// options holds the parsed command-line flags.
type options struct {
	configFile string
	output     string
	verbose    bool
	silent     bool
	noHooks    bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%sctxlift: %v%s\n", ce(internal.ColorRed), err, ce(internal.ColorReset))
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: ctxlift [FLAG]... [FILE]... -- [OPTION]...")
	fmt.Fprintln(w, "Transform all FILEs supplying for each the given OPTIONs to the compiler.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config PATH   path to configuration file (default ctxlift.yaml)")
	fmt.Fprintln(w, "  -o PATH        write output to PATH instead of stdout")
	fmt.Fprintln(w, "  -verbose       print processed files")
	fmt.Fprintln(w, "  -silent        suppress decorative output")
	fmt.Fprintln(w, "  -no-hooks      skip pre/post hooks")
}

// parseFlags parses command-line flags and returns the options together with
// the remaining arguments.
func parseFlags(argv []string) (*options, []string, error) {
	opts := &options{}
	fs := flag.NewFlagSet("ctxlift", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { usage(os.Stderr) }
	fs.StringVar(&opts.configFile, "config", "ctxlift.yaml", "path to configuration file")
	fs.StringVar(&opts.output, "o", "", "write output to file instead of stdout")
	fs.BoolVar(&opts.verbose, "verbose", false, "print processed files")
	fs.BoolVar(&opts.silent, "silent", false, "suppress decorative output")
	fs.BoolVar(&opts.noHooks, "no-hooks", false, "skip pre/post hooks")
	if err := fs.Parse(argv); err != nil {
		return nil, nil, err
	}
	return opts, fs.Args(), nil
}

// classifyArgs splits the arguments at the first "--": everything before it
// is an input filename, everything after is passed verbatim to the parser.
func classifyArgs(argv []string) (filenames, parserOptions []string) {
	for i, arg := range argv {
		if arg == "--" {
			return argv[:i], argv[i+1:]
		}
	}
	return argv, nil
}

// reportSummary prints the run summary. Silent mode drops the decoration;
// the counts, including the number of edits applied, are always emitted.
func reportSummary(w io.Writer, result *processor.Result, silent bool) {
	counts := fmt.Sprintf("%d functions, %d globals, %d references, %d edits",
		result.Functions, result.Globals, result.References, result.Edits)
	if silent {
		fmt.Fprintln(w, counts)
		return
	}
	fmt.Fprintf(w, "  %s✓%s %s\n", ce(internal.ColorGreen), ce(internal.ColorReset), counts)
}

// printHeader prints the ctxlift execution header.
func printHeader(filenames []string, silent bool) {
	if silent {
		return
	}
	fmt.Fprintf(os.Stderr, "%s▶ ctxlift%s %slifting %s%s\n",
		ce(internal.ColorCyan), ce(internal.ColorReset),
		ce(internal.ColorDim), strings.Join(filenames, " "), ce(internal.ColorReset))
}

func run(argv []string) error {
	for _, arg := range argv {
		if arg == "--help" || arg == "-help" || arg == "-h" {
			usage(os.Stdout)
			return nil
		}
	}

	opts, rest, err := parseFlags(argv)
	if err != nil {
		return err
	}

	filenames, parserOptions := classifyArgs(rest)
	if len(filenames) == 0 {
		return fmt.Errorf("no input files")
	}

	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !opts.noHooks && len(cfg.Hooks.Pre) > 0 {
		if err := runHooks("pre", cfg.Hooks.Pre, opts.silent); err != nil {
			return err
		}
	}

	out := io.Writer(os.Stdout)
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	parser := cparser.NewClangParser()
	defer parser.Dispose()

	proc := processor.New(parser,
		processor.WithConfig(cfg),
		processor.WithOutput(out),
		processor.WithVerbose(opts.verbose && !opts.silent),
	)

	printHeader(filenames, opts.silent)
	result, err := proc.Transform(filenames, parserOptions)
	if err != nil {
		return err
	}

	reportSummary(os.Stderr, result, opts.silent)

	if !opts.noHooks && len(cfg.Hooks.Post) > 0 {
		if err := runHooks("post", cfg.Hooks.Post, opts.silent); err != nil {
			return err
		}
	}

	return nil
}

// runHooks executes a list of shell commands sequentially.
// If any command fails (non-zero exit code), execution stops and an error is returned.
func runHooks(phase string, commands []string, silent bool) error {
	if !silent {
		fmt.Fprintf(os.Stderr, "%s▶ %s%s\n", ce(internal.ColorYellow), phase, ce(internal.ColorReset))
	}

	for _, cmdStr := range commands {
		if !silent {
			fmt.Fprintf(os.Stderr, "  %s$ %s%s\n", ce(internal.ColorDim), cmdStr, ce(internal.ColorReset))
		}

		cmd := exec.Command("sh", "-c", cmdStr)
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			return fmt.Errorf("%s hook failed: %s: %w", phase, cmdStr, err)
		}
	}

	return nil
}
