// Package processor implements the global-variable elimination pipeline:
// discovery over parsed translation units, edit planning, edit application
// and emission of the synthesized context files.
package processor

import (
	"fmt"
	"io"
	"os"

	"github.com/mpyw/ctxlift/pkg/config"
	"github.com/mpyw/ctxlift/pkg/cparser"
	"github.com/mpyw/ctxlift/pkg/source"
)

// Processor drives one transformation over a set of C translation units.
// It is single-threaded; all tables live for the duration of one Transform
// call.
type Processor struct {
	parser  cparser.Parser
	loader  *source.Loader
	cfg     *config.Config
	out     io.Writer
	errOut  io.Writer
	verbose bool
}

// Option configures a Processor.
type Option func(*Processor)

// WithConfig overrides the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(p *Processor) {
		p.cfg = cfg
	}
}

// WithOutput redirects the rewritten sources (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(p *Processor) {
		p.out = w
	}
}

// WithErrOutput redirects the summary counts (default os.Stderr).
func WithErrOutput(w io.Writer) Option {
	return func(p *Processor) {
		p.errOut = w
	}
}

// WithVerbose enables per-file progress lines on the summary stream.
func WithVerbose(verbose bool) Option {
	return func(p *Processor) {
		p.verbose = verbose
	}
}

// WithLoader replaces the source cache. Tests seed it with in-memory files.
func WithLoader(l *source.Loader) Option {
	return func(p *Processor) {
		p.loader = l
	}
}

// New creates a new Processor around the given parser.
func New(parser cparser.Parser, opts ...Option) *Processor {
	p := &Processor{
		parser: parser,
		loader: source.NewLoader(),
		cfg:    config.Default(),
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result summarizes one Transform call.
type Result struct {
	Functions  int
	Globals    int
	References int
	Edits      int
}

// Transform rewrites the given translation units, handing options verbatim to
// the parser, and writes the concatenated output: every input file with its
// edits applied, then the context header, then the initializer source.
func (p *Processor) Transform(filenames, options []string) (*Result, error) {
	d := newDiscovery(p.cfg)

	// Units stay alive until all output is emitted: every cursor in the
	// tables is a borrowed handle into one of them.
	units := make([]cparser.Unit, 0, len(filenames))
	defer func() {
		for _, u := range units {
			u.Dispose()
		}
	}()

	for _, name := range filenames {
		if _, err := p.loader.Load(name); err != nil {
			return nil, err
		}
		unit, err := p.parser.Parse(name, options)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
		d.walk(unit)
		if p.verbose {
			fmt.Fprintf(p.errOut, "discovered: %s\n", name)
		}
	}

	edits, err := p.plan(d)
	if err != nil {
		return nil, err
	}
	edits = normalize(edits)

	if err := p.apply(edits, filenames); err != nil {
		return nil, err
	}
	if err := p.emitContext(d); err != nil {
		return nil, err
	}

	res := &Result{
		Functions:  len(d.funcs),
		Globals:    len(d.vars),
		References: len(d.refs),
		Edits:      len(edits),
	}
	fmt.Fprintf(p.errOut, "Number of global functions: %d\n", res.Functions)
	fmt.Fprintf(p.errOut, "Number of global variables: %d\n", res.Globals)
	fmt.Fprintf(p.errOut, "Number of references: %d\n", res.References)
	return res, nil
}
