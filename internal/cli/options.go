// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"

	"github.com/ryfi/khmer/internal/version"
)

// Defaults mirrored in the flag help text.
const (
	DefaultCutoff      = 2
	DefaultNormalizeTo = 20
)

// Options holds all filter-abund flags and positional arguments.
type Options struct {
	GraphFile string
	Inputs    []string

	// Trimming parameters
	Cutoff           int
	VariableCoverage bool
	NormalizeTo      int

	// Performance
	Threads int

	// Output
	Output string // merged output path; empty = one file per input
	Gzip   bool
	Zstd   bool

	Force   bool
	Quiet   bool
	Version bool
}

// NewFlagSet returns a configured FlagSet with custom usage/help.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			`%s: trim sequences at a minimum k-mer abundance

Trimmed sequences are placed in <input>.abundfilt for each input, or merged
into one file with -o. Version: %s

Usage: %s [flags] <countgraph> <input ...>
`, name, version.Version, name)
		fs.PrintDefaults()
	}
	return fs
}

// ParseArgs registers and parses all flags, returning an Options struct.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	fs.IntVar(&opt.Cutoff, "cutoff", DefaultCutoff, "trim at k-mers below this abundance [2]")
	fs.IntVar(&opt.Cutoff, "C", DefaultCutoff, "shorthand for --cutoff")
	fs.BoolVar(&opt.VariableCoverage, "variable-coverage", false, "only trim sequences that have high coverage [false]")
	fs.BoolVar(&opt.VariableCoverage, "V", false, "shorthand for --variable-coverage")
	fs.IntVar(&opt.NormalizeTo, "normalize-to", DefaultNormalizeTo, "median k-mer abundance the variable-coverage cutoff is based on [20]")
	fs.IntVar(&opt.NormalizeTo, "Z", DefaultNormalizeTo, "shorthand for --normalize-to")

	fs.IntVar(&opt.Threads, "threads", 0, "number of worker threads (0 = all CPUs) [0]")
	fs.IntVar(&opt.Threads, "T", 0, "shorthand for --threads")

	fs.StringVar(&opt.Output, "output", "", "merge trimmed sequences from all inputs into this file ('-' = stdout)")
	fs.StringVar(&opt.Output, "o", "", "shorthand for --output")
	fs.BoolVar(&opt.Gzip, "gzip", false, "compress output with gzip [false]")
	fs.BoolVar(&opt.Zstd, "zstd", false, "compress output with zstd [false]")

	fs.BoolVar(&opt.Force, "force", false, "continue past preflight check failures [false]")
	fs.BoolVar(&opt.Force, "f", false, "shorthand for --force")
	fs.BoolVar(&opt.Quiet, "quiet", false, "only log errors [false]")
	fs.BoolVar(&opt.Quiet, "q", false, "shorthand for --quiet")

	fs.BoolVar(&opt.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	if help {
		fs.Usage()
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}

	args := fs.Args()
	if len(args) < 2 {
		return opt, errors.New("expected a countgraph file and at least one input file")
	}
	opt.GraphFile = args[0]
	opt.Inputs = args[1:]

	// Validation
	if opt.Cutoff < 0 || opt.Cutoff > 256 {
		return opt, fmt.Errorf("--cutoff must be in [0, 256], got %d", opt.Cutoff)
	}
	if opt.NormalizeTo < 0 {
		return opt, errors.New("--normalize-to must be >= 0")
	}
	if opt.Threads < 0 {
		return opt, errors.New("--threads must be >= 0")
	}
	if opt.Gzip && opt.Zstd {
		return opt, errors.New("--gzip conflicts with --zstd")
	}
	return opt, nil
}
