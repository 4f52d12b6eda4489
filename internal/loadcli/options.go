// internal/loadcli/options.go
package loadcli

import (
	"errors"
	"flag"
	"fmt"

	"github.com/ryfi/khmer/internal/version"
)

// Defaults mirrored in the flag help text.
const (
	DefaultKsize     = 20
	DefaultTableSize = 1e6
	DefaultNumTables = 4
)

// Options holds all load-into-counting flags and positional arguments.
type Options struct {
	Output string
	Inputs []string

	Ksize     int
	TableSize float64 // accepts scientific notation, e.g. 5e7
	NumTables int

	Force   bool
	Quiet   bool
	Version bool
}

// NewFlagSet returns a configured FlagSet with custom usage/help.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			`%s: build a k-mer countgraph from sequence files

The resulting file is the abundance oracle consumed by filter-abund.
Version: %s

Usage: %s [flags] <output.ct> <input ...>
`, name, version.Version, name)
		fs.PrintDefaults()
	}
	return fs
}

// ParseArgs registers and parses all flags, returning an Options struct.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	fs.IntVar(&opt.Ksize, "ksize", DefaultKsize, "k-mer size to count [20]")
	fs.IntVar(&opt.Ksize, "k", DefaultKsize, "shorthand for --ksize")
	fs.Float64Var(&opt.TableSize, "tablesize", DefaultTableSize, "upper bound on each count table size [1e6]")
	fs.Float64Var(&opt.TableSize, "x", DefaultTableSize, "shorthand for --tablesize")
	fs.IntVar(&opt.NumTables, "n-tables", DefaultNumTables, "number of count tables [4]")
	fs.IntVar(&opt.NumTables, "N", DefaultNumTables, "shorthand for --n-tables")

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
		return opt, errors.New("expected an output countgraph file and at least one input file")
	}
	opt.Output = args[0]
	opt.Inputs = args[1:]

	// Validation
	if opt.Ksize < 2 || opt.Ksize > 64 {
		return opt, fmt.Errorf("--ksize must be in [2, 64], got %d", opt.Ksize)
	}
	if opt.TableSize < 1e4 {
		return opt, errors.New("--tablesize must be >= 1e4")
	}
	if opt.NumTables < 1 {
		return opt, errors.New("--n-tables must be >= 1")
	}
	return opt, nil
}
