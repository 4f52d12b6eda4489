// internal/loadapp/app.go
package loadapp

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/ryfi/khmer/internal/countgraph"
	"github.com/ryfi/khmer/internal/kfile"
	"github.com/ryfi/khmer/internal/loadcli"
	"github.com/ryfi/khmer/internal/logging"
	"github.com/ryfi/khmer/internal/seqio"
	"github.com/ryfi/khmer/internal/version"
)

// scrubTable maps ambiguity codes to A so that every k-mer hashes. Only
// N and n are rewritten; the table is identity everywhere else.
var scrubTable [256]byte

func init() {
	for i := range scrubTable {
		scrubTable[i] = byte(i)
	}
	scrubTable['N'] = 'A'
	scrubTable['n'] = 'A'
}

func scrub(s []byte) []byte {
	for i, b := range s {
		s[i] = scrubTable[b]
	}
	return s
}

// RunContext drives a full load-into-counting invocation and returns the
// process exit code: 0 ok, 1 precondition failure, 2 usage error, 3 runtime
// failure, 130 when ctx was cancelled.
func RunContext(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := loadcli.NewFlagSet("load-into-counting")
	fs.SetOutput(stderr)

	opts, err := loadcli.ParseArgs(fs, argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	if opts.Version {
		fmt.Fprintf(stdout, "load-into-counting version %s\n", version.Version)
		return 0
	}

	log := logging.New(stderr, opts.Quiet)

	for _, in := range opts.Inputs {
		if err := kfile.CheckInputFile(in, opts.Force, log); err != nil {
			log.Error().Err(err).Msg("input check failed")
			return 1
		}
	}

	log.Info().
		Int("k", opts.Ksize).
		Float64("tablesize", opts.TableSize).
		Int("n_tables", opts.NumTables).
		Msg("building countgraph")

	graph := countgraph.New(opts.Ksize, int(opts.TableSize), opts.NumTables)

	var total int
	for _, in := range opts.Inputs {
		n, err := loadFile(ctx, in, graph)
		total += n
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return 130
			}
			log.Error().Err(err).Str("input", in).Msg("loading failed")
			return 3
		}
		log.Info().Str("input", in).Int("records", n).Msg("loaded")
	}

	if err := graph.Save(opts.Output); err != nil {
		log.Error().Err(err).Msg("cannot save countgraph")
		return 3
	}

	occ := graph.Occupancy()
	log.Info().
		Str("output", opts.Output).
		Int("records", total).
		Float64("occupancy", occ).
		Msg("countgraph saved")
	if occ > 0.5 {
		log.Warn().Float64("occupancy", occ).Msg("tables are crowded; counts may be inflated, consider a larger --tablesize")
	}
	return 0
}

// Run is RunContext with a background context.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

// cancelCheckEvery bounds how stale a cancellation can go unnoticed.
const cancelCheckEvery = 1024

func loadFile(ctx context.Context, path string, g *countgraph.Countgraph) (int, error) {
	r, err := seqio.Open(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	var n int
	for {
		if n%cancelCheckEvery == 0 {
			select {
			case <-ctx.Done():
				return n, ctx.Err()
			default:
			}
		}
		rec, err := r.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		g.Add(scrub(rec.Seq))
		n++
	}
}
