// internal/app/app.go
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"runtime"

	"github.com/ryfi/khmer/internal/cli"
	"github.com/ryfi/khmer/internal/countgraph"
	"github.com/ryfi/khmer/internal/filter"
	"github.com/ryfi/khmer/internal/kfile"
	"github.com/ryfi/khmer/internal/logging"
	"github.com/ryfi/khmer/internal/pipeline"
	"github.com/ryfi/khmer/internal/seqio"
	"github.com/ryfi/khmer/internal/version"
)

// RunContext drives a full filter-abund invocation and returns the process
// exit code: 0 ok, 1 precondition/load failure, 2 usage error, 3 runtime
// failure, 130 when ctx was cancelled.
func RunContext(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := cli.NewFlagSet("filter-abund")
	fs.SetOutput(stderr)

	opts, err := cli.ParseArgs(fs, argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	if opts.Version {
		fmt.Fprintf(stdout, "filter-abund version %s\n", version.Version)
		return 0
	}

	log := logging.New(stderr, opts.Quiet)

	// Preflight: everything here fails before any record is processed.
	for _, in := range opts.Inputs {
		if in == "-" && opts.Output == "" {
			log.Error().Msg("accepting input from stdin; output filename must be provided with -o")
			return 1
		}
	}
	for _, in := range opts.Inputs {
		if err := kfile.CheckInputFile(in, opts.Force, log); err != nil {
			log.Error().Err(err).Msg("input check failed")
			return 1
		}
	}
	if err := kfile.CheckSpace(opts.Inputs, ".", opts.Force, log); err != nil {
		log.Error().Err(err).Msg("disk space check failed")
		return 1
	}

	log.Info().Str("graph", opts.GraphFile).Msg("loading countgraph")
	graph, err := countgraph.Load(opts.GraphFile)
	if err != nil {
		log.Error().Err(err).Msg("cannot load countgraph")
		return 1
	}
	log.Info().Int("k", graph.Ksize()).Msg("countgraph ready")

	compression := kfile.CompressionNone
	switch {
	case opts.Gzip:
		compression = kfile.CompressionGzip
	case opts.Zstd:
		compression = kfile.CompressionZstd
	}

	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	fopt := filter.Options{
		Cutoff:           opts.Cutoff,
		VariableCoverage: opts.VariableCoverage,
		NormalizeTo:      opts.NormalizeTo,
	}

	var shared io.WriteCloser
	if opts.Output != "" {
		shared, err = kfile.Create(opts.Output, compression)
		if err != nil {
			log.Error().Err(err).Msg("cannot create output")
			return 1
		}
	}

	// Per-file loop. A stream failure aborts only that file's run; the
	// remaining files still get processed and the first error sets the
	// exit code.
	var firstErr error
	for _, in := range opts.Inputs {
		outName := opts.Output
		sink := shared
		if shared == nil {
			outName = kfile.DefaultOutputName(in)
			sink, err = kfile.Create(outName, compression)
			if err != nil {
				firstErr = err
				log.Error().Err(err).Msg("cannot create output")
				break
			}
		}

		log.Info().Str("input", in).Msg("filtering")
		stats, err := filterFile(ctx, in, sink, graph, fopt, threads)
		if shared == nil {
			if cerr := sink.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				firstErr = err
				break
			}
			log.Error().Err(err).Str("input", in).Msg("filtering failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		log.Info().
			Str("input", in).Str("output", outName).
			Int("kept", stats.kept).Int("trimmed", stats.trimmed).Int("dropped", stats.dropped).
			Msg("output written")
	}

	if shared != nil {
		if cerr := shared.Close(); cerr != nil && firstErr == nil {
			firstErr = cerr
		}
	}
	if firstErr != nil {
		if errors.Is(firstErr, context.Canceled) {
			return 130
		}
		return 3
	}
	return 0
}

// Run is RunContext with a background context.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

type fileStats struct {
	kept    int // written unmodified
	trimmed int // written shortened
	dropped int // not written
}

// filterFile streams one input through the ordered pool with the trim
// decision as the per-record function. Writes happen on the pool's single
// collector goroutine, in input order.
func filterFile(
	ctx context.Context,
	path string,
	sink io.Writer,
	graph *countgraph.Countgraph,
	fopt filter.Options,
	threads int,
) (fileStats, error) {
	r, err := seqio.Open(path)
	if err != nil {
		return fileStats{}, err
	}
	defer r.Close()

	type decision struct {
		rec     *seqio.Record // nil = drop
		trimmed bool
	}

	var stats fileStats
	err = pipeline.Run(ctx, pipeline.Config{Workers: threads},
		r.Read,
		func(rec *seqio.Record) (decision, error) {
			out, keep := filter.Trim(rec, graph, fopt)
			if !keep {
				return decision{}, nil
			}
			return decision{rec: out, trimmed: out.Len() < rec.Len()}, nil
		},
		func(d decision) error {
			if d.rec == nil {
				stats.dropped++
				return nil
			}
			if d.trimmed {
				stats.trimmed++
			} else {
				stats.kept++
			}
			return seqio.WriteRecord(sink, d.rec)
		},
	)
	return stats, err
}
