package cli

import (
	"errors"
	"flag"
	"io"
	"testing"
)

func parse(t *testing.T, argv ...string) (Options, error) {
	t.Helper()
	fs := NewFlagSet("filter-abund")
	fs.SetOutput(io.Discard)
	return ParseArgs(fs, argv)
}

func TestParseDefaults(t *testing.T) {
	opt, err := parse(t, "graph.ct", "reads.fq")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opt.GraphFile != "graph.ct" {
		t.Fatalf("GraphFile = %q", opt.GraphFile)
	}
	if len(opt.Inputs) != 1 || opt.Inputs[0] != "reads.fq" {
		t.Fatalf("Inputs = %v", opt.Inputs)
	}
	if opt.Cutoff != DefaultCutoff {
		t.Fatalf("Cutoff = %d, want %d", opt.Cutoff, DefaultCutoff)
	}
	if opt.NormalizeTo != DefaultNormalizeTo {
		t.Fatalf("NormalizeTo = %d, want %d", opt.NormalizeTo, DefaultNormalizeTo)
	}
	if opt.VariableCoverage || opt.Gzip || opt.Zstd || opt.Force || opt.Quiet {
		t.Fatal("boolean flags must default to false")
	}
	if opt.Threads != 0 || opt.Output != "" {
		t.Fatalf("Threads/Output = %d/%q, want zero values", opt.Threads, opt.Output)
	}
}

func TestParseAllFlags(t *testing.T) {
	opt, err := parse(t,
		"--cutoff", "3", "--variable-coverage", "--normalize-to", "10",
		"--threads", "4", "--output", "out.fq", "--gzip", "--force", "--quiet",
		"graph.ct", "a.fq", "b.fq")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opt.Cutoff != 3 || !opt.VariableCoverage || opt.NormalizeTo != 10 {
		t.Fatalf("trim options = %d/%v/%d", opt.Cutoff, opt.VariableCoverage, opt.NormalizeTo)
	}
	if opt.Threads != 4 || opt.Output != "out.fq" || !opt.Gzip {
		t.Fatalf("perf/output options = %d/%q/%v", opt.Threads, opt.Output, opt.Gzip)
	}
	if !opt.Force || !opt.Quiet {
		t.Fatal("force/quiet not set")
	}
	if len(opt.Inputs) != 2 {
		t.Fatalf("Inputs = %v", opt.Inputs)
	}
}

func TestParseShorthands(t *testing.T) {
	opt, err := parse(t, "-C", "5", "-V", "-Z", "15", "-T", "2", "-o", "-", "-f", "-q",
		"graph.ct", "reads.fq")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opt.Cutoff != 5 || !opt.VariableCoverage || opt.NormalizeTo != 15 ||
		opt.Threads != 2 || opt.Output != "-" || !opt.Force || !opt.Quiet {
		t.Fatalf("shorthand values wrong: %+v", opt)
	}
}

func TestParseRejects(t *testing.T) {
	cases := [][]string{
		{"graph.ct"},                            // missing inputs
		{},                                      // nothing at all
		{"--cutoff", "300", "g.ct", "r.fq"},     // cutoff out of range
		{"--cutoff", "-1", "g.ct", "r.fq"},      // negative cutoff
		{"--normalize-to", "-5", "g.ct", "r.fq"},
		{"--threads", "-2", "g.ct", "r.fq"},
		{"--gzip", "--zstd", "g.ct", "r.fq"},    // conflicting compressors
	}
	for _, argv := range cases {
		if _, err := parse(t, argv...); err == nil {
			t.Errorf("argv %v accepted, want error", argv)
		}
	}
}

func TestParseHelp(t *testing.T) {
	if _, err := parse(t, "-h"); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("err = %v, want flag.ErrHelp", err)
	}
}

func TestParseVersionSkipsPositionals(t *testing.T) {
	opt, err := parse(t, "--version")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !opt.Version {
		t.Fatal("Version not set")
	}
}
