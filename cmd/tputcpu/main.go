// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Tputcpu plots the throughput and CPU cost of Cloud Storage
// benchmark runs.
//
// Usage:
//
//	tputcpu --input-file file --output-prefix prefix [flags]
//
// The input file is the CSV output of the storage throughput vs. CPU
// benchmark. Lines starting with '#' are comments. The header must
// name at least the ObjectSize, ElapsedTimeUs, CpuTimeUs, ApiName,
// OpName, Crc32cEnabled, and MD5Enabled columns.
//
// Tputcpu prints the first rows of the data, descriptive statistics of
// every numeric column, and per-group medians, and then writes two
// faceted scatter plots:
//
//	prefix.elapsed-vs-size.png  elapsed time against object size
//	prefix.cpu-vs-size.png      CPU nanoseconds per byte against object size
//
// Each plot has one row of panels per operation and one column per
// combination of the CRC32C and MD5 settings, with one color per API.
// The input file and the outputs may be gs://bucket/object paths. An
// input file of "-" reads standard input.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/aclements/go-gg/table"
	"github.com/spf13/pflag"
	"gonum.org/v1/plot/vg"
	"google.golang.org/api/option"

	"github.com/gcsbench/tputcpu/facetplot"
	"github.com/gcsbench/tputcpu/internal/objstore"
	"github.com/gcsbench/tputcpu/summary"
	"github.com/gcsbench/tputcpu/throughput"
)

// maxWarnings limits the number of degenerate records reported.
const maxWarnings = 10

type config struct {
	inputFile    string
	outputPrefix string
	head         int
	summaryBy    []string
	width        vg.Length
	height       vg.Length
	dpi          int
}

// errUsage reports a command line error. The message has already
// been printed.
var errUsage = errors.New("usage error")

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	fs := pflag.NewFlagSet("tputcpu", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage of tputcpu:\n\ttputcpu --input-file file --output-prefix prefix [flags]\n")
		fs.PrintDefaults()
	}

	var (
		inputFile    = fs.String("input-file", "", "read benchmark results from `file`")
		outputPrefix = fs.String("output-prefix", "", "write plots to files starting with `prefix`")
		head         = fs.Int("head", 5, "print the first `n` rows")
		summaryBy    = fs.StringSlice("summary-by", []string{throughput.ColOpName, throughput.ColApiName}, "print medians grouped by these `columns`")
		width        = fs.Float64("width", 12, "plot width in `inches`")
		height       = fs.Float64("height", 8, "plot height in `inches`")
		dpi          = fs.Int("dpi", 96, "plot resolution in dots per inch")
	)
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil, err
		}
		return nil, errUsage
	}

	usageError := func(format string, args ...interface{}) (*config, error) {
		fmt.Fprintf(stderr, "tputcpu: "+format+"\n", args...)
		fs.Usage()
		return nil, errUsage
	}
	switch {
	case fs.NArg() > 0:
		return usageError("unexpected arguments: %q", fs.Args())
	case *inputFile == "":
		return usageError("--input-file is required")
	case *outputPrefix == "":
		return usageError("--output-prefix is required")
	case *head < 0:
		return usageError("--head must not be negative")
	case *width <= 0 || *height <= 0:
		return usageError("--width and --height must be positive")
	case *dpi <= 0:
		return usageError("--dpi must be positive")
	}

	return &config{
		inputFile:    *inputFile,
		outputPrefix: *outputPrefix,
		head:         *head,
		summaryBy:    *summaryBy,
		width:        vg.Length(*width) * vg.Inch,
		height:       vg.Length(*height) * vg.Inch,
		dpi:          *dpi,
	}, nil
}

// An output is a rendered plot and the path it is written to.
type output struct {
	path string
	spec facetplot.Spec
	buf  bytes.Buffer
}

func (cfg *config) outputs() []*output {
	spec := func(y string) facetplot.Spec {
		return facetplot.Spec{
			X:      throughput.ColKiB,
			Y:      y,
			LogY:   true,
			Color:  throughput.ColApiName,
			Rows:   []string{throughput.ColOpName},
			Cols:   []string{throughput.ColCrc32cEnabled, throughput.ColMD5Enabled},
			Width:  cfg.width,
			Height: cfg.height,
			DPI:    cfg.dpi,
		}
	}
	return []*output{
		{path: cfg.outputPrefix + ".elapsed-vs-size.png", spec: spec(throughput.ColElapsedSeconds)},
		{path: cfg.outputPrefix + ".cpu-vs-size.png", spec: spec(throughput.ColCpuNanosPerByte)},
	}
}

func run(ctx context.Context, cfg *config, store *objstore.Store, stdout io.Writer) error {
	res, err := load(ctx, cfg, store)
	if err != nil {
		return err
	}
	warnings := res.Degenerate()
	for i, w := range warnings {
		if i == maxWarnings {
			log.Printf("%s: %d more records with undefined metrics", cfg.inputFile, len(warnings)-i)
			break
		}
		log.Printf("%s: %s", cfg.inputFile, w)
	}

	t := res.Table()
	if err := printSummary(stdout, cfg, t); err != nil {
		return err
	}

	// Render everything before writing anything.
	outs := cfg.outputs()
	for _, out := range outs {
		dropped, err := facetplot.Render(&out.buf, t, out.spec)
		if err != nil {
			return fmt.Errorf("plotting %s: %w", out.spec.Y, err)
		}
		if dropped > 0 {
			log.Printf("%s: omitted %d points with undefined or non-positive %s", out.path, dropped, out.spec.Y)
		}
	}
	return writeOutputs(ctx, store, outs)
}

func load(ctx context.Context, cfg *config, store *objstore.Store) (*throughput.Results, error) {
	r, err := store.Open(ctx, cfg.inputFile)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return throughput.Load(r, cfg.inputFile)
}

func printSummary(w io.Writer, cfg *config, t *table.Table) error {
	if cfg.head > 0 {
		if err := summary.Head(w, t, cfg.head); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	if err := summary.FprintDescribe(w, t); err != nil {
		return err
	}
	if len(cfg.summaryBy) > 0 {
		fmt.Fprintln(w)
		if err := summary.FprintByGroup(w, t, cfg.summaryBy); err != nil {
			return err
		}
	}
	return nil
}

func writeOutputs(ctx context.Context, store *objstore.Store, outs []*output) error {
	var ws []objstore.Writer
	abort := func(err error) error {
		for _, w := range ws {
			w.CloseWithError(err)
		}
		return err
	}
	for _, out := range outs {
		w, err := store.Create(ctx, out.path, "image/png")
		if err != nil {
			return abort(err)
		}
		ws = append(ws, w)
		if _, err := w.Write(out.buf.Bytes()); err != nil {
			return abort(fmt.Errorf("%s: %w", out.path, err))
		}
	}
	for i, w := range ws {
		if err := w.Close(); err != nil {
			for _, rest := range ws[i+1:] {
				rest.CloseWithError(err)
			}
			return err
		}
	}
	return nil
}

func main() {
	log.SetPrefix("tputcpu: ")
	log.SetFlags(0)

	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err == pflag.ErrHelp {
		os.Exit(0)
	} else if err != nil {
		os.Exit(2)
	}

	ctx := context.Background()
	store := &objstore.Store{ClientOptions: []option.ClientOption{option.WithUserAgent("tputcpu")}}
	defer store.Close()

	if err := run(ctx, cfg, store, os.Stdout); err != nil {
		log.Fatal(err)
	}
}
