// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"gonum.org/v1/plot/vg"

	"github.com/gcsbench/tputcpu/internal/objstore"
	"github.com/gcsbench/tputcpu/throughput"
)

func TestParseFlags(t *testing.T) {
	cfg, err := parseFlags([]string{"--input-file", "in.csv", "--output-prefix=out/run1"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	want := &config{
		inputFile:    "in.csv",
		outputPrefix: "out/run1",
		head:         5,
		summaryBy:    []string{"OpName", "ApiName"},
		width:        12 * vg.Inch,
		height:       8 * vg.Inch,
		dpi:          96,
	}
	if diff := cmp.Diff(want, cfg, cmp.AllowUnexported(config{})); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	cfg, err = parseFlags([]string{"--input-file=-", "--output-prefix=p", "--summary-by=", "--head=0", "--width=4", "--dpi=50"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.summaryBy) != 0 || cfg.head != 0 || cfg.width != 4*vg.Inch || cfg.dpi != 50 {
		t.Errorf("got %+v", cfg)
	}
}

func TestParseFlagsErrors(t *testing.T) {
	for _, test := range []struct {
		args []string
		msg  string
	}{
		{[]string{"--output-prefix=p"}, "--input-file is required"},
		{[]string{"--input-file=in.csv"}, "--output-prefix is required"},
		{[]string{"--input-file=in.csv", "--output-prefix=p", "extra"}, "unexpected arguments"},
		{[]string{"--input-file=in.csv", "--output-prefix=p", "--head=-1"}, "--head must not be negative"},
		{[]string{"--input-file=in.csv", "--output-prefix=p", "--height=0"}, "must be positive"},
		{[]string{"--input-file=in.csv", "--output-prefix=p", "--dpi=0"}, "--dpi must be positive"},
		{[]string{"--input-file=in.csv", "--output-prefix=p", "--dpi=many"}, "invalid argument"},
		{[]string{"--bogus"}, "unknown flag"},
	} {
		var stderr bytes.Buffer
		_, err := parseFlags(test.args, &stderr)
		if err != errUsage {
			t.Errorf("%q: got error %v, want %v", test.args, err, errUsage)
			continue
		}
		if !strings.Contains(stderr.String(), test.msg) {
			t.Errorf("%q: stderr %q does not mention %q", test.args, stderr.String(), test.msg)
		}
		if !strings.Contains(stderr.String(), "Usage of tputcpu") {
			t.Errorf("%q: no usage message", test.args)
		}
	}

	if _, err := parseFlags([]string{"--help"}, io.Discard); err != pflag.ErrHelp {
		t.Errorf("--help: got %v, want %v", err, pflag.ErrHelp)
	}
}

func testConfig(t *testing.T, input string) *config {
	t.Helper()
	return &config{
		inputFile:    filepath.Join("testdata", input),
		outputPrefix: filepath.Join(t.TempDir(), "run"),
		head:         3,
		summaryBy:    []string{"OpName", "ApiName"},
		width:        12 * vg.Inch,
		height:       8 * vg.Inch,
		dpi:          32,
	}
}

func checkPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Error(err)
		return
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		t.Errorf("%s is not a PNG image", path)
	}
}

func TestRun(t *testing.T) {
	cfg := testConfig(t, "results.csv")
	var stdout bytes.Buffer
	if err := run(context.Background(), cfg, new(objstore.Store), &stdout); err != nil {
		t.Fatal(err)
	}

	out := stdout.String()
	for _, want := range []string{
		// Head
		"ObjectSize", "AppBufferSize", "Status", "CpuNanosPerByte",
		// Describe
		"count", "nonfinite", "75%",
		// ByGroup
		"median MiBs", "median CpuNanosPerByte",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
	// The header and three rows come before the first blank line.
	head := out[:strings.Index(out, "\n\n")]
	if n := strings.Count(head, "\n"); n != 3 {
		t.Errorf("head has %d lines, want 3:\n%s", n+1, head)
	}

	checkPNG(t, cfg.outputPrefix+".elapsed-vs-size.png")
	checkPNG(t, cfg.outputPrefix+".cpu-vs-size.png")
}

func TestRunZeroSize(t *testing.T) {
	cfg := testConfig(t, "zerosize.csv")
	if err := run(context.Background(), cfg, new(objstore.Store), io.Discard); err != nil {
		t.Fatal(err)
	}
	checkPNG(t, cfg.outputPrefix+".elapsed-vs-size.png")
	checkPNG(t, cfg.outputPrefix+".cpu-vs-size.png")
}

func TestRunMissingColumn(t *testing.T) {
	cfg := testConfig(t, "noapi.csv")
	err := run(context.Background(), cfg, new(objstore.Store), io.Discard)
	var perr *throughput.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("got error %v, want *throughput.ParseError", err)
	}
	if !strings.Contains(err.Error(), "ApiName") {
		t.Errorf("error %q does not name the missing column", err)
	}

	entries, err := os.ReadDir(filepath.Dir(cfg.outputPrefix))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("files written after error: %v", entries)
	}
}

func TestRunMissingInput(t *testing.T) {
	cfg := testConfig(t, "missing.csv")
	err := run(context.Background(), cfg, new(objstore.Store), io.Discard)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got error %v, want not-exist error", err)
	}
}
