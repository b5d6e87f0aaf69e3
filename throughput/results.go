// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package throughput

import (
	"fmt"
	"strings"

	"github.com/aclements/go-gg/table"
)

// Results is a complete benchmark results file.
type Results struct {
	// Header is the input column names, in input order.
	Header []string

	// ExtraColumns are the names of the columns of Header that are
	// not in RequiredColumns, in input order.
	ExtraColumns []string

	// Records has one entry per data row, in input order.
	Records []DerivedRecord

	layout layout
	lines  []int
}

// Len returns the number of records in r.
func (r *Results) Len() int {
	return len(r.Records)
}

// Line returns the input line number of record i, or 0 if r was not
// produced by a Reader.
func (r *Results) Line(i int) int {
	if i < len(r.lines) {
		return r.lines[i]
	}
	return 0
}

// Table returns r as a table. Its columns are the input columns in
// header order followed by DerivedColumns.
//
// Required columns have their record types: int64 for ObjectSize,
// float64 for the times, string for names, and bool for the checksum
// settings. Extra
// columns are converted to int or float64 if every value in the
// column parses as one, and are strings otherwise.
func (r *Results) Table() *table.Table {
	n := len(r.Records)
	var extras *table.Table
	if len(r.ExtraColumns) > 0 {
		rows := make([][]string, n)
		for i := range r.Records {
			rows[i] = r.Records[i].Extra
		}
		extras = table.TableFromStrings(r.ExtraColumns, rows, true)
	}

	var b table.Builder
	for _, name := range r.Header {
		if isRequired(name) {
			b.Add(name, r.requiredColumn(name))
		} else {
			b.Add(name, extras.MustColumn(name))
		}
	}

	floats := func(f func(d *DerivedRecord) float64) []float64 {
		col := make([]float64, n)
		for i := range r.Records {
			col[i] = f(&r.Records[i])
		}
		return col
	}
	b.Add(ColMiB, floats(func(d *DerivedRecord) float64 { return d.MiB }))
	b.Add(ColKiB, floats(func(d *DerivedRecord) float64 { return d.KiB }))
	b.Add(ColElapsedSeconds, floats(func(d *DerivedRecord) float64 { return d.ElapsedSeconds }))
	b.Add(ColMiBs, floats(func(d *DerivedRecord) float64 { return d.MiBs }))
	b.Add(ColCpuNanosPerByte, floats(func(d *DerivedRecord) float64 { return d.CpuNanosPerByte }))
	return b.Done()
}

func (r *Results) requiredColumn(name string) table.Slice {
	n := len(r.Records)
	switch name {
	case ColObjectSize:
		col := make([]int64, n)
		for i := range r.Records {
			col[i] = r.Records[i].ObjectSize
		}
		return col
	case ColElapsedTimeUs, ColCpuTimeUs:
		col := make([]float64, n)
		for i := range r.Records {
			if name == ColElapsedTimeUs {
				col[i] = r.Records[i].ElapsedTimeUs
			} else {
				col[i] = r.Records[i].CpuTimeUs
			}
		}
		return col
	case ColApiName, ColOpName:
		col := make([]string, n)
		for i := range r.Records {
			if name == ColApiName {
				col[i] = r.Records[i].ApiName
			} else {
				col[i] = r.Records[i].OpName
			}
		}
		return col
	case ColCrc32cEnabled, ColMD5Enabled:
		col := make([]bool, n)
		for i := range r.Records {
			if name == ColCrc32cEnabled {
				col[i] = r.Records[i].Crc32cEnabled
			} else {
				col[i] = r.Records[i].MD5Enabled
			}
		}
		return col
	}
	panic(fmt.Sprintf("not a required column: %q", name))
}

// A Warning describes a record whose derived metrics are not finite.
type Warning struct {
	// Index is the record's index in Results.Records.
	Index int
	// Line is the record's input line, if known.
	Line int
	Msg  string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Msg)
	}
	return fmt.Sprintf("record %d: %s", w.Index, w.Msg)
}

// Degenerate returns a warning for every record whose ObjectSize or
// ElapsedTimeUs is zero, whose sizes or times are negative, or whose
// metrics are otherwise not finite. Infinite and NaN metrics are
// dropped by plotting and excluded from statistics.
func (r *Results) Degenerate() []Warning {
	var ws []Warning
	for i := range r.Records {
		rec := &r.Records[i]
		var msg string
		switch {
		case rec.ObjectSize == 0 && rec.ElapsedTimeUs == 0:
			msg = "ObjectSize and ElapsedTimeUs are zero; MiBs and CpuNanosPerByte are undefined"
		case rec.ObjectSize == 0:
			msg = "ObjectSize is zero; CpuNanosPerByte is undefined"
		case rec.ElapsedTimeUs == 0:
			msg = "ElapsedTimeUs is zero; MiBs is undefined"
		case rec.ObjectSize < 0 || rec.ElapsedTimeUs < 0 || rec.CpuTimeUs < 0:
			msg = negativeMsg(rec)
		case !rec.Finite():
			msg = "metrics are not finite"
		default:
			continue
		}
		ws = append(ws, Warning{Index: i, Line: r.Line(i), Msg: msg})
	}
	return ws
}

func negativeMsg(rec *DerivedRecord) string {
	var cols []string
	if rec.ObjectSize < 0 {
		cols = append(cols, ColObjectSize)
	}
	if rec.ElapsedTimeUs < 0 {
		cols = append(cols, ColElapsedTimeUs)
	}
	if rec.CpuTimeUs < 0 {
		cols = append(cols, ColCpuTimeUs)
	}
	return "negative " + strings.Join(cols, ", ")
}
