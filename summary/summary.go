// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package summary prints textual summaries of benchmark tables.
//
// Head prints the first rows of a table, Describe computes descriptive
// statistics of each numeric column, and ByGroup computes per-group
// medians of the throughput and CPU cost metrics.
package summary

import (
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/ggstat"
	"github.com/aclements/go-gg/table"
	"github.com/aclements/go-moremath/stats"
)

var float64SliceType = reflect.TypeOf([]float64(nil))

// floatFormat is used for float64 columns in printed tables.
const floatFormat = "%.6g"

// Head prints the first n rows of t to w.
func Head(w io.Writer, t *table.Table, n int) error {
	return Fprint(w, table.Head(t, n))
}

// Fprint prints g to w, formatting floating-point columns with six
// significant digits.
func Fprint(w io.Writer, g table.Grouping) error {
	cols := g.Columns()
	formats := make([]string, len(cols))
	for i, col := range cols {
		formats[i] = "%v"
		if len(g.Tables()) > 0 && isFloat(table.ColType(g, col).Elem().Kind()) {
			formats[i] = floatFormat
		}
	}
	return table.Fprint(w, g, formats...)
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Stats are the descriptive statistics of one numeric column.
type Stats struct {
	Column string

	// Count is the number of finite values. NonFinite is the
	// number of infinite and NaN values, which are excluded from
	// all other statistics.
	Count, NonFinite int

	Mean, StdDev float64
	Min, Max     float64
	// Q25, Q50, and Q75 are the quartiles.
	Q25, Q50, Q75 float64
}

// Describe computes Stats for every numeric column of t, in column
// order. Boolean and string columns are skipped.
func Describe(t *table.Table) []Stats {
	var out []Stats
	for _, col := range t.Columns() {
		data := t.MustColumn(col)
		if !isNumeric(reflect.TypeOf(data).Elem().Kind()) {
			continue
		}
		var xs []float64
		slice.Convert(&xs, data)
		out = append(out, describe(col, xs))
	}
	return out
}

func describe(col string, xs []float64) Stats {
	st := Stats{Column: col}
	finite := make([]float64, 0, len(xs))
	for _, x := range xs {
		if math.IsInf(x, 0) || math.IsNaN(x) {
			st.NonFinite++
			continue
		}
		finite = append(finite, x)
	}
	st.Count = len(finite)
	if st.Count == 0 {
		nan := math.NaN()
		st.Mean, st.StdDev, st.Min, st.Max = nan, nan, nan, nan
		st.Q25, st.Q50, st.Q75 = nan, nan, nan
		return st
	}

	sort.Float64s(finite)
	s := stats.Sample{Xs: finite, Sorted: true}
	st.Mean = s.Mean()
	st.StdDev = s.StdDev()
	st.Min, st.Max = s.Bounds()
	st.Q25 = s.Quantile(0.25)
	st.Q50 = s.Quantile(0.5)
	st.Q75 = s.Quantile(0.75)
	return st
}

// DescribeTable converts the result of Describe to a table with one
// row per column.
func DescribeTable(sts []Stats) *table.Table {
	n := len(sts)
	var (
		names            = make([]string, n)
		count, nonfinite = make([]int, n), make([]int, n)
		floats           [7][]float64
	)
	for i := range floats {
		floats[i] = make([]float64, n)
	}
	for i, st := range sts {
		names[i] = st.Column
		count[i], nonfinite[i] = st.Count, st.NonFinite
		for j, v := range [...]float64{st.Mean, st.StdDev, st.Min, st.Q25, st.Q50, st.Q75, st.Max} {
			floats[j][i] = v
		}
	}

	var b table.Builder
	b.Add("column", names).Add("count", count).Add("nonfinite", nonfinite)
	for j, name := range [...]string{"mean", "std", "min", "25%", "50%", "75%", "max"} {
		b.Add(name, floats[j])
	}
	return b.Done()
}

// FprintDescribe prints the descriptive statistics of t to w.
func FprintDescribe(w io.Writer, t *table.Table) error {
	sts := Describe(t)
	if len(sts) == 0 {
		return nil
	}
	return Fprint(w, DescribeTable(sts))
}

// Metrics summarized by ByGroup.
const (
	colMiBs            = "MiBs"
	colCpuNanosPerByte = "CpuNanosPerByte"
)

// ByGroup groups the rows of t by the distinct values of the by
// columns, in order of first appearance, and computes the number of
// rows and the median MiBs and CpuNanosPerByte of each group. Rows in
// which either metric is not finite are excluded.
//
// The result has the by columns followed by "count", "median MiBs",
// and "median CpuNanosPerByte".
func ByGroup(t *table.Table, by []string) (*table.Table, error) {
	if len(by) == 0 {
		return nil, fmt.Errorf("no grouping columns")
	}
	for _, col := range append(append([]string(nil), by...), colMiBs, colCpuNanosPerByte) {
		if t.Column(col) == nil {
			return nil, fmt.Errorf("unknown column %q", col)
		}
	}
	for _, col := range []string{colMiBs, colCpuNanosPerByte} {
		if table.ColType(t, col) != float64SliceType {
			return nil, fmt.Errorf("column %q is not float64", col)
		}
	}

	finite := table.Filter(t, func(mibs, cpu float64) bool {
		return !math.IsInf(mibs, 0) && !math.IsNaN(mibs) && !math.IsInf(cpu, 0) && !math.IsNaN(cpu)
	}, colMiBs, colCpuNanosPerByte)
	ft := finite.Table(table.RootGroupID)
	if ft == nil || ft.Len() == 0 {
		return new(table.Table), nil
	}

	agg := ggstat.Agg(by...)(
		ggstat.AggCount("count"),
		ggstat.AggQuantile("median", 0.5, colMiBs, colCpuNanosPerByte),
	).F(ft)
	at := agg.Table(table.RootGroupID)

	// Agg also keeps columns that happen to be constant within
	// each group. Keep only the summary.
	var b table.Builder
	for _, col := range by {
		b.Add(col, at.MustColumn(col))
	}
	for _, col := range []string{"count", "median " + colMiBs, "median " + colCpuNanosPerByte} {
		b.Add(col, at.MustColumn(col))
	}
	return b.Done(), nil
}

// FprintByGroup prints the result of ByGroup to w.
func FprintByGroup(w io.Writer, t *table.Table, by []string) error {
	g, err := ByGroup(t, by)
	if err != nil {
		return err
	}
	if g.Len() == 0 {
		return nil
	}
	return Fprint(w, g)
}
