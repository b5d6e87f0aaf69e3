// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package throughput loads the output of the storage throughput vs.
// CPU benchmark and derives normalized metrics from it.
//
// The benchmark writes one comma-separated row per operation, with
// the object size, the elapsed wall-clock time, and the CPU time
// consumed, along with the API and operation that were exercised and
// the checksum settings used. This package turns each row into a
// DerivedRecord, which adds object sizes in KiB and MiB, elapsed time
// in seconds, throughput in MiB/s, and the CPU cost per byte.
//
// The derived values are computed with IEEE float64 arithmetic and
// are never validated: a zero ObjectSize or ElapsedTimeUs produces an
// infinite or NaN value rather than an error, and negative inputs are
// carried through. Use Results.Degenerate to find such rows.
package throughput

import "math"

// Column names of the required benchmark fields.
const (
	ColObjectSize    = "ObjectSize"
	ColElapsedTimeUs = "ElapsedTimeUs"
	ColCpuTimeUs     = "CpuTimeUs"
	ColApiName       = "ApiName"
	ColOpName        = "OpName"
	ColCrc32cEnabled = "Crc32cEnabled"
	ColMD5Enabled    = "MD5Enabled"
)

// Column names of the derived metrics, in the order they are
// appended to a Table.
const (
	ColMiB             = "MiB"
	ColKiB             = "KiB"
	ColElapsedSeconds  = "ElapsedSeconds"
	ColMiBs            = "MiBs"
	ColCpuNanosPerByte = "CpuNanosPerByte"
)

// RequiredColumns lists the columns every input header must name.
var RequiredColumns = []string{
	ColObjectSize, ColElapsedTimeUs, ColCpuTimeUs,
	ColApiName, ColOpName, ColCrc32cEnabled, ColMD5Enabled,
}

// DerivedColumns lists the computed columns.
var DerivedColumns = []string{
	ColMiB, ColKiB, ColElapsedSeconds, ColMiBs, ColCpuNanosPerByte,
}

// cpuNanosFactor scales CpuTimeUs in the CPU cost per byte metric.
//
// TODO: A microsecond-to-nanosecond conversion would be 1000. Keep
// 11000 until the benchmark's owners confirm which one the plots
// should use, so existing charts stay comparable.
const cpuNanosFactor = 11000

// A BenchmarkRecord is one measurement reported by the benchmark.
type BenchmarkRecord struct {
	// ObjectSize is the size of the object in bytes.
	ObjectSize int64
	// ElapsedTimeUs is the wall-clock time of the operation in
	// microseconds. It may be fractional.
	ElapsedTimeUs float64
	// CpuTimeUs is the CPU time consumed by the operation in
	// microseconds. It may be fractional.
	CpuTimeUs float64

	// ApiName identifies the storage API exercised, e.g., "JSON"
	// or "GRPC".
	ApiName string
	// OpName identifies the operation, e.g., "READ" or "WRITE".
	OpName string

	Crc32cEnabled bool
	MD5Enabled    bool

	// Extra holds the values of any other input columns, in the
	// order of Results.ExtraColumns.
	Extra []string
}

// A DerivedRecord is a BenchmarkRecord extended with normalized
// metrics.
type DerivedRecord struct {
	BenchmarkRecord

	// MiB and KiB are ObjectSize in mebibytes and kibibytes.
	MiB, KiB float64
	// ElapsedSeconds is ElapsedTimeUs in seconds.
	ElapsedSeconds float64
	// MiBs is the throughput in MiB per second.
	MiBs float64
	// CpuNanosPerByte is the CPU cost per byte.
	CpuNanosPerByte float64
}

// Derive computes the metrics of r.
func Derive(r BenchmarkRecord) DerivedRecord {
	d := DerivedRecord{BenchmarkRecord: r}
	size := float64(r.ObjectSize)
	d.MiB = size / 1024 / 1024
	d.KiB = size / 1024
	d.ElapsedSeconds = r.ElapsedTimeUs / 1e6
	d.MiBs = d.MiB / d.ElapsedSeconds
	d.CpuNanosPerByte = r.CpuTimeUs * cpuNanosFactor / size
	return d
}

// Finite reports whether all derived metrics of d are finite.
func (d *DerivedRecord) Finite() bool {
	for _, v := range [...]float64{d.MiB, d.KiB, d.ElapsedSeconds, d.MiBs, d.CpuNanosPerByte} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}
