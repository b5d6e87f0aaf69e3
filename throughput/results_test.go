// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package throughput

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/aclements/go-gg/table"
	"github.com/google/go-cmp/cmp"
)

func TestTable(t *testing.T) {
	res := loadFile(t, "testdata/sample.csv")
	tab := res.Table()

	if tab.Len() != res.Len() {
		t.Fatalf("table has %d rows, want %d", tab.Len(), res.Len())
	}
	wantCols := append(append([]string(nil), res.Header...), DerivedColumns...)
	if diff := cmp.Diff(wantCols, tab.Columns()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}

	wantTypes := map[string]reflect.Type{
		ColObjectSize:      reflect.TypeOf([]int64(nil)),
		ColElapsedTimeUs:   reflect.TypeOf([]float64(nil)),
		ColCpuTimeUs:       reflect.TypeOf([]float64(nil)),
		ColApiName:         reflect.TypeOf([]string(nil)),
		ColCrc32cEnabled:   reflect.TypeOf([]bool(nil)),
		"AppBufferSize":    reflect.TypeOf([]int(nil)),
		"Status":           reflect.TypeOf([]string(nil)),
		ColCpuNanosPerByte: reflect.TypeOf([]float64(nil)),
	}
	for col, want := range wantTypes {
		if got := table.ColType(tab, col); got != want {
			t.Errorf("column %s has type %v, want %v", col, got, want)
		}
	}

	kib := tab.MustColumn(ColKiB).([]float64)
	mibs := tab.MustColumn(ColMiBs).([]float64)
	for i, rec := range res.Records {
		if kib[i] != rec.KiB || mibs[i] != rec.MiBs {
			t.Errorf("row %d: got KiB=%v MiBs=%v, want %v %v", i, kib[i], mibs[i], rec.KiB, rec.MiBs)
		}
	}
	if ops := tab.MustColumn(ColOpName).([]string); ops[2] != "READ" {
		t.Errorf("row 2 OpName = %q, want READ", ops[2])
	}
}

func TestTableEmpty(t *testing.T) {
	res, err := Load(strings.NewReader("ObjectSize,ElapsedTimeUs,CpuTimeUs,ApiName,OpName,Crc32cEnabled,MD5Enabled,Note\n"), "empty")
	if err != nil {
		t.Fatal(err)
	}
	tab := res.Table()
	if tab.Len() != 0 {
		t.Errorf("got %d rows, want 0", tab.Len())
	}
	if len(tab.Columns()) != 8+len(DerivedColumns) {
		t.Errorf("got columns %v", tab.Columns())
	}
}

func TestDegenerate(t *testing.T) {
	res := loadFile(t, "testdata/degenerate.csv")
	if res.Len() != 3 {
		t.Fatalf("got %d records, want 3", res.Len())
	}

	// The zero-size row still has well-defined sizes.
	zero := res.Records[1]
	if zero.MiB != 0 || zero.KiB != 0 {
		t.Errorf("zero-size record has MiB=%v KiB=%v", zero.MiB, zero.KiB)
	}
	if !math.IsInf(zero.CpuNanosPerByte, 1) {
		t.Errorf("zero-size CpuNanosPerByte = %v, want +Inf", zero.CpuNanosPerByte)
	}
	if !math.IsInf(res.Records[2].MiBs, 1) {
		t.Errorf("zero-elapsed MiBs = %v, want +Inf", res.Records[2].MiBs)
	}

	// Well-formed rows are unaffected.
	ok := res.Records[0]
	if !ok.Finite() || ok.CpuNanosPerByte != 5245.208740234375 {
		t.Errorf("well-formed record changed: %+v", ok)
	}

	got := res.Degenerate()
	want := []Warning{
		{Index: 1, Line: 4, Msg: "ObjectSize is zero; CpuNanosPerByte is undefined"},
		{Index: 2, Line: 5, Msg: "ElapsedTimeUs is zero; MiBs is undefined"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Degenerate() mismatch (-want +got):\n%s", diff)
	}
	if s := got[0].String(); s != "line 4: ObjectSize is zero; CpuNanosPerByte is undefined" {
		t.Errorf("String() = %q", s)
	}
}

func TestDegenerateNegative(t *testing.T) {
	const data = `ObjectSize,ElapsedTimeUs,CpuTimeUs,ApiName,OpName,Crc32cEnabled,MD5Enabled
1024,1000,-5,JSON,READ,true,false
-1024,-1000,5,JSON,READ,true,false
1024,1000,5,JSON,READ,true,false
1024,NaN,5,JSON,READ,true,false
`
	res, err := Load(strings.NewReader(data), "negative.csv")
	if err != nil {
		t.Fatal(err)
	}
	want := []Warning{
		{Index: 0, Line: 2, Msg: "negative CpuTimeUs"},
		{Index: 1, Line: 3, Msg: "negative ObjectSize, ElapsedTimeUs"},
		{Index: 3, Line: 5, Msg: "metrics are not finite"},
	}
	if diff := cmp.Diff(want, res.Degenerate()); diff != "" {
		t.Errorf("Degenerate() mismatch (-want +got):\n%s", diff)
	}
}
