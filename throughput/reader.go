// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package throughput

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// A ParseError reports input that cannot be read as a benchmark
// results table: malformed CSV, a bad header, or a row with the wrong
// number of fields.
type ParseError struct {
	FileName string
	Line     int
	Msg      string

	// Err is the underlying CSV error, if any.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// A FieldError reports a value in a required column that cannot be
// converted to that column's type.
type FieldError struct {
	FileName string
	Line     int
	Column   string
	Value    string
	Err      error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s:%d: column %s: bad value %q: %v", e.FileName, e.Line, e.Column, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// A Reader reads benchmark results in CSV form.
//
// Lines beginning with '#' are comments. The first non-comment line
// is a header naming the columns, which must include all of
// RequiredColumns. Other columns are carried through as strings.
type Reader struct {
	fileName string
	cr       *csv.Reader
}

// NewReader returns a Reader that reads from r. fileName is used in
// error messages; it is purely diagnostic.
func NewReader(r io.Reader, fileName string) *Reader {
	if fileName == "" {
		fileName = "<unknown>"
	}
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.ReuseRecord = true
	return &Reader{fileName: fileName, cr: cr}
}

// Load reads all results from r.
func Load(r io.Reader, fileName string) (*Results, error) {
	return NewReader(r, fileName).ReadAll()
}

// ReadAll reads the header and every data row. It stops at the first
// error, returning either a *ParseError or a *FieldError.
func (r *Reader) ReadAll() (*Results, error) {
	header, err := r.cr.Read()
	if err == io.EOF {
		return nil, &ParseError{FileName: r.fileName, Line: 1, Msg: "missing header"}
	} else if err != nil {
		return nil, r.csvError(err)
	}
	res, err := r.newResults(header)
	if err != nil {
		return nil, err
	}

	for {
		fields, err := r.cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, r.csvError(err)
		}
		line, _ := r.cr.FieldPos(0)
		rec, ferr := res.layout.parse(fields)
		if ferr != nil {
			ferr.FileName, ferr.Line = r.fileName, line
			return nil, ferr
		}
		res.Records = append(res.Records, Derive(rec))
		res.lines = append(res.lines, line)
	}
	return res, nil
}

func (r *Reader) csvError(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &ParseError{FileName: r.fileName, Line: perr.Line, Msg: perr.Err.Error(), Err: err}
	}
	return fmt.Errorf("%s: %w", r.fileName, err)
}

// newResults validates the header and sets up the column layout.
func (r *Reader) newResults(header []string) (*Results, error) {
	line, _ := r.cr.FieldPos(0)
	fail := func(format string, args ...interface{}) error {
		return &ParseError{FileName: r.fileName, Line: line, Msg: fmt.Sprintf(format, args...)}
	}

	header = append([]string(nil), header...)
	res := &Results{Header: header}
	l := &res.layout
	l.required = make(map[string]int)
	seen := make(map[string]bool)
	for i, name := range header {
		name = strings.TrimSpace(name)
		header[i] = name
		if name == "" {
			return nil, fail("empty name for column %d", i+1)
		}
		if seen[name] {
			return nil, fail("duplicate column %q", name)
		}
		seen[name] = true
		if isRequired(name) {
			l.required[name] = i
		} else {
			l.extra = append(l.extra, i)
			res.ExtraColumns = append(res.ExtraColumns, name)
		}
	}

	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := l.required[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fail("header missing required columns: %s", strings.Join(missing, ", "))
	}
	return res, nil
}

func isRequired(name string) bool {
	for _, req := range RequiredColumns {
		if name == req {
			return true
		}
	}
	return false
}

// layout maps header positions to record fields.
type layout struct {
	required map[string]int
	extra    []int
}

func (l *layout) parse(fields []string) (BenchmarkRecord, *FieldError) {
	var rec BenchmarkRecord
	var ferr *FieldError

	field := func(col string) string {
		return strings.TrimSpace(fields[l.required[col]])
	}
	integer := func(col string) int64 {
		if ferr != nil {
			return 0
		}
		s := field(col)
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			ferr = &FieldError{Column: col, Value: s, Err: err}
		}
		return v
	}
	float := func(col string) float64 {
		if ferr != nil {
			return 0
		}
		s := field(col)
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			ferr = &FieldError{Column: col, Value: s, Err: err}
		}
		return v
	}
	flag := func(col string) bool {
		if ferr != nil {
			return false
		}
		s := field(col)
		v, err := strconv.ParseBool(s)
		if err != nil {
			ferr = &FieldError{Column: col, Value: s, Err: err}
		}
		return v
	}

	rec.ObjectSize = integer(ColObjectSize)
	rec.ElapsedTimeUs = float(ColElapsedTimeUs)
	rec.CpuTimeUs = float(ColCpuTimeUs)
	rec.Crc32cEnabled = flag(ColCrc32cEnabled)
	rec.MD5Enabled = flag(ColMD5Enabled)
	if ferr != nil {
		return rec, ferr
	}
	rec.ApiName = field(ColApiName)
	rec.OpName = field(ColOpName)
	if len(l.extra) > 0 {
		rec.Extra = make([]string, len(l.extra))
		for i, pos := range l.extra {
			rec.Extra[i] = strings.TrimSpace(fields[pos])
		}
	}
	return rec, nil
}
