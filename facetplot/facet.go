// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package facetplot

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/aclements/go-gg/generic"
	"github.com/aclements/go-gg/table"
)

// A key is the tuple of facet column values of one row.
type key []interface{}

func (k key) String() string {
	parts := make([]string, len(k))
	for i, v := range k {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, "\x00")
}

// facet assigns the rows of a table to levels of one facet dimension.
type facet struct {
	cols   []string
	levels []key
	// index maps each row to its level.
	index []int
}

// newFacet computes the distinct values of cols in t, sorted in
// ascending order. With no columns, every row is in a single level.
func newFacet(t *table.Table, cols []string) *facet {
	f := &facet{cols: cols, index: make([]int, t.Len())}
	if len(cols) == 0 {
		f.levels = []key{{}}
		return f
	}

	vals := make([]reflect.Value, len(cols))
	for i, col := range cols {
		vals[i] = reflect.ValueOf(t.MustColumn(col))
	}
	seen := make(map[string]int)
	rowKeys := make([]string, t.Len())
	for row := range rowKeys {
		k := make(key, len(cols))
		for i, v := range vals {
			k[i] = v.Index(row).Interface()
		}
		ks := k.String()
		rowKeys[row] = ks
		if _, ok := seen[ks]; !ok {
			seen[ks] = len(f.levels)
			f.levels = append(f.levels, k)
		}
	}

	sort.SliceStable(f.levels, func(i, j int) bool {
		return compareKeys(f.levels[i], f.levels[j]) < 0
	})
	for i, k := range f.levels {
		seen[k.String()] = i
	}
	for row, ks := range rowKeys {
		f.index[row] = seen[ks]
	}
	return f
}

// label returns the label of level i in "name: value" form, joining
// multiple columns with ", ".
func (f *facet) label(i int) string {
	parts := make([]string, len(f.cols))
	for j, col := range f.cols {
		parts[j] = fmt.Sprintf("%s: %v", col, f.levels[i][j])
	}
	return strings.Join(parts, ", ")
}

func compareKeys(a, b key) int {
	for i := range a {
		if c := compareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// compareValues orders values of one column. false sorts before
// true, and values that are not orderable sort by their string form.
func compareValues(a, b interface{}) int {
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0
			case !ab:
				return -1
			}
			return 1
		}
	}
	if generic.CanOrder(a, b) {
		return generic.Order(a, b)
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
