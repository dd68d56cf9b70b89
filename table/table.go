// table/table.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package table provides N-dimensional piecewise-linear lookup tables over
// strictly monotonic breakpoint axes, as used for aircraft performance
// data.
package table

import (
	"errors"
	"fmt"
	gomath "math"
	"sort"

	"github.com/mmp/routeplan/math"
)

var (
	ErrShapeMismatch  = errors.New("table shape does not match its axes")
	ErrNotMonotonic   = errors.New("table axis is not strictly monotonic")
	ErrInvalidValue   = errors.New("table contains an invalid value")
	ErrDimensionCount = errors.New("wrong number of coordinates for table")
)

// ValidationError describes why a table could not be constructed.
type ValidationError struct {
	// Dim is the (zero-based) axis at which the problem was found.
	Dim    int
	Detail string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("axis %d: %s: %v", e.Dim, e.Detail, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Table is an N-dimensional table. Its first axis indexes either scalar
// values (a 1D table) or sub-tables that all have the same dimension.
type Table struct {
	axis   []float64
	values []float64 // dim == 1
	subs   []*Table  // dim > 1
	dim    int
}

// New1D returns a table that interpolates f over the breakpoints x.
func New1D(x, f []float64) (*Table, error) {
	t := &Table{
		axis:   append([]float64(nil), x...),
		values: append([]float64(nil), f...),
		dim:    1,
	}
	if err := t.validate(0); err != nil {
		return nil, err
	}
	return t, nil
}

// New2D returns a table where f[i][j] is the value at (x[i], y[j]).
func New2D(x, y []float64, f [][]float64) (*Table, error) {
	if len(f) != len(x) {
		return nil, &ValidationError{Dim: 0, Detail: fmt.Sprintf("%d breakpoints but %d rows", len(x), len(f)),
			Err: ErrShapeMismatch}
	}
	subs := make([]*Table, len(f))
	for i, row := range f {
		var err error
		if subs[i], err = New1D(y, row); err != nil {
			return nil, shiftDim(err)
		}
	}
	return New(x, subs)
}

// New3D returns a table where f[i][j][k] is the value at (x[i], y[j], z[k]).
func New3D(x, y, z []float64, f [][][]float64) (*Table, error) {
	if len(f) != len(x) {
		return nil, &ValidationError{Dim: 0, Detail: fmt.Sprintf("%d breakpoints but %d planes", len(x), len(f)),
			Err: ErrShapeMismatch}
	}
	subs := make([]*Table, len(f))
	for i, plane := range f {
		var err error
		if subs[i], err = New2D(y, z, plane); err != nil {
			return nil, shiftDim(err)
		}
	}
	return New(x, subs)
}

// New returns a table whose first axis is given by axis and where subs[i]
// gives the values at axis[i]. All of the sub-tables must have the same
// dimension.
func New(axis []float64, subs []*Table) (*Table, error) {
	if len(subs) == 0 {
		return nil, &ValidationError{Dim: 0, Detail: "no sub-tables", Err: ErrShapeMismatch}
	}
	for i, s := range subs {
		if s == nil {
			return nil, &ValidationError{Dim: 0, Detail: fmt.Sprintf("sub-table %d is nil", i), Err: ErrShapeMismatch}
		}
	}
	t := &Table{
		axis: append([]float64(nil), axis...),
		subs: append([]*Table(nil), subs...),
		dim:  subs[0].dim + 1,
	}
	if err := t.validate(0); err != nil {
		return nil, err
	}
	return t, nil
}

func shiftDim(err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return &ValidationError{Dim: verr.Dim + 1, Detail: verr.Detail, Err: verr.Err}
	}
	return err
}

func (t *Table) validate(dim int) error {
	n := len(t.axis)
	if n < 2 {
		return &ValidationError{Dim: dim, Detail: fmt.Sprintf("%d breakpoints; at least 2 are needed", n),
			Err: ErrShapeMismatch}
	}

	for i, v := range t.axis {
		if gomath.IsNaN(v) || gomath.IsInf(v, 0) {
			return &ValidationError{Dim: dim, Detail: fmt.Sprintf("breakpoint %d is %v", i, v), Err: ErrInvalidValue}
		}
	}
	increasing := t.axis[1] > t.axis[0]
	for i := 1; i < n; i++ {
		if (increasing && t.axis[i] <= t.axis[i-1]) || (!increasing && t.axis[i] >= t.axis[i-1]) {
			return &ValidationError{Dim: dim, Detail: fmt.Sprintf("breakpoints %v", t.axis), Err: ErrNotMonotonic}
		}
	}

	if t.dim == 1 {
		if len(t.values) != n {
			return &ValidationError{Dim: dim, Detail: fmt.Sprintf("%d breakpoints but %d values", n, len(t.values)),
				Err: ErrShapeMismatch}
		}
		for i, v := range t.values {
			if gomath.IsNaN(v) || gomath.IsInf(v, 0) {
				return &ValidationError{Dim: dim, Detail: fmt.Sprintf("value %d is %v", i, v), Err: ErrInvalidValue}
			}
		}
		return nil
	}

	if len(t.subs) != n {
		return &ValidationError{Dim: dim, Detail: fmt.Sprintf("%d breakpoints but %d sub-tables", n, len(t.subs)),
			Err: ErrShapeMismatch}
	}
	for i, s := range t.subs {
		if s.dim != t.dim-1 {
			return &ValidationError{Dim: dim, Detail: fmt.Sprintf("sub-table %d has dimension %d, expected %d", i, s.dim, t.dim-1),
				Err: ErrShapeMismatch}
		}
	}
	return nil
}

// Dim returns the number of axes of the table.
func (t *Table) Dim() int { return t.dim }

// Axis returns the breakpoints of the table's first axis.
func (t *Table) Axis() []float64 { return t.axis }

// bracket returns the index i such that x lies between axis[i] and
// axis[i+1]. Values outside the axis range give the first or last bracket,
// so that ValueAt extrapolates linearly from it.
func bracket(axis []float64, x float64) int {
	n := len(axis)
	var i int
	if axis[1] > axis[0] {
		// First breakpoint greater than x.
		i = sort.Search(n, func(j int) bool { return axis[j] > x })
	} else {
		i = sort.Search(n, func(j int) bool { return axis[j] < x })
	}
	return math.Clamp(i-1, 0, n-2)
}

// ValueAt returns the value of the table at the given coordinates, one
// per axis. Queries at a breakpoint return the stored value exactly;
// queries outside an axis' range are linearly extrapolated from the
// nearest pair of breakpoints.
func (t *Table) ValueAt(x ...float64) (float64, error) {
	if len(x) != t.dim {
		return 0, fmt.Errorf("%d coordinates for %d-dimensional table: %w", len(x), t.dim, ErrDimensionCount)
	}
	return t.valueAt(x), nil
}

func (t *Table) valueAt(x []float64) float64 {
	i := bracket(t.axis, x[0])

	var f0, f1 float64
	if t.dim == 1 {
		f0, f1 = t.values[i], t.values[i+1]
	} else {
		f0, f1 = t.subs[i].valueAt(x[1:]), t.subs[i+1].valueAt(x[1:])
	}

	if f0 == f1 {
		return f0
	}
	return math.Lerp(math.InverseLerp(x[0], t.axis[i], t.axis[i+1]), f0, f1)
}
