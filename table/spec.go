// table/spec.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package table

import (
	"encoding/json"
	"fmt"

	"github.com/mmp/routeplan/util"
)

// Spec is the JSON representation of a table: one breakpoint array per
// axis and a nested array of values, e.g.
//
//	{"axes": [[0, 10000], [50000, 70000]], "values": [[1.5, 2.0], [1.2, 1.6]]}
type Spec struct {
	Axes   [][]float64     `json:"axes"`
	Values json.RawMessage `json:"values"`
}

// FromSpec parses and validates a table from its JSON representation.
func FromSpec(b []byte) (*Table, error) {
	var s Spec
	if err := util.UnmarshalJSONBytes(b, &s); err != nil {
		return nil, err
	}
	return s.Table()
}

// Table builds the table described by the Spec.
func (s Spec) Table() (*Table, error) {
	if len(s.Axes) == 0 {
		return nil, &ValidationError{Dim: 0, Detail: "no axes given", Err: ErrShapeMismatch}
	}
	return buildFromRaw(s.Axes, s.Values, 0)
}

func buildFromRaw(axes [][]float64, raw json.RawMessage, dim int) (*Table, error) {
	if len(axes) == 1 {
		var values []float64
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, &ValidationError{Dim: dim, Detail: fmt.Sprintf("values: %v", err), Err: ErrShapeMismatch}
		}
		t, err := New1D(axes[0], values)
		if err != nil {
			return nil, offsetDim(err, dim)
		}
		return t, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &ValidationError{Dim: dim, Detail: fmt.Sprintf("values: %v", err), Err: ErrShapeMismatch}
	}
	if len(items) != len(axes[0]) {
		return nil, &ValidationError{Dim: dim, Detail: fmt.Sprintf("%d breakpoints but %d values", len(axes[0]), len(items)),
			Err: ErrShapeMismatch}
	}

	subs := make([]*Table, len(items))
	for i, item := range items {
		var err error
		if subs[i], err = buildFromRaw(axes[1:], item, dim+1); err != nil {
			return nil, err
		}
	}
	t, err := New(axes[0], subs)
	if err != nil {
		return nil, offsetDim(err, dim)
	}
	return t, nil
}

func offsetDim(err error, dim int) error {
	for range dim {
		err = shiftDim(err)
	}
	return err
}

// Spec returns the JSON-encodable description of the table.
func (t *Table) Spec() Spec {
	var axes [][]float64
	for s := t; s != nil; {
		axes = append(axes, s.axis)
		if s.dim == 1 {
			break
		}
		s = s.subs[0]
	}
	values, _ := json.Marshal(t.nested())
	return Spec{Axes: axes, Values: values}
}

func (t *Table) nested() any {
	if t.dim == 1 {
		return t.values
	}
	return util.MapSlice(t.subs, func(s *Table) any { return s.nested() })
}

func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Spec())
}

func (t *Table) UnmarshalJSON(b []byte) error {
	var s Spec
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	nt, err := s.Table()
	if err != nil {
		return err
	}
	*t = *nt
	return nil
}
