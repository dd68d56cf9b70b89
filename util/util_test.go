// util/util_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestMapSlice(t *testing.T) {
	a := []int{1, 2, 3, 4, 5}
	b := MapSlice[int, float32](a, func(i int) float32 { return 2 * float32(i) })
	if len(a) != len(b) {
		t.Errorf("lengths mismatch %d - %d", len(a), len(b))
	}
	for i := range b {
		if b[i] != 2*float32(a[i]) {
			t.Errorf("MapSlice b[%d] = %f. Expected %f", i, b[i], 2*float32(a[i]))
		}
	}
}

func TestSortedMapKeys(t *testing.T) {
	m := map[string]int{"KLAX": 1, "KJFK": 2, "EGLL": 3}
	if k := SortedMapKeys(m); !slices.Equal(k, []string{"EGLL", "KJFK", "KLAX"}) {
		t.Errorf("SortedMapKeys returned %v", k)
	}
}

func TestHashFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, s string) string {
		fn := filepath.Join(dir, name)
		if err := os.WriteFile(fn, []byte(s), 0o644); err != nil {
			t.Fatal(err)
		}
		return fn
	}
	a, b, c := write("a", "hello"), write("b", "hello"), write("c", "hellp")

	ha, err := HashFiles(a)
	if err != nil {
		t.Fatal(err)
	}
	if hb, _ := HashFiles(b); ha != hb {
		t.Errorf("same contents gave different hashes")
	}
	if hc, _ := HashFiles(c); ha == hc {
		t.Errorf("different contents gave the same hash")
	}
	if hab, _ := HashFiles(a, c); hab == ha {
		t.Errorf("adding a file didn't change the hash")
	}
	if _, err := HashFiles(filepath.Join(dir, "missing")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestText(t *testing.T) {
	if !IsAllNumbers("0451") || IsAllNumbers("04L") {
		t.Errorf("IsAllNumbers mismatch")
	}
	if v, err := Atof(" 12.5\n"); err != nil || v != 12.5 {
		t.Errorf("Atof gave %v, %v", v, err)
	}
}

func TestErrorLogger(t *testing.T) {
	var e ErrorLogger
	if e.HaveErrors() || e.Err() != nil {
		t.Errorf("new ErrorLogger reports errors")
	}
	e.Push("KJFK")
	e.Push("04L")
	e.ErrorString("no procedure %q", "DEEZZ5")
	e.Pop()
	e.Pop()
	e.ErrorString("top level")

	if !e.HaveErrors() {
		t.Fatalf("expected errors")
	}
	expected := "KJFK / 04L: no procedure \"DEEZZ5\"\ntop level"
	if e.String() != expected {
		t.Errorf("got %q, expected %q", e.String(), expected)
	}
}

func TestCompressedMsgpack(t *testing.T) {
	type obj struct {
		Names  []string
		Counts map[string]int
	}
	in := obj{Names: []string{"J80", "Q42"}, Counts: map[string]int{"J80": 3}}

	var buf bytes.Buffer
	if err := WriteCompressedMsgpack(&buf, in); err != nil {
		t.Fatal(err)
	}
	var out obj
	if err := ReadCompressedMsgpack(&buf, &out); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(in.Names, out.Names) || out.Counts["J80"] != 3 {
		t.Errorf("got %+v, expected %+v", out, in)
	}
}

func TestCache(t *testing.T) {
	c := &Cache{Dir: t.TempDir()}

	if err := c.Store("graphs/test.msgpack", []int{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	var v []int
	if _, err := c.Retrieve("graphs/test.msgpack", &v); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(v, []int{1, 2, 3}) {
		t.Errorf("got %v from cache", v)
	}
	if _, err := c.Retrieve("graphs/missing.msgpack", &v); !os.IsNotExist(err) {
		t.Errorf("expected a not-exist error, got %v", err)
	}

	if err := c.Cull(1 << 20); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Retrieve("graphs/test.msgpack", &v); err != nil {
		t.Errorf("object culled from a cache under its limit: %v", err)
	}
	if err := c.Cull(0); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Retrieve("graphs/test.msgpack", &v); err == nil {
		t.Errorf("expected culled object to be gone")
	}

	empty := &Cache{Dir: filepath.Join(t.TempDir(), "missing")}
	if err := empty.Cull(0); err != nil {
		t.Errorf("culling a missing cache: %v", err)
	}
}
