// cmd/routeplan/config_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmp/routeplan/procedures"
	"github.com/mmp/routeplan/route"
)

func writeConfig(t *testing.T, s string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(fn, []byte(s), 0o644); err != nil {
		t.Fatal(err)
	}
	return fn
}

func TestLoadConfig(t *testing.T) {
	fn := writeConfig(t, `{
  "search": {"allow_direct": false, "max_direct_nm": 500, "cache_size": 0, "cache_ttl": "1m"},
  "procedures": {"direct_radius_nm": 40, "max_direct": 5},
  "filters": [
    {"airport": "KJFK", "runway": "04L", "kind": "SID", "names": ["DEEZZ5"]},
    {"airport": "KBOS", "kind": "STAR", "blacklist": true, "names": ["ROBUC3"]}
  ],
  "log_level": "debug"
}`)

	c, err := LoadConfig(fn)
	if err != nil {
		t.Fatal(err)
	}
	if c.LogLevel != "debug" || len(c.Filters) != 2 {
		t.Errorf("unexpected config %+v", c)
	}

	so := c.SearchOptions()
	if so.AllowDirect || so.MaxDirectNM != 500 || so.CacheSize != 0 || so.CacheTTL != time.Minute {
		t.Errorf("unexpected search options %+v", so)
	}
	po := c.ProcedureOptions()
	if po.DirectRadiusNM != 40 || po.MaxDirect != 5 {
		t.Errorf("unexpected procedure options %+v", po)
	}

	f := c.Filter()
	if f != c.Filter() {
		t.Errorf("expected the filter to be built once")
	}
	if !f.Allowed("kjfk", "04l", procedures.SID, "DEEZZ5") || f.Allowed("KJFK", "04L", procedures.SID, "GREKI7") {
		t.Errorf("KJFK whitelist not applied")
	}
	if f.Allowed("KBOS", "", procedures.STAR, "ROBUC3") || !f.Allowed("KBOS", "", procedures.STAR, "OOSHN5") {
		t.Errorf("KBOS blacklist not applied")
	}
	if !f.Allowed("KJFK", "04L", procedures.STAR, "ANYTHING") {
		t.Errorf("filter should only apply to its kind")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	for _, tc := range []struct {
		name, json string
		errText    []string
	}{
		{"unknown key", `{"search": {"alow_direct": true}}`, []string{"alow_direct"}},
		{"syntax", `{"search": {`, []string{"config.json"}},
		{"negative", `{"search": {"max_direct_nm": -1, "cache_size": -2}, "procedures": {"max_direct": -1}}`,
			[]string{"max_direct_nm", "cache_size", "procedures"}},
		{"ttl", `{"search": {"cache_ttl": "soon"}}`, []string{"cache_ttl"}},
		{"kind", `{"filters": [{"airport": "KJFK", "kind": "APPROACH"}]}`, []string{"APPROACH"}},
		{"airport", `{"filters": [{"kind": "SID"}]}`, []string{"\"airport\" must be given"}},
		{"duplicate", `{"filters": [{"airport": "KJFK", "runway": "04L", "kind": "SID"},
                                    {"airport": "kjfk", "runway": "04l", "kind": "SID", "blacklist": true}]}`,
			[]string{"multiple filters"}},
	} {
		_, err := LoadConfig(writeConfig(t, tc.json))
		if err == nil {
			t.Errorf("%s: expected an error", tc.name)
			continue
		}
		for _, s := range tc.errText {
			if !strings.Contains(err.Error(), s) {
				t.Errorf("%s: expected %q in error %q", tc.name, s, err)
			}
		}
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); !os.IsNotExist(err) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}

func TestNilConfig(t *testing.T) {
	var c *Config
	if so := c.SearchOptions(); so != route.DefaultOptions {
		t.Errorf("expected default search options, got %+v", so)
	}
	if po := c.ProcedureOptions(); po != procedures.DefaultOptions {
		t.Errorf("expected default procedure options, got %+v", po)
	}
	if f := c.Filter(); !f.Allowed("KJFK", "04L", procedures.SID, "DEEZZ5") {
		t.Errorf("empty filter should allow everything")
	}
}
