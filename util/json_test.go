// util/json_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"strings"
	"testing"
)

type testConfig struct {
	AllowDirect bool               `json:"allow_direct"`
	MaxDirect   float32            `json:"max_direct_nm,omitempty"`
	Runways     map[string]string  `json:"runways"`
	Filters     []testFilterConfig `json:"filters"`
}

type testFilterConfig struct {
	Airport string   `json:"airport"`
	Names   []string `json:"names"`
}

func TestUnmarshalJSONBytesErrors(t *testing.T) {
	var c testConfig
	err := UnmarshalJSONBytes([]byte("{\n  \"allow_direct\": true,\n  \"max_direct_nm\": \"far\"\n}"), &c)
	if err == nil {
		t.Fatalf("expected type error")
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error %q does not report line 3", err)
	}

	err = UnmarshalJSONBytes([]byte("{\n\n  \"allow_direct\" true }"), &c)
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("syntax error %v does not report line 3", err)
	}
}

func TestCheckJSON(t *testing.T) {
	for _, tc := range []struct {
		json   string
		errors int
	}{
		{`{"allow_direct": true, "runways": {"KJFK": "04L"}}`, 0},
		{`{"allow_direkt": true}`, 1},
		{`{"filters": [{"airport": "KJFK", "names": ["DEEZZ5"]}]}`, 0},
		{`{"filters": [{"airport": "KJFK", "nmes": ["DEEZZ5"]}]}`, 1},
		{`{"allow_direct": "yes", "max_direct_nm": 500}`, 1},
		{`{"runways": ["04L"]}`, 1},
		{`{"runways": `, 1},
	} {
		var e ErrorLogger
		CheckJSON[testConfig]([]byte(tc.json), &e)
		if n := len(e.errors); n != tc.errors {
			t.Errorf("%s: got %d errors, expected %d: %s", tc.json, n, tc.errors, e.String())
		}
	}
}

func TestCheckJSONUnknownKeyText(t *testing.T) {
	var e ErrorLogger
	CheckJSON[testConfig]([]byte(`{"max_%d_nm": 10}`), &e)
	if got := e.String(); !strings.Contains(got, `"max_%d_nm"`) || strings.Contains(got, "%!") {
		t.Errorf("unexpected error text %q", got)
	}
}
