// cmd/routeplan/config.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"os"
	"strings"
	"time"

	"github.com/mmp/routeplan/procedures"
	"github.com/mmp/routeplan/route"
	"github.com/mmp/routeplan/util"
)

// Config is the optional JSON configuration file, e.g.:
//
//	{
//	  "search": {"allow_direct": true, "max_direct_nm": 500},
//	  "procedures": {"direct_radius_nm": 40},
//	  "filters": [
//	    {"airport": "KJFK", "runway": "04L", "kind": "SID", "names": ["DEEZZ5"]},
//	    {"airport": "KBOS", "runway": "", "kind": "STAR", "blacklist": true, "names": ["ROBUC3"]}
//	  ],
//	  "log_level": "debug"
//	}
type Config struct {
	Search     SearchConfig    `json:"search"`
	Procedures ProcedureConfig `json:"procedures"`
	Filters    []FilterConfig  `json:"filters"`
	LogLevel   string          `json:"log_level"`
	LogDir     string          `json:"log_dir"`
	CacheMaxMB int             `json:"cache_max_mb"`

	filter *procedures.Filter
}

type SearchConfig struct {
	AllowDirect *bool   `json:"allow_direct"`
	MaxDirectNM float32 `json:"max_direct_nm"`
	CacheSize   *int    `json:"cache_size"`
	CacheTTL    string  `json:"cache_ttl"`
}

type ProcedureConfig struct {
	DirectRadiusNM float32 `json:"direct_radius_nm"`
	MaxDirect      int     `json:"max_direct"`
}

type FilterConfig struct {
	Airport   string   `json:"airport"`
	Runway    string   `json:"runway"`
	Kind      string   `json:"kind"`
	Blacklist bool     `json:"blacklist"`
	Names     []string `json:"names"`
}

// LoadConfig reads and validates the configuration file, reporting all
// of the problems found in it.
func LoadConfig(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var e util.ErrorLogger
	e.Push(filename)
	util.CheckJSON[Config](b, &e)
	if e.HaveErrors() {
		return nil, e.Err()
	}

	var c Config
	if err := util.UnmarshalJSONBytes(b, &c); err != nil {
		e.Error(err)
		return nil, e.Err()
	}

	c.validate(&e)
	if e.HaveErrors() {
		return nil, e.Err()
	}
	c.filter = c.buildFilter()
	return &c, nil
}

func (c *Config) validate(e *util.ErrorLogger) {
	if c.Search.MaxDirectNM < 0 {
		e.ErrorString("search: \"max_direct_nm\" must not be negative")
	}
	if c.Search.CacheSize != nil && *c.Search.CacheSize < 0 {
		e.ErrorString("search: \"cache_size\" must not be negative")
	}
	if c.Search.CacheTTL != "" {
		if _, err := time.ParseDuration(c.Search.CacheTTL); err != nil {
			e.ErrorString("search: \"cache_ttl\": %v", err)
		}
	}
	if c.Procedures.DirectRadiusNM < 0 || c.Procedures.MaxDirect < 0 {
		e.ErrorString("procedures: values must not be negative")
	}

	seen := make(map[procedures.FilterKey]bool)
	for _, f := range c.Filters {
		e.Push("filter " + f.Airport + " " + f.Runway + " " + f.Kind)
		kind, err := procedures.ParseKind(f.Kind)
		if err != nil {
			e.Error(err)
		}
		if f.Airport == "" {
			e.ErrorString("\"airport\" must be given")
		}
		k := procedures.FilterKey{Airport: strings.ToUpper(f.Airport), Runway: strings.ToUpper(f.Runway), Kind: kind}
		if seen[k] {
			e.ErrorString("multiple filters given")
		}
		seen[k] = true
		e.Pop()
	}
}

// SearchOptions returns route search options, starting from the
// defaults.
func (c *Config) SearchOptions() route.Options {
	opts := route.DefaultOptions
	if c == nil {
		return opts
	}
	if c.Search.AllowDirect != nil {
		opts.AllowDirect = *c.Search.AllowDirect
	}
	opts.MaxDirectNM = c.Search.MaxDirectNM
	if c.Search.CacheSize != nil {
		opts.CacheSize = *c.Search.CacheSize
	}
	if d, err := time.ParseDuration(c.Search.CacheTTL); err == nil {
		opts.CacheTTL = d
	}
	return opts
}

func (c *Config) ProcedureOptions() procedures.Options {
	opts := procedures.DefaultOptions
	if c == nil {
		return opts
	}
	if c.Procedures.DirectRadiusNM > 0 {
		opts.DirectRadiusNM = c.Procedures.DirectRadiusNM
	}
	if c.Procedures.MaxDirect > 0 {
		opts.MaxDirect = c.Procedures.MaxDirect
	}
	return opts
}

// Filter returns the procedure filter shared by all plans made with the
// configuration. Edits to it apply to later plans; each plan works from
// its own copy.
func (c *Config) Filter() *procedures.Filter {
	if c == nil {
		return &procedures.Filter{}
	}
	if c.filter == nil {
		c.filter = c.buildFilter()
	}
	return c.filter
}

// buildFilter assumes the configuration has been validated.
func (c *Config) buildFilter() *procedures.Filter {
	f := &procedures.Filter{}
	for _, fc := range c.Filters {
		kind, _ := procedures.ParseKind(fc.Kind)
		f.Set(fc.Airport, fc.Runway, kind, procedures.FilterEntry{IsBlacklist: fc.Blacklist, Names: fc.Names})
	}
	return f
}
