// cmd/routeplan/navcache.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/mmp/routeplan/log"
	"github.com/mmp/routeplan/navdata"
	"github.com/mmp/routeplan/navgraph"
	"github.com/mmp/routeplan/procedures"
	"github.com/mmp/routeplan/util"
)

// navCache is what is cached after the navigation data files have been
// parsed.
type navCache struct {
	Graph      navgraph.Snapshot
	Procedures []procedures.Procedure
}

func cachePath(hash string) string {
	return filepath.Join("navgraph", hash+".msgpack.zst")
}

// LoadNavigation returns the navigation graph and procedures from the
// given files, using a cached copy if the files are unchanged since it
// was made. The cache is not used if it is nil.
func LoadNavigation(ctx context.Context, paths []string, cache *util.Cache, cacheMaxMB int,
	lg *log.Logger) (*navgraph.Graph, *procedures.Database, error) {
	var hash string
	if cache != nil {
		var err error
		if hash, err = util.HashFiles(paths...); err != nil {
			return nil, nil, err
		}

		var c navCache
		if t, err := cache.Retrieve(cachePath(hash), &c); err == nil {
			g, err := navgraph.FromSnapshot(c.Graph, lg)
			if err == nil {
				lg.Info("using cached navigation data", slog.Time("cached", t))
				return g, procedures.NewDatabase(c.Procedures), nil
			}
			lg.Warnf("%s: invalid cached navigation data: %v", hash, err)
		}
	}

	start := time.Now()
	d, err := navdata.Load(ctx, lg, paths...)
	if err != nil {
		return nil, nil, err
	}
	g, err := d.Build(lg)
	if err != nil {
		return nil, nil, err
	}
	procs := d.LocatedProcedures()
	lg.Info("built navigation graph", slog.Duration("elapsed", time.Since(start)))

	if cache != nil {
		if err := cache.Store(cachePath(hash), navCache{Graph: g.Snapshot(), Procedures: procs}); err != nil {
			lg.Warnf("unable to cache navigation data: %v", err)
		} else if cacheMaxMB > 0 {
			if err := cache.Cull(int64(cacheMaxMB) * 1024 * 1024); err != nil {
				lg.Warnf("unable to cull cache: %v", err)
			}
		}
	}
	return g, procedures.NewDatabase(procs), nil
}
