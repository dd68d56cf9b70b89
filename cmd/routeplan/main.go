// cmd/routeplan/main.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// routeplan finds or parses a flight route through ARINC 424 navigation
// data, optionally with SIDs, STARs and oceanic tracks, and computes its
// vertical profile, time and fuel.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/apenwarr/fixconsole"
	"github.com/goforj/godump"

	"github.com/mmp/routeplan/log"
	"github.com/mmp/routeplan/perf"
	"github.com/mmp/routeplan/profile"
	"github.com/mmp/routeplan/route"
	"github.com/mmp/routeplan/tracks"
	"github.com/mmp/routeplan/util"
)

var (
	navdataFiles = flag.String("navdata", "", "comma-separated ARINC 424 files, optionally zstd compressed (.zst)")
	configFile   = flag.String("config", "", "JSON configuration file")
	fromID       = flag.String("from", "", "origin airport or waypoint")
	toID         = flag.String("to", "", "destination airport or waypoint")
	routeText    = flag.String("route", "", "route to parse instead of searching for one")
	depRunway    = flag.String("deprwy", "", "departure runway (default: SIDs for all runways)")
	arrRunway    = flag.String("arrrwy", "", "arrival runway (default: STARs for all runways)")
	tracksFile   = flag.String("tracks", "", "file with an oceanic track message")
	tracksDir    = flag.String("tracksdir", "eastbound", "direction of the tracks: eastbound or westbound")
	tracksSystem = flag.String("tracksystem", "NAT", "track system name, used to name track airways")
	tracksValid  = flag.Duration("tracksvalid", 12*time.Hour, "how long the track message is valid from now")
	cruise       = flag.Float64("cruise", 0, "cruise altitude (feet) for the vertical profile")
	altitudes    = flag.String("altitudes", "", "comma-separated altitudes (feet), one per route waypoint")
	markOnly     = flag.String("mark", "", "comma-separated altitudes to classify, without navigation data")
	perfFile     = flag.String("perf", "", "aircraft performance model (JSON) for time and fuel")
	weight       = flag.Float64("weight", 0, "takeoff weight (kg) for fuel calculations")
	splitOnly    = flag.Bool("split", false, "print the tokens of -route and exit")
	jsonOutput   = flag.Bool("json", false, "write the plan as JSON")
	dumpOutput   = flag.Bool("dump", false, "dump the plan's data structures")
	noCache      = flag.Bool("nocache", false, "don't use or update the navigation data cache")
	logLevel     = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir       = flag.String("logdir", "", "log file directory")
	cpuprofile   = flag.String("cpuprofile", "", "write CPU profile to file")
	memprofile   = flag.String("memprofile", "", "write memory profile to this file")
)

func main() {
	flag.Parse()

	if err := fixconsole.FixConsoleIfNeeded(); err != nil {
		fmt.Printf("FixConsole: %v\n", err)
	}

	var cfg *Config
	if *configFile != "" {
		var err error
		if cfg, err = LoadConfig(*configFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	// Flags given on the command line take precedence over the
	// configuration file.
	level, dir := *logLevel, *logDir
	if cfg != nil {
		set := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if cfg.LogLevel != "" && !set["loglevel"] {
			level = cfg.LogLevel
		}
		if cfg.LogDir != "" && !set["logdir"] {
			dir = cfg.LogDir
		}
	}
	lg := log.New(level, dir)
	defer lg.CatchAndReportCrash()

	profiler, err := util.CreateProfiler(*cpuprofile, *memprofile)
	if err != nil {
		lg.Errorf("%v", err)
	}

	err = run(cfg, lg)
	if perr := profiler.Cleanup(); perr != nil {
		lg.Errorf("%v", perr)
	}
	if err != nil {
		lg.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *Config, lg *log.Logger) error {
	if *splitOnly {
		tokens, err := route.Split(*routeText)
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(tokens, "\n"))
		return nil
	}

	if *markOnly != "" {
		return mark(*markOnly)
	}

	if *navdataFiles == "" {
		return fmt.Errorf("-navdata must be given")
	}
	var cacheMaxMB int
	if cfg != nil {
		cacheMaxMB = cfg.CacheMaxMB
	}
	var cache *util.Cache
	if !*noCache {
		var err error
		if cache, err = util.UserCache(); err != nil {
			lg.Warnf("unable to find cache directory: %v", err)
		}
	}
	g, db, err := LoadNavigation(context.Background(), strings.Split(*navdataFiles, ","), cache, cacheMaxMB, lg)
	if err != nil {
		return err
	}

	req := PlanRequest{
		From:      strings.ToUpper(*fromID),
		To:        strings.ToUpper(*toID),
		RouteText: *routeText,
		DepRunway: *depRunway,
		ArrRunway: *arrRunway,
		Cruise:    *cruise,
		Weight:    *weight,
		Now:       time.Now(),
	}
	if *tracksFile != "" {
		s, err := loadTracks(*tracksFile, *tracksSystem, *tracksDir, req.Now, *tracksValid)
		if err != nil {
			return err
		}
		req.Tracks = append(req.Tracks, s)
	}
	if *altitudes != "" {
		if req.Altitudes, err = parseAltitudes(*altitudes); err != nil {
			return err
		}
	}
	if *perfFile != "" {
		if req.Perf, err = perf.LoadModel(*perfFile); err != nil {
			return err
		}
		if req.Weight <= 0 {
			return fmt.Errorf("-weight must be given with -perf")
		}
	}

	p, err := MakePlan(g, db, cfg, req, lg)
	if err != nil {
		return err
	}

	switch {
	case *dumpOutput:
		godump.Fdump(os.Stdout, p)
	case *jsonOutput:
		b, err := p.JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(b))
	default:
		p.WriteText(os.Stdout)
	}
	return nil
}

func loadTracks(filename, system, dir string, now time.Time, valid time.Duration) (*tracks.Set, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	d, err := tracks.ParseDirection(dir)
	if err != nil {
		return nil, err
	}
	return tracks.NewSet(system, d, string(b), now, now.Add(valid))
}

func parseAltitudes(s string) ([]float64, error) {
	var alts []float64
	for _, f := range strings.Split(s, ",") {
		a, err := util.Atof(f)
		if err != nil {
			return nil, fmt.Errorf("%q: invalid altitude: %w", f, err)
		}
		alts = append(alts, a)
	}
	return alts, nil
}

func mark(s string) error {
	alts, err := parseAltitudes(s)
	if err != nil {
		return err
	}
	if len(alts) < 2 {
		return profile.ErrProfileTooShort
	}
	fmt.Printf("TOC: %d\nTOD: %d\nStep climbs: %v\n", profile.TocIndex(alts), profile.TodIndex(alts),
		profile.StepClimbIndices(alts))
	return nil
}
