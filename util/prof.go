// util/prof.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"fmt"
	"os"
	"runtime/pprof"
)

// Profiler writes CPU and heap profiles for the files given to
// CreateProfiler; Cleanup must be called before the program exits.
type Profiler struct {
	cpu, mem *os.File
}

func CreateProfiler(cpu, mem string) (Profiler, error) {
	var p Profiler
	var err error
	if cpu != "" {
		if p.cpu, err = os.Create(cpu); err != nil {
			return Profiler{}, fmt.Errorf("%s: unable to create CPU profile file: %w", cpu, err)
		} else if err = pprof.StartCPUProfile(p.cpu); err != nil {
			p.cpu.Close()
			return Profiler{}, fmt.Errorf("unable to start CPU profile: %w", err)
		}
	}
	if mem != "" {
		if p.mem, err = os.Create(mem); err != nil {
			if p.cpu != nil {
				pprof.StopCPUProfile()
				p.cpu.Close()
			}
			return Profiler{}, fmt.Errorf("%s: unable to create memory profile file: %w", mem, err)
		}
	}
	return p, nil
}

func (p *Profiler) Cleanup() error {
	if p.cpu != nil {
		pprof.StopCPUProfile()
		p.cpu.Close()
		p.cpu = nil
	}
	if p.mem != nil {
		defer func() { p.mem = nil }()
		if err := pprof.WriteHeapProfile(p.mem); err != nil {
			p.mem.Close()
			return fmt.Errorf("unable to write memory profile: %w", err)
		}
		return p.mem.Close()
	}
	return nil
}
