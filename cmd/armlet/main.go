// Package main provides the entry point for armlet.
// Armlet is a text-mnemonic simulator for a simplified 64-bit core.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/armlet/emu"
	"github.com/sarchlab/armlet/loader"
	"github.com/sarchlab/armlet/program"
	"github.com/sarchlab/armlet/timing/cache"
	"github.com/sarchlab/armlet/timing/latency"
)

var (
	memSize      = flag.Uint64("mem", emu.DefaultMemorySize, "Memory capacity in bytes")
	manifestPath = flag.String("manifest", "", "Path to a key/firmware/ROM staging manifest (JSON)")
	latencyPath  = flag.String("latency", "", "Path to a latency configuration JSON file")
	useCache     = flag.Bool("cache", false, "Enable the L1 data-cache timing model")
	trace        = flag.Bool("trace", false, "Trace every executed instruction")
	verbose      = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: armlet [options] <program.s>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	prog, err := program.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Instructions: %d\n", len(prog.Lines))
		fmt.Printf("Labels: %d\n", len(prog.Labels))
	}

	opts := []emu.Option{
		emu.WithMemorySize(*memSize),
		emu.WithTrace(*trace),
	}

	timingConfig := latency.DefaultConfig()
	if *latencyPath != "" {
		timingConfig, err = latency.LoadConfig(*latencyPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading latency config: %v\n", err)
			os.Exit(1)
		}
		if err := timingConfig.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid latency config: %v\n", err)
			os.Exit(1)
		}
	}
	opts = append(opts, emu.WithAccessTimer(latency.NewTableWithConfig(timingConfig)))

	var dcache *cache.Cache
	if *useCache {
		dcache = cache.New(cache.DefaultL1DConfig())
		opts = append(opts, emu.WithDataCache(dcache))
	}

	cpu := emu.NewCPU(opts...)

	if *manifestPath != "" {
		manifest, err := loader.LoadManifest(*manifestPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
			os.Exit(1)
		}
		images, err := manifest.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading blobs: %v\n", err)
			os.Exit(1)
		}
		if err := loader.Stage(cpu.Memory(), images...); err != nil {
			fmt.Fprintf(os.Stderr, "Error staging blobs: %v\n", err)
			os.Exit(1)
		}
		if *verbose {
			for _, image := range images {
				fmt.Printf("Staged %s: %d bytes at %#x\n", image.Name, len(image.Data), image.Offset)
			}
		}
	}

	// Feed the listing in file order; the program counter is
	// architectural state only.
	for _, line := range prog.Lines {
		if err := cpu.Execute(line.Text); err != nil {
			fmt.Fprintf(os.Stderr, "line %d: %v\n", line.LineNo, err)
		}
		cpu.RunCycle()
	}

	report(cpu, dcache)
}

func report(cpu *emu.CPU, dcache *cache.Cache) {
	snapshot := cpu.Snapshot()
	stats := cpu.Stats()

	fmt.Printf("\n")
	for i, v := range snapshot.X {
		if v != 0 {
			fmt.Printf("X%-2d = %d (%#x)\n", i, v, uint64(v))
		}
	}
	fmt.Printf("PC  = %#x\n", snapshot.PC)
	fmt.Printf("EL  = %v\n", snapshot.EL)
	fmt.Printf("Cycles: %d\n", snapshot.CycleCount)
	fmt.Printf("Executed: %d  Skipped: %d\n", stats.Executed, stats.Skipped)
	fmt.Printf("Estimated cycles: %d\n", stats.EstimatedCycles)

	if dcache != nil {
		cs := dcache.Stats()
		fmt.Printf("D-cache: %d reads, %d writes, %d hits, %d misses, %d evictions\n",
			cs.Reads, cs.Writes, cs.Hits, cs.Misses, cs.Evictions)
	}
	if snapshot.SVEEnabled {
		fmt.Printf("SVE: enabled\n")
	}
}
