package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// Runtime profiles by core count
const (
	SmallServerGOGC     = 200
	SmallServerMemLimit = 1.5 * 1024 * 1024 * 1024

	MediumServerGOGC     = 400
	MediumServerMemLimit = 4 * 1024 * 1024 * 1024

	LargeServerGOGC     = 800
	LargeServerMemLimit = 8 * 1024 * 1024 * 1024
)

// RuntimeProfile is the tuning TuneRuntime applies.
type RuntimeProfile struct {
	GOGC     int
	MemLimit int64
	MaxProcs int
}

// DetectRuntimeProfile picks settings from the core count. Quotes are big.Int
// heavy and short lived, so a higher GOGC trades memory for fewer cycles.
func DetectRuntimeProfile(numCPU int) RuntimeProfile {
	switch {
	case numCPU <= 2:
		return RuntimeProfile{GOGC: SmallServerGOGC, MemLimit: int64(SmallServerMemLimit), MaxProcs: numCPU}
	case numCPU <= 8:
		return RuntimeProfile{GOGC: MediumServerGOGC, MemLimit: int64(MediumServerMemLimit), MaxProcs: numCPU}
	default:
		// leave a core per eight for the OS and the network poller
		return RuntimeProfile{GOGC: LargeServerGOGC, MemLimit: int64(LargeServerMemLimit), MaxProcs: numCPU - numCPU/8}
	}
}

// TuneRuntime applies the detected profile. GOGC, GOMAXPROCS and GOMEMLIMIT
// set in the environment win.
func TuneRuntime() RuntimeProfile {
	p := DetectRuntimeProfile(runtime.NumCPU())

	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(p.GOGC)
	}
	if os.Getenv("GOMAXPROCS") == "" {
		runtime.GOMAXPROCS(p.MaxProcs)
	}
	if os.Getenv("GOMEMLIMIT") == "" {
		debug.SetMemoryLimit(p.MemLimit)
	}

	log.Info().
		Int("num_cpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Int("gogc", p.GOGC).
		Float64("memlimit_gb", float64(p.MemLimit)/1024/1024/1024).
		Str("go_version", runtime.Version()).
		Msg("[runtime] tuned")
	return p
}
