package jsondoc

import (
	"math"
	"runtime"
	"runtime/debug"
)

// Memory reports how many bytes of working memory a decode may use.
type Memory interface {
	Available() int
}

// FixedMemory always reports the same ceiling.
type FixedMemory int

func (m FixedMemory) Available() int {
	return max(int(m), 0)
}

// RuntimeMemory caps Ceiling by the headroom left under the Go runtime soft
// memory limit. Without a soft limit the ceiling is returned as is.
type RuntimeMemory struct {
	Ceiling int
}

func (m RuntimeMemory) Available() int {
	limit := debug.SetMemoryLimit(-1)
	if limit == math.MaxInt64 {
		return max(m.Ceiling, 0)
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	headroom := limit - int64(stats.HeapInuse)
	if headroom <= 0 {
		return 0
	}

	return int(min(int64(m.Ceiling), headroom))
}
