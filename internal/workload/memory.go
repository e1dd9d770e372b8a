package workload

import (
	"fmt"
	"runtime"
)

// MemoryStats holds memory usage statistics captured around a run.
type MemoryStats struct {
	AllocBytes      uint64  `json:"alloc_bytes" yaml:"alloc_bytes"`
	TotalAllocBytes uint64  `json:"total_alloc_bytes" yaml:"total_alloc_bytes"`
	SysBytes        uint64  `json:"sys_bytes" yaml:"sys_bytes"`
	NumGC           uint32  `json:"num_gc" yaml:"num_gc"`
	GCCPUFraction   float64 `json:"gc_cpu_fraction" yaml:"gc_cpu_fraction"`
}

// GetMemoryStats returns current memory statistics.
func GetMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return MemoryStats{
		AllocBytes:      m.Alloc,
		TotalAllocBytes: m.TotalAlloc,
		SysBytes:        m.Sys,
		NumGC:           m.NumGC,
		GCCPUFraction:   m.GCCPUFraction,
	}
}

// String returns a formatted string representation of memory stats.
func (m MemoryStats) String() string {
	return fmt.Sprintf("Alloc: %d KB, Total: %d KB, Sys: %d KB, GC: %d (%.2f%% CPU)",
		m.AllocBytes/1024,
		m.TotalAllocBytes/1024,
		m.SysBytes/1024,
		m.NumGC,
		m.GCCPUFraction*100)
}
