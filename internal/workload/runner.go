package workload

import (
	"fmt"

	"github.com/MeKo-Tech/lapse/internal/timing"
)

// Result pairs a workload's timing statistics with the memory delta
// observed while running it.
type Result struct {
	Stats        timing.Stats `json:"stats" yaml:"stats"`
	MemoryBefore MemoryStats  `json:"memory_before,omitempty" yaml:"memory_before,omitempty"`
	MemoryAfter  MemoryStats  `json:"memory_after,omitempty" yaml:"memory_after,omitempty"`
}

// RunAll drives every workload through the registry for the registry's full
// sample capacity, one named slot per workload. The registry must be fresh
// enough to have a free slot for each workload.
func RunAll(reg *timing.Registry, workloads []Workload, trackMemory bool) ([]Result, error) {
	results := make([]Result, 0, len(workloads))
	for _, w := range workloads {
		res, err := runOne(reg, w, trackMemory)
		if err != nil {
			return nil, fmt.Errorf("workload %s: %w", w.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func runOne(reg *timing.Registry, w Workload, trackMemory bool) (Result, error) {
	idx, err := reg.SetName(w.Name)
	if err != nil {
		return Result{}, err
	}

	var res Result
	if trackMemory {
		res.MemoryBefore = GetMemoryStats()
	}

	for i := 0; i < reg.Capacity(); i++ {
		if err := reg.Begin(idx); err != nil {
			return Result{}, err
		}
		w.Run()
		if err := reg.End(idx); err != nil {
			return Result{}, err
		}
	}

	if trackMemory {
		res.MemoryAfter = GetMemoryStats()
	}

	res.Stats, err = reg.Snapshot(idx)
	if err != nil {
		if reg.Capacity() == 0 {
			// Zero-capacity runs legally produce no samples.
			res.Stats = timing.Stats{Name: w.Name}
			return res, nil
		}
		return Result{}, err
	}
	return res, nil
}
