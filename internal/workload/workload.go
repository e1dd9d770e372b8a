// Package workload provides small, self-contained operations with
// predictable cost. They give the bench and serve commands something real
// to measure through the timing registry.
package workload

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Workload is one named, repeatable operation. Run executes a single
// iteration and must not retain state between calls.
type Workload struct {
	Name        string
	Description string
	Run         func()
}

const (
	sleepDuration = time.Millisecond
	spinDuration  = 200 * time.Microsecond
	allocChunk    = 64 * 1024
	hashBlockSize = 4 * 1024
)

var hashBlock = func() []byte {
	b := make([]byte, hashBlockSize)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}()

// sink keeps the spin and alloc workloads from being optimized away.
var sink uint64

// Builtin returns all built-in workloads in a fixed order.
func Builtin() []Workload {
	return []Workload{
		{
			Name:        "sleep",
			Description: fmt.Sprintf("sleep for %v", sleepDuration),
			Run:         func() { time.Sleep(sleepDuration) },
		},
		{
			Name:        "spin",
			Description: fmt.Sprintf("busy-loop for %v", spinDuration),
			Run: func() {
				start := time.Now()
				for time.Since(start) < spinDuration {
					sink++
				}
			},
		},
		{
			Name:        "alloc",
			Description: fmt.Sprintf("allocate and touch a %d byte slice", allocChunk),
			Run: func() {
				buf := make([]byte, allocChunk)
				for i := 0; i < len(buf); i += 512 {
					buf[i] = 1
				}
				sink += uint64(buf[0])
			},
		},
		{
			Name:        "hash",
			Description: fmt.Sprintf("sha256 of a fixed %d byte block", hashBlockSize),
			Run: func() {
				sum := sha256.Sum256(hashBlock)
				sink += uint64(sum[0])
			},
		},
	}
}

// Names returns the sorted names of all built-in workloads.
func Names() []string {
	all := Builtin()
	names := make([]string, len(all))
	for i, w := range all {
		names[i] = w.Name
	}
	sort.Strings(names)
	return names
}

// ByNames resolves a list of workload names, preserving order. Unknown
// names are an error.
func ByNames(names []string) ([]Workload, error) {
	byName := make(map[string]Workload)
	for _, w := range Builtin() {
		byName[w.Name] = w
	}

	out := make([]Workload, 0, len(names))
	for _, name := range names {
		w, ok := byName[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown workload %q (available: %s)",
				name, strings.Join(Names(), ", "))
		}
		out = append(out, w)
	}
	return out, nil
}
