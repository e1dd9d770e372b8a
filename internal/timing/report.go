package timing

import (
	"fmt"
	"io"
)

// tsvHeader matches the column layout consumed by downstream tooling.
const tsvHeader = "Timer \tMin \tMax \tAvg \tTtl \n"

// Stats is a point-in-time summary of one slot's recorded intervals.
// All durations are fractional seconds.
type Stats struct {
	Name  string  `json:"name" yaml:"name"`
	Count int     `json:"count" yaml:"count"`
	Min   float64 `json:"min_seconds" yaml:"min_seconds"`
	Max   float64 `json:"max_seconds" yaml:"max_seconds"`
	Avg   float64 `json:"avg_seconds" yaml:"avg_seconds"`
	Total float64 `json:"total_seconds" yaml:"total_seconds"`
}

// Snapshot returns the summary statistics for one slot.
func (r *Registry) Snapshot(idx int) (Stats, error) {
	s, err := r.statsSlot(idx)
	if err != nil {
		return Stats{}, err
	}
	if s.cursor == 0 {
		return Stats{}, ErrNoSamples
	}

	st := Stats{Name: s.name, Count: s.cursor}
	st.Min = s.interval(0)
	st.Max = st.Min
	for i := 0; i < s.cursor; i++ {
		v := s.interval(i)
		st.Total += v
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
	}
	st.Avg = st.Total / float64(st.Count)
	return st, nil
}

// Snapshots returns the statistics of every slot with at least one recorded
// sample, in slot order. The overhead slot is included when it has samples.
func (r *Registry) Snapshots() ([]Stats, error) {
	if r.closed {
		return nil, ErrClosed
	}
	out := make([]Stats, 0, r.nextName)
	for i := 0; i < r.nextName; i++ {
		if r.slots[i].cursor == 0 {
			continue
		}
		st, err := r.Snapshot(i)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// PrintTSV writes one tab-separated report line for the given slot to the
// registry's output writer, optionally preceded by the column header. When
// the slot has no samples the header (if requested) is still written and
// ErrNoSamples is returned.
func (r *Registry) PrintTSV(idx int, header bool) error {
	if r.closed {
		return ErrClosed
	}
	return r.WriteTSV(r.out, idx, header)
}

// WriteTSV is PrintTSV with an explicit destination writer.
func (r *Registry) WriteTSV(w io.Writer, idx int, header bool) error {
	if r.closed {
		return ErrClosed
	}
	if header {
		if _, err := io.WriteString(w, tsvHeader); err != nil {
			return fmt.Errorf("timing: write report header: %w", err)
		}
	}
	st, err := r.Snapshot(idx)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s \t%.2e \t%.2e \t%.2e \t%.2e \n",
		st.Name, st.Min, st.Max, st.Avg, st.Total); err != nil {
		return fmt.Errorf("timing: write report line: %w", err)
	}
	return nil
}
