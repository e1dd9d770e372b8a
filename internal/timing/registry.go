// Package timing implements a fixed-capacity interval timer registry for
// measuring elapsed wall-clock time of repeated operations. A registry owns
// a small set of named slots, each with pre-allocated begin/end sample
// buffers; callers bracket the code under measurement with Begin/End and
// read summary statistics afterwards. Slot 0 is reserved: it records the
// cost of the clock read itself so results can be sanity-checked against
// measurement noise.
package timing

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultSlotCount is the number of timer slots a registry holds
	// unless configured otherwise.
	DefaultSlotCount = 6

	// MaxNameLen is the maximum number of visible characters in a slot
	// name. Longer labels are truncated, never rejected.
	MaxNameLen = 7

	// OverheadSlot is the reserved slot index used for clock-overhead
	// calibration. Callers cannot record into it.
	OverheadSlot = 0

	// overheadName is the label assigned to the reserved slot.
	overheadName = "clock"
)

// Sentinel errors returned by registry operations.
var (
	ErrClosed           = errors.New("timing: registry is closed")
	ErrRegistryFull     = errors.New("timing: no free timer slots")
	ErrSlotOutOfRange   = errors.New("timing: slot index was never issued")
	ErrReservedSlot     = errors.New("timing: slot 0 is reserved for clock-overhead calibration")
	ErrCapacityExceeded = errors.New("timing: slot sample capacity exceeded")
	ErrUnpairedBegin    = errors.New("timing: Begin called on a slot with an open interval")
	ErrUnpairedEnd      = errors.New("timing: End called without a matching Begin")
	ErrNoSamples        = errors.New("timing: slot has no recorded samples")
)

// Config holds registry construction parameters.
type Config struct {
	// Iterations is the per-slot sample capacity: the maximum number of
	// Begin/End pairs each slot can record. Zero is legal and yields
	// empty statistics.
	Iterations int

	// SlotCount is the number of timer slots including the reserved
	// overhead slot. Defaults to DefaultSlotCount when zero.
	SlotCount int

	// Output receives TSV reports. Defaults to os.Stdout when nil.
	Output io.Writer

	// Calibrate controls whether New runs clock-overhead calibration on
	// the reserved slot before returning.
	Calibrate bool
}

// DefaultConfig returns a default registry configuration.
func DefaultConfig() Config {
	return Config{
		Iterations: 1000,
		SlotCount:  DefaultSlotCount,
		Calibrate:  true,
	}
}

// slot is one named timer with its own sample buffers and cursor.
type slot struct {
	name   string
	begins []time.Time
	ends   []time.Time
	cursor int
	armed  bool
}

// Registry is a fixed set of timer slots sharing one sample capacity.
// It is not safe for concurrent use.
type Registry struct {
	slots    []slot
	capacity int
	nextName int
	out      io.Writer
	closed   bool
}

// New creates a registry with pre-allocated sample buffers for every slot
// and reserves slot 0 for clock-overhead measurement. When cfg.Calibrate is
// set the overhead slot is populated before New returns.
func New(cfg Config) (*Registry, error) {
	if cfg.Iterations < 0 {
		return nil, fmt.Errorf("timing: iterations must be non-negative, got %d", cfg.Iterations)
	}
	slotCount := cfg.SlotCount
	if slotCount == 0 {
		slotCount = DefaultSlotCount
	}
	if slotCount < 1 {
		return nil, fmt.Errorf("timing: slot count must be at least 1, got %d", slotCount)
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	r := &Registry{
		slots:    make([]slot, slotCount),
		capacity: cfg.Iterations,
		out:      out,
	}
	for i := range r.slots {
		r.slots[i] = slot{
			name:   strconv.Itoa(i),
			begins: make([]time.Time, cfg.Iterations),
			ends:   make([]time.Time, cfg.Iterations),
		}
	}

	// Claim the reserved slot so SetName never hands out index 0.
	if _, err := r.SetName(overheadName); err != nil {
		return nil, err
	}
	if cfg.Calibrate {
		if err := r.Calibrate(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Capacity returns the per-slot sample capacity.
func (r *Registry) Capacity() int { return r.capacity }

// SlotCount returns the number of slots including the reserved one.
func (r *Registry) SlotCount() int { return len(r.slots) }

// SetName assigns label to the next free slot and returns its index. The
// label is truncated to MaxNameLen characters. The returned index is the
// only sanctioned handle for Begin/End and the statistics accessors.
func (r *Registry) SetName(label string) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if r.nextName >= len(r.slots) {
		return 0, ErrRegistryFull
	}
	if len(label) > MaxNameLen {
		label = label[:MaxNameLen]
	}
	idx := r.nextName
	r.slots[idx].name = label
	r.nextName++
	return idx, nil
}

// Begin records the current monotonic clock value as the start of the next
// interval for the given slot. It must be followed by a matching End before
// the next Begin on the same slot.
func (r *Registry) Begin(idx int) error {
	s, err := r.recordingSlot(idx)
	if err != nil {
		return err
	}
	return s.begin()
}

// End records the current monotonic clock value as the end of the open
// interval for the given slot and completes the sample.
func (r *Registry) End(idx int) error {
	s, err := r.recordingSlot(idx)
	if err != nil {
		return err
	}
	return s.end()
}

// recordingSlot validates idx for caller-driven recording. The reserved
// overhead slot is only writable through Calibrate.
func (r *Registry) recordingSlot(idx int) (*slot, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if idx == OverheadSlot {
		return nil, ErrReservedSlot
	}
	if idx < 0 || idx >= r.nextName {
		return nil, fmt.Errorf("%w: %d", ErrSlotOutOfRange, idx)
	}
	return &r.slots[idx], nil
}

// statsSlot validates idx for read access. Unlike recording, reading the
// overhead slot is allowed.
func (r *Registry) statsSlot(idx int) (*slot, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if idx < 0 || idx >= r.nextName {
		return nil, fmt.Errorf("%w: %d", ErrSlotOutOfRange, idx)
	}
	return &r.slots[idx], nil
}

func (s *slot) begin() error {
	if s.armed {
		return ErrUnpairedBegin
	}
	if s.cursor >= len(s.begins) {
		return ErrCapacityExceeded
	}
	s.begins[s.cursor] = time.Now()
	s.armed = true
	return nil
}

func (s *slot) end() error {
	if !s.armed {
		return ErrUnpairedEnd
	}
	s.ends[s.cursor] = time.Now()
	s.cursor++
	s.armed = false
	return nil
}

// interval returns the i-th recorded duration in fractional seconds.
func (s *slot) interval(i int) float64 {
	return s.ends[i].Sub(s.begins[i]).Seconds()
}

// Name returns the label of the given slot.
func (r *Registry) Name(idx int) (string, error) {
	s, err := r.statsSlot(idx)
	if err != nil {
		return "", err
	}
	return s.name, nil
}

// Count returns the number of completed Begin/End pairs for the given slot.
func (r *Registry) Count(idx int) (int, error) {
	s, err := r.statsSlot(idx)
	if err != nil {
		return 0, err
	}
	return s.cursor, nil
}

// Total returns the sum of all recorded interval durations in seconds.
func (r *Registry) Total(idx int) (float64, error) {
	s, err := r.statsSlot(idx)
	if err != nil {
		return 0, err
	}
	if s.cursor == 0 {
		return 0, ErrNoSamples
	}
	var total float64
	for i := 0; i < s.cursor; i++ {
		total += s.interval(i)
	}
	return total, nil
}

// Avg returns the mean recorded interval duration in seconds.
func (r *Registry) Avg(idx int) (float64, error) {
	s, err := r.statsSlot(idx)
	if err != nil {
		return 0, err
	}
	if s.cursor == 0 {
		return 0, ErrNoSamples
	}
	total, err := r.Total(idx)
	if err != nil {
		return 0, err
	}
	return total / float64(s.cursor), nil
}

// Max returns the largest recorded interval duration in seconds.
func (r *Registry) Max(idx int) (float64, error) {
	s, err := r.statsSlot(idx)
	if err != nil {
		return 0, err
	}
	if s.cursor == 0 {
		return 0, ErrNoSamples
	}
	max := s.interval(0)
	for i := 1; i < s.cursor; i++ {
		if v := s.interval(i); v > max {
			max = v
		}
	}
	return max, nil
}

// Min returns the smallest recorded interval duration in seconds.
func (r *Registry) Min(idx int) (float64, error) {
	s, err := r.statsSlot(idx)
	if err != nil {
		return 0, err
	}
	if s.cursor == 0 {
		return 0, ErrNoSamples
	}
	min := s.interval(0)
	for i := 1; i < s.cursor; i++ {
		if v := s.interval(i); v < min {
			min = v
		}
	}
	return min, nil
}

// Close prints the final report and releases all sample buffers. The
// overhead slot is reported first with a column header, followed by every
// slot with at least one recorded sample. After Close every operation on
// the registry returns ErrClosed.
func (r *Registry) Close() error {
	if r.closed {
		return ErrClosed
	}
	if err := r.PrintTSV(OverheadSlot, true); err != nil && !errors.Is(err, ErrNoSamples) {
		return err
	}
	for i := OverheadSlot + 1; i < r.nextName; i++ {
		if r.slots[i].cursor == 0 {
			continue
		}
		if err := r.PrintTSV(i, false); err != nil {
			return err
		}
	}
	for i := range r.slots {
		r.slots[i].begins = nil
		r.slots[i].ends = nil
	}
	r.closed = true
	return nil
}
