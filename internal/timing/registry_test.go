package timing

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, iterations int) *Registry {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Iterations = iterations
	cfg.Output = &bytes.Buffer{}
	r, err := New(cfg)
	require.NoError(t, err)
	return r
}

func TestNewCalibratesOverheadSlot(t *testing.T) {
	r := newTestRegistry(t, 50)

	assert.Equal(t, 50, r.Capacity())
	assert.Equal(t, DefaultSlotCount, r.SlotCount())

	name, err := r.Name(OverheadSlot)
	require.NoError(t, err)
	assert.Equal(t, "clock", name)

	count, err := r.Count(OverheadSlot)
	require.NoError(t, err)
	assert.Equal(t, 50, count)

	// The baseline must consist of valid, non-negative intervals.
	min, err := r.Min(OverheadSlot)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, min, 0.0)
}

func TestNewWithoutCalibration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 10
	cfg.Calibrate = false
	cfg.Output = &bytes.Buffer{}
	r, err := New(cfg)
	require.NoError(t, err)

	count, err := r.Count(OverheadSlot)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Slot 0 stays reserved even when calibration is skipped.
	idx, err := r.SetName("work")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestNewRejectsNegativeIterations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = -1
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestZeroCapacityIsLegal(t *testing.T) {
	r := newTestRegistry(t, 0)

	_, err := r.Min(OverheadSlot)
	assert.ErrorIs(t, err, ErrNoSamples)

	idx, err := r.SetName("empty")
	require.NoError(t, err)
	assert.ErrorIs(t, r.Begin(idx), ErrCapacityExceeded)
}

func TestSetNameIssuesIncreasingIndices(t *testing.T) {
	r := newTestRegistry(t, 1)

	a, err := r.SetName("A")
	require.NoError(t, err)
	b, err := r.SetName("B")
	require.NoError(t, err)
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)

	nameA, err := r.Name(a)
	require.NoError(t, err)
	assert.Equal(t, "A", nameA)
}

func TestSetNameTruncatesLongLabels(t *testing.T) {
	r := newTestRegistry(t, 1)

	idx, err := r.SetName("detection-stage")
	require.NoError(t, err)

	name, err := r.Name(idx)
	require.NoError(t, err)
	assert.Equal(t, "detecti", name)
	assert.Len(t, name, MaxNameLen)
}

func TestSetNameFailsWhenSlotsExhausted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Iterations = 1
	cfg.SlotCount = 2
	cfg.Output = &bytes.Buffer{}
	r, err := New(cfg)
	require.NoError(t, err)

	_, err = r.SetName("only")
	require.NoError(t, err)
	_, err = r.SetName("extra")
	assert.ErrorIs(t, err, ErrRegistryFull)
}

func TestRecordedIntervalsAreNonNegative(t *testing.T) {
	r := newTestRegistry(t, 10)
	idx, err := r.SetName("work")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, r.Begin(idx))
		require.NoError(t, r.End(idx))
	}

	min, err := r.Min(idx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, min, 0.0)
}

func TestStatisticsIdentities(t *testing.T) {
	r := newTestRegistry(t, 3)
	idx, err := r.SetName("X")
	require.NoError(t, err)

	delays := []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		30 * time.Millisecond,
	}
	for _, d := range delays {
		require.NoError(t, r.Begin(idx))
		time.Sleep(d)
		require.NoError(t, r.End(idx))
	}

	min, err := r.Min(idx)
	require.NoError(t, err)
	max, err := r.Max(idx)
	require.NoError(t, err)
	avg, err := r.Avg(idx)
	require.NoError(t, err)
	total, err := r.Total(idx)
	require.NoError(t, err)

	// Sleeps can overshoot under load but never undershoot.
	assert.GreaterOrEqual(t, min, 0.010)
	assert.GreaterOrEqual(t, max, 0.030)
	assert.GreaterOrEqual(t, total, 0.060)
	assert.LessOrEqual(t, max, 1.0, "30ms sleep took implausibly long")

	assert.LessOrEqual(t, min, avg)
	assert.LessOrEqual(t, avg, max)
	assert.InEpsilon(t, total/3, avg, 1e-12)

	count, err := r.Count(idx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCapacityBoundary(t *testing.T) {
	const k = 4
	r := newTestRegistry(t, k)
	idx, err := r.SetName("bound")
	require.NoError(t, err)

	for i := 0; i < k; i++ {
		require.NoError(t, r.Begin(idx))
		require.NoError(t, r.End(idx))
	}
	assert.ErrorIs(t, r.Begin(idx), ErrCapacityExceeded)

	count, err := r.Count(idx)
	require.NoError(t, err)
	assert.Equal(t, k, count)
}

func TestUnpairedCallsAreRejected(t *testing.T) {
	r := newTestRegistry(t, 2)
	idx, err := r.SetName("pair")
	require.NoError(t, err)

	assert.ErrorIs(t, r.End(idx), ErrUnpairedEnd)

	require.NoError(t, r.Begin(idx))
	assert.ErrorIs(t, r.Begin(idx), ErrUnpairedBegin)

	require.NoError(t, r.End(idx))
	assert.ErrorIs(t, r.End(idx), ErrUnpairedEnd)
}

func TestOverheadSlotRejectsCallerRecording(t *testing.T) {
	r := newTestRegistry(t, 2)
	assert.ErrorIs(t, r.Begin(OverheadSlot), ErrReservedSlot)
	assert.ErrorIs(t, r.End(OverheadSlot), ErrReservedSlot)
}

func TestUnissuedIndicesAreRejected(t *testing.T) {
	r := newTestRegistry(t, 2)

	assert.ErrorIs(t, r.Begin(1), ErrSlotOutOfRange)
	assert.ErrorIs(t, r.Begin(-1), ErrSlotOutOfRange)
	assert.ErrorIs(t, r.Begin(99), ErrSlotOutOfRange)

	_, err := r.Total(1)
	assert.ErrorIs(t, err, ErrSlotOutOfRange)
}

func TestEmptySlotStatistics(t *testing.T) {
	r := newTestRegistry(t, 2)
	idx, err := r.SetName("unused")
	require.NoError(t, err)

	_, err = r.Total(idx)
	assert.ErrorIs(t, err, ErrNoSamples)
	_, err = r.Avg(idx)
	assert.ErrorIs(t, err, ErrNoSamples)
	_, err = r.Max(idx)
	assert.ErrorIs(t, err, ErrNoSamples)
	_, err = r.Min(idx)
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestCalibrateRerunResetsBaseline(t *testing.T) {
	r := newTestRegistry(t, 20)

	count, err := r.Count(OverheadSlot)
	require.NoError(t, err)
	require.Equal(t, 20, count)

	require.NoError(t, r.Calibrate())
	count, err = r.Count(OverheadSlot)
	require.NoError(t, err)
	assert.Equal(t, 20, count)
}

func TestCloseReportsAndPoisons(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Iterations = 5
	cfg.Output = &buf
	r, err := New(cfg)
	require.NoError(t, err)

	used, err := r.SetName("used")
	require.NoError(t, err)
	_, err = r.SetName("idle")
	require.NoError(t, err)

	require.NoError(t, r.Begin(used))
	require.NoError(t, r.End(used))

	require.NoError(t, r.Close())

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3, "header, clock baseline, one used slot")
	assert.Equal(t, 1, strings.Count(out, "Timer \tMin \tMax \tAvg \tTtl"))
	assert.True(t, strings.HasPrefix(lines[1], "clock "))
	assert.True(t, strings.HasPrefix(lines[2], "used "))
	assert.NotContains(t, out, "idle")

	// Every operation fails after Close.
	assert.ErrorIs(t, r.Begin(used), ErrClosed)
	assert.ErrorIs(t, r.End(used), ErrClosed)
	assert.ErrorIs(t, r.Calibrate(), ErrClosed)
	_, err = r.SetName("late")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = r.Total(used)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, r.Close(), ErrClosed)
}

func TestCloseWithZeroCapacityStillPrintsHeader(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Iterations = 0
	cfg.Output = &buf
	r, err := New(cfg)
	require.NoError(t, err)

	require.NoError(t, r.Close())
	assert.Equal(t, tsvHeader, buf.String())
}
