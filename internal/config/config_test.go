package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 100, cfg.Bench.Iterations)
	assert.Equal(t, "text", cfg.Bench.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "loud"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}

func TestValidateRejectsNegativeIterations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bench.Iterations = -5
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.Iterations = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bench.Format = "xml"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")
}

func TestValidateRejectsBadPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := DefaultConfig()
		cfg.Server.Port = port
		assert.Error(t, cfg.Validate(), "port %d", port)
	}
}

func TestValidateRejectsUnknownWorkload(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bench.Workloads = "sleep,warp"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warp")
}

func TestValidateRejectsLowRefresh(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.RefreshSec = 0
	assert.Error(t, cfg.Validate())
}

func TestWorkloadNames(t *testing.T) {
	assert.Equal(t, []string{"alloc", "hash", "sleep", "spin"}, WorkloadNames(""))
	assert.Equal(t, []string{"sleep", "hash"}, WorkloadNames("sleep, hash"))
	assert.Equal(t, []string{"spin"}, WorkloadNames("spin,"))
}
