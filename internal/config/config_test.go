package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minidb/core/internal/buffer"
)

func TestDefaultEngineConfig(t *testing.T) {
	cfg := DefaultEngineConfig("/tmp/minidb")
	require.Equal(t, "/tmp/minidb", cfg.BaseDir)
	require.Positive(t, cfg.BufferPoolCapacity)
	require.Equal(t, LRU, cfg.ReplacementPolicy)
}

func TestNewReplacementPolicySelectsByKind(t *testing.T) {
	cases := []struct {
		kind ReplacementPolicyKind
		want interface{}
	}{
		{LRU, &buffer.LRUPolicy{}},
		{Clock, &buffer.ClockPolicy{}},
		{LFU, &buffer.LFUPolicy{}},
	}
	for _, c := range cases {
		cfg := EngineConfig{ReplacementPolicy: c.kind}
		got := cfg.NewReplacementPolicy()
		require.IsType(t, c.want, got)
	}
}
