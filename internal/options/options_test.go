package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// rolloverConfig stands in for the construction-time Config structs this package actually
// configures (segment.Config, chunk.Config, reader.Config, log.Config).
type rolloverConfig struct {
	TargetSegmentSize uint64
	ChunkmapSize      uint64
	Notes             string
	LastCall          string
}

func (c *rolloverConfig) setTargetSegmentSize(n uint64) error {
	if n == 0 {
		return errors.New("target segment size must be positive")
	}
	c.TargetSegmentSize = n
	c.LastCall = "setTargetSegmentSize"
	return nil
}

func (c *rolloverConfig) setChunkmapSize(n uint64) {
	c.ChunkmapSize = n
	c.LastCall = "setChunkmapSize"
}

func (c *rolloverConfig) setNotes(notes string) {
	c.Notes = notes
	c.LastCall = "setNotes"
}

func TestNew(t *testing.T) {
	t.Run("applies a fallible option", func(t *testing.T) {
		cfg := &rolloverConfig{}
		opt := New(func(c *rolloverConfig) error { return c.setTargetSegmentSize(1 << 30) })

		require.NoError(t, opt(cfg))
		require.EqualValues(t, 1<<30, cfg.TargetSegmentSize)
		require.Equal(t, "setTargetSegmentSize", cfg.LastCall)
	})

	t.Run("propagates the wrapped function's error", func(t *testing.T) {
		cfg := &rolloverConfig{}
		opt := New(func(c *rolloverConfig) error { return c.setTargetSegmentSize(0) })

		err := opt(cfg)
		require.Error(t, err)
		require.Contains(t, err.Error(), "must be positive")
	})
}

func TestNoError(t *testing.T) {
	cfg := &rolloverConfig{}

	opt := NoError(func(c *rolloverConfig) { c.setChunkmapSize(64 * 1024) })
	require.NoError(t, opt(cfg))
	require.EqualValues(t, 64*1024, cfg.ChunkmapSize)
	require.Equal(t, "setChunkmapSize", cfg.LastCall)
}

func TestApply(t *testing.T) {
	t.Run("applies every option in order", func(t *testing.T) {
		cfg := &rolloverConfig{}
		opts := []Option[*rolloverConfig]{
			New(func(c *rolloverConfig) error { return c.setTargetSegmentSize(2 << 30) }),
			NoError(func(c *rolloverConfig) { c.setChunkmapSize(32 * 1024) }),
			NoError(func(c *rolloverConfig) { c.setNotes("case001") }),
		}

		require.NoError(t, Apply(cfg, opts...))
		require.EqualValues(t, 2<<30, cfg.TargetSegmentSize)
		require.EqualValues(t, 32*1024, cfg.ChunkmapSize)
		require.Equal(t, "case001", cfg.Notes)
		require.Equal(t, "setNotes", cfg.LastCall)
	})

	t.Run("stops at the first error, leaving later options unapplied", func(t *testing.T) {
		cfg := &rolloverConfig{}
		opts := []Option[*rolloverConfig]{
			New(func(c *rolloverConfig) error { return c.setTargetSegmentSize(1 << 20) }),
			New(func(c *rolloverConfig) error { return c.setTargetSegmentSize(0) }),
			NoError(func(c *rolloverConfig) { c.setNotes("unreachable") }),
		}

		err := Apply(cfg, opts...)
		require.Error(t, err)
		require.EqualValues(t, 1<<20, cfg.TargetSegmentSize)
		require.Empty(t, cfg.Notes)
		require.Equal(t, "setTargetSegmentSize", cfg.LastCall)
	})

	t.Run("skips nil options", func(t *testing.T) {
		cfg := &rolloverConfig{}
		opts := []Option[*rolloverConfig]{
			nil,
			NoError(func(c *rolloverConfig) { c.setNotes("with a nil entry") }),
			nil,
		}

		require.NoError(t, Apply(cfg, opts...))
		require.Equal(t, "with a nil entry", cfg.Notes)
	})

	t.Run("an empty options slice leaves the target untouched", func(t *testing.T) {
		cfg := &rolloverConfig{}
		require.NoError(t, Apply(cfg))
		require.Zero(t, *cfg)
	})
}

// TestGenericsAcrossTypes confirms Option[T] composes for a type with no relation to
// rolloverConfig, since every package in this module instantiates it with its own Config.
func TestGenericsAcrossTypes(t *testing.T) {
	var level int
	opt := NoError(func(n *int) { *n = 3 })
	require.NoError(t, opt(&level))
	require.Equal(t, 3, level)
}
