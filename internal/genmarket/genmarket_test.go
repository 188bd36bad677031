package genmarket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Shape(t *testing.T) {
	cfg := Defaults()
	cfg.Years = 2

	bars, err := Generate(cfg)
	require.NoError(t, err)
	require.Len(t, bars, 2*252)

	for i, b := range bars {
		assert.True(t, b.Low <= b.Open && b.Low <= b.Close, "bar %d low above open/close", i)
		assert.True(t, b.High >= b.Open && b.High >= b.Close, "bar %d high below open/close", i)
		assert.Greater(t, b.Close, 0.0, "bar %d non-positive close", i)
		if i > 0 {
			assert.True(t, bars[i].Date.After(bars[i-1].Date), "bar %d date not increasing", i)
		}
		wd := b.Date.Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)
	}

	// Consecutive bars chain open to previous close.
	assert.Equal(t, bars[0].Close, bars[1].Open)
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := Defaults()
	cfg.Years = 1
	cfg.Seed = 7

	a, err := Generate(cfg)
	require.NoError(t, err)
	b, err := Generate(cfg)
	require.NoError(t, err)

	assert.Equal(t, a, b)

	cfg.Seed = 8
	c, err := Generate(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestGenerate_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero years", func(c *Config) { c.Years = 0 }},
		{"negative level", func(c *Config) { c.InitialLevel = -1 }},
		{"negative vol", func(c *Config) { c.Volatility = -0.1 }},
		{"bad jump prob", func(c *Config) { c.JumpProb = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			_, err := Generate(cfg)
			assert.Error(t, err)
		})
	}
}
