package rebalancing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Normalize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TradeFraction = 1.7
	cfg.FeeRate = -0.5
	cfg.Interval = -time.Second
	cfg.RetryFloor = 0

	n := cfg.Normalize()
	assert.Equal(t, 1.0, n.TradeFraction)
	assert.Equal(t, 0.0, n.FeeRate)
	assert.Equal(t, time.Duration(0), n.Interval)
	assert.Equal(t, time.Second, n.RetryFloor)

	cfg.TradeFraction = -0.2
	assert.Equal(t, 0.0, cfg.Normalize().TradeFraction)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero min history", mutate: func(c *Config) { c.MinHistory = 0 }},
		{name: "limit below min history", mutate: func(c *Config) { c.HistoryLimit = 10 }},
		{name: "negative iterations", mutate: func(c *Config) { c.Iterations = -1 }},
		{name: "negative cash", mutate: func(c *Config) { c.StartCash = -5 }},
		{name: "negative min trade", mutate: func(c *Config) { c.MinAbsoluteTradeValue = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_Delays(t *testing.T) {
	cfg := DefaultConfig().Normalize()
	assert.Equal(t, 60*time.Second, cfg.cycleDelay())
	assert.Equal(t, 60*time.Second, cfg.retryDelay())

	cfg.Interval = 0
	assert.Equal(t, time.Duration(0), cfg.cycleDelay())
	assert.Equal(t, time.Second, cfg.retryDelay())

	cfg.Interval = 200 * time.Millisecond
	assert.Equal(t, time.Second, cfg.retryDelay())
}
