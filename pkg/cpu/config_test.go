package cpu

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"default", func(*Config) {}, true},
		{"highest offset", func(c *Config) { c.LoadOffset = MemorySize - 1 }, true},
		{"offset below minimum", func(c *Config) { c.LoadOffset = MinLoadOffset - 2 }, false},
		{"offset past memory", func(c *Config) { c.LoadOffset = MemorySize }, false},
		{"zero delay rate", func(c *Config) { c.DelayRate = 0 }, false},
		{"negative sound rate", func(c *Config) { c.SoundRate = -1 }, false},
		{"highest rate", func(c *Config) { c.DelayRate = MaxRate }, true},
		{"delay rate without period", func(c *Config) { c.DelayRate = MaxRate + 1 }, false},
		{"sound rate without period", func(c *Config) { c.SoundRate = MaxRate + 1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestGlyphAddress(t *testing.T) {
	assert.Equal(t, uint16(0), GlyphAddress(0))
	assert.Equal(t, uint16(75), GlyphAddress(0xF))
	assert.Equal(t, uint16(5), GlyphAddress(0x21))
}
