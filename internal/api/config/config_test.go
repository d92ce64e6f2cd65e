package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	return v
}

func TestDecode_Defaults(t *testing.T) {
	cfg, err := decode(newTestViper(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, 7, cfg.Notification.WindowDays)
	assert.Equal(t, 50, cfg.Notification.ListLimit)
	assert.Equal(t, 30, cfg.Cache.Tiers["social"].StaleTime)
	assert.Equal(t, 86400, cfg.Cache.Tiers["static"].Retention)
}

func TestDecode_OverrideTier(t *testing.T) {
	yaml := `
cache:
  driver: redis
  tiers:
    social:
      stale_time: 5
      retention: 10
`
	cfg, err := decode(newTestViper(t, yaml))
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, 5, cfg.Cache.Tiers["social"].StaleTime)
	assert.Equal(t, 10, cfg.Cache.Tiers["social"].Retention)
	assert.Equal(t, 300, cfg.Cache.Tiers["profile"].StaleTime)
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown driver", "cache:\n  driver: memcached\n"},
		{"zero window", "notification:\n  window_days: 0\n"},
		{"zero limit", "notification:\n  list_limit: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decode(newTestViper(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}
