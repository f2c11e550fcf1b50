package testutil

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/lepinkainen/lcsc-lookup/internal/config"
)

// ResetConfig resets viper to the package defaults and schedules another
// reset when the test completes.
func ResetConfig(t *testing.T) {
	t.Helper()

	viper.Reset()
	config.SetDefaults()

	t.Cleanup(viper.Reset)
}

// SetTestConfig sets up a test configuration suited to fast, deterministic
// runs against a stub catalog: no stagger, no progress output.
func SetTestConfig(t *testing.T) {
	t.Helper()
	SetTestConfigWithOptions(t)
}

// SetTestConfigOption is a functional option for configuring test config.
type SetTestConfigOption func(map[string]any)

// WithConfigValue overrides a single configuration key.
func WithConfigValue(key string, value any) SetTestConfigOption {
	return func(values map[string]any) {
		values[key] = value
	}
}

// WithEndpoint points the catalog client at url.
func WithEndpoint(url string) SetTestConfigOption {
	return WithConfigValue(config.KeyEndpoint, url)
}

// WithWorkers sets the batch worker count.
func WithWorkers(n int) SetTestConfigOption {
	return WithConfigValue(config.KeyWorkers, n)
}

// SetTestConfigWithOptions sets up a test configuration with custom options.
// Viper is reset when the test completes.
func SetTestConfigWithOptions(t *testing.T, opts ...SetTestConfigOption) {
	t.Helper()

	ResetConfig(t)

	values := map[string]any{
		config.KeyStagger:  "0s",
		config.KeyProgress: false,
		config.KeyTimeout:  "5s",
	}
	for _, opt := range opts {
		opt(values)
	}

	for key, value := range values {
		viper.Set(key, value)
	}
}

// SetViperValue sets a viper configuration value and schedules cleanup.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)

	viper.Set(key, value)

	t.Cleanup(func() {
		if hadValue {
			viper.Set(key, oldValue)
		}
		// viper has no Unset, so an unset key cannot be restored.
	})
}
