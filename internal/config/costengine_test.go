package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCostEngineConfigDefaultsWhenFileMissing(t *testing.T) {
	holder, err := NewCostEngineConfigHolder(Config{CostEngineConfigPath: filepath.Join(t.TempDir(), "missing.yml")})
	require.NoError(t, err)
	assert.Equal(t, DefaultCostEngineConfig(), holder.Get())
}

func TestCostEngineConfigOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "costengine.yml")
	body := []byte(`cost_engine:
  calculation_number_prefix: FM
  rate_bounds:
    labor:
      min: 1
      max: 500
    electricity:
      min: 0
      max: 2
    overhead:
      min: 0
      max: 0.5
      allow_min: true
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))

	holder, err := NewCostEngineConfigHolder(Config{CostEngineConfigPath: path})
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, "FM", cfg.CalculationNumberPrefix)
	assert.Equal(t, 500.0, cfg.RateBounds["labor"].Max)
	assert.Equal(t, 1.0, cfg.RateBounds["labor"].Min)
	assert.True(t, cfg.RateBounds["overhead"].AllowMin)
}

func TestValidateCostEngineConfigRejectsInvertedBounds(t *testing.T) {
	cfg := DefaultCostEngineConfig()
	cfg.RateBounds["labor"] = RateBound{Min: 10, Max: 5}
	assert.Error(t, validateCostEngineConfig(cfg))

	cfg = DefaultCostEngineConfig()
	delete(cfg.RateBounds, "overhead")
	assert.Error(t, validateCostEngineConfig(cfg))
}
