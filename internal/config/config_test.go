package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paveg/appraise/internal/config"
	"github.com/paveg/appraise/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DefaultValues(t *testing.T) {
	c := config.NewConfig()

	assert.Equal(t, "ac", c.Profile)
	assert.Equal(t, ",", c.Delimiter)
	assert.Equal(t, int64(42), c.Seed)
	assert.InDelta(t, 0.2, c.TestFraction, 1e-12)
	assert.Equal(t, 5, c.Folds)
	assert.Equal(t, 0, c.WorkerPoolSize)
	assert.True(t, c.MetricsCollection)
	assert.False(t, c.VerboseLogging)
	assert.NoError(t, c.Validate())
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"empty profile", func(c *config.Config) { c.Profile = "" }},
		{"long delimiter", func(c *config.Config) { c.Delimiter = ";;" }},
		{"test fraction one", func(c *config.Config) { c.TestFraction = 1 }},
		{"single fold", func(c *config.Config) { c.Folds = 1 }},
		{"negative iterations", func(c *config.Config) { c.SearchIterations = -1 }},
		{"negative pool", func(c *config.Config) { c.WorkerPoolSize = -2 }},
		{"empty grid values", func(c *config.Config) {
			c.Grids = map[string]map[string][]float64{"random_forest": {"max_depth": {}}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.NewConfig()
			tt.modify(&c)
			assert.ErrorIs(t, c.Validate(), errors.ErrConfig)
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	c := config.Config{Dataset: "ac.csv", Folds: 3}.WithDefaults()
	assert.Equal(t, "ac", c.Profile)
	assert.Equal(t, 3, c.Folds)
	assert.Equal(t, int64(0), c.Seed, "seed 0 is kept")
	assert.False(t, c.MetricsCollection, "booleans keep their explicit value")
	assert.Equal(t, ';', config.Config{Delimiter: ";"}.DelimiterRune())
}

func TestLoadFormats(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`profile: smart_tv
dataset: data/TELEVISION.csv
seed: 7
grids:
  random_forest:
    n_estimators: [10, 20]
`), 0o600))
	c, err := config.Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "smart_tv", c.Profile)
	assert.Equal(t, int64(7), c.Seed)
	assert.Equal(t, []float64{10, 20}, c.Grids["random_forest"]["n_estimators"])
	assert.Equal(t, 5, c.Folds)

	jsonPath := filepath.Join(dir, "run.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"folds": 3, "verbose_logging": true}`), 0o600))
	c, err = config.Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Folds)
	assert.True(t, c.VerboseLogging)
	assert.Equal(t, int64(config.DefaultSeed), c.Seed)

	zeroPath := filepath.Join(dir, "zero.yaml")
	require.NoError(t, os.WriteFile(zeroPath, []byte("seed: 0\n"), 0o600))
	c, err = config.Load(zeroPath)
	require.NoError(t, err)
	assert.Equal(t, int64(0), c.Seed, "seed 0 is a valid choice")
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("APPRAISE_PROFILE", "smart_tv")
	t.Setenv("APPRAISE_FOLDS", "4")
	t.Setenv("APPRAISE_METRICS_COLLECTION", "false")

	c, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "smart_tv", c.Profile)
	assert.Equal(t, 4, c.Folds)
	assert.False(t, c.MetricsCollection)

	t.Setenv("APPRAISE_SEED", "not-a-number")
	_, err = config.Load("")
	assert.Error(t, err)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appraise.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 7\nfolds: 3\ndataset: from-file.csv\n"), 0o600))
	t.Setenv("APPRAISE_FOLDS", "4")

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.Seed, "file beats defaults")
	assert.Equal(t, 4, c.Folds, "env beats file")
	assert.Equal(t, "from-file.csv", c.Dataset)
	assert.Equal(t, "ac", c.Profile)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("folds: 1\n"), 0o600))
	_, err := config.Load(path)
	assert.ErrorIs(t, err, errors.ErrConfig)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	c := config.NewConfig()
	c.Dataset = "Data/Washingmachine.csv"
	c.Encodings = []string{"utf-8", "latin-1"}
	c.Grids = map[string]map[string][]float64{"gradient_boosting": {"max_depth": {3, 5}}}

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, config.Save(c, path))

	back, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestConfig_SystemInfo(t *testing.T) {
	info := config.GetSystemInfo()
	assert.Positive(t, info.CPUCount)
	assert.NotEmpty(t, info.Architecture)
	assert.NotEmpty(t, info.OSType)
}

func TestConfigValidator(t *testing.T) {
	v := config.NewConfigValidatorFor(config.SystemInfo{CPUCount: 8, PhysicalCores: 4})

	got, warnings, err := v.Validate(config.NewConfig())
	require.NoError(t, err)
	assert.Equal(t, 4, got.WorkerPoolSize)
	assert.NotEmpty(t, warnings)

	c := config.NewConfig()
	c.WorkerPoolSize = 32
	_, warnings, err = v.Validate(c)
	require.NoError(t, err)
	assert.Contains(t, warnings[0], "exceeds 2x CPU count")

	noCores := config.NewConfigValidatorFor(config.SystemInfo{CPUCount: 6})
	got, _, err = noCores.Validate(config.NewConfig())
	require.NoError(t, err)
	assert.Equal(t, 6, got.WorkerPoolSize)

	bad := config.NewConfig()
	bad.Folds = 0
	_, _, err = v.Validate(bad)
	assert.ErrorIs(t, err, errors.ErrConfig)
}
