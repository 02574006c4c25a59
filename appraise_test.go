package appraise_test

import (
	"context"
	stdio "io"
	"log/slog"
	"math"
	"testing"

	"github.com/paveg/appraise"
	"github.com/paveg/appraise/internal/config"
	pipeerrors "github.com/paveg/appraise/internal/errors"
	"github.com/paveg/appraise/internal/interactive"
	"github.com/paveg/appraise/internal/profile"
	"github.com/paveg/appraise/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(stdio.Discard, nil))
}

// smallConfig keeps the searches cheap enough for unit tests.
func smallConfig(profileName, dataset string) config.Config {
	cfg := config.NewConfig()
	cfg.Profile = profileName
	cfg.Dataset = dataset
	cfg.Folds = 3
	cfg.SearchIterations = 2
	cfg.WorkerPoolSize = 2
	cfg.Grids = map[string]map[string][]float64{
		"random_forest": {
			"n_estimators": {8, 12},
			"max_depth":    {4, 8},
		},
		"gradient_boosting": {
			"n_estimators":  {30},
			"max_depth":     {3},
			"learning_rate": {0.1, 0.3},
		},
	}
	return cfg
}

func newPipeline(t *testing.T, cfg config.Config) *appraise.Pipeline {
	t.Helper()
	p, err := appraise.New(cfg, appraise.WithLogger(quietLogger()))
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func trainAC(t *testing.T, opts ...testutil.DatasetOption) *appraise.Model {
	t.Helper()
	path := testutil.WriteACDataset(t, append([]testutil.DatasetOption{testutil.WithRows(100)}, opts...)...)
	model, err := newPipeline(t, smallConfig(profile.AirConditioner, path)).Train(t.Context())
	require.NoError(t, err)
	return model
}

func TestTrainAirConditioner(t *testing.T) {
	model := trainAC(t, testutil.WithNulls())
	report := model.Report()

	assert.Equal(t, profile.AirConditioner, report.Profile)
	assert.Equal(t, "utf-8", report.Encoding)
	assert.Equal(t, 100, report.Rows)
	assert.Equal(t, 20, report.TestRows)
	assert.Equal(t, 80, report.TrainRows)
	assert.NotEmpty(t, report.RunID)
	assert.NotZero(t, report.Checksum)
	assert.NotZero(t, report.Fingerprint)

	require.Len(t, report.Searches, 2)
	assert.Equal(t, "RandomForest", report.Searches[0].Label)
	assert.Equal(t, "XGBoost", report.Searches[1].Label)
	for _, s := range report.Searches {
		assert.Len(t, s.Result.Candidates, 2)
		assert.False(t, math.IsNaN(s.Result.BestScore))
	}

	assert.Greater(t, report.Test.R2, 0.5)
	assert.Contains(t, report.MemberTest, "RandomForest")
	assert.Contains(t, report.MemberTest, "XGBoost")
	assert.Contains(t, report.String(), "Voting Regressor R² on test set:")

	var stages []string
	for _, s := range report.Stages {
		stages = append(stages, s.Stage)
	}
	assert.Equal(t, []string{
		appraise.StageLoad, appraise.StageClean, appraise.StageEncode, appraise.StageSplit,
		appraise.StageSearch + ":random_forest", appraise.StageSearch + ":gradient_boosting",
		appraise.StageEnsemble, appraise.StageEvaluate,
	}, stages)
}

func TestTrainDeterministic(t *testing.T) {
	path := testutil.WriteACDataset(t, testutil.WithRows(100))
	cfg := smallConfig(profile.AirConditioner, path)

	first, err := newPipeline(t, cfg).Train(t.Context())
	require.NoError(t, err)
	second, err := newPipeline(t, cfg).Train(t.Context())
	require.NoError(t, err)

	assert.InDelta(t, first.Report().Test.R2, second.Report().Test.R2, 1e-12)
	for i := range first.Report().Searches {
		assert.Equal(t, first.Report().Searches[i].Result.BestParams, second.Report().Searches[i].Result.BestParams)
	}
	assert.NotEqual(t, first.Report().RunID, second.Report().RunID)
}

func TestModelPredict(t *testing.T) {
	model := trainAC(t)

	record := map[string]string{
		"Power_Consumption": "1500 W",
		"Noise_level":       "40 dB",
		"Refrigerant":       "R-32 Refrigerant",
		"Condenser_Coil":    "Copper",
	}
	price, err := model.Predict(record)
	require.NoError(t, err)
	assert.Greater(t, price, 0.0)

	again, err := model.Predict(record)
	require.NoError(t, err)
	assert.InDelta(t, price, again, 1e-9)

	t.Run("unseen level still predicts", func(t *testing.T) {
		rec := map[string]string{
			"Power_Consumption": "1500 W",
			"Noise_level":       "40 dB",
			"Refrigerant":       "R-22",
			"Condenser_Coil":    "Steel",
		}
		_, err := model.Predict(rec)
		require.NoError(t, err)
	})

	t.Run("missing numeric value cannot be imputed from one row", func(t *testing.T) {
		rec := map[string]string{
			"Noise_level":    "40 dB",
			"Refrigerant":    "R410a",
			"Condenser_Coil": "Copper",
		}
		_, err := model.Predict(rec)
		require.ErrorIs(t, err, pipeerrors.ErrInsufficientData)
	})
}

func TestModelSession(t *testing.T) {
	model := trainAC(t)

	session, err := model.NewSession()
	require.NoError(t, err)

	var names []string
	for _, f := range session.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Power_Consumption", "Noise_level", "Refrigerant", "Condenser_Coil"}, names)

	power := session.Fields()[0]
	require.Len(t, power.Options, 3)
	assert.Equal(t, []string{"Low", "Medium", "High"}, power.Labels())

	for _, f := range session.Fields() {
		require.NoError(t, session.Select(f.Name, f.Options[len(f.Options)-1].Label))
	}
	assert.Equal(t, interactive.Complete, session.State())

	record := session.Record()
	price, err := session.Submit()
	require.NoError(t, err)
	direct, err := model.Predict(record)
	require.NoError(t, err)
	assert.InDelta(t, direct, price, 1e-9)
}

func TestTrainSmartTV(t *testing.T) {
	path := testutil.WriteTVDataset(t, testutil.WithRows(90), testutil.WithLatin1(), testutil.WithNulls())
	model, err := newPipeline(t, smallConfig(profile.SmartTV, path)).Train(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "latin-1", model.Report().Encoding)

	session, err := model.NewSession()
	require.NoError(t, err)

	// Every offered choice must map back to its own level.
	for _, f := range session.Fields() {
		for _, o := range f.Options {
			require.NoError(t, session.Select(f.Name, o.Label))
		}
	}
	_, err = session.Submit()
	require.NoError(t, err)

	var speaker interactive.Field
	for _, f := range session.Fields() {
		if f.Name == "TV_Speaker_Output_Category" {
			speaker = f
		}
	}
	require.Equal(t, "Speaker", speaker.Column)
	assert.Subset(t, []string{"10-30W", "30-60W", "60-90W", "90+W"}, speaker.Labels())
}

func TestPipelineErrors(t *testing.T) {
	t.Run("unknown profile", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.Profile = "washing_machine"
		_, err := appraise.New(cfg)
		require.ErrorIs(t, err, pipeerrors.ErrConfig)
	})

	t.Run("grid for unknown family", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.Grids = map[string]map[string][]float64{"svm": {"c": {1}}}
		_, err := appraise.New(cfg)
		require.ErrorIs(t, err, pipeerrors.ErrConfig)
	})

	t.Run("unknown hyperparameter", func(t *testing.T) {
		cfg := smallConfig(profile.AirConditioner, testutil.WriteACDataset(t, testutil.WithRows(30)))
		cfg.Grids["random_forest"] = map[string][]float64{"gamma": {1}}
		_, err := newPipeline(t, cfg).Train(t.Context())
		require.ErrorIs(t, err, pipeerrors.ErrConfig)
	})

	t.Run("dataset not set", func(t *testing.T) {
		_, err := newPipeline(t, config.NewConfig()).Train(t.Context())
		require.ErrorIs(t, err, pipeerrors.ErrConfig)
	})

	t.Run("missing target column", func(t *testing.T) {
		header := testutil.ACColumns[:len(testutil.ACColumns)-1]
		rows := testutil.ACRecords(testutil.WithRows(20))
		for i := range rows {
			rows[i] = rows[i][:len(header)]
		}
		path := testutil.WriteCSV(t, "no_price.csv", header, rows)

		_, err := newPipeline(t, smallConfig(profile.AirConditioner, path)).Train(t.Context())
		require.ErrorIs(t, err, pipeerrors.ErrSchema)
		var perr *pipeerrors.PipelineError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "Price", perr.Column)
	})

	t.Run("too few rows", func(t *testing.T) {
		path := testutil.WriteACDataset(t, testutil.WithRows(3))
		_, err := newPipeline(t, smallConfig(profile.AirConditioner, path)).Train(t.Context())
		require.ErrorIs(t, err, pipeerrors.ErrInsufficientData)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		path := testutil.WriteACDataset(t, testutil.WithRows(40))
		_, err := newPipeline(t, smallConfig(profile.AirConditioner, path)).Train(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestPipelineKeepsZeroSeed(t *testing.T) {
	cfg := smallConfig(profile.AirConditioner, "ac.csv")
	cfg.Seed = 0
	assert.Equal(t, int64(0), newPipeline(t, cfg).Config().Seed)
}

func TestPipelineClean(t *testing.T) {
	path := testutil.WriteACDataset(t, testutil.WithRows(25), testutil.WithNulls())
	p := newPipeline(t, smallConfig(profile.AirConditioner, path))

	cleaned, err := p.Clean()
	require.NoError(t, err)
	defer cleaned.Release()

	assert.Equal(t, 25, cleaned.Len())
	power, ok := cleaned.Column("Power_Consumption")
	require.True(t, ok)
	assert.Zero(t, power.NullN())
	assert.Equal(t, "float64", power.DataType().Name())
}
