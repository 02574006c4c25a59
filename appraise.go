// Package appraise trains price estimators for appliance catalogues and
// answers single-record predictions.
//
// A Pipeline loads a delimited or Parquet dataset, cleans it with the rules
// of a built-in profile, one-hot encodes the features, tunes a random forest
// and a gradient boosting regressor by randomized search with k-fold
// cross-validation and averages the tuned models into a voting ensemble:
//
//	cfg := config.NewConfig()
//	cfg.Dataset = "ac_data.csv"
//	p, err := appraise.New(cfg)
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//	model, err := p.Train(ctx)
//
// The resulting Model is immutable and safe for concurrent Predict calls.
package appraise

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"
	"github.com/paveg/appraise/internal/clean"
	"github.com/paveg/appraise/internal/config"
	"github.com/paveg/appraise/internal/dataframe"
	"github.com/paveg/appraise/internal/encode"
	"github.com/paveg/appraise/internal/ensemble"
	"github.com/paveg/appraise/internal/errors"
	"github.com/paveg/appraise/internal/estimator"
	"github.com/paveg/appraise/internal/io"
	"github.com/paveg/appraise/internal/metrics"
	"github.com/paveg/appraise/internal/monitoring"
	"github.com/paveg/appraise/internal/parallel"
	"github.com/paveg/appraise/internal/profile"
	"github.com/paveg/appraise/internal/selection"
	"github.com/paveg/appraise/internal/validation"
	"gonum.org/v1/gonum/mat"
)

// Stage names recorded by the metrics collector.
const (
	StageLoad     = "load"
	StageClean    = "clean"
	StageEncode   = "encode"
	StageSplit    = "split"
	StageSearch   = "search"
	StageEnsemble = "ensemble"
	StageEvaluate = "evaluate"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithWorkerPool runs forest fitting and cross-validation on pool. The
// pipeline does not close a pool it was given.
func WithWorkerPool(pool *parallel.WorkerPool) Option {
	return func(p *Pipeline) { p.pool = pool }
}

// WithAllocator sets the Arrow allocator backing loaded and cleaned tables.
func WithAllocator(mem memory.Allocator) Option {
	return func(p *Pipeline) { p.mem = mem }
}

// WithMetricsCollector records stage timings into collector instead of a
// collector owned by the pipeline.
func WithMetricsCollector(collector *monitoring.MetricsCollector) Option {
	return func(p *Pipeline) { p.collector = collector }
}

// Pipeline trains models for one configuration.
type Pipeline struct {
	cfg       config.Config
	profile   profile.Profile
	logger    *slog.Logger
	pool      *parallel.WorkerPool
	ownPool   bool
	mem       memory.Allocator
	collector *monitoring.MetricsCollector
	registry  *estimator.Registry
	cleaner   *clean.Cleaner
}

// New validates cfg, resolves its profile and grid overrides, and prepares
// the worker pool.
func New(cfg config.Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{logger: slog.Default(), mem: memory.NewGoAllocator()}
	for _, opt := range opts {
		opt(p)
	}

	validated, warnings, err := config.NewConfigValidator().Validate(cfg.WithDefaults())
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		p.logger.Debug(w)
	}
	p.cfg = validated

	prof, err := profile.Get(p.cfg.Profile)
	if err != nil {
		return nil, err
	}
	for family, grid := range p.cfg.Grids {
		prof, err = prof.WithGrid(family, selection.Grid(grid))
		if err != nil {
			return nil, err
		}
	}
	if err := prof.Validate(); err != nil {
		return nil, err
	}
	p.profile = prof

	p.cleaner, err = clean.New(prof.Schema, clean.WithAllocator(p.mem), clean.WithLogger(p.logger))
	if err != nil {
		return nil, err
	}

	if p.pool == nil {
		p.pool = parallel.NewWorkerPool(p.cfg.WorkerPoolSize)
		p.ownPool = true
	}
	if p.collector == nil {
		p.collector = monitoring.NewMetricsCollector(p.cfg.MetricsCollection)
	}
	p.registry = estimator.NewRegistry(p.pool)
	return p, nil
}

// Config returns the validated configuration.
func (p *Pipeline) Config() config.Config {
	return p.cfg
}

// Profile returns the resolved profile name and title.
func (p *Pipeline) Profile() (name, title string) {
	return p.profile.Name, p.profile.Title
}

// Metrics returns the collector holding stage timings.
func (p *Pipeline) Metrics() *monitoring.MetricsCollector {
	return p.collector
}

// Close releases the worker pool if the pipeline created it.
func (p *Pipeline) Close() {
	if p.ownPool {
		p.pool.Close()
	}
}

// Load reads the configured dataset with the configured, or else the
// profile's, encoding order.
func (p *Pipeline) Load() (*io.LoadResult, error) {
	if p.cfg.Dataset == "" {
		return nil, errors.NewConfigError("Load", "dataset path is not set")
	}
	encodings := p.cfg.Encodings
	if len(encodings) == 0 {
		encodings = p.profile.Encodings
	}
	csvOpts := io.DefaultCSVOptions()
	csvOpts.Delimiter = p.cfg.DelimiterRune()

	res, err := io.Load(p.cfg.Dataset, io.LoadOptions{
		Encodings: encodings,
		CSV:       csvOpts,
		Allocator: p.mem,
	})
	if err != nil {
		return nil, err
	}
	p.logger.Info(res.Status, "path", p.cfg.Dataset, "rows", res.Table.Len(), "checksum", fmt.Sprintf("%016x", res.Checksum))
	return res, nil
}

// Clean loads the dataset and applies the training cleaning rules. The
// caller releases the result.
func (p *Pipeline) Clean() (*dataframe.DataFrame, error) {
	res, err := p.Load()
	if err != nil {
		return nil, err
	}
	defer res.Table.Release()
	return p.cleaner.Clean(res.Table, clean.Training)
}

// Train runs every stage and returns the fitted model. Stage timings are
// recorded and logged whether or not training succeeds.
func (p *Pipeline) Train(ctx context.Context) (*Model, error) {
	runID := uuid.New()
	logger := p.logger.With("run_id", runID.String(), "profile", p.profile.Name)
	started := time.Now()
	p.collector.Clear()
	defer p.collector.LogSummary(logger)

	report := &Report{
		RunID:   runID.String(),
		Profile: p.profile.Name,
		Title:   p.profile.Title,
		Dataset: p.cfg.Dataset,
		Seed:    p.cfg.Seed,
	}

	var loaded *io.LoadResult
	err := p.collector.RecordStage(StageLoad, func() (int, error) {
		var err error
		loaded, err = p.Load()
		if err != nil {
			return 0, err
		}
		return loaded.Table.Len(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	defer loaded.Table.Release()
	report.Encoding = loaded.Encoding
	report.Checksum = loaded.Checksum

	// One test row and one row per fold at the very least.
	if err := validation.NewCompoundValidator(
		validation.NewColumnValidator(loaded.Table, "Train", p.cleaner.Schema().Required(clean.Training)...),
		validation.NewMinRowsValidator(loaded.Table, p.cfg.Folds+1, "Train"),
	).Validate(); err != nil {
		return nil, err
	}

	var cleaned *dataframe.DataFrame
	err = p.collector.RecordStage(StageClean, func() (int, error) {
		var err error
		cleaned, err = p.cleaner.Clean(loaded.Table, clean.Training)
		if err != nil {
			return 0, err
		}
		return cleaned.Len(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleaning dataset: %w", err)
	}
	defer cleaned.Release()

	var (
		enc *encode.Encoder
		X   *mat.Dense
		y   []float64
	)
	err = p.collector.RecordStage(StageEncode, func() (int, error) {
		var err error
		enc, X, y, err = encode.Fit(cleaned, p.profile.Features)
		if err != nil {
			return 0, err
		}
		return len(y), nil
	})
	if err != nil {
		return nil, fmt.Errorf("encoding features: %w", err)
	}
	report.Rows = len(y)
	report.Features = enc.FeatureNames()
	report.Fingerprint = enc.Fingerprint()
	logger.Debug("encoded features", "width", enc.Width(), "fingerprint", fmt.Sprintf("%016x", enc.Fingerprint()))

	var trainIdx, testIdx []int
	err = p.collector.RecordStage(StageSplit, func() (int, error) {
		var err error
		trainIdx, testIdx, err = selection.TrainTestSplit(len(y), p.cfg.TestFraction, p.cfg.Seed)
		return len(y), err
	})
	if err != nil {
		return nil, fmt.Errorf("splitting dataset: %w", err)
	}
	Xtrain, ytrain := selection.Rows(X, trainIdx), selection.Values(y, trainIdx)
	Xtest, ytest := selection.Rows(X, testIdx), selection.Values(y, testIdx)
	report.TrainRows, report.TestRows = len(trainIdx), len(testIdx)

	members := make([]ensemble.Member, 0, len(p.profile.Searches))
	for _, fs := range p.profile.Searches {
		member, result, err := p.search(ctx, logger, fs, Xtrain, ytrain)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
		report.Searches = append(report.Searches, SearchReport{Label: fs.Label, Result: *result})
	}

	var voting *ensemble.Voting
	err = p.collector.RecordStage(StageEnsemble, func() (int, error) {
		var err error
		voting, err = ensemble.NewVoting(members...)
		if err != nil {
			return 0, err
		}
		return len(ytrain), voting.FitContext(ctx, Xtrain, ytrain)
	})
	if err != nil {
		return nil, fmt.Errorf("fitting ensemble: %w", err)
	}

	err = p.collector.RecordStage(StageEvaluate, func() (int, error) {
		return len(ytest), p.evaluate(voting, Xtest, ytest, report)
	})
	if err != nil {
		return nil, fmt.Errorf("evaluating ensemble: %w", err)
	}

	options, err := numericOptions(cleaned, p.profile)
	if err != nil {
		return nil, err
	}

	report.Duration = time.Since(started)
	report.Stages = p.collector.GetMetrics()
	logger.Info("training finished",
		"test_r2", report.Test.R2,
		"train_rows", report.TrainRows,
		"test_rows", report.TestRows,
		"duration", report.Duration,
	)

	return &Model{
		profile:  p.profile,
		cleaner:  p.cleaner,
		encoder:  enc,
		ensemble: voting,
		report:   report,
		numeric:  options,
		mem:      p.mem,
	}, nil
}

// search tunes one family and returns an unfitted member built with the
// winning parameters.
func (p *Pipeline) search(
	ctx context.Context,
	logger *slog.Logger,
	fs profile.FamilySearch,
	X *mat.Dense,
	y []float64,
) (ensemble.Member, *selection.Result, error) {
	factory, err := p.registry.Lookup(fs.Family)
	if err != nil {
		return ensemble.Member{}, nil, err
	}
	nIter := fs.NIter
	if p.cfg.SearchIterations > 0 {
		nIter = p.cfg.SearchIterations
	}

	var result *selection.Result
	err = p.collector.RecordStage(StageSearch+":"+fs.Family, func() (int, error) {
		var err error
		result, err = selection.RandomizedSearch(ctx, selection.Search{
			Family:  fs.Family,
			Factory: factory,
			Grid:    fs.Grid,
			NIter:   nIter,
			Folds:   p.cfg.Folds,
			Seed:    p.cfg.Seed,
			Pool:    p.pool,
			Logger:  logger,
		}, X, y)
		return len(y), err
	})
	if err != nil {
		return ensemble.Member{}, nil, fmt.Errorf("searching %s: %w", fs.Family, err)
	}
	logger.Info("best parameters", "model", fs.Label, "params", result.BestParams.String(), "cv_r2", result.BestScore)

	est, err := factory(result.BestParams, p.cfg.Seed)
	if err != nil {
		return ensemble.Member{}, nil, err
	}
	return ensemble.Member{Name: fs.Label, Estimator: est}, result, nil
}

func (p *Pipeline) evaluate(voting *ensemble.Voting, X *mat.Dense, y []float64, report *Report) error {
	pred, err := voting.Predict(X)
	if err != nil {
		return err
	}
	report.Test, err = metrics.Evaluate(y, pred)
	if err != nil {
		return err
	}

	perMember, err := voting.PredictMembers(X)
	if err != nil {
		return err
	}
	report.MemberTest = make(map[string]metrics.Report, len(perMember))
	for i, name := range voting.Members() {
		r, err := metrics.Evaluate(y, perMember[i])
		if err != nil {
			return err
		}
		report.MemberTest[name] = r
	}
	return nil
}
