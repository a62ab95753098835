// Package anomaly implements the per-class anomaly scoring model: a
// small gradient-boosted regression-tree ensemble over standardized
// features, lazily trained on synthetic data the first time a class is
// scored and then held read-mostly behind an atomic pointer so
// concurrent predictions never block on a mutex once training settles.
package anomaly

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/oualidl290/flightsentry/internal/aircraft"
	"github.com/oualidl290/flightsentry/internal/frame"
	"github.com/oualidl290/flightsentry/internal/schema"
	"github.com/oualidl290/flightsentry/internal/synth"
)

// EnsembleConfig tunes the gradient-boosted ensemble. Defaults mirror the
// original research model: 100 shallow trees, modest shrinkage.
type EnsembleConfig struct {
	Estimators      int
	MaxDepth        int
	Shrinkage       float64
	MinSamplesSplit int
	TrainingSize    int
	Seed            int64
}

// DefaultEnsembleConfig returns the production ensemble configuration.
func DefaultEnsembleConfig() EnsembleConfig {
	return EnsembleConfig{
		Estimators:      100,
		MaxDepth:        6,
		Shrinkage:       0.1,
		MinSamplesSplit: 2,
		TrainingSize:    2000,
		Seed:            42,
	}
}

// cancellationCheckInterval is how often training/prediction loops poll
// ctx.Err(), per spec.md's concurrency notes on long-running numeric work.
const cancellationCheckInterval = 1024

// Ensemble is an immutable trained model: a sequence of trees, their
// shrinkage, the base prediction, and the scaler fit alongside them. Once
// built it is never mutated, so it's safe to share across goroutines
// through an atomic.Pointer without locking reads.
type Ensemble struct {
	trees        []*regressionTree
	shrinkage    float64
	basePrediction float64
	scaler       *scaler
	featureNames []string
}

// trainEnsemble fits a gradient-boosted regression ensemble to predict
// the anomaly label (0/1) from standardized features, using squared-error
// boosting: each tree fits the residual left by the trees before it.
func trainEnsemble(ctx context.Context, features [][]float64, target []float64, featureNames []string, cfg EnsembleConfig) (*Ensemble, error) {
	n := len(target)
	s := fitScaler(features)
	scaled := s.transform(features)

	base := 0.0
	for _, v := range target {
		base += v
	}
	base /= float64(n)

	predictions := make([]float64, n)
	for i := range predictions {
		predictions[i] = base
	}

	trees := make([]*regressionTree, 0, cfg.Estimators)
	treeCfg := treeConfig{maxDepth: cfg.MaxDepth, minSamplesSplit: cfg.MinSamplesSplit}

	processed := 0
	for estimator := 0; estimator < cfg.Estimators; estimator++ {
		residuals := make([]float64, n)
		for i := 0; i < n; i++ {
			residuals[i] = target[i] - predictions[i]
			processed++
			if processed%cancellationCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return nil, fmt.Errorf("anomaly: training canceled: %w", err)
				}
			}
		}

		tree := fitRegressionTree(scaled, residuals, treeCfg)
		trees = append(trees, tree)

		for i := 0; i < n; i++ {
			row := rowAt(scaled, i)
			predictions[i] += cfg.Shrinkage * tree.predict(row)
		}
	}

	return &Ensemble{
		trees:          trees,
		shrinkage:      cfg.Shrinkage,
		basePrediction: base,
		scaler:         s,
		featureNames:   featureNames,
	}, nil
}

func rowAt(columns [][]float64, i int) []float64 {
	row := make([]float64, len(columns))
	for j, col := range columns {
		row[j] = col[i]
	}
	return row
}

// score returns the raw boosted prediction for one standardized row,
// squashed to [0, 1] by a sigmoid since the label domain is binary.
func (e *Ensemble) score(row []float64) float64 {
	scaledRow := e.scaler.transformRow(row)
	pred := e.basePrediction
	for _, tree := range e.trees {
		pred += e.shrinkage * tree.predict(scaledRow)
	}
	return sigmoid(pred*4 - 2) // centers the boosted regression target around the 0.5 decision point
}

// Model owns one class's ensemble, training it lazily on first use and
// publishing it through an atomic pointer so Predict never blocks
// readers once a model exists.
type Model struct {
	class     aircraft.Class
	config    EnsembleConfig
	ensemble  atomic.Pointer[Ensemble]
	trainOnce sync.Mutex
}

// NewModel creates an untrained Model for a concrete class.
func NewModel(class aircraft.Class, config EnsembleConfig) *Model {
	return &Model{class: class, config: config}
}

// EnsureTrained trains the model on synthetic data if it has never been
// trained, or retrains it unconditionally if force is true. Concurrent
// callers during the first training block on trainOnce; once an ensemble
// is published, later EnsureTrained(force=false) calls are a cheap
// atomic load.
func (m *Model) EnsureTrained(ctx context.Context, force bool) error {
	if !force && m.ensemble.Load() != nil {
		return nil
	}

	m.trainOnce.Lock()
	defer m.trainOnce.Unlock()

	if !force && m.ensemble.Load() != nil {
		return nil
	}

	featureNames := schema.FeatureSet(m.class)
	trainingFrame, labels, err := synth.Generate(m.class, m.config.TrainingSize, m.config.Seed)
	if err != nil {
		return fmt.Errorf("anomaly: generating training data: %w", err)
	}

	features := make([][]float64, len(featureNames))
	for j, col := range featureNames {
		features[j] = trainingFrame.Get(col)
	}

	ensemble, err := trainEnsemble(ctx, features, labels, featureNames, m.config)
	if err != nil {
		return err
	}

	m.ensemble.Store(ensemble)
	return nil
}

// Predict scores every row of f, training the model first if needed.
// The returned slice has one anomaly probability per row in [0, 1].
func (m *Model) Predict(ctx context.Context, f *frame.Frame) ([]float64, error) {
	if err := m.EnsureTrained(ctx, false); err != nil {
		return nil, err
	}

	ensemble := m.ensemble.Load()
	n := f.Len()
	columns := make([][]float64, len(ensemble.featureNames))
	for j, col := range ensemble.featureNames {
		columns[j] = f.Get(col)
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if i%cancellationCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("anomaly: prediction canceled: %w", err)
			}
		}
		out[i] = ensemble.score(rowAt(columns, i))
	}
	return out, nil
}

// ScoreRow scores a single row given as column name -> value, using the
// trained ensemble's feature order. It returns 0 if the model has not
// trained yet; callers needing a guaranteed trained model should call
// EnsureTrained first (Predict does this internally).
func (m *Model) ScoreRow(row map[string]float64) float64 {
	ensemble := m.ensemble.Load()
	if ensemble == nil {
		return 0
	}
	values := make([]float64, len(ensemble.featureNames))
	for j, name := range ensemble.featureNames {
		values[j] = row[name]
	}
	return ensemble.score(values)
}

// FeatureNames reports the trained ensemble's feature order, or the
// class's static schema if the model has not trained yet.
func (m *Model) FeatureNames() []string {
	if e := m.ensemble.Load(); e != nil {
		return e.featureNames
	}
	return schema.FeatureSet(m.class)
}

// Registry holds one Model per concrete aircraft class.
type Registry struct {
	models map[aircraft.Class]*Model
}

// NewRegistry builds a Registry with a fresh, untrained Model per
// concrete class.
func NewRegistry(config EnsembleConfig) *Registry {
	r := &Registry{models: make(map[aircraft.Class]*Model, len(aircraft.Concrete()))}
	for _, class := range aircraft.Concrete() {
		r.models[class] = NewModel(class, config)
	}
	return r
}

// ModelFor returns the model for a class, resolving Unknown to the
// Multirotor fallback model per spec.md §3.
func (r *Registry) ModelFor(c aircraft.Class) *Model {
	return r.models[aircraft.EffectiveModelClass(c)]
}
