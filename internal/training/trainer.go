// Package training builds, fits, evaluates, and registers the two model
// families: the ranking-improvement regressor and the schema-type
// classifier. Both share one discipline: build, fit, evaluate, persist
// as testing. Activation is a separate registry operation so an
// unreviewed model never silently serves traffic.
package training

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rankforge/rankforge/internal/artifact"
	"github.com/rankforge/rankforge/internal/config"
	"github.com/rankforge/rankforge/internal/domain"
	"github.com/rankforge/rankforge/internal/feature"
	"github.com/rankforge/rankforge/internal/logger"
	"github.com/rankforge/rankforge/internal/nn"
)

const (
	// MinRegressorSamples is the floor below which regressor training
	// fails fast with ErrInsufficientSamples.
	MinRegressorSamples = 100

	// MinClassifierSamples is the equivalent floor for the classifier.
	MinClassifierSamples = 50

	// DefaultThreshold is the classifier decision threshold persisted
	// with the model and reused at inference time.
	DefaultThreshold = 0.5

	regressorName  = "ranking-improvement-regressor"
	classifierName = "schema-type-classifier"

	versionLayout = "20060102150405"
)

// ErrInsufficientSamples is the precondition error raised before any
// model is built when too few eligible samples exist.
var ErrInsufficientSamples = errors.New("insufficient training samples")

// SampleSource supplies verified, labeled samples.
type SampleSource interface {
	Collect(ctx context.Context, minEffectiveness float64, limit int) ([]domain.TrainingSample, error)
}

// ModelStore registers newly trained model versions.
type ModelStore interface {
	Create(ctx context.Context, model *domain.Model) error
}

// Trainer runs training end to end for both model families.
type Trainer struct {
	samples SampleSource
	models  ModelStore
	store   artifact.Store
	catalog *feature.Catalog
	cfg     config.TrainingConfig
	log     *logger.Logger
	rng     *rand.Rand
}

// NewTrainer creates a Trainer. A nil rng gets a time-seeded source;
// tests pass a fixed seed for reproducible splits and weight init.
func NewTrainer(
	samples SampleSource,
	models ModelStore,
	store artifact.Store,
	catalog *feature.Catalog,
	cfg config.TrainingConfig,
	log *logger.Logger,
	rng *rand.Rand,
) *Trainer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Trainer{
		samples: samples,
		models:  models,
		store:   store,
		catalog: catalog,
		cfg:     cfg,
		log:     log.WithField(logger.FieldComponent, "trainer"),
		rng:     rng,
	}
}

// alignedVector re-derives a sample payload against the current catalog
// so every row in a batch has the same width regardless of drift.
func (t *Trainer) alignedVector(s *domain.TrainingSample) []float64 {
	vec, names, _ := t.catalog.DerivePayload(s)
	if len(vec) == t.catalog.Dim() {
		return vec
	}
	metrics := make(map[string]float64, len(names))
	for i, name := range names {
		if i < len(vec) {
			metrics[name] = vec[i]
		}
	}
	return feature.AlignVector(metrics, t.catalog.Names())
}

// TrainRankingRegressor trains the scalar ranking-improvement model and
// registers it with status testing.
func (t *Trainer) TrainRankingRegressor(ctx context.Context) (*domain.Model, error) {
	started := time.Now()

	samples, err := t.samples.Collect(ctx, t.cfg.MinEffectiveness, t.cfg.SampleLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to collect samples: %w", err)
	}
	if len(samples) < MinRegressorSamples {
		return nil, fmt.Errorf("%w: regressor needs %d, have %d", ErrInsufficientSamples, MinRegressorSamples, len(samples))
	}

	x := make([][]float64, len(samples))
	y := make([][]float64, len(samples))
	for i := range samples {
		x[i] = t.alignedVector(&samples[i])
		y[i] = []float64{samples[i].RankingImprovement()}
	}

	normalized, means, stds := feature.ZScore(x)

	trainIdx, valIdx := feature.SplitIndices(len(samples), t.cfg.ValidationSplit, t.rng)
	xTrain, yTrain := gather(normalized, trainIdx), gather(y, trainIdx)
	xVal, yVal := gather(normalized, valIdx), gather(y, valIdx)

	net, err := nn.New(nn.Config{
		InputDim:     t.catalog.Dim(),
		HiddenLayers: []int{128, 64, 32},
		OutputDim:    1,
		Output:       nn.OutputLinear,
		Dropout:      []float64{0.3, 0.2},
		LearningRate: t.cfg.LearningRate,
		Epochs:       t.cfg.Epochs,
		BatchSize:    t.cfg.BatchSize,
		Patience:     t.cfg.EarlyStoppingPatience,
	}, t.rng)
	if err != nil {
		return nil, err
	}
	defer net.Release()

	fit, err := net.Fit(ctx, xTrain, yTrain, xVal, yVal, t.rng)
	if err != nil {
		return nil, fmt.Errorf("regressor fit failed: %w", err)
	}

	evalX, evalY := xVal, yVal
	if len(evalX) == 0 {
		evalX, evalY = xTrain, yTrain
	}
	preds, err := net.PredictBatch(evalX)
	if err != nil {
		return nil, err
	}
	metrics := EvaluateRegression(flatten(preds), flatten(evalY))

	snapshot, err := net.Snapshot()
	if err != nil {
		return nil, err
	}

	version := time.Now().Format(versionLayout)
	modelID := uuid.NewString()
	prefix := artifact.BundlePath(domain.ModelTypeRankingRegressor, version)
	bundle := &artifact.Bundle{
		Manifest: artifact.Manifest{
			ModelID: modelID,
			Name:    regressorName,
			Version: version,
			Type:    domain.ModelTypeRankingRegressor,
		},
		Snapshot: snapshot,
	}
	if err := artifact.SaveBundle(ctx, t.store, prefix, bundle); err != nil {
		return nil, fmt.Errorf("failed to persist model bundle: %w", err)
	}

	duration := time.Since(started)
	model := &domain.Model{
		ID:                      modelID,
		Name:                    regressorName,
		Version:                 version,
		Type:                    domain.ModelTypeRankingRegressor,
		Path:                    prefix,
		Accuracy:                metrics.Accuracy,
		MSE:                     metrics.MSE,
		MAE:                     metrics.MAE,
		SampleCount:             len(samples),
		TrainingDurationSeconds: duration.Seconds(),
		Status:                  domain.ModelStatusTesting,
		Hyperparameters: domain.JSONMap{
			domain.HyperFeatureNames:   t.catalog.Names(),
			domain.HyperFeatureVersion: t.catalog.Version(),
			domain.HyperFeatureMeans:   means,
			domain.HyperFeatureStds:    stds,
			domain.HyperEpochs:         fit.Epochs,
			domain.HyperLearningRate:   t.cfg.LearningRate,
		},
		PerformanceMetrics: domain.JSONMap{
			"mse": metrics.MSE, "mae": metrics.MAE, "r2": metrics.R2,
			"accuracy": metrics.Accuracy, "val_loss": fit.ValLoss,
			"early_stopped": fit.EarlyStopped, "best_epoch": fit.BestEpoch,
		},
	}
	if err := t.models.Create(ctx, model); err != nil {
		return nil, fmt.Errorf("failed to register model: %w", err)
	}

	t.log.WithFields(logger.Fields{
		logger.FieldModelID:    model.ID,
		logger.FieldModelType:  model.Type,
		logger.FieldDurationMs: duration.Milliseconds(),
		logger.FieldCount:      len(samples),
		"mse":                  metrics.MSE,
		"r2":                   metrics.R2,
	}).Info("Trained ranking regressor")

	return model, nil
}

// TrainSchemaClassifier trains the multi-label schema-type model and
// registers it with status testing.
func (t *Trainer) TrainSchemaClassifier(ctx context.Context) (*domain.Model, error) {
	started := time.Now()

	collected, err := t.samples.Collect(ctx, t.cfg.MinEffectiveness, t.cfg.SampleLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to collect samples: %w", err)
	}

	// Only rows carrying at least one schema label can supervise the
	// classifier.
	samples := collected[:0:0]
	for _, s := range collected {
		if len(s.SchemaTypes) > 0 {
			samples = append(samples, s)
		}
	}
	if len(samples) < MinClassifierSamples {
		return nil, fmt.Errorf("%w: classifier needs %d, have %d", ErrInsufficientSamples, MinClassifierSamples, len(samples))
	}

	labelSets := make([][]string, len(samples))
	for i := range samples {
		labelSets[i] = samples[i].SchemaTypes
	}
	vocab := feature.BuildVocabulary(labelSets, t.cfg.MaxVocabularySize)
	if len(vocab) == 0 {
		return nil, fmt.Errorf("%w: no schema labels present", ErrInsufficientSamples)
	}

	x := make([][]float64, len(samples))
	y := make([][]float64, len(samples))
	for i := range samples {
		x[i] = t.alignedVector(&samples[i])
		y[i] = feature.LabelsToVector(samples[i].SchemaTypes, vocab)
	}

	trainIdx, valIdx := feature.SplitIndices(len(samples), t.cfg.ValidationSplit, t.rng)
	xTrain, yTrain := gather(x, trainIdx), gather(y, trainIdx)
	xVal, yVal := gather(x, valIdx), gather(y, valIdx)

	h1, h2 := classifierHidden(t.catalog.Dim())
	net, err := nn.New(nn.Config{
		InputDim:     t.catalog.Dim(),
		HiddenLayers: []int{h1, h2},
		OutputDim:    len(vocab),
		Output:       nn.OutputSigmoid,
		Dropout:      []float64{0.3, 0.2},
		LearningRate: t.cfg.LearningRate,
		Epochs:       t.cfg.Epochs,
		BatchSize:    t.cfg.BatchSize,
		Patience:     t.cfg.EarlyStoppingPatience,
	}, t.rng)
	if err != nil {
		return nil, err
	}
	defer net.Release()

	fit, err := net.Fit(ctx, xTrain, yTrain, xVal, yVal, t.rng)
	if err != nil {
		return nil, fmt.Errorf("classifier fit failed: %w", err)
	}

	evalX, evalY := xVal, yVal
	if len(evalX) == 0 {
		evalX, evalY = xTrain, yTrain
	}
	preds, err := net.PredictBatch(evalX)
	if err != nil {
		return nil, err
	}
	metrics := EvaluateClassification(preds, evalY, DefaultThreshold)

	snapshot, err := net.Snapshot()
	if err != nil {
		return nil, err
	}

	version := time.Now().Format(versionLayout)
	modelID := uuid.NewString()
	prefix := artifact.BundlePath(domain.ModelTypeSchemaClassifier, version)
	bundle := &artifact.Bundle{
		Manifest: artifact.Manifest{
			ModelID: modelID,
			Name:    classifierName,
			Version: version,
			Type:    domain.ModelTypeSchemaClassifier,
		},
		Snapshot: snapshot,
	}
	if err := artifact.SaveBundle(ctx, t.store, prefix, bundle); err != nil {
		return nil, fmt.Errorf("failed to persist model bundle: %w", err)
	}

	duration := time.Since(started)
	model := &domain.Model{
		ID:                      modelID,
		Name:                    classifierName,
		Version:                 version,
		Type:                    domain.ModelTypeSchemaClassifier,
		Path:                    prefix,
		Accuracy:                metrics.Accuracy,
		F1Score:                 metrics.F1,
		SampleCount:             len(samples),
		TrainingDurationSeconds: duration.Seconds(),
		Status:                  domain.ModelStatusTesting,
		Hyperparameters: domain.JSONMap{
			domain.HyperFeatureNames:   t.catalog.Names(),
			domain.HyperFeatureVersion: t.catalog.Version(),
			domain.HyperVocabulary:     vocab,
			domain.HyperThreshold:      DefaultThreshold,
			domain.HyperEpochs:         fit.Epochs,
			domain.HyperLearningRate:   t.cfg.LearningRate,
		},
		PerformanceMetrics: domain.JSONMap{
			"precision": metrics.Precision, "recall": metrics.Recall,
			"f1": metrics.F1, "accuracy": metrics.Accuracy,
			"val_loss": fit.ValLoss, "early_stopped": fit.EarlyStopped,
		},
	}
	if err := t.models.Create(ctx, model); err != nil {
		return nil, fmt.Errorf("failed to register model: %w", err)
	}

	t.log.WithFields(logger.Fields{
		logger.FieldModelID:    model.ID,
		logger.FieldModelType:  model.Type,
		logger.FieldDurationMs: duration.Milliseconds(),
		logger.FieldCount:      len(samples),
		"f1":                   metrics.F1,
		"vocabulary_size":      len(vocab),
	}).Info("Trained schema classifier")

	return model, nil
}

// FamilyResult is one model family's outcome within a training job.
type FamilyResult struct {
	Model *domain.Model
	Err   error
}

// TrainAll runs both families. The returned error is non-nil only when
// neither family produced a model, so one family's insufficient data
// does not block the other's refresh.
func (t *Trainer) TrainAll(ctx context.Context) (map[domain.ModelType]FamilyResult, error) {
	results := map[domain.ModelType]FamilyResult{}

	reg, regErr := t.TrainRankingRegressor(ctx)
	results[domain.ModelTypeRankingRegressor] = FamilyResult{Model: reg, Err: regErr}

	if err := ctx.Err(); err != nil {
		return results, err
	}

	cls, clsErr := t.TrainSchemaClassifier(ctx)
	results[domain.ModelTypeSchemaClassifier] = FamilyResult{Model: cls, Err: clsErr}

	if regErr != nil && clsErr != nil {
		return results, fmt.Errorf("all model families failed: regressor: %v; classifier: %v", regErr, clsErr)
	}
	return results, nil
}

// classifierHidden scales the hidden widths with the input dimension,
// capped at 256/128.
func classifierHidden(inputDim int) (int, int) {
	h1 := inputDim * 8
	if h1 > 256 {
		h1 = 256
	}
	if h1 < 64 {
		h1 = 64
	}
	return h1, h1 / 2
}

// gather selects rows by index.
func gather(rows [][]float64, idx []int) [][]float64 {
	out := make([][]float64, 0, len(idx))
	for _, i := range idx {
		out = append(out, rows[i])
	}
	return out
}

// flatten concatenates single-column rows into one slice.
func flatten(rows [][]float64) []float64 {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}
