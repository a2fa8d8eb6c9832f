package predict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/apetrov/finsight/internal/domain"
	"github.com/apetrov/finsight/internal/modelstore"
)

// DefaultSequenceLength is the number of monthly rows the sequence model
// consumes per prediction.
const DefaultSequenceLength = 12

// Predictor is the prediction orchestrator. It owns the trained model state
// behind an atomic pointer: retraining builds a complete replacement state
// and swaps it wholesale, so concurrent readers always observe either the
// old or the new state, never a partial update.
type Predictor struct {
	store  modelstore.Store
	log    zerolog.Logger
	seqLen int
	state  atomic.Pointer[modelState]
}

// modelState bundles everything one prediction needs: the trained network
// and the scalers fitted alongside it. Immutable once published.
type modelState struct {
	net        *Network
	features   *MinMaxScaler
	targets    *MinMaxScaler
	categories []string
}

type scalerArtifact struct {
	Features *MinMaxScaler `json:"features"`
	Targets  *MinMaxScaler `json:"targets"`
}

// New creates a predictor backed by the given artifact store. Persisted
// state is loaded when present; otherwise a fresh model is trained on a
// synthetic bootstrap corpus and persisted.
func New(ctx context.Context, store modelstore.Store, seqLen int, log zerolog.Logger) (*Predictor, error) {
	if seqLen <= 0 {
		seqLen = DefaultSequenceLength
	}
	p := &Predictor{store: store, log: log, seqLen: seqLen}

	st, err := p.loadState(ctx)
	switch {
	case err == nil:
		p.state.Store(st)
		log.Info().Msg("Loaded existing prediction model")
	case errors.Is(err, modelstore.ErrNotFound):
		log.Info().Msg("No persisted prediction model, bootstrapping from synthetic data")
		if err := p.bootstrap(ctx); err != nil {
			return nil, fmt.Errorf("predict.New: bootstrap: %w", err)
		}
	default:
		// A corrupt artifact should not keep the service down; retrain from
		// whatever corpus is available.
		log.Error().Err(err).Msg("Failed to load prediction model, retraining")
		if err := p.bootstrap(ctx); err != nil {
			return nil, fmt.Errorf("predict.New: bootstrap after load failure: %w", err)
		}
	}
	return p, nil
}

// Ready reports whether a trained model state is loaded.
func (p *Predictor) Ready() bool {
	return p.state.Load() != nil
}

// Predict forecasts per-category spending for the target month. The result
// is always a well-formed contract value: routing problems and model faults
// surface as Success=false with an empty prediction list, never as a raw
// fault to the transport layer.
func (p *Predictor) Predict(records []domain.SpendingRecord, targetMonth, targetYear int) domain.PredictionResult {
	if len(records) == 0 {
		return failureResult(ErrNoData)
	}

	table := BuildMonthlyTable(Normalize(records))

	if table.Len() < p.seqLen {
		return domain.PredictionResult{
			Success:     true,
			Predictions: TrendPredict(table, targetMonth),
			Method:      domain.MethodTrend,
			TargetMonth: targetMonth,
			TargetYear:  targetYear,
		}
	}

	predictions, err := p.sequencePredict(table)
	if err != nil {
		p.log.Error().Err(err).Msg("Sequence prediction failed")
		return failureResult(err)
	}
	return domain.PredictionResult{
		Success:     true,
		Predictions: predictions,
		Method:      domain.MethodLSTM,
		TargetMonth: targetMonth,
		TargetYear:  targetYear,
	}
}

// sequencePredict scales the most recent window with the persisted feature
// scaler, runs one forward pass and inverse-scales the output with the
// persisted target scaler. Scalers are never refitted here.
func (p *Predictor) sequencePredict(table *MonthlyTable) ([]domain.CategoryPrediction, error) {
	st := p.state.Load()
	if st == nil {
		return nil, ErrModelUnavailable
	}

	scaled, err := st.features.Transform(table.Features())
	if err != nil {
		return nil, fmt.Errorf("sequencePredict: scale features: %w", err)
	}
	window := LastWindow(scaled, p.seqLen)
	if window == nil {
		return nil, ErrInsufficientHistory
	}

	out := st.net.Predict(window)
	amounts, err := st.targets.InverseTransform(out)
	if err != nil {
		return nil, fmt.Errorf("sequencePredict: inverse scale: %w", err)
	}

	predictions := make([]domain.CategoryPrediction, len(st.categories))
	for i, cat := range st.categories {
		predictions[i] = domain.CategoryPrediction{
			Category:        cat,
			PredictedAmount: math.Max(0, amounts[i]),
			Confidence:      0.8,
		}
	}
	return predictions, nil
}

// MergeCorpus normalizes new records and appends them to the persisted
// training corpus, returning how many records survived normalization. It
// does not retrain; publish a retrain job for that.
func (p *Predictor) MergeCorpus(ctx context.Context, records []domain.SpendingRecord) (int, error) {
	entries := Normalize(records)

	corpus, err := p.loadCorpus(ctx)
	if err != nil {
		return 0, fmt.Errorf("MergeCorpus: %w", err)
	}
	corpus = append(corpus, entries...)

	if err := p.saveCorpus(ctx, corpus); err != nil {
		return 0, fmt.Errorf("MergeCorpus: %w", err)
	}
	return len(entries), nil
}

// RetrainFromCorpus retrains from scratch on the full accumulated corpus,
// persists the new artifacts and swaps them in. A corpus too short to yield
// any training pair makes the run a logged no-op.
func (p *Predictor) RetrainFromCorpus(ctx context.Context) error {
	corpus, err := p.loadCorpus(ctx)
	if err != nil {
		return fmt.Errorf("RetrainFromCorpus: %w", err)
	}

	st, err := p.train(corpus)
	if errors.Is(err, ErrInsufficientHistory) {
		p.log.Warn().Int("entries", len(corpus)).Msg("Insufficient data for training, keeping current model")
		return nil
	}
	if err != nil {
		return fmt.Errorf("RetrainFromCorpus: %w", err)
	}

	if err := p.persistState(ctx, st); err != nil {
		return fmt.Errorf("RetrainFromCorpus: %w", err)
	}
	p.state.Store(st)
	p.log.Info().Msg("Prediction model retrained")
	return nil
}

// train builds a complete new model state from a corpus. Both scalers are
// fitted here, once, over the full provided dataset.
func (p *Predictor) train(corpus []Entry) (*modelState, error) {
	table := BuildMonthlyTable(corpus)
	if table.Len() <= p.seqLen {
		return nil, ErrInsufficientHistory
	}

	features := table.Features()
	targets := table.Targets()

	featScaler := &MinMaxScaler{}
	featScaler.Fit(features)
	targScaler := &MinMaxScaler{}
	targScaler.Fit(targets)

	fScaled, err := featScaler.Transform(features)
	if err != nil {
		return nil, fmt.Errorf("train: scale features: %w", err)
	}
	tScaled, err := targScaler.Transform(targets)
	if err != nil {
		return nil, fmt.Errorf("train: scale targets: %w", err)
	}

	windows, labels := BuildSequences(fScaled, tScaled, p.seqLen)
	if len(windows) == 0 {
		return nil, ErrInsufficientHistory
	}

	cfg := DefaultTrainConfig()
	net := NewNetwork(2, 50, 25, len(domain.Categories), cfg.Seed)
	trainLoss, valLoss, err := net.Fit(windows, labels, cfg, p.log)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	p.log.Info().
		Int("pairs", len(windows)).
		Float64("train_loss", trainLoss).
		Float64("val_loss", valLoss).
		Msg("Sequence model trained")

	return &modelState{
		net:        net,
		features:   featScaler,
		targets:    targScaler,
		categories: domain.Categories,
	}, nil
}

func (p *Predictor) bootstrap(ctx context.Context) error {
	corpus, err := p.loadCorpus(ctx)
	if err != nil {
		return err
	}
	if err := p.saveCorpus(ctx, corpus); err != nil {
		return err
	}

	st, err := p.train(corpus)
	if err != nil {
		return err
	}
	if err := p.persistState(ctx, st); err != nil {
		return err
	}
	p.state.Store(st)
	return nil
}

// loadCorpus returns the persisted training corpus, falling back to the
// synthetic sample corpus when none has been saved yet.
func (p *Predictor) loadCorpus(ctx context.Context) ([]Entry, error) {
	data, err := p.store.Load(ctx, modelstore.ArtifactSpendCorpus)
	if errors.Is(err, modelstore.ErrNotFound) {
		return SampleCorpus(time.Now()), nil
	}
	if err != nil {
		return nil, err
	}
	var corpus []Entry
	if err := json.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("decode training corpus: %w", err)
	}
	return corpus, nil
}

func (p *Predictor) saveCorpus(ctx context.Context, corpus []Entry) error {
	data, err := json.Marshal(corpus)
	if err != nil {
		return fmt.Errorf("encode training corpus: %w", err)
	}
	return p.store.Save(ctx, modelstore.ArtifactSpendCorpus, data)
}

func (p *Predictor) loadState(ctx context.Context) (*modelState, error) {
	netData, err := p.store.Load(ctx, modelstore.ArtifactSpendNetwork)
	if err != nil {
		return nil, err
	}
	scalerData, err := p.store.Load(ctx, modelstore.ArtifactSpendScalers)
	if err != nil {
		return nil, err
	}
	catData, err := p.store.Load(ctx, modelstore.ArtifactCategories)
	if err != nil {
		return nil, err
	}

	net := &Network{}
	if err := json.Unmarshal(netData, net); err != nil {
		return nil, fmt.Errorf("decode network: %w", err)
	}
	var scalers scalerArtifact
	if err := json.Unmarshal(scalerData, &scalers); err != nil {
		return nil, fmt.Errorf("decode scalers: %w", err)
	}
	if scalers.Features == nil || scalers.Targets == nil {
		return nil, fmt.Errorf("decode scalers: missing feature or target state")
	}
	var categories []string
	if err := json.Unmarshal(catData, &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}

	return &modelState{
		net:        net,
		features:   scalers.Features,
		targets:    scalers.Targets,
		categories: categories,
	}, nil
}

func (p *Predictor) persistState(ctx context.Context, st *modelState) error {
	netData, err := json.Marshal(st.net)
	if err != nil {
		return fmt.Errorf("encode network: %w", err)
	}
	scalerData, err := json.Marshal(scalerArtifact{Features: st.features, Targets: st.targets})
	if err != nil {
		return fmt.Errorf("encode scalers: %w", err)
	}
	catData, err := json.Marshal(st.categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}

	if err := p.store.Save(ctx, modelstore.ArtifactSpendNetwork, netData); err != nil {
		return err
	}
	if err := p.store.Save(ctx, modelstore.ArtifactSpendScalers, scalerData); err != nil {
		return err
	}
	return p.store.Save(ctx, modelstore.ArtifactCategories, catData)
}

func failureResult(err error) domain.PredictionResult {
	return domain.PredictionResult{
		Success:     false,
		Error:       err.Error(),
		Predictions: []domain.CategoryPrediction{},
	}
}
