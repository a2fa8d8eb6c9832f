package categorize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/apetrov/finsight/internal/domain"
	"github.com/apetrov/finsight/internal/modelstore"
)

const forestSeed = 42

// Sample is one labelled transaction in the categorizer's training corpus.
type Sample struct {
	Merchant    string  `json:"merchant"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
}

// Service categorizes transactions. A keyword rule pass runs first; misses
// fall through to a TF-IDF + random-forest classifier whose trained state is
// held behind an atomic pointer and swapped wholesale on retrain.
type Service struct {
	store modelstore.Store
	log   zerolog.Logger
	state atomic.Pointer[classifierState]
}

type classifierState struct {
	forest     *Forest
	vectorizer *Vectorizer
	labels     []string
}

type forestArtifact struct {
	Forest *Forest  `json:"forest"`
	Labels []string `json:"labels"`
}

// New creates a categorization service, loading persisted model artifacts or
// training a fresh classifier on the built-in sample corpus when none exist.
func New(ctx context.Context, store modelstore.Store, log zerolog.Logger) (*Service, error) {
	s := &Service{store: store, log: log}

	st, err := s.loadState(ctx)
	switch {
	case err == nil:
		s.state.Store(st)
		log.Info().Msg("Loaded existing categorization model")
	case errors.Is(err, modelstore.ErrNotFound):
		log.Info().Msg("No persisted categorization model, training on sample data")
		if err := s.bootstrap(ctx); err != nil {
			return nil, fmt.Errorf("categorize.New: bootstrap: %w", err)
		}
	default:
		log.Error().Err(err).Msg("Failed to load categorization model, retraining")
		if err := s.bootstrap(ctx); err != nil {
			return nil, fmt.Errorf("categorize.New: bootstrap after load failure: %w", err)
		}
	}
	return s, nil
}

// Ready reports whether a trained classifier is loaded.
func (s *Service) Ready() bool {
	return s.state.Load() != nil
}

// Categorize classifies one transaction. The ladder never fails: a keyword
// hit answers with 0.9, the forest answers with its vote fraction, a missing
// model answers "other" at 0.5 and an internal fault answers "other" at 0.3.
func (s *Service) Categorize(merchant, description string, amount float64) domain.CategorizationResult {
	if rule := RuleCategory(merchant, description); rule != "other" {
		return domain.CategorizationResult{Category: rule, Confidence: 0.9, Method: "rule_based"}
	}

	st := s.state.Load()
	if st == nil {
		return domain.CategorizationResult{Category: "other", Confidence: 0.5, Method: "fallback"}
	}

	features := append(st.vectorizer.Transform(merchant+" "+description), amount)
	class, confidence := st.forest.Predict(features)
	if class < 0 || class >= len(st.labels) {
		s.log.Error().Int("class", class).Msg("Forest vote outside label range")
		return domain.CategorizationResult{Category: "other", Confidence: 0.3, Method: "error_fallback"}
	}
	return domain.CategorizationResult{Category: st.labels[class], Confidence: confidence, Method: "ml_model"}
}

// MergeSample appends one labelled sample to the persisted corpus and returns
// the corpus size after the merge. It does not retrain; publish a retrain job
// for that.
func (s *Service) MergeSample(ctx context.Context, sample Sample) (int, error) {
	if sample.Category == "" {
		return 0, fmt.Errorf("MergeSample: correct category required")
	}

	corpus, err := s.loadCorpus(ctx)
	if err != nil {
		return 0, fmt.Errorf("MergeSample: %w", err)
	}
	corpus = append(corpus, sample)

	if err := s.saveCorpus(ctx, corpus); err != nil {
		return 0, fmt.Errorf("MergeSample: %w", err)
	}
	return len(corpus), nil
}

// RetrainFromCorpus refits the vectorizer and forest on the full accumulated
// corpus, persists the artifacts and swaps them in.
func (s *Service) RetrainFromCorpus(ctx context.Context) error {
	corpus, err := s.loadCorpus(ctx)
	if err != nil {
		return fmt.Errorf("RetrainFromCorpus: %w", err)
	}

	st, err := train(corpus)
	if err != nil {
		return fmt.Errorf("RetrainFromCorpus: %w", err)
	}
	if err := s.persistState(ctx, st); err != nil {
		return fmt.Errorf("RetrainFromCorpus: %w", err)
	}
	s.state.Store(st)
	s.log.Info().Int("samples", len(corpus)).Msg("Categorization model retrained")
	return nil
}

// train fits a complete classifier state on a corpus. Labels are the sorted
// distinct categories observed in the corpus, so the forest's class indices
// stay stable for a given corpus.
func train(corpus []Sample) (*classifierState, error) {
	if len(corpus) == 0 {
		return nil, fmt.Errorf("train: empty corpus")
	}

	labelSet := make(map[string]int)
	for _, sample := range corpus {
		labelSet[sample.Category] = 0
	}
	labels := make([]string, 0, len(labelSet))
	for label := range labelSet {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for i, label := range labels {
		labelSet[label] = i
	}

	docs := make([]string, len(corpus))
	for i, sample := range corpus {
		docs[i] = sample.Merchant + " " + sample.Description
	}
	vectorizer := &Vectorizer{}
	vectorizer.Fit(docs)

	x := make([][]float64, len(corpus))
	y := make([]int, len(corpus))
	for i, sample := range corpus {
		x[i] = append(vectorizer.Transform(docs[i]), sample.Amount)
		y[i] = labelSet[sample.Category]
	}

	forest := TrainForest(x, y, len(labels), forestSeed)
	return &classifierState{forest: forest, vectorizer: vectorizer, labels: labels}, nil
}

func (s *Service) bootstrap(ctx context.Context) error {
	corpus, err := s.loadCorpus(ctx)
	if err != nil {
		return err
	}
	if err := s.saveCorpus(ctx, corpus); err != nil {
		return err
	}

	st, err := train(corpus)
	if err != nil {
		return err
	}
	if err := s.persistState(ctx, st); err != nil {
		return err
	}
	s.state.Store(st)
	return nil
}

// loadCorpus returns the persisted training corpus, falling back to the
// built-in sample transactions when none has been saved yet.
func (s *Service) loadCorpus(ctx context.Context) ([]Sample, error) {
	data, err := s.store.Load(ctx, modelstore.ArtifactCategoryCorpus)
	if errors.Is(err, modelstore.ErrNotFound) {
		return SampleCorpus(), nil
	}
	if err != nil {
		return nil, err
	}
	var corpus []Sample
	if err := json.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("decode categorization corpus: %w", err)
	}
	return corpus, nil
}

func (s *Service) saveCorpus(ctx context.Context, corpus []Sample) error {
	data, err := json.Marshal(corpus)
	if err != nil {
		return fmt.Errorf("encode categorization corpus: %w", err)
	}
	return s.store.Save(ctx, modelstore.ArtifactCategoryCorpus, data)
}

func (s *Service) loadState(ctx context.Context) (*classifierState, error) {
	forestData, err := s.store.Load(ctx, modelstore.ArtifactCategoryForest)
	if err != nil {
		return nil, err
	}
	vecData, err := s.store.Load(ctx, modelstore.ArtifactVectorizer)
	if err != nil {
		return nil, err
	}

	var fa forestArtifact
	if err := json.Unmarshal(forestData, &fa); err != nil {
		return nil, fmt.Errorf("decode forest: %w", err)
	}
	if fa.Forest == nil || len(fa.Labels) == 0 {
		return nil, fmt.Errorf("decode forest: missing forest or labels")
	}
	vectorizer := &Vectorizer{}
	if err := json.Unmarshal(vecData, vectorizer); err != nil {
		return nil, fmt.Errorf("decode vectorizer: %w", err)
	}

	return &classifierState{forest: fa.Forest, vectorizer: vectorizer, labels: fa.Labels}, nil
}

func (s *Service) persistState(ctx context.Context, st *classifierState) error {
	forestData, err := json.Marshal(forestArtifact{Forest: st.forest, Labels: st.labels})
	if err != nil {
		return fmt.Errorf("encode forest: %w", err)
	}
	vecData, err := json.Marshal(st.vectorizer)
	if err != nil {
		return fmt.Errorf("encode vectorizer: %w", err)
	}

	if err := s.store.Save(ctx, modelstore.ArtifactCategoryForest, forestData); err != nil {
		return err
	}
	return s.store.Save(ctx, modelstore.ArtifactVectorizer, vecData)
}
