// Package modelstore persists model artifacts (network weights, scaler state,
// category lists, training corpora) behind a small load/save interface so the
// storage medium is swappable without touching model logic.
package modelstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when the named artifact does not exist.
var ErrNotFound = errors.New("modelstore: artifact not found")

// Artifact names used by the services. All implementations key artifacts by
// these fixed names under a configurable root.
const (
	ArtifactSpendNetwork   = "spend_lstm.json"
	ArtifactSpendScalers   = "spend_scalers.json"
	ArtifactCategories     = "categories.json"
	ArtifactSpendCorpus    = "prediction_training_data.json"
	ArtifactCategoryForest = "category_forest.json"
	ArtifactVectorizer     = "tfidf_vectorizer.json"
	ArtifactCategoryCorpus = "training_data.json"
)

// Store abstracts artifact persistence. Implementations must be safe for
// concurrent use; Save replaces any existing artifact wholesale.
type Store interface {
	// Load returns the artifact bytes, or ErrNotFound.
	Load(ctx context.Context, name string) ([]byte, error)

	// Save writes the artifact, replacing any previous version.
	Save(ctx context.Context, name string, data []byte) error

	// Exists reports whether the artifact is present.
	Exists(ctx context.Context, name string) (bool, error)
}
