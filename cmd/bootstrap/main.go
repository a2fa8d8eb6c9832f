// Command bootstrap trains the prediction and categorization models offline
// and persists their artifacts, so a fresh API instance starts with models
// ready instead of training on first boot.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/apetrov/finsight/internal/categorize"
	"github.com/apetrov/finsight/internal/config"
	"github.com/apetrov/finsight/internal/logger"
	"github.com/apetrov/finsight/internal/modelstore"
	"github.com/apetrov/finsight/internal/predict"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var (
		dir    = flag.String("dir", cfg.ModelDir, "Directory (or GCS prefix) for model artifacts")
		bucket = flag.String("bucket", cfg.ModelBucket, "GCS bucket for model artifacts (or set MODEL_BUCKET env)")
		force  = flag.Bool("force", false, "Retrain even when persisted artifacts already exist")
	)
	flag.Parse()

	log := logger.New("finsight-bootstrap")
	ctx := context.Background()

	var store modelstore.Store
	if *bucket != "" {
		gcsStore, err := modelstore.NewGCSStore(ctx, *bucket, *dir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS model store")
		}
		defer gcsStore.Close()
		store = gcsStore
	} else {
		fileStore, err := modelstore.NewFileStore(*dir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create file model store")
		}
		store = fileStore
	}

	// New loads persisted artifacts when present and trains from sample data
	// otherwise, so constructing the services is the bootstrap.
	predictor, err := predict.New(ctx, store, cfg.SequenceLength, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap predictor")
	}

	categorizer, err := categorize.New(ctx, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap categorizer")
	}

	if *force {
		log.Info().Msg("Retraining from persisted corpus")
		if err := predictor.RetrainFromCorpus(ctx); err != nil {
			log.Fatal().Err(err).Msg("Predictor retrain failed")
		}
		if err := categorizer.RetrainFromCorpus(ctx); err != nil {
			log.Fatal().Err(err).Msg("Categorizer retrain failed")
		}
	}

	log.Info().
		Bool("predictor_ready", predictor.Ready()).
		Bool("categorizer_ready", categorizer.Ready()).
		Msg("Bootstrap complete")
}
