package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/apetrov/finsight/internal/advice"
	"github.com/apetrov/finsight/internal/api/handlers"
	"github.com/apetrov/finsight/internal/api/middleware"
	"github.com/apetrov/finsight/internal/categorize"
	"github.com/apetrov/finsight/internal/config"
	"github.com/apetrov/finsight/internal/jobs"
	"github.com/apetrov/finsight/internal/jobs/inmemory"
	"github.com/apetrov/finsight/internal/llm"
	"github.com/apetrov/finsight/internal/logger"
	"github.com/apetrov/finsight/internal/modelstore"
	"github.com/apetrov/finsight/internal/ocr"
	"github.com/apetrov/finsight/internal/predict"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Parse command-line flags
	var (
		port   = flag.String("port", cfg.Port, "HTTP server port")
		bucket = flag.String("bucket", cfg.ModelBucket, "GCS bucket for model artifacts (or set MODEL_BUCKET env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New("finsight-api")

	ctx := context.Background()

	// Pick the artifact store: GCS when a bucket is configured, local
	// filesystem otherwise.
	var store modelstore.Store
	if *bucket != "" {
		gcsStore, err := modelstore.NewGCSStore(ctx, *bucket, cfg.ModelDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS model store")
		}
		defer gcsStore.Close()
		store = gcsStore
		log.Info().Str("bucket", *bucket).Msg("Using GCS model store")
	} else {
		fileStore, err := modelstore.NewFileStore(cfg.ModelDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create file model store")
		}
		store = fileStore
		log.Info().Str("dir", cfg.ModelDir).Msg("Using file model store")
	}

	// Initialize model-backed services. Both load persisted artifacts and
	// bootstrap-train from sample data when nothing is stored yet.
	predictor, err := predict.New(ctx, store, cfg.SequenceLength, logger.Component(log, "predictor"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize predictor")
	}

	categorizer, err := categorize.New(ctx, store, logger.Component(log, "categorizer"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize categorizer")
	}

	// The generative services degrade to fallback responses when no API key
	// is configured, so a missing key is a warning rather than a fatal.
	var ocrSvc *ocr.Service
	var adviceSvc *advice.Service
	if cfg.GeminiAPIKey != "" {
		client, err := llm.NewClient(ctx, cfg.GeminiAPIKey, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create LLM client")
		}
		ocrSvc = ocr.New(client, cfg.VisionModels, cfg.UploadDir, logger.Component(log, "ocr"))
		adviceSvc = advice.New(client, cfg.TextModels, logger.Component(log, "advice"))
	} else {
		log.Warn().Msg("No GEMINI_API_KEY configured - OCR and advice will serve fallback responses")
		ocrSvc = ocr.New(nil, cfg.VisionModels, cfg.UploadDir, logger.Component(log, "ocr"))
		adviceSvc = advice.New(nil, cfg.TextModels, logger.Component(log, "advice"))
	}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	// Retrain jobs carry no payload: the corpus is merged into the artifact
	// store before publish, so the worker just refits from what is persisted.
	jobHandler := func(ctx context.Context, job *jobs.RetrainJob) error {
		log.Info().
			Str("job_id", job.JobID).
			Str("kind", string(job.Kind)).
			Int("samples", job.Samples).
			Msg("Processing retrain job")

		switch job.Kind {
		case jobs.KindPredictor:
			return predictor.RetrainFromCorpus(ctx)
		case jobs.KindCategorizer:
			return categorizer.RetrainFromCorpus(ctx)
		default:
			return fmt.Errorf("unexpected job kind: %q", job.Kind)
		}
	}

	go func() {
		log.Info().Msg("Starting retrain worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Retrain worker stopped with error")
		}
	}()

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(map[string]handlers.ReadinessChecker{
		"categorization": categorizer,
		"prediction":     predictor,
		"ocr":            ocrSvc,
		"advice":         adviceSvc,
	})
	ocrHandler := handlers.NewOCRHandler(ocrSvc, log)
	categorizeHandler := handlers.NewCategorizeHandler(categorizer, jobQueue, log)
	predictHandler := handlers.NewPredictHandler(predictor, jobQueue, log)
	adviceHandler := handlers.NewAdviceHandler(adviceSvc, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		healthHandler.Root(w, r)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		healthHandler.Health(w, r)
	})

	mux.HandleFunc("/api/ocr/extract", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ocrHandler.Extract(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/categorize", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			categorizeHandler.Categorize(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/train", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			categorizeHandler.Train(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/predict", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			predictHandler.Predict(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/predict/retrain", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			predictHandler.Retrain(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/advice", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			adviceHandler.Advice(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/advice/stream", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			adviceHandler.AdviceStream(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Streaming advice holds the response open well past a normal request,
	// so no WriteTimeout here.
	server := &http.Server{
		Addr:        ":" + *port,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting ML service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight retrains
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
