package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvloznov/agrofin/internal/api/handlers"
	"github.com/dvloznov/agrofin/internal/api/middleware"
	"github.com/dvloznov/agrofin/internal/cache"
	"github.com/dvloznov/agrofin/internal/categorizer"
	"github.com/dvloznov/agrofin/internal/jobs/inmemory"
	"github.com/dvloznov/agrofin/internal/logger"
	"github.com/dvloznov/agrofin/internal/parecer"
	"github.com/dvloznov/agrofin/internal/pipeline"
	"github.com/dvloznov/agrofin/internal/plantio"
	"github.com/dvloznov/agrofin/internal/saldo"
)

func main() {
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	log := logger.New()
	ctx := context.Background()

	port := envOr("AGROFIN_PORT", "8080")
	cacheDir := envOr("AGROFIN_CACHE_DIR", "cache")
	plantiosPath := envOr("AGROFIN_PLANTIOS_PATH", "plantios.json")

	// Cache store: GCS when a bucket is configured, local filesystem otherwise.
	var cacheStore cache.Store
	if bucket := os.Getenv("AGROFIN_GCS_BUCKET"); bucket != "" {
		gcs, err := cache.NewGCSStore(ctx, bucket, os.Getenv("AGROFIN_GCS_PREFIX"))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS cache store")
		}
		defer gcs.Close()
		cacheStore = gcs
		log.Info().Str("bucket", bucket).Msg("Using GCS report cache")
	} else {
		fs, err := cache.NewFSStore(cacheDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create cache directory")
		}
		cacheStore = fs
		log.Info().Str("dir", cacheDir).Msg("Using filesystem report cache")
	}

	// Balance provider: BigQuery when configured. Without one the pipeline
	// degrades gracefully and anchors projections at zero.
	var balance saldo.BalanceProvider = saldo.Static{}
	if os.Getenv("AGROFIN_BQ_PROJECT") != "" {
		bq, err := saldo.NewBigQueryProvider(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery balance provider")
		}
		defer bq.Close()
		balance = bq
	} else {
		log.Warn().Msg("No BigQuery project configured - balance projections will be degraded")
	}

	cat := categorizer.New()
	if rulesPath := os.Getenv("AGROFIN_RULES_PATH"); rulesPath != "" {
		rules, err := categorizer.LoadRules(rulesPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", rulesPath).Msg("Failed to load categorization rules")
		}
		cat = categorizer.NewWithRules(rules)
	}

	plantioStore, err := plantio.NewStore(plantiosPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open plantio store")
	}

	boundaryYear := 0
	if v := os.Getenv("AGROFIN_BOUNDARY_YEAR"); v != "" {
		boundaryYear, err = strconv.Atoi(v)
		if err != nil {
			log.Fatal().Str("value", v).Msg("AGROFIN_BOUNDARY_YEAR must be a year")
		}
	}

	generator := &pipeline.Generator{
		Cache:        cacheStore,
		Balance:      balance,
		Categorizer:  cat,
		BoundaryYear: boundaryYear,
		ParecerFn:    parecer.Generate,
	}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, generator.HandleJob); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Initialize handlers
	reportsHandler := handlers.NewReportsHandler(cacheStore, jobQueue, log)
	plantiosHandler := handlers.NewPlantiosHandler(plantioStore, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/reports/generate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			reportsHandler.EnqueueGeneration(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reports/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		// Path is /api/reports/{empresa}/{tipo}.
		rest := strings.TrimPrefix(r.URL.Path, "/api/reports/")
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Company and report type are required")
			return
		}
		reportsHandler.GetReport(w, r, parts[0], parts[1])
	})

	mux.HandleFunc("/api/plantios", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			plantiosHandler.ListPlantios(w, r)
		case http.MethodPost, http.MethodPut:
			plantiosHandler.SavePlantio(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/plantios/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/plantios/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Plantio ID is required")
			return
		}
		switch r.Method {
		case http.MethodGet:
			plantiosHandler.GetPlantio(w, r, id)
		case http.MethodDelete:
			plantiosHandler.DeletePlantio(w, r, id)
		default:
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

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
