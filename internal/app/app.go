package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"pdfvector/features/job"
	"pdfvector/internal/config"
	"pdfvector/internal/middleware"
	"pdfvector/internal/worker"
)

// Publisher is the producer side of the durable queue, satisfied by
// *nsq.Producer.
type Publisher interface {
	Publish(topic string, body []byte) error
	DeferredPublish(topic string, delay time.Duration, body []byte) error
}

type App struct {
	Handler           http.Handler
	TransformConsumer *worker.TransformConsumer

	port int
}

func New(cfg *config.Config, db *sql.DB, pipeline worker.Pipeline, pub Publisher) *App {
	// Feature: Job (submission + dead letters)
	jobRepo := job.NewPostgresRepo(db)
	jobService := job.NewService(jobRepo, pub)
	jobHandler := job.NewHandler(jobService)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /jobs", middleware.CorrelationID(enableCORS(jobHandler.Submit)))
	mux.Handle("GET /jobs/failed", middleware.CorrelationID(enableCORS(jobHandler.List)))
	mux.Handle("GET /jobs/failed/count", middleware.CorrelationID(enableCORS(jobHandler.Count)))
	mux.Handle("POST /jobs/{id}/retry", middleware.CorrelationID(enableCORS(jobHandler.Retry)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Worker (Transform Consumer)
	transformConsumer := worker.NewTransformConsumer(
		pipeline,
		pub,
		&deadLetterAdapter{repo: jobRepo},
		uint16(cfg.WorkerMaxAttempts),
	)

	return &App{
		Handler:           mux,
		TransformConsumer: transformConsumer,
		port:              cfg.ServerPort,
	}
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Adapter for DeadLetterStore in Worker
type deadLetterAdapter struct {
	repo job.Repository
}

func (a *deadLetterAdapter) Save(ctx context.Context, handler string, payload []byte, cause string) error {
	return a.repo.Save(ctx, &job.Job{
		Handler: handler,
		Payload: payload,
		Error:   cause,
	})
}
