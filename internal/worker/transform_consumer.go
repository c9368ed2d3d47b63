package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"pdfvector/internal/config"
	"pdfvector/internal/ingest"
	"pdfvector/internal/middleware"
)

// TransformConsumer dequeues PDF ingestion jobs, runs the pipeline, and
// reports the outcome. NSQ owns redelivery: a returned error requeues the
// message until attempts are exhausted, at which point the job is recorded in
// the dead-letter store and acked.
type TransformConsumer struct {
	pipeline    Pipeline
	publisher   ResultPublisher
	deadLetters DeadLetterStore
	maxAttempts uint16
}

func NewTransformConsumer(p Pipeline, pub ResultPublisher, dl DeadLetterStore, maxAttempts uint16) *TransformConsumer {
	return &TransformConsumer{
		pipeline:    p,
		publisher:   pub,
		deadLetters: dl,
		maxAttempts: maxAttempts,
	}
}

func (h *TransformConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload TransformPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		// Poison pill: invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	correlationID := payload.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	ctx := middleware.WithCorrelationID(context.Background(), correlationID)

	jobID := payload.JobID
	if jobID == "" {
		jobID = string(m.ID[:])
	}

	if err := validate(payload); err != nil {
		// Structurally invalid jobs would fail every redelivery the same way.
		slog.ErrorContext(ctx, "rejecting invalid job", "job_id", jobID, "error", err)
		h.saveDeadLetter(ctx, m.Body, err)
		return nil
	}

	slog.InfoContext(ctx, "processing job", "job_id", jobID, "attempt", m.Attempts)

	job := ingest.Job{
		ID:        jobID,
		SourceDir: payload.PDFPath,
		DestDir:   payload.PDFPathDest,
	}

	if err := h.pipeline.Run(ctx, job); err != nil {
		slog.ErrorContext(ctx, "job failed", "job_id", jobID, "attempt", m.Attempts, "error", err)
		h.publishResult(ctx, ResultPayload{
			JobID:         jobID,
			Status:        StatusFailed,
			Error:         err.Error(),
			CorrelationID: correlationID,
		})

		limit := h.maxAttempts
		if payload.MaxAttempts > 0 && payload.MaxAttempts < limit {
			limit = payload.MaxAttempts
		}
		if m.Attempts >= limit {
			slog.ErrorContext(ctx, "attempts exhausted, dead-lettering job", "job_id", jobID, "attempts", m.Attempts)
			h.saveDeadLetter(ctx, m.Body, err)
			return nil
		}
		return err // Requeue
	}

	h.publishResult(ctx, ResultPayload{
		JobID:         jobID,
		Status:        StatusCompleted,
		CorrelationID: correlationID,
	})
	slog.InfoContext(ctx, "job completed", "job_id", jobID)
	return nil
}

func validate(p TransformPayload) error {
	if p.PDFPath == "" {
		return fmt.Errorf("%w: pdf_path is required", ErrInvalidJob)
	}
	if p.PDFPathDest == "" {
		return fmt.Errorf("%w: pdf_path_dest is required", ErrInvalidJob)
	}
	return nil
}

func (h *TransformConsumer) publishResult(ctx context.Context, result ResultPayload) {
	body, err := json.Marshal(result)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal result event", "error", err)
		return
	}
	if err := h.publisher.Publish(config.TopicTransformResult, body); err != nil {
		// The result topic is observability, not the contract; losing an
		// event must not change job delivery semantics.
		slog.ErrorContext(ctx, "failed to publish result event", "job_id", result.JobID, "error", err)
	}
}

func (h *TransformConsumer) saveDeadLetter(ctx context.Context, payload []byte, cause error) {
	if err := h.deadLetters.Save(ctx, "pdf-transform-worker", payload, cause.Error()); err != nil {
		slog.ErrorContext(ctx, "failed to save dead-lettered job", "error", err)
	}
}
