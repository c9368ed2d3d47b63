package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pdfvector/internal/config"
	"pdfvector/internal/middleware"
	"pdfvector/internal/worker"
)

var ErrInvalidRequest = errors.New("invalid job submission")

// Publisher is the producer side of the durable queue. DeferredPublish delays
// first delivery of a message.
type Publisher interface {
	Publish(topic string, body []byte) error
	DeferredPublish(topic string, delay time.Duration, body []byte) error
}

type Service struct {
	repo Repository
	pub  Publisher
}

func NewService(repo Repository, pub Publisher) *Service {
	return &Service{repo: repo, pub: pub}
}

// Submit validates the request and enqueues the job, optionally deferred.
// Returns the assigned job id.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if req.PDFPath == "" {
		return "", fmt.Errorf("%w: pdf_path is required", ErrInvalidRequest)
	}
	if req.PDFPathDest == "" {
		return "", fmt.Errorf("%w: pdf_path_dest is required", ErrInvalidRequest)
	}
	if req.DelayMS < 0 {
		return "", fmt.Errorf("%w: delay_ms must not be negative", ErrInvalidRequest)
	}

	payload := worker.TransformPayload{
		JobID:         uuid.New().String(),
		PDFPath:       req.PDFPath,
		PDFPathDest:   req.PDFPathDest,
		MaxAttempts:   req.Attempts,
		CorrelationID: middleware.GetCorrelationID(ctx),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	if req.DelayMS > 0 {
		delay := time.Duration(req.DelayMS) * time.Millisecond
		if err := s.pub.DeferredPublish(config.TopicTransform, delay, body); err != nil {
			return "", err
		}
	} else {
		if err := s.pub.Publish(config.TopicTransform, body); err != nil {
			return "", err
		}
	}

	return payload.JobID, nil
}

func (s *Service) List(ctx context.Context) ([]Job, error) {
	return s.repo.List(ctx)
}

// Retry republishes a dead-lettered job's original payload and deletes the
// dead-letter row.
func (s *Service) Retry(ctx context.Context, id string) error {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.pub.Publish(config.TopicTransform, job.Payload); err != nil {
		return err
	}

	return s.repo.Delete(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
