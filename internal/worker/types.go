package worker

import (
	"context"
	"errors"

	"pdfvector/internal/ingest"
)

// ErrInvalidJob marks a structurally invalid job payload. Invalid jobs are
// dropped (poison pills), never redelivered.
var ErrInvalidJob = errors.New("invalid job payload")

type Pipeline interface {
	Run(ctx context.Context, job ingest.Job) error
}

type ResultPublisher interface {
	Publish(topic string, body []byte) error
}

// DeadLetterStore records a job whose delivery attempts are exhausted so it
// can be inspected and retried out of band.
type DeadLetterStore interface {
	Save(ctx context.Context, handler string, payload []byte, cause string) error
}
