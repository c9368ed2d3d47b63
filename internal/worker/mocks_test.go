package worker_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pdfvector/internal/ingest"
)

// Mocks

type MockPipeline struct{ mock.Mock }

func (m *MockPipeline) Run(ctx context.Context, job ingest.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

type MockResultPublisher struct{ mock.Mock }

func (m *MockResultPublisher) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}

type MockDeadLetterStore struct{ mock.Mock }

func (m *MockDeadLetterStore) Save(ctx context.Context, handler string, payload []byte, cause string) error {
	args := m.Called(ctx, handler, payload, cause)
	return args.Error(0)
}
