package job

import (
	"encoding/json"
	"time"
)

// Job is a dead-lettered ingestion job: the original queue payload plus the
// error that exhausted its delivery attempts.
type Job struct {
	ID        string          `json:"id"`
	Handler   string          `json:"handler"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
	Retries   int             `json:"retries"`
	CreatedAt time.Time       `json:"created_at"`
}

// SubmitRequest is the HTTP body for enqueueing a new ingestion job.
type SubmitRequest struct {
	PDFPath     string `json:"pdf_path"`
	PDFPathDest string `json:"pdf_path_dest"`
	DelayMS     int64  `json:"delay_ms,omitempty"`
	Attempts    uint16 `json:"attempts,omitempty"`
}
