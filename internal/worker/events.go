package worker

// TransformPayload is the job descriptor carried on the pdf_transform topic.
type TransformPayload struct {
	JobID       string `json:"job_id"`
	PDFPath     string `json:"pdf_path"`
	PDFPathDest string `json:"pdf_path_dest"`

	// MaxAttempts optionally lowers the redelivery limit for this job below
	// the consumer-wide maximum. Zero means "use the consumer's limit".
	MaxAttempts uint16 `json:"max_attempts,omitempty"`

	CorrelationID string `json:"correlation_id,omitempty"`
}

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ResultPayload is the completion/failure event emitted per job attempt on
// the pdf_transform.result topic.
type ResultPayload struct {
	JobID         string `json:"job_id"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}
