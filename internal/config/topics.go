package config

const (
	// TopicTransform is the NSQ topic carrying PDF ingestion jobs.
	TopicTransform = "pdf_transform"

	// TopicTransformResult is the NSQ topic for job completion/failure events.
	TopicTransformResult = "pdf_transform.result"
)
