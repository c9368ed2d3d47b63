package weaviate

import (
	"context"
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"

	"pdfvector/internal/ingest"
	"pdfvector/internal/vector"
)

// Store persists embedding vectors into Weaviate. Object IDs are derived
// deterministically from (namespace, record id), so writing the same record
// twice overwrites in place: upserts are last-write-wins and retry-safe.
type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Upsert(ctx context.Context, namespace string, records []ingest.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	objects := make([]*models.Object, 0, len(records))
	for _, rec := range records {
		objects = append(objects, &models.Object{
			Class:  vector.ClassName,
			ID:     ObjectID(namespace, rec.ID),
			Vector: models.C11yVector(rec.Values),
			Properties: map[string]interface{}{
				"recordId":  rec.ID,
				"file":      rec.Metadata.File,
				"page":      rec.Metadata.Page,
				"namespace": namespace,
			},
		})
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, r := range resp {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return written, fmt.Errorf("batch object rejected: %s", r.Result.Errors.Error[0].Message)
		}
		written++
	}

	return written, nil
}

// ObjectID maps a (namespace, record id) pair to a stable Weaviate UUID.
func ObjectID(namespace, recordID string) strfmt.UUID {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(namespace+"/"+recordID))
	return strfmt.UUID(id.String())
}
