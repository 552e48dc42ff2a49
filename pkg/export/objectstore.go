package export

import (
	"bytes"
	"context"
	"fmt"

	"igrelations/pkg/models"
	"igrelations/pkg/storage"
)

// ObjectStoreSink uploads the JSON document to a bucket
type ObjectStoreSink struct {
	store *storage.ObjectStore
	name  string
}

// NewObjectStoreSink uploads as name under the store prefix
func NewObjectStoreSink(store *storage.ObjectStore, name string) *ObjectStoreSink {
	return &ObjectStoreSink{store: store, name: name}
}

func (s *ObjectStoreSink) Name() string     { return "object_store" }
func (s *ObjectStoreSink) Location() string { return s.store.Location(s.name) }

func (s *ObjectStoreSink) Write(ctx context.Context, records []models.EnrichedRecord) error {
	data, err := models.MarshalRecords(records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	_, err = s.store.Put(ctx, s.name, bytes.NewReader(data), int64(len(data)), "application/json")
	return err
}
