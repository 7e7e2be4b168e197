package ingestion_engine

import "context"

// Ingestor re-indexes source documents, either inline or through a worker queue.
type Ingestor interface {
	Ingest(ctx context.Context, sourceDocumentID string) (int, error)
	Start(ctx context.Context, numWorkers int)
	Enqueue(sourceDocumentID string)
}

var _ Ingestor = (*DocumentIngestor)(nil)
