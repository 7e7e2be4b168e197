package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/csrdesk/internal/apperr"
	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/logger"
	"github.com/markdave123-py/csrdesk/internal/models"
)

// jobTimeout bounds one background re-index.
const jobTimeout = 5 * time.Minute

type DocumentIngestor struct {
	sources   core.SourceStore
	chunks    core.ChunkStore
	obj       core.ObjectClient
	extractor core.TextExtractor
	cfg       IngestConfig
	log       *logger.Logger

	jobs chan string
	wg   sync.WaitGroup
}

// NewDocumentIngestor constructs the ingestor with a bounded job queue.
func NewDocumentIngestor(sources core.SourceStore, chunks core.ChunkStore, obj core.ObjectClient, extractor core.TextExtractor, cfg *IngestConfig, log *logger.Logger) *DocumentIngestor {
	c := cfg.withDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &DocumentIngestor{
		sources:   sources,
		chunks:    chunks,
		obj:       obj,
		extractor: extractor,
		cfg:       c,
		log:       log.With("component", "ingestor"),
		jobs:      make(chan string, c.QueueSize),
	}
}

// Ingest fully re-indexes one source document and returns the number of chunks stored.
// Extraction happens before the old chunks are replaced, so a failed re-index
// leaves the previous chunks in place and flips the index status to error.
func (i *DocumentIngestor) Ingest(ctx context.Context, sourceDocumentID string) (int, error) {
	doc, err := i.sources.GetSourceDocument(ctx, sourceDocumentID)
	if err != nil {
		return 0, err
	}

	text, err := i.extract(ctx, doc)
	if err != nil {
		if serr := i.sources.UpdateSourceIndexStatus(ctx, doc.ID, models.IndexStatusError); serr != nil {
			i.log.Error("mark index error failed", "source_document_id", doc.ID, "err", serr)
		}
		return 0, err
	}

	parts := ChunkText(text, i.cfg.MaxChunkSize, i.cfg.MinChunkSize)
	now := time.Now().UTC()
	rows := make([]models.RagChunk, 0, len(parts))
	for idx, p := range parts {
		rows = append(rows, models.RagChunk{
			ID:               uuid.NewString(),
			StudyID:          doc.StudyID,
			SourceDocumentID: doc.ID,
			Category:         doc.Category,
			OrderIndex:       idx,
			Text:             p,
			CreatedAt:        now,
		})
	}

	if err := i.chunks.ReplaceChunks(ctx, doc.ID, rows); err != nil {
		return 0, fmt.Errorf("replace chunks: %w", err)
	}
	if err := i.sources.UpdateSourceIndexStatus(ctx, doc.ID, models.IndexStatusIndexed); err != nil {
		return 0, fmt.Errorf("mark indexed: %w", err)
	}

	i.log.Info("source indexed", "source_document_id", doc.ID, "category", doc.Category, "chunks", len(rows))
	return len(rows), nil
}

func (i *DocumentIngestor) extract(ctx context.Context, doc *models.SourceDocument) (string, error) {
	data, err := i.obj.GetFile(ctx, i.cfg.Bucket, doc.StorageKey)
	if err != nil {
		return "", apperr.Extraction(fmt.Errorf("read %s: %w", doc.StorageKey, err))
	}
	text, err := i.extractor.ExtractText(ctx, data, doc.FileName)
	if err != nil {
		if apperr.IsExtraction(err) {
			return "", err
		}
		return "", apperr.Extraction(err)
	}
	return text, nil
}

// Start runs numWorkers goroutines draining the job queue until ctx is done.
func (i *DocumentIngestor) Start(ctx context.Context, numWorkers int) {
	if numWorkers <= 0 {
		numWorkers = i.cfg.Workers
	}
	for w := 1; w <= numWorkers; w++ {
		i.wg.Add(1)
		go func(w int) {
			defer i.wg.Done()
			for {
				select {
				case <-ctx.Done():
					i.log.Debug("worker shutting down", "worker", w)
					return
				case id := <-i.jobs:
					i.processOne(ctx, w, id)
				}
			}
		}(w)
	}
}

// Wait blocks until every worker started by Start has returned.
func (i *DocumentIngestor) Wait() {
	i.wg.Wait()
}

// Enqueue schedules a background re-index. It never blocks; a full queue drops
// the job with a warning and the document stays not_indexed until triggered again.
func (i *DocumentIngestor) Enqueue(sourceDocumentID string) {
	select {
	case i.jobs <- sourceDocumentID:
	default:
		i.log.Warn("ingest queue full, job dropped", "source_document_id", sourceDocumentID)
	}
}

func (i *DocumentIngestor) processOne(ctx context.Context, worker int, id string) {
	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	n, err := i.Ingest(jobCtx, id)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		i.log.Error("background ingest failed", "worker", worker, "source_document_id", id, "err", err)
		return
	}
	i.log.Debug("background ingest done", "worker", worker, "source_document_id", id, "chunks", n)
}
