package services

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/csrdesk/internal/apperr"
	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/core/language"
	"github.com/markdave123-py/csrdesk/internal/logger"
	"github.com/markdave123-py/csrdesk/internal/models"
)

// Indexer is the ingestion surface the source service drives.
type Indexer interface {
	Ingest(ctx context.Context, sourceDocumentID string) (int, error)
	Enqueue(sourceDocumentID string)
}

// ContextRetriever returns the context_* blocks of a study.
type ContextRetriever interface {
	ContextFor(ctx context.Context, studyID, language string) (map[string]string, error)
}

type SourceStore interface {
	core.StudyStore
	core.SourceStore
}

type SourceService struct {
	db       SourceStore
	storage  core.ObjectClient
	bucket   string
	indexer  Indexer
	contexts ContextRetriever
	log      *logger.Logger
}

func NewSourceService(db SourceStore, storage core.ObjectClient, bucket string, indexer Indexer, contexts ContextRetriever, log *logger.Logger) *SourceService {
	if log == nil {
		log = logger.Nop()
	}
	return &SourceService{
		db: db, storage: storage, bucket: bucket, indexer: indexer, contexts: contexts,
		log: log.With("component", "sources"),
	}
}

type UploadSourceInput struct {
	StudyID      string
	Category     string
	Language     string
	FileName     string
	ContentType  string
	VersionLabel string
	Data         []byte
	RAGEnabled   bool
	UploadedBy   string
}

func validCategory(c string) bool {
	for _, k := range models.Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Upload stores the file, supersedes the previous current document of the
// same (study, category, language) and schedules background indexing.
func (s *SourceService) Upload(ctx context.Context, in UploadSourceInput) (*models.SourceDocument, error) {
	if !validCategory(in.Category) {
		return nil, apperr.Validation("category", "must be one of protocol, sap, tlf, csr_prev")
	}
	lang, err := language.Parse(in.Language)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.FileName) == "" {
		return nil, apperr.Validation("file", "file name is empty")
	}
	if _, err := s.db.GetStudy(ctx, in.StudyID); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	key := s.objectKey(in.StudyID, id, in.FileName)
	if _, err := s.storage.UploadFile(ctx, s.bucket, key, in.Data, in.ContentType); err != nil {
		return nil, err
	}

	doc := &models.SourceDocument{
		ID:           id,
		StudyID:      in.StudyID,
		Category:     in.Category,
		FileName:     in.FileName,
		StorageKey:   key,
		ContentType:  in.ContentType,
		Language:     lang,
		VersionLabel: in.VersionLabel,
		Status:       models.SourceStatusActive,
		IsCurrent:    true,
		IsRAGEnabled: in.RAGEnabled,
		IndexStatus:  models.IndexStatusNotIndexed,
		UploadedBy:   in.UploadedBy,
		UploadedAt:   time.Now().UTC(),
	}
	if err := s.db.CreateCurrentSource(ctx, doc); err != nil {
		if delErr := s.storage.DeleteFile(ctx, s.bucket, key); delErr != nil {
			s.log.Warn("delete orphaned object failed", "key", key, "err", delErr)
		}
		return nil, err
	}

	if doc.IsRAGEnabled && s.indexer != nil {
		s.indexer.Enqueue(doc.ID)
	}
	s.log.Info("source uploaded", "source_document_id", doc.ID, "study_id", doc.StudyID, "category", doc.Category, "language", doc.Language)
	return doc, nil
}

func (s *SourceService) List(ctx context.Context, studyID string, includeArchived bool) ([]models.SourceDocument, error) {
	if _, err := s.db.GetStudy(ctx, studyID); err != nil {
		return nil, err
	}
	return s.db.ListSourceDocuments(ctx, studyID, includeArchived)
}

func (s *SourceService) Get(ctx context.Context, id string) (*models.SourceDocument, error) {
	return s.db.GetSourceDocument(ctx, id)
}

// Archive hides the document from listings; its chunks stay.
func (s *SourceService) Archive(ctx context.Context, id string) (*models.SourceDocument, error) {
	if _, err := s.db.GetSourceDocument(ctx, id); err != nil {
		return nil, err
	}
	if err := s.db.UpdateSourceStatus(ctx, id, models.SourceStatusArchived, false); err != nil {
		return nil, err
	}
	return s.db.GetSourceDocument(ctx, id)
}

// Restore reactivates the document. It becomes current again only when no
// other document of its (study, category, language) is current.
func (s *SourceService) Restore(ctx context.Context, id string) (*models.SourceDocument, error) {
	doc, err := s.db.GetSourceDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	siblings, err := s.db.ListSourceDocuments(ctx, doc.StudyID, false)
	if err != nil {
		return nil, err
	}
	current := true
	for _, sib := range siblings {
		if sib.ID != doc.ID && sib.IsCurrent && sib.Category == doc.Category && sib.Language == doc.Language {
			current = false
			break
		}
	}
	if err := s.db.UpdateSourceStatus(ctx, id, models.SourceStatusActive, current); err != nil {
		return nil, err
	}
	return s.db.GetSourceDocument(ctx, id)
}

// Delete removes the row and its chunks; the stored object is removed best-effort.
func (s *SourceService) Delete(ctx context.Context, id string) error {
	doc, err := s.db.GetSourceDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.DeleteSourceDocument(ctx, id); err != nil {
		return err
	}
	if err := s.storage.DeleteFile(ctx, s.bucket, doc.StorageKey); err != nil {
		s.log.Warn("delete stored object failed", "source_document_id", id, "key", doc.StorageKey, "err", err)
	}
	return nil
}

// Reindex runs ingestion synchronously and returns the chunk count.
func (s *SourceService) Reindex(ctx context.Context, id string) (int, error) {
	return s.indexer.Ingest(ctx, id)
}

// StudyContext returns the assembled context_* blocks. An empty language
// means no preference; anything else must be ru or en.
func (s *SourceService) StudyContext(ctx context.Context, studyID, lang string) (map[string]string, error) {
	if lang != "" {
		var err error
		if lang, err = language.Parse(lang); err != nil {
			return nil, err
		}
	}
	if _, err := s.db.GetStudy(ctx, studyID); err != nil {
		return nil, err
	}
	return s.contexts.ContextFor(ctx, studyID, lang)
}

// objectKey creates a consistent storage key layout.
func (s *SourceService) objectKey(studyID, docID, filename string) string {
	filename = path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	filename = strings.ReplaceAll(filename, " ", "_")
	return path.Join("studies", studyID, "sources", docID, filename)
}
