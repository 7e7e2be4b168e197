package core

import (
	"context"

	"github.com/markdave123-py/csrdesk/internal/models"
)

// Lookups return an apperr NotFound error when the id is unknown.

type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type StudyStore interface {
	GetStudy(ctx context.Context, id string) (*models.Study, error)
}

type SourceStore interface {
	CreateSourceDocument(ctx context.Context, doc *models.SourceDocument) error
	GetSourceDocument(ctx context.Context, id string) (*models.SourceDocument, error)
	ListSourceDocuments(ctx context.Context, studyID string, includeArchived bool) ([]models.SourceDocument, error)
	UpdateSourceStatus(ctx context.Context, id, status string, isCurrent bool) error
	UpdateSourceIndexStatus(ctx context.Context, id, indexStatus string) error
	// CreateCurrentSource atomically supersedes every current document of the
	// doc's (study, category, language) and inserts doc. On error nothing changes.
	CreateCurrentSource(ctx context.Context, doc *models.SourceDocument) error
	// DeleteSourceDocument removes the document and its chunks.
	DeleteSourceDocument(ctx context.Context, id string) error
}

// ChunkQuery selects chunks of one study and category, ordered by order_index.
// An empty Language matches any source document language.
type ChunkQuery struct {
	StudyID  string
	Category string
	Language string
	Limit    int
}

type ChunkStore interface {
	// ReplaceChunks atomically deletes the source document's chunks and inserts the new set.
	ReplaceChunks(ctx context.Context, sourceDocumentID string, chunks []models.RagChunk) error
	ListChunks(ctx context.Context, q ChunkQuery) ([]models.RagChunk, error)
}

// TemplateFilter narrows template listings; empty fields match anything.
type TemplateFilter struct {
	Kind        string
	SectionCode string
	Language    string
	Scope       string
	ActiveOnly  bool
}

type TemplateStore interface {
	CreateTemplate(ctx context.Context, t *models.Template) error
	GetTemplate(ctx context.Context, id string) (*models.Template, error)
	ListTemplates(ctx context.Context, f TemplateFilter) ([]models.Template, error)
	// SelectTemplate returns the active match preferring default, then highest version; nil when none.
	SelectTemplate(ctx context.Context, sectionCode, kind, language string) (*models.Template, error)
}

type OutputStore interface {
	GetOutputDocument(ctx context.Context, id string) (*models.OutputDocument, error)
	// GetOutputDocumentByStudy returns nil, nil when the study has none yet.
	GetOutputDocumentByStudy(ctx context.Context, studyID string) (*models.OutputDocument, error)
	CreateOutputDocument(ctx context.Context, doc *models.OutputDocument, sections []models.OutputSection) error
	ListSections(ctx context.Context, documentID string) ([]models.OutputSection, error)
	GetSection(ctx context.Context, id string) (*models.OutputSection, error)
	CreateSectionVersion(ctx context.Context, v *models.OutputSectionVersion) error
	LatestSectionVersion(ctx context.Context, sectionID string) (*models.OutputSectionVersion, error)
}

type IssueFilter struct {
	StudyID    string
	DocumentID string
	Status     string
	Severity   string
}

type QCStore interface {
	// GetRuleByCode returns nil, nil when the rule has not been created yet.
	GetRuleByCode(ctx context.Context, code string) (*models.QCRule, error)
	CreateRule(ctx context.Context, rule *models.QCRule) error
	// ReplaceOpenIssues deletes open issues of (document, rule) and inserts the new ones in one transaction.
	ReplaceOpenIssues(ctx context.Context, documentID, ruleID string, issues []models.QCIssue) error
	ListIssues(ctx context.Context, f IssueFilter) ([]models.QCIssue, error)
}

type AICallLogStore interface {
	CreateAICallLog(ctx context.Context, entry *models.AICallLog) error
}

// DbClient defines all persistence operations the services need.
// It abstracts Postgres so higher layers never depend on a specific DB.
type DbClient interface {
	UserStore
	StudyStore
	SourceStore
	ChunkStore
	TemplateStore
	OutputStore
	QCStore
	AICallLogStore

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
}
