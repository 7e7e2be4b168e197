package services

import (
	"context"

	"github.com/markdave123-py/csrdesk/internal/apperr"
	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/core/language"
	"github.com/markdave123-py/csrdesk/internal/core/qc"
	"github.com/markdave123-py/csrdesk/internal/models"
)

type QCStore interface {
	core.StudyStore
	core.OutputStore
	core.QCStore
}

type QCService struct {
	db     QCStore
	engine *qc.Engine
}

func NewQCService(db QCStore, engine *qc.Engine) *QCService {
	return &QCService{db: db, engine: engine}
}

// Run checks an output document in its content language.
func (s *QCService) Run(ctx context.Context, documentID string, user *models.User, requestLanguage string) ([]models.QCIssue, error) {
	doc, err := s.db.GetOutputDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	lang := language.ResolveContent(doc, user, requestLanguage)
	issues, err := s.engine.Run(ctx, doc.ID, doc.StudyID, lang)
	if err != nil {
		return nil, err
	}
	if issues == nil {
		issues = []models.QCIssue{}
	}
	return issues, nil
}

// ListIssues returns a study's issues newest first. Unknown status or
// severity filters are rejected.
func (s *QCService) ListIssues(ctx context.Context, f core.IssueFilter) ([]models.QCIssue, error) {
	switch f.Status {
	case "", models.IssueStatusOpen, models.IssueStatusResolved, models.IssueStatusWontFix:
	default:
		return nil, apperr.Validation("status", "must be open, resolved or wont_fix")
	}
	switch f.Severity {
	case "", models.SeverityInfo, models.SeverityWarning, models.SeverityError:
	default:
		return nil, apperr.Validation("severity", "must be info, warning or error")
	}
	if _, err := s.db.GetStudy(ctx, f.StudyID); err != nil {
		return nil, err
	}
	issues, err := s.db.ListIssues(ctx, f)
	if err != nil {
		return nil, err
	}
	if issues == nil {
		issues = []models.QCIssue{}
	}
	return issues, nil
}
