package qc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/logger"
	"github.com/markdave123-py/csrdesk/internal/models"
)

// Store is the persistence the engine needs.
type Store interface {
	core.OutputStore
	core.QCStore
}

type Engine struct {
	store Store
	rules []Rule
	cfg   Config
	log   *logger.Logger
}

func NewEngine(store Store, cfg Config, log *logger.Logger, rules ...Rule) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{store: store, rules: rules, cfg: cfg, log: log.With("component", "qc")}
}

// Run evaluates every rule against the document and reconciles its open
// issues: for each rule, open issues of (document, rule) are replaced by the
// fresh findings. Resolved and wont_fix issues are left alone.
func (e *Engine) Run(ctx context.Context, documentID, studyID, lang string) ([]models.QCIssue, error) {
	doc, err := e.store.GetOutputDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Sections == nil {
		if doc.Sections, err = e.store.ListSections(ctx, documentID); err != nil {
			return nil, fmt.Errorf("list sections: %w", err)
		}
	}

	var created []models.QCIssue
	for _, rule := range e.rules {
		issues, err := e.runRule(ctx, rule, doc, studyID, lang)
		if err != nil {
			return nil, err
		}
		created = append(created, issues...)
	}

	e.log.Info("qc run finished", "document_id", documentID, "language", lang, "issues", len(created))
	return created, nil
}

func (e *Engine) runRule(ctx context.Context, rule Rule, doc *models.OutputDocument, studyID, lang string) ([]models.QCIssue, error) {
	row, err := e.ensureRule(ctx, rule)
	if err != nil {
		return nil, err
	}
	rc := e.cfg.ForRule(row.Code, lang)
	if !row.IsActive || !rc.enabled() {
		return nil, nil
	}

	severity := row.Severity
	if rc.Severity != "" {
		severity = rc.Severity
	}

	findings, err := rule.Check(ctx, doc, lang)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", row.Code, err)
	}

	now := time.Now().UTC()
	docID := doc.ID
	issues := make([]models.QCIssue, 0, len(findings))
	for _, f := range findings {
		issues = append(issues, models.QCIssue{
			ID:         uuid.NewString(),
			StudyID:    studyID,
			DocumentID: &docID,
			SectionID:  f.SectionID,
			RuleID:     row.ID,
			Severity:   severity,
			Status:     models.IssueStatusOpen,
			Message:    f.Message,
			CreatedAt:  now,
		})
	}

	if err := e.store.ReplaceOpenIssues(ctx, doc.ID, row.ID, issues); err != nil {
		return nil, fmt.Errorf("reconcile %s issues: %w", row.Code, err)
	}
	return issues, nil
}

// ensureRule loads the stored rule, creating it from the definition on first use.
func (e *Engine) ensureRule(ctx context.Context, rule Rule) (*models.QCRule, error) {
	def := rule.Definition()
	row, err := e.store.GetRuleByCode(ctx, def.Code)
	if err != nil {
		return nil, fmt.Errorf("load rule %s: %w", def.Code, err)
	}
	if row != nil {
		return row, nil
	}

	def.ID = uuid.NewString()
	if err := e.store.CreateRule(ctx, &def); err != nil {
		return nil, fmt.Errorf("create rule %s: %w", def.Code, err)
	}
	e.log.Info("qc rule created", "code", def.Code, "severity", def.Severity)
	return &def, nil
}
