package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/csrdesk/internal/apperr"
	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/core/language"
	"github.com/markdave123-py/csrdesk/internal/core/templating"
	"github.com/markdave123-py/csrdesk/internal/models"
)

type TemplateService struct {
	db      core.TemplateStore
	builder *templating.ContextBuilder
}

func NewTemplateService(db core.TemplateStore, builder *templating.ContextBuilder) *TemplateService {
	return &TemplateService{db: db, builder: builder}
}

func parseKind(kind string) (string, error) {
	switch kind {
	case "":
		return models.TemplateKindSectionText, nil
	case models.TemplateKindSectionText, models.TemplateKindPrompt:
		return kind, nil
	default:
		return "", apperr.Validation("kind", "must be section_text or prompt")
	}
}

// ListForSection returns active templates of a section. Empty kind means
// section_text; empty language and scope match anything.
func (s *TemplateService) ListForSection(ctx context.Context, sectionCode, kind, lang, scope string) ([]models.Template, error) {
	kind, err := parseKind(kind)
	if err != nil {
		return nil, err
	}
	if lang != "" {
		if lang, err = language.Parse(lang); err != nil {
			return nil, err
		}
	}
	return s.db.ListTemplates(ctx, core.TemplateFilter{
		Kind: kind, SectionCode: sectionCode, Language: lang, Scope: scope, ActiveOnly: true,
	})
}

// Select returns the preferred active template or nil.
func (s *TemplateService) Select(ctx context.Context, sectionCode, kind, lang string) (*models.Template, error) {
	return s.db.SelectTemplate(ctx, sectionCode, kind, lang)
}

type CreateTemplateInput struct {
	Name        string
	Description string
	Kind        string
	SectionCode string
	Language    string
	Scope       string
	Content     string
	Variables   map[string]string
	IsDefault   bool
	CreatedBy   string
}

// Create stores a new template whose version is one above the highest
// existing version of the same (section, kind, language, scope).
func (s *TemplateService) Create(ctx context.Context, in CreateTemplateInput) (*models.Template, error) {
	kind, err := parseKind(in.Kind)
	if err != nil {
		return nil, err
	}
	lang, err := language.Parse(in.Language)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("name", "must not be empty")
	}
	if strings.TrimSpace(in.SectionCode) == "" {
		return nil, apperr.Validation("section_code", "must not be empty")
	}
	scope := in.Scope
	if scope == "" {
		scope = models.TemplateScopeGlobal
	}

	existing, err := s.db.ListTemplates(ctx, core.TemplateFilter{
		Kind: kind, SectionCode: in.SectionCode, Language: lang, Scope: scope,
	})
	if err != nil {
		return nil, err
	}
	version := 1
	for _, t := range existing {
		if t.Version >= version {
			version = t.Version + 1
		}
	}

	now := time.Now().UTC()
	t := &models.Template{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Kind:        kind,
		SectionCode: in.SectionCode,
		Language:    lang,
		Scope:       scope,
		Content:     in.Content,
		Variables:   in.Variables,
		IsDefault:   in.IsDefault,
		IsActive:    true,
		Version:     version,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.CreateTemplate(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Render renders a template against a study without persisting anything.
// An empty language uses the template's own language.
func (s *TemplateService) Render(ctx context.Context, templateID, studyID string, extra templating.Context, lang string) (*templating.Result, error) {
	tpl, err := s.db.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if lang == "" {
		lang = tpl.Language
	} else if lang, err = language.Parse(lang); err != nil {
		return nil, err
	}
	vars, err := s.builder.Build(ctx, studyID, extra, lang)
	if err != nil {
		return nil, err
	}
	res := templating.Render(tpl.Content, vars)
	return &res, nil
}
