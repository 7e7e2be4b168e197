package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/csrdesk/internal/apperr"
	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/core/language"
	"github.com/markdave123-py/csrdesk/internal/core/templating"
	"github.com/markdave123-py/csrdesk/internal/logger"
	"github.com/markdave123-py/csrdesk/internal/models"
)

type OutputStore interface {
	core.StudyStore
	core.OutputStore
	core.TemplateStore
}

type OutputService struct {
	db      OutputStore
	builder *templating.ContextBuilder
	log     *logger.Logger
}

func NewOutputService(db OutputStore, builder *templating.ContextBuilder, log *logger.Logger) *OutputService {
	if log == nil {
		log = logger.Nop()
	}
	return &OutputService{db: db, builder: builder, log: log.With("component", "output")}
}

// GetOrCreate returns the study's output document, creating it with the
// default sections on first access. lang sets the content language of a new
// document; empty leaves it unset.
func (s *OutputService) GetOrCreate(ctx context.Context, studyID, lang string) (*models.OutputDocument, error) {
	if lang != "" {
		var err error
		if lang, err = language.Parse(lang); err != nil {
			return nil, err
		}
	}
	st, err := s.db.GetStudy(ctx, studyID)
	if err != nil {
		return nil, err
	}
	doc, err := s.db.GetOutputDocumentByStudy(ctx, studyID)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		return doc, nil
	}

	doc = &models.OutputDocument{
		ID:        uuid.NewString(),
		StudyID:   studyID,
		Title:     fmt.Sprintf("CSR for study %s", st.Code),
		Status:    "draft",
		Language:  lang,
		CreatedAt: time.Now().UTC(),
	}
	sections := make([]models.OutputSection, 0, len(models.DefaultSections))
	for i, d := range models.DefaultSections {
		sections = append(sections, models.OutputSection{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Code:       d.Code,
			Title:      d.Title,
			OrderIndex: i + 1,
		})
	}
	if err := s.db.CreateOutputDocument(ctx, doc, sections); err != nil {
		return nil, err
	}
	doc.Sections = sections
	s.log.Info("output document created", "document_id", doc.ID, "study_id", studyID, "sections", len(sections))
	return doc, nil
}

// ListSections returns the sections of the study's output document.
func (s *OutputService) ListSections(ctx context.Context, studyID string) ([]models.OutputSection, error) {
	doc, err := s.db.GetOutputDocumentByStudy(ctx, studyID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperr.NotFound("output document for study", studyID)
	}
	return s.db.ListSections(ctx, doc.ID)
}

func (s *OutputService) LatestVersion(ctx context.Context, sectionID string) (*models.OutputSectionVersion, error) {
	if _, err := s.db.GetSection(ctx, sectionID); err != nil {
		return nil, err
	}
	return s.db.LatestSectionVersion(ctx, sectionID)
}

// CreateVersion appends a human-authored version.
func (s *OutputService) CreateVersion(ctx context.Context, sectionID, text, createdBy string) (*models.OutputSectionVersion, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("text", "must not be empty")
	}
	if _, err := s.db.GetSection(ctx, sectionID); err != nil {
		return nil, err
	}
	return appendVersion(ctx, s.db, sectionID, text, models.VersionSourceHuman, nil, createdBy)
}

type ApplyTemplateInput struct {
	StudyID         string
	SectionID       string
	TemplateID      string
	Extra           templating.Context
	User            *models.User
	RequestLanguage string
}

type ApplyTemplateResult struct {
	Version *models.OutputSectionVersion `json:"version"`
	Render  templating.Result            `json:"render"`
}

// ApplyTemplate renders a template in the document's content language and
// appends the result as a template version of the section.
func (s *OutputService) ApplyTemplate(ctx context.Context, in ApplyTemplateInput) (*ApplyTemplateResult, error) {
	_, doc, err := resolveSection(ctx, s.db, in.StudyID, in.SectionID)
	if err != nil {
		return nil, err
	}
	tpl, err := s.db.GetTemplate(ctx, in.TemplateID)
	if err != nil {
		return nil, err
	}

	lang := language.ResolveContent(doc, in.User, in.RequestLanguage)
	vars, err := s.builder.Build(ctx, in.StudyID, in.Extra, lang)
	if err != nil {
		return nil, err
	}
	res := templating.Render(tpl.Content, vars)
	if len(res.Missing) > 0 {
		s.log.Debug("template rendered with missing variables", "template_id", tpl.ID, "missing", res.Missing)
	}

	createdBy := ""
	if in.User != nil {
		createdBy = in.User.ID
	}
	tplID := tpl.ID
	v, err := appendVersion(ctx, s.db, in.SectionID, res.Text, models.VersionSourceTemplate, &tplID, createdBy)
	if err != nil {
		return nil, err
	}
	return &ApplyTemplateResult{Version: v, Render: res}, nil
}

// resolveSection loads a section and its document and checks that the
// document belongs to studyID.
func resolveSection(ctx context.Context, db core.OutputStore, studyID, sectionID string) (*models.OutputSection, *models.OutputDocument, error) {
	sec, err := db.GetSection(ctx, sectionID)
	if err != nil {
		return nil, nil, err
	}
	doc, err := db.GetOutputDocument(ctx, sec.DocumentID)
	if err != nil {
		return nil, nil, err
	}
	if doc.StudyID != studyID {
		return nil, nil, apperr.Validation("section_id", fmt.Sprintf("section %s does not belong to study %s", sectionID, studyID))
	}
	return sec, doc, nil
}

func appendVersion(ctx context.Context, db core.OutputStore, sectionID, text, source string, templateID *string, createdBy string) (*models.OutputSectionVersion, error) {
	v := &models.OutputSectionVersion{
		ID:         uuid.NewString(),
		SectionID:  sectionID,
		Text:       text,
		Source:     source,
		TemplateID: templateID,
		CreatedBy:  createdBy,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.CreateSectionVersion(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}
