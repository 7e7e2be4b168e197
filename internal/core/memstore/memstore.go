// Package memstore is an in-memory core.DbClient used by tests and the CLI dry-run.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/csrdesk/internal/apperr"
	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/models"
)

var _ core.DbClient = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	users     map[string]models.User
	studies   map[string]models.Study
	sources   map[string]models.SourceDocument
	chunks    map[string][]models.RagChunk // by source document id
	templates map[string]models.Template
	docs      map[string]models.OutputDocument
	sections  map[string]models.OutputSection
	versions  map[string][]models.OutputSectionVersion // by section id
	rules     map[string]models.QCRule                 // by code
	issues    []models.QCIssue
	aiLogs    []models.AICallLog
}

func New() *Store {
	return &Store{
		users:     map[string]models.User{},
		studies:   map[string]models.Study{},
		sources:   map[string]models.SourceDocument{},
		chunks:    map[string][]models.RagChunk{},
		templates: map[string]models.Template{},
		docs:      map[string]models.OutputDocument{},
		sections:  map[string]models.OutputSection{},
		versions:  map[string][]models.OutputSectionVersion{},
		rules:     map[string]models.QCRule{},
	}
}

func (s *Store) Close() error { return nil }

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func ensureTime(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}

// --- users & studies ---

// PutUser inserts or replaces a user.
func (s *Store) PutUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&u.ID)
	ensureTime(&u.CreatedAt)
	s.users[u.ID] = u
	return u
}

func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user", id)
	}
	return &u, nil
}

// PutStudy inserts or replaces a study.
func (s *Store) PutStudy(st models.Study) models.Study {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&st.ID)
	ensureTime(&st.CreatedAt)
	if st.Status == "" {
		st.Status = "active"
	}
	s.studies[st.ID] = st
	return st
}

func (s *Store) GetStudy(_ context.Context, id string) (*models.Study, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.studies[id]
	if !ok {
		return nil, apperr.NotFound("study", id)
	}
	return &st, nil
}

// --- sources ---

func (s *Store) CreateSourceDocument(_ context.Context, doc *models.SourceDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&doc.ID)
	ensureTime(&doc.UploadedAt)
	s.sources[doc.ID] = *doc
	return nil
}

func (s *Store) GetSourceDocument(_ context.Context, id string) (*models.SourceDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.sources[id]
	if !ok {
		return nil, apperr.NotFound("source document", id)
	}
	return &d, nil
}

func (s *Store) ListSourceDocuments(_ context.Context, studyID string, includeArchived bool) ([]models.SourceDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.SourceDocument
	for _, d := range s.sources {
		if d.StudyID != studyID {
			continue
		}
		if !includeArchived && d.Status == models.SourceStatusArchived {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateSourceStatus(_ context.Context, id, status string, isCurrent bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.sources[id]
	if !ok {
		return apperr.NotFound("source document", id)
	}
	d.Status = status
	d.IsCurrent = isCurrent
	s.sources[id] = d
	return nil
}

func (s *Store) UpdateSourceIndexStatus(_ context.Context, id, indexStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.sources[id]
	if !ok {
		return apperr.NotFound("source document", id)
	}
	d.IndexStatus = indexStatus
	s.sources[id] = d
	return nil
}

// CreateCurrentSource supersedes and inserts under one lock. A duplicate id is
// rejected before anything is touched.
func (s *Store) CreateCurrentSource(_ context.Context, doc *models.SourceDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&doc.ID)
	ensureTime(&doc.UploadedAt)
	if _, ok := s.sources[doc.ID]; ok {
		return fmt.Errorf("source document %s already exists", doc.ID)
	}
	for id, d := range s.sources {
		if d.StudyID == doc.StudyID && d.Category == doc.Category && d.Language == doc.Language && d.IsCurrent {
			d.IsCurrent = false
			d.Status = models.SourceStatusSuperseded
			s.sources[id] = d
		}
	}
	s.sources[doc.ID] = *doc
	return nil
}

func (s *Store) DeleteSourceDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sources[id]; !ok {
		return apperr.NotFound("source document", id)
	}
	delete(s.sources, id)
	delete(s.chunks, id)
	return nil
}

// --- chunks ---

func (s *Store) ReplaceChunks(_ context.Context, sourceDocumentID string, chunks []models.RagChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sources[sourceDocumentID]; !ok {
		return apperr.NotFound("source document", sourceDocumentID)
	}
	cp := make([]models.RagChunk, len(chunks))
	copy(cp, chunks)
	for i := range cp {
		ensureID(&cp[i].ID)
		ensureTime(&cp[i].CreatedAt)
	}
	s.chunks[sourceDocumentID] = cp
	return nil
}

func (s *Store) ListChunks(_ context.Context, q core.ChunkQuery) ([]models.RagChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.RagChunk
	for srcID, cs := range s.chunks {
		src := s.sources[srcID]
		if q.Language != "" && src.Language != q.Language {
			continue
		}
		for _, c := range cs {
			if c.StudyID == q.StudyID && c.Category == q.Category {
				out = append(out, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// ChunkCount returns how many chunks a source document currently has.
func (s *Store) ChunkCount(sourceDocumentID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks[sourceDocumentID])
}

// --- templates ---

func (s *Store) CreateTemplate(_ context.Context, t *models.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&t.ID)
	ensureTime(&t.CreatedAt)
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	s.templates[t.ID] = *t
	return nil
}

func (s *Store) GetTemplate(_ context.Context, id string) (*models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, apperr.NotFound("template", id)
	}
	return &t, nil
}

func matchTemplate(t models.Template, f core.TemplateFilter) bool {
	return (f.Kind == "" || t.Kind == f.Kind) &&
		(f.SectionCode == "" || t.SectionCode == f.SectionCode) &&
		(f.Language == "" || t.Language == f.Language) &&
		(f.Scope == "" || t.Scope == f.Scope) &&
		(!f.ActiveOnly || t.IsActive)
}

// templateLess orders default templates first, then by descending version.
func templateLess(a, b models.Template) bool {
	if a.IsDefault != b.IsDefault {
		return a.IsDefault
	}
	if a.Version != b.Version {
		return a.Version > b.Version
	}
	return a.ID < b.ID
}

func (s *Store) ListTemplates(_ context.Context, f core.TemplateFilter) ([]models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Template
	for _, t := range s.templates {
		if matchTemplate(t, f) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return templateLess(out[i], out[j]) })
	return out, nil
}

func (s *Store) SelectTemplate(ctx context.Context, sectionCode, kind, language string) (*models.Template, error) {
	list, err := s.ListTemplates(ctx, core.TemplateFilter{
		Kind: kind, SectionCode: sectionCode, Language: language, ActiveOnly: true,
	})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

// --- output documents ---

func (s *Store) sectionsOf(documentID string) []models.OutputSection {
	var out []models.OutputSection
	for _, sec := range s.sections {
		if sec.DocumentID == documentID {
			out = append(out, sec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) GetOutputDocument(_ context.Context, id string) (*models.OutputDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, apperr.NotFound("output document", id)
	}
	d.Sections = s.sectionsOf(id)
	return &d, nil
}

func (s *Store) GetOutputDocumentByStudy(_ context.Context, studyID string) (*models.OutputDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.OutputDocument
	for _, d := range s.docs {
		if d.StudyID != studyID {
			continue
		}
		if found == nil || d.CreatedAt.Before(found.CreatedAt) {
			d := d
			found = &d
		}
	}
	if found != nil {
		found.Sections = s.sectionsOf(found.ID)
	}
	return found, nil
}

func (s *Store) CreateOutputDocument(_ context.Context, doc *models.OutputDocument, sections []models.OutputSection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&doc.ID)
	ensureTime(&doc.CreatedAt)
	stored := *doc
	stored.Sections = nil
	s.docs[doc.ID] = stored

	doc.Sections = doc.Sections[:0]
	for _, sec := range sections {
		ensureID(&sec.ID)
		sec.DocumentID = doc.ID
		s.sections[sec.ID] = sec
		doc.Sections = append(doc.Sections, sec)
	}
	return nil
}

// PutSection adds a section to an existing document.
func (s *Store) PutSection(sec models.OutputSection) models.OutputSection {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&sec.ID)
	s.sections[sec.ID] = sec
	return sec
}

func (s *Store) ListSections(_ context.Context, documentID string) ([]models.OutputSection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.docs[documentID]; !ok {
		return nil, apperr.NotFound("output document", documentID)
	}
	return s.sectionsOf(documentID), nil
}

func (s *Store) GetSection(_ context.Context, id string) (*models.OutputSection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.sections[id]
	if !ok {
		return nil, apperr.NotFound("section", id)
	}
	return &sec, nil
}

func (s *Store) CreateSectionVersion(_ context.Context, v *models.OutputSectionVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sections[v.SectionID]; !ok {
		return apperr.NotFound("section", v.SectionID)
	}
	ensureID(&v.ID)
	ensureTime(&v.CreatedAt)
	s.versions[v.SectionID] = append(s.versions[v.SectionID], *v)
	return nil
}

func (s *Store) LatestSectionVersion(_ context.Context, sectionID string) (*models.OutputSectionVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vs := s.versions[sectionID]
	if len(vs) == 0 {
		return nil, apperr.NotFound("section version", sectionID)
	}
	best := vs[0]
	for _, v := range vs[1:] {
		if v.CreatedAt.After(best.CreatedAt) || (v.CreatedAt.Equal(best.CreatedAt) && v.ID > best.ID) {
			best = v
		}
	}
	return &best, nil
}

// --- QC ---

func (s *Store) GetRuleByCode(_ context.Context, code string) (*models.QCRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[code]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *Store) CreateRule(_ context.Context, rule *models.QCRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&rule.ID)
	s.rules[rule.Code] = *rule
	return nil
}

func (s *Store) ReplaceOpenIssues(_ context.Context, documentID, ruleID string, issues []models.QCIssue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.issues[:0:0]
	for _, is := range s.issues {
		if is.Status == models.IssueStatusOpen && is.RuleID == ruleID && models.Deref(is.DocumentID) == documentID {
			continue
		}
		kept = append(kept, is)
	}
	for i := range issues {
		ensureID(&issues[i].ID)
		ensureTime(&issues[i].CreatedAt)
		kept = append(kept, issues[i])
	}
	s.issues = kept
	return nil
}

func (s *Store) ListIssues(_ context.Context, f core.IssueFilter) ([]models.QCIssue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.QCIssue
	for _, is := range s.issues {
		if f.StudyID != "" && is.StudyID != f.StudyID {
			continue
		}
		if f.DocumentID != "" && models.Deref(is.DocumentID) != f.DocumentID {
			continue
		}
		if f.Status != "" && is.Status != f.Status {
			continue
		}
		if f.Severity != "" && is.Severity != f.Severity {
			continue
		}
		out = append(out, is)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- AI call logs ---

func (s *Store) CreateAICallLog(_ context.Context, entry *models.AICallLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&entry.ID)
	ensureTime(&entry.CreatedAt)
	s.aiLogs = append(s.aiLogs, *entry)
	return nil
}

// AICallLogs returns a copy of every logged call in insertion order.
func (s *Store) AICallLogs() []models.AICallLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AICallLog, len(s.aiLogs))
	copy(out, s.aiLogs)
	return out
}
