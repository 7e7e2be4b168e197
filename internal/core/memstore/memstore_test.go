package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/csrdesk/internal/apperr"
	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/models"
)

func TestListChunksFiltersByOwningSourceLanguage(t *testing.T) {
	ctx := context.Background()
	s := New()
	st := s.PutStudy(models.Study{Code: "ST-1", Title: "Study"})

	en := &models.SourceDocument{StudyID: st.ID, Category: models.CategoryProtocol, Language: "en"}
	ru := &models.SourceDocument{StudyID: st.ID, Category: models.CategoryProtocol, Language: "ru"}
	require.NoError(t, s.CreateSourceDocument(ctx, en))
	require.NoError(t, s.CreateSourceDocument(ctx, ru))
	require.NoError(t, s.ReplaceChunks(ctx, en.ID, []models.RagChunk{
		{StudyID: st.ID, Category: models.CategoryProtocol, OrderIndex: 1, Text: "en-1"},
		{StudyID: st.ID, Category: models.CategoryProtocol, OrderIndex: 0, Text: "en-0"},
	}))
	require.NoError(t, s.ReplaceChunks(ctx, ru.ID, []models.RagChunk{
		{StudyID: st.ID, Category: models.CategoryProtocol, OrderIndex: 0, Text: "ru-0"},
	}))

	got, err := s.ListChunks(ctx, core.ChunkQuery{StudyID: st.ID, Category: models.CategoryProtocol, Language: "en", Limit: 5})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "en-0", got[0].Text)
	assert.Equal(t, "en-1", got[1].Text)

	all, err := s.ListChunks(ctx, core.ChunkQuery{StudyID: st.ID, Category: models.CategoryProtocol, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 0, all[0].OrderIndex)
	assert.Equal(t, 0, all[1].OrderIndex)
}

func TestSelectTemplatePrefersDefaultThenVersion(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, tpl := range []models.Template{
		{Name: "v1", SectionCode: "SAFETY", Kind: models.TemplateKindSectionText, Language: "en", IsActive: true, Version: 1},
		{Name: "v3", SectionCode: "SAFETY", Kind: models.TemplateKindSectionText, Language: "en", IsActive: true, Version: 3},
		{Name: "v9-inactive", SectionCode: "SAFETY", Kind: models.TemplateKindSectionText, Language: "en", IsActive: false, Version: 9},
	} {
		tpl := tpl
		require.NoError(t, s.CreateTemplate(ctx, &tpl))
	}

	got, err := s.SelectTemplate(ctx, "SAFETY", models.TemplateKindSectionText, "en")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v3", got.Name)

	def := models.Template{Name: "default", SectionCode: "SAFETY", Kind: models.TemplateKindSectionText, Language: "en", IsActive: true, IsDefault: true, Version: 1}
	require.NoError(t, s.CreateTemplate(ctx, &def))
	got, err = s.SelectTemplate(ctx, "SAFETY", models.TemplateKindSectionText, "en")
	require.NoError(t, err)
	assert.Equal(t, "default", got.Name)

	none, err := s.SelectTemplate(ctx, "SAFETY", models.TemplateKindPrompt, "en")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestLatestSectionVersion(t *testing.T) {
	ctx := context.Background()
	s := New()
	doc := &models.OutputDocument{StudyID: "st"}
	require.NoError(t, s.CreateOutputDocument(ctx, doc, []models.OutputSection{{Code: "SYNOPSIS", Title: "Synopsis", OrderIndex: 1}}))
	secID := doc.Sections[0].ID

	_, err := s.LatestSectionVersion(ctx, secID)
	assert.True(t, apperr.IsNotFound(err))

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateSectionVersion(ctx, &models.OutputSectionVersion{ID: "b", SectionID: secID, Text: "second", CreatedAt: ts}))
	require.NoError(t, s.CreateSectionVersion(ctx, &models.OutputSectionVersion{ID: "a", SectionID: secID, Text: "first", CreatedAt: ts}))
	require.NoError(t, s.CreateSectionVersion(ctx, &models.OutputSectionVersion{ID: "0", SectionID: secID, Text: "old", CreatedAt: ts.Add(-time.Hour)}))

	v, err := s.LatestSectionVersion(ctx, secID)
	require.NoError(t, err)
	assert.Equal(t, "second", v.Text)
}

func TestReplaceOpenIssuesKeepsResolved(t *testing.T) {
	ctx := context.Background()
	s := New()
	docID := "doc-1"
	require.NoError(t, s.ReplaceOpenIssues(ctx, docID, "rule", []models.QCIssue{
		{StudyID: "st", DocumentID: &docID, RuleID: "rule", Status: models.IssueStatusOpen, Message: "a"},
		{StudyID: "st", DocumentID: &docID, RuleID: "rule", Status: models.IssueStatusResolved, Message: "b"},
	}))
	require.NoError(t, s.ReplaceOpenIssues(ctx, docID, "rule", []models.QCIssue{
		{StudyID: "st", DocumentID: &docID, RuleID: "rule", Status: models.IssueStatusOpen, Message: "c"},
	}))

	all, err := s.ListIssues(ctx, core.IssueFilter{StudyID: "st"})
	require.NoError(t, err)
	var msgs []string
	for _, is := range all {
		msgs = append(msgs, is.Message)
	}
	assert.ElementsMatch(t, []string{"b", "c"}, msgs)
}

func TestCreateCurrentSourceIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := New()
	st := s.PutStudy(models.Study{Code: "ST-1", Title: "Study"})

	sap := &models.SourceDocument{StudyID: st.ID, Category: models.CategorySAP, Language: "en", IsCurrent: true}
	prot := &models.SourceDocument{StudyID: st.ID, Category: models.CategoryProtocol, Language: "en", IsCurrent: true}
	require.NoError(t, s.CreateCurrentSource(ctx, sap))
	require.NoError(t, s.CreateCurrentSource(ctx, prot))

	clash := &models.SourceDocument{ID: sap.ID, StudyID: st.ID, Category: models.CategoryProtocol, Language: "en", IsCurrent: true}
	require.Error(t, s.CreateCurrentSource(ctx, clash))

	got, err := s.GetSourceDocument(ctx, prot.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCurrent, "failed insert must not supersede")

	next := &models.SourceDocument{StudyID: st.ID, Category: models.CategoryProtocol, Language: "en", IsCurrent: true}
	require.NoError(t, s.CreateCurrentSource(ctx, next))
	got, err = s.GetSourceDocument(ctx, prot.ID)
	require.NoError(t, err)
	assert.False(t, got.IsCurrent)
	assert.Equal(t, models.SourceStatusSuperseded, got.Status)
}
