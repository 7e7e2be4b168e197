package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/csrdesk/internal/apperr"
	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/models"
)

// openTestDB connects to TEST_DATABASE_URL or skips.
func openTestDB(t *testing.T) *DatabaseClient {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	c, err := NewDatabaseClient(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func seedStudy(t *testing.T, c *DatabaseClient) *models.Study {
	t.Helper()
	st := &models.Study{
		ID:        uuid.NewString(),
		Code:      "IT-" + uuid.NewString()[:8],
		Title:     "Integration study",
		Phase:     models.StrPtr("II"),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, c.CreateStudy(context.Background(), st))
	return st
}

func TestChunksRoundTripWithLanguageFilter(t *testing.T) {
	c := openTestDB(t)
	ctx := context.Background()
	st := seedStudy(t, c)

	src := &models.SourceDocument{
		ID: uuid.NewString(), StudyID: st.ID, Category: models.CategoryProtocol, FileName: "p.txt",
		StorageKey: "k", Language: "en", Status: models.SourceStatusActive, IsCurrent: true,
		IsRAGEnabled: true, IndexStatus: models.IndexStatusNotIndexed, UploadedAt: time.Now().UTC(),
	}
	require.NoError(t, c.CreateSourceDocument(ctx, src))

	now := time.Now().UTC()
	require.NoError(t, c.ReplaceChunks(ctx, src.ID, []models.RagChunk{
		{ID: uuid.NewString(), StudyID: st.ID, Category: models.CategoryProtocol, OrderIndex: 1, Text: "b", CreatedAt: now},
		{ID: uuid.NewString(), StudyID: st.ID, Category: models.CategoryProtocol, OrderIndex: 0, Text: "a", CreatedAt: now},
	}))

	got, err := c.ListChunks(ctx, core.ChunkQuery{StudyID: st.ID, Category: models.CategoryProtocol, Language: "en", Limit: 5})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Text)

	got, err = c.ListChunks(ctx, core.ChunkQuery{StudyID: st.ID, Category: models.CategoryProtocol, Language: "ru", Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, c.DeleteSourceDocument(ctx, src.ID))
	_, err = c.GetSourceDocument(ctx, src.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestReplaceOpenIssuesInTransaction(t *testing.T) {
	c := openTestDB(t)
	ctx := context.Background()
	st := seedStudy(t, c)

	doc := &models.OutputDocument{ID: uuid.NewString(), StudyID: st.ID, Title: "CSR", Status: "draft", Language: "en", CreatedAt: time.Now().UTC()}
	require.NoError(t, c.CreateOutputDocument(ctx, doc, []models.OutputSection{{ID: uuid.NewString(), Code: "SYNOPSIS", Title: "Synopsis", OrderIndex: 1}}))

	rule := &models.QCRule{ID: uuid.NewString(), Code: "IT_RULE_" + uuid.NewString()[:8], Name: "it", Severity: models.SeverityWarning, IsActive: true}
	require.NoError(t, c.CreateRule(ctx, rule))

	issue := func(msg string) models.QCIssue {
		return models.QCIssue{
			ID: uuid.NewString(), StudyID: st.ID, DocumentID: &doc.ID, RuleID: rule.ID,
			Severity: rule.Severity, Status: models.IssueStatusOpen, Message: msg, CreatedAt: time.Now().UTC(),
		}
	}
	require.NoError(t, c.ReplaceOpenIssues(ctx, doc.ID, rule.ID, []models.QCIssue{issue("one"), issue("two")}))
	require.NoError(t, c.ReplaceOpenIssues(ctx, doc.ID, rule.ID, []models.QCIssue{issue("three")}))

	open, err := c.ListIssues(ctx, core.IssueFilter{DocumentID: doc.ID, Status: models.IssueStatusOpen})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "three", open[0].Message)
}

func TestLatestSectionVersionOrdering(t *testing.T) {
	c := openTestDB(t)
	ctx := context.Background()
	st := seedStudy(t, c)

	doc := &models.OutputDocument{ID: uuid.NewString(), StudyID: st.ID, Title: "CSR", Status: "draft", CreatedAt: time.Now().UTC()}
	secID := uuid.NewString()
	require.NoError(t, c.CreateOutputDocument(ctx, doc, []models.OutputSection{{ID: secID, Code: "PK", Title: "PK", OrderIndex: 1}}))

	_, err := c.LatestSectionVersion(ctx, secID)
	assert.True(t, apperr.IsNotFound(err))

	base := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, c.CreateSectionVersion(ctx, &models.OutputSectionVersion{ID: uuid.NewString(), SectionID: secID, Text: "old", Source: models.VersionSourceHuman, CreatedAt: base}))
	require.NoError(t, c.CreateSectionVersion(ctx, &models.OutputSectionVersion{ID: uuid.NewString(), SectionID: secID, Text: "new", Source: models.VersionSourceAI, CreatedAt: base.Add(time.Second)}))

	v, err := c.LatestSectionVersion(ctx, secID)
	require.NoError(t, err)
	assert.Equal(t, "new", v.Text)
	assert.Nil(t, v.TemplateID)
}

func TestCreateCurrentSourceRollsBackOnInsertFailure(t *testing.T) {
	c := openTestDB(t)
	ctx := context.Background()
	st := seedStudy(t, c)

	newDoc := func(id string) *models.SourceDocument {
		return &models.SourceDocument{
			ID: id, StudyID: st.ID, Category: models.CategoryProtocol, FileName: "p.txt",
			StorageKey: "k/" + id, Language: "en", Status: models.SourceStatusActive, IsCurrent: true,
			IsRAGEnabled: true, IndexStatus: models.IndexStatusNotIndexed, UploadedAt: time.Now().UTC(),
		}
	}
	first := newDoc(uuid.NewString())
	require.NoError(t, c.CreateCurrentSource(ctx, first))

	// same primary key: the insert fails after the supersede ran inside the tx
	require.Error(t, c.CreateCurrentSource(ctx, newDoc(first.ID)))

	got, err := c.GetSourceDocument(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCurrent)
	assert.Equal(t, models.SourceStatusActive, got.Status)

	second := newDoc(uuid.NewString())
	require.NoError(t, c.CreateCurrentSource(ctx, second))
	got, err = c.GetSourceDocument(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsCurrent)
}
