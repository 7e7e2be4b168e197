package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/csrdesk/internal/apperr"
	"github.com/markdave123-py/csrdesk/internal/core/templating"
	"github.com/markdave123-py/csrdesk/internal/models"
)

func TestGetOrCreateAddsDefaultSectionsOnce(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	doc, err := e.outputs.GetOrCreate(ctx, e.study.ID, "ru")
	require.NoError(t, err)
	assert.Equal(t, "ru", doc.Language)
	require.Len(t, doc.Sections, 5)
	for i, d := range models.DefaultSections {
		assert.Equal(t, d.Code, doc.Sections[i].Code)
		assert.Equal(t, i+1, doc.Sections[i].OrderIndex)
	}

	again, err := e.outputs.GetOrCreate(ctx, e.study.ID, "en")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, again.ID)
	assert.Equal(t, "ru", again.Language)

	_, err = e.outputs.GetOrCreate(ctx, "missing", "")
	assert.True(t, apperr.IsNotFound(err))
	_, err = e.outputs.GetOrCreate(ctx, e.study.ID, "xx")
	assert.True(t, apperr.IsValidation(err))
}

func TestVersionsAppendOnly(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	doc, err := e.outputs.GetOrCreate(ctx, e.study.ID, "")
	require.NoError(t, err)
	secID := doc.Sections[0].ID

	_, err = e.outputs.LatestVersion(ctx, secID)
	assert.True(t, apperr.IsNotFound(err))

	_, err = e.outputs.CreateVersion(ctx, secID, "draft one", "u1")
	require.NoError(t, err)
	v2, err := e.outputs.CreateVersion(ctx, secID, "draft two", "u1")
	require.NoError(t, err)

	latest, err := e.outputs.LatestVersion(ctx, secID)
	require.NoError(t, err)
	assert.Equal(t, v2.ID, latest.ID)
	assert.Equal(t, models.VersionSourceHuman, latest.Source)

	_, err = e.outputs.CreateVersion(ctx, secID, "  ", "u1")
	assert.True(t, apperr.IsValidation(err))
}

func TestApplyTemplate(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	doc, err := e.outputs.GetOrCreate(ctx, e.study.ID, "en")
	require.NoError(t, err)
	sec := doc.Sections[2]

	tpl, err := e.templates.Create(ctx, CreateTemplateInput{
		Name: "Safety", SectionCode: sec.Code, Language: "en",
		Content: "Study {{study_code}} ({{phase}}) sponsored by {{sponsor_name}}. {{note}} {{unknown}}",
	})
	require.NoError(t, err)

	res, err := e.outputs.ApplyTemplate(ctx, ApplyTemplateInput{
		StudyID: e.study.ID, SectionID: sec.ID, TemplateID: tpl.ID,
		Extra: templating.Context{"note": "Final."},
	})
	require.NoError(t, err)

	assert.Equal(t, "Study ABC-01 (III) sponsored by Acme. Final. {{unknown}}", res.Version.Text)
	assert.Equal(t, models.VersionSourceTemplate, res.Version.Source)
	require.NotNil(t, res.Version.TemplateID)
	assert.Equal(t, tpl.ID, *res.Version.TemplateID)
	assert.Equal(t, []string{"unknown"}, res.Render.Missing)
}

func TestApplyTemplateRejectsForeignSection(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	doc, err := e.outputs.GetOrCreate(ctx, e.study.ID, "en")
	require.NoError(t, err)
	other := e.store.PutStudy(models.Study{Code: "OTHER"})

	_, err = e.outputs.ApplyTemplate(ctx, ApplyTemplateInput{StudyID: other.ID, SectionID: doc.Sections[0].ID, TemplateID: "x"})
	assert.True(t, apperr.IsValidation(err))
}

func TestListSectionsWithoutDocument(t *testing.T) {
	e := newEnv(t)
	_, err := e.outputs.ListSections(context.Background(), e.study.ID)
	assert.True(t, apperr.IsNotFound(err))
}
