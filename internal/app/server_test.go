package app

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/csrdesk/internal/config"
	"github.com/markdave123-py/csrdesk/internal/core/llm"
	"github.com/markdave123-py/csrdesk/internal/core/memstore"
	objectclient "github.com/markdave123-py/csrdesk/internal/core/object-client"
	"github.com/markdave123-py/csrdesk/internal/logger"
	"github.com/markdave123-py/csrdesk/internal/models"
)

const testSecret = "router-test-secret"

type harness struct {
	t       *testing.T
	handler http.Handler
	store   *memstore.Store
	token   string
	study   models.Study
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:           testSecret,
		CORSOrigins:         []string{"http://localhost:5173"},
		BucketName:          "sources",
		AITimeout:           5 * time.Second,
		ChunkMaxSize:        1000,
		ChunkMinSize:        300,
		RAGLimitPerCategory: 5,
		IngestWorkers:       1,
		IngestQueueSize:     8,
	}
	store := memstore.New()
	obj, err := objectclient.NewLocalClient(t.TempDir())
	require.NoError(t, err)

	c, err := NewComponents(cfg, store, obj, llm.NewStubLLM(), logger.Nop())
	require.NoError(t, err)

	user := store.PutUser(models.User{Username: "writer", UILanguage: "en", IsActive: true})
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	return &harness{
		t:       t,
		handler: NewRouter(cfg, c, nil, logger.Nop()),
		store:   store,
		token:   token,
		study:   store.PutStudy(models.Study{Code: "ABC-01", Title: "Trial of X"}),
	}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	req.Header.Set("Authorization", "Bearer "+h.token)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) json(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return h.do(req)
}

func (h *harness) upload(fields map[string]string, fileName, content string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(h.t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(h.t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(h.t, err)
	require.NoError(h.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/studies/"+h.study.ID+"/sources", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return h.do(req)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), rec.Body.String())
	return out
}

func TestHealthzIsPublic(t *testing.T) {
	h := newHarness(t)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	h := newHarness(t)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/studies/"+h.study.ID+"/sources", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"unauthorized"`)
}

func TestSourceUploadIngestAndContext(t *testing.T) {
	h := newHarness(t)

	rec := h.upload(map[string]string{"category": "protocol", "language": "en"}, "protocol v1.txt", "Primary endpoint is overall survival.")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decode[models.SourceDocument](t, rec)
	assert.True(t, doc.IsCurrent)
	assert.True(t, doc.IsRAGEnabled)
	assert.Equal(t, "studies/"+h.study.ID+"/sources/"+doc.ID+"/protocol_v1.txt", doc.StorageKey)

	rec = h.json(http.MethodPost, "/api/rag/ingest/"+doc.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ingested := decode[map[string]any](t, rec)
	assert.Equal(t, doc.ID, ingested["source_document_id"])
	assert.EqualValues(t, 1, ingested["chunks_created"])

	rec = h.json(http.MethodGet, "/api/rag/studies/"+h.study.ID+"/context?language=en", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ctxResp := decode[struct {
		Context map[string]string `json:"context"`
	}](t, rec)
	assert.Contains(t, ctxResp.Context["context_protocol"], "overall survival")

	rec = h.json(http.MethodGet, "/api/studies/"+h.study.ID+"/sources", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.SourceDocument](t, rec), 1)

	rec = h.json(http.MethodPost, "/api/sources/"+doc.ID+"/archive", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.SourceStatusArchived, decode[models.SourceDocument](t, rec).Status)

	rec = h.json(http.MethodGet, "/api/studies/"+h.study.ID+"/sources", nil)
	assert.Empty(t, decode[[]models.SourceDocument](t, rec))
	rec = h.json(http.MethodGet, "/api/studies/"+h.study.ID+"/sources?include_archived=true", nil)
	assert.Len(t, decode[[]models.SourceDocument](t, rec), 1)

	rec = h.json(http.MethodDelete, "/api/sources/"+doc.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, h.store.ChunkCount(doc.ID))
}

func TestSourceUploadRejectsBadInput(t *testing.T) {
	h := newHarness(t)

	rec := h.upload(map[string]string{"category": "protocol", "language": "de"}, "p.txt", "x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "language")

	rec = h.upload(map[string]string{"category": "misc", "language": "en"}, "p.txt", "x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.json(http.MethodPost, "/api/rag/ingest/unknown-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOutputVersionsAndQC(t *testing.T) {
	h := newHarness(t)

	rec := h.json(http.MethodGet, "/api/output/"+h.study.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	doc := decode[models.OutputDocument](t, rec)
	require.Len(t, doc.Sections, len(models.DefaultSections))

	rec = h.json(http.MethodGet, "/api/output/"+h.study.ID+"/sections", nil)
	sections := decode[[]models.OutputSection](t, rec)
	require.Len(t, sections, 5)
	synopsis := sections[0]
	assert.Equal(t, "SYNOPSIS", synopsis.Code)

	rec = h.json(http.MethodGet, "/api/output/sections/"+synopsis.ID+"/versions/latest", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.json(http.MethodPost, "/api/output/sections/"+synopsis.ID+"/versions", map[string]string{"text": "Draft synopsis."})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.json(http.MethodGet, "/api/output/sections/"+synopsis.ID+"/versions/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode[models.OutputSectionVersion](t, rec)
	assert.Equal(t, "Draft synopsis.", v.Text)
	assert.Equal(t, models.VersionSourceHuman, v.Source)

	rec = h.json(http.MethodPost, "/api/qc/documents/"+doc.ID+"/run", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	run := decode[struct {
		DocumentID string           `json:"document_id"`
		Issues     []models.QCIssue `json:"issues"`
	}](t, rec)
	assert.Equal(t, doc.ID, run.DocumentID)
	assert.Empty(t, run.Issues)

	rec = h.json(http.MethodGet, "/api/qc/studies/"+h.study.ID+"/issues?status=open", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = h.json(http.MethodGet, "/api/qc/studies/"+h.study.ID+"/issues?severity=fatal", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.json(http.MethodGet, "/api/qc/studies/"+h.study.ID+"/issues?document_id=not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "document_id")
}

func TestTemplateCreateRenderAndApply(t *testing.T) {
	h := newHarness(t)

	rec := h.json(http.MethodPost, "/api/templates", map[string]any{
		"name":         "Synopsis header",
		"section_code": "SYNOPSIS",
		"language":     "en",
		"content":      "Study {{study_code}}: {{study_title}} ({{site}}) {{missing_var}}",
		"is_default":   true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tpl := decode[models.Template](t, rec)
	assert.Equal(t, 1, tpl.Version)
	assert.Equal(t, models.TemplateKindSectionText, tpl.Kind)

	rec = h.json(http.MethodGet, "/api/templates/section/SYNOPSIS?language=en", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Template](t, rec), 1)

	rec = h.json(http.MethodGet, "/api/templates/section/SYNOPSIS?language=xx", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.json(http.MethodPost, "/api/templates/"+tpl.ID+"/render", map[string]any{
		"study_id": h.study.ID,
		"context":  map[string]any{"site": 12},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rendered := decode[map[string]any](t, rec)
	assert.Equal(t, "Study ABC-01: Trial of X (12) {{missing_var}}", rendered["rendered_text"])
	assert.Equal(t, []any{"missing_var"}, rendered["missing_variables"])

	rec = h.json(http.MethodGet, "/api/output/"+h.study.ID, nil)
	doc := decode[models.OutputDocument](t, rec)
	sectionID := doc.Sections[0].ID

	rec = h.json(http.MethodPost, "/api/output/sections/"+sectionID+"/apply-template", map[string]any{
		"study_id":    h.study.ID,
		"template_id": tpl.ID,
		"context":     map[string]any{"site": "Berlin"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	applied := decode[struct {
		Version models.OutputSectionVersion `json:"version"`
	}](t, rec)
	assert.Equal(t, models.VersionSourceTemplate, applied.Version.Source)
	assert.True(t, strings.HasPrefix(applied.Version.Text, "Study ABC-01: Trial of X (Berlin)"))
	require.NotNil(t, applied.Version.TemplateID)
	assert.Equal(t, tpl.ID, *applied.Version.TemplateID)

	other := h.store.PutStudy(models.Study{Code: "OTHER", Title: "Other"})
	rec = h.json(http.MethodPost, "/api/output/sections/"+sectionID+"/apply-template", map[string]any{
		"study_id":    other.ID,
		"template_id": tpl.ID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateSectionTextWithStub(t *testing.T) {
	h := newHarness(t)

	rec := h.json(http.MethodGet, "/api/output/"+h.study.ID, nil)
	doc := decode[models.OutputDocument](t, rec)
	sectionID := doc.Sections[2].ID

	rec = h.json(http.MethodPost, "/api/ai/generate-section-text", map[string]any{
		"study_id":   h.study.ID,
		"section_id": sectionID,
		"prompt":     "Summarize adverse events",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode[map[string]any](t, rec)
	assert.Equal(t, "stub", out["mode"])
	assert.True(t, strings.HasPrefix(out["generated_text"].(string), "[STUB AI OUTPUT]"))
	assert.Len(t, h.store.AICallLogs(), 1)

	rec = h.json(http.MethodPost, "/api/ai/generate-section-text", map[string]any{"study_id": h.study.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "section_id")
}
