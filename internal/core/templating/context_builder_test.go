package templating

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/csrdesk/internal/apperr"
	"github.com/markdave123-py/csrdesk/internal/core/memstore"
	"github.com/markdave123-py/csrdesk/internal/models"
)

type fakeRAG struct {
	lang string
}

func (f *fakeRAG) ContextFor(_ context.Context, _ string, language string) (map[string]string, error) {
	f.lang = language
	return map[string]string{"context_protocol": "protocol text", "context_sap": ""}, nil
}

func TestBuildLayersOverrides(t *testing.T) {
	s := memstore.New()
	st := s.PutStudy(models.Study{Code: "ABC-01", Title: "Trial", Phase: models.StrPtr("III")})
	rag := &fakeRAG{}
	b := NewContextBuilder(s, rag)

	got, err := b.Build(context.Background(), st.ID, Context{"study_title": "Override", "context_sap": "manual"}, "ru")
	require.NoError(t, err)

	assert.Equal(t, "ru", rag.lang)
	assert.Equal(t, st.ID, got["study_id"])
	assert.Equal(t, "ABC-01", got["study_code"])
	assert.Equal(t, "Override", got["study_title"])
	assert.Equal(t, "III", got["phase"])
	assert.Equal(t, "", got["indication"])
	assert.Equal(t, "protocol text", got["context_protocol"])
	assert.Equal(t, "manual", got["context_sap"])
}

func TestBuildUnknownStudy(t *testing.T) {
	b := NewContextBuilder(memstore.New(), nil)
	_, err := b.Build(context.Background(), "nope", nil, "en")
	assert.True(t, apperr.IsNotFound(err))
}
