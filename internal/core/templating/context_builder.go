package templating

import (
	"context"

	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/models"
)

// RAGSource supplies the context_* blocks for a study in a language.
type RAGSource interface {
	ContextFor(ctx context.Context, studyID, language string) (map[string]string, error)
}

// ContextBuilder layers study fields, RAG blocks and caller overrides.
type ContextBuilder struct {
	studies core.StudyStore
	rag     RAGSource
}

func NewContextBuilder(studies core.StudyStore, rag RAGSource) *ContextBuilder {
	return &ContextBuilder{studies: studies, rag: rag}
}

// StudyVariables returns the base keys derived from a study record.
func StudyVariables(st *models.Study) Context {
	return Context{
		"study_id":     st.ID,
		"study_code":   st.Code,
		"study_title":  st.Title,
		"phase":        models.Deref(st.Phase),
		"indication":   models.Deref(st.Indication),
		"sponsor_name": models.Deref(st.SponsorName),
	}
}

// Build merges base -> RAG -> extra; later layers win. A nil RAG source skips
// the middle layer.
func (b *ContextBuilder) Build(ctx context.Context, studyID string, extra Context, language string) (Context, error) {
	st, err := b.studies.GetStudy(ctx, studyID)
	if err != nil {
		return nil, err
	}

	out := StudyVariables(st)
	if b.rag != nil {
		blocks, err := b.rag.ContextFor(ctx, studyID, language)
		if err != nil {
			return nil, err
		}
		for k, v := range blocks {
			out[k] = v
		}
	}
	for k, v := range extra {
		out[k] = v
	}
	return out, nil
}
