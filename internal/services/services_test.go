package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/core/ingestion_engine"
	"github.com/markdave123-py/csrdesk/internal/core/llm"
	"github.com/markdave123-py/csrdesk/internal/core/memstore"
	objectclient "github.com/markdave123-py/csrdesk/internal/core/object-client"
	"github.com/markdave123-py/csrdesk/internal/core/qc"
	"github.com/markdave123-py/csrdesk/internal/core/retrieval"
	"github.com/markdave123-py/csrdesk/internal/core/templating"
	"github.com/markdave123-py/csrdesk/internal/i18n"
	"github.com/markdave123-py/csrdesk/internal/models"
)

const testBucket = "sources"

type env struct {
	store     *memstore.Store
	obj       *objectclient.LocalClient
	ingestor  *ingestion_engine.DocumentIngestor
	retriever *retrieval.Retriever
	builder   *templating.ContextBuilder

	sources   *SourceService
	outputs   *OutputService
	templates *TemplateService
	qc        *QCService

	study models.Study
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memstore.New()
	obj, err := objectclient.NewLocalClient(t.TempDir())
	require.NoError(t, err)

	ing := ingestion_engine.NewDocumentIngestor(store, store, obj, ingestion_engine.NewDocconvExtractor(false),
		&ingestion_engine.IngestConfig{MaxChunkSize: 1000, MinChunkSize: 300, Bucket: testBucket, QueueSize: 8}, nil)
	ret := retrieval.NewRetriever(store, retrieval.Config{}, nil)
	builder := templating.NewContextBuilder(store, ret)
	cfg, err := qc.DefaultConfig()
	require.NoError(t, err)
	engine := qc.NewEngine(store, cfg, nil, qc.NewRequiredSectionsRule(i18n.MustNew()))

	return &env{
		store:     store,
		obj:       obj,
		ingestor:  ing,
		retriever: ret,
		builder:   builder,
		sources:   NewSourceService(store, obj, testBucket, ing, ret, nil),
		outputs:   NewOutputService(store, builder, nil),
		templates: NewTemplateService(store, builder),
		qc:        NewQCService(store, engine),
		study: store.PutStudy(models.Study{
			Code: "ABC-01", Title: "Trial of X", Phase: models.StrPtr("III"), SponsorName: models.StrPtr("Acme"),
		}),
	}
}

func (e *env) generation(p core.LLMProvider) *GenerationService {
	return NewGenerationService(e.store, e.retriever, p, 0, nil)
}

func (e *env) stub() core.LLMProvider { return llm.NewStubLLM() }

// failingLLM always errors.
type failingLLM struct{}

func (failingLLM) Generate(context.Context, string, string, core.GenerateOptions) (string, error) {
	return "", errors.New("quota exceeded")
}
func (failingLLM) ModelName() string { return "broken" }
func (failingLLM) Mode() string      { return "gemini" }

// recordingLLM captures the last prompt.
type recordingLLM struct {
	prompt string
	opts   core.GenerateOptions
}

func (r *recordingLLM) Generate(_ context.Context, _ string, p string, opts core.GenerateOptions) (string, error) {
	r.prompt = p
	r.opts = opts
	return "generated body", nil
}
func (r *recordingLLM) ModelName() string { return "recorder" }
func (r *recordingLLM) Mode() string      { return "stub" }
