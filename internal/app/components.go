package app

import (
	"fmt"

	"github.com/markdave123-py/csrdesk/internal/config"
	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/core/ingestion_engine"
	"github.com/markdave123-py/csrdesk/internal/core/qc"
	"github.com/markdave123-py/csrdesk/internal/core/retrieval"
	"github.com/markdave123-py/csrdesk/internal/core/templating"
	"github.com/markdave123-py/csrdesk/internal/i18n"
	"github.com/markdave123-py/csrdesk/internal/logger"
	"github.com/markdave123-py/csrdesk/internal/services"
)

// Components holds the services shared by the HTTP server and the CLI.
type Components struct {
	Translator *i18n.Translator
	Ingestor   *ingestion_engine.DocumentIngestor
	Retriever  *retrieval.Retriever

	Users      *services.UserService
	Sources    *services.SourceService
	Templates  *services.TemplateService
	Outputs    *services.OutputService
	Generation *services.GenerationService
	QC         *services.QCService
}

// NewComponents wires every service on top of the given collaborators.
func NewComponents(cfg *config.Config, store core.DbClient, obj core.ObjectClient, provider core.LLMProvider, log *logger.Logger) (*Components, error) {
	tr, err := i18n.New()
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	qcCfg, err := qc.DefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("load qc config: %w", err)
	}

	extractor := ingestion_engine.NewDocconvExtractor(false)
	ingestor := ingestion_engine.NewDocumentIngestor(store, store, obj, extractor, &ingestion_engine.IngestConfig{
		MaxChunkSize: cfg.ChunkMaxSize,
		MinChunkSize: cfg.ChunkMinSize,
		Bucket:       cfg.BucketName,
		Workers:      cfg.IngestWorkers,
		QueueSize:    cfg.IngestQueueSize,
	}, log)

	retriever := retrieval.NewRetriever(store, retrieval.Config{LimitPerCategory: cfg.RAGLimitPerCategory}, log)
	builder := templating.NewContextBuilder(store, retriever)
	engine := qc.NewEngine(store, qcCfg, log, qc.NewRequiredSectionsRule(tr))

	return &Components{
		Translator: tr,
		Ingestor:   ingestor,
		Retriever:  retriever,
		Users:      services.NewUserService(store),
		Sources:    services.NewSourceService(store, obj, cfg.BucketName, ingestor, retriever, log),
		Templates:  services.NewTemplateService(store, builder),
		Outputs:    services.NewOutputService(store, builder, log),
		Generation: services.NewGenerationService(store, retriever, provider, cfg.AITimeout, log),
		QC:         services.NewQCService(store, engine),
	}, nil
}
