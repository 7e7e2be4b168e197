package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/logger"
	"github.com/markdave123-py/csrdesk/internal/models"
)

const DefaultLimitPerCategory = 5

// Prompt-facing names of the assembled context blocks.
const (
	KeyProtocol = "context_protocol"
	KeySAP      = "context_sap"
	KeyTLF      = "context_tlf_summary"
	KeyCSRPrev  = "context_csr_prev"
)

var contextKeys = map[string]string{
	models.CategoryProtocol: KeyProtocol,
	models.CategorySAP:      KeySAP,
	models.CategoryTLF:      KeyTLF,
	models.CategoryCSRPrev:  KeyCSRPrev,
}

type Config struct {
	LimitPerCategory int
}

// Options narrows one retrieval. Zero values mean all categories, the
// configured limit and no language preference.
type Options struct {
	Categories        []string
	LimitPerCategory  int
	PreferredLanguage string
}

// Retriever selects the leading chunks of each category for a study.
// Selection is structural only: category, language and order_index.
type Retriever struct {
	chunks core.ChunkStore
	cfg    Config
	log    *logger.Logger
}

func NewRetriever(chunks core.ChunkStore, cfg Config, log *logger.Logger) *Retriever {
	if cfg.LimitPerCategory <= 0 {
		cfg.LimitPerCategory = DefaultLimitPerCategory
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Retriever{chunks: chunks, cfg: cfg, log: log.With("component", "retrieval")}
}

// Retrieve returns category -> ordered chunks. Every requested category is
// present in the result, possibly with an empty slice.
func (r *Retriever) Retrieve(ctx context.Context, studyID string, opts Options) (map[string][]models.RagChunk, error) {
	categories := opts.Categories
	if len(categories) == 0 {
		categories = models.Categories
	}
	limit := opts.LimitPerCategory
	if limit <= 0 {
		limit = r.cfg.LimitPerCategory
	}

	out := make(map[string][]models.RagChunk, len(categories))
	for _, cat := range categories {
		q := core.ChunkQuery{StudyID: studyID, Category: cat, Language: opts.PreferredLanguage, Limit: limit}
		chunks, err := r.chunks.ListChunks(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("list %s chunks: %w", cat, err)
		}

		if len(chunks) == 0 && opts.PreferredLanguage != "" {
			q.Language = ""
			chunks, err = r.chunks.ListChunks(ctx, q)
			if err != nil {
				return nil, fmt.Errorf("list %s chunks: %w", cat, err)
			}
			if len(chunks) > 0 {
				r.log.Warn("no chunks in preferred language, using any language",
					"study_id", studyID, "category", cat, "language", opts.PreferredLanguage, "chunks", len(chunks))
			}
		}
		if chunks == nil {
			chunks = []models.RagChunk{}
		}
		out[cat] = chunks
	}
	return out, nil
}

// BuildContextText joins each category's chunk texts with a blank line.
func BuildContextText(byCategory map[string][]models.RagChunk) map[string]string {
	out := make(map[string]string, len(byCategory))
	for cat, chunks := range byCategory {
		texts := make([]string, 0, len(chunks))
		for _, c := range chunks {
			texts = append(texts, c.Text)
		}
		out[cat] = strings.Join(texts, "\n\n")
	}
	return out
}

// ContextVariables maps category blocks onto the four context_* keys.
// Absent categories yield "".
func ContextVariables(byCategory map[string]string) map[string]string {
	out := make(map[string]string, len(contextKeys))
	for cat, key := range contextKeys {
		out[key] = byCategory[cat]
	}
	return out
}

// ContextFor retrieves every category and returns the context_* variables.
func (r *Retriever) ContextFor(ctx context.Context, studyID, language string) (map[string]string, error) {
	byCat, err := r.Retrieve(ctx, studyID, Options{PreferredLanguage: language})
	if err != nil {
		return nil, err
	}
	return ContextVariables(BuildContextText(byCat)), nil
}
