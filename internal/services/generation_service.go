package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/csrdesk/internal/apperr"
	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/core/language"
	"github.com/markdave123-py/csrdesk/internal/core/prompt"
	"github.com/markdave123-py/csrdesk/internal/core/retrieval"
	"github.com/markdave123-py/csrdesk/internal/core/templating"
	"github.com/markdave123-py/csrdesk/internal/logger"
	"github.com/markdave123-py/csrdesk/internal/models"
)

const (
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.2
)

type GenerationStore interface {
	core.StudyStore
	core.OutputStore
	core.TemplateStore
	core.AICallLogStore
}

type GenerationService struct {
	db        GenerationStore
	retriever *retrieval.Retriever
	llm       core.LLMProvider
	timeout   time.Duration
	log       *logger.Logger
}

func NewGenerationService(db GenerationStore, retriever *retrieval.Retriever, llm core.LLMProvider, timeout time.Duration, log *logger.Logger) *GenerationService {
	if log == nil {
		log = logger.Nop()
	}
	return &GenerationService{db: db, retriever: retriever, llm: llm, timeout: timeout, log: log.With("component", "generation")}
}

type GenerateInput struct {
	StudyID         string
	SectionID       string
	Prompt          string
	MaxTokens       int
	Temperature     *float32
	User            *models.User
	RequestLanguage string
}

type GenerateResult struct {
	Version   *models.OutputSectionVersion `json:"version"`
	Text      string                       `json:"generated_text"`
	Language  string                       `json:"language"`
	ModelName string                       `json:"model_name"`
	Mode      string                       `json:"mode"`
}

// Generate builds a prompt for the section, calls the LLM, records the call
// and appends the output as an ai version.
func (g *GenerationService) Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	sec, doc, err := resolveSection(ctx, g.db, in.StudyID, in.SectionID)
	if err != nil {
		return nil, err
	}
	study, err := g.db.GetStudy(ctx, in.StudyID)
	if err != nil {
		return nil, err
	}
	lang := language.ResolveContent(doc, in.User, in.RequestLanguage)

	byCategory, err := g.retriever.Retrieve(ctx, in.StudyID, retrieval.Options{PreferredLanguage: lang})
	if err != nil {
		return nil, err
	}
	ragText := retrieval.BuildContextText(byCategory)

	currentText := ""
	if v, err := g.db.LatestSectionVersion(ctx, sec.ID); err == nil {
		currentText = v.Text
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}

	fullPrompt, err := g.buildPrompt(ctx, study, sec, currentText, ragText, in.Prompt, lang)
	if err != nil {
		return nil, err
	}

	opts := core.GenerateOptions{MaxTokens: in.MaxTokens, Temperature: DefaultTemperature}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if in.Temperature != nil {
		opts.Temperature = *in.Temperature
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	text, genErr := g.llm.Generate(callCtx, "", fullPrompt, opts)

	userID := ""
	if in.User != nil {
		userID = in.User.ID
	}
	entry := &models.AICallLog{
		ID:            uuid.NewString(),
		StudyID:       in.StudyID,
		SectionID:     sec.ID,
		UserID:        userID,
		Prompt:        fullPrompt,
		GeneratedText: text,
		ModelName:     g.llm.ModelName(),
		Mode:          g.llm.Mode(),
		Success:       genErr == nil,
		CreatedAt:     time.Now().UTC(),
	}
	if genErr != nil {
		entry.ErrorMessage = genErr.Error()
	}
	if err := g.db.CreateAICallLog(ctx, entry); err != nil {
		g.log.Error("write ai call log failed", "section_id", sec.ID, "err", err)
	}
	if genErr != nil {
		g.log.Warn("generation failed", "section_id", sec.ID, "mode", entry.Mode, "err", genErr)
		return nil, apperr.Upstream(genErr)
	}

	v, err := appendVersion(ctx, g.db, sec.ID, text, models.VersionSourceAI, nil, userID)
	if err != nil {
		return nil, err
	}
	g.log.Info("section generated", "section_id", sec.ID, "language", lang, "mode", entry.Mode, "chars", len(text))
	return &GenerateResult{Version: v, Text: text, Language: lang, ModelName: entry.ModelName, Mode: entry.Mode}, nil
}

// buildPrompt prefers an active prompt template for (section code, language)
// and falls back to the built-in prompt.
func (g *GenerationService) buildPrompt(ctx context.Context, study *models.Study, sec *models.OutputSection, currentText string, ragText map[string]string, userPrompt, lang string) (string, error) {
	tpl, err := g.db.SelectTemplate(ctx, sec.Code, models.TemplateKindPrompt, lang)
	if err != nil {
		return "", err
	}
	if tpl == nil {
		return prompt.Build(prompt.Input{
			Study:       study,
			Section:     sec,
			CurrentText: currentText,
			RAGContext:  ragText,
			UserPrompt:  userPrompt,
			Language:    lang,
		}), nil
	}

	vars := templating.StudyVariables(study)
	for k, v := range retrieval.ContextVariables(ragText) {
		vars[k] = v
	}
	vars["section_code"] = sec.Code
	vars["section_title"] = sec.Title
	vars["current_text"] = currentText
	vars["user_prompt"] = userPrompt
	res := templating.Render(tpl.Content, vars)
	if len(res.Missing) > 0 {
		g.log.Debug("prompt template has unresolved variables", "template_id", tpl.ID, "missing", res.Missing)
	}
	return res.Text, nil
}
