package models

import (
	"time"
)

// Source document categories. Chunks inherit the category of their source.
const (
	CategoryProtocol = "protocol"
	CategorySAP      = "sap"
	CategoryTLF      = "tlf"
	CategoryCSRPrev  = "csr_prev"
)

// Categories lists every category in retrieval order.
var Categories = []string{CategoryProtocol, CategorySAP, CategoryTLF, CategoryCSRPrev}

const (
	SourceStatusActive     = "active"
	SourceStatusSuperseded = "superseded"
	SourceStatusArchived   = "archived"

	IndexStatusNotIndexed = "not_indexed"
	IndexStatusIndexed    = "indexed"
	IndexStatusError      = "error"
)

const (
	TemplateKindSectionText = "section_text"
	TemplateKindPrompt      = "prompt"

	TemplateScopeGlobal = "global"
)

const (
	VersionSourceHuman    = "human"
	VersionSourceAI       = "ai"
	VersionSourceTemplate = "template"
)

const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"

	IssueStatusOpen     = "open"
	IssueStatusResolved = "resolved"
	IssueStatusWontFix  = "wont_fix"
)

// User represents an authenticated user of the system.
type User struct {
	ID         string    `db:"id" json:"id"`
	Username   string    `db:"username" json:"username"`
	FullName   string    `db:"full_name" json:"full_name,omitempty"`
	Email      string    `db:"email" json:"email,omitempty"`
	UILanguage string    `db:"ui_language" json:"ui_language"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Study is a clinical study; every other entity hangs off one.
type Study struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Title       string    `db:"title" json:"title"`
	Phase       *string   `db:"phase" json:"phase,omitempty"`
	Indication  *string   `db:"indication" json:"indication,omitempty"`
	SponsorName *string   `db:"sponsor_name" json:"sponsor_name,omitempty"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SourceDocument is an uploaded raw input (protocol, SAP, TLF, previous CSR).
type SourceDocument struct {
	ID           string    `db:"id" json:"id"`
	StudyID      string    `db:"study_id" json:"study_id"`
	Category     string    `db:"category" json:"category"`
	FileName     string    `db:"file_name" json:"file_name"`
	StorageKey   string    `db:"storage_key" json:"storage_key"` // object key inside the bucket
	ContentType  string    `db:"content_type" json:"content_type"`
	Language     string    `db:"language" json:"language"`
	VersionLabel string    `db:"version_label" json:"version_label,omitempty"`
	Status       string    `db:"status" json:"status"` // active | superseded | archived
	IsCurrent    bool      `db:"is_current" json:"is_current"`
	IsRAGEnabled bool      `db:"is_rag_enabled" json:"is_rag_enabled"`
	IndexStatus  string    `db:"index_status" json:"index_status"` // not_indexed | indexed | error
	UploadedBy   string    `db:"uploaded_by" json:"uploaded_by,omitempty"`
	UploadedAt   time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// RagChunk is one ordered fragment of a source document's extracted text.
type RagChunk struct {
	ID               string    `db:"id" json:"id"`
	StudyID          string    `db:"study_id" json:"study_id"`
	SourceDocumentID string    `db:"source_document_id" json:"source_document_id"`
	Category         string    `db:"category" json:"category"`
	OrderIndex       int       `db:"order_index" json:"order_index"`
	Text             string    `db:"text" json:"text"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Template is a reusable body with {{var}} placeholders.
type Template struct {
	ID          string            `db:"id" json:"id"`
	Name        string            `db:"name" json:"name"`
	Description string            `db:"description" json:"description,omitempty"`
	Kind        string            `db:"kind" json:"kind"` // section_text | prompt
	SectionCode string            `db:"section_code" json:"section_code"`
	Language    string            `db:"language" json:"language"`
	Scope       string            `db:"scope" json:"scope"`
	Content     string            `db:"content" json:"content"`
	Variables   map[string]string `db:"variables" json:"variables,omitempty"` // variable name -> description
	IsDefault   bool              `db:"is_default" json:"is_default"`
	IsActive    bool              `db:"is_active" json:"is_active"`
	Version     int               `db:"version" json:"version"`
	CreatedBy   string            `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// OutputDocument is the generated deliverable of a study.
type OutputDocument struct {
	ID        string    `db:"id" json:"id"`
	StudyID   string    `db:"study_id" json:"study_id"`
	Title     string    `db:"title" json:"title"`
	Status    string    `db:"status" json:"status"`
	Language  string    `db:"language" json:"language"` // content language
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	Sections []OutputSection `db:"-" json:"sections,omitempty"`
}

type OutputSection struct {
	ID         string `db:"id" json:"id"`
	DocumentID string `db:"document_id" json:"document_id"`
	Code       string `db:"code" json:"code"`
	Title      string `db:"title" json:"title"`
	OrderIndex int    `db:"order_index" json:"order_index"`
}

// OutputSectionVersion is immutable; a section's history is append-only.
type OutputSectionVersion struct {
	ID         string    `db:"id" json:"id"`
	SectionID  string    `db:"section_id" json:"section_id"`
	Text       string    `db:"text" json:"text"`
	Source     string    `db:"source" json:"source"` // human | ai | template
	TemplateID *string   `db:"template_id" json:"template_id,omitempty"`
	CreatedBy  string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type QCRule struct {
	ID          string `db:"id" json:"id"`
	Code        string `db:"code" json:"code"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
	Severity    string `db:"severity" json:"severity"`
	IsActive    bool   `db:"is_active" json:"is_active"`
}

type QCIssue struct {
	ID         string     `db:"id" json:"id"`
	StudyID    string     `db:"study_id" json:"study_id"`
	DocumentID *string    `db:"document_id" json:"document_id,omitempty"`
	SectionID  *string    `db:"section_id" json:"section_id,omitempty"`
	RuleID     string     `db:"rule_id" json:"rule_id"`
	Severity   string     `db:"severity" json:"severity"`
	Status     string     `db:"status" json:"status"`
	Message    string     `db:"message" json:"message"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy string     `db:"resolved_by" json:"resolved_by,omitempty"`
}

// AICallLog records every outbound generation call, successful or not.
type AICallLog struct {
	ID            string    `db:"id" json:"id"`
	StudyID       string    `db:"study_id" json:"study_id"`
	SectionID     string    `db:"section_id" json:"section_id"`
	UserID        string    `db:"user_id" json:"user_id,omitempty"`
	Prompt        string    `db:"prompt" json:"prompt"`
	GeneratedText string    `db:"generated_text" json:"generated_text,omitempty"`
	ModelName     string    `db:"model_name" json:"model_name,omitempty"`
	Mode          string    `db:"mode" json:"mode"`
	Success       bool      `db:"success" json:"success"`
	ErrorMessage  string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// StrPtr returns a pointer to s, or nil when s is empty.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
