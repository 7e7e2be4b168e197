package qc

import (
	"context"

	"github.com/markdave123-py/csrdesk/internal/i18n"
	"github.com/markdave123-py/csrdesk/internal/models"
)

const CodeRequiredSections = "REQUIRED_SECTIONS"

// Finding is one problem a rule reports against a document.
type Finding struct {
	SectionID *string
	Message   string
}

// Rule is a QC check. Definition seeds the stored rule row on first use.
type Rule interface {
	Definition() models.QCRule
	Check(ctx context.Context, doc *models.OutputDocument, lang string) ([]Finding, error)
}

// RequiredSectionsRule reports every default section code absent from the document.
type RequiredSectionsRule struct {
	tr       *i18n.Translator
	required []models.SectionDef
}

func NewRequiredSectionsRule(tr *i18n.Translator) *RequiredSectionsRule {
	return &RequiredSectionsRule{tr: tr, required: models.DefaultSections}
}

func (r *RequiredSectionsRule) Definition() models.QCRule {
	return models.QCRule{
		Code:        CodeRequiredSections,
		Name:        "Required Sections Check",
		Description: "Checks that every required CSR section is present",
		Severity:    models.SeverityWarning,
		IsActive:    true,
	}
}

// Check walks the required list in order so repeated runs yield identical output.
func (r *RequiredSectionsRule) Check(_ context.Context, doc *models.OutputDocument, lang string) ([]Finding, error) {
	existing := make(map[string]struct{}, len(doc.Sections))
	for _, s := range doc.Sections {
		existing[s.Code] = struct{}{}
	}

	var out []Finding
	for _, req := range r.required {
		if _, ok := existing[req.Code]; ok {
			continue
		}
		title := req.Title
		if t, ok := r.tr.Lookup("SECTION_"+req.Code, lang); ok {
			title = t
		}
		out = append(out, Finding{
			Message: r.tr.T("QC_MISSING_SECTION", lang, map[string]string{
				"section_title": title,
				"code":          req.Code,
			}),
		})
	}
	return out, nil
}
