// Package prompt assembles the fallback generation prompt used when no prompt
// template exists for a section and language.
package prompt

import (
	"fmt"
	"strings"

	"github.com/markdave123-py/csrdesk/internal/core/language"
	"github.com/markdave123-py/csrdesk/internal/models"
)

// Input carries everything the prompt mentions. RAGContext is keyed by
// source category (protocol, sap, tlf, csr_prev).
type Input struct {
	Study       *models.Study
	Section     *models.OutputSection
	CurrentText string
	RAGContext  map[string]string
	UserPrompt  string
	Language    string
}

var contextSections = []struct {
	category string
	header   msgID
}{
	{models.CategoryProtocol, msgProtocol},
	{models.CategorySAP, msgSAP},
	{models.CategoryTLF, msgTLF},
	{models.CategoryCSRPrev, msgCSRPrev},
}

// Build renders the complete prompt in the requested language; unknown
// languages get the English text.
func Build(in Input) string {
	lang := language.Normalize(in.Language)
	t := func(id msgID) string { return text(id, lang) }

	lines := []string{
		t(msgRole),
		fmt.Sprintf(t(msgStudy), in.Study.Title, in.Study.Code),
		fmt.Sprintf(t(msgSection), in.Section.Title, in.Section.Code),
		"",
		t(msgFormatHeader),
		t(msgFormatStructured),
		t(msgFormatContextOnly),
		t(msgFormatGaps),
		t(msgFormatLanguage),
	}

	if v := models.Deref(in.Study.Phase); v != "" {
		lines = append(lines, fmt.Sprintf(t(msgPhase), v))
	}
	if v := models.Deref(in.Study.Indication); v != "" {
		lines = append(lines, fmt.Sprintf(t(msgIndication), v))
	}
	if v := models.Deref(in.Study.SponsorName); v != "" {
		lines = append(lines, fmt.Sprintf(t(msgSponsor), v))
	}

	lines = append(lines, "", t(msgContextHeader), "")
	for _, cs := range contextSections {
		if block := in.RAGContext[cs.category]; block != "" {
			lines = append(lines, t(cs.header), block, "")
		}
	}

	if in.CurrentText != "" {
		lines = append(lines, t(msgCurrentText), "", in.CurrentText, "")
	}

	if in.UserPrompt != "" {
		lines = append(lines, t(msgUserInstructions), "", in.UserPrompt, "")
	} else {
		lines = append(lines, t(msgTaskHeader), "", t(msgTaskDefault), "")
	}

	return strings.Join(lines, "\n")
}
