// Package language decides which of the two supported languages applies to a
// request (UI) and to the clinical content being edited.
package language

import (
	"strconv"
	"strings"

	"github.com/markdave123-py/csrdesk/internal/apperr"
	"github.com/markdave123-py/csrdesk/internal/models"
)

const (
	RU = "ru"
	EN = "en"

	// Default is the last-resort fallback of every resolution chain.
	Default = EN
)

// Supported lists the accepted language codes.
var Supported = []string{RU, EN}

func Valid(lang string) bool {
	return lang == RU || lang == EN
}

// Parse is the strict boundary check used for explicit language fields.
func Parse(lang string) (string, error) {
	if !Valid(lang) {
		return "", apperr.Validation("language", "must be one of ru, en, got "+strconv.Quote(lang))
	}
	return lang, nil
}

// Normalize maps anything outside the supported set to Default.
func Normalize(lang string) string {
	if Valid(lang) {
		return lang
	}
	return Default
}

// ResolveRequest picks the UI language: the user's preference when valid,
// then an Accept-Language substring match ("ru" before "en"), then Default.
func ResolveRequest(user *models.User, acceptLanguage string) string {
	if user != nil && Valid(user.UILanguage) {
		return user.UILanguage
	}
	header := strings.ToLower(acceptLanguage)
	if strings.Contains(header, RU) {
		return RU
	}
	if strings.Contains(header, EN) {
		return EN
	}
	return Default
}

// ResolveContent picks the language of generated or checked content.
// Precedence: document language, user UI language, request language, Default.
// Tiers holding a missing or unsupported value are skipped.
func ResolveContent(doc *models.OutputDocument, user *models.User, requestLanguage string) string {
	if doc != nil && Valid(doc.Language) {
		return doc.Language
	}
	if user != nil && Valid(user.UILanguage) {
		return user.UILanguage
	}
	if Valid(requestLanguage) {
		return requestLanguage
	}
	return Default
}
