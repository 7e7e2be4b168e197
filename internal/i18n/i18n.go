// Package i18n translates message keys for the two supported languages.
package i18n

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var defaultCatalog []byte

var paramRe = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

const fallbackLanguage = "en"

// Translator looks up messages by (language, key).
type Translator struct {
	messages map[string]map[string]string
}

// New loads the embedded catalog.
func New() (*Translator, error) {
	return Parse(defaultCatalog)
}

// MustNew is New for package-level wiring; the embedded catalog is static.
func MustNew() *Translator {
	tr, err := New()
	if err != nil {
		panic(err)
	}
	return tr
}

// Parse builds a Translator from a YAML catalog of language -> key -> text.
func Parse(data []byte) (*Translator, error) {
	var m map[string]map[string]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse message catalog: %w", err)
	}
	return &Translator{messages: m}, nil
}

// NormalizeLanguage maps any code starting with "ru" to ru, everything else to en.
func NormalizeLanguage(lang string) string {
	if strings.HasPrefix(strings.ToLower(lang), "ru") {
		return "ru"
	}
	return fallbackLanguage
}

// Lookup returns the raw message, falling back to English. ok is false when
// neither language has the key.
func (t *Translator) Lookup(key, lang string) (string, bool) {
	lang = NormalizeLanguage(lang)
	if msg, ok := t.messages[lang][key]; ok {
		return msg, true
	}
	msg, ok := t.messages[fallbackLanguage][key]
	return msg, ok
}

// T translates key and fills {name} params. A missing key yields the key
// itself; a message referencing an absent param is returned unformatted.
func (t *Translator) T(key, lang string, params map[string]string) string {
	msg, ok := t.Lookup(key, lang)
	if !ok {
		return key
	}
	if len(params) == 0 {
		return msg
	}
	for _, m := range paramRe.FindAllStringSubmatch(msg, -1) {
		if _, ok := params[m[1]]; !ok {
			return msg
		}
	}
	return paramRe.ReplaceAllStringFunc(msg, func(p string) string {
		return params[p[1:len(p)-1]]
	})
}
