package qc

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/markdave123-py/csrdesk/internal/core/language"
	"github.com/markdave123-py/csrdesk/internal/models"
)

//go:embed config.yaml
var defaultConfig []byte

// RuleConfig overrides a rule for one language.
type RuleConfig struct {
	Enabled  *bool  `yaml:"enabled"`
	Severity string `yaml:"severity"`
}

// Config is language -> rule key -> settings.
type Config map[string]map[string]RuleConfig

// ruleKeys maps rule codes onto config keys.
var ruleKeys = map[string]string{
	CodeRequiredSections: "required_sections",
}

// DefaultConfig parses the embedded config.yaml.
func DefaultConfig() (Config, error) {
	return ParseConfig(defaultConfig)
}

func ParseConfig(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse qc config: %w", err)
	}
	for lang, rules := range c {
		for key, rc := range rules {
			switch rc.Severity {
			case "", models.SeverityInfo, models.SeverityWarning, models.SeverityError:
			default:
				return nil, fmt.Errorf("qc config %s.%s: unknown severity %q", lang, key, rc.Severity)
			}
		}
	}
	return c, nil
}

// ForRule returns the settings of a rule code in a language; unsupported
// languages read the English block.
func (c Config) ForRule(code, lang string) RuleConfig {
	key, ok := ruleKeys[code]
	if !ok {
		return RuleConfig{}
	}
	return c[language.Normalize(lang)][key]
}

func (rc RuleConfig) enabled() bool {
	return rc.Enabled == nil || *rc.Enabled
}
