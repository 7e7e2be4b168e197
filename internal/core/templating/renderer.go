package templating

import (
	"fmt"
	"regexp"
)

var placeholderRe = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// Context is the variable set a template is rendered against.
type Context map[string]string

// FromAny converts loosely typed values, e.g. decoded JSON, into a Context.
// nil renders as an empty string.
func FromAny(in map[string]any) Context {
	out := make(Context, len(in))
	for k, v := range in {
		if v == nil {
			out[k] = ""
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

// Result is the outcome of one render.
type Result struct {
	Text    string            `json:"rendered_text"`
	Used    map[string]string `json:"used_variables"`
	Missing []string          `json:"missing_variables"`
}

// Render substitutes {{name}} placeholders in one pass. Unknown placeholders
// stay verbatim and are reported once each, in order of first occurrence.
// Substituted values are never re-scanned.
func Render(content string, vars Context) Result {
	res := Result{Used: map[string]string{}, Missing: []string{}}
	seen := map[string]bool{}

	res.Text = placeholderRe.ReplaceAllStringFunc(content, func(m string) string {
		name := m[2 : len(m)-2]
		if v, ok := vars[name]; ok {
			res.Used[name] = v
			return v
		}
		if !seen[name] {
			seen[name] = true
			res.Missing = append(res.Missing, name)
		}
		return m
	})
	return res
}
