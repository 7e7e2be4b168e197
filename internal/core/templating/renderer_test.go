package templating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	res := Render("Hello {{name}}, id={{xid}}", Context{"name": "Ann"})

	assert.Equal(t, "Hello Ann, id={{xid}}", res.Text)
	assert.Equal(t, map[string]string{"name": "Ann"}, res.Used)
	assert.Equal(t, []string{"xid"}, res.Missing)
}

func TestRenderAllKnown(t *testing.T) {
	res := Render("{{study_code}}: {{study_title}} ({{study_code}})", Context{"study_code": "X-1", "study_title": "Trial"})

	assert.Equal(t, "X-1: Trial (X-1)", res.Text)
	assert.Empty(t, res.Missing)
	assert.Len(t, res.Used, 2)
}

func TestRenderMissingDedupedInOrder(t *testing.T) {
	res := Render("{{b}} {{a}} {{b}} {{c}} {{a}}", nil)

	assert.Equal(t, "{{b}} {{a}} {{b}} {{c}} {{a}}", res.Text)
	assert.Equal(t, []string{"b", "a", "c"}, res.Missing)
	assert.Empty(t, res.Used)
}

func TestRenderIsSinglePass(t *testing.T) {
	res := Render("{{outer}}", Context{"outer": "{{inner}}", "inner": "boom"})

	assert.Equal(t, "{{inner}}", res.Text)
	assert.Equal(t, map[string]string{"outer": "{{inner}}"}, res.Used)
}

func TestRenderIgnoresMalformedPlaceholders(t *testing.T) {
	res := Render("{{ spaced }} {{dash-ed}} {single}", Context{"spaced": "x"})

	assert.Equal(t, "{{ spaced }} {{dash-ed}} {single}", res.Text)
	assert.Empty(t, res.Missing)
}

func TestFromAny(t *testing.T) {
	ctx := FromAny(map[string]any{"n": 3, "nil": nil, "s": "v"})
	assert.Equal(t, Context{"n": "3", "nil": "", "s": "v"}, ctx)
}
