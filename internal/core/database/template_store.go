package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/models"
)

const templateColumns = `
	id, name, COALESCE(description, ''), kind, section_code, language, scope, content,
	COALESCE(variables, 'null'::jsonb), is_default, is_active, version,
	COALESCE(created_by::text, ''), created_at, updated_at`

func scanTemplate(row interface{ Scan(...any) error }) (models.Template, error) {
	var (
		t    models.Template
		vars []byte
	)
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.Kind, &t.SectionCode, &t.Language, &t.Scope, &t.Content,
		&vars, &t.IsDefault, &t.IsActive, &t.Version, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return t, err
	}
	if err := json.Unmarshal(vars, &t.Variables); err != nil {
		return t, fmt.Errorf("decode template variables: %w", err)
	}
	return t, nil
}

func (c *DatabaseClient) CreateTemplate(ctx context.Context, t *models.Template) error {
	vars, err := json.Marshal(t.Variables)
	if err != nil {
		return fmt.Errorf("encode template variables: %w", err)
	}
	const q = `
		INSERT INTO templates
			(id, name, description, kind, section_code, language, scope, content, variables,
			 is_default, is_active, version, created_by, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10, $11, $12, NULLIF($13, '')::uuid, $14, $15)
	`
	_, err = c.db.ExecContext(ctx, q,
		t.ID, t.Name, t.Description, t.Kind, t.SectionCode, t.Language, t.Scope, t.Content, string(vars),
		t.IsDefault, t.IsActive, t.Version, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	t, err := scanTemplate(c.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "template", id)
	}
	return &t, nil
}

func (c *DatabaseClient) ListTemplates(ctx context.Context, f core.TemplateFilter) ([]models.Template, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Kind != "" {
		add("kind = $%d", f.Kind)
	}
	if f.SectionCode != "" {
		add("section_code = $%d", f.SectionCode)
	}
	if f.Language != "" {
		add("language = $%d", f.Language)
	}
	if f.Scope != "" {
		add("scope = $%d", f.Scope)
	}
	if f.ActiveOnly {
		where = append(where, "is_active")
	}

	q := `SELECT ` + templateColumns + ` FROM templates`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY is_default DESC, version DESC, id ASC`

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) SelectTemplate(ctx context.Context, sectionCode, kind, language string) (*models.Template, error) {
	list, err := c.ListTemplates(ctx, core.TemplateFilter{
		Kind: kind, SectionCode: sectionCode, Language: language, ActiveOnly: true,
	})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}
