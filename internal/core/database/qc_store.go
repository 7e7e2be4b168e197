package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/models"
)

func (c *DatabaseClient) GetRuleByCode(ctx context.Context, code string) (*models.QCRule, error) {
	var r models.QCRule
	err := c.db.QueryRowContext(ctx, `
		SELECT id, code, name, COALESCE(description, ''), severity, is_active
		FROM qc_rules WHERE code = $1
	`, code).Scan(&r.ID, &r.Code, &r.Name, &r.Description, &r.Severity, &r.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRule inserts the rule; when a concurrent caller created it first the
// stored row is loaded back into rule.
func (c *DatabaseClient) CreateRule(ctx context.Context, rule *models.QCRule) error {
	const q = `
		INSERT INTO qc_rules (id, code, name, description, severity, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO UPDATE SET code = EXCLUDED.code
		RETURNING id, name, COALESCE(description, ''), severity, is_active
	`
	return c.db.QueryRowContext(ctx, q, rule.ID, rule.Code, rule.Name, rule.Description, rule.Severity, rule.IsActive).
		Scan(&rule.ID, &rule.Name, &rule.Description, &rule.Severity, &rule.IsActive)
}

// ReplaceOpenIssues deletes the open issues of (document, rule) and inserts
// the new set in one transaction, so readers never see an empty window.
func (c *DatabaseClient) ReplaceOpenIssues(ctx context.Context, documentID, ruleID string, issues []models.QCIssue) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM qc_issues WHERE document_id = $1 AND rule_id = $2 AND status = 'open'
		`, documentID, ruleID); err != nil {
			return fmt.Errorf("delete open issues: %w", err)
		}
		if len(issues) == 0 {
			return nil
		}

		var (
			values []string
			args   []any
		)
		for _, is := range issues {
			n := len(args)
			values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8, n+9))
			args = append(args, is.ID, is.StudyID, is.DocumentID, is.SectionID, is.RuleID, is.Severity, is.Status, is.Message, is.CreatedAt)
		}
		q := `INSERT INTO qc_issues (id, study_id, document_id, section_id, rule_id, severity, status, message, created_at) VALUES ` +
			strings.Join(values, ", ")
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert issues: %w", err)
		}
		return nil
	})
}

func (c *DatabaseClient) ListIssues(ctx context.Context, f core.IssueFilter) ([]models.QCIssue, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.StudyID != "" {
		add("study_id = $%d", f.StudyID)
	}
	if f.DocumentID != "" {
		add("document_id = $%d", f.DocumentID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Severity != "" {
		add("severity = $%d", f.Severity)
	}

	q := `
		SELECT id, study_id, document_id::text, section_id::text, rule_id, severity, status, message,
		       created_at, resolved_at, COALESCE(resolved_by::text, '')
		FROM qc_issues`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.QCIssue
	for rows.Next() {
		var is models.QCIssue
		if err := rows.Scan(
			&is.ID, &is.StudyID, &is.DocumentID, &is.SectionID, &is.RuleID, &is.Severity, &is.Status, &is.Message,
			&is.CreatedAt, &is.ResolvedAt, &is.ResolvedBy,
		); err != nil {
			return nil, err
		}
		out = append(out, is)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) CreateAICallLog(ctx context.Context, e *models.AICallLog) error {
	const q = `
		INSERT INTO ai_call_logs
			(id, study_id, section_id, user_id, prompt, generated_text, model_name, mode, success, error_message, created_at)
		VALUES
			($1, $2, NULLIF($3, '')::uuid, NULLIF($4, '')::uuid, $5, $6, $7, $8, $9, NULLIF($10, ''), $11)
	`
	_, err := c.db.ExecContext(ctx, q,
		e.ID, e.StudyID, e.SectionID, e.UserID, e.Prompt, e.GeneratedText, e.ModelName, e.Mode, e.Success, e.ErrorMessage, e.CreatedAt)
	return err
}
