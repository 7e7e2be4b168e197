package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/markdave123-py/csrdesk/internal/apperr"
	"github.com/markdave123-py/csrdesk/internal/models"
)

const outputColumns = `id, study_id, title, status, COALESCE(language, ''), created_at`

func scanOutput(row interface{ Scan(...any) error }) (models.OutputDocument, error) {
	var d models.OutputDocument
	err := row.Scan(&d.ID, &d.StudyID, &d.Title, &d.Status, &d.Language, &d.CreatedAt)
	return d, err
}

func (c *DatabaseClient) GetOutputDocument(ctx context.Context, id string) (*models.OutputDocument, error) {
	d, err := scanOutput(c.db.QueryRowContext(ctx, `SELECT `+outputColumns+` FROM output_documents WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "output document", id)
	}
	if d.Sections, err = c.listSections(ctx, c.db, id); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *DatabaseClient) GetOutputDocumentByStudy(ctx context.Context, studyID string) (*models.OutputDocument, error) {
	const q = `SELECT ` + outputColumns + ` FROM output_documents WHERE study_id = $1 ORDER BY created_at ASC, id ASC LIMIT 1`
	d, err := scanOutput(c.db.QueryRowContext(ctx, q, studyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if d.Sections, err = c.listSections(ctx, c.db, d.ID); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateOutputDocument inserts the document and its initial sections atomically.
func (c *DatabaseClient) CreateOutputDocument(ctx context.Context, doc *models.OutputDocument, sections []models.OutputSection) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		const qd = `
			INSERT INTO output_documents (id, study_id, title, status, language, created_at)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		`
		if _, err := tx.ExecContext(ctx, qd, doc.ID, doc.StudyID, doc.Title, doc.Status, doc.Language, doc.CreatedAt); err != nil {
			return fmt.Errorf("insert output document: %w", err)
		}

		const qs = `INSERT INTO output_sections (id, document_id, code, title, order_index) VALUES ($1, $2, $3, $4, $5)`
		doc.Sections = make([]models.OutputSection, 0, len(sections))
		for _, s := range sections {
			s.DocumentID = doc.ID
			if _, err := tx.ExecContext(ctx, qs, s.ID, s.DocumentID, s.Code, s.Title, s.OrderIndex); err != nil {
				return fmt.Errorf("insert section %s: %w", s.Code, err)
			}
			doc.Sections = append(doc.Sections, s)
		}
		return nil
	})
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (c *DatabaseClient) listSections(ctx context.Context, q queryer, documentID string) ([]models.OutputSection, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, document_id, code, title, order_index
		FROM output_sections WHERE document_id = $1
		ORDER BY order_index ASC, id ASC
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.OutputSection{}
	for rows.Next() {
		var s models.OutputSection
		if err := rows.Scan(&s.ID, &s.DocumentID, &s.Code, &s.Title, &s.OrderIndex); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) ListSections(ctx context.Context, documentID string) ([]models.OutputSection, error) {
	var exists bool
	if err := c.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM output_documents WHERE id = $1)`, documentID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("output document", documentID)
	}
	return c.listSections(ctx, c.db, documentID)
}

func (c *DatabaseClient) GetSection(ctx context.Context, id string) (*models.OutputSection, error) {
	var s models.OutputSection
	err := c.db.QueryRowContext(ctx, `
		SELECT id, document_id, code, title, order_index FROM output_sections WHERE id = $1
	`, id).Scan(&s.ID, &s.DocumentID, &s.Code, &s.Title, &s.OrderIndex)
	if err != nil {
		return nil, notFound(err, "section", id)
	}
	return &s, nil
}

func (c *DatabaseClient) CreateSectionVersion(ctx context.Context, v *models.OutputSectionVersion) error {
	const q = `
		INSERT INTO output_section_versions (id, section_id, text, source, template_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, $7)
	`
	_, err := c.db.ExecContext(ctx, q, v.ID, v.SectionID, v.Text, v.Source, v.TemplateID, v.CreatedBy, v.CreatedAt)
	return err
}

func (c *DatabaseClient) LatestSectionVersion(ctx context.Context, sectionID string) (*models.OutputSectionVersion, error) {
	const q = `
		SELECT id, section_id, text, source, template_id::text, COALESCE(created_by::text, ''), created_at
		FROM output_section_versions
		WHERE section_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	var v models.OutputSectionVersion
	err := c.db.QueryRowContext(ctx, q, sectionID).Scan(
		&v.ID, &v.SectionID, &v.Text, &v.Source, &v.TemplateID, &v.CreatedBy, &v.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "section version", sectionID)
	}
	return &v, nil
}
