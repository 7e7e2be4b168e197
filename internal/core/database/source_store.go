package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/models"
)

const sourceColumns = `
	id, study_id, category, file_name, storage_key, COALESCE(content_type, ''), language,
	COALESCE(version_label, ''), status, is_current, is_rag_enabled, index_status,
	COALESCE(uploaded_by::text, ''), uploaded_at`

func scanSource(row interface{ Scan(...any) error }) (models.SourceDocument, error) {
	var d models.SourceDocument
	err := row.Scan(
		&d.ID, &d.StudyID, &d.Category, &d.FileName, &d.StorageKey, &d.ContentType, &d.Language,
		&d.VersionLabel, &d.Status, &d.IsCurrent, &d.IsRAGEnabled, &d.IndexStatus,
		&d.UploadedBy, &d.UploadedAt,
	)
	return d, err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (c *DatabaseClient) CreateSourceDocument(ctx context.Context, d *models.SourceDocument) error {
	return insertSource(ctx, c.db, d)
}

func insertSource(ctx context.Context, ex execer, d *models.SourceDocument) error {
	const q = `
		INSERT INTO source_documents
			(id, study_id, category, file_name, storage_key, content_type, language, version_label,
			 status, is_current, is_rag_enabled, index_status, uploaded_by, uploaded_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, '')::uuid, $14)
	`
	_, err := ex.ExecContext(ctx, q,
		d.ID, d.StudyID, d.Category, d.FileName, d.StorageKey, d.ContentType, d.Language, d.VersionLabel,
		d.Status, d.IsCurrent, d.IsRAGEnabled, d.IndexStatus, d.UploadedBy, d.UploadedAt)
	return err
}

func (c *DatabaseClient) GetSourceDocument(ctx context.Context, id string) (*models.SourceDocument, error) {
	d, err := scanSource(c.db.QueryRowContext(ctx, `SELECT `+sourceColumns+` FROM source_documents WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "source document", id)
	}
	return &d, nil
}

func (c *DatabaseClient) ListSourceDocuments(ctx context.Context, studyID string, includeArchived bool) ([]models.SourceDocument, error) {
	q := `SELECT ` + sourceColumns + ` FROM source_documents WHERE study_id = $1`
	if !includeArchived {
		q += ` AND status <> 'archived'`
	}
	q += ` ORDER BY uploaded_at DESC, id DESC`

	rows, err := c.db.QueryContext(ctx, q, studyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SourceDocument
	for rows.Next() {
		d, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateSourceStatus(ctx context.Context, id, status string, isCurrent bool) error {
	res, err := c.db.ExecContext(ctx, `UPDATE source_documents SET status = $2, is_current = $3 WHERE id = $1`, id, status, isCurrent)
	if err != nil {
		return err
	}
	return expectOne(res, "source document", id)
}

func (c *DatabaseClient) UpdateSourceIndexStatus(ctx context.Context, id, indexStatus string) error {
	res, err := c.db.ExecContext(ctx, `UPDATE source_documents SET index_status = $2 WHERE id = $1`, id, indexStatus)
	if err != nil {
		return err
	}
	return expectOne(res, "source document", id)
}

// CreateCurrentSource supersedes the tuple's current documents and inserts d
// in one transaction.
func (c *DatabaseClient) CreateCurrentSource(ctx context.Context, d *models.SourceDocument) error {
	const supersede = `
		UPDATE source_documents
		SET status = 'superseded', is_current = FALSE
		WHERE study_id = $1 AND category = $2 AND language = $3 AND is_current
	`
	return c.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, supersede, d.StudyID, d.Category, d.Language); err != nil {
			return fmt.Errorf("supersede sources: %w", err)
		}
		if err := insertSource(ctx, tx, d); err != nil {
			return fmt.Errorf("insert source: %w", err)
		}
		return nil
	})
}

// DeleteSourceDocument removes the row; chunks go with it via ON DELETE CASCADE.
func (c *DatabaseClient) DeleteSourceDocument(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM source_documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, "source document", id)
}

// chunks

func (c *DatabaseClient) ReplaceChunks(ctx context.Context, sourceDocumentID string, chunks []models.RagChunk) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM rag_chunks WHERE source_document_id = $1`, sourceDocumentID); err != nil {
			return fmt.Errorf("delete chunks: %w", err)
		}
		if len(chunks) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO rag_chunks (id, study_id, source_document_id, category, order_index, text, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, ch := range chunks {
			if _, err := stmt.ExecContext(ctx, ch.ID, ch.StudyID, sourceDocumentID, ch.Category, ch.OrderIndex, ch.Text, ch.CreatedAt); err != nil {
				return fmt.Errorf("insert chunk %d: %w", ch.OrderIndex, err)
			}
		}
		return nil
	})
}

func (c *DatabaseClient) ListChunks(ctx context.Context, cq core.ChunkQuery) ([]models.RagChunk, error) {
	const q = `
		SELECT ch.id, ch.study_id, ch.source_document_id, ch.category, ch.order_index, ch.text, ch.created_at
		FROM rag_chunks ch
		JOIN source_documents sd ON sd.id = ch.source_document_id
		WHERE ch.study_id = $1
		  AND ch.category = $2
		  AND ($3 = '' OR sd.language = $3)
		ORDER BY ch.order_index ASC, ch.id ASC
		LIMIT $4
	`
	limit := cq.Limit
	if limit <= 0 {
		limit = 1 << 30
	}
	rows, err := c.db.QueryContext(ctx, q, cq.StudyID, cq.Category, cq.Language, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RagChunk
	for rows.Next() {
		var ch models.RagChunk
		if err := rows.Scan(&ch.ID, &ch.StudyID, &ch.SourceDocumentID, &ch.Category, &ch.OrderIndex, &ch.Text, &ch.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}
