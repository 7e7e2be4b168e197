package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/csrdesk/internal/apperr"
	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/models"
)

var _ core.DbClient = (*DatabaseClient)(nil)

type DatabaseClient struct {
	db *sql.DB
}

// NewDatabaseClient opens the pool, pings it and applies the schema once.
func NewDatabaseClient(ctx context.Context, databaseURL string) (*DatabaseClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// Ping checks the connection pool.
func (c *DatabaseClient) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// withTx runs fn in a transaction, committing on nil and rolling back otherwise.
func (c *DatabaseClient) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// invalidTextRepresentation is raised when an id is not a valid uuid.
const invalidTextRepresentation = "22P02"

// notFound converts sql.ErrNoRows, and ids that cannot exist because they are
// not uuids, into an apperr NotFound.
func notFound(err error, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(entity, id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation {
		return apperr.NotFound(entity, id)
	}
	return err
}

func expectOne(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(entity, id)
	}
	return nil
}

// users & studies

func (c *DatabaseClient) CreateUser(ctx context.Context, u *models.User) error {
	const q = `
		INSERT INTO users (id, username, full_name, email, ui_language, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := c.db.ExecContext(ctx, q, u.ID, u.Username, u.FullName, u.Email, u.UILanguage, u.IsActive, u.CreatedAt)
	return err
}

func (c *DatabaseClient) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const q = `
		SELECT id, username, COALESCE(full_name, ''), COALESCE(email, ''), ui_language, is_active, created_at
		FROM users WHERE id = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&u.ID, &u.Username, &u.FullName, &u.Email, &u.UILanguage, &u.IsActive, &u.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

func (c *DatabaseClient) CreateStudy(ctx context.Context, st *models.Study) error {
	const q = `
		INSERT INTO studies (id, code, title, phase, indication, sponsor_name, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE(NULLIF($7, ''), 'active'), $8)
	`
	_, err := c.db.ExecContext(ctx, q, st.ID, st.Code, st.Title, st.Phase, st.Indication, st.SponsorName, st.Status, st.CreatedAt)
	return err
}

func (c *DatabaseClient) GetStudy(ctx context.Context, id string) (*models.Study, error) {
	const q = `
		SELECT id, code, title, phase, indication, sponsor_name, status, created_at
		FROM studies WHERE id = $1
	`
	var st models.Study
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&st.ID, &st.Code, &st.Title, &st.Phase, &st.Indication, &st.SponsorName, &st.Status, &st.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "study", id)
	}
	return &st, nil
}
