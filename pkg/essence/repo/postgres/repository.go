package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-essence/pkg/essence"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements essence.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) essence.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) essence.Repository {
	return &Repository{db: pool}
}

// EnsureSchema creates the elements, contents and essences tables when missing.
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "contents") {
				return fmt.Errorf("content already exists")
			}
			return fmt.Errorf("duplicate entry")
		case "23503": // foreign_key_violation
			if strings.Contains(pgErr.ConstraintName, "element") {
				return essence.ErrElementNotFound
			}
			return fmt.Errorf("referenced record not found")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Element operations

func (r *Repository) CreateElement(ctx context.Context, element *essence.Element) error {
	if element.ID == uuid.Nil {
		element.ID = uuid.New()
	}
	query := `
		INSERT INTO elements (id, name, position, public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		element.ID, element.Name, element.Position, element.Public,
	).Scan(&element.CreatedAt, &element.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create element", err)
	}
	return nil
}

func (r *Repository) GetElement(ctx context.Context, id uuid.UUID) (*essence.Element, error) {
	query := `
		SELECT id, name, position, public, created_at, updated_at
		FROM elements WHERE id = $1`

	var element essence.Element
	err := r.db.QueryRow(ctx, query, id).Scan(
		&element.ID, &element.Name, &element.Position, &element.Public,
		&element.CreatedAt, &element.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, essence.ErrElementNotFound
		}
		return nil, r.handlePostgresError("get element", err)
	}

	contents, err := r.listContents(ctx, `WHERE c.element_id = $1`, id)
	if err != nil {
		return nil, err
	}
	element.Contents = contents
	return &element, nil
}

func (r *Repository) ListElements(ctx context.Context) ([]*essence.Element, error) {
	query := `
		SELECT id, name, position, public, created_at, updated_at
		FROM elements ORDER BY position, name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, r.handlePostgresError("list elements", err)
	}
	defer rows.Close()

	var elements []*essence.Element
	byID := make(map[uuid.UUID]*essence.Element)
	for rows.Next() {
		var element essence.Element
		if err := rows.Scan(
			&element.ID, &element.Name, &element.Position, &element.Public,
			&element.CreatedAt, &element.UpdatedAt); err != nil {
			return nil, err
		}
		elements = append(elements, &element)
		byID[element.ID] = &element
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(elements) == 0 {
		return elements, nil
	}
	contents, err := r.listContents(ctx, "", nil)
	if err != nil {
		return nil, err
	}
	for _, c := range contents {
		if element, ok := byID[c.ElementID]; ok {
			element.Contents = append(element.Contents, c)
		}
	}
	return elements, nil
}

func (r *Repository) DeleteElement(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM elements WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete element", err)
	}
	if tag.RowsAffected() == 0 {
		return essence.ErrElementNotFound
	}
	return nil
}

// Content operations

func (r *Repository) CreateContent(ctx context.Context, content *essence.Content) error {
	if content.ID == uuid.Nil {
		content.ID = uuid.New()
	}
	settings, err := json.Marshal(essence.NewSettings(content.Settings))
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	query := `
		INSERT INTO contents (
			id, element_id, name, essence_type, essence_id, position, settings,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at`

	err = r.db.QueryRow(ctx, query,
		content.ID, content.ElementID, content.Name, content.EssenceType,
		content.EssenceID, content.Position, settings,
	).Scan(&content.CreatedAt, &content.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create content", err)
	}
	return nil
}

func (r *Repository) GetContent(ctx context.Context, id uuid.UUID) (*essence.Content, error) {
	contents, err := r.listContents(ctx, `WHERE c.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return nil, essence.ErrContentNotFound
	}
	return contents[0], nil
}

func (r *Repository) UpdateContentSettings(ctx context.Context, id uuid.UUID, settings essence.Settings) error {
	raw, err := json.Marshal(essence.NewSettings(settings))
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE contents SET settings = $2, updated_at = NOW() WHERE id = $1`, id, raw)
	if err != nil {
		return r.handlePostgresError("update content settings", err)
	}
	if tag.RowsAffected() == 0 {
		return essence.ErrContentNotFound
	}
	return nil
}

// Essence operations

func (r *Repository) CreateEssence(ctx context.Context, id uuid.UUID, e essence.Essence) error {
	data, err := essence.EncodeEssence(e)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO essences (id, essence_type, data, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())`

	if _, err := r.db.Exec(ctx, query, id, e.EssenceType(), data); err != nil {
		return r.handlePostgresError("create essence", err)
	}
	return nil
}

func (r *Repository) GetEssence(ctx context.Context, id uuid.UUID) (essence.Essence, error) {
	var (
		essenceType string
		data        []byte
	)
	err := r.db.QueryRow(ctx,
		`SELECT essence_type, data FROM essences WHERE id = $1`, id,
	).Scan(&essenceType, &data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, essence.ErrEssenceNotFound
		}
		return nil, r.handlePostgresError("get essence", err)
	}
	return essence.DecodeEssence(essenceType, data)
}

func (r *Repository) DeleteEssence(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM essences WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete essence", err)
	}
	if tag.RowsAffected() == 0 {
		return essence.ErrEssenceNotFound
	}
	return nil
}

// listContents loads contents with their essences. The LEFT JOIN leaves
// data NULL for dangling essence references, which yields a nil Essence.
func (r *Repository) listContents(ctx context.Context, where string, args ...interface{}) ([]*essence.Content, error) {
	query := `
		SELECT c.id, c.element_id, c.name, c.essence_type, c.essence_id,
		       c.position, c.settings, c.created_at, c.updated_at,
		       e.essence_type, e.data
		FROM contents c
		LEFT JOIN essences e ON e.id = c.essence_id ` + where + `
		ORDER BY c.element_id, c.position, c.name`

	if where == "" {
		args = nil
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list contents", err)
	}
	defer rows.Close()

	var contents []*essence.Content
	for rows.Next() {
		var (
			c           essence.Content
			settings    []byte
			essenceType *string
			essenceData []byte
		)
		if err := rows.Scan(
			&c.ID, &c.ElementID, &c.Name, &c.EssenceType, &c.EssenceID,
			&c.Position, &settings, &c.CreatedAt, &c.UpdatedAt,
			&essenceType, &essenceData); err != nil {
			return nil, err
		}

		raw := map[string]any{}
		if len(settings) > 0 {
			if err := json.Unmarshal(settings, &raw); err != nil {
				return nil, &essence.ContentError{ContentID: c.ID, Op: "decode settings", Err: err}
			}
		}
		c.Settings = essence.NewSettings(raw)

		if essenceType != nil {
			e, err := essence.DecodeEssence(*essenceType, essenceData)
			if err != nil {
				return nil, &essence.ContentError{ContentID: c.ID, Op: "load essence", Err: err}
			}
			c.Essence = e
		}
		contents = append(contents, &c)
	}
	return contents, rows.Err()
}
