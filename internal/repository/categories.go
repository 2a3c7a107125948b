package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/knowledge-vault/constants"
	"github.com/joseph-ayodele/knowledge-vault/internal/common"
	"github.com/joseph-ayodele/knowledge-vault/internal/entity"
)

type CategoryRepository interface {
	// CategoryIDByName resolves a category name; ok is false when no such category exists.
	CategoryIDByName(ctx context.Context, name string) (uuid.UUID, bool, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	List(ctx context.Context) ([]*entity.Category, error)
	// EnsureDefaults inserts the missing categories and reports how many were created.
	EnsureDefaults(ctx context.Context, defs []constants.CategoryDef) (int, error)
}

type categoryRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewCategoryRepository(db *DB, logger *slog.Logger) CategoryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &categoryRepository{
		db:     db,
		logger: logger,
	}
}

const categoryColumns = "id, name, description, color, icon, created_at"

func (r *categoryRepository) CategoryIDByName(ctx context.Context, name string) (uuid.UUID, bool, error) {
	var raw string
	err := r.db.sql.QueryRowContext(ctx, r.db.rebind("SELECT id FROM categories WHERE name = ?"), name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		r.logger.Error("failed to look up category", "name", name, "error", err)
		return uuid.Nil, false, dbError("look up category", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("category %q has malformed id %q: %w", name, raw, err)
	}
	return id, true, nil
}

func (r *categoryRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	row := r.db.sql.QueryRowContext(ctx, r.db.rebind("SELECT "+categoryColumns+" FROM categories WHERE id = ?"), id.String())
	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError(common.CodeNotFound, "category not found: "+id.String(), common.ErrNotFound)
	}
	return cat, err
}

func (r *categoryRepository) List(ctx context.Context) ([]*entity.Category, error) {
	rows, err := r.db.sql.QueryContext(ctx, "SELECT "+categoryColumns+" FROM categories ORDER BY created_at, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*entity.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, cat)
	}
	return result, rows.Err()
}

func (r *categoryRepository) EnsureDefaults(ctx context.Context, defs []constants.CategoryDef) (int, error) {
	created := 0
	now := time.Now()
	for i, def := range defs {
		_, ok, err := r.CategoryIDByName(ctx, def.Name)
		if err != nil {
			return created, err
		}
		if ok {
			continue
		}
		// offset keeps declaration order stable under ORDER BY created_at
		ts := formatTime(now.Add(time.Duration(i) * time.Microsecond))
		_, err = r.db.sql.ExecContext(ctx,
			r.db.rebind("INSERT INTO categories ("+categoryColumns+") VALUES (?, ?, ?, ?, ?, ?)"),
			uuid.NewString(), def.Name, def.Description, def.Color, def.Icon, ts)
		if err != nil {
			if isUniqueViolation(err) {
				continue
			}
			r.logger.Error("failed to create category", "name", def.Name, "error", err)
			return created, err
		}
		created++
	}
	if created > 0 {
		r.logger.Info("categories initialised", "created", created)
	}
	return created, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(s rowScanner) (*entity.Category, error) {
	var (
		c      entity.Category
		id, ts string
	)
	if err := s.Scan(&id, &c.Name, &c.Description, &c.Color, &c.Icon, &ts); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	c.ID = parsed
	c.CreatedAt = parseTime(ts)
	return &c, nil
}
