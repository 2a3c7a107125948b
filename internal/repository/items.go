package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/knowledge-vault/constants"
	"github.com/joseph-ayodele/knowledge-vault/internal/common"
	"github.com/joseph-ayodele/knowledge-vault/internal/entity"
)

type ItemRepository interface {
	ExistsByHash(ctx context.Context, hash string) (bool, error)
	ExistsByURL(ctx context.Context, url string) (bool, error)
	// Create persists a new item. A hash or URL collision yields ErrDuplicateContent.
	Create(ctx context.Context, item *entity.Item) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Item, error)
	List(ctx context.Context, filter ListFilter) ([]*entity.Item, error)
	UpdateClassification(ctx context.Context, id uuid.UUID, categoryID *uuid.UUID, confidence float64) error
	SetThumbnail(ctx context.Context, id uuid.UUID, rel string) error
}

// ListFilter narrows List. Zero values mean no restriction.
type ListFilter struct {
	CategoryID  *uuid.UUID
	ContentType constants.ContentType
	Limit       int
}

type itemRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewItemRepository(db *DB, logger *slog.Logger) ItemRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &itemRepository{
		db:     db,
		logger: logger,
	}
}

const itemColumns = "id, title, description, content_type, source_url, file_path, original_path, file_hash, " +
	"file_size, mime_type, extracted_text, thumbnail_path, category_id, confidence, stage, metadata, created_at, updated_at"

func (r *itemRepository) exists(ctx context.Context, column, value string) (bool, error) {
	var one int
	err := r.db.sql.QueryRowContext(ctx, r.db.rebind("SELECT 1 FROM items WHERE "+column+" = ? LIMIT 1"), value).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		r.logger.Error("failed to query item existence", "column", column, "error", err)
		return false, dbError("query item", err)
	}
	return true, nil
}

func (r *itemRepository) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	return r.exists(ctx, "file_hash", hash)
}

func (r *itemRepository) ExistsByURL(ctx context.Context, url string) (bool, error) {
	return r.exists(ctx, "source_url", url)
}

func (r *itemRepository) Create(ctx context.Context, item *entity.Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	meta, err := json.Marshal(metadataOrEmpty(item.Metadata))
	if err != nil {
		return common.NewAppError(common.CodeInvalidInput, "item metadata is not serialisable", errors.Join(common.ErrInvalidInput, err))
	}
	var categoryID sql.NullString
	if item.CategoryID != nil {
		categoryID = sql.NullString{String: item.CategoryID.String(), Valid: true}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", 18), ", ")
	_, err = r.db.sql.ExecContext(ctx,
		r.db.rebind("INSERT INTO items ("+itemColumns+") VALUES ("+placeholders+")"),
		item.ID.String(), item.Title, nullString(item.Description), string(item.ContentType),
		nullString(item.SourceURL), nullString(item.FilePath), nullString(item.OriginalPath), nullString(item.FileHash),
		item.FileSize, item.MimeType, nullString(item.ExtractedText), nullString(item.ThumbnailPath),
		categoryID, item.Confidence, string(item.Stage), string(meta),
		formatTime(item.CreatedAt), formatTime(item.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return common.NewAppError(common.CodeDuplicateContent, "item already exists", common.ErrDuplicateContent)
		}
		r.logger.Error("failed to create item", "title", item.Title, "error", err)
		return dbError("create item", err)
	}
	return nil
}

func (r *itemRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Item, error) {
	row := r.db.sql.QueryRowContext(ctx, r.db.rebind("SELECT "+itemColumns+" FROM items WHERE id = ?"), id.String())
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError(common.CodeNotFound, "item not found: "+id.String(), common.ErrNotFound)
	}
	if err != nil {
		return nil, dbError("get item", err)
	}
	return item, nil
}

func (r *itemRepository) List(ctx context.Context, filter ListFilter) ([]*entity.Item, error) {
	var (
		where []string
		args  []any
	)
	if filter.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, filter.CategoryID.String())
	}
	if filter.ContentType != "" {
		where = append(where, "content_type = ?")
		args = append(args, string(filter.ContentType))
	}
	query := "SELECT " + itemColumns + " FROM items"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.sql.QueryContext(ctx, r.db.rebind(query), args...)
	if err != nil {
		return nil, dbError("list items", err)
	}
	defer rows.Close()

	var result []*entity.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, dbError("scan item", err)
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *itemRepository) UpdateClassification(ctx context.Context, id uuid.UUID, categoryID *uuid.UUID, confidence float64) error {
	var cat sql.NullString
	if categoryID != nil {
		cat = sql.NullString{String: categoryID.String(), Valid: true}
	}
	return r.update(ctx, id, "category_id = ?, confidence = ?", cat, confidence)
}

func (r *itemRepository) SetThumbnail(ctx context.Context, id uuid.UUID, rel string) error {
	return r.update(ctx, id, "thumbnail_path = ?", rel)
}

func (r *itemRepository) update(ctx context.Context, id uuid.UUID, set string, args ...any) error {
	args = append(args, formatTime(time.Now()), id.String())
	res, err := r.db.sql.ExecContext(ctx, r.db.rebind("UPDATE items SET "+set+", updated_at = ? WHERE id = ?"), args...)
	if err != nil {
		r.logger.Error("failed to update item", "id", id, "error", err)
		return dbError("update item", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.NewAppError(common.CodeNotFound, "item not found: "+id.String(), common.ErrNotFound)
	}
	return nil
}

func scanItem(s rowScanner) (*entity.Item, error) {
	var (
		item                                           entity.Item
		id, meta, createdAt, updatedAt, kind, stage    string
		description, sourceURL, filePath, originalPath sql.NullString
		fileHash, extracted, thumbnail, categoryID     sql.NullString
	)
	err := s.Scan(&id, &item.Title, &description, &kind, &sourceURL, &filePath, &originalPath, &fileHash,
		&item.FileSize, &item.MimeType, &extracted, &thumbnail, &categoryID, &item.Confidence, &stage, &meta,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	item.ContentType = constants.ContentType(kind)
	item.Stage = constants.Stage(stage)
	if item.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if categoryID.Valid {
		cid, err := uuid.Parse(categoryID.String)
		if err != nil {
			return nil, err
		}
		item.CategoryID = &cid
	}
	item.Description = stringPtr(description)
	item.SourceURL = stringPtr(sourceURL)
	item.FilePath = stringPtr(filePath)
	item.OriginalPath = stringPtr(originalPath)
	item.FileHash = stringPtr(fileHash)
	item.ExtractedText = stringPtr(extracted)
	item.ThumbnailPath = stringPtr(thumbnail)
	item.CreatedAt = parseTime(createdAt)
	item.UpdatedAt = parseTime(updatedAt)
	if meta != "" && meta != "{}" {
		if err := json.Unmarshal([]byte(meta), &item.Metadata); err != nil {
			return nil, err
		}
	}
	return &item, nil
}

func metadataOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
