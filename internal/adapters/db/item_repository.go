// internal/adapters/db/item_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/preloved-be/internal/core/domain"
	"github.com/ammerola/preloved-be/internal/core/ports"
)

var itemColumns = []string{
	"id", "title", "brand", "category", "sub_category",
	"price", "original_price", "images", "sizes", "materials",
	"condition", "status", "stock_count", "tags", "description",
	"gender", "occasion", "season", "style_category",
	"date_added", "created_at", "updated_at",
}

// upsertSuffix makes Save an insert-or-replace; created_at survives updates.
const upsertSuffix = `ON CONFLICT (id) DO UPDATE SET
	title = EXCLUDED.title, brand = EXCLUDED.brand,
	category = EXCLUDED.category, sub_category = EXCLUDED.sub_category,
	price = EXCLUDED.price, original_price = EXCLUDED.original_price,
	images = EXCLUDED.images, sizes = EXCLUDED.sizes, materials = EXCLUDED.materials,
	condition = EXCLUDED.condition, status = EXCLUDED.status,
	stock_count = EXCLUDED.stock_count, tags = EXCLUDED.tags,
	description = EXCLUDED.description, gender = EXCLUDED.gender,
	occasion = EXCLUDED.occasion, season = EXCLUDED.season,
	style_category = EXCLUDED.style_category, date_added = EXCLUDED.date_added,
	updated_at = EXCLUDED.updated_at, deleted_at = NULL`

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// itemRepository implements ports.ItemRepository
type itemRepository struct {
	db     ports.Database
	logger *slog.Logger
}

// NewItemRepository creates a new item repository
func NewItemRepository(db ports.Database, logger *slog.Logger) ports.ItemRepository {
	return &itemRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "items")),
	}
}

// Save inserts the item or replaces the stored copy with the same ID.
func (r *itemRepository) Save(ctx context.Context, item *domain.Item) error {
	query, args, err := upsertQuery(item)
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}

	r.logger.DebugContext(ctx, "item saved",
		slog.String("item_id", item.ID))

	return nil
}

// SaveBatch saves multiple items in a transaction
func (r *itemRepository) SaveBatch(ctx context.Context, items []*domain.Item) error {
	if len(items) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, item := range items {
			query, args, err := upsertQuery(item)
			if err != nil {
				return err
			}
			batch.Queue(query, args...)
		}

		br := tx.SendBatch(ctx, batch)
		defer br.Close()

		for i := range items {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("failed to save item %d (%s): %w", i, items[i].ID, err)
			}
		}

		return nil
	})
}

// FindByID retrieves a live item by ID
func (r *itemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	query, args, err := selectItems().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	item, err := scanItem(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}

	return item, nil
}

// ListAll returns every live item, newest first.
func (r *itemRepository) ListAll(ctx context.Context) ([]*domain.Item, error) {
	return r.list(ctx, selectItems())
}

// ListByCategory returns the live items of one department, newest first.
func (r *itemRepository) ListByCategory(ctx context.Context, category domain.Category) ([]*domain.Item, error) {
	return r.list(ctx, selectItems().Where(squirrel.Eq{"category": string(category)}))
}

func (r *itemRepository) list(ctx context.Context, qb squirrel.SelectBuilder) ([]*domain.Item, error) {
	query, args, err := qb.OrderBy("date_added DESC", "id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}

// UpdateStock changes only the availability columns
func (r *itemRepository) UpdateStock(ctx context.Context, id string, status domain.Status, stockCount int) error {
	query, args, err := psql.Update("items").
		Set("status", string(status)).
		Set("stock_count", stockCount).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}

	return nil
}

// SoftDelete marks an item as deleted
func (r *itemRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE items SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to soft delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}

	r.logger.InfoContext(ctx, "item soft deleted",
		slog.String("item_id", id))

	return nil
}

// Count returns the number of live items
func (r *itemRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM items WHERE deleted_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}

	return count, nil
}

func selectItems() squirrel.SelectBuilder {
	return psql.Select(itemColumns...).From("items").Where("deleted_at IS NULL")
}

func upsertQuery(item *domain.Item) (string, []interface{}, error) {
	query, args, err := psql.Insert("items").
		Columns(itemColumns...).
		Values(
			item.ID, item.Title, item.Brand, string(item.Category), string(item.SubCategory),
			item.Price, item.OriginalPrice, nonNil(item.Images), toStrings(item.Sizes), toStrings(item.Materials),
			string(item.Condition), string(item.Status), item.StockCount, nonNil(item.Tags), item.Description,
			string(item.Gender), string(item.Occasion), string(item.Season), string(item.StyleCategory),
			item.DateAdded, item.CreatedAt, item.UpdatedAt,
		).
		Suffix(upsertSuffix).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build upsert: %w", err)
	}
	return query, args, nil
}

func scanItem(row pgx.Row) (*domain.Item, error) {
	var (
		item                             domain.Item
		category, sub, condition, status string
		gender, occasion, season, style  string
		sizes, materials                 []string
	)

	err := row.Scan(
		&item.ID, &item.Title, &item.Brand, &category, &sub,
		&item.Price, &item.OriginalPrice, &item.Images, &sizes, &materials,
		&condition, &status, &item.StockCount, &item.Tags, &item.Description,
		&gender, &occasion, &season, &style,
		&item.DateAdded, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Category = domain.Category(category)
	item.SubCategory = domain.SubCategory(sub)
	item.Sizes = fromStrings[domain.Size](sizes)
	item.Materials = fromStrings[domain.Material](materials)
	item.Condition = domain.Condition(condition)
	item.Status = domain.Status(status)
	item.Gender = domain.Gender(gender)
	item.Occasion = domain.Occasion(occasion)
	item.Season = domain.Season(season)
	item.StyleCategory = domain.StyleCategory(style)

	return &item, nil
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func fromStrings[T ~string](values []string) []T {
	out := make([]T, len(values))
	for i, v := range values {
		out[i] = T(v)
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
