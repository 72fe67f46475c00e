package artworks

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orchidcraft/orchid-backend/pkg/db/models"
	"github.com/orchidcraft/orchid-backend/pkg/enums"
	"github.com/orchidcraft/orchid-backend/pkg/pagination"
)

// ErrInsufficientStock is returned when a conditional decrement matches no row.
var ErrInsufficientStock = errors.New("insufficient stock")

// Repository persists artworks.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, artwork *models.Artwork) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Artwork, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Artwork, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Artwork, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Artwork, error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (*models.Artwork, error)
	AdjustLikeCount(ctx context.Context, id uuid.UUID, delta int) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, artwork *models.Artwork) error {
	return r.db.WithContext(ctx).Create(artwork).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Artwork, error) {
	var artwork models.Artwork
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&artwork).Error; err != nil {
		return nil, err
	}
	return &artwork, nil
}

// FindByIDForUpdate row-locks the artwork on postgres; SQLite serializes writers anyway.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Artwork, error) {
	q := r.db.WithContext(ctx).Where("id = ?", id)
	if isPostgres(r.db) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var artwork models.Artwork
	if err := q.First(&artwork).Error; err != nil {
		return nil, err
	}
	return &artwork, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Artwork, error) {
	out := make(map[uuid.UUID]models.Artwork, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Artwork
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := r.db.WithContext(ctx).Model(&models.Artwork{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Artwork, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).Model(&models.Artwork{})
	if filters.SellerID != nil {
		q = q.Where("seller_id = ?", *filters.SellerID)
	}
	if len(filters.Statuses) > 0 {
		q = q.Where("status IN ?", filters.Statuses)
	}
	for column, value := range map[string]string{
		"tags":           filters.Tag,
		"festival_tags":  filters.Festival,
		"recipient_tags": filters.Recipient,
	} {
		if v := strings.ToLower(strings.TrimSpace(value)); v != "" {
			q = q.Where(jsonContains(r.db, column), v)
		}
	}
	if filters.MinPrice != nil {
		q = q.Where("price >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		q = q.Where("price <= ?", *filters.MaxPrice)
	}
	if text := strings.ToLower(strings.TrimSpace(filters.Query)); text != "" {
		like := "%" + escapeLike(text) + "%"
		q = q.Where("(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", like, like)
	}
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Artwork
	err = q.Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}

// DecrementStock removes qty units and re-derives the status in the same
// statement. The row must hold at least qty units or ErrInsufficientStock
// is returned and nothing changes.
func (r *repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (*models.Artwork, error) {
	current, err := r.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Quantity < qty {
		return nil, ErrInsufficientStock
	}
	remaining := current.Quantity - qty
	status := DeriveStatus(remaining, current.Status)

	res := r.db.WithContext(ctx).Model(&models.Artwork{}).
		Where("id = ? AND quantity >= ?", id, qty).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInsufficientStock
	}
	current.Quantity = remaining
	current.Status = status
	return current, nil
}

// AdjustLikeCount moves like_count by delta without ever going below zero.
func (r *repository) AdjustLikeCount(ctx context.Context, id uuid.UUID, delta int) error {
	q := r.db.WithContext(ctx).Model(&models.Artwork{}).Where("id = ?", id)
	if delta < 0 {
		q = q.Where("like_count >= ?", -delta)
	}
	return q.UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error
}

func isPostgres(db *gorm.DB) bool {
	return db.Dialector != nil && db.Dialector.Name() == "postgres"
}

// jsonContains returns a predicate matching rows whose JSON array column
// holds the bound value.
func jsonContains(db *gorm.DB, column string) string {
	if isPostgres(db) {
		return "jsonb_exists(" + column + ", ?)"
	}
	return "EXISTS (SELECT 1 FROM json_each(" + column + ") WHERE json_each.value = ?)"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// statusesVisibleToPublic are the states anonymous listings may show.
var statusesVisibleToPublic = []enums.ArtworkStatus{enums.ArtworkStatusPublished}
