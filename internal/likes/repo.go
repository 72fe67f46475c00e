package likes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orchidcraft/orchid-backend/pkg/db/models"
)

// Repository encapsulates like persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a like repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Insert adds the pair and reports whether a row was written; duplicates are ignored.
func (r *Repository) Insert(ctx context.Context, userID, artworkID uuid.UUID) (bool, error) {
	row := models.Like{UserID: userID, ArtworkID: artworkID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "artwork_id"}},
			DoNothing: true,
		}).
		Create(&row)
	return res.RowsAffected == 1, res.Error
}

// Delete removes the pair and reports whether a row existed.
func (r *Repository) Delete(ctx context.Context, userID, artworkID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND artwork_id = ?", userID, artworkID).
		Delete(&models.Like{})
	return res.RowsAffected > 0, res.Error
}

// ListArtworkIDs returns the user's liked artwork ids, newest like first.
func (r *Repository) ListArtworkIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Pluck("artwork_id", &ids).Error
	return ids, err
}
