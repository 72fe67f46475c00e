package likes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orchidcraft/orchid-backend/internal/artworks"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ToggleResult reports the pair state after a toggle.
type ToggleResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

// Service exposes like toggling and the user's liked projection.
type Service interface {
	ToggleLike(ctx context.Context, userID, artworkID uuid.UUID) (ToggleResult, error)
	ListLikedArtworkIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type ServiceParams struct {
	Likes    *Repository
	Artworks artworks.Repository
	Tx       txRunner
}

type service struct {
	likes    *Repository
	artworks artworks.Repository
	tx       txRunner
}

func NewService(params ServiceParams) (Service, error) {
	if params.Likes == nil {
		return nil, fmt.Errorf("like repository required")
	}
	if params.Artworks == nil {
		return nil, fmt.Errorf("artwork repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{likes: params.Likes, artworks: params.Artworks, tx: params.Tx}, nil
}

// ToggleLike flips the pair. The counter moves only when the insert or
// delete actually changed a row.
func (s *service) ToggleLike(ctx context.Context, userID, artworkID uuid.UUID) (ToggleResult, error) {
	var out ToggleResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		likes := s.likes.WithTx(tx)
		artworkRepo := s.artworks.WithTx(tx)

		if _, err := artworkRepo.FindByID(ctx, artworkID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "artwork not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artwork")
		}

		inserted, err := likes.Insert(ctx, userID, artworkID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert like")
		}
		delta := 0
		if inserted {
			out.Liked = true
			delta = 1
		} else {
			removed, err := likes.Delete(ctx, userID, artworkID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete like")
			}
			if removed {
				delta = -1
			}
		}
		if delta != 0 {
			if err := artworkRepo.AdjustLikeCount(ctx, artworkID, delta); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust like count")
			}
		}

		artwork, err := artworkRepo.FindByID(ctx, artworkID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload artwork")
		}
		out.LikeCount = artwork.LikeCount
		return nil
	})
	if err != nil {
		return ToggleResult{}, err
	}
	return out, nil
}

func (s *service) ListLikedArtworkIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.likes.ListArtworkIDs(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list likes")
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids, nil
}
