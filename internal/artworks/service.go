package artworks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orchidcraft/orchid-backend/pkg/db/models"
	"github.com/orchidcraft/orchid-backend/pkg/enums"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
	"github.com/orchidcraft/orchid-backend/pkg/money"
	"github.com/orchidcraft/orchid-backend/pkg/pagination"
	"github.com/orchidcraft/orchid-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog operations.
type Service interface {
	Create(ctx context.Context, sellerID uuid.UUID, input CreateArtworkInput) (ArtworkDTO, error)
	Update(ctx context.Context, sellerID, artworkID uuid.UUID, input UpdateArtworkInput) (ArtworkDTO, error)
	Remove(ctx context.Context, sellerID, artworkID uuid.UUID) error
	Get(ctx context.Context, viewerID *uuid.UUID, artworkID uuid.UUID) (ArtworkDTO, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (ArtworkPage, error)
	ListMine(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (ArtworkPage, error)
	AppendMedia(ctx context.Context, sellerID, artworkID uuid.UUID, item types.MediaItem) (ArtworkDTO, error)
	RemoveMedia(ctx context.Context, sellerID, artworkID uuid.UUID, publicID string) (types.MediaItem, ArtworkDTO, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("artworks repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, sellerID uuid.UUID, input CreateArtworkInput) (ArtworkDTO, error) {
	price, err := money.DecimalToMinor(input.Price)
	if err != nil {
		return ArtworkDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid price").
			WithDetails(map[string]string{"price": err.Error()})
	}
	currency, err := parseCurrency(input.Currency)
	if err != nil {
		return ArtworkDTO{}, err
	}
	record, err := NewArtwork(Draft{
		SellerID:      sellerID,
		Title:         input.Title,
		Description:   input.Description,
		Media:         input.Media,
		Price:         price,
		Currency:      currency,
		Quantity:      input.Quantity,
		Status:        enums.ArtworkStatus(strings.ToLower(input.Status)),
		Tags:          input.Tags,
		FestivalTags:  input.FestivalTags,
		RecipientTags: input.RecipientTags,
		Embedding:     input.Embedding,
	})
	if err != nil {
		return ArtworkDTO{}, err
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return ArtworkDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create artwork")
	}
	return FromModel(*record), nil
}

func (s *service) Update(ctx context.Context, sellerID, artworkID uuid.UUID, input UpdateArtworkInput) (ArtworkDTO, error) {
	var out ArtworkDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.loadOwned(ctx, repo, sellerID, artworkID)
		if err != nil {
			return err
		}
		if current.Status == enums.ArtworkStatusRemoved {
			return pkgerrors.New(pkgerrors.CodeNotFound, "artwork not found")
		}

		next, err := applyUpdate(*current, input)
		if err != nil {
			return err
		}
		updates := map[string]any{
			"title":          next.Title,
			"description":    next.Description,
			"price":          next.Price,
			"currency":       next.Currency,
			"quantity":       next.Quantity,
			"status":         next.Status,
			"tags":           next.Tags,
			"festival_tags":  next.FestivalTags,
			"recipient_tags": next.RecipientTags,
			"embedding":      next.Embedding,
		}
		if err := repo.Update(ctx, artworkID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update artwork")
		}
		reloaded, err := repo.FindByID(ctx, artworkID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload artwork")
		}
		out = FromModel(*reloaded)
		return nil
	})
	return out, err
}

// applyUpdate merges the patch and revalidates the result through NewArtwork.
func applyUpdate(current models.Artwork, input UpdateArtworkInput) (*models.Artwork, error) {
	if current.Status == enums.ArtworkStatusRemoved {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "removed listings cannot be edited")
	}
	status := current.Status
	if input.Status != nil {
		status = enums.ArtworkStatus(strings.ToLower(*input.Status))
	}
	// removal skips revalidation, so it must come alone
	if status == enums.ArtworkStatusRemoved {
		if input.hasFieldChanges() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "status removed cannot be combined with other changes")
		}
		current.Status = enums.ArtworkStatusRemoved
		return &current, nil
	}
	// out_of_stock is derived, so validate as published and let DeriveStatus settle it
	if status == enums.ArtworkStatusOutOfStock {
		status = enums.ArtworkStatusPublished
	}

	draft := Draft{
		SellerID:      current.SellerID,
		Title:         current.Title,
		Description:   current.Description,
		Media:         current.Media,
		Price:         current.Price,
		Currency:      current.Currency,
		Quantity:      current.Quantity,
		Status:        status,
		Tags:          current.Tags,
		FestivalTags:  current.FestivalTags,
		RecipientTags: current.RecipientTags,
		Embedding:     current.Embedding,
	}
	if input.Title != nil {
		draft.Title = *input.Title
	}
	if input.Description != nil {
		draft.Description = *input.Description
	}
	if input.Price != nil {
		price, err := money.DecimalToMinor(*input.Price)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid price").
				WithDetails(map[string]string{"price": err.Error()})
		}
		draft.Price = price
	}
	if input.Currency != nil {
		currency, err := parseCurrency(*input.Currency)
		if err != nil {
			return nil, err
		}
		draft.Currency = currency
	}
	if input.Quantity != nil {
		draft.Quantity = *input.Quantity
	}
	if input.Tags != nil {
		draft.Tags = *input.Tags
	}
	if input.FestivalTags != nil {
		draft.FestivalTags = *input.FestivalTags
	}
	if input.RecipientTags != nil {
		draft.RecipientTags = *input.RecipientTags
	}
	if input.Embedding != nil {
		draft.Embedding = *input.Embedding
	}

	next, err := NewArtwork(draft)
	if err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.LikeCount = current.LikeCount
	next.CreatedAt = current.CreatedAt
	return next, nil
}

// Remove soft-deletes the listing. Existing orders keep their snapshots.
func (s *service) Remove(ctx context.Context, sellerID, artworkID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.loadOwned(ctx, repo, sellerID, artworkID)
		if err != nil {
			return err
		}
		if current.Status == enums.ArtworkStatusRemoved {
			return nil
		}
		if err := repo.Update(ctx, artworkID, map[string]any{"status": enums.ArtworkStatusRemoved}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove artwork")
		}
		return nil
	})
}

// Get returns a listing. Drafts and removed listings are only visible to their seller.
func (s *service) Get(ctx context.Context, viewerID *uuid.UUID, artworkID uuid.UUID) (ArtworkDTO, error) {
	artwork, err := s.repo.FindByID(ctx, artworkID)
	if err != nil {
		return ArtworkDTO{}, mapLoadError(err)
	}
	isOwner := viewerID != nil && *viewerID == artwork.SellerID
	if !isOwner && (artwork.Status == enums.ArtworkStatusDraft || artwork.Status == enums.ArtworkStatusRemoved) {
		return ArtworkDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "artwork not found")
	}
	return FromModel(*artwork), nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (ArtworkPage, error) {
	if filters.MinPrice != nil && filters.MaxPrice != nil && *filters.MinPrice > *filters.MaxPrice {
		return ArtworkPage{}, pkgerrors.New(pkgerrors.CodeValidation, "minPrice must not exceed maxPrice")
	}
	filters.Statuses = statusesVisibleToPublic
	return s.list(ctx, filters, params)
}

func (s *service) ListMine(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (ArtworkPage, error) {
	return s.list(ctx, ListFilters{
		SellerID: &sellerID,
		Statuses: []enums.ArtworkStatus{
			enums.ArtworkStatusDraft,
			enums.ArtworkStatusPublished,
			enums.ArtworkStatusOutOfStock,
		},
	}, params)
}

func (s *service) list(ctx context.Context, filters ListFilters, params pagination.Params) (ArtworkPage, error) {
	rows, err := s.repo.List(ctx, filters, params)
	if err != nil {
		if strings.Contains(err.Error(), "cursor") {
			return ArtworkPage{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		return ArtworkPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list artworks")
	}
	page := pagination.Build(rows, params.Limit, func(a models.Artwork) pagination.Cursor {
		return pagination.Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
	})
	items := make([]ArtworkDTO, 0, len(page.Items))
	for _, row := range page.Items {
		items = append(items, FromModel(row))
	}
	return ArtworkPage{Items: items, NextCursor: page.NextCursor}, nil
}

func (s *service) AppendMedia(ctx context.Context, sellerID, artworkID uuid.UUID, item types.MediaItem) (ArtworkDTO, error) {
	var out ArtworkDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.loadOwned(ctx, repo, sellerID, artworkID)
		if err != nil {
			return err
		}
		media := append(types.MediaList{}, current.Media...)
		media = append(media, item)
		if err := validateMedia(media); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid media").
				WithDetails(map[string]string{"media": err.Error()})
		}
		if err := repo.Update(ctx, artworkID, map[string]any{"media": media}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach media")
		}
		current.Media = media
		out = FromModel(*current)
		return nil
	})
	return out, err
}

func (s *service) RemoveMedia(ctx context.Context, sellerID, artworkID uuid.UUID, publicID string) (types.MediaItem, ArtworkDTO, error) {
	var (
		removed types.MediaItem
		out     ArtworkDTO
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.loadOwned(ctx, repo, sellerID, artworkID)
		if err != nil {
			return err
		}
		for _, item := range current.Media {
			if item.PublicID == publicID {
				removed = item
			}
		}
		media, found := current.Media.Without(publicID)
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
		}
		if err := repo.Update(ctx, artworkID, map[string]any{"media": media}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach media")
		}
		current.Media = media
		out = FromModel(*current)
		return nil
	})
	return removed, out, err
}

func (s *service) loadOwned(ctx context.Context, repo Repository, sellerID, artworkID uuid.UUID) (*models.Artwork, error) {
	artwork, err := repo.FindByIDForUpdate(ctx, artworkID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	if artwork.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "artwork belongs to another seller")
	}
	return artwork, nil
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "artwork not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artwork")
}

func parseCurrency(raw string) (enums.Currency, error) {
	if strings.TrimSpace(raw) == "" {
		return enums.CurrencyINR, nil
	}
	currency, err := enums.ParseCurrency(raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency").
			WithDetails(map[string]string{"currency": err.Error()})
	}
	return currency, nil
}
