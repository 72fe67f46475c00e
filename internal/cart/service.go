package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orchidcraft/orchid-backend/internal/artworks"
	"github.com/orchidcraft/orchid-backend/pkg/db/models"
	"github.com/orchidcraft/orchid-backend/pkg/enums"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
	"github.com/orchidcraft/orchid-backend/pkg/money"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages a buyer's cart. It never changes artwork stock.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error)
	UpdateQty(ctx context.Context, userID, artworkID uuid.UUID, qty int) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, artworkID uuid.UUID) (*CartDTO, error)
	GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     Repository
	artworks artworks.Repository
	tx       txRunner
}

func NewService(repo Repository, artworkRepo artworks.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if artworkRepo == nil {
		return nil, fmt.Errorf("artwork repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, artworks: artworkRepo, tx: tx}, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if input.Qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must be at least 1")
	}
	var out *CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		artworkRepo := s.artworks.WithTx(tx)

		artwork, err := artworkRepo.FindByID(ctx, input.ArtworkID)
		if err != nil {
			return mapArtworkError(err)
		}
		cart, err := repo.GetOrCreate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		existing, err := repo.FindItem(ctx, cart.ID, artwork.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		qty := input.Qty
		if existing != nil {
			qty += existing.Qty
		}
		if _, err := NewCartLine(*artwork, qty); err != nil {
			return err
		}

		if existing != nil {
			if _, err := repo.UpdateItemQty(ctx, cart.ID, artwork.ID, qty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
			}
		} else {
			pos, err := repo.NextPosition(ctx, cart.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart position")
			}
			item := &models.CartItem{CartID: cart.ID, ArtworkID: artwork.ID, Qty: qty, Position: pos}
			if err := repo.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
			}
		}

		out, err = s.buildCart(ctx, repo, artworkRepo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) UpdateQty(ctx context.Context, userID, artworkID uuid.UUID, qty int) (*CartDTO, error) {
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must be at least 1")
	}
	var out *CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		artworkRepo := s.artworks.WithTx(tx)

		cart, err := s.requireLine(ctx, repo, userID, artworkID)
		if err != nil {
			return err
		}
		artwork, err := artworkRepo.FindByID(ctx, artworkID)
		if err != nil {
			return mapArtworkError(err)
		}
		if _, err := NewCartLine(*artwork, qty); err != nil {
			return err
		}
		if _, err := repo.UpdateItemQty(ctx, cart.ID, artworkID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		out, err = s.buildCart(ctx, repo, artworkRepo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, artworkID uuid.UUID) (*CartDTO, error) {
	var out *CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.requireLine(ctx, repo, userID, artworkID)
		if err != nil {
			return err
		}
		if _, err := repo.DeleteItem(ctx, cart.ID, artworkID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		out, err = s.buildCart(ctx, repo, s.artworks.WithTx(tx), userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	return s.buildCart(ctx, s.repo, s.artworks, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart == nil {
		return nil
	}
	if err := s.repo.Clear(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) requireLine(ctx context.Context, repo Repository, userID, artworkID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	item, err := repo.FindItem(ctx, cart.ID, artworkID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return cart, nil
}

func (s *service) buildCart(ctx context.Context, repo Repository, artworkRepo artworks.Repository, userID uuid.UUID) (*CartDTO, error) {
	cart, err := repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart == nil {
		out := emptyCart()
		return &out, nil
	}

	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ArtworkID)
	}
	byID, err := artworkRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart artworks")
	}
	return assemble(*cart, byID)
}

// assemble expands items with current artwork data. Lines whose artwork has
// vanished are dropped from the view.
func assemble(cart models.Cart, byID map[uuid.UUID]models.Artwork) (*CartDTO, error) {
	out := emptyCart()
	id := cart.ID
	updated := cart.UpdatedAt
	out.ID = &id
	out.UpdatedAt = &updated

	currencies := map[enums.Currency]struct{}{}
	for _, item := range cart.Items {
		artwork, ok := byID[item.ArtworkID]
		if !ok {
			continue
		}
		lineTotal, err := money.Multiply(artwork.Price, item.Qty)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "line total")
		}
		line := LineDTO{
			ArtworkID: artwork.ID,
			SellerID:  artwork.SellerID,
			Title:     artwork.Title,
			UnitPrice: artwork.Price,
			Currency:  artwork.Currency,
			Status:    artwork.Status,
			Available: artwork.Quantity,
			Qty:       item.Qty,
			LineTotal: lineTotal,
			ImageURL:  artwork.Media.FirstURL(),
		}
		out.Items = append(out.Items, line)
		out.ItemCount += item.Qty
		out.Subtotal += lineTotal
		currencies[artwork.Currency] = struct{}{}
	}
	if len(currencies) == 1 {
		for c := range currencies {
			out.Currency = c
		}
	}
	return &out, nil
}

func mapArtworkError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "artwork not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artwork")
}
