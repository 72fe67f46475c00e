package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orchidcraft/orchid-backend/pkg/db"
	"github.com/orchidcraft/orchid-backend/pkg/db/models"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
)

const maxAddresses = 20

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// LikedLister projects a user's likes onto their profile.
type LikedLister interface {
	ListLikedArtworkIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Service covers the profile and address book.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	CreateAddress(ctx context.Context, userID uuid.UUID, input AddressInput) (*AddressDTO, error)
	UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, input AddressInput) (*AddressDTO, error)
	DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error
}

type service struct {
	repo  *Repository
	likes LikedLister
	tx    txRunner
}

func NewService(repo *Repository, likes LikedLister, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if likes == nil {
		return nil, fmt.Errorf("like lister required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, likes: likes, tx: tx}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapUserError(err)
	}
	liked, err := s.likes.ListLikedArtworkIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user, liked), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be blank")
		}
		updates["name"] = name
	}
	if input.Bio != nil {
		updates["bio"] = strings.TrimSpace(*input.Bio)
	}
	if input.Region != nil {
		updates["region"] = strings.TrimSpace(*input.Region)
	}
	if input.Phone != nil {
		if phone := strings.TrimSpace(*input.Phone); phone == "" {
			updates["phone"] = nil
		} else {
			updates["phone"] = phone
		}
	}
	if input.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*input.AvatarURL)
	}

	if err := s.repo.Update(ctx, userID, updates); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone already in use")
		}
		return nil, mapUserError(err)
	}
	return s.GetProfile(ctx, userID)
}

func (s *service) ListAddresses(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.ListAddresses(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, addressFromModel(row))
	}
	return out, nil
}

// CreateAddress stores a new entry. The first address becomes the default.
func (s *service) CreateAddress(ctx context.Context, userID uuid.UUID, input AddressInput) (*AddressDTO, error) {
	record := input.toModel(userID)
	if err := validateAddress(record); err != nil {
		return nil, err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.CountAddresses(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count addresses")
		}
		if count >= maxAddresses {
			return pkgerrors.New(pkgerrors.CodeValidation, "address book is full")
		}
		if count == 0 {
			record.IsDefault = true
		}
		if record.IsDefault {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
			}
		}
		if err := repo.CreateAddress(ctx, &record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := addressFromModel(record)
	return &out, nil
}

func (s *service) UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, input AddressInput) (*AddressDTO, error) {
	next := input.toModel(userID)
	if err := validateAddress(next); err != nil {
		return nil, err
	}
	var saved models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindAddress(ctx, userID, addressID)
		if err != nil {
			return mapAddressError(err)
		}
		if next.IsDefault && !current.IsDefault {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
			}
		}
		next.ID = current.ID
		next.CreatedAt = current.CreatedAt
		if current.IsDefault {
			next.IsDefault = true
		}
		if err := repo.SaveAddress(ctx, &next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
		}
		saved = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := addressFromModel(saved)
	return &out, nil
}

func (s *service) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	n, err := s.repo.DeleteAddress(ctx, userID, addressID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	if n == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

func validateAddress(a models.Address) error {
	if missing := a.Shipping().MissingFields(); len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidAddress, "address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

func mapUserError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
}

func mapAddressError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
}
