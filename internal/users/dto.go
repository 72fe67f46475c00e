package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orchidcraft/orchid-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID            uuid.UUID   `json:"id"`
	Email         string      `json:"email"`
	Phone         *string     `json:"phone,omitempty"`
	Name          string      `json:"name"`
	Bio           string      `json:"bio"`
	Region        string      `json:"region"`
	AvatarURL     *string     `json:"avatarUrl,omitempty"`
	EmailVerified bool        `json:"emailVerified"`
	LikedArtworks []uuid.UUID `json:"likedArtworks"`
	LastLoginAt   *time.Time  `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	Name         string
	Phone        *string
	Region       string
	Verified     bool
}

type UpdateProfileInput struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Bio       *string `json:"bio,omitempty" validate:"omitempty,max=1000"`
	Region    *string `json:"region,omitempty" validate:"omitempty,max=120"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,e164"`
	AvatarURL *string `json:"avatarUrl,omitempty" validate:"omitempty,url,max=512"`
}

type AddressInput struct {
	Label      string `json:"label" validate:"max=40"`
	Name       string `json:"name" validate:"required,max=120"`
	Phone      string `json:"phone" validate:"required,max=20"`
	Line1      string `json:"line1" validate:"required,max=200"`
	Line2      string `json:"line2" validate:"max=200"`
	City       string `json:"city" validate:"required,max=80"`
	State      string `json:"state" validate:"required,max=80"`
	PostalCode string `json:"postalCode" validate:"required,max=12"`
	Country    string `json:"country" validate:"omitempty,len=2"`
	IsDefault  bool   `json:"isDefault"`
}

type AddressDTO struct {
	ID         uuid.UUID `json:"id"`
	Label      string    `json:"label"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country"`
	IsDefault  bool      `json:"isDefault"`
}

func FromModel(u *models.User, liked []uuid.UUID) *UserDTO {
	if u == nil {
		return nil
	}
	if liked == nil {
		liked = []uuid.UUID{}
	}
	return &UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		Phone:         u.Phone,
		Name:          u.Name,
		Bio:           u.Bio,
		Region:        u.Region,
		AvatarURL:     u.AvatarURL,
		EmailVerified: u.EmailVerifiedAt != nil,
		LikedArtworks: liked,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	user := &models.User{
		Email:        NormalizeEmail(c.Email),
		PasswordHash: c.PasswordHash,
		Name:         strings.TrimSpace(c.Name),
		Phone:        c.Phone,
		Region:       strings.TrimSpace(c.Region),
	}
	if c.Verified {
		now := time.Now().UTC()
		user.EmailVerifiedAt = &now
	}
	return user
}

func addressFromModel(a models.Address) AddressDTO {
	return AddressDTO{
		ID:         a.ID,
		Label:      a.Label,
		Name:       a.Name,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		IsDefault:  a.IsDefault,
	}
}

func (in AddressInput) toModel(userID uuid.UUID) models.Address {
	shipping := models.Address{
		Name: in.Name, Phone: in.Phone, Line1: in.Line1, Line2: in.Line2,
		City: in.City, State: in.State, PostalCode: in.PostalCode, Country: in.Country,
	}.Shipping()
	return models.Address{
		UserID:     userID,
		Label:      strings.TrimSpace(in.Label),
		Name:       shipping.Name,
		Phone:      shipping.Phone,
		Line1:      shipping.Line1,
		Line2:      shipping.Line2,
		City:       shipping.City,
		State:      shipping.State,
		PostalCode: shipping.PostalCode,
		Country:    shipping.Country,
		IsDefault:  in.IsDefault,
	}
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
