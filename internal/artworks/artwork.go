package artworks

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/orchidcraft/orchid-backend/pkg/db/models"
	"github.com/orchidcraft/orchid-backend/pkg/enums"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
	"github.com/orchidcraft/orchid-backend/pkg/types"
)

const (
	maxTitleLen       = 140
	maxDescriptionLen = 5000
	maxTags           = 20
	maxTagLen         = 40
	maxMediaItems     = 10
)

// Draft is the validated input for a new listing.
type Draft struct {
	SellerID      uuid.UUID
	Title         string
	Description   string
	Media         types.MediaList
	Price         int64
	Currency      enums.Currency
	Quantity      int
	Status        enums.ArtworkStatus
	Tags          []string
	FestivalTags  []string
	RecipientTags []string
	Embedding     []float32
}

// NewArtwork validates d and returns the record to persist. The status is
// passed through DeriveStatus so a published listing with no stock starts
// out_of_stock.
func NewArtwork(d Draft) (*models.Artwork, error) {
	if d.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	title := strings.TrimSpace(d.Title)
	fields := map[string]string{}
	if title == "" {
		fields["title"] = "is required"
	} else if utf8.RuneCountInString(title) > maxTitleLen {
		fields["title"] = fmt.Sprintf("must be at most %d characters", maxTitleLen)
	}
	description := strings.TrimSpace(d.Description)
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		fields["description"] = fmt.Sprintf("must be at most %d characters", maxDescriptionLen)
	}
	if d.Price <= 0 {
		fields["price"] = "must be greater than zero"
	}
	if d.Quantity < 0 {
		fields["quantity"] = "must not be negative"
	}

	currency := d.Currency
	if currency == "" {
		currency = enums.CurrencyINR
	}
	if !currency.IsValid() {
		fields["currency"] = "unsupported currency"
	}

	status := d.Status
	if status == "" {
		status = enums.ArtworkStatusDraft
	}
	if status != enums.ArtworkStatusDraft && status != enums.ArtworkStatusPublished {
		fields["status"] = "must be draft or published"
	}

	if err := validateMedia(d.Media); err != nil {
		fields["media"] = err.Error()
	}

	tags, err := normalizeTags(d.Tags)
	if err != nil {
		fields["tags"] = err.Error()
	}
	festival, err := normalizeTags(d.FestivalTags)
	if err != nil {
		fields["festivalTags"] = err.Error()
	}
	recipient, err := normalizeTags(d.RecipientTags)
	if err != nil {
		fields["recipientTags"] = err.Error()
	}

	if len(fields) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid artwork").WithDetails(fields)
	}

	media := d.Media
	if media == nil {
		media = types.MediaList{}
	}

	return &models.Artwork{
		SellerID:      d.SellerID,
		Title:         title,
		Description:   description,
		Media:         media,
		Price:         d.Price,
		Currency:      currency,
		Quantity:      d.Quantity,
		Status:        DeriveStatus(d.Quantity, status),
		Tags:          tags,
		FestivalTags:  festival,
		RecipientTags: recipient,
		Embedding:     types.Embedding(d.Embedding),
	}, nil
}

func validateMedia(media types.MediaList) error {
	if len(media) > maxMediaItems {
		return fmt.Errorf("at most %d items allowed", maxMediaItems)
	}
	for i, item := range media {
		if strings.TrimSpace(item.URL) == "" {
			return fmt.Errorf("item %d is missing a url", i)
		}
		if !enums.MediaType(item.Type).IsValid() {
			return fmt.Errorf("item %d has unsupported type %q", i, item.Type)
		}
		if item.Size < 0 {
			return fmt.Errorf("item %d has a negative size", i)
		}
	}
	return nil
}

// normalizeTags lowercases, trims and de-duplicates tags, keeping first-seen order.
func normalizeTags(raw []string) (types.StringList, error) {
	out := types.StringList{}
	seen := map[string]struct{}{}
	for _, tag := range raw {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if utf8.RuneCountInString(t) > maxTagLen {
			return nil, fmt.Errorf("tag %q exceeds %d characters", t, maxTagLen)
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) > maxTags {
		return nil, fmt.Errorf("at most %d tags allowed", maxTags)
	}
	return out, nil
}
