package cart

import (
	"fmt"

	"github.com/orchidcraft/orchid-backend/pkg/db/models"
	"github.com/orchidcraft/orchid-backend/pkg/enums"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
	"github.com/orchidcraft/orchid-backend/pkg/money"
)

// Line is a validated cart line priced against the current artwork.
type Line struct {
	Artwork   models.Artwork
	Qty       int
	LineTotal int64
}

// NewCartLine checks qty against the artwork's availability. It does not
// reserve stock; stock only moves when a payment is verified.
func NewCartLine(artwork models.Artwork, qty int) (Line, error) {
	if qty < 1 {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "qty must be at least 1").
			WithDetails(map[string]string{"qty": "must be at least 1"})
	}
	if artwork.Status != enums.ArtworkStatusPublished {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "artwork is not available").
			WithDetails(map[string]string{"artworkId": fmt.Sprintf("status is %s", artwork.Status)})
	}
	if qty > artwork.Quantity {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "requested quantity exceeds stock").
			WithDetails(map[string]any{"artworkId": artwork.ID, "available": artwork.Quantity, "requested": qty})
	}
	total, err := money.Multiply(artwork.Price, qty)
	if err != nil {
		return Line{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "line total out of range")
	}
	return Line{Artwork: artwork, Qty: qty, LineTotal: total}, nil
}
