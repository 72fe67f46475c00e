package artworks

import "github.com/orchidcraft/orchid-backend/pkg/enums"

// DeriveStatus is the single rule tying stock to visibility. Sold-out
// published listings become out_of_stock and restocked ones return to
// published; drafts and removed listings keep their status.
func DeriveStatus(quantity int, current enums.ArtworkStatus) enums.ArtworkStatus {
	switch {
	case quantity <= 0 && current == enums.ArtworkStatusPublished:
		return enums.ArtworkStatusOutOfStock
	case quantity > 0 && current == enums.ArtworkStatusOutOfStock:
		return enums.ArtworkStatusPublished
	default:
		return current
	}
}
