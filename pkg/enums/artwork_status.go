package enums

import "fmt"

// ArtworkStatus tracks whether a listing is visible and purchasable.
type ArtworkStatus string

const (
	ArtworkStatusDraft      ArtworkStatus = "draft"
	ArtworkStatusPublished  ArtworkStatus = "published"
	ArtworkStatusRemoved    ArtworkStatus = "removed"
	ArtworkStatusOutOfStock ArtworkStatus = "out_of_stock"
)

var validArtworkStatuses = []ArtworkStatus{
	ArtworkStatusDraft,
	ArtworkStatusPublished,
	ArtworkStatusRemoved,
	ArtworkStatusOutOfStock,
}

func (s ArtworkStatus) String() string {
	return string(s)
}

func (s ArtworkStatus) IsValid() bool {
	for _, candidate := range validArtworkStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseArtworkStatus(value string) (ArtworkStatus, error) {
	for _, candidate := range validArtworkStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid artwork status %q", value)
}
