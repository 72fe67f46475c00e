package media

import (
	"fmt"
	"mime"
	"sort"
	"strings"

	"github.com/orchidcraft/orchid-backend/pkg/enums"
)

var mimeTypesByMediaType = map[enums.MediaType][]string{
	enums.MediaTypeImage: {"image/png", "image/jpeg", "image/webp", "image/gif", "image/heic"},
	enums.MediaTypeVideo: {"video/mp4", "video/webm", "video/quicktime"},
}

var allowedDescription = buildAllowedDescription()

func buildAllowedDescription() string {
	var all []string
	for _, list := range mimeTypesByMediaType {
		all = append(all, list...)
	}
	sort.Strings(all)
	return strings.Join(all, ", ")
}

func sniffMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime type invalid: %w", err)
	}
	if mediaType == "" {
		return "", fmt.Errorf("mime type missing")
	}
	return strings.ToLower(mediaType), nil
}

// classify maps an allowed content type onto the artwork media type.
func classify(mimeType string) (enums.MediaType, bool) {
	for mt, list := range mimeTypesByMediaType {
		for _, candidate := range list {
			if candidate == mimeType {
				return mt, true
			}
		}
	}
	return "", false
}
