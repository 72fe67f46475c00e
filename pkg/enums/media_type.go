package enums

import (
	"fmt"
	"strings"
)

// MediaType distinguishes images from videos in artwork media.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

func (m MediaType) IsValid() bool {
	return m == MediaTypeImage || m == MediaTypeVideo
}

func ParseMediaType(value string) (MediaType, error) {
	switch MediaType(strings.ToLower(strings.TrimSpace(value))) {
	case MediaTypeImage:
		return MediaTypeImage, nil
	case MediaTypeVideo:
		return MediaTypeVideo, nil
	}
	return "", fmt.Errorf("invalid media type %q", value)
}

// MediaTypeFromContentType maps a MIME type to a MediaType.
func MediaTypeFromContentType(contentType string) (MediaType, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return MediaTypeImage, true
	case strings.HasPrefix(ct, "video/"):
		return MediaTypeVideo, true
	}
	return "", false
}
