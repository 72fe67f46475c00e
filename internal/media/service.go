package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/orchidcraft/orchid-backend/internal/artworks"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
	"github.com/orchidcraft/orchid-backend/pkg/logger"
	"github.com/orchidcraft/orchid-backend/pkg/storage/cloudinary"
	"github.com/orchidcraft/orchid-backend/pkg/types"
)

const defaultMaxUploadBytes = 25 * 1024 * 1024

type cdnClient interface {
	Upload(ctx context.Context, r io.Reader, subfolder, resourceType string) (cloudinary.Asset, error)
	Destroy(ctx context.Context, publicID, resourceType string) error
}

type catalog interface {
	Get(ctx context.Context, viewerID *uuid.UUID, artworkID uuid.UUID) (artworks.ArtworkDTO, error)
	AppendMedia(ctx context.Context, sellerID, artworkID uuid.UUID, item types.MediaItem) (artworks.ArtworkDTO, error)
	RemoveMedia(ctx context.Context, sellerID, artworkID uuid.UUID, publicID string) (types.MediaItem, artworks.ArtworkDTO, error)
}

// UploadInput is one multipart file destined for an artwork.
type UploadInput struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	Body        io.Reader
}

// Service uploads artwork media to the CDN and keeps the artwork's media list in step.
type Service interface {
	Upload(ctx context.Context, sellerID, artworkID uuid.UUID, input UploadInput) (artworks.ArtworkDTO, error)
	Delete(ctx context.Context, sellerID, artworkID uuid.UUID, publicID string) (artworks.ArtworkDTO, error)
}

type service struct {
	cdn      cdnClient
	catalog  catalog
	maxBytes int64
	logg     *logger.Logger
}

// NewService constructs a media service. maxUploadMB <= 0 falls back to 25MB.
func NewService(cdn cdnClient, catalog catalog, maxUploadMB int, logg *logger.Logger) (Service, error) {
	if cdn == nil {
		return nil, fmt.Errorf("cdn client required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("artwork catalog required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	maxBytes := int64(defaultMaxUploadBytes)
	if maxUploadMB > 0 {
		maxBytes = int64(maxUploadMB) * 1024 * 1024
	}
	return &service{cdn: cdn, catalog: catalog, maxBytes: maxBytes, logg: logg}, nil
}

func (s *service) Upload(ctx context.Context, sellerID, artworkID uuid.UUID, input UploadInput) (artworks.ArtworkDTO, error) {
	if input.Body == nil {
		return artworks.ArtworkDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	if input.SizeBytes <= 0 {
		return artworks.ArtworkDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if input.SizeBytes > s.maxBytes {
		return artworks.ArtworkDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "file too large").
			WithDetails(map[string]any{"maxBytes": s.maxBytes})
	}
	mimeType, err := sniffMimeType(input.ContentType)
	if err != nil {
		return artworks.ArtworkDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid content type")
	}
	mediaType, ok := classify(mimeType)
	if !ok {
		return artworks.ArtworkDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "unsupported media type").
			WithDetails(map[string]any{"allowed": allowedDescription})
	}

	current, err := s.catalog.Get(ctx, &sellerID, artworkID)
	if err != nil {
		return artworks.ArtworkDTO{}, err
	}
	if current.SellerID != sellerID {
		return artworks.ArtworkDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "artwork belongs to another seller")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"artwork_id": artworkID.String(),
		"file_name":  sanitizeFileName(input.FileName),
	})
	asset, err := s.cdn.Upload(ctx, io.LimitReader(input.Body, s.maxBytes), artworkID.String(), string(mediaType))
	if err != nil {
		s.logg.Error(ctx, "media.upload_failed", err)
		return artworks.ArtworkDTO{}, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "media upload failed")
	}

	size := asset.Bytes
	if size <= 0 {
		size = input.SizeBytes
	}
	out, err := s.catalog.AppendMedia(ctx, sellerID, artworkID, types.MediaItem{
		URL:      asset.URL,
		Type:     string(mediaType),
		Size:     size,
		PublicID: asset.PublicID,
	})
	if err != nil {
		if derr := s.cdn.Destroy(ctx, asset.PublicID, string(mediaType)); derr != nil {
			s.logg.Error(s.logg.WithField(ctx, "public_id", asset.PublicID), "media.orphaned_asset", derr)
		}
		return artworks.ArtworkDTO{}, err
	}
	s.logg.Info(s.logg.WithField(ctx, "public_id", asset.PublicID), "media.uploaded")
	return out, nil
}

func (s *service) Delete(ctx context.Context, sellerID, artworkID uuid.UUID, publicID string) (artworks.ArtworkDTO, error) {
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return artworks.ArtworkDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "publicId is required")
	}
	removed, out, err := s.catalog.RemoveMedia(ctx, sellerID, artworkID, publicID)
	if err != nil {
		return artworks.ArtworkDTO{}, err
	}
	if err := s.cdn.Destroy(ctx, removed.PublicID, removed.Type); err != nil {
		// the artwork no longer references the asset; a leftover CDN file is only logged
		s.logg.Error(s.logg.WithField(ctx, "public_id", removed.PublicID), "media.destroy_failed", err)
	}
	return out, nil
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.TrimSpace(name))
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
