package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/orchidcraft/orchid-backend/pkg/config"
	"github.com/orchidcraft/orchid-backend/pkg/logger"
)

// Asset is what the CDN reports back for an uploaded file.
type Asset struct {
	URL          string
	PublicID     string
	Bytes        int64
	ResourceType string
}

type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// Client uploads and deletes artwork media on Cloudinary.
type Client struct {
	api    uploadAPI
	folder string
	logg   *logger.Logger
}

// NewClient configures a Cloudinary client from a cloudinary:// URL.
func NewClient(cfg config.CloudinaryConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("cloudinary url is required")
	}
	cld, err := cloudinary.NewFromURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &Client{api: &cld.Upload, folder: cfg.Folder, logg: logg}, nil
}

// Upload streams r to the CDN under folder/subfolder.
func (c *Client) Upload(ctx context.Context, r io.Reader, subfolder, resourceType string) (Asset, error) {
	if r == nil {
		return Asset{}, errors.New("upload body is required")
	}
	folder := c.folder
	if subfolder != "" {
		folder = strings.TrimSuffix(folder, "/") + "/" + subfolder
	}
	if resourceType == "" {
		resourceType = "auto"
	}

	res, err := c.api.Upload(ctx, r, uploader.UploadParams{
		Folder:       folder,
		ResourceType: resourceType,
	})
	if err != nil {
		return Asset{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res == nil {
		return Asset{}, errors.New("cloudinary upload: empty response")
	}
	if res.Error.Message != "" {
		return Asset{}, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	return Asset{
		URL:          res.SecureURL,
		PublicID:     res.PublicID,
		Bytes:        int64(res.Bytes),
		ResourceType: res.ResourceType,
	}, nil
}

// Destroy removes an asset. A missing asset is not an error.
func (c *Client) Destroy(ctx context.Context, publicID, resourceType string) error {
	if strings.TrimSpace(publicID) == "" {
		return errors.New("public id is required")
	}
	if resourceType == "" {
		resourceType = "image"
	}
	res, err := c.api.Destroy(ctx, uploader.DestroyParams{PublicID: publicID, ResourceType: resourceType})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if res != nil && res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	if res != nil && res.Result == "not found" && c.logg != nil {
		c.logg.Warn(c.logg.WithField(ctx, "public_id", publicID), "cloudinary.destroy_not_found")
	}
	return nil
}
