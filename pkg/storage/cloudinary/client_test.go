package cloudinary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/orchidcraft/orchid-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploadAPI struct {
	uploadParams  uploader.UploadParams
	destroyParams uploader.DestroyParams
	uploadRes     *uploader.UploadResult
	destroyRes    *uploader.DestroyResult
	err           error
}

func (f *fakeUploadAPI) Upload(_ context.Context, _ interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.uploadParams = params
	return f.uploadRes, f.err
}

func (f *fakeUploadAPI) Destroy(_ context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyParams = params
	return f.destroyRes, f.err
}

func TestUploadMapsResult(t *testing.T) {
	fake := &fakeUploadAPI{uploadRes: &uploader.UploadResult{
		SecureURL:    "https://res.cloudinary.com/demo/image/upload/v1/a.jpg",
		PublicID:     "orchid/artworks/abc/a",
		Bytes:        2048,
		ResourceType: "image",
	}}
	c := &Client{api: fake, folder: "orchid/artworks"}

	asset, err := c.Upload(context.Background(), strings.NewReader("img"), "abc", "")
	require.NoError(t, err)
	assert.Equal(t, "orchid/artworks/abc", fake.uploadParams.Folder)
	assert.Equal(t, "auto", fake.uploadParams.ResourceType)
	assert.EqualValues(t, 2048, asset.Bytes)
	assert.Equal(t, "orchid/artworks/abc/a", asset.PublicID)
}

func TestUploadSurfacesAPIError(t *testing.T) {
	c := &Client{api: &fakeUploadAPI{uploadRes: &uploader.UploadResult{Error: api.ErrorResp{Message: "Invalid image file"}}}}
	_, err := c.Upload(context.Background(), strings.NewReader("x"), "", "image")
	assert.ErrorContains(t, err, "Invalid image file")

	c = &Client{api: &fakeUploadAPI{err: errors.New("timeout")}}
	_, err = c.Upload(context.Background(), strings.NewReader("x"), "", "image")
	assert.Error(t, err)
}

func TestDestroy(t *testing.T) {
	fake := &fakeUploadAPI{destroyRes: &uploader.DestroyResult{Result: "ok"}}
	c := &Client{api: fake}
	require.NoError(t, c.Destroy(context.Background(), "orchid/a", "video"))
	assert.Equal(t, "orchid/a", fake.destroyParams.PublicID)
	assert.Equal(t, "video", fake.destroyParams.ResourceType)

	assert.Error(t, c.Destroy(context.Background(), " ", ""))
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient(config.CloudinaryConfig{}, nil)
	assert.Error(t, err)
}
