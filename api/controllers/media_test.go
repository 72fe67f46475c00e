package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/orchidcraft/orchid-backend/internal/artworks"
	"github.com/orchidcraft/orchid-backend/internal/media"
)

type stubMediaService struct {
	input    media.UploadInput
	payload  []byte
	publicID string
	err      error
}

func (s *stubMediaService) Upload(ctx context.Context, sellerID, artworkID uuid.UUID, input media.UploadInput) (artworks.ArtworkDTO, error) {
	s.input = input
	s.payload, _ = io.ReadAll(input.Body)
	return artworks.ArtworkDTO{ID: artworkID}, s.err
}

func (s *stubMediaService) Delete(ctx context.Context, sellerID, artworkID uuid.UUID, publicID string) (artworks.ArtworkDTO, error) {
	s.publicID = publicID
	return artworks.ArtworkDTO{ID: artworkID}, s.err
}

func multipartBody(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadArtworkMedia(t *testing.T) {
	svc := &stubMediaService{}
	router := chi.NewRouter()
	router.Post("/artworks/{id}/media", UploadArtworkMedia(svc, 5<<20, nil))

	body, ct := multipartBody(t, "file", "vase.png", "image/png", []byte("\x89PNG\r\n\x1a\npixels"))
	req := withUser(httptest.NewRequest(http.MethodPost, "/artworks/"+uuid.NewString()+"/media", body), uuid.New())
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "vase.png", svc.input.FileName)
	require.Equal(t, "image/png", svc.input.ContentType)
	require.Equal(t, "\x89PNG\r\n\x1a\npixels", string(svc.payload))
}

func TestUploadArtworkMediaMissingFile(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/artworks/{id}/media", UploadArtworkMedia(&stubMediaService{}, 5<<20, nil))

	body, ct := multipartBody(t, "other", "vase.png", "image/png", []byte("x"))
	req := withUser(httptest.NewRequest(http.MethodPost, "/artworks/"+uuid.NewString()+"/media", body), uuid.New())
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadArtworkMediaTooLarge(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/artworks/{id}/media", UploadArtworkMedia(&stubMediaService{}, 1, nil))

	body, ct := multipartBody(t, "file", "big.png", "image/png", bytes.Repeat([]byte("a"), multipartOverhead+1024))
	req := withUser(httptest.NewRequest(http.MethodPost, "/artworks/"+uuid.NewString()+"/media", body), uuid.New())
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteArtworkMedia(t *testing.T) {
	svc := &stubMediaService{}
	router := chi.NewRouter()
	router.Delete("/artworks/{id}/media/*", DeleteArtworkMedia(svc, nil))

	req := withUser(httptest.NewRequest(http.MethodDelete, "/artworks/"+uuid.NewString()+"/media/abc123", nil), uuid.New())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "abc123", svc.publicID)

	req = withUser(httptest.NewRequest(http.MethodDelete, "/artworks/"+uuid.NewString()+"/media/orchid/artworks/abc/x1", nil), uuid.New())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "orchid/artworks/abc/x1", svc.publicID)
}
