package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/orchidcraft/orchid-backend/internal/artworks"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
	"github.com/orchidcraft/orchid-backend/pkg/pagination"
	"github.com/orchidcraft/orchid-backend/pkg/types"
)

type stubArtworkService struct {
	artwork     artworks.ArtworkDTO
	err         error
	lastFilters artworks.ListFilters
	lastParams  pagination.Params
	lastViewer  *uuid.UUID
	lastSeller  uuid.UUID
	lastCreate  artworks.CreateArtworkInput
}

func (s *stubArtworkService) Create(ctx context.Context, sellerID uuid.UUID, input artworks.CreateArtworkInput) (artworks.ArtworkDTO, error) {
	s.lastSeller = sellerID
	s.lastCreate = input
	return s.artwork, s.err
}

func (s *stubArtworkService) Update(ctx context.Context, sellerID, artworkID uuid.UUID, input artworks.UpdateArtworkInput) (artworks.ArtworkDTO, error) {
	s.lastSeller = sellerID
	return s.artwork, s.err
}

func (s *stubArtworkService) Remove(ctx context.Context, sellerID, artworkID uuid.UUID) error {
	s.lastSeller = sellerID
	return s.err
}

func (s *stubArtworkService) Get(ctx context.Context, viewerID *uuid.UUID, artworkID uuid.UUID) (artworks.ArtworkDTO, error) {
	s.lastViewer = viewerID
	return s.artwork, s.err
}

func (s *stubArtworkService) List(ctx context.Context, filters artworks.ListFilters, params pagination.Params) (artworks.ArtworkPage, error) {
	s.lastFilters = filters
	s.lastParams = params
	return artworks.ArtworkPage{Items: []artworks.ArtworkDTO{s.artwork}}, s.err
}

func (s *stubArtworkService) ListMine(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (artworks.ArtworkPage, error) {
	s.lastSeller = sellerID
	return artworks.ArtworkPage{Items: []artworks.ArtworkDTO{}}, s.err
}

func (s *stubArtworkService) AppendMedia(ctx context.Context, sellerID, artworkID uuid.UUID, item types.MediaItem) (artworks.ArtworkDTO, error) {
	return s.artwork, s.err
}

func (s *stubArtworkService) RemoveMedia(ctx context.Context, sellerID, artworkID uuid.UUID, publicID string) (types.MediaItem, artworks.ArtworkDTO, error) {
	return types.MediaItem{}, s.artwork, s.err
}

func TestListArtworksParsesFilters(t *testing.T) {
	svc := &stubArtworkService{artwork: artworks.ArtworkDTO{ID: uuid.New(), Title: "Blue pottery vase"}}
	seller := uuid.New()

	url := "/api/v1/artworks?tag=pottery&festival=diwali&recipient=mother&minPrice=100&maxPrice=2500.50&limit=5&cursor=abc&seller=" + seller.String()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	ListArtworks(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "pottery", svc.lastFilters.Tag)
	require.Equal(t, "diwali", svc.lastFilters.Festival)
	require.Equal(t, "mother", svc.lastFilters.Recipient)
	require.NotNil(t, svc.lastFilters.SellerID)
	require.Equal(t, seller, *svc.lastFilters.SellerID)
	require.Equal(t, int64(10000), *svc.lastFilters.MinPrice)
	require.Equal(t, int64(250050), *svc.lastFilters.MaxPrice)
	require.Equal(t, pagination.Params{Limit: 5, Cursor: "abc"}, svc.lastParams)
}

func TestListArtworksRejectsBadPrice(t *testing.T) {
	svc := &stubArtworkService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/artworks?minPrice=abc", nil)
	rec := httptest.NewRecorder()
	ListArtworks(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, string(pkgerrors.CodeValidation), decodeEnvelope(t, rec).Code)
}

func TestGetArtworkPassesViewer(t *testing.T) {
	svc := &stubArtworkService{}
	router := chi.NewRouter()
	router.Get("/artworks/{id}", GetArtwork(svc, nil))

	viewer := uuid.New()
	req := withUser(httptest.NewRequest(http.MethodGet, "/artworks/"+uuid.NewString(), nil), viewer)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.lastViewer)
	require.Equal(t, viewer, *svc.lastViewer)

	anon := httptest.NewRequest(http.MethodGet, "/artworks/"+uuid.NewString(), nil)
	router.ServeHTTP(httptest.NewRecorder(), anon)
	require.Nil(t, svc.lastViewer)
}

func TestGetArtworkInvalidID(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/artworks/{id}", GetArtwork(&stubArtworkService{}, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/artworks/not-a-uuid", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateArtworkRequiresUser(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/artworks", strings.NewReader(`{"title":"x","price":"10"}`))
	CreateArtwork(&stubArtworkService{}, nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateArtworkCreated(t *testing.T) {
	svc := &stubArtworkService{artwork: artworks.ArtworkDTO{ID: uuid.New()}}
	seller := uuid.New()

	body := `{"title":"  Madhubani fish  ","price":"1499.50","quantity":3,"status":"published","tags":["painting"]}`
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/artworks", strings.NewReader(body)), seller)
	rec := httptest.NewRecorder()
	CreateArtwork(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, seller, svc.lastSeller)
	require.Equal(t, "Madhubani fish", svc.lastCreate.Title)
	require.Equal(t, "1499.5", svc.lastCreate.Price.String())
}

func TestDeleteArtworkForbidden(t *testing.T) {
	svc := &stubArtworkService{err: pkgerrors.New(pkgerrors.CodeForbidden, "not the seller")}
	router := chi.NewRouter()
	router.Delete("/artworks/{id}", DeleteArtwork(svc, nil))

	req := withUser(httptest.NewRequest(http.MethodDelete, "/artworks/"+uuid.NewString(), nil), uuid.New())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
