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

	"github.com/orchidcraft/orchid-backend/internal/cart"
	"github.com/orchidcraft/orchid-backend/internal/likes"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
)

type stubCartService struct {
	added   cart.AddItemInput
	qty     int
	cleared bool
	err     error
}

func (s *stubCartService) AddItem(ctx context.Context, userID uuid.UUID, input cart.AddItemInput) (*cart.CartDTO, error) {
	s.added = input
	return &cart.CartDTO{Items: []cart.LineDTO{}}, s.err
}

func (s *stubCartService) UpdateQty(ctx context.Context, userID, artworkID uuid.UUID, qty int) (*cart.CartDTO, error) {
	s.qty = qty
	return &cart.CartDTO{Items: []cart.LineDTO{}}, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID, artworkID uuid.UUID) (*cart.CartDTO, error) {
	return &cart.CartDTO{Items: []cart.LineDTO{}}, s.err
}

func (s *stubCartService) GetCart(ctx context.Context, userID uuid.UUID) (*cart.CartDTO, error) {
	return &cart.CartDTO{Items: []cart.LineDTO{}}, s.err
}

func (s *stubCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	s.cleared = true
	return s.err
}

func TestCartAdd(t *testing.T) {
	svc := &stubCartService{}
	artwork := uuid.New()
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", strings.NewReader(`{"artworkId":"`+artwork.String()+`","qty":2}`)), uuid.New())
	rec := httptest.NewRecorder()
	CartAdd(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, artwork, svc.added.ArtworkID)
	require.Equal(t, 2, svc.added.Qty)
}

func TestCartAddRejectsZeroQty(t *testing.T) {
	svc := &stubCartService{}
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", strings.NewReader(`{"artworkId":"`+uuid.NewString()+`","qty":0}`)), uuid.New())
	rec := httptest.NewRecorder()
	CartAdd(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, uuid.Nil, svc.added.ArtworkID)
}

func TestCartUpdateQty(t *testing.T) {
	svc := &stubCartService{}
	router := chi.NewRouter()
	router.Put("/cart/items/{artworkId}", CartUpdateQty(svc, nil))

	req := withUser(httptest.NewRequest(http.MethodPut, "/cart/items/"+uuid.NewString(), strings.NewReader(`{"qty":4}`)), uuid.New())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 4, svc.qty)
}

func TestCartClear(t *testing.T) {
	svc := &stubCartService{}
	rec := httptest.NewRecorder()
	CartClear(svc, nil).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil), uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, svc.cleared)
}

type stubLikeService struct {
	result likes.ToggleResult
	err    error
}

func (s stubLikeService) ToggleLike(ctx context.Context, userID, artworkID uuid.UUID) (likes.ToggleResult, error) {
	return s.result, s.err
}

func (s stubLikeService) ListLikedArtworkIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return []uuid.UUID{}, s.err
}

func TestToggleLike(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/like/{artworkId}", ToggleLike(stubLikeService{result: likes.ToggleResult{Liked: true, LikeCount: 3}}, nil))

	req := withUser(httptest.NewRequest(http.MethodPost, "/like/"+uuid.NewString(), nil), uuid.New())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"liked":true`)
	require.Contains(t, rec.Body.String(), `"likeCount":3`)
}

func TestToggleLikeMissingArtwork(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/like/{artworkId}", ToggleLike(stubLikeService{err: pkgerrors.New(pkgerrors.CodeNotFound, "artwork not found")}, nil))

	req := withUser(httptest.NewRequest(http.MethodPost, "/like/"+uuid.NewString(), nil), uuid.New())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
