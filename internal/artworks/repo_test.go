package artworks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/orchidcraft/orchid-backend/pkg/db/dbtest"
	"github.com/orchidcraft/orchid-backend/pkg/db/models"
	"github.com/orchidcraft/orchid-backend/pkg/enums"
	"github.com/orchidcraft/orchid-backend/pkg/pagination"
	"github.com/orchidcraft/orchid-backend/pkg/types"
)

func seedArtwork(t *testing.T, conn *gorm.DB, mutate func(*models.Artwork)) models.Artwork {
	t.Helper()
	a := models.Artwork{
		SellerID: uuid.New(),
		Title:    "Terracotta horse",
		Price:    50000,
		Currency: enums.CurrencyINR,
		Quantity: 3,
		Status:   enums.ArtworkStatusPublished,
		Media:    types.MediaList{},
	}
	if mutate != nil {
		mutate(&a)
	}
	require.NoError(t, conn.Create(&a).Error)
	return a
}

func TestRepositoryListFilters(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	seller := uuid.New()

	diwali := seedArtwork(t, conn, func(a *models.Artwork) {
		a.SellerID = seller
		a.Title = "Diwali diya set"
		a.Price = 1200
		a.Tags = types.StringList{"clay", "lamp"}
		a.FestivalTags = types.StringList{"diwali"}
		a.RecipientTags = types.StringList{"mother"}
	})
	seedArtwork(t, conn, func(a *models.Artwork) {
		a.Title = "Brass ganesha"
		a.Price = 90000
		a.Tags = types.StringList{"brass"}
	})
	seedArtwork(t, conn, func(a *models.Artwork) {
		a.Title = "Unfinished sketch"
		a.Status = enums.ArtworkStatusDraft
		a.Tags = types.StringList{"clay"}
	})

	published := []enums.ArtworkStatus{enums.ArtworkStatusPublished}

	rows, err := repo.List(ctx, ListFilters{Statuses: published, Tag: "Clay"}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, diwali.ID, rows[0].ID)

	rows, err = repo.List(ctx, ListFilters{Statuses: published, Festival: "diwali", Recipient: "mother"}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	maxPrice := int64(5000)
	rows, err = repo.List(ctx, ListFilters{Statuses: published, MaxPrice: &maxPrice}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, diwali.ID, rows[0].ID)

	rows, err = repo.List(ctx, ListFilters{Statuses: published, Query: "GANESH"}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Brass ganesha", rows[0].Title)

	rows, err = repo.List(ctx, ListFilters{SellerID: &seller}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestRepositoryListCursorPagination(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		created := base.Add(time.Duration(i) * time.Minute)
		seedArtwork(t, conn, func(a *models.Artwork) { a.CreatedAt = created })
	}

	first, err := repo.List(context.Background(), ListFilters{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 3)
	page := pagination.Build(first, 2, func(a models.Artwork) pagination.Cursor {
		return pagination.Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
	})
	require.NotEmpty(t, page.NextCursor)
	assert.True(t, page.Items[0].CreatedAt.After(page.Items[1].CreatedAt))

	second, err := repo.List(context.Background(), ListFilters{}, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, second, 3)
	assert.True(t, second[0].CreatedAt.Before(page.Items[1].CreatedAt))

	_, err = repo.List(context.Background(), ListFilters{}, pagination.Params{Cursor: "%%%"})
	require.Error(t, err)
}

func TestRepositoryDecrementStock(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	artwork := seedArtwork(t, conn, func(a *models.Artwork) { a.Quantity = 2 })

	updated, err := repo.DecrementStock(ctx, artwork.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Quantity)
	assert.Equal(t, enums.ArtworkStatusPublished, updated.Status)

	_, err = repo.DecrementStock(ctx, artwork.ID, 2)
	require.ErrorIs(t, err, ErrInsufficientStock)

	updated, err = repo.DecrementStock(ctx, artwork.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Quantity)
	assert.Equal(t, enums.ArtworkStatusOutOfStock, updated.Status)

	stored, err := repo.FindByID(ctx, artwork.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Quantity)
	assert.Equal(t, enums.ArtworkStatusOutOfStock, stored.Status)
}

func TestRepositoryAdjustLikeCountFloorsAtZero(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	artwork := seedArtwork(t, conn, nil)

	require.NoError(t, repo.AdjustLikeCount(ctx, artwork.ID, 1))
	require.NoError(t, repo.AdjustLikeCount(ctx, artwork.ID, -1))
	require.NoError(t, repo.AdjustLikeCount(ctx, artwork.ID, -1))

	stored, err := repo.FindByID(ctx, artwork.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.LikeCount)
}

func TestRepositoryFindByIDs(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	a := seedArtwork(t, conn, nil)
	b := seedArtwork(t, conn, nil)

	found, err := repo.FindByIDs(context.Background(), []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Contains(t, found, a.ID)
}
