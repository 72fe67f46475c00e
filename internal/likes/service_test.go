package likes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchidcraft/orchid-backend/internal/artworks"
	"github.com/orchidcraft/orchid-backend/pkg/db/dbtest"
	"github.com/orchidcraft/orchid-backend/pkg/db/models"
	"github.com/orchidcraft/orchid-backend/pkg/enums"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
)

func setup(t *testing.T) (Service, models.Artwork) {
	t.Helper()
	client := dbtest.Client(t)
	art := models.Artwork{
		SellerID:  uuid.New(),
		Title:     "Kantha quilt",
		Price:     4500,
		Currency:  enums.CurrencyINR,
		Quantity:  1,
		Status:    enums.ArtworkStatusPublished,
		LikeCount: 7,
	}
	require.NoError(t, client.DB().Create(&art).Error)
	svc, err := NewService(ServiceParams{
		Likes:    NewRepository(client.DB()),
		Artworks: artworks.NewRepository(client.DB()),
		Tx:       client,
	})
	require.NoError(t, err)
	return svc, art
}

func TestToggleLikeTwiceRestoresCount(t *testing.T) {
	svc, art := setup(t)
	ctx := context.Background()
	user := uuid.New()

	first, err := svc.ToggleLike(ctx, user, art.ID)
	require.NoError(t, err)
	assert.True(t, first.Liked)
	assert.Equal(t, 8, first.LikeCount)

	ids, err := svc.ListLikedArtworkIDs(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{art.ID}, ids)

	second, err := svc.ToggleLike(ctx, user, art.ID)
	require.NoError(t, err)
	assert.False(t, second.Liked)
	assert.Equal(t, 7, second.LikeCount)

	ids, err = svc.ListLikedArtworkIDs(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestToggleLikeCountsPerUser(t *testing.T) {
	svc, art := setup(t)
	ctx := context.Background()

	_, err := svc.ToggleLike(ctx, uuid.New(), art.ID)
	require.NoError(t, err)
	out, err := svc.ToggleLike(ctx, uuid.New(), art.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, out.LikeCount)
}

func TestToggleLikeMissingArtwork(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.ToggleLike(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}
