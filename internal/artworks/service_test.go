package artworks

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchidcraft/orchid-backend/pkg/db/dbtest"
	"github.com/orchidcraft/orchid-backend/pkg/db/models"
	"github.com/orchidcraft/orchid-backend/pkg/enums"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
	"github.com/orchidcraft/orchid-backend/pkg/pagination"
	"github.com/orchidcraft/orchid-backend/pkg/types"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	client := dbtest.Client(t)
	svc, err := NewService(NewRepository(client.DB()), client)
	require.NoError(t, err)
	return svc
}

func createInput() CreateArtworkInput {
	return CreateArtworkInput{
		Title:    "Pattachitra scroll",
		Price:    decimal.RequireFromString("2499.50"),
		Quantity: 1,
		Status:   "published",
		Tags:     []string{"scroll"},
	}
}

func TestServiceCreateConvertsPrice(t *testing.T) {
	svc := newTestService(t)
	out, err := svc.Create(context.Background(), uuid.New(), createInput())
	require.NoError(t, err)
	assert.EqualValues(t, 249950, out.Price)
	assert.Equal(t, "2499.50", out.PriceDisplay)
	assert.Equal(t, enums.ArtworkStatusPublished, out.Status)
}

func TestServiceCreateRejectsFractionalMinorUnits(t *testing.T) {
	svc := newTestService(t)
	in := createInput()
	in.Price = decimal.RequireFromString("10.001")
	_, err := svc.Create(context.Background(), uuid.New(), in)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestServiceUpdateRederivesStatus(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seller := uuid.New()
	created, err := svc.Create(ctx, seller, createInput())
	require.NoError(t, err)

	zero := 0
	out, err := svc.Update(ctx, seller, created.ID, UpdateArtworkInput{Quantity: &zero})
	require.NoError(t, err)
	assert.Equal(t, enums.ArtworkStatusOutOfStock, out.Status)

	restock := 4
	out, err = svc.Update(ctx, seller, created.ID, UpdateArtworkInput{Quantity: &restock})
	require.NoError(t, err)
	assert.Equal(t, enums.ArtworkStatusPublished, out.Status)
	assert.Equal(t, 4, out.Quantity)

	title := "Renamed"
	_, err = svc.Update(ctx, uuid.New(), created.ID, UpdateArtworkInput{Title: &title})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}

func TestServiceUpdateRemovalMustComeAlone(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seller := uuid.New()
	created, err := svc.Create(ctx, seller, createInput())
	require.NoError(t, err)

	removed, title := "removed", "Renamed before removal"
	_, err = svc.Update(ctx, seller, created.ID, UpdateArtworkInput{Status: &removed, Title: &title})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	still, err := svc.Get(ctx, nil, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pattachitra scroll", still.Title)
	assert.Equal(t, enums.ArtworkStatusPublished, still.Status)

	out, err := svc.Update(ctx, seller, created.ID, UpdateArtworkInput{Status: &removed})
	require.NoError(t, err)
	assert.Equal(t, enums.ArtworkStatusRemoved, out.Status)
}

func TestApplyUpdateRejectsRemovedListing(t *testing.T) {
	current := models.Artwork{ID: uuid.New(), SellerID: uuid.New(), Title: "Dokra horse", Status: enums.ArtworkStatusRemoved}
	qty := 3
	_, err := applyUpdate(current, UpdateArtworkInput{Quantity: &qty})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestServiceRemoveHidesFromPublic(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seller := uuid.New()
	created, err := svc.Create(ctx, seller, createInput())
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, seller, created.ID))

	_, err = svc.Get(ctx, nil, created.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	own, err := svc.Get(ctx, &seller, created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ArtworkStatusRemoved, own.Status)

	page, err := svc.List(ctx, ListFilters{}, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	mine, err := svc.ListMine(ctx, seller, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, mine.Items)
}

func TestServiceListRejectsInvertedPriceRange(t *testing.T) {
	svc := newTestService(t)
	lo, hi := int64(500), int64(100)
	_, err := svc.List(context.Background(), ListFilters{MinPrice: &lo, MaxPrice: &hi}, pagination.Params{})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestServiceMediaLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seller := uuid.New()
	created, err := svc.Create(ctx, seller, createInput())
	require.NoError(t, err)

	item := types.MediaItem{URL: "https://cdn.example/a.jpg", Type: "image", Size: 42, PublicID: "orchid/a"}
	out, err := svc.AppendMedia(ctx, seller, created.ID, item)
	require.NoError(t, err)
	require.Len(t, out.Media, 1)

	removed, out, err := svc.RemoveMedia(ctx, seller, created.ID, "orchid/a")
	require.NoError(t, err)
	assert.Equal(t, item, removed)
	assert.Empty(t, out.Media)

	_, _, err = svc.RemoveMedia(ctx, seller, created.ID, "orchid/a")
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
