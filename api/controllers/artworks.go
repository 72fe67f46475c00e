package controllers

import (
	"net/http"
	"strings"

	"github.com/orchidcraft/orchid-backend/api/responses"
	"github.com/orchidcraft/orchid-backend/api/validators"
	"github.com/orchidcraft/orchid-backend/internal/artworks"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
	"github.com/orchidcraft/orchid-backend/pkg/logger"
	"github.com/orchidcraft/orchid-backend/pkg/money"
)

const maxSearchQueryLen = 120

// ListArtworks serves the public catalog. Prices in the query are major units.
func ListArtworks(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "artwork service unavailable"))
			return
		}

		filters, err := parseArtworkFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetArtwork(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "artwork service unavailable"))
			return
		}
		artworkID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		artwork, err := svc.Get(r.Context(), viewerID(r), artworkID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, artwork)
	}
}

// ListMyArtworks returns the seller's own listings, drafts included.
func ListMyArtworks(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "artwork service unavailable"))
			return
		}
		sellerID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListMine(r.Context(), sellerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func CreateArtwork(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "artwork service unavailable"))
			return
		}
		sellerID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body artworks.CreateArtworkInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.Title = validators.SanitizeString(body.Title, 140)

		artwork, err := svc.Create(r.Context(), sellerID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, artwork)
	}
}

func UpdateArtwork(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "artwork service unavailable"))
			return
		}
		sellerID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		artworkID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body artworks.UpdateArtworkInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Title != nil {
			title := validators.SanitizeString(*body.Title, 140)
			body.Title = &title
		}

		artwork, err := svc.Update(r.Context(), sellerID, artworkID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, artwork)
	}
}

// DeleteArtwork soft-removes a listing.
func DeleteArtwork(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "artwork service unavailable"))
			return
		}
		sellerID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		artworkID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Remove(r.Context(), sellerID, artworkID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "artwork removed")
	}
}

func parseArtworkFilters(r *http.Request) (artworks.ListFilters, error) {
	q := r.URL.Query()
	filters := artworks.ListFilters{
		Tag:       strings.TrimSpace(q.Get("tag")),
		Festival:  strings.TrimSpace(q.Get("festival")),
		Recipient: strings.TrimSpace(q.Get("recipient")),
		Query:     validators.SanitizeString(q.Get("q"), maxSearchQueryLen),
	}

	seller, err := validators.ParseQueryUUID(r, "seller")
	if err != nil {
		return filters, err
	}
	filters.SellerID = seller

	for key, dest := range map[string]**int64{"minPrice": &filters.MinPrice, "maxPrice": &filters.MaxPrice} {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			continue
		}
		minor, err := money.ToMinor(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
		}
		*dest = &minor
	}
	return filters, nil
}
