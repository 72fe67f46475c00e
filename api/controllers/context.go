package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/orchidcraft/orchid-backend/api/middleware"
	"github.com/orchidcraft/orchid-backend/api/validators"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
	"github.com/orchidcraft/orchid-backend/pkg/pagination"
)

func requireUserID(r *http.Request) (uuid.UUID, error) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok || userID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return userID, nil
}

func viewerID(r *http.Request) *uuid.UUID {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok || userID == uuid.Nil {
		return nil
	}
	return &userID
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")}, nil
}
