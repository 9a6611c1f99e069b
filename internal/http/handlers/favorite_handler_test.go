package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"nyumbani/internal/models"
)

func TestFavoriteAddListRemove(t *testing.T) {
	e := newEnv(t)
	landlord, _ := e.createUser(t, "landlord@example.com", "landlord")
	_, tenantToken := e.createUser(t, "tenant@example.com", "tenant")
	e.createListing(t, landlord.ID)

	resp := e.do(t, http.MethodPost, "/api/v1/properties/1/favorite", tenantToken, nil)
	require.Equal(t, http.StatusCreated, resp.Code)

	// Re-adding is a no-op, not an error.
	resp = e.do(t, http.MethodPost, "/api/v1/properties/1/favorite", tenantToken, nil)
	require.Equal(t, http.StatusCreated, resp.Code)

	var count int64
	require.NoError(t, e.db.Model(&models.Favorite{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	resp = e.do(t, http.MethodGet, "/api/v1/my/favorites", tenantToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var list struct {
		Favorites []models.Favorite `json:"favorites"`
	}
	decode(t, resp, &list)
	require.Len(t, list.Favorites, 1)
	require.NotNil(t, list.Favorites[0].Property)

	resp = e.do(t, http.MethodDelete, "/api/v1/properties/1/favorite", tenantToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	require.NoError(t, e.db.Model(&models.Favorite{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestFavoriteUnlistedPropertyRejected(t *testing.T) {
	e := newEnv(t)
	landlord, _ := e.createUser(t, "landlord@example.com", "landlord")
	_, tenantToken := e.createUser(t, "tenant@example.com", "tenant")
	property := e.createListing(t, landlord.ID)
	require.NoError(t, e.db.Model(&property).Update("status", models.PropertyRented).Error)

	resp := e.do(t, http.MethodPost, "/api/v1/properties/1/favorite", tenantToken, nil)
	require.Equal(t, http.StatusConflict, resp.Code)
}
