package handlers_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"nyumbani/internal/models"
)

func uploadImage(t *testing.T, e *env, token, path, filename string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestUploadPropertyImage(t *testing.T) {
	e := newEnv(t)
	landlord, landlordToken := e.createUser(t, "landlord@example.com", "landlord")
	e.createListing(t, landlord.ID)

	resp := uploadImage(t, e, landlordToken, "/api/v1/properties/1/images", "front.jpg")
	require.Equal(t, http.StatusCreated, resp.Code)

	var body struct {
		Image models.PropertyImage `json:"image"`
	}
	decode(t, resp, &body)
	require.True(t, body.Image.IsPrimary, "first image becomes primary")
	require.Contains(t, body.Image.Path, "/uploads/")

	// Second image is not primary.
	resp = uploadImage(t, e, landlordToken, "/api/v1/properties/1/images", "kitchen.png")
	require.Equal(t, http.StatusCreated, resp.Code)
	decode(t, resp, &body)
	require.False(t, body.Image.IsPrimary)
	require.Equal(t, 1, body.Image.Position)
}

func TestUploadImageRejectsBadExtension(t *testing.T) {
	e := newEnv(t)
	landlord, landlordToken := e.createUser(t, "landlord@example.com", "landlord")
	e.createListing(t, landlord.ID)

	resp := uploadImage(t, e, landlordToken, "/api/v1/properties/1/images", "malware.exe")
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUploadImageOnlyOwner(t *testing.T) {
	e := newEnv(t)
	landlord, _ := e.createUser(t, "landlord@example.com", "landlord")
	_, otherToken := e.createUser(t, "other@example.com", "landlord")
	e.createListing(t, landlord.ID)

	resp := uploadImage(t, e, otherToken, "/api/v1/properties/1/images", "front.jpg")
	require.Equal(t, http.StatusForbidden, resp.Code)
}
