package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	httpserver "nyumbani/internal/http"
	"nyumbani/internal/models"
	"nyumbani/internal/mpesa"
	"nyumbani/internal/notify"
	"nyumbani/internal/payments"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const testSecret = "test-secret"

type env struct {
	db       *gorm.DB
	router   *gin.Engine
	gateway  *scriptedGateway
	svc      *payments.Service
	notifier *notify.Notifier
	now      *time.Time
}

// scriptedGateway acks every STK push with sequential checkout ids.
type scriptedGateway struct {
	calls int
	fail  bool
}

func (g *scriptedGateway) STKPush(ctx context.Context, phone string, amount decimal.Decimal, accountRef, desc string) (*mpesa.STKPushResult, error) {
	g.calls++
	if g.fail {
		return nil, context.DeadlineExceeded
	}
	return &mpesa.STKPushResult{
		MerchantRequestID: "m-1",
		CheckoutRequestID: "checkout-1",
		ResponseCode:      "0",
	}, nil
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.Property{},
		&models.PropertyImage{},
		&models.Favorite{},
		&models.ViewingRequest{},
		&models.ContactPayment{},
		&models.Notification{},
		&models.ActivityLog{},
	))

	seedRoles(t, db)

	now := time.Now()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	hub := notify.NewHub()
	notifier := notify.New(db, hub)
	gateway := &scriptedGateway{}
	svc := payments.NewService(db, gateway, notifier, logger,
		decimal.NewFromInt(200), 72*time.Hour, 5*time.Minute,
		payments.WithClock(func() time.Time { return now }))

	router := httpserver.NewRouter(httpserver.Deps{
		DB:        db,
		JWTSecret: testSecret,
		UploadDir: t.TempDir(),
		Payments:  svc,
		Notifier:  notifier,
		Hub:       hub,
	})

	return &env{db: db, router: router, gateway: gateway, svc: svc, notifier: notifier, now: &now}
}

// seedRoles mirrors seed.FirstSetup with portable SQL so it runs on the
// sqlite test database.
func seedRoles(t *testing.T, db *gorm.DB) {
	t.Helper()

	perms := map[string]models.Permission{}
	for _, key := range []string{
		"properties:write", "properties:moderate", "viewings:request",
		"users:read", "users:write", "payments:read", "activity:read",
	} {
		p := models.Permission{Key: key}
		require.NoError(t, db.Create(&p).Error)
		perms[key] = p
	}

	roles := map[string][]string{
		"admin": {"properties:write", "properties:moderate", "viewings:request",
			"users:read", "users:write", "payments:read", "activity:read"},
		"landlord": {"properties:write"},
		"tenant":   {"viewings:request"},
	}
	for slug, keys := range roles {
		role := models.Role{Name: slug, Slug: slug, IsSystem: true}
		for _, k := range keys {
			role.Permissions = append(role.Permissions, perms[k])
		}
		require.NoError(t, db.Create(&role).Error)
	}
}

// createUser inserts a user with the role and returns a login token.
func (e *env) createUser(t *testing.T, email, roleSlug string) (models.User, string) {
	t.Helper()

	var role models.Role
	require.NoError(t, e.db.Where("slug = ?", roleSlug).First(&role).Error)

	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Email:        email,
		Name:         email,
		Phone:        "254712345678",
		Status:       models.UserActive,
		PasswordHash: string(hash),
		Roles:        []models.Role{role},
	}
	require.NoError(t, e.db.Create(&user).Error)

	resp := e.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    email,
		"password": "password1",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	return user, body.Token
}

func (e *env) do(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// createListing inserts an approved property for the landlord.
func (e *env) createListing(t *testing.T, landlordID int64) models.Property {
	t.Helper()
	property := models.Property{
		LandlordID:   landlordID,
		Title:        "2BR in Kilimani",
		Description:  "Spacious two bedroom near Yaya Centre",
		City:         "Nairobi",
		Area:         "Kilimani",
		Type:         models.TypeTwoBed,
		RentMonthly:  decimal.NewFromInt(45000),
		ContactPhone: "254711000000",
		Status:       models.PropertyApproved,
	}
	require.NoError(t, e.db.Create(&property).Error)
	return property
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}
