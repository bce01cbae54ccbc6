package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sabnocksid/lms-backend/internal/cache"
	"github.com/sabnocksid/lms-backend/internal/config"
	"github.com/sabnocksid/lms-backend/internal/metrics"
	"github.com/sabnocksid/lms-backend/internal/middleware"
	"github.com/sabnocksid/lms-backend/internal/models"
	"github.com/sabnocksid/lms-backend/internal/services"
	"github.com/sabnocksid/lms-backend/internal/signer"
	"github.com/sabnocksid/lms-backend/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "gate-handler-test-secret"

type staticSigner struct{}

func (staticSigner) Presign(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://media.example.com/%s?X-Amz-Signature=test", objectKey), nil
}

var _ signer.Signer = staticSigner{}

type gateFixture struct {
	router *gin.Engine
	store  *store.Store
	config *config.Config
}

func newGateFixture(t *testing.T) *gateFixture {
	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)
	sqlDB, err := s.DB().DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	cfg := &config.Config{
		JWTSecret:             testJWTSecret,
		SecretLength:          32,
		DisclosureFraction:    0.25,
		ProofFailureThreshold: 2,
		ProofLockoutWindow:    time.Minute,
		SignedURLExpiry:       time.Hour,
		PresignTimeout:        time.Second,
		PresignMaxRetries:     1,
	}

	limiter := services.NewProofLimiter(
		cache.NewMemoryCounter(),
		cfg.ProofFailureThreshold,
		cfg.ProofLockoutWindow,
	)
	grants := services.NewGrantService(s, cfg, limiter, metrics.NewNoopMetrics())
	assets := services.NewAssetService(
		s, s, staticSigner{},
		cache.NewMemoryCache[string](),
		cfg,
		metrics.NewNoopMetrics(),
	)

	handler := NewGateHandler(grants, assets, cfg)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api", middleware.RequireAuth(cfg.JWTSecret))
	{
		api.POST("/lessons/:id/key", handler.RequestPartialKey)
		api.POST("/lessons/:id/key/verify", handler.VerifyPartialKey)
		api.GET("/lessons/:id/assets/:kind", handler.GetAssetURL)

		admin := api.Group("", middleware.RequireAdmin())
		admin.DELETE("/lessons/:id/key", handler.RevokeKey)
	}

	return &gateFixture{router: router, store: s, config: cfg}
}

func (f *gateFixture) token(t *testing.T, sub, role string) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func (f *gateFixture) do(
	t *testing.T,
	method, path, token string,
	body any,
) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *gateFixture) requestPartial(t *testing.T, token string, lessonID int64) string {
	w := f.do(t, http.MethodPost, fmt.Sprintf("/api/lessons/%d/key", lessonID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		PartialKey     string `json:"partial_key"`
		DisclosedBytes int    `json:"disclosed_bytes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.PartialKey)
	return resp.PartialKey
}

func (f *gateFixture) verify(t *testing.T, token string, lessonID int64, partial string) *httptest.ResponseRecorder {
	return f.do(t, http.MethodPost,
		fmt.Sprintf("/api/lessons/%d/key/verify", lessonID),
		token,
		gin.H{"partial_key": partial},
	)
}

func TestGate_RequiresAuthentication(t *testing.T) {
	f := newGateFixture(t)

	w := f.do(t, http.MethodPost, "/api/lessons/7/key", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGate_RejectsBadLessonID(t *testing.T) {
	f := newGateFixture(t)
	token := f.token(t, "42", models.RoleUser)

	for _, path := range []string{
		"/api/lessons/abc/key",
		"/api/lessons/0/key",
		"/api/lessons/-3/key",
	} {
		w := f.do(t, http.MethodPost, path, token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestGate_RequestPartialKey(t *testing.T) {
	f := newGateFixture(t)
	token := f.token(t, "42", models.RoleUser)

	w := f.do(t, http.MethodPost, "/api/lessons/7/key", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		PartialKey     string `json:"partial_key"`
		DisclosedBytes int    `json:"disclosed_bytes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 8, resp.DisclosedBytes)

	decoded, err := base64.StdEncoding.DecodeString(resp.PartialKey)
	require.NoError(t, err)
	assert.Len(t, decoded, 8)

	// Retried request returns the same key
	assert.Equal(t, resp.PartialKey, f.requestPartial(t, token, 7))
}

func TestGate_VerifyPartialKey(t *testing.T) {
	f := newGateFixture(t)
	token := f.token(t, "42", models.RoleUser)
	partial := f.requestPartial(t, token, 7)

	t.Run("missing body", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/lessons/7/key/verify", token, gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed base64", func(t *testing.T) {
		w := f.verify(t, token, 7, "!!not base64!!")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no grant for lesson", func(t *testing.T) {
		w := f.verify(t, token, 99, partial)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "grant_not_found")
	})

	t.Run("mismatch", func(t *testing.T) {
		wrong := base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4, 5, 6, 7, 8})
		w := f.verify(t, token, 7, wrong)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "proof_mismatch")
	})

	t.Run("match", func(t *testing.T) {
		w := f.verify(t, token, 7, partial)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"verified":true`)
	})

	t.Run("match is idempotent", func(t *testing.T) {
		w := f.verify(t, token, 7, partial)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGate_VerifyRateLimited(t *testing.T) {
	f := newGateFixture(t)
	token := f.token(t, "42", models.RoleUser)
	f.requestPartial(t, token, 7)

	wrong := base64.StdEncoding.EncodeToString([]byte{9, 9, 9, 9, 9, 9, 9, 9})

	// Threshold is 2: two mismatches pass through, the third throttles
	for i := 0; i < 2; i++ {
		w := f.verify(t, token, 7, wrong)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	}

	w := f.verify(t, token, 7, wrong)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limited")
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestGate_GetAssetURL(t *testing.T) {
	f := newGateFixture(t)
	token := f.token(t, "42", models.RoleUser)
	ctx := context.Background()

	require.NoError(t, f.store.SaveLesson(ctx, &models.Lesson{
		ID:       7,
		VideoKey: "lessons/7/video.mp4",
	}))

	t.Run("no grant", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/lessons/7/assets/video", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "grant_not_found")
	})

	partial := f.requestPartial(t, token, 7)

	t.Run("unverified grant", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/lessons/7/assets/video", token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "not_verified")
	})

	require.Equal(t, http.StatusOK, f.verify(t, token, 7, partial).Code)

	t.Run("verified grant gets signed URL", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/lessons/7/assets/video", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			URL       string    `json:"url"`
			ExpiresAt time.Time `json:"expires_at"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp.URL, "lessons/7/video.mp4")
		assert.WithinDuration(t, time.Now().Add(time.Hour), resp.ExpiresAt, 2*time.Second)
	})

	t.Run("missing asset kind", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/lessons/7/assets/document", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "asset_missing")
	})
}

func TestGate_RevokeKey(t *testing.T) {
	f := newGateFixture(t)
	userToken := f.token(t, "42", models.RoleUser)
	adminToken := f.token(t, "1", models.RoleAdmin)

	f.requestPartial(t, userToken, 7)

	t.Run("regular user cannot revoke", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, "/api/lessons/7/key?identity_id=42", userToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing identity_id", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, "/api/lessons/7/key", adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown grant", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, "/api/lessons/7/key?identity_id=nobody", adminToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("admin revokes", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, "/api/lessons/7/key?identity_id=42", adminToken, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("revoke is idempotent", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, "/api/lessons/7/key?identity_id=42", adminToken, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("revoked grant refuses disclosure", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/lessons/7/key", userToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "grant_revoked")
	})
}
