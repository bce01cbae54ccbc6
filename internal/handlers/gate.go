package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sabnocksid/lms-backend/internal/config"
	"github.com/sabnocksid/lms-backend/internal/middleware"
	"github.com/sabnocksid/lms-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type GateHandler struct {
	grants *services.GrantService
	assets *services.AssetService
	config *config.Config
}

func NewGateHandler(
	gs *services.GrantService,
	as *services.AssetService,
	cfg *config.Config,
) *GateHandler {
	return &GateHandler{
		grants: gs,
		assets: as,
		config: cfg,
	}
}

func lessonIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Lesson ID must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

// RequestPartialKey discloses the leading fraction of the caller's
// lesson secret, creating the grant on first call. Safe to retry; the
// same bytes come back every time.
func (h *GateHandler) RequestPartialKey(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "Authentication required",
		})
		return
	}

	lessonID, ok := lessonIDParam(c)
	if !ok {
		return
	}

	partial, err := h.grants.RequestPartial(c.Request.Context(), identity, lessonID)
	if err != nil {
		if errors.Is(err, services.ErrGrantRevoked) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "grant_revoked",
				"message": "Access to this lesson has been revoked",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "server_error",
			"message": "Failed to issue partial key",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"partial_key":     partial,
		"disclosed_bytes": h.grants.PartialLength(),
	})
}

type verifyRequest struct {
	PartialKey string `json:"partial_key" binding:"required"`
}

// VerifyPartialKey checks the submitted proof against the stored
// secret and flips the grant to verified on a match.
func (h *GateHandler) VerifyPartialKey(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "Authentication required",
		})
		return
	}

	lessonID, ok := lessonIDParam(c)
	if !ok {
		return
	}

	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "partial_key is required",
		})
		return
	}

	verified, err := h.grants.SubmitProof(c.Request.Context(), identity, lessonID, req.PartialKey)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPartial):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "partial_key must be standard base64",
			})
		case errors.Is(err, services.ErrGrantNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "grant_not_found",
				"message": "No key has been issued for this lesson",
			})
		case errors.Is(err, services.ErrGrantRevoked):
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "grant_revoked",
				"message": "Access to this lesson has been revoked",
			})
		case errors.Is(err, services.ErrProofMismatch):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"verified": false,
				"error":    "proof_mismatch",
				"message":  "Submitted key does not match",
			})
		case errors.Is(err, services.ErrRateLimited):
			retryAfter := int(h.config.ProofLockoutWindow.Seconds())
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":               "rate_limited",
				"message":             "Too many failed attempts. Please try again later.",
				"retry_after_seconds": retryAfter,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "server_error",
				"message": "Failed to verify key",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"verified": verified})
}

// GetAssetURL returns a presigned URL for a lesson asset. The caller's
// grant must already be verified.
func (h *GateHandler) GetAssetURL(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "Authentication required",
		})
		return
	}

	lessonID, ok := lessonIDParam(c)
	if !ok {
		return
	}
	kind := c.Param("kind")

	asset, err := h.assets.GetAssetURL(c.Request.Context(), identity, lessonID, kind)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrGrantNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "grant_not_found",
				"message": "No key has been issued for this lesson",
			})
		case errors.Is(err, services.ErrGrantRevoked):
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "grant_revoked",
				"message": "Access to this lesson has been revoked",
			})
		case errors.Is(err, services.ErrNotAuthorized):
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "not_verified",
				"message": "Key must be verified before requesting assets",
			})
		case errors.Is(err, services.ErrAssetMissing):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "asset_missing",
				"message": "Lesson has no such asset",
			})
		case errors.Is(err, services.ErrUpstreamUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "service_unavailable",
				"message": "Media storage is temporarily unavailable",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "server_error",
				"message": "Failed to issue asset URL",
			})
		}
		return
	}

	c.JSON(http.StatusOK, asset)
}

// RevokeKey forces a grant into the terminal revoked state. Admin only;
// the target identity is named in the query string.
func (h *GateHandler) RevokeKey(c *gin.Context) {
	lessonID, ok := lessonIDParam(c)
	if !ok {
		return
	}

	identityID := c.Query("identity_id")
	if identityID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "identity_id query parameter is required",
		})
		return
	}

	err := h.grants.Revoke(
		c.Request.Context(),
		services.RevocationTarget(identityID),
		lessonID,
	)
	if err != nil {
		if errors.Is(err, services.ErrGrantNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "grant_not_found",
				"message": "No key has been issued for this identity and lesson",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "server_error",
			"message": "Failed to revoke key",
		})
		return
	}

	c.Status(http.StatusNoContent)
}
