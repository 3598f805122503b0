package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// AuthHandler issues access tokens for the configured admin account.
type AuthHandler struct {
	cfg    config.AuthConfig
	tokens *auth.TokenManager
}

// NewAuthHandler constructs handler.
func NewAuthHandler(cfg config.AuthConfig, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{cfg: cfg, tokens: tokens}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	if h.cfg.AdminEmail == "" || h.cfg.AdminPasswordHash == "" {
		return apperrors.NewUnauthorized("admin login is not configured")
	}
	if !strings.EqualFold(req.Email, h.cfg.AdminEmail) || !auth.VerifyPassword(h.cfg.AdminPasswordHash, req.Password) {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	token, err := h.tokens.Issue(auth.Identity{
		UserID:  "admin",
		Name:    "Administrator",
		Email:   h.cfg.AdminEmail,
		IsAdmin: true,
	})
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	return c.JSON(dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   h.cfg.AccessTokenTTLMinutes * 60,
	})
}
