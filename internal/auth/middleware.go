package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/pkg/util"
)

const identityKey = "identity"

// Optional parses a bearer token when present and stores the identity in
// request locals. Requests without a token pass through anonymously; a
// malformed token is rejected so callers never act under a half-parsed
// identity.
func Optional(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c)
		if raw == "" {
			return c.Next()
		}
		identity, err := tokens.Parse(raw)
		if err != nil {
			return util.NewUnauthorized("invalid access token")
		}
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// RequireIdentity rejects requests that carry no authenticated identity.
func RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IdentityFrom(c) == nil {
			return util.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireAdmin rejects requests whose identity lacks the admin flag.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := IdentityFrom(c)
		if identity == nil {
			return util.NewUnauthorized("authentication required")
		}
		if !identity.IsAdmin {
			return util.NewForbidden("admin access required")
		}
		return c.Next()
	}
}

// IdentityFrom returns the caller identity stored by Optional, or nil.
func IdentityFrom(c *fiber.Ctx) *Identity {
	identity, _ := c.Locals(identityKey).(*Identity)
	return identity
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
