// internals/middlewares/auth/claims_utils.go
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"galangdana_backend/internals/constants"
)

func hasToken(c *fiber.Ctx) bool {
	return strings.TrimSpace(c.Get(fiber.HeaderAuthorization)) != "" || c.Cookies("access_token") != ""
}

func extractBearerToken(c *fiber.Ctx) (string, error) {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if auth == "" {
		if cookieTok := c.Cookies("access_token"); cookieTok != "" {
			auth = "Bearer " + cookieTok
		}
	}
	if auth == "" {
		return "", errors.New("unauthorized - No token provided")
	}

	// toleransi spasi ganda & "bearer" huruf kecil
	fields := strings.Fields(auth)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", errors.New("unauthorized - Invalid token format")
	}
	tok := strings.Trim(strings.TrimSpace(fields[1]), "\"'")
	if tok == "" {
		return "", errors.New("unauthorized - Empty token")
	}
	return tok, nil
}

// extractUserID: klaim "id", fallback ke "sub".
func extractUserID(claims jwt.MapClaims) (uuid.UUID, error) {
	for _, key := range []string{"id", "sub"} {
		raw, ok := claims[key]
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return uuid.Nil, fmt.Errorf("invalid %s type", key)
		}
		return uuid.Parse(strings.TrimSpace(s))
	}
	return uuid.Nil, errors.New("no user id")
}

func storeBasicClaimsToLocals(c *fiber.Ctx, claims jwt.MapClaims) {
	role := constants.RoleUser
	if r, ok := claims["role"].(string); ok && strings.TrimSpace(r) != "" {
		role = strings.ToLower(strings.TrimSpace(r))
	}
	c.Locals("userRole", role)
	if userName, ok := claims["user_name"].(string); ok {
		c.Locals("user_name", userName)
	}
}
