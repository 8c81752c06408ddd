// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	helper "galangdana_backend/internals/helpers"
	"galangdana_backend/internals/logger"
)

const expirySkew = 30 * time.Second

// AuthMiddleware mewajibkan bearer token yang valid.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
		}
		if err := authenticate(c, secret, tokenString); err != nil {
			return helper.FromFiberError(c, err)
		}
		return c.Next()
	}
}

// OptionalAuth: tanpa token request tetap lanjut sebagai tamu.
// Token yang ada tapi rusak tetap ditolak.
func OptionalAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !hasToken(c) {
			return c.Next()
		}
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
		}
		if err := authenticate(c, secret, tokenString); err != nil {
			return helper.FromFiberError(c, err)
		}
		return c.Next()
	}
}

func authenticate(c *fiber.Ctx, secret, tokenString string) error {
	if secret == "" {
		logger.Error("[ERROR] JWT_SECRET kosong")
		return fiber.NewError(fiber.StatusInternalServerError, "Missing JWT Secret")
	}

	claims := jwt.MapClaims{}
	parser := jwt.Parser{SkipClaimsValidation: true}
	if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "unexpected signing method")
		}
		return []byte(secret), nil
	}); err != nil {
		logger.Warn("[WARN] gagal parse token: %v", err)
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token parse error")
	}

	if !claims.VerifyExpiresAt(time.Now().Add(-expirySkew).Unix(), true) {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token expired")
	}

	userID, err := extractUserID(claims)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid or missing user ID")
	}
	c.Locals("user_id", userID.String())
	storeBasicClaimsToLocals(c, claims)
	return nil
}
