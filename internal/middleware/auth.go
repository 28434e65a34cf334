package middleware

import (
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/noteduco342/wavechat-backend/internal/httpx"
)

// UploadClaims is the short-lived token handed out on auth_success. It
// ties HTTP uploads back to a live socket session.
type UploadClaims struct {
	ConnID   string `json:"conn_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

const uploadTokenTTL = 12 * time.Hour

func IssueUploadToken(connID, username string) (string, error) {
	now := time.Now()
	claims := UploadClaims{
		ConnID:   connID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(uploadTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

func UploadAuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		var tokenString string
		if authHeader != "" {
			// Extract token from "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return httpx.Unauthorized(c, "invalid_authorization", "Invalid authorization format")
			}
			tokenString = parts[1]
		}

		if tokenString == "" {
			return httpx.Unauthorized(c, "missing_upload_token", "Missing upload token")
		}

		token, err := jwt.ParseWithClaims(tokenString, &UploadClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})

		if err != nil || !token.Valid {
			return httpx.Unauthorized(c, "invalid_upload_token", "Invalid or expired token")
		}

		claims, ok := token.Claims.(*UploadClaims)
		if !ok {
			return httpx.Unauthorized(c, "invalid_upload_token", "Invalid token")
		}

		c.Locals("connID", claims.ConnID)
		c.Locals("username", claims.Username)

		return c.Next()
	}
}
