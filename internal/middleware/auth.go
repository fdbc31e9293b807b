package middleware

import (
	"fmt"
	"strings"
	"time"

	"taskboard/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// IdentityKey is the Locals key holding the resolved caller identity.
const IdentityKey = "identity"

// UseToken verifies the bearer token and stores the resolved
// models.Identity in Locals.
func UseToken(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "No token provided", "success": false, "status": 401})
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token format", "success": false, "status": 401})
		}
		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token", "success": false, "status": 401})
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token claims", "success": false, "status": 401})
		}
		if exp, ok := claims["exp"].(float64); !ok || int64(exp) < time.Now().Unix() {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Token expired", "success": false, "status": 401})
		}
		userID, ok := claims["user_id"].(float64)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid user ID in token", "success": false, "status": 401})
		}
		role, ok := claims["role"].(string)
		if !ok || !models.ValidRole(role) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid role in token", "success": false, "status": 401})
		}
		c.Locals(IdentityKey, models.Identity{ID: int(userID), Role: models.Role(role)})
		return c.Next()
	}
}

// Identity pulls the caller identity stored by UseToken.
func Identity(c *fiber.Ctx) models.Identity {
	return c.Locals(IdentityKey).(models.Identity)
}
