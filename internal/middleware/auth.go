package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tenantsync/internal/models"
	"tenantsync/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// SessionCookie carries the signed session token for browser clients.
const SessionCookie = "session"

// Claims is the payload of a session token.
type Claims struct {
	SessionID string `json:"sid"`
	UserID    int    `json:"user_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

type SessionStore interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
}

// Auth issues session tokens and checks them against the sessions table.
type Auth struct {
	secret   []byte
	sessions SessionStore
	now      func() time.Time
}

func NewAuth(secret []byte, sessions SessionStore) *Auth {
	return &Auth{secret: secret, sessions: sessions, now: time.Now}
}

// Issue signs a token for sess.
func (a *Auth) Issue(sess *models.Session) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Role:      string(sess.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	})
	return token.SignedString(a.secret)
}

func (a *Auth) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

func tokenFrom(c *fiber.Ctx) string {
	if v := c.Cookies(SessionCookie); v != "" {
		return v
	}
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": message,
		"success": false,
		"status":  fiber.StatusUnauthorized,
	})
}

// UseSession rejects requests without a live session and stores the caller
// in c.Locals ("userID", "role", "sessionID").
func (a *Auth) UseSession(c *fiber.Ctx) error {
	raw := tokenFrom(c)
	if raw == "" {
		return unauthorized(c, "Not logged in")
	}
	claims, err := a.parse(raw)
	if err != nil {
		logger.SecurityLogger.Warn("Rejected session token", zap.String("ip", c.IP()), zap.Error(err))
		return unauthorized(c, "Invalid session")
	}

	sess, err := a.sessions.GetSession(c.UserContext(), claims.SessionID)
	if err != nil || !sess.Active(a.now()) {
		logger.SecurityLogger.Warn("Session not active", zap.String("sid", claims.SessionID), zap.Int("user_id", claims.UserID))
		return unauthorized(c, "Session expired")
	}

	c.Locals("userID", sess.UserID)
	c.Locals("role", string(sess.Role))
	c.Locals("sessionID", sess.ID)
	return c.Next()
}

// RequireRole must run after UseSession.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		for _, r := range roles {
			if string(r) == role {
				return c.Next()
			}
		}
		logger.SecurityLogger.Warn("Role not allowed",
			zap.String("role", role), zap.String("path", c.Path()), zap.Any("userID", c.Locals("userID")))
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Forbidden",
			"success": false,
			"status":  fiber.StatusForbidden,
		})
	}
}
