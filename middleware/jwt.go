package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"lms/config"
	"lms/database"
	"lms/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// Claims carried by access tokens. SessionID ties the token to a row in
// the sessions table.
type Claims struct {
	UserID    uint   `json:"userId"`
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

var errInvalidToken = errors.New("invalid or expired token")

// GenerateJWT generates a JWT token for the user bound to sessionID
func GenerateJWT(user models.User, sessionID string, expiresAt time.Time) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    user.ID,
		Role:      user.Role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTKey))
}

// ParseJWT validates the signature and expiry of tokenString.
func ParseJWT(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTKey), nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	if claims.UserID == 0 || claims.SessionID == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", errors.New("Missing or invalid Authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.New("Invalid Authorization header format")
	}
	return strings.TrimSpace(authHeader[len("Bearer "):]), nil
}

// authenticate resolves the token to a live session and user and stores
// them in the request locals.
func authenticate(c *fiber.Ctx) error {
	tokenString, err := bearerToken(c)
	if err != nil {
		return err
	}

	claims, err := ParseJWT(tokenString)
	if err != nil {
		return err
	}

	db := database.Database.Db
	var session models.Session
	if err := db.Where("session_id = ? AND user_id = ?", claims.SessionID, claims.UserID).First(&session).Error; err != nil {
		return errors.New("Session not found!")
	}
	if !session.Active(time.Now()) {
		return errors.New("Session expired or revoked!")
	}

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", claims.UserID, false).First(&user).Error; err != nil {
		return errors.New("User not found!")
	}

	c.Locals("userId", user.ID)
	c.Locals("role", user.Role)
	c.Locals("sessionId", session.SessionID)
	return nil
}

// JWTMiddleware rejects requests without a valid token backed by a live session
func JWTMiddleware(c *fiber.Ctx) error {
	if err := authenticate(c); err != nil {
		return JsonResponse(c, fiber.StatusUnauthorized, false, err.Error(), nil)
	}
	return c.Next()
}

// OptionalJWT authenticates when a token is present and silently continues otherwise.
func OptionalJWT(c *fiber.Ctx) error {
	if c.Get(fiber.HeaderAuthorization) != "" {
		_ = authenticate(c)
	}
	return c.Next()
}

// CurrentUserID returns the authenticated user id, if any.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userId").(uint)
	return id, ok && id != 0
}
