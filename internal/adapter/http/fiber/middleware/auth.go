package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

// TokenVerifier resolves a bearer token to the calling actor. Tokens are
// issued by the identity service; this service only verifies them.
type TokenVerifier interface {
	Verify(token string) (domain.Actor, error)
}

// Claims represents the JWT claims issued by the identity service.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
	Type string `json:"type"` // "access" or "refresh"
}

// JWTVerifier validates HS256 access tokens
type JWTVerifier struct {
	secret []byte
	issuer string
}

func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *JWTVerifier) Verify(tokenString string) (domain.Actor, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return domain.Actor{}, errors.New("invalid token")
	}
	if claims.Type != "" && claims.Type != "access" {
		return domain.Actor{}, errors.New("not an access token")
	}
	if claims.Subject == "" {
		return domain.Actor{}, errors.New("token has no subject")
	}

	role := domain.UserRole(claims.Role)
	if role == "" {
		role = domain.UserRoleUser
	}
	return domain.Actor{ID: claims.Subject, Role: role}, nil
}

func AuthRequired(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization header"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authorization header format"})
		}

		actor, err := verifier.Verify(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		c.Locals("user_id", actor.ID)
		c.Locals("user_role", actor.Role)
		c.Locals("actor", actor)

		return c.Next()
	}
}

// StaffOnly rejects callers that are not operators or admins. It must run
// after AuthRequired.
func StaffOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !ActorFrom(c).Role.IsStaff() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Staff role required"})
		}
		return c.Next()
	}
}

// ActorFrom returns the authenticated actor, or the zero Actor when the
// request was not authenticated.
func ActorFrom(c *fiber.Ctx) domain.Actor {
	if actor, ok := c.Locals("actor").(domain.Actor); ok {
		return actor
	}
	return domain.Actor{}
}
