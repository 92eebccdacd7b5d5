package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
)

// Claims is the access token payload issued by the storefront API.
type Claims struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   enums.Role `json:"role"`
	Name   string     `json:"name,omitempty"`
	Email  string     `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the serialized user kept alongside the authentication flag.
type Identity struct {
	UserID    uuid.UUID  `json:"user_id"`
	Role      enums.Role `json:"role"`
	Name      string     `json:"name,omitempty"`
	Email     string     `json:"email,omitempty"`
	ExpiresAt time.Time  `json:"expires_at,omitempty"`
}

// Expired reports whether the identity's token has lapsed at now. No expiry never lapses.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// IdentityFromToken reads the claims of an access token without checking its signature.
// The API verifies tokens; the client only needs to know who it is and when to re-authenticate.
func IdentityFromToken(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token is required")
	}
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Identity{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "access token is malformed")
	}
	if claims.UserID == uuid.Nil {
		return Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token has no user")
	}
	if !claims.Role.IsValid() {
		return Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token has an unknown role")
	}
	identity := Identity{
		UserID: claims.UserID,
		Role:   claims.Role,
		Name:   claims.Name,
		Email:  claims.Email,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}
