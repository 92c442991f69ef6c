package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is who the identity provider says is calling.
type Identity struct {
	UserID    string
	Email     string
	Name      string
	CreatedAt time.Time
	ExpiresAt time.Time
	Token     string
}

// SignedIn reports whether the identity carries a subject.
func (i Identity) SignedIn() bool {
	return i.UserID != ""
}

// Claims are the session token claims the web tier reads. created_at is a
// custom claim carrying the account creation time in unix seconds.
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

var ErrNoToken = errors.New("missing session token")

// Verifier checks RS256 session tokens issued by the identity provider.
type Verifier struct {
	issuer string
	keys   *KeySet
	leeway time.Duration
}

func NewVerifier(issuer string, keys *KeySet) *Verifier {
	return &Verifier{issuer: issuer, keys: keys, leeway: 5 * time.Second}
}

func (v *Verifier) Verify(ctx context.Context, token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNoToken
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, v.keys.Keyfunc(ctx),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	id := &Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
		Token:  token,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.CreatedAt > 0 {
		id.CreatedAt = time.Unix(claims.CreatedAt, 0).UTC()
	}
	return id, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
