package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims mirrors the access-token claims issued by GoTrue.
type Claims struct {
	Email        string                 `json:"email"`
	Role         string                 `json:"role,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier validates and issues HS256 access tokens.
type TokenVerifier struct {
	secret  []byte
	issuer  string
	nowFunc func() time.Time
}

func NewTokenVerifier(secret []byte, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: secret, issuer: issuer, nowFunc: time.Now}
}

// Issue signs a token for id valid for ttl.
func (v *TokenVerifier) Issue(id Identity, ttl time.Duration) (string, error) {
	now := v.nowFunc()
	claims := Claims{
		Email:        id.Email,
		Role:         "authenticated",
		UserMetadata: map[string]interface{}{"name": id.Name},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			Issuer:    v.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return ss, nil
}

// Verify parses token and returns its identity. Any failure is ErrUnauthorized.
func (v *TokenVerifier) Verify(token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.nowFunc),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, errors.Join(ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrUnauthorized
	}
	return &Identity{
		ID:        claims.Subject,
		Email:     claims.Email,
		Name:      metadataName(claims.UserMetadata),
		Confirmed: true,
	}, nil
}

func metadataName(md map[string]interface{}) string {
	name, _ := md["name"].(string)
	return name
}
