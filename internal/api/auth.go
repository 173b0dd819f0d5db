package api

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const linkIssuer = "rafo"

// ErrUnauthorized is returned for keys that grant no access.
var ErrUnauthorized = errors.New("unauthorized")

// Authorizer validates request keys.
type Authorizer struct {
	accessKey string
	jwtSecret []byte
}

// NewAuthorizer builds an authorizer. With neither secret configured every
// request is rejected.
func NewAuthorizer(accessKey, jwtSecret string) Authorizer {
	return Authorizer{
		accessKey: strings.TrimSpace(accessKey),
		jwtSecret: []byte(strings.TrimSpace(jwtSecret)),
	}
}

// IsAccessKey reports whether key equals the static access key.
func (a Authorizer) IsAccessKey(key string) bool {
	if a.accessKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(a.accessKey)) == 1
}

// Authorize checks key against uploadID. The access key grants every
// upload; link tokens grant only their subject.
func (a Authorizer) Authorize(key string, uploadID int64) error {
	if a.IsAccessKey(key) {
		return nil
	}
	if len(a.jwtSecret) == 0 || key == "" {
		return ErrUnauthorized
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(key, claims, func(*jwt.Token) (any, error) {
		return a.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(linkIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject != strconv.FormatInt(uploadID, 10) {
		return fmt.Errorf("%w: token is scoped to upload %s", ErrUnauthorized, claims.Subject)
	}
	return nil
}

// IssueLinkToken signs a token that opens the export of uploadID until ttl
// has passed.
func IssueLinkToken(secret string, uploadID int64, ttl time.Duration, now time.Time) (string, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", errors.New("jwt secret is not configured")
	}
	if ttl <= 0 {
		return "", errors.New("link ttl must be positive")
	}
	claims := jwt.RegisteredClaims{
		Issuer:    linkIssuer,
		Subject:   strconv.FormatInt(uploadID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// requestKey reads the key from ?key= or a bearer Authorization header.
func requestKey(r *http.Request) string {
	if key := strings.TrimSpace(r.URL.Query().Get("key")); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
