package auth

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrMissingKey      = errors.New("missing search key")
	ErrInvalidKey      = errors.New("invalid search key")
	ErrIndexNotAllowed = errors.New("search key does not allow index")
	ErrWriteNotAllowed = errors.New("search key does not allow writes")
)

// KeyClaims restricts a search key to a set of indexes. No indexes means
// every index.
type KeyClaims struct {
	Indexes []string `json:"indexes,omitempty"`
	// Write allows changing the records of the indexes.
	Write bool `json:"write,omitempty"`
	jwt.RegisteredClaims
}

func (c *KeyClaims) Allows(index string) bool {
	return len(c.Indexes) == 0 || slices.Contains(c.Indexes, index)
}

// Keys signs and verifies HS256 search keys.
type Keys struct {
	secret []byte
}

func NewKeys(secret string) *Keys {
	return &Keys{secret: []byte(secret)}
}

// Create returns a signed search only key for subject. A ttl of zero never
// expires.
func (k *Keys) Create(subject string, indexes []string, ttl time.Duration) (string, error) {
	return k.create(subject, indexes, ttl, false)
}

// CreateWriteKey is Create for a key that may also change records.
func (k *Keys) CreateWriteKey(subject string, indexes []string, ttl time.Duration) (string, error) {
	return k.create(subject, indexes, ttl, true)
}

func (k *Keys) create(subject string, indexes []string, ttl time.Duration, write bool) (string, error) {
	now := time.Now()
	claims := KeyClaims{
		Indexes: indexes,
		Write:   write,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(k.secret)
}

func (k *Keys) Parse(tokenString string) (*KeyClaims, error) {
	claims := &KeyClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return k.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if !token.Valid {
		return nil, ErrInvalidKey
	}
	return claims, nil
}

// FromRequest reads the key from a bearer Authorization header or the key
// query parameter.
func (k *Keys) FromRequest(r *http.Request) (*KeyClaims, error) {
	key := ""
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		key = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if key == "" {
		key = r.URL.Query().Get("key")
	}
	if key == "" {
		return nil, ErrMissingKey
	}
	return k.Parse(key)
}

// Authorize checks that the request carries a key allowing index.
func (k *Keys) Authorize(r *http.Request, index string) error {
	_, err := k.authorize(r, index)
	return err
}

// AuthorizeWrite checks that the request carries a write key allowing index.
func (k *Keys) AuthorizeWrite(r *http.Request, index string) error {
	claims, err := k.authorize(r, index)
	if err != nil {
		return err
	}
	if !claims.Write {
		return fmt.Errorf("%w: %s", ErrWriteNotAllowed, index)
	}
	return nil
}

func (k *Keys) authorize(r *http.Request, index string) (*KeyClaims, error) {
	claims, err := k.FromRequest(r)
	if err != nil {
		return nil, err
	}
	if !claims.Allows(index) {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotAllowed, index)
	}
	return claims, nil
}
