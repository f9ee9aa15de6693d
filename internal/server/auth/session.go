package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/modelkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries exactly the fields needed for later ownership checks.
type Claims struct {
	jwt.RegisteredClaims
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
}

// SessionStore issues and resolves HS256-signed session tokens. Identity
// lives in the token itself; the store only remembers ids of tokens that were
// logged out, until they would have expired anyway.
type SessionStore struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewSessionStore(secret []byte, validity time.Duration) *SessionStore {
	return &SessionStore{
		secret:   secret,
		validity: validity,
		now:      time.Now,
		revoked:  make(map[string]time.Time),
	}
}

// Issue signs a new session token for id and returns it with its expiry.
func (s *SessionStore) Issue(id Identity) (string, time.Time, error) {
	jti, err := common.MakeRandHexString(16)
	if err != nil {
		return "", time.Time{}, err
	}

	now := s.now()
	expires := now.Add(s.validity)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		AccountID: id.AccountID,
		Email:     id.Email,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Resolve validates token and returns the identity it carries.
//
// Errors: common.ErrTokenExpired, common.ErrTokenRevoked, or
// common.ErrInvalidToken for anything else (bad signature, wrong algorithm,
// malformed input).
func (s *SessionStore) Resolve(token string) (*Identity, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return nil, common.ErrTokenRevoked
	}

	return &Identity{AccountID: claims.AccountID, Email: claims.Email}, nil
}

// Revoke makes a still-valid token unusable. Invalid or expired tokens are
// ignored: there is nothing left to revoke.
func (s *SessionStore) Revoke(token string) {
	claims, err := s.parse(token)
	if err != nil {
		return
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for jti, exp := range s.revoked {
		if !exp.After(now) {
			delete(s.revoked, jti)
		}
	}
	s.revoked[claims.ID] = claims.ExpiresAt.Time
}

// Validity is the lifetime of issued tokens.
func (s *SessionStore) Validity() time.Duration {
	return s.validity
}

func (s *SessionStore) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.ID == "" || claims.AccountID == 0 {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
