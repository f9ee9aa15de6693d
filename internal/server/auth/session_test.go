package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/modelkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, now *time.Time) *SessionStore {
	t.Helper()
	s := NewSessionStore([]byte("super-secret"), time.Hour)
	s.now = func() time.Time { return *now }
	return s
}

func TestIssueAndResolve_Success(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := newTestStore(t, &now)

	tok, exp, err := s.Issue(Identity{AccountID: 1, Email: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), exp)

	id, err := s.Resolve(tok)
	require.NoError(t, err)
	assert.Equal(t, &Identity{AccountID: 1, Email: "a@x.com"}, id)
}

func TestIssue_TokenHasNoCredentials(t *testing.T) {
	t.Parallel()
	now := time.Now()
	s := newTestStore(t, &now)

	tok, _, err := s.Issue(Identity{AccountID: 1, Email: "a@x.com"})
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)

	keys := make([]string, 0, len(claims))
	for k := range claims {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"jti", "iat", "exp", "account_id", "email"}, keys)
}

func TestResolve_Expired(t *testing.T) {
	t.Parallel()
	now := time.Now()
	s := newTestStore(t, &now)

	tok, _, err := s.Issue(Identity{AccountID: 1, Email: "a@x.com"})
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = s.Resolve(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestResolve_WrongSecret(t *testing.T) {
	t.Parallel()
	now := time.Now()
	s := newTestStore(t, &now)
	other := NewSessionStore([]byte("other-secret"), time.Hour)

	tok, _, err := other.Issue(Identity{AccountID: 1, Email: "a@x.com"})
	require.NoError(t, err)

	_, err = s.Resolve(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestResolve_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()
	now := time.Now()
	s := newTestStore(t, &now)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ID: "x", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		AccountID:        1,
	})
	tok, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.Resolve(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestResolve_Malformed(t *testing.T) {
	t.Parallel()
	now := time.Now()
	s := newTestStore(t, &now)

	for _, tok := range []string{"", "not.a.jwt", strings.Repeat("a", 50)} {
		_, err := s.Resolve(tok)
		assert.ErrorIs(t, err, common.ErrInvalidToken, "token %q", tok)
	}
}

func TestRevoke(t *testing.T) {
	t.Parallel()
	now := time.Now()
	s := newTestStore(t, &now)

	tok, _, err := s.Issue(Identity{AccountID: 1, Email: "a@x.com"})
	require.NoError(t, err)
	other, _, err := s.Issue(Identity{AccountID: 1, Email: "a@x.com"})
	require.NoError(t, err)

	s.Revoke(tok)

	_, err = s.Resolve(tok)
	assert.ErrorIs(t, err, common.ErrTokenRevoked)

	_, err = s.Resolve(other)
	assert.NoError(t, err, "other sessions of the same account stay valid")
}

func TestRevoke_InvalidTokenIsNoop(t *testing.T) {
	t.Parallel()
	now := time.Now()
	s := newTestStore(t, &now)

	s.Revoke("garbage")
	s.Revoke("")
	assert.Empty(t, s.revoked)
}

func TestRevoke_PrunesExpiredEntries(t *testing.T) {
	t.Parallel()
	now := time.Now()
	s := newTestStore(t, &now)

	first, _, err := s.Issue(Identity{AccountID: 1, Email: "a@x.com"})
	require.NoError(t, err)
	s.Revoke(first)
	require.Len(t, s.revoked, 1)

	now = now.Add(61 * time.Minute)
	second, _, err := s.Issue(Identity{AccountID: 2, Email: "b@x.com"})
	require.NoError(t, err)
	s.Revoke(second)

	assert.Len(t, s.revoked, 1)
}

func TestIdentityContext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	assert.Nil(t, IdentityFromContext(ctx))

	id := &Identity{AccountID: 5, Email: "e@x.com"}
	assert.Equal(t, id, IdentityFromContext(WithIdentity(ctx, id)))
}
