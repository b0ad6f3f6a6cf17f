package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"controle-acesso/internal/access/db"
	"controle-acesso/internal/auth"
	"controle-acesso/internal/logger"
	"controle-acesso/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers map[string]*models.User

func (m memUsers) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	if u, ok := m[username]; ok {
		return u, nil
	}
	return nil, db.ErrNotFound
}

type failingUsers struct{}

func (failingUsers) GetUserByUsername(context.Context, string) (*models.User, error) {
	return nil, errors.New("connection refused")
}

func mustHash(t *testing.T, password string) string {
	h, err := auth.HashPassword(password)
	require.NoError(t, err)
	return h
}

func newUsers(t *testing.T) memUsers {
	return memUsers{
		"admin": {ID: "u1", Username: "admin", PasswordHash: mustHash(t, "s3cret"), IsAdmin: true},
		"staff": {ID: "u2", Username: "staff", PasswordHash: mustHash(t, "s3cret"), IsAdmin: false},
	}
}

func newService(users auth.UserStore, revoked auth.Revocations) *auth.Service {
	return auth.NewService(users, auth.NewTokenIssuer("test-secret", time.Hour), revoked, logger.NewNopLogger())
}

func TestPassword_HashAndCheck(t *testing.T) {
	h := mustHash(t, "s3cret")
	assert.NotEqual(t, "s3cret", h)
	assert.True(t, auth.CheckPassword(h, "s3cret"))
	assert.False(t, auth.CheckPassword(h, "wrong"))
	assert.False(t, auth.CheckPassword("not-a-hash", "s3cret"))
}

func TestToken_IssueAndParse(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)

	raw, claims, err := issuer.Issue("admin")
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	parsed, err := issuer.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "admin", parsed.Subject)
	assert.Equal(t, claims.ID, parsed.ID)
}

func TestToken_Rejected(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	raw, _, err := issuer.Issue("admin")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := auth.NewTokenIssuer("other-secret", time.Hour).Parse(raw)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := auth.NewTokenIssuer("test-secret", time.Hour)
		later.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(raw)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "admin"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = issuer.Parse(none)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := issuer.Parse("")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestExtractTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := auth.ExtractTokenFromRequest(r, "access_token_cookie")
	assert.Error(t, err)

	r.Header.Set("Authorization", "Bearer abc")
	tok, err := auth.ExtractTokenFromRequest(r, "access_token_cookie")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	r.AddCookie(&http.Cookie{Name: "access_token_cookie", Value: "from-cookie"})
	tok, err = auth.ExtractTokenFromRequest(r, "access_token_cookie")
	require.NoError(t, err)
	assert.Equal(t, "from-cookie", tok)

	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad.Header.Set("Authorization", "Token abc")
	_, err = auth.ExtractTokenFromRequest(bad, "access_token_cookie")
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	s := newService(newUsers(t), nil)
	ctx := context.Background()

	raw, claims, err := s.Login(ctx, "admin", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, "admin", claims.Subject)

	_, _, err = s.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = s.Login(ctx, "ghost", "s3cret")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = s.Login(ctx, "staff", "s3cret")
	assert.ErrorIs(t, err, auth.ErrNotAdmin)

	_, _, err = newService(failingUsers{}, nil).Login(ctx, "admin", "s3cret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthenticate_RechecksAdminFlag(t *testing.T) {
	users := newUsers(t)
	s := newService(users, nil)
	ctx := context.Background()

	raw, _, err := s.Login(ctx, "admin", "s3cret")
	require.NoError(t, err)

	user, _, err := s.Authenticate(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	users["admin"].IsAdmin = false
	_, _, err = s.Authenticate(ctx, raw)
	assert.ErrorIs(t, err, auth.ErrNotAdmin)

	delete(users, "admin")
	_, _, err = s.Authenticate(ctx, raw)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogout_RevokesToken(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := newService(newUsers(t), auth.NewRedisRevocations(client))
	ctx := context.Background()

	raw, claims, err := s.Login(ctx, "admin", "s3cret")
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, claims))
	assert.True(t, mr.Exists("auth:revoked:"+claims.ID))

	_, _, err = s.Authenticate(ctx, raw)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)

	// the revocation outlives the token by no more than its remaining lifetime
	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists("auth:revoked:"+claims.ID))
}

func TestMiddleware(t *testing.T) {
	users := newUsers(t)
	s := newService(users, nil)
	raw, _, err := s.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)

	var seen string
	h := auth.Middleware(s, "access_token_cookie")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.Username(r.Context())
		assert.NotNil(t, auth.SessionClaims(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(token string) int {
		r := httptest.NewRequest(http.MethodGet, "/admin/report", nil)
		if token != "" {
			r.AddCookie(&http.Cookie{Name: "access_token_cookie", Value: token})
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, do(""))
	assert.Equal(t, http.StatusUnauthorized, do("garbage"))
	assert.Equal(t, http.StatusNoContent, do(raw))
	assert.Equal(t, "admin", seen)

	users["admin"].IsAdmin = false
	assert.Equal(t, http.StatusForbidden, do(raw))
}

func TestMiddleware_StoreFailureIs500(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	raw, _, err := issuer.Issue("admin")
	require.NoError(t, err)

	s := auth.NewService(failingUsers{}, issuer, nil, logger.NewNopLogger())
	h := auth.Middleware(s, "access_token_cookie")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest(http.MethodGet, "/admin/report", nil)
	r.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
