package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partner-service/pkg/jwtutil"
)

type fakeSessions struct {
	live map[string]bool
	err  error
}

func (f *fakeSessions) SessionLive(_ context.Context, uid, sessionID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.live[uid+":"+sessionID], nil
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		uid, _ := GetUserID(r.Context())
		role, _ := GetRole(r.Context())
		w.Write([]byte(uid + ":" + role))
	}), &called
}

func newSignedRequest(t *testing.T, signer *jwtutil.Signer, uid, sid, role string) *http.Request {
	t.Helper()
	token, err := signer.Generate(uid, sid, role)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRequirePassesLiveSessionAndSetsContext(t *testing.T) {
	signer := jwtutil.NewSigner("secret", "test", time.Hour)
	sessions := &fakeSessions{live: map[string]bool{"uid-1:SES_1": true}}
	auth := NewAuthenticator(signer, sessions)

	next, called := okHandler()
	rec := httptest.NewRecorder()
	auth.Require()(next).ServeHTTP(rec, newSignedRequest(t, signer, "uid-1", "SES_1", "partner"))

	assert.True(t, *called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "uid-1:partner", rec.Body.String())
}

func TestRequireRejectsMissingToken(t *testing.T) {
	signer := jwtutil.NewSigner("secret", "test", time.Hour)
	auth := NewAuthenticator(signer, &fakeSessions{})

	next, called := okHandler()
	rec := httptest.NewRecorder()
	auth.Require()(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.False(t, *called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRejectsRevokedSession(t *testing.T) {
	signer := jwtutil.NewSigner("secret", "test", time.Hour)
	// Token is valid but the session keys were deleted by a forced sign-out.
	sessions := &fakeSessions{live: map[string]bool{}}
	auth := NewAuthenticator(signer, sessions)

	next, called := okHandler()
	rec := httptest.NewRecorder()
	auth.Require()(next).ServeHTTP(rec, newSignedRequest(t, signer, "uid-1", "SES_1", "partner"))

	assert.False(t, *called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireEnforcesRole(t *testing.T) {
	signer := jwtutil.NewSigner("secret", "test", time.Hour)
	sessions := &fakeSessions{live: map[string]bool{"uid-1:SES_1": true}}
	auth := NewAuthenticator(signer, sessions)

	next, called := okHandler()
	rec := httptest.NewRecorder()
	auth.Require("partner_admin")(next).ServeHTTP(rec, newSignedRequest(t, signer, "uid-1", "SES_1", "partner"))

	assert.False(t, *called)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	auth.Require("partner_admin")(next).ServeHTTP(rec, newSignedRequest(t, signer, "uid-1", "SES_1", "partner_admin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRejectsTamperedToken(t *testing.T) {
	signer := jwtutil.NewSigner("secret", "test", time.Hour)
	forger := jwtutil.NewSigner("other-secret", "test", time.Hour)
	auth := NewAuthenticator(signer, &fakeSessions{})

	next, called := okHandler()
	rec := httptest.NewRecorder()
	auth.Require()(next).ServeHTTP(rec, newSignedRequest(t, forger, "uid-1", "SES_1", "partner"))

	assert.False(t, *called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
