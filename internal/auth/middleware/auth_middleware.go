package middleware

import (
	"context"
	"net/http"
	"strings"

	"partner-service/pkg/jwtutil"
	"partner-service/pkg/response"
)

// RolePartnerAdmin gates the admin console surface.
const RolePartnerAdmin = "partner_admin"

// SessionChecker reports whether a session is still live (not revoked).
type SessionChecker interface {
	SessionLive(ctx context.Context, uid, sessionID string) (bool, error)
}

type Authenticator struct {
	signer   *jwtutil.Signer
	sessions SessionChecker
}

func NewAuthenticator(signer *jwtutil.Signer, sessions SessionChecker) *Authenticator {
	return &Authenticator{
		signer:   signer,
		sessions: sessions,
	}
}

// Require authenticates the bearer token, checks the session has not been
// force-closed, and optionally gates on role.
func (a *Authenticator) Require(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				response.Error(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := a.signer.Verify(token)
			if err != nil {
				response.FromError(w, err)
				return
			}

			// A cryptographically valid token is not enough; forced
			// sign-out revokes the session server-side.
			if a.sessions != nil {
				live, err := a.sessions.SessionLive(r.Context(), claims.UserID, claims.SessionID)
				if err != nil {
					response.Error(w, http.StatusServiceUnavailable, "session check unavailable")
					return
				}
				if !live {
					response.Error(w, http.StatusUnauthorized, "session revoked")
					return
				}
			}

			if len(roles) > 0 && !roleAllowed(claims.Role, roles) {
				response.Error(w, http.StatusForbidden, "insufficient role")
				return
			}

			ctx := context.WithValue(r.Context(), ContextUserID, claims.UserID)
			ctx = context.WithValue(ctx, ContextRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func roleAllowed(role string, allowed []string) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
