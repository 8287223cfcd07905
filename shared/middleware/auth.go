package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/errors"
	jwt_internal "github.com/itchan-dev/kanaal/shared/jwt"
	"github.com/itchan-dev/kanaal/shared/logger"
	"github.com/itchan-dev/kanaal/shared/utils"
)

// UserSyncer maps a gateway principal to a local user.
type UserSyncer interface {
	Sync(ctx context.Context, principal domain.Principal) (domain.User, error)
}

type key int

const (
	UserKey key = iota
	GatewaySubjectKey
)

// AccessTokenCookie is set by the identity gateway for browser sessions.
const AccessTokenCookie = "accessToken"

// Auth trusts tokens signed by the identity gateway. User tokens resolve to
// a local user on every request, gateway service tokens never do.
type Auth struct {
	jwtService jwt_internal.JwtService
	users      UserSyncer
}

func NewAuth(jwtService jwt_internal.JwtService, users UserSyncer) *Auth {
	return &Auth{jwtService: jwtService, users: users}
}

func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return a.auth(func(*domain.User) bool { return true })
}

func (a *Auth) ModeratorOnly() func(http.Handler) http.Handler {
	return a.auth((*domain.User).CanModerate)
}

func (a *Auth) AdminOnly() func(http.Handler) http.Handler {
	return a.auth((*domain.User).IsAdmin)
}

// GatewayOnly admits gateway service tokens and stores their subject.
func (a *Auth) GatewayOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				http.Error(w, "Gateway token required", http.StatusUnauthorized)
				return
			}
			token, err := a.jwtService.DecodeToken(tokenString)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			if !jwt_internal.IsGatewayToken(token) {
				http.Error(w, "Gateway token required", http.StatusForbidden)
				return
			}
			subject, _ := token.Claims.GetSubject()
			ctx := context.WithValue(r.Context(), GatewaySubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) string {
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		return token
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func (a *Auth) extractUser(r *http.Request) (*domain.User, error) {
	tokenString := extractToken(r)
	if tokenString == "" {
		return nil, errors.Unauthorized("Please sign in")
	}
	token, err := a.jwtService.DecodeToken(tokenString)
	if err != nil {
		return nil, err
	}
	if jwt_internal.IsGatewayToken(token) {
		return nil, errors.Unauthorized("Service tokens can't act as a user")
	}
	principal, err := a.jwtService.Principal(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := a.users.Sync(r.Context(), principal)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *Auth) auth(allowed func(*domain.User) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := a.extractUser(r)
			if err != nil {
				if errors.StatusCode(err) >= http.StatusInternalServerError {
					logger.Log.Error("failed to resolve user", "component", "auth", "error", err)
				}
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			if !allowed(user) {
				http.Error(w, "Access denied", http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext returns the user set by the auth middleware, or nil.
func GetUserFromContext(r *http.Request) *domain.User {
	user, _ := r.Context().Value(UserKey).(*domain.User)
	return user
}

// GetGatewaySubject returns the subject of a gateway token, or "".
func GetGatewaySubject(r *http.Request) string {
	subject, _ := r.Context().Value(GatewaySubjectKey).(string)
	return subject
}
