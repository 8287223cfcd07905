package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/middleware/ratelimiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func withUser(r *http.Request, user *domain.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), UserKey, user))
}

func TestRateLimit(t *testing.T) {
	t.Run("allows request within rate limit", func(t *testing.T) {
		rl := ratelimiter.New(1, 1, time.Minute)
		defer rl.Stop()
		handler := RateLimit(rl, func(r *http.Request) (string, error) { return "user1", nil })(okHandler())

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("error getting identity", func(t *testing.T) {
		rl := ratelimiter.New(1, 1, time.Minute)
		defer rl.Stop()
		handler := RateLimit(rl, func(r *http.Request) (string, error) { return "", errors.New("Test error") })(okHandler())

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("blocks request exceeding rate limit", func(t *testing.T) {
		rl := ratelimiter.New(1, 1, time.Minute)
		defer rl.Stop()
		handler := RateLimit(rl, func(r *http.Request) (string, error) { return "user1", nil })(okHandler())

		w1 := httptest.NewRecorder()
		handler.ServeHTTP(w1, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusOK, w1.Code)

		w2 := httptest.NewRecorder()
		handler.ServeHTTP(w2, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusTooManyRequests, w2.Code)
		assert.Equal(t, "1", w2.Header().Get("Retry-After"))
		assert.Equal(t, "Rate limit exceeded, try again later\n", w2.Body.String())
	})

	t.Run("moderators and admins are exempt", func(t *testing.T) {
		rl := ratelimiter.New(1, 1, time.Minute)
		defer rl.Stop()
		handler := RateLimit(rl, func(r *http.Request) (string, error) { return "user1", nil })(okHandler())

		w1 := httptest.NewRecorder()
		handler.ServeHTTP(w1, httptest.NewRequest("GET", "/", nil))
		require.Equal(t, http.StatusOK, w1.Code)

		tests := []struct {
			role domain.Role
			want int
		}{
			{domain.RoleMember, http.StatusTooManyRequests},
			{domain.RoleModerator, http.StatusOK},
			{domain.RoleAdmin, http.StatusOK},
		}
		for _, tt := range tests {
			t.Run(string(tt.role), func(t *testing.T) {
				req := withUser(httptest.NewRequest("GET", "/", nil), &domain.User{Id: "u1", Role: tt.role})
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)
				assert.Equal(t, tt.want, w.Code)
			})
		}
	})

	t.Run("allows request after refill", func(t *testing.T) {
		rl := ratelimiter.New(10, 1, time.Minute)
		defer rl.Stop()
		handler := RateLimit(rl, func(r *http.Request) (string, error) { return "user1", nil })(okHandler())

		w1 := httptest.NewRecorder()
		handler.ServeHTTP(w1, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusOK, w1.Code)

		time.Sleep(200 * time.Millisecond)

		w2 := httptest.NewRecorder()
		handler.ServeHTTP(w2, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusOK, w2.Code)
	})

	t.Run("uses identity function to determine user", func(t *testing.T) {
		rl := ratelimiter.New(1, 1, time.Minute)
		defer rl.Stop()
		handler := RateLimit(rl, func(r *http.Request) (string, error) { return r.Header.Get("X-User-ID"), nil })(okHandler())

		send := func(id string) int {
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("X-User-ID", id)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			return w.Code
		}
		assert.Equal(t, http.StatusOK, send("user1"))
		assert.Equal(t, http.StatusOK, send("user2"))
		assert.Equal(t, http.StatusTooManyRequests, send("user1"))
	})

	t.Run("global limit shares one bucket", func(t *testing.T) {
		rl := ratelimiter.New(1, 1, time.Minute)
		defer rl.Stop()
		handler := GlobalRateLimit(rl)(okHandler())

		req1 := httptest.NewRequest("GET", "/", nil)
		req1.RemoteAddr = "10.0.0.1:1000"
		w1 := httptest.NewRecorder()
		handler.ServeHTTP(w1, req1)
		assert.Equal(t, http.StatusOK, w1.Code)

		req2 := httptest.NewRequest("GET", "/", nil)
		req2.RemoteAddr = "10.0.0.2:1000"
		w2 := httptest.NewRecorder()
		handler.ServeHTTP(w2, req2)
		assert.Equal(t, http.StatusTooManyRequests, w2.Code)
	})
}

func TestGetUserIDFromContext(t *testing.T) {
	t.Run("returns user id when user exists in context", func(t *testing.T) {
		req := withUser(httptest.NewRequest("GET", "/", nil), &domain.User{Id: "abc123"})

		userID, err := GetUserIDFromContext(req)
		assert.NoError(t, err)
		assert.Equal(t, "user_abc123", userID)
	})

	t.Run("returns error when user not in context", func(t *testing.T) {
		userID, err := GetUserIDFromContext(httptest.NewRequest("GET", "/", nil))
		assert.Error(t, err)
		assert.Empty(t, userID)
		assert.Equal(t, "Can't get user id", err.Error())
	})
}

func TestGetIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		want       string
		wantErr    string
	}{
		{name: "ipv4 with port", remoteAddr: "192.168.1.100:54321", want: "192.168.1.100"},
		{name: "ipv6 with port", remoteAddr: "[2001:db8::1]:8080", want: "2001:db8::1"},
		{name: "localhost", remoteAddr: "127.0.0.1:12345", want: "127.0.0.1"},
		{name: "no port", remoteAddr: "192.168.1.1", want: "192.168.1.1"},
		{name: "garbage host", remoteAddr: "not-an-ip:1234", wantErr: "invalid IP address: not-an-ip"},
		{name: "empty", remoteAddr: "", wantErr: "invalid IP address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/test", nil)
			req.RemoteAddr = tt.remoteAddr

			ip, err := GetIP(req)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ip)
		})
	}

	t.Run("ignores forwarding headers", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/test", nil)
		req.RemoteAddr = "203.0.113.50:12345"
		req.Header.Set("X-Real-IP", "10.0.0.1")
		req.Header.Set("X-Forwarded-For", "10.0.0.2, 10.0.0.3")

		ip, err := GetIP(req)
		require.NoError(t, err)
		assert.Equal(t, "203.0.113.50", ip)
	})
}
