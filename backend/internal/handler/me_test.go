package handler

import (
	"net/http"
	"testing"

	"github.com/itchan-dev/kanaal/shared/api"
	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMe(t *testing.T) {
	m := newMocks()
	h := m.handler()

	t.Run("returns context user", func(t *testing.T) {
		rec := serve(h.GetMe, http.MethodGet, "/v1/me", "/v1/me", nil, member)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[api.UserResponse](t, rec)
		assert.Equal(t, member.Id, got.Id)
		assert.Equal(t, domain.RoleMember, got.Role)
	})

	t.Run("no user", func(t *testing.T) {
		rec := serve(h.GetMe, http.MethodGet, "/v1/me", "/v1/me", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestUpdateMe(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
	}{
		{name: "partial update", body: `{"display_name":"Nieuw","tags":["go","go"]}`, wantStatus: http.StatusOK},
		{name: "invalid json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "avatar must be a url", body: `{"avatar_url":"not a url"}`, wantStatus: http.StatusBadRequest},
		{name: "empty update rejected by service", body: `{}`, serviceErr: errors.InvalidArgument("nothing to update"), wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMocks()
			var gotSelf domain.UserId
			var gotUpdate domain.UserUpdate
			m.users.updateProfileFunc = func(self domain.UserId, update domain.UserUpdate) (domain.User, error) {
				gotSelf, gotUpdate = self, update
				if tt.serviceErr != nil {
					return domain.User{}, tt.serviceErr
				}
				return domain.User{Id: self, DisplayName: *update.DisplayName}, nil
			}

			rec := serve(m.handler().UpdateMe, http.MethodPatch, "/v1/me", "/v1/me", []byte(tt.body), member)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, member.Id, gotSelf)
				require.NotNil(t, gotUpdate.Tags)
				assert.Equal(t, []string{"go", "go"}, *gotUpdate.Tags)
				assert.Nil(t, gotUpdate.Bio)
				assert.Equal(t, "Nieuw", decode[api.UserResponse](t, rec).DisplayName)
			}
		})
	}
}

func TestCompleteOnboardingStep(t *testing.T) {
	m := newMocks()
	var gotStep string
	m.users.onboardingFunc = func(self domain.UserId, step string) (domain.User, error) {
		gotStep = step
		return domain.User{Id: self, Onboarding: domain.Onboarding{CompletedSteps: []string{step}}}, nil
	}
	h := m.handler()

	rec := serve(h.CompleteOnboardingStep, http.MethodPost, "/v1/me/onboarding", "/v1/me/onboarding", []byte(`{"step":"profile"}`), member)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "profile", gotStep)

	rec = serve(h.CompleteOnboardingStep, http.MethodPost, "/v1/me/onboarding", "/v1/me/onboarding", []byte(`{}`), member)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteMe(t *testing.T) {
	t.Run("cascade runs for self", func(t *testing.T) {
		m := newMocks()
		var deleted domain.UserId
		m.users.deleteSelfFunc = func(self domain.UserId) error {
			deleted = self
			return nil
		}
		rec := serve(m.handler().DeleteMe, http.MethodDelete, "/v1/me", "/v1/me", nil, member)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, member.Id, deleted)
	})

	t.Run("cascade failure surfaces", func(t *testing.T) {
		m := newMocks()
		m.users.deleteSelfFunc = func(domain.UserId) error { return assert.AnError }
		rec := serve(m.handler().DeleteMe, http.MethodDelete, "/v1/me", "/v1/me", nil, member)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
	})
}
