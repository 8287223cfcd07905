package domain

import "time"

type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Principal is what the identity gateway vouches for on every request.
type Principal struct {
	SubjectId ExternalId
	Email     Email
}

type Onboarding struct {
	CompletedSteps []string `json:"completed_steps,omitempty"`
	Completed      bool     `json:"completed"`
}

type User struct {
	Id          UserId     `json:"id"`
	ExternalId  ExternalId `json:"external_id"`
	Email       Email      `json:"email"`
	DisplayName string     `json:"display_name"`
	Role        Role       `json:"role"`
	Bio         string     `json:"bio,omitempty"`
	AvatarUrl   string     `json:"avatar_url,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Onboarding  Onboarding `json:"onboarding"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanModerate covers moderators and admins.
func (u *User) CanModerate() bool {
	return u.Role == RoleAdmin || u.Role == RoleModerator
}

// UserUpdate carries a partial profile update, nil fields are left untouched.
type UserUpdate struct {
	DisplayName *string
	Bio         *string
	AvatarUrl   *string
	Tags        *[]string
}

func (u UserUpdate) Empty() bool {
	return u.DisplayName == nil && u.Bio == nil && u.AvatarUrl == nil && u.Tags == nil
}
