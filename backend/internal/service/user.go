package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/errors"
	"github.com/itchan-dev/kanaal/shared/logger"
	"github.com/itchan-dev/kanaal/shared/utils"
)

type UserService interface {
	// Sync maps a gateway principal to a local user, creating it on first contact.
	Sync(ctx context.Context, principal domain.Principal) (domain.User, error)
	Get(ctx context.Context, id domain.UserId) (domain.User, error)
	UpdateProfile(ctx context.Context, self domain.UserId, update domain.UserUpdate) (domain.User, error)
	CompleteOnboardingStep(ctx context.Context, self domain.UserId, step string) (domain.User, error)
	SetRole(ctx context.Context, actor *domain.User, target domain.UserId, role domain.Role) (domain.User, error)
	DeleteSelf(ctx context.Context, self domain.UserId) error
	DeleteByAdmin(ctx context.Context, actor *domain.User, target domain.UserId) error
	DeleteByExternalId(ctx context.Context, externalId domain.ExternalId) error
}

// UserDeleter runs the user deletion cascade.
type UserDeleter interface {
	DeleteUser(ctx context.Context, id domain.UserId) error
}

// OnboardingSteps a user goes through, in any order.
var OnboardingSteps = []string{"profile", "channels", "first_post"}

type User struct {
	storage UserStorage
	cascade UserDeleter
	now     func() time.Time
}

func NewUser(storage UserStorage, cascade UserDeleter) *User {
	return &User{storage: storage, cascade: cascade, now: time.Now}
}

func (s *User) Sync(ctx context.Context, principal domain.Principal) (domain.User, error) {
	if principal.SubjectId == "" {
		return domain.User{}, errors.InvalidArgument("identity has no subject")
	}

	user, err := s.storage.GetUserByExternalId(ctx, principal.SubjectId)
	if err == nil {
		if principal.Email != "" && principal.Email != user.Email {
			return s.storage.UpdateUser(ctx, user.Id, func(u *domain.User) error {
				u.Email = principal.Email
				return nil
			})
		}
		return user, nil
	}
	if !errors.IsNotFound(err) {
		return domain.User{}, err
	}

	fresh := domain.User{
		Id:          utils.NewId(),
		ExternalId:  principal.SubjectId,
		Email:       principal.Email,
		DisplayName: defaultDisplayName(principal.Email),
		Role:        domain.RoleMember,
		Tags:        []string{},
		CreatedAt:   s.now().UTC(),
	}

	stored, created, err := s.storage.CreateUserIfAbsent(ctx, fresh)
	if err != nil {
		return domain.User{}, err
	}
	// Only the call that actually created the user competes for the
	// bootstrap claim, so a failed create never spends it.
	if created {
		claimed, err := s.storage.ClaimBootstrap(ctx, stored.Id)
		if err != nil {
			return domain.User{}, err
		}
		if claimed {
			stored, err = s.storage.UpdateUser(ctx, stored.Id, func(u *domain.User) error {
				u.Role = domain.RoleAdmin
				return nil
			})
			if err != nil {
				return domain.User{}, err
			}
		}
		logger.Log.Info("provisioned user", "component", "user", "user_id", stored.Id, "role", stored.Role)
	}
	return stored, nil
}

func defaultDisplayName(email domain.Email) string {
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		return local
	}
	return "user"
}

func (s *User) Get(ctx context.Context, id domain.UserId) (domain.User, error) {
	return s.storage.GetUser(ctx, id)
}

func (s *User) UpdateProfile(ctx context.Context, self domain.UserId, update domain.UserUpdate) (domain.User, error) {
	if update.Empty() {
		return domain.User{}, errors.InvalidArgument("nothing to update")
	}
	if update.DisplayName != nil {
		name := utils.StripMarkup(*update.DisplayName)
		if name == "" {
			return domain.User{}, errors.InvalidArgument("display name can't be empty")
		}
		update.DisplayName = &name
	}
	return s.storage.UpdateUser(ctx, self, func(u *domain.User) error {
		if update.DisplayName != nil {
			u.DisplayName = *update.DisplayName
		}
		if update.Bio != nil {
			u.Bio = *update.Bio
		}
		if update.AvatarUrl != nil {
			u.AvatarUrl = *update.AvatarUrl
		}
		if update.Tags != nil {
			u.Tags = dedupTags(*update.Tags)
		}
		return nil
	})
}

func dedupTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *User) CompleteOnboardingStep(ctx context.Context, self domain.UserId, step string) (domain.User, error) {
	if !slices.Contains(OnboardingSteps, step) {
		return domain.User{}, errors.InvalidArgument(fmt.Sprintf("unknown onboarding step %q", step))
	}
	return s.storage.UpdateUser(ctx, self, func(u *domain.User) error {
		if !slices.Contains(u.Onboarding.CompletedSteps, step) {
			u.Onboarding.CompletedSteps = append(u.Onboarding.CompletedSteps, step)
		}
		u.Onboarding.Completed = len(u.Onboarding.CompletedSteps) == len(OnboardingSteps)
		return nil
	})
}

func (s *User) SetRole(ctx context.Context, actor *domain.User, target domain.UserId, role domain.Role) (domain.User, error) {
	if actor == nil || !actor.IsAdmin() {
		return domain.User{}, errors.PermissionDenied("only admins can change roles")
	}
	if !role.Valid() {
		return domain.User{}, errors.InvalidArgument(fmt.Sprintf("unknown role %q", role))
	}
	if target == actor.Id && role != domain.RoleAdmin {
		admins, err := s.countAdmins(ctx)
		if err != nil {
			return domain.User{}, err
		}
		if admins <= 1 {
			return domain.User{}, errors.Conflict("you are the last admin")
		}
	}
	return s.storage.UpdateUser(ctx, target, func(u *domain.User) error {
		u.Role = role
		return nil
	})
}

func (s *User) countAdmins(ctx context.Context) (int, error) {
	users, err := s.storage.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, u := range users {
		if u.IsAdmin() {
			n++
		}
	}
	return n, nil
}

func (s *User) DeleteSelf(ctx context.Context, self domain.UserId) error {
	return s.cascade.DeleteUser(ctx, self)
}

func (s *User) DeleteByAdmin(ctx context.Context, actor *domain.User, target domain.UserId) error {
	if actor == nil || !actor.IsAdmin() {
		return errors.PermissionDenied("only admins can delete other users")
	}
	if _, err := s.storage.GetUser(ctx, target); err != nil {
		return err
	}
	return s.cascade.DeleteUser(ctx, target)
}

func (s *User) DeleteByExternalId(ctx context.Context, externalId domain.ExternalId) error {
	user, err := s.storage.GetUserByExternalId(ctx, externalId)
	if err != nil {
		return err
	}
	return s.cascade.DeleteUser(ctx, user.Id)
}
