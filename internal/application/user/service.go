package user

import (
	"context"
	"errors"
	"strings"
	"unicode"

	policies "rightsdesk-backend/internal/application/policies/user"
	"rightsdesk-backend/internal/domain"
	"rightsdesk-backend/internal/pkg/constants"
	"rightsdesk-backend/internal/pkg/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken      = errors.New("Email already registered")
	ErrInvalidEmail    = errors.New("Invalid email format")
	ErrInvalidPassword = errors.New("Password must be at least 8 characters with a letter, a number and a special character")
	ErrFullnameEmpty   = errors.New("Full name is required")
	ErrUserNotFound    = errors.New("User not found")
)

const bcryptCost = 10

// Service manages back-office accounts. Only admins reach it through the router.
type Service struct {
	DB  *gorm.DB
	Rdb *redis.Client
}

// CreateUserInput is an admin-created account; Role defaults to viewer.
type CreateUserInput struct {
	Email    string
	Password string
	Fullname string
	Role     string
}

// CreateUser validates and stores a new account with a bcrypt password hash.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if !validation.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, ErrInvalidPassword
	}
	fullname := titleCaseAndNormalize(in.Fullname)
	if fullname == "" {
		return nil, ErrFullnameEmpty
	}
	role := in.Role
	if role == "" {
		role = constants.Viewer
	}
	if !constants.IsValidRole(role) {
		return nil, policies.ErrInvalidRole
	}

	var count int64
	if err := s.DB.WithContext(ctx).Unscoped().Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Fullname:     fullname,
		Role:         role,
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// ListUsers returns all active accounts ordered by email.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := s.DB.WithContext(ctx).Order("email").Find(&users).Error
	return users, err
}

// ViewUser returns one account by id.
func (s *Service) ViewUser(ctx context.Context, userID string) (*domain.User, error) {
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpdateUserRoleInput names the acting admin, the target account and the new role.
type UpdateUserRoleInput struct {
	ActorUserID  string
	TargetUserID string
	TargetRole   string
}

// UpdateUserRole changes the target's role after the governance check and signs the target out everywhere.
func (s *Service) UpdateUserRole(ctx context.Context, in UpdateUserRoleInput) (*domain.User, error) {
	target, err := policies.ValidateRoleAssignment(s.DB.WithContext(ctx), policies.ValidateRoleAssignmentParams{
		ActorUserID:  in.ActorUserID,
		TargetUserID: in.TargetUserID,
		TargetRole:   in.TargetRole,
	})
	if err != nil {
		return nil, err
	}
	target.Role = in.TargetRole
	if err := s.DB.WithContext(ctx).Model(target).Update("role", in.TargetRole).Error; err != nil {
		return nil, err
	}
	policies.DestroyUserSessions(ctx, s.Rdb, in.TargetUserID)
	return target, nil
}

// RemoveUser soft-deletes the account and destroys its sessions.
func (s *Service) RemoveUser(ctx context.Context, actorUserID, targetUserID string) error {
	target, err := policies.ValidateUserRemoval(s.DB.WithContext(ctx), actorUserID, targetUserID)
	if err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Delete(target).Error; err != nil {
		return err
	}
	policies.DestroyUserSessions(ctx, s.Rdb, targetUserID)
	return nil
}

func titleCaseAndNormalize(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	var b strings.Builder
	capitalize := true
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !capitalize {
				b.WriteRune(' ')
				capitalize = true
			}
			continue
		}
		if capitalize {
			b.WriteRune(unicode.ToUpper(r))
			capitalize = false
		} else {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
