package policies

import (
	"errors"

	"rightsdesk-backend/internal/domain"
	"rightsdesk-backend/internal/pkg/constants"

	"gorm.io/gorm"
)

// ValidateRoleAssignmentParams describes who changes whose role to what.
type ValidateRoleAssignmentParams struct {
	ActorUserID  string
	TargetUserID string
	TargetRole   string
}

// ValidateRoleAssignment returns the target user when the change is allowed.
func ValidateRoleAssignment(db *gorm.DB, params ValidateRoleAssignmentParams) (*domain.User, error) {
	if !constants.IsValidRole(params.TargetRole) {
		return nil, ErrInvalidRole
	}
	if params.ActorUserID == params.TargetUserID {
		return nil, ErrUsersCannotModifyOwnRole
	}
	target, err := findUser(db, params.TargetUserID)
	if err != nil {
		return nil, err
	}
	if target.Role == constants.Admin && params.TargetRole != constants.Admin {
		if err := ensureAnotherAdmin(db); err != nil {
			return nil, err
		}
	}
	return target, nil
}

// ValidateUserRemoval returns the target user when the actor may delete the account.
func ValidateUserRemoval(db *gorm.DB, actorUserID, targetUserID string) (*domain.User, error) {
	if actorUserID == targetUserID {
		return nil, ErrUsersCannotRemoveSelf
	}
	target, err := findUser(db, targetUserID)
	if err != nil {
		return nil, err
	}
	if target.Role == constants.Admin {
		if err := ensureAnotherAdmin(db); err != nil {
			return nil, err
		}
	}
	return target, nil
}

func findUser(db *gorm.DB, userID string) (*domain.User, error) {
	var target domain.User
	if err := db.Where("user_id = ?", userID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTargetUserNotFound
		}
		return nil, err
	}
	return &target, nil
}

func ensureAnotherAdmin(db *gorm.DB) error {
	var count int64
	if err := db.Model(&domain.User{}).Where("role = ?", constants.Admin).Count(&count).Error; err != nil {
		return err
	}
	if count <= 1 {
		return ErrMustKeepOneAdmin
	}
	return nil
}
