package policies

import "errors"

var (
	ErrInvalidRole              = errors.New("Invalid role")
	ErrTargetUserNotFound       = errors.New("Target user not found")
	ErrUsersCannotModifyOwnRole = errors.New("Users cannot modify their own role")
	ErrUsersCannotRemoveSelf    = errors.New("Users cannot remove their own account")
	ErrMustKeepOneAdmin         = errors.New("At least one admin account must remain")
)
