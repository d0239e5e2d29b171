package user

import (
	"context"
	"testing"

	policies "rightsdesk-backend/internal/application/policies/user"
	"rightsdesk-backend/internal/domain"
	"rightsdesk-backend/internal/pkg/constants"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*Service, *miniredis.Miniredis) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.User{}))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return &Service{DB: db, Rdb: rdb}, mr
}

func TestCreateUser(t *testing.T) {
	s, _ := setupService(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, CreateUserInput{
		Email: "  Ana@Label.COM ", Password: "s3cret!pass", Fullname: "ana   lópez",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@label.com", u.Email)
	assert.Equal(t, "Ana López", u.Fullname)
	assert.Equal(t, constants.Viewer, u.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret!pass")))

	_, err = s.CreateUser(ctx, CreateUserInput{Email: "ana@label.com", Password: "s3cret!pass", Fullname: "Ana"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateUser_Validation(t *testing.T) {
	s, _ := setupService(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, CreateUserInput{Email: "nope", Password: "s3cret!pass", Fullname: "A"})
	assert.ErrorIs(t, err, ErrInvalidEmail)
	_, err = s.CreateUser(ctx, CreateUserInput{Email: "a@b.co", Password: "short", Fullname: "A"})
	assert.ErrorIs(t, err, ErrInvalidPassword)
	_, err = s.CreateUser(ctx, CreateUserInput{Email: "a@b.co", Password: "s3cret!pass", Fullname: "   "})
	assert.ErrorIs(t, err, ErrFullnameEmpty)
	_, err = s.CreateUser(ctx, CreateUserInput{Email: "a@b.co", Password: "s3cret!pass", Fullname: "A", Role: "owner"})
	assert.ErrorIs(t, err, policies.ErrInvalidRole)
}

func TestUpdateUserRole_DestroysSessions(t *testing.T) {
	s, mr := setupService(t)
	ctx := context.Background()

	admin, err := s.CreateUser(ctx, CreateUserInput{Email: "admin@x.com", Password: "s3cret!pass", Fullname: "Admin", Role: constants.Admin})
	require.NoError(t, err)
	viewer, err := s.CreateUser(ctx, CreateUserInput{Email: "viewer@x.com", Password: "s3cret!pass", Fullname: "Viewer"})
	require.NoError(t, err)

	require.NoError(t, mr.Set("session:abc", "{}"))
	_, err = mr.SAdd("user_sessions:"+viewer.UserID.String(), "abc")
	require.NoError(t, err)

	updated, err := s.UpdateUserRole(ctx, UpdateUserRoleInput{
		ActorUserID: admin.UserID.String(), TargetUserID: viewer.UserID.String(), TargetRole: constants.Admin,
	})
	require.NoError(t, err)
	assert.Equal(t, constants.Admin, updated.Role)
	assert.False(t, mr.Exists("session:abc"))

	stored, err := s.ViewUser(ctx, viewer.UserID.String())
	require.NoError(t, err)
	assert.Equal(t, constants.Admin, stored.Role)
}

func TestRemoveUser(t *testing.T) {
	s, _ := setupService(t)
	ctx := context.Background()

	admin, err := s.CreateUser(ctx, CreateUserInput{Email: "admin@x.com", Password: "s3cret!pass", Fullname: "Admin", Role: constants.Admin})
	require.NoError(t, err)
	viewer, err := s.CreateUser(ctx, CreateUserInput{Email: "viewer@x.com", Password: "s3cret!pass", Fullname: "Viewer"})
	require.NoError(t, err)

	require.NoError(t, s.RemoveUser(ctx, admin.UserID.String(), viewer.UserID.String()))
	_, err = s.ViewUser(ctx, viewer.UserID.String())
	assert.ErrorIs(t, err, ErrUserNotFound)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin@x.com", users[0].Email)

	// soft-deleted emails stay reserved
	_, err = s.CreateUser(ctx, CreateUserInput{Email: "viewer@x.com", Password: "s3cret!pass", Fullname: "Again"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}
