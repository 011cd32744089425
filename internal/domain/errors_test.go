package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs_MatchesKindAndParent(t *testing.T) {
	assert.True(t, errors.Is(ErrUserExists, ErrDuplicateEmail))
	assert.True(t, errors.Is(ErrUserExists, ErrUserExists))
	assert.False(t, errors.Is(ErrDuplicateEmail, ErrUserExists))

	assert.True(t, errors.Is(ErrUserNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrUserNotFound))

	assert.False(t, errors.Is(ErrInvalidCredentials, ErrNotFound))
}

func TestErrorIs_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("update user: %w", ErrDuplicateEmail)
	assert.True(t, errors.Is(err, ErrDuplicateEmail))
	assert.Equal(t, KindDuplicateEmail, KindOf(err))
}

func TestPersistence_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Persistence("find user by id", cause)

	assert.True(t, errors.Is(err, ErrPersistence))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "find user by id: connection reset", err.Error())
}

func TestKindOf_Unknown(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleUser.IsValid())
	assert.True(t, RoleAdmin.IsValid())
	assert.False(t, Role("root").IsValid())
	assert.False(t, Role("").IsValid())
}

func TestUser_PublicOmitsDigest(t *testing.T) {
	u := User{ID: "u1", Name: "Ann", Email: "ann@x.com", PasswordHash: "$2a$10$abc", Role: RoleUser}
	p := u.Public()
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, RoleUser, p.Role)

	d := u.Deleted()
	assert.Equal(t, DeletedUser{ID: "u1", Email: "ann@x.com", Name: "Ann", Role: RoleUser}, d)
}
