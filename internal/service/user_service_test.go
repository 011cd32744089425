package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"acquisitions/internal/domain"
)

func createAnn(t *testing.T, f *fixture) domain.PublicUser {
	t.Helper()
	u, err := f.users.Create(context.Background(), domain.NewUser{Name: "Ann", Email: "ann@x.com", PasswordHash: "stub$secret1"})
	require.NoError(t, err)
	return u
}

func TestCreate_DefaultsRoleAndNormalizesEmail(t *testing.T) {
	f := newFixture(t, stubHasher{})
	u, err := f.users.Create(context.Background(), domain.NewUser{Name: " Ann ", Email: " Ann@X.com", PasswordHash: "d"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, "ann@x.com", u.Email)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.NotEmpty(t, u.ID)
}

func TestCreate_DuplicateEmailIsPrechecked(t *testing.T) {
	f := newFixture(t, stubHasher{})
	createAnn(t, f)

	_, err := f.users.Create(context.Background(), domain.NewUser{Name: "Other", Email: "ANN@x.com", PasswordHash: "d"})
	assert.True(t, errors.Is(err, domain.ErrDuplicateEmail))
	assert.Equal(t, 1, f.spy.creates)
	assert.Equal(t, 1, f.logs.FilterField(zap.String("email", "ann@x.com")).FilterMessage("create user: email exists").Len())
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	f := newFixture(t, stubHasher{})
	for _, in := range []domain.NewUser{
		{Email: "a@x.com", PasswordHash: "d"},
		{Name: "A", PasswordHash: "d"},
		{Name: "A", Email: "a@x.com"},
		{Name: "A", Email: "a@x.com", PasswordHash: "d", Role: "root"},
	} {
		_, err := f.users.Create(context.Background(), in)
		assert.True(t, errors.Is(err, domain.ErrValidation), "%+v", in)
	}
	assert.Zero(t, f.spy.creates)
}

func TestGetByID(t *testing.T) {
	f := newFixture(t, stubHasher{})
	ann := createAnn(t, f)

	got, err := f.users.GetByID(context.Background(), ann.ID)
	require.NoError(t, err)
	assert.Equal(t, ann.ID, got.ID)

	_, err = f.users.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, 1, f.logs.FilterField(zap.String("id", "missing")).Len())
}

func TestGetAll(t *testing.T) {
	f := newFixture(t, stubHasher{})
	for i := 0; i < 3; i++ {
		_, err := f.users.Create(context.Background(), domain.NewUser{Name: "U", Email: fmt.Sprintf("u%d@x.com", i), PasswordHash: "d"})
		require.NoError(t, err)
	}
	all, err := f.users.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestList_ClampsPaging(t *testing.T) {
	f := newFixture(t, stubHasher{})
	for i := 0; i < 25; i++ {
		_, err := f.users.Create(context.Background(), domain.NewUser{Name: "U", Email: fmt.Sprintf("u%d@x.com", i), PasswordHash: "d"})
		require.NoError(t, err)
	}

	p, err := f.users.List(context.Background(), domain.ListQuery{Offset: -5})
	require.NoError(t, err)
	assert.EqualValues(t, 25, p.Total)
	assert.Len(t, p.Items, DefaultPageSize)

	p, err = f.users.List(context.Background(), domain.ListQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, p.Items, 25)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t, stubHasher{})
	ann := createAnn(t, f)
	at := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	f.users.now = func() time.Time { return at }

	got, err := f.users.Update(context.Background(), ann.ID, domain.UserUpdate{Name: ptr("Annie"), Email: ptr("ANNIE@x.com")})
	require.NoError(t, err)
	assert.Equal(t, "Annie", got.Name)
	assert.Equal(t, "annie@x.com", got.Email)
	assert.True(t, got.UpdatedAt.Equal(at))
	assert.Equal(t, ann.ID, got.ID)
}

func TestUpdate_SameEmailIsNotAConflict(t *testing.T) {
	f := newFixture(t, stubHasher{})
	ann := createAnn(t, f)
	_, err := f.users.Update(context.Background(), ann.ID, domain.UserUpdate{Email: ptr("ann@x.com")})
	require.NoError(t, err)
}

func TestUpdate_MissingIDPerformsNoWrite(t *testing.T) {
	f := newFixture(t, stubHasher{})
	_, err := f.users.Update(context.Background(), "missing", domain.UserUpdate{Name: ptr("x")})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Zero(t, f.spy.updates)
}

func TestUpdate_EmailOfAnotherUserLeavesBothUnchanged(t *testing.T) {
	f := newFixture(t, stubHasher{})
	ctx := context.Background()
	ann := createAnn(t, f)
	bob, err := f.users.Create(ctx, domain.NewUser{Name: "Bob", Email: "bob@x.com", PasswordHash: "d"})
	require.NoError(t, err)

	_, err = f.users.Update(ctx, bob.ID, domain.UserUpdate{Email: ptr("ann@x.com"), Name: ptr("Bobby")})
	assert.True(t, errors.Is(err, domain.ErrDuplicateEmail))
	assert.Zero(t, f.spy.updates)

	a, err := f.users.GetByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", a.Name)
	assert.Equal(t, "ann@x.com", a.Email)
	b, err := f.users.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", b.Name)
	assert.Equal(t, "bob@x.com", b.Email)
}

func TestUpdate_Validation(t *testing.T) {
	f := newFixture(t, stubHasher{})
	ann := createAnn(t, f)
	for _, upd := range []domain.UserUpdate{
		{},
		{Name: ptr("  ")},
		{Email: ptr("")},
		{Role: ptr(domain.Role("root"))},
	} {
		_, err := f.users.Update(context.Background(), ann.ID, upd)
		assert.True(t, errors.Is(err, domain.ErrValidation))
	}
	assert.Zero(t, f.spy.updates)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, stubHasher{})
	ctx := context.Background()
	ann := createAnn(t, f)

	gone, err := f.users.Delete(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeletedUser{ID: ann.ID, Email: "ann@x.com", Name: "Ann", Role: domain.RoleUser}, gone)

	_, err = f.users.GetByID(ctx, ann.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.users.Delete(ctx, ann.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestFindCredentials_IncludesDigest(t *testing.T) {
	f := newFixture(t, stubHasher{})
	createAnn(t, f)
	u, err := f.users.FindCredentials(context.Background(), " ANN@x.com ")
	require.NoError(t, err)
	assert.Equal(t, "stub$secret1", u.PasswordHash)
}
