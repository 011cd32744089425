package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"acquisitions/internal/domain"
	"acquisitions/internal/repo"
	"acquisitions/internal/repo/repotest"
	"acquisitions/pkg/utils"
)

// spyRepo 统计写调用次数，可注入错误
type spyRepo struct {
	domain.UserRepository
	creates, updates, deletes int
	createErr, findErr        error
}

func (s *spyRepo) Create(ctx context.Context, u *domain.User) error {
	s.creates++
	if s.createErr != nil {
		return s.createErr
	}
	return s.UserRepository.Create(ctx, u)
}

func (s *spyRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.UserRepository.FindByEmail(ctx, email)
}

func (s *spyRepo) Update(ctx context.Context, id string, upd domain.UserUpdate, at time.Time) (*domain.User, error) {
	s.updates++
	return s.UserRepository.Update(ctx, id, upd, at)
}

func (s *spyRepo) Delete(ctx context.Context, id string) (*domain.User, error) {
	s.deletes++
	return s.UserRepository.Delete(ctx, id)
}

type stubHasher struct {
	hashErr   error
	verifyErr error
}

func (h stubHasher) Hash(plain string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "stub$" + plain, nil
}

func (h stubHasher) Verify(plain, hashed string) (bool, error) {
	if h.verifyErr != nil {
		return false, h.verifyErr
	}
	return hashed == "stub$"+plain, nil
}

type fixture struct {
	spy   *spyRepo
	users *UserService
	auth  *AuthService
	logs  *observer.ObservedLogs
}

func newFixture(t *testing.T, hasher utils.PasswordHasher) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	l := zap.New(core)
	spy := &spyRepo{UserRepository: repo.NewUserRepo(repotest.NewDB(t))}
	users := NewUserService(spy, l)
	return &fixture{spy: spy, users: users, auth: NewAuthService(users, hasher, l), logs: logs}
}

func ptr[T any](v T) *T { return &v }
