package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"acquisitions/internal/core/logger"
	"acquisitions/internal/core/tracing"
	"acquisitions/internal/domain"
	"acquisitions/pkg/utils"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// UserService 用户记录的生命周期；失败在此处记日志后原样返回
type UserService struct {
	repo domain.UserRepository
	log  *zap.Logger
	now  func() time.Time
}

func NewUserService(repo domain.UserRepository, l *zap.Logger) *UserService {
	return &UserService{repo: repo, log: l, now: time.Now}
}

func (s *UserService) Create(ctx context.Context, in domain.NewUser) (domain.PublicUser, error) {
	ctx, span := tracing.Start(ctx, "UserService.Create")
	defer span.End()
	log := logger.Ctx(ctx, s.log)

	in.Email = utils.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if err := validateNew(in); err != nil {
		log.Warn("create user rejected", zap.String("email", in.Email), zap.Error(err))
		return domain.PublicUser{}, err
	}

	taken, err := s.repo.EmailTaken(ctx, in.Email, "")
	if err != nil {
		log.Error("create user: email check failed", zap.String("email", in.Email), zap.Error(err))
		return domain.PublicUser{}, err
	}
	if taken {
		log.Warn("create user: email exists", zap.String("email", in.Email))
		return domain.PublicUser{}, domain.ErrDuplicateEmail
	}

	u := &domain.User{Name: in.Name, Email: in.Email, PasswordHash: in.PasswordHash, Role: in.Role}
	if err := s.repo.Create(ctx, u); err != nil {
		log.Error("create user failed", zap.String("email", in.Email), zap.Error(err))
		return domain.PublicUser{}, err
	}
	log.Info("user created", zap.String("id", u.ID), zap.String("email", u.Email))
	return u.Public(), nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (domain.PublicUser, error) {
	ctx, span := tracing.Start(ctx, "UserService.GetByID")
	defer span.End()

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logFailure(ctx, "get user by id", err, zap.String("id", id))
		return domain.PublicUser{}, err
	}
	return u.Public(), nil
}

// CurrentRole 鉴权用：token 里的角色可能已过时
func (s *UserService) CurrentRole(ctx context.Context, id string) (domain.Role, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// GetAll 全量返回，不分页
func (s *UserService) GetAll(ctx context.Context) ([]domain.PublicUser, error) {
	ctx, span := tracing.Start(ctx, "UserService.GetAll")
	defer span.End()

	us, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logFailure(ctx, "get all users", err)
		return nil, err
	}
	return publics(us), nil
}

func (s *UserService) List(ctx context.Context, q domain.ListQuery) (domain.Page, error) {
	ctx, span := tracing.Start(ctx, "UserService.List")
	defer span.End()

	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	us, total, err := s.repo.List(ctx, q)
	if err != nil {
		s.logFailure(ctx, "list users", err, zap.String("q", q.Q))
		return domain.Page{}, err
	}
	return domain.Page{Total: total, Items: publics(us)}, nil
}

// Update 先确认存在，再查邮箱冲突，最后写入；任一步失败都不写
func (s *UserService) Update(ctx context.Context, id string, upd domain.UserUpdate) (domain.PublicUser, error) {
	ctx, span := tracing.Start(ctx, "UserService.Update")
	defer span.End()
	log := logger.Ctx(ctx, s.log).With(zap.String("id", id))

	upd = normalizeUpdate(upd)
	if err := validateUpdate(upd); err != nil {
		log.Warn("update user rejected", zap.Error(err))
		return domain.PublicUser{}, err
	}

	cur, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logFailure(ctx, "update user", err, zap.String("id", id))
		return domain.PublicUser{}, err
	}

	if upd.Email != nil && *upd.Email != cur.Email {
		taken, err := s.repo.EmailTaken(ctx, *upd.Email, id)
		if err != nil {
			log.Error("update user: email check failed", zap.String("email", *upd.Email), zap.Error(err))
			return domain.PublicUser{}, err
		}
		if taken {
			log.Warn("update user: email exists", zap.String("email", *upd.Email))
			return domain.PublicUser{}, domain.ErrDuplicateEmail
		}
	}

	u, err := s.repo.Update(ctx, id, upd, s.now())
	if err != nil {
		s.logFailure(ctx, "update user", err, zap.String("id", id))
		return domain.PublicUser{}, err
	}
	log.Info("user updated", zap.String("email", u.Email))
	return u.Public(), nil
}

func (s *UserService) Delete(ctx context.Context, id string) (domain.DeletedUser, error) {
	ctx, span := tracing.Start(ctx, "UserService.Delete")
	defer span.End()

	u, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logFailure(ctx, "delete user", err, zap.String("id", id))
		return domain.DeletedUser{}, err
	}
	logger.Ctx(ctx, s.log).Info("user deleted", zap.String("id", u.ID), zap.String("email", u.Email))
	return u.Deleted(), nil
}

// FindCredentials 仅供认证使用，返回值含密码摘要
func (s *UserService) FindCredentials(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.FindByEmail(ctx, utils.NormalizeEmail(email))
}

// logFailure 记录不存在属于预期，降为 Info
func (s *UserService) logFailure(ctx context.Context, op string, err error, fields ...zap.Field) {
	log := logger.Ctx(ctx, s.log)
	fields = append(fields, zap.Error(err))
	if errors.Is(err, domain.ErrNotFound) {
		log.Info(op+": not found", fields...)
		return
	}
	log.Error(op+" failed", fields...)
}

func publics(us []domain.User) []domain.PublicUser {
	out := make([]domain.PublicUser, 0, len(us))
	for _, u := range us {
		out = append(out, u.Public())
	}
	return out
}

func normalizeUpdate(upd domain.UserUpdate) domain.UserUpdate {
	if upd.Name != nil {
		n := strings.TrimSpace(*upd.Name)
		upd.Name = &n
	}
	if upd.Email != nil {
		e := utils.NormalizeEmail(*upd.Email)
		upd.Email = &e
	}
	return upd
}

func validateNew(in domain.NewUser) error {
	switch {
	case in.Name == "":
		return domain.Validation("name is required")
	case in.Email == "":
		return domain.Validation("email is required")
	case in.PasswordHash == "":
		return domain.Validation("password digest is required")
	case !in.Role.IsValid():
		return domain.Validation("role must be one of user, admin")
	}
	return nil
}

func validateUpdate(upd domain.UserUpdate) error {
	switch {
	case upd.Empty():
		return domain.Validation("at least one field must be provided")
	case upd.Name != nil && *upd.Name == "":
		return domain.Validation("name must not be empty")
	case upd.Email != nil && *upd.Email == "":
		return domain.Validation("email must not be empty")
	case upd.Role != nil && !upd.Role.IsValid():
		return domain.Validation("role must be one of user, admin")
	}
	return nil
}
