package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"acquisitions/internal/core/logger"
	"acquisitions/internal/core/metrics"
	"acquisitions/internal/core/tracing"
	"acquisitions/internal/domain"
	"acquisitions/pkg/utils"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

type AuthService struct {
	users  *UserService
	hasher utils.PasswordHasher
	log    *zap.Logger
	prom   *metrics.Prom
}

func NewAuthService(users *UserService, hasher utils.PasswordHasher, l *zap.Logger) *AuthService {
	return &AuthService{users: users, hasher: hasher, log: l}
}

func (s *AuthService) WithMetrics(p *metrics.Prom) *AuthService {
	s.prom = p
	return s
}

func (s *AuthService) count(action string, err error) {
	if s.prom == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = domain.KindOf(err).String()
	}
	s.prom.Auth(action, result)
}

// Register 邮箱已注册返回 ErrUserExists（同时匹配 ErrDuplicateEmail）
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (out domain.PublicUser, err error) {
	ctx, span := tracing.Start(ctx, "AuthService.Register")
	defer span.End()
	defer func() { s.count("register", err) }()

	email := utils.NormalizeEmail(in.Email)
	log := logger.Ctx(ctx, s.log).With(zap.String("email", email))

	if len(in.Password) > utils.MaxPasswordBytes {
		return domain.PublicUser{}, domain.Validation("password must be at most 72 bytes")
	}

	_, err = s.users.FindCredentials(ctx, email)
	switch {
	case err == nil:
		log.Warn("register: user already exists")
		return domain.PublicUser{}, domain.ErrUserExists
	case !errors.Is(err, domain.ErrNotFound):
		log.Error("register: lookup failed", zap.Error(err))
		return domain.PublicUser{}, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		log.Error("register: hashing failed", zap.Error(err))
		return domain.PublicUser{}, err
	}

	out, err = s.users.Create(ctx, domain.NewUser{
		Name:         in.Name,
		Email:        email,
		PasswordHash: digest,
		Role:         in.Role,
	})
	if errors.Is(err, domain.ErrDuplicateEmail) {
		// 并发注册在预检之后抢先写入
		return domain.PublicUser{}, &domain.Error{Kind: domain.KindUserExists, Msg: domain.ErrUserExists.Msg, Err: err}
	}
	if err != nil {
		return domain.PublicUser{}, err
	}
	log.Info("user registered", zap.String("id", out.ID))
	return out, nil
}

// Authenticate 未知邮箱 ErrUserNotFound，摘要不匹配 ErrInvalidCredentials
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (out domain.PublicUser, err error) {
	ctx, span := tracing.Start(ctx, "AuthService.Authenticate")
	defer span.End()
	defer func() { s.count("login", err) }()

	email = utils.NormalizeEmail(email)
	log := logger.Ctx(ctx, s.log).With(zap.String("email", email))

	u, err := s.users.FindCredentials(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn("authenticate: user not found")
		return domain.PublicUser{}, domain.ErrUserNotFound
	}
	if err != nil {
		log.Error("authenticate: lookup failed", zap.Error(err))
		return domain.PublicUser{}, err
	}

	// 超长明文不可能是注册时存下的密码
	if len(password) > utils.MaxPasswordBytes {
		log.Warn("authenticate: password too long", zap.String("id", u.ID))
		return domain.PublicUser{}, domain.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		log.Error("authenticate: comparison failed", zap.String("id", u.ID), zap.Error(err))
		return domain.PublicUser{}, err
	}
	if !ok {
		log.Warn("authenticate: invalid password", zap.String("id", u.ID))
		return domain.PublicUser{}, domain.ErrInvalidCredentials
	}
	log.Info("user authenticated", zap.String("id", u.ID))
	return u.Public(), nil
}

// EnsureAdmin 启动时确保管理员账号存在且角色为 admin；已存在时不改密码
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (domain.PublicUser, bool, error) {
	u, err := s.users.FindCredentials(ctx, email)
	switch {
	case err == nil:
		if u.Role == domain.RoleAdmin {
			return u.Public(), false, nil
		}
		role := domain.RoleAdmin
		pu, err := s.users.Update(ctx, u.ID, domain.UserUpdate{Role: &role})
		return pu, false, err
	case !errors.Is(err, domain.ErrNotFound):
		return domain.PublicUser{}, false, err
	}

	pu, err := s.Register(ctx, RegisterInput{Name: name, Email: email, Password: password, Role: domain.RoleAdmin})
	if err != nil {
		return domain.PublicUser{}, false, err
	}
	return pu, true, nil
}
