package repo

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"acquisitions/internal/core/metrics"
	"acquisitions/internal/domain"
	"acquisitions/internal/feature/user"
)

type UserRepo struct {
	db   *gorm.DB
	prom *metrics.Prom
}

var _ domain.UserRepository = (*UserRepo)(nil)

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

// WithMetrics 打开 DB 耗时/错误指标
func (r *UserRepo) WithMetrics(p *metrics.Prom) *UserRepo {
	r.prom = p
	return r
}

func (r *UserRepo) observe(op string, fn func() error) error {
	if r.prom == nil {
		return fn()
	}
	return r.prom.ObserveDB(op, fn)
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	m := user.FromDomain(u)
	err := r.observe("user.create", func() error {
		return r.db.WithContext(ctx).Create(m).Error
	})
	if err != nil {
		if isDupKey(err) {
			return domain.DuplicateEmail(err)
		}
		return domain.Persistence("create user", errors.WithStack(err))
	}
	*u = *m.ToDomain()
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var m user.UserModel
	err := r.observe("user.find_by_id", func() error {
		return r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	})
	if err != nil {
		return nil, mapFindErr("find user by id", err)
	}
	return m.ToDomain(), nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m user.UserModel
	err := r.observe("user.find_by_email", func() error {
		return r.db.WithContext(ctx).First(&m, "email = ?", email).Error
	})
	if err != nil {
		return nil, mapFindErr("find user by email", err)
	}
	return m.ToDomain(), nil
}

// EmailTaken excludeID 非空时排除该用户自身
func (r *UserRepo) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	var n int64
	err := r.observe("user.email_taken", func() error {
		q := r.db.WithContext(ctx).Model(&user.UserModel{}).Where("email = ?", email)
		if excludeID != "" {
			q = q.Where("id <> ?", excludeID)
		}
		return q.Count(&n).Error
	})
	if err != nil {
		return false, domain.Persistence("check email", errors.WithStack(err))
	}
	return n > 0, nil
}

func (r *UserRepo) ListAll(ctx context.Context) ([]domain.User, error) {
	var ms []user.UserModel
	err := r.observe("user.list_all", func() error {
		return r.db.WithContext(ctx).Order("created_at ASC").Find(&ms).Error
	})
	if err != nil {
		return nil, domain.Persistence("list users", errors.WithStack(err))
	}
	return toDomain(ms), nil
}

func (r *UserRepo) List(ctx context.Context, lq domain.ListQuery) ([]domain.User, int64, error) {
	var (
		ms    []user.UserModel
		total int64
	)
	err := r.observe("user.list", func() error {
		q := r.db.WithContext(ctx).Model(&user.UserModel{})
		if s := strings.ToLower(strings.TrimSpace(lq.Q)); s != "" {
			like := "%" + s + "%"
			q = q.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like)
		}
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return q.Order("created_at DESC").Order("id").Limit(lq.Limit).Offset(lq.Offset).Find(&ms).Error
	})
	if err != nil {
		return nil, 0, domain.Persistence("list users", errors.WithStack(err))
	}
	return toDomain(ms), total, nil
}

// Update 单事务内：确认存在、写入变更字段与 updated_at、回读
func (r *UserRepo) Update(ctx context.Context, id string, upd domain.UserUpdate, at time.Time) (*domain.User, error) {
	var out user.UserModel
	err := r.observe("user.update", func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&out, "id = ?", id).Error; err != nil {
				return err
			}
			cols := map[string]interface{}{"updated_at": at}
			if upd.Name != nil {
				cols["name"] = *upd.Name
			}
			if upd.Email != nil {
				cols["email"] = *upd.Email
			}
			if upd.Role != nil {
				cols["role"] = string(*upd.Role)
			}
			if err := tx.Model(&user.UserModel{}).Where("id = ?", id).Updates(cols).Error; err != nil {
				return err
			}
			return tx.First(&out, "id = ?", id).Error
		})
	})
	if err != nil {
		if isDupKey(err) {
			return nil, domain.DuplicateEmail(err)
		}
		return nil, mapFindErr("update user", err)
	}
	return out.ToDomain(), nil
}

// Delete 物理删除，返回删除前的记录
func (r *UserRepo) Delete(ctx context.Context, id string) (*domain.User, error) {
	var m user.UserModel
	err := r.observe("user.delete", func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&m, "id = ?", id).Error; err != nil {
				return err
			}
			res := tx.Where("id = ?", id).Delete(&user.UserModel{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
			return nil
		})
	})
	if err != nil {
		return nil, mapFindErr("delete user", err)
	}
	return m.ToDomain(), nil
}

func mapFindErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return domain.Persistence(op, errors.WithStack(err))
}

func toDomain(ms []user.UserModel) []domain.User {
	out := make([]domain.User, 0, len(ms))
	for i := range ms {
		out = append(out, *ms[i].ToDomain())
	}
	return out
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// 驱动未实现错误翻译时按文本兜底
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
