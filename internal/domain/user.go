package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// User 完整实体，PasswordHash 只在认证校验时使用
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicUser 对外投影（永不包含密码摘要）
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DeletedUser 删除后返回的最小投影
type DeletedUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (u User) Deleted() DeletedUser {
	return DeletedUser{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Role         Role
}

// UserUpdate nil 字段表示不修改
type UserUpdate struct {
	Name  *string
	Email *string
	Role  *Role
}

func (u UserUpdate) Empty() bool { return u.Name == nil && u.Email == nil && u.Role == nil }

type ListQuery struct {
	Offset int
	Limit  int
	Q      string // 按 email/name 模糊搜
}

type Page struct {
	Total int64        `json:"total"`
	Items []PublicUser `json:"items"`
}

// UserRepository 持久化协作者；所有错误都是 *Error
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	ListAll(ctx context.Context) ([]User, error)
	List(ctx context.Context, q ListQuery) ([]User, int64, error)
	Update(ctx context.Context, id string, upd UserUpdate, at time.Time) (*User, error)
	Delete(ctx context.Context, id string) (*User, error)
}
