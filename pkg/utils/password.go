package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"acquisitions/internal/domain"
)

// PasswordCost 固定 bcrypt 成本因子
const PasswordCost = 10

// MaxPasswordBytes bcrypt 只接受 72 字节以内的明文（按字节，不是字符）
const MaxPasswordBytes = 72

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hashed string) (bool, error)
}

type BcryptHasher struct{ cost int }

func NewBcryptHasher() *BcryptHasher { return &BcryptHasher{cost: PasswordCost} }

// Hash 失败返回 Hashing 错误，不降级
func (h *BcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", domain.Hashing(err)
	}
	return string(b), nil
}

// Verify 不匹配返回 false；摘要损坏等原语错误返回 Comparison 错误
func (h *BcryptHasher) Verify(plain, hashed string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, domain.Comparison(err)
	}
}
