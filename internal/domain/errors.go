package domain

import "errors"

// Kind 错误种类（封闭集合），调用方用 KindOf / errors.Is 判别
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindDuplicateEmail
	KindUserExists
	KindNotFound
	KindUserNotFound
	KindInvalidCredentials
	KindHashing
	KindComparison
	KindPersistence
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindValidation:         "validation",
	KindDuplicateEmail:     "duplicate_email",
	KindUserExists:         "user_exists",
	KindNotFound:           "not_found",
	KindUserNotFound:       "user_not_found",
	KindInvalidCredentials: "invalid_credentials",
	KindHashing:            "hashing",
	KindComparison:         "comparison",
	KindPersistence:        "persistence",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// parent 细分种类归属的大类：UserExists ⊂ DuplicateEmail，UserNotFound ⊂ NotFound
func (k Kind) parent() Kind {
	switch k {
	case KindUserExists:
		return KindDuplicateEmail
	case KindUserNotFound:
		return KindNotFound
	default:
		return k
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is 按种类匹配，细分种类同时匹配其大类
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind || e.Kind.parent() == t.Kind
}

var (
	ErrValidation         = &Error{Kind: KindValidation, Msg: "validation failed"}
	ErrDuplicateEmail     = &Error{Kind: KindDuplicateEmail, Msg: "email already exists"}
	ErrUserExists         = &Error{Kind: KindUserExists, Msg: "user already exists"}
	ErrNotFound           = &Error{Kind: KindNotFound, Msg: "user not found"}
	ErrUserNotFound       = &Error{Kind: KindUserNotFound, Msg: "user not found"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Msg: "invalid credentials"}
	ErrHashing            = &Error{Kind: KindHashing, Msg: "error hashing"}
	ErrComparison         = &Error{Kind: KindComparison, Msg: "error comparing password"}
	ErrPersistence        = &Error{Kind: KindPersistence, Msg: "persistence failure"}
)

func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }

func Hashing(err error) error { return &Error{Kind: KindHashing, Msg: ErrHashing.Msg, Err: err} }

func Comparison(err error) error {
	return &Error{Kind: KindComparison, Msg: ErrComparison.Msg, Err: err}
}

// DuplicateEmail 保留底层约束冲突错误作为 cause
func DuplicateEmail(err error) error {
	return &Error{Kind: KindDuplicateEmail, Msg: ErrDuplicateEmail.Msg, Err: err}
}

func Persistence(msg string, err error) error {
	return &Error{Kind: KindPersistence, Msg: msg, Err: err}
}

// KindOf 非 *Error 一律视为 KindUnknown
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}
