package ez

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"acquisitions/internal/domain"
	resp "acquisitions/internal/transport/http/response"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var setupOnce sync.Once

// SetupValidator 字段名取 json tag，并注册 role 校验；重复调用无副作用
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" {
				name = strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			}
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return domain.Role(fl.Field().String()).IsValid()
		})
	})
}

func bindFailure(err error) (int, resp.Resp) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge, resp.Error(resp.CodeTooLarge, "request body too large")
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		details := make([]FieldError, 0, len(ves))
		msgs := make([]string, 0, len(ves))
		for _, fe := range ves {
			d := FieldError{Field: fe.Field(), Message: fieldMessage(fe)}
			details = append(details, d)
			msgs = append(msgs, d.Message)
		}
		return http.StatusBadRequest, resp.ErrorWith(resp.CodeBadRequest, strings.Join(msgs, ", "), map[string]any{"details": details})
	}

	var se *json.SyntaxError
	var te *json.UnmarshalTypeError
	switch {
	case errors.As(err, &se), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest, resp.Error(resp.CodeBadRequest, "malformed JSON body")
	case errors.As(err, &te):
		return http.StatusBadRequest, resp.Error(resp.CodeBadRequest, te.Field+" has the wrong type")
	}
	return http.StatusBadRequest, resp.Error(resp.CodeBadRequest, "Validation fails")
}

func fieldMessage(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "email":
		return f + " must be a valid email"
	case "min":
		return f + " must be at least " + fe.Param() + unit(fe)
	case "max":
		return f + " must be at most " + fe.Param() + unit(fe)
	case "oneof", "role":
		return f + " must be one of user, admin"
	default:
		return f + " is invalid"
	}
}

func unit(fe validator.FieldError) string {
	if fe.Kind() == reflect.String {
		return " characters"
	}
	return ""
}
