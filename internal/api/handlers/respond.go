package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	middleware "github.com/markdave123-py/csrdesk/internal/api/middlewares"
	"github.com/markdave123-py/csrdesk/internal/apperr"
	"github.com/markdave123-py/csrdesk/internal/i18n"
	"github.com/markdave123-py/csrdesk/internal/logger"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Responder writes JSON bodies and maps errors to localized responses.
type Responder struct {
	tr       *i18n.Translator
	log      *logger.Logger
	validate *validator.Validate
}

func NewResponder(tr *i18n.Translator, log *logger.Logger) *Responder {
	if log == nil {
		log = logger.Nop()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return &Responder{tr: tr, log: log.With("component", "http"), validate: v}
}

func (res *Responder) JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		res.log.Warn("encode response failed", "err", err)
	}
}

// Error writes err with the status carried by apperr; anything else is a 500
// whose cause is logged, not returned.
func (res *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	lang := middleware.RequestLanguage(r.Context())

	var ae *apperr.Error
	code, key := "internal", "ERROR_INTERNAL"
	if errors.As(err, &ae) && ae.Code != "" {
		code = ae.Code
		key = messageKey(ae.Code)
	}

	body := ErrorResponse{Error: code, Message: res.tr.T(key, lang, nil)}
	if status >= http.StatusInternalServerError && ae == nil {
		res.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		body.Detail = err.Error()
	}
	res.JSON(w, status, body)
}

func messageKey(code string) string {
	switch code {
	case apperr.CodeNotFound:
		return "ERROR_NOT_FOUND"
	case apperr.CodeValidation:
		return "ERROR_VALIDATION"
	case apperr.CodeExtraction:
		return "ERROR_EXTRACTION"
	case apperr.CodeUnauth:
		return "ERROR_UNAUTHORIZED"
	case apperr.CodeUpstream:
		return "ERROR_UPSTREAM"
	default:
		return "ERROR_INTERNAL"
	}
}

// Decode reads a JSON body into dst and validates it.
func (res *Responder) Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("body", err.Error())
	}
	return res.Validate(dst)
}

// Validate runs struct tag validation and converts the first failure into a
// validation error naming the field.
func (res *Responder) Validate(v any) error {
	err := res.validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return apperr.Validation(fe.Field(), describe(fe))
	}
	return apperr.Validation("body", err.Error())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "uuid", "uuid4":
		return "must be a uuid"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}
