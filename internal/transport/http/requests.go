package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"party-game-service/internal/domain"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type createGameRequest struct {
	Title       string            `json:"title" validate:"required,max=120"`
	Description string            `json:"description" validate:"max=2000"`
	Type        domain.GameType   `json:"type" validate:"required"`
	Config      domain.GameConfig `json:"config"`
	Settings    domain.Settings   `json:"settings"`
}

type updateGameRequest struct {
	Title       *string            `json:"title" validate:"omitempty,max=120"`
	Description *string            `json:"description" validate:"omitempty,max=2000"`
	Type        *domain.GameType   `json:"type"`
	Config      *domain.GameConfig `json:"config"`
	Settings    *domain.Settings   `json:"settings"`
}

type submissionRequest struct {
	Text           string          `json:"text" validate:"max=5000"`
	MediaURLs      []string        `json:"mediaUrls" validate:"max=10,dive,url"`
	Answers        []domain.Answer `json:"answers" validate:"max=200"`
	SelectedItemID string          `json:"selectedItemId"`
}

func (s submissionRequest) payload() domain.SubmissionPayload {
	return domain.SubmissionPayload{
		Text:           s.Text,
		MediaURLs:      s.MediaURLs,
		Answers:        s.Answers,
		SelectedItemID: s.SelectedItemID,
	}
}

type approveRequest struct {
	Points *int `json:"points" validate:"omitempty,min=0"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type flagRequest struct {
	Flagged *bool  `json:"flagged"`
	Reason  string `json:"reason" validate:"max=500"`
}

type bonusRequest struct {
	Points int    `json:"points" validate:"gt=0"`
	Reason string `json:"reason" validate:"required,max=500"`
}

// decodeBody reads a JSON body into dst and runs struct validation. An empty body
// decodes as the zero value.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return domain.NewValidationError("malformed request body",
			domain.FieldError{Field: "body", Message: err.Error()})
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidationError("invalid request", domain.FieldError{Field: "body", Message: err.Error()})
	}
	fields := make([]domain.FieldError, 0, len(verrs))
	for _, verr := range verrs {
		fields = append(fields, domain.FieldError{Field: fieldPath(verr), Message: fieldMessage(verr)})
	}
	return domain.NewValidationError("invalid request", fields...)
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(verr validator.FieldError) string {
	ns := verr.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return verr.Field()
}

func fieldMessage(verr validator.FieldError) string {
	switch verr.Tag() {
	case "required":
		return "is required"
	case "max":
		if verr.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s entries", verr.Param())
		}
		return fmt.Sprintf("must be at most %s characters", verr.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", verr.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", verr.Param())
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}
