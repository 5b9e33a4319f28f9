package server

import (
	"bytes"
	"encoding/json"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/trialdesk-dev/trialdesk/internal/models"
)

func newValidator() *validator.Validate {
	validate := validator.New()

	validate.RegisterValidation("project_status", func(fl validator.FieldLevel) bool {
		return slices.Contains(models.ProjectStatuses, fl.Field().String())
	})

	// json_object accepts raw JSON whose top-level value is an object
	validate.RegisterValidation("json_object", func(fl validator.FieldLevel) bool {
		raw := bytes.TrimSpace(fl.Field().Bytes())
		return len(raw) > 0 && raw[0] == '{' && json.Valid(raw)
	})

	return validate
}
