package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// messages by validator tag; %[1]s is the field, %[2]s the tag param.
var messages = map[string]string{
	"required": "%[1]s is required",
	"oneof":    "%[1]s must be one of: %[2]s",
	"gt":       "%[1]s must be greater than %[2]s",
	"gte":      "%[1]s must be greater than or equal to %[2]s",
	"lt":       "%[1]s must be less than %[2]s",
	"lte":      "%[1]s must be less than or equal to %[2]s",
}

// ReadAndValidateRequest binds the request, applies `default` tags, then
// validates. It returns nil or a []ValidationError.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg = fmt.Sprint(he.Message)
		}
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: msg}}
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		tmpl, ok := messages[fe.Tag()]
		if !ok {
			tmpl = "%[1]s failed validation: " + fe.Tag()
		}
		param := fe.Param()
		if fe.Tag() == "oneof" {
			param = strings.ReplaceAll(param, " ", ", ")
		}
		ve := ValidationError{
			Code:    "ERR_" + strings.ToUpper(fe.Tag()),
			Field:   fe.Field(),
			Message: fmt.Sprintf(tmpl, fe.Field(), param),
		}
		if fe.Param() != "" {
			ve.Params = map[string]interface{}{"value": fe.Param()}
		}
		out = append(out, ve)
	}
	return out
}
