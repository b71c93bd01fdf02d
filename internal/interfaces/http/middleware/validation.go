package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopadmin/backend/internal/interfaces/http/dto"
)

// SetupValidator makes validation errors name fields by their JSON tag
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
	}
}

// FormatValidationErrors formats binding errors into a standard response.
// A type mismatch yields one detail naming the field; unparsable JSON gets ERR_INVALID_JSON.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &validationErrors):
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   fieldPath(e),
				Message: getValidationMessage(e),
			})
		}
	case errors.As(err, &typeErr):
		details = append(details, dto.ValidationDetail{
			Field:   typeErr.Field,
			Message: "Must be of type " + typeErr.Type.String(),
		})
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidJSON, "Request body is not valid JSON", requestID)
	}

	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError returns a validation error response
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

// fieldPath drops the struct name from the namespace, "ActionRequest.values[2]" -> "values[2]"
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func getValidationMessage(e validator.FieldError) string {
	isString := e.Kind() == reflect.String
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if isString {
			return "Must be at least " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must contain at least " + e.Param() + " items"
		}
		return "Must be at least " + e.Param()
	case "max":
		if isString {
			return "Must be at most " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must contain at most " + e.Param() + " items"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	default:
		return "Invalid value"
	}
}
