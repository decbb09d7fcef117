package validators

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// TagSchemaCoordinate validates a GraphQL schema coordinate such as
// "Query", "Query.user" or "Query.user.id".
const TagSchemaCoordinate = "schemacoord"

var schemaCoordinatePattern = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*(\.[_A-Za-z][_0-9A-Za-z]*){0,2}$`)

// Validate is a type alias for validator.Validate.
type Validate = validator.Validate

// ValidationErrors is a type alias for validator.ValidationErrors.
type ValidationErrors = validator.ValidationErrors

// FieldError is a type alias for validator.FieldError.
type FieldError = validator.FieldError

// New creates a validator with the service's custom tags registered.
func New() *Validate {
	v := validator.New()
	_ = v.RegisterValidation(TagSchemaCoordinate, isSchemaCoordinate)
	return v
}

func isSchemaCoordinate(fl validator.FieldLevel) bool {
	return schemaCoordinatePattern.MatchString(fl.Field().String())
}
