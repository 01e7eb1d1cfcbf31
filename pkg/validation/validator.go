package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate
)

func init() {
	validate = validator.New()
}

// CallParties are the identifiers a call row must carry to be usable
type CallParties struct {
	SourceID      string `validate:"required"`
	DestinationID string `validate:"required"`
}

// PingKeys are the identifiers a tower ping row must carry to be usable
type PingKeys struct {
	SubjectID string `validate:"required"`
	CellID    string `validate:"required"`
}

// TowerRow is one raw row of a tower location table
type TowerRow struct {
	CellID    string `validate:"required"`
	Latitude  string `validate:"required,latitude"`
	Longitude string `validate:"required,longitude"`
}

// ValidateCallParties validates the parties of a call row
func ValidateCallParties(p *CallParties) error {
	if p == nil {
		return errors.New("call parties cannot be nil")
	}
	return formatValidationError(validate.Struct(p))
}

// ValidatePingKeys validates the keys of a tower ping row
func ValidatePingKeys(k *PingKeys) error {
	if k == nil {
		return errors.New("ping keys cannot be nil")
	}
	return formatValidationError(validate.Struct(k))
}

// ValidateTowerRow validates a tower location row
func ValidateTowerRow(r *TowerRow) error {
	if r == nil {
		return errors.New("tower row cannot be nil")
	}
	return formatValidationError(validate.Struct(r))
}

// IsIP reports whether s is an IPv4 or IPv6 literal
func IsIP(s string) bool {
	return s != "" && validate.Var(s, "ip") == nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "latitude":
			return fmt.Errorf("%s: %q is not a latitude", field, e.Value())
		case "longitude":
			return fmt.Errorf("%s: %q is not a longitude", field, e.Value())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
