package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wac0705/fastenmind-system-sub000/internal/apperror"
)

var (
	ErrInvalidParameterType = apperror.New(apperror.ErrValidation, "invalid_parameter_type")
	ErrInvalidValue         = apperror.New(apperror.ErrValidation, "invalid_value")
	ErrInvalidUnit          = apperror.New(apperror.ErrValidation, "invalid_unit")
	ErrInvalidDateRange     = apperror.New(apperror.ErrValidation, "invalid_date_range")
	ErrParameterOverlap     = apperror.New(apperror.ErrConflict, "parameter_overlap")
	ErrMissingParameter     = apperror.New(apperror.ErrNotFound, "missing_cost_parameter")
	ErrImplausibleRate      = apperror.New(apperror.ErrConfiguration, "implausible_rate")
)

// MissingParameterError names the parameter type with no value at the requested instant.
type MissingParameterError struct {
	Type ParameterType
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing_cost_parameter: %s", e.Type)
}

func (e *MissingParameterError) ErrorCode() string { return "missing_cost_parameter" }

func (e *MissingParameterError) Unwrap() error { return ErrMissingParameter }

// ImplausibleRateError reports a resolved rate outside its configured bounds.
type ImplausibleRateError struct {
	Type  ParameterType
	Value decimal.Decimal
}

func (e *ImplausibleRateError) Error() string {
	return fmt.Sprintf("implausible_rate: %s=%s", e.Type, e.Value.String())
}

func (e *ImplausibleRateError) ErrorCode() string { return "implausible_rate" }

func (e *ImplausibleRateError) Unwrap() error { return ErrImplausibleRate }
