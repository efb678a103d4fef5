package costing

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/wac0705/fastenmind-system-sub000/internal/apperror"
)

var (
	ErrInvalidQuantity     = apperror.New(apperror.ErrValidation, "invalid_quantity")
	ErrInvalidMaterialCost = apperror.New(apperror.ErrValidation, "invalid_material_cost")
	ErrInvalidMargin       = apperror.New(apperror.ErrValidation, "invalid_margin")
	ErrEmptyRoute          = apperror.New(apperror.ErrConfiguration, "empty_route")
	ErrInvalidDepreciation = apperror.New(apperror.ErrConfiguration, "invalid_equipment_depreciation")
	ErrInvalidYieldRate    = apperror.New(apperror.ErrConfiguration, "invalid_yield_rate")
	ErrInactiveReference   = apperror.New(apperror.ErrConfiguration, "inactive_route_reference")
)

type ReferenceKind string

const (
	ReferenceStep      ReferenceKind = "process_step"
	ReferenceEquipment ReferenceKind = "equipment"
)

// InactiveReferenceError names the inactive step or equipment reached from a route.
type InactiveReferenceError struct {
	Kind ReferenceKind
	ID   snowflake.ID
	Code string
}

func (e *InactiveReferenceError) Error() string {
	return fmt.Sprintf("inactive_route_reference: %s %s (%s)", e.Kind, e.ID.String(), e.Code)
}

func (e *InactiveReferenceError) ErrorCode() string { return "inactive_route_reference" }

func (e *InactiveReferenceError) Unwrap() error { return ErrInactiveReference }
