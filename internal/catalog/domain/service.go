package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wac0705/fastenmind-system-sub000/internal/apperror"
)

type Service interface {
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)

	CreateEquipment(ctx context.Context, req CreateEquipmentRequest) (*Equipment, error)
	GetEquipment(ctx context.Context, id string) (*Equipment, error)

	CreateStep(ctx context.Context, req CreateStepRequest) (*Step, error)
	GetStep(ctx context.Context, id string) (*Step, error)

	CreateRoute(ctx context.Context, req CreateRouteRequest) (*Route, error)
	ReviseRoute(ctx context.Context, id string, req ReviseRouteRequest) (*Route, error)
	GetRoute(ctx context.Context, id string) (*Route, error)
	ListActiveRoutes(ctx context.Context, productCategory string) ([]Route, error)
	LoadRouteSnapshot(ctx context.Context, route Route) (*RouteSnapshot, error)
}

type CreateCategoryRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	SortOrder   int    `json:"sort_order"`
	Active      *bool  `json:"active"`
}

type CreateEquipmentRequest struct {
	CategoryID             string          `json:"category_id"`
	Code                   string          `json:"code"`
	Name                   string          `json:"name"`
	CapacityPerHour        decimal.Decimal `json:"capacity_per_hour"`
	PowerKW                decimal.Decimal `json:"power_kw"`
	DepreciationYears      int             `json:"depreciation_years"`
	PurchaseCost           decimal.Decimal `json:"purchase_cost"`
	MaintenanceCostPerYear decimal.Decimal `json:"maintenance_cost_per_year"`
	Location               string          `json:"location"`
	Active                 *bool           `json:"active"`
}

type CreateStepRequest struct {
	CategoryID         string          `json:"category_id"`
	DefaultEquipmentID string          `json:"default_equipment_id"`
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	SetupMinutes       decimal.Decimal `json:"setup_minutes"`
	CycleSeconds       decimal.Decimal `json:"cycle_seconds"`
	LaborRequired      decimal.Decimal `json:"labor_required"`
	SortOrder          int             `json:"sort_order"`
	Active             *bool           `json:"active"`
}

type RouteDetailInput struct {
	Sequence             int              `json:"sequence"`
	StepID               string           `json:"step_id"`
	EquipmentID          string           `json:"equipment_id"`
	SetupMinutesOverride *decimal.Decimal `json:"setup_minutes_override"`
	CycleSecondsOverride *decimal.Decimal `json:"cycle_seconds_override"`
	YieldRate            decimal.Decimal  `json:"yield_rate"`
	OtherCost            *decimal.Decimal `json:"other_cost"`
	Notes                string           `json:"notes"`
}

type CreateRouteRequest struct {
	ProductCategory string             `json:"product_category"`
	MaterialType    string             `json:"material_type"`
	SizeRange       string             `json:"size_range"`
	Name            string             `json:"name"`
	IsDefault       bool               `json:"is_default"`
	Details         []RouteDetailInput `json:"details"`
}

// ReviseRouteRequest replaces the details of a route. Empty name keeps the current one.
type ReviseRouteRequest struct {
	Name      string             `json:"name"`
	IsDefault *bool              `json:"is_default"`
	Details   []RouteDetailInput `json:"details"`
}

var (
	ErrInvalidID              = apperror.New(apperror.ErrValidation, "invalid_id")
	ErrInvalidCode            = apperror.New(apperror.ErrValidation, "invalid_code")
	ErrInvalidName            = apperror.New(apperror.ErrValidation, "invalid_name")
	ErrInvalidProductCategory = apperror.New(apperror.ErrValidation, "invalid_product_category")
	ErrInvalidAmount          = apperror.New(apperror.ErrValidation, "invalid_amount")
	ErrInvalidDepreciation    = apperror.New(apperror.ErrValidation, "invalid_depreciation_years")
	ErrInvalidLaborRequired   = apperror.New(apperror.ErrValidation, "invalid_labor_required")
	ErrInvalidRouteDetails    = apperror.New(apperror.ErrValidation, "invalid_route_details")
	ErrInvalidSequence        = apperror.New(apperror.ErrValidation, "invalid_sequence")
	ErrDuplicateSequence      = apperror.New(apperror.ErrValidation, "duplicate_sequence")
	ErrInvalidYieldRate       = apperror.New(apperror.ErrValidation, "invalid_yield_rate")
	ErrInvalidTimeOverride    = apperror.New(apperror.ErrValidation, "invalid_time_override")
	ErrInvalidEquipment       = apperror.New(apperror.ErrValidation, "invalid_equipment")
	ErrEquipmentCategory      = apperror.New(apperror.ErrValidation, "equipment_category_mismatch")

	ErrCategoryNotFound  = apperror.New(apperror.ErrNotFound, "category_not_found")
	ErrEquipmentNotFound = apperror.New(apperror.ErrNotFound, "equipment_not_found")
	ErrStepNotFound      = apperror.New(apperror.ErrNotFound, "step_not_found")
	ErrRouteNotFound     = apperror.New(apperror.ErrNotFound, "route_not_found")

	ErrDuplicateCode = apperror.New(apperror.ErrConflict, "duplicate_code")
	ErrRouteInactive = apperror.New(apperror.ErrConflict, "route_inactive")
)
