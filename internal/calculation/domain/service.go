package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wac0705/fastenmind-system-sub000/internal/apperror"
	catalogdomain "github.com/wac0705/fastenmind-system-sub000/internal/catalog/domain"
	"github.com/wac0705/fastenmind-system-sub000/pkg/db/pagination"
)

type Service interface {
	Calculate(ctx context.Context, req CalculateRequest) (*CostCalculation, error)
	Recalculate(ctx context.Context, id string, req CalculateRequest) (*CostCalculation, error)
	Get(ctx context.Context, id string) (*CostCalculation, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Submit(ctx context.Context, id string) (*CostCalculation, error)
	Approve(ctx context.Context, id string) (*CostCalculation, error)
	Reject(ctx context.Context, id string, reason string) (*CostCalculation, error)
	Revise(ctx context.Context, id string) (*CostCalculation, error)
}

type ProductSpec struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	MaterialType string `json:"material_type"`
	SizeRange    string `json:"size_range"`
}

// CalculateRequest selects its route by RouteID, else CustomRoute, else the resolver.
type CalculateRequest struct {
	Product        ProductSpec                      `json:"product"`
	Quantity       int64                            `json:"quantity"`
	MaterialCost   decimal.Decimal                  `json:"material_cost"`
	RouteID        string                           `json:"route_id"`
	CustomRoute    []catalogdomain.RouteDetailInput `json:"custom_route"`
	MarginPercent  *decimal.Decimal                 `json:"margin_percent"`
	ParametersAsOf *time.Time                       `json:"parameters_as_of"`
}

type ListRequest struct {
	pagination.Pagination
	Status          string `form:"status"`
	RequestedBy     string `form:"requested_by"`
	ProductCategory string `form:"product_category"`
}

type ListResponse struct {
	pagination.PageInfo
	Calculations []CostCalculation `json:"calculations"`
}

var (
	ErrInvalidID              = apperror.New(apperror.ErrValidation, "invalid_id")
	ErrInvalidProductName     = apperror.New(apperror.ErrValidation, "invalid_product_name")
	ErrInvalidProductCategory = apperror.New(apperror.ErrValidation, "invalid_product_category")
	ErrInvalidStatus          = apperror.New(apperror.ErrValidation, "invalid_status")
	ErrInvalidPageToken       = apperror.New(apperror.ErrValidation, "invalid_page_token")

	ErrMissingActor = apperror.New(apperror.ErrUnauthorized, "missing_actor")
	ErrNotRequester = apperror.New(apperror.ErrForbidden, "not_calculation_requester")

	ErrCalculationNotFound = apperror.New(apperror.ErrNotFound, "calculation_not_found")

	ErrStatusConflict = apperror.New(apperror.ErrConflict, "status_conflict")
	ErrSelfApproval   = apperror.New(apperror.ErrConflict, "self_approval_not_allowed")
)
