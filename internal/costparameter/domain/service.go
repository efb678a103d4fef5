package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*CostParameter, error)
	List(ctx context.Context, parameterType string) ([]CostParameter, error)
	ResolveAt(ctx context.Context, parameterType string, at time.Time) (*CostParameter, error)
	Snapshot(ctx context.Context, at time.Time) (Snapshot, error)
}

type CreateRequest struct {
	ParameterType string          `json:"parameter_type"`
	Value         decimal.Decimal `json:"value"`
	Unit          string          `json:"unit"`
	Description   string          `json:"description"`
	EffectiveDate time.Time       `json:"effective_date"`
	EndDate       *time.Time      `json:"end_date"`
}
