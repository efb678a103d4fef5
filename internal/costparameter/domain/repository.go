package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, param *CostParameter) error
	ListByType(ctx context.Context, db *gorm.DB, parameterType ParameterType) ([]CostParameter, error)
	LockByType(ctx context.Context, db *gorm.DB, parameterType ParameterType) ([]CostParameter, error)
	ListByTypes(ctx context.Context, db *gorm.DB, types []ParameterType) ([]CostParameter, error)
}
