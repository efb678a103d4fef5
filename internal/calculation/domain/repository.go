package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, calc *CostCalculation) error
	InsertDetails(ctx context.Context, db *gorm.DB, details []CostCalculationDetail) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CostCalculation, error)
	ListDetails(ctx context.Context, db *gorm.DB, calculationID snowflake.ID) ([]CostCalculationDetail, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*CostCalculation, error)

	// ReplaceDraft overwrites the computed fields of a draft still at expectedVersion.
	ReplaceDraft(ctx context.Context, db *gorm.DB, calc *CostCalculation, expectedVersion int) (int64, error)
	DeleteDetails(ctx context.Context, db *gorm.DB, calculationID snowflake.ID) error

	// ApplyTransition returns the number of rows changed. Zero means the precondition failed.
	ApplyTransition(ctx context.Context, db *gorm.DB, t Transition) (int64, error)
}
