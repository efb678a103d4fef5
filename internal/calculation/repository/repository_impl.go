package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/wac0705/fastenmind-system-sub000/internal/calculation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, calc *domain.CostCalculation) error {
	return db.WithContext(ctx).Create(calc).Error
}

func (r *repo) InsertDetails(ctx context.Context, db *gorm.DB, details []domain.CostCalculationDetail) error {
	if len(details) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&details).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.CostCalculation, error) {
	var calc domain.CostCalculation
	err := db.WithContext(ctx).Where("id = ?", id).First(&calc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &calc, nil
}

func (r *repo) ListDetails(ctx context.Context, db *gorm.DB, calculationID snowflake.ID) ([]domain.CostCalculationDetail, error) {
	var details []domain.CostCalculationDetail
	if err := db.WithContext(ctx).
		Where("calculation_id = ?", calculationID).
		Order("sequence asc").
		Find(&details).Error; err != nil {
		return nil, err
	}
	return details, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.CostCalculation, error) {
	var calcs []*domain.CostCalculation
	stmt := db.WithContext(ctx).Model(&domain.CostCalculation{})

	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.RequestedBy != "" {
		stmt = stmt.Where("requested_by = ?", filter.RequestedBy)
	}
	if filter.ProductCategory != "" {
		stmt = stmt.Where("product_category = ?", filter.ProductCategory)
	}
	if filter.CursorID != 0 {
		stmt = stmt.Where("id < ?", filter.CursorID)
	}

	stmt = stmt.Order("id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&calcs).Error; err != nil {
		return nil, err
	}
	return calcs, nil
}

func (r *repo) ReplaceDraft(ctx context.Context, db *gorm.DB, calc *domain.CostCalculation, expectedVersion int) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.CostCalculation{}).
		Where("id = ? AND status = ? AND version = ?", calc.ID, domain.StatusDraft, expectedVersion).
		Updates(map[string]any{
			"product_name":     calc.ProductName,
			"product_category": calc.ProductCategory,
			"material_type":    calc.MaterialType,
			"size_range":       calc.SizeRange,
			"quantity":         calc.Quantity,
			"material_cost":    calc.MaterialCost,
			"process_cost":     calc.ProcessCost,
			"overhead_cost":    calc.OverheadCost,
			"total_cost":       calc.TotalCost,
			"unit_cost":        calc.UnitCost,
			"margin_percent":   calc.MarginPercent,
			"selling_price":    calc.SellingPrice,
			"route_id":         calc.RouteID,
			"route_source":     calc.RouteSource,
			"route_rule":       calc.RouteRule,
			"parameters_as_of": calc.ParametersAsOf,
			"rates":            calc.Rates,
			"version":          expectedVersion + 1,
			"updated_at":       calc.UpdatedAt,
		})
	return result.RowsAffected, result.Error
}

func (r *repo) DeleteDetails(ctx context.Context, db *gorm.DB, calculationID snowflake.ID) error {
	return db.WithContext(ctx).
		Where("calculation_id = ?", calculationID).
		Delete(&domain.CostCalculationDetail{}).Error
}

func (r *repo) ApplyTransition(ctx context.Context, db *gorm.DB, t domain.Transition) (int64, error) {
	updates := map[string]any{
		"status":  t.To,
		"version": t.ExpectedVersion + 1,
	}
	for column, value := range t.Fields {
		updates[column] = value
	}

	result := db.WithContext(ctx).
		Model(&domain.CostCalculation{}).
		Where("id = ? AND status = ? AND version = ?", t.ID, t.From, t.ExpectedVersion).
		Updates(updates)
	return result.RowsAffected, result.Error
}
