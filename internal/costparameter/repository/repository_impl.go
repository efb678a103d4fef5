package repository

import (
	"context"

	"github.com/wac0705/fastenmind-system-sub000/internal/costparameter/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, param *domain.CostParameter) error {
	return db.WithContext(ctx).Create(param).Error
}

func (r *repo) ListByType(ctx context.Context, db *gorm.DB, parameterType domain.ParameterType) ([]domain.CostParameter, error) {
	var params []domain.CostParameter
	if err := db.WithContext(ctx).
		Where("parameter_type = ?", parameterType).
		Order("effective_date asc, id asc").
		Find(&params).Error; err != nil {
		return nil, err
	}
	return params, nil
}

// LockByType reads the rows of one type with FOR UPDATE. Dialects without row locks ignore the clause.
func (r *repo) LockByType(ctx context.Context, db *gorm.DB, parameterType domain.ParameterType) ([]domain.CostParameter, error) {
	var params []domain.CostParameter
	if err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("parameter_type = ?", parameterType).
		Order("effective_date asc, id asc").
		Find(&params).Error; err != nil {
		return nil, err
	}
	return params, nil
}

func (r *repo) ListByTypes(ctx context.Context, db *gorm.DB, types []domain.ParameterType) ([]domain.CostParameter, error) {
	if len(types) == 0 {
		return nil, nil
	}
	var params []domain.CostParameter
	if err := db.WithContext(ctx).
		Where("parameter_type IN ?", types).
		Order("parameter_type asc, effective_date asc, id asc").
		Find(&params).Error; err != nil {
		return nil, err
	}
	return params, nil
}
