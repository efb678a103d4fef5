package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/wac0705/fastenmind-system-sub000/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertCategory(ctx context.Context, db *gorm.DB, category *domain.Category) error {
	return db.WithContext(ctx).Create(category).Error
}

func (r *repo) FindCategoryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Category, error) {
	var category domain.Category
	err := db.WithContext(ctx).Where("id = ?", id).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repo) ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	var categories []domain.Category
	if err := db.WithContext(ctx).Order("sort_order asc, id asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repo) InsertEquipment(ctx context.Context, db *gorm.DB, equipment *domain.Equipment) error {
	return db.WithContext(ctx).Create(equipment).Error
}

func (r *repo) FindEquipmentByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Equipment, error) {
	var equipment domain.Equipment
	err := db.WithContext(ctx).Where("id = ?", id).First(&equipment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &equipment, nil
}

func (r *repo) FindEquipmentByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.Equipment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var equipment []domain.Equipment
	if err := db.WithContext(ctx).Where("id IN ?", ids).Order("id asc").Find(&equipment).Error; err != nil {
		return nil, err
	}
	return equipment, nil
}

func (r *repo) InsertStep(ctx context.Context, db *gorm.DB, step *domain.Step) error {
	return db.WithContext(ctx).Create(step).Error
}

func (r *repo) FindStepByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Step, error) {
	var step domain.Step
	err := db.WithContext(ctx).Where("id = ?", id).First(&step).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &step, nil
}

func (r *repo) FindStepsByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.Step, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var steps []domain.Step
	if err := db.WithContext(ctx).Where("id IN ?", ids).Order("id asc").Find(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}

func (r *repo) InsertRoute(ctx context.Context, db *gorm.DB, route *domain.Route) error {
	return db.WithContext(ctx).Create(route).Error
}

func (r *repo) InsertRouteDetails(ctx context.Context, db *gorm.DB, details []domain.RouteDetail) error {
	if len(details) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&details).Error
}

func (r *repo) FindRouteByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Route, error) {
	var route domain.Route
	err := db.WithContext(ctx).Where("id = ?", id).First(&route).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &route, nil
}

func (r *repo) ListRouteDetails(ctx context.Context, db *gorm.DB, routeID snowflake.ID) ([]domain.RouteDetail, error) {
	var details []domain.RouteDetail
	if err := db.WithContext(ctx).
		Where("route_id = ?", routeID).
		Order("sequence asc").
		Find(&details).Error; err != nil {
		return nil, err
	}
	return details, nil
}

// ListActiveRoutes returns active routes for a product category in catalog insertion order.
func (r *repo) ListActiveRoutes(ctx context.Context, db *gorm.DB, productCategory string) ([]domain.Route, error) {
	var routes []domain.Route
	if err := db.WithContext(ctx).
		Where("product_category = ? AND active = ?", productCategory, true).
		Order("created_at asc, id asc").
		Find(&routes).Error; err != nil {
		return nil, err
	}
	return routes, nil
}

func (r *repo) DeactivateRoute(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.Route{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]any{"active": false, "is_default": false})
	return result.RowsAffected, result.Error
}
