package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertCategory(ctx context.Context, db *gorm.DB, category *Category) error
	FindCategoryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Category, error)
	ListCategories(ctx context.Context, db *gorm.DB) ([]Category, error)

	InsertEquipment(ctx context.Context, db *gorm.DB, equipment *Equipment) error
	FindEquipmentByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Equipment, error)
	FindEquipmentByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Equipment, error)

	InsertStep(ctx context.Context, db *gorm.DB, step *Step) error
	FindStepByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Step, error)
	FindStepsByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Step, error)

	InsertRoute(ctx context.Context, db *gorm.DB, route *Route) error
	InsertRouteDetails(ctx context.Context, db *gorm.DB, details []RouteDetail) error
	FindRouteByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Route, error)
	ListRouteDetails(ctx context.Context, db *gorm.DB, routeID snowflake.ID) ([]RouteDetail, error)
	ListActiveRoutes(ctx context.Context, db *gorm.DB, productCategory string) ([]Route, error)
	DeactivateRoute(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
}
