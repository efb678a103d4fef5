package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Category groups manufacturing operations such as forming, heat treatment or plating.
type Category struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Code        string       `json:"code" gorm:"type:text;not null;uniqueIndex:ux_process_categories_code"`
	Name        string       `json:"name" gorm:"type:text;not null"`
	DisplayName string       `json:"display_name,omitempty" gorm:"type:text"`
	SortOrder   int          `json:"sort_order" gorm:"not null"`
	Active      bool         `json:"active" gorm:"not null"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null"`
}

func (Category) TableName() string { return "process_categories" }

// Equipment is a physical resource attached to exactly one category.
// Its hourly cost is derived by the costing engine and never stored.
type Equipment struct {
	ID                     snowflake.ID    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CategoryID             snowflake.ID    `json:"category_id" gorm:"not null;index"`
	Code                   string          `json:"code" gorm:"type:text;not null;uniqueIndex:ux_equipment_code"`
	Name                   string          `json:"name" gorm:"type:text;not null"`
	CapacityPerHour        decimal.Decimal `json:"capacity_per_hour" gorm:"not null"`
	PowerKW                decimal.Decimal `json:"power_kw" gorm:"column:power_kw;not null"`
	DepreciationYears      int             `json:"depreciation_years" gorm:"not null"`
	PurchaseCost           decimal.Decimal `json:"purchase_cost" gorm:"not null"`
	MaintenanceCostPerYear decimal.Decimal `json:"maintenance_cost_per_year" gorm:"not null"`
	Location               string          `json:"location,omitempty" gorm:"type:text"`
	Active                 bool            `json:"active" gorm:"not null"`
	CreatedAt              time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt              time.Time       `json:"updated_at" gorm:"not null"`
}

func (Equipment) TableName() string { return "equipment" }

// Step is an operation template within a category.
type Step struct {
	ID                 snowflake.ID    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CategoryID         snowflake.ID    `json:"category_id" gorm:"not null;index"`
	DefaultEquipmentID *snowflake.ID   `json:"default_equipment_id,omitempty"`
	Code               string          `json:"code" gorm:"type:text;not null;uniqueIndex:ux_process_steps_code"`
	Name               string          `json:"name" gorm:"type:text;not null"`
	SetupMinutes       decimal.Decimal `json:"setup_minutes" gorm:"not null"`
	CycleSeconds       decimal.Decimal `json:"cycle_seconds" gorm:"not null"`
	LaborRequired      decimal.Decimal `json:"labor_required" gorm:"not null"`
	SortOrder          int             `json:"sort_order" gorm:"not null"`
	Active             bool            `json:"active" gorm:"not null"`
	CreatedAt          time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt          time.Time       `json:"updated_at" gorm:"not null"`
}

func (Step) TableName() string { return "process_steps" }

// Route is a named, versioned bill of operations for a product profile.
type Route struct {
	ID              snowflake.ID  `json:"id" gorm:"primaryKey;autoIncrement:false"`
	ProductCategory string        `json:"product_category" gorm:"type:text;not null;index"`
	MaterialType    *string       `json:"material_type,omitempty" gorm:"type:text"`
	SizeRange       *string       `json:"size_range,omitempty" gorm:"type:text"`
	Name            string        `json:"name" gorm:"type:text;not null"`
	Version         int           `json:"version" gorm:"not null"`
	PreviousRouteID *snowflake.ID `json:"previous_route_id,omitempty"`
	IsDefault       bool          `json:"is_default" gorm:"not null"`
	Active          bool          `json:"active" gorm:"not null"`
	CreatedAt       time.Time     `json:"created_at" gorm:"not null"`
	UpdatedAt       time.Time     `json:"updated_at" gorm:"not null"`

	Details []RouteDetail `json:"details" gorm:"-"`
}

func (Route) TableName() string { return "product_process_routes" }

// RouteDetail is one step of a route. Sequence defines execution order.
type RouteDetail struct {
	ID                   snowflake.ID        `json:"id" gorm:"primaryKey;autoIncrement:false"`
	RouteID              snowflake.ID        `json:"route_id" gorm:"not null;uniqueIndex:ux_process_route_details_sequence,priority:1"`
	Sequence             int                 `json:"sequence" gorm:"not null;uniqueIndex:ux_process_route_details_sequence,priority:2"`
	StepID               snowflake.ID        `json:"step_id" gorm:"not null"`
	EquipmentID          snowflake.ID        `json:"equipment_id" gorm:"not null"`
	SetupMinutesOverride decimal.NullDecimal `json:"setup_minutes_override" gorm:"type:text"`
	CycleSecondsOverride decimal.NullDecimal `json:"cycle_seconds_override" gorm:"type:text"`
	YieldRate            decimal.Decimal     `json:"yield_rate" gorm:"not null"`
	OtherCost            decimal.Decimal     `json:"other_cost" gorm:"not null"`
	Notes                string              `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt            time.Time           `json:"created_at" gorm:"not null"`
}

func (RouteDetail) TableName() string { return "process_route_details" }

// RouteSnapshot is a route together with every step and equipment its details reference.
type RouteSnapshot struct {
	Route     Route
	Steps     map[snowflake.ID]Step
	Equipment map[snowflake.ID]Equipment
}
