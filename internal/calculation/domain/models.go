package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	costparameterdomain "github.com/wac0705/fastenmind-system-sub000/internal/costparameter/domain"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Terminal records never change again.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// RouteSource records how the route of a calculation was chosen.
type RouteSource string

const (
	RouteSourceExplicit RouteSource = "explicit"
	RouteSourceCustom   RouteSource = "custom"
	RouteSourceResolved RouteSource = "resolved"
)

// CostCalculation is the persisted result of one calculate request.
type CostCalculation struct {
	ID                snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CalculationNumber string       `json:"calculation_number" gorm:"type:text;not null;uniqueIndex:ux_cost_calculations_number"`

	ProductName     string  `json:"product_name" gorm:"type:text;not null"`
	ProductCategory string  `json:"product_category" gorm:"type:text;not null;index"`
	MaterialType    *string `json:"material_type,omitempty" gorm:"type:text"`
	SizeRange       *string `json:"size_range,omitempty" gorm:"type:text"`

	Quantity      int64               `json:"quantity" gorm:"not null"`
	MaterialCost  decimal.Decimal     `json:"material_cost" gorm:"not null"`
	ProcessCost   decimal.Decimal     `json:"process_cost" gorm:"not null"`
	OverheadCost  decimal.Decimal     `json:"overhead_cost" gorm:"not null"`
	TotalCost     decimal.Decimal     `json:"total_cost" gorm:"not null"`
	UnitCost      decimal.Decimal     `json:"unit_cost" gorm:"not null"`
	MarginPercent decimal.NullDecimal `json:"margin_percent" gorm:"type:text"`
	SellingPrice  decimal.Decimal     `json:"selling_price" gorm:"not null"`

	RouteID        *snowflake.ID                                     `json:"route_id,omitempty"`
	RouteSource    RouteSource                                       `json:"route_source" gorm:"type:text;not null"`
	RouteRule      string                                            `json:"route_rule,omitempty" gorm:"type:text"`
	ParametersAsOf time.Time                                         `json:"parameters_as_of" gorm:"not null"`
	Rates          datatypes.JSONType[costparameterdomain.Snapshot] `json:"rates"`

	Status              Status        `json:"status" gorm:"type:text;not null;index"`
	Version             int           `json:"version" gorm:"not null"`
	ParentCalculationID *snowflake.ID `json:"parent_calculation_id,omitempty"`

	RequestedBy     string     `json:"requested_by" gorm:"type:text;not null;index"`
	RequestedAt     time.Time  `json:"requested_at" gorm:"not null"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	ApprovedBy      *string    `json:"approved_by,omitempty" gorm:"type:text"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedBy      *string    `json:"rejected_by,omitempty" gorm:"type:text"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`

	Details []CostCalculationDetail `json:"details" gorm:"-"`
}

func (CostCalculation) TableName() string { return "cost_calculations" }

// CostCalculationDetail is one executed step's contribution.
type CostCalculationDetail struct {
	ID              snowflake.ID    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CalculationID   snowflake.ID    `json:"calculation_id" gorm:"not null;uniqueIndex:ux_cost_calculation_details_sequence,priority:1"`
	Sequence        int             `json:"sequence" gorm:"not null;uniqueIndex:ux_cost_calculation_details_sequence,priority:2"`
	StepID          snowflake.ID    `json:"step_id" gorm:"not null"`
	EquipmentID     snowflake.ID    `json:"equipment_id" gorm:"not null"`
	SetupMinutes    decimal.Decimal `json:"setup_minutes" gorm:"not null"`
	CycleSeconds    decimal.Decimal `json:"cycle_seconds" gorm:"not null"`
	TotalHours      decimal.Decimal `json:"total_hours" gorm:"not null"`
	YieldRate       decimal.Decimal `json:"yield_rate" gorm:"not null"`
	CumulativeYield decimal.Decimal `json:"cumulative_yield" gorm:"not null"`
	LaborCost       decimal.Decimal `json:"labor_cost" gorm:"not null"`
	EquipmentCost   decimal.Decimal `json:"equipment_cost" gorm:"not null"`
	ElectricityCost decimal.Decimal `json:"electricity_cost" gorm:"not null"`
	OtherCost       decimal.Decimal `json:"other_cost" gorm:"not null"`
	YieldLossCost   decimal.Decimal `json:"yield_loss_cost" gorm:"not null"`
	Subtotal        decimal.Decimal `json:"subtotal" gorm:"not null"`
	Notes           string          `json:"notes,omitempty" gorm:"type:text"`
}

func (CostCalculationDetail) TableName() string { return "cost_calculation_details" }

type ListFilter struct {
	Status          Status
	RequestedBy     string
	ProductCategory string
	CursorID        snowflake.ID
	Limit           int
}

// Transition is a conditional status change. It applies only while the row still has
// status From and version ExpectedVersion.
type Transition struct {
	ID              snowflake.ID
	From            Status
	To              Status
	ExpectedVersion int
	Fields          map[string]any
}
