package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type ParameterType string

const (
	ParameterTypeLabor       ParameterType = "labor"
	ParameterTypeElectricity ParameterType = "electricity"
	ParameterTypeLand        ParameterType = "land"
	ParameterTypeOverhead    ParameterType = "overhead"
)

// RequiredTypes must resolve for every calculation.
var RequiredTypes = []ParameterType{
	ParameterTypeLabor,
	ParameterTypeElectricity,
	ParameterTypeOverhead,
}

func (t ParameterType) Valid() bool {
	switch t {
	case ParameterTypeLabor, ParameterTypeElectricity, ParameterTypeLand, ParameterTypeOverhead:
		return true
	default:
		return false
	}
}

// CostParameter is a scalar rate valid over [EffectiveDate, EndDate). A nil EndDate is open-ended.
type CostParameter struct {
	ID            snowflake.ID    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	ParameterType ParameterType   `json:"parameter_type" gorm:"type:text;not null;index:idx_cost_parameters_type_effective,priority:1"`
	Value         decimal.Decimal `json:"value" gorm:"not null"`
	Unit          string          `json:"unit" gorm:"type:text;not null"`
	Description   string          `json:"description,omitempty" gorm:"type:text"`
	EffectiveDate time.Time       `json:"effective_date" gorm:"not null;index:idx_cost_parameters_type_effective,priority:2"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
	CreatedAt     time.Time       `json:"created_at" gorm:"not null"`
}

func (CostParameter) TableName() string { return "cost_parameters" }

// EffectiveAt reports whether at falls inside the half-open validity interval.
func (p CostParameter) EffectiveAt(at time.Time) bool {
	if at.Before(p.EffectiveDate) {
		return false
	}
	return p.EndDate == nil || at.Before(*p.EndDate)
}

// Overlaps reports whether two validity intervals share any instant.
func (p CostParameter) Overlaps(other CostParameter) bool {
	if p.EndDate != nil && !other.EffectiveDate.Before(*p.EndDate) {
		return false
	}
	if other.EndDate != nil && !p.EffectiveDate.Before(*other.EndDate) {
		return false
	}
	return true
}

// ResolvedRate is the value of one parameter type at a snapshot instant.
type ResolvedRate struct {
	ParameterID   snowflake.ID    `json:"parameter_id"`
	ParameterType ParameterType   `json:"parameter_type"`
	Value         decimal.Decimal `json:"value"`
	Unit          string          `json:"unit"`
}

// Snapshot holds every rate a calculation uses, resolved for one instant.
type Snapshot struct {
	AsOf        time.Time     `json:"as_of"`
	Labor       ResolvedRate  `json:"labor"`
	Electricity ResolvedRate  `json:"electricity"`
	Overhead    ResolvedRate  `json:"overhead"`
	Land        *ResolvedRate `json:"land,omitempty"`
}
