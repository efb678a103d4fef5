// Package costing turns a resolved route, a quantity and a rate snapshot into a cost breakdown.
//
// The engine performs no I/O. Identical inputs always produce identical results.
package costing

import (
	"sort"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/wac0705/fastenmind-system-sub000/internal/catalog/domain"
)

// StandardAnnualHours is the operating hours per year used to spread equipment cost
// (8 hours over 250 working days).
const StandardAnnualHours = 2000

const (
	// MoneyPlaces is the rounding unit of every monetary component.
	MoneyPlaces = 2
	// UnitCostPlaces is the minimum precision of unit cost. Larger quantities get more places.
	UnitCostPlaces = 10
	// HourPlaces is the precision of recorded step hours. Costs use unrounded hours.
	HourPlaces = 6
)

var (
	sixty        = decimal.NewFromInt(60)
	secondsInOne = decimal.NewFromInt(3600)
	hundred      = decimal.NewFromInt(100)
	annualHours  = decimal.NewFromInt(StandardAnnualHours)
)

// Detail is one route step joined with the step template and the equipment it runs on.
type Detail struct {
	Sequence             int
	Step                 catalogdomain.Step
	Equipment            catalogdomain.Equipment
	SetupMinutesOverride decimal.NullDecimal
	CycleSecondsOverride decimal.NullDecimal
	YieldRate            decimal.Decimal
	OtherCost            decimal.Decimal
	Notes                string
}

type Rates struct {
	Labor       decimal.Decimal
	Electricity decimal.Decimal
	Overhead    decimal.Decimal
}

type Input struct {
	Quantity      int64
	MaterialCost  decimal.Decimal
	Details       []Detail
	Rates         Rates
	MarginPercent *decimal.Decimal
}

// StepCost is the contribution of one executed step.
type StepCost struct {
	Sequence        int             `json:"sequence"`
	StepID          snowflake.ID    `json:"step_id"`
	EquipmentID     snowflake.ID    `json:"equipment_id"`
	SetupMinutes    decimal.Decimal `json:"setup_minutes"`
	CycleSeconds    decimal.Decimal `json:"cycle_seconds"`
	TotalHours      decimal.Decimal `json:"total_hours"`
	YieldRate       decimal.Decimal `json:"yield_rate"`
	CumulativeYield decimal.Decimal `json:"cumulative_yield"`
	LaborCost       decimal.Decimal `json:"labor_cost"`
	EquipmentCost   decimal.Decimal `json:"equipment_cost"`
	ElectricityCost decimal.Decimal `json:"electricity_cost"`
	OtherCost       decimal.Decimal `json:"other_cost"`
	YieldLossCost   decimal.Decimal `json:"yield_loss_cost"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Notes           string          `json:"notes,omitempty"`
}

type Result struct {
	Quantity      int64            `json:"quantity"`
	MaterialCost  decimal.Decimal  `json:"material_cost"`
	ProcessCost   decimal.Decimal  `json:"process_cost"`
	OverheadCost  decimal.Decimal  `json:"overhead_cost"`
	TotalCost     decimal.Decimal  `json:"total_cost"`
	UnitCost      decimal.Decimal  `json:"unit_cost"`
	MarginPercent *decimal.Decimal `json:"margin_percent,omitempty"`
	SellingPrice  decimal.Decimal  `json:"selling_price"`
	Steps         []StepCost       `json:"steps"`
}

// EquipmentHourlyCost spreads purchase cost over the depreciation horizon and adds
// annual maintenance, both per standard operating hour.
func EquipmentHourlyCost(e catalogdomain.Equipment) (decimal.Decimal, error) {
	if e.DepreciationYears <= 0 {
		return decimal.Zero, ErrInvalidDepreciation
	}
	years := decimal.NewFromInt(int64(e.DepreciationYears))
	depreciation := e.PurchaseCost.Div(years.Mul(annualHours))
	maintenance := e.MaintenanceCostPerYear.Div(annualHours)
	return depreciation.Add(maintenance), nil
}

// ValidateInput checks the scalar arguments of Calculate without touching the route.
func ValidateInput(quantity int64, materialCost decimal.Decimal, marginPercent *decimal.Decimal) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if materialCost.IsNegative() {
		return ErrInvalidMaterialCost
	}
	if marginPercent != nil {
		if marginPercent.IsNegative() || !marginPercent.LessThan(hundred) {
			return ErrInvalidMargin
		}
	}
	return nil
}

// Calculate walks the details in ascending sequence and aggregates the cost summary.
func Calculate(in Input) (Result, error) {
	if err := ValidateInput(in.Quantity, in.MaterialCost, in.MarginPercent); err != nil {
		return Result{}, err
	}
	if len(in.Details) == 0 {
		return Result{}, ErrEmptyRoute
	}

	details := sortedDetails(in.Details)
	if err := checkReferences(details); err != nil {
		return Result{}, err
	}

	quantity := decimal.NewFromInt(in.Quantity)
	materialPerUnit := in.MaterialCost.Div(quantity)
	one := decimal.NewFromInt(1)

	runningYield := one
	processCost := decimal.Zero
	steps := make([]StepCost, 0, len(details))

	for _, d := range details {
		if !d.YieldRate.IsPositive() || d.YieldRate.GreaterThan(one) {
			return Result{}, ErrInvalidYieldRate
		}

		hourly, err := EquipmentHourlyCost(d.Equipment)
		if err != nil {
			return Result{}, err
		}

		setup := d.Step.SetupMinutes
		if d.SetupMinutesOverride.Valid {
			setup = d.SetupMinutesOverride.Decimal
		}
		cycle := d.Step.CycleSeconds
		if d.CycleSecondsOverride.Valid {
			cycle = d.CycleSecondsOverride.Decimal
		}

		hours := setup.Div(sixty).Add(cycle.Mul(quantity).Div(secondsInOne))

		labor := roundMoney(hours.Mul(d.Step.LaborRequired).Mul(in.Rates.Labor))
		equipment := roundMoney(hours.Mul(hourly))
		electricity := roundMoney(hours.Mul(d.Equipment.PowerKW).Mul(in.Rates.Electricity))
		other := roundMoney(d.OtherCost)

		yieldBefore := runningYield
		runningYield = runningYield.Mul(d.YieldRate)
		lostUnits := quantity.Mul(yieldBefore.Sub(runningYield))
		costToDatePerUnit := materialPerUnit.Add(processCost.Div(quantity))
		yieldLoss := roundMoney(lostUnits.Mul(costToDatePerUnit))

		subtotal := labor.Add(equipment).Add(electricity).Add(other).Add(yieldLoss)
		processCost = processCost.Add(subtotal)

		steps = append(steps, StepCost{
			Sequence:        d.Sequence,
			StepID:          d.Step.ID,
			EquipmentID:     d.Equipment.ID,
			SetupMinutes:    setup,
			CycleSeconds:    cycle,
			TotalHours:      hours.Round(HourPlaces),
			YieldRate:       d.YieldRate,
			CumulativeYield: runningYield,
			LaborCost:       labor,
			EquipmentCost:   equipment,
			ElectricityCost: electricity,
			OtherCost:       other,
			YieldLossCost:   yieldLoss,
			Subtotal:        subtotal,
			Notes:           d.Notes,
		})
	}

	materialCost := roundMoney(in.MaterialCost)
	overhead := roundMoney(materialCost.Add(processCost).Mul(in.Rates.Overhead))
	total := materialCost.Add(processCost).Add(overhead)

	result := Result{
		Quantity:     in.Quantity,
		MaterialCost: materialCost,
		ProcessCost:  processCost,
		OverheadCost: overhead,
		TotalCost:    total,
		UnitCost:     total.DivRound(quantity, unitCostPlaces(in.Quantity)),
		SellingPrice: total,
		Steps:        steps,
	}
	if in.MarginPercent != nil {
		margin := *in.MarginPercent
		result.MarginPercent = &margin
		divisor := one.Sub(margin.Div(hundred))
		result.SellingPrice = roundMoney(total.Div(divisor))
	}
	return result, nil
}

func checkReferences(details []Detail) error {
	for _, d := range details {
		if !d.Step.Active {
			return &InactiveReferenceError{Kind: ReferenceStep, ID: d.Step.ID, Code: d.Step.Code}
		}
		if !d.Equipment.Active {
			return &InactiveReferenceError{Kind: ReferenceEquipment, ID: d.Equipment.ID, Code: d.Equipment.Code}
		}
	}
	return nil
}

func sortedDetails(details []Detail) []Detail {
	sorted := make([]Detail, len(details))
	copy(sorted, details)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Sequence < sorted[j].Sequence })
	return sorted
}

// unitCostPlaces bounds the unit cost rounding error times quantity below half a minor unit.
func unitCostPlaces(quantity int64) int32 {
	places := int32(MoneyPlaces + len(strconv.FormatInt(quantity, 10)) + 1)
	if places < UnitCostPlaces {
		return UnitCostPlaces
	}
	return places
}

// roundMoney rounds half away from zero to the minor currency unit.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}
