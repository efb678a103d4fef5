package costing

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wac0705/fastenmind-system-sub000/internal/apperror"
	catalogdomain "github.com/wac0705/fastenmind-system-sub000/internal/catalog/domain"
)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}

func decPtr(t *testing.T, value string) *decimal.Decimal {
	d := dec(t, value)
	return &d
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, dec(t, want).Equal(got), "%s: want %s, got %s", field, want, got.String())
}

// headingPress costs exactly $20/hour: 200000 / (5 * 2000).
func headingPress(t *testing.T) catalogdomain.Equipment {
	return catalogdomain.Equipment{
		ID:                     snowflake.ID(900),
		Code:                   "HEADER-01",
		PowerKW:                dec(t, "5"),
		DepreciationYears:      5,
		PurchaseCost:           dec(t, "200000"),
		MaintenanceCostPerYear: decimal.Zero,
		Active:                 true,
	}
}

func coldHeading(t *testing.T) catalogdomain.Step {
	return catalogdomain.Step{
		ID:            snowflake.ID(100),
		Code:          "COLD-HEADING",
		SetupMinutes:  dec(t, "30"),
		CycleSeconds:  dec(t, "10"),
		LaborRequired: dec(t, "1"),
		Active:        true,
	}
}

func exampleRates(t *testing.T) Rates {
	return Rates{
		Labor:       dec(t, "15"),
		Electricity: dec(t, "0.12"),
		Overhead:    dec(t, "0.10"),
	}
}

func exampleInput(t *testing.T) Input {
	return Input{
		Quantity:     1000,
		MaterialCost: dec(t, "500"),
		Details: []Detail{{
			Sequence:  10,
			Step:      coldHeading(t),
			Equipment: headingPress(t),
			YieldRate: dec(t, "0.98"),
		}},
		Rates:         exampleRates(t),
		MarginPercent: decPtr(t, "20"),
	}
}

func TestEquipmentHourlyCost(t *testing.T) {
	hourly, err := EquipmentHourlyCost(headingPress(t))
	require.NoError(t, err)
	assertDecimal(t, "20", hourly, "hourly")

	withMaintenance := headingPress(t)
	withMaintenance.MaintenanceCostPerYear = dec(t, "4000")
	hourly, err = EquipmentHourlyCost(withMaintenance)
	require.NoError(t, err)
	assertDecimal(t, "22", hourly, "hourly with maintenance")

	broken := headingPress(t)
	broken.DepreciationYears = 0
	_, err = EquipmentHourlyCost(broken)
	assert.ErrorIs(t, err, ErrInvalidDepreciation)
	assert.ErrorIs(t, err, apperror.ErrConfiguration)
}

func TestCalculateExampleScenario(t *testing.T) {
	result, err := Calculate(exampleInput(t))
	require.NoError(t, err)
	require.Len(t, result.Steps, 1)

	step := result.Steps[0]
	assertDecimal(t, "3.277778", step.TotalHours, "total_hours")
	assertDecimal(t, "49.17", step.LaborCost, "labor")
	assertDecimal(t, "65.56", step.EquipmentCost, "equipment")
	assertDecimal(t, "1.97", step.ElectricityCost, "electricity")
	assertDecimal(t, "10.00", step.YieldLossCost, "yield_loss")
	assertDecimal(t, "126.70", step.Subtotal, "subtotal")
	assertDecimal(t, "0.98", step.CumulativeYield, "cumulative_yield")

	assertDecimal(t, "500", result.MaterialCost, "material")
	assertDecimal(t, "126.70", result.ProcessCost, "process")
	assertDecimal(t, "62.67", result.OverheadCost, "overhead")
	assertDecimal(t, "689.37", result.TotalCost, "total")
	assertDecimal(t, "0.68937", result.UnitCost, "unit")
	assertDecimal(t, "861.71", result.SellingPrice, "selling")
}

func TestCalculateWithoutMarginSellsAtCost(t *testing.T) {
	in := exampleInput(t)
	in.MarginPercent = nil

	result, err := Calculate(in)
	require.NoError(t, err)
	assert.Nil(t, result.MarginPercent)
	assert.True(t, result.SellingPrice.Equal(result.TotalCost))
}

func TestFullYieldHasNoYieldLoss(t *testing.T) {
	in := exampleInput(t)
	in.Details = nil
	for i := 1; i <= 4; i++ {
		in.Details = append(in.Details, Detail{
			Sequence:  i * 10,
			Step:      coldHeading(t),
			Equipment: headingPress(t),
			YieldRate: decimal.NewFromInt(1),
		})
	}

	result, err := Calculate(in)
	require.NoError(t, err)
	require.Len(t, result.Steps, 4)
	for _, step := range result.Steps {
		assert.True(t, step.YieldLossCost.IsZero(), "sequence %d", step.Sequence)
	}
}

func TestSingleStepTotalHasNoCrossStepEffects(t *testing.T) {
	in := exampleInput(t)
	in.Details[0].YieldRate = decimal.NewFromInt(1)

	result, err := Calculate(in)
	require.NoError(t, err)

	step := result.Steps[0]
	sum := result.MaterialCost.
		Add(step.LaborCost).
		Add(step.EquipmentCost).
		Add(step.ElectricityCost).
		Add(result.OverheadCost)
	assert.True(t, sum.Equal(result.TotalCost), "sum %s total %s", sum, result.TotalCost)
}

func TestYieldLossChargesCostToDate(t *testing.T) {
	in := exampleInput(t)
	in.MarginPercent = nil
	in.Details = []Detail{
		{Sequence: 1, Step: coldHeading(t), Equipment: headingPress(t), YieldRate: decimal.NewFromInt(1)},
		{Sequence: 2, Step: coldHeading(t), Equipment: headingPress(t), YieldRate: dec(t, "0.9")},
	}

	result, err := Calculate(in)
	require.NoError(t, err)
	require.Len(t, result.Steps, 2)

	first := result.Steps[0]
	assertDecimal(t, "116.70", first.Subtotal, "first subtotal")
	assert.True(t, first.YieldLossCost.IsZero())

	// 100 scrapped units at (500 + 116.70) / 1000 per unit.
	assertDecimal(t, "61.67", result.Steps[1].YieldLossCost, "second yield loss")
	assertDecimal(t, "0.9", result.Steps[1].CumulativeYield, "cumulative yield")
}

func TestYieldCompoundsAcrossSteps(t *testing.T) {
	in := exampleInput(t)
	in.Details = []Detail{
		{Sequence: 1, Step: coldHeading(t), Equipment: headingPress(t), YieldRate: dec(t, "0.9")},
		{Sequence: 2, Step: coldHeading(t), Equipment: headingPress(t), YieldRate: dec(t, "0.9")},
	}

	result, err := Calculate(in)
	require.NoError(t, err)
	assertDecimal(t, "0.81", result.Steps[1].CumulativeYield, "cumulative yield")
}

func TestCalculateOrdersBySequence(t *testing.T) {
	in := exampleInput(t)
	second := Detail{Sequence: 5, Step: coldHeading(t), Equipment: headingPress(t), YieldRate: decimal.NewFromInt(1)}
	in.Details = append(in.Details, second)

	result, err := Calculate(in)
	require.NoError(t, err)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, 5, result.Steps[0].Sequence)
	assert.Equal(t, 10, result.Steps[1].Sequence)
}

func TestOverridesReplaceStepDefaults(t *testing.T) {
	in := exampleInput(t)
	in.Details[0].SetupMinutesOverride = decimal.NewNullDecimal(dec(t, "60"))
	in.Details[0].CycleSecondsOverride = decimal.NewNullDecimal(dec(t, "3.6"))

	result, err := Calculate(in)
	require.NoError(t, err)

	step := result.Steps[0]
	assertDecimal(t, "60", step.SetupMinutes, "setup")
	assertDecimal(t, "3.6", step.CycleSeconds, "cycle")
	assertDecimal(t, "2", step.TotalHours, "hours")
	assertDecimal(t, "30", step.LaborCost, "labor")
}

func TestOtherCostIsAddedToSubtotal(t *testing.T) {
	in := exampleInput(t)
	in.Details[0].OtherCost = dec(t, "3.30")

	result, err := Calculate(in)
	require.NoError(t, err)
	assertDecimal(t, "130.00", result.Steps[0].Subtotal, "subtotal")
}

func TestCalculateIsDeterministic(t *testing.T) {
	in := exampleInput(t)
	in.Details = append(in.Details,
		Detail{Sequence: 20, Step: coldHeading(t), Equipment: headingPress(t), YieldRate: dec(t, "0.97")},
		Detail{Sequence: 30, Step: coldHeading(t), Equipment: headingPress(t), YieldRate: dec(t, "0.995")},
	)

	first, err := Calculate(in)
	require.NoError(t, err)
	second, err := Calculate(in)
	require.NoError(t, err)

	a, err := json.Marshal(first.Steps)
	require.NoError(t, err)
	b, err := json.Marshal(second.Steps)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestUnitCostMultipliesBackToTotal(t *testing.T) {
	cent := dec(t, "0.01")
	for _, quantity := range []int64{1, 3, 7, 999, 1000, 12345, 9_999_991} {
		in := exampleInput(t)
		in.Quantity = quantity
		in.Details[0].YieldRate = dec(t, "0.973")

		result, err := Calculate(in)
		require.NoError(t, err)

		back := result.UnitCost.Mul(decimal.NewFromInt(quantity))
		diff := back.Sub(result.TotalCost).Abs()
		assert.True(t, diff.LessThanOrEqual(cent), "quantity %d: diff %s", quantity, diff)
	}
}

func TestUnitCostHoldsAtLargeQuantities(t *testing.T) {
	cent := dec(t, "0.01")
	for _, quantity := range []int64{3_000_000_001, 700_000_000_003, 9_223_372_036_854_775_807} {
		in := exampleInput(t)
		in.Quantity = quantity
		in.MaterialCost = dec(t, "1234567.89")
		in.Details[0].YieldRate = dec(t, "0.973")

		result, err := Calculate(in)
		require.NoError(t, err)

		back := result.UnitCost.Mul(decimal.NewFromInt(quantity))
		diff := back.Sub(result.TotalCost).Abs()
		assert.True(t, diff.LessThan(cent), "quantity %d: diff %s", quantity, diff)
	}
}

func TestUnitCostPlaces(t *testing.T) {
	assert.Equal(t, int32(UnitCostPlaces), unitCostPlaces(1))
	assert.Equal(t, int32(UnitCostPlaces), unitCostPlaces(9_999_999))
	assert.Equal(t, int32(15), unitCostPlaces(700_000_000_003))
}

func TestCalculateRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Input)
		want   error
		class  error
	}{
		{name: "zero quantity", mutate: func(in *Input) { in.Quantity = 0 }, want: ErrInvalidQuantity, class: apperror.ErrValidation},
		{name: "negative quantity", mutate: func(in *Input) { in.Quantity = -5 }, want: ErrInvalidQuantity, class: apperror.ErrValidation},
		{name: "negative material", mutate: func(in *Input) { in.MaterialCost = dec(t, "-1") }, want: ErrInvalidMaterialCost, class: apperror.ErrValidation},
		{name: "margin of hundred", mutate: func(in *Input) { in.MarginPercent = decPtr(t, "100") }, want: ErrInvalidMargin, class: apperror.ErrValidation},
		{name: "negative margin", mutate: func(in *Input) { in.MarginPercent = decPtr(t, "-1") }, want: ErrInvalidMargin, class: apperror.ErrValidation},
		{name: "empty route", mutate: func(in *Input) { in.Details = nil }, want: ErrEmptyRoute, class: apperror.ErrConfiguration},
		{name: "zero depreciation", mutate: func(in *Input) { in.Details[0].Equipment.DepreciationYears = 0 }, want: ErrInvalidDepreciation, class: apperror.ErrConfiguration},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := exampleInput(t)
			tc.mutate(&in)
			_, err := Calculate(in)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, tc.class)
		})
	}
}

func TestInactiveReferencesAreFatal(t *testing.T) {
	in := exampleInput(t)
	in.Details[0].Equipment.Active = false

	_, err := Calculate(in)
	var inactive *InactiveReferenceError
	require.True(t, errors.As(err, &inactive))
	assert.Equal(t, ReferenceEquipment, inactive.Kind)
	assert.Equal(t, "HEADER-01", inactive.Code)
	assert.ErrorIs(t, err, apperror.ErrConfiguration)

	in = exampleInput(t)
	in.Details[0].Step.Active = false
	_, err = Calculate(in)
	require.True(t, errors.As(err, &inactive))
	assert.Equal(t, ReferenceStep, inactive.Kind)
}
