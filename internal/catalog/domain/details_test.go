package domain

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDetailInputsSortsBySequence(t *testing.T) {
	parsed, err := ParseDetailInputs([]RouteDetailInput{
		{Sequence: 20, StepID: "2", YieldRate: decimal.RequireFromString("0.99")},
		{Sequence: 10, StepID: "1", YieldRate: decimal.NewFromInt(1)},
	})
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, 10, parsed[0].Sequence)
	assert.Equal(t, snowflake.ID(1), parsed[0].StepID)
}

func TestParseDetailInputsRejectsBadShapes(t *testing.T) {
	negative := decimal.NewFromInt(-1)
	cases := []struct {
		name   string
		inputs []RouteDetailInput
		want   error
	}{
		{name: "empty", inputs: nil, want: ErrInvalidRouteDetails},
		{name: "zero sequence", inputs: []RouteDetailInput{{Sequence: 0, StepID: "1", YieldRate: decimal.NewFromInt(1)}}, want: ErrInvalidSequence},
		{name: "duplicate sequence", inputs: []RouteDetailInput{
			{Sequence: 1, StepID: "1", YieldRate: decimal.NewFromInt(1)},
			{Sequence: 1, StepID: "2", YieldRate: decimal.NewFromInt(1)},
		}, want: ErrDuplicateSequence},
		{name: "zero yield", inputs: []RouteDetailInput{{Sequence: 1, StepID: "1", YieldRate: decimal.Zero}}, want: ErrInvalidYieldRate},
		{name: "yield above one", inputs: []RouteDetailInput{{Sequence: 1, StepID: "1", YieldRate: decimal.RequireFromString("1.01")}}, want: ErrInvalidYieldRate},
		{name: "bad step id", inputs: []RouteDetailInput{{Sequence: 1, StepID: "abc", YieldRate: decimal.NewFromInt(1)}}, want: ErrInvalidID},
		{name: "negative override", inputs: []RouteDetailInput{{Sequence: 1, StepID: "1", YieldRate: decimal.NewFromInt(1), SetupMinutesOverride: &negative}}, want: ErrInvalidTimeOverride},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDetailInputs(tc.inputs)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestBindEquipmentUsesStepDefault(t *testing.T) {
	defaultEquipment := snowflake.ID(77)
	steps := map[snowflake.ID]Step{
		1: {ID: 1, DefaultEquipmentID: &defaultEquipment},
		2: {ID: 2},
	}

	bound, err := BindEquipment([]ParsedDetail{{Sequence: 1, StepID: 1}}, steps)
	require.NoError(t, err)
	assert.Equal(t, defaultEquipment, *bound[0].EquipmentID)
	assert.Equal(t, []snowflake.ID{77}, EquipmentIDs(bound))

	_, err = BindEquipment([]ParsedDetail{{Sequence: 1, StepID: 2}}, steps)
	assert.ErrorIs(t, err, ErrInvalidEquipment)

	_, err = BindEquipment([]ParsedDetail{{Sequence: 1, StepID: 3}}, steps)
	assert.ErrorIs(t, err, ErrStepNotFound)
}
