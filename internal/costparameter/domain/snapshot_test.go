package domain

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wac0705/fastenmind-system-sub000/internal/apperror"
	"github.com/wac0705/fastenmind-system-sub000/internal/config"
)

func day(month time.Month, d int) time.Time {
	return time.Date(2024, month, d, 0, 0, 0, 0, time.UTC)
}

func param(id int64, t ParameterType, value string, from time.Time, until *time.Time) CostParameter {
	return CostParameter{
		ID:            snowflake.ID(id),
		ParameterType: t,
		Value:         decimal.RequireFromString(value),
		Unit:          "unit",
		EffectiveDate: from,
		EndDate:       until,
	}
}

func TestResolvePrefersLatestEffectiveDate(t *testing.T) {
	params := []CostParameter{
		param(1, ParameterTypeLabor, "15", day(1, 1), nil),
		param(2, ParameterTypeLabor, "17", day(3, 1), nil),
	}

	found := Resolve(params, day(2, 15))
	require.NotNil(t, found)
	assert.True(t, found.Value.Equal(decimal.NewFromInt(15)))

	found = Resolve(params, day(3, 1))
	require.NotNil(t, found)
	assert.True(t, found.Value.Equal(decimal.NewFromInt(17)))

	assert.Nil(t, Resolve(params, day(1, 1).Add(-time.Second)))
}

func TestEndDateIsExclusive(t *testing.T) {
	end := day(2, 1)
	p := param(1, ParameterTypeOverhead, "0.1", day(1, 1), &end)

	assert.True(t, p.EffectiveAt(end.Add(-time.Nanosecond)))
	assert.False(t, p.EffectiveAt(end))
}

func TestOverlaps(t *testing.T) {
	janEnd := day(2, 1)
	jan := param(1, ParameterTypeLabor, "15", day(1, 1), &janEnd)
	feb := param(2, ParameterTypeLabor, "16", day(2, 1), nil)
	open := param(3, ParameterTypeLabor, "14", day(1, 15), nil)

	assert.False(t, jan.Overlaps(feb))
	assert.False(t, feb.Overlaps(jan))
	assert.True(t, jan.Overlaps(open))
	assert.True(t, feb.Overlaps(open))
}

func TestCheckBound(t *testing.T) {
	bounds := config.DefaultCostEngineConfig().RateBounds

	assert.NoError(t, CheckBound(ParameterTypeLabor, decimal.NewFromInt(15), bounds))
	assert.NoError(t, CheckBound(ParameterTypeOverhead, decimal.Zero, bounds))

	err := CheckBound(ParameterTypeLabor, decimal.Zero, bounds)
	assert.ErrorIs(t, err, ErrImplausibleRate)
	assert.ErrorIs(t, err, apperror.ErrConfiguration)
	assert.Equal(t, "implausible_rate", apperror.Code(err))

	assert.ErrorIs(t, CheckBound(ParameterTypeElectricity, decimal.NewFromInt(11), bounds), ErrImplausibleRate)
	assert.ErrorIs(t, CheckBound(ParameterTypeLabor, decimal.NewFromInt(-1), map[string]config.RateBound{}), ErrImplausibleRate)
}

func TestBuildSnapshotRequiresEveryType(t *testing.T) {
	bounds := config.DefaultCostEngineConfig().RateBounds
	byType := map[ParameterType][]CostParameter{
		ParameterTypeLabor:       {param(1, ParameterTypeLabor, "15", day(1, 1), nil)},
		ParameterTypeElectricity: {param(2, ParameterTypeElectricity, "0.12", day(1, 1), nil)},
	}

	_, err := BuildSnapshot(byType, day(3, 1), bounds)
	assert.ErrorIs(t, err, ErrMissingParameter)
	var missing *MissingParameterError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, ParameterTypeOverhead, missing.Type)

	byType[ParameterTypeOverhead] = []CostParameter{param(3, ParameterTypeOverhead, "0.1", day(1, 1), nil)}
	snapshot, err := BuildSnapshot(byType, day(3, 1), bounds)
	require.NoError(t, err)
	assert.Equal(t, day(3, 1), snapshot.AsOf)
	assert.True(t, snapshot.Labor.Value.Equal(decimal.NewFromInt(15)))
	assert.Nil(t, snapshot.Land)

	byType[ParameterTypeLand] = []CostParameter{param(4, ParameterTypeLand, "250", day(1, 1), nil)}
	snapshot, err = BuildSnapshot(byType, day(3, 1), bounds)
	require.NoError(t, err)
	require.NotNil(t, snapshot.Land)
	assert.True(t, snapshot.Land.Value.Equal(decimal.NewFromInt(250)))
}
