package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wac0705/fastenmind-system-sub000/internal/config"
)

// Resolve returns the parameter effective at the instant, preferring the latest effective date.
func Resolve(params []CostParameter, at time.Time) *CostParameter {
	var found *CostParameter
	for i := range params {
		candidate := params[i]
		if !candidate.EffectiveAt(at) {
			continue
		}
		if found == nil || candidate.EffectiveDate.After(found.EffectiveDate) {
			found = &params[i]
		}
	}
	return found
}

// CheckBound fails closed when value lies outside the configured bound for t.
// A type without a configured bound only has to be non-negative.
func CheckBound(t ParameterType, value decimal.Decimal, bounds map[string]config.RateBound) error {
	bound, ok := bounds[string(t)]
	if !ok {
		if value.IsNegative() {
			return &ImplausibleRateError{Type: t, Value: value}
		}
		return nil
	}

	min := decimal.NewFromFloat(bound.Min)
	max := decimal.NewFromFloat(bound.Max)
	if value.GreaterThan(max) || value.LessThan(min) {
		return &ImplausibleRateError{Type: t, Value: value}
	}
	if value.Equal(min) && !bound.AllowMin {
		return &ImplausibleRateError{Type: t, Value: value}
	}
	return nil
}

// BuildSnapshot resolves every required type (and land when present) for at.
func BuildSnapshot(byType map[ParameterType][]CostParameter, at time.Time, bounds map[string]config.RateBound) (Snapshot, error) {
	snapshot := Snapshot{AsOf: at}

	resolve := func(t ParameterType) (*ResolvedRate, error) {
		param := Resolve(byType[t], at)
		if param == nil {
			return nil, nil
		}
		if err := CheckBound(t, param.Value, bounds); err != nil {
			return nil, err
		}
		return &ResolvedRate{
			ParameterID:   param.ID,
			ParameterType: t,
			Value:         param.Value,
			Unit:          param.Unit,
		}, nil
	}

	for _, t := range RequiredTypes {
		rate, err := resolve(t)
		if err != nil {
			return Snapshot{}, err
		}
		if rate == nil {
			return Snapshot{}, &MissingParameterError{Type: t}
		}
		switch t {
		case ParameterTypeLabor:
			snapshot.Labor = *rate
		case ParameterTypeElectricity:
			snapshot.Electricity = *rate
		case ParameterTypeOverhead:
			snapshot.Overhead = *rate
		}
	}

	land, err := resolve(ParameterTypeLand)
	if err != nil {
		return Snapshot{}, err
	}
	snapshot.Land = land

	return snapshot, nil
}
