package domain

import (
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// ParsedDetail is a shape-checked route detail whose references are parsed but not yet loaded.
type ParsedDetail struct {
	Sequence             int
	StepID               snowflake.ID
	EquipmentID          *snowflake.ID
	SetupMinutesOverride decimal.NullDecimal
	CycleSecondsOverride decimal.NullDecimal
	YieldRate            decimal.Decimal
	OtherCost            decimal.Decimal
	Notes                string
}

// ParseDetailInputs checks sequence, yield and override rules and returns the details in sequence order.
func ParseDetailInputs(inputs []RouteDetailInput) ([]ParsedDetail, error) {
	if len(inputs) == 0 {
		return nil, ErrInvalidRouteDetails
	}

	one := decimal.NewFromInt(1)
	seen := make(map[int]struct{}, len(inputs))
	parsed := make([]ParsedDetail, 0, len(inputs))
	for _, input := range inputs {
		if input.Sequence <= 0 {
			return nil, ErrInvalidSequence
		}
		if _, ok := seen[input.Sequence]; ok {
			return nil, ErrDuplicateSequence
		}
		seen[input.Sequence] = struct{}{}

		if !input.YieldRate.IsPositive() || input.YieldRate.GreaterThan(one) {
			return nil, ErrInvalidYieldRate
		}

		stepID, err := snowflake.ParseString(strings.TrimSpace(input.StepID))
		if err != nil || stepID == 0 {
			return nil, ErrInvalidID
		}

		detail := ParsedDetail{
			Sequence:  input.Sequence,
			StepID:    stepID,
			YieldRate: input.YieldRate,
			Notes:     strings.TrimSpace(input.Notes),
		}

		if raw := strings.TrimSpace(input.EquipmentID); raw != "" {
			equipmentID, err := snowflake.ParseString(raw)
			if err != nil || equipmentID == 0 {
				return nil, ErrInvalidID
			}
			detail.EquipmentID = &equipmentID
		}

		if input.OtherCost != nil {
			if input.OtherCost.IsNegative() {
				return nil, ErrInvalidAmount
			}
			detail.OtherCost = *input.OtherCost
		}

		if input.SetupMinutesOverride != nil {
			if input.SetupMinutesOverride.IsNegative() {
				return nil, ErrInvalidTimeOverride
			}
			detail.SetupMinutesOverride = decimal.NewNullDecimal(*input.SetupMinutesOverride)
		}
		if input.CycleSecondsOverride != nil {
			if input.CycleSecondsOverride.IsNegative() {
				return nil, ErrInvalidTimeOverride
			}
			detail.CycleSecondsOverride = decimal.NewNullDecimal(*input.CycleSecondsOverride)
		}

		parsed = append(parsed, detail)
	}

	sort.Slice(parsed, func(i, j int) bool { return parsed[i].Sequence < parsed[j].Sequence })
	return parsed, nil
}

// StepIDs returns the distinct step references of parsed details.
func StepIDs(parsed []ParsedDetail) []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(parsed))
	seen := make(map[snowflake.ID]struct{}, len(parsed))
	for _, detail := range parsed {
		if _, ok := seen[detail.StepID]; ok {
			continue
		}
		seen[detail.StepID] = struct{}{}
		ids = append(ids, detail.StepID)
	}
	return ids
}

// BindEquipment fills each detail's equipment with the step default when omitted.
// Every step referenced by parsed must be present in steps.
func BindEquipment(parsed []ParsedDetail, steps map[snowflake.ID]Step) ([]ParsedDetail, error) {
	bound := make([]ParsedDetail, len(parsed))
	for i, detail := range parsed {
		step, ok := steps[detail.StepID]
		if !ok {
			return nil, ErrStepNotFound
		}
		if detail.EquipmentID == nil {
			if step.DefaultEquipmentID == nil {
				return nil, ErrInvalidEquipment
			}
			id := *step.DefaultEquipmentID
			detail.EquipmentID = &id
		}
		bound[i] = detail
	}
	return bound, nil
}

// EquipmentIDs returns the distinct equipment references of bound details.
func EquipmentIDs(bound []ParsedDetail) []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(bound))
	seen := make(map[snowflake.ID]struct{}, len(bound))
	for _, detail := range bound {
		if detail.EquipmentID == nil {
			continue
		}
		if _, ok := seen[*detail.EquipmentID]; ok {
			continue
		}
		seen[*detail.EquipmentID] = struct{}{}
		ids = append(ids, *detail.EquipmentID)
	}
	return ids
}

// SortDetails orders route details by sequence.
func SortDetails(details []RouteDetail) {
	sort.SliceStable(details, func(i, j int) bool { return details[i].Sequence < details[j].Sequence })
}
