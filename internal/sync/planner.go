package sync

import (
	"github.com/gobapps/financepro/internal/models"
)

// RowAction says what the merge does with one fiscal year.
type RowAction string

const (
	// ActionKeep leaves the existing row untouched.
	ActionKeep RowAction = "keep"
	// ActionTake replaces the existing row with the incoming row.
	ActionTake RowAction = "take"
	// ActionFill copies incoming values only into zero-valued fields
	// of the existing row.
	ActionFill RowAction = "fill"
	// ActionAppend adds an incoming year absent from the existing
	// series.
	ActionAppend RowAction = "append"
)

// RowPlan is the planned action for one year. Years in neither the
// plan nor the incoming series are dropped (replace-all only).
type RowPlan struct {
	Year   int
	Action RowAction
}

// PlanSeries decides, year by year, how the incoming series merges into
// the existing one. The planner is pure: it inspects rows and policy
// and never mutates either series.
//
// Rules, in order:
//  1. replace-all takes every incoming year and drops existing years
//     the provider no longer reports.
//  2. new-years-only keeps every existing year whole.
//  3. missing-only fills gaps in existing years.
//  4. smart keeps operator-edited rows (AutoFetched false) and takes
//     provider values for rows a previous sync wrote.
//
// Years only the provider has are always appended.
func PlanSeries(existing, incoming []models.AnnualRecord, policy models.FieldPolicy) []RowPlan {
	incomingByYear := make(map[int]bool, len(incoming))
	for _, r := range incoming {
		incomingByYear[r.Year] = true
	}
	existingByYear := make(map[int]models.AnnualRecord, len(existing))
	for _, r := range existing {
		existingByYear[r.Year] = r
	}

	var plan []RowPlan

	if policy == models.FieldPolicyReplaceAll {
		for _, r := range incoming {
			plan = append(plan, RowPlan{Year: r.Year, Action: ActionTake})
		}
		return sortPlan(plan)
	}

	for _, r := range existing {
		switch {
		case policy == models.FieldPolicyNewYearsOnly:
			plan = append(plan, RowPlan{Year: r.Year, Action: ActionKeep})
		case !incomingByYear[r.Year]:
			plan = append(plan, RowPlan{Year: r.Year, Action: ActionKeep})
		case policy == models.FieldPolicyMissingOnly:
			plan = append(plan, RowPlan{Year: r.Year, Action: ActionFill})
		case !r.AutoFetched:
			// Operator-edited row
			plan = append(plan, RowPlan{Year: r.Year, Action: ActionKeep})
		default:
			plan = append(plan, RowPlan{Year: r.Year, Action: ActionTake})
		}
	}

	for _, r := range incoming {
		if _, exists := existingByYear[r.Year]; !exists {
			plan = append(plan, RowPlan{Year: r.Year, Action: ActionAppend})
		}
	}

	return sortPlan(plan)
}

func sortPlan(plan []RowPlan) []RowPlan {
	for i := 1; i < len(plan); i++ {
		for j := i; j > 0 && plan[j-1].Year > plan[j].Year; j-- {
			plan[j-1], plan[j] = plan[j], plan[j-1]
		}
	}
	return plan
}
