package core

type (
	GoalType   string
	GoalStatus string
)

const (
	SavingsGoal    GoalType = "SAVINGS"
	InvestmentGoal GoalType = "INVESTMENT"
	DebtGoal       GoalType = "DEBT"
	PurchaseGoal   GoalType = "PURCHASE"
	BudgetGoal     GoalType = "BUDGET"
)

const (
	NotStarted   GoalStatus = "NOT_STARTED"
	InProgress   GoalStatus = "IN_PROGRESS"
	Completed    GoalStatus = "COMPLETED"
	Failed       GoalStatus = "FAILED"
	Surplus      GoalStatus = "SURPLUS"
	Deficit      GoalStatus = "DEFICIT"
	OverBudget   GoalStatus = "OVER_BUDGET"
	WithinBudget GoalStatus = "WITHIN_BUDGET"
)

// Goal is read-only after creation apart from field edits. Status and
// accumulated value are always computed on read, never persisted.
type Goal struct {
	ID          int64
	UserID      int64
	Type        GoalType
	TargetValue Money
	StartDate   Date
	EndDate     Date
	Description string

	// CategoryID pins the category subtree used by the INVESTMENT and
	// PURCHASE accumulators. When nil the subtree is located by name.
	CategoryID *int64
}

func (g Goal) Validate() error {
	switch g.Type {
	case SavingsGoal, InvestmentGoal, DebtGoal, PurchaseGoal, BudgetGoal:
	default:
		return ErrInvalidGoalType
	}
	if err := g.TargetValue.Validate(); err != nil {
		return err
	}
	if err := g.StartDate.Validate(); err != nil {
		return err
	}
	if err := g.EndDate.Validate(); err != nil {
		return err
	}
	if g.StartDate.After(g.EndDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// WindowEnd clips the evaluation window so it never reaches past today.
func (g Goal) WindowEnd(today Date) Date {
	return today.Min(g.EndDate)
}

// StatusAt derives the lifecycle status from the accumulated value, the
// target and today's position relative to the goal window.
func (g Goal) StatusAt(accumulated Money, today Date) GoalStatus {
	if today.Before(g.StartDate) {
		return NotStarted
	}
	if !today.After(g.EndDate) {
		return InProgress
	}

	reached := accumulated.GreaterThan(g.TargetValue)
	switch g.Type {
	case SavingsGoal, InvestmentGoal:
		if reached {
			return Completed
		}
		return Failed
	case DebtGoal:
		if reached {
			return Surplus
		}
		return Deficit
	case PurchaseGoal:
		if reached {
			return OverBudget
		}
		return Completed
	case BudgetGoal:
		if reached {
			return OverBudget
		}
		return WithinBudget
	}

	// Unclassified types keep a re-derivable status: >= target completes,
	// anything less stays in progress.
	if accumulated.Cents >= g.TargetValue.Cents {
		return Completed
	}
	return InProgress
}
