package services

import (
	"context"
	"fmt"

	"finledger/internal/core"
	"finledger/internal/log"
	"finledger/internal/storage"
)

// GoalService evaluates goals against transaction history. Accumulated
// value and status are derived on every read from stored transactions and
// the current date; nothing is persisted between evaluations.
type GoalService struct {
	store      *storage.Store
	categories *CategoryService
	log        *log.Logger

	// today is swappable so evaluation can be pinned in tests.
	today func() core.Date
}

func NewGoalService(store *storage.Store, categories *CategoryService, logger *log.Logger) *GoalService {
	return &GoalService{
		store:      store,
		categories: categories,
		log:        logger.WithComponent(log.ComponentGoal),
		today:      core.Today,
	}
}

type CreateGoalInput struct {
	Type        core.GoalType
	TargetValue core.Money
	StartDate   core.Date
	EndDate     core.Date
	Description string
	CategoryID  *int64
}

func (s *GoalService) Create(ctx context.Context, userID int64, in CreateGoalInput) (core.Goal, error) {
	goal := core.Goal{
		UserID:      userID,
		Type:        in.Type,
		TargetValue: in.TargetValue,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Description: in.Description,
		CategoryID:  in.CategoryID,
	}
	if err := goal.Validate(); err != nil {
		return core.Goal{}, err
	}
	if in.CategoryID != nil {
		if _, err := s.store.GetCategory(ctx, userID, *in.CategoryID); err != nil {
			return core.Goal{}, err
		}
	}

	created, err := s.store.CreateGoal(ctx, goal)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}

	s.log.InfoContext(ctx, "Goal created",
		log.FieldGoalID, created.ID,
		log.FieldUserID, userID)
	return created, nil
}

func (s *GoalService) Get(ctx context.Context, userID, id int64) (core.Goal, error) {
	return s.store.GetGoal(ctx, userID, id)
}

func (s *GoalService) List(ctx context.Context, userID int64) ([]core.Goal, error) {
	return s.store.ListGoals(ctx, userID)
}

type GoalPatch struct {
	Type        *core.GoalType
	TargetValue *core.Money
	StartDate   *core.Date
	EndDate     *core.Date
	Description *string
	CategoryID  *int64
}

func (s *GoalService) Update(ctx context.Context, userID, id int64, patch GoalPatch) (core.Goal, error) {
	goal, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return core.Goal{}, err
	}

	if patch.Type != nil {
		goal.Type = *patch.Type
	}
	if patch.TargetValue != nil {
		goal.TargetValue = *patch.TargetValue
	}
	if patch.StartDate != nil {
		goal.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		goal.EndDate = *patch.EndDate
	}
	if patch.Description != nil {
		goal.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		if _, err := s.store.GetCategory(ctx, userID, *patch.CategoryID); err != nil {
			return core.Goal{}, err
		}
		goal.CategoryID = patch.CategoryID
	}

	if err := goal.Validate(); err != nil {
		return core.Goal{}, err
	}
	if err := s.store.UpdateGoal(ctx, goal); err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}

	s.log.InfoContext(ctx, "Goal updated", log.FieldGoalID, id, log.FieldUserID, userID)
	return goal, nil
}

func (s *GoalService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.store.GetGoal(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteGoal(ctx, userID, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}

	s.log.InfoContext(ctx, "Goal deleted", log.FieldGoalID, id, log.FieldUserID, userID)
	return nil
}

// AccumulatedValue computes the goal's accumulated value over the
// effective window, which never extends past today. Transfers never
// contribute; only standard transactions do.
func (s *GoalService) AccumulatedValue(ctx context.Context, userID int64, goal core.Goal) (core.Money, error) {
	windowEnd := goal.WindowEnd(s.today())

	switch goal.Type {
	case core.SavingsGoal:
		initial, err := s.store.SumInitialBalances(ctx, userID)
		if err != nil {
			return core.Money{}, err
		}
		prior, err := s.store.SignedStandardSumBefore(ctx, userID, nil, goal.StartDate)
		if err != nil {
			return core.Money{}, err
		}
		income, expenses, err := s.store.IncomeExpenseTotals(ctx, userID, nil, goal.StartDate, windowEnd)
		if err != nil {
			return core.Money{}, err
		}
		return initial.Add(prior).Add(income.Sub(expenses)), nil

	case core.DebtGoal:
		income, expenses, err := s.store.IncomeExpenseTotals(ctx, userID, nil, goal.StartDate, windowEnd)
		if err != nil {
			return core.Money{}, err
		}
		return income.Sub(expenses), nil

	case core.BudgetGoal:
		_, expenses, err := s.store.IncomeExpenseTotals(ctx, userID, nil, goal.StartDate, windowEnd)
		if err != nil {
			return core.Money{}, err
		}
		return expenses, nil

	case core.InvestmentGoal:
		return s.subtreeSum(ctx, userID, goal, "investment", windowEnd)

	case core.PurchaseGoal:
		return s.subtreeSum(ctx, userID, goal, "purchase", windowEnd)
	}

	return core.Money{}, core.ErrInvalidGoalType
}

// subtreeSum totals standard-transaction amounts over a category subtree.
// The subtree root is the goal's pinned category when set, otherwise the
// first category whose name contains the fragment. No matching category
// means an accumulated value of zero.
func (s *GoalService) subtreeSum(ctx context.Context, userID int64, goal core.Goal, fragment string, windowEnd core.Date) (core.Money, error) {
	var (
		ids []int64
		err error
	)
	if goal.CategoryID != nil {
		ids, err = s.categories.SubtreeIDs(ctx, userID, *goal.CategoryID)
	} else {
		ids, err = s.categories.SubtreeIDsByName(ctx, userID, fragment)
	}
	if err != nil {
		return core.Money{}, err
	}
	if len(ids) == 0 {
		return core.Money{}, nil
	}
	return s.store.SumStandardAmountInCategories(ctx, userID, ids, goal.StartDate, windowEnd)
}

// Status derives the goal's lifecycle status as of today.
func (s *GoalService) Status(goal core.Goal, accumulated core.Money) core.GoalStatus {
	return goal.StatusAt(accumulated, s.today())
}

// Evaluate returns the goal together with its derived progress metrics.
func (s *GoalService) Evaluate(ctx context.Context, userID int64, goal core.Goal) (core.GoalProgress, error) {
	accumulated, err := s.AccumulatedValue(ctx, userID, goal)
	if err != nil {
		return core.GoalProgress{}, fmt.Errorf("evaluate goal %d: %w", goal.ID, err)
	}

	return core.GoalProgress{
		Goal:               goal,
		AccumulatedValue:   accumulated,
		ProgressPercentage: progressPercentage(accumulated, goal.TargetValue),
		RemainingValue:     remainingValue(accumulated, goal.TargetValue),
		Status:             s.Status(goal, accumulated),
	}, nil
}

// progressPercentage rounds half-up and caps at 100. A negative
// accumulated value reads as zero progress.
func progressPercentage(accumulated, target core.Money) int {
	if target.Cents <= 0 || accumulated.Cents <= 0 {
		return 0
	}
	pct := (accumulated.Cents*100 + target.Cents/2) / target.Cents
	if pct > 100 {
		return 100
	}
	return int(pct)
}

func remainingValue(accumulated, target core.Money) core.Money {
	remaining := target.Sub(accumulated)
	if remaining.Cents < 0 {
		return core.Money{}
	}
	return remaining
}
