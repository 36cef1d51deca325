package services

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"finledger/internal/core"
	"finledger/internal/log"
	"finledger/internal/storage"
)

// ReportService derives period reports and monthly summaries from stored
// transaction history. It never touches balances; everything here is
// recomputed from rows on each call.
type ReportService struct {
	store *storage.Store
	goals *GoalService
	log   *log.Logger
}

func NewReportService(store *storage.Store, goals *GoalService, logger *log.Logger) *ReportService {
	return &ReportService{
		store: store,
		goals: goals,
		log:   logger.WithComponent(log.ComponentReport),
	}
}

// PeriodReport builds the balance/category rollup for [start, end]. With an
// account id the previous and current balances include that account's
// transfer legs; without one the report spans all accounts and transfers
// are left out of the balances, since a user's own transfers net to zero
// in aggregate.
func (s *ReportService) PeriodReport(ctx context.Context, userID int64, accountID *int64, start, end core.Date) (core.PeriodReport, error) {
	if err := start.Validate(); err != nil {
		return core.PeriodReport{}, err
	}
	if err := end.Validate(); err != nil {
		return core.PeriodReport{}, err
	}
	if start.After(end) {
		return core.PeriodReport{}, core.ErrInvalidDateRange
	}

	report := core.PeriodReport{
		AccountID: accountID,
		StartDate: start,
		EndDate:   end,
	}

	var (
		initial, priorStandard, priorTransfers core.Money
		income, expenses, windowTransfers      core.Money
		categories                             []core.CategoryTotal
	)

	g, gctx := errgroup.WithContext(ctx)

	if accountID != nil {
		account, err := s.store.GetAccount(ctx, userID, *accountID)
		if err != nil {
			return core.PeriodReport{}, err
		}
		report.AccountName = account.Name
		initial = account.InitialBalance

		g.Go(func() error {
			var err error
			priorTransfers, err = s.store.NetTransfersBefore(gctx, userID, *accountID, start)
			return err
		})
		g.Go(func() error {
			var err error
			windowTransfers, err = s.store.NetTransfersBetween(gctx, userID, *accountID, start, end)
			return err
		})
	} else {
		g.Go(func() error {
			var err error
			initial, err = s.store.SumInitialBalances(gctx, userID)
			return err
		})
	}

	g.Go(func() error {
		var err error
		priorStandard, err = s.store.SignedStandardSumBefore(gctx, userID, accountID, start)
		return err
	})
	g.Go(func() error {
		var err error
		income, expenses, err = s.store.IncomeExpenseTotals(gctx, userID, accountID, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.store.CategoryTotals(gctx, userID, accountID, start, end)
		return err
	})

	if err := g.Wait(); err != nil {
		return core.PeriodReport{}, fmt.Errorf("period report: %w", err)
	}

	report.PreviousBalance = initial.Add(priorStandard).Add(priorTransfers)
	report.TotalIncome = income
	report.TotalExpenses = expenses
	report.Savings = income.Sub(expenses)
	report.CurrentBalance = report.PreviousBalance.Add(report.Savings).Add(windowTransfers)
	report.CategorySummary = categories

	s.log.DebugContext(ctx, "Period report built",
		log.FieldUserID, userID,
		log.FieldStartDate, start.String(),
		log.FieldEndDate, end.String())
	return report, nil
}

// MonthlySummary buckets the range [startMonth, endMonth] by calendar
// month, gap-filling months without transactions. With an account id the
// top-level buckets carry transfer-adjusted values for that account. The
// per-account breakdown covers every account touched in the range and
// always carries transfer-adjusted values.
func (s *ReportService) MonthlySummary(ctx context.Context, userID int64, startMonth, endMonth string, accountID *int64) (core.MonthlySummary, error) {
	start, err := core.ParseMonth(startMonth)
	if err != nil {
		return core.MonthlySummary{}, err
	}
	end, err := core.ParseMonth(endMonth)
	if err != nil {
		return core.MonthlySummary{}, err
	}
	if start.After(end) {
		return core.MonthlySummary{}, core.ErrInvalidDateRange
	}
	from, to := start.FirstOfMonth(), end.LastOfMonth()

	var (
		totals      []storage.MonthAgg
		perAccount  []storage.AccountMonthAgg
		nets        []storage.MonthNet
		perAcctNets []storage.AccountMonthNet
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.store.MonthlyStandardTotals(gctx, userID, accountID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		perAccount, err = s.store.MonthlyStandardTotalsByAccount(gctx, userID, accountID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		perAcctNets, err = s.store.MonthlyNetTransfersByAccount(gctx, userID, accountID, from, to)
		return err
	})
	if accountID != nil {
		g.Go(func() error {
			var err error
			nets, err = s.store.MonthlyNetTransfers(gctx, userID, *accountID, from, to)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return core.MonthlySummary{}, fmt.Errorf("monthly summary: %w", err)
	}

	aggByMonth := make(map[int]storage.MonthAgg, len(totals))
	for _, a := range totals {
		aggByMonth[monthKey(a.Year, a.Month)] = a
	}
	netByMonth := make(map[int]core.Money, len(nets))
	for _, n := range nets {
		netByMonth[monthKey(n.Year, n.Month)] = n.Net
	}

	summary := core.MonthlySummary{
		StartMonth:        startMonth,
		EndMonth:          endMonth,
		IncludesTransfers: accountID != nil,
	}

	var accumulated, accumulatedWith core.Money
	for m := start; !m.After(end); m = m.AddMonths(1) {
		key := monthKey(m.Year(), int(m.Month()))
		agg := aggByMonth[key]

		bucket := core.MonthlyBucket{
			Year:     m.Year(),
			Month:    int(m.Month()),
			Income:   agg.Income,
			Expenses: agg.Expenses,
		}
		bucket.MonthBalance = bucket.Income.Sub(bucket.Expenses)
		accumulated = accumulated.Add(bucket.MonthBalance)
		bucket.AccumulatedBalance = accumulated

		if summary.IncludesTransfers {
			bucket.NetTransfers = netByMonth[key]
			bucket.MonthBalanceWithTransfers = bucket.MonthBalance.Add(bucket.NetTransfers)
			accumulatedWith = accumulatedWith.Add(bucket.MonthBalanceWithTransfers)
			bucket.AccumulatedBalanceWithTransfers = accumulatedWith
		}

		summary.Items = append(summary.Items, bucket)
		summary.TotalIncome = summary.TotalIncome.Add(bucket.Income)
		summary.TotalExpenses = summary.TotalExpenses.Add(bucket.Expenses)
	}
	summary.TotalSavings = summary.TotalIncome.Sub(summary.TotalExpenses)

	summary.Accounts = buildAccountBreakdown(start, end, perAccount, perAcctNets)

	s.log.DebugContext(ctx, "Monthly summary built",
		log.FieldUserID, userID,
		log.FieldMonth, startMonth,
		log.FieldCount, len(summary.Items))
	return summary, nil
}

// buildAccountBreakdown assembles gap-filled per-account bucket series from
// the month-grouped aggregates. Accounts appear when they have at least one
// standard transaction or transfer leg in the range.
func buildAccountBreakdown(start, end core.Date, aggs []storage.AccountMonthAgg, nets []storage.AccountMonthNet) []core.AccountMonthlySummary {
	type acctMonths struct {
		name string
		agg  map[int]storage.MonthAgg
		net  map[int]core.Money
	}
	byAccount := make(map[int64]*acctMonths)
	ensure := func(id int64) *acctMonths {
		am, ok := byAccount[id]
		if !ok {
			am = &acctMonths{agg: make(map[int]storage.MonthAgg), net: make(map[int]core.Money)}
			byAccount[id] = am
		}
		return am
	}
	for _, a := range aggs {
		am := ensure(a.AccountID)
		am.name = a.AccountName
		am.agg[monthKey(a.Year, a.Month)] = a.MonthAgg
	}
	for _, n := range nets {
		ensure(n.AccountID).net[monthKey(n.Year, n.Month)] = n.Net
	}
	if len(byAccount) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(byAccount))
	for id := range byAccount {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	summaries := make([]core.AccountMonthlySummary, 0, len(ids))
	for _, id := range ids {
		am := byAccount[id]
		acct := core.AccountMonthlySummary{AccountID: id, AccountName: am.name}

		var accumulated, accumulatedWith core.Money
		for m := start; !m.After(end); m = m.AddMonths(1) {
			key := monthKey(m.Year(), int(m.Month()))
			agg := am.agg[key]

			bucket := core.MonthlyBucket{
				Year:     m.Year(),
				Month:    int(m.Month()),
				Income:   agg.Income,
				Expenses: agg.Expenses,
			}
			bucket.MonthBalance = bucket.Income.Sub(bucket.Expenses)
			accumulated = accumulated.Add(bucket.MonthBalance)
			bucket.AccumulatedBalance = accumulated

			bucket.NetTransfers = am.net[key]
			bucket.MonthBalanceWithTransfers = bucket.MonthBalance.Add(bucket.NetTransfers)
			accumulatedWith = accumulatedWith.Add(bucket.MonthBalanceWithTransfers)
			bucket.AccumulatedBalanceWithTransfers = accumulatedWith

			acct.Items = append(acct.Items, bucket)
			acct.TotalIncome = acct.TotalIncome.Add(bucket.Income)
			acct.TotalExpenses = acct.TotalExpenses.Add(bucket.Expenses)
		}
		acct.TotalSavings = acct.TotalIncome.Sub(acct.TotalExpenses)
		summaries = append(summaries, acct)
	}
	return summaries
}

// GoalProgressReport evaluates every goal of the user, ordered by start
// date ascending.
func (s *ReportService) GoalProgressReport(ctx context.Context, userID int64) ([]core.GoalProgress, error) {
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}

	progress := make([]core.GoalProgress, len(goals))
	g, gctx := errgroup.WithContext(ctx)
	for i, goal := range goals {
		i, goal := i, goal
		g.Go(func() error {
			p, err := s.goals.Evaluate(gctx, userID, goal)
			if err != nil {
				return err
			}
			progress[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("goal progress report: %w", err)
	}
	return progress, nil
}

func monthKey(year, month int) int {
	return year*100 + month
}
