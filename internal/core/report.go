package core

// CategoryTotal is one row of a period report's per-category breakdown.
type CategoryTotal struct {
	CategoryID       int64
	CategoryName     string
	CategoryType     CategoryType
	Total            Money
	TransactionCount int64
}

// PeriodReport summarizes one account (or all of a user's accounts) over a
// date range. Savings excludes transfers.
type PeriodReport struct {
	AccountID       *int64
	AccountName     string
	StartDate       Date
	EndDate         Date
	PreviousBalance Money
	CurrentBalance  Money
	TotalIncome     Money
	TotalExpenses   Money
	Savings         Money
	CategorySummary []CategoryTotal
}

// MonthlyBucket is one calendar-month entry of a monthly summary. The
// transfer-adjusted fields are meaningful only where the producing summary
// says so.
type MonthlyBucket struct {
	Year         int
	Month        int
	Income       Money
	Expenses     Money
	MonthBalance Money
	// AccumulatedBalance is the running sum of MonthBalance in
	// chronological bucket order.
	AccumulatedBalance Money

	NetTransfers                    Money
	MonthBalanceWithTransfers       Money
	AccumulatedBalanceWithTransfers Money
}

// AccountMonthlySummary is the per-account breakdown of a monthly summary.
// Its buckets always carry transfer-adjusted values.
type AccountMonthlySummary struct {
	AccountID     int64
	AccountName   string
	Items         []MonthlyBucket
	TotalIncome   Money
	TotalExpenses Money
	TotalSavings  Money
}

// MonthlySummary contains one bucket per calendar month in the requested
// range, months without transactions included.
type MonthlySummary struct {
	StartMonth string
	EndMonth   string
	Items      []MonthlyBucket
	// IncludesTransfers is set when the summary was scoped to one account
	// and the top-level buckets carry transfer-adjusted values.
	IncludesTransfers bool
	TotalIncome       Money
	TotalExpenses     Money
	TotalSavings      Money
	Accounts          []AccountMonthlySummary
}

// GoalProgress pairs a goal with its computed progress metrics.
type GoalProgress struct {
	Goal               Goal
	AccumulatedValue   Money
	ProgressPercentage int
	RemainingValue     Money
	Status             GoalStatus
}
