package fee

import (
	"time"

	"github.com/shopspring/decimal"
)

// daysPerMonth is the flat month length used to turn a monthly fee into a daily rate.
const daysPerMonth = 30

var (
	thirty = decimal.NewFromInt(daysPerMonth)
	day    = 24 * time.Hour
)

// Account is the fee relevant part of a Student.
type Account struct {
	StudentID   string
	CoachingID  string
	Name        string
	Email       string
	PushToken   string
	JoiningDate time.Time
	MonthlyFees decimal.Decimal
}

// Due is the derived fee position of an Account at a point in time.
type Due struct {
	DaysElapsed   int             `json:"days_elapsed"`
	DailyRate     decimal.Decimal `json:"daily_rate"`
	TotalExpected decimal.Decimal `json:"total_expected"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	Balance       decimal.Decimal `json:"balance"` // may be negative (advance)

	exact decimal.Decimal // unrounded expected
}

// AmountDue is the outstanding amount, never negative.
func (d Due) AmountDue() decimal.Decimal {
	due := d.exact.Sub(d.TotalPaid).Round(0)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// DaysElapsed counts the billed days between joined and asOf, the joining day included.
func DaysElapsed(joined, asOf time.Time) int {
	elapsed := asOf.Sub(joined)
	if elapsed < 0 {
		elapsed = 0
	}
	return int(elapsed/day) + 1
}

// DailyRate is monthly / 30, for display.
func DailyRate(monthly decimal.Decimal) decimal.Decimal {
	return monthly.Div(thirty)
}

// expected is days × monthly / 30 without rounding.
func expected(monthly decimal.Decimal, days int) decimal.Decimal {
	return monthly.Mul(decimal.NewFromInt(int64(days))).Div(thirty)
}

// ExpectedToDate is the amount accrued over days, rounded half away from zero to a whole unit.
func ExpectedToDate(monthly decimal.Decimal, days int) decimal.Decimal {
	return expected(monthly, days).Round(0)
}

// TotalPaid sums the amounts of payments without rounding.
func TotalPaid(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.AmountPaid)
	}
	return total
}

// Compute derives the fee position of acc at asOf from its payments.
func Compute(acc Account, payments []Payment, asOf time.Time) Due {
	days := DaysElapsed(acc.JoiningDate, asOf)
	exact := expected(acc.MonthlyFees, days)
	due := Due{
		DaysElapsed:   days,
		DailyRate:     DailyRate(acc.MonthlyFees).Round(2),
		TotalExpected: exact.Round(0),
		TotalPaid:     TotalPaid(payments),
		exact:         exact,
	}
	due.Balance = due.TotalExpected.Sub(due.TotalPaid)
	return due
}
