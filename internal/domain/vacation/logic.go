package vacation

import (
	"math"
	"time"

	"vacations/internal/domain/calendar"
)

// MaxQuoteDays bounds the business-day count of a single quote or request.
const MaxQuoteDays = 3660

// QuoteRange counts business days between start and end, after rolling start
// forward to a business day.
func QuoteRange(start, end time.Time) (Quote, error) {
	from := calendar.NextBusinessDay(start)
	to := calendar.Day(end)
	if to.Before(calendar.Day(start)) {
		return Quote{}, ErrInvalidDates
	}
	days := calendar.CountBusinessDays(from, to)
	if days == 0 {
		return Quote{}, ErrInvalidDates
	}
	return Quote{StartDate: from, EndDate: to, Days: days}, nil
}

// QuoteDays finds the end date covering the given number of business days.
func QuoteDays(start time.Time, days int) (Quote, error) {
	end, err := calendar.AdvanceToEndDate(start, days)
	if err != nil {
		return Quote{}, ErrInvalidDates
	}
	return Quote{StartDate: calendar.NextBusinessDay(start), EndDate: end, Days: days}, nil
}

// ResolveQuote picks QuoteDays when a day count is given, QuoteRange otherwise.
func ResolveQuote(start time.Time, end *time.Time, days int) (Quote, error) {
	if start.IsZero() {
		return Quote{}, ErrInvalidDates
	}
	if days > MaxQuoteDays {
		return Quote{}, ErrInvalidDates
	}
	if days > 0 {
		return QuoteDays(start, days)
	}
	if end == nil || end.IsZero() {
		return Quote{}, ErrInvalidDates
	}
	return QuoteRange(start, *end)
}

// YearsOfService counts completed anniversaries of hire at asOf.
func YearsOfService(hire, asOf time.Time) int {
	if asOf.Before(hire) {
		return 0
	}
	years := asOf.Year() - hire.Year()
	anniversary := hire.AddDate(years, 0, 0)
	if asOf.Before(anniversary) {
		years--
	}
	return years
}

// EntitlementFor returns the annual vacation days for an employee: the base
// allowance plus one seniority bonus per completed block of
// SeniorityAfterYears, capped at MaxAnnualDays when that is set.
func EntitlementFor(policy Policy, hireDate *time.Time, asOf time.Time) float64 {
	days := policy.AnnualDays
	if hireDate != nil && policy.SeniorityAfterYears > 0 && policy.SeniorityBonusDays > 0 {
		blocks := YearsOfService(*hireDate, asOf) / policy.SeniorityAfterYears
		days += float64(blocks) * policy.SeniorityBonusDays
	}
	if policy.MaxAnnualDays > 0 && days > policy.MaxAnnualDays {
		days = policy.MaxAnnualDays
	}
	return round2(days)
}

func accrualPeriodStart(now time.Time, period string) time.Time {
	switch period {
	case AccrualMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case AccrualYearly:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Time{}
	}
}

func accrualPeriodEnd(periodStart time.Time, period string) time.Time {
	if period == AccrualYearly {
		return periodStart.AddDate(1, 0, 0)
	}
	return periodStart.AddDate(0, 1, 0)
}

// periodAccrual is the amount credited for one full period.
func periodAccrual(entitlement float64, period string) float64 {
	if period == AccrualYearly {
		return entitlement
	}
	return entitlement / 12
}

// proratedAccrual scales amount by the share of the period left after start.
func proratedAccrual(amount float64, start, periodStart time.Time, period string) float64 {
	if !start.After(periodStart) {
		return amount
	}
	end := accrualPeriodEnd(periodStart, period)
	total := end.Sub(periodStart).Hours()
	remaining := end.Sub(start).Hours()
	if remaining <= 0 {
		return 0
	}
	return amount * (remaining / total)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func validPeriod(period string) bool {
	return period == AccrualMonthly || period == AccrualYearly
}
