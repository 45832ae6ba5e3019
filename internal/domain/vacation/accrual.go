package vacation

import (
	"context"
	"time"
)

type AccrualSummary struct {
	PeriodStart      time.Time `json:"periodStart"`
	AccrualPeriod    string    `json:"accrualPeriod"`
	EmployeesAccrued int       `json:"employeesAccrued"`
	DaysAccrued      float64   `json:"daysAccrued"`
	Skipped          bool      `json:"skipped"`
}

// ApplyAccruals credits every active employee for the period containing now.
// A period is claimed once; later runs for the same period are skipped.
func ApplyAccruals(ctx context.Context, store AccrualStore, now time.Time) (AccrualSummary, error) {
	policy, err := store.GetPolicy(ctx)
	if err != nil {
		return AccrualSummary{}, err
	}
	if !validPeriod(policy.AccrualPeriod) {
		return AccrualSummary{}, ErrInvalidPolicy
	}

	periodStart := accrualPeriodStart(now, policy.AccrualPeriod)
	summary := AccrualSummary{PeriodStart: periodStart, AccrualPeriod: policy.AccrualPeriod}

	err = store.InTx(ctx, func(tx TxStore) error {
		claimed, err := tx.ClaimAccrualRun(ctx, periodStart, policy.AccrualPeriod)
		if err != nil {
			return err
		}
		if !claimed {
			summary.Skipped = true
			return nil
		}

		employees, err := tx.ActiveEmployees(ctx)
		if err != nil {
			return err
		}
		periodEnd := accrualPeriodEnd(periodStart, policy.AccrualPeriod)
		for _, employee := range employees {
			if employee.HireDate != nil && !employee.HireDate.Before(periodEnd) {
				continue
			}
			amount := periodAccrual(EntitlementFor(policy, employee.HireDate, now), policy.AccrualPeriod)
			if employee.HireDate != nil {
				amount = proratedAccrual(amount, *employee.HireDate, periodStart, policy.AccrualPeriod)
			}
			amount = round2(amount)
			if amount <= 0 {
				continue
			}
			if err := tx.Accrue(ctx, employee.ID, amount, policy.MaxBalance); err != nil {
				return err
			}
			summary.EmployeesAccrued++
			summary.DaysAccrued = round2(summary.DaysAccrued + amount)
		}
		return tx.FinishAccrualRun(ctx, periodStart, summary.EmployeesAccrued)
	})
	if err != nil {
		return AccrualSummary{}, err
	}
	return summary, nil
}
