package notifications

const (
	TypeVacationSubmitted = "vacation_submitted"
	TypeVacationEscalated = "vacation_escalated"
	TypeVacationApproved  = "vacation_approved"
	TypeVacationRejected  = "vacation_rejected"
	TypeVacationCancelled = "vacation_cancelled"
	TypeBalanceAdjusted   = "balance_adjusted"
	TypePasswordReset     = "password_reset"
)
