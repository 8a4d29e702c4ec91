package fine

import (
	"time"

	"librarian/model"
)

const day = 24 * time.Hour

// Engine derives loan status and fines from dates. It is pure: callers
// decide what to persist.
type Engine struct {
	RatePerDay int64 // currency units per late day
}

func New(ratePerDay int64) Engine { return Engine{RatePerDay: ratePerDay} }

// DeriveStatus returns the status a record should carry at instant now.
// Returned is terminal; a live loan past its due date is overdue.
func (e Engine) DeriveStatus(status model.BorrowStatus, now, due time.Time) model.BorrowStatus {
	if status == model.StatusReturned {
		return status
	}
	if now.After(due) {
		return model.StatusOverdue
	}
	return model.StatusBorrowed
}

// Compute returns the fine for a record as of now. For returned records
// the fine is frozen at the return date; for overdue ones it accrues
// against the clock. Early or on-time returns owe nothing.
func (e Engine) Compute(status model.BorrowStatus, due time.Time, returned *time.Time, now time.Time) int64 {
	switch {
	case status == model.StatusReturned && returned != nil:
		return daysLate(due, *returned) * e.RatePerDay
	case e.DeriveStatus(status, now, due) == model.StatusOverdue:
		return daysLate(due, now) * e.RatePerDay
	default:
		return 0
	}
}

// daysLate counts full days from due to t, rounding partial days up and
// clamping to zero.
func daysLate(due, t time.Time) int64 {
	d := t.Sub(due)
	if d <= 0 {
		return 0
	}
	n := int64(d / day)
	if d%day != 0 {
		n++
	}
	return n
}
