package model

import "time"

type BorrowStatus string

const (
	StatusBorrowed BorrowStatus = "borrowed"
	StatusOverdue  BorrowStatus = "overdue"
	StatusReturned BorrowStatus = "returned"
)

// Active reports whether the loan still holds a copy.
func (s BorrowStatus) Active() bool { return s == StatusBorrowed || s == StatusOverdue }

// BorrowRecord is a single loan of one copy of a book to one user.
// Status and Fine are always derived from the dates; they are persisted
// for querying but never set independently.
type BorrowRecord struct {
	ID           int64        `json:"id" db:"id"`
	UserID       int64        `json:"user_id" db:"user_id"`
	BookID       int64        `json:"book_id" db:"book_id"`
	BorrowedDate time.Time    `json:"borrowed_date" db:"borrowed_date"`
	DueDate      time.Time    `json:"due_date" db:"due_date"`
	ReturnedDate *time.Time   `json:"returned_date,omitempty" db:"returned_date"`
	Status       BorrowStatus `json:"status" db:"status"`
	Fine         int64        `json:"fine" db:"fine"`
	IssuedBy     int64        `json:"issued_by" db:"issued_by"`
	Notes        *string      `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}
