package model

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// BorrowRequest is a user's petition to borrow a book; an admin approves
// or rejects it. Terminal once non-pending.
type BorrowRequest struct {
	ID          int64         `json:"id" db:"id"`
	UserID      int64         `json:"user_id" db:"user_id"`
	BookID      int64         `json:"book_id" db:"book_id"`
	Status      RequestStatus `json:"status" db:"status"`
	RequestedAt time.Time     `json:"requested_at" db:"requested_at"`
	ApprovedAt  *time.Time    `json:"approved_at,omitempty" db:"approved_at"`
	RejectedAt  *time.Time    `json:"rejected_at,omitempty" db:"rejected_at"`
	AdminID     *int64        `json:"admin_id,omitempty" db:"admin_id"`
	Notes       *string       `json:"notes,omitempty" db:"notes"`
}
