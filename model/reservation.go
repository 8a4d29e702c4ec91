package model

import "time"

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationFulfilled ReservationStatus = "fulfilled"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation queues a user for a book that is out of stock.
// Terminal once non-active.
type Reservation struct {
	ID          int64             `json:"id" db:"id"`
	UserID      int64             `json:"user_id" db:"user_id"`
	BookID      int64             `json:"book_id" db:"book_id"`
	Status      ReservationStatus `json:"status" db:"status"`
	ReservedAt  time.Time         `json:"reserved_at" db:"reserved_at"`
	FulfilledAt *time.Time        `json:"fulfilled_at,omitempty" db:"fulfilled_at"`
	CancelledAt *time.Time        `json:"cancelled_at,omitempty" db:"cancelled_at"`
}
