package model

import "time"

type Book struct {
	ID              int64     `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Author          string    `json:"author" db:"author"`
	ISBN            string    `json:"isbn" db:"isbn"`
	Category        string    `json:"category" db:"category"`
	CopiesAvailable int64     `json:"copies_available" db:"copies_available"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
