package borrow

type IssueReq struct {
	UserID  int64  `json:"user_id" validate:"required,gt=0"`
	BookID  int64  `json:"book_id" validate:"required,gt=0"`
	DueDate string `json:"due_date" validate:"required"` // RFC 3339
	Notes   string `json:"notes" validate:"omitempty,max=500"`
}
