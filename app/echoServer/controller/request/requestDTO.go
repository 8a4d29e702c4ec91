package request

type CreateRequestReq struct {
	BookID int64  `json:"book_id" validate:"required,gt=0"`
	Notes  string `json:"notes" validate:"omitempty,max=500"`
}
