package book

type BookReq struct {
	Title           string `json:"title" validate:"required"`
	Author          string `json:"author" validate:"required"`
	ISBN            string `json:"isbn" validate:"required"`
	Category        string `json:"category" validate:"required"`
	CopiesAvailable int64  `json:"copies_available" validate:"gte=0"`
}
