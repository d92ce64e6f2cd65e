package dto

type CreateCommentDTO struct {
	Content  string  `json:"content" binding:"required" validate:"min=1,max=2000"`
	ParentID *uint64 `json:"parentId,omitempty"`
}

type UpdateCommentDTO struct {
	Content string `json:"content" binding:"required" validate:"min=1,max=2000"`
}
