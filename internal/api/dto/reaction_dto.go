package dto

type ToggleReactionDTO struct {
	Kind    string  `json:"kind" binding:"required" validate:"min=1,max=16"`
	Current *string `json:"current,omitempty" validate:"omitempty,min=1,max=16"`
}

// ReactionAggregateDTO 单个对象的回应汇总
type ReactionAggregateDTO struct {
	SubjectType string         `json:"subjectType"`
	SubjectID   uint64         `json:"subjectId"`
	Counts      map[string]int `json:"counts"`
	Total       int            `json:"total"`
	Mine        *string        `json:"mine,omitempty"`
}

type ToggleReactionResultDTO struct {
	SubjectType string  `json:"subjectType"`
	SubjectID   uint64  `json:"subjectId"`
	Kind        *string `json:"kind"`
}
