package progress

type UpdateProgressOptions struct {
	CurrentPage *int     `json:"current_page,omitempty" validate:"omitempty,min=0"`
	Percentage  *float64 `json:"percentage,omitempty" validate:"omitempty,min=0,max=100"`
	Status      *string  `json:"status,omitempty" validate:"omitempty,oneof=pending reading finished reread paused abandoned"`
}
