package dto

// BadgeResponseDTO is a badge with the user's progress toward earning it.
type BadgeResponseDTO struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Progress    int    `json:"progress"`
	Earned      bool   `json:"earned"`
}
