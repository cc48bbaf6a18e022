package dto

import "time"

// ProfileResponseDTO is returned in API responses. Level fields are derived
// server-side on every read.
type ProfileResponseDTO struct {
	ID                      string    `json:"id"`
	Points                  int       `json:"points"`
	Level                   int       `json:"level"`
	PointsToNextLevel       int       `json:"points_to_next_level"`
	TotalPointsForNextLevel int       `json:"total_points_for_next_level"`
	StreakCurrent           int       `json:"streak_current"`
	StreakLongest           int       `json:"streak_longest"`
	LastActive              time.Time `json:"last_active"`
	IsPro                   bool      `json:"is_pro"`
	ActiveTab               string    `json:"points_active_tab"`
}

// AddPointsDTO is used for incoming point-award requests.
type AddPointsDTO struct {
	Points int    `json:"points" validate:"required,gt=0"`
	Action string `json:"action" validate:"required,max=200"`
}

// ActiveTabDTO carries the persisted points tab selection.
type ActiveTabDTO struct {
	Tab string `json:"tab" validate:"required"`
}
