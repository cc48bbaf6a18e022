package dto

import "time"

// PointsEntryResponseDTO is a single points history row in API responses.
type PointsEntryResponseDTO struct {
	ID     int64     `json:"id"`
	Action string    `json:"action"`
	Points int       `json:"points"`
	Date   time.Time `json:"date"`
}
