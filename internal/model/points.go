package model

import "time"

// PointsEntry is a single point-earning event. Entries are append-only; one
// entry is created per point award and never mutated or deleted.
type PointsEntry struct {
	ID     int64     `db:"id" json:"id"`
	UserID string    `db:"user_id" json:"user_id"`
	Action string    `db:"action" json:"action"`
	Points int       `db:"points" json:"points"`
	Date   time.Time `db:"date" json:"date"`
}
