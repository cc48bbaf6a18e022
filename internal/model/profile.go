package model

import "time"

// Profile represents a user's points, level and streak record.
//
// Level, PointsToNextLevel and TotalPointsForNextLevel are derived from Points
// and the level threshold table on every read. They are never trusted as read
// from storage, since stored values can drift if the threshold table changes.
type Profile struct {
	UserID                  string    `db:"id" json:"id"`
	Points                  int       `db:"points" json:"points"`
	Level                   int       `db:"level" json:"level"`
	PointsToNextLevel       int       `json:"points_to_next_level"`
	TotalPointsForNextLevel int       `json:"total_points_for_next_level"`
	StreakCurrent           int       `db:"streak_current" json:"streak_current"`
	StreakLongest           int       `db:"streak_longest" json:"streak_longest"`
	LastActive              time.Time `db:"last_active" json:"last_active"`
	IsPro                   bool      `db:"is_pro" json:"is_pro"`
	ActiveTab               string    `db:"points_active_tab" json:"points_active_tab"`
	CreatedAt               time.Time `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time `db:"updated_at" json:"updated_at"`
}

// ProfileUpdate carries a partial update. Nil fields are left unchanged.
type ProfileUpdate struct {
	Points        *int
	StreakCurrent *int
	StreakLongest *int
	LastActive    *time.Time
	IsPro         *bool
	ActiveTab     *string
}
