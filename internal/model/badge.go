package model

// Badge is an achievement with progress toward earning it. Definitions are
// static; progress is computed from profile stats and points history.
type Badge struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Progress    int    `json:"progress"`
	Earned      bool   `json:"earned"`
}
