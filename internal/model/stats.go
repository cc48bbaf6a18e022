package model

// ActivityStats aggregates points history for badge progress.
type ActivityStats struct {
	QuizActions      int
	FlashcardActions int
	EarlySessions    int
	LateSessions     int
	SpeedLearner     int
}
