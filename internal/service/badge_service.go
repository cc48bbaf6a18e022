package service

import (
	"context"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// badgeDef is a static badge definition plus the goal its progress tracks.
type badgeDef struct {
	id          int
	name        string
	description string
	icon        string
	goal        int
	metric      func(p *model.Profile, s *model.ActivityStats) int
}

var badgeDefs = []badgeDef{
	{
		id: 1, name: "Quiz Master", icon: "🏆", goal: 10,
		description: "Complete 10 quizzes with 90% or higher score",
		metric:      func(_ *model.Profile, s *model.ActivityStats) int { return s.QuizActions },
	},
	{
		id: 2, name: "Streak Champion", icon: "🔥", goal: 7,
		description: "Maintain a 7-day study streak",
		metric:      func(p *model.Profile, _ *model.ActivityStats) int { return p.StreakLongest },
	},
	{
		id: 3, name: "Flashcard Pro", icon: "🧠", goal: 100,
		description: "Create and review 100 flashcards",
		metric:      func(_ *model.Profile, s *model.ActivityStats) int { return s.FlashcardActions },
	},
	{
		id: 4, name: "Early Bird", icon: "🌅", goal: 5,
		description: "Complete 5 study sessions before 9 AM",
		metric:      func(_ *model.Profile, s *model.ActivityStats) int { return s.EarlySessions },
	},
	{
		id: 5, name: "Night Owl", icon: "🌙", goal: 5,
		description: "Complete 5 study sessions after 10 PM",
		metric:      func(_ *model.Profile, s *model.ActivityStats) int { return s.LateSessions },
	},
	{
		id: 6, name: "Speed Learner", icon: "⚡", goal: 1,
		description: "Complete a quiz in under 2 minutes with 80% score",
		metric:      func(_ *model.Profile, s *model.ActivityStats) int { return s.SpeedLearner },
	},
}

// BadgeService computes badge progress from profile stats and points history.
type BadgeService interface {
	List(ctx context.Context, userID string) ([]model.Badge, error)
}

type badgeService struct {
	profileSvc ProfileService
	histRepo   repository.HistoryRepository
	logger     zerolog.Logger
}

// NewBadgeService creates a new BadgeService with a scoped logger.
func NewBadgeService(profileSvc ProfileService, histRepo repository.HistoryRepository, logger zerolog.Logger) BadgeService {
	return &badgeService{
		profileSvc: profileSvc,
		histRepo:   histRepo,
		logger:     logger.With().Str("service", "BadgeService").Logger(),
	}
}

// List returns every badge with the user's progress toward it. A failed read
// degrades to the definitions with zero progress rather than an error.
func (s *badgeService) List(ctx context.Context, userID string) ([]model.Badge, error) {
	profile, perr := s.profileSvc.Load(ctx, userID, false)
	stats, serr := s.histRepo.GetActivityStats(ctx, userID)
	if perr != nil || serr != nil {
		if perr != nil {
			s.logger.Error().Err(perr).Str("user_id", userID).Msg("Failed to load profile for badges, using defaults")
		}
		if serr != nil {
			s.logger.Error().Err(serr).Str("user_id", userID).Msg("Failed to load activity stats for badges, using defaults")
		}
		profile = &model.Profile{UserID: userID}
		stats = &model.ActivityStats{}
	}

	badges := make([]model.Badge, 0, len(badgeDefs))
	for _, def := range badgeDefs {
		value := def.metric(profile, stats)
		progress := value * 100 / def.goal
		if progress > 100 {
			progress = 100
		}
		badges = append(badges, model.Badge{
			ID:          def.id,
			Name:        def.name,
			Description: def.description,
			Icon:        def.icon,
			Progress:    progress,
			Earned:      value >= def.goal,
		})
	}
	return badges, nil
}
