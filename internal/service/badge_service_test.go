package service

import (
	"context"
	"errors"
	"testing"

	"app/internal/logger"
	"app/internal/model"
)

// fakeProfileService returns a fixed profile for badge tests.
type fakeProfileService struct {
	profile *model.Profile
	err     error
}

func (f *fakeProfileService) Load(_ context.Context, _ string, _ bool) (*model.Profile, error) {
	return f.profile, f.err
}

func (f *fakeProfileService) Update(_ context.Context, _ string, _ model.ProfileUpdate) (*model.Profile, error) {
	return f.profile, f.err
}

func (f *fakeProfileService) AddPoints(_ context.Context, _ string, _ int, _ string) (*model.Profile, error) {
	return f.profile, f.err
}

func (f *fakeProfileService) SetActiveTab(_ context.Context, _, _ string) (*model.Profile, error) {
	return f.profile, f.err
}

func findBadge(t *testing.T, badges []model.Badge, name string) model.Badge {
	t.Helper()
	for _, b := range badges {
		if b.Name == name {
			return b
		}
	}
	t.Fatalf("badge %q not found", name)
	return model.Badge{}
}

func TestBadgeProgressFromStats(t *testing.T) {
	profileSvc := &fakeProfileService{profile: &model.Profile{UserID: "user-1", StreakLongest: 7}}
	histRepo := &fakeHistoryRepo{stats: &model.ActivityStats{
		QuizActions:      7,
		FlashcardActions: 45,
		EarlySessions:    4,
	}}
	svc := NewBadgeService(profileSvc, histRepo, logger.New())

	badges, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(badges) != 6 {
		t.Fatalf("expected 6 badges, got %d", len(badges))
	}

	quiz := findBadge(t, badges, "Quiz Master")
	if quiz.Progress != 70 || quiz.Earned {
		t.Fatalf("expected quiz badge at 70%% unearned, got %d%% earned=%v", quiz.Progress, quiz.Earned)
	}

	streak := findBadge(t, badges, "Streak Champion")
	if streak.Progress != 100 || !streak.Earned {
		t.Fatalf("expected streak badge earned at 100%%, got %d%% earned=%v", streak.Progress, streak.Earned)
	}

	early := findBadge(t, badges, "Early Bird")
	if early.Progress != 80 || early.Earned {
		t.Fatalf("expected early bird at 80%% unearned, got %d%% earned=%v", early.Progress, early.Earned)
	}
}

func TestBadgeProgressCapsAtHundred(t *testing.T) {
	profileSvc := &fakeProfileService{profile: &model.Profile{UserID: "user-1", StreakLongest: 30}}
	histRepo := &fakeHistoryRepo{stats: &model.ActivityStats{QuizActions: 50}}
	svc := NewBadgeService(profileSvc, histRepo, logger.New())

	badges, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	quiz := findBadge(t, badges, "Quiz Master")
	if quiz.Progress != 100 || !quiz.Earned {
		t.Fatalf("expected capped progress 100%% earned, got %d%% earned=%v", quiz.Progress, quiz.Earned)
	}
}

func TestBadgeListDegradesOnError(t *testing.T) {
	profileSvc := &fakeProfileService{err: errors.New("db down")}
	histRepo := &fakeHistoryRepo{err: errors.New("db down")}
	svc := NewBadgeService(profileSvc, histRepo, logger.New())

	badges, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("expected degraded result, got error: %v", err)
	}
	if len(badges) != 6 {
		t.Fatalf("expected all badge definitions, got %d", len(badges))
	}
	for _, b := range badges {
		if b.Progress != 0 || b.Earned {
			t.Fatalf("expected zero progress on degraded badge %q, got %d%% earned=%v", b.Name, b.Progress, b.Earned)
		}
	}
}
