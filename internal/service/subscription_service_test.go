package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"app/internal/logger"
	"app/internal/model"
)

// fakeVerifier simulates the payment provider.
type fakeVerifier struct {
	status   *model.SubscriptionStatus
	interval string
	err      error
	calls    int
}

func (f *fakeVerifier) Verify(_ context.Context, _, _ string) (*model.SubscriptionStatus, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return f.status, f.interval, nil
}

// fakeSubRepo is an in-memory subscription mirror.
type fakeSubRepo struct {
	sub     *model.Subscription
	getErr  error
	history int
}

func (r *fakeSubRepo) GetSubscription(_ context.Context, _ string) (*model.Subscription, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.sub, nil
}

func (r *fakeSubRepo) UpsertSubscription(_ context.Context, sub *model.Subscription) error {
	r.sub = sub
	return nil
}

func (r *fakeSubRepo) InsertHistory(_ context.Context, _, _, _, _ string, _ int64) error {
	r.history++
	return nil
}

func proStatus(expiresAt time.Time) *model.SubscriptionStatus {
	return &model.SubscriptionStatus{IsSubscribed: true, Plan: model.PlanPro, ExpiresAt: &expiresAt}
}

func TestCheckMirrorsProviderResult(t *testing.T) {
	expires := time.Now().Add(30 * 24 * time.Hour)
	verifier := &fakeVerifier{status: proStatus(expires), interval: "month"}
	repo := &fakeSubRepo{}
	svc := NewSubscriptionService(repo, verifier, time.Minute, nil, logger.New())

	status, err := svc.Check(context.Background(), "user-1", "u@example.com")
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !status.IsSubscribed || status.Plan != model.PlanPro {
		t.Fatalf("expected pro status, got %+v", status)
	}
	if repo.sub == nil || repo.sub.Status != "active" || repo.sub.PlanType != model.PlanPro {
		t.Fatalf("expected active pro mirror, got %+v", repo.sub)
	}
	if repo.history != 1 {
		t.Fatalf("expected one verification history entry, got %d", repo.history)
	}
}

func TestCheckSuppressedWithinGap(t *testing.T) {
	now := time.Unix(1700000000, 0)
	verifier := &fakeVerifier{status: proStatus(now.Add(24 * time.Hour))}
	svc := NewSubscriptionService(&fakeSubRepo{}, verifier, time.Minute, func() time.Time { return now }, logger.New())

	if _, err := svc.Check(context.Background(), "user-1", "u@example.com"); err != nil {
		t.Fatalf("first Check returned error: %v", err)
	}
	status, err := svc.Check(context.Background(), "user-1", "u@example.com")
	if err != nil {
		t.Fatalf("second Check returned error: %v", err)
	}
	if verifier.calls != 1 {
		t.Fatalf("expected the second check to be suppressed, provider called %d times", verifier.calls)
	}
	if !status.IsSubscribed {
		t.Fatal("expected suppressed check to return the previous status")
	}
}

func TestCheckNotSuppressedAcrossGap(t *testing.T) {
	now := time.Unix(1700000000, 0)
	verifier := &fakeVerifier{status: proStatus(now.Add(24 * time.Hour))}
	svc := NewSubscriptionService(&fakeSubRepo{}, verifier, time.Minute, func() time.Time { return now }, logger.New())

	if _, err := svc.Check(context.Background(), "user-1", "u@example.com"); err != nil {
		t.Fatalf("first Check returned error: %v", err)
	}
	now = now.Add(61 * time.Second)
	if _, err := svc.Check(context.Background(), "user-1", "u@example.com"); err != nil {
		t.Fatalf("second Check returned error: %v", err)
	}
	if verifier.calls != 2 {
		t.Fatalf("expected a fresh provider check after the gap, got %d calls", verifier.calls)
	}
}

func TestCheckFailureIsNotCachedForSuppression(t *testing.T) {
	verifier := &fakeVerifier{err: errors.New("provider down")}
	svc := NewSubscriptionService(&fakeSubRepo{}, verifier, time.Minute, nil, logger.New())

	if _, err := svc.Check(context.Background(), "user-1", "u@example.com"); err != nil {
		t.Fatalf("first Check returned error: %v", err)
	}
	if _, err := svc.Check(context.Background(), "user-1", "u@example.com"); err != nil {
		t.Fatalf("second Check returned error: %v", err)
	}
	if verifier.calls != 2 {
		t.Fatalf("expected failed checks to retry the provider, got %d calls", verifier.calls)
	}
}

func TestCheckFallsBackToValidMirror(t *testing.T) {
	expires := time.Now().Add(10 * 24 * time.Hour)
	verifier := &fakeVerifier{err: errors.New("provider down")}
	repo := &fakeSubRepo{sub: &model.Subscription{
		UserID:    "user-1",
		PlanType:  model.PlanPro,
		Status:    "active",
		ExpiresAt: &expires,
	}}
	svc := NewSubscriptionService(repo, verifier, time.Minute, nil, logger.New())

	status, err := svc.Check(context.Background(), "user-1", "u@example.com")
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if !status.IsSubscribed || status.Plan != model.PlanPro {
		t.Fatalf("expected mirrored pro status, got %+v", status)
	}
}

func TestCheckExpiredMirrorReportsFree(t *testing.T) {
	expires := time.Now().Add(-time.Hour)
	verifier := &fakeVerifier{err: errors.New("provider down")}
	repo := &fakeSubRepo{sub: &model.Subscription{
		UserID:    "user-1",
		PlanType:  model.PlanPro,
		Status:    "active",
		ExpiresAt: &expires,
	}}
	svc := NewSubscriptionService(repo, verifier, time.Minute, nil, logger.New())

	status, err := svc.Check(context.Background(), "user-1", "u@example.com")
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if status.IsSubscribed || status.Plan != model.PlanFree {
		t.Fatalf("expected a stale pro mirror to degrade to free, got %+v", status)
	}
}

func TestCheckNoMirrorReportsFree(t *testing.T) {
	verifier := &fakeVerifier{err: errors.New("provider down")}
	svc := NewSubscriptionService(&fakeSubRepo{}, verifier, time.Minute, nil, logger.New())

	status, err := svc.Check(context.Background(), "user-1", "u@example.com")
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if status.IsSubscribed || status.Plan != model.PlanFree {
		t.Fatalf("expected free status without a mirror, got %+v", status)
	}
}

func TestCheckInactiveProviderResultMirrorsInactive(t *testing.T) {
	verifier := &fakeVerifier{status: &model.SubscriptionStatus{IsSubscribed: false, Plan: model.PlanFree}}
	repo := &fakeSubRepo{}
	svc := NewSubscriptionService(repo, verifier, time.Minute, nil, logger.New())

	status, err := svc.Check(context.Background(), "user-1", "u@example.com")
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if status.IsSubscribed {
		t.Fatal("expected unsubscribed status")
	}
	if repo.sub == nil || repo.sub.Status != "inactive" {
		t.Fatalf("expected inactive mirror row, got %+v", repo.sub)
	}
	if repo.history != 0 {
		t.Fatalf("expected no verification history for free users, got %d", repo.history)
	}
}
