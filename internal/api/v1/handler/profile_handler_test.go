package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"

	"github.com/go-playground/validator/v10"
)

type stubProfileService struct {
	profile   *model.Profile
	addPoints int
	addAction string
}

func (s *stubProfileService) Load(_ context.Context, _ string, _ bool) (*model.Profile, error) {
	return s.profile, nil
}

func (s *stubProfileService) Update(_ context.Context, _ string, _ model.ProfileUpdate) (*model.Profile, error) {
	return s.profile, nil
}

func (s *stubProfileService) AddPoints(_ context.Context, _ string, points int, action string) (*model.Profile, error) {
	s.addPoints = points
	s.addAction = action
	return s.profile, nil
}

func (s *stubProfileService) SetActiveTab(_ context.Context, _, tab string) (*model.Profile, error) {
	s.profile.ActiveTab = tab
	return s.profile, nil
}

type stubHistoryService struct {
	entries []model.PointsEntry
}

func (s *stubHistoryService) Load(_ context.Context, _ string, _ bool) ([]model.PointsEntry, error) {
	return s.entries, nil
}

func authedRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(req.Context(), middleware.UserContextKey, "user-1")
	ctx = context.WithValue(ctx, middleware.EmailContextKey, "u@example.com")
	return req.WithContext(ctx)
}

func newTestProfileHandler(profileSvc *stubProfileService, historySvc *stubHistoryService) *ProfileHandler {
	return NewProfileHandler(profileSvc, historySvc, validator.New(validator.WithRequiredStructEnabled()))
}

func TestGetProfileReturnsDTO(t *testing.T) {
	profileSvc := &stubProfileService{profile: &model.Profile{
		UserID: "user-1", Points: 1250, Level: 4, PointsToNextLevel: 750, TotalPointsForNextLevel: 1000,
	}}
	h := newTestProfileHandler(profileSvc, &stubHistoryService{})

	rec := httptest.NewRecorder()
	h.getProfile(rec, authedRequest(http.MethodGet, "/profiles/me", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp dto.ProfileResponseDTO
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Points != 1250 || resp.Level != 4 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestGetProfileRequiresIdentity(t *testing.T) {
	h := newTestProfileHandler(&stubProfileService{}, &stubHistoryService{})

	rec := httptest.NewRecorder()
	h.getProfile(rec, httptest.NewRequest(http.MethodGet, "/profiles/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rec.Code)
	}
}

func TestAddPointsValidatesPayload(t *testing.T) {
	profileSvc := &stubProfileService{profile: &model.Profile{UserID: "user-1"}}
	h := newTestProfileHandler(profileSvc, &stubHistoryService{})

	rec := httptest.NewRecorder()
	h.addPoints(rec, authedRequest(http.MethodPost, "/profiles/me/points", `{"points": 0, "action": "noop"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero points, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.addPoints(rec, authedRequest(http.MethodPost, "/profiles/me/points", `{"points": 50, "action": "Completed Quiz"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if profileSvc.addPoints != 50 || profileSvc.addAction != "Completed Quiz" {
		t.Fatalf("unexpected award: %d %q", profileSvc.addPoints, profileSvc.addAction)
	}
}

func TestGetHistoryAppliesLimit(t *testing.T) {
	entries := make([]model.PointsEntry, 0, 5)
	for i := 0; i < 5; i++ {
		entries = append(entries, model.PointsEntry{
			ID: int64(5 - i), UserID: "user-1", Action: "Completed Quiz", Points: 10,
			Date: time.Now().Add(-time.Duration(i) * time.Hour),
		})
	}
	h := newTestProfileHandler(&stubProfileService{}, &stubHistoryService{entries: entries})

	rec := httptest.NewRecorder()
	h.getHistory(rec, authedRequest(http.MethodGet, "/profiles/me/history?limit=3", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp []dto.PointsEntryResponseDTO
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(resp))
	}

	rec = httptest.NewRecorder()
	h.getHistory(rec, authedRequest(http.MethodGet, "/profiles/me/history?limit=abc", ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed limit, got %d", rec.Code)
	}
}

func TestHandleTabPersistsSelection(t *testing.T) {
	profileSvc := &stubProfileService{profile: &model.Profile{UserID: "user-1", ActiveTab: "overview"}}
	h := newTestProfileHandler(profileSvc, &stubHistoryService{})

	rec := httptest.NewRecorder()
	h.handleTab(rec, authedRequest(http.MethodPut, "/profiles/me/tab", `{"tab": "history"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.handleTab(rec, authedRequest(http.MethodGet, "/profiles/me/tab", ""))
	var resp dto.ActiveTabDTO
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Tab != "history" {
		t.Fatalf("expected persisted tab history, got %q", resp.Tab)
	}
}
