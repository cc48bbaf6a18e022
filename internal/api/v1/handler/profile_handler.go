package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
)

type ProfileHandler struct {
	profileService service.ProfileService
	historyService service.HistoryService
	validate       *validator.Validate
}

func NewProfileHandler(profileService service.ProfileService, historyService service.HistoryService, v *validator.Validate) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, historyService: historyService, validate: v}
}

// RegisterRoutes mounts v1 profile routes
func (h *ProfileHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/profiles/me", authMw(http.HandlerFunc(h.handleProfile)))
	mux.Handle("/profiles/me/points", authMw(http.HandlerFunc(h.addPoints)))
	mux.Handle("/profiles/me/history", authMw(http.HandlerFunc(h.getHistory)))
	mux.Handle("/profiles/me/tab", authMw(http.HandlerFunc(h.handleTab)))
}

func toProfileDTO(p *model.Profile) dto.ProfileResponseDTO {
	return dto.ProfileResponseDTO{
		ID:                      p.UserID,
		Points:                  p.Points,
		Level:                   p.Level,
		PointsToNextLevel:       p.PointsToNextLevel,
		TotalPointsForNextLevel: p.TotalPointsForNextLevel,
		StreakCurrent:           p.StreakCurrent,
		StreakLongest:           p.StreakLongest,
		LastActive:              p.LastActive,
		IsPro:                   p.IsPro,
		ActiveTab:               p.ActiveTab,
	}
}

func (h *ProfileHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getProfile(w, r)
	case http.MethodPatch:
		h.updateProfile(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ProfileHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	forceRefresh := r.URL.Query().Get("refresh") == "true"

	profile, err := h.profileService.Load(r.Context(), userID, forceRefresh)
	if err != nil {
		http.Error(w, "Failed to load profile: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProfileDTO(profile))
}

func (h *ProfileHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	// Only streak counters may be written directly; points mutate through
	// the award endpoint and the pro flag through billing.
	var req struct {
		StreakCurrent *int `json:"streak_current"`
		StreakLongest *int `json:"streak_longest"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.StreakCurrent == nil && req.StreakLongest == nil {
		http.Error(w, "No updatable fields in payload", http.StatusBadRequest)
		return
	}

	upd := model.ProfileUpdate{
		StreakCurrent: req.StreakCurrent,
		StreakLongest: req.StreakLongest,
	}
	profile, err := h.profileService.Update(r.Context(), userID, upd)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProfileNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, "Failed to update profile: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProfileDTO(profile))
}

func (h *ProfileHandler) addPoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	var req dto.AddPointsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := h.profileService.AddPoints(r.Context(), userID, req.Points, req.Action)
	if err != nil {
		http.Error(w, "Failed to add points: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toProfileDTO(profile))
}

func (h *ProfileHandler) getHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	forceRefresh := r.URL.Query().Get("refresh") == "true"

	entries, err := h.historyService.Load(r.Context(), userID, forceRefresh)
	if err != nil {
		http.Error(w, "Failed to retrieve points history: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Optional limit, capped at the configured fetch size the cache holds.
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		if limit < len(entries) {
			entries = entries[:limit]
		}
	}

	entryDTOs := make([]dto.PointsEntryResponseDTO, 0, len(entries))
	for _, e := range entries {
		entryDTOs = append(entryDTOs, dto.PointsEntryResponseDTO{
			ID:     e.ID,
			Action: e.Action,
			Points: e.Points,
			Date:   e.Date,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entryDTOs)
}

func (h *ProfileHandler) handleTab(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		profile, err := h.profileService.Load(r.Context(), userID, false)
		if err != nil {
			http.Error(w, "Failed to load profile: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(dto.ActiveTabDTO{Tab: profile.ActiveTab})

	case http.MethodPut:
		var req dto.ActiveTabDTO
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.validate.Struct(&req); err != nil {
			http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
			return
		}
		profile, err := h.profileService.SetActiveTab(r.Context(), userID, req.Tab)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidTab):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, service.ErrProfileNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			default:
				http.Error(w, "Failed to persist tab: "+err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(dto.ActiveTabDTO{Tab: profile.ActiveTab})

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}
