package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"

	"github.com/rs/zerolog"
)

type BadgeHandler struct {
	badgeService service.BadgeService
	logger       zerolog.Logger
}

func NewBadgeHandler(badgeService service.BadgeService, logger zerolog.Logger) *BadgeHandler {
	return &BadgeHandler{badgeService: badgeService, logger: logger}
}

// RegisterRoutes mounts v1 badge routes
func (h *BadgeHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/badges", authMw(http.HandlerFunc(h.listBadges)))
}

func (h *BadgeHandler) listBadges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: user ID not found in context", http.StatusUnauthorized)
		return
	}

	badges, err := h.badgeService.List(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to retrieve badges: "+err.Error(), http.StatusInternalServerError)
		return
	}

	badgeDTOs := make([]dto.BadgeResponseDTO, 0, len(badges))
	for _, b := range badges {
		badgeDTOs = append(badgeDTOs, dto.BadgeResponseDTO{
			ID:          b.ID,
			Name:        b.Name,
			Description: b.Description,
			Icon:        b.Icon,
			Progress:    b.Progress,
			Earned:      b.Earned,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(badgeDTOs)
}
