package handlers

import (
	"context"
	"net/http"
	"time"

	"skillForgeAPI/internal/streak"
	"skillForgeAPI/services"
)

type GamificationHandler struct {
	pointsService *services.PointsService
	badgeService  *services.BadgeService
	streakService *services.StreakService
	userService   *services.UserService
}

func NewGamificationHandler(pointsService *services.PointsService, badgeService *services.BadgeService, streakService *services.StreakService, userService *services.UserService) *GamificationHandler {
	return &GamificationHandler{
		pointsService: pointsService,
		badgeService:  badgeService,
		streakService: streakService,
		userService:   userService,
	}
}

func (h *GamificationHandler) GetTotalPoints(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := resolveUser(ctx, w, h.userService)
	if !ok {
		return
	}

	total, err := h.pointsService.GetTotalPoints(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch points")
		return
	}

	respondWithJSON(w, http.StatusOK, total)
}

func (h *GamificationHandler) GetPointsHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := resolveUser(ctx, w, h.userService)
	if !ok {
		return
	}

	entries, err := h.pointsService.GetHistory(ctx, userID, queryLimit(r, 50))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch points history")
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}

func (h *GamificationHandler) ListBadges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := resolveUser(ctx, w, h.userService)
	if !ok {
		return
	}

	badges, err := h.badgeService.ListBadges(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch badges")
		return
	}

	respondWithJSON(w, http.StatusOK, badges)
}

func (h *GamificationHandler) CheckBadges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID, ok := resolveUser(ctx, w, h.userService)
	if !ok {
		return
	}

	awarded, err := h.badgeService.CheckAndAwardBadges(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to evaluate badges")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"newly_awarded": awarded,
		"count":         len(awarded),
	})
}

func (h *GamificationHandler) RecordStudyActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := resolveUser(ctx, w, h.userService)
	if !ok {
		return
	}

	if err := h.streakService.RecordDailyActivity(ctx, userID, streak.ActivityStudy); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to record activity")
		return
	}

	current, err := h.streakService.GetCurrentStreak(ctx, userID, streak.ActivityStudy)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch streak")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"current_streak": current})
}

func (h *GamificationHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := resolveUser(ctx, w, h.userService)
	if !ok {
		return
	}

	activityType := streak.ActivityStudy
	if r.URL.Query().Get("type") == string(streak.ActivityLogin) {
		activityType = streak.ActivityLogin
	}

	current, err := h.streakService.GetCurrentStreak(ctx, userID, activityType)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch streak")
		return
	}

	longest, err := h.streakService.GetLongestStreak(ctx, userID, activityType)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch streak")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"activity_type":  activityType,
		"current_streak": current,
		"longest_streak": longest,
	})
}
