package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"skillForgeAPI/internal/goal"
	"skillForgeAPI/services"
)

type GoalHandler struct {
	goalService *services.GoalService
	userService *services.UserService
}

func NewGoalHandler(goalService *services.GoalService, userService *services.UserService) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
		userService: userService,
	}
}

func (h *GoalHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := resolveUser(ctx, w, h.userService)
	if !ok {
		return
	}

	var req goal.CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	g, err := h.goalService.CreateGoal(ctx, userID, &req)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, g)
}

type updateGoalRequest struct {
	CurrentValue int `json:"current_value"`
}

func (h *GoalHandler) UpdateGoalProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := resolveUser(ctx, w, h.userService)
	if !ok {
		return
	}

	goalID, err := uuid.Parse(mux.Vars(r)["goalId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid goal ID")
		return
	}

	var req updateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	g, err := h.goalService.UpdateGoalProgress(ctx, goalID, userID, req.CurrentValue)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, g)
}

func (h *GoalHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := resolveUser(ctx, w, h.userService)
	if !ok {
		return
	}

	goals, err := h.goalService.ListGoals(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch goals")
		return
	}

	respondWithJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := resolveUser(ctx, w, h.userService)
	if !ok {
		return
	}

	goalID, err := uuid.Parse(mux.Vars(r)["goalId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid goal ID")
		return
	}

	if err := h.goalService.DeleteGoal(ctx, goalID, userID); err != nil {
		respondWithError(w, http.StatusNotFound, "Goal not found")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Goal deleted"})
}
