package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"skillForgeAPI/services"
)

type ProgressHandler struct {
	progressService *services.ProgressService
	courseService   *services.CourseService
	userService     *services.UserService
}

func NewProgressHandler(progressService *services.ProgressService, courseService *services.CourseService, userService *services.UserService) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
		courseService:   courseService,
		userService:     userService,
	}
}

type markChapterRequest struct {
	ChapterIndex int `json:"chapter_index"`
}

func (h *ProgressHandler) MarkChapterComplete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID, ok := resolveUser(ctx, w, h.userService)
	if !ok {
		return
	}

	courseID, err := uuid.Parse(mux.Vars(r)["courseId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	var req markChapterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// The chapter count comes from the catalog, never from the client.
	c, err := h.courseService.GetCourse(ctx, courseID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Course not found")
		return
	}

	prog, err := h.progressService.MarkChapterComplete(ctx, userID, courseID, req.ChapterIndex, len(c.Chapters))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, prog)
}

func (h *ProgressHandler) GetCourseProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := resolveUser(ctx, w, h.userService)
	if !ok {
		return
	}

	courseID, err := uuid.Parse(mux.Vars(r)["courseId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	prog, err := h.progressService.GetCourseProgress(ctx, userID, courseID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch progress")
		return
	}

	chapters, err := h.progressService.GetCompletedChapters(ctx, userID, courseID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch completed chapters")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"progress":           prog,
		"completed_chapters": chapters,
	})
}

func (h *ProgressHandler) ListUserProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := resolveUser(ctx, w, h.userService)
	if !ok {
		return
	}

	progs, err := h.progressService.ListUserProgress(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch progress")
		return
	}

	respondWithJSON(w, http.StatusOK, progs)
}
