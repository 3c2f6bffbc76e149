package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"skillForgeAPI/middleware"
	"skillForgeAPI/services"
)

type CourseHandler struct {
	courseService *services.CourseService
	userService   *services.UserService
}

func NewCourseHandler(courseService *services.CourseService, userService *services.UserService) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
		userService:   userService,
	}
}

func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	courses, err := h.courseService.ListCourses(ctx, false)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch courses")
		return
	}

	respondWithJSON(w, http.StatusOK, courses)
}

func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	courseID, err := uuid.Parse(mux.Vars(r)["courseId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	c, err := h.courseService.GetCourse(ctx, courseID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Course not found")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CourseHandler) ListCompetenceAreas(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	areas, err := h.courseService.ListCompetenceAreas(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch competence areas")
		return
	}

	respondWithJSON(w, http.StatusOK, areas)
}

type saveNoteRequest struct {
	ChapterIndex int    `json:"chapter_index"`
	Content      string `json:"content"`
}

func (h *CourseHandler) SaveNote(w http.ResponseWriter, r *http.Request) {
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

	var req saveNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Content == "" {
		respondWithError(w, http.StatusBadRequest, "Note content is required")
		return
	}

	note, err := h.courseService.SaveNote(ctx, userID, courseID, req.ChapterIndex, req.Content)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to save note")
		return
	}

	respondWithJSON(w, http.StatusOK, note)
}

func (h *CourseHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
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

	notes, err := h.courseService.GetNotes(ctx, userID, courseID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch notes")
		return
	}

	respondWithJSON(w, http.StatusOK, notes)
}

func (h *CourseHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := resolveUser(ctx, w, h.userService)
	if !ok {
		return
	}

	noteID, err := uuid.Parse(mux.Vars(r)["noteId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid note ID")
		return
	}

	if err := h.courseService.DeleteNote(ctx, noteID, userID); err != nil {
		respondWithError(w, http.StatusNotFound, "Note not found")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Note deleted"})
}

// resolveUser maps the authenticated clerk identity to the internal user ID,
// writing the error response itself when that fails.
func resolveUser(ctx context.Context, w http.ResponseWriter, users *services.UserService) (uuid.UUID, bool) {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return uuid.Nil, false
	}

	userID, err := users.ResolveUserID(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return uuid.Nil, false
	}

	return userID, true
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
