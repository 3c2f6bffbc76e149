package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"skillForgeAPI/internal/course"
	"skillForgeAPI/internal/points"
	"skillForgeAPI/internal/user"
	"skillForgeAPI/middleware"
	"skillForgeAPI/services"
)

// AdminHandler groups the management surface. Every method checks the
// caller's role before touching anything.
type AdminHandler struct {
	userService        *services.UserService
	courseService      *services.CourseService
	badgeService       *services.BadgeService
	certificateService *services.CertificateService
	pointsService      *services.PointsService
}

func NewAdminHandler(userService *services.UserService, courseService *services.CourseService, badgeService *services.BadgeService, certificateService *services.CertificateService, pointsService *services.PointsService) *AdminHandler {
	return &AdminHandler{
		userService:        userService,
		courseService:      courseService,
		badgeService:       badgeService,
		certificateService: certificateService,
		pointsService:      pointsService,
	}
}

func (h *AdminHandler) requireAdmin(ctx context.Context, w http.ResponseWriter) bool {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return false
	}

	isAdmin, err := h.userService.IsAdmin(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to check permissions")
		return false
	}
	if !isAdmin {
		respondWithError(w, http.StatusForbidden, "Admin access required")
		return false
	}

	return true
}

func (h *AdminHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if !h.requireAdmin(ctx, w) {
		return
	}

	var req course.CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.courseService.CreateCourse(ctx, &req)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

func (h *AdminHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if !h.requireAdmin(ctx, w) {
		return
	}

	courseID, err := uuid.Parse(mux.Vars(r)["courseId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	var req course.UpdateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.courseService.UpdateCourse(ctx, courseID, &req)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h *AdminHandler) SetCourseActive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !h.requireAdmin(ctx, w) {
		return
	}

	courseID, err := uuid.Parse(mux.Vars(r)["courseId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.courseService.SetCourseActive(ctx, courseID, req.Active); err != nil {
		respondWithError(w, http.StatusNotFound, "Course not found")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Course updated"})
}

func (h *AdminHandler) CreateBadge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !h.requireAdmin(ctx, w) {
		return
	}

	var req services.CreateBadgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b, err := h.badgeService.CreateBadge(ctx, &req)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, b)
}

func (h *AdminHandler) SetBadgeActive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !h.requireAdmin(ctx, w) {
		return
	}

	badgeID, err := uuid.Parse(mux.Vars(r)["badgeId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid badge ID")
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.badgeService.SetBadgeActive(ctx, badgeID, req.Active); err != nil {
		respondWithError(w, http.StatusNotFound, "Badge not found")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Badge updated"})
}

type grantBadgeRequest struct {
	UserID string `json:"user_id"`
}

func (h *AdminHandler) GrantBadge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if !h.requireAdmin(ctx, w) {
		return
	}

	badgeID, err := uuid.Parse(mux.Vars(r)["badgeId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid badge ID")
		return
	}

	var req grantBadgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	b, err := h.badgeService.GrantBadge(ctx, userID, badgeID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, b)
}

func (h *AdminHandler) CreateCertificate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !h.requireAdmin(ctx, w) {
		return
	}

	var req services.CreateCertificateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.certificateService.CreateCertificate(ctx, &req)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

func (h *AdminHandler) SetCertificateActive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !h.requireAdmin(ctx, w) {
		return
	}

	certificateID, err := uuid.Parse(mux.Vars(r)["certificateId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid certificate ID")
		return
	}

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.certificateService.SetCertificateActive(ctx, certificateID, req.Active); err != nil {
		respondWithError(w, http.StatusNotFound, "Certificate not found")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Certificate updated"})
}

func (h *AdminHandler) RevokeCertificate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !h.requireAdmin(ctx, w) {
		return
	}

	userCertificateID, err := uuid.Parse(mux.Vars(r)["userCertificateId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid certificate ID")
		return
	}

	if err := h.certificateService.Revoke(ctx, userCertificateID); err != nil {
		respondWithError(w, http.StatusNotFound, "Certificate not found")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Certificate revoked"})
}

type setRoleRequest struct {
	Role string `json:"role"`
}

func (h *AdminHandler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !h.requireAdmin(ctx, w) {
		return
	}

	targetID, err := uuid.Parse(mux.Vars(r)["userId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	role := user.Role(req.Role)
	if role != user.RoleUser && role != user.RoleAdmin {
		respondWithError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	if err := h.userService.SetUserRole(ctx, targetID, role); err != nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Role updated"})
}

type grantPointsRequest struct {
	UserID string `json:"user_id"`
	Points int    `json:"points"`
}

func (h *AdminHandler) GrantPoints(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if !h.requireAdmin(ctx, w) {
		return
	}

	var req grantPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	total, err := h.pointsService.AwardPoints(ctx, userID, req.Points, points.ActivityAdminGrant, nil)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, total)
}

func (h *AdminHandler) ListAllCourses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !h.requireAdmin(ctx, w) {
		return
	}

	courses, err := h.courseService.ListCourses(ctx, true)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch courses")
		return
	}

	respondWithJSON(w, http.StatusOK, courses)
}
