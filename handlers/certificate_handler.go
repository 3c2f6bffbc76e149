package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"skillForgeAPI/services"
)

type CertificateHandler struct {
	certificateService *services.CertificateService
	userService        *services.UserService
}

func NewCertificateHandler(certificateService *services.CertificateService, userService *services.UserService) *CertificateHandler {
	return &CertificateHandler{
		certificateService: certificateService,
		userService:        userService,
	}
}

func (h *CertificateHandler) ListMyCertificates(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := resolveUser(ctx, w, h.userService)
	if !ok {
		return
	}

	certs, err := h.certificateService.ListUserCertificates(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch certificates")
		return
	}

	respondWithJSON(w, http.StatusOK, certs)
}

// VerifyCertificate is a public endpoint. Anyone holding a verification
// code can check a certificate without authenticating.
func (h *CertificateHandler) VerifyCertificate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	code := mux.Vars(r)["code"]
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "Verification code is required")
		return
	}

	result, err := h.certificateService.VerifyByCode(ctx, code)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to verify certificate")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *CertificateHandler) CertificateQR(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "Verification code is required")
		return
	}

	png, err := h.certificateService.VerificationQR(code)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
