package certificate

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Certificate struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	Name             string         `json:"name" db:"name"`
	Description      string         `json:"description" db:"description"`
	CertificateType  string         `json:"certificate_type" db:"certificate_type"`
	PointsRequired   int            `json:"points_required" db:"points_required"`
	CompetenceAreaID *uuid.UUID     `json:"competence_area_id,omitempty" db:"competence_area_id"`
	TemplateData     map[string]any `json:"template_data,omitempty" db:"template_data"`
	Active           bool           `json:"active" db:"active"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
}

type UserCertificate struct {
	ID               uuid.UUID `json:"id" db:"id"`
	UserID           uuid.UUID `json:"user_id" db:"user_id"`
	CertificateID    uuid.UUID `json:"certificate_id" db:"certificate_id"`
	IssuedAt         time.Time `json:"issued_at" db:"issued_at"`
	VerificationCode string    `json:"verification_code" db:"verification_code"`
	Revoked          bool      `json:"revoked" db:"revoked"`
}

// VerificationCodeBytes is the entropy of a verification code. Codes are
// hex encoded, so the public string is twice this length.
const VerificationCodeBytes = 16

// NewVerificationCode returns a random hex token used for public
// certificate lookups. Uniqueness is enforced by the store; callers retry
// on insert conflict.
func NewVerificationCode() (string, error) {
	buf := make([]byte, VerificationCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
