package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	qrcode "github.com/skip2/go-qrcode"

	"skillForgeAPI/internal/certificate"
	"skillForgeAPI/internal/metrics"
	"skillForgeAPI/internal/notification"
)

const codeInsertRetries = 5

type CertificateService struct {
	db            *pgxpool.Pool
	verifyBaseURL string
	notifications *NotificationService
}

func NewCertificateService(db *pgxpool.Pool, verifyBaseURL string) *CertificateService {
	return &CertificateService{db: db, verifyBaseURL: verifyBaseURL}
}

func (s *CertificateService) SetNotificationService(n *NotificationService) {
	s.notifications = n
}

// CheckAndAwardCertificates issues every active certificate whose points
// requirement the user now meets and does not already hold non-revoked.
// The competence area reference on a certificate is carried but not
// filtered on; eligibility is a flat total-points comparison.
func (s *CertificateService) CheckAndAwardCertificates(ctx context.Context, userID uuid.UUID) error {
	var total int
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(total_points, 0) FROM user_total_points WHERE user_id = $1`,
		userID,
	).Scan(&total)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to get total points: %w", err)
		}
		total = 0
	}

	query := `
	SELECT c.id, c.name, c.points_required
	FROM certificates c
	WHERE c.active = true
		AND c.points_required <= $2
		AND NOT EXISTS (
			SELECT 1 FROM user_certificates uc
			WHERE uc.certificate_id = c.id AND uc.user_id = $1 AND uc.revoked = false
		)
	ORDER BY c.points_required ASC
	`

	rows, err := s.db.Query(ctx, query, userID, total)
	if err != nil {
		return fmt.Errorf("failed to fetch eligible certificates: %w", err)
	}

	type eligible struct {
		id   uuid.UUID
		name string
	}
	var pending []eligible
	for rows.Next() {
		var e eligible
		var required int
		if err := rows.Scan(&e.id, &e.name, &required); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan certificate: %w", err)
		}
		pending = append(pending, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, e := range pending {
		issued, err := s.issue(ctx, userID, e.id)
		if err != nil {
			return err
		}
		if issued != nil {
			metrics.CertificatesIssued.Inc()
			s.notifyIssued(ctx, userID, e.name)
		}
	}

	return nil
}

// issue inserts the grant with a fresh verification code. A conflict on
// the (user, certificate) key means another call already granted it, which
// is not an error. A conflict on the code means a collision; regenerate
// and retry.
func (s *CertificateService) issue(ctx context.Context, userID, certificateID uuid.UUID) (*certificate.UserCertificate, error) {
	for attempt := 0; attempt < codeInsertRetries; attempt++ {
		code, err := certificate.NewVerificationCode()
		if err != nil {
			return nil, err
		}

		uc := &certificate.UserCertificate{}
		query := `
		INSERT INTO user_certificates (id, user_id, certificate_id, issued_at, verification_code, revoked)
		VALUES ($1, $2, $3, NOW(), $4, false)
		RETURNING id, user_id, certificate_id, issued_at, verification_code, revoked
		`
		err = s.db.QueryRow(ctx, query, uuid.New(), userID, certificateID, code).Scan(
			&uc.ID,
			&uc.UserID,
			&uc.CertificateID,
			&uc.IssuedAt,
			&uc.VerificationCode,
			&uc.Revoked,
		)
		if err == nil {
			return uc, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "user_certificates_verification_code_key" {
				log.Printf("verification code collision, regenerating (attempt %d)", attempt+1)
				continue
			}
			// already holds this certificate
			return nil, nil
		}
		return nil, fmt.Errorf("failed to issue certificate: %w", err)
	}
	return nil, fmt.Errorf("could not generate a unique verification code after %d attempts", codeInsertRetries)
}

func (s *CertificateService) notifyIssued(ctx context.Context, userID uuid.UUID, certName string) {
	if s.notifications == nil {
		return
	}
	err := s.notifications.Create(ctx, userID, notification.NotificationCertificateIssued,
		"Certificate earned",
		fmt.Sprintf("You earned the certificate %q", certName),
		map[string]any{"certificate": certName},
	)
	if err != nil {
		log.Printf("failed to create certificate notification: %v", err)
	}
}

func (s *CertificateService) ListUserCertificates(ctx context.Context, userID uuid.UUID) ([]map[string]any, error) {
	query := `
	SELECT c.id, c.name, c.description, c.certificate_type, uc.issued_at, uc.verification_code
	FROM user_certificates uc
	INNER JOIN certificates c ON c.id = uc.certificate_id
	WHERE uc.user_id = $1 AND uc.revoked = false
	ORDER BY uc.issued_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user certificates: %w", err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var (
			id, name, description, certType string
			issuedAt                        time.Time
			code                            string
		)
		if err := rows.Scan(&id, &name, &description, &certType, &issuedAt, &code); err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", err)
		}
		out = append(out, map[string]any{
			"id":                id,
			"name":              name,
			"description":       description,
			"certificate_type":  certType,
			"issued_at":         issuedAt.Format(time.RFC3339),
			"verification_code": code,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

type VerificationResult struct {
	CertificateName string  `json:"certificate_name"`
	CertificateType string  `json:"certificate_type"`
	HolderUsername  string  `json:"holder_username"`
	IssuedAt        string  `json:"issued_at"`
	Revoked         bool    `json:"revoked"`
	TemplateData    *string `json:"template_data,omitempty"`
}

// VerifyByCode is the public lookup behind printed/QR verification codes.
func (s *CertificateService) VerifyByCode(ctx context.Context, code string) (*VerificationResult, error) {
	query := `
	SELECT c.name, c.certificate_type, c.template_data, u.username, uc.issued_at, uc.revoked
	FROM user_certificates uc
	INNER JOIN certificates c ON c.id = uc.certificate_id
	INNER JOIN users u ON u.id = uc.user_id
	WHERE uc.verification_code = $1
	`

	res := &VerificationResult{}
	var templateData []byte
	var issuedAt time.Time
	err := s.db.QueryRow(ctx, query, code).Scan(
		&res.CertificateName,
		&res.CertificateType,
		&templateData,
		&res.HolderUsername,
		&issuedAt,
		&res.Revoked,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("certificate not found")
		}
		return nil, fmt.Errorf("failed to verify certificate: %w", err)
	}
	res.IssuedAt = issuedAt.Format(time.RFC3339)
	if len(templateData) > 0 {
		var pretty map[string]any
		if json.Unmarshal(templateData, &pretty) == nil {
			raw := string(templateData)
			res.TemplateData = &raw
		}
	}

	return res, nil
}

// VerificationQR renders the public verification URL for a code as a PNG.
func (s *CertificateService) VerificationQR(code string) ([]byte, error) {
	url := fmt.Sprintf("%s/api/v1/certificates/verify/%s", s.verifyBaseURL, code)
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}

// Revoke flags an issued certificate. Admin only; enforced by the caller.
func (s *CertificateService) Revoke(ctx context.Context, userCertificateID uuid.UUID) error {
	result, err := s.db.Exec(ctx,
		`UPDATE user_certificates SET revoked = true WHERE id = $1`,
		userCertificateID,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke certificate: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("certificate grant not found")
	}
	return nil
}

type CreateCertificateRequest struct {
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	CertificateType  string         `json:"certificate_type"`
	PointsRequired   int            `json:"points_required"`
	CompetenceAreaID *string        `json:"competence_area_id"`
	TemplateData     map[string]any `json:"template_data"`
}

func (s *CertificateService) CreateCertificate(ctx context.Context, req *CreateCertificateRequest) (*certificate.Certificate, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("certificate name is required")
	}
	if req.PointsRequired <= 0 {
		return nil, fmt.Errorf("points_required must be positive")
	}

	var areaID *uuid.UUID
	if req.CompetenceAreaID != nil && *req.CompetenceAreaID != "" {
		parsed, err := uuid.Parse(*req.CompetenceAreaID)
		if err != nil {
			return nil, fmt.Errorf("invalid competence area id: %w", err)
		}
		areaID = &parsed
	}

	templateJSON, err := json.Marshal(req.TemplateData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template data: %w", err)
	}

	cert := &certificate.Certificate{}
	query := `
	INSERT INTO certificates (id, name, description, certificate_type, points_required, competence_area_id, template_data, active, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, true, NOW())
	RETURNING id, name, description, certificate_type, points_required, competence_area_id, active, created_at
	`
	err = s.db.QueryRow(ctx, query,
		uuid.New(), req.Name, req.Description, req.CertificateType, req.PointsRequired, areaID, templateJSON,
	).Scan(
		&cert.ID,
		&cert.Name,
		&cert.Description,
		&cert.CertificateType,
		&cert.PointsRequired,
		&cert.CompetenceAreaID,
		&cert.Active,
		&cert.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}
	cert.TemplateData = req.TemplateData

	return cert, nil
}

func (s *CertificateService) SetCertificateActive(ctx context.Context, certificateID uuid.UUID, active bool) error {
	result, err := s.db.Exec(ctx,
		`UPDATE certificates SET active = $2 WHERE id = $1`,
		certificateID, active,
	)
	if err != nil {
		return fmt.Errorf("failed to update certificate: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("certificate not found")
	}
	return nil
}
