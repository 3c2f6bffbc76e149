package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"skillForgeAPI/internal/notification"
)

// PushProvider sends a push message to a set of device tokens. FCM in
// production; nil when no credentials are configured.
type PushProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

type NotificationService struct {
	db   *pgxpool.Pool
	push PushProvider
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) SetPushProvider(p PushProvider) {
	s.push = p
}

// Create persists a notification and, when the user has push enabled,
// fans it out to their registered devices. Push failure never fails the
// originating operation.
func (s *NotificationService) Create(ctx context.Context, userID uuid.UUID, nType notification.NotificationType, title, message string, data map[string]any) error {
	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return err
	}
	if enabled, ok := prefs.EnabledTypes[string(nType)]; ok && !enabled {
		return nil
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode notification data: %w", err)
	}

	query := `
	INSERT INTO notifications (id, user_id, type, title, message, is_read, data, created_at)
	VALUES ($1, $2, $3, $4, $5, false, $6, NOW())
	`
	if _, err := s.db.Exec(ctx, query, uuid.New(), userID, nType, title, message, dataJSON); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	if s.push != nil && prefs.PushEnabled {
		tokens, err := s.deviceTokens(ctx, userID)
		if err != nil {
			log.Printf("failed to load device tokens: %v", err)
			return nil
		}
		if err := s.push.SendPush(ctx, tokens, title, message, data); err != nil {
			log.Printf("push delivery failed for user %s: %v", userID, err)
		}
	}

	return nil
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit int) ([]*notification.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
	SELECT id, user_id, type, title, message, is_read, data, created_at
	FROM notifications
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer rows.Close()

	var list []*notification.Notification
	for rows.Next() {
		n := &notification.Notification{}
		var dataJSON []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &dataJSON, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if len(dataJSON) > 0 {
			if err := json.Unmarshal(dataJSON, &n.Data); err != nil {
				return nil, fmt.Errorf("failed to decode notification data: %w", err)
			}
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	result, err := s.db.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// GetPreferences returns the user's notification preferences, creating a
// default row on first access.
func (s *NotificationService) GetPreferences(ctx context.Context, userID uuid.UUID) (*notification.Preferences, error) {
	query := `
	SELECT user_id, push_enabled, enabled_types, updated_at
	FROM notification_preferences
	WHERE user_id = $1
	`

	prefs := &notification.Preferences{}
	var typesJSON []byte
	err := s.db.QueryRow(ctx, query, userID).Scan(&prefs.UserID, &prefs.PushEnabled, &typesJSON, &prefs.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.createDefaultPreferences(ctx, userID)
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	if len(typesJSON) > 0 {
		if err := json.Unmarshal(typesJSON, &prefs.EnabledTypes); err != nil {
			return nil, fmt.Errorf("failed to decode enabled types: %w", err)
		}
	}

	return prefs, nil
}

func (s *NotificationService) createDefaultPreferences(ctx context.Context, userID uuid.UUID) (*notification.Preferences, error) {
	prefs := &notification.Preferences{
		UserID:       userID,
		PushEnabled:  true,
		EnabledTypes: map[string]bool{},
	}

	query := `
	INSERT INTO notification_preferences (user_id, push_enabled, enabled_types, updated_at)
	VALUES ($1, true, '{}', NOW())
	ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := s.db.Exec(ctx, query, userID); err != nil {
		return nil, fmt.Errorf("failed to create default preferences: %w", err)
	}

	return prefs, nil
}

func (s *NotificationService) UpdatePreferences(ctx context.Context, userID uuid.UUID, pushEnabled bool, enabledTypes map[string]bool) (*notification.Preferences, error) {
	typesJSON, err := json.Marshal(enabledTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode enabled types: %w", err)
	}

	query := `
	INSERT INTO notification_preferences (user_id, push_enabled, enabled_types, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (user_id)
	DO UPDATE SET push_enabled = $2, enabled_types = $3, updated_at = NOW()
	`
	if _, err := s.db.Exec(ctx, query, userID, pushEnabled, typesJSON); err != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", err)
	}

	return &notification.Preferences{UserID: userID, PushEnabled: pushEnabled, EnabledTypes: enabledTypes}, nil
}

func (s *NotificationService) RegisterDevice(ctx context.Context, userID uuid.UUID, token, platform string) error {
	if token == "" {
		return fmt.Errorf("device token is required")
	}

	query := `
	INSERT INTO device_tokens (user_id, token, platform, created_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (token)
	DO UPDATE SET user_id = $1, platform = $3
	`
	if _, err := s.db.Exec(ctx, query, userID, token, platform); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *NotificationService) deviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx,
		`SELECT user_id, token, platform, created_at FROM device_tokens WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.UserID, &t.Token, &t.Platform, &t.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
