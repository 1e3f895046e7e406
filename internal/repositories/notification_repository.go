package repositories

import (
	"errors"
	"fmt"

	"github.com/devkrol/sociogram/internal/guard"
	"github.com/devkrol/sociogram/internal/models"
	"gorm.io/gorm"
)

// NotificationMatch is the dedup lookup built by the notification engine:
// always recipient + fromUser, plus the type-appropriate scoped target.
// Empty fields are left out of the query.
type NotificationMatch struct {
	Recipient string
	FromUser  string
	Type      string
	PostID    string
	CommentID string
}

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(notification *models.Notification) error
	FindMatching(match NotificationMatch) (*models.Notification, error)
	GetByID(id uint) (*models.Notification, error)
	ListByRecipient(recipient string) ([]models.Notification, error)
	MarkAsRead(id uint) error
	DeleteRead(recipient string) error
	DeleteByUser(userID string) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository creates a GORM-backed notification repository
func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// FindMatching returns the notification matching the dedup key, or nil when
// none exists.
func (r *postgresNotificationRepository) FindMatching(match NotificationMatch) (*models.Notification, error) {
	q := r.db.Where("recipient = ? AND from_user = ?", match.Recipient, match.FromUser)
	if match.Type != "" {
		q = q.Where("type = ?", match.Type)
	}
	if match.PostID != "" {
		q = q.Where("post_id = ?", match.PostID)
	}
	if match.CommentID != "" {
		q = q.Where("comment_id = ?", match.CommentID)
	}

	var notification models.Notification
	err := q.First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &notification, nil
}

func (r *postgresNotificationRepository) GetByID(id uint) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.First(&notification, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("notification: %w", guard.ErrNotFound)
		}
		return nil, err
	}
	return &notification, nil
}

func (r *postgresNotificationRepository) ListByRecipient(recipient string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("recipient = ?", recipient).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

func (r *postgresNotificationRepository) MarkAsRead(id uint) error {
	return r.db.Model(&models.Notification{}).Where("id = ?", id).Update("read", true).Error
}

// DeleteRead hard-deletes the recipient's already-read notifications.
// Called opportunistically when the recipient's list is fetched.
func (r *postgresNotificationRepository) DeleteRead(recipient string) error {
	return r.db.Where("recipient = ? AND read = ?", recipient, true).
		Delete(&models.Notification{}).Error
}

// DeleteByUser removes every notification in which the user appears as
// recipient or actor (account-deletion cascade).
func (r *postgresNotificationRepository) DeleteByUser(userID string) error {
	return r.db.Where("recipient = ? OR from_user = ?", userID, userID).
		Delete(&models.Notification{}).Error
}
