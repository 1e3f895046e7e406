package models

import "time"

// Notification types. CommentLike targets a comment; the rest target a post
// or, for follows, nothing beyond the user pair.
const (
	NotificationLike        = "like"
	NotificationComment     = "comment"
	NotificationCommentLike = "commentLike"
	NotificationFollow      = "follow"
)

// Notification represents a user notification (PostgreSQL). Recipient and
// FromUser hold MongoDB user ids as hex strings; a row is never stored with
// Recipient == FromUser.
type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Recipient string    `json:"recipient" gorm:"size:24;index"`
	FromUser  string    `json:"fromUser" gorm:"size:24;index"`
	Type      string    `json:"type" gorm:"size:20"`
	PostID    string    `json:"post,omitempty" gorm:"size:24"`
	CommentID string    `json:"comment,omitempty" gorm:"size:24"`
	Read      bool      `json:"read" gorm:"default:false;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

// ReadNotificationRequest identifies a notification to mark as read
type ReadNotificationRequest struct {
	ID uint `json:"id" validate:"required"`
}
