// Package notify implements the notification engine: it decides whether a
// social action (like, comment, commentLike, follow) produces a stored
// notification, deduplicates against outstanding ones, and resolves actor
// references when a recipient fetches their list.
package notify

import (
	"context"
	"log"

	"github.com/devkrol/sociogram/internal/guard"
	"github.com/devkrol/sociogram/internal/models"
	"github.com/devkrol/sociogram/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event describes a notification-worthy action. Mutation handlers build one
// explicitly and hand it to Record after the content change is durable; it is
// never passed through shared request state.
type Event struct {
	Recipient string // user hex id of the resource owner
	FromUser  string // user hex id of the actor
	Type      string // models.Notification* constant
	PostID    string // set for like and comment
	CommentID string // set for commentLike
}

// View is a notification enriched with a compact actor projection. Actor is
// nil when the acting user has since been deleted; clients render that as a
// generic "deleted user" placeholder.
type View struct {
	models.Notification
	Actor *models.UserCompact `json:"actor"`
}

// Engine computes, deduplicates and persists notifications
type Engine struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
}

// NewEngine creates a notification engine
func NewEngine(notificationRepo repositories.NotificationRepository, userRepo repositories.UserRepository) *Engine {
	return &Engine{
		notifications: notificationRepo,
		users:         userRepo,
	}
}

// Record persists a notification for the event unless it must be suppressed:
// self-actions are never stored, and a recipient is notified at most once per
// (actor, recipient, target) combination until the matching notification is
// cleared by being read. Notifications are best-effort; failures are logged
// and never surfaced to the acting user.
func (e *Engine) Record(ctx context.Context, event *Event) {
	if event == nil {
		return
	}
	// prevent from sending to oneself
	if event.Recipient == event.FromUser {
		return
	}

	// prevent from spam
	match := repositories.NotificationMatch{
		Recipient: event.Recipient,
		FromUser:  event.FromUser,
	}
	switch event.Type {
	case models.NotificationLike, models.NotificationComment:
		match.PostID = event.PostID
	case models.NotificationCommentLike:
		match.CommentID = event.CommentID
	case models.NotificationFollow:
		match.Type = models.NotificationFollow
	}

	existing, err := e.notifications.FindMatching(match)
	if err != nil {
		log.Println("Failed attempt sending notification:", err)
		return
	}
	if existing != nil {
		return
	}

	notification := &models.Notification{
		Recipient: event.Recipient,
		FromUser:  event.FromUser,
		Type:      event.Type,
		PostID:    event.PostID,
		CommentID: event.CommentID,
	}
	if err := e.notifications.CreateNotification(notification); err != nil {
		log.Println("Failed attempt sending notification:", err)
	}
}

// ListFor purges the recipient's already-read notifications, then returns the
// remaining ones newest first, each resolved with a minimal actor projection.
func (e *Engine) ListFor(ctx context.Context, recipient string) ([]View, error) {
	if err := e.notifications.DeleteRead(recipient); err != nil {
		// purge is garbage collection; listing continues
		log.Println("Failed to purge read notifications for", recipient, ":", err)
	}

	notifications, err := e.notifications.ListByRecipient(recipient)
	if err != nil {
		return nil, err
	}

	views := make([]View, len(notifications))
	actorCache := make(map[string]*models.UserCompact)
	for i, n := range notifications {
		views[i] = View{Notification: n}
		if actor, ok := actorCache[n.FromUser]; ok {
			views[i].Actor = actor
			continue
		}
		var actor *models.UserCompact
		if id, idErr := primitive.ObjectIDFromHex(n.FromUser); idErr == nil {
			if user, userErr := e.users.GetUserByID(ctx, id); userErr == nil {
				compact := user.ToCompact()
				actor = &compact
			}
		}
		actorCache[n.FromUser] = actor
		views[i].Actor = actor
	}
	return views, nil
}

// MarkRead marks one notification as read. Only the recipient may do so.
func (e *Engine) MarkRead(actorID string, id uint) error {
	notification, err := e.notifications.GetByID(id)
	if err != nil {
		return err
	}
	if err := guard.RequireOwner(actorID, notification.Recipient); err != nil {
		return err
	}
	return e.notifications.MarkAsRead(id)
}
