package repositories

import (
	"errors"
	"testing"
	"time"

	"github.com/devkrol/sociogram/internal/guard"
	"github.com/devkrol/sociogram/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newNotificationRepo(t *testing.T) NotificationRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewPostgresNotificationRepository(db)
}

func TestFindMatchingScoping(t *testing.T) {
	repo := newNotificationRepo(t)

	stored := &models.Notification{
		Recipient: "bob",
		FromUser:  "alice",
		Type:      models.NotificationLike,
		PostID:    "post1",
	}
	if err := repo.CreateNotification(stored); err != nil {
		t.Fatalf("create: %v", err)
	}

	// like and comment share the post-scoped dedup slot, so the match omits type
	found, err := repo.FindMatching(NotificationMatch{Recipient: "bob", FromUser: "alice", PostID: "post1"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found == nil || found.ID != stored.ID {
		t.Fatalf("got %+v, want stored notification", found)
	}

	cases := []NotificationMatch{
		{Recipient: "bob", FromUser: "alice", PostID: "post2"},
		{Recipient: "bob", FromUser: "carol", PostID: "post1"},
		{Recipient: "eve", FromUser: "alice", PostID: "post1"},
		{Recipient: "bob", FromUser: "alice", Type: models.NotificationFollow},
		{Recipient: "bob", FromUser: "alice", CommentID: "comment1"},
	}
	for _, match := range cases {
		found, err := repo.FindMatching(match)
		if err != nil {
			t.Fatalf("find %+v: %v", match, err)
		}
		if found != nil {
			t.Fatalf("match %+v unexpectedly hit %+v", match, found)
		}
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := newNotificationRepo(t)
	if _, err := repo.GetByID(42); !errors.Is(err, guard.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestListByRecipientNewestFirst(t *testing.T) {
	repo := newNotificationRepo(t)

	older := &models.Notification{Recipient: "bob", FromUser: "alice", Type: models.NotificationFollow,
		CreatedAt: time.Now().Add(-time.Hour)}
	newer := &models.Notification{Recipient: "bob", FromUser: "carol", Type: models.NotificationFollow,
		CreatedAt: time.Now()}
	other := &models.Notification{Recipient: "eve", FromUser: "alice", Type: models.NotificationFollow}
	for _, n := range []*models.Notification{older, newer, other} {
		if err := repo.CreateNotification(n); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	notifications, err := repo.ListByRecipient("bob")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notifications) != 2 {
		t.Fatalf("got %d notifications, want 2", len(notifications))
	}
	if notifications[0].ID != newer.ID || notifications[1].ID != older.ID {
		t.Fatalf("wrong order: %v then %v", notifications[0].ID, notifications[1].ID)
	}
}

func TestDeleteReadKeepsUnread(t *testing.T) {
	repo := newNotificationRepo(t)

	read := &models.Notification{Recipient: "bob", FromUser: "alice", Type: models.NotificationFollow}
	unread := &models.Notification{Recipient: "bob", FromUser: "carol", Type: models.NotificationFollow}
	foreign := &models.Notification{Recipient: "eve", FromUser: "alice", Type: models.NotificationFollow}
	for _, n := range []*models.Notification{read, unread, foreign} {
		if err := repo.CreateNotification(n); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := repo.MarkAsRead(read.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := repo.MarkAsRead(foreign.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	if err := repo.DeleteRead("bob"); err != nil {
		t.Fatalf("delete read: %v", err)
	}

	remaining, err := repo.ListByRecipient("bob")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != unread.ID {
		t.Fatalf("got %+v, want only the unread notification", remaining)
	}
	// another recipient's read notifications are untouched
	if got, err := repo.ListByRecipient("eve"); err != nil || len(got) != 1 {
		t.Fatalf("foreign recipient affected: %v (%d left)", err, len(got))
	}
}

func TestDeleteByUserRemovesBothDirections(t *testing.T) {
	repo := newNotificationRepo(t)

	asRecipient := &models.Notification{Recipient: "bob", FromUser: "alice", Type: models.NotificationFollow}
	asActor := &models.Notification{Recipient: "carol", FromUser: "bob", Type: models.NotificationFollow}
	unrelated := &models.Notification{Recipient: "carol", FromUser: "alice", Type: models.NotificationFollow}
	for _, n := range []*models.Notification{asRecipient, asActor, unrelated} {
		if err := repo.CreateNotification(n); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if err := repo.DeleteByUser("bob"); err != nil {
		t.Fatalf("delete by user: %v", err)
	}

	if got, err := repo.ListByRecipient("bob"); err != nil || len(got) != 0 {
		t.Fatalf("bob still has notifications: %v (%d)", err, len(got))
	}
	remaining, err := repo.ListByRecipient("carol")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != unrelated.ID {
		t.Fatalf("got %+v, want only the unrelated notification", remaining)
	}
}
