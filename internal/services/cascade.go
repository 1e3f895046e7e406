// Package services holds the multi-step cascade workflows triggered by post
// and account deletion. Cascades are best-effort: a failing step is logged
// and the workflow continues, favoring forward progress over rollback, since
// no transaction spans MongoDB, PostgreSQL and the filesystem.
package services

import (
	"context"
	"log"

	"github.com/devkrol/sociogram/internal/models"
	"github.com/devkrol/sociogram/internal/repositories"
)

// ImageRemover is the slice of the image store the cascades need
type ImageRemover interface {
	RemovePostImages(postID string) error
	RemoveAvatar(userID string) error
}

// Cascade runs the delete workflows
type Cascade struct {
	users         repositories.UserRepository
	posts         repositories.PostRepository
	comments      repositories.CommentRepository
	notifications repositories.NotificationRepository
	images        ImageRemover
}

// NewCascade creates the cascade service
func NewCascade(
	userRepo repositories.UserRepository,
	postRepo repositories.PostRepository,
	commentRepo repositories.CommentRepository,
	notificationRepo repositories.NotificationRepository,
	images ImageRemover,
) *Cascade {
	return &Cascade{
		users:         userRepo,
		posts:         postRepo,
		comments:      commentRepo,
		notifications: notificationRepo,
		images:        images,
	}
}

// DeletePost removes a post, all comments referencing it, and its image
// directory. The database record is removed first; filesystem failures do
// not block it.
func (c *Cascade) DeletePost(ctx context.Context, post *models.Post) error {
	if err := c.posts.DeletePost(ctx, post.ID); err != nil {
		return err
	}
	if err := c.comments.DeleteCommentsByPost(ctx, post.ID); err != nil {
		log.Println("Cascade: failed to delete comments of post", post.ID.Hex(), ":", err)
	}
	if err := c.images.RemovePostImages(post.ID.Hex()); err != nil {
		log.Println("Cascade: failed to delete image folder of post", post.ID.Hex(), ":", err)
	}
	return nil
}

// DeleteAccount is the broadest cascade in the system: it removes the user's
// posts (with their comments and image folders), their comments on other
// posts, every notification they appear in as recipient or actor, their
// follow edges and likes, their avatar, and finally the user document.
func (c *Cascade) DeleteAccount(ctx context.Context, user *models.User) error {
	userID := user.ID.Hex()

	posts, err := c.posts.GetPostsByAuthor(ctx, user.ID)
	if err != nil {
		log.Println("Cascade: failed to list posts of user", userID, ":", err)
	}
	for i := range posts {
		if err := c.DeletePost(ctx, &posts[i]); err != nil {
			log.Println("Cascade: failed to delete post", posts[i].ID.Hex(), "of user", userID, ":", err)
		}
	}

	comments, err := c.comments.GetCommentsByAuthor(ctx, user.ID)
	if err != nil {
		log.Println("Cascade: failed to list comments of user", userID, ":", err)
	}
	for _, comment := range comments {
		if err := c.comments.DeleteComment(ctx, comment.ID); err != nil {
			log.Println("Cascade: failed to delete comment", comment.ID.Hex(), ":", err)
			continue
		}
		if err := c.posts.RemoveComment(ctx, comment.Post, comment.ID); err != nil {
			log.Println("Cascade: failed to detach comment", comment.ID.Hex(), "from post", comment.Post.Hex(), ":", err)
		}
	}

	if err := c.notifications.DeleteByUser(userID); err != nil {
		log.Println("Cascade: failed to delete notifications of user", userID, ":", err)
	}
	if err := c.users.RemoveUserFromFollowSets(ctx, user.ID); err != nil {
		log.Println("Cascade: failed to remove follow edges of user", userID, ":", err)
	}
	if err := c.posts.RemoveLikesBy(ctx, user.ID); err != nil {
		log.Println("Cascade: failed to remove post likes of user", userID, ":", err)
	}
	if err := c.comments.RemoveLikesBy(ctx, user.ID); err != nil {
		log.Println("Cascade: failed to remove comment likes of user", userID, ":", err)
	}
	if err := c.images.RemoveAvatar(userID); err != nil {
		log.Println("Cascade: failed to remove avatar of user", userID, ":", err)
	}

	return c.users.DeleteUser(ctx, user.ID)
}
