package social

import (
	"context"

	"github.com/devkrol/sociogram/internal/models"
	"github.com/devkrol/sociogram/internal/notify"
	"github.com/devkrol/sociogram/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// postLike is the actor's membership in a post's like set
type postLike struct {
	posts repositories.PostRepository
	post  *models.Post
	actor primitive.ObjectID
}

// PostLike builds the like relationship between an actor and a post
func PostLike(posts repositories.PostRepository, post *models.Post, actor primitive.ObjectID) Relationship {
	return &postLike{posts: posts, post: post, actor: actor}
}

func (r *postLike) Exists() bool {
	return contains(r.post.Likes, r.actor)
}

func (r *postLike) Add(ctx context.Context) error {
	return r.posts.AddLike(ctx, r.post.ID, r.actor)
}

func (r *postLike) Remove(ctx context.Context) error {
	return r.posts.RemoveLike(ctx, r.post.ID, r.actor)
}

func (r *postLike) Event() *notify.Event {
	return &notify.Event{
		Recipient: r.post.Author.Hex(),
		FromUser:  r.actor.Hex(),
		Type:      models.NotificationLike,
		PostID:    r.post.ID.Hex(),
	}
}

// commentLike is the actor's membership in a comment's like set
type commentLike struct {
	comments repositories.CommentRepository
	comment  *models.Comment
	actor    primitive.ObjectID
}

// CommentLike builds the like relationship between an actor and a comment
func CommentLike(comments repositories.CommentRepository, comment *models.Comment, actor primitive.ObjectID) Relationship {
	return &commentLike{comments: comments, comment: comment, actor: actor}
}

func (r *commentLike) Exists() bool {
	return contains(r.comment.Likes, r.actor)
}

func (r *commentLike) Add(ctx context.Context) error {
	return r.comments.AddLike(ctx, r.comment.ID, r.actor)
}

func (r *commentLike) Remove(ctx context.Context) error {
	return r.comments.RemoveLike(ctx, r.comment.ID, r.actor)
}

func (r *commentLike) Event() *notify.Event {
	return &notify.Event{
		Recipient: r.comment.Author.Hex(),
		FromUser:  r.actor.Hex(),
		Type:      models.NotificationCommentLike,
		CommentID: r.comment.ID.Hex(),
	}
}

// follow is the actor's membership in another user's followers set. Add and
// Remove write both sides of the edge (follower's following, followee's
// followers).
type follow struct {
	users  repositories.UserRepository
	target *models.User
	actor  primitive.ObjectID
}

// Follow builds the follow relationship between an actor and a target user.
// Callers must reject actor == target before toggling.
func Follow(users repositories.UserRepository, target *models.User, actor primitive.ObjectID) Relationship {
	return &follow{users: users, target: target, actor: actor}
}

func (r *follow) Exists() bool {
	return contains(r.target.Followers, r.actor)
}

func (r *follow) Add(ctx context.Context) error {
	return r.users.AddFollowEdge(ctx, r.actor, r.target.ID)
}

func (r *follow) Remove(ctx context.Context) error {
	return r.users.RemoveFollowEdge(ctx, r.actor, r.target.ID)
}

func (r *follow) Event() *notify.Event {
	return &notify.Event{
		Recipient: r.target.ID.Hex(),
		FromUser:  r.actor.Hex(),
		Type:      models.NotificationFollow,
	}
}
