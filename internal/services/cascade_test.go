package services

import (
	"context"
	"errors"
	"testing"

	"github.com/devkrol/sociogram/internal/models"
	"github.com/devkrol/sociogram/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory fakes overriding only the methods the cascades touch.

type cascadePostRepo struct {
	repositories.PostRepository
	posts        map[primitive.ObjectID]*models.Post
	likesRemoved []primitive.ObjectID
	deleteErr    error
}

func (f *cascadePostRepo) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.posts, id)
	return nil
}

func (f *cascadePostRepo) GetPostsByAuthor(ctx context.Context, author primitive.ObjectID) ([]models.Post, error) {
	var out []models.Post
	for _, post := range f.posts {
		if post.Author == author {
			out = append(out, *post)
		}
	}
	return out, nil
}

func (f *cascadePostRepo) RemoveComment(ctx context.Context, id, commentID primitive.ObjectID) error {
	post, ok := f.posts[id]
	if !ok {
		return nil
	}
	kept := post.Comments[:0]
	for _, existing := range post.Comments {
		if existing != commentID {
			kept = append(kept, existing)
		}
	}
	post.Comments = kept
	return nil
}

func (f *cascadePostRepo) RemoveLikesBy(ctx context.Context, user primitive.ObjectID) error {
	f.likesRemoved = append(f.likesRemoved, user)
	return nil
}

type cascadeCommentRepo struct {
	repositories.CommentRepository
	comments     map[primitive.ObjectID]*models.Comment
	likesRemoved []primitive.ObjectID
}

func (f *cascadeCommentRepo) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	delete(f.comments, id)
	return nil
}

func (f *cascadeCommentRepo) DeleteCommentsByPost(ctx context.Context, postID primitive.ObjectID) error {
	for id, comment := range f.comments {
		if comment.Post == postID {
			delete(f.comments, id)
		}
	}
	return nil
}

func (f *cascadeCommentRepo) GetCommentsByAuthor(ctx context.Context, author primitive.ObjectID) ([]models.Comment, error) {
	var out []models.Comment
	for _, comment := range f.comments {
		if comment.Author == author {
			out = append(out, *comment)
		}
	}
	return out, nil
}

func (f *cascadeCommentRepo) RemoveLikesBy(ctx context.Context, user primitive.ObjectID) error {
	f.likesRemoved = append(f.likesRemoved, user)
	return nil
}

type cascadeUserRepo struct {
	repositories.UserRepository
	deleted       []primitive.ObjectID
	edgesScrubbed []primitive.ObjectID
}

func (f *cascadeUserRepo) RemoveUserFromFollowSets(ctx context.Context, id primitive.ObjectID) error {
	f.edgesScrubbed = append(f.edgesScrubbed, id)
	return nil
}

func (f *cascadeUserRepo) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type cascadeNotificationRepo struct {
	repositories.NotificationRepository
	deletedFor []string
}

func (f *cascadeNotificationRepo) DeleteByUser(userID string) error {
	f.deletedFor = append(f.deletedFor, userID)
	return nil
}

type cascadeImages struct {
	postDirs []string
	avatars  []string
	postErr  error
}

func (f *cascadeImages) RemovePostImages(postID string) error {
	if f.postErr != nil {
		return f.postErr
	}
	f.postDirs = append(f.postDirs, postID)
	return nil
}

func (f *cascadeImages) RemoveAvatar(userID string) error {
	f.avatars = append(f.avatars, userID)
	return nil
}

func newFixture() (*Cascade, *cascadeUserRepo, *cascadePostRepo, *cascadeCommentRepo, *cascadeNotificationRepo, *cascadeImages) {
	users := &cascadeUserRepo{}
	posts := &cascadePostRepo{posts: map[primitive.ObjectID]*models.Post{}}
	comments := &cascadeCommentRepo{comments: map[primitive.ObjectID]*models.Comment{}}
	notifications := &cascadeNotificationRepo{}
	images := &cascadeImages{}
	return NewCascade(users, posts, comments, notifications, images), users, posts, comments, notifications, images
}

func addPost(posts *cascadePostRepo, author primitive.ObjectID) *models.Post {
	post := &models.Post{ID: primitive.NewObjectID(), Author: author}
	posts.posts[post.ID] = post
	return post
}

func addComment(comments *cascadeCommentRepo, post *models.Post, author primitive.ObjectID) *models.Comment {
	comment := &models.Comment{ID: primitive.NewObjectID(), Post: post.ID, Author: author}
	comments.comments[comment.ID] = comment
	post.Comments = append(post.Comments, comment.ID)
	return comment
}

func TestDeletePostCascades(t *testing.T) {
	cascade, _, posts, comments, _, images := newFixture()
	ctx := context.Background()

	author := primitive.NewObjectID()
	post := addPost(posts, author)
	other := addPost(posts, author)
	addComment(comments, post, primitive.NewObjectID())
	addComment(comments, post, primitive.NewObjectID())
	kept := addComment(comments, other, primitive.NewObjectID())

	if err := cascade.DeletePost(ctx, post); err != nil {
		t.Fatalf("delete post: %v", err)
	}

	if _, ok := posts.posts[post.ID]; ok {
		t.Fatal("post document still present")
	}
	if len(comments.comments) != 1 {
		t.Fatalf("%d comments remain, want only the one on the other post", len(comments.comments))
	}
	if _, ok := comments.comments[kept.ID]; !ok {
		t.Fatal("comment on an unrelated post was deleted")
	}
	if len(images.postDirs) != 1 || images.postDirs[0] != post.ID.Hex() {
		t.Fatalf("image dirs removed: %v", images.postDirs)
	}
}

func TestDeletePostStopsWhenRecordSurvives(t *testing.T) {
	cascade, _, posts, comments, _, images := newFixture()
	ctx := context.Background()

	post := addPost(posts, primitive.NewObjectID())
	addComment(comments, post, primitive.NewObjectID())
	posts.deleteErr = errors.New("mongo down")

	if err := cascade.DeletePost(ctx, post); err == nil {
		t.Fatal("expected the primary delete failure to surface")
	}
	if len(comments.comments) != 1 {
		t.Fatal("comments must not be touched when the post record survives")
	}
	if len(images.postDirs) != 0 {
		t.Fatal("images must not be touched when the post record survives")
	}
}

func TestDeletePostContinuesPastImageFailure(t *testing.T) {
	cascade, _, posts, _, _, images := newFixture()
	ctx := context.Background()

	post := addPost(posts, primitive.NewObjectID())
	images.postErr = errors.New("disk error")

	if err := cascade.DeletePost(ctx, post); err != nil {
		t.Fatalf("filesystem failure must not surface, got %v", err)
	}
	if _, ok := posts.posts[post.ID]; ok {
		t.Fatal("post document still present")
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	cascade, users, posts, comments, notifications, images := newFixture()
	ctx := context.Background()

	alice := &models.User{ID: primitive.NewObjectID(), Login: "alice"}
	bob := primitive.NewObjectID()

	// alice's post, with bob's comment on it
	alicePost := addPost(posts, alice.ID)
	addComment(comments, alicePost, bob)

	// bob's post, with alice's comment on it
	bobPost := addPost(posts, bob)
	aliceComment := addComment(comments, bobPost, alice.ID)

	if err := cascade.DeleteAccount(ctx, alice); err != nil {
		t.Fatalf("delete account: %v", err)
	}

	if _, ok := posts.posts[alicePost.ID]; ok {
		t.Fatal("alice's post still present")
	}
	if _, ok := posts.posts[bobPost.ID]; !ok {
		t.Fatal("bob's post was deleted")
	}
	if _, ok := comments.comments[aliceComment.ID]; ok {
		t.Fatal("alice's comment on bob's post still present")
	}
	for _, id := range posts.posts[bobPost.ID].Comments {
		if id == aliceComment.ID {
			t.Fatal("bob's post still references alice's deleted comment")
		}
	}
	if len(comments.comments) != 0 {
		t.Fatalf("%d comments remain, want 0", len(comments.comments))
	}

	userID := alice.ID.Hex()
	if len(notifications.deletedFor) != 1 || notifications.deletedFor[0] != userID {
		t.Fatalf("notifications purged for %v, want [%s]", notifications.deletedFor, userID)
	}
	if len(users.edgesScrubbed) != 1 || users.edgesScrubbed[0] != alice.ID {
		t.Fatalf("follow edges scrubbed for %v, want alice", users.edgesScrubbed)
	}
	if len(posts.likesRemoved) != 1 || posts.likesRemoved[0] != alice.ID {
		t.Fatalf("post likes removed for %v, want alice", posts.likesRemoved)
	}
	if len(comments.likesRemoved) != 1 || comments.likesRemoved[0] != alice.ID {
		t.Fatalf("comment likes removed for %v, want alice", comments.likesRemoved)
	}
	if len(images.avatars) != 1 || images.avatars[0] != userID {
		t.Fatalf("avatars removed: %v, want [%s]", images.avatars, userID)
	}
	if len(images.postDirs) != 1 || images.postDirs[0] != alicePost.ID.Hex() {
		t.Fatalf("post image dirs removed: %v", images.postDirs)
	}
	if len(users.deleted) != 1 || users.deleted[0] != alice.ID {
		t.Fatalf("deleted users: %v, want alice last", users.deleted)
	}
}
