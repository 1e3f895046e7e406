package handlers

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devkrol/sociogram/internal/guard"
	"github.com/devkrol/sociogram/internal/middleware"
	"github.com/devkrol/sociogram/internal/models"
	"github.com/devkrol/sociogram/internal/notify"
	"github.com/devkrol/sociogram/internal/services"
	"github.com/devkrol/sociogram/internal/storage"
	"github.com/devkrol/sociogram/pkg/validators"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post-side methods of the in-memory repos, used by the post handler tests.

func (f *memPostRepo) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	if post.Images == nil {
		post.Images = []string{}
	}
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []primitive.ObjectID{}
	}
	clone := *post
	f.posts[post.ID] = &clone
	return nil
}

func (f *memPostRepo) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := f.posts[id]; !ok {
		return fmt.Errorf("post: %w", guard.ErrNotFound)
	}
	delete(f.posts, id)
	return nil
}

func (f *memPostRepo) UpdateContent(ctx context.Context, id primitive.ObjectID, content string) error {
	post, ok := f.posts[id]
	if !ok {
		return fmt.Errorf("post: %w", guard.ErrNotFound)
	}
	post.Content = content
	return nil
}

func (f *memPostRepo) SetImages(ctx context.Context, id primitive.ObjectID, images []string) error {
	post, ok := f.posts[id]
	if !ok {
		return fmt.Errorf("post: %w", guard.ErrNotFound)
	}
	post.Images = images
	return nil
}

func (f *memPostRepo) AddLike(ctx context.Context, id, user primitive.ObjectID) error {
	f.posts[id].Likes = append(f.posts[id].Likes, user)
	return nil
}

func (f *memPostRepo) RemoveLike(ctx context.Context, id, user primitive.ObjectID) error {
	post := f.posts[id]
	kept := post.Likes[:0]
	for _, existing := range post.Likes {
		if existing != user {
			kept = append(kept, existing)
		}
	}
	post.Likes = kept
	return nil
}

func (f *memCommentRepo) DeleteCommentsByPost(ctx context.Context, postID primitive.ObjectID) error {
	for id, comment := range f.comments {
		if comment.Post == postID {
			delete(f.comments, id)
		}
	}
	return nil
}

type postFixture struct {
	handler       *PostHandler
	posts         *memPostRepo
	comments      *memCommentRepo
	notifications *memNotificationRepo
	root          string
	echo          *echo.Echo
}

func newPostFixture(t *testing.T) *postFixture {
	t.Helper()
	posts := &memPostRepo{posts: map[primitive.ObjectID]*models.Post{}}
	comments := &memCommentRepo{comments: map[primitive.ObjectID]*models.Comment{}}
	notifications := &memNotificationRepo{}
	users := &memUserRepo{users: map[primitive.ObjectID]*models.User{}}
	engine := notify.NewEngine(notifications, users)

	root := t.TempDir()
	images := storage.NewImageStore(root, 2<<20)
	cascade := services.NewCascade(users, posts, comments, notifications, images)

	e := echo.New()
	e.Validator = validators.NewValidator()
	return &postFixture{
		handler:       NewPostHandler(posts, comments, users, engine, cascade, images),
		posts:         posts,
		comments:      comments,
		notifications: notifications,
		root:          root,
		echo:          e,
	}
}

func pngData() []byte {
	data := make([]byte, 64)
	copy(data, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	return data
}

// multipart builds an authenticated multipart request the way the post
// endpoints receive them: form fields plus image attachments.
func (f *postFixture) multipart(t *testing.T, method string, fields map[string]string, images [][]byte, actor primitive.ObjectID) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for i, img := range images {
		part, err := w.CreateFormFile("images", fmt.Sprintf("upload%d.png", i))
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(img); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(method, "/", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := f.echo.NewContext(req, rec)
	c.Set(middleware.ContextUserID, actor.Hex())
	return c, rec
}

func (f *postFixture) storedPost(t *testing.T) *models.Post {
	t.Helper()
	if len(f.posts.posts) != 1 {
		t.Fatalf("%d posts stored, want 1", len(f.posts.posts))
	}
	for _, post := range f.posts.posts {
		return post
	}
	return nil
}

func TestPostCreateStoresImages(t *testing.T) {
	f := newPostFixture(t)
	actor := primitive.NewObjectID()

	c, rec := f.multipart(t, http.MethodPost,
		map[string]string{"content": "beach day"},
		[][]byte{pngData(), pngData()}, actor)
	if err := f.handler.Create(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, want 201", rec.Code)
	}

	post := f.storedPost(t)
	if post.Author != actor || post.Content != "beach day" {
		t.Fatalf("unexpected post %+v", post)
	}
	if len(post.Images) != 2 {
		t.Fatalf("%d image refs, want 2", len(post.Images))
	}
	for _, ref := range post.Images {
		if !strings.HasPrefix(ref, "/uploads/images/posts/"+post.ID.Hex()+"/") {
			t.Fatalf("ref %q outside the post directory", ref)
		}
	}
	entries, err := os.ReadDir(filepath.Join(f.root, "images", "posts", post.ID.Hex()))
	if err != nil || len(entries) != 2 {
		t.Fatalf("stored files: %v (err %v), want 2", entries, err)
	}
}

func TestPostCreateRollsBackOnInvalidImage(t *testing.T) {
	f := newPostFixture(t)
	actor := primitive.NewObjectID()

	c, _ := f.multipart(t, http.MethodPost,
		map[string]string{"content": "with a bad attachment"},
		[][]byte{pngData(), []byte("definitely not an image")}, actor)
	err := f.handler.Create(c)
	if status, _ := httpStatus(t, err); status != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", status)
	}

	// the just-created shell must not survive the rejection
	if len(f.posts.posts) != 0 {
		t.Fatalf("%d posts remain after rejected upload, want 0", len(f.posts.posts))
	}
	if entries, err := os.ReadDir(filepath.Join(f.root, "images", "posts")); err == nil && len(entries) != 0 {
		t.Fatalf("rejected upload left directories behind: %v", entries)
	}
}

func TestPostCreateRequiresTextOrImages(t *testing.T) {
	f := newPostFixture(t)

	c, _ := f.multipart(t, http.MethodPost, map[string]string{"content": ""}, nil, primitive.NewObjectID())
	err := f.handler.Create(c)
	status, msg := httpStatus(t, err)
	if status != http.StatusBadRequest || msg != "Post must contain text or images." {
		t.Fatalf("got %d %q", status, msg)
	}
	if len(f.posts.posts) != 0 {
		t.Fatal("empty post was created")
	}
}

func TestPostUpdateRequiresOwnership(t *testing.T) {
	f := newPostFixture(t)
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	post := &models.Post{ID: primitive.NewObjectID(), Author: owner, Content: "original"}
	f.posts.posts[post.ID] = post

	c, _ := f.multipart(t, http.MethodPatch,
		map[string]string{"id": post.ID.Hex(), "content": "hijacked"}, nil, stranger)
	err := f.handler.Update(c)
	status, msg := httpStatus(t, err)
	if status != http.StatusForbidden || msg != "Post does not belong to you!" {
		t.Fatalf("got %d %q", status, msg)
	}
	if post.Content != "original" {
		t.Fatal("foreign edit modified the post")
	}

	c, rec := f.multipart(t, http.MethodPatch,
		map[string]string{"id": post.ID.Hex(), "content": "fixed typo"}, nil, owner)
	if err := f.handler.Update(c); err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if rec.Code != http.StatusOK || post.Content != "fixed typo" {
		t.Fatalf("owner update not applied: %d %q", rec.Code, post.Content)
	}
}

func TestPostDeleteRequiresOwnership(t *testing.T) {
	f := newPostFixture(t)
	owner := primitive.NewObjectID()
	post := &models.Post{ID: primitive.NewObjectID(), Author: owner, Content: "keep out"}
	f.posts.posts[post.ID] = post
	comment := &models.Comment{ID: primitive.NewObjectID(), Post: post.ID, Author: primitive.NewObjectID()}
	f.comments.comments[comment.ID] = comment
	body := map[string]string{"id": post.ID.Hex()}

	c, _ := f.multipart(t, http.MethodDelete, body, nil, primitive.NewObjectID())
	err := f.handler.Delete(c)
	status, msg := httpStatus(t, err)
	if status != http.StatusForbidden || msg != "Post does not belong to you!" {
		t.Fatalf("got %d %q", status, msg)
	}
	if len(f.posts.posts) != 1 || len(f.comments.comments) != 1 {
		t.Fatal("foreign delete removed data")
	}

	c, rec := f.multipart(t, http.MethodDelete, body, nil, owner)
	if err := f.handler.Delete(c); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if rec.Code != http.StatusOK || bodyMessage(t, rec) != "Post deleted." {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
	if len(f.posts.posts) != 0 {
		t.Fatal("post still present")
	}
	if len(f.comments.comments) != 0 {
		t.Fatal("comments of the deleted post still present")
	}
}
