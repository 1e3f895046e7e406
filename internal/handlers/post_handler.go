package handlers

import (
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/devkrol/sociogram/internal/guard"
	"github.com/devkrol/sociogram/internal/models"
	"github.com/devkrol/sociogram/internal/notify"
	"github.com/devkrol/sociogram/internal/repositories"
	"github.com/devkrol/sociogram/internal/services"
	"github.com/devkrol/sociogram/internal/social"
	"github.com/devkrol/sociogram/internal/storage"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository    repositories.PostRepository
	commentRepository repositories.CommentRepository
	userRepository    repositories.UserRepository
	engine            *notify.Engine
	cascade           *services.Cascade
	images            *storage.ImageStore
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	postRepo repositories.PostRepository,
	commentRepo repositories.CommentRepository,
	userRepo repositories.UserRepository,
	engine *notify.Engine,
	cascade *services.Cascade,
	images *storage.ImageStore,
) *PostHandler {
	return &PostHandler{
		postRepository:    postRepo,
		commentRepository: commentRepo,
		userRepository:    userRepo,
		engine:            engine,
		cascade:           cascade,
		images:            images,
	}
}

// RegisterPostRoutes registers the public show route and, with auth, the
// mutating ones.
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("/show", h.Show)
	g.POST("/create", h.Create, auth)
	g.PATCH("/update", h.Update, auth)
	g.POST("/like", h.Like, auth)
	g.DELETE("/delete", h.Delete, auth)
}

// CommentView is a comment with resolved references
type CommentView struct {
	ID        string               `json:"id"`
	Author    *models.UserCompact  `json:"author"`
	Text      string               `json:"text"`
	Likes     []models.UserCompact `json:"likes"`
	CreatedAt time.Time            `json:"created_at"`
}

// PostView is a post with resolved author, like and comment references
type PostView struct {
	ID        string               `json:"id"`
	Author    *models.UserCompact  `json:"author"`
	Content   string               `json:"content"`
	Images    []string             `json:"images"`
	Likes     []models.UserCompact `json:"likes"`
	Comments  []CommentView        `json:"comments"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Show returns all posts, most recently updated first, with authors, likes
// and comments resolved to compact user projections. Deleted users resolve
// to null authors.
func (h *PostHandler) Show(c echo.Context) error {
	ctx := c.Request().Context()

	posts, err := h.postRepository.GetAllPosts(ctx)
	if err != nil {
		return httpError(err)
	}

	postIDs := make([]primitive.ObjectID, len(posts))
	for i := range posts {
		postIDs[i] = posts[i].ID
	}
	comments, err := h.commentRepository.GetCommentsByPostIDs(ctx, postIDs)
	if err != nil {
		return httpError(err)
	}

	// batch-resolve every referenced user once
	userIDSet := make(map[primitive.ObjectID]bool)
	for i := range posts {
		userIDSet[posts[i].Author] = true
		for _, id := range posts[i].Likes {
			userIDSet[id] = true
		}
	}
	for i := range comments {
		userIDSet[comments[i].Author] = true
		for _, id := range comments[i].Likes {
			userIDSet[id] = true
		}
	}
	userIDs := make([]primitive.ObjectID, 0, len(userIDSet))
	for id := range userIDSet {
		userIDs = append(userIDs, id)
	}
	users, err := h.userRepository.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return httpError(err)
	}
	userMap := make(map[primitive.ObjectID]models.UserCompact, len(users))
	for i := range users {
		userMap[users[i].ID] = users[i].ToCompact()
	}

	commentsByPost := make(map[primitive.ObjectID][]CommentView)
	for i := range comments {
		cm := &comments[i]
		commentsByPost[cm.Post] = append(commentsByPost[cm.Post], CommentView{
			ID:        cm.ID.Hex(),
			Author:    lookupUser(userMap, cm.Author),
			Text:      cm.Text,
			Likes:     resolveUsers(userMap, cm.Likes),
			CreatedAt: cm.CreatedAt,
		})
	}

	views := make([]PostView, len(posts))
	for i := range posts {
		p := &posts[i]
		views[i] = PostView{
			ID:        p.ID.Hex(),
			Author:    lookupUser(userMap, p.Author),
			Content:   p.Content,
			Images:    p.Images,
			Likes:     resolveUsers(userMap, p.Likes),
			Comments:  commentsByPost[p.ID],
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		}
	}
	return c.JSON(http.StatusOK, views)
}

func lookupUser(userMap map[primitive.ObjectID]models.UserCompact, id primitive.ObjectID) *models.UserCompact {
	if compact, ok := userMap[id]; ok {
		return &compact
	}
	return nil
}

func resolveUsers(userMap map[primitive.ObjectID]models.UserCompact, ids []primitive.ObjectID) []models.UserCompact {
	resolved := make([]models.UserCompact, 0, len(ids))
	for _, id := range ids {
		if compact, ok := userMap[id]; ok {
			resolved = append(resolved, compact)
		}
	}
	return resolved
}

// Create creates a new post, storing validated image attachments under a
// post-scoped location. A validation failure on any attachment deletes the
// just-created post shell.
func (h *PostHandler) Create(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return httpError(err)
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return httpError(err)
	}

	files := formImages(c)
	if req.Content == "" && len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Post must contain text or images.")
	}

	ctx := c.Request().Context()
	post := &models.Post{Author: actor, Content: req.Content}
	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		return httpError(err)
	}

	if len(files) > 0 {
		refs, err := h.images.SavePostImages(post.ID.Hex(), files)
		if err != nil {
			// abandon the shell together with anything stored for it
			if delErr := h.postRepository.DeletePost(ctx, post.ID); delErr != nil {
				log.Println("Failed to roll back post", post.ID.Hex(), "after image rejection:", delErr)
			}
			if rmErr := h.images.RemovePostImages(post.ID.Hex()); rmErr != nil {
				log.Println("Failed to clean image folder of post", post.ID.Hex(), ":", rmErr)
			}
			return httpError(err)
		}
		if err := h.postRepository.SetImages(ctx, post.ID, refs); err != nil {
			return httpError(err)
		}
	}

	log.Println("User", actor.Hex(), "submitted a post.")
	return message(c, http.StatusCreated, "Post created successfully")
}

// Update edits an owned post. When new images are supplied the previous set
// is replaced wholesale; the new batch is validated before any old file is
// deleted.
func (h *PostHandler) Update(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return httpError(err)
	}

	var req models.UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return httpError(err)
	}
	postID, err := parseObjectID(req.ID)
	if err != nil {
		return httpError(err)
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return httpError(err)
	}
	if err := guard.RequireOwner(actor.Hex(), post.Author.Hex()); err != nil {
		log.Println("WARNING: Unauthorized edit attempt! User", actor.Hex(), "tried to modify post", req.ID, "which does not belong to him.")
		return echo.NewHTTPError(http.StatusForbidden, "Post does not belong to you!")
	}

	files := formImages(c)
	if req.Content == "" && len(files) == 0 && len(post.Images) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Post must contain text or images.")
	}

	if err := h.postRepository.UpdateContent(ctx, postID, req.Content); err != nil {
		return httpError(err)
	}

	if len(files) > 0 {
		refs, err := h.images.ReplacePostImages(postID.Hex(), files)
		if err != nil {
			return httpError(err)
		}
		if err := h.postRepository.SetImages(ctx, postID, refs); err != nil {
			return httpError(err)
		}
	}

	log.Println("Post modified successfully.")
	return message(c, http.StatusOK, "Post modified successfully.")
}

// Like toggles the actor's like on a post. Liking notifies the author;
// unliking never does and leaves any existing notification in place.
func (h *PostHandler) Like(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return httpError(err)
	}

	var req models.PostIDRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return httpError(err)
	}
	postID, err := parseObjectID(req.ID)
	if err != nil {
		return httpError(err)
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return httpError(err)
	}

	outcome, event, err := social.Toggle(ctx, social.PostLike(h.postRepository, post, actor))
	if err != nil {
		return httpError(err)
	}
	h.engine.Record(ctx, event)

	if outcome == social.Added {
		return message(c, http.StatusOK, "Post liked.")
	}
	return message(c, http.StatusOK, "Post disliked.")
}

// Delete removes an owned post with its comments and image folder
func (h *PostHandler) Delete(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return httpError(err)
	}

	var req models.PostIDRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return httpError(err)
	}
	postID, err := parseObjectID(req.ID)
	if err != nil {
		return httpError(err)
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return httpError(err)
	}
	if err := guard.RequireOwner(actor.Hex(), post.Author.Hex()); err != nil {
		log.Println("WARNING: Unauthorized delete attempt! User", actor.Hex(), "tried to delete post", req.ID, "which does not belong to him.")
		return echo.NewHTTPError(http.StatusForbidden, "Post does not belong to you!")
	}

	if err := h.cascade.DeletePost(ctx, post); err != nil {
		return httpError(err)
	}

	log.Println("Post", req.ID, "and its images folder have been deleted.")
	return message(c, http.StatusOK, "Post deleted.")
}

// formImages returns the multipart attachments under the "images" field
func formImages(c echo.Context) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File["images"]
}
