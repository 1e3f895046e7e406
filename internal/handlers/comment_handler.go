package handlers

import (
	"log"
	"net/http"

	"github.com/devkrol/sociogram/internal/guard"
	"github.com/devkrol/sociogram/internal/models"
	"github.com/devkrol/sociogram/internal/notify"
	"github.com/devkrol/sociogram/internal/repositories"
	"github.com/devkrol/sociogram/internal/social"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	engine            *notify.Engine
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, engine *notify.Engine) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		engine:            engine,
	}
}

// RegisterCommentRoutes registers comment routes, all guarded
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.POST("/create", h.Create, auth)
	g.PATCH("/edit", h.Edit, auth)
	g.POST("/like", h.Like, auth)
	g.DELETE("/delete", h.Delete, auth)
}

// Create leaves a comment under an existing post and notifies its author
func (h *CommentHandler) Create(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return httpError(err)
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return httpError(err)
	}
	postID, err := parseObjectID(req.PostID)
	if err != nil {
		return httpError(err)
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return httpError(err)
	}

	comment := &models.Comment{
		Post:   post.ID,
		Author: actor,
		Text:   req.Text,
	}
	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		return httpError(err)
	}
	if err := h.postRepository.AddComment(ctx, post.ID, comment.ID); err != nil {
		return httpError(err)
	}

	h.engine.Record(ctx, &notify.Event{
		Recipient: post.Author.Hex(),
		FromUser:  actor.Hex(),
		Type:      models.NotificationComment,
		PostID:    post.ID.Hex(),
	})

	return message(c, http.StatusCreated, "Comment saved.")
}

// Edit modifies an owned comment
func (h *CommentHandler) Edit(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return httpError(err)
	}

	var req models.UpdateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return httpError(err)
	}
	commentID, err := parseObjectID(req.ID)
	if err != nil {
		return httpError(err)
	}

	ctx := c.Request().Context()
	comment, err := h.commentRepository.GetCommentByID(ctx, commentID)
	if err != nil {
		return httpError(err)
	}
	if err := guard.RequireOwner(actor.Hex(), comment.Author.Hex()); err != nil {
		log.Println("WARNING: Unauthorized edit attempt! User", actor.Hex(), "tried to modify comment", req.ID, "which does not belong to him.")
		return echo.NewHTTPError(http.StatusForbidden, "Comment does not belong to you!")
	}

	if err := h.commentRepository.UpdateText(ctx, commentID, req.Text); err != nil {
		return httpError(err)
	}

	log.Println("Comment modified successfully.")
	return message(c, http.StatusOK, "Comment modified successfully.")
}

// Like toggles the actor's like on a comment. Liking notifies the comment's
// author.
func (h *CommentHandler) Like(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return httpError(err)
	}

	var req models.CommentIDRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return httpError(err)
	}
	commentID, err := parseObjectID(req.ID)
	if err != nil {
		return httpError(err)
	}

	ctx := c.Request().Context()
	comment, err := h.commentRepository.GetCommentByID(ctx, commentID)
	if err != nil {
		return httpError(err)
	}

	outcome, event, err := social.Toggle(ctx, social.CommentLike(h.commentRepository, comment, actor))
	if err != nil {
		return httpError(err)
	}
	h.engine.Record(ctx, event)

	if outcome == social.Added {
		return message(c, http.StatusOK, "Comment liked successfully.")
	}
	return message(c, http.StatusOK, "Comment disliked.")
}

// Delete removes an owned comment and detaches it from its parent post
func (h *CommentHandler) Delete(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return httpError(err)
	}

	var req models.CommentIDRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return httpError(err)
	}
	commentID, err := parseObjectID(req.ID)
	if err != nil {
		return httpError(err)
	}

	ctx := c.Request().Context()
	comment, err := h.commentRepository.GetCommentByID(ctx, commentID)
	if err != nil {
		return httpError(err)
	}
	if err := guard.RequireOwner(actor.Hex(), comment.Author.Hex()); err != nil {
		log.Println("WARNING: Unauthorized delete attempt! User", actor.Hex(), "tried to delete comment", req.ID, "which does not belong to him.")
		return echo.NewHTTPError(http.StatusForbidden, "Comment does not belong to you!")
	}

	if err := h.commentRepository.DeleteComment(ctx, commentID); err != nil {
		return httpError(err)
	}
	if err := h.postRepository.RemoveComment(ctx, comment.Post, commentID); err != nil {
		log.Println("Failed to detach comment", req.ID, "from post", comment.Post.Hex(), ":", err)
	}

	log.Println("Comment", req.ID, "has been deleted.")
	return message(c, http.StatusOK, "Comment deleted.")
}
