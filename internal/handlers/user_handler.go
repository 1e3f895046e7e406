package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/devkrol/sociogram/internal/guard"
	"github.com/devkrol/sociogram/internal/models"
	"github.com/devkrol/sociogram/internal/notify"
	"github.com/devkrol/sociogram/internal/repositories"
	"github.com/devkrol/sociogram/internal/services"
	"github.com/devkrol/sociogram/internal/social"
	"github.com/devkrol/sociogram/internal/storage"
	"github.com/labstack/echo/v4"
)

// UserHandler handles profile, follow and account routes
type UserHandler struct {
	userRepository repositories.UserRepository
	engine         *notify.Engine
	cascade        *services.Cascade
	images         *storage.ImageStore
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, engine *notify.Engine, cascade *services.Cascade, images *storage.ImageStore) *UserHandler {
	return &UserHandler{
		userRepository: userRepo,
		engine:         engine,
		cascade:        cascade,
		images:         images,
	}
}

// RegisterUserRoutes registers the public user routes and, with auth, the
// profile-mutating ones.
func (h *UserHandler) RegisterUserRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("/search/:login", h.Search)
	g.GET("/profile/:login", h.Profile)
	g.GET("/me", h.Me, auth)
	g.PATCH("/edit", h.Edit, auth)
	g.POST("/follow", h.Follow, auth)
	g.PATCH("/picture", h.Picture, auth)
	g.DELETE("/delete", h.Delete, auth)
}

// PublicProfile is the projection returned for other users
type PublicProfile struct {
	models.UserCompact
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Followers int    `json:"followers"`
	Following int    `json:"following"`
}

func publicProfile(u *models.User) PublicProfile {
	return PublicProfile{
		UserCompact: u.ToCompact(),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Bio:         u.Bio,
		Followers:   len(u.Followers),
		Following:   len(u.Following),
	}
}

// Me returns the authenticated user's own record
func (h *UserHandler) Me(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return httpError(err)
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// Profile returns another user's public profile by login
func (h *UserHandler) Profile(c echo.Context) error {
	user, err := h.userRepository.GetUserByLogin(c.Request().Context(), models.NormalizeLogin(c.Param("login")))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, publicProfile(user))
}

// Search returns users whose login starts with the given fragment
func (h *UserHandler) Search(c echo.Context) error {
	users, err := h.userRepository.SearchUsersByLogin(c.Request().Context(), c.Param("login"))
	if err != nil {
		return httpError(err)
	}
	results := make([]models.UserCompact, len(users))
	for i := range users {
		results[i] = users[i].ToCompact()
	}
	return c.JSON(http.StatusOK, results)
}

// Edit updates the authenticated user's own profile. A login or email change
// is re-checked for uniqueness.
func (h *UserHandler) Edit(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return httpError(err)
	}

	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return httpError(err)
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, actor)
	if err != nil {
		return httpError(err)
	}

	if req.Login != "" {
		login := models.NormalizeLogin(req.Login)
		if login != user.Login {
			if other, err := h.userRepository.GetUserByLogin(ctx, login); err == nil && other.ID != user.ID {
				return echo.NewHTTPError(http.StatusConflict, "User with given login already exists!")
			} else if err != nil && !errors.Is(err, guard.ErrNotFound) {
				return httpError(err)
			}
			user.Login = login
		}
	}
	if req.Email != "" {
		email := models.NormalizeEmail(req.Email)
		if email != user.Email {
			if other, err := h.userRepository.GetUserByEmail(ctx, email); err == nil && other.ID != user.ID {
				return echo.NewHTTPError(http.StatusConflict, "User with given email address already exists!")
			} else if err != nil && !errors.Is(err, guard.ErrNotFound) {
				return httpError(err)
			}
			user.Email = email
		}
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}

	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return httpError(err)
	}

	log.Println("User", user.Login, "updated.")
	return c.JSON(http.StatusOK, user)
}

// Follow toggles the follow relationship with the user named in the body.
// Following notifies the followee; unfollowing never does.
func (h *UserHandler) Follow(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return httpError(err)
	}

	var req models.FollowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return httpError(err)
	}

	ctx := c.Request().Context()
	target, err := h.userRepository.GetUserByLogin(ctx, models.NormalizeLogin(req.Login))
	if err != nil {
		return httpError(err)
	}
	if target.ID == actor {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot follow yourself.")
	}

	outcome, event, err := social.Toggle(ctx, social.Follow(h.userRepository, target, actor))
	if err != nil {
		return httpError(err)
	}
	h.engine.Record(ctx, event)

	if outcome == social.Added {
		return message(c, http.StatusOK, "User followed.")
	}
	return message(c, http.StatusOK, "User unfollowed.")
}

// Picture replaces the authenticated user's profile picture. A request
// without a file clears the current picture.
func (h *UserHandler) Picture(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return httpError(err)
	}
	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByID(ctx, actor); err != nil {
		return httpError(err)
	}

	file, err := c.FormFile("picture")
	if err != nil {
		// no file: clear the picture
		if err := h.images.RemoveAvatar(actor.Hex()); err != nil {
			log.Println("Failed to remove avatar files of user", actor.Hex(), ":", err)
		}
		if err := h.userRepository.SetProfilePic(ctx, actor, ""); err != nil {
			return httpError(err)
		}
		return message(c, http.StatusOK, "Profile picture removed.")
	}

	ref, err := h.images.SaveAvatar(actor.Hex(), file)
	if err != nil {
		return httpError(err)
	}
	if err := h.userRepository.SetProfilePic(ctx, actor, ref); err != nil {
		return httpError(err)
	}
	return message(c, http.StatusOK, "Profile picture updated.")
}

// Delete removes the authenticated user's account with the full cascade
func (h *UserHandler) Delete(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return httpError(err)
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, actor)
	if err != nil {
		return httpError(err)
	}

	if err := h.cascade.DeleteAccount(ctx, user); err != nil {
		return httpError(err)
	}

	log.Println("User", user.Login, "deleted.")
	return message(c, http.StatusOK, "User deleted successfully.")
}
